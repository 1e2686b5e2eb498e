// Package utils exposes reusable helpers consumed by the CLI and the migration command.
//
// It houses ConfigurationLoader and LoggerFactory, which integrate Viper,
// environment variables, and zap logging, plus CommandContextAccessor for
// values threaded through Cobra command contexts.
package utils
