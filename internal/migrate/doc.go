// Package migrate reconciles legacy orchestration blocks into the task model.
//
// Service runs three migrators per org in a fixed order: the connector server block,
// the manual sync deployments (including their remote parameters) and the transformation
// blocks. Each migrator contains its own failures and reports them through a ledger.Ledger
// so that one org never stops the run for the others. CommandBuilder exposes the run as the
// tasks-migrate Cobra command.
package migrate
