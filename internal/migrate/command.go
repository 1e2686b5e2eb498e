package migrate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/taskmigrate/internal/connectors"
	"github.com/temirov/taskmigrate/internal/orchestration"
	"github.com/temirov/taskmigrate/internal/secrets"
	"github.com/temirov/taskmigrate/internal/store"
	"github.com/temirov/taskmigrate/internal/transform"
)

const (
	commandUseConstant                       = "tasks-migrate"
	commandShortDescriptionConstant          = "Migrate legacy blocks into org tasks"
	commandLongDescriptionConstant           = "tasks-migrate copies each org's connector server block, rebuilds manual sync deployments on top of org tasks, and binds transformation blocks to catalog tasks. Re-running it is safe."
	databaseDriverFlagNameConstant           = "database-driver"
	databaseDriverFlagUsageConstant          = "Database driver (pgx or sqlite3)"
	databaseDSNFlagNameConstant              = "database-dsn"
	databaseDSNFlagUsageConstant             = "Database connection string"
	deploymentPrefixFlagNameConstant         = "deployment-prefix"
	deploymentPrefixFlagUsageConstant        = "Deployment name prefix selecting legacy manual sync dataflows"
	storeOpenErrorTemplateConstant           = "unable to open record store: %w"
	schemaErrorTemplateConstant              = "unable to prepare record store schema: %w"
	orchestrationClientErrorTemplateConstant = "unable to construct orchestration client: %w"
	connectorsClientErrorTemplateConstant    = "unable to construct connectors client: %w"
	secretsProviderErrorTemplateConstant     = "unable to construct secrets provider: %w"
	workspaceErrorTemplateConstant           = "unable to resolve transformation workspace: %w"
	runErrorTemplateConstant                 = "tasks migration failed: %w"
	summaryWriteErrorTemplateConstant        = "unable to report migration results: %w"
	logMessageMigrationFailed                = "Tasks migration aborted"
	logMessageMigrationCompletedWithFailures = "Tasks migration recorded failures"
	logMessageStoreCloseFailed               = "Unable to close record store"
)

// ServiceProvider constructs a migrator from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (TaskMigrator, error)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the tasks-migrate Cobra command.
// Collaborators left nil are built from configuration at run time.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	ServiceProvider       ServiceProvider
	Store                 RecordStore
	Orchestration         OrchestrationClient
	Secrets               SecretsProvider
	Destinations          DestinationResolver
	Workspace             TransformWorkspace
}

type commandOptions struct {
	configuration CommandConfiguration
}

// Build constructs the tasks-migrate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}

	command.Flags().String(databaseDriverFlagNameConstant, "", databaseDriverFlagUsageConstant)
	command.Flags().String(databaseDSNFlagNameConstant, "", databaseDSNFlagUsageConstant)
	command.Flags().String(deploymentPrefixFlagNameConstant, "", deploymentPrefixFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options := builder.parseOptions(command)
	configuration := options.configuration
	logger := builder.resolveLogger()
	executionContext := command.Context()
	if executionContext == nil {
		executionContext = context.Background()
	}

	recordStore, closeStore, storeError := builder.resolveStore(executionContext, configuration)
	if storeError != nil {
		return storeError
	}
	defer func() {
		if closeError := closeStore(); closeError != nil {
			logger.Warn(logMessageStoreCloseFailed, zap.Error(closeError))
		}
	}()

	dependencies, dependenciesError := builder.resolveDependencies(executionContext, configuration)
	if dependenciesError != nil {
		return dependenciesError
	}
	dependencies.Logger = logger
	dependencies.Store = recordStore
	dependencies.DeploymentNamePrefix = configuration.DeploymentNamePrefix

	migrator, serviceError := builder.resolveService(dependencies)
	if serviceError != nil {
		return serviceError
	}

	migrationLedger, runError := migrator.Run(executionContext)
	if summaryError := migrationLedger.WriteSummary(command.OutOrStdout()); summaryError != nil {
		return fmt.Errorf(summaryWriteErrorTemplateConstant, summaryError)
	}
	if runError != nil {
		logger.Error(logMessageMigrationFailed, zap.Error(runError))
		return fmt.Errorf(runErrorTemplateConstant, runError)
	}

	if migrationLedger.HasFailures() {
		logger.Warn(logMessageMigrationCompletedWithFailures, zap.Int(logFieldFailureCountConstant, len(migrationLedger.Failures())))
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) commandOptions {
	configuration := builder.resolveConfiguration()

	if command == nil {
		return commandOptions{configuration: configuration.Sanitize()}
	}

	if command.Flags().Changed(databaseDriverFlagNameConstant) {
		flagValue, _ := command.Flags().GetString(databaseDriverFlagNameConstant)
		configuration.Database.Driver = flagValue
	}
	if command.Flags().Changed(databaseDSNFlagNameConstant) {
		flagValue, _ := command.Flags().GetString(databaseDSNFlagNameConstant)
		configuration.Database.DataSourceName = flagValue
	}
	if command.Flags().Changed(deploymentPrefixFlagNameConstant) {
		flagValue, _ := command.Flags().GetString(deploymentPrefixFlagNameConstant)
		configuration.DeploymentNamePrefix = flagValue
	}

	return commandOptions{configuration: configuration.Sanitize()}
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveStore(executionContext context.Context, configuration CommandConfiguration) (RecordStore, func() error, error) {
	if builder.Store != nil {
		return builder.Store, func() error { return nil }, nil
	}

	driver, driverError := store.ParseDriver(configuration.Database.Driver)
	if driverError != nil {
		return nil, nil, fmt.Errorf(storeOpenErrorTemplateConstant, driverError)
	}

	sqlStore, openError := store.Open(executionContext, driver, configuration.Database.DataSourceName)
	if openError != nil {
		return nil, nil, fmt.Errorf(storeOpenErrorTemplateConstant, openError)
	}

	if configuration.EnsureSchema {
		if schemaError := sqlStore.EnsureSchema(executionContext); schemaError != nil {
			_ = sqlStore.Close()
			return nil, nil, fmt.Errorf(schemaErrorTemplateConstant, schemaError)
		}
	}
	return sqlStore, sqlStore.Close, nil
}

func (builder *CommandBuilder) resolveDependencies(executionContext context.Context, configuration CommandConfiguration) (ServiceDependencies, error) {
	dependencies := ServiceDependencies{
		Orchestration: builder.Orchestration,
		Secrets:       builder.Secrets,
		Destinations:  builder.Destinations,
		Workspace:     builder.Workspace,
	}

	if dependencies.Orchestration == nil {
		orchestrationClient, clientError := orchestration.NewHTTPClient(configuration.Orchestration.BaseURL, configuration.Orchestration.Timeout)
		if clientError != nil {
			return ServiceDependencies{}, fmt.Errorf(orchestrationClientErrorTemplateConstant, clientError)
		}
		dependencies.Orchestration = orchestrationClient
	}

	if dependencies.Destinations == nil {
		connectorsClient, clientError := connectors.NewHTTPClient(
			configuration.Connectors.BaseURL,
			configuration.Connectors.Username,
			configuration.Connectors.Password,
			configuration.Connectors.Timeout,
		)
		if clientError != nil {
			return ServiceDependencies{}, fmt.Errorf(connectorsClientErrorTemplateConstant, clientError)
		}
		dependencies.Destinations = connectorsClient
	}

	if dependencies.Secrets == nil {
		secretsProvider, providerError := secrets.NewAWSProvider(executionContext, configuration.Secrets.Region, configuration.Secrets.Endpoint)
		if providerError != nil {
			return ServiceDependencies{}, fmt.Errorf(secretsProviderErrorTemplateConstant, providerError)
		}
		dependencies.Secrets = secretsProvider
	}

	if dependencies.Workspace == nil {
		workspace, workspaceError := transform.NewWorkspace(configuration.Transform.ClientRoot)
		if workspaceError != nil {
			return ServiceDependencies{}, fmt.Errorf(workspaceErrorTemplateConstant, workspaceError)
		}
		dependencies.Workspace = workspace
	}

	return dependencies, nil
}

func (builder *CommandBuilder) resolveService(dependencies ServiceDependencies) (TaskMigrator, error) {
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}

	provided := builder.ConfigurationProvider()
	return provided.Sanitize()
}
