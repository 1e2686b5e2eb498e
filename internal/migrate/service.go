package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/taskmigrate/internal/ledger"
	"github.com/temirov/taskmigrate/internal/model"
)

const (
	// DefaultDeploymentNamePrefix selects legacy manual sync deployments.
	DefaultDeploymentNamePrefix = "manual-sync"

	recordStoreMissingMessageConstant   = "record store not configured"
	orchestrationMissingMessageConstant = "orchestration client not configured"
	secretsMissingMessageConstant       = "secrets provider not configured"
	destinationsMissingMessageConstant  = "destination resolver not configured"
	workspaceMissingMessageConstant     = "transformation workspace not configured"
	orgListingErrorTemplateConstant     = "unable to list orgs: %w"
	storeFailureTemplateConstant        = "FAILED to %s for org %s: %v"
	logMessageOrgMigrationStarted       = "Migrating org"
	logMessageOrgMigrationFinished      = "Org migration finished"
	logMessageStoreOperationFailed      = "Store operation failed"
	logMessageRunFinished               = "Tasks migration finished"
	logFieldOrgSlugConstant             = "org"
	logFieldOperationConstant           = "operation"
	logFieldOrgCountConstant            = "org_count"
	logFieldSuccessCountConstant        = "successes"
	logFieldFailureCountConstant        = "failures"
)

// ServiceDependencies describes required collaborators for the migration.
type ServiceDependencies struct {
	Logger               *zap.Logger
	Store                RecordStore
	Orchestration        OrchestrationClient
	Secrets              SecretsProvider
	Destinations         DestinationResolver
	Workspace            TransformWorkspace
	DeploymentNamePrefix string
}

// Service reconciles legacy blocks into the task model, one org at a time.
type Service struct {
	logger               *zap.Logger
	store                RecordStore
	orchestration        OrchestrationClient
	secrets              SecretsProvider
	destinations         DestinationResolver
	workspace            TransformWorkspace
	deploymentNamePrefix string
}

var (
	errRecordStoreMissing   = errors.New(recordStoreMissingMessageConstant)
	errOrchestrationMissing = errors.New(orchestrationMissingMessageConstant)
	errSecretsMissing       = errors.New(secretsMissingMessageConstant)
	errDestinationsMissing  = errors.New(destinationsMissingMessageConstant)
	errWorkspaceMissing     = errors.New(workspaceMissingMessageConstant)
)

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Store == nil {
		return nil, errRecordStoreMissing
	}
	if dependencies.Orchestration == nil {
		return nil, errOrchestrationMissing
	}
	if dependencies.Secrets == nil {
		return nil, errSecretsMissing
	}
	if dependencies.Destinations == nil {
		return nil, errDestinationsMissing
	}
	if dependencies.Workspace == nil {
		return nil, errWorkspaceMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	deploymentNamePrefix := strings.TrimSpace(dependencies.DeploymentNamePrefix)
	if len(deploymentNamePrefix) == 0 {
		deploymentNamePrefix = DefaultDeploymentNamePrefix
	}

	return &Service{
		logger:               logger,
		store:                dependencies.Store,
		orchestration:        dependencies.Orchestration,
		secrets:              dependencies.Secrets,
		destinations:         dependencies.Destinations,
		workspace:            dependencies.Workspace,
		deploymentNamePrefix: deploymentNamePrefix,
	}, nil
}

// Run migrates every org and returns the combined ledger.
// Only a failure to list orgs or a cancelled context is returned as an error; everything else
// is recorded in the ledger.
func (service *Service) Run(executionContext context.Context) (ledger.Ledger, error) {
	organizations, listError := service.store.ListOrgs(executionContext)
	if listError != nil {
		return ledger.Ledger{}, fmt.Errorf(orgListingErrorTemplateConstant, listError)
	}

	var runLedger ledger.Ledger
	for _, organization := range organizations {
		if contextError := executionContext.Err(); contextError != nil {
			return runLedger, contextError
		}
		runLedger = runLedger.Merge(service.MigrateOrg(executionContext, organization))
	}

	service.logger.Info(
		logMessageRunFinished,
		zap.Int(logFieldOrgCountConstant, len(organizations)),
		zap.Int(logFieldSuccessCountConstant, len(runLedger.Successes())),
		zap.Int(logFieldFailureCountConstant, len(runLedger.Failures())),
	)
	return runLedger, nil
}

// MigrateOrg runs the server, sync deployment and transformation migrators for one org.
func (service *Service) MigrateOrg(executionContext context.Context, organization model.Org) ledger.Ledger {
	service.logger.Info(logMessageOrgMigrationStarted, zap.String(logFieldOrgSlugConstant, organization.Slug))

	_, _, serverLedger := service.MigrateServerBlock(executionContext, organization)
	orgLedger := serverLedger.
		Merge(service.MigrateManualSyncDeployments(executionContext, organization)).
		Merge(service.MigrateTransformationBlocks(executionContext, organization))

	service.logger.Debug(
		logMessageOrgMigrationFinished,
		zap.String(logFieldOrgSlugConstant, organization.Slug),
		zap.Int(logFieldFailureCountConstant, len(orgLedger.Failures())),
	)
	return orgLedger
}

func (service *Service) recordStoreFailure(migrationLedger ledger.Ledger, organization model.Org, operation string, storeError error) ledger.Ledger {
	service.logger.Error(
		logMessageStoreOperationFailed,
		zap.String(logFieldOrgSlugConstant, organization.Slug),
		zap.String(logFieldOperationConstant, operation),
		zap.Error(storeError),
	)
	return migrationLedger.Fail(storeFailureTemplateConstant, operation, organization.Slug, storeError)
}
