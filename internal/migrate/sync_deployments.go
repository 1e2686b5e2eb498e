package migrate

import (
	"context"

	"go.uber.org/zap"

	"github.com/temirov/taskmigrate/internal/ledger"
	"github.com/temirov/taskmigrate/internal/model"
	"github.com/temirov/taskmigrate/internal/orchestration"
	"github.com/temirov/taskmigrate/internal/store"
)

const (
	syncTaskMissingMessageConstant        = "run the tasks migration to populate the master table"
	orgTasksAbsentTemplateConstant        = "found 0 orgtasks in %s"
	orgTasksPresentTemplateConstant       = "found %d orgtasks in %s"
	dataflowsAbsentTemplateConstant       = "found 0 dataflows in %s with deployment_id %s"
	dataflowsPresentTemplateConstant      = "found %d dataflows in %s with deployment_id %s"
	dataflowLinksAbsentTemplateConstant   = "found 0 dataflow orgtask links in %s with deployment_id %s"
	dataflowLinksPresentTemplateConstant  = "found %d dataflow orgtask links in %s with deployment_id %s"
	configMissingTemplateConstant         = "Missing 'config' key in the deployment parameters for %s %s"
	configPresentTemplateConstant         = "Found correct deployment params for %s %s"
	deploymentRefetchFailedTemplate       = "Failed to fetch deployment with id '%s' for %s"
	lookupServerForSyncOperation          = "look up the server block for sync deployments"
	lookupSyncTaskOperationConstant       = "look up the sync task"
	listLegacyDataflowsOperation          = "list manual sync dataflows"
	lookupSyncOrgTaskOperationConstant    = "look up the sync orgtask"
	createSyncOrgTaskOperationConstant    = "create the sync orgtask"
	countSyncOrgTasksOperationConstant    = "count sync orgtasks"
	lookupDataflowOperationConstant       = "look up the dataflow"
	createDataflowOperationConstant       = "create the dataflow"
	countDataflowsOperationConstant       = "count dataflows"
	countDataflowLinksOperationConstant   = "count dataflow orgtask links"
	createDataflowLinkOperationConstant   = "link the dataflow to its orgtask"
	parametersConfigKeyConstant           = "config"
	parametersTasksKeyConstant            = "tasks"
	taskConfigSlugKeyConstant             = "slug"
	taskConfigTypeKeyConstant             = "type"
	taskConfigSequenceKeyConstant         = "seq"
	taskConfigServerBlockKeyConstant      = "airbyte_server_block"
	taskConfigConnectionKeyConstant       = "connection_id"
	taskConfigTimeoutKeyConstant          = "timeout"
	syncTaskSequenceConstant              = 1
	logMessageServerBlockAbsent           = "Org has no server block yet; skipping sync deployments"
	logMessageServerBlockFound            = "Found server block"
	logMessageCreatingDataflow            = "Creating dataflow"
	logMessageLinkingDataflow             = "Linking dataflow to orgtask"
	logMessageDeploymentFetchFailed       = "Unable to fetch deployment; skipping to next dataflow"
	logMessageDeploymentUpdateFailed      = "Unable to update deployment parameters; skipping to next dataflow"
	logMessageDeploymentUpdated           = "Updated deployment parameters"
	logMessageDeploymentVerificationError = "Unable to verify deployment parameters"
	logFieldDeploymentIdentifierConstant  = "deployment_id"
	logFieldConnectionIdentifierConstant  = "connection_id"
)

// MigrateManualSyncDeployments ensures every legacy manual sync deployment of the org has an
// orgtask, a task-model dataflow and a link between them, then rewrites the deployment's
// remote parameters so that config.tasks describes the sync task.
func (service *Service) MigrateManualSyncDeployments(executionContext context.Context, organization model.Org) ledger.Ledger {
	var migrationLedger ledger.Ledger

	serverBlock, serverFound, serverError := service.store.FindBlock(executionContext, organization.ID, model.BlockTypeAirbyteServer)
	if serverError != nil {
		return service.recordStoreFailure(migrationLedger, organization, lookupServerForSyncOperation, serverError)
	}
	if !serverFound {
		service.logger.Debug(logMessageServerBlockAbsent, zap.String(logFieldOrgSlugConstant, organization.Slug))
		return migrationLedger
	}
	service.logger.Debug(logMessageServerBlockFound, zap.String(logFieldOrgSlugConstant, organization.Slug), zap.String(logFieldBlockNameConstant, serverBlock.BlockName))

	syncTask, taskFound, taskError := service.store.FindTaskBySlug(executionContext, model.TaskSlugAirbyteSync)
	if taskError != nil {
		return service.recordStoreFailure(migrationLedger, organization, lookupSyncTaskOperationConstant, taskError)
	}
	if !taskFound {
		return migrationLedger.Fail(syncTaskMissingMessageConstant)
	}

	legacyDataflows, listError := service.store.ListLegacyDataflows(executionContext, organization.ID, model.DataflowKindManual, service.deploymentNamePrefix)
	if listError != nil {
		return service.recordStoreFailure(migrationLedger, organization, listLegacyDataflowsOperation, listError)
	}

	for _, legacyDataflow := range legacyDataflows {
		if executionContext.Err() != nil {
			break
		}
		migrationLedger = service.migrateSyncDeployment(executionContext, organization, serverBlock, syncTask, legacyDataflow, migrationLedger)
	}
	return migrationLedger
}

func (service *Service) migrateSyncDeployment(executionContext context.Context, organization model.Org, serverBlock model.Block, syncTask model.Task, legacyDataflow model.LegacyDataflow, migrationLedger ledger.Ledger) ledger.Ledger {
	orgTask, orgTaskLedger, orgTaskReady := service.ensureSyncOrgTask(executionContext, organization, syncTask, legacyDataflow, migrationLedger)
	migrationLedger = orgTaskLedger
	if !orgTaskReady {
		return migrationLedger
	}

	dataflow, dataflowLedger, dataflowReady := service.ensureManualDataflow(executionContext, organization, orgTask, legacyDataflow, migrationLedger)
	migrationLedger = dataflowLedger
	if !dataflowReady {
		return migrationLedger
	}

	return service.updateDeploymentParameters(executionContext, organization, serverBlock, syncTask, orgTask, dataflow, migrationLedger)
}

func (service *Service) ensureSyncOrgTask(executionContext context.Context, organization model.Org, syncTask model.Task, legacyDataflow model.LegacyDataflow, migrationLedger ledger.Ledger) (model.OrgTask, ledger.Ledger, bool) {
	filter := store.OrgTaskFilter{
		OrgID:           organization.ID,
		TaskID:          syncTask.ID,
		ConnectionID:    legacyDataflow.ConnectionID,
		MatchConnection: true,
	}

	orgTask, orgTaskFound, lookupError := service.store.FindOrgTask(executionContext, filter)
	if lookupError != nil {
		return model.OrgTask{}, service.recordStoreFailure(migrationLedger, organization, lookupSyncOrgTaskOperationConstant, lookupError), false
	}
	if !orgTaskFound {
		createdOrgTask, createError := service.store.CreateOrgTask(executionContext, model.OrgTask{
			OrgID:        organization.ID,
			TaskID:       syncTask.ID,
			ConnectionID: legacyDataflow.ConnectionID,
		})
		if createError != nil {
			return model.OrgTask{}, service.recordStoreFailure(migrationLedger, organization, createSyncOrgTaskOperationConstant, createError), false
		}
		orgTask = createdOrgTask
	}

	orgTaskCount, countError := service.store.CountOrgTasks(executionContext, filter)
	if countError != nil {
		return model.OrgTask{}, service.recordStoreFailure(migrationLedger, organization, countSyncOrgTasksOperationConstant, countError), false
	}
	if orgTaskCount == 0 {
		return model.OrgTask{}, migrationLedger.Fail(orgTasksAbsentTemplateConstant, organization.Slug), false
	}
	return orgTask, migrationLedger.Succeed(orgTasksPresentTemplateConstant, orgTaskCount, organization.Slug), true
}

func (service *Service) ensureManualDataflow(executionContext context.Context, organization model.Org, orgTask model.OrgTask, legacyDataflow model.LegacyDataflow, migrationLedger ledger.Ledger) (model.Dataflow, ledger.Ledger, bool) {
	deploymentID := legacyDataflow.DeploymentID

	dataflow, dataflowFound, lookupError := service.store.FindDataflow(executionContext, organization.ID, model.DataflowKindManual, deploymentID)
	if lookupError != nil {
		return model.Dataflow{}, service.recordStoreFailure(migrationLedger, organization, lookupDataflowOperationConstant, lookupError), false
	}
	if !dataflowFound {
		service.logger.Info(
			logMessageCreatingDataflow,
			zap.String(logFieldOrgSlugConstant, organization.Slug),
			zap.String(logFieldDeploymentIdentifierConstant, deploymentID),
		)
		createdDataflow, createError := service.store.CreateDataflow(executionContext, model.Dataflow{
			OrgID:          organization.ID,
			Kind:           model.DataflowKindManual,
			Name:           legacyDataflow.Name,
			DeploymentName: legacyDataflow.DeploymentName,
			DeploymentID:   deploymentID,
			Cron:           legacyDataflow.Cron,
		})
		if createError != nil {
			return model.Dataflow{}, service.recordStoreFailure(migrationLedger, organization, createDataflowOperationConstant, createError), false
		}
		dataflow = createdDataflow
	}

	existingLinks, linkLookupError := service.store.CountDataflowOrgTasks(executionContext, dataflow.ID, orgTask.ID)
	if linkLookupError != nil {
		return model.Dataflow{}, service.recordStoreFailure(migrationLedger, organization, countDataflowLinksOperationConstant, linkLookupError), false
	}
	if existingLinks == 0 {
		service.logger.Debug(
			logMessageLinkingDataflow,
			zap.String(logFieldOrgSlugConstant, organization.Slug),
			zap.String(logFieldDeploymentIdentifierConstant, deploymentID),
			zap.String(logFieldConnectionIdentifierConstant, orgTask.ConnectionID),
		)
		_, linkError := service.store.CreateDataflowOrgTask(executionContext, model.DataflowOrgTask{
			DataflowID: dataflow.ID,
			OrgTaskID:  orgTask.ID,
			Sequence:   syncTaskSequenceConstant,
		})
		if linkError != nil {
			return model.Dataflow{}, service.recordStoreFailure(migrationLedger, organization, createDataflowLinkOperationConstant, linkError), false
		}
	}

	dataflowCount, dataflowCountError := service.store.CountDataflows(executionContext, organization.ID, model.DataflowKindManual, deploymentID)
	if dataflowCountError != nil {
		return model.Dataflow{}, service.recordStoreFailure(migrationLedger, organization, countDataflowsOperationConstant, dataflowCountError), false
	}
	if dataflowCount == 0 {
		migrationLedger = migrationLedger.Fail(dataflowsAbsentTemplateConstant, organization.Slug, deploymentID)
	} else {
		migrationLedger = migrationLedger.Succeed(dataflowsPresentTemplateConstant, dataflowCount, organization.Slug, deploymentID)
	}

	linkCount, linkCountError := service.store.CountDataflowOrgTasks(executionContext, dataflow.ID, orgTask.ID)
	if linkCountError != nil {
		return model.Dataflow{}, service.recordStoreFailure(migrationLedger, organization, countDataflowLinksOperationConstant, linkCountError), false
	}
	if linkCount == 0 {
		migrationLedger = migrationLedger.Fail(dataflowLinksAbsentTemplateConstant, organization.Slug, deploymentID)
	} else {
		migrationLedger = migrationLedger.Succeed(dataflowLinksPresentTemplateConstant, linkCount, organization.Slug, deploymentID)
	}

	return dataflow, migrationLedger, true
}

func (service *Service) updateDeploymentParameters(executionContext context.Context, organization model.Org, serverBlock model.Block, syncTask model.Task, orgTask model.OrgTask, dataflow model.Dataflow, migrationLedger ledger.Ledger) ledger.Ledger {
	deploymentID := dataflow.DeploymentID

	deployment, fetchError := service.orchestration.GetDeployment(executionContext, deploymentID)
	if fetchError != nil {
		service.logger.Warn(
			logMessageDeploymentFetchFailed,
			zap.String(logFieldOrgSlugConstant, organization.Slug),
			zap.String(logFieldDeploymentIdentifierConstant, deploymentID),
			zap.Error(fetchError),
		)
		return migrationLedger
	}

	parameters := BuildSyncDeploymentParameters(deployment.Parameters, syncTask, serverBlock, orgTask)
	updateError := service.orchestration.UpdateDataflow(executionContext, deploymentID, orchestration.DataflowUpdate{
		Name:             dataflow.Name,
		Connections:      []string{},
		TransformMode:    orchestration.TransformModeIgnore,
		Cron:             dataflow.Cron,
		DeploymentParams: parameters,
	})
	if updateError != nil {
		service.logger.Warn(
			logMessageDeploymentUpdateFailed,
			zap.String(logFieldOrgSlugConstant, organization.Slug),
			zap.String(logFieldDeploymentIdentifierConstant, deploymentID),
			zap.Error(updateError),
		)
		return migrationLedger
	}
	service.logger.Info(logMessageDeploymentUpdated, zap.String(logFieldOrgSlugConstant, organization.Slug), zap.String(logFieldDeploymentIdentifierConstant, deploymentID))

	verifiedDeployment, verifyError := service.orchestration.GetDeployment(executionContext, deploymentID)
	if verifyError != nil {
		service.logger.Error(
			logMessageDeploymentVerificationError,
			zap.String(logFieldOrgSlugConstant, organization.Slug),
			zap.String(logFieldDeploymentIdentifierConstant, deploymentID),
			zap.Error(verifyError),
		)
		return migrationLedger.Fail(deploymentRefetchFailedTemplate, deploymentID, organization.Slug)
	}
	if _, configPresent := verifiedDeployment.Parameters[parametersConfigKeyConstant]; !configPresent {
		return migrationLedger.Fail(configMissingTemplateConstant, organization.Slug, deploymentID)
	}
	return migrationLedger.Succeed(configPresentTemplateConstant, organization.Slug, deploymentID)
}

// BuildSyncDeploymentParameters returns a copy of parameters whose config key holds a single
// sync task entry. Every other key is carried over unchanged.
func BuildSyncDeploymentParameters(parameters map[string]any, syncTask model.Task, serverBlock model.Block, orgTask model.OrgTask) map[string]any {
	updatedParameters := make(map[string]any, len(parameters)+1)
	for parameterKey, parameterValue := range parameters {
		updatedParameters[parameterKey] = parameterValue
	}

	taskConfiguration := map[string]any{
		taskConfigSlugKeyConstant:        syncTask.Slug,
		taskConfigTypeKeyConstant:        string(model.BlockTypeAirbyteConnection),
		taskConfigSequenceKeyConstant:    syncTaskSequenceConstant,
		taskConfigServerBlockKeyConstant: serverBlock.BlockName,
		taskConfigConnectionKeyConstant:  orgTask.ConnectionID,
		taskConfigTimeoutKeyConstant:     model.AirbyteSyncTimeout,
	}
	updatedParameters[parametersConfigKeyConstant] = map[string]any{
		parametersTasksKeyConstant: []any{taskConfiguration},
	}
	return updatedParameters
}
