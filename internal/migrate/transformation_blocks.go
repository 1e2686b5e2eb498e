package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/taskmigrate/internal/gitrepo"
	"github.com/temirov/taskmigrate/internal/ledger"
	"github.com/temirov/taskmigrate/internal/model"
	"github.com/temirov/taskmigrate/internal/orchestration"
	"github.com/temirov/taskmigrate/internal/store"
	"github.com/temirov/taskmigrate/internal/transform"
)

const (
	warehouseMissingMessageConstant      = "SKIPPING: org does not have a warehouse"
	credentialsUnavailableMessage        = "SKIPPING: couldnt retrieve the warehouse creds"
	datasetLocationUnavailableMessage    = "SKIPPING: couldnt retrieve the bigquery warehouse location"
	transformProjectMissingMessage       = "SKIPPING: org does not have a dbt workspace"
	virtualEnvironmentMissingMessage     = "SKIPPING: couldnt find the dbt venv"
	descriptorMissingTemplateConstant    = "%s is missing"
	profileMissingMessageConstant        = "SKIPPING: could not find 'profile:' in dbt_project.yml"
	descriptorUnusableTemplateConstant   = "SKIPPING: %s"
	profileBlockCreateFailedMessage      = "FAILED to create the dbt cli profile block"
	profileBlockCreatedMessage           = "Created the dbt cli profile block for the org"
	profileBlockInUseTemplateConstant    = "Using the dbt cli profile block %s"
	profileBlockCountTemplateConstant    = "ASSERT: Found %d dbt cli profile block"
	accessTokenUnavailableMessage        = "FAILED to retrieve the git access token"
	gitPullURLFailedTemplateConstant     = "FAILED to build the git pull url: %v"
	secretBlockCreateFailedMessage       = "FAILED to create the secret git pull url block"
	secretBlockCreatedMessage            = "Created the secret git url block"
	privateRepositoryMessageConstant     = "Org has a private repo"
	publicRepositoryMessageConstant      = "Org has a public repo"
	secretBlockCountTemplateConstant     = "ASSERT: Found %d secret block"
	taskNotFoundTemplateConstant         = "Couldnt find the task %s"
	blockSkippedTemplateConstant         = "SKIPPING: migration of %s"
	taskFoundTemplateConstant            = "Found corresponding task %s"
	orgTaskCreatingTemplateConstant      = "Creating orgtask for task %s"
	orgTaskCreatedTemplateConstant       = "Created orgtask for task %s"
	orgTaskCountTemplateConstant         = "ASSERT: Found %d orgtask for %s"
	profileBlockNameTemplateConstant     = "%s-%s"
	secretBlockNameTemplateConstant      = "%s-git-pull-url"
	lookupWarehouseOperationConstant     = "look up the warehouse"
	lookupProfileBlockOperationConstant  = "look up the dbt cli profile block"
	countProfileBlocksOperationConstant  = "count dbt cli profile blocks"
	lookupSecretBlockOperationConstant   = "look up the secret block"
	countSecretBlocksOperationConstant   = "count secret blocks"
	listTransformBlocksOperationConstant = "list transformation blocks"
	lookupTaskOperationTemplateConstant  = "look up the task for %s"
	lookupOrgTaskOperationTemplate       = "look up the orgtask for %s"
	createOrgTaskOperationTemplate       = "create the orgtask for %s"
	countOrgTasksOperationTemplate       = "count orgtasks for %s"
	logMessageCredentialsUnavailable     = "Unable to retrieve warehouse credentials"
	logMessageDatasetLocationUnavailable = "Unable to retrieve warehouse dataset location"
	logMessageDescriptorUnusable         = "Project descriptor unusable"
	logMessageProfileBlockCreateFailed   = "Unable to create dbt cli profile block"
	logMessageAccessTokenUnavailable     = "Unable to retrieve git access token"
	logMessageSecretBlockCreateFailed    = "Unable to create secret block"
	logMessageTaskUnresolved             = "No catalog task matches legacy block"
	logFieldWarehouseTypeConstant        = "warehouse_type"
	logFieldDescriptorPathConstant       = "descriptor"
	logFieldTaskLookupConstant           = "task_lookup"
	logFieldProfileNameConstant          = "profile"
)

type transformationContext struct {
	organization    model.Org
	project         model.TransformProject
	warehouse       model.Warehouse
	credentials     map[string]any
	datasetLocation string
	profileName     string
}

// MigrateTransformationBlocks provisions the dbt cli profile block and the git pull secret block
// for the org when missing, then binds each legacy transformation block to a catalog task.
func (service *Service) MigrateTransformationBlocks(executionContext context.Context, organization model.Org) ledger.Ledger {
	var migrationLedger ledger.Ledger

	transformation, preconditionLedger, ready := service.resolveTransformationContext(executionContext, organization, migrationLedger)
	migrationLedger = preconditionLedger
	if !ready {
		return migrationLedger
	}

	migrationLedger, ready = service.ensureProfileBlock(executionContext, transformation, migrationLedger)
	if !ready {
		return migrationLedger
	}

	migrationLedger, ready = service.ensureSecretBlock(executionContext, transformation, migrationLedger)
	if !ready {
		return migrationLedger
	}

	return service.reclassifyTransformationBlocks(executionContext, organization, migrationLedger)
}

func (service *Service) resolveTransformationContext(executionContext context.Context, organization model.Org, migrationLedger ledger.Ledger) (transformationContext, ledger.Ledger, bool) {
	warehouse, warehouseFound, warehouseError := service.store.FindWarehouse(executionContext, organization.ID)
	if warehouseError != nil {
		return transformationContext{}, service.recordStoreFailure(migrationLedger, organization, lookupWarehouseOperationConstant, warehouseError), false
	}
	if !warehouseFound {
		return transformationContext{}, migrationLedger.Fail(warehouseMissingMessageConstant), false
	}

	credentials, credentialsError := service.secrets.RetrieveWarehouseCredentials(executionContext, warehouse)
	if credentialsError != nil {
		service.logger.Error(logMessageCredentialsUnavailable, zap.String(logFieldOrgSlugConstant, organization.Slug), zap.Error(credentialsError))
		return transformationContext{}, migrationLedger.Fail(credentialsUnavailableMessage), false
	}

	var datasetLocation string
	if strings.EqualFold(warehouse.Type, model.WarehouseTypeBigQuery) {
		destination, destinationError := service.destinations.GetDestination(executionContext, organization.ConnectorWorkspaceID, warehouse.DestinationID)
		if destinationError != nil {
			service.logger.Error(
				logMessageDatasetLocationUnavailable,
				zap.String(logFieldOrgSlugConstant, organization.Slug),
				zap.String(logFieldWarehouseTypeConstant, warehouse.Type),
				zap.Error(destinationError),
			)
			return transformationContext{}, migrationLedger.Fail(datasetLocationUnavailableMessage), false
		}
		datasetLocation, _ = destination.DatasetLocation()
	}

	if organization.Transform == nil {
		return transformationContext{}, migrationLedger.Fail(transformProjectMissingMessage), false
	}
	project := *organization.Transform

	if !service.workspace.VirtualEnvironmentExists(project.VirtualEnvironment) {
		return transformationContext{}, migrationLedger.Fail(virtualEnvironmentMissingMessage), false
	}

	descriptor, descriptorError := service.workspace.LoadProjectDescriptor(organization.Slug)
	if descriptorError != nil {
		service.logger.Warn(logMessageDescriptorUnusable, zap.String(logFieldOrgSlugConstant, organization.Slug), zap.Error(descriptorError))
		return transformationContext{}, migrationLedger.Fail("%s", describeDescriptorFailure(descriptorError)), false
	}

	return transformationContext{
		organization:    organization,
		project:         project,
		warehouse:       warehouse,
		credentials:     credentials,
		datasetLocation: datasetLocation,
		profileName:     descriptor.Profile,
	}, migrationLedger, true
}

func describeDescriptorFailure(descriptorError error) string {
	var projectError transform.ProjectError
	if !errors.As(descriptorError, &projectError) {
		return fmt.Sprintf(descriptorUnusableTemplateConstant, descriptorError)
	}
	switch projectError.Kind {
	case transform.ProjectErrorKindMissing:
		return fmt.Sprintf(descriptorMissingTemplateConstant, projectError.Path)
	case transform.ProjectErrorKindNoProfile:
		return profileMissingMessageConstant
	default:
		return fmt.Sprintf(descriptorUnusableTemplateConstant, projectError.Error())
	}
}

func (service *Service) ensureProfileBlock(executionContext context.Context, transformation transformationContext, migrationLedger ledger.Ledger) (ledger.Ledger, bool) {
	organization := transformation.organization

	profileBlock, profileFound, lookupError := service.store.FindBlock(executionContext, organization.ID, model.BlockTypeDbtCliProfile)
	if lookupError != nil {
		return service.recordStoreFailure(migrationLedger, organization, lookupProfileBlockOperationConstant, lookupError), false
	}

	if !profileFound {
		reference, createError := service.orchestration.CreateDbtCliProfileBlock(executionContext, orchestration.ProfileBlockRequest{
			BlockName:       fmt.Sprintf(profileBlockNameTemplateConstant, organization.Slug, transformation.profileName),
			ProfileName:     transformation.profileName,
			TargetSchema:    transformation.project.DefaultSchema,
			WarehouseType:   transformation.warehouse.Type,
			DatasetLocation: transformation.datasetLocation,
			Credentials:     transformation.credentials,
		})
		if createError != nil {
			service.logger.Error(
				logMessageProfileBlockCreateFailed,
				zap.String(logFieldOrgSlugConstant, organization.Slug),
				zap.String(logFieldProfileNameConstant, transformation.profileName),
				zap.Error(createError),
			)
			return migrationLedger.Fail(profileBlockCreateFailedMessage), false
		}

		createdBlock, persistError := service.store.CreateBlock(executionContext, model.Block{
			OrgID:     organization.ID,
			Type:      model.BlockTypeDbtCliProfile,
			BlockID:   reference.BlockID,
			BlockName: reference.BlockName,
		})
		if persistError != nil {
			service.logger.Error(logMessageProfileBlockCreateFailed, zap.String(logFieldOrgSlugConstant, organization.Slug), zap.Error(persistError))
			return migrationLedger.Fail(profileBlockCreateFailedMessage), false
		}
		profileBlock = createdBlock
		migrationLedger = migrationLedger.Succeed(profileBlockCreatedMessage)
	}

	migrationLedger = migrationLedger.Succeed(profileBlockInUseTemplateConstant, profileBlock.BlockName)

	profileBlockCount, countError := service.store.CountBlocks(executionContext, organization.ID, model.BlockTypeDbtCliProfile)
	if countError != nil {
		return service.recordStoreFailure(migrationLedger, organization, countProfileBlocksOperationConstant, countError), true
	}
	return migrationLedger.Succeed(profileBlockCountTemplateConstant, profileBlockCount), true
}

func (service *Service) ensureSecretBlock(executionContext context.Context, transformation transformationContext, migrationLedger ledger.Ledger) (ledger.Ledger, bool) {
	organization := transformation.organization

	_, secretFound, lookupError := service.store.FindBlock(executionContext, organization.ID, model.BlockTypeSecret)
	if lookupError != nil {
		return service.recordStoreFailure(migrationLedger, organization, lookupSecretBlockOperationConstant, lookupError), false
	}

	if !secretFound {
		accessToken, tokenError := service.secrets.RetrieveSourceControlToken(executionContext, transformation.project)
		if tokenError != nil {
			service.logger.Error(logMessageAccessTokenUnavailable, zap.String(logFieldOrgSlugConstant, organization.Slug), zap.Error(tokenError))
			return migrationLedger.Fail(accessTokenUnavailableMessage), false
		}

		if len(accessToken) > 0 {
			gitPullURL, urlError := gitrepo.EmbedAccessToken(transformation.project.RepositoryURL, accessToken)
			if urlError != nil {
				return migrationLedger.Fail(gitPullURLFailedTemplateConstant, urlError), false
			}

			reference, createError := service.orchestration.CreateSecretBlock(executionContext, orchestration.SecretBlockRequest{
				BlockName: fmt.Sprintf(secretBlockNameTemplateConstant, organization.Slug),
				Secret:    gitPullURL,
			})
			if createError != nil {
				service.logger.Error(logMessageSecretBlockCreateFailed, zap.String(logFieldOrgSlugConstant, organization.Slug), zap.Error(createError))
				return migrationLedger.Fail(secretBlockCreateFailedMessage), false
			}

			_, persistError := service.store.CreateBlock(executionContext, model.Block{
				OrgID:     organization.ID,
				Type:      model.BlockTypeSecret,
				BlockID:   reference.BlockID,
				BlockName: reference.BlockName,
			})
			if persistError != nil {
				service.logger.Error(logMessageSecretBlockCreateFailed, zap.String(logFieldOrgSlugConstant, organization.Slug), zap.Error(persistError))
				return migrationLedger.Fail(secretBlockCreateFailedMessage), false
			}
			secretFound = true
			migrationLedger = migrationLedger.Succeed(secretBlockCreatedMessage)
		}
	}

	if secretFound {
		migrationLedger = migrationLedger.Succeed(privateRepositoryMessageConstant)
	} else {
		migrationLedger = migrationLedger.Succeed(publicRepositoryMessageConstant)
	}

	secretBlockCount, countError := service.store.CountBlocks(executionContext, organization.ID, model.BlockTypeSecret)
	if countError != nil {
		return service.recordStoreFailure(migrationLedger, organization, countSecretBlocksOperationConstant, countError), true
	}
	return migrationLedger.Succeed(secretBlockCountTemplateConstant, secretBlockCount), true
}

func (service *Service) reclassifyTransformationBlocks(executionContext context.Context, organization model.Org, migrationLedger ledger.Ledger) ledger.Ledger {
	legacyBlocks, listError := service.store.ListLegacyBlocks(executionContext, organization.ID, model.TransformationBlockTypes())
	if listError != nil {
		return service.recordStoreFailure(migrationLedger, organization, listTransformBlocksOperationConstant, listError)
	}

	for _, legacyBlock := range legacyBlocks {
		if executionContext.Err() != nil {
			break
		}
		migrationLedger = service.reclassifyTransformationBlock(executionContext, organization, legacyBlock, migrationLedger)
	}
	return migrationLedger
}

func (service *Service) reclassifyTransformationBlock(executionContext context.Context, organization model.Org, legacyBlock model.LegacyBlock, migrationLedger ledger.Ledger) ledger.Ledger {
	match, inferred := InferTaskSlug(legacyBlock.BlockName, legacyBlock.TargetSchema)

	var task model.Task
	var taskFound bool
	if inferred {
		var lookupError error
		task, taskFound, lookupError = service.lookupTask(executionContext, match)
		if lookupError != nil {
			return service.recordStoreFailure(migrationLedger, organization, fmt.Sprintf(lookupTaskOperationTemplateConstant, legacyBlock.BlockName), lookupError)
		}
	}
	if !taskFound {
		service.logger.Warn(
			logMessageTaskUnresolved,
			zap.String(logFieldOrgSlugConstant, organization.Slug),
			zap.String(logFieldBlockNameConstant, legacyBlock.BlockName),
			zap.String(logFieldTaskLookupConstant, match.Value),
		)
		return migrationLedger.
			Fail(taskNotFoundTemplateConstant, match.Value).
			Fail(blockSkippedTemplateConstant, legacyBlock.BlockName)
	}

	migrationLedger = migrationLedger.Succeed(taskFoundTemplateConstant, task.Slug)

	filter := store.OrgTaskFilter{OrgID: organization.ID, TaskID: task.ID}
	_, orgTaskFound, orgTaskError := service.store.FindOrgTask(executionContext, filter)
	if orgTaskError != nil {
		return service.recordStoreFailure(migrationLedger, organization, fmt.Sprintf(lookupOrgTaskOperationTemplate, task.Slug), orgTaskError)
	}
	if !orgTaskFound {
		migrationLedger = migrationLedger.Succeed(orgTaskCreatingTemplateConstant, task.Slug)
		if _, createError := service.store.CreateOrgTask(executionContext, model.OrgTask{OrgID: organization.ID, TaskID: task.ID}); createError != nil {
			return service.recordStoreFailure(migrationLedger, organization, fmt.Sprintf(createOrgTaskOperationTemplate, task.Slug), createError)
		}
		migrationLedger = migrationLedger.Succeed(orgTaskCreatedTemplateConstant, task.Slug)
	}

	orgTaskCount, countError := service.store.CountOrgTasks(executionContext, filter)
	if countError != nil {
		return service.recordStoreFailure(migrationLedger, organization, fmt.Sprintf(countOrgTasksOperationTemplate, task.Slug), countError)
	}
	return migrationLedger.Succeed(orgTaskCountTemplateConstant, orgTaskCount, task.Slug)
}

func (service *Service) lookupTask(executionContext context.Context, match TaskSlugMatch) (model.Task, bool, error) {
	if match.Kind == TaskSlugMatchExact {
		return service.store.FindTaskBySlug(executionContext, match.Value)
	}
	return service.store.FindTaskBySlugSuffix(executionContext, match.Value)
}
