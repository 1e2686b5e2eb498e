package migrate

import (
	"context"

	"go.uber.org/zap"

	"github.com/temirov/taskmigrate/internal/ledger"
	"github.com/temirov/taskmigrate/internal/model"
)

const (
	serverBlockMissingTemplateConstant  = "Server block not found for the org '%s'"
	serverBlockAbsentTemplateConstant   = "found 0 server blocks for org %s"
	serverBlockPresentTemplateConstant  = "found %d server block(s) for org %s"
	lookupLegacyServerOperationConstant = "look up the legacy server block"
	lookupServerOperationConstant       = "look up the server block"
	createServerOperationConstant       = "create the server block"
	updateServerOperationConstant       = "update the server block"
	countServerOperationConstant        = "count server blocks"
	logMessageCreatingServerBlock       = "Creating server block"
	logMessageUpdatingServerBlock       = "Updating server block"
	logFieldBlockIdentifierConstant     = "block_id"
	logFieldBlockNameConstant           = "block_name"
)

// MigrateServerBlock copies the org's legacy connector server block into the task model.
// The legacy record is authoritative: an existing task-model block is overwritten.
// The boolean reports whether a legacy block existed and was written.
func (service *Service) MigrateServerBlock(executionContext context.Context, organization model.Org) (model.Block, bool, ledger.Ledger) {
	var migrationLedger ledger.Ledger

	legacyBlock, legacyFound, legacyError := service.store.FindLegacyBlock(executionContext, organization.ID, model.BlockTypeAirbyteServer)
	if legacyError != nil {
		return model.Block{}, false, service.recordStoreFailure(migrationLedger, organization, lookupLegacyServerOperationConstant, legacyError)
	}
	if !legacyFound {
		return model.Block{}, false, migrationLedger.Fail(serverBlockMissingTemplateConstant, organization.Slug)
	}

	serverBlock, blockFound, blockError := service.store.FindBlock(executionContext, organization.ID, model.BlockTypeAirbyteServer)
	if blockError != nil {
		return model.Block{}, false, service.recordStoreFailure(migrationLedger, organization, lookupServerOperationConstant, blockError)
	}

	if !blockFound {
		service.logger.Debug(
			logMessageCreatingServerBlock,
			zap.String(logFieldOrgSlugConstant, organization.Slug),
			zap.String(logFieldBlockIdentifierConstant, legacyBlock.BlockID),
		)
		createdBlock, createError := service.store.CreateBlock(executionContext, model.Block{
			OrgID:     organization.ID,
			Type:      model.BlockTypeAirbyteServer,
			BlockID:   legacyBlock.BlockID,
			BlockName: legacyBlock.BlockName,
		})
		if createError != nil {
			return model.Block{}, false, service.recordStoreFailure(migrationLedger, organization, createServerOperationConstant, createError)
		}
		serverBlock = createdBlock
	} else {
		service.logger.Debug(
			logMessageUpdatingServerBlock,
			zap.String(logFieldOrgSlugConstant, organization.Slug),
			zap.String(logFieldBlockIdentifierConstant, legacyBlock.BlockID),
			zap.String(logFieldBlockNameConstant, legacyBlock.BlockName),
		)
		serverBlock.BlockID = legacyBlock.BlockID
		serverBlock.BlockName = legacyBlock.BlockName
		if updateError := service.store.UpdateBlock(executionContext, serverBlock); updateError != nil {
			return model.Block{}, false, service.recordStoreFailure(migrationLedger, organization, updateServerOperationConstant, updateError)
		}
	}

	serverBlockCount, countError := service.store.CountBlocks(executionContext, organization.ID, model.BlockTypeAirbyteServer)
	if countError != nil {
		return serverBlock, true, service.recordStoreFailure(migrationLedger, organization, countServerOperationConstant, countError)
	}
	if serverBlockCount == 0 {
		migrationLedger = migrationLedger.Fail(serverBlockAbsentTemplateConstant, organization.Slug)
	} else {
		migrationLedger = migrationLedger.Succeed(serverBlockPresentTemplateConstant, serverBlockCount, organization.Slug)
	}

	return serverBlock, true, migrationLedger
}
