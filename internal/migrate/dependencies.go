package migrate

import (
	"context"

	"github.com/temirov/taskmigrate/internal/connectors"
	"github.com/temirov/taskmigrate/internal/ledger"
	"github.com/temirov/taskmigrate/internal/model"
	"github.com/temirov/taskmigrate/internal/orchestration"
	"github.com/temirov/taskmigrate/internal/store"
	"github.com/temirov/taskmigrate/internal/transform"
)

// RecordStore reads tenant records and writes task-model records.
type RecordStore interface {
	ListOrgs(executionContext context.Context) ([]model.Org, error)
	FindWarehouse(executionContext context.Context, orgID string) (model.Warehouse, bool, error)

	FindLegacyBlock(executionContext context.Context, orgID string, blockType model.BlockType) (model.LegacyBlock, bool, error)
	ListLegacyBlocks(executionContext context.Context, orgID string, blockTypes []model.BlockType) ([]model.LegacyBlock, error)
	FindBlock(executionContext context.Context, orgID string, blockType model.BlockType) (model.Block, bool, error)
	CountBlocks(executionContext context.Context, orgID string, blockType model.BlockType) (int, error)
	CreateBlock(executionContext context.Context, block model.Block) (model.Block, error)
	UpdateBlock(executionContext context.Context, block model.Block) error

	FindTaskBySlug(executionContext context.Context, slug string) (model.Task, bool, error)
	FindTaskBySlugSuffix(executionContext context.Context, suffix string) (model.Task, bool, error)
	FindOrgTask(executionContext context.Context, filter store.OrgTaskFilter) (model.OrgTask, bool, error)
	CountOrgTasks(executionContext context.Context, filter store.OrgTaskFilter) (int, error)
	CreateOrgTask(executionContext context.Context, orgTask model.OrgTask) (model.OrgTask, error)

	ListLegacyDataflows(executionContext context.Context, orgID string, kind model.DataflowKind, deploymentNamePrefix string) ([]model.LegacyDataflow, error)
	FindDataflow(executionContext context.Context, orgID string, kind model.DataflowKind, deploymentID string) (model.Dataflow, bool, error)
	CountDataflows(executionContext context.Context, orgID string, kind model.DataflowKind, deploymentID string) (int, error)
	CreateDataflow(executionContext context.Context, dataflow model.Dataflow) (model.Dataflow, error)
	CreateDataflowOrgTask(executionContext context.Context, link model.DataflowOrgTask) (model.DataflowOrgTask, error)
	CountDataflowOrgTasks(executionContext context.Context, dataflowID string, orgTaskID string) (int, error)
}

// OrchestrationClient reads and writes remote deployments and blocks.
type OrchestrationClient interface {
	GetDeployment(executionContext context.Context, deploymentID string) (orchestration.Deployment, error)
	UpdateDataflow(executionContext context.Context, deploymentID string, update orchestration.DataflowUpdate) error
	CreateDbtCliProfileBlock(executionContext context.Context, request orchestration.ProfileBlockRequest) (orchestration.BlockReference, error)
	CreateSecretBlock(executionContext context.Context, request orchestration.SecretBlockRequest) (orchestration.BlockReference, error)
}

// SecretsProvider resolves org credentials.
type SecretsProvider interface {
	RetrieveWarehouseCredentials(executionContext context.Context, warehouse model.Warehouse) (map[string]any, error)
	RetrieveSourceControlToken(executionContext context.Context, project model.TransformProject) (string, error)
}

// DestinationResolver looks up connector destinations.
type DestinationResolver interface {
	GetDestination(executionContext context.Context, workspaceID string, destinationID string) (connectors.Destination, error)
}

// TransformWorkspace inspects the local transformation workspace.
type TransformWorkspace interface {
	VirtualEnvironmentExists(virtualEnvironmentPath string) bool
	LoadProjectDescriptor(orgSlug string) (transform.ProjectDescriptor, error)
}

// TaskMigrator runs the whole migration.
type TaskMigrator interface {
	Run(executionContext context.Context) (ledger.Ledger, error)
}
