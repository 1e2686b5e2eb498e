package model

const (
	// TaskSlugAirbyteSync runs a connector sync.
	TaskSlugAirbyteSync = "airbyte-sync"
	// TaskSlugGitPull refreshes the transformation repository.
	TaskSlugGitPull = "git-pull"
	// TaskSlugDbtRun runs the transformation project.
	TaskSlugDbtRun = "dbt-run"
	// AirbyteSyncTimeout is the sync timeout written into deployment task configs.
	AirbyteSyncTimeout = 15
	// WarehouseTypeBigQuery requires a dataset location for transformation profiles.
	WarehouseTypeBigQuery = "bigquery"
)

// DataflowKind distinguishes manually triggered dataflows from scheduled pipelines.
type DataflowKind string

// Dataflow kinds.
const (
	DataflowKindManual      DataflowKind = DataflowKind("manual")
	DataflowKindOrchestrate DataflowKind = DataflowKind("orchestrate")
)

// Org is a platform tenant.
type Org struct {
	ID                   string
	Slug                 string
	Name                 string
	ConnectorWorkspaceID string
	Transform            *TransformProject
}

// TransformProject describes an org's transformation workspace.
type TransformProject struct {
	RepositoryURL      string
	AccessTokenSecret  string
	ProjectDirectory   string
	VirtualEnvironment string
	TargetType         string
	DefaultSchema      string
}

// Warehouse is an org's destination warehouse.
type Warehouse struct {
	ID                string
	OrgID             string
	Type              string
	CredentialsSecret string
	DestinationID     string
}

// LegacyBlock is a block row from the pre-task model. It is never written.
type LegacyBlock struct {
	ID           string
	OrgID        string
	Type         BlockType
	BlockID      string
	BlockName    string
	DisplayName  string
	TargetSchema string
}

// Block is a block row in the task model.
type Block struct {
	ID        string
	OrgID     string
	Type      BlockType
	BlockID   string
	BlockName string
}

// LegacyDataflow is a deployment declared in the pre-task model.
type LegacyDataflow struct {
	ID             string
	OrgID          string
	Kind           DataflowKind
	Name           string
	DeploymentName string
	DeploymentID   string
	Cron           string
	ConnectionID   string
}

// Dataflow is a deployment declared in the task model.
type Dataflow struct {
	ID             string
	OrgID          string
	Kind           DataflowKind
	Name           string
	DeploymentName string
	DeploymentID   string
	Cron           string
}

// Task is a catalog entry.
type Task struct {
	ID      string
	Slug    string
	Label   string
	Type    string
	Command string
}

// OrgTask binds a catalog task to an org, optionally for one connector connection.
type OrgTask struct {
	ID           string
	OrgID        string
	TaskID       string
	ConnectionID string
}

// DataflowOrgTask orders org tasks within a dataflow.
type DataflowOrgTask struct {
	ID         string
	DataflowID string
	OrgTaskID  string
	Sequence   int
}
