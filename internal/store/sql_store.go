package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/temirov/taskmigrate/internal/model"
)

const (
	schemaStatementSeparatorConstant    = ";"
	databaseOpenErrorTemplateConstant   = "unable to open %s database: %w"
	databasePingErrorTemplateConstant   = "unable to reach %s database: %w"
	schemaApplyErrorTemplateConstant    = "unable to apply schema: %w"
	queryErrorTemplateConstant          = "%s query failed: %w"
	scanErrorTemplateConstant           = "%s row decoding failed: %w"
	insertErrorTemplateConstant         = "%s insert failed: %w"
	updateErrorTemplateConstant         = "%s update failed: %w"
	recordNotUpdatedTemplateConstant    = "%s %s not found for update"
	databaseMissingMessageConstant      = "database handle not configured"
	dataSourceNameMissingMessage        = "database data source name is required"
	organizationsRecordFamilyConstant   = "orgs"
	warehousesRecordFamilyConstant      = "org_warehouses"
	projectsRecordFamilyConstant        = "org_transform_projects"
	legacyBlocksRecordFamilyConstant    = "legacy_blocks"
	blocksRecordFamilyConstant          = "blocks"
	legacyFlowsRecordFamilyConstant     = "legacy_dataflows"
	dataflowsRecordFamilyConstant       = "dataflows"
	tasksRecordFamilyConstant           = "tasks"
	orgTasksRecordFamilyConstant        = "org_tasks"
	dataflowTasksRecordFamilyConstant   = "dataflow_org_tasks"
	sqliteConnectionLimitConstant       = 1
	defaultDataflowTaskSequenceConstant = 1
)

//go:embed schema.sql
var schemaDefinition string

var (
	errDatabaseMissing       = errors.New(databaseMissingMessageConstant)
	errDataSourceNameMissing = errors.New(dataSourceNameMissingMessage)
)

// OrgTaskFilter selects org tasks. ConnectionID is only compared when MatchConnection is set;
// an empty ConnectionID then selects assignments without a connection.
type OrgTaskFilter struct {
	OrgID           string
	TaskID          string
	ConnectionID    string
	MatchConnection bool
}

// SQLStore implements record persistence over database/sql.
type SQLStore struct {
	database *sql.DB
	driver   Driver
}

// Open connects to the configured database and verifies connectivity.
func Open(executionContext context.Context, driver Driver, dataSourceName string) (*SQLStore, error) {
	if len(strings.TrimSpace(dataSourceName)) == 0 {
		return nil, errDataSourceNameMissing
	}

	database, openError := sql.Open(string(driver), dataSourceName)
	if openError != nil {
		return nil, fmt.Errorf(databaseOpenErrorTemplateConstant, driver, openError)
	}
	if driver == DriverSQLite {
		database.SetMaxOpenConns(sqliteConnectionLimitConstant)
	}

	if pingError := database.PingContext(executionContext); pingError != nil {
		_ = database.Close()
		return nil, fmt.Errorf(databasePingErrorTemplateConstant, driver, pingError)
	}

	return NewSQLStore(database, driver)
}

// NewSQLStore wraps an existing database handle.
func NewSQLStore(database *sql.DB, driver Driver) (*SQLStore, error) {
	if database == nil {
		return nil, errDatabaseMissing
	}
	return &SQLStore{database: database, driver: driver}, nil
}

// Close releases the database handle.
func (store *SQLStore) Close() error {
	return store.database.Close()
}

// EnsureSchema creates missing tables. Existing tables are left untouched.
func (store *SQLStore) EnsureSchema(executionContext context.Context) error {
	for _, statement := range strings.Split(schemaDefinition, schemaStatementSeparatorConstant) {
		trimmedStatement := strings.TrimSpace(statement)
		if len(trimmedStatement) == 0 {
			continue
		}
		if _, execError := store.database.ExecContext(executionContext, trimmedStatement); execError != nil {
			return fmt.Errorf(schemaApplyErrorTemplateConstant, execError)
		}
	}
	return nil
}

// ListOrgs returns every org ordered by slug.
func (store *SQLStore) ListOrgs(executionContext context.Context) ([]model.Org, error) {
	rows, queryError := store.query(executionContext, `
		SELECT o.id, o.slug, o.name, o.connector_workspace_id,
		       p.org_id, p.repository_url, p.access_token_secret, p.project_directory,
		       p.virtual_environment, p.target_type, p.default_schema
		FROM orgs o
		LEFT JOIN org_transform_projects p ON p.org_id = o.id
		ORDER BY o.slug`)
	if queryError != nil {
		return nil, fmt.Errorf(queryErrorTemplateConstant, organizationsRecordFamilyConstant, queryError)
	}
	defer rows.Close()

	var organizations []model.Org
	for rows.Next() {
		var organization model.Org
		var projectOrgID, repositoryURL, accessTokenSecret, projectDirectory, virtualEnvironment, targetType, defaultSchema sql.NullString
		scanError := rows.Scan(
			&organization.ID, &organization.Slug, &organization.Name, &organization.ConnectorWorkspaceID,
			&projectOrgID, &repositoryURL, &accessTokenSecret, &projectDirectory,
			&virtualEnvironment, &targetType, &defaultSchema,
		)
		if scanError != nil {
			return nil, fmt.Errorf(scanErrorTemplateConstant, organizationsRecordFamilyConstant, scanError)
		}
		if projectOrgID.Valid {
			organization.Transform = &model.TransformProject{
				RepositoryURL:      repositoryURL.String,
				AccessTokenSecret:  accessTokenSecret.String,
				ProjectDirectory:   projectDirectory.String,
				VirtualEnvironment: virtualEnvironment.String,
				TargetType:         targetType.String,
				DefaultSchema:      defaultSchema.String,
			}
		}
		organizations = append(organizations, organization)
	}
	if iterationError := rows.Err(); iterationError != nil {
		return nil, fmt.Errorf(queryErrorTemplateConstant, organizationsRecordFamilyConstant, iterationError)
	}
	return organizations, nil
}

// FindWarehouse returns the org's warehouse, if any.
func (store *SQLStore) FindWarehouse(executionContext context.Context, orgID string) (model.Warehouse, bool, error) {
	row := store.queryRow(executionContext, `
		SELECT id, org_id, warehouse_type, credentials_secret, destination_id
		FROM org_warehouses WHERE org_id = ? ORDER BY id LIMIT 1`, orgID)

	var warehouse model.Warehouse
	scanError := row.Scan(&warehouse.ID, &warehouse.OrgID, &warehouse.Type, &warehouse.CredentialsSecret, &warehouse.DestinationID)
	return warehouse, found(scanError), notFoundTolerant(warehousesRecordFamilyConstant, scanError)
}

// FindLegacyBlock returns the first legacy block of the given type for the org.
func (store *SQLStore) FindLegacyBlock(executionContext context.Context, orgID string, blockType model.BlockType) (model.LegacyBlock, bool, error) {
	row := store.queryRow(executionContext, `
		SELECT id, org_id, block_type, block_id, block_name, display_name, target_schema
		FROM legacy_blocks WHERE org_id = ? AND block_type = ? ORDER BY id LIMIT 1`, orgID, string(blockType))

	legacyBlock, scanError := scanLegacyBlock(row)
	return legacyBlock, found(scanError), notFoundTolerant(legacyBlocksRecordFamilyConstant, scanError)
}

// ListLegacyBlocks returns the org's legacy blocks of any of the given types.
func (store *SQLStore) ListLegacyBlocks(executionContext context.Context, orgID string, blockTypes []model.BlockType) ([]model.LegacyBlock, error) {
	if len(blockTypes) == 0 {
		return nil, nil
	}

	placeholders := make([]string, 0, len(blockTypes))
	arguments := make([]any, 0, len(blockTypes)+1)
	arguments = append(arguments, orgID)
	for _, blockType := range blockTypes {
		placeholders = append(placeholders, "?")
		arguments = append(arguments, string(blockType))
	}

	rows, queryError := store.query(executionContext, `
		SELECT id, org_id, block_type, block_id, block_name, display_name, target_schema
		FROM legacy_blocks WHERE org_id = ? AND block_type IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY block_name, id`, arguments...)
	if queryError != nil {
		return nil, fmt.Errorf(queryErrorTemplateConstant, legacyBlocksRecordFamilyConstant, queryError)
	}
	defer rows.Close()

	var legacyBlocks []model.LegacyBlock
	for rows.Next() {
		legacyBlock, scanError := scanLegacyBlock(rows)
		if scanError != nil {
			return nil, fmt.Errorf(scanErrorTemplateConstant, legacyBlocksRecordFamilyConstant, scanError)
		}
		legacyBlocks = append(legacyBlocks, legacyBlock)
	}
	if iterationError := rows.Err(); iterationError != nil {
		return nil, fmt.Errorf(queryErrorTemplateConstant, legacyBlocksRecordFamilyConstant, iterationError)
	}
	return legacyBlocks, nil
}

// FindBlock returns the first current-model block of the given type for the org.
func (store *SQLStore) FindBlock(executionContext context.Context, orgID string, blockType model.BlockType) (model.Block, bool, error) {
	row := store.queryRow(executionContext, `
		SELECT id, org_id, block_type, block_id, block_name
		FROM blocks WHERE org_id = ? AND block_type = ? ORDER BY id LIMIT 1`, orgID, string(blockType))

	block, scanError := scanBlock(row)
	return block, found(scanError), notFoundTolerant(blocksRecordFamilyConstant, scanError)
}

// CountBlocks counts current-model blocks of the given type for the org.
func (store *SQLStore) CountBlocks(executionContext context.Context, orgID string, blockType model.BlockType) (int, error) {
	return store.count(executionContext, blocksRecordFamilyConstant,
		`SELECT COUNT(*) FROM blocks WHERE org_id = ? AND block_type = ?`, orgID, string(blockType))
}

// CreateBlock inserts a current-model block, assigning an identifier when absent.
func (store *SQLStore) CreateBlock(executionContext context.Context, block model.Block) (model.Block, error) {
	block.ID = identifierOrNew(block.ID)
	_, execError := store.exec(executionContext, `
		INSERT INTO blocks (id, org_id, block_type, block_id, block_name) VALUES (?, ?, ?, ?, ?)`,
		block.ID, block.OrgID, string(block.Type), block.BlockID, block.BlockName)
	if execError != nil {
		return model.Block{}, fmt.Errorf(insertErrorTemplateConstant, blocksRecordFamilyConstant, execError)
	}
	return block, nil
}

// UpdateBlock overwrites the external identity of an existing block.
func (store *SQLStore) UpdateBlock(executionContext context.Context, block model.Block) error {
	result, execError := store.exec(executionContext, `
		UPDATE blocks SET block_id = ?, block_name = ? WHERE id = ?`, block.BlockID, block.BlockName, block.ID)
	if execError != nil {
		return fmt.Errorf(updateErrorTemplateConstant, blocksRecordFamilyConstant, execError)
	}
	affectedRows, affectedError := result.RowsAffected()
	if affectedError == nil && affectedRows == 0 {
		return fmt.Errorf(recordNotUpdatedTemplateConstant, blocksRecordFamilyConstant, block.ID)
	}
	return nil
}

// FindTaskBySlug returns the catalog task with the exact slug.
func (store *SQLStore) FindTaskBySlug(executionContext context.Context, slug string) (model.Task, bool, error) {
	row := store.queryRow(executionContext, `
		SELECT id, slug, label, task_type, command FROM tasks WHERE slug = ?`, slug)

	task, scanError := scanTask(row)
	return task, found(scanError), notFoundTolerant(tasksRecordFamilyConstant, scanError)
}

// FindTaskBySlugSuffix returns the shortest catalog slug ending with suffix. The comparison is
// case-sensitive on every driver.
func (store *SQLStore) FindTaskBySlugSuffix(executionContext context.Context, suffix string) (model.Task, bool, error) {
	suffixLength := utf8.RuneCountInString(suffix)
	row := store.queryRow(executionContext, `
		SELECT id, slug, label, task_type, command FROM tasks
		WHERE LENGTH(slug) >= ? AND SUBSTR(slug, LENGTH(slug) - ? + 1) = ?
		ORDER BY LENGTH(slug), slug LIMIT 1`, suffixLength, suffixLength, suffix)

	task, scanError := scanTask(row)
	return task, found(scanError), notFoundTolerant(tasksRecordFamilyConstant, scanError)
}

// FindOrgTask returns the first org task matching the filter.
func (store *SQLStore) FindOrgTask(executionContext context.Context, filter OrgTaskFilter) (model.OrgTask, bool, error) {
	whereClause, arguments := orgTaskWhereClause(filter)
	row := store.queryRow(executionContext, `
		SELECT id, org_id, task_id, connection_id FROM org_tasks WHERE `+whereClause+` ORDER BY id LIMIT 1`, arguments...)

	var orgTask model.OrgTask
	var connectionID sql.NullString
	scanError := row.Scan(&orgTask.ID, &orgTask.OrgID, &orgTask.TaskID, &connectionID)
	orgTask.ConnectionID = connectionID.String
	return orgTask, found(scanError), notFoundTolerant(orgTasksRecordFamilyConstant, scanError)
}

// CountOrgTasks counts org tasks matching the filter.
func (store *SQLStore) CountOrgTasks(executionContext context.Context, filter OrgTaskFilter) (int, error) {
	whereClause, arguments := orgTaskWhereClause(filter)
	return store.count(executionContext, orgTasksRecordFamilyConstant, `SELECT COUNT(*) FROM org_tasks WHERE `+whereClause, arguments...)
}

// CreateOrgTask inserts a task assignment. An empty connection id is stored as NULL.
func (store *SQLStore) CreateOrgTask(executionContext context.Context, orgTask model.OrgTask) (model.OrgTask, error) {
	orgTask.ID = identifierOrNew(orgTask.ID)
	_, execError := store.exec(executionContext, `
		INSERT INTO org_tasks (id, org_id, task_id, connection_id) VALUES (?, ?, ?, ?)`,
		orgTask.ID, orgTask.OrgID, orgTask.TaskID, nullableString(orgTask.ConnectionID))
	if execError != nil {
		return model.OrgTask{}, fmt.Errorf(insertErrorTemplateConstant, orgTasksRecordFamilyConstant, execError)
	}
	return orgTask, nil
}

// ListLegacyDataflows returns the org's legacy dataflows of a kind whose deployment name starts with
// prefix, compared case-sensitively.
func (store *SQLStore) ListLegacyDataflows(executionContext context.Context, orgID string, kind model.DataflowKind, deploymentNamePrefix string) ([]model.LegacyDataflow, error) {
	rows, queryError := store.query(executionContext, `
		SELECT id, org_id, dataflow_type, name, deployment_name, deployment_id, cron, connection_id
		FROM legacy_dataflows
		WHERE org_id = ? AND dataflow_type = ? AND SUBSTR(deployment_name, 1, ?) = ?
		ORDER BY deployment_name, id`, orgID, string(kind), utf8.RuneCountInString(deploymentNamePrefix), deploymentNamePrefix)
	if queryError != nil {
		return nil, fmt.Errorf(queryErrorTemplateConstant, legacyFlowsRecordFamilyConstant, queryError)
	}
	defer rows.Close()

	var legacyDataflows []model.LegacyDataflow
	for rows.Next() {
		var legacyDataflow model.LegacyDataflow
		var kindValue string
		scanError := rows.Scan(
			&legacyDataflow.ID, &legacyDataflow.OrgID, &kindValue, &legacyDataflow.Name,
			&legacyDataflow.DeploymentName, &legacyDataflow.DeploymentID, &legacyDataflow.Cron, &legacyDataflow.ConnectionID,
		)
		if scanError != nil {
			return nil, fmt.Errorf(scanErrorTemplateConstant, legacyFlowsRecordFamilyConstant, scanError)
		}
		legacyDataflow.Kind = model.DataflowKind(kindValue)
		legacyDataflows = append(legacyDataflows, legacyDataflow)
	}
	if iterationError := rows.Err(); iterationError != nil {
		return nil, fmt.Errorf(queryErrorTemplateConstant, legacyFlowsRecordFamilyConstant, iterationError)
	}
	return legacyDataflows, nil
}

// FindDataflow returns the current-model dataflow identified by org, kind and deployment id.
func (store *SQLStore) FindDataflow(executionContext context.Context, orgID string, kind model.DataflowKind, deploymentID string) (model.Dataflow, bool, error) {
	row := store.queryRow(executionContext, `
		SELECT id, org_id, dataflow_type, name, deployment_name, deployment_id, cron
		FROM dataflows WHERE org_id = ? AND dataflow_type = ? AND deployment_id = ? ORDER BY id LIMIT 1`,
		orgID, string(kind), deploymentID)

	var dataflow model.Dataflow
	var kindValue string
	scanError := row.Scan(&dataflow.ID, &dataflow.OrgID, &kindValue, &dataflow.Name, &dataflow.DeploymentName, &dataflow.DeploymentID, &dataflow.Cron)
	dataflow.Kind = model.DataflowKind(kindValue)
	return dataflow, found(scanError), notFoundTolerant(dataflowsRecordFamilyConstant, scanError)
}

// CountDataflows counts current-model dataflows identified by org, kind and deployment id.
func (store *SQLStore) CountDataflows(executionContext context.Context, orgID string, kind model.DataflowKind, deploymentID string) (int, error) {
	return store.count(executionContext, dataflowsRecordFamilyConstant,
		`SELECT COUNT(*) FROM dataflows WHERE org_id = ? AND dataflow_type = ? AND deployment_id = ?`,
		orgID, string(kind), deploymentID)
}

// CreateDataflow inserts a current-model dataflow.
func (store *SQLStore) CreateDataflow(executionContext context.Context, dataflow model.Dataflow) (model.Dataflow, error) {
	dataflow.ID = identifierOrNew(dataflow.ID)
	_, execError := store.exec(executionContext, `
		INSERT INTO dataflows (id, org_id, dataflow_type, name, deployment_name, deployment_id, cron)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		dataflow.ID, dataflow.OrgID, string(dataflow.Kind), dataflow.Name, dataflow.DeploymentName, dataflow.DeploymentID, dataflow.Cron)
	if execError != nil {
		return model.Dataflow{}, fmt.Errorf(insertErrorTemplateConstant, dataflowsRecordFamilyConstant, execError)
	}
	return dataflow, nil
}

// CreateDataflowOrgTask links an org task into a dataflow. A zero sequence defaults to 1.
func (store *SQLStore) CreateDataflowOrgTask(executionContext context.Context, link model.DataflowOrgTask) (model.DataflowOrgTask, error) {
	link.ID = identifierOrNew(link.ID)
	if link.Sequence == 0 {
		link.Sequence = defaultDataflowTaskSequenceConstant
	}
	_, execError := store.exec(executionContext, `
		INSERT INTO dataflow_org_tasks (id, dataflow_id, org_task_id, seq) VALUES (?, ?, ?, ?)`,
		link.ID, link.DataflowID, link.OrgTaskID, link.Sequence)
	if execError != nil {
		return model.DataflowOrgTask{}, fmt.Errorf(insertErrorTemplateConstant, dataflowTasksRecordFamilyConstant, execError)
	}
	return link, nil
}

// CountDataflowOrgTasks counts links between a dataflow and an org task.
func (store *SQLStore) CountDataflowOrgTasks(executionContext context.Context, dataflowID string, orgTaskID string) (int, error) {
	return store.count(executionContext, dataflowTasksRecordFamilyConstant,
		`SELECT COUNT(*) FROM dataflow_org_tasks WHERE dataflow_id = ? AND org_task_id = ?`, dataflowID, orgTaskID)
}

// CreateOrg inserts an org and, when present, its transformation project.
func (store *SQLStore) CreateOrg(executionContext context.Context, organization model.Org) (model.Org, error) {
	organization.ID = identifierOrNew(organization.ID)
	_, execError := store.exec(executionContext, `
		INSERT INTO orgs (id, slug, name, connector_workspace_id) VALUES (?, ?, ?, ?)`,
		organization.ID, organization.Slug, organization.Name, organization.ConnectorWorkspaceID)
	if execError != nil {
		return model.Org{}, fmt.Errorf(insertErrorTemplateConstant, organizationsRecordFamilyConstant, execError)
	}

	if organization.Transform != nil {
		project := organization.Transform
		_, projectError := store.exec(executionContext, `
			INSERT INTO org_transform_projects
			    (org_id, repository_url, access_token_secret, project_directory, virtual_environment, target_type, default_schema)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			organization.ID, project.RepositoryURL, project.AccessTokenSecret, project.ProjectDirectory,
			project.VirtualEnvironment, project.TargetType, project.DefaultSchema)
		if projectError != nil {
			return model.Org{}, fmt.Errorf(insertErrorTemplateConstant, projectsRecordFamilyConstant, projectError)
		}
	}
	return organization, nil
}

// CreateWarehouse inserts an org warehouse.
func (store *SQLStore) CreateWarehouse(executionContext context.Context, warehouse model.Warehouse) (model.Warehouse, error) {
	warehouse.ID = identifierOrNew(warehouse.ID)
	_, execError := store.exec(executionContext, `
		INSERT INTO org_warehouses (id, org_id, warehouse_type, credentials_secret, destination_id) VALUES (?, ?, ?, ?, ?)`,
		warehouse.ID, warehouse.OrgID, warehouse.Type, warehouse.CredentialsSecret, warehouse.DestinationID)
	if execError != nil {
		return model.Warehouse{}, fmt.Errorf(insertErrorTemplateConstant, warehousesRecordFamilyConstant, execError)
	}
	return warehouse, nil
}

// CreateLegacyBlock inserts a legacy block.
func (store *SQLStore) CreateLegacyBlock(executionContext context.Context, legacyBlock model.LegacyBlock) (model.LegacyBlock, error) {
	legacyBlock.ID = identifierOrNew(legacyBlock.ID)
	_, execError := store.exec(executionContext, `
		INSERT INTO legacy_blocks (id, org_id, block_type, block_id, block_name, display_name, target_schema)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		legacyBlock.ID, legacyBlock.OrgID, string(legacyBlock.Type), legacyBlock.BlockID, legacyBlock.BlockName,
		legacyBlock.DisplayName, legacyBlock.TargetSchema)
	if execError != nil {
		return model.LegacyBlock{}, fmt.Errorf(insertErrorTemplateConstant, legacyBlocksRecordFamilyConstant, execError)
	}
	return legacyBlock, nil
}

// CreateLegacyDataflow inserts a legacy dataflow.
func (store *SQLStore) CreateLegacyDataflow(executionContext context.Context, legacyDataflow model.LegacyDataflow) (model.LegacyDataflow, error) {
	legacyDataflow.ID = identifierOrNew(legacyDataflow.ID)
	_, execError := store.exec(executionContext, `
		INSERT INTO legacy_dataflows (id, org_id, dataflow_type, name, deployment_name, deployment_id, cron, connection_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		legacyDataflow.ID, legacyDataflow.OrgID, string(legacyDataflow.Kind), legacyDataflow.Name,
		legacyDataflow.DeploymentName, legacyDataflow.DeploymentID, legacyDataflow.Cron, legacyDataflow.ConnectionID)
	if execError != nil {
		return model.LegacyDataflow{}, fmt.Errorf(insertErrorTemplateConstant, legacyFlowsRecordFamilyConstant, execError)
	}
	return legacyDataflow, nil
}

// CreateTask inserts a catalog task.
func (store *SQLStore) CreateTask(executionContext context.Context, task model.Task) (model.Task, error) {
	task.ID = identifierOrNew(task.ID)
	_, execError := store.exec(executionContext, `
		INSERT INTO tasks (id, slug, label, task_type, command) VALUES (?, ?, ?, ?, ?)`,
		task.ID, task.Slug, task.Label, task.Type, task.Command)
	if execError != nil {
		return model.Task{}, fmt.Errorf(insertErrorTemplateConstant, tasksRecordFamilyConstant, execError)
	}
	return task, nil
}

type rowScanner interface {
	Scan(destinations ...any) error
}

func scanLegacyBlock(scanner rowScanner) (model.LegacyBlock, error) {
	var legacyBlock model.LegacyBlock
	var blockTypeValue string
	scanError := scanner.Scan(
		&legacyBlock.ID, &legacyBlock.OrgID, &blockTypeValue, &legacyBlock.BlockID,
		&legacyBlock.BlockName, &legacyBlock.DisplayName, &legacyBlock.TargetSchema,
	)
	if scanError != nil {
		return model.LegacyBlock{}, scanError
	}
	blockType, parseError := model.ParseBlockType(blockTypeValue)
	if parseError != nil {
		return model.LegacyBlock{}, parseError
	}
	legacyBlock.Type = blockType
	return legacyBlock, nil
}

func scanBlock(scanner rowScanner) (model.Block, error) {
	var block model.Block
	var blockTypeValue string
	scanError := scanner.Scan(&block.ID, &block.OrgID, &blockTypeValue, &block.BlockID, &block.BlockName)
	if scanError != nil {
		return model.Block{}, scanError
	}
	blockType, parseError := model.ParseBlockType(blockTypeValue)
	if parseError != nil {
		return model.Block{}, parseError
	}
	block.Type = blockType
	return block, nil
}

func scanTask(scanner rowScanner) (model.Task, error) {
	var task model.Task
	scanError := scanner.Scan(&task.ID, &task.Slug, &task.Label, &task.Type, &task.Command)
	return task, scanError
}

func orgTaskWhereClause(filter OrgTaskFilter) (string, []any) {
	conditions := []string{"org_id = ?", "task_id = ?"}
	arguments := []any{filter.OrgID, filter.TaskID}
	if filter.MatchConnection {
		if len(filter.ConnectionID) == 0 {
			conditions = append(conditions, "connection_id IS NULL")
		} else {
			conditions = append(conditions, "connection_id = ?")
			arguments = append(arguments, filter.ConnectionID)
		}
	}
	return strings.Join(conditions, " AND "), arguments
}

func (store *SQLStore) query(executionContext context.Context, query string, arguments ...any) (*sql.Rows, error) {
	return store.database.QueryContext(executionContext, store.driver.rebind(query), arguments...)
}

func (store *SQLStore) queryRow(executionContext context.Context, query string, arguments ...any) *sql.Row {
	return store.database.QueryRowContext(executionContext, store.driver.rebind(query), arguments...)
}

func (store *SQLStore) exec(executionContext context.Context, query string, arguments ...any) (sql.Result, error) {
	return store.database.ExecContext(executionContext, store.driver.rebind(query), arguments...)
}

func (store *SQLStore) count(executionContext context.Context, recordFamily string, query string, arguments ...any) (int, error) {
	var total int64
	if scanError := store.queryRow(executionContext, query, arguments...).Scan(&total); scanError != nil {
		return 0, fmt.Errorf(queryErrorTemplateConstant, recordFamily, scanError)
	}
	return int(total), nil
}

func found(scanError error) bool {
	return scanError == nil
}

func notFoundTolerant(recordFamily string, scanError error) error {
	if scanError == nil || errors.Is(scanError, sql.ErrNoRows) {
		return nil
	}
	return fmt.Errorf(queryErrorTemplateConstant, recordFamily, scanError)
}

func identifierOrNew(identifier string) string {
	if len(strings.TrimSpace(identifier)) > 0 {
		return identifier
	}
	return uuid.NewString()
}

func nullableString(value string) any {
	if len(value) == 0 {
		return nil
	}
	return value
}
