package migrate_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/taskmigrate/internal/connectors"
	"github.com/temirov/taskmigrate/internal/migrate"
	"github.com/temirov/taskmigrate/internal/migrate/testsupport"
	"github.com/temirov/taskmigrate/internal/model"
	"github.com/temirov/taskmigrate/internal/orchestration"
	"github.com/temirov/taskmigrate/internal/store"
	"github.com/temirov/taskmigrate/internal/transform"
)

const (
	testDatabaseFileNameConstant    = "migration.db"
	testOrgSlugConstant             = "acme"
	testWorkspaceIDConstant         = "workspace-acme"
	testDestinationIDConstant       = "destination-acme"
	testRepositoryURLConstant       = "https://github.com/acme/analytics"
	testAccessTokenConstant         = "token123"
	testAccessTokenSecretConstant   = "acme-git-token"
	testWarehouseSecretConstant     = "acme-warehouse"
	testProfileNameConstant         = "analytics_profile"
	testTargetSchemaConstant        = "analytics"
	testServerBlockIDConstant       = "server-block-1"
	testServerBlockNameConstant     = "acme-airbyte-server"
	testFirstDeploymentIDConstant   = "deployment-1"
	testSecondDeploymentIDConstant  = "deployment-2"
	testFirstConnectionIDConstant   = "connection-1"
	testSecondConnectionIDConstant  = "connection-2"
	testManualDeploymentNamePrefix  = "manual-sync-acme-"
	testForeignDeploymentIDConstant = "deployment-foreign"
	testHTTPTimeoutConstant         = 5 * time.Second
)

type migrationFixture struct {
	store        *store.SQLStore
	proxy        *testsupport.OrchestrationProxy
	secrets      *testsupport.SecretsProviderStub
	destinations *testsupport.DestinationResolverStub
	clientRoot   string
	logs         *observer.ObservedLogs
	logger       *zap.Logger
	organization model.Org
}

func newMigrationFixture(testInstance *testing.T) *migrationFixture {
	testInstance.Helper()

	executionContext := context.Background()
	databasePath := filepath.Join(testInstance.TempDir(), testDatabaseFileNameConstant)
	sqlStore, openError := store.Open(executionContext, store.DriverSQLite, databasePath)
	require.NoError(testInstance, openError)
	testInstance.Cleanup(func() {
		require.NoError(testInstance, sqlStore.Close())
	})
	require.NoError(testInstance, sqlStore.EnsureSchema(executionContext))

	core, logs := observer.New(zapcore.DebugLevel)

	return &migrationFixture{
		store: sqlStore,
		proxy: testsupport.NewOrchestrationProxy(),
		secrets: &testsupport.SecretsProviderStub{
			Credentials: map[string]any{"host": "warehouse.internal", "username": "acme"},
			Token:       testAccessTokenConstant,
		},
		destinations: &testsupport.DestinationResolverStub{
			Destination: connectors.Destination{
				DestinationID:           testDestinationIDConstant,
				WorkspaceID:             testWorkspaceIDConstant,
				ConnectionConfiguration: map[string]any{"dataset_location": "US"},
			},
		},
		clientRoot: testInstance.TempDir(),
		logs:       logs,
		logger:     zap.New(core),
	}
}

// seedCatalog inserts the task catalog.
func (fixture *migrationFixture) seedCatalog(testInstance *testing.T) {
	testInstance.Helper()

	for _, slug := range []string{model.TaskSlugAirbyteSync, model.TaskSlugGitPull, "dbt-clean", "dbt-deps", model.TaskSlugDbtRun, "dbt-test", "dbt-docs-generate"} {
		_, createError := fixture.store.CreateTask(context.Background(), model.Task{Slug: slug, Label: slug})
		require.NoError(testInstance, createError)
	}
}

// seedOrg inserts the acme org with a transformation workspace on disk and a warehouse of the
// given type. An empty warehouse type leaves the org without a warehouse.
func (fixture *migrationFixture) seedOrg(testInstance *testing.T, warehouseType string) {
	testInstance.Helper()
	executionContext := context.Background()

	virtualEnvironment := testsupport.WriteTransformProject(testInstance, fixture.clientRoot, testOrgSlugConstant, testProfileNameConstant)
	organization, createError := fixture.store.CreateOrg(executionContext, model.Org{
		Slug:                 testOrgSlugConstant,
		Name:                 "Acme",
		ConnectorWorkspaceID: testWorkspaceIDConstant,
		Transform: &model.TransformProject{
			RepositoryURL:      testRepositoryURLConstant,
			AccessTokenSecret:  testAccessTokenSecretConstant,
			VirtualEnvironment: virtualEnvironment,
			DefaultSchema:      testTargetSchemaConstant,
		},
	})
	require.NoError(testInstance, createError)
	fixture.organization = organization

	if len(warehouseType) > 0 {
		_, warehouseError := fixture.store.CreateWarehouse(executionContext, model.Warehouse{
			OrgID:             organization.ID,
			Type:              warehouseType,
			CredentialsSecret: testWarehouseSecretConstant,
			DestinationID:     testDestinationIDConstant,
		})
		require.NoError(testInstance, warehouseError)
	}
}

// seedLegacyServerBlock inserts the org's legacy connector server block.
func (fixture *migrationFixture) seedLegacyServerBlock(testInstance *testing.T) {
	testInstance.Helper()

	_, createError := fixture.store.CreateLegacyBlock(context.Background(), model.LegacyBlock{
		OrgID:     fixture.organization.ID,
		Type:      model.BlockTypeAirbyteServer,
		BlockID:   testServerBlockIDConstant,
		BlockName: testServerBlockNameConstant,
	})
	require.NoError(testInstance, createError)
}

// seedLegacyTransformationBlocks inserts legacy transformation blocks with the given names.
func (fixture *migrationFixture) seedLegacyTransformationBlocks(testInstance *testing.T, blockNames ...string) {
	testInstance.Helper()

	for _, blockName := range blockNames {
		blockType := model.BlockTypeDbtCore
		if blockName == testOrgSlugConstant+"-git-pull" {
			blockType = model.BlockTypeShellOperation
		}
		_, createError := fixture.store.CreateLegacyBlock(context.Background(), model.LegacyBlock{
			OrgID:        fixture.organization.ID,
			Type:         blockType,
			BlockID:      "legacy-" + blockName,
			BlockName:    blockName,
			TargetSchema: testTargetSchemaConstant,
		})
		require.NoError(testInstance, createError)
	}
}

// seedManualSyncDataflows inserts two manual sync dataflows, their remote deployments, and two
// dataflows the migration must ignore.
func (fixture *migrationFixture) seedManualSyncDataflows(testInstance *testing.T) {
	testInstance.Helper()
	executionContext := context.Background()

	legacyDataflows := []model.LegacyDataflow{
		{Kind: model.DataflowKindManual, Name: "Sync one", DeploymentName: testManualDeploymentNamePrefix + "one", DeploymentID: testFirstDeploymentIDConstant, ConnectionID: testFirstConnectionIDConstant},
		{Kind: model.DataflowKindManual, Name: "Sync two", DeploymentName: testManualDeploymentNamePrefix + "two", DeploymentID: testSecondDeploymentIDConstant, ConnectionID: testSecondConnectionIDConstant},
		{Kind: model.DataflowKindOrchestrate, Name: "Pipeline", DeploymentName: "pipeline-acme", DeploymentID: "deployment-pipeline", Cron: "0 1 * * *"},
		{Kind: model.DataflowKindManual, Name: "Other", DeploymentName: "manual-other", DeploymentID: testForeignDeploymentIDConstant, ConnectionID: "connection-other"},
	}
	for _, legacyDataflow := range legacyDataflows {
		legacyDataflow.OrgID = fixture.organization.ID
		_, createError := fixture.store.CreateLegacyDataflow(executionContext, legacyDataflow)
		require.NoError(testInstance, createError)
	}

	fixture.proxy.AddDeployment(testFirstDeploymentIDConstant, map[string]any{"airbyte_blocks": []any{"legacy"}, "retain": "kept"})
	fixture.proxy.AddDeployment(testSecondDeploymentIDConstant, map[string]any{"retain": "kept"})
}

// seedAcme inserts the full scenario for the acme org.
func (fixture *migrationFixture) seedAcme(testInstance *testing.T, warehouseType string) {
	testInstance.Helper()

	fixture.seedCatalog(testInstance)
	fixture.seedOrg(testInstance, warehouseType)
	fixture.seedLegacyServerBlock(testInstance)
	fixture.seedLegacyTransformationBlocks(testInstance, "acme-git-pull", "acme-analytics-run", "acme-analytics-test")
	fixture.seedManualSyncDataflows(testInstance)
}

func (fixture *migrationFixture) newService(testInstance *testing.T) *migrate.Service {
	testInstance.Helper()

	server := httptest.NewServer(fixture.proxy)
	testInstance.Cleanup(server.Close)

	orchestrationClient, clientError := orchestration.NewHTTPClient(server.URL, testHTTPTimeoutConstant)
	require.NoError(testInstance, clientError)

	workspace, workspaceError := transform.NewWorkspace(fixture.clientRoot)
	require.NoError(testInstance, workspaceError)

	service, serviceError := migrate.NewService(migrate.ServiceDependencies{
		Logger:        fixture.logger,
		Store:         fixture.store,
		Orchestration: orchestrationClient,
		Secrets:       fixture.secrets,
		Destinations:  fixture.destinations,
		Workspace:     workspace,
	})
	require.NoError(testInstance, serviceError)
	return service
}

func (fixture *migrationFixture) countBlocks(testInstance *testing.T, blockType model.BlockType) int {
	testInstance.Helper()

	blockCount, countError := fixture.store.CountBlocks(context.Background(), fixture.organization.ID, blockType)
	require.NoError(testInstance, countError)
	return blockCount
}

func (fixture *migrationFixture) countOrgTasks(testInstance *testing.T, taskSlug string, connectionID string, matchConnection bool) int {
	testInstance.Helper()
	executionContext := context.Background()

	task, taskFound, taskError := fixture.store.FindTaskBySlug(executionContext, taskSlug)
	require.NoError(testInstance, taskError)
	require.True(testInstance, taskFound)

	orgTaskCount, countError := fixture.store.CountOrgTasks(executionContext, store.OrgTaskFilter{
		OrgID:           fixture.organization.ID,
		TaskID:          task.ID,
		ConnectionID:    connectionID,
		MatchConnection: matchConnection,
	})
	require.NoError(testInstance, countError)
	return orgTaskCount
}
