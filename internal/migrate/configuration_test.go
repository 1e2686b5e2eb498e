package migrate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/taskmigrate/internal/migrate"
)

func TestCommandConfigurationSanitize(testInstance *testing.T) {
	sanitized := migrate.CommandConfiguration{
		Database:             migrate.DatabaseConfiguration{Driver: "  PGX ", DataSourceName: " postgres://localhost/ddp "},
		Orchestration:        migrate.OrchestrationConfiguration{BaseURL: " http://proxy:8085/proxy/api/ "},
		Connectors:           migrate.ConnectorsConfiguration{Timeout: 10 * time.Second},
		Transform:            migrate.TransformConfiguration{ClientRoot: " /data/clients "},
		DeploymentNamePrefix: "  ",
	}.Sanitize()

	require.Equal(testInstance, "pgx", sanitized.Database.Driver)
	require.Equal(testInstance, "postgres://localhost/ddp", sanitized.Database.DataSourceName)
	require.Equal(testInstance, "http://proxy:8085/proxy/api/", sanitized.Orchestration.BaseURL)
	require.Equal(testInstance, 30*time.Second, sanitized.Orchestration.Timeout)
	require.Equal(testInstance, 10*time.Second, sanitized.Connectors.Timeout)
	require.Equal(testInstance, "/data/clients", sanitized.Transform.ClientRoot)
	require.Equal(testInstance, migrate.DefaultDeploymentNamePrefix, sanitized.DeploymentNamePrefix)

	defaults := migrate.CommandConfiguration{}.Sanitize()
	require.Equal(testInstance, migrate.DefaultCommandConfiguration(), defaults)
}
