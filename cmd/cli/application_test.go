package cli_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/taskmigrate/cmd/cli"
	"github.com/temirov/taskmigrate/internal/utils"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testMigrationCommandNameConstant  = "tasks-migrate"
	testClientRootConstant            = "/data/clients"
)

func runApplication(testInstance *testing.T, arguments ...string) (*cli.Application, string, error) {
	testInstance.Helper()

	application := cli.NewApplication()
	rootCommand := application.RootCommand()

	var output bytes.Buffer
	rootCommand.SetOut(&output)
	rootCommand.SetErr(&bytes.Buffer{})
	rootCommand.SetArgs(append([]string{}, arguments...))

	executionError := application.Execute()
	return application, output.String(), executionError
}

func writeConfigurationFile(testInstance *testing.T, content string) string {
	testInstance.Helper()

	configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(content), 0o600))
	return configurationPath
}

func TestApplicationRegistersMigrationCommand(testInstance *testing.T) {
	application := cli.NewApplication()

	var commandNames []string
	for _, command := range application.RootCommand().Commands() {
		commandNames = append(commandNames, command.Name())
	}
	require.Contains(testInstance, commandNames, testMigrationCommandNameConstant)
}

func TestApplicationConfigurationSources(testInstance *testing.T) {
	testCases := []struct {
		name        string
		environment map[string]string
		fileContent string
		assertion   func(testInstance *testing.T, configuration cli.ApplicationConfiguration)
	}{
		{
			name: "embedded_defaults",
			assertion: func(testInstance *testing.T, configuration cli.ApplicationConfiguration) {
				require.Equal(testInstance, "info", configuration.Common.LogLevel)
				require.Equal(testInstance, "structured", configuration.Common.LogFormat)
				require.Equal(testInstance, "pgx", configuration.Migration.Database.Driver)
				require.Equal(testInstance, 30*time.Second, configuration.Migration.Orchestration.Timeout)
				require.Equal(testInstance, "manual-sync", configuration.Migration.DeploymentNamePrefix)
				require.False(testInstance, configuration.Migration.EnsureSchema)
			},
		},
		{
			name: "environment_overrides",
			environment: map[string]string{
				"TASKMIGRATE_MIGRATION_DATABASE_DSN":          "postgres://ddp@localhost/ddp",
				"TASKMIGRATE_MIGRATION_ORCHESTRATION_TIMEOUT": "45s",
				"CLIENTDBT_ROOT": testClientRootConstant,
			},
			assertion: func(testInstance *testing.T, configuration cli.ApplicationConfiguration) {
				require.Equal(testInstance, "postgres://ddp@localhost/ddp", configuration.Migration.Database.DataSourceName)
				require.Equal(testInstance, 45*time.Second, configuration.Migration.Orchestration.Timeout)
				require.Equal(testInstance, testClientRootConstant, configuration.Migration.Transform.ClientRoot)
			},
		},
		{
			name: "prefixed_variable_beats_alias",
			environment: map[string]string{
				"TASKMIGRATE_MIGRATION_TRANSFORM_CLIENT_ROOT": "/srv/clients",
				"CLIENTDBT_ROOT": testClientRootConstant,
			},
			assertion: func(testInstance *testing.T, configuration cli.ApplicationConfiguration) {
				require.Equal(testInstance, "/srv/clients", configuration.Migration.Transform.ClientRoot)
			},
		},
		{
			name:        "configuration_file",
			fileContent: "common:\n  log_format: console\nmigration:\n  deployment_name_prefix: manual-run\n  database:\n    driver: sqlite3\n",
			assertion: func(testInstance *testing.T, configuration cli.ApplicationConfiguration) {
				require.Equal(testInstance, "console", configuration.Common.LogFormat)
				require.Equal(testInstance, "manual-run", configuration.Migration.DeploymentNamePrefix)
				require.Equal(testInstance, "sqlite3", configuration.Migration.Database.Driver)
				require.Equal(testInstance, 30*time.Second, configuration.Migration.Connectors.Timeout)
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			for variableName, variableValue := range testCase.environment {
				subtest.Setenv(variableName, variableValue)
			}

			var arguments []string
			if len(testCase.fileContent) > 0 {
				arguments = append(arguments, "--config", writeConfigurationFile(subtest, testCase.fileContent))
			}

			application, _, executionError := runApplication(subtest, arguments...)
			require.NoError(subtest, executionError)
			testCase.assertion(subtest, application.Configuration())
		})
	}
}

func TestApplicationMigrationDebugRaisesLogLevel(testInstance *testing.T) {
	testCases := []struct {
		name             string
		environment      map[string]string
		arguments        []string
		expectedLogLevel string
		debugEnabled     bool
	}{
		{
			name:             "defaults_to_info",
			expectedLogLevel: "info",
		},
		{
			name:             "migration_debug_setting",
			environment:      map[string]string{"TASKMIGRATE_MIGRATION_DEBUG": "true"},
			expectedLogLevel: "debug",
			debugEnabled:     true,
		},
		{
			name:             "migration_debug_overrides_log_level_flag",
			environment:      map[string]string{"TASKMIGRATE_MIGRATION_DEBUG": "true"},
			arguments:        []string{"--log-level", "warn"},
			expectedLogLevel: "debug",
			debugEnabled:     true,
		},
		{
			name:             "log_level_flag",
			arguments:        []string{"--log-level", "debug"},
			expectedLogLevel: "debug",
			debugEnabled:     true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			for variableName, variableValue := range testCase.environment {
				subtest.Setenv(variableName, variableValue)
			}

			application, _, executionError := runApplication(subtest, testCase.arguments...)
			require.NoError(subtest, executionError)
			require.Equal(subtest, testCase.expectedLogLevel, application.Configuration().Common.LogLevel)
			require.Equal(subtest, testCase.debugEnabled, application.Logger().Core().Enabled(zapcore.DebugLevel))

			contextLogLevel, available := utils.NewCommandContextAccessor().LogLevel(application.RootCommand().Context())
			require.True(subtest, available)
			require.Equal(subtest, testCase.expectedLogLevel, contextLogLevel)
		})
	}
}

func TestApplicationRejectsUnknownLogLevel(testInstance *testing.T) {
	_, _, executionError := runApplication(testInstance, "--log-level", "verbose")
	require.Error(testInstance, executionError)
	require.ErrorContains(testInstance, executionError, "unable to create logger")
}

func TestApplicationRunsMigrationAgainstEmptyStore(testInstance *testing.T) {
	orchestrationServer := httptest.NewServer(http.NotFoundHandler())
	testInstance.Cleanup(orchestrationServer.Close)

	workingDirectory := testInstance.TempDir()
	databasePath := filepath.Join(workingDirectory, "migration.db")
	configurationPath := writeConfigurationFile(testInstance, "common:\n  log_level: error\nmigration:\n"+
		"  ensure_schema: true\n"+
		"  database:\n    driver: sqlite3\n    dsn: "+databasePath+"\n"+
		"  orchestration:\n    base_url: "+orchestrationServer.URL+"\n"+
		"  connectors:\n    base_url: "+orchestrationServer.URL+"\n"+
		"  secrets:\n    region: us-east-1\n"+
		"  transform:\n    client_root: "+workingDirectory+"\n")

	_, output, executionError := runApplication(testInstance, "--config", configurationPath, testMigrationCommandNameConstant)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "SUCCESSES")
	require.Contains(testInstance, output, "FAILURES")
	require.FileExists(testInstance, databasePath)
}

func TestEmbeddedDefaultConfigurationIsCopied(testInstance *testing.T) {
	firstCopy, configurationType := cli.EmbeddedDefaultConfiguration()
	require.Equal(testInstance, "yaml", configurationType)
	require.NotEmpty(testInstance, firstCopy)

	firstCopy[0] = '#'
	secondCopy, _ := cli.EmbeddedDefaultConfiguration()
	require.NotEqual(testInstance, firstCopy[0], secondCopy[0])
}
