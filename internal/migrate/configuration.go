package migrate

import (
	"strings"
	"time"

	"github.com/temirov/taskmigrate/internal/store"
)

const (
	defaultDatabaseDriverConstant = string(store.DriverSQLite)
	defaultHTTPTimeoutConstant    = 30 * time.Second
)

// CommandConfiguration captures persisted configuration for the tasks migration.
type CommandConfiguration struct {
	EnableDebugLogging   bool                       `mapstructure:"debug"`
	Database             DatabaseConfiguration      `mapstructure:"database"`
	EnsureSchema         bool                       `mapstructure:"ensure_schema"`
	Orchestration        OrchestrationConfiguration `mapstructure:"orchestration"`
	Connectors           ConnectorsConfiguration    `mapstructure:"connectors"`
	Secrets              SecretsConfiguration       `mapstructure:"secrets"`
	Transform            TransformConfiguration     `mapstructure:"transform"`
	DeploymentNamePrefix string                     `mapstructure:"deployment_name_prefix"`
}

// DatabaseConfiguration selects the record store.
type DatabaseConfiguration struct {
	Driver         string `mapstructure:"driver"`
	DataSourceName string `mapstructure:"dsn"`
}

// OrchestrationConfiguration locates the orchestration proxy.
type OrchestrationConfiguration struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ConnectorsConfiguration locates the connector config API.
type ConnectorsConfiguration struct {
	BaseURL  string        `mapstructure:"base_url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SecretsConfiguration targets the secrets manager.
type SecretsConfiguration struct {
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// TransformConfiguration locates the client transformation workspaces.
type TransformConfiguration struct {
	ClientRoot string `mapstructure:"client_root"`
}

// DefaultCommandConfiguration returns baseline configuration values for the tasks migration.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Database:             DatabaseConfiguration{Driver: defaultDatabaseDriverConstant},
		Orchestration:        OrchestrationConfiguration{Timeout: defaultHTTPTimeoutConstant},
		Connectors:           ConnectorsConfiguration{Timeout: defaultHTTPTimeoutConstant},
		DeploymentNamePrefix: DefaultDeploymentNamePrefix,
	}
}

// Sanitize trims configured values and restores defaults for empty ones.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.Database.Driver = strings.ToLower(strings.TrimSpace(configuration.Database.Driver))
	if len(sanitized.Database.Driver) == 0 {
		sanitized.Database.Driver = defaults.Database.Driver
	}
	sanitized.Database.DataSourceName = strings.TrimSpace(configuration.Database.DataSourceName)

	sanitized.Orchestration.BaseURL = strings.TrimSpace(configuration.Orchestration.BaseURL)
	if sanitized.Orchestration.Timeout <= 0 {
		sanitized.Orchestration.Timeout = defaults.Orchestration.Timeout
	}

	sanitized.Connectors.BaseURL = strings.TrimSpace(configuration.Connectors.BaseURL)
	sanitized.Connectors.Username = strings.TrimSpace(configuration.Connectors.Username)
	if sanitized.Connectors.Timeout <= 0 {
		sanitized.Connectors.Timeout = defaults.Connectors.Timeout
	}

	sanitized.Secrets.Region = strings.TrimSpace(configuration.Secrets.Region)
	sanitized.Secrets.Endpoint = strings.TrimSpace(configuration.Secrets.Endpoint)
	sanitized.Transform.ClientRoot = strings.TrimSpace(configuration.Transform.ClientRoot)

	sanitized.DeploymentNamePrefix = strings.TrimSpace(configuration.DeploymentNamePrefix)
	if len(sanitized.DeploymentNamePrefix) == 0 {
		sanitized.DeploymentNamePrefix = defaults.DeploymentNamePrefix
	}
	return sanitized
}
