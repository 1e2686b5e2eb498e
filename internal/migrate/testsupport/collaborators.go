package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/taskmigrate/internal/connectors"
	"github.com/temirov/taskmigrate/internal/ledger"
	"github.com/temirov/taskmigrate/internal/migrate"
	"github.com/temirov/taskmigrate/internal/model"
)

const (
	repositoryDirectoryNameConstant   = "dbtrepo"
	projectDescriptorFileNameConstant = "dbt_project.yml"
	virtualEnvironmentDirectoryName   = "venv"
	descriptorPermissionsConstant     = 0o600
	directoryPermissionsConstant      = 0o755
)

// SecretsProviderStub returns configured credentials and tokens.
type SecretsProviderStub struct {
	Credentials      map[string]any
	CredentialsError error
	Token            string
	TokenError       error
	TokenRequests    int
}

// RetrieveWarehouseCredentials returns the configured credentials.
func (provider *SecretsProviderStub) RetrieveWarehouseCredentials(_ context.Context, _ model.Warehouse) (map[string]any, error) {
	if provider.CredentialsError != nil {
		return nil, provider.CredentialsError
	}
	return provider.Credentials, nil
}

// RetrieveSourceControlToken records the request and returns the configured token.
func (provider *SecretsProviderStub) RetrieveSourceControlToken(_ context.Context, _ model.TransformProject) (string, error) {
	provider.TokenRequests++
	if provider.TokenError != nil {
		return "", provider.TokenError
	}
	return provider.Token, nil
}

// DestinationResolverStub returns a configured destination.
type DestinationResolverStub struct {
	Destination         connectors.Destination
	Error               error
	RequestedWorkspaces []string
}

// GetDestination records the workspace and returns the configured destination.
func (resolver *DestinationResolverStub) GetDestination(_ context.Context, workspaceID string, _ string) (connectors.Destination, error) {
	resolver.RequestedWorkspaces = append(resolver.RequestedWorkspaces, workspaceID)
	if resolver.Error != nil {
		return connectors.Destination{}, resolver.Error
	}
	return resolver.Destination, nil
}

// ServiceStub implements migrate.TaskMigrator with a fixed outcome.
type ServiceStub struct {
	Ledger               ledger.Ledger
	Error                error
	ReceivedDependencies migrate.ServiceDependencies
	Runs                 int
}

// Run returns the configured outcome.
func (service *ServiceStub) Run(_ context.Context) (ledger.Ledger, error) {
	service.Runs++
	return service.Ledger, service.Error
}

// Provider returns a migrate.ServiceProvider that captures dependencies and yields the stub.
func (service *ServiceStub) Provider() migrate.ServiceProvider {
	return func(dependencies migrate.ServiceDependencies) (migrate.TaskMigrator, error) {
		service.ReceivedDependencies = dependencies
		return service, nil
	}
}

// WriteTransformProject lays out an org transformation workspace beneath clientRoot and
// returns the virtual environment path. An empty profile omits the profile key.
func WriteTransformProject(testInstance *testing.T, clientRoot string, orgSlug string, profile string) string {
	testInstance.Helper()

	repositoryDirectory := filepath.Join(clientRoot, orgSlug, repositoryDirectoryNameConstant)
	require.NoError(testInstance, os.MkdirAll(repositoryDirectory, directoryPermissionsConstant))

	descriptor := "name: " + orgSlug + "_analytics\n"
	if len(profile) > 0 {
		descriptor += "profile: " + profile + "\n"
	}
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryDirectory, projectDescriptorFileNameConstant), []byte(descriptor), descriptorPermissionsConstant))

	virtualEnvironment := filepath.Join(clientRoot, orgSlug, virtualEnvironmentDirectoryName)
	require.NoError(testInstance, os.MkdirAll(virtualEnvironment, directoryPermissionsConstant))
	return virtualEnvironment
}
