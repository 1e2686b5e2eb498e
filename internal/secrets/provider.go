package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/temirov/taskmigrate/internal/model"
)

const (
	readerNotConfiguredMessageConstant = "secret reader not configured"
	secretIdentifierMissingMessage     = "secret id not configured"
	secretValueMissingMessageConstant  = "secret has no string value"
	retrievalErrorTemplateConstant     = "unable to retrieve %s secret %q: %s"
	awsConfigurationErrorTemplate      = "unable to load aws configuration: %w"
	warehouseCredentialsPurpose        = "warehouse credentials"
	sourceControlTokenPurpose          = "source control token"
)

// SecretValueReader is the subset of the Secrets Manager API used by Provider.
type SecretValueReader interface {
	GetSecretValue(executionContext context.Context, input *secretsmanager.GetSecretValueInput, optionFunctions ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ErrReaderNotConfigured indicates the provider was constructed without a reader.
var ErrReaderNotConfigured = errors.New(readerNotConfiguredMessageConstant)

// RetrievalError reports a secret that could not be read or decoded.
type RetrievalError struct {
	Purpose  string
	SecretID string
	Cause    error
}

// Error describes the retrieval failure.
func (retrievalError RetrievalError) Error() string {
	return fmt.Sprintf(retrievalErrorTemplateConstant, retrievalError.Purpose, retrievalError.SecretID, retrievalError.Cause)
}

// Unwrap exposes the underlying cause.
func (retrievalError RetrievalError) Unwrap() error {
	return retrievalError.Cause
}

// Provider resolves org secrets.
type Provider struct {
	reader SecretValueReader
}

// NewProvider constructs a Provider around a Secrets Manager reader.
func NewProvider(reader SecretValueReader) (*Provider, error) {
	if reader == nil {
		return nil, ErrReaderNotConfigured
	}
	return &Provider{reader: reader}, nil
}

// NewAWSProvider builds a Provider from the default AWS credential chain.
// Region and endpoint override the chain's values when set.
func NewAWSProvider(executionContext context.Context, region string, endpoint string) (*Provider, error) {
	var loadOptions []func(*config.LoadOptions) error
	if trimmedRegion := strings.TrimSpace(region); len(trimmedRegion) > 0 {
		loadOptions = append(loadOptions, config.WithRegion(trimmedRegion))
	}

	awsConfiguration, configurationError := config.LoadDefaultConfig(executionContext, loadOptions...)
	if configurationError != nil {
		return nil, fmt.Errorf(awsConfigurationErrorTemplate, configurationError)
	}

	trimmedEndpoint := strings.TrimSpace(endpoint)
	client := secretsmanager.NewFromConfig(awsConfiguration, func(options *secretsmanager.Options) {
		if len(trimmedEndpoint) > 0 {
			options.BaseEndpoint = aws.String(trimmedEndpoint)
		}
	})
	return NewProvider(client)
}

// RetrieveWarehouseCredentials decodes the warehouse's JSON credentials secret.
func (provider *Provider) RetrieveWarehouseCredentials(executionContext context.Context, warehouse model.Warehouse) (map[string]any, error) {
	secretValue, readError := provider.readSecret(executionContext, warehouseCredentialsPurpose, warehouse.CredentialsSecret)
	if readError != nil {
		return nil, readError
	}

	var credentials map[string]any
	if decodeError := json.Unmarshal([]byte(secretValue), &credentials); decodeError != nil {
		return nil, RetrievalError{Purpose: warehouseCredentialsPurpose, SecretID: warehouse.CredentialsSecret, Cause: decodeError}
	}
	return credentials, nil
}

// RetrieveSourceControlToken returns the project's access token, or an empty string when the
// project has no token secret configured.
func (provider *Provider) RetrieveSourceControlToken(executionContext context.Context, project model.TransformProject) (string, error) {
	if len(strings.TrimSpace(project.AccessTokenSecret)) == 0 {
		return "", nil
	}
	return provider.readSecret(executionContext, sourceControlTokenPurpose, project.AccessTokenSecret)
}

func (provider *Provider) readSecret(executionContext context.Context, purpose string, secretID string) (string, error) {
	trimmedSecretID := strings.TrimSpace(secretID)
	if len(trimmedSecretID) == 0 {
		return "", RetrievalError{Purpose: purpose, SecretID: secretID, Cause: errors.New(secretIdentifierMissingMessage)}
	}

	output, readError := provider.reader.GetSecretValue(executionContext, &secretsmanager.GetSecretValueInput{SecretId: aws.String(trimmedSecretID)})
	if readError != nil {
		return "", RetrievalError{Purpose: purpose, SecretID: trimmedSecretID, Cause: readError}
	}
	if output == nil || output.SecretString == nil {
		return "", RetrievalError{Purpose: purpose, SecretID: trimmedSecretID, Cause: errors.New(secretValueMissingMessageConstant)}
	}
	return aws.ToString(output.SecretString), nil
}
