package orchestration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temirov/taskmigrate/internal/utils"
)

const (
	deploymentEndpointTemplateConstant       = "deployments/%s"
	deploymentUpdateEndpointTemplateConstant = "v1/deployments/%s"
	profileBlockEndpointConstant             = "blocks/dbtcli/profile/"
	secretBlockEndpointConstant              = "blocks/secret/"
	requiredValueMessageConstant             = "value required"
	missingBlockIdentityMessageConstant      = "response did not include a block identity"
	transportNotConfiguredMessageConstant    = "orchestration transport not configured"
	operationErrorTemplateConstant           = "%s operation failed: %s"
	invalidInputErrorTemplateConstant        = "%s: %s"
	deploymentIdentifierFieldNameConstant    = "deployment id"
	blockNameFieldNameConstant               = "block name"
	profileNameFieldNameConstant             = "profile name"
	getDeploymentOperationNameConstant       = OperationName("GetDeployment")
	updateDataflowOperationNameConstant      = OperationName("UpdateDataflow")
	createProfileBlockOperationNameConstant  = OperationName("CreateDbtCliProfileBlock")
	createSecretBlockOperationNameConstant   = OperationName("CreateSecretBlock")
)

// TransformModeIgnore leaves transformation settings of a deployment untouched.
const TransformModeIgnore = "ignore"

// OperationName describes a remote call supported by the client.
type OperationName string

// Transport is the minimal JSON exchange required from utils.JSONHTTPClient.
type Transport interface {
	Do(executionContext context.Context, method string, endpoint string, payload any, result any) error
}

// ErrTransportNotConfigured indicates the client was constructed without a transport.
var ErrTransportNotConfigured = errors.New(transportNotConfiguredMessageConstant)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps transport failures for a named remote call.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// Deployment is the remote state of a deployment.
type Deployment struct {
	ID         string         `json:"deploymentId"`
	Name       string         `json:"name"`
	Cron       string         `json:"cron"`
	Parameters map[string]any `json:"parameters"`
}

// DataflowUpdate carries the fields sent when updating a deployment.
// Name, Connections and TransformMode are accepted for parity with the dataflow edit form
// but the deployment update endpoint only applies the schedule and parameters.
type DataflowUpdate struct {
	Name             string
	Connections      []string
	TransformMode    string
	Cron             string
	DeploymentParams map[string]any
}

// ProfileBlockRequest describes a transformation connection-profile block.
type ProfileBlockRequest struct {
	BlockName       string
	ProfileName     string
	TargetSchema    string
	WarehouseType   string
	DatasetLocation string
	Credentials     map[string]any
}

// SecretBlockRequest describes a secret block.
type SecretBlockRequest struct {
	BlockName string
	Secret    string
}

// BlockReference identifies a block provisioned remotely.
type BlockReference struct {
	BlockID   string `json:"block_id"`
	BlockName string `json:"block_name"`
}

type deploymentUpdatePayload struct {
	Cron             string         `json:"cron"`
	DeploymentParams map[string]any `json:"deployment_params"`
}

type profileDescriptor struct {
	Name                string `json:"name"`
	Target              string `json:"target"`
	TargetConfigsSchema string `json:"target_configs_schema"`
}

type profileBlockPayload struct {
	BlockName   string            `json:"cli_profile_block_name"`
	Profile     profileDescriptor `json:"profile"`
	Warehouse   string            `json:"wtype"`
	Credentials map[string]any    `json:"credentials"`
	Location    *string           `json:"bqlocation"`
}

type secretBlockPayload struct {
	BlockName string `json:"blockName"`
	Secret    string `json:"secret"`
}

// Client performs orchestration proxy calls.
type Client struct {
	transport Transport
}

// NewClient constructs an orchestration client.
func NewClient(transport Transport) (*Client, error) {
	if transport == nil {
		return nil, ErrTransportNotConfigured
	}
	return &Client{transport: transport}, nil
}

// GetDeployment fetches a deployment and its parameters.
func (client *Client) GetDeployment(executionContext context.Context, deploymentID string) (Deployment, error) {
	trimmedIdentifier := strings.TrimSpace(deploymentID)
	if len(trimmedIdentifier) == 0 {
		return Deployment{}, InvalidInputError{FieldName: deploymentIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}

	var deployment Deployment
	endpoint := fmt.Sprintf(deploymentEndpointTemplateConstant, url.PathEscape(trimmedIdentifier))
	if requestError := client.transport.Do(executionContext, http.MethodGet, endpoint, nil, &deployment); requestError != nil {
		return Deployment{}, OperationError{Operation: getDeploymentOperationNameConstant, Cause: requestError}
	}
	if len(deployment.ID) == 0 {
		deployment.ID = trimmedIdentifier
	}
	if deployment.Parameters == nil {
		deployment.Parameters = map[string]any{}
	}
	return deployment, nil
}

// UpdateDataflow pushes a schedule and parameters to a deployment.
func (client *Client) UpdateDataflow(executionContext context.Context, deploymentID string, update DataflowUpdate) error {
	trimmedIdentifier := strings.TrimSpace(deploymentID)
	if len(trimmedIdentifier) == 0 {
		return InvalidInputError{FieldName: deploymentIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payload := deploymentUpdatePayload{Cron: update.Cron, DeploymentParams: update.DeploymentParams}
	endpoint := fmt.Sprintf(deploymentUpdateEndpointTemplateConstant, url.PathEscape(trimmedIdentifier))
	if requestError := client.transport.Do(executionContext, http.MethodPut, endpoint, payload, nil); requestError != nil {
		return OperationError{Operation: updateDataflowOperationNameConstant, Cause: requestError}
	}
	return nil
}

// CreateDbtCliProfileBlock provisions a transformation connection profile.
func (client *Client) CreateDbtCliProfileBlock(executionContext context.Context, request ProfileBlockRequest) (BlockReference, error) {
	if len(strings.TrimSpace(request.BlockName)) == 0 {
		return BlockReference{}, InvalidInputError{FieldName: blockNameFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(request.ProfileName)) == 0 {
		return BlockReference{}, InvalidInputError{FieldName: profileNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payload := profileBlockPayload{
		BlockName: request.BlockName,
		Profile: profileDescriptor{
			Name:                request.ProfileName,
			Target:              request.TargetSchema,
			TargetConfigsSchema: request.TargetSchema,
		},
		Warehouse:   request.WarehouseType,
		Credentials: request.Credentials,
	}
	if len(request.DatasetLocation) > 0 {
		location := request.DatasetLocation
		payload.Location = &location
	}

	return client.createBlock(executionContext, createProfileBlockOperationNameConstant, profileBlockEndpointConstant, payload)
}

// CreateSecretBlock provisions a secret block.
func (client *Client) CreateSecretBlock(executionContext context.Context, request SecretBlockRequest) (BlockReference, error) {
	if len(strings.TrimSpace(request.BlockName)) == 0 {
		return BlockReference{}, InvalidInputError{FieldName: blockNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payload := secretBlockPayload{BlockName: request.BlockName, Secret: request.Secret}
	return client.createBlock(executionContext, createSecretBlockOperationNameConstant, secretBlockEndpointConstant, payload)
}

func (client *Client) createBlock(executionContext context.Context, operation OperationName, endpoint string, payload any) (BlockReference, error) {
	var reference BlockReference
	if requestError := client.transport.Do(executionContext, http.MethodPost, endpoint, payload, &reference); requestError != nil {
		return BlockReference{}, OperationError{Operation: operation, Cause: requestError}
	}
	if len(reference.BlockID) == 0 || len(reference.BlockName) == 0 {
		return BlockReference{}, OperationError{Operation: operation, Cause: errors.New(missingBlockIdentityMessageConstant)}
	}
	return reference, nil
}

// NewHTTPClient builds a Client backed by utils.JSONHTTPClient.
func NewHTTPClient(baseURL string, timeout time.Duration) (*Client, error) {
	transport, transportError := utils.NewJSONHTTPClient(baseURL, timeout)
	if transportError != nil {
		return nil, transportError
	}
	return NewClient(transport)
}
