package connectors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/temirov/taskmigrate/internal/utils"
)

const (
	destinationLookupEndpointConstant     = "destinations/get"
	datasetLocationKeyConstant            = "dataset_location"
	requiredValueMessageConstant          = "value required"
	destinationMissingMessageConstant     = "destination not found"
	workspaceMismatchTemplateConstant     = "destination %s belongs to workspace %s, not %s"
	transportNotConfiguredMessageConstant = "connector transport not configured"
	operationErrorTemplateConstant        = "%s operation failed: %s"
	invalidInputErrorTemplateConstant     = "%s: %s"
	destinationIdentifierFieldConstant    = "destination id"
	getDestinationOperationNameConstant   = OperationName("GetDestination")
)

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

// OperationError wraps failures of a named remote call.
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

// Destination is a connector destination as reported by the config API.
type Destination struct {
	DestinationID           string         `json:"destinationId"`
	WorkspaceID             string         `json:"workspaceId"`
	Name                    string         `json:"name"`
	ConnectionConfiguration map[string]any `json:"connectionConfiguration"`
}

// DatasetLocation returns the configured dataset location, if any.
func (destination Destination) DatasetLocation() (string, bool) {
	rawLocation, present := destination.ConnectionConfiguration[datasetLocationKeyConstant]
	if !present {
		return "", false
	}
	location, isText := rawLocation.(string)
	if !isText || len(location) == 0 {
		return "", false
	}
	return location, true
}

type destinationLookupPayload struct {
	DestinationID string `json:"destinationId"`
}

// Client queries the connector config API.
type Client struct {
	transport Transport
}

// NewClient constructs a connector client.
func NewClient(transport Transport) (*Client, error) {
	if transport == nil {
		return nil, ErrTransportNotConfigured
	}
	return &Client{transport: transport}, nil
}

// NewHTTPClient builds a Client authenticating with basic credentials when a username is set.
func NewHTTPClient(baseURL string, username string, password string, timeout time.Duration) (*Client, error) {
	var decorators []utils.RequestDecorator
	if len(username) > 0 {
		decorators = append(decorators, func(request *http.Request) {
			request.SetBasicAuth(username, password)
		})
	}
	transport, transportError := utils.NewJSONHTTPClient(baseURL, timeout, decorators...)
	if transportError != nil {
		return nil, transportError
	}
	return NewClient(transport)
}

// GetDestination fetches a destination and verifies it belongs to the workspace when one is given.
func (client *Client) GetDestination(executionContext context.Context, workspaceID string, destinationID string) (Destination, error) {
	trimmedDestinationID := strings.TrimSpace(destinationID)
	if len(trimmedDestinationID) == 0 {
		return Destination{}, InvalidInputError{FieldName: destinationIdentifierFieldConstant, Message: requiredValueMessageConstant}
	}

	var destination Destination
	requestError := client.transport.Do(executionContext, http.MethodPost, destinationLookupEndpointConstant, destinationLookupPayload{DestinationID: trimmedDestinationID}, &destination)
	if requestError != nil {
		return Destination{}, OperationError{Operation: getDestinationOperationNameConstant, Cause: requestError}
	}
	if len(destination.DestinationID) == 0 {
		return Destination{}, OperationError{Operation: getDestinationOperationNameConstant, Cause: errors.New(destinationMissingMessageConstant)}
	}

	trimmedWorkspaceID := strings.TrimSpace(workspaceID)
	if len(trimmedWorkspaceID) > 0 && len(destination.WorkspaceID) > 0 && destination.WorkspaceID != trimmedWorkspaceID {
		return Destination{}, OperationError{
			Operation: getDestinationOperationNameConstant,
			Cause:     fmt.Errorf(workspaceMismatchTemplateConstant, destination.DestinationID, destination.WorkspaceID, trimmedWorkspaceID),
		}
	}
	return destination, nil
}
