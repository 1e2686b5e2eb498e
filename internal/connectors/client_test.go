package connectors_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/taskmigrate/internal/connectors"
)

func newDestinationServer(testInstance *testing.T, responseBody string) *httptest.Server {
	testInstance.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		assert.Equal(testInstance, http.MethodPost, request.Method)
		assert.Equal(testInstance, "/api/v1/destinations/get", request.URL.Path)

		username, password, hasCredentials := request.BasicAuth()
		assert.True(testInstance, hasCredentials)
		assert.Equal(testInstance, "airbyte", username)
		assert.Equal(testInstance, "password", password)

		var payload map[string]string
		assert.NoError(testInstance, json.NewDecoder(request.Body).Decode(&payload))
		assert.Equal(testInstance, "dest1", payload["destinationId"])

		_, _ = responseWriter.Write([]byte(responseBody))
	}))
	testInstance.Cleanup(server.Close)
	return server
}

func TestGetDestination(testInstance *testing.T) {
	testCases := []struct {
		name             string
		workspaceID      string
		responseBody     string
		expectError      bool
		expectedLocation string
		expectLocation   bool
	}{
		{
			name:             "bigquery_location",
			workspaceID:      "ws1",
			responseBody:     `{"destinationId":"dest1","workspaceId":"ws1","connectionConfiguration":{"dataset_location":"EU"}}`,
			expectedLocation: "EU",
			expectLocation:   true,
		},
		{
			name:         "no_configuration",
			workspaceID:  "ws1",
			responseBody: `{"destinationId":"dest1","workspaceId":"ws1"}`,
		},
		{
			name:         "workspace_mismatch",
			workspaceID:  "ws2",
			responseBody: `{"destinationId":"dest1","workspaceId":"ws1"}`,
			expectError:  true,
		},
		{
			name:         "missing_destination",
			workspaceID:  "ws1",
			responseBody: `{}`,
			expectError:  true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			server := newDestinationServer(testInstance, testCase.responseBody)
			client, clientError := connectors.NewHTTPClient(server.URL+"/api/v1", "airbyte", "password", 0)
			require.NoError(testInstance, clientError)

			destination, destinationError := client.GetDestination(context.Background(), testCase.workspaceID, "dest1")
			if testCase.expectError {
				var operationError connectors.OperationError
				require.True(testInstance, errors.As(destinationError, &operationError))
				return
			}
			require.NoError(testInstance, destinationError)

			location, hasLocation := destination.DatasetLocation()
			require.Equal(testInstance, testCase.expectLocation, hasLocation)
			require.Equal(testInstance, testCase.expectedLocation, location)
		})
	}
}

func TestGetDestinationRequiresIdentifier(testInstance *testing.T) {
	client, clientError := connectors.NewHTTPClient("http://127.0.0.1:1/api/v1", "", "", 0)
	require.NoError(testInstance, clientError)

	_, destinationError := client.GetDestination(context.Background(), "ws1", "")
	var inputError connectors.InvalidInputError
	require.True(testInstance, errors.As(destinationError, &inputError))
}
