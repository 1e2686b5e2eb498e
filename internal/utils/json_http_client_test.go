package utils_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/taskmigrate/internal/utils"
)

func TestJSONHTTPClientExchangesDocuments(testInstance *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		assert.Equal(testInstance, http.MethodPost, request.Method)
		assert.Equal(testInstance, "/proxy/blocks/secret/", request.URL.Path)
		assert.Equal(testInstance, "application/json", request.Header.Get("Content-Type"))
		assert.Equal(testInstance, "decorated", request.Header.Get("X-Test"))

		var payload map[string]string
		assert.NoError(testInstance, json.NewDecoder(request.Body).Decode(&payload))
		assert.Equal(testInstance, "value", payload["key"])

		responseWriter.Header().Set("Content-Type", "application/json")
		_, _ = responseWriter.Write([]byte(`{"echo":"value"}`))
	}))
	defer server.Close()

	client, clientError := utils.NewJSONHTTPClient(server.URL+"/proxy/", 0, func(request *http.Request) {
		request.Header.Set("X-Test", "decorated")
	})
	require.NoError(testInstance, clientError)

	var result map[string]string
	requestError := client.Do(context.Background(), http.MethodPost, "/blocks/secret/", map[string]string{"key": "value"}, &result)
	require.NoError(testInstance, requestError)
	require.Equal(testInstance, "value", result["echo"])
}

func TestJSONHTTPClientReportsStatus(testInstance *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusNotFound)
		_, _ = responseWriter.Write([]byte(strings.Repeat("x", 600)))
	}))
	defer server.Close()

	client, clientError := utils.NewJSONHTTPClient(server.URL, 0)
	require.NoError(testInstance, clientError)

	requestError := client.Do(context.Background(), http.MethodGet, "deployments/dep1", nil, nil)
	var responseError utils.ResponseError
	require.True(testInstance, errors.As(requestError, &responseError))
	require.Equal(testInstance, http.StatusNotFound, responseError.StatusCode)
	require.Len(testInstance, responseError.Body, 512)
}

func TestNewJSONHTTPClientRequiresBaseURL(testInstance *testing.T) {
	_, clientError := utils.NewJSONHTTPClient(" ", 0)
	require.ErrorIs(testInstance, clientError, utils.ErrServiceBaseURLMissing)

	_, clientError = utils.NewJSONHTTPClient("not a url", 0)
	require.Error(testInstance, clientError)
}
