package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	contentTypeHeaderNameConstant     = "Content-Type"
	acceptHeaderNameConstant          = "Accept"
	jsonMediaTypeConstant             = "application/json"
	urlPathSeparatorConstant          = "/"
	baseURLRequiredMessageConstant    = "service base url is required"
	invalidBaseURLTemplateConstant    = "invalid service base url %q: %w"
	requestBuildErrorTemplateConstant = "unable to build %s %s request: %w"
	requestSendErrorTemplateConstant  = "%s %s request failed: %w"
	requestEncodeErrorTemplate        = "unable to encode %s %s payload: %w"
	responseReadErrorTemplateConstant = "unable to read %s %s response: %w"
	responseDecodeErrorTemplate       = "unable to decode %s %s response: %w"
	responseStatusErrorTemplate       = "%s %s returned status %d: %s"
	maximumErrorBodyLengthConstant    = 512
)

// ErrServiceBaseURLMissing indicates a JSON client was constructed without a base URL.
var ErrServiceBaseURLMissing = errors.New(baseURLRequiredMessageConstant)

// RequestDecorator mutates outgoing requests, for example to attach credentials.
type RequestDecorator func(request *http.Request)

// ResponseError reports a non-2xx answer from a JSON service.
type ResponseError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// Error describes the rejected request.
func (responseError ResponseError) Error() string {
	return fmt.Sprintf(responseStatusErrorTemplate, responseError.Method, responseError.URL, responseError.StatusCode, responseError.Body)
}

// JSONHTTPClient exchanges JSON documents with a single HTTP service.
type JSONHTTPClient struct {
	httpClient *http.Client
	baseURL    string
	decorators []RequestDecorator
}

// NewJSONHTTPClient constructs a client rooted at baseURL. A zero timeout leaves requests unbounded.
func NewJSONHTTPClient(baseURL string, timeout time.Duration, decorators ...RequestDecorator) (*JSONHTTPClient, error) {
	trimmedBaseURL := strings.TrimSpace(baseURL)
	if len(trimmedBaseURL) == 0 {
		return nil, ErrServiceBaseURLMissing
	}
	if _, parseError := url.ParseRequestURI(trimmedBaseURL); parseError != nil {
		return nil, fmt.Errorf(invalidBaseURLTemplateConstant, trimmedBaseURL, parseError)
	}

	return &JSONHTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(trimmedBaseURL, urlPathSeparatorConstant),
		decorators: decorators,
	}, nil
}

// Do sends payload (when non-nil) to endpoint and decodes the response into result (when non-nil).
func (client *JSONHTTPClient) Do(executionContext context.Context, method string, endpoint string, payload any, result any) error {
	requestURL := client.baseURL + urlPathSeparatorConstant + strings.TrimLeft(endpoint, urlPathSeparatorConstant)

	var requestBody io.Reader
	if payload != nil {
		encodedPayload, encodeError := json.Marshal(payload)
		if encodeError != nil {
			return fmt.Errorf(requestEncodeErrorTemplate, method, requestURL, encodeError)
		}
		requestBody = bytes.NewReader(encodedPayload)
	}

	request, buildError := http.NewRequestWithContext(executionContext, method, requestURL, requestBody)
	if buildError != nil {
		return fmt.Errorf(requestBuildErrorTemplateConstant, method, requestURL, buildError)
	}
	request.Header.Set(acceptHeaderNameConstant, jsonMediaTypeConstant)
	if payload != nil {
		request.Header.Set(contentTypeHeaderNameConstant, jsonMediaTypeConstant)
	}
	for _, decorate := range client.decorators {
		decorate(request)
	}

	response, sendError := client.httpClient.Do(request)
	if sendError != nil {
		return fmt.Errorf(requestSendErrorTemplateConstant, method, requestURL, sendError)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	responseBody, readError := io.ReadAll(response.Body)
	if readError != nil {
		return fmt.Errorf(responseReadErrorTemplateConstant, method, requestURL, readError)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return ResponseError{
			Method:     method,
			URL:        requestURL,
			StatusCode: response.StatusCode,
			Body:       truncateResponseBody(responseBody),
		}
	}

	if result == nil || len(bytes.TrimSpace(responseBody)) == 0 {
		return nil
	}
	if decodeError := json.Unmarshal(responseBody, result); decodeError != nil {
		return fmt.Errorf(responseDecodeErrorTemplate, method, requestURL, decodeError)
	}
	return nil
}

func truncateResponseBody(responseBody []byte) string {
	trimmedBody := strings.TrimSpace(string(responseBody))
	if len(trimmedBody) > maximumErrorBodyLengthConstant {
		return trimmedBody[:maximumErrorBodyLengthConstant]
	}
	return trimmedBody
}
