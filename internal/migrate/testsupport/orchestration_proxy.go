package testsupport

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
)

const (
	deploymentPathPrefixConstant       = "/deployments/"
	deploymentUpdatePathPrefixConstant = "/v1/deployments/"
	profileBlockPathConstant           = "/blocks/dbtcli/profile/"
	secretBlockPathConstant            = "/blocks/secret/"
	profileBlockIdentifierPrefix       = "profile-block-"
	secretBlockIdentifierPrefix        = "secret-block-"
)

// ProfileBlockCall records a dbt cli profile block creation request.
type ProfileBlockCall struct {
	BlockName    string         `json:"cli_profile_block_name"`
	Profile      ProfileCall    `json:"profile"`
	Warehouse    string         `json:"wtype"`
	Credentials  map[string]any `json:"credentials"`
	BigQueryZone *string        `json:"bqlocation"`
}

// ProfileCall records the profile section of a profile block request.
type ProfileCall struct {
	Name                string `json:"name"`
	Target              string `json:"target"`
	TargetConfigsSchema string `json:"target_configs_schema"`
}

// SecretBlockCall records a secret block creation request.
type SecretBlockCall struct {
	BlockName string `json:"blockName"`
	Secret    string `json:"secret"`
}

// DeploymentUpdateCall records a deployment update request.
type DeploymentUpdateCall struct {
	DeploymentID     string         `json:"-"`
	Cron             string         `json:"cron"`
	DeploymentParams map[string]any `json:"deployment_params"`
}

// OrchestrationProxy serves the orchestration proxy endpoints from memory.
type OrchestrationProxy struct {
	mutex              sync.Mutex
	deployments        map[string]map[string]any
	failingDeployments map[string]bool
	failingUpdates     map[string]bool
	failingRefetches   map[string]bool
	failBlockCreation  bool
	dropUpdates        bool
	profileBlocks      []ProfileBlockCall
	secretBlocks       []SecretBlockCall
	updates            []DeploymentUpdateCall
}

// NewOrchestrationProxy constructs an empty proxy.
func NewOrchestrationProxy() *OrchestrationProxy {
	return &OrchestrationProxy{
		deployments:        map[string]map[string]any{},
		failingDeployments: map[string]bool{},
		failingUpdates:     map[string]bool{},
		failingRefetches:   map[string]bool{},
	}
}

// AddDeployment registers a deployment with its current parameters.
func (proxy *OrchestrationProxy) AddDeployment(deploymentID string, parameters map[string]any) {
	proxy.mutex.Lock()
	defer proxy.mutex.Unlock()
	proxy.deployments[deploymentID] = parameters
}

// FailDeployment makes every call for the deployment answer with a server error.
func (proxy *OrchestrationProxy) FailDeployment(deploymentID string) {
	proxy.mutex.Lock()
	defer proxy.mutex.Unlock()
	proxy.failingDeployments[deploymentID] = true
}

// FailUpdates makes updates of the deployment answer with a server error. Reads still succeed.
func (proxy *OrchestrationProxy) FailUpdates(deploymentID string) {
	proxy.mutex.Lock()
	defer proxy.mutex.Unlock()
	proxy.failingUpdates[deploymentID] = true
}

// FailRefetch accepts the next update of the deployment and fails every read after it.
func (proxy *OrchestrationProxy) FailRefetch(deploymentID string) {
	proxy.mutex.Lock()
	defer proxy.mutex.Unlock()
	proxy.failingRefetches[deploymentID] = true
}

// FailBlockCreation makes block creation endpoints answer with a server error.
func (proxy *OrchestrationProxy) FailBlockCreation() {
	proxy.mutex.Lock()
	defer proxy.mutex.Unlock()
	proxy.failBlockCreation = true
}

// DropUpdates accepts deployment updates without applying them.
func (proxy *OrchestrationProxy) DropUpdates() {
	proxy.mutex.Lock()
	defer proxy.mutex.Unlock()
	proxy.dropUpdates = true
}

// DeploymentParameters returns the stored parameters of a deployment.
func (proxy *OrchestrationProxy) DeploymentParameters(deploymentID string) (map[string]any, bool) {
	proxy.mutex.Lock()
	defer proxy.mutex.Unlock()
	parameters, exists := proxy.deployments[deploymentID]
	return parameters, exists
}

// ProfileBlockCalls returns the recorded profile block requests.
func (proxy *OrchestrationProxy) ProfileBlockCalls() []ProfileBlockCall {
	proxy.mutex.Lock()
	defer proxy.mutex.Unlock()
	return append([]ProfileBlockCall{}, proxy.profileBlocks...)
}

// SecretBlockCalls returns the recorded secret block requests.
func (proxy *OrchestrationProxy) SecretBlockCalls() []SecretBlockCall {
	proxy.mutex.Lock()
	defer proxy.mutex.Unlock()
	return append([]SecretBlockCall{}, proxy.secretBlocks...)
}

// UpdateCalls returns the recorded deployment updates.
func (proxy *OrchestrationProxy) UpdateCalls() []DeploymentUpdateCall {
	proxy.mutex.Lock()
	defer proxy.mutex.Unlock()
	return append([]DeploymentUpdateCall{}, proxy.updates...)
}

// ServeHTTP dispatches proxy requests.
func (proxy *OrchestrationProxy) ServeHTTP(responseWriter http.ResponseWriter, request *http.Request) {
	proxy.mutex.Lock()
	defer proxy.mutex.Unlock()

	path := request.URL.Path
	switch {
	case request.Method == http.MethodGet && strings.HasPrefix(path, deploymentPathPrefixConstant):
		proxy.serveDeployment(responseWriter, strings.TrimPrefix(path, deploymentPathPrefixConstant))
	case request.Method == http.MethodPut && strings.HasPrefix(path, deploymentUpdatePathPrefixConstant):
		proxy.serveDeploymentUpdate(responseWriter, request, strings.TrimPrefix(path, deploymentUpdatePathPrefixConstant))
	case request.Method == http.MethodPost && path == profileBlockPathConstant:
		proxy.serveProfileBlock(responseWriter, request)
	case request.Method == http.MethodPost && path == secretBlockPathConstant:
		proxy.serveSecretBlock(responseWriter, request)
	default:
		http.NotFound(responseWriter, request)
	}
}

func (proxy *OrchestrationProxy) serveDeployment(responseWriter http.ResponseWriter, deploymentID string) {
	if proxy.failingDeployments[deploymentID] {
		http.Error(responseWriter, "deployment unavailable", http.StatusInternalServerError)
		return
	}
	parameters, exists := proxy.deployments[deploymentID]
	if !exists {
		http.Error(responseWriter, "deployment not found", http.StatusNotFound)
		return
	}
	writeJSON(responseWriter, map[string]any{
		"deploymentId": deploymentID,
		"name":         deploymentID,
		"parameters":   parameters,
	})
}

func (proxy *OrchestrationProxy) serveDeploymentUpdate(responseWriter http.ResponseWriter, request *http.Request, deploymentID string) {
	if proxy.failingDeployments[deploymentID] || proxy.failingUpdates[deploymentID] {
		http.Error(responseWriter, "deployment unavailable", http.StatusInternalServerError)
		return
	}
	if _, exists := proxy.deployments[deploymentID]; !exists {
		http.Error(responseWriter, "deployment not found", http.StatusNotFound)
		return
	}

	var update DeploymentUpdateCall
	if decodeError := json.NewDecoder(request.Body).Decode(&update); decodeError != nil {
		http.Error(responseWriter, decodeError.Error(), http.StatusBadRequest)
		return
	}
	update.DeploymentID = deploymentID
	proxy.updates = append(proxy.updates, update)
	if !proxy.dropUpdates {
		proxy.deployments[deploymentID] = update.DeploymentParams
	}
	if proxy.failingRefetches[deploymentID] {
		proxy.failingDeployments[deploymentID] = true
	}
	writeJSON(responseWriter, map[string]any{"success": 1})
}

func (proxy *OrchestrationProxy) serveProfileBlock(responseWriter http.ResponseWriter, request *http.Request) {
	if proxy.failBlockCreation {
		http.Error(responseWriter, "block creation failed", http.StatusInternalServerError)
		return
	}
	var call ProfileBlockCall
	if decodeError := json.NewDecoder(request.Body).Decode(&call); decodeError != nil {
		http.Error(responseWriter, decodeError.Error(), http.StatusBadRequest)
		return
	}
	proxy.profileBlocks = append(proxy.profileBlocks, call)
	writeJSON(responseWriter, map[string]any{
		"block_id":   profileBlockIdentifierPrefix + call.BlockName,
		"block_name": call.BlockName,
	})
}

func (proxy *OrchestrationProxy) serveSecretBlock(responseWriter http.ResponseWriter, request *http.Request) {
	if proxy.failBlockCreation {
		http.Error(responseWriter, "block creation failed", http.StatusInternalServerError)
		return
	}
	var call SecretBlockCall
	if decodeError := json.NewDecoder(request.Body).Decode(&call); decodeError != nil {
		http.Error(responseWriter, decodeError.Error(), http.StatusBadRequest)
		return
	}
	proxy.secretBlocks = append(proxy.secretBlocks, call)
	writeJSON(responseWriter, map[string]any{
		"block_id":   secretBlockIdentifierPrefix + call.BlockName,
		"block_name": call.BlockName,
	})
}

func writeJSON(responseWriter http.ResponseWriter, document any) {
	responseWriter.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(responseWriter).Encode(document)
}
