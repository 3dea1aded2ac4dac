package network

import (
	"encoding/json"
	"fmt"
	"github.com/APTrust/livepremis/models"
	"io/ioutil"
	"net/http"
	"sort"
)

// AgentResponse wraps the result of one call to the agent registry.
// Check Error before anything else.
type AgentResponse struct {
	Request  *http.Request
	Response *http.Response
	Error    error

	// Created is true if the call actually POSTed a new agent.
	// AgentCreate returns existing matches without creating
	// anything when the name is already registered.
	Created bool

	agents      []*models.RegistryAgent
	hasBeenRead bool
	data        []byte
}

// NewAgentResponse returns a pointer to a new response object.
func NewAgentResponse() *AgentResponse {
	return &AgentResponse{
		agents: make([]*models.RegistryAgent, 0),
	}
}

// Returns the raw body of the HTTP response as a byte slice.
// The return value may be nil.
func (resp *AgentResponse) RawResponseData() ([]byte, error) {
	if !resp.hasBeenRead {
		resp.readResponse()
	}
	return resp.data, resp.Error
}

// Reads the body of the HTTP response and closes it. The body MUST
// be closed, or we leak connections to the registry.
func (resp *AgentResponse) readResponse() {
	if !resp.hasBeenRead && resp.Response != nil && resp.Response.Body != nil {
		resp.data, resp.Error = ioutil.ReadAll(resp.Response.Body)
		resp.Response.Body.Close()
		resp.hasBeenRead = true
	}
}

// Agents returns the agents parsed from the response, sorted by key.
func (resp *AgentResponse) Agents() []*models.RegistryAgent {
	return resp.agents
}

// Agent returns the first agent in the response, or nil.
func (resp *AgentResponse) Agent() *models.RegistryAgent {
	if len(resp.agents) > 0 {
		return resp.agents[0]
	}
	return nil
}

// Found returns true if the response contains at least one agent.
func (resp *AgentResponse) Found() bool {
	return resp.Error == nil && len(resp.agents) > 0
}

// StatusCode returns the HTTP status code, or zero if we never got
// a response.
func (resp *AgentResponse) StatusCode() int {
	if resp.Response == nil {
		return 0
	}
	return resp.Response.StatusCode
}

// registryBody is the envelope the registry wraps around results.
// Searches return data.agents as a map of key to agent. Single
// agent lookups return data.agent.
type registryBody struct {
	Data *struct {
		Agents map[string]*models.RegistryAgent `json:"agents"`
		Agent  *models.RegistryAgent            `json:"agent"`
	} `json:"data"`
}

// parseAgents unmarshals the response body into resp.agents.
// A body with no agents is not an error.
func (resp *AgentResponse) parseAgents() {
	if len(resp.data) == 0 {
		return
	}
	body := &registryBody{}
	if err := json.Unmarshal(resp.data, body); err != nil {
		resp.Error = fmt.Errorf("Cannot parse agent registry response: %v", err)
		return
	}
	if body.Data == nil {
		return
	}
	keys := make([]string, 0, len(body.Data.Agents))
	for key := range body.Data.Agents {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		agent := body.Data.Agents[key]
		if agent == nil {
			continue
		}
		agent.Key = key
		resp.agents = append(resp.agents, agent)
	}
	if body.Data.Agent != nil {
		resp.agents = append(resp.agents, body.Data.Agent)
	}
}
