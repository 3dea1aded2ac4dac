package network

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/APTrust/livepremis/models"
	"github.com/op/go-logging"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Don't log error messages longer than this
const MAX_ERR_MSG_SIZE = 2048

// ErrAgentAmbiguousInput means the caller gave both an agent
// identifier and an agent name, or neither.
var ErrAgentAmbiguousInput = errors.New("specify exactly one of agent identifier or agent name")

// AgentLookupError means we could not settle on a single agent.
// Candidates holds what the registry returned for Name, if anything.
type AgentLookupError struct {
	Name       string
	Candidates []*models.RegistryAgent
	Err        error
}

func (e *AgentLookupError) Error() string {
	if e.Err == ErrAgentAmbiguousInput {
		return e.Err.Error()
	}
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("no agent named '%s' in the registry", e.Name)
	}
	names := make([]string, len(e.Candidates))
	for i, agent := range e.Candidates {
		names[i] = fmt.Sprintf("%s (%s)", agent.Name, agent.Identifier)
	}
	return fmt.Sprintf("too many agents match '%s': %s", e.Name, strings.Join(names, ", "))
}

func (e *AgentLookupError) Unwrap() error {
	return e.Err
}

// AgentCache is a local store of agents we've already looked up by
// name. See util/storage.AgentCache.
type AgentCache interface {
	Get(name string) (*models.RegistryAgent, error)
	Save(agent *models.RegistryAgent) error
}

// AgentRegistryClient talks to the agent registry's REST API.
type AgentRegistryClient struct {
	HostUrl    string
	APIRoot    string
	APIKey     string
	httpClient *http.Client
	transport  *http.Transport
	logger     *logging.Logger
	cache      AgentCache
}

// NewAgentRegistryClient creates a new registry client. Param hostUrl
// is scheme and host, like "https://y2.lib.uchicago.edu". Param
// apiRoot is the path prefix of the API, like "/ldragents".
func NewAgentRegistryClient(hostUrl, apiRoot, apiKey string, logger *logging.Logger) (*AgentRegistryClient, error) {
	if strings.TrimSpace(hostUrl) == "" {
		return nil, fmt.Errorf("Agent registry hostUrl cannot be empty")
	}
	if logger == nil {
		return nil, fmt.Errorf("Agent registry client requires a logger")
	}
	cookieJar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("Can't create cookie jar for agent registry client: %v", err)
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 8,
		DisableKeepAlives:   false,
		Dial: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).Dial,
		ResponseHeaderTimeout: 10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
	}
	httpClient := &http.Client{
		Jar:       cookieJar,
		Transport: transport,
		Timeout:   60 * time.Second,
	}
	hostUrl = strings.TrimRight(strings.TrimSpace(hostUrl), "/")
	apiRoot = strings.Trim(strings.TrimSpace(apiRoot), "/")
	if apiRoot != "" {
		apiRoot = "/" + apiRoot
	}
	return &AgentRegistryClient{
		HostUrl:    hostUrl,
		APIRoot:    apiRoot,
		APIKey:     apiKey,
		httpClient: httpClient,
		transport:  transport,
		logger:     logger,
	}, nil
}

// WithCache makes the client check cache before searching the
// registry for an agent by name, and save single matches to it.
func (client *AgentRegistryClient) WithCache(cache AgentCache) *AgentRegistryClient {
	client.cache = cache
	return client
}

// BuildUrl combines the host url and API root with relativeUrl
// and queryParams.
func (client *AgentRegistryClient) BuildUrl(relativeUrl string, queryParams *url.Values) string {
	fullUrl := client.HostUrl + client.APIRoot + relativeUrl
	if queryParams != nil && len(*queryParams) > 0 {
		fullUrl = fmt.Sprintf("%s?%s", fullUrl, queryParams.Encode())
	}
	return fullUrl
}

// AgentEventsURL returns the URL of the agent's event list. Events
// are attributed to an agent by POSTing to this URL.
func (client *AgentRegistryClient) AgentEventsURL(agentId string) string {
	return client.BuildUrl(fmt.Sprintf("/agents/%s/events", url.PathEscape(strings.TrimSpace(agentId))), nil)
}

// AgentURL returns the URL of a single agent.
func (client *AgentRegistryClient) AgentURL(agentId string) string {
	return client.BuildUrl("/agents/"+url.PathEscape(strings.TrimSpace(agentId)), nil)
}

// AgentSearchURL returns the URL to search for agents matching term.
func (client *AgentRegistryClient) AgentSearchURL(term string) string {
	params := url.Values{}
	params.Set("term", strings.TrimSpace(term))
	return client.BuildUrl("/agents", &params)
}

// AllAgentsURL returns the URL of the agent collection. New agents
// are POSTed here.
func (client *AgentRegistryClient) AllAgentsURL() string {
	return client.BuildUrl("/agents", nil)
}

// NewJsonRequest returns a new request with headers indicating
// JSON request and response formats.
func (client *AgentRegistryClient) NewJsonRequest(method, targetUrl string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, targetUrl, body)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	if client.APIKey != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Token token=%s", client.APIKey))
	}
	req.Header.Add("Connection", "Keep-Alive")
	return req, nil
}

// AgentSearch returns all agents matching term. If nothing matches,
// the response has no error and Found() returns false.
func (client *AgentRegistryClient) AgentSearch(term string) *AgentResponse {
	resp := NewAgentResponse()
	if strings.TrimSpace(term) == "" {
		resp.Error = fmt.Errorf("Agent search term cannot be empty")
		return resp
	}
	client.doRequest(resp, "GET", client.AgentSearchURL(term), nil)
	if resp.Error != nil {
		return resp
	}
	resp.parseAgents()
	return resp
}

// AgentGet returns the agent with the specified identifier.
func (client *AgentRegistryClient) AgentGet(agentId string) *AgentResponse {
	resp := NewAgentResponse()
	if strings.TrimSpace(agentId) == "" {
		resp.Error = fmt.Errorf("Agent identifier cannot be empty")
		return resp
	}
	client.doRequest(resp, "GET", client.AgentURL(agentId), nil)
	if resp.Error != nil {
		return resp
	}
	resp.parseAgents()
	return resp
}

// AgentCreate registers a new agent, unless agents matching name
// already exist, in which case it returns those and creates nothing.
// Check resp.Created to see which happened.
func (client *AgentRegistryClient) AgentCreate(name, agentType string) *AgentResponse {
	name = strings.TrimSpace(name)
	agentType = strings.TrimSpace(agentType)
	if name == "" || agentType == "" {
		resp := NewAgentResponse()
		resp.Error = fmt.Errorf("Agent name and type are both required")
		return resp
	}
	existing := client.AgentSearch(name)
	if existing.Error != nil || existing.Found() {
		return existing
	}

	resp := NewAgentResponse()
	postData, err := json.Marshal(map[string]interface{}{
		"fields": []string{"name", "type"},
		"name":   name,
		"type":   agentType,
	})
	if err != nil {
		resp.Error = err
		return resp
	}
	client.doRequest(resp, "POST", client.AllAgentsURL(), bytes.NewBuffer(postData))
	if resp.Error != nil {
		return resp
	}
	if resp.StatusCode() != http.StatusOK {
		resp.Error = fmt.Errorf("Agent registry returned status %d when creating agent '%s'",
			resp.StatusCode(), name)
		return resp
	}
	resp.Created = true
	resp.parseAgents()
	client.logger.Infof("Created agent '%s' (%s) in registry", name, agentType)
	return resp
}

// FindAgentByName returns the one agent matching name. The cache,
// if there is one, is consulted first. No match, or more than one,
// is an *AgentLookupError.
func (client *AgentRegistryClient) FindAgentByName(name string) (*models.RegistryAgent, error) {
	name = strings.TrimSpace(name)
	if client.cache != nil {
		agent, err := client.cache.Get(name)
		if err != nil {
			client.logger.Warningf("Agent cache lookup for '%s' failed: %v", name, err)
		} else if agent.HasIdentifier() {
			return agent, nil
		}
	}
	resp := client.AgentSearch(name)
	if resp.Error != nil {
		return nil, resp.Error
	}
	agents := resp.Agents()
	if len(agents) != 1 {
		return nil, &AgentLookupError{Name: name, Candidates: agents}
	}
	agent := agents[0]
	if client.cache != nil {
		// Cached under the name we searched for, which may differ
		// in case or spacing from the registry's own.
		cached := *agent
		cached.Name = name
		if err := client.cache.Save(&cached); err != nil {
			client.logger.Warningf("Could not cache agent '%s': %v", name, err)
		}
	}
	return agent, nil
}

// FindOrCreateAgent returns the one agent matching name, registering
// it as agentType if the registry has no agent by that name. Several
// matches are an *AgentLookupError, as with FindAgentByName.
func (client *AgentRegistryClient) FindOrCreateAgent(name, agentType string) (*models.RegistryAgent, error) {
	agent, err := client.FindAgentByName(name)
	if lookupErr, ok := err.(*AgentLookupError); ok && lookupErr.Err == nil &&
		len(lookupErr.Candidates) == 0 {
		client.logger.Infof("Registering agent '%s' as %s", name, agentType)
		resp := client.AgentCreate(name, agentType)
		if resp.Error != nil {
			return nil, resp.Error
		}
		agent, err = resp.Agent(), nil
	}
	if err != nil {
		return nil, err
	}
	if !agent.HasIdentifier() {
		return nil, &AgentLookupError{Name: name}
	}
	return agent, nil
}

// ResolveAgentEventsURL returns the events URL for an agent, given
// exactly one of its identifier or its name. A name must match
// exactly one agent in the registry.
func (client *AgentRegistryClient) ResolveAgentEventsURL(identifier, agentName string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	agentName = strings.TrimSpace(agentName)
	if (identifier == "") == (agentName == "") {
		return "", &AgentLookupError{Name: agentName, Err: ErrAgentAmbiguousInput}
	}
	if identifier != "" {
		return client.AgentEventsURL(identifier), nil
	}
	agent, err := client.FindAgentByName(agentName)
	if err != nil {
		return "", err
	}
	return client.AgentEventsURL(agent.Identifier), nil
}

// doRequest issues an HTTP request, reads the response, and closes
// the connection to the remote server. Errors, including non-2xx
// responses, are recorded in resp.Error.
func (client *AgentRegistryClient) doRequest(resp *AgentResponse, method, absoluteUrl string, requestData io.Reader) {
	request, err := client.NewJsonRequest(method, absoluteUrl, requestData)
	resp.Request = request
	resp.Error = err
	if resp.Error != nil {
		return
	}
	client.logger.Debugf("%s %s", method, absoluteUrl)
	resp.Response, resp.Error = client.httpClient.Do(request)
	if resp.Error != nil {
		return
	}
	resp.readResponse()
	if resp.Error == nil && (resp.StatusCode() < 200 || resp.StatusCode() > 299) {
		body := string(resp.data)
		if len(body) > MAX_ERR_MSG_SIZE {
			body = body[:MAX_ERR_MSG_SIZE]
		}
		resp.Error = fmt.Errorf("%s %s returned status %d: %s",
			method, absoluteUrl, resp.StatusCode(), body)
	}
}
