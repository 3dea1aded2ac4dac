package network_test

import (
	"encoding/json"
	"fmt"
	"github.com/APTrust/livepremis/models"
	"github.com/APTrust/livepremis/network"
	"github.com/APTrust/livepremis/util/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeRegistry mimics the agent registry API under /ldragents.
type fakeRegistry struct {
	mutex       sync.Mutex
	searches    int
	posts       int
	lastPost    map[string]interface{}
	lastAuthHdr string
}

func (registry *fakeRegistry) handler(w http.ResponseWriter, r *http.Request) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	registry.lastAuthHdr = r.Header.Get("Authorization")
	path := strings.TrimPrefix(r.URL.Path, "/ldragents")
	switch {
	case r.Method == "GET" && path == "/agents":
		registry.searches++
		term := r.URL.Query().Get("term")
		switch term {
		case "tdanstrom":
			fmt.Fprint(w, `{"data":{"agents":{"a1":{"name":"tdanstrom","identifier":"8b7a1c0e-33f5-4a8f-a3f0-0f9d1e2c3b4a"}}}}`)
		case "smith":
			fmt.Fprint(w, `{"data":{"agents":{"b2":{"name":"jane smith","identifier":"id-b2"},"a1":{"name":"john smith","identifier":"id-a1"}}}}`)
		case "boom":
			http.Error(w, "internal error", http.StatusInternalServerError)
		default:
			fmt.Fprint(w, `{"data":{"agents":{}}}`)
		}
	case r.Method == "GET" && strings.HasPrefix(path, "/agents/"):
		id := strings.TrimPrefix(path, "/agents/")
		if id == "missing" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"data":{"agent":{"name":"agent %s","identifier":"%s","type":"software"}}}`, id, id)
	case r.Method == "POST" && path == "/agents":
		registry.posts++
		data, _ := ioutil.ReadAll(r.Body)
		registry.lastPost = make(map[string]interface{})
		json.Unmarshal(data, &registry.lastPost)
		if registry.lastPost["name"] == "reject me" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if registry.lastPost["name"] == "accepted" {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		fmt.Fprintf(w, `{"data":{"agents":{"new-id":{"name":"%s","identifier":"new-id","type":"%s"}}}}`,
			registry.lastPost["name"], registry.lastPost["type"])
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func newRegistryClient(t *testing.T, serverUrl string) *network.AgentRegistryClient {
	client, err := network.NewAgentRegistryClient(serverUrl+"/", "/ldragents/", "secret",
		logger.DiscardLogger("registry_test"))
	require.Nil(t, err)
	require.NotNil(t, client)
	return client
}

// mapCache is an in-memory AgentCache.
type mapCache struct {
	agents map[string]*models.RegistryAgent
}

func (cache *mapCache) Get(name string) (*models.RegistryAgent, error) {
	return cache.agents[name], nil
}

func (cache *mapCache) Save(agent *models.RegistryAgent) error {
	cache.agents[agent.Name] = agent
	return nil
}

func TestNewAgentRegistryClient(t *testing.T) {
	_, err := network.NewAgentRegistryClient("", "/ldragents", "", logger.DiscardLogger("registry_test"))
	assert.NotNil(t, err)
	_, err = network.NewAgentRegistryClient("https://example.com", "/ldragents", "", nil)
	assert.NotNil(t, err)

	client, err := network.NewAgentRegistryClient("https://y2.lib.uchicago.edu//", "ldragents",
		"", logger.DiscardLogger("registry_test"))
	require.Nil(t, err)
	assert.Equal(t, "https://y2.lib.uchicago.edu", client.HostUrl)
	assert.Equal(t, "/ldragents", client.APIRoot)
}

func TestAgentURLs(t *testing.T) {
	client, err := network.NewAgentRegistryClient("https://y2.lib.uchicago.edu", "/ldragents",
		"", logger.DiscardLogger("registry_test"))
	require.Nil(t, err)
	assert.Equal(t, "https://y2.lib.uchicago.edu/ldragents/agents/abc/events",
		client.AgentEventsURL(" abc "))
	assert.Equal(t, "https://y2.lib.uchicago.edu/ldragents/agents/abc",
		client.AgentURL("abc\n"))
	assert.Equal(t, "https://y2.lib.uchicago.edu/ldragents/agents?term=tyler+danstrom",
		client.AgentSearchURL(" tyler danstrom "))
	assert.Equal(t, "https://y2.lib.uchicago.edu/ldragents/agents",
		client.AllAgentsURL())
	assert.Equal(t, "https://y2.lib.uchicago.edu/ldragents/agents/a%2Fb",
		client.AgentURL("a/b"))
}

func TestAgentSearch(t *testing.T) {
	registry := &fakeRegistry{}
	server := httptest.NewServer(http.HandlerFunc(registry.handler))
	defer server.Close()
	client := newRegistryClient(t, server.URL)

	resp := client.AgentSearch("tdanstrom")
	require.Nil(t, resp.Error)
	assert.True(t, resp.Found())
	require.Equal(t, 1, len(resp.Agents()))
	assert.Equal(t, "tdanstrom", resp.Agent().Name)
	assert.Equal(t, "8b7a1c0e-33f5-4a8f-a3f0-0f9d1e2c3b4a", resp.Agent().Identifier)
	assert.Equal(t, "a1", resp.Agent().Key)
	assert.Equal(t, "Token token=secret", registry.lastAuthHdr)
	assert.Equal(t, 200, resp.StatusCode())

	// Sorted by key
	resp = client.AgentSearch("smith")
	require.Nil(t, resp.Error)
	require.Equal(t, 2, len(resp.Agents()))
	assert.Equal(t, "id-a1", resp.Agents()[0].Identifier)
	assert.Equal(t, "id-b2", resp.Agents()[1].Identifier)

	resp = client.AgentSearch("nobody")
	assert.Nil(t, resp.Error)
	assert.False(t, resp.Found())
	assert.Nil(t, resp.Agent())

	resp = client.AgentSearch("boom")
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Error(), "500")
	assert.False(t, resp.Found())

	resp = client.AgentSearch(" ")
	assert.NotNil(t, resp.Error)
}

func TestAgentGet(t *testing.T) {
	registry := &fakeRegistry{}
	server := httptest.NewServer(http.HandlerFunc(registry.handler))
	defer server.Close()
	client := newRegistryClient(t, server.URL)

	resp := client.AgentGet("id-77")
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Agent())
	assert.Equal(t, "id-77", resp.Agent().Identifier)
	assert.Equal(t, "software", resp.Agent().Type)

	resp = client.AgentGet("missing")
	assert.NotNil(t, resp.Error)
	assert.Equal(t, 404, resp.StatusCode())

	resp = client.AgentGet("")
	assert.NotNil(t, resp.Error)
}

func TestAgentCreate(t *testing.T) {
	registry := &fakeRegistry{}
	server := httptest.NewServer(http.HandlerFunc(registry.handler))
	defer server.Close()
	client := newRegistryClient(t, server.URL)

	// Existing agent: no POST
	resp := client.AgentCreate("tdanstrom", "person")
	require.Nil(t, resp.Error)
	assert.False(t, resp.Created)
	assert.True(t, resp.Found())
	assert.Equal(t, 0, registry.posts)

	// New agent
	resp = client.AgentCreate("livepremis fixity checker", "software")
	require.Nil(t, resp.Error)
	assert.True(t, resp.Created)
	assert.Equal(t, 1, registry.posts)
	assert.Equal(t, "livepremis fixity checker", registry.lastPost["name"])
	assert.Equal(t, "software", registry.lastPost["type"])
	assert.Equal(t, []interface{}{"name", "type"}, registry.lastPost["fields"])
	require.NotNil(t, resp.Agent())
	assert.Equal(t, "new-id", resp.Agent().Identifier)

	// Registry refuses
	resp = client.AgentCreate("reject me", "person")
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Created)

	// Anything other than 200 is a failure.
	resp = client.AgentCreate("accepted", "person")
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Error(), "202")
	assert.False(t, resp.Created)

	// Search failure stops creation.
	posts := registry.posts
	resp = client.AgentCreate("boom", "person")
	assert.NotNil(t, resp.Error)
	assert.Equal(t, posts, registry.posts)

	resp = client.AgentCreate("", "person")
	assert.NotNil(t, resp.Error)
	resp = client.AgentCreate("someone", "")
	assert.NotNil(t, resp.Error)
}

func TestFindOrCreateAgent(t *testing.T) {
	registry := &fakeRegistry{}
	server := httptest.NewServer(http.HandlerFunc(registry.handler))
	defer server.Close()
	client := newRegistryClient(t, server.URL)

	agent, err := client.FindOrCreateAgent("tdanstrom", "person")
	require.Nil(t, err)
	assert.Equal(t, "8b7a1c0e-33f5-4a8f-a3f0-0f9d1e2c3b4a", agent.Identifier)
	assert.Equal(t, 0, registry.posts)

	agent, err = client.FindOrCreateAgent("livepremis fixity checker", "software")
	require.Nil(t, err)
	assert.Equal(t, "new-id", agent.Identifier)
	assert.Equal(t, 1, registry.posts)

	// Several matches are not resolved by creating another.
	_, err = client.FindOrCreateAgent("smith", "person")
	require.NotNil(t, err)
	lookupErr, ok := err.(*network.AgentLookupError)
	require.True(t, ok, "Expected *AgentLookupError, got %T", err)
	assert.Equal(t, 2, len(lookupErr.Candidates))
	assert.Equal(t, 1, registry.posts)

	_, err = client.FindOrCreateAgent("boom", "person")
	assert.NotNil(t, err)
	_, err = client.FindOrCreateAgent("reject me", "person")
	assert.NotNil(t, err)
}

func TestResolveAgentEventsURL(t *testing.T) {
	registry := &fakeRegistry{}
	server := httptest.NewServer(http.HandlerFunc(registry.handler))
	defer server.Close()
	client := newRegistryClient(t, server.URL)

	eventsUrl, err := client.ResolveAgentEventsURL(" id-42 ", "")
	require.Nil(t, err)
	assert.Equal(t, server.URL+"/ldragents/agents/id-42/events", eventsUrl)
	assert.Equal(t, 0, registry.searches)

	eventsUrl, err = client.ResolveAgentEventsURL("", "tdanstrom")
	require.Nil(t, err)
	assert.Equal(t, server.URL+"/ldragents/agents/8b7a1c0e-33f5-4a8f-a3f0-0f9d1e2c3b4a/events", eventsUrl)

	// Both or neither
	_, err = client.ResolveAgentEventsURL("id-42", "tdanstrom")
	require.NotNil(t, err)
	lookupErr, ok := err.(*network.AgentLookupError)
	require.True(t, ok, "Expected *AgentLookupError, got %T", err)
	assert.Equal(t, network.ErrAgentAmbiguousInput, lookupErr.Err)

	_, err = client.ResolveAgentEventsURL(" ", "")
	require.NotNil(t, err)
	lookupErr, ok = err.(*network.AgentLookupError)
	require.True(t, ok, "Expected *AgentLookupError, got %T", err)
	assert.Equal(t, network.ErrAgentAmbiguousInput, lookupErr.Err)

	// Too many matches
	_, err = client.ResolveAgentEventsURL("", "smith")
	require.NotNil(t, err)
	lookupErr, ok = err.(*network.AgentLookupError)
	require.True(t, ok, "Expected *AgentLookupError, got %T", err)
	assert.Equal(t, 2, len(lookupErr.Candidates))
	assert.Contains(t, err.Error(), "too many agents")

	// No matches
	_, err = client.ResolveAgentEventsURL("", "nobody")
	require.NotNil(t, err)
	lookupErr, ok = err.(*network.AgentLookupError)
	require.True(t, ok, "Expected *AgentLookupError, got %T", err)
	assert.Empty(t, lookupErr.Candidates)

	// Network trouble is not a lookup error.
	_, err = client.ResolveAgentEventsURL("", "boom")
	require.NotNil(t, err)
	_, ok = err.(*network.AgentLookupError)
	assert.False(t, ok)
}

func TestResolveAgentEventsURLWithCache(t *testing.T) {
	registry := &fakeRegistry{}
	server := httptest.NewServer(http.HandlerFunc(registry.handler))
	defer server.Close()
	cache := &mapCache{agents: make(map[string]*models.RegistryAgent)}
	client := newRegistryClient(t, server.URL).WithCache(cache)

	first, err := client.ResolveAgentEventsURL("", "tdanstrom")
	require.Nil(t, err)
	assert.Equal(t, 1, registry.searches)
	require.NotNil(t, cache.agents["tdanstrom"])

	second, err := client.ResolveAgentEventsURL("", "tdanstrom")
	require.Nil(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, registry.searches)

	// Ambiguous names are never cached.
	client.ResolveAgentEventsURL("", "smith")
	assert.Nil(t, cache.agents["smith"])
}
