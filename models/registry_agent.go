package models

import (
	"time"
)

// RegistryAgent is an agent record from the agent registry: a person,
// organization or piece of software that performs preservation
// events. Identifier is what goes into an event's
// linkingAgentIdentifierValue.
type RegistryAgent struct {
	// Key is the key under which the registry returned this agent
	// in a search result. It is often, but not always, the
	// identifier.
	Key        string    `json:"key,omitempty"`
	Name       string    `json:"name"`
	Identifier string    `json:"identifier"`
	Type       string    `json:"type,omitempty"`
	CachedAt   time.Time `json:"cached_at,omitempty"`
}

// HasIdentifier returns true if the agent has a non-empty identifier.
func (agent *RegistryAgent) HasIdentifier() bool {
	return agent != nil && agent.Identifier != ""
}
