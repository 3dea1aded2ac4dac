package storage

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"github.com/APTrust/livepremis/models"
	"github.com/boltdb/bolt"
	"strings"
	"time"
)

const AGENT_BUCKET = "agents"

// AgentCache is a bolt database that remembers which registry agent
// a name resolved to, so the fixity worker doesn't search the agent
// registry once per record. Keys are agent names, lower-cased and
// trimmed. Values are gob-encoded RegistryAgents.
type AgentCache struct {
	db       *bolt.DB
	filePath string

	// MaxAge is how long a cached agent stays good. Zero means
	// forever.
	MaxAge time.Duration
}

// NewAgentCache opens the cache at filePath, creating the file
// if it doesn't already exist.
func NewAgentCache(filePath string) (*AgentCache, error) {
	db, err := bolt.Open(filePath, 0644, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("Cannot open agent cache %s: %v", filePath, err)
	}
	cache := &AgentCache{
		db:       db,
		filePath: filePath,
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(AGENT_BUCKET))
		if err != nil {
			return fmt.Errorf("Error creating agent bucket: %s", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return cache, nil
}

func cacheKey(name string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(name)))
}

// FilePath returns the path to the bolt DB file.
func (cache *AgentCache) FilePath() string {
	return cache.filePath
}

// Close closes the bolt database.
func (cache *AgentCache) Close() {
	cache.db.Close()
}

// Save stores agent under agent.Name, stamping it with the current
// time.
func (cache *AgentCache) Save(agent *models.RegistryAgent) error {
	if agent == nil || strings.TrimSpace(agent.Name) == "" {
		return fmt.Errorf("Cannot cache an agent without a name")
	}
	agent.CachedAt = time.Now().UTC()
	buf := &bytes.Buffer{}
	if err := gob.NewEncoder(buf).Encode(agent); err != nil {
		return err
	}
	return cache.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(AGENT_BUCKET)).Put(cacheKey(agent.Name), buf.Bytes())
	})
}

// Get returns the agent cached under name. If name is not found, or
// the entry is older than MaxAge, this returns nil and no error.
func (cache *AgentCache) Get(name string) (*models.RegistryAgent, error) {
	var agent *models.RegistryAgent
	err := cache.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket([]byte(AGENT_BUCKET)).Get(cacheKey(name))
		if len(value) == 0 {
			return nil
		}
		agent = &models.RegistryAgent{}
		return gob.NewDecoder(bytes.NewBuffer(value)).Decode(agent)
	})
	if err != nil {
		return nil, err
	}
	if agent != nil && cache.MaxAge > 0 && time.Since(agent.CachedAt) > cache.MaxAge {
		return nil, nil
	}
	return agent, nil
}

// Delete removes name from the cache. Deleting a name that isn't
// there is not an error.
func (cache *AgentCache) Delete(name string) error {
	return cache.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(AGENT_BUCKET)).Delete(cacheKey(name))
	})
}

// Names returns the keys of all cached agents, in order.
func (cache *AgentCache) Names() []string {
	names := make([]string, 0)
	cache.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(AGENT_BUCKET)).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			names = append(names, string(k))
		}
		return nil
	})
	return names
}
