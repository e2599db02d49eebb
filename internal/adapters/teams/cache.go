// Package teams loads per-team config files behind a short per-entry
// TTL cache. Team membership changes rarely but is checked on every
// session-list request, so absence is cached alongside presence.
package teams

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/matt-grain/claude-code-kanban/internal/domain"
)

// ConfigFileName is the single config file inside each team directory.
// Its presence is the sole signal that a session is a team session.
const ConfigFileName = "config.json"

// DefaultTTL is the per-entry freshness window. Shorter than the
// metadata resolver's window; see package comment.
const DefaultTTL = 5 * time.Second

type cacheEntry struct {
	cfg       *domain.TeamConfig // nil means cached absence
	fetchedAt time.Time
}

// Cache is the process-wide team config cache.
type Cache struct {
	root string
	ttl  time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache creates a cache over the given teams root. A zero ttl means
// DefaultTTL.
func NewCache(root string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		root:    root,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Load returns the team's config, reading from disk only when the
// cached entry has expired. A missing or unparseable config file is a
// valid cached result of "no team", not an error.
func (c *Cache) Load(teamID string) (*domain.TeamConfig, bool) {
	c.mu.RLock()
	entry, ok := c.entries[teamID]
	c.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < c.ttl {
		return entry.cfg, entry.cfg != nil
	}

	cfg := c.read(teamID)

	c.mu.Lock()
	c.entries[teamID] = cacheEntry{cfg: cfg, fetchedAt: time.Now()}
	c.mu.Unlock()

	return cfg, cfg != nil
}

// Evict drops one team's cached entry so the next Load re-reads disk.
func (c *Cache) Evict(teamID string) {
	c.mu.Lock()
	delete(c.entries, teamID)
	c.mu.Unlock()
}

func (c *Cache) read(teamID string) *domain.TeamConfig {
	path := filepath.Join(c.root, teamID, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var cfg domain.TeamConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Debug().Err(err).Str("team_id", teamID).Msg("skipping unparseable team config")
		return nil
	}
	if cfg.Name == "" {
		cfg.Name = teamID
	}
	return &cfg
}
