// Package plancache holds finished tailoring plans in memory so a caller
// can fetch them again by token without rerunning the pipeline.
package plancache

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-tailor/internal/types"
)

// DefaultTTL is how long a cached plan stays retrievable.
const DefaultTTL = 30 * time.Minute

type entry struct {
	plan      *types.TailorPlan
	resumeID  uuid.UUID
	expiresAt time.Time
}

// Cache is a concurrency-safe TTL store of tailoring plans keyed by opaque
// tokens. Expired entries are swept lazily on insert.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[uuid.UUID]entry
	now     func() time.Time
}

// New returns a Cache with the given TTL; ttl <= 0 uses DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[uuid.UUID]entry),
		now:     time.Now,
	}
}

// Store caches a plan for its resume and returns a fresh retrieval token.
func (c *Cache) Store(resumeID uuid.UUID, plan *types.TailorPlan) uuid.UUID {
	token := uuid.New()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweep()
	c.entries[token] = entry{
		plan:      plan,
		resumeID:  resumeID,
		expiresAt: c.now().Add(c.ttl),
	}
	return token
}

// Get returns the cached plan for a token. The resume ID must match the one
// the plan was stored under; a mismatched, expired, or unknown token misses.
func (c *Cache) Get(token, resumeID uuid.UUID) (*types.TailorPlan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[token]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, token)
		return nil, false
	}
	if e.resumeID != resumeID {
		return nil, false
	}
	return e.plan, true
}

// Invalidate drops every cached plan for a resume. Reindexing calls this so
// stale plans never outlive the chunks they were built from.
func (c *Cache) Invalidate(resumeID uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for token, e := range c.entries {
		if e.resumeID == resumeID {
			delete(c.entries, token)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of live entries, sweeping expired ones first.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep()
	return len(c.entries)
}

// sweep removes expired entries. Callers must hold the lock.
func (c *Cache) sweep() {
	now := c.now()
	for token, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, token)
		}
	}
}
