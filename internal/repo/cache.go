// Package repo implements tag persistence against the remote record store,
// with a read-through snapshot cache in front of it.
package repo

import (
	"sync"
	"time"

	"github.com/convoops/tagtrack/internal/domain"
)

// DefaultCacheTTL bounds how stale a served snapshot may be under normal
// operation. Two minutes is tolerable at a live event; the live-lookup path
// in GetByEPC covers the freshness-critical case of just-encoded tags.
const DefaultCacheTTL = 2 * time.Minute

// Cache holds the last full snapshot of the tag table, keyed by EPC.
// It is constructor-injected and mutex-guarded so one instance can be
// shared by every request-handling goroutine.
//
// Writes invalidate the whole snapshot rather than patching it; the next
// read pays a full refetch. Simple beats clever for a population of a few
// thousand tags.
type Cache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	snapshot  map[string]domain.Tag
	fetchedAt time.Time
}

// NewCache builds a cache with the given TTL, falling back to
// DefaultCacheTTL when ttl is not positive.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{ttl: ttl}
}

// Fresh returns a copy of the snapshot if one exists and is within TTL.
func (c *Cache) Fresh() (map[string]domain.Tag, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil || time.Since(c.fetchedAt) > c.ttl {
		return nil, false
	}
	return copyTags(c.snapshot), true
}

// Stale returns a copy of the last good snapshot regardless of age.
// The repo serves this when a refetch fails: availability over freshness.
func (c *Cache) Stale() (map[string]domain.Tag, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return nil, false
	}
	return copyTags(c.snapshot), true
}

// Set replaces the snapshot and restarts the TTL clock.
func (c *Cache) Set(tags map[string]domain.Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = copyTags(tags)
	c.fetchedAt = time.Now()
}

// Invalidate drops the snapshot entirely. Called after every successful
// write so no read can observe the pre-write state past its own refetch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
	c.fetchedAt = time.Time{}
}

func copyTags(tags map[string]domain.Tag) map[string]domain.Tag {
	out := make(map[string]domain.Tag, len(tags))
	for epc, t := range tags {
		out[epc] = t
	}
	return out
}
