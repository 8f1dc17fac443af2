package featurecache

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultTTL = 300 * time.Second

// Snapshot is one party's fully extracted feature vector with the instant it
// was captured.
type Snapshot struct {
	Values      map[string]float64 `json:"values"`
	Confidences map[string]float64 `json:"confidences"`
	CapturedAt  time.Time          `json:"captured_at"`
}

// Stats are cumulative cache counters.
type Stats struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

type entry struct {
	snapshot  Snapshot
	expiresAt time.Time
}

// Cache is a TTL map guarding the temporal store from repeated full-pipeline
// reads. One exclusive lock covers every mutating operation so concurrent
// workers never observe half-written entries; the lock is never held across
// extractor calls.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]entry
	ttl       time.Duration
	hits      uint64
	misses    uint64
	evictions uint64
}

// New builds a cache with the given default TTL. ttl <= 0 uses the default.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

// Key returns the cache key for a party's full feature vector.
func Key(partyID uuid.UUID) string {
	return fmt.Sprintf("party:%s:features:all", partyID)
}

// Get returns the snapshot stored at key if it has not outlived its TTL.
// Expired entries are evicted on access and reported as a miss.
func (c *Cache) Get(key string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored, ok := c.entries[key]
	if !ok {
		c.misses++
		return Snapshot{}, false
	}
	if time.Now().After(stored.expiresAt) {
		delete(c.entries, key)
		c.evictions++
		c.misses++
		return Snapshot{}, false
	}
	c.hits++
	return stored.snapshot, true
}

// Set stores a snapshot. ttl <= 0 falls back to the cache default.
func (c *Cache) Set(key string, snapshot Snapshot, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		snapshot:  snapshot,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes one key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateParties removes the feature entries for a set of parties, used
// after a bulk re-extraction.
func (c *Cache) InvalidateParties(partyIDs []uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range partyIDs {
		delete(c.entries, Key(id))
	}
}

// Prune drops every expired entry and returns how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, stored := range c.entries {
		if now.After(stored.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.evictions += uint64(removed)
	return removed
}

// Stats returns a point-in-time copy of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
