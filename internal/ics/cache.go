package ics

import (
	"context"
	"sync"
	"time"

	appLog "feedcal/internal/log"
)

const (
	// DefaultCacheCapacity bounds how many feed bodies are held at once.
	DefaultCacheCapacity = 20
	// DefaultFreshness is the maximum age at which a cached body is served
	// without refetching.
	DefaultFreshness = 5 * time.Minute
)

// BodyFetcher is the part of the fetch layer the cache depends on.
type BodyFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type cacheEntry struct {
	body      []byte
	fetchedAt time.Time
}

// Cache is an in-memory read-through store of raw feed bodies keyed by
// source identity. Entries expire after a freshness window and the cache
// never holds more than its capacity; at capacity the oldest-inserted entry
// is evicted first.
//
// Fetch failures are not cached and surface as an empty body: a source that
// cannot be fetched contributes zero events, nothing more.
type Cache struct {
	fetcher   BodyFetcher
	capacity  int
	freshness time.Duration
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]*cacheEntry
	order   []string // insertion order, eviction is FIFO

	keyMu sync.Mutex
	keys  map[string]*sync.Mutex
}

// NewCache builds a cache over fetcher. A nil clock means time.Now; zero
// capacity/freshness mean the defaults. The clock is injectable so expiry
// and eviction are testable without waiting on real time.
func NewCache(fetcher BodyFetcher, capacity int, freshness time.Duration, clock func() time.Time) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	if clock == nil {
		clock = time.Now
	}
	return &Cache{
		fetcher:   fetcher,
		capacity:  capacity,
		freshness: freshness,
		now:       clock,
		entries:   make(map[string]*cacheEntry),
		keys:      make(map[string]*sync.Mutex),
	}
}

// GetOrFetch returns the cached body for sourceID if it is still fresh,
// otherwise fetches url, stores the result, and returns it. On fetch failure
// it logs and returns an empty body; the error never crosses this layer.
//
// Calls for the same sourceID are serialized so a cold entry is fetched once
// rather than once per concurrent caller. Distinct sources fetch in parallel.
func (c *Cache) GetOrFetch(ctx context.Context, sourceID, url string) []byte {
	lock := c.lockFor(sourceID)
	lock.Lock()
	defer lock.Unlock()

	if body, ok := c.lookup(sourceID); ok {
		return body
	}

	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		appLog.Error("feed fetch failed; serving no events for source", err, "source_id", sourceID)
		return nil
	}

	c.store(sourceID, body)
	return body
}

// Len reports the number of live entries, fresh or stale.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) lookup(sourceID string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[sourceID]
	if !ok {
		return nil, false
	}
	// Age check on every read; a stale entry is never served.
	if c.now().Sub(e.fetchedAt) >= c.freshness {
		return nil, false
	}
	return e.body, true
}

func (c *Cache) store(sourceID string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[sourceID]; ok {
		// Refresh in place; the entry keeps its insertion-order slot.
		e.body = body
		e.fetchedAt = c.now()
		return
	}

	if len(c.entries) >= c.capacity && len(c.order) > 0 {
		victim := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, victim)
		appLog.Debug("feed cache evicted entry", "source_id", victim)
	}

	c.entries[sourceID] = &cacheEntry{body: body, fetchedAt: c.now()}
	c.order = append(c.order, sourceID)
}

func (c *Cache) lockFor(sourceID string) *sync.Mutex {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	m, ok := c.keys[sourceID]
	if !ok {
		m = &sync.Mutex{}
		c.keys[sourceID] = m
	}
	return m
}
