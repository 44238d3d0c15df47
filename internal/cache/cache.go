// Package cache provides a thread-safe bounded key/value cache with LRU
// eviction and lazy TTL expiry. Separate instances with different
// capacities and TTLs back search results, product lookups and
// recommendations.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// Stats is a point-in-time snapshot of a cache instance.
type Stats struct {
	Name    string        `json:"name"`
	Size    int           `json:"size"`
	MaxSize int           `json:"max_size"`
	TTL     time.Duration `json:"ttl_seconds"`
}

type entry struct {
	digest    uint64
	canonical string
	value     any
	storedAt  time.Time
}

// Cache is a bounded in-memory LRU cache with per-entry TTL.
// All operations are safe for concurrent use; the lock is held only
// across in-memory state, never across I/O.
type Cache struct {
	name    string
	maxSize int
	ttl     time.Duration

	mu      sync.Mutex
	entries map[uint64]*list.Element
	// lru orders elements most-recently-used first.
	lru *list.List

	now      func() time.Time
	observer Observer
}

// Observer receives cache events for instrumentation. Implementations
// must not block.
type Observer interface {
	Hit(name string)
	Miss(name string)
	Eviction(name string)
}

// Option configures a Cache.
type Option func(*Cache)

// WithObserver attaches an instrumentation observer.
func WithObserver(o Observer) Option {
	return func(c *Cache) { c.observer = o }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache holding at most maxSize entries, each valid for ttl.
func New(name string, maxSize int, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		name:    name,
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[uint64]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key, or ok=false when the key is
// absent or its entry has outlived the TTL. Expired entries are purged
// on access; a hit promotes the entry to most-recently-used.
func (c *Cache) Get(key any) (any, bool) {
	canonical := canonicalKey(key)
	d := digest(canonical)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[d]
	if !ok {
		c.miss()
		return nil, false
	}

	e := el.Value.(*entry)
	if c.now().Sub(e.storedAt) > c.ttl {
		c.lru.Remove(el)
		delete(c.entries, d)
		c.miss()
		return nil, false
	}

	c.lru.MoveToFront(el)
	c.hit()
	return e.value, true
}

// Set stores value under key, replacing any previous entry and
// restarting its TTL. When the cache exceeds its capacity the
// least-recently-used entry is evicted.
func (c *Cache) Set(key, value any) {
	canonical := canonicalKey(key)
	d := digest(canonical)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[d]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.storedAt = c.now()
		c.lru.MoveToFront(el)
		return
	}

	el := c.lru.PushFront(&entry{
		digest:    d,
		canonical: canonical,
		value:     value,
		storedAt:  c.now(),
	})
	c.entries[d] = el

	for c.lru.Len() > c.maxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).digest)
		c.evicted()
	}
}

// Remove deletes the entry for key if present.
func (c *Cache) Remove(key any) {
	d := digest(canonicalKey(key))

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[d]; ok {
		c.lru.Remove(el)
		delete(c.entries, d)
	}
}

// RemovePattern deletes every entry whose canonical key contains the
// given substring and returns the number of entries removed.
func (c *Cache) RemovePattern(substring string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.lru.Front(); el != nil; {
		next := el.Next()
		e := el.Value.(*entry)
		if strings.Contains(e.canonical, substring) {
			c.lru.Remove(el)
			delete(c.entries, e.digest)
			removed++
		}
		el = next
	}
	return removed
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[uint64]*list.Element)
	c.lru.Init()
}

// Stats returns a snapshot of the cache configuration and fill level.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Name:    c.name,
		Size:    c.lru.Len(),
		MaxSize: c.maxSize,
		TTL:     c.ttl,
	}
}

// Name returns the cache instance name.
func (c *Cache) Name() string { return c.name }

func (c *Cache) hit() {
	if c.observer != nil {
		c.observer.Hit(c.name)
	}
}

func (c *Cache) miss() {
	if c.observer != nil {
		c.observer.Miss(c.name)
	}
}

func (c *Cache) evicted() {
	if c.observer != nil {
		c.observer.Eviction(c.name)
	}
}
