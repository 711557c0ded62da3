package token

import (
	"sync"
	"time"
)

// DefaultLeeway is subtracted from a token's expiry when deciding cache
// freshness, so a caller never receives a token about to expire mid-use.
const DefaultLeeway = 10 * time.Second

// Key identifies a cached token resolution.
type Key struct {
	// TokenID scopes the entry, typically session id plus template and
	// version stamp, or a user id for legacy integration tokens.
	TokenID string
	// Audience further scopes legacy integration entries.
	Audience string
}

func (k Key) String() string {
	if k.Audience != "" {
		return k.TokenID + "-" + k.Audience
	}
	return k.TokenID
}

type entry struct {
	resolver *Resolver
}

// Cache maps keys to in-flight or settled token resolutions. It is
// shared process-wide state; construct one per client and hand it to
// every session so tests get isolation with fresh instances.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Get returns the resolver for key if present and fresh. A still
// pending resolution is always returned: it is in flight, so joining it
// is what makes fetches single-flight per key. A settled resolution is
// returned only while now < expiry - leeway; rejected resolutions and
// stale tokens read as absent. Get never triggers a fetch.
func (c *Cache) Get(key Key, leeway time.Duration) (*Resolver, bool) {
	c.mu.RLock()
	e, ok := c.entries[key.String()]
	c.mu.RUnlock()
	if !ok || !fresh(e, leeway) {
		return nil, false
	}
	return e.resolver, true
}

// GetOrSet returns the fresh resolver already installed for key, or
// atomically installs r when none is usable. The second return is true
// when the caller joined an existing resolution and false when it owns
// the fetch. This is the compare-and-swap insert that keeps fetches
// single-flight on a preemptive runtime.
func (c *Cache) GetOrSet(key Key, r *Resolver, leeway time.Duration) (*Resolver, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key.String()]; ok && fresh(e, leeway) {
		return e.resolver, true
	}
	c.entries[key.String()] = &entry{resolver: r}
	return r, false
}

// fresh applies the usability rule: pending resolutions are usable,
// settled ones only while now < expiry - leeway, rejected ones never.
func fresh(e *entry, leeway time.Duration) bool {
	tok, settled, err := e.resolver.Peek()
	if !settled {
		return true
	}
	if err != nil {
		return false
	}
	return time.Now().Before(tok.ExpireAt().Add(-leeway))
}

// Set installs or overwrites the entry for key. There is no
// insert-if-absent: the last write wins, and callers already waiting on
// an earlier resolver still receive its eventual result.
func (c *Cache) Set(key Key, r *Resolver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = &entry{resolver: r}
}

// Remove drops the entry for key, but only while it still holds r. A
// failed fetch must not evict a newer resolution that won the key in
// the meantime.
func (c *Cache) Remove(key Key, r *Resolver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key.String()]; ok && e.resolver == r {
		delete(c.entries, key.String())
	}
}

// Clear empties the cache unconditionally.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
