package guard

import (
	"strings"
	"sync"
	"time"
)

const (
	defaultSessionCacheTTL  = 30 * time.Second
	defaultSessionCacheSize = 10000
)

type cacheEntry struct {
	store   *Store
	expires time.Time
}

// StoreCache keeps one Store per credential so a check started by one
// request is visible to the following ones. Sessions whose check failed
// are not kept, and once the cache holds its maximum number of entries
// new credentials get a store that is not cached.
type StoreCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	nextPrune  time.Time
	opts       []StoreOption
	now        func() time.Time
}

// NewStoreCache creates a cache. Entries live for ttl after creation,
// a non positive ttl uses the default.
func NewStoreCache(ttl time.Duration, opts ...StoreOption) *StoreCache {
	if ttl <= 0 {
		ttl = defaultSessionCacheTTL
	}
	return &StoreCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: defaultSessionCacheSize,
		opts:       opts,
		now:        time.Now,
	}
}

// WithMaxEntries sets how many credentials the cache holds, a non positive
// value uses the default.
func (c *StoreCache) WithMaxEntries(n int) *StoreCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 {
		n = defaultSessionCacheSize
	}
	c.maxEntries = n
	return c
}

// Get returns the store for credential, creating it with check when it is
// missing, expired or its check failed.
func (c *StoreCache) Get(credential string, check CheckFunc) *Store {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !now.Before(c.nextPrune) {
		c.prune(now)
	}

	if entry, ok := c.entries[credential]; ok {
		if now.Before(entry.expires) && !failed(entry.store) {
			return entry.store
		}
		delete(c.entries, credential)
	}

	store := NewStore(check, c.opts...)

	if len(c.entries) >= c.maxEntries {
		c.prune(now)
		if len(c.entries) >= c.maxEntries {
			return store
		}
	}

	c.entries[strings.Clone(credential)] = cacheEntry{
		store:   store,
		expires: now.Add(c.ttl),
	}
	return store
}

// Forget drops the store for credential
func (c *StoreCache) Forget(credential string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, credential)
}

// Len returns the number of live entries
func (c *StoreCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune(c.now())
	return len(c.entries)
}

// prune drops expired and failed entries
func (c *StoreCache) prune(now time.Time) {
	for key, entry := range c.entries {
		if !now.Before(entry.expires) || failed(entry.store) {
			delete(c.entries, key)
		}
	}
	c.nextPrune = now.Add(c.ttl / 2)
}

// failed reports whether the store finished its check without a session
func failed(s *Store) bool {
	snap := s.Snapshot()
	return snap.Completed && !snap.Authenticated
}
