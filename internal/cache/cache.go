// Package cache provides the in-memory result cache for query responses.
// Entries age out by TTL and are evicted in LRU order when the cache is
// full, whichever triggers first. The backing store is externally mutable,
// so callers invalidate per store when they learn of writes.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// entry is one cached result.
type entry struct {
	key         string
	value       any
	storedAt    time.Time
	accessCount int
}

// Stats is a point-in-time snapshot of the cache counters. Expirations are
// entries dropped on access because their TTL elapsed; misses are lookups
// that never had an entry.
type Stats struct {
	Entries     int   `json:"entries"`
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Expirations int64 `json:"expirations"`
	Evictions   int64 `json:"evictions"`
}

// QueryCache caches computed query responses keyed by store, query text,
// and normalized parameters. Expiry is lazy: an entry past its TTL is
// evicted by the Get that finds it.
type QueryCache struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	items      map[string]*list.Element
	order      *list.List

	hits        int64
	misses      int64
	expirations int64
	evictions   int64

	now func() time.Time
}

// New builds a cache holding at most maxEntries entries for ttlSeconds
// each. maxEntries <= 0 disables caching entirely; ttlSeconds <= 0 means
// entries never expire and only LRU pressure removes them.
func New(maxEntries, ttlSeconds int) *QueryCache {
	return &QueryCache{
		maxEntries: maxEntries,
		ttl:        time.Duration(ttlSeconds) * time.Second,
		items:      make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}
}

// Get returns the cached value for key and marks it most-recently-used.
// An entry older than the TTL is removed and counted as an expiration,
// not a miss.
func (c *QueryCache) Get(key string) (any, bool) {
	if c.maxEntries <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl {
		c.removeLocked(el)
		c.expirations++
		return nil, false
	}
	c.order.MoveToFront(el)
	e.accessCount++
	c.hits++
	return e.value, true
}

// Put stores value under key, evicting the least-recently-used entry first
// when the cache is at capacity. Storing an existing key refreshes its
// value and timestamp without evicting anything.
func (c *QueryCache) Put(key string, value any) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.storedAt = c.now()
		c.order.MoveToFront(el)
		return
	}
	for c.order.Len() >= c.maxEntries {
		c.removeLocked(c.order.Back())
		c.evictions++
	}
	c.items[key] = c.order.PushFront(&entry{key: key, value: value, storedAt: c.now()})
}

func (c *QueryCache) removeLocked(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}

// InvalidateStore removes every entry belonging to one store and reports
// how many were dropped. Keys carry the store id as a prefix, so this is a
// scan, not a hash lookup.
func (c *QueryCache) InvalidateStore(storeID string) int {
	prefix := storeID + ":"
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if strings.HasPrefix(el.Value.(*entry).key, prefix) {
			c.removeLocked(el)
			removed++
		}
		el = next
	}
	return removed
}

// Purge drops every entry. Counters are kept so stats survive a purge.
func (c *QueryCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Len reports the current number of entries.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns a snapshot of the counters.
func (c *QueryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:     c.order.Len(),
		Hits:        c.hits,
		Misses:      c.misses,
		Expirations: c.expirations,
		Evictions:   c.evictions,
	}
}

// Key derives the cache key for a query against one store. Parameters are
// folded into the hash in sorted order, so the same query with re-ordered
// parameters maps to the same entry. The store id stays outside the hash
// as a prefix so whole-store invalidation can match on it.
func Key(storeID, text string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	h.Write([]byte(text))
	for _, name := range names {
		fmt.Fprintf(h, "\x00%s=%s", name, params[name])
	}
	return storeID + ":" + hex.EncodeToString(h.Sum(nil))
}
