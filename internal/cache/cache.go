package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/C-Plusone/fund-app/internal/merge"
)

// LoadFunc produces a fresh record for a fund code on a cache miss. It never
// fails: provider outages resolve to a mostly-empty record, which is cached
// like any other answer so a dead upstream is not hammered on every request.
type LoadFunc func(ctx context.Context, code string) merge.Record

type entry struct {
	record   merge.Record
	storedAt time.Time
}

// Cache is a TTL cache of merged fund records with single-flight loading:
// however many requests miss on the same code at once, the loader runs once
// and every waiter gets that result. Expiry is lazy, entries past their TTL
// are treated as misses and only physically removed when the cache needs
// room.
type Cache struct {
	ttl        time.Duration
	maxEntries int
	load       LoadFunc

	mu      sync.RWMutex
	entries map[string]entry

	flights singleflight.Group

	now func() time.Time
}

// New creates a cache. Entries older than ttl are never served and are
// refetched on demand. maxEntries bounds the cache size; zero or negative
// means unbounded.
func New(ttl time.Duration, maxEntries int, load LoadFunc) *Cache {
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		load:       load,
		entries:    make(map[string]entry),
		now:        time.Now,
	}
}

// GetOrFetch returns the cached record for a fund code, loading it if the
// cache has no fresh entry. Concurrent misses on the same code share one
// load. The only error it returns is the caller's own context ending while
// waiting; the shared load itself keeps running so the other waiters and the
// cache still get the result.
func (c *Cache) GetOrFetch(ctx context.Context, code string) (merge.Record, error) {
	if record, ok := c.lookup(code); ok {
		return record, nil
	}

	ch := c.flights.DoChan(code, func() (any, error) {
		// A flight that just finished may have stored the record between our
		// lookup and this one.
		if record, ok := c.lookup(code); ok {
			return record, nil
		}

		// Detach from the triggering caller: the result is shared by every
		// waiter, so one caller hanging up must not fail the rest.
		record := c.load(context.WithoutCancel(ctx), code)
		c.store(code, record)
		return record, nil
	})

	select {
	case res := <-ch:
		return res.Val.(merge.Record), nil
	case <-ctx.Done():
		return merge.Record{}, ctx.Err()
	}
}

// Len returns the number of stored entries. Entries past their TTL still
// count until eviction removes them.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *Cache) lookup(code string) (merge.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[code]
	if !ok || c.expired(e) {
		return merge.Record{}, false
	}

	return e.record, true
}

func (c *Cache) store(code string, record merge.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[code]; !exists {
			c.evictLocked()
		}
	}

	c.entries[code] = entry{record: record, storedAt: c.now()}
}

// evictLocked makes room for one new entry. Expired entries go first; if none
// have expired, the entry stored longest ago is dropped.
func (c *Cache) evictLocked() {
	for code, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, code)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}

	var oldestCode string
	var oldestAt time.Time
	for code, e := range c.entries {
		if oldestCode == "" || e.storedAt.Before(oldestAt) {
			oldestCode = code
			oldestAt = e.storedAt
		}
	}
	if oldestCode != "" {
		delete(c.entries, oldestCode)
	}
}

func (c *Cache) expired(e entry) bool {
	return c.now().Sub(e.storedAt) >= c.ttl
}
