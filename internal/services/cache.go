package services

import (
	"sync"
	"time"
)

// datasetTable is one master dataset held in memory
type datasetTable struct {
	Columns   []string
	Rows      [][]string
	SizeBytes int64
	ModTime   time.Time
}

type cacheEntry struct {
	table    *datasetTable
	loadedAt time.Time
}

// datasetCache keeps parsed datasets for a fixed TTL. Entries are never
// refreshed early: a rewritten CSV becomes visible once its entry expires.
type datasetCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func newDatasetCache(ttl time.Duration) *datasetCache {
	return &datasetCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *datasetCache) get(name string) (*datasetTable, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.loadedAt) >= c.ttl {
		delete(c.entries, name)
		return nil, false
	}
	return e.table, true
}

func (c *datasetCache) put(name string, t *datasetTable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = cacheEntry{table: t, loadedAt: c.now()}
}

func (c *datasetCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
