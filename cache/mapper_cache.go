// Package cache keeps resolvers and statement rewrites alive across
// executions.
package cache

import (
	"slices"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Konsultn-Engineering/colmap/mapper"
	"github.com/Konsultn-Engineering/colmap/utils"
)

// DefaultMapperCacheSize is used when NewMapperCache gets a non-positive size.
const DefaultMapperCacheSize = 128

// entry is one cached mapper. It is disposed once it has been evicted and
// no lease holds it.
type entry struct {
	columns []string
	m       *mapper.Mapper
	refs    atomic.Int32
	evicted atomic.Bool
}

func (e *entry) evict() {
	e.evicted.Store(true)
	if e.refs.Load() == 0 {
		e.m.Dispose()
	}
}

func (e *entry) release() {
	if e.refs.Add(-1) == 0 && e.evicted.Load() {
		e.m.Dispose()
	}
}

// Lease pins a cached mapper until Release.
type Lease struct {
	e    *entry
	once sync.Once
}

// Mapper returns the leased mapper.
func (l *Lease) Mapper() *mapper.Mapper { return l.e.m }

// Release unpins the mapper. Further calls are no-ops.
func (l *Lease) Release() {
	l.once.Do(l.e.release)
}

// MapperCache shares one mapper per result column set.
type MapperCache struct {
	cache *lru.Cache[uint64, *entry]
	mu    sync.RWMutex
	opts  []mapper.Option

	hits, misses atomic.Uint64
}

func NewMapperCache(size int, opts ...mapper.Option) (*MapperCache, error) {
	if size <= 0 {
		size = DefaultMapperCacheSize
	}
	c, err := lru.NewWithEvict(size, func(_ uint64, e *entry) {
		e.evict()
	})
	if err != nil {
		return nil, err
	}
	return &MapperCache{cache: c, opts: opts}, nil
}

// Acquire returns a lease on the mapper for columns, building it on first
// use. Column sets are compared exactly; case variants get their own mapper
// because their canonical keys differ.
func (c *MapperCache) Acquire(columns []string) *Lease {
	key := utils.FingerprintColumns(columns)

	// Fast path: try to get from cache with read lock
	c.mu.RLock()
	if e, ok := c.cache.Get(key); ok && slices.Equal(e.columns, columns) {
		e.refs.Add(1)
		c.mu.RUnlock()
		c.hits.Add(1)
		return &Lease{e: e}
	}
	c.mu.RUnlock()

	// Slow path: build and cache with write lock
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if e, ok := c.cache.Get(key); ok {
		if slices.Equal(e.columns, columns) {
			e.refs.Add(1)
			c.hits.Add(1)
			return &Lease{e: e}
		}
		// Fingerprint collision: serve an uncached mapper.
		c.misses.Add(1)
		return &Lease{e: c.detached(columns)}
	}

	c.misses.Add(1)
	e := &entry{
		columns: slices.Clone(columns),
		m:       mapper.New(columns, c.opts...),
	}
	e.refs.Store(1)
	c.cache.Add(key, e)
	return &Lease{e: e}
}

func (c *MapperCache) detached(columns []string) *entry {
	e := &entry{m: mapper.New(columns, c.opts...)}
	e.refs.Store(1)
	e.evicted.Store(true)
	return e
}

// Len returns the number of cached mappers.
func (c *MapperCache) Len() int { return c.cache.Len() }

// Stats returns the hit and miss counts.
func (c *MapperCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Purge evicts every mapper. Mappers still leased are disposed on release.
func (c *MapperCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Purge() // This will trigger the evict callback for all items
}

// Close purges the cache.
func (c *MapperCache) Close() error {
	c.Purge()
	return nil
}
