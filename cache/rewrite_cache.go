package cache

import (
	"sync"
)

// Rewrite is a statement with its named parameters replaced by driver
// placeholders.
type Rewrite struct {
	// Source is the statement as written.
	Source string
	SQL    string

	// Params holds the parameter name bound to each placeholder, in order.
	Params []string
}

// RewriteCache remembers rewrites by statement fingerprint. Entries are
// small and the set of statements an application issues is bounded, so it
// never evicts.
type RewriteCache interface {
	Get(fingerprint uint64) (*Rewrite, bool)
	Set(fingerprint uint64, r *Rewrite)
	Len() int
}

type memRewriteCache struct {
	mu   sync.RWMutex
	data map[uint64]*Rewrite
}

func NewRewriteCache() RewriteCache {
	return &memRewriteCache{
		data: make(map[uint64]*Rewrite, 256),
	}
}

func (c *memRewriteCache) Get(f uint64) (*Rewrite, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.data[f]
	return r, ok
}

func (c *memRewriteCache) Set(f uint64, r *Rewrite) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[f] = r
}

func (c *memRewriteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
