package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Konsultn-Engineering/colmap/mapper"
)

func TestMapperCache_SharesMappers(t *testing.T) {
	c, err := NewMapperCache(4)
	require.NoError(t, err)
	defer c.Close()

	a := c.Acquire([]string{"id", "Name"})
	b := c.Acquire([]string{"id", "Name"})
	defer a.Release()
	defer b.Release()

	assert.Same(t, a.Mapper(), b.Mapper())
	assert.Equal(t, 1, a.Mapper().Index("NAME"))

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestMapperCache_CaseVariantsAreSeparate(t *testing.T) {
	c, err := NewMapperCache(4)
	require.NoError(t, err)
	defer c.Close()

	a := c.Acquire([]string{"id", "name"})
	b := c.Acquire([]string{"ID", "NAME"})
	defer a.Release()
	defer b.Release()

	assert.NotSame(t, a.Mapper(), b.Mapper())
	assert.Equal(t, "NAME", b.Mapper().Key(1))
	assert.Equal(t, 2, c.Len())
}

func TestMapperCache_EvictionWaitsForLeases(t *testing.T) {
	c, err := NewMapperCache(1)
	require.NoError(t, err)
	defer c.Close()

	held := c.Acquire([]string{"a", "b", "c"})
	m := held.Mapper()

	other := c.Acquire([]string{"x", "y"})
	other.Release()

	// Evicted, but still leased.
	assert.False(t, m.Disposed())
	assert.Equal(t, 2, m.Index("C"))

	held.Release()
	held.Release()
	assert.True(t, m.Disposed())
}

func TestMapperCache_PurgeDisposesIdle(t *testing.T) {
	c, err := NewMapperCache(8)
	require.NoError(t, err)

	l := c.Acquire([]string{"a", "b"})
	m := l.Mapper()
	l.Release()
	assert.False(t, m.Disposed())

	require.NoError(t, c.Close())
	assert.True(t, m.Disposed())
	assert.Equal(t, 0, c.Len())
}

func TestMapperCache_Options(t *testing.T) {
	c, err := NewMapperCache(0, mapper.WithRepresentation(mapper.KindHashFallback))
	require.NoError(t, err)
	defer c.Close()

	l := c.Acquire([]string{"a", "b", "c"})
	defer l.Release()
	assert.Equal(t, mapper.KindHashFallback, l.Mapper().Kind())
}

func TestMapperCache_Concurrent(t *testing.T) {
	c, err := NewMapperCache(4)
	require.NoError(t, err)
	defer c.Close()

	var g errgroup.Group
	for w := 0; w < 16; w++ {
		g.Go(func() error {
			for i := 0; i < 200; i++ {
				cols := []string{"id", fmt.Sprintf("col%d", i%10), "name"}
				l := c.Acquire(cols)
				if got := l.Mapper().Index("NAME"); got != 2 {
					l.Release()
					return fmt.Errorf("NAME resolved to %d", got)
				}
				l.Release()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestRewriteCache(t *testing.T) {
	c := NewRewriteCache()
	_, ok := c.Get(1)
	assert.False(t, ok)

	c.Set(1, &Rewrite{SQL: "SELECT $1", Params: []string{"id"}})
	r, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, r.Params)
	assert.Equal(t, 1, c.Len())
}
