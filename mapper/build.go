package mapper

import (
	"database/sql"
	"iter"

	"github.com/Konsultn-Engineering/colmap/buffer"
	"github.com/Konsultn-Engineering/colmap/strbuf"
)

// List is a list-like source of keys.
type List interface {
	Len() int
	At(i int) string
}

// New builds a Mapper over keys. Only keys[0:len(keys)] is read, and the
// slice is not retained.
func New(keys []string, opts ...Option) *Mapper {
	c := newCollector(len(keys))
	for _, k := range keys {
		c.add(k)
	}
	return c.finish(newOptions(opts))
}

// FromSeq builds a Mapper from a sequence, consuming it once.
func FromSeq(seq iter.Seq[string], opts ...Option) *Mapper {
	c := newCollector(0)
	for k := range seq {
		c.add(k)
	}
	return c.finish(newOptions(opts))
}

// FromList builds a Mapper from a list-like container.
func FromList(list List, opts ...Option) *Mapper {
	n := list.Len()
	c := newCollector(n)
	for i := 0; i < n; i++ {
		c.add(list.At(i))
	}
	return c.finish(newOptions(opts))
}

// FromNullable builds a Mapper from keys that may be absent. A nil entry
// fails the whole construction with ErrNilKey.
func FromNullable(keys []*string, opts ...Option) (*Mapper, error) {
	for i, k := range keys {
		if k == nil {
			return nil, nilKeyAt(i)
		}
	}
	c := newCollector(len(keys))
	for _, k := range keys {
		c.add(*k)
	}
	return c.finish(newOptions(opts)), nil
}

// FromNullStrings builds a Mapper from driver-shaped keys. An invalid entry
// fails the whole construction with ErrNilKey.
func FromNullStrings(keys []sql.NullString, opts ...Option) (*Mapper, error) {
	for i, k := range keys {
		if !k.Valid {
			return nil, nilKeyAt(i)
		}
	}
	c := newCollector(len(keys))
	for _, k := range keys {
		c.add(k.String)
	}
	return c.finish(newOptions(opts)), nil
}

// linearDedupe is the unique count up to which duplicates are found by
// direct comparison instead of the folded-key map.
const linearDedupe = 8

// collector dedupes keys in first-apparition order. Every construction
// owns its collector; nothing is shared between concurrent builds.
type collector struct {
	keys  *buffer.Array[string]
	ascii bool

	// folded is populated once the unique count passes linearDedupe.
	folded map[string]int32
}

func newCollector(hint int) *collector {
	if hint > linearDedupe*4 {
		hint = linearDedupe * 4
	}
	return &collector{
		keys:  buffer.New[string](hint),
		ascii: true,
	}
}

func (c *collector) add(k string) {
	if c.folded == nil {
		for i := 0; i < c.keys.Len(); i++ {
			if equalFull(c.keys.Get(i), k) {
				return
			}
		}
		c.push(k)
		if c.keys.Len() > linearDedupe {
			c.index()
		}
		return
	}

	var scratch [128]byte
	b := strbuf.New(scratch[:])
	foldInto(&b, k)
	if _, ok := c.folded[string(b.View(false))]; !ok {
		c.folded[b.String()] = int32(c.keys.Len())
		c.push(k)
	}
	b.Dispose()
}

func (c *collector) push(k string) {
	if c.ascii && !isASCII(k) {
		c.ascii = false
	}
	c.keys.Add(k)
}

// index switches dedupe to the folded-key map.
func (c *collector) index() {
	c.folded = make(map[string]int32, c.keys.Len()*2)
	for i, k := range c.keys.All() {
		c.folded[foldString(k)] = int32(i)
	}
}

func foldString(s string) string {
	var scratch [128]byte
	b := strbuf.New(scratch[:])
	foldInto(&b, s)
	return b.StringAndDispose()
}

func (c *collector) finish(o Options) *Mapper {
	n := c.keys.Len()
	kind := choose(n, o)

	strategy := StrategyFull
	if c.ascii {
		strategy = StrategyASCII
	}

	var t *table
	switch kind {
	case KindEmpty:
		c.keys.Dispose()
		t = emptyTable
	case KindSingle, KindPair:
		t = &table{kind: kind, strategy: strategy, keys: c.keys.Lock()}
	case KindMaskTable:
		t = c.mask(strategy, o)
	default:
		t = c.hash(strategy)
	}

	m := &Mapper{}
	m.state.Store(t)
	return m
}

func choose(n int, o Options) Kind {
	switch {
	case n == 0:
		return KindEmpty
	case o.Force == KindMaskTable || o.Force == KindHashFallback:
		return o.Force
	case n == 1:
		return KindSingle
	case n == 2:
		return KindPair
	case n > o.MaskTableLimit:
		return KindHashFallback
	default:
		return KindMaskTable
	}
}

// mask builds a mask table, or the hash fallback when the best slot layout
// still crowds more than MaxSlotLoad keys into one slot (long shared
// prefixes and suffixes of equal length do this).
func (c *collector) mask(strategy Strategy, o Options) *table {
	n := c.keys.Len()
	sigs := make([]signature, n)
	for i, k := range c.keys.All() {
		if strategy == StrategyASCII {
			sigs[i] = signatureASCII(k)
		} else {
			sigs[i] = signatureFull(k)
		}
	}

	layout := planMask(sigs)
	if layout.maxLoad > o.MaxSlotLoad && o.Force != KindMaskTable {
		return c.hash(strategy)
	}
	return buildMask(c.keys, strategy, sigs, layout)
}

func (c *collector) hash(strategy Strategy) *table {
	if c.folded == nil {
		c.index()
	}
	return &table{
		kind:     KindHashFallback,
		strategy: strategy,
		keys:     c.keys.Lock(),
		index:    c.folded,
	}
}
