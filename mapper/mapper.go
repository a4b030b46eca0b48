// Package mapper resolves a fixed set of keys, such as result column names,
// to stable ordinal positions under an ordinal case-insensitive comparison.
//
// A Mapper is built once from an ordered list of candidate keys. Keys that
// fold to the same form collapse onto the first one seen, and ordinals are
// assigned in order of first apparition:
//
//	m := mapper.New([]string{"Key1", "Key2", "KEY1", "Key3"})
//	defer m.Dispose()
//
//	m.Index("key1")  // 0
//	m.Key(2)         // "Key3"
//	m.Index("nope")  // -1
//
// Construction picks one of several representations (single key, pair,
// mask table, hash map) from the shape of the input. The choice has no
// effect on results.
//
// Folding is locale independent: runes map to their simple uppercase form,
// a rune outside ASCII never folds into ASCII, and bytes that are not valid
// UTF-8 compare literally. "i" equals "I"; "İ" does not equal "i"; full-width
// letters fold together; control, invisible and space characters are
// significant.
//
// A built Mapper is safe for concurrent lookups. Dispose releases pooled
// storage and may be called any number of times, concurrently; afterwards
// the Mapper holds a single empty sentinel key and every lookup misses.
package mapper

import (
	"iter"
	"slices"
	"sync/atomic"
	"unsafe"
)

// Mapper maps keys to ordinals. The zero Mapper is empty.
type Mapper struct {
	state atomic.Pointer[table]
}

// Stats describes the representation of a Mapper.
type Stats struct {
	Kind          Kind
	Strategy      Strategy
	Count         int
	Slots         int
	OccupiedSlots int
	MaxSlotLoad   int
}

func (m *Mapper) load() *table {
	if t := m.state.Load(); t != nil {
		return t
	}
	return emptyTable
}

// Kind returns the representation in use.
func (m *Mapper) Kind() Kind { return m.load().kind }

// Count returns the number of canonical keys; 1 once disposed.
func (m *Mapper) Count() int { return m.load().count() }

// Disposed reports whether Dispose has been called.
func (m *Mapper) Disposed() bool { return m.load().kind == KindReleased }

// Index returns the ordinal of s, or -1.
func (m *Mapper) Index(s string) int { return m.load().lookup(s) }

// IndexOf is an alias of Index.
func (m *Mapper) IndexOf(s string) int { return m.load().lookup(s) }

// IndexBytes returns the ordinal of the text in b, or -1.
func (m *Mapper) IndexBytes(b []byte) int { return m.load().lookup(bytesView(b)) }

// Contains reports whether s resolves to an ordinal.
func (m *Mapper) Contains(s string) bool { return m.load().lookup(s) >= 0 }

// ContainsBytes reports whether the text in b resolves to an ordinal.
func (m *Mapper) ContainsBytes(b []byte) bool { return m.load().lookup(bytesView(b)) >= 0 }

// TryGet returns the ordinal of s and whether it was found. The ordinal is
// -1 when it was not.
func (m *Mapper) TryGet(s string) (int, bool) {
	i := m.load().lookup(s)
	return i, i >= 0
}

// TryGetBytes is TryGet for a byte view.
func (m *Mapper) TryGetBytes(b []byte) (int, bool) {
	i := m.load().lookup(bytesView(b))
	return i, i >= 0
}

// Key returns the canonical key at ordinal i. It panics with an error
// wrapping ErrOutOfRange when i is outside [0, Count()).
func (m *Mapper) Key(i int) string { return m.load().key(i) }

// SameKey returns the canonical key matching s. The returned string is the
// one passed at construction, sharing its backing data, so callers can drop
// their own copy.
func (m *Mapper) SameKey(s string) (string, bool) {
	t := m.load()
	if i := t.lookup(s); i >= 0 {
		return t.keys.At(i), true
	}
	return "", false
}

// SameKeyBytes is SameKey for a byte view.
func (m *Mapper) SameKeyBytes(b []byte) (string, bool) {
	return m.SameKey(bytesView(b))
}

// Keys returns the canonical keys in first-apparition order.
func (m *Mapper) Keys() []string {
	t := m.load()
	switch t.kind {
	case KindEmpty:
		return []string{}
	case KindReleased:
		return []string{""}
	default:
		return slices.Clone(t.keys.View(0))
	}
}

// Values yields 0 through Count()-1.
func (m *Mapper) Values() iter.Seq[int] {
	return func(yield func(int) bool) {
		n := m.Count()
		for i := 0; i < n; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

// All yields each canonical key with its ordinal.
func (m *Mapper) All() iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		t := m.load()
		n := t.count()
		for i := 0; i < n; i++ {
			if !yield(t.key(i), i) {
				return
			}
		}
	}
}

// Stats reports representation details.
func (m *Mapper) Stats() Stats {
	t := m.load()
	s := Stats{
		Kind:     t.kind,
		Strategy: t.strategy,
		Count:    t.count(),
	}
	if t.kind == KindMaskTable {
		s.Slots = int(t.mask) + 1
		s.OccupiedSlots = t.occupied
		s.MaxSlotLoad = t.maxLoad
	}
	return s
}

// Dispose releases pooled storage. Only the first call releases anything;
// concurrent and repeated calls observe the disposed state.
func (m *Mapper) Dispose() {
	t := m.state.Swap(releasedTable)
	if t == nil || t == emptyTable || t == releasedTable {
		return
	}
	t.release()
}

// bytesView reads b as a string without copying. The result must not
// outlive the lookup.
func bytesView(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}
