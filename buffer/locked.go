package buffer

import (
	"iter"

	"github.com/Konsultn-Engineering/colmap/pool"
)

// Locked is a read-only view that owns the storage handed over by
// Array.Lock. It must be disposed by its owner.
type Locked[T any] struct {
	_ noCopy

	items []T // len == logical length, cap == physical capacity
	pool  *pool.ArrayPool[T]
}

// Len returns the number of elements, 0 once disposed.
func (l *Locked[T]) Len() int { return len(l.items) }

// At returns the element at i.
func (l *Locked[T]) At(i int) T {
	if i < 0 || i >= len(l.items) {
		outOfRange(i, len(l.items))
	}
	return l.items[i]
}

// Last returns the final element.
func (l *Locked[T]) Last() T {
	if len(l.items) == 0 {
		outOfRange(-1, 0)
	}
	return l.items[len(l.items)-1]
}

// View returns the elements from start to the end.
func (l *Locked[T]) View(start int) []T {
	return view(l.items, len(l.items), start, len(l.items)-start)
}

// ViewN returns length elements starting at start.
func (l *Locked[T]) ViewN(start, length int) []T {
	return view(l.items, len(l.items), start, length)
}

// All iterates over the elements.
func (l *Locked[T]) All() iter.Seq2[int, T] {
	return all(l.items, len(l.items))
}

// Dispose returns the storage to the pool. Subsequent calls are no-ops.
func (l *Locked[T]) Dispose() {
	if l.items == nil {
		return
	}
	l.pool.Return(l.items)
	l.items = nil
}
