// Package buffer provides a growable array whose backing storage is rented
// from the shared pool, with an explicit one-time ownership handoff.
//
// Array and Locked are handled by pointer. Index and bound violations are
// programmer errors and panic with an error wrapping ErrOutOfRange or
// ErrReleased.
package buffer

import (
	"iter"

	"github.com/Konsultn-Engineering/colmap/pool"
)

// DefaultCapacity is used when New is called with a non-positive capacity.
const DefaultCapacity = 4

// Array is a growable array backed by pooled storage.
type Array[T any] struct {
	_ noCopy

	items []T // len(items) is the physical capacity
	n     int
	pool  *pool.ArrayPool[T]
}

// New rents storage for at least capacity elements.
func New[T any](capacity int) *Array[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := pool.Shared[T]()
	return &Array[T]{
		items: p.Rent(capacity),
		pool:  p,
	}
}

// Len returns the logical length.
func (a *Array[T]) Len() int { return a.n }

// Cap returns the physical capacity, 0 once disposed.
func (a *Array[T]) Cap() int { return len(a.items) }

// Add appends v, growing the storage when full.
func (a *Array[T]) Add(v T) {
	if a.items == nil {
		released("add")
	}
	if a.n == len(a.items) {
		a.grow(a.n + 1)
	}
	a.items[a.n] = v
	a.n++
}

// Set writes v at index i without growing. i must lie within the physical
// capacity; the logical length extends to i+1 when needed and never shrinks.
func (a *Array[T]) Set(i int, v T) {
	if a.items == nil {
		released("set")
	}
	if i < 0 || i >= len(a.items) {
		outOfRange(i, len(a.items))
	}
	a.items[i] = v
	if i >= a.n {
		a.n = i + 1
	}
}

// Get returns the element at i. Reading a disposed array reports
// ErrOutOfRange like any other bad index.
func (a *Array[T]) Get(i int) T {
	if i < 0 || i >= a.n {
		outOfRange(i, a.n)
	}
	return a.items[i]
}

// At returns a writable reference to the element at i.
func (a *Array[T]) At(i int) *T {
	if a.items == nil {
		released("index")
	}
	if i < 0 || i >= a.n {
		outOfRange(i, a.n)
	}
	return &a.items[i]
}

// Last returns the final logical element.
func (a *Array[T]) Last() T {
	if a.n == 0 {
		outOfRange(-1, 0)
	}
	return a.items[a.n-1]
}

// View returns the elements from start to the end of the logical content.
func (a *Array[T]) View(start int) []T {
	return view(a.items, a.n, start, a.n-start)
}

// ViewN returns length elements starting at start. The returned slice
// shares storage with the array and is valid until it grows or is disposed.
func (a *Array[T]) ViewN(start, length int) []T {
	return view(a.items, a.n, start, length)
}

// All iterates over the logical elements.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return all(a.items, a.n)
}

// Lock hands the storage to a new Locked view. The array is left empty
// and without storage, so disposing it afterwards is a no-op.
func (a *Array[T]) Lock() *Locked[T] {
	l := &Locked[T]{
		items: a.items[:a.n:len(a.items)],
		pool:  a.pool,
	}
	a.items = nil
	a.n = 0
	return l
}

// Dispose returns the storage to the pool. Subsequent calls are no-ops.
func (a *Array[T]) Dispose() {
	if a.items == nil {
		return
	}
	a.pool.Return(a.items)
	a.items = nil
	a.n = 0
}

func (a *Array[T]) grow(min int) {
	size := len(a.items) * 2
	if size < min {
		size = min
	}
	next := a.pool.Rent(size)
	copy(next, a.items[:a.n])
	a.pool.Return(a.items)
	a.items = next
}

func view[T any](items []T, n, start, length int) []T {
	if items == nil {
		return nil
	}
	if start < 0 || start > n {
		viewOutOfRange(start, length, n)
	}
	if length < 0 || length > n-start {
		viewOutOfRange(start, length, n)
	}
	return items[start : start+length : start+length]
}

func all[T any](items []T, n int) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < n; i++ {
			if !yield(i, items[i]) {
				return
			}
		}
	}
}
