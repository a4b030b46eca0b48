// Package pool provides size-bucketed array pools shared by the buffer types.
//
// Arrays are rented in power-of-two buckets from MinBucket up to MaxBucket.
// Requests larger than MaxBucket are served by a plain allocation and are
// never retained on return.
package pool

import (
	"math/bits"
	"reflect"
	"sync"
)

const (
	// MinBucket is the capacity of the smallest bucket.
	MinBucket = 16

	// MaxBucket is the capacity of the largest pooled bucket.
	MaxBucket = 1 << 20

	minShift = 4
	buckets  = 17 // 16 .. 1<<20
)

// ArrayPool pools []T backing arrays by capacity bucket.
// Uses the *[]T pattern to avoid sync.Pool interface allocation overhead.
type ArrayPool[T any] struct {
	pools [buckets]sync.Pool

	// clearOnReturn is set when T may hold references; slots are zeroed
	// before the array goes back so pooled arrays do not pin objects.
	clearOnReturn bool
}

// NewArrayPool creates an empty pool for element type T.
func NewArrayPool[T any]() *ArrayPool[T] {
	p := &ArrayPool[T]{
		clearOnReturn: mayHoldPointers(reflect.TypeFor[T]()),
	}
	for i := range p.pools {
		size := MinBucket << i
		p.pools[i] = sync.Pool{
			New: func() any {
				s := make([]T, size)
				return &s
			},
		}
	}
	return p
}

var shared sync.Map // map[reflect.Type]any (*ArrayPool[T])

// Shared returns the process-wide pool for T.
func Shared[T any]() *ArrayPool[T] {
	t := reflect.TypeFor[T]()
	if p, ok := shared.Load(t); ok {
		return p.(*ArrayPool[T])
	}
	p, _ := shared.LoadOrStore(t, NewArrayPool[T]())
	return p.(*ArrayPool[T])
}

// BucketFor returns the bucket index serving a request of n elements,
// or -1 when n is larger than MaxBucket.
func BucketFor(n int) int {
	if n <= MinBucket {
		return 0
	}
	if n > MaxBucket {
		return -1
	}
	return bits.Len(uint(n-1)) - minShift
}

// BucketSize returns the capacity of bucket i.
func BucketSize(i int) int {
	return MinBucket << i
}

// Rent returns an array with len == cap >= n. The contents are unspecified
// for element types without pointers.
func (p *ArrayPool[T]) Rent(n int) []T {
	if n < 0 {
		n = 0
	}
	b := BucketFor(n)
	if b < 0 {
		return make([]T, n)
	}
	s := p.pools[b].Get().(*[]T)
	return *s
}

// Return gives an array back to the pool. Arrays whose capacity is not a
// bucket size are dropped.
func (p *ArrayPool[T]) Return(s []T) {
	c := cap(s)
	if c < MinBucket || c > MaxBucket || c&(c-1) != 0 {
		return
	}
	s = s[:c]
	if p.clearOnReturn {
		clear(s)
	}
	p.pools[BucketFor(c)].Put(&s)
}

func mayHoldPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && mayHoldPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if mayHoldPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
