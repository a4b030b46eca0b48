package command

import (
	"sync"

	"github.com/Konsultn-Engineering/colmap/buffer"
)

// scanBuffers holds one row's scan targets: vals receives the values and
// ptrs holds &vals[i] for Rows.Scan.
type scanBuffers struct {
	vals *buffer.Array[any]
	ptrs *buffer.Array[any]
}

// prepare sets up buffers for a row of size columns.
func (sb *scanBuffers) prepare(size int) {
	sb.vals = buffer.New[any](size)
	sb.ptrs = buffer.New[any](size)
	for i := 0; i < size; i++ {
		sb.vals.Add(nil)
	}
	for i := 0; i < size; i++ {
		sb.ptrs.Add(sb.vals.At(i))
	}
}

// targets returns the Scan destinations.
func (sb *scanBuffers) targets() []any { return sb.ptrs.View(0) }

// row copies the scanned values out and clears the buffers for the next row.
func (sb *scanBuffers) row() []any {
	out := make([]any, sb.vals.Len())
	for i, v := range sb.vals.All() {
		out[i] = v
		*sb.vals.At(i) = nil
	}
	return out
}

// release returns the storage to the pool.
func (sb *scanBuffers) release() {
	sb.vals.Dispose()
	sb.ptrs.Dispose()
	scanPool.Put(sb)
}

var scanPool = sync.Pool{
	New: func() any { return new(scanBuffers) },
}

func getScanBuffers(size int) *scanBuffers {
	sb := scanPool.Get().(*scanBuffers)
	sb.prepare(size)
	return sb
}
