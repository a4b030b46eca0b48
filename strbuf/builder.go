// Package strbuf provides a byte accumulator that starts in a caller-supplied
// region (typically a stack array) and moves to pooled storage only when the
// region is exceeded.
//
//	var scratch [128]byte
//	b := strbuf.New(scratch[:])
//	defer b.Dispose()
//	b.AppendString("col_")
//	b.AppendInt(42)
//
// A Builder must not be copied after first use.
package strbuf

import (
	"errors"
	"fmt"
	"unicode/utf8"
	"unsafe"

	"github.com/Konsultn-Engineering/colmap/pool"
)

// ErrOutOfRange reports an index or length outside the builder's bounds.
var ErrOutOfRange = errors.New("strbuf: index out of range")

// Builder accumulates bytes with minimal allocation.
type Builder struct {
	_ noCopy

	buf    []byte // current store; len(buf) is the capacity
	pos    int
	rented []byte // non-nil when buf came from the pool
}

// New returns a builder writing into region until it must grow. The region
// stays owned by the caller and is never returned to the pool.
func New(region []byte) Builder {
	return Builder{buf: region[:cap(region)]}
}

// WithCapacity returns a builder backed by pooled storage of at least n bytes.
// A zero capacity is legal and defers renting to the first append.
func WithCapacity(n int) Builder {
	if n <= 0 {
		return Builder{}
	}
	r := pool.Shared[byte]().Rent(n)
	return Builder{buf: r, rented: r}
}

// Len returns the number of bytes written.
func (b *Builder) Len() int { return b.pos }

// Cap returns the capacity of the current store.
func (b *Builder) Cap() int { return len(b.buf) }

// SetLen truncates the content to n bytes. Extending within the capacity
// exposes whatever bytes the store already holds.
func (b *Builder) SetLen(n int) {
	if n < 0 || n > len(b.buf) {
		panic(fmt.Errorf("%w: length %d, capacity %d", ErrOutOfRange, n, len(b.buf)))
	}
	b.pos = n
}

// At returns a reference to the byte at i.
func (b *Builder) At(i int) *byte {
	if i < 0 || i >= b.pos {
		panic(fmt.Errorf("%w: index %d, length %d", ErrOutOfRange, i, b.pos))
	}
	return &b.buf[i]
}

// EnsureCapacity grows the store now so it holds at least n bytes.
func (b *Builder) EnsureCapacity(n int) {
	if n > len(b.buf) {
		b.grow(n - b.pos)
	}
}

// AppendByte appends a single byte.
func (b *Builder) AppendByte(c byte) {
	if b.pos == len(b.buf) {
		b.grow(1)
	}
	b.buf[b.pos] = c
	b.pos++
}

// AppendRune appends the UTF-8 encoding of r.
func (b *Builder) AppendRune(r rune) {
	if r < utf8.RuneSelf {
		b.AppendByte(byte(r))
		return
	}
	if len(b.buf)-b.pos < utf8.UTFMax {
		b.grow(utf8.UTFMax)
	}
	b.pos += utf8.EncodeRune(b.buf[b.pos:], r)
}

// AppendRepeat appends c count times.
func (b *Builder) AppendRepeat(c byte, count int) {
	if count <= 0 {
		return
	}
	dst := b.AppendSpan(count)
	for i := range dst {
		dst[i] = c
	}
}

// AppendString appends s.
func (b *Builder) AppendString(s string) {
	if len(s) == 1 && b.pos < len(b.buf) {
		b.buf[b.pos] = s[0]
		b.pos++
		return
	}
	if len(s) > len(b.buf)-b.pos {
		b.grow(len(s))
	}
	b.pos += copy(b.buf[b.pos:], s)
}

// AppendBytes appends p.
func (b *Builder) AppendBytes(p []byte) {
	if len(p) > len(b.buf)-b.pos {
		b.grow(len(p))
	}
	b.pos += copy(b.buf[b.pos:], p)
}

// AppendRaw appends n bytes starting at p.
func (b *Builder) AppendRaw(p *byte, n int) {
	if n <= 0 {
		return
	}
	b.AppendBytes(unsafe.Slice(p, n))
}

// AppendSpan reserves n bytes, advances the length past them and returns
// them for the caller to fill.
func (b *Builder) AppendSpan(n int) []byte {
	if n < 0 {
		panic(fmt.Errorf("%w: span %d", ErrOutOfRange, n))
	}
	if n > len(b.buf)-b.pos {
		b.grow(n)
	}
	start := b.pos
	b.pos += n
	return b.buf[start:b.pos:b.pos]
}

// Insert inserts count copies of c at index.
func (b *Builder) Insert(index int, c byte, count int) {
	if index < 0 || index > b.pos {
		panic(fmt.Errorf("%w: insert at %d, length %d", ErrOutOfRange, index, b.pos))
	}
	if count <= 0 {
		return
	}
	b.makeRoom(index, count)
	for i := index; i < index+count; i++ {
		b.buf[i] = c
	}
}

// InsertString inserts s at index.
func (b *Builder) InsertString(index int, s string) {
	if index < 0 || index > b.pos {
		panic(fmt.Errorf("%w: insert at %d, length %d", ErrOutOfRange, index, b.pos))
	}
	if len(s) == 0 {
		return
	}
	b.makeRoom(index, len(s))
	copy(b.buf[index:], s)
}

func (b *Builder) makeRoom(index, n int) {
	if n > len(b.buf)-b.pos {
		b.grow(n)
	}
	copy(b.buf[index+n:], b.buf[index:b.pos])
	b.pos += n
}

// View returns the current content. With terminate set, a zero byte is
// written just past the content (growing first if the store is full); it
// is addressable through the returned slice's capacity but not part of it.
func (b *Builder) View(terminate bool) []byte {
	if terminate {
		if b.pos == len(b.buf) {
			b.grow(1)
		}
		b.buf[b.pos] = 0
		return b.buf[:b.pos : b.pos+1]
	}
	return b.buf[:b.pos:b.pos]
}

// String returns a copy of the current content.
func (b *Builder) String() string {
	return string(b.buf[:b.pos])
}

// StringAndDispose returns the content and releases the builder.
func (b *Builder) StringAndDispose() string {
	s := string(b.buf[:b.pos])
	b.Dispose()
	return s
}

// TryCopyTo copies the content into dst if it fits. The builder is disposed
// either way.
func (b *Builder) TryCopyTo(dst []byte) (int, bool) {
	defer b.Dispose()
	if b.pos > len(dst) {
		return 0, false
	}
	return copy(dst, b.buf[:b.pos]), true
}

// Reset empties the builder, keeping its store.
func (b *Builder) Reset() { b.pos = 0 }

// Dispose returns pooled storage, if any, and empties the builder.
func (b *Builder) Dispose() {
	if b.rented != nil {
		pool.Shared[byte]().Return(b.rented)
	}
	b.buf, b.rented, b.pos = nil, nil, 0
}

// Write implements io.Writer.
func (b *Builder) Write(p []byte) (int, error) {
	b.AppendBytes(p)
	return len(p), nil
}

// WriteString implements io.StringWriter.
func (b *Builder) WriteString(s string) (int, error) {
	b.AppendString(s)
	return len(s), nil
}

// WriteByte implements io.ByteWriter.
func (b *Builder) WriteByte(c byte) error {
	b.AppendByte(c)
	return nil
}

// WriteRune appends r and reports the number of bytes written.
func (b *Builder) WriteRune(r rune) (int, error) {
	n := b.pos
	b.AppendRune(r)
	return b.pos - n, nil
}

func (b *Builder) grow(extra int) {
	size := len(b.buf) * 2
	if need := b.pos + extra; size < need {
		size = need
	}
	p := pool.Shared[byte]()
	next := p.Rent(size)
	copy(next, b.buf[:b.pos])
	if b.rented != nil {
		p.Return(b.rented)
	}
	b.buf = next
	b.rented = next
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
