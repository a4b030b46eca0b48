package buffer

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange reports an index or view bound outside the valid range.
	ErrOutOfRange = errors.New("buffer: index out of range")

	// ErrReleased reports a mutation of a buffer whose storage was already
	// returned to the pool.
	ErrReleased = errors.New("buffer: storage released")
)

func outOfRange(index, limit int) {
	panic(fmt.Errorf("%w: index %d, length %d", ErrOutOfRange, index, limit))
}

func viewOutOfRange(start, length, limit int) {
	panic(fmt.Errorf("%w: view [%d:%d+%d], length %d", ErrOutOfRange, start, start, length, limit))
}

func released(op string) {
	panic(fmt.Errorf("%w: %s", ErrReleased, op))
}

// noCopy may be embedded into structs which must not be copied after
// first use. See go vet's copylocks checker.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
