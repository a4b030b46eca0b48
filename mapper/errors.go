package mapper

import (
	"errors"
	"fmt"
)

var (
	// ErrNilKey reports an absent entry in the candidate keys.
	ErrNilKey = errors.New("mapper: nil key")

	// ErrOutOfRange reports an ordinal outside [0, Count()).
	ErrOutOfRange = errors.New("mapper: index out of range")
)

func nilKeyAt(i int) error {
	return fmt.Errorf("%w at position %d", ErrNilKey, i)
}

func outOfRange(i, n int) {
	panic(fmt.Errorf("%w: index %d, count %d", ErrOutOfRange, i, n))
}
