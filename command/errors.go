package command

import (
	"errors"
)

var (
	// ErrNoRows is returned by QueryRow and Scalar when nothing came back.
	ErrNoRows = errors.New("command: no rows in result set")

	// ErrUnknownParameter reports a named placeholder with no matching
	// parameter.
	ErrUnknownParameter = errors.New("command: unknown parameter")

	// ErrUnknownColumn reports a column name absent from the result.
	ErrUnknownColumn = errors.New("command: unknown column")

	// ErrConvert reports a value that cannot be read as the requested type.
	ErrConvert = errors.New("command: cannot convert value")
)
