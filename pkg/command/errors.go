package command

import (
	"errors"
	"fmt"
)

var (
	// ErrTooShort indicates the buffer is shorter than an encoded command.
	ErrTooShort = errors.New("too short")
)

// DecodeError is returned by Decode.
type DecodeError struct {
	Reason error
	Len    int
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode command: %v (%d bytes, want %d)", e.Reason, e.Len, Size)
}

// Unwrap returns the reason.
func (e *DecodeError) Unwrap() error {
	return e.Reason
}
