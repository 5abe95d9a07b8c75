package telemetry

import (
	"errors"
	"fmt"
)

var (
	// ErrSizeMismatch indicates a payload length which doesn't agree with
	// its sample count.
	ErrSizeMismatch = errors.New("telemetry size mismatch")
	// ErrTooManySamples indicates a batch which doesn't fit a radio payload.
	ErrTooManySamples = errors.New("too many samples")
)

// SizeMismatchError reports the lengths of a rejected payload.
type SizeMismatchError struct {
	Count    int // -1 if the header is incomplete
	Expected int
	Actual   int
}

func (e *SizeMismatchError) Error() string {
	if e.Count < 0 {
		return fmt.Sprintf("%v: %d bytes, header needs %d", ErrSizeMismatch, e.Actual, HeaderSize)
	}
	return fmt.Sprintf("%v: %d samples need %d bytes, got %d", ErrSizeMismatch, e.Count, e.Expected, e.Actual)
}

// Unwrap implements errors unwrapping.
func (e *SizeMismatchError) Unwrap() error {
	return ErrSizeMismatch
}
