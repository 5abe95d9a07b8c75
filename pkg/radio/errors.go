package radio

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates nothing was received in time.
	ErrTimeout = errors.New("receive timeout")
	// ErrClosed indicates the transport is closed.
	ErrClosed = errors.New("transport closed")
	// ErrPayloadTooLarge indicates a payload above MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// PayloadSizeError reports an oversized payload.
type PayloadSizeError struct {
	Size int
}

// Error implements error.
func (e *PayloadSizeError) Error() string {
	return fmt.Sprintf("%v: %d bytes, max %d", ErrPayloadTooLarge, e.Size, MaxPayloadSize)
}

// Unwrap implements errors unwrapping.
func (e *PayloadSizeError) Unwrap() error {
	return ErrPayloadTooLarge
}
