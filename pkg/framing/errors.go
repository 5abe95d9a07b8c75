package framing

import (
	"errors"
	"fmt"
)

var (
	// ErrBadEOP indicates a frame did not end with EOP.
	ErrBadEOP = errors.New("bad end of packet")
)

// FrameError describes a discarded frame.
type FrameError struct {
	// Got is the byte found instead of EOP.
	Got byte
	// Restarted is set when Got was SOP and started a new frame.
	Restarted bool
}

// Error implements error.
func (e *FrameError) Error() string {
	msg := fmt.Sprintf("%v: got %#02x", ErrBadEOP, e.Got)
	if e.Restarted {
		msg += ", restarted frame"
	}
	return msg
}

// Unwrap implements errors unwrapping.
func (e *FrameError) Unwrap() error {
	return ErrBadEOP
}
