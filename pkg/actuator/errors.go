package actuator

import (
	"errors"
	"fmt"
)

var (
	// ErrNoValve indicates a valve index which is not configured.
	ErrNoValve = errors.New("no such valve")
	// ErrNoIgniter indicates the stand has no igniter.
	ErrNoIgniter = errors.New("no igniter")
	// ErrIgniterBusy indicates an ignition is already in progress.
	ErrIgniterBusy = errors.New("igniter busy")
)

// NoValveError reports an invalid valve index.
type NoValveError struct {
	Index int
	Count int
}

func (e *NoValveError) Error() string {
	return fmt.Sprintf("%v: %d, %d valves configured", ErrNoValve, e.Index, e.Count)
}

// Unwrap implements errors unwrapping.
func (e *NoValveError) Unwrap() error {
	return ErrNoValve
}
