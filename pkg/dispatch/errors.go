package dispatch

import (
	"errors"
	"fmt"

	"github.com/robotalks/teststand/pkg/command"
)

// ErrUnknownCommand indicates a (target, type) pair with no action.
var ErrUnknownCommand = errors.New("unknown command")

// UnknownCommandError carries the ignored command.
type UnknownCommandError struct {
	Command command.Command
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnknownCommand, e.Command)
}

// Unwrap implements errors unwrapping.
func (e *UnknownCommandError) Unwrap() error {
	return ErrUnknownCommand
}
