package command

import "fmt"

// Target selects the hardware addressed by a command.
type Target byte

// Targets
const (
	TargetServo   Target = 0x00
	TargetIgniter Target = 0x01
)

// String implements fmt.Stringer.
func (t Target) String() string {
	switch t {
	case TargetServo:
		return "servo"
	case TargetIgniter:
		return "igniter"
	}
	return fmt.Sprintf("target(%#02x)", byte(t))
}

// Type is the action, interpreted in combination with Target.
type Type byte

// Servo actions
const (
	ServoClose       Type = 0x00
	ServoOpen        Type = 0x01
	ServoSetPosition Type = 0x02
)

// Igniter actions
const (
	IgniterStart Type = 0x00
)

// ParamAll in Params[0] of a servo command applies it to every valve.
const ParamAll byte = 0xFF

// NumParams is the number of parameter bytes in a command.
const NumParams = 4

// Command is one discrete actuation instruction.
type Command struct {
	Target Target
	Type   Type
	Params [NumParams]byte
}

// Servo builds a servo command for a valve index or ParamAll.
func Servo(typ Type, valve byte, args ...byte) Command {
	c := Command{Target: TargetServo, Type: typ}
	c.Params[0] = valve
	copy(c.Params[1:], args)
	return c
}

// Ignite builds the igniter start command.
func Ignite() Command {
	return Command{Target: TargetIgniter, Type: IgniterStart}
}

// IsAll indicates a servo command addressing all valves.
func (c Command) IsAll() bool {
	return c.Params[0] == ParamAll
}

// TypeName names the action in the context of the target.
func (c Command) TypeName() string {
	switch c.Target {
	case TargetServo:
		switch c.Type {
		case ServoClose:
			return "close"
		case ServoOpen:
			return "open"
		case ServoSetPosition:
			return "set"
		}
	case TargetIgniter:
		if c.Type == IgniterStart {
			return "start"
		}
	}
	return fmt.Sprintf("type(%#02x)", byte(c.Type))
}

// String implements fmt.Stringer.
func (c Command) String() string {
	return fmt.Sprintf("%s.%s %v", c.Target, c.TypeName(), c.Params)
}
