// Package station wires the tasks of the Home and Away stations.
package station

import "fmt"

// Role selects which side of the link a station is.
type Role int

// Roles
const (
	// Home is the operator side: console in, telemetry out to console.
	Home Role = iota
	// Away is the vehicle side: actuators and sensors.
	Away
)

// String implements fmt.Stringer.
func (r Role) String() string {
	switch r {
	case Home:
		return "home"
	case Away:
		return "away"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole parses home or away.
func ParseRole(s string) (Role, error) {
	switch s {
	case "home":
		return Home, nil
	case "away":
		return Away, nil
	}
	return 0, fmt.Errorf("invalid role %q", s)
}
