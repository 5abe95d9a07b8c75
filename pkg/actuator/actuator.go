// Package actuator drives the valves and the igniter of the test stand.
package actuator

import (
	"context"
	"fmt"

	"github.com/golang/glog"
)

// Actuator is what commands are dispatched to.
type Actuator interface {
	Open(valve int) error
	Close(valve int) error
	SetPosition(valve int, percent uint8) error
	OpenAll() error
	CloseAll() error
	SetPositionAll(percent uint8) error
	Ignite(ctx context.Context) error
}

// ValveConfig describes the servo of a valve. Angles are in degrees.
type ValveConfig struct {
	Name       string `mapstructure:"name"`
	MaxAngle   int    `mapstructure:"max_angle"`
	OpenAngle  int    `mapstructure:"open_angle"`
	CloseAngle int    `mapstructure:"close_angle"`
}

// Validate checks the angles are within the servo range.
func (c *ValveConfig) Validate() error {
	if c.MaxAngle <= 0 {
		return fmt.Errorf("valve %q: max_angle must be positive", c.Name)
	}
	for _, a := range []int{c.OpenAngle, c.CloseAngle} {
		if a < 0 || a > c.MaxAngle {
			return fmt.Errorf("valve %q: angle %d out of range [0, %d]", c.Name, a, c.MaxAngle)
		}
	}
	return nil
}

// Angle gets the servo angle for a position in percent of MaxAngle.
// Percent above 100 is clamped.
func (c *ValveConfig) Angle(percent uint8) int {
	if percent > 100 {
		percent = 100
	}
	return c.MaxAngle * int(percent) / 100
}

// Servo positions a valve.
type Servo interface {
	SetAngle(angle, maxAngle int) error
}

// Relay is a digital output.
type Relay interface {
	Set(high bool) error
}

// Valve is a configured valve with its servo.
type Valve struct {
	Config ValveConfig
	Servo  Servo
}

// Stand implements Actuator with a valve bank and an igniter.
type Stand struct {
	Valves  []Valve
	Igniter *Igniter
}

// NewStand creates a Stand. newServo is called for every valve.
func NewStand(configs []ValveConfig, newServo func(index int, config ValveConfig) Servo, igniter *Igniter) *Stand {
	s := &Stand{Igniter: igniter, Valves: make([]Valve, len(configs))}
	for i, c := range configs {
		s.Valves[i] = Valve{Config: c, Servo: newServo(i, c)}
	}
	return s
}

func (s *Stand) valve(index int) (*Valve, error) {
	if index < 0 || index >= len(s.Valves) {
		return nil, &NoValveError{Index: index, Count: len(s.Valves)}
	}
	return &s.Valves[index], nil
}

func (s *Stand) move(index, angle int) error {
	v, err := s.valve(index)
	if err != nil {
		return err
	}
	glog.V(1).Infof("valve %d %q -> %d deg", index, v.Config.Name, angle)
	return v.Servo.SetAngle(angle, v.Config.MaxAngle)
}

// Open implements Actuator.
func (s *Stand) Open(valve int) error {
	v, err := s.valve(valve)
	if err != nil {
		return err
	}
	return s.move(valve, v.Config.OpenAngle)
}

// Close implements Actuator.
func (s *Stand) Close(valve int) error {
	v, err := s.valve(valve)
	if err != nil {
		return err
	}
	return s.move(valve, v.Config.CloseAngle)
}

// SetPosition implements Actuator.
func (s *Stand) SetPosition(valve int, percent uint8) error {
	v, err := s.valve(valve)
	if err != nil {
		return err
	}
	return s.move(valve, v.Config.Angle(percent))
}

// OpenAll implements Actuator.
func (s *Stand) OpenAll() error {
	return s.each(s.Open)
}

// CloseAll implements Actuator.
func (s *Stand) CloseAll() error {
	return s.each(s.Close)
}

// SetPositionAll implements Actuator.
func (s *Stand) SetPositionAll(percent uint8) error {
	return s.each(func(valve int) error {
		return s.SetPosition(valve, percent)
	})
}

// each applies fn to every valve even if some of them fail.
func (s *Stand) each(fn func(int) error) error {
	var errs []error
	for i := range s.Valves {
		if err := fn(i); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d valves failed, first: %w", len(errs), len(s.Valves), errs[0])
	}
	return nil
}

// Ignite implements Actuator.
func (s *Stand) Ignite(ctx context.Context) error {
	if s.Igniter == nil {
		return ErrNoIgniter
	}
	return s.Igniter.Fire(ctx)
}
