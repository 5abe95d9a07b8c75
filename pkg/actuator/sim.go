package actuator

import (
	"sync"

	"github.com/golang/glog"
)

// LogServo is a simulated servo which logs and remembers its angle.
type LogServo struct {
	Name string

	lock  sync.Mutex
	angle int
	set   bool
}

// SetAngle implements Servo.
func (s *LogServo) SetAngle(angle, maxAngle int) error {
	s.lock.Lock()
	s.angle, s.set = angle, true
	s.lock.Unlock()
	glog.Infof("servo %s: %d/%d deg", s.Name, angle, maxAngle)
	return nil
}

// Angle gets the last angle, ok is false if never set.
func (s *LogServo) Angle() (angle int, ok bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.angle, s.set
}

// LogRelay is a simulated relay.
type LogRelay struct {
	Name string

	lock    sync.Mutex
	high    bool
	toggles int
}

// Set implements Relay.
func (r *LogRelay) Set(high bool) error {
	r.lock.Lock()
	if r.high != high {
		r.toggles++
	}
	r.high = high
	r.lock.Unlock()
	glog.Infof("relay %s: high=%v", r.Name, high)
	return nil
}

// High gets the relay level.
func (r *LogRelay) High() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.high
}

// Toggles counts level changes.
func (r *LogRelay) Toggles() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.toggles
}

// NewLogStand creates a Stand driving simulated hardware.
func NewLogStand(configs []ValveConfig, igniter *Igniter) *Stand {
	return NewStand(configs, func(_ int, c ValveConfig) Servo {
		return &LogServo{Name: c.Name}
	}, igniter)
}
