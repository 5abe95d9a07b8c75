package actuator

import "time"

// Servo PWM defaults for a DS3225MG class servo.
const (
	DefaultMinPulse      = 500 * time.Microsecond
	DefaultMaxPulse      = 2500 * time.Microsecond
	DefaultPWMFrequency  = 330
	DefaultPWMResolution = 10
)

// PWMChannel is a hardware PWM output.
type PWMChannel interface {
	SetDuty(duty uint32) error
}

// ServoPWM positions a servo with a PWM channel.
type ServoPWM struct {
	Channel    PWMChannel
	MinPulse   time.Duration
	MaxPulse   time.Duration
	Frequency  int  // Hz
	Resolution uint // duty bits
}

// NewServoPWM creates a ServoPWM with defaults.
func NewServoPWM(ch PWMChannel) *ServoPWM {
	return &ServoPWM{
		Channel:    ch,
		MinPulse:   DefaultMinPulse,
		MaxPulse:   DefaultMaxPulse,
		Frequency:  DefaultPWMFrequency,
		Resolution: DefaultPWMResolution,
	}
}

// PulseWidth maps angle linearly into [MinPulse, MaxPulse].
// Servos differ in range so maxAngle is per valve.
func (s *ServoPWM) PulseWidth(angle, maxAngle int) time.Duration {
	if angle < 0 {
		angle = 0
	} else if angle > maxAngle {
		angle = maxAngle
	}
	span := s.MaxPulse - s.MinPulse
	return s.MinPulse + span*time.Duration(angle)/time.Duration(maxAngle)
}

// Duty gets the duty value of a pulse width.
func (s *ServoPWM) Duty(pulse time.Duration) uint32 {
	period := time.Second / time.Duration(s.Frequency)
	full := uint64(1)<<s.Resolution - 1
	return uint32(uint64(pulse) * full / uint64(period))
}

// SetAngle implements Servo.
func (s *ServoPWM) SetAngle(angle, maxAngle int) error {
	return s.Channel.SetDuty(s.Duty(s.PulseWidth(angle, maxAngle)))
}
