package actuator

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// DefaultIgnitionPulse is how long the igniter relay is held high.
const DefaultIgnitionPulse = 5 * time.Second

// Igniter pulses a relay.
type Igniter struct {
	Relay Relay
	Pulse time.Duration

	firing int32
}

// NewIgniter creates an Igniter.
func NewIgniter(relay Relay, pulse time.Duration) *Igniter {
	if pulse <= 0 {
		pulse = DefaultIgnitionPulse
	}
	return &Igniter{Relay: relay, Pulse: pulse}
}

// Fire drives the relay high for Pulse. The relay is driven low when the
// pulse ends, including when ctx is done first.
func (g *Igniter) Fire(ctx context.Context) (err error) {
	if !atomic.CompareAndSwapInt32(&g.firing, 0, 1) {
		return ErrIgniterBusy
	}
	defer atomic.StoreInt32(&g.firing, 0)

	glog.Warningf("IGNITION relay high for %s", g.Pulse)
	defer func() {
		if lowErr := g.Relay.Set(false); lowErr != nil {
			glog.Errorf("IGNITION relay low failed: %v", lowErr)
			if err == nil {
				err = lowErr
			}
		}
		glog.Info("IGNITION relay low")
	}()
	if err = g.Relay.Set(true); err != nil {
		return err
	}
	timer := time.NewTimer(g.Pulse)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
