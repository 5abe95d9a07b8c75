// Package sampler polls the sensors into the telemetry stream.
package sampler

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/teststand/pkg/queue"
	"github.com/robotalks/teststand/pkg/telemetry"
)

// Source reads all sensors once.
type Source interface {
	Sample(ctx context.Context) (telemetry.SensorSample, error)
}

// SourceFunc is the func form of Source.
type SourceFunc func(ctx context.Context) (telemetry.SensorSample, error)

// Sample implements Source.
func (f SourceFunc) Sample(ctx context.Context) (telemetry.SensorSample, error) {
	return f(ctx)
}

// DefaultRate is the default polling rate in Hz.
const DefaultRate = 100

// MaxRate is the highest polling rate in Hz.
const MaxRate = 1000

// Poller samples Source at Rate and puts samples into Out.
// Out is expected to drop the oldest samples when the link falls behind.
type Poller struct {
	Source Source
	Out    *queue.Queue[telemetry.SensorSample]
	Rate   int // Hz
}

// Interval gets the polling period. Rate is clamped to MaxRate and
// DefaultRate is used if it's not positive.
func (p *Poller) Interval() time.Duration {
	rate := p.Rate
	switch {
	case rate <= 0:
		rate = DefaultRate
	case rate > MaxRate:
		rate = MaxRate
	}
	return time.Second / time.Duration(rate)
}

// Run implements framework.Runnable.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		s, err := p.Source.Sample(ctx)
		if err != nil {
			glog.Warningf("sample: %v", err)
			continue
		}
		if err = p.Out.Put(ctx, s); err != nil {
			return err
		}
	}
}

// Synthetic produces fake readings for bench runs: channel i reads
// Base+i and the load cell counts up.
type Synthetic struct {
	Base  uint16
	Clock telemetry.Clock

	load uint8
}

// NewSynthetic creates a Synthetic source.
func NewSynthetic() *Synthetic {
	return &Synthetic{Clock: telemetry.MonotonicClock()}
}

// Sample implements Source.
func (s *Synthetic) Sample(context.Context) (telemetry.SensorSample, error) {
	var sample telemetry.SensorSample
	for i := range sample.PT {
		sample.PT[i] = s.Base + uint16(i)
	}
	sample.LoadCell = s.load
	s.load++
	if s.Clock != nil {
		sample.Timestamp = s.Clock()
	}
	return sample, nil
}
