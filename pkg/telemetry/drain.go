package telemetry

import (
	"context"
	"time"

	"github.com/robotalks/teststand/pkg/metrics"
	"github.com/robotalks/teststand/pkg/queue"
	"github.com/robotalks/teststand/pkg/radio"
)

// Defaults of the single-sample drain mode.
const (
	DefaultMaxDrainPerCycle = 20
	DefaultInterPacketDelay = 50 * time.Millisecond
	DefaultCycleInterval    = 100 * time.Millisecond
)

// Drainer sends every sample as its own single-sample batch, at most
// MaxPerCycle samples per cycle with InterPacketDelay between packets.
type Drainer struct {
	In               *queue.Queue[SensorSample]
	Transport        radio.Transport
	Clock            Clock
	Metrics          *metrics.Metrics
	MaxPerCycle      int
	InterPacketDelay time.Duration
	CycleInterval    time.Duration
}

// Run implements framework.Runnable.
func (d *Drainer) Run(ctx context.Context) error {
	interval := d.CycleInterval
	if interval <= 0 {
		interval = DefaultCycleInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := d.Drain(ctx); err != nil {
			return err
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Drain runs one cycle and returns the number of samples sent. It stops
// when the queue is empty or the per cycle cap is reached.
func (d *Drainer) Drain(ctx context.Context) (int, error) {
	limit := d.MaxPerCycle
	if limit <= 0 {
		limit = DefaultMaxDrainPerCycle
	}
	delay := d.InterPacketDelay
	if delay <= 0 {
		delay = DefaultInterPacketDelay
	}
	clock := d.Clock
	if clock == nil {
		clock = MonotonicClock()
		d.Clock = clock
	}
	var sent int
	for sent < limit {
		s, ok := d.In.TryGet()
		if !ok {
			break
		}
		if sent > 0 {
			if err := sleep(ctx, delay); err != nil {
				return sent, err
			}
		}
		send(ctx, d.Transport, Batch{Timestamp: clock(), Samples: []SensorSample{s}}, d.Metrics)
		sent++
	}
	return sent, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
