package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/teststand/pkg/metrics"
	"github.com/robotalks/teststand/pkg/radio"
)

// SampleSink accepts decoded samples.
type SampleSink interface {
	Put(context.Context, SensorSample) error
}

// SampleSinkFunc is the func form of SampleSink.
type SampleSinkFunc func(context.Context, SensorSample) error

// Put implements SampleSink.
func (f SampleSinkFunc) Put(ctx context.Context, s SensorSample) error {
	return f(ctx, s)
}

// DefaultReceiveTimeout bounds a single radio receive.
const DefaultReceiveTimeout = 100 * time.Millisecond

// Receiver decodes telemetry packets and forwards the samples in order.
type Receiver struct {
	Transport radio.Transport
	Sink      SampleSink
	Timeout   time.Duration
	Metrics   *metrics.Metrics
}

// Run implements framework.Runnable.
func (r *Receiver) Run(ctx context.Context) error {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultReceiveTimeout
	}
	for {
		pkt, err := r.Transport.Receive(ctx, timeout)
		if errors.Is(err, radio.ErrTimeout) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err = r.HandlePacket(ctx, pkt); err != nil {
			return err
		}
	}
}

// HandlePacket decodes one packet and forwards its samples.
// A malformed packet is dropped whole.
func (r *Receiver) HandlePacket(ctx context.Context, pkt *radio.Packet) error {
	r.Metrics.Received(pkt.RSSI, pkt.SNR)
	if n, ok := radio.PacketsLost(r.Transport); ok {
		r.Metrics.Lost(n)
	}
	glog.V(2).Infof("telemetry packet %d bytes, RSSI %d dBm, SNR %d dB", len(pkt.Data), pkt.RSSI, pkt.SNR)
	batch, err := DecodeBatch(pkt.Data)
	if err != nil {
		glog.Warningf("telemetry: %v", err)
		r.Metrics.SizeMismatch()
		return nil
	}
	for _, s := range batch.Samples {
		if err := r.Sink.Put(ctx, s); err != nil {
			return err
		}
		r.Metrics.Forwarded()
	}
	return nil
}
