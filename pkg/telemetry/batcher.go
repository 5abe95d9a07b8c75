package telemetry

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/teststand/pkg/metrics"
	"github.com/robotalks/teststand/pkg/queue"
	"github.com/robotalks/teststand/pkg/radio"
)

// DefaultItemTimeout is how long the batcher waits for the next sample
// before sending what it has.
const DefaultItemTimeout = 20 * time.Millisecond

// Batcher packs samples from In into batches and sends each batch as one
// radio packet.
type Batcher struct {
	In          *queue.Queue[SensorSample]
	Transport   radio.Transport
	ItemTimeout time.Duration
	Clock       Clock
	Metrics     *metrics.Metrics
}

// Run implements framework.Runnable.
func (b *Batcher) Run(ctx context.Context) error {
	timeout := b.ItemTimeout
	if timeout <= 0 {
		timeout = DefaultItemTimeout
	}
	clock := b.Clock
	if clock == nil {
		clock = MonotonicClock()
	}
	for {
		batch, err := b.collect(ctx, clock(), timeout)
		if err != nil {
			return err
		}
		if batch.Len() > 0 {
			send(ctx, b.Transport, batch, b.Metrics)
		}
	}
}

// collect fills a batch until it's full or no sample arrives in time.
func (b *Batcher) collect(ctx context.Context, ts uint32, timeout time.Duration) (Batch, error) {
	batch := Batch{Timestamp: ts, Samples: make([]SensorSample, 0, MaxSamplesPerBatch)}
	for !batch.Full() {
		s, ok, err := b.In.GetTimeout(ctx, timeout)
		if err != nil {
			return batch, err
		}
		if !ok {
			break
		}
		batch.Samples = append(batch.Samples, s)
	}
	return batch, nil
}

// send encodes and sends a batch. Failures are logged and counted, never
// retried.
func send(ctx context.Context, t radio.Transport, batch Batch, m *metrics.Metrics) {
	payload, err := EncodeBatch(batch)
	if err != nil {
		glog.Errorf("telemetry encode: %v", err)
		return
	}
	err = t.Send(ctx, payload)
	m.Sent(err)
	if err != nil {
		glog.Errorf("telemetry send %d samples: %v", batch.Len(), err)
		return
	}
	m.Batched(batch.Len())
	glog.V(2).Infof("telemetry sent %d samples, %d bytes", batch.Len(), len(payload))
}
