package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/teststand/pkg/metrics"
	"github.com/robotalks/teststand/pkg/queue"
	"github.com/robotalks/teststand/pkg/radio"
)

func decodeAll(t *testing.T, payloads [][]byte) (samples []SensorSample) {
	for _, p := range payloads {
		require.LessOrEqual(t, len(p), radio.MaxPayloadSize)
		batch, err := DecodeBatch(p)
		require.NoError(t, err)
		require.NotZero(t, batch.Len())
		require.LessOrEqual(t, batch.Len(), MaxSamplesPerBatch)
		samples = append(samples, batch.Samples...)
	}
	return
}

func countSamples(payloads [][]byte) (n int) {
	for _, p := range payloads {
		if len(p) > 0 {
			n += int(p[0])
		}
	}
	return
}

func TestBatcherOverflow(t *testing.T) {
	const total = 100
	in := queue.New[SensorSample]("sensor", 2*MaxSamplesPerBatch, queue.Block)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	samples := makeSamples(total, 0)
	go func() {
		for _, s := range samples {
			if in.Put(ctx, s) != nil {
				return
			}
		}
	}()
	// the producer runs ahead of the batcher.
	require.Eventually(t, func() bool {
		return in.Len() == in.Cap()
	}, time.Second, time.Millisecond)

	tr := newFakeTransport()
	m := metrics.NewUnregistered()
	b := &Batcher{In: in, Transport: tr, Clock: func() uint32 { return 42 }, Metrics: m}
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool {
		return countSamples(tr.Sent()) == total
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	sent := tr.Sent()
	assert.Equal(t, samples, decodeAll(t, sent))
	// 100 samples need at least ceil(100/14) packets.
	assert.GreaterOrEqual(t, len(sent), (total+MaxSamplesPerBatch-1)/MaxSamplesPerBatch)
	require.NotEmpty(t, sent)
	assert.Equal(t, byte(MaxSamplesPerBatch), sent[0][0])
	assert.Len(t, sent[0], HeaderSize+MaxSamplesPerBatch*SampleSize)
	assert.Equal(t, float64(total), testutil.ToFloat64(m.SamplesBatched))
	assert.Equal(t, float64(len(sent)), testutil.ToFloat64(m.BatchesSent))
}

func TestBatcherFullBatch(t *testing.T) {
	in := queue.New[SensorSample]("sensor", 32, queue.Block)
	ctx := context.Background()
	for _, s := range makeSamples(MaxSamplesPerBatch+3, 0) {
		require.NoError(t, in.Put(ctx, s))
	}
	b := &Batcher{In: in, ItemTimeout: time.Millisecond}
	batch, err := b.collect(ctx, 9, b.ItemTimeout)
	require.NoError(t, err)
	assert.True(t, batch.Full())
	assert.Equal(t, uint32(9), batch.Timestamp)
	assert.Equal(t, 3, in.Len())

	batch, err = b.collect(ctx, 10, b.ItemTimeout)
	require.NoError(t, err)
	assert.Equal(t, 3, batch.Len())
}

func TestBatcherSkipsEmpty(t *testing.T) {
	in := queue.New[SensorSample]("sensor", 4, queue.Block)
	tr := newFakeTransport()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	b := &Batcher{In: in, Transport: tr, ItemTimeout: 5 * time.Millisecond}
	assert.ErrorIs(t, b.Run(ctx), context.DeadlineExceeded)
	assert.Empty(t, tr.Sent())
}

func TestBatcherSendFailure(t *testing.T) {
	in := queue.New[SensorSample]("sensor", 4, queue.Block)
	ctx := context.Background()
	require.NoError(t, in.Put(ctx, makeSamples(1, 0)[0]))
	tr := newFakeTransport()
	tr.sendErr = errors.New("tx failed")
	m := metrics.NewUnregistered()

	b := &Batcher{In: in, Transport: tr, Metrics: m}
	batch, err := b.collect(ctx, 0, time.Millisecond)
	require.NoError(t, err)
	send(ctx, tr, batch, m)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SendFailures))
	assert.Zero(t, testutil.ToFloat64(m.BatchesSent))
	assert.Zero(t, in.Len())
}
