package station

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/teststand/pkg/actuator"
	"github.com/robotalks/teststand/pkg/command"
	"github.com/robotalks/teststand/pkg/config"
	"github.com/robotalks/teststand/pkg/framing"
	"github.com/robotalks/teststand/pkg/metrics"
	"github.com/robotalks/teststand/pkg/radio/loopback"
	"github.com/robotalks/teststand/pkg/sampler"
	"github.com/robotalks/teststand/pkg/telemetry"
)

type console struct {
	*io.PipeReader

	lock sync.Mutex
	out  bytes.Buffer
}

func (c *console) Write(p []byte) (int, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.out.Write(p)
}

func (c *console) Output() []byte {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]byte(nil), c.out.Bytes()...)
}

func samplesIn(data []byte) (samples []telemetry.SensorSample) {
	p := framing.NewParser(telemetry.SampleSize)
	for _, b := range data {
		if pr := p.Parse(b); pr.Frame != nil {
			if s, err := telemetry.DecodeSample(pr.Frame); err == nil {
				samples = append(samples, s)
			}
		}
	}
	return
}

func TestHomeAway(t *testing.T) {
	conf := config.Default()
	conf.StationID = "bench"
	conf.Sampler.RateHz = 200
	conf.Igniter.Pulse = 10 * time.Millisecond

	homeLink, awayLink := loopback.NewTransports()
	pr, pw := io.Pipe()
	con := &console{PipeReader: pr}

	valves := make([]*actuator.LogServo, len(conf.Valves))
	stand := actuator.NewStand(conf.Valves, func(i int, c actuator.ValveConfig) actuator.Servo {
		valves[i] = &actuator.LogServo{Name: c.Name}
		return valves[i]
	}, nil)

	home := &Station{Role: Home, Config: conf, Metrics: metrics.NewUnregistered(), Radio: homeLink, Console: con}
	away := &Station{Role: Away, Config: conf, Metrics: metrics.NewUnregistered(), Radio: awayLink,
		Actuator: stand, Source: sampler.NewSynthetic()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	results := make(chan error, 2)
	go func() { results <- home.Run(ctx) }()
	go func() { results <- away.Run(ctx) }()

	// open all valves from the console
	go pw.Write([]byte{0xFF, 0x00, 0x01, 0xFF, 0x00, 0x00, 0x00, 0xFE})
	require.Eventually(t, func() bool {
		for _, v := range valves {
			if _, ok := v.Angle(); !ok {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)
	for i, v := range valves {
		angle, _ := v.Angle()
		assert.Equal(t, conf.Valves[i].OpenAngle, angle)
	}

	require.Eventually(t, func() bool {
		return len(samplesIn(con.Output())) >= 10
	}, 5*time.Second, 10*time.Millisecond)
	for _, s := range samplesIn(con.Output()) {
		assert.Equal(t, [telemetry.NumPT]uint16{0, 1, 2, 3, 4, 5}, s.PT)
	}

	cancel()
	pw.Close()
	for i := 0; i < 2; i++ {
		select {
		case err := <-results:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("station did not stop")
		}
	}
	assert.Positive(t, home.Metrics.Link().SamplesForwarded)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("home")
	require.NoError(t, err)
	assert.Equal(t, Home, r)
	r, err = ParseRole("away")
	require.NoError(t, err)
	assert.Equal(t, "away", r.String())
	_, err = ParseRole("pad")
	assert.Error(t, err)
}

func TestOpenRadio(t *testing.T) {
	ctx := context.Background()
	home, err := OpenRadio(ctx, "loop://bench", Home)
	require.NoError(t, err)
	defer home.Close()
	away, err := OpenRadio(ctx, "loop://bench", Away)
	require.NoError(t, err)
	defer away.Close()

	require.NoError(t, home.Send(ctx, command.Ignite().Bytes()))
	pkt, err := away.Receive(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, command.Ignite().Bytes(), pkt.Data)

	_, err = OpenRadio(ctx, "lora://spi0", Home)
	assert.Error(t, err)
}
