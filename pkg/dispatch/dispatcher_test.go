package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/teststand/pkg/actuator"
	"github.com/robotalks/teststand/pkg/command"
	"github.com/robotalks/teststand/pkg/metrics"
	"github.com/robotalks/teststand/pkg/queue"
)

// recorder records actuator calls.
type recorder struct {
	lock   sync.Mutex
	calls  []string
	ignite chan struct{}
}

func (r *recorder) record(format string, args ...interface{}) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	return nil
}

func (r *recorder) Calls() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) Open(v int) error { return r.record("open %d", v) }
func (r *recorder) Close(v int) error { return r.record("close %d", v) }
func (r *recorder) SetPosition(v int, p uint8) error { return r.record("set %d %d", v, p) }
func (r *recorder) OpenAll() error { return r.record("open all") }
func (r *recorder) CloseAll() error { return r.record("close all") }
func (r *recorder) SetPositionAll(p uint8) error { return r.record("set all %d", p) }
func (r *recorder) Ignite(ctx context.Context) error {
	r.record("ignite")
	if r.ignite != nil {
		select {
		case <-r.ignite:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

var _ actuator.Actuator = &recorder{}

func TestDispatch(t *testing.T) {
	testCases := []struct {
		name  string
		cmd   command.Command
		calls []string
	}{
		{"open", command.Servo(command.ServoOpen, 2), []string{"open 2"}},
		{"close", command.Servo(command.ServoClose, 0), []string{"close 0"}},
		{"set", command.Servo(command.ServoSetPosition, 1, 40), []string{"set 1 40"}},
		{"set clamped", command.Servo(command.ServoSetPosition, 1, 250), []string{"set 1 100"}},
		{"open all", command.Servo(command.ServoOpen, command.ParamAll), []string{"open all"}},
		{"close all", command.Servo(command.ServoClose, command.ParamAll), []string{"close all"}},
		{"set all", command.Servo(command.ServoSetPosition, command.ParamAll, 75), []string{"set all 75"}},
		{"ignite", command.Ignite(), []string{"ignite"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := &recorder{}
			d := &Dispatcher{Actuator: r}
			require.NoError(t, d.Dispatch(context.Background(), tc.cmd))
			d.Wait()
			assert.Equal(t, tc.calls, r.Calls())
		})
	}
}

func TestDispatchUnknown(t *testing.T) {
	m := metrics.NewUnregistered()
	r := &recorder{}
	d := &Dispatcher{Actuator: r, Metrics: m}
	for _, cmd := range []command.Command{
		{Target: command.TargetServo, Type: 0x07},
		{Target: command.TargetIgniter, Type: 0x01},
		{Target: 0x09, Type: command.ServoOpen},
	} {
		err := d.Dispatch(context.Background(), cmd)
		assert.ErrorIs(t, err, ErrUnknownCommand)
	}
	assert.Empty(t, r.Calls())
	assert.Equal(t, float64(3), testutil.ToFloat64(m.UnknownCommands))
}

func TestDispatchEndToEndBytes(t *testing.T) {
	cmd, err := command.Decode([]byte{0x00, 0x01, 0xFF, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	r := &recorder{}
	d := &Dispatcher{Actuator: r}
	require.NoError(t, d.Dispatch(context.Background(), cmd))
	assert.Equal(t, []string{"open all"}, r.Calls())
}

func TestRunInOrder(t *testing.T) {
	in := queue.New[command.Command]("command", 8, queue.Block)
	r := &recorder{}
	m := metrics.NewUnregistered()
	d := &Dispatcher{In: in, Actuator: r, Metrics: m}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.NoError(t, in.Put(ctx, command.Servo(command.ServoOpen, 0)))
	require.NoError(t, in.Put(ctx, command.Servo(command.ServoClose, 1)))
	require.NoError(t, in.Put(ctx, command.Command{Target: 0x05}))
	require.NoError(t, in.Put(ctx, command.Servo(command.ServoOpen, command.ParamAll)))
	require.Eventually(t, func() bool { return len(r.Calls()) == 3 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, []string{"open 0", "close 1", "open all"}, r.Calls())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CommandsDispatched.WithLabelValues("servo", "open")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UnknownCommands))
}

func TestRunDrainsOnStop(t *testing.T) {
	in := queue.New[command.Command]("command", 8, queue.Block)
	ctx, cancel := context.WithCancel(context.Background())
	for _, cmd := range []command.Command{
		command.Servo(command.ServoClose, command.ParamAll),
		command.Ignite(),
		command.Servo(command.ServoSetPosition, 3, 10),
	} {
		require.NoError(t, in.Put(ctx, cmd))
	}
	cancel()
	r := &recorder{}
	d := &Dispatcher{In: in, Actuator: r}
	assert.ErrorIs(t, d.Run(ctx), context.Canceled)
	assert.Equal(t, []string{"close all", "set 3 10"}, r.Calls())
	assert.Zero(t, in.Len())
}

func TestIgnitionDoesNotBlockValves(t *testing.T) {
	in := queue.New[command.Command]("command", 8, queue.Block)
	r := &recorder{ignite: make(chan struct{})}
	d := &Dispatcher{In: in, Actuator: r}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.NoError(t, in.Put(ctx, command.Ignite()))
	require.NoError(t, in.Put(ctx, command.Servo(command.ServoClose, command.ParamAll)))
	require.Eventually(t, func() bool { return len(r.Calls()) == 2 }, time.Second, time.Millisecond)
	assert.ElementsMatch(t, []string{"ignite", "close all"}, r.Calls())

	// Run waits for the ignition which ends on cancel.
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
