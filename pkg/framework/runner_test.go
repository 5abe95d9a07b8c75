package framework

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitCtx(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerStop(t *testing.T) {
	r := NewRunner()
	r.Go(RunFunc(waitCtx), NamedRun("named", RunFunc(waitCtx)))
	time.AfterFunc(10*time.Millisecond, r.Stop)
	assert.NoError(t, r.Wait())
}

func TestRunnerFailureStopsOthers(t *testing.T) {
	failure := errors.New("serial port gone")
	r := NewRunner()
	r.Go(
		NamedRun("reader", RunFunc(func(context.Context) error { return failure })),
		NamedRun("sender", RunFunc(waitCtx)),
	)
	err := r.Wait()
	require.Error(t, err)
	var agg *AggregatedError
	require.ErrorAs(t, err, &agg)
	assert.Equal(t, []error{failure}, agg.Errors)
	assert.Contains(t, err.Error(), "serial port gone")
}

func TestRunnerParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx)
	r.Go(RunFunc(waitCtx))
	cancel()
	assert.NoError(t, r.Wait())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	assert.NoError(t, errs.Add(nil, nil).Aggregate())
	errs.Add(errors.New("a"), nil, errors.New("b"))
	assert.Equal(t, "Multiple errors:\na\nb", errs.Aggregate().Error())
}

type closer struct{ closed int32 }

func (c *closer) Close() error {
	atomic.AddInt32(&c.closed, 1)
	return nil
}

func TestRunWithContextCloser(t *testing.T) {
	c := &closer{}
	unblock := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	err := RunWithContextCloser(ctx, closerFunc(func() error {
		c.Close()
		close(unblock)
		return nil
	}), func() error {
		<-unblock
		return errors.New("closed")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&c.closed))

	c = &closer{}
	err = RunWithContextCloser(context.Background(), c, func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&c.closed))
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
