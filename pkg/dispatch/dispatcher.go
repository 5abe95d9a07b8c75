// Package dispatch executes received commands on the actuators.
package dispatch

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/teststand/pkg/actuator"
	"github.com/robotalks/teststand/pkg/command"
	"github.com/robotalks/teststand/pkg/metrics"
	"github.com/robotalks/teststand/pkg/queue"
)

// MaxPercent is the upper bound of a valve position.
const MaxPercent = 100

type key struct {
	target command.Target
	typ    command.Type
}

type handler func(d *Dispatcher, ctx context.Context, cmd command.Command) error

var table = map[key]handler{
	{command.TargetServo, command.ServoOpen}:        (*Dispatcher).servoOpen,
	{command.TargetServo, command.ServoClose}:       (*Dispatcher).servoClose,
	{command.TargetServo, command.ServoSetPosition}: (*Dispatcher).servoSetPosition,
	{command.TargetIgniter, command.IgniterStart}:   (*Dispatcher).ignite,
}

// Dispatcher consumes commands from In and executes them one at a time.
// Actuation order is start order, not completion order: an ignition pulse
// runs in the background while the commands after it are executed.
type Dispatcher struct {
	In       *queue.Queue[command.Command]
	Actuator actuator.Actuator
	Metrics  *metrics.Metrics

	ignitions sync.WaitGroup
}

// Run implements framework.Runnable. When ctx is done, the commands
// already queued are executed before Run returns, except ignition.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.ignitions.Wait()
	for {
		cmd, err := d.In.Get(ctx)
		if err != nil {
			d.drain()
			return err
		}
		d.execute(ctx, cmd)
	}
}

func (d *Dispatcher) drain() {
	for {
		cmd, ok := d.In.TryGet()
		if !ok {
			return
		}
		if cmd.Target == command.TargetIgniter {
			glog.Warningf("dispatch: stopping, skipped %s", cmd)
			continue
		}
		d.execute(context.Background(), cmd)
	}
}

func (d *Dispatcher) execute(ctx context.Context, cmd command.Command) {
	if err := d.Dispatch(ctx, cmd); err != nil {
		glog.Warningf("dispatch %s: %v", cmd, err)
	}
}

// Dispatch executes a single command. Unknown commands are no-ops
// reported as ErrUnknownCommand.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd command.Command) error {
	h, ok := table[key{cmd.Target, cmd.Type}]
	if !ok {
		d.Metrics.UnknownCommand()
		return &UnknownCommandError{Command: cmd}
	}
	glog.V(1).Infof("dispatch %s", cmd)
	d.Metrics.Dispatched(cmd.Target.String(), cmd.TypeName())
	return h(d, ctx, cmd)
}

func (d *Dispatcher) servoOpen(_ context.Context, cmd command.Command) error {
	if cmd.IsAll() {
		return d.Actuator.OpenAll()
	}
	return d.Actuator.Open(int(cmd.Params[0]))
}

func (d *Dispatcher) servoClose(_ context.Context, cmd command.Command) error {
	if cmd.IsAll() {
		return d.Actuator.CloseAll()
	}
	return d.Actuator.Close(int(cmd.Params[0]))
}

func (d *Dispatcher) servoSetPosition(_ context.Context, cmd command.Command) error {
	pct := cmd.Params[1]
	if pct > MaxPercent {
		pct = MaxPercent
	}
	if cmd.IsAll() {
		return d.Actuator.SetPositionAll(pct)
	}
	return d.Actuator.SetPosition(int(cmd.Params[0]), pct)
}

// ignite pulses the igniter in the background so valve commands, for
// example an abort, are not held up by the pulse.
func (d *Dispatcher) ignite(ctx context.Context, _ command.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.ignitions.Add(1)
	go func() {
		defer d.ignitions.Done()
		if err := d.Actuator.Ignite(ctx); err != nil {
			glog.Errorf("ignition: %v", err)
		}
	}()
	return nil
}

// Wait waits for ignitions in progress.
func (d *Dispatcher) Wait() {
	d.ignitions.Wait()
}
