package station

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/teststand/pkg/command"
	"github.com/robotalks/teststand/pkg/metrics"
	"github.com/robotalks/teststand/pkg/queue"
	"github.com/robotalks/teststand/pkg/radio"
)

// CommandSender sends commands from In over the radio, one packet each.
// A failed send is logged and counted; the command is not retried.
type CommandSender struct {
	In        *queue.Queue[command.Command]
	Transport radio.Transport
	Metrics   *metrics.Metrics
}

// Run implements framework.Runnable.
func (s *CommandSender) Run(ctx context.Context) error {
	for {
		cmd, err := s.In.Get(ctx)
		if err != nil {
			return err
		}
		err = s.Transport.Send(ctx, cmd.Bytes())
		s.Metrics.Sent(err)
		if err != nil {
			glog.Errorf("send %s: %v", cmd, err)
			continue
		}
		glog.V(1).Infof("sent %s", cmd)
	}
}

// CommandReceiver receives commands from the radio into Out.
type CommandReceiver struct {
	Transport radio.Transport
	Out       *queue.Queue[command.Command]
	Timeout   time.Duration
	Metrics   *metrics.Metrics
}

// Run implements framework.Runnable.
func (r *CommandReceiver) Run(ctx context.Context) error {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
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
		r.Metrics.Received(pkt.RSSI, pkt.SNR)
		if n, ok := radio.PacketsLost(r.Transport); ok {
			r.Metrics.Lost(n)
		}
		cmd, err := command.Decode(pkt.Data)
		if err != nil {
			glog.Warningf("radio command: %v", err)
			r.Metrics.DecodeError()
			continue
		}
		glog.V(1).Infof("received %s, RSSI %d dBm, SNR %d dB", cmd, pkt.RSSI, pkt.SNR)
		if err = r.Out.Put(ctx, cmd); err != nil {
			return err
		}
	}
}
