package station

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/teststand/pkg/framing"
	"github.com/robotalks/teststand/pkg/queue"
	"github.com/robotalks/teststand/pkg/telemetry"
)

// Forwarder writes every received sample to the console as a frame
// SOP | sample | EOP and optionally copies it to Bridge.
type Forwarder struct {
	In      *queue.Queue[telemetry.SensorSample]
	Console *framing.Writer
	Bridge  telemetry.SampleSink
}

// Run implements framework.Runnable.
func (f *Forwarder) Run(ctx context.Context) error {
	for {
		s, err := f.In.Get(ctx)
		if err != nil {
			return err
		}
		if f.Console != nil {
			if err = f.Console.WriteFrame(telemetry.EncodeSample(s)); err != nil {
				return err
			}
		}
		if f.Bridge != nil {
			if err = f.Bridge.Put(ctx, s); err != nil {
				glog.Warningf("bridge: %v", err)
			}
		}
	}
}
