// Package bridge relays the telemetry received by the Home station to an
// MQTT broker.
package bridge

import (
	"context"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/teststand/pkg/bridge/msgs"
	"github.com/robotalks/teststand/pkg/metrics"
	"github.com/robotalks/teststand/pkg/mqtt"
	"github.com/robotalks/teststand/pkg/telemetry"
)

// Topic suffixes under <prefix><station>/.
const (
	TopicTelemetry = "telemetry"
	TopicStatus    = "status"
)

// Publisher publishes samples and link status of a station.
type Publisher struct {
	Queue          *mqtt.Queue
	Station        string
	Metrics        *metrics.Metrics
	StatusInterval time.Duration

	pub func(topic string, payload []byte) paho.Token
}

// DefaultStatusInterval is the period of link status messages.
const DefaultStatusInterval = 5 * time.Second

// NewPublisher creates a Publisher connected to brokerURL.
func NewPublisher(brokerURL, station string, m *metrics.Metrics) (*Publisher, error) {
	opts, prefix, err := mqtt.ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(prefix+station+"/"+TopicStatus, nil, 1, true)
	return &Publisher{
		Queue:          mqtt.NewQueue(opts, prefix),
		Station:        station,
		Metrics:        m,
		StatusInterval: DefaultStatusInterval,
	}, nil
}

func (p *Publisher) topic(suffix string) string {
	return p.Station + "/" + suffix
}

func (p *Publisher) publish(topic string, msg msgs.Message) error {
	data, err := msgs.Encode(msg)
	if err != nil {
		return err
	}
	if p.pub != nil {
		p.pub(topic, data)
		return nil
	}
	p.Queue.Pub(topic, data)
	return nil
}

// Put implements telemetry.SampleSink. It never waits for the broker.
func (p *Publisher) Put(_ context.Context, s telemetry.SensorSample) error {
	msg := &msgs.Sample{
		Station:   p.Station,
		Pt:        make([]uint32, len(s.PT)),
		LoadCell:  uint32(s.LoadCell),
		Timestamp: s.Timestamp,
	}
	for i, v := range s.PT {
		msg.Pt[i] = uint32(v)
	}
	if err := p.publish(p.topic(TopicTelemetry), msg); err != nil {
		glog.Warningf("bridge sample: %v", err)
	}
	return nil
}

// Status builds the current link status.
func (p *Publisher) Status() *msgs.LinkStatus {
	st := p.Metrics.Link()
	return &msgs.LinkStatus{
		Station:          p.Station,
		PacketsReceived:  st.PacketsReceived,
		PacketsLost:      st.PacketsLost,
		SamplesForwarded: st.SamplesForwarded,
		SizeMismatches:   st.SizeMismatches,
		Rssi:             int32(st.RSSI),
		Snr:              int32(st.SNR),
	}
}

// Run implements framework.Runnable. It connects and publishes the link
// status periodically.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.Queue.Connect(ctx); err != nil {
		return err
	}
	defer p.Queue.Close()
	glog.Infof("bridge publishing to %s%s/", p.Queue.TopicPrefix, p.Station)

	interval := p.StatusInterval
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := p.publish(p.topic(TopicStatus), p.Status()); err != nil {
				glog.Warningf("bridge status: %v", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
