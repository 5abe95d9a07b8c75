// Package mqtt emulates the radio link over an MQTT broker.
package mqtt

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/robotalks/teststand/pkg/mqtt"
	"github.com/robotalks/teststand/pkg/radio"
)

// Topics used by the link, relative to the queue's topic prefix.
const (
	// TopicUplink carries commands from Home to Away.
	TopicUplink = "link/cmd"
	// TopicDownlink carries telemetry from Away to Home.
	TopicDownlink = "link/tlm"
)

// ReadWriter implements radio.PacketReadWriter.
type ReadWriter struct {
	Queue    *mqtt.Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
	sub      *mqtt.Subscription
	closing  chan struct{}
	once     sync.Once
	lost     int64
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *mqtt.Queue, sub, pub string) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		SubTopic: sub,
		PubTopic: pub,
		packetCh: make(chan []byte, radio.DefaultRxWindow),
		closing:  make(chan struct{}),
	}
}

// ForHome subscribes the downlink and publishes the uplink.
func ForHome(q *mqtt.Queue) *ReadWriter {
	return NewPacketReadWriter(q, TopicDownlink, TopicUplink)
}

// ForAway subscribes the uplink and publishes the downlink.
func ForAway(q *mqtt.Queue) *ReadWriter {
	return NewPacketReadWriter(q, TopicUplink, TopicDownlink)
}

// Open subscribes SubTopic.
func (p *ReadWriter) Open(ctx context.Context) error {
	p.sub = p.Queue.Sub(p.SubTopic, p.handleMsg)
	return mqtt.Wait(ctx, p.sub.Token)
}

// ReadPacket implements radio.PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.closing:
		return nil, io.EOF
	}
}

// WritePacket implements radio.PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if err := radio.CheckPayload(pkt); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), mqtt.DefaultPublishTimeout)
	defer cancel()
	return mqtt.Wait(ctx, p.Queue.Pub(p.PubTopic, pkt))
}

// Close unsubscribes and disconnects the queue.
func (p *ReadWriter) Close() (err error) {
	p.once.Do(func() {
		close(p.closing)
		if p.sub != nil {
			err = p.sub.Close()
		}
		p.Queue.Close()
	})
	return
}

// handleMsg never blocks the MQTT client. Packets arriving while the
// window is full are lost like they would be over the air.
func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	pkt := append([]byte(nil), payload...)
	select {
	case p.packetCh <- pkt:
	default:
		atomic.AddInt64(&p.lost, 1)
	}
}

// PacketsLost implements radio.LossReporter.
func (p *ReadWriter) PacketsLost() int {
	return int(atomic.LoadInt64(&p.lost))
}

// Dial connects to the broker at brokerURL and opens the link with the
// topics of the Home station if home is set, the Away station otherwise.
func Dial(ctx context.Context, brokerURL string, home bool) (*radio.Link, error) {
	q, err := mqtt.NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if err = q.Connect(ctx); err != nil {
		return nil, err
	}
	rw := ForAway(q)
	if home {
		rw = ForHome(q)
	}
	if err = rw.Open(ctx); err != nil {
		rw.Close()
		return nil, err
	}
	return radio.NewLink(rw), nil
}
