package radio

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// Link turns a PacketReadWriter (a bench or emulated link) into a Transport
// with radio semantics: received packets are buffered in a small window and
// dropped, not queued, when the receiver falls behind.
type Link struct {
	// RSSI and SNR are reported with every packet.
	// Emulated links have no measurement of their own.
	RSSI int
	SNR  int

	rw       PacketReadWriter
	rxCh     chan []byte
	rxErr    error
	lost     int64
	start    sync.Once
	sendLock sync.Mutex
}

// DefaultRxWindow is the number of packets buffered by a Link.
const DefaultRxWindow = 4

// NewLink creates a Link over rw.
func NewLink(rw PacketReadWriter) *Link {
	return &Link{rw: rw, rxCh: make(chan []byte, DefaultRxWindow)}
}

// Send implements Transport.
func (l *Link) Send(ctx context.Context, payload []byte) error {
	if err := CheckPayload(payload); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	l.sendLock.Lock()
	defer l.sendLock.Unlock()
	return l.rw.WritePacket(payload)
}

// Receive implements Transport.
func (l *Link) Receive(ctx context.Context, timeout time.Duration) (*Packet, error) {
	l.start.Do(func() { go l.readLoop() })
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case data, ok := <-l.rxCh:
		if !ok {
			if l.rxErr != nil {
				return nil, l.rxErr
			}
			return nil, ErrClosed
		}
		return &Packet{Data: data, RSSI: l.RSSI, SNR: l.SNR}, nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// PacketsLost implements LossReporter. Losses reported by the underlying
// PacketReadWriter are included.
func (l *Link) PacketsLost() int {
	n := int(atomic.LoadInt64(&l.lost))
	if r, ok := l.rw.(LossReporter); ok {
		n += r.PacketsLost()
	}
	return n
}

// Close implements io.Closer.
func (l *Link) Close() error {
	if c, ok := l.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (l *Link) readLoop() {
	defer close(l.rxCh)
	for {
		pkt, err := l.rw.ReadPacket()
		if err != nil {
			if err != io.EOF {
				l.rxErr = err
			}
			return
		}
		if CheckPayload(pkt) != nil {
			glog.Warningf("radio link: dropped oversized packet (%d bytes)", len(pkt))
			atomic.AddInt64(&l.lost, 1)
			continue
		}
		select {
		case l.rxCh <- pkt:
		default:
			atomic.AddInt64(&l.lost, 1)
		}
	}
}
