package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/robotalks/teststand/pkg/radio"
)

// fakeTransport records sent payloads and replays queued packets.
type fakeTransport struct {
	lock    sync.Mutex
	sent    [][]byte
	packets chan *radio.Packet
	sendErr error
	lost    int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{packets: make(chan *radio.Packet, 16)}
}

func (f *fakeTransport) Send(ctx context.Context, payload []byte) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), payload...))
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context, timeout time.Duration) (*radio.Packet, error) {
	select {
	case pkt := <-f.packets:
		return pkt, nil
	case <-time.After(timeout):
		return nil, radio.ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeTransport) PacketsLost() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.lost
}

func (f *fakeTransport) Sent() [][]byte {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([][]byte(nil), f.sent...)
}
