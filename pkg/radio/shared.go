package radio

import (
	"context"
	"io"
	"sync"
	"time"
)

// Shared serializes all access to a Transport used by more than one task.
// Receive holds the transport for at most its timeout, so a sender waits
// no longer than that.
type Shared struct {
	transport Transport
	lock      sync.Mutex
}

// NewShared wraps t.
func NewShared(t Transport) *Shared {
	return &Shared{transport: t}
}

// Send implements Transport.
func (s *Shared) Send(ctx context.Context, payload []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.transport.Send(ctx, payload)
}

// Receive implements Transport.
func (s *Shared) Receive(ctx context.Context, timeout time.Duration) (*Packet, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.transport.Receive(ctx, timeout)
}

// PacketsLost implements LossReporter.
func (s *Shared) PacketsLost() int {
	n, _ := PacketsLost(s.transport)
	return n
}

// Close implements io.Closer.
func (s *Shared) Close() error {
	if c, ok := s.transport.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
