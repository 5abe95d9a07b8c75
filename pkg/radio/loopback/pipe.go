// Package loopback provides an in-memory radio link for simulation and tests.
package loopback

import (
	"io"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/robotalks/teststand/pkg/radio"
)

// End is one end of an in-memory packet pipe.
// It implements radio.PacketReadWriter.
type End struct {
	// Drop decides whether an outgoing packet is lost on the air.
	Drop func(payload []byte) bool

	in   <-chan []byte
	out  chan<- []byte
	pipe *pipe
	// packets lost on the way in and on the way out.
	rxLost *int64
	txLost *int64
}

type pipe struct {
	done      chan struct{}
	closeOnce sync.Once
}

// AirBuffer is the number of packets in flight per direction.
// Packets sent while it is full are lost.
const AirBuffer = 16

// Pipe creates a connected pair of ends.
func Pipe() (*End, *End) {
	ab, ba := make(chan []byte, AirBuffer), make(chan []byte, AirBuffer)
	p := &pipe{done: make(chan struct{})}
	var abLost, baLost int64
	return &End{in: ba, out: ab, pipe: p, rxLost: &baLost, txLost: &abLost},
		&End{in: ab, out: ba, pipe: p, rxLost: &abLost, txLost: &baLost}
}

// ReadPacket implements radio.PacketReader.
func (e *End) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-e.in:
		return pkt, nil
	case <-e.pipe.done:
		return nil, io.EOF
	}
}

// WritePacket implements radio.PacketWriter.
func (e *End) WritePacket(pkt []byte) error {
	select {
	case <-e.pipe.done:
		return radio.ErrClosed
	default:
	}
	if fn := e.Drop; fn != nil && fn(pkt) {
		atomic.AddInt64(e.txLost, 1)
		return nil
	}
	cp := make([]byte, len(pkt))
	copy(cp, pkt)
	select {
	case e.out <- cp:
	default:
		atomic.AddInt64(e.txLost, 1)
	}
	return nil
}

// PacketsLost implements radio.LossReporter.
// It counts the packets sent by the other end which never arrived here.
func (e *End) PacketsLost() int {
	return int(atomic.LoadInt64(e.rxLost))
}

// Close closes both ends.
func (e *End) Close() error {
	e.pipe.closeOnce.Do(func() { close(e.pipe.done) })
	return nil
}

// Lossy returns a Drop func losing packets with the given probability.
func Lossy(rate float64, seed int64) func([]byte) bool {
	rng := rand.New(rand.NewSource(seed))
	var lock sync.Mutex
	return func([]byte) bool {
		lock.Lock()
		defer lock.Unlock()
		return rng.Float64() < rate
	}
}

// NewTransports creates two radio links connected to each other.
func NewTransports() (*radio.Link, *radio.Link) {
	a, b := Pipe()
	return radio.NewLink(a), radio.NewLink(b)
}

var (
	named     = make(map[string]*End)
	namedLock sync.Mutex
)

// Dial returns an end of the pipe with the given name.
// The first call creates the pipe, the second call gets the other end.
func Dial(name string) *End {
	namedLock.Lock()
	defer namedLock.Unlock()
	if e, ok := named[name]; ok {
		delete(named, name)
		return e
	}
	a, b := Pipe()
	named[name] = b
	return a
}
