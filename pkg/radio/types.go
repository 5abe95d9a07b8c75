// Package radio defines the datagram transport between the two stations.
package radio

// The radio is an unreliable, at-most-once datagram transport with a hard
// payload limit. A payload is received whole or not at all. There are no
// acknowledgements and no retransmissions; users must not assume delivery.

import (
	"context"
	"time"
)

// MaxPayloadSize is the largest payload a single send can carry.
const MaxPayloadSize = 255

// Packet is a received payload with its link quality.
type Packet struct {
	Data []byte
	RSSI int // dBm
	SNR  int // dB
}

// Transport sends and receives payloads.
type Transport interface {
	// Send transmits one payload, blocking for the duration of the
	// transmission. A returned error is final: nothing is retried.
	Send(ctx context.Context, payload []byte) error
	// Receive waits at most timeout for a packet.
	// It returns ErrTimeout if nothing arrived.
	Receive(ctx context.Context, timeout time.Duration) (*Packet, error)
}

// LossReporter is optionally implemented by transports which can tell
// how many packets were lost.
type LossReporter interface {
	PacketsLost() int
}

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// CheckPayload validates the payload size.
func CheckPayload(payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return &PayloadSizeError{Size: len(payload)}
	}
	return nil
}

// PacketsLost gets the lost packet count if t reports it.
func PacketsLost(t Transport) (int, bool) {
	if r, ok := t.(LossReporter); ok {
		return r.PacketsLost(), true
	}
	return 0, false
}
