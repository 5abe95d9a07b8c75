// Package stream carries radio payloads over a byte stream (TCP bench link
// or a serial-attached radio bridge).
package stream

import (
	"io"
	"net"
	"time"

	"github.com/robotalks/teststand/pkg/radio"
)

// ReadWriter implements radio.PacketReadWriter.
// Each packet is prefixed by a single byte giving its length, which is
// enough for radio.MaxPayloadSize.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// ReadPacket implements radio.PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size [1]byte
	if _, err := io.ReadFull(p, size[:]); err != nil {
		return nil, err
	}
	pkt := make([]byte, size[0])
	_, err := io.ReadFull(p, pkt)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return pkt, err
}

// WritePacket implements radio.PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if err := radio.CheckPayload(pkt); err != nil {
		return err
	}
	buf := make([]byte, len(pkt)+1)
	buf[0] = byte(len(pkt))
	copy(buf[1:], pkt)
	_, err := p.Write(buf)
	return err
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	if c, ok := p.ReadWriter.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// DialTimeout is the timeout connecting a TCP bench link.
const DialTimeout = 10 * time.Second

// Dial connects to a TCP bench link and returns the radio transport.
func Dial(addr string) (*radio.Link, error) {
	conn, err := net.DialTimeout("tcp", addr, DialTimeout)
	if err != nil {
		return nil, err
	}
	return radio.NewLink(New(conn)), nil
}

// Listen waits for the peer station to connect to addr.
func Listen(addr string) (*radio.Link, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	conn, err := ln.Accept()
	if err != nil {
		return nil, err
	}
	return radio.NewLink(New(conn)), nil
}
