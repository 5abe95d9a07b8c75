// Package websocket carries radio payloads as binary websocket messages.
package websocket

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/robotalks/teststand/pkg/radio"
)

// ReadWriter implements radio.PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// ReadPacket implements radio.PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements radio.PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if err := radio.CheckPayload(pkt); err != nil {
		return err
	}
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

// Dial connects to a station serving the link at url (ws://host:port/path).
func Dial(url string) (*radio.Link, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	return radio.NewLink(New(conn)), nil
}

// served keeps the handler of an accepted connection alive until closed.
type served struct {
	*ReadWriter
	ln   net.Listener
	done chan struct{}
	once sync.Once
}

func (s *served) Close() error {
	err := s.ReadWriter.Close()
	s.once.Do(func() {
		close(s.done)
		s.ln.Close()
	})
	return err
}

// Serve serves the link on path and waits for the first peer.
// Further peers are rejected.
func Serve(ln net.Listener, path string) (*radio.Link, error) {
	connCh := make(chan *served, 1)
	var accepted sync.Once
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Handler(func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		s := &served{ReadWriter: New(conn), ln: ln, done: make(chan struct{})}
		first := false
		accepted.Do(func() { first = true })
		if !first {
			return
		}
		connCh <- s
		<-s.done
	}))
	errCh := make(chan error, 1)
	go func() {
		errCh <- http.Serve(ln, mux)
	}()
	select {
	case s := <-connCh:
		return radio.NewLink(s), nil
	case err := <-errCh:
		return nil, err
	}
}

// Listen listens on addr and waits for the first peer.
func Listen(addr, path string) (*radio.Link, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return Serve(ln, path)
}
