package framing

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/teststand/pkg/command"
	"github.com/robotalks/teststand/pkg/metrics"
)

// FrameHandler is called with the payload of every complete frame.
// A returned error stops the Reader.
type FrameHandler interface {
	HandleFrame(context.Context, []byte) error
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, []byte) error

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, frame []byte) error {
	return f(ctx, frame)
}

// Reader reads frames from a byte stream.
type Reader struct {
	Reader  io.Reader
	Parser  *Parser
	Handler FrameHandler
	Metrics *metrics.Metrics
	// ReadTimeout must be set if Reader returns periodically without data
	// (e.g. a serial port opened with a read timeout).
	ReadTimeout bool
}

const readBufSize = 64

// NewReader creates a Reader for payloads of payloadLen bytes.
func NewReader(r io.Reader, payloadLen int, h FrameHandler) *Reader {
	return &Reader{Reader: r, Parser: NewParser(payloadLen), Handler: h}
}

// Run implements Runnable.
func (r *Reader) Run(ctx context.Context) error {
	if r.ReadTimeout {
		buf := make([]byte, readBufSize)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			n, err := r.Reader.Read(buf)
			if err != nil && !os.IsTimeout(err) {
				return err
			}
			if err = r.consume(ctx, buf[:n]); err != nil {
				return err
			}
		}
	}

	chunkCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go r.readLoop(subCtx, chunkCh, errCh)
	for {
		select {
		case chunk := <-chunkCh:
			if err := r.consume(ctx, chunk); err != nil {
				return err
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Reader) readLoop(ctx context.Context, chunkCh chan []byte, errCh chan error) {
	for {
		buf := make([]byte, readBufSize)
		n, err := r.Reader.Read(buf)
		if err != nil {
			errCh <- err
			return
		}
		if n == 0 {
			continue
		}
		select {
		case chunkCh <- buf[:n]:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reader) consume(ctx context.Context, data []byte) error {
	for _, b := range data {
		pr := r.Parser.Parse(b)
		if pr.Err != nil {
			glog.Warningf("serial framing: %v", pr.Err)
			r.Metrics.FramingError()
		}
		if pr.Frame == nil {
			continue
		}
		r.Metrics.FrameDecoded()
		if h := r.Handler; h != nil {
			if err := h.HandleFrame(ctx, pr.Frame); err != nil {
				return err
			}
		}
	}
	return nil
}

// CommandSink accepts decoded commands.
type CommandSink interface {
	Put(context.Context, command.Command) error
}

// CommandHandler decodes frames into commands and puts them into out.
// Undecodable frames are logged and dropped.
func CommandHandler(out CommandSink, m *metrics.Metrics) FrameHandler {
	return HandleFrameFunc(func(ctx context.Context, frame []byte) error {
		cmd, err := command.Decode(frame)
		if err != nil {
			glog.Warningf("serial command: %v", err)
			m.DecodeError()
			return nil
		}
		glog.V(2).Infof("serial command: %s", cmd)
		return out.Put(ctx, cmd)
	})
}

// Writer writes frames to a byte stream.
// It is safe for concurrent use.
type Writer struct {
	w    io.Writer
	lock sync.Mutex
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteFrame frames payload and writes it as a whole.
func (w *Writer) WriteFrame(payload []byte) error {
	b := Encode(payload)
	w.lock.Lock()
	defer w.lock.Unlock()
	_, err := w.w.Write(b)
	return err
}
