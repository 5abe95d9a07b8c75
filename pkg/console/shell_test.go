package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/teststand/pkg/command"
	"github.com/robotalks/teststand/pkg/framing"
	"github.com/robotalks/teststand/pkg/telemetry"
)

type link struct {
	*io.PipeReader

	lock sync.Mutex
	sent bytes.Buffer
}

func (l *link) Write(p []byte) (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.sent.Write(p)
}

func (l *link) Sent() []byte {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]byte(nil), l.sent.Bytes()...)
}

type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func TestShellSend(t *testing.T) {
	pr, _ := io.Pipe()
	l := &link{PipeReader: pr}
	s := New(l)
	s.AssumeYes = true
	require.NoError(t, s.Shell.Process("open", "all"))
	require.NoError(t, s.Shell.Process("ignite"))
	assert.Equal(t, append(
		[]byte{0xFF, 0x00, 0x01, 0xFF, 0x00, 0x00, 0x00, 0xFE},
		framing.Encode(command.Ignite().Bytes())...,
	), l.Sent())
}

func TestShellReceive(t *testing.T) {
	pr, pw := io.Pipe()
	s := New(&link{PipeReader: pr})
	out := &syncBuffer{}
	s.Out = out
	s.SetMonitor(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Receive(ctx, false) }()

	sample := telemetry.SensorSample{PT: [telemetry.NumPT]uint16{1, 2, 3, 4, 5, 6}, LoadCell: 7, Timestamp: 8}
	frame := framing.Encode(telemetry.EncodeSample(sample))
	_, err := pw.Write(append([]byte{0x00, 0x13}, frame...))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return s.SampleCount() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, strings.Contains(out.String(), FormatSample(sample)))
}

func TestFormatSample(t *testing.T) {
	s := telemetry.SensorSample{PT: [telemetry.NumPT]uint16{0, 1, 2, 3, 4, 65535}, LoadCell: 42, Timestamp: 1500}
	assert.Equal(t, "t=    1500ms pt=[    0     1     2     3     4 65535] load= 42", FormatSample(s))
}
