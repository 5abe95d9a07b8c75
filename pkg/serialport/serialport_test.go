package serialport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestMode(t *testing.T) {
	opts := Options{Name: "/dev/ttyUSB0"}
	mode := opts.Mode()
	assert.Equal(t, DefaultBaud, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, serial.NoParity, mode.Parity)
	assert.Equal(t, serial.OneStopBit, mode.StopBits)

	opts.Baud = 9600
	assert.Equal(t, 9600, opts.Mode().BaudRate)
}

func TestOpenOrStdio(t *testing.T) {
	port, timed, err := OpenOrStdio(Options{})
	require.NoError(t, err)
	assert.False(t, timed)
	assert.NoError(t, port.Close())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(Options{Name: "/dev/teststand-no-such-port"})
	assert.Error(t, err)
}
