// Package serialport opens the console link between the operator console
// and the Home station.
package serialport

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// Port is an open console link.
type Port interface {
	io.ReadWriteCloser
}

// Options configures a serial port.
type Options struct {
	Name        string
	Baud        int
	ReadTimeout time.Duration
}

// DefaultBaud is the console baud rate.
const DefaultBaud = 115200

// Mode gets the serial mode, 8N1.
func (o *Options) Mode() *serial.Mode {
	baud := o.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Open opens the serial port. With a ReadTimeout, Read returns 0 bytes
// and no error when nothing arrived in time.
func Open(opts Options) (Port, error) {
	port, err := serial.Open(opts.Name, opts.Mode())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Name, err)
	}
	if opts.ReadTimeout > 0 {
		if err = port.SetReadTimeout(opts.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout on %s: %w", opts.Name, err)
		}
	}
	glog.Infof("serial %s opened at %d baud", opts.Name, opts.Mode().BaudRate)
	return port, nil
}

// List lists the available serial ports.
func List() ([]string, error) {
	return serial.GetPortsList()
}

// stdio uses stdin/stdout as the console link.
type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error { return nil }

// Stdio gets the console link over stdin/stdout.
func Stdio() Port {
	return stdio{Reader: os.Stdin, Writer: os.Stdout}
}

// OpenOrStdio opens the port, or uses stdin/stdout when Name is empty.
// timed tells whether reads return periodically.
func OpenOrStdio(opts Options) (port Port, timed bool, err error) {
	if opts.Name == "" {
		return Stdio(), false, nil
	}
	port, err = Open(opts)
	return port, err == nil && opts.ReadTimeout > 0, err
}
