// Package console is the operator shell which sends commands to the Home
// station over the console serial link and shows the telemetry it relays.
package console

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/teststand/pkg/command"
	fx "github.com/robotalks/teststand/pkg/framework"
	"github.com/robotalks/teststand/pkg/framing"
	"github.com/robotalks/teststand/pkg/serialport"
	"github.com/robotalks/teststand/pkg/telemetry"
)

// Config configures the console link.
type Config struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
}

var defaultConfig = Config{
	Baud:        serialport.DefaultBaud,
	ReadTimeout: 100 * time.Millisecond,
}

var (
	evalOnly   bool
	assumeYes  bool
	monitoring bool
)

func init() {
	if val := os.Getenv("TESTSTAND_CONSOLE_PORT"); val != "" {
		defaultConfig.Port = val
	}
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port of the Home station.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Baud rate.")
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&assumeYes, "y", assumeYes, "Do not ask for confirmation of ignition.")
	flag.BoolVar(&monitoring, "monitor", monitoring, "Print telemetry from start.")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	AssumeYes   bool

	Shell  *ishell.Shell
	Port   io.ReadWriteCloser
	Frames *framing.Writer
	Out    io.Writer

	monitor int32
	samples int64
}

const shellKey = "$shell"

// New creates a Shell over an open console link.
func New(port io.ReadWriteCloser) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		AssumeYes:   assumeYes,
		Shell:       ishell.New(),
		Port:        port,
		Frames:      framing.NewWriter(port),
		Out:         os.Stdout,
	}
	s.SetMonitor(monitoring)
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt("teststand > ")
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Send frames and sends a command.
func (s *Shell) Send(cmd command.Command) error {
	glog.V(1).Infof("console send %s", cmd)
	return s.Frames.WriteFrame(cmd.Bytes())
}

// SetMonitor turns printing of telemetry on or off.
func (s *Shell) SetMonitor(on bool) {
	var v int32
	if on {
		v = 1
	}
	atomic.StoreInt32(&s.monitor, v)
}

// Monitoring tells whether telemetry is printed.
func (s *Shell) Monitoring() bool {
	return atomic.LoadInt32(&s.monitor) != 0
}

// SampleCount gets the number of samples received.
func (s *Shell) SampleCount() int64 {
	return atomic.LoadInt64(&s.samples)
}

// FormatSample formats a sample for display.
func FormatSample(sample telemetry.SensorSample) string {
	pts := make([]string, len(sample.PT))
	for i, v := range sample.PT {
		pts[i] = fmt.Sprintf("%5d", v)
	}
	return fmt.Sprintf("t=%8dms pt=[%s] load=%3d", sample.Timestamp, strings.Join(pts, " "), sample.LoadCell)
}

// HandleFrame implements framing.FrameHandler for telemetry frames.
func (s *Shell) HandleFrame(_ context.Context, frame []byte) error {
	sample, err := telemetry.DecodeSample(frame)
	if err != nil {
		glog.Warningf("console telemetry: %v", err)
		return nil
	}
	atomic.AddInt64(&s.samples, 1)
	if s.Monitoring() {
		fmt.Fprintln(s.Out, FormatSample(sample))
	}
	return nil
}

// Receive reads telemetry frames from the link until ctx is done.
func (s *Shell) Receive(ctx context.Context, timed bool) error {
	reader := framing.NewReader(s.Port, telemetry.SampleSize, s)
	reader.ReadTimeout = timed
	return fx.RunWithContextCloser(ctx, s.Port, func() error {
		return reader.Run(ctx)
	})
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// confirm asks before a dangerous command.
func (s *Shell) confirm(c *ishell.Context, question string) bool {
	if s.AssumeYes {
		return true
	}
	if !s.Interactive {
		c.Err(fmt.Errorf("%s: use -y to confirm in non-interactive mode", question))
		return false
	}
	c.Printf("%s [type YES]: ", question)
	return c.ReadLine() == "YES"
}

func sendCmd(c *ishell.Context) {
	s := ShellFrom(c)
	cmd, err := ParseCommand(append([]string{c.Cmd.Name}, c.Args...))
	if err != nil {
		c.Err(err)
		return
	}
	if cmd.Target == command.TargetIgniter && !s.confirm(c, "IGNITE") {
		c.Println("aborted")
		return
	}
	if err := s.Send(cmd); err != nil {
		c.Err(err)
		return
	}
	c.Printf("sent %s\n", cmd)
}

var commands = []*ishell.Cmd{
	{Name: "open", Help: "VALVE|all", Func: sendCmd},
	{Name: "close", Help: "VALVE|all", Func: sendCmd},
	{Name: "set", Help: "VALVE|all PERCENT", Func: sendCmd},
	{Name: "ignite", Help: "fire the igniter", Func: sendCmd},
	{Name: "raw", Help: "TARGET TYPE [PARAM...]", Func: sendCmd},
	{
		Name:    "monitor",
		Aliases: []string{"mon"},
		Help:    "[on|off]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			on := !s.Monitoring()
			if len(c.Args) > 0 {
				on = c.Args[0] == "on"
			}
			s.SetMonitor(on)
			c.Printf("monitor %v, %d samples received\n", on, s.SampleCount())
		},
	},
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf := NewConfig()
	if conf.Port == "" {
		log.Fatalln("serial port required, use -port or TESTSTAND_CONSOLE_PORT")
	}
	port, err := serialport.Open(serialport.Options{Name: conf.Port, Baud: conf.Baud, ReadTimeout: conf.ReadTimeout})
	if err != nil {
		log.Fatalln(err)
	}
	s := New(port)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := s.Receive(ctx, true); err != nil && err != context.Canceled {
			glog.Errorf("console receive: %v", err)
		}
	}()
	s.Run(flag.Args()...)
}
