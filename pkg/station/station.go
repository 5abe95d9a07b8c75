package station

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/teststand/pkg/actuator"
	"github.com/robotalks/teststand/pkg/bridge"
	"github.com/robotalks/teststand/pkg/command"
	"github.com/robotalks/teststand/pkg/config"
	"github.com/robotalks/teststand/pkg/dispatch"
	fx "github.com/robotalks/teststand/pkg/framework"
	"github.com/robotalks/teststand/pkg/framing"
	"github.com/robotalks/teststand/pkg/metrics"
	"github.com/robotalks/teststand/pkg/queue"
	"github.com/robotalks/teststand/pkg/radio"
	"github.com/robotalks/teststand/pkg/sampler"
	"github.com/robotalks/teststand/pkg/serialport"
	"github.com/robotalks/teststand/pkg/telemetry"
)

// Station runs the tasks of one role.
// Unset dependencies are created from Config.
type Station struct {
	Role    Role
	Config  *config.Config
	Metrics *metrics.Metrics

	// Radio is opened from Config.Radio.URL if nil.
	Radio Radio

	// Console is the serial link of Home, opened from Config.Serial if nil.
	Console serialport.Port
	// ConsoleTimed must be set if Console reads return periodically.
	ConsoleTimed bool

	// Actuator of Away, simulated if nil.
	Actuator actuator.Actuator
	// Source of Away, synthetic if nil.
	Source sampler.Source
}

// New creates a Station.
func New(role Role, conf *config.Config, m *metrics.Metrics) *Station {
	return &Station{Role: role, Config: conf, Metrics: m}
}

// Run runs the station until ctx is done or a task fails.
func (s *Station) Run(ctx context.Context) error {
	if s.Radio == nil {
		r, err := OpenRadio(ctx, s.Config.Radio.URL, s.Role)
		if err != nil {
			return fmt.Errorf("open radio %s: %w", s.Config.Radio.URL, err)
		}
		s.Radio = r
	}
	defer s.Radio.Close()
	glog.Infof("%s station %s on %s", s.Role, s.Config.StationID, s.Config.Radio.URL)

	runner := fx.NewRunnerWith(ctx)
	link := radio.NewShared(s.Radio)
	var err error
	switch s.Role {
	case Home:
		err = s.startHome(runner, link)
	case Away:
		err = s.startAway(runner, link)
	default:
		err = fmt.Errorf("invalid role %v", s.Role)
	}
	if err != nil {
		runner.Stop()
		return err
	}
	return runner.Wait()
}

func (s *Station) name(task string) string {
	return s.Role.String() + "." + task
}

func (s *Station) startHome(runner *fx.Runner, link radio.Transport) error {
	conf, m := s.Config, s.Metrics
	if s.Console == nil {
		port, timed, err := serialport.OpenOrStdio(serialport.Options{
			Name:        conf.Serial.Port,
			Baud:        conf.Serial.Baud,
			ReadTimeout: conf.Serial.ReadTimeout,
		})
		if err != nil {
			return err
		}
		s.Console, s.ConsoleTimed = port, timed
	}

	commands := queue.New[command.Command]("command", conf.Queues.Command, queue.Block)
	samples := queue.New[telemetry.SensorSample]("console", conf.Queues.Console, queue.DropOldest)
	samples.OnDrop = m.QueueDropped(samples.Name())

	reader := framing.NewReader(s.Console, command.Size, framing.CommandHandler(commands, m))
	reader.Metrics = m
	reader.ReadTimeout = s.ConsoleTimed

	fwd := &Forwarder{In: samples, Console: framing.NewWriter(s.Console)}
	if conf.Bridge.MQTTURL != "" {
		pub, err := bridge.NewPublisher(conf.Bridge.MQTTURL, conf.StationID, m)
		if err != nil {
			return fmt.Errorf("bridge: %w", err)
		}
		pub.StatusInterval = conf.Bridge.StatusInterval
		fwd.Bridge = pub
		runner.Go(fx.NamedRun(s.name("bridge"), pub))
	}

	runner.Go(
		fx.NamedRun(s.name("serial"), fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, s.Console, func() error {
				return reader.Run(ctx)
			})
		})),
		fx.NamedRun(s.name("uplink"), &CommandSender{In: commands, Transport: link, Metrics: m}),
		fx.NamedRun(s.name("downlink"), &telemetry.Receiver{
			Transport: link,
			Sink:      samples,
			Timeout:   conf.Radio.ReceiveTimeout,
			Metrics:   m,
		}),
		fx.NamedRun(s.name("console"), fwd),
	)
	return nil
}

func (s *Station) startAway(runner *fx.Runner, link radio.Transport) error {
	conf, m := s.Config, s.Metrics
	if s.Actuator == nil {
		s.Actuator = actuator.NewLogStand(conf.Valves,
			actuator.NewIgniter(&actuator.LogRelay{Name: "igniter"}, conf.Igniter.Pulse))
	}
	if s.Source == nil {
		s.Source = sampler.NewSynthetic()
	}

	commands := queue.New[command.Command]("command", conf.Queues.Command, queue.Block)
	samples := queue.New[telemetry.SensorSample]("sensor", conf.Queues.Sensor, queue.DropOldest)
	samples.OnDrop = m.QueueDropped(samples.Name())

	var sender fx.Runnable
	switch conf.Telemetry.Mode {
	case config.TelemetryDrain:
		sender = &telemetry.Drainer{
			In:               samples,
			Transport:        link,
			Metrics:          m,
			MaxPerCycle:      conf.Telemetry.DrainCap,
			InterPacketDelay: conf.Telemetry.InterPacketDelay,
			CycleInterval:    conf.Telemetry.CycleInterval,
		}
	default:
		sender = &telemetry.Batcher{
			In:          samples,
			Transport:   link,
			ItemTimeout: conf.Telemetry.ItemTimeout,
			Metrics:     m,
		}
	}

	runner.Go(
		fx.NamedRun(s.name("uplink"), &CommandReceiver{
			Transport: link,
			Out:       commands,
			Timeout:   conf.Radio.ReceiveTimeout,
			Metrics:   m,
		}),
		fx.NamedRun(s.name("dispatch"), &dispatch.Dispatcher{In: commands, Actuator: s.Actuator, Metrics: m}),
		fx.NamedRun(s.name("sampler"), &sampler.Poller{Source: s.Source, Out: samples, Rate: conf.Sampler.RateHz}),
		fx.NamedRun(s.name("downlink"), sender),
	)
	return nil
}
