// Package config loads station settings from defaults, a config file,
// TESTSTAND_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/spf13/viper"

	"github.com/robotalks/teststand/pkg/actuator"
	"github.com/robotalks/teststand/pkg/sampler"
)

// Config is the configuration of a station.
type Config struct {
	// Role is home, away, or both separated by a comma.
	Role      string                 `mapstructure:"role"`
	StationID string                 `mapstructure:"station_id"`
	Serial    SerialConfig           `mapstructure:"serial"`
	Radio     RadioConfig            `mapstructure:"radio"`
	Telemetry TelemetryConfig        `mapstructure:"telemetry"`
	Sampler   SamplerConfig          `mapstructure:"sampler"`
	Queues    QueueConfig            `mapstructure:"queues"`
	Igniter   IgniterConfig          `mapstructure:"igniter"`
	Valves    []actuator.ValveConfig `mapstructure:"valves"`
	Metrics   MetricsConfig          `mapstructure:"metrics"`
	Bridge    BridgeConfig           `mapstructure:"bridge"`
}

// SerialConfig configures the console link of the Home station.
// An empty Port uses stdin/stdout.
type SerialConfig struct {
	Port        string        `mapstructure:"port"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// RadioConfig configures the radio link.
type RadioConfig struct {
	// URL selects the link, e.g. loop://name, tcp://host:port,
	// tcp+listen://:port, ws://host:port/path, ws+listen://:port/path,
	// mqtt://host:port/prefix.
	URL            string        `mapstructure:"url"`
	ReceiveTimeout time.Duration `mapstructure:"receive_timeout"`
}

// Telemetry modes.
const (
	TelemetryBatch = "batch"
	TelemetryDrain = "drain"
)

// TelemetryConfig configures the telemetry sender.
type TelemetryConfig struct {
	Mode             string        `mapstructure:"mode"`
	ItemTimeout      time.Duration `mapstructure:"item_timeout"`
	DrainCap         int           `mapstructure:"drain_cap"`
	InterPacketDelay time.Duration `mapstructure:"inter_packet_delay"`
	CycleInterval    time.Duration `mapstructure:"cycle_interval"`
}

// SamplerConfig configures sensor polling.
type SamplerConfig struct {
	RateHz int `mapstructure:"rate_hz"`
}

// QueueConfig sets the queue capacities.
type QueueConfig struct {
	Command int `mapstructure:"command"`
	Sensor  int `mapstructure:"sensor"`
	Console int `mapstructure:"console"`
}

// IgniterConfig configures the igniter.
type IgniterConfig struct {
	Pulse time.Duration `mapstructure:"pulse"`
}

// MetricsConfig configures the Prometheus endpoint.
// An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// BridgeConfig configures the MQTT telemetry bridge of the Home station.
// An empty MQTTURL disables it.
type BridgeConfig struct {
	MQTTURL        string        `mapstructure:"mqtt_url"`
	StatusInterval time.Duration `mapstructure:"status_interval"`
}

// DefaultValves is the valve table of the stand.
var DefaultValves = []actuator.ValveConfig{
	{Name: "pressurize-fuel-tank", MaxAngle: 180, CloseAngle: 180, OpenAngle: 90},
	{Name: "preslug-fuel", MaxAngle: 180, CloseAngle: 180, OpenAngle: 85},
	{Name: "n2-purge-fuel-tank-bypass", MaxAngle: 180, CloseAngle: 180, OpenAngle: 85},
	{Name: "n2-purge-gox", MaxAngle: 180, CloseAngle: 85, OpenAngle: 0},
	{Name: "preslug-gox", MaxAngle: 180, CloseAngle: 85, OpenAngle: 0},
	{Name: "gox-release", MaxAngle: 180, CloseAngle: 85, OpenAngle: 0},
	{Name: "fuel-release", MaxAngle: 180, CloseAngle: 80, OpenAngle: 0},
}

var defaultConfig = Config{
	Role: "home",
	Serial: SerialConfig{
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	},
	Radio: RadioConfig{
		URL:            "mqtt://localhost:1883/teststand/",
		ReceiveTimeout: 100 * time.Millisecond,
	},
	Telemetry: TelemetryConfig{
		Mode:             TelemetryBatch,
		ItemTimeout:      20 * time.Millisecond,
		DrainCap:         20,
		InterPacketDelay: 50 * time.Millisecond,
		CycleInterval:    100 * time.Millisecond,
	},
	Sampler: SamplerConfig{RateHz: 100},
	Queues: QueueConfig{
		Command: 16,
		Sensor:  256,
		Console: 256,
	},
	Igniter: IgniterConfig{Pulse: 5 * time.Second},
	Valves:  DefaultValves,
	Bridge:  BridgeConfig{StatusInterval: 5 * time.Second},
}

// EnvPrefix prefixes environment variables, e.g. TESTSTAND_RADIO_URL.
const EnvPrefix = "TESTSTAND"

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"role":           "role",
	"station-id":     "station_id",
	"serial":         "serial.port",
	"baud":           "serial.baud",
	"radio":          "radio.url",
	"telemetry-mode": "telemetry.mode",
	"sample-rate":    "sampler.rate_hz",
	"metrics-addr":   "metrics.addr",
	"bridge":         "bridge.mqtt_url",
}

var configFile string

// SetupFlags sets up command line flags.
func SetupFlags() {
	SetupFlagSet(flag.CommandLine)
}

// SetupFlagSet sets up flags on fs.
func SetupFlagSet(fs *flag.FlagSet) {
	fs.StringVar(&configFile, "config", "", "Config file (yaml, json or toml).")
	fs.String("role", defaultConfig.Role, "Station role: home, away or home,away.")
	fs.String("station-id", "", "Station ID, defaults to the machine ID.")
	fs.String("serial", defaultConfig.Serial.Port, "Console serial port, stdin/stdout if empty.")
	fs.Int("baud", defaultConfig.Serial.Baud, "Console serial baud rate.")
	fs.String("radio", defaultConfig.Radio.URL, "Radio link URL.")
	fs.String("telemetry-mode", defaultConfig.Telemetry.Mode, "Telemetry mode: batch or drain.")
	fs.Int("sample-rate", defaultConfig.Sampler.RateHz, "Sensor polling rate in Hz.")
	fs.String("metrics-addr", "", "Serve Prometheus metrics on this address.")
	fs.String("bridge", "", "Publish telemetry to this MQTT URL.")
}

// Load loads the config with flags parsed from flag.CommandLine.
func Load() (*Config, error) {
	return LoadWith(viper.New(), flag.CommandLine)
}

// LoadWith loads the config into v. Only the flags explicitly set on fs
// override other sources. fs may be nil.
func LoadWith(v *viper.Viper, fs *flag.FlagSet) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	if fs != nil {
		fs.Visit(func(f *flag.Flag) {
			if key, ok := flagKeys[f.Name]; ok {
				v.Set(key, f.Value.String())
			}
		})
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if conf.StationID == "" {
		conf.StationID = MachineID()
	}
	return &conf, conf.Validate()
}

func setDefaults(v *viper.Viper) {
	d := &defaultConfig
	v.SetDefault("role", d.Role)
	v.SetDefault("station_id", d.StationID)
	v.SetDefault("serial.port", d.Serial.Port)
	v.SetDefault("serial.baud", d.Serial.Baud)
	v.SetDefault("serial.read_timeout", d.Serial.ReadTimeout)
	v.SetDefault("radio.url", d.Radio.URL)
	v.SetDefault("radio.receive_timeout", d.Radio.ReceiveTimeout)
	v.SetDefault("telemetry.mode", d.Telemetry.Mode)
	v.SetDefault("telemetry.item_timeout", d.Telemetry.ItemTimeout)
	v.SetDefault("telemetry.drain_cap", d.Telemetry.DrainCap)
	v.SetDefault("telemetry.inter_packet_delay", d.Telemetry.InterPacketDelay)
	v.SetDefault("telemetry.cycle_interval", d.Telemetry.CycleInterval)
	v.SetDefault("sampler.rate_hz", d.Sampler.RateHz)
	v.SetDefault("queues.command", d.Queues.Command)
	v.SetDefault("queues.sensor", d.Queues.Sensor)
	v.SetDefault("queues.console", d.Queues.Console)
	v.SetDefault("igniter.pulse", d.Igniter.Pulse)
	v.SetDefault("valves", d.Valves)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("bridge.mqtt_url", d.Bridge.MQTTURL)
	v.SetDefault("bridge.status_interval", d.Bridge.StatusInterval)
}

// Default gets a copy of the default config.
func Default() *Config {
	conf := defaultConfig
	conf.Valves = append([]actuator.ValveConfig(nil), defaultConfig.Valves...)
	return &conf
}

// Roles splits Role.
func (c *Config) Roles() []string {
	var roles []string
	for _, r := range strings.Split(c.Role, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

// MaxValves is the number of addressable valves; index 0xFF means all.
const MaxValves = 255

// Validate checks the config.
func (c *Config) Validate() error {
	roles := c.Roles()
	if len(roles) == 0 {
		return fmt.Errorf("role is required")
	}
	for _, r := range roles {
		if r != "home" && r != "away" {
			return fmt.Errorf("invalid role %q", r)
		}
	}
	switch c.Telemetry.Mode {
	case TelemetryBatch, TelemetryDrain:
	default:
		return fmt.Errorf("invalid telemetry mode %q", c.Telemetry.Mode)
	}
	if c.Radio.URL == "" {
		return fmt.Errorf("radio url is required")
	}
	if c.Queues.Command <= 0 || c.Queues.Sensor <= 0 || c.Queues.Console <= 0 {
		return fmt.Errorf("queue sizes must be positive")
	}
	if c.Sampler.RateHz <= 0 || c.Sampler.RateHz > sampler.MaxRate {
		return fmt.Errorf("sampler rate %d out of range (0, %d]", c.Sampler.RateHz, sampler.MaxRate)
	}
	if len(c.Valves) > MaxValves {
		return fmt.Errorf("too many valves: %d, max %d", len(c.Valves), MaxValves)
	}
	for i := range c.Valves {
		if err := c.Valves[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MachineID gets an ID unique to this machine, or "teststand" if the
// machine ID is not available.
func MachineID() string {
	id, err := machineid.ProtectedID("teststand")
	if err != nil {
		return "teststand"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
