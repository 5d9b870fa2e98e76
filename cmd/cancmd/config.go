package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/cbus-station/cancmd-go/pkg/bridge"
	"github.com/cbus-station/cancmd-go/pkg/discovery"
	"github.com/cbus-station/cancmd-go/pkg/dispatch"
	"github.com/cbus-station/cancmd-go/pkg/locos"
	"github.com/cbus-station/cancmd-go/pkg/notify"
	"github.com/cbus-station/cancmd-go/pkg/station"
	"github.com/cbus-station/cancmd-go/pkg/track"
)

var errUnknownFormat = errors.New("unknown config format")

// fileConfig is the on-disk configuration. Durations are strings
// ("5s", "250ms") so YAML and TOML read them the same way.
type fileConfig struct {
	Station   stationSection   `yaml:"station" toml:"station"`
	Bridge    bridgeSection    `yaml:"bridge" toml:"bridge"`
	Discovery discoverySection `yaml:"discovery" toml:"discovery"`
	Track     trackSection     `yaml:"track" toml:"track"`
	Locos     locosSection     `yaml:"locos" toml:"locos"`
	Log       logSection       `yaml:"log" toml:"log"`
}

type stationSection struct {
	CANID          uint8                 `yaml:"can_id" toml:"can_id"`
	NodeNumber     uint16                `yaml:"node_number" toml:"node_number"`
	CommandStation uint8                 `yaml:"command_station" toml:"command_station"`
	Version        string                `yaml:"version" toml:"version"`
	InboundQueue   int                   `yaml:"inbound_queue" toml:"inbound_queue"`
	SessionTimeout string                `yaml:"session_timeout" toml:"session_timeout"`
	LocoSweep      string                `yaml:"loco_sweep" toml:"loco_sweep"`
	Events         dispatch.EventMapping `yaml:"events" toml:"events"`
}

type bridgeSection struct {
	Address    string `yaml:"address" toml:"address"`
	MaxClients int    `yaml:"max_clients" toml:"max_clients"`
	SendQueue  int    `yaml:"send_queue" toml:"send_queue"`
	Forward    *bool  `yaml:"forward" toml:"forward"`
}

type discoverySection struct {
	Enabled   *bool  `yaml:"enabled" toml:"enabled"`
	Instance  string `yaml:"instance" toml:"instance"`
	Name      string `yaml:"name" toml:"name"`
	Interface string `yaml:"interface" toml:"interface"`
	TTL       string `yaml:"ttl" toml:"ttl"`
}

type trackSection struct {
	QueueSize int    `yaml:"queue_size" toml:"queue_size"`
	Latency   string `yaml:"latency" toml:"latency"`
	Packets   int    `yaml:"packet_queue" toml:"packet_queue"`
}

type locosSection struct {
	MaxSessions int    `yaml:"max_sessions" toml:"max_sessions"`
	KeepAlive   string `yaml:"keepalive_timeout" toml:"keepalive_timeout"`
}

type logSection struct {
	Level    string `yaml:"level" toml:"level"`
	Protocol string `yaml:"protocol" toml:"protocol"`
}

// Config is the resolved daemon configuration.
type Config struct {
	Station   station.Config
	Bridge    bridge.Config
	Discovery discovery.AdvertiserConfig
	Advertise bool
	Instance  string
	Name      string
	Track     track.Config
	Packets   int
	Locos     locos.Config

	LogLevel    string
	ProtocolLog string
}

// defaultConfig returns the configuration used without a config file.
func defaultConfig() Config {
	return Config{
		Station:   station.DefaultConfig(),
		Bridge:    bridge.Config{Address: fmt.Sprintf(":%d", bridge.DefaultPort), Forward: true},
		Discovery: discovery.DefaultAdvertiserConfig(),
		Advertise: true,
		Track:     track.DefaultConfig(),
		Packets:   track.DefaultPacketQueue,
		Locos:     locos.DefaultConfig(),
		LogLevel:  "info",
	}
}

// loadConfig reads path, picking the decoder by extension, and applies it
// over the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	default:
		return cfg, fmt.Errorf("%w: %s", errUnknownFormat, path)
	}
	if err != nil {
		return cfg, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	if err := fc.apply(&cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// apply overlays the non-zero file settings onto cfg.
func (fc *fileConfig) apply(cfg *Config) error {
	s := fc.Station
	if s.CANID != 0 {
		cfg.Station.CANID = s.CANID
	}
	if s.NodeNumber != 0 {
		cfg.Station.NodeNumber = s.NodeNumber
	}
	cfg.Station.CommandStation = s.CommandStation
	if s.Version != "" {
		v, err := parseVersion(s.Version)
		if err != nil {
			return err
		}
		cfg.Station.Version = v
	}
	if s.InboundQueue != 0 {
		cfg.Station.InboundQueue = s.InboundQueue
	}
	if err := setDuration(&cfg.Station.SessionTimeout, "station.session_timeout", s.SessionTimeout); err != nil {
		return err
	}
	if err := setDuration(&cfg.Station.LocoSweep, "station.loco_sweep", s.LocoSweep); err != nil {
		return err
	}
	cfg.Station.Events = s.Events

	b := fc.Bridge
	if b.Address != "" {
		cfg.Bridge.Address = b.Address
	}
	if b.MaxClients != 0 {
		cfg.Bridge.MaxClients = b.MaxClients
	}
	if b.SendQueue != 0 {
		cfg.Bridge.SendQueue = b.SendQueue
	}
	if b.Forward != nil {
		cfg.Bridge.Forward = *b.Forward
	}

	d := fc.Discovery
	if d.Enabled != nil {
		cfg.Advertise = *d.Enabled
	}
	cfg.Instance = d.Instance
	cfg.Name = d.Name
	cfg.Discovery.Interface = d.Interface
	if err := setDuration(&cfg.Discovery.TTL, "discovery.ttl", d.TTL); err != nil {
		return err
	}

	if fc.Track.QueueSize != 0 {
		cfg.Track.QueueSize = fc.Track.QueueSize
	}
	if err := setDuration(&cfg.Track.Latency, "track.latency", fc.Track.Latency); err != nil {
		return err
	}
	if fc.Track.Packets != 0 {
		cfg.Packets = fc.Track.Packets
	}

	if fc.Locos.MaxSessions != 0 {
		cfg.Locos.MaxSessions = fc.Locos.MaxSessions
	}
	if err := setDuration(&cfg.Locos.KeepAliveTimeout, "locos.keepalive_timeout", fc.Locos.KeepAlive); err != nil {
		return err
	}

	if fc.Log.Level != "" {
		cfg.LogLevel = fc.Log.Level
	}
	cfg.ProtocolLog = fc.Log.Protocol
	return nil
}

func setDuration(dst *time.Duration, key, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

// parseVersion parses "major.minor.build".
func parseVersion(s string) (notify.Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return notify.Version{}, fmt.Errorf("version %q: want major.minor.build", s)
	}
	var out [3]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return notify.Version{}, fmt.Errorf("version %q: %w", s, err)
		}
		out[i] = uint8(n)
	}
	return notify.Version{Major: out[0], Minor: out[1], Build: out[2]}, nil
}

// Validate checks the resolved configuration.
func (c Config) Validate() error {
	if err := c.Station.Validate(); err != nil {
		return err
	}
	if c.Locos.MaxSessions <= 0 || c.Locos.MaxSessions > 255 {
		return fmt.Errorf("locos.max_sessions must be 1-255, got %d", c.Locos.MaxSessions)
	}
	if c.Locos.KeepAliveTimeout <= 0 {
		return errors.New("locos.keepalive_timeout must be positive")
	}
	if c.Track.QueueSize <= 0 {
		return errors.New("track.queue_size must be positive")
	}
	if c.Instance != "" {
		if err := discovery.ValidateInstanceName(c.Instance); err != nil {
			return err
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}
