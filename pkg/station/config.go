package station

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cbus-station/cancmd-go/pkg/dispatch"
	"github.com/cbus-station/cancmd-go/pkg/log"
	"github.com/cbus-station/cancmd-go/pkg/notify"
)

// Defaults.
const (
	DefaultCANID           = 0x72
	DefaultNodeNumber      = 0xFFFE
	DefaultInboundQueue    = 64
	DefaultCompletionQueue = 8
	DefaultFollowUpQueue   = 4
	DefaultSessionTimeout  = 5 * time.Second
	DefaultLocoSweep       = time.Second
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid station configuration")

// Config configures a Station.
type Config struct {
	// CANID is the station's own CAN ID (1-127).
	CANID uint8 `yaml:"can_id" toml:"can_id"`

	// NodeNumber is reported in STAT and PNN.
	NodeNumber uint16 `yaml:"node_number" toml:"node_number"`

	// CommandStation is the command station number reported in STAT.
	CommandStation uint8 `yaml:"command_station" toml:"command_station"`

	// Version is the firmware version reported in STAT.
	Version notify.Version `yaml:"version" toml:"version"`

	// InboundQueue bounds frames waiting for the loop.
	InboundQueue int `yaml:"inbound_queue" toml:"inbound_queue"`

	// CompletionQueue bounds programmer results waiting for the loop.
	CompletionQueue int `yaml:"completion_queue" toml:"completion_queue"`

	// FollowUpQueue bounds deferred work waiting for the worker.
	FollowUpQueue int `yaml:"follow_up_queue" toml:"follow_up_queue"`

	// SessionTimeout ends a programming session that has not completed.
	SessionTimeout time.Duration `yaml:"session_timeout" toml:"session_timeout"`

	// LocoSweep is how often loco sessions are checked for keepalive
	// expiry. Zero disables the sweep.
	LocoSweep time.Duration `yaml:"loco_sweep" toml:"loco_sweep"`

	// Events maps accessory events onto DCC accessory addresses.
	Events dispatch.EventMapping `yaml:"events" toml:"events"`

	// Logger receives operational debug output (optional).
	Logger *slog.Logger `yaml:"-" toml:"-"`

	// ProtocolLogger captures frames, outcomes and state changes (optional).
	ProtocolLogger log.Logger `yaml:"-" toml:"-"`
}

// DefaultConfig returns the default station configuration.
func DefaultConfig() Config {
	return Config{
		CANID:           DefaultCANID,
		NodeNumber:      DefaultNodeNumber,
		Version:         notify.Version{Major: 4, Minor: 1, Build: 107},
		InboundQueue:    DefaultInboundQueue,
		CompletionQueue: DefaultCompletionQueue,
		FollowUpQueue:   DefaultFollowUpQueue,
		SessionTimeout:  DefaultSessionTimeout,
		LocoSweep:       DefaultLocoSweep,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.dispatchConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.InboundQueue <= 0 || c.CompletionQueue <= 0 || c.FollowUpQueue <= 0 {
		return fmt.Errorf("%w: queue sizes must be positive", ErrInvalidConfig)
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("%w: session timeout must be positive", ErrInvalidConfig)
	}
	if c.LocoSweep < 0 {
		return fmt.Errorf("%w: negative loco sweep", ErrInvalidConfig)
	}
	return nil
}

func (c Config) dispatchConfig() dispatch.Config {
	return dispatch.Config{
		CANID:      c.CANID,
		NodeNumber: c.NodeNumber,
		Events:     c.Events,
	}
}

func (c Config) notifyConfig() notify.Config {
	return notify.Config{
		CANID:          c.CANID,
		NodeNumber:     c.NodeNumber,
		CommandStation: c.CommandStation,
		Version:        c.Version,
	}
}
