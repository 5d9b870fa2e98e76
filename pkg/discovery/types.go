package discovery

import (
	"errors"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceType is the service type for GridConnect TCP bridges.
	ServiceType = "_cbus-gc._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is the default GridConnect port.
	DefaultPort = 5550
)

// TXT record key constants.
const (
	TXTKeyNodeNumber     = "nn"    // Node number (decimal)
	TXTKeyCANID          = "canid" // CAN ID 1-127
	TXTKeyCommandStation = "cs"    // Command station number
	TXTKeyVersion        = "ver"   // Firmware version major.minor.build
	TXTKeyName           = "name"  // Free-form label (optional)
)

// Timing constants.
const (
	// DefaultTTL is the record TTL used when the config leaves it zero.
	DefaultTTL = 120 * time.Second

	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 5 * time.Second
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// MaxCANID is the highest usable CBUS CAN ID.
	MaxCANID = 127
)

// Errors.
var (
	ErrMissingRequired     = errors.New("missing required TXT record")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record")
	ErrInstanceNameTooLong = errors.New("invalid instance name")
	ErrNotAdvertising      = errors.New("not advertising")
)

// Info describes the bridge being advertised.
type Info struct {
	// Instance overrides the default instance name.
	Instance string

	Port           uint16
	NodeNumber     uint16
	CANID          uint8
	CommandStation uint8
	Version        string
	Name           string
}

// InstanceName returns the configured instance name or CANCMD-<nn>.
func (i *Info) InstanceName() string {
	if i.Instance != "" {
		return i.Instance
	}
	return "CANCMD-" + formatUint(uint64(i.NodeNumber))
}

// Service is a bridge found while browsing.
type Service struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	NodeNumber     uint16
	CANID          uint8
	CommandStation uint8
	Version        string
	Name           string
}
