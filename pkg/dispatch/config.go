package dispatch

import (
	"errors"
	"fmt"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
)

// Configuration errors.
var (
	ErrInvalidCANID   = errors.New("CAN ID out of range")
	ErrInvalidMapping = errors.New("invalid accessory event mapping")
)

// EventMapping maps a window of accessory event numbers onto consecutive
// DCC accessory addresses.
type EventMapping struct {
	// Node restricts long events to one producer node. Zero accepts any.
	Node uint16 `yaml:"node" toml:"node"`

	// FirstEvent is the event number mapped to FirstAddress.
	FirstEvent uint16 `yaml:"first_event" toml:"first_event"`

	// FirstAddress is the first DCC accessory address (1-2044).
	FirstAddress uint16 `yaml:"first_address" toml:"first_address"`

	// Count is the window size. Zero disables the mapping.
	Count uint16 `yaml:"count" toml:"count"`
}

// MaxAccessoryAddress is the highest DCC basic accessory address.
const MaxAccessoryAddress = 2044

// Lookup returns the DCC address for an event, if it is in the window.
func (e EventMapping) Lookup(node, event uint16, short bool) (uint16, bool) {
	if e.Count == 0 {
		return 0, false
	}
	if !short && e.Node != 0 && node != e.Node {
		return 0, false
	}
	if event < e.FirstEvent || uint32(event) >= uint32(e.FirstEvent)+uint32(e.Count) {
		return 0, false
	}
	return e.FirstAddress + (event - e.FirstEvent), true
}

// Validate checks the mapping window.
func (e EventMapping) Validate() error {
	if e.Count == 0 {
		return nil
	}
	if e.FirstAddress == 0 || uint32(e.FirstAddress)+uint32(e.Count)-1 > MaxAccessoryAddress {
		return fmt.Errorf("%w: addresses %d+%d", ErrInvalidMapping, e.FirstAddress, e.Count)
	}
	if uint32(e.FirstEvent)+uint32(e.Count)-1 > 0xFFFF {
		return fmt.Errorf("%w: events %d+%d", ErrInvalidMapping, e.FirstEvent, e.Count)
	}
	return nil
}

// Config configures a Dispatcher.
type Config struct {
	// CANID is the station's own CAN ID, used for enumeration replies and
	// conflict detection.
	CANID uint8

	// NodeNumber is the station's CBUS node number.
	NodeNumber uint16

	// Events maps accessory events to DCC accessory addresses.
	Events EventMapping
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.CANID == 0 || c.CANID > cbus.MaxCANID {
		return fmt.Errorf("%w: %d", ErrInvalidCANID, c.CANID)
	}
	return c.Events.Validate()
}
