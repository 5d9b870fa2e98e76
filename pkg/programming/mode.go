package programming

import (
	"errors"
	"fmt"
)

// Mode is the active service-mode programming method.
type Mode uint8

const (
	// ModeIdle means no programming session is active.
	ModeIdle Mode = iota
	ModeDirectByte
	ModeDirectBit
	ModePaged
	ModeRegister
	ModeAddress
)

// Modes lists every programming mode except Idle, in wire-code order.
var Modes = []Mode{ModeDirectByte, ModeDirectBit, ModePaged, ModeRegister, ModeAddress}

// Wire codes carried in the mode byte of QCVS and WCVS.
const (
	WireDirectByte byte = 0
	WireDirectBit  byte = 1
	WirePaged      byte = 2
	WireRegister   byte = 3
	WireAddress    byte = 4
)

// ErrUnknownWireCode is returned when a numeric mode or power code has no
// enumerated counterpart.
var ErrUnknownWireCode = errors.New("unknown wire code")

// ModeFromWire maps a CBUS mode byte onto a Mode.
func ModeFromWire(code byte) (Mode, error) {
	switch code {
	case WireDirectByte:
		return ModeDirectByte, nil
	case WireDirectBit:
		return ModeDirectBit, nil
	case WirePaged:
		return ModePaged, nil
	case WireRegister:
		return ModeRegister, nil
	case WireAddress:
		return ModeAddress, nil
	default:
		return ModeIdle, fmt.Errorf("%w: mode %d", ErrUnknownWireCode, code)
	}
}

// WireCode returns the CBUS mode byte. Idle has no wire code.
func (m Mode) WireCode() (byte, bool) {
	switch m {
	case ModeDirectByte:
		return WireDirectByte, true
	case ModeDirectBit:
		return WireDirectBit, true
	case ModePaged:
		return WirePaged, true
	case ModeRegister:
		return WireRegister, true
	case ModeAddress:
		return WireAddress, true
	default:
		return 0, false
	}
}

// Valid reports whether m is one of the enumerated modes.
func (m Mode) Valid() bool {
	return m <= ModeAddress
}

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeDirectByte:
		return "DIRECT_BYTE"
	case ModeDirectBit:
		return "DIRECT_BIT"
	case ModePaged:
		return "PAGED"
	case ModeRegister:
		return "REGISTER"
	case ModeAddress:
		return "ADDRESS"
	default:
		return "UNKNOWN"
	}
}

// RequiresPower reports whether the mode drives the programming track and
// therefore needs track power. This is the per-mode power table.
func RequiresPower(m Mode) bool {
	switch m {
	case ModeDirectByte, ModeDirectBit, ModePaged, ModeRegister:
		return true
	case ModeAddress:
		return false
	default:
		return false
	}
}

// CVAddress is a decoder configuration variable number (1-based).
type CVAddress uint16

// MaxCV returns the highest CV number addressable in the mode, or 0 for
// Idle. Register mode reaches the eight registers only and address mode
// writes the primary address.
func MaxCV(m Mode) CVAddress {
	switch m {
	case ModeDirectByte, ModeDirectBit, ModePaged:
		return 1024
	case ModeRegister:
		return 8
	case ModeAddress:
		return 1
	default:
		return 0
	}
}

// PowerState is the track power state.
type PowerState uint8

const (
	PowerOff PowerState = iota
	PowerOn
)

// Power wire codes, numbered after the mode codes.
const (
	WirePowerOff byte = 10
	WirePowerOn  byte = 11
)

// PowerFromWire maps a numeric power code onto a PowerState.
func PowerFromWire(code byte) (PowerState, error) {
	switch code {
	case WirePowerOff:
		return PowerOff, nil
	case WirePowerOn:
		return PowerOn, nil
	default:
		return PowerOff, fmt.Errorf("%w: power %d", ErrUnknownWireCode, code)
	}
}

// WireCode returns the numeric power code.
func (p PowerState) WireCode() byte {
	if p == PowerOn {
		return WirePowerOn
	}
	return WirePowerOff
}

// Valid reports whether p is one of the enumerated power states.
func (p PowerState) Valid() bool {
	return p == PowerOff || p == PowerOn
}

// String returns the power state name.
func (p PowerState) String() string {
	switch p {
	case PowerOff:
		return "OFF"
	case PowerOn:
		return "ON"
	default:
		return "UNKNOWN"
	}
}
