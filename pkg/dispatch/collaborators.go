package dispatch

import "context"

// AcquireMode selects how GLOC treats an address that is already in use.
type AcquireMode uint8

const (
	// AcquireNormal fails if the address has a session (RLOC).
	AcquireNormal AcquireMode = iota

	// AcquireSteal takes over the existing session.
	AcquireSteal

	// AcquireShare joins the existing session.
	AcquireShare
)

// String returns the acquire mode name.
func (a AcquireMode) String() string {
	switch a {
	case AcquireNormal:
		return "NORMAL"
	case AcquireSteal:
		return "STEAL"
	case AcquireShare:
		return "SHARE"
	default:
		return "UNKNOWN"
	}
}

// LocoReport is the content of a PLOC engine report.
type LocoReport struct {
	Session  uint8
	Address  uint16 // DCC address; long addresses carry 0xC000
	SpeedDir byte   // bit 7 direction, bits 0-6 speed
	Fn1      byte   // F0 (bit 4) and F1-F4
	Fn2      byte   // F5-F8
	Fn3      byte   // F9-F12
}

// Throttles manages loco sessions for CAB throttles. Methods are called
// from the dispatch context and must not block. Errors should be
// *cbus.CommandError so they can be reported on the bus.
type Throttles interface {
	Acquire(addr uint16, mode AcquireMode) (LocoReport, error)
	Release(session uint8) error
	KeepAlive(session uint8) error
	Query(session uint8) (LocoReport, error)
	SetSpeedDir(session uint8, speedDir byte) error
	SetSpeedMode(session uint8, flags byte) error
	SetFunctions(session uint8, fnRange byte, bits byte) error
	SetFunction(session uint8, fn byte, on bool) error
	StopAll()
}

// Accessories sends DCC accessory and raw packets on the main track.
// Methods queue the packet and return immediately.
type Accessories interface {
	Switch(addr uint16, on bool) error
	SendPacket(repeat uint8, packet []byte) error
}

// Bootloader restarts the station into firmware update mode.
type Bootloader interface {
	EnterBootloader(ctx context.Context) error
}
