package dispatch

import (
	"context"
	"fmt"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/programming"
)

func defaultCommands() map[cbus.Opcode]commandHandler {
	return map[cbus.Opcode]commandHandler{
		// Service mode programming
		cbus.OpQCVS: handleReadCV,
		cbus.OpWCVS: handleWriteCV,

		// Track power
		cbus.OpRTON:  handleTrackOn,
		cbus.OpRTOF:  handleTrackOff,
		cbus.OpRESTP: handleEmergencyStop,

		// Loco sessions
		cbus.OpRLOC:  handleRequestLoco,
		cbus.OpGLOC:  handleGetLoco,
		cbus.OpKLOC:  handleReleaseLoco,
		cbus.OpDKEEP: handleKeepAlive,
		cbus.OpQLOC:  handleQueryLoco,
		cbus.OpDSPD:  handleSpeed,
		cbus.OpSTMOD: handleSpeedMode,
		cbus.OpDFUN:  handleFunctions,
		cbus.OpDFNON: handleFunctionOn,
		cbus.OpDFNOF: handleFunctionOff,

		// Raw DCC packets
		cbus.OpRDCC3: handleRawPacket,
		cbus.OpRDCC4: handleRawPacket,
		cbus.OpRDCC5: handleRawPacket,
		cbus.OpRDCC6: handleRawPacket,

		// Queries
		cbus.OpRSTAT: handleQuery,
		cbus.OpQNN:   handleQuery,

		// Node management
		cbus.OpBOOTM: handleBootMode,
	}
}

// QCVS: session, CV hi, CV lo, mode.
func handleReadCV(_ *Dispatcher, f cbus.Frame, m *programming.Machine) Outcome {
	return startProgramming(f, m, programming.OpRead)
}

// WCVS: session, CV hi, CV lo, mode, value.
func handleWriteCV(_ *Dispatcher, f cbus.Frame, m *programming.Machine) Outcome {
	return startProgramming(f, m, programming.OpWrite)
}

func startProgramming(f cbus.Frame, m *programming.Machine, op programming.Op) Outcome {
	out := Outcome{
		Handle: f.Byte(1),
		Op:     op,
		CV:     programming.CVAddress(f.Uint16(2)),
		Value:  f.Byte(5),
	}

	mode, err := programming.ModeFromWire(f.Byte(4))
	if err != nil {
		out.Kind = OutcomeRejected
		out.Err = fmt.Errorf("%w: %w", programming.ErrInvalidMode, err)
		return out
	}
	out.Mode = mode

	opened := m.Mode() == programming.ModeIdle
	if err := m.EnterSession(mode, out.CV, out.Handle); err != nil {
		out.Kind = OutcomeRejected
		out.Err = err
		return out
	}

	if op == programming.OpWrite {
		err = m.WriteCV(out.Value)
	} else {
		err = m.ReadCV()
	}
	if err != nil {
		// A session opened here that never started an operation must not
		// hold the programming track until it times out.
		if opened {
			m.ExitMode()
		}
		out.Kind = OutcomeRejected
		out.Err = err
		return out
	}

	out.Kind = OutcomeProgrammingStarted
	return out
}

func handleTrackOn(_ *Dispatcher, _ cbus.Frame, m *programming.Machine) Outcome {
	return setPower(programming.PowerOn, m)
}

func handleTrackOff(_ *Dispatcher, _ cbus.Frame, m *programming.Machine) Outcome {
	return setPower(programming.PowerOff, m)
}

func setPower(p programming.PowerState, m *programming.Machine) Outcome {
	aborted, err := m.SetPower(p)
	if err != nil {
		return Outcome{Kind: OutcomeRejected, Err: err}
	}
	out := Outcome{Kind: OutcomePowerChanged, Power: p}
	if aborted != nil {
		out.Kind = OutcomeSessionAborted
		out.Aborted = aborted
		out.Handle = aborted.Handle
		out.CV = aborted.CV
	}
	return out
}

func handleEmergencyStop(d *Dispatcher, _ cbus.Frame, _ *programming.Machine) Outcome {
	if d.throttles == nil {
		return Outcome{Kind: OutcomeRejected, Err: ErrNoThrottles}
	}
	d.throttles.StopAll()
	return Outcome{Kind: OutcomeEmergencyStop}
}

// throttle runs fn against the attached Throttles and wraps the result.
func (d *Dispatcher) throttle(session uint8, fn func(Throttles) (*LocoReport, error)) Outcome {
	if d.throttles == nil {
		return Outcome{Kind: OutcomeRejected, Handle: session, Err: ErrNoThrottles}
	}
	report, err := fn(d.throttles)
	return Outcome{Kind: OutcomeThrottle, Handle: session, Loco: report, Err: err}
}

func acquire(addr uint16, mode AcquireMode) func(Throttles) (*LocoReport, error) {
	return func(t Throttles) (*LocoReport, error) {
		r, err := t.Acquire(addr, mode)
		if err != nil {
			return nil, err
		}
		return &r, nil
	}
}

// RLOC: addr hi, addr lo.
func handleRequestLoco(d *Dispatcher, f cbus.Frame, _ *programming.Machine) Outcome {
	return d.throttle(0, acquire(f.Uint16(1), AcquireNormal))
}

// GLOC: addr hi, addr lo, flags (bit 0 steal, bit 1 share).
func handleGetLoco(d *Dispatcher, f cbus.Frame, _ *programming.Machine) Outcome {
	mode := AcquireNormal
	switch f.Byte(3) & 0x03 {
	case 0x01:
		mode = AcquireSteal
	case 0x02:
		mode = AcquireShare
	case 0x03:
		return Outcome{
			Kind: OutcomeThrottle,
			Err:  cbus.AddressError(cbus.ErrCodeInvalidRequest, f.Uint16(1)),
		}
	}
	return d.throttle(0, acquire(f.Uint16(1), mode))
}

func handleReleaseLoco(d *Dispatcher, f cbus.Frame, _ *programming.Machine) Outcome {
	s := f.Byte(1)
	return d.throttle(s, func(t Throttles) (*LocoReport, error) {
		return nil, t.Release(s)
	})
}

func handleKeepAlive(d *Dispatcher, f cbus.Frame, _ *programming.Machine) Outcome {
	s := f.Byte(1)
	return d.throttle(s, func(t Throttles) (*LocoReport, error) {
		return nil, t.KeepAlive(s)
	})
}

func handleQueryLoco(d *Dispatcher, f cbus.Frame, _ *programming.Machine) Outcome {
	s := f.Byte(1)
	return d.throttle(s, func(t Throttles) (*LocoReport, error) {
		r, err := t.Query(s)
		if err != nil {
			return nil, err
		}
		return &r, nil
	})
}

func handleSpeed(d *Dispatcher, f cbus.Frame, _ *programming.Machine) Outcome {
	s := f.Byte(1)
	return d.throttle(s, func(t Throttles) (*LocoReport, error) {
		return nil, t.SetSpeedDir(s, f.Byte(2))
	})
}

func handleSpeedMode(d *Dispatcher, f cbus.Frame, _ *programming.Machine) Outcome {
	s := f.Byte(1)
	return d.throttle(s, func(t Throttles) (*LocoReport, error) {
		return nil, t.SetSpeedMode(s, f.Byte(2))
	})
}

func handleFunctions(d *Dispatcher, f cbus.Frame, _ *programming.Machine) Outcome {
	s := f.Byte(1)
	return d.throttle(s, func(t Throttles) (*LocoReport, error) {
		return nil, t.SetFunctions(s, f.Byte(2), f.Byte(3))
	})
}

func handleFunctionOn(d *Dispatcher, f cbus.Frame, _ *programming.Machine) Outcome {
	s := f.Byte(1)
	return d.throttle(s, func(t Throttles) (*LocoReport, error) {
		return nil, t.SetFunction(s, f.Byte(2), true)
	})
}

func handleFunctionOff(d *Dispatcher, f cbus.Frame, _ *programming.Machine) Outcome {
	s := f.Byte(1)
	return d.throttle(s, func(t Throttles) (*LocoReport, error) {
		return nil, t.SetFunction(s, f.Byte(2), false)
	})
}

// RDCCn: repeat count, then n DCC packet bytes including the checksum.
func handleRawPacket(d *Dispatcher, f cbus.Frame, _ *programming.Machine) Outcome {
	if d.accessories == nil {
		return Outcome{Kind: OutcomeRejected, Err: ErrNoAccessories}
	}
	data := f.Payload()
	if len(data) < 3 {
		return Outcome{Kind: OutcomeUnrecognized}
	}
	if err := d.accessories.SendPacket(data[1], data[2:]); err != nil {
		return Outcome{Kind: OutcomeRejected, Err: err}
	}
	return Outcome{Kind: OutcomeAccessory}
}

func handleQuery(d *Dispatcher, _ cbus.Frame, m *programming.Machine) Outcome {
	return Outcome{Kind: OutcomeQuery, Status: d.Status(m), Power: m.Power(), Mode: m.Mode()}
}

// BOOTM: node hi, node lo.
func handleBootMode(d *Dispatcher, f cbus.Frame, _ *programming.Machine) Outcome {
	if f.Uint16(1) != d.config.NodeNumber {
		return Outcome{Kind: OutcomeIgnored}
	}
	return d.deferBootloader()
}

// handleBootControl accepts the bootloader control frame addressed to a
// running node as a request to restart into the bootloader.
func handleBootControl(d *Dispatcher, _ cbus.Frame, _ *programming.Machine) Outcome {
	return d.deferBootloader()
}

func (d *Dispatcher) deferBootloader() Outcome {
	if d.bootloader == nil {
		return Outcome{Kind: OutcomeRejected, Err: ErrNoBootloader}
	}
	b := d.bootloader
	return Outcome{
		Kind: OutcomeDeferred,
		FollowUp: func(ctx context.Context) error {
			return b.EnterBootloader(ctx)
		},
	}
}
