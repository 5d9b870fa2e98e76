package dispatch

import (
	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/programming"
)

func defaultEvents() map[cbus.Opcode]commandHandler {
	return map[cbus.Opcode]commandHandler{
		cbus.OpACON: longEvent(true),
		cbus.OpACOF: longEvent(false),
		cbus.OpASON: shortEvent(true),
		cbus.OpASOF: shortEvent(false),
	}
}

// ACON/ACOF: node hi, node lo, event hi, event lo.
func longEvent(on bool) commandHandler {
	return func(d *Dispatcher, f cbus.Frame, _ *programming.Machine) Outcome {
		return d.accessoryEvent(f.Uint16(1), f.Uint16(3), false, on)
	}
}

// ASON/ASOF: node hi, node lo (sender), device hi, device lo.
func shortEvent(on bool) commandHandler {
	return func(d *Dispatcher, f cbus.Frame, _ *programming.Machine) Outcome {
		return d.accessoryEvent(f.Uint16(1), f.Uint16(3), true, on)
	}
}

func (d *Dispatcher) accessoryEvent(node, event uint16, short, on bool) Outcome {
	addr, ok := d.config.Events.Lookup(node, event, short)
	if !ok || d.accessories == nil {
		return Outcome{Kind: OutcomeIgnored}
	}
	if err := d.accessories.Switch(addr, on); err != nil {
		return Outcome{Kind: OutcomeRejected, Err: err}
	}
	return Outcome{Kind: OutcomeAccessory}
}

// enumeration handles zero-length frames: an RTR request asks every node
// for its CAN ID, a plain frame is another node's answer.
func (d *Dispatcher) enumeration(f cbus.Frame) Outcome {
	if cbus.IsEnumerationRequest(f) {
		return Outcome{Kind: OutcomeEnumeration}
	}
	if f.CANID() == d.config.CANID {
		return Outcome{Kind: OutcomeRejected, Err: ErrCANIDConflict}
	}
	return Outcome{Kind: OutcomeIgnored}
}
