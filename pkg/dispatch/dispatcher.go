package dispatch

import (
	"errors"
	"fmt"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/programming"
)

// Dispatch errors.
var (
	ErrNoThrottles     = errors.New("no throttle handler attached")
	ErrNoAccessories   = errors.New("no accessory handler attached")
	ErrNoBootloader    = errors.New("no bootloader attached")
	ErrCANIDConflict   = errors.New("another node uses our CAN ID")
	ErrStaleCompletion = errors.New("programmer completion has no session")
	ErrInvalidKind     = errors.New("invalid frame kind")
)

type commandHandler func(d *Dispatcher, f cbus.Frame, m *programming.Machine) Outcome

// Dispatcher routes classified frames to handlers. It holds no command
// station state of its own; all state lives in the Machine passed to each
// call. A Dispatcher is used from one goroutine at a time.
type Dispatcher struct {
	config Config

	throttles   Throttles
	accessories Accessories
	bootloader  Bootloader

	commands map[cbus.Opcode]commandHandler
	events   map[cbus.Opcode]commandHandler
	extended map[uint32]commandHandler
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithThrottles attaches the loco session manager.
func WithThrottles(t Throttles) Option {
	return func(d *Dispatcher) { d.throttles = t }
}

// WithAccessories attaches the accessory packet sender.
func WithAccessories(a Accessories) Option {
	return func(d *Dispatcher) { d.accessories = a }
}

// WithBootloader attaches the bootloader entry hook.
func WithBootloader(b Bootloader) Option {
	return func(d *Dispatcher) { d.bootloader = b }
}

// New creates a Dispatcher with the standard handler tables.
func New(config Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		config:   config,
		commands: defaultCommands(),
		events:   defaultEvents(),
		extended: map[uint32]commandHandler{
			cbus.BootControlID: handleBootControl,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}

// Handles reports whether a standard command opcode has a handler.
func (d *Dispatcher) Handles(op cbus.Opcode) bool {
	_, ok := d.commands[op]
	return ok
}

// Dispatch routes f according to its kind. It never blocks and never
// panics on malformed input.
func (d *Dispatcher) Dispatch(kind cbus.Kind, f cbus.Frame, m *programming.Machine) Outcome {
	var out Outcome
	switch kind {
	case cbus.StandardCommand:
		out = d.standard(f, m)
	case cbus.ExtendedCommand:
		out = d.extendedCommand(f, m)
	case cbus.BusEvent:
		out = d.event(f, m)
	case cbus.Unrecognized:
		out = Outcome{Kind: OutcomeUnrecognized}
	default:
		out = Outcome{Kind: OutcomeUnrecognized, Err: fmt.Errorf("%w: %d", ErrInvalidKind, kind)}
	}
	out.Frame = f
	return out
}

// HandleEvent dispatches a bus event and reports whether it was consumed.
func (d *Dispatcher) HandleEvent(f cbus.Frame, m *programming.Machine) bool {
	return d.Dispatch(cbus.BusEvent, f, m).Consumed()
}

func (d *Dispatcher) standard(f cbus.Frame, m *programming.Machine) Outcome {
	op, ok := f.Opcode()
	if !ok || int(f.Len) != op.FrameLen() {
		return Outcome{Kind: OutcomeUnrecognized}
	}
	h, ok := d.commands[op]
	if !ok {
		return Outcome{Kind: OutcomeIgnored, Opcode: op}
	}
	out := h(d, f, m)
	out.Opcode = op
	return out
}

func (d *Dispatcher) extendedCommand(f cbus.Frame, m *programming.Machine) Outcome {
	h, ok := d.extended[f.ID]
	if !ok {
		return Outcome{Kind: OutcomeIgnored}
	}
	return h(d, f, m)
}

func (d *Dispatcher) event(f cbus.Frame, m *programming.Machine) Outcome {
	op, ok := f.Opcode()
	if !ok {
		return d.enumeration(f)
	}
	if int(f.Len) != op.FrameLen() {
		return Outcome{Kind: OutcomeUnrecognized}
	}
	h, ok := d.events[op]
	if !ok {
		return Outcome{Kind: OutcomeIgnored, Opcode: op}
	}
	out := h(d, f, m)
	out.Opcode = op
	return out
}

// Complete turns a programmer result into an outcome and closes the
// session it belongs to.
func (d *Dispatcher) Complete(res programming.Result, m *programming.Machine) Outcome {
	sess, err := m.Complete(res)
	if err != nil {
		return Outcome{Kind: OutcomeIgnored, Err: fmt.Errorf("%w: %w", ErrStaleCompletion, err)}
	}

	out := Outcome{
		Handle: sess.Handle,
		Op:     res.Request.Op,
		Mode:   res.Request.Mode,
		CV:     sess.CV,
		Value:  sess.Value,
	}
	if res.Err != nil {
		out.Kind = OutcomeProgrammingFailed
		out.Err = res.Err
		return out
	}
	out.Kind = OutcomeProgrammingDone
	return out
}

// Timeout closes an aged-out programming session. A session with an
// operation still in flight is reported as failed with no acknowledgement.
func (d *Dispatcher) Timeout(m *programming.Machine) Outcome {
	sess, ok := m.Session()
	if !ok || !m.TimeoutSession() {
		return Outcome{Kind: OutcomeIgnored}
	}
	out := Outcome{
		Kind:   OutcomeSessionEnded,
		Handle: sess.Handle,
		Op:     sess.Pending,
		Mode:   programming.ModeIdle,
		CV:     sess.CV,
	}
	if sess.Pending != 0 {
		out.Err = programming.ErrNoAck
	}
	return out
}

// SetPower applies a power change requested outside the bus, for example
// from the console.
func (d *Dispatcher) SetPower(p programming.PowerState, m *programming.Machine) Outcome {
	return setPower(p, m)
}

// Status returns the STAT flag bits for the current state.
func (d *Dispatcher) Status(m *programming.Machine) uint8 {
	flags := cbus.StatusBusOn
	if m.Power() == programming.PowerOn {
		flags |= cbus.StatusTrackOn
	}
	if m.Mode() != programming.ModeIdle {
		flags |= cbus.StatusServiceMode
	}
	return flags
}
