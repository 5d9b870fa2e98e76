package programming

import (
	"errors"
	"fmt"
	"time"
)

// Transition errors. Every rejected request returns one of these, possibly
// wrapped with context.
var (
	ErrModeConflict     = errors.New("another programming mode is active")
	ErrPowerRequired    = errors.New("track power required for mode")
	ErrNoActiveSession  = errors.New("no active programming session")
	ErrInvalidMode      = errors.New("invalid programming mode")
	ErrInvalidPower     = errors.New("invalid power state")
	ErrCVOutOfRange     = errors.New("CV out of range for mode")
	ErrOperationPending = errors.New("CV operation already pending")
	ErrStaleResult      = errors.New("result does not match pending operation")
	ErrNoProgrammer     = errors.New("no programmer attached")
)

// Reason explains why a transition happened.
type Reason uint8

const (
	ReasonEnter Reason = iota + 1
	ReasonAddressUpdate
	ReasonExit
	ReasonCompleted
	ReasonTimeout
	ReasonPowerOff
	ReasonPowerChange
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonEnter:
		return "ENTER"
	case ReasonAddressUpdate:
		return "ADDRESS_UPDATE"
	case ReasonExit:
		return "EXIT"
	case ReasonCompleted:
		return "COMPLETED"
	case ReasonTimeout:
		return "TIMEOUT"
	case ReasonPowerOff:
		return "ABORTED_POWER_OFF"
	case ReasonPowerChange:
		return "POWER_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// Session is the programming session attached to a non-Idle mode.
type Session struct {
	// Handle is the CBUS session byte of the throttle that opened it.
	Handle uint8

	// CV is the configuration variable under programming.
	CV CVAddress

	// Value buffers the last byte written or read back.
	Value    byte
	HasValue bool

	// Pending is the operation handed to the programmer, or 0.
	Pending Op

	// Seq is the submission number of the pending operation.
	Seq uint32

	// StartedAt is when the session was entered.
	StartedAt time.Time
}

// State is the command station state owned by a Machine.
// Session is non-nil exactly when Mode is not Idle.
type State struct {
	Mode    Mode
	Power   PowerState
	Session *Session
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	if s.Session != nil {
		sess := *s.Session
		s.Session = &sess
	}
	return s
}

// Transition describes an accepted state change.
type Transition struct {
	From   State
	To     State
	Reason Reason
}

// Machine is the programming mode state machine.
//
// A session carries one CV operation: Complete closes it, so every QCVS or
// WCVS opens a fresh session. A session belongs to the handle that opened
// it and only that handle may re-address it.
type Machine struct {
	state      State
	programmer Programmer
	now        func() time.Time
	seq        uint32

	onTransition func(Transition)
}

// NewMachine creates a machine in Idle with power off.
func NewMachine(p Programmer) *Machine {
	return &Machine{
		state:      State{Mode: ModeIdle, Power: PowerOff},
		programmer: p,
		now:        time.Now,
	}
}

// OnTransition sets a callback invoked after every accepted transition.
func (m *Machine) OnTransition(fn func(Transition)) {
	m.onTransition = fn
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	return m.state.Clone()
}

// Mode returns the active mode.
func (m *Machine) Mode() Mode {
	return m.state.Mode
}

// Power returns the track power state.
func (m *Machine) Power() PowerState {
	return m.state.Power
}

// Session returns a copy of the active session.
func (m *Machine) Session() (Session, bool) {
	if m.state.Session == nil {
		return Session{}, false
	}
	return *m.state.Session, true
}

// EnterMode opens a session in target for the given CV.
func (m *Machine) EnterMode(target Mode, cv CVAddress) error {
	return m.EnterSession(target, cv, 0)
}

// EnterSession opens a session in target for the given CV on behalf of a
// throttle session handle. It is legal from Idle or from target itself, in
// which case the owning handle's CV is refreshed.
func (m *Machine) EnterSession(target Mode, cv CVAddress, handle uint8) error {
	if target == ModeIdle || !target.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidMode, target)
	}
	if m.state.Mode != ModeIdle && m.state.Mode != target {
		return fmt.Errorf("%w: %s active, %s requested", ErrModeConflict, m.state.Mode, target)
	}
	if RequiresPower(target) && m.state.Power != PowerOn {
		return fmt.Errorf("%w: %s", ErrPowerRequired, target)
	}
	if cv < 1 || cv > MaxCV(target) {
		return fmt.Errorf("%w: CV%d in %s", ErrCVOutOfRange, cv, target)
	}

	from := m.state.Clone()

	if m.state.Mode == target {
		if m.state.Session.Handle != handle {
			return fmt.Errorf("%w: %s held by handle %d", ErrModeConflict, target, m.state.Session.Handle)
		}
		if m.state.Session.Pending != 0 {
			return ErrOperationPending
		}
		m.state.Session.CV = cv
		m.emit(from, ReasonAddressUpdate)
		return nil
	}

	m.state.Mode = target
	m.state.Session = &Session{
		Handle:    handle,
		CV:        cv,
		StartedAt: m.now(),
	}
	m.emit(from, ReasonEnter)
	return nil
}

// ExitMode returns to Idle. It never fails and is a no-op when already
// Idle. The result reports whether a session was closed.
func (m *Machine) ExitMode() bool {
	return m.exit(ReasonExit)
}

// TimeoutSession closes an aged-out session. It is called by an external
// timer and behaves like ExitMode apart from the recorded reason.
func (m *Machine) TimeoutSession() bool {
	return m.exit(ReasonTimeout)
}

// SetPower changes track power. Turning power off while a mode that
// needs power is active first aborts that session; the aborted session is
// returned so callers can report it.
func (m *Machine) SetPower(p PowerState) (*Session, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPower, p)
	}
	if p == m.state.Power {
		return nil, nil
	}

	var aborted *Session
	if p == PowerOff && RequiresPower(m.state.Mode) {
		sess := *m.state.Session
		aborted = &sess
		m.exit(ReasonPowerOff)
	}

	from := m.state.Clone()
	m.state.Power = p
	m.emit(from, ReasonPowerChange)
	return aborted, nil
}

// WriteCV hands a write of value to the programmer for the active session.
func (m *Machine) WriteCV(value byte) error {
	if err := m.submit(OpWrite, value); err != nil {
		return err
	}
	m.state.Session.Value = value
	m.state.Session.HasValue = true
	return nil
}

// ReadCV hands a read of the session CV to the programmer.
func (m *Machine) ReadCV() error {
	return m.submit(OpRead, 0)
}

func (m *Machine) submit(op Op, value byte) error {
	if m.state.Mode == ModeIdle {
		return ErrNoActiveSession
	}
	sess := m.state.Session
	if sess.Pending != 0 {
		return ErrOperationPending
	}
	if m.programmer == nil {
		return ErrNoProgrammer
	}

	req := Request{
		Op:     op,
		Mode:   m.state.Mode,
		CV:     sess.CV,
		Value:  value,
		Handle: sess.Handle,
		Seq:    m.seq + 1,
	}
	if err := m.programmer.Submit(req); err != nil {
		return fmt.Errorf("submit %s CV%d: %w", op, req.CV, err)
	}
	m.seq = req.Seq
	sess.Pending = op
	sess.Seq = req.Seq
	return nil
}

// Complete applies a programmer result to the pending operation and ends
// the session. It returns the session as it was at completion. A result
// for any other submission, including one from an aborted session, is
// rejected with ErrStaleResult and leaves the session untouched.
func (m *Machine) Complete(res Result) (Session, error) {
	sess := m.state.Session
	if m.state.Mode == ModeIdle || sess.Pending == 0 {
		return Session{}, ErrStaleResult
	}
	req := res.Request
	if req.Seq != sess.Seq || req.Handle != sess.Handle ||
		req.Op != sess.Pending || req.Mode != m.state.Mode || req.CV != sess.CV {
		return Session{}, ErrStaleResult
	}

	done := *sess
	done.Pending = 0
	done.Seq = 0
	if res.Err == nil {
		done.Value = res.Value
		done.HasValue = true
	}
	m.exit(ReasonCompleted)
	return done, nil
}

func (m *Machine) exit(reason Reason) bool {
	if m.state.Mode == ModeIdle {
		return false
	}
	from := m.state.Clone()
	m.state.Mode = ModeIdle
	m.state.Session = nil
	m.emit(from, reason)
	return true
}

func (m *Machine) emit(from State, reason Reason) {
	if m.onTransition == nil {
		return
	}
	m.onTransition(Transition{From: from, To: m.state.Clone(), Reason: reason})
}
