package locos

import (
	"sort"
	"sync"
	"time"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/dispatch"
)

// Defaults.
const (
	DefaultMaxSessions      = 32
	DefaultKeepAliveTimeout = 60 * time.Second
)

// Address limits.
const (
	// LongAddressFlag marks a long (14-bit) address in CBUS address bytes.
	LongAddressFlag uint16 = 0xC000

	// MaxLongAddress is the highest DCC long address.
	MaxLongAddress = 10239

	// MaxShortAddress is the highest DCC short address.
	MaxShortAddress = 127
)

// Speed step modes carried in the low bits of STMOD.
const (
	SpeedSteps128 byte = 0
	SpeedSteps14  byte = 1
	SpeedSteps28I byte = 2
	SpeedSteps28  byte = 3
)

// Function ranges used by DFUN.
const (
	FnRangeF0F4   byte = 1
	FnRangeF5F8   byte = 2
	FnRangeF9F12  byte = 3
	FnRangeF13F20 byte = 4
	FnRangeF21F28 byte = 5
)

// MaxFunction is the highest function number.
const MaxFunction = 28

// emergencyStopSpeed is the DCC speed code for an emergency stop.
const emergencyStopSpeed byte = 1

// Config configures a Table.
type Config struct {
	MaxSessions      int           `yaml:"max_sessions" toml:"max_sessions"`
	KeepAliveTimeout time.Duration `yaml:"keepalive_timeout" toml:"keepalive_timeout"`
}

// DefaultConfig returns the default table configuration.
func DefaultConfig() Config {
	return Config{
		MaxSessions:      DefaultMaxSessions,
		KeepAliveTimeout: DefaultKeepAliveTimeout,
	}
}

// Session is one allocated loco session.
type Session struct {
	Handle    uint8
	Address   uint16 // CBUS form, long addresses carry LongAddressFlag
	SpeedDir  byte
	SpeedMode byte
	Functions uint32 // bit n is function Fn
	Sharers   int    // throttles sharing the session besides the owner
	LastSeen  time.Time
}

// Forward reports whether the direction bit is set.
func (s Session) Forward() bool {
	return s.SpeedDir&0x80 != 0
}

// Speed returns the speed code without the direction bit.
func (s Session) Speed() byte {
	return s.SpeedDir & 0x7F
}

// Function reports the state of function fn.
func (s Session) Function(fn int) bool {
	return fn >= 0 && fn <= MaxFunction && s.Functions&(1<<fn) != 0
}

// Report builds the PLOC content for the session.
func (s Session) Report() dispatch.LocoReport {
	f := s.Functions
	return dispatch.LocoReport{
		Session:  s.Handle,
		Address:  s.Address,
		SpeedDir: s.SpeedDir,
		Fn1:      byte(f&1)<<4 | byte(f>>1)&0x0F,
		Fn2:      byte(f>>5) & 0x0F,
		Fn3:      byte(f>>9) & 0x0F,
	}
}

// Table is the loco session table. It is safe for concurrent use.
type Table struct {
	config Config
	now    func() time.Time

	mu       sync.Mutex
	sessions map[uint8]*Session
	byAddr   map[uint16]uint8
	stopped  bool
}

var _ dispatch.Throttles = (*Table)(nil)

// NewTable creates an empty session table.
func NewTable(config Config) *Table {
	if config.MaxSessions <= 0 || config.MaxSessions > 255 {
		config.MaxSessions = DefaultMaxSessions
	}
	if config.KeepAliveTimeout <= 0 {
		config.KeepAliveTimeout = DefaultKeepAliveTimeout
	}
	return &Table{
		config:   config,
		now:      time.Now,
		sessions: make(map[uint8]*Session),
		byAddr:   make(map[uint16]uint8),
	}
}

func validAddress(addr uint16) bool {
	if addr&LongAddressFlag == LongAddressFlag {
		a := addr &^ LongAddressFlag
		return a > 0 && a <= MaxLongAddress
	}
	return addr > 0 && addr <= MaxShortAddress
}

// Acquire allocates a session for addr (RLOC and GLOC).
func (t *Table) Acquire(addr uint16, mode dispatch.AcquireMode) (dispatch.LocoReport, error) {
	if !validAddress(addr) {
		return dispatch.LocoReport{}, cbus.AddressError(cbus.ErrCodeInvalidRequest, addr)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if h, ok := t.byAddr[addr]; ok {
		s := t.sessions[h]
		switch mode {
		case dispatch.AcquireSteal:
			s.Sharers = 0
		case dispatch.AcquireShare:
			s.Sharers++
		default:
			return dispatch.LocoReport{}, cbus.AddressError(cbus.ErrCodeLocoAddressTaken, addr)
		}
		s.LastSeen = t.now()
		return s.Report(), nil
	}

	h, ok := t.freeHandle()
	if !ok {
		return dispatch.LocoReport{}, cbus.AddressError(cbus.ErrCodeLocoStackFull, addr)
	}
	s := &Session{
		Handle:   h,
		Address:  addr,
		SpeedDir: 0x80,
		LastSeen: t.now(),
	}
	t.sessions[h] = s
	t.byAddr[addr] = h
	t.stopped = false
	return s.Report(), nil
}

// freeHandle returns the lowest unused handle. Handles start at 1.
func (t *Table) freeHandle() (uint8, bool) {
	for h := 1; h <= t.config.MaxSessions; h++ {
		if _, used := t.sessions[uint8(h)]; !used {
			return uint8(h), true
		}
	}
	return 0, false
}

func (t *Table) lookup(session uint8) (*Session, error) {
	s, ok := t.sessions[session]
	if !ok {
		return nil, cbus.SessionError(cbus.ErrCodeSessionNotPresent, session)
	}
	return s, nil
}

// touch runs fn against a session and refreshes its keepalive.
func (t *Table) touch(session uint8, fn func(s *Session) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.lookup(session)
	if err != nil {
		return err
	}
	if fn != nil {
		if err := fn(s); err != nil {
			return err
		}
	}
	s.LastSeen = t.now()
	return nil
}

// Release ends a session (KLOC). A shared session stays allocated until
// its last throttle releases it.
func (t *Table) Release(session uint8) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.lookup(session)
	if err != nil {
		return err
	}
	if s.Sharers > 0 {
		s.Sharers--
		return nil
	}
	t.remove(s)
	return nil
}

func (t *Table) remove(s *Session) {
	delete(t.sessions, s.Handle)
	delete(t.byAddr, s.Address)
}

// KeepAlive refreshes a session (DKEEP).
func (t *Table) KeepAlive(session uint8) error {
	return t.touch(session, nil)
}

// Query returns the engine report for a session (QLOC).
func (t *Table) Query(session uint8) (dispatch.LocoReport, error) {
	var r dispatch.LocoReport
	err := t.touch(session, func(s *Session) error {
		r = s.Report()
		return nil
	})
	return r, err
}

// SetSpeedDir sets speed and direction (DSPD).
func (t *Table) SetSpeedDir(session uint8, speedDir byte) error {
	return t.touch(session, func(s *Session) error {
		s.SpeedDir = speedDir
		return nil
	})
}

// SetSpeedMode sets the speed step mode (STMOD).
func (t *Table) SetSpeedMode(session uint8, flags byte) error {
	return t.touch(session, func(s *Session) error {
		s.SpeedMode = flags & 0x03
		return nil
	})
}

// SetFunctions replaces one function range (DFUN).
func (t *Table) SetFunctions(session uint8, fnRange byte, bits byte) error {
	var shift, width uint
	var value uint32
	switch fnRange {
	case FnRangeF0F4:
		// F0 is bit 4, F1-F4 are bits 0-3.
		shift, width = 0, 5
		value = uint32(bits>>4)&1 | uint32(bits&0x0F)<<1
	case FnRangeF5F8:
		shift, width, value = 5, 4, uint32(bits&0x0F)
	case FnRangeF9F12:
		shift, width, value = 9, 4, uint32(bits&0x0F)
	case FnRangeF13F20:
		shift, width, value = 13, 8, uint32(bits)
	case FnRangeF21F28:
		shift, width, value = 21, 8, uint32(bits)
	default:
		return cbus.SessionError(cbus.ErrCodeInvalidRequest, session)
	}

	mask := (uint32(1)<<width - 1) << shift
	return t.touch(session, func(s *Session) error {
		s.Functions = s.Functions&^mask | value<<shift
		return nil
	})
}

// SetFunction switches one function (DFNON, DFNOF).
func (t *Table) SetFunction(session uint8, fn byte, on bool) error {
	if fn > MaxFunction {
		return cbus.SessionError(cbus.ErrCodeInvalidRequest, session)
	}
	return t.touch(session, func(s *Session) error {
		if on {
			s.Functions |= 1 << fn
		} else {
			s.Functions &^= 1 << fn
		}
		return nil
	})
}

// StopAll emergency-stops every loco, keeping its direction (RESTP).
func (t *Table) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.sessions {
		s.SpeedDir = s.SpeedDir&0x80 | emergencyStopSpeed
	}
	t.stopped = true
}

// Stopped reports whether an emergency stop is in force. It clears when a
// new session is allocated.
func (t *Table) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Expire releases sessions without a keepalive within the timeout and
// returns their handles in ascending order.
func (t *Table) Expire() []uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.config.KeepAliveTimeout)
	var expired []uint8
	for h, s := range t.sessions {
		if s.LastSeen.Before(cutoff) {
			t.remove(s)
			expired = append(expired, h)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i] < expired[j] })
	return expired
}

// Sessions returns a copy of all sessions ordered by handle.
func (t *Table) Sessions() []Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// Len returns the number of allocated sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
