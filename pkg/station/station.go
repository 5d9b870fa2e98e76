package station

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/dispatch"
	"github.com/cbus-station/cancmd-go/pkg/log"
	"github.com/cbus-station/cancmd-go/pkg/notify"
	"github.com/cbus-station/cancmd-go/pkg/programming"
)

// Station errors.
var (
	ErrAlreadyRunning = errors.New("station already running")
	ErrNotRunning     = errors.New("station not running")
)

// Transmitter sends frames onto the bus. Transmit must not block.
type Transmitter interface {
	Transmit(f cbus.Frame) error
}

// TransmitterFunc adapts a function to Transmitter.
type TransmitterFunc func(f cbus.Frame) error

// Transmit calls fn(f).
func (fn TransmitterFunc) Transmit(f cbus.Frame) error {
	return fn(f)
}

// expirer is implemented by throttle tables with keepalive expiry.
type expirer interface {
	Expire() []uint8
}

// stopper is implemented by throttle tables that track emergency stop.
type stopper interface {
	Stopped() bool
}

// Status is a published snapshot of the station.
type Status struct {
	State programming.State

	// Flags are the STAT flag bits.
	Flags uint8

	Received uint64
	Dropped  uint64
	Sent     uint64
	TxFailed uint64
}

// Option configures a Station.
type Option func(*Station)

// WithThrottles routes throttle commands to t. Tables that expire idle
// sessions are swept every LocoSweep.
func WithThrottles(t dispatch.Throttles) Option {
	return func(s *Station) {
		s.dispatchOpts = append(s.dispatchOpts, dispatch.WithThrottles(t))
		if e, ok := t.(expirer); ok {
			s.expirer = e
		}
		if st, ok := t.(stopper); ok {
			s.stopper = st
		}
	}
}

// WithAccessories routes accessory commands and events to a.
func WithAccessories(a dispatch.Accessories) Option {
	return func(s *Station) {
		s.dispatchOpts = append(s.dispatchOpts, dispatch.WithAccessories(a))
	}
}

// WithBootloader handles BOOTM and boot control frames.
func WithBootloader(b dispatch.Bootloader) Option {
	return func(s *Station) {
		s.dispatchOpts = append(s.dispatchOpts, dispatch.WithBootloader(b))
	}
}

type inbound struct {
	frame cbus.Frame
	at    time.Time
}

type request struct {
	fn   func()
	done chan struct{}
}

// Station is the serialized command station core.
type Station struct {
	config     Config
	machine    *programming.Machine
	dispatcher *dispatch.Dispatcher
	notifier   *notify.Notifier
	tx         Transmitter

	dispatchOpts []dispatch.Option
	expirer      expirer
	stopper      stopper

	inbound     chan inbound
	completions chan programming.Result
	followUps   chan func(context.Context) error
	requests    chan request

	timer sessionTimer

	started atomic.Bool
	done    chan struct{}

	received atomic.Uint64
	dropped  atomic.Uint64
	sent     uint64
	txFailed uint64
	status   atomic.Pointer[Status]

	logger         *slog.Logger
	protocolLogger log.Logger
}

// New creates a station. p runs programming operations; its completions
// must be handed back through Complete. tx receives every reply frame.
func New(config Config, p programming.Programmer, tx Transmitter, opts ...Option) (*Station, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Station{
		config:         config,
		machine:        programming.NewMachine(p),
		notifier:       notify.New(config.notifyConfig()),
		tx:             tx,
		inbound:        make(chan inbound, config.InboundQueue),
		completions:    make(chan programming.Result, config.CompletionQueue),
		followUps:      make(chan func(context.Context) error, config.FollowUpQueue),
		requests:       make(chan request),
		done:           make(chan struct{}),
		logger:         config.Logger,
		protocolLogger: config.ProtocolLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dispatcher = dispatch.New(config.dispatchConfig(), s.dispatchOpts...)
	s.machine.OnTransition(s.onTransition)
	s.publish()

	return s, nil
}

// Receive queues a frame from the bus. It never blocks: when the queue
// is full the frame is dropped and false is returned.
func (s *Station) Receive(f cbus.Frame) bool {
	select {
	case s.inbound <- inbound{frame: f, at: time.Now()}:
		s.received.Add(1)
		return true
	default:
		s.dropped.Add(1)
		s.debugLog("station: inbound queue full, frame dropped", "frame", f)
		return false
	}
}

// Complete queues a programmer result. It never blocks; a dropped result
// leaves the session to the session timeout.
func (s *Station) Complete(res programming.Result) bool {
	select {
	case s.completions <- res:
		return true
	default:
		s.debugLog("station: completion queue full, result dropped",
			"op", res.Request.Op, "cv", res.Request.CV)
		return false
	}
}

// Do runs fn on the loop goroutine with exclusive access to the machine.
func (s *Station) Do(ctx context.Context, fn func(m *programming.Machine)) error {
	return s.submit(ctx, func() { fn(s.machine) })
}

// SetPower switches track power as if RTON/RTOF had been received, and
// transmits the resulting TON/TOF.
func (s *Station) SetPower(ctx context.Context, p programming.PowerState) error {
	return s.submit(ctx, func() {
		s.handle(s.dispatcher.SetPower(p, s.machine), time.Now())
	})
}

func (s *Station) submit(ctx context.Context, fn func()) error {
	if !s.started.Load() {
		return ErrNotRunning
	}
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case s.requests <- req:
	case <-s.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-req.done:
		return nil
	case <-s.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the latest published snapshot.
func (s *Station) Status() Status {
	st := *s.status.Load()
	st.Received = s.received.Load()
	st.Dropped = s.dropped.Load()
	return st
}

// Run processes queued work until ctx is cancelled. A station runs once.
func (s *Station) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(s.done)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.followUpLoop(ctx)
	}()
	defer wg.Wait()

	var sweep <-chan time.Time
	if s.expirer != nil && s.config.LocoSweep > 0 {
		ticker := time.NewTicker(s.config.LocoSweep)
		defer ticker.Stop()
		sweep = ticker.C
	}
	defer s.timer.stop()

	s.debugLog("station: running", "canID", s.config.CANID, "nodeNumber", s.config.NodeNumber)

	for {
		select {
		case <-ctx.Done():
			s.debugLog("station: stopped")
			return ctx.Err()

		case in := <-s.inbound:
			s.handleFrame(in)

		case res := <-s.completions:
			s.handle(s.dispatcher.Complete(res, s.machine), time.Now())

		case <-s.timer.C():
			s.timer.fired()
			s.handle(s.dispatcher.Timeout(s.machine), time.Now())

		case <-sweep:
			s.expireLocos()

		case req := <-s.requests:
			req.fn()
			s.publish()
			close(req.done)
			continue
		}
		s.publish()
	}
}

func (s *Station) handleFrame(in inbound) {
	s.logFrame(in.frame)
	kind := cbus.Classify(in.frame)
	out := s.dispatcher.Dispatch(kind, in.frame, s.machine)
	s.handle(out, in.at)
}

// handle notifies, logs and schedules the follow-up of one outcome.
func (s *Station) handle(o dispatch.Outcome, since time.Time) {
	reply, ok := s.notifier.Notify(o)
	if ok {
		s.transmit(reply)
	}
	if sstat, abort := s.notifier.Aborted(o); abort {
		s.transmit(sstat)
	}
	if o.Consumed() || o.Err != nil {
		var r *cbus.Frame
		if ok {
			r = &reply
		}
		s.logOutcome(o, r, time.Since(since))
	}
	if o.FollowUp != nil {
		select {
		case s.followUps <- o.FollowUp:
		default:
			s.logError("follow-up", errors.New("follow-up queue full"))
		}
	}
}

func (s *Station) transmit(f cbus.Frame) {
	if s.tx == nil {
		return
	}
	if err := s.tx.Transmit(f); err != nil {
		s.txFailed++
		s.logError("transmit", err)
		return
	}
	s.sent++
}

func (s *Station) expireLocos() {
	for _, h := range s.expirer.Expire() {
		s.debugLog("station: loco session expired", "session", h)
		s.logState(log.StateEntityLocoSession, "ACTIVE", "RELEASED", "KEEPALIVE_TIMEOUT")
		s.handle(dispatch.Outcome{
			Kind:   dispatch.OutcomeThrottle,
			Handle: h,
			Err:    cbus.SessionError(cbus.ErrCodeSessionCancelled, h),
		}, time.Now())
	}
}

func (s *Station) followUpLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.followUps:
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				s.logError("follow-up", err)
			}
		}
	}
}

// onTransition arms the session timer and records state changes. It runs
// on the loop goroutine, inside machine calls.
func (s *Station) onTransition(t programming.Transition) {
	switch {
	case t.To.Mode == programming.ModeIdle:
		s.timer.stop()
	case t.From.Mode == programming.ModeIdle, t.Reason == programming.ReasonAddressUpdate:
		s.timer.arm(s.config.SessionTimeout)
	}

	if t.From.Mode != t.To.Mode || t.Reason == programming.ReasonAddressUpdate {
		s.logState(log.StateEntityProgramming, t.From.Mode.String(), t.To.Mode.String(), t.Reason.String())
	}
	if t.From.Power != t.To.Power {
		s.logState(log.StateEntityPower, t.From.Power.String(), t.To.Power.String(), t.Reason.String())
	}
}

func (s *Station) publish() {
	flags := s.dispatcher.Status(s.machine)
	if s.stopper != nil && s.stopper.Stopped() {
		flags |= cbus.StatusEmergencyStop
	}
	s.status.Store(&Status{
		State:    s.machine.Snapshot(),
		Flags:    flags,
		Sent:     s.sent,
		TxFailed: s.txFailed,
	})
}

func (s *Station) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
