package track

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cbus-station/cancmd-go/pkg/programming"
)

// Simulator defaults.
const (
	DefaultQueueSize = 4
	DefaultLatency   = 50 * time.Millisecond
)

// Config configures a Simulator.
type Config struct {
	// QueueSize bounds the number of queued requests.
	QueueSize int

	// Latency is the simulated time to run one operation on the track.
	Latency time.Duration
}

// DefaultConfig returns the default simulator configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize: DefaultQueueSize,
		Latency:   DefaultLatency,
	}
}

// Simulator is a programming.Programmer backed by a simulated decoder.
type Simulator struct {
	config  Config
	decoder *Decoder
	jobs    chan programming.Request

	onResult func(programming.Result)
	logger   *slog.Logger

	overload atomic.Bool

	mu sync.Mutex
}

var _ programming.Programmer = (*Simulator)(nil)

// NewSimulator creates a simulator for the decoder. onResult receives every
// completed request from the worker goroutine.
func NewSimulator(config Config, decoder *Decoder, onResult func(programming.Result)) *Simulator {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	if config.Latency < 0 {
		config.Latency = 0
	}
	if decoder == nil {
		decoder = NewDecoder()
	}
	return &Simulator{
		config:   config,
		decoder:  decoder,
		jobs:     make(chan programming.Request, config.QueueSize),
		onResult: onResult,
	}
}

// SetLogger sets the logger for debug output.
func (s *Simulator) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Decoder returns the simulated decoder.
func (s *Simulator) Decoder() *Decoder {
	return s.decoder
}

// SetOverload makes every following operation fail with an overload.
func (s *Simulator) SetOverload(overload bool) {
	s.overload.Store(overload)
}

// Submit queues a request. It never blocks. Queued requests are executed
// once Run is active.
func (s *Simulator) Submit(req programming.Request) error {
	select {
	case s.jobs <- req:
		return nil
	default:
		return programming.ErrProgrammerBusy
	}
}

// Run executes queued requests until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-s.jobs:
			if !s.wait(ctx) {
				return ctx.Err()
			}
			s.execute(req)
		}
	}
}

func (s *Simulator) wait(ctx context.Context) bool {
	if s.config.Latency == 0 {
		return true
	}
	t := time.NewTimer(s.config.Latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Simulator) execute(req programming.Request) {
	res := programming.Result{Request: req}
	if s.overload.Load() {
		res.Err = programming.ErrOverload
	} else {
		res.Value, res.Err = s.decoder.apply(req)
	}

	s.debugLog("track: operation complete",
		"op", req.Op, "mode", req.Mode, "cv", req.CV, "value", res.Value, "error", res.Err)

	if s.onResult != nil {
		s.onResult(res)
	}
}

func (s *Simulator) debugLog(msg string, args ...any) {
	s.mu.Lock()
	logger := s.logger
	s.mu.Unlock()
	if logger != nil {
		logger.Debug(msg, args...)
	}
}
