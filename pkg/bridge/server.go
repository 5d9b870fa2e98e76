package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/gridconnect"
	"github.com/cbus-station/cancmd-go/pkg/log"
)

// Defaults.
const (
	// DefaultPort is the conventional CBUS GridConnect server port.
	DefaultPort = 5550

	// DefaultMaxClients bounds concurrent connections.
	DefaultMaxClients = 16

	// DefaultSendQueue is the per-client outbound frame queue.
	DefaultSendQueue = 64
)

// Server errors.
var (
	ErrAlreadyRunning = errors.New("bridge already running")
	ErrTooManyClients = errors.New("too many bridge clients")
)

// Config configures a bridge server.
type Config struct {
	// Address to listen on (e.g., ":5550").
	Address string

	// MaxClients bounds concurrent connections. Extra clients are closed
	// on accept.
	MaxClients int

	// SendQueue is the per-client outbound queue length.
	SendQueue int

	// Forward relays frames from one client to all other clients.
	Forward bool

	// Logger for protocol logging (optional).
	Logger log.Logger

	// OnConnect is called when a client connects.
	OnConnect func(conn *Conn)

	// OnDisconnect is called when a client disconnects.
	OnDisconnect func(conn *Conn)

	// OnFrame is called for every valid frame a client sends.
	OnFrame func(conn *Conn, f cbus.Frame)

	// OnError is called when an error occurs. conn is nil for listener
	// errors.
	OnError func(conn *Conn, err error)
}

// Server is a GridConnect TCP hub.
type Server struct {
	config   Config
	listener net.Listener

	conns   map[*Conn]struct{}
	connsMu sync.RWMutex

	dropped atomic.Uint64

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a bridge server.
func NewServer(config Config) *Server {
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxClients <= 0 {
		config.MaxClients = DefaultMaxClients
	}
	if config.SendQueue <= 0 {
		config.SendQueue = DefaultSendQueue
	}
	config.Logger = log.OrNoop(config.Logger)
	return &Server{
		config: config,
		conns:  make(map[*Conn]struct{}),
	}
}

// Start starts listening and accepting clients.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return ErrAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.listener = listener
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop closes the listener and all clients.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}
	s.running.Store(false)
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// Port returns the listen port, or 0 when not listening.
func (s *Server) Port() int {
	if tcp, ok := s.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// ConnectionCount returns the number of connected clients.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// Dropped returns the number of frames dropped on full client queues.
func (s *Server) Dropped() uint64 {
	return s.dropped.Load()
}

// Transmit broadcasts a station frame to all clients. It never blocks.
func (s *Server) Transmit(f cbus.Frame) error {
	s.broadcast(f, nil)
	return nil
}

func (s *Server) broadcast(f cbus.Frame, except *Conn) {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	for c := range s.conns {
		if c == except {
			continue
		}
		if !c.enqueue(f) {
			s.dropped.Add(1)
		}
	}
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() && s.config.OnError != nil {
				s.config.OnError(nil, fmt.Errorf("accept error: %w", err))
			}
			continue
		}

		if s.ConnectionCount() >= s.config.MaxClients {
			conn.Close()
			if s.config.OnError != nil {
				s.config.OnError(nil, fmt.Errorf("%w: %s", ErrTooManyClients, conn.RemoteAddr()))
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(nc net.Conn) {
	defer s.wg.Done()

	connID := uuid.New().String()
	reader := gridconnect.NewReader(nc)
	writer := gridconnect.NewWriter(nc)
	reader.SetLogger(s.config.Logger, connID)
	writer.SetLogger(s.config.Logger, connID)

	c := &Conn{
		conn:       nc,
		reader:     reader,
		writer:     writer,
		server:     s,
		sendCh:     make(chan cbus.Frame, s.config.SendQueue),
		closeCh:    make(chan struct{}),
		remoteAddr: nc.RemoteAddr(),
		connID:     connID,
	}

	s.logState(c, "", "CONNECTED")

	s.connsMu.Lock()
	s.conns[c] = struct{}{}
	s.connsMu.Unlock()

	if s.config.OnConnect != nil {
		s.config.OnConnect(c)
	}

	s.wg.Add(1)
	go c.writeLoop()
	c.readLoop()
	c.Close()

	s.connsMu.Lock()
	delete(s.conns, c)
	s.connsMu.Unlock()

	s.logState(c, "CONNECTED", "DISCONNECTED")

	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(c)
	}
}

func (s *Server) logState(c *Conn, oldState, newState string) {
	s.config.Logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		RemoteAddr:   c.remoteAddr.String(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
		},
	})
}

// Conn is one bridge client.
type Conn struct {
	conn       net.Conn
	reader     *gridconnect.Reader
	writer     *gridconnect.Writer
	server     *Server
	sendCh     chan cbus.Frame
	closeCh    chan struct{}
	closeOnce  sync.Once
	remoteAddr net.Addr
	connID     string
}

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// ConnID returns the unique connection identifier.
func (c *Conn) ConnID() string {
	return c.connID
}

// Send queues a frame for this client only. It reports false when the
// queue is full.
func (c *Conn) Send(f cbus.Frame) bool {
	return c.enqueue(f)
}

// Close closes the connection.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

func (c *Conn) enqueue(f cbus.Frame) bool {
	select {
	case <-c.closeCh:
		return false
	default:
	}
	select {
	case c.sendCh <- f:
		return true
	default:
		return false
	}
}

func (c *Conn) writeLoop() {
	defer c.server.wg.Done()
	for {
		select {
		case <-c.closeCh:
			return
		case f := <-c.sendCh:
			if err := c.writer.WriteFrame(f); err != nil {
				c.reportError(err)
				c.Close()
				return
			}
		}
	}
}

func (c *Conn) readLoop() {
	s := c.server
	for {
		select {
		case <-c.closeCh:
			return
		case <-s.ctx.Done():
			return
		default:
		}

		f, err := c.reader.ReadFrame()
		if err != nil {
			if errors.Is(err, gridconnect.ErrMalformed) || errors.Is(err, gridconnect.ErrFrameTooLong) {
				c.reportError(err)
				continue
			}
			if !errors.Is(err, io.EOF) {
				c.reportError(err)
			}
			return
		}

		if s.config.OnFrame != nil {
			s.config.OnFrame(c, f)
		}
		if s.config.Forward {
			s.broadcast(f, c)
		}
	}
}

func (c *Conn) reportError(err error) {
	s := c.server
	if s.config.OnError == nil || !s.running.Load() {
		return
	}
	select {
	case <-c.closeCh:
		// Already closing, don't report
	default:
		s.config.OnError(c, err)
	}
}
