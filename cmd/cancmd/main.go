// Command cancmd runs a CBUS command station on a GridConnect TCP bridge.
//
// The station answers service-mode programming (QCVS/WCVS), track power,
// loco session and accessory commands from any GridConnect client, such as
// JMRI or another cancmd bridge. Programming runs against a simulated
// decoder; main-track DCC packets are logged.
//
// Usage:
//
//	cancmd [flags]
//
// Flags:
//
//	-c, --config string        Configuration file (.yaml, .yml or .toml)
//	-l, --listen string        GridConnect listen address (default ":5550")
//	    --can-id uint8         Station CAN ID (1-127)
//	    --node uint16          Station node number
//	    --log-level string     Log level: debug, info, warn, error (default "info")
//	    --protocol-log string  File path for protocol event logging (CBOR format)
//	    --no-mdns              Do not advertise the bridge over mDNS
//	-i, --interactive          Start the interactive console
//	    --browse               List bridges advertised on the network and exit
//
// Examples:
//
//	# Start with defaults and an interactive console
//	cancmd -i
//
//	# Start from a config file and capture protocol events
//	cancmd -c /etc/cancmd.yaml --protocol-log /var/log/cancmd.clog
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/cbus-station/cancmd-go/pkg/bridge"
	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/discovery"
	"github.com/cbus-station/cancmd-go/pkg/locos"
	cbuslog "github.com/cbus-station/cancmd-go/pkg/log"
	"github.com/cbus-station/cancmd-go/pkg/programming"
	"github.com/cbus-station/cancmd-go/pkg/station"
	"github.com/cbus-station/cancmd-go/pkg/track"
)

var (
	configFile  = flag.StringP("config", "c", "", "Configuration file (.yaml, .yml or .toml)")
	listen      = flag.StringP("listen", "l", "", "GridConnect listen address")
	canID       = flag.Uint8("can-id", 0, "Station CAN ID (1-127)")
	nodeNumber  = flag.Uint16("node", 0, "Station node number")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error")
	protocolLog = flag.String("protocol-log", "", "File path for protocol event logging (CBOR format)")
	noMDNS      = flag.Bool("no-mdns", false, "Do not advertise the bridge over mDNS")
	interactive = flag.BoolP("interactive", "i", false, "Start the interactive console")
	browse      = flag.Bool("browse", false, "List bridges advertised on the network and exit")
)

func main() {
	flag.Parse()

	if *browse {
		os.Exit(runBrowse())
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var logOut io.Writer = os.Stderr
	var console *Console
	if *interactive {
		console, err = NewConsole()
		if err != nil {
			stdlog.Fatalf("Failed to create console: %v", err)
		}
		// Route log output through readline so it does not break the prompt.
		logOut = console.Stdout()
	}
	logger := setupLogging(logOut, cfg.LogLevel)

	protocolLogger, closeLog, err := setupProtocolLog(cfg, logger)
	if err != nil {
		stdlog.Fatalf("Failed to create protocol logger: %v", err)
	}
	defer closeLog()

	d, err := newDaemon(cfg, logger, protocolLogger, cancel)
	if err != nil {
		stdlog.Fatalf("Failed to create station: %v", err)
	}
	if console != nil {
		d.tx.tap = console.printFrame
	}

	if err := d.start(ctx); err != nil {
		stdlog.Fatalf("Failed to start: %v", err)
	}
	logger.Info("command station running",
		"address", d.server.Addr().String(),
		"canID", cfg.Station.CANID,
		"nodeNumber", cfg.Station.NodeNumber)

	if console != nil {
		console.attach(d)
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig.String())
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	cancel()
	d.stop()
}

func applyFlags(cfg *Config) {
	if *listen != "" {
		cfg.Bridge.Address = *listen
	}
	if *canID != 0 {
		cfg.Station.CANID = *canID
	}
	if *nodeNumber != 0 {
		cfg.Station.NodeNumber = *nodeNumber
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *protocolLog != "" {
		cfg.ProtocolLog = *protocolLog
	}
	if *noMDNS {
		cfg.Advertise = false
	}
}

func setupLogging(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	stdlog.SetOutput(w)
	return logger
}

// setupProtocolLog opens the capture file and, at debug level, mirrors
// protocol events into the operational log.
func setupProtocolLog(cfg Config, logger *slog.Logger) (cbuslog.Logger, func(), error) {
	var loggers []cbuslog.Logger
	closeFn := func() {}

	if cfg.ProtocolLog != "" {
		fl, err := cbuslog.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return nil, closeFn, err
		}
		logger.Info("protocol logging", "path", cfg.ProtocolLog)
		loggers = append(loggers, fl)
		closeFn = func() {
			written, failed := fl.Stats()
			logger.Debug("protocol log closed", "written", written, "failed", failed)
			_ = fl.Close()
		}
	}
	if cfg.LogLevel == "debug" {
		loggers = append(loggers, cbuslog.NewSlogAdapter(logger))
	}

	switch len(loggers) {
	case 0:
		return nil, closeFn, nil
	case 1:
		return loggers[0], closeFn, nil
	default:
		return cbuslog.NewMultiLogger(loggers...), closeFn, nil
	}
}

// tee sends station frames to the bridge and optionally shows them on the
// console.
type tee struct {
	server *bridge.Server
	tap    func(cbus.Frame)
}

func (t *tee) Transmit(f cbus.Frame) error {
	if t.tap != nil {
		t.tap(f)
	}
	return t.server.Transmit(f)
}

// shutdownBootloader ends the daemon when a boot request arrives so a
// firmware loader can take over the bus connection.
type shutdownBootloader struct {
	logger *slog.Logger
	cancel context.CancelFunc
}

func (b *shutdownBootloader) EnterBootloader(ctx context.Context) error {
	b.logger.Warn("boot mode requested, stopping command station")
	b.cancel()
	return nil
}

// daemon holds the wired components.
type daemon struct {
	cfg    Config
	logger *slog.Logger

	station    *station.Station
	simulator  *track.Simulator
	mainTrack  *track.MainTrack
	table      *locos.Table
	server     *bridge.Server
	advertiser *discovery.Advertiser
	tx         *tee

	wg sync.WaitGroup
}

func newDaemon(cfg Config, logger *slog.Logger, protocolLogger cbuslog.Logger, cancel context.CancelFunc) (*daemon, error) {
	d := &daemon{
		cfg:       cfg,
		logger:    logger,
		mainTrack: track.NewMainTrack(cfg.Packets),
		table:     locos.NewTable(cfg.Locos),
	}

	bridgeCfg := cfg.Bridge
	bridgeCfg.Logger = protocolLogger
	bridgeCfg.OnConnect = func(c *bridge.Conn) {
		logger.Info("client connected", "conn", c.ConnID(), "remote", c.RemoteAddr().String())
	}
	bridgeCfg.OnDisconnect = func(c *bridge.Conn) {
		logger.Info("client disconnected", "conn", c.ConnID())
	}
	bridgeCfg.OnFrame = func(_ *bridge.Conn, f cbus.Frame) {
		d.station.Receive(f)
	}
	bridgeCfg.OnError = func(c *bridge.Conn, err error) {
		if c == nil {
			logger.Warn("bridge error", "error", err)
			return
		}
		logger.Debug("bridge client error", "conn", c.ConnID(), "error", err)
	}
	d.server = bridge.NewServer(bridgeCfg)
	d.tx = &tee{server: d.server}

	d.simulator = track.NewSimulator(cfg.Track, nil, func(res programming.Result) {
		d.station.Complete(res)
	})
	d.simulator.SetLogger(logger)

	stCfg := cfg.Station
	stCfg.Logger = logger
	stCfg.ProtocolLogger = protocolLogger

	st, err := station.New(stCfg, d.simulator, d.tx,
		station.WithThrottles(d.table),
		station.WithAccessories(d.mainTrack),
		station.WithBootloader(&shutdownBootloader{logger: logger, cancel: cancel}),
	)
	if err != nil {
		return nil, err
	}
	d.station = st

	if cfg.Advertise {
		adCfg := cfg.Discovery
		adCfg.Logger = logger
		d.advertiser = discovery.NewAdvertiser(adCfg)
	}
	return d, nil
}

func (d *daemon) start(ctx context.Context) error {
	if err := d.server.Start(ctx); err != nil {
		return err
	}

	d.run(func() error { return d.station.Run(ctx) }, "station")
	d.run(func() error { return d.simulator.Run(ctx) }, "programming track")
	d.run(func() error { return d.drainPackets(ctx) }, "main track")

	if d.advertiser != nil {
		info := discovery.Info{
			Instance:       d.cfg.Instance,
			Port:           uint16(d.server.Port()),
			NodeNumber:     d.cfg.Station.NodeNumber,
			CANID:          d.cfg.Station.CANID,
			CommandStation: d.cfg.Station.CommandStation,
			Version:        d.cfg.Station.Version.String(),
			Name:           d.cfg.Name,
		}
		if err := d.advertiser.Advertise(ctx, info); err != nil {
			d.logger.Warn("mDNS advertising failed", "error", err)
		}
	}
	return nil
}

// run starts fn and logs its error unless it is a normal shutdown.
func (d *daemon) run(fn func() error, name string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error(name+" stopped", "error", err)
		}
	}()
}

// drainPackets logs main-track packets in place of a DCC output stage.
func (d *daemon) drainPackets(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p := <-d.mainTrack.Packets():
			d.logger.Debug("dcc packet", "bytes", fmt.Sprintf("% X", p.Bytes), "repeat", p.Repeat)
		}
	}
}

func (d *daemon) stop() {
	if d.advertiser != nil {
		d.advertiser.Stop()
	}
	if err := d.server.Stop(); err != nil {
		d.logger.Warn("bridge stop failed", "error", err)
	}
	d.wg.Wait()
}

// runBrowse lists advertised bridges.
func runBrowse() int {
	ctx, cancel := context.WithTimeout(context.Background(), discovery.BrowseTimeout)
	defer cancel()

	services, err := discovery.Browse(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(services) == 0 {
		fmt.Println("No bridges found.")
		return 0
	}
	for _, svc := range services {
		fmt.Printf("%-20s %s:%d  node=%d canid=%d cs=%d ver=%s %v\n",
			svc.InstanceName, svc.Host, svc.Port,
			svc.NodeNumber, svc.CANID, svc.CommandStation, svc.Version, svc.Addresses)
	}
	return 0
}
