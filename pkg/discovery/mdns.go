package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string `yaml:"interface" toml:"interface"`

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration `yaml:"ttl" toml:"ttl"`

	// Logger receives debug output. Nil disables it.
	Logger *slog.Logger `yaml:"-" toml:"-"`
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		TTL: DefaultTTL,
	}
}

// registration is the part of *zeroconf.Server the advertiser uses.
type registration interface {
	SetText(txt []string)
	Shutdown()
}

type registerFunc func(instance, service, domain string, port int, txt []string, ifaces []net.Interface, opts ...zeroconf.ServerOption) (registration, error)

func zeroconfRegister(instance, service, domain string, port int, txt []string, ifaces []net.Interface, opts ...zeroconf.ServerOption) (registration, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces, opts...)
}

// Advertiser publishes one bridge service via zeroconf.
type Advertiser struct {
	config   AdvertiserConfig
	register registerFunc

	mu     sync.Mutex
	server registration
	info   Info
}

// NewAdvertiser creates a new mDNS advertiser.
func NewAdvertiser(config AdvertiserConfig) *Advertiser {
	return &Advertiser{
		config:   config,
		register: zeroconfRegister,
	}
}

// Advertise starts advertising the bridge, replacing any earlier advertisement.
func (a *Advertiser) Advertise(ctx context.Context, info Info) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	instanceName := info.InstanceName()
	if err := ValidateInstanceName(instanceName); err != nil {
		return err
	}

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := a.register(
		instanceName,
		ServiceType,
		Domain,
		port,
		TXTRecordsToStrings(EncodeTXT(&info)),
		interfaces(a.config.Interface),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register bridge service: %w", err)
	}

	a.server = server
	a.info = info
	a.debugLog("advertising", "instance", instanceName, "port", port)
	return nil
}

// Update replaces the TXT records of the running advertisement.
func (a *Advertiser) Update(info Info) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotAdvertising
	}
	a.server.SetText(TXTRecordsToStrings(EncodeTXT(&info)))
	a.info = info
	return nil
}

// Advertising reports whether a service is registered.
func (a *Advertiser) Advertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// Stop withdraws the advertisement. Safe to call repeatedly.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		a.debugLog("advertisement withdrawn", "instance", a.info.InstanceName())
	}
}

func (a *Advertiser) debugLog(msg string, args ...any) {
	if a.config.Logger != nil {
		a.config.Logger.Debug(msg, args...)
	}
}

// interfaces returns the network interfaces to use. Nil means all.
func interfaces(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Browse searches for bridges until ctx is done and returns what it found,
// one Service per instance.
func Browse(ctx context.Context, iface string) ([]*Service, error) {
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var opts []zeroconf.ClientOption
	if ifs := interfaces(iface); ifs != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifs))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
	}()

	agg := newAggregator()
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			agg.add(entry)
		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			agg.remove(entry)
		case err := <-errCh:
			if err != nil && ctx.Err() == nil {
				return nil, fmt.Errorf("browse %s: %w", ServiceType, err)
			}
			return agg.services(), nil
		case <-ctx.Done():
			return agg.services(), nil
		}
	}
}

// aggregator merges entries for the same instance seen on several interfaces.
type aggregator struct {
	order []string
	byKey map[string]*Service
}

func newAggregator() *aggregator {
	return &aggregator{byKey: make(map[string]*Service)}
}

func (g *aggregator) add(entry *zeroconf.ServiceEntry) {
	svc := entryToService(entry)
	if svc == nil {
		return
	}
	if existing, ok := g.byKey[svc.InstanceName]; ok {
		existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
		return
	}
	g.byKey[svc.InstanceName] = svc
	g.order = append(g.order, svc.InstanceName)
}

func (g *aggregator) remove(entry *zeroconf.ServiceEntry) {
	existing, ok := g.byKey[entry.Instance]
	if !ok {
		return
	}
	existing.Addresses = removeAddresses(existing.Addresses, entryAddresses(entry))
	if len(existing.Addresses) > 0 {
		return
	}
	delete(g.byKey, entry.Instance)
	for i, name := range g.order {
		if name == entry.Instance {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

func (g *aggregator) services() []*Service {
	out := make([]*Service, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.byKey[name])
	}
	return out
}

// entryToService converts a zeroconf entry. Entries with unusable TXT
// records are dropped.
func entryToService(entry *zeroconf.ServiceEntry) *Service {
	info, err := DecodeTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		return nil
	}
	return &Service{
		InstanceName:   entry.Instance,
		Host:           entry.HostName,
		Port:           uint16(entry.Port),
		Addresses:      entryAddresses(entry),
		NodeNumber:     info.NodeNumber,
		CANID:          info.CANID,
		CommandStation: info.CommandStation,
		Version:        info.Version,
		Name:           info.Name,
	}
}

func entryAddresses(entry *zeroconf.ServiceEntry) []string {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

func mergeAddresses(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, a := range existing {
		seen[a] = true
	}
	for _, a := range add {
		if !seen[a] {
			existing = append(existing, a)
			seen[a] = true
		}
	}
	return existing
}

func removeAddresses(addresses, gone []string) []string {
	drop := make(map[string]bool, len(gone))
	for _, a := range gone {
		drop[a] = true
	}
	out := addresses[:0]
	for _, a := range addresses {
		if !drop[a] {
			out = append(out, a)
		}
	}
	return out
}
