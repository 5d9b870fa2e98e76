package discovery

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubRegistration struct{ mock.Mock }

func (s *stubRegistration) SetText(txt []string) { s.Called(txt) }
func (s *stubRegistration) Shutdown()            { s.Called() }

type registerCall struct {
	instance, service, domain string
	port                      int
	txt                       []string
	opts                      int
}

func testAdvertiser(t *testing.T, reg registration, err error) (*Advertiser, *[]registerCall) {
	t.Helper()
	calls := &[]registerCall{}
	a := NewAdvertiser(DefaultAdvertiserConfig())
	a.register = func(instance, service, domain string, port int, txt []string, _ []net.Interface, opts ...zeroconf.ServerOption) (registration, error) {
		*calls = append(*calls, registerCall{instance, service, domain, port, txt, len(opts)})
		if err != nil {
			return nil, err
		}
		return reg, nil
	}
	return a, calls
}

func TestAdvertiseRegistersService(t *testing.T) {
	reg := &stubRegistration{}
	a, calls := testAdvertiser(t, reg, nil)

	err := a.Advertise(context.Background(), Info{NodeNumber: 65534, CANID: 126, Version: "4.1.107"})
	require.NoError(t, err)
	require.Len(t, *calls, 1)

	c := (*calls)[0]
	assert.Equal(t, "CANCMD-65534", c.instance)
	assert.Equal(t, ServiceType, c.service)
	assert.Equal(t, Domain, c.domain)
	assert.Equal(t, DefaultPort, c.port)
	assert.Equal(t, []string{"canid=126", "cs=0", "nn=65534", "ver=4.1.107"}, c.txt)
	assert.Equal(t, 1, c.opts, "TTL option")
	assert.True(t, a.Advertising())
}

func TestAdvertiseReplacesPrevious(t *testing.T) {
	reg := &stubRegistration{}
	reg.On("Shutdown").Return().Once()
	a, calls := testAdvertiser(t, reg, nil)

	require.NoError(t, a.Advertise(context.Background(), Info{NodeNumber: 1, CANID: 1, Port: 6000}))
	require.NoError(t, a.Advertise(context.Background(), Info{NodeNumber: 1, CANID: 2, Port: 6000}))

	assert.Len(t, *calls, 2)
	assert.Equal(t, 6000, (*calls)[1].port)
	reg.AssertExpectations(t)
}

func TestAdvertiseRegisterError(t *testing.T) {
	boom := errors.New("no multicast")
	a, _ := testAdvertiser(t, nil, boom)

	err := a.Advertise(context.Background(), Info{NodeNumber: 1, CANID: 1})
	assert.ErrorIs(t, err, boom)
	assert.False(t, a.Advertising())
}

func TestAdvertiseCancelledContext(t *testing.T) {
	a, calls := testAdvertiser(t, &stubRegistration{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, a.Advertise(ctx, Info{NodeNumber: 1, CANID: 1}), context.Canceled)
	assert.Empty(t, *calls)
}

func TestUpdateSetsText(t *testing.T) {
	reg := &stubRegistration{}
	reg.On("SetText", []string{"canid=5", "cs=0", "nn=1", "ver=2.0.0"}).Return().Once()
	a, _ := testAdvertiser(t, reg, nil)

	assert.ErrorIs(t, a.Update(Info{}), ErrNotAdvertising)

	require.NoError(t, a.Advertise(context.Background(), Info{NodeNumber: 1, CANID: 1, Version: "1.0.0"}))
	require.NoError(t, a.Update(Info{NodeNumber: 1, CANID: 5, Version: "2.0.0"}))
	reg.AssertExpectations(t)
}

func TestStopIsIdempotent(t *testing.T) {
	reg := &stubRegistration{}
	reg.On("Shutdown").Return().Once()
	a, _ := testAdvertiser(t, reg, nil)

	require.NoError(t, a.Advertise(context.Background(), Info{NodeNumber: 1, CANID: 1}))
	a.Stop()
	a.Stop()

	assert.False(t, a.Advertising())
	reg.AssertExpectations(t)
}

func testEntry(instance string, txt []string, ips ...string) *zeroconf.ServiceEntry {
	e := &zeroconf.ServiceEntry{}
	e.Instance = instance
	e.Text = txt
	for _, s := range ips {
		ip := net.ParseIP(s)
		if ip.To4() != nil {
			e.AddrIPv4 = append(e.AddrIPv4, ip)
		} else {
			e.AddrIPv6 = append(e.AddrIPv6, ip)
		}
	}
	return e
}

func TestAggregatorMergesInterfaces(t *testing.T) {
	txt := []string{"nn=7", "canid=3", "ver=1.0.0"}
	g := newAggregator()

	first := testEntry("CANCMD-7", txt, "192.168.1.10")
	first.HostName = "cs.local."
	first.Port = 5550
	g.add(first)
	g.add(testEntry("CANCMD-7", txt, "192.168.1.10", "fe80::1"))
	g.add(testEntry("broken", []string{"nn=1"}))

	svcs := g.services()
	require.Len(t, svcs, 1)
	assert.Equal(t, uint16(7), svcs[0].NodeNumber)
	assert.Equal(t, uint8(3), svcs[0].CANID)
	assert.Equal(t, uint16(5550), svcs[0].Port)
	assert.Equal(t, []string{"192.168.1.10", "fe80::1"}, svcs[0].Addresses)

	g.remove(testEntry("CANCMD-7", nil, "192.168.1.10"))
	require.Len(t, g.services(), 1)
	assert.Equal(t, []string{"fe80::1"}, g.services()[0].Addresses)

	g.remove(testEntry("CANCMD-7", nil, "fe80::1"))
	assert.Empty(t, g.services())
}
