package locos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/dispatch"
)

func errCode(t *testing.T, err error) cbus.ErrorCode {
	t.Helper()
	var cmdErr *cbus.CommandError
	require.ErrorAs(t, err, &cmdErr)
	return cmdErr.Code
}

func TestAcquire(t *testing.T) {
	tbl := NewTable(DefaultConfig())

	r, err := tbl.Acquire(3, dispatch.AcquireNormal)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), r.Session)
	assert.Equal(t, uint16(3), r.Address)
	assert.Equal(t, byte(0x80), r.SpeedDir)

	r, err = tbl.Acquire(LongAddressFlag|1234, dispatch.AcquireNormal)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), r.Session)

	_, err = tbl.Acquire(3, dispatch.AcquireNormal)
	assert.Equal(t, cbus.ErrCodeLocoAddressTaken, errCode(t, err))
}

func TestAcquireInvalidAddress(t *testing.T) {
	tbl := NewTable(DefaultConfig())
	for _, addr := range []uint16{0, 128, LongAddressFlag, LongAddressFlag | 10240} {
		_, err := tbl.Acquire(addr, dispatch.AcquireNormal)
		assert.Equal(t, cbus.ErrCodeInvalidRequest, errCode(t, err), "addr %#04x", addr)
	}
}

func TestAcquireStackFull(t *testing.T) {
	tbl := NewTable(Config{MaxSessions: 2})
	_, err := tbl.Acquire(1, dispatch.AcquireNormal)
	require.NoError(t, err)
	_, err = tbl.Acquire(2, dispatch.AcquireNormal)
	require.NoError(t, err)

	_, err = tbl.Acquire(3, dispatch.AcquireNormal)
	assert.Equal(t, cbus.ErrCodeLocoStackFull, errCode(t, err))

	require.NoError(t, tbl.Release(1))
	r, err := tbl.Acquire(3, dispatch.AcquireNormal)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), r.Session, "lowest free handle is reused")
}

func TestShareAndSteal(t *testing.T) {
	tbl := NewTable(DefaultConfig())
	r, err := tbl.Acquire(5, dispatch.AcquireNormal)
	require.NoError(t, err)

	shared, err := tbl.Acquire(5, dispatch.AcquireShare)
	require.NoError(t, err)
	assert.Equal(t, r.Session, shared.Session)

	require.NoError(t, tbl.Release(r.Session))
	assert.Equal(t, 1, tbl.Len(), "sharer still holds the session")
	require.NoError(t, tbl.Release(r.Session))
	assert.Equal(t, 0, tbl.Len())

	r, err = tbl.Acquire(5, dispatch.AcquireNormal)
	require.NoError(t, err)
	_, err = tbl.Acquire(5, dispatch.AcquireShare)
	require.NoError(t, err)
	stolen, err := tbl.Acquire(5, dispatch.AcquireSteal)
	require.NoError(t, err)
	assert.Equal(t, r.Session, stolen.Session)
	require.NoError(t, tbl.Release(r.Session))
	assert.Equal(t, 0, tbl.Len(), "steal drops sharers")
}

func TestUnknownSession(t *testing.T) {
	tbl := NewTable(DefaultConfig())
	checks := map[string]error{
		"release":   tbl.Release(9),
		"keepalive": tbl.KeepAlive(9),
		"speed":     tbl.SetSpeedDir(9, 0),
		"mode":      tbl.SetSpeedMode(9, 0),
		"function":  tbl.SetFunction(9, 0, true),
		"functions": tbl.SetFunctions(9, FnRangeF0F4, 0),
	}
	for name, err := range checks {
		assert.Equal(t, cbus.ErrCodeSessionNotPresent, errCode(t, err), name)
	}
	_, err := tbl.Query(9)
	assert.Equal(t, cbus.ErrCodeSessionNotPresent, errCode(t, err))
}

func TestSpeedAndFunctions(t *testing.T) {
	tbl := NewTable(DefaultConfig())
	r, err := tbl.Acquire(3, dispatch.AcquireNormal)
	require.NoError(t, err)
	h := r.Session

	require.NoError(t, tbl.SetSpeedDir(h, 0x05))
	require.NoError(t, tbl.SetSpeedMode(h, 0xF2))
	require.NoError(t, tbl.SetFunctions(h, FnRangeF0F4, 0x13)) // F0, F1, F2
	require.NoError(t, tbl.SetFunctions(h, FnRangeF5F8, 0x08)) // F8
	require.NoError(t, tbl.SetFunction(h, 12, true))
	require.NoError(t, tbl.SetFunction(h, 28, true))

	s := tbl.Sessions()[0]
	assert.False(t, s.Forward())
	assert.Equal(t, byte(5), s.Speed())
	assert.Equal(t, SpeedSteps28I, s.SpeedMode)
	for _, fn := range []int{0, 1, 2, 8, 12, 28} {
		assert.True(t, s.Function(fn), "F%d", fn)
	}
	assert.False(t, s.Function(3))

	rep, err := tbl.Query(h)
	require.NoError(t, err)
	assert.Equal(t, byte(0x13), rep.Fn1)
	assert.Equal(t, byte(0x08), rep.Fn2)
	assert.Equal(t, byte(0x08), rep.Fn3)

	require.NoError(t, tbl.SetFunctions(h, FnRangeF0F4, 0x00))
	require.NoError(t, tbl.SetFunction(h, 28, false))
	s = tbl.Sessions()[0]
	assert.False(t, s.Function(0))
	assert.False(t, s.Function(28))
	assert.True(t, s.Function(8))

	err = tbl.SetFunctions(h, 6, 0)
	assert.Equal(t, cbus.ErrCodeInvalidRequest, errCode(t, err))
	err = tbl.SetFunction(h, 29, true)
	assert.Equal(t, cbus.ErrCodeInvalidRequest, errCode(t, err))
}

func TestStopAll(t *testing.T) {
	tbl := NewTable(DefaultConfig())
	a, _ := tbl.Acquire(3, dispatch.AcquireNormal)
	b, _ := tbl.Acquire(4, dispatch.AcquireNormal)
	require.NoError(t, tbl.SetSpeedDir(a.Session, 0x80|60))
	require.NoError(t, tbl.SetSpeedDir(b.Session, 20))

	tbl.StopAll()
	assert.True(t, tbl.Stopped())

	ss := tbl.Sessions()
	assert.Equal(t, byte(0x81), ss[0].SpeedDir)
	assert.Equal(t, byte(0x01), ss[1].SpeedDir)

	_, err := tbl.Acquire(5, dispatch.AcquireNormal)
	require.NoError(t, err)
	assert.False(t, tbl.Stopped())
}

func TestExpire(t *testing.T) {
	now := time.Unix(1000, 0)
	tbl := NewTable(Config{KeepAliveTimeout: 10 * time.Second})
	tbl.now = func() time.Time { return now }

	a, _ := tbl.Acquire(3, dispatch.AcquireNormal)
	b, _ := tbl.Acquire(4, dispatch.AcquireNormal)

	now = now.Add(8 * time.Second)
	require.NoError(t, tbl.KeepAlive(b.Session))

	now = now.Add(5 * time.Second)
	assert.Equal(t, []uint8{a.Session}, tbl.Expire())
	assert.Equal(t, 1, tbl.Len())

	now = now.Add(time.Minute)
	assert.Equal(t, []uint8{b.Session}, tbl.Expire())
	assert.Empty(t, tbl.Expire())
}
