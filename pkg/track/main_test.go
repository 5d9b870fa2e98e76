package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessoryPacket(t *testing.T) {
	tests := []struct {
		addr uint16
		on   bool
		want []byte
	}{
		// Board 1 port 0: 10000001 11111000
		{1, false, []byte{0x81, 0xF8, 0x79}},
		{1, true, []byte{0x81, 0xF9, 0x78}},
		// Board 2 port 1
		{6, true, []byte{0x82, 0xFB, 0x79}},
		// Board 64 wraps into the high address bits
		{256, false, []byte{0x80, 0xEE, 0x6E}},
	}

	for _, tt := range tests {
		got, err := AccessoryPacket(tt.addr, tt.on)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "addr %d on=%v", tt.addr, tt.on)
	}

	_, err := AccessoryPacket(0, true)
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = AccessoryPacket(2045, true)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestMainTrackQueue(t *testing.T) {
	mt := NewMainTrack(1)
	require.NoError(t, mt.Switch(1, true))
	assert.ErrorIs(t, mt.Switch(2, true), ErrPacketQueueFull)

	p := <-mt.Packets()
	assert.Equal(t, []byte{0x81, 0xF9, 0x78}, p.Bytes)

	require.NoError(t, mt.SendPacket(3, []byte{0x03, 0x3F, 0x3C}))
	p = <-mt.Packets()
	assert.Equal(t, uint8(3), p.Repeat)

	assert.ErrorIs(t, mt.SendPacket(1, []byte{0x03, 0x3F, 0x00}), ErrInvalidPacket)
	assert.ErrorIs(t, mt.SendPacket(1, []byte{0x03}), ErrInvalidPacket)
}
