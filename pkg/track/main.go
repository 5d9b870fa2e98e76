package track

import (
	"errors"
	"fmt"

	"github.com/cbus-station/cancmd-go/pkg/dispatch"
)

// Packet errors.
var (
	ErrPacketQueueFull = errors.New("main track packet queue full")
	ErrInvalidPacket   = errors.New("invalid DCC packet")
	ErrInvalidAddress  = errors.New("invalid accessory address")
)

// DefaultPacketQueue bounds the main track packet queue.
const DefaultPacketQueue = 32

// Packet is a DCC packet queued for the main track, including its
// checksum byte.
type Packet struct {
	Bytes  []byte
	Repeat uint8
}

// MainTrack queues accessory and raw DCC packets for the main track
// output. Packets are consumed from Packets by the signal generator.
type MainTrack struct {
	packets chan Packet
}

var _ dispatch.Accessories = (*MainTrack)(nil)

// NewMainTrack creates a main track queue with room for size packets.
func NewMainTrack(size int) *MainTrack {
	if size <= 0 {
		size = DefaultPacketQueue
	}
	return &MainTrack{packets: make(chan Packet, size)}
}

// Packets returns the queue consumed by the signal generator.
func (t *MainTrack) Packets() <-chan Packet {
	return t.packets
}

// Switch queues a basic accessory packet for a DCC output address
// (1-2044). on selects the thrown output.
func (t *MainTrack) Switch(addr uint16, on bool) error {
	pkt, err := AccessoryPacket(addr, on)
	if err != nil {
		return err
	}
	return t.enqueue(Packet{Bytes: pkt})
}

// SendPacket queues a raw packet. The last byte must be the XOR checksum
// of the others.
func (t *MainTrack) SendPacket(repeat uint8, packet []byte) error {
	if len(packet) < 3 || checksum(packet[:len(packet)-1]) != packet[len(packet)-1] {
		return fmt.Errorf("%w: % X", ErrInvalidPacket, packet)
	}
	b := make([]byte, len(packet))
	copy(b, packet)
	return t.enqueue(Packet{Bytes: b, Repeat: repeat})
}

func (t *MainTrack) enqueue(p Packet) error {
	select {
	case t.packets <- p:
		return nil
	default:
		return ErrPacketQueueFull
	}
}

// AccessoryPacket builds the three byte basic accessory packet
// 10AAAAAA 1AAACDDD EEEEEEEE for a DCC output address.
func AccessoryPacket(addr uint16, on bool) ([]byte, error) {
	if addr == 0 || addr > dispatch.MaxAccessoryAddress {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAddress, addr)
	}
	board := (addr-1)/4 + 1
	port := byte((addr - 1) % 4)

	b1 := 0x80 | byte(board&0x3F)
	b2 := 0x80 | (^byte(board>>6)&0x07)<<4 | 0x08 | port<<1
	if on {
		b2 |= 0x01
	}
	return []byte{b1, b2, b1 ^ b2}, nil
}

func checksum(b []byte) byte {
	var x byte
	for _, v := range b {
		x ^= v
	}
	return x
}
