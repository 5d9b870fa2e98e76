package cbus

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Identifier limits.
const (
	// MaxStandardID is the largest 11-bit identifier.
	MaxStandardID = 0x7FF

	// MaxExtendedID is the largest 29-bit identifier.
	MaxExtendedID = 0x1FFFFFFF

	// MaxCANID is the largest CBUS node CAN ID.
	MaxCANID = 0x7F

	// MaxDataLen is the classical CAN payload limit.
	MaxDataLen = 8
)

// Frame errors.
var (
	ErrInvalidID  = errors.New("cbus: invalid identifier")
	ErrInvalidLen = errors.New("cbus: invalid data length")
)

// Priority is the 4-bit CBUS priority field (2 major bits, 2 minor bits).
// Lower values win arbitration.
type Priority uint8

const (
	// PriorityEmergency is used for track power and emergency stop broadcasts.
	PriorityEmergency Priority = 0x8

	// PriorityAboveNormal is used for command station replies to throttles.
	PriorityAboveNormal Priority = 0x9

	// PriorityNormal is the default for commands.
	PriorityNormal Priority = 0xA

	// PriorityLow is used for housekeeping traffic.
	PriorityLow Priority = 0xB
)

// Frame is a classical CAN frame as delivered by the bus driver.
// Frames are values; nothing in this module mutates a received frame.
type Frame struct {
	ID       uint32 // 11-bit (standard) or 29-bit (extended)
	Extended bool
	RTR      bool
	Len      uint8
	Data     [8]byte
}

// NewFrame builds a standard CBUS frame from a sender CAN ID, a priority,
// an opcode and its data bytes. The data is truncated to what fits.
func NewFrame(canID uint8, pri Priority, op Opcode, data ...byte) Frame {
	f := Frame{
		ID: uint32(pri&0x0F)<<7 | uint32(canID&MaxCANID),
	}
	f.Data[0] = byte(op)
	n := copy(f.Data[1:], data)
	f.Len = uint8(1 + n)
	return f
}

// NewExtendedFrame builds a 29-bit identifier frame.
func NewExtendedFrame(id uint32, data ...byte) Frame {
	f := Frame{ID: id & MaxExtendedID, Extended: true}
	f.Len = uint8(copy(f.Data[:], data))
	return f
}

// NewEnumerationReply builds the zero-length frame a node sends in answer
// to a CAN ID enumeration request.
func NewEnumerationReply(canID uint8) Frame {
	return Frame{ID: uint32(PriorityLow)<<7 | uint32(canID&MaxCANID)}
}

// Validate returns an error if the identifier or length is out of range.
func (f Frame) Validate() error {
	if f.Len > MaxDataLen {
		return ErrInvalidLen
	}
	if f.Extended {
		if f.ID > MaxExtendedID {
			return ErrInvalidID
		}
	} else if f.ID > MaxStandardID {
		return ErrInvalidID
	}
	return nil
}

// Payload returns a copy of the used data bytes.
func (f Frame) Payload() []byte {
	n := int(f.Len)
	if n > MaxDataLen {
		n = MaxDataLen
	}
	out := make([]byte, n)
	copy(out, f.Data[:n])
	return out
}

// Opcode returns the first payload byte. ok is false for empty and
// extended frames, which carry no opcode.
func (f Frame) Opcode() (Opcode, bool) {
	if f.Extended || f.Len == 0 {
		return 0, false
	}
	return Opcode(f.Data[0]), true
}

// CANID returns the sender CAN ID of a standard frame.
func (f Frame) CANID() uint8 {
	if f.Extended {
		return 0
	}
	return uint8(f.ID & MaxCANID)
}

// Priority returns the priority bits of a standard frame.
func (f Frame) Priority() Priority {
	if f.Extended {
		return 0
	}
	return Priority((f.ID >> 7) & 0x0F)
}

// Byte returns data byte i, or 0 when i is beyond the frame length.
func (f Frame) Byte(i int) byte {
	if i < 0 || i >= int(f.Len) || i >= MaxDataLen {
		return 0
	}
	return f.Data[i]
}

// Uint16 returns the big-endian value of data bytes i and i+1.
func (f Frame) Uint16(i int) uint16 {
	return uint16(f.Byte(i))<<8 | uint16(f.Byte(i+1))
}

// String renders the frame for logs, e.g. "std 0x50B [84 01 00 05 00] QCVS".
func (f Frame) String() string {
	var b strings.Builder
	if f.Extended {
		fmt.Fprintf(&b, "ext 0x%08X", f.ID)
	} else {
		fmt.Fprintf(&b, "std 0x%03X", f.ID)
	}
	if f.RTR {
		b.WriteString(" rtr")
	}
	data := f.Payload()
	b.WriteString(" [")
	for i, d := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(hex.EncodeToString([]byte{d}))
	}
	b.WriteString("]")
	if op, ok := f.Opcode(); ok {
		b.WriteByte(' ')
		b.WriteString(op.String())
	}
	return b.String()
}
