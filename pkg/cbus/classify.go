package cbus

// Kind tags a frame for the dispatcher.
type Kind uint8

const (
	// Unrecognized frames are malformed or use a frame format the command
	// station does not speak. They are reported, not filtered.
	Unrecognized Kind = iota

	// StandardCommand frames carry a command opcode in a standard frame.
	StandardCommand

	// ExtendedCommand frames use a 29-bit identifier.
	ExtendedCommand

	// BusEvent frames carry producer events or CAN ID enumeration traffic.
	BusEvent
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Unrecognized:
		return "UNRECOGNIZED"
	case StandardCommand:
		return "STANDARD"
	case ExtendedCommand:
		return "EXTENDED"
	case BusEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// Extended identifiers used by the CBUS bootloader.
const (
	// BootControlID carries bootloader control commands.
	BootControlID uint32 = 0x00000004

	// BootDataID carries firmware image data.
	BootDataID uint32 = 0x00000005

	// bootFrameLen is the fixed payload size of bootloader frames.
	bootFrameLen = 8
)

// Classify returns the kind of f. It has no side effects and is defined for
// every frame value, including invalid ones, which are Unrecognized.
func Classify(f Frame) Kind {
	if f.Validate() != nil {
		return Unrecognized
	}

	if f.Extended {
		return classifyExtended(f)
	}

	if f.Len == 0 {
		// Enumeration request (RTR) or a node's enumeration reply.
		return BusEvent
	}
	if f.RTR {
		return Unrecognized
	}

	op := Opcode(f.Data[0])
	if int(f.Len) != op.FrameLen() {
		return Unrecognized
	}
	if op.IsEvent() {
		return BusEvent
	}
	return StandardCommand
}

func classifyExtended(f Frame) Kind {
	if f.RTR {
		return Unrecognized
	}
	switch f.ID {
	case BootControlID, BootDataID:
		if f.Len != bootFrameLen {
			return Unrecognized
		}
	}
	return ExtendedCommand
}

// IsEnumerationRequest reports whether f asks every node to announce its
// CAN ID.
func IsEnumerationRequest(f Frame) bool {
	return !f.Extended && f.RTR && f.Len == 0
}
