package log

import (
	"time"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
)

// Event is one captured protocol event. CBOR encoding uses integer keys
// for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the bridge client (UUID), or is empty for the
	// local bus.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates frame flow relative to the station.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the bridge client address (IP:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Outcome     *OutcomeEvent     `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Direction indicates the direction of frame flow.
type Direction uint8

const (
	// DirectionIn indicates a received frame.
	DirectionIn Direction = 0
	// DirectionOut indicates a transmitted frame.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates where the event was captured.
type Layer uint8

const (
	// LayerTransport is the GridConnect text layer of a bridge connection.
	LayerTransport Layer = 0
	// LayerBus is the CAN frame layer.
	LayerBus Layer = 1
	// LayerStation is the command station core.
	LayerStation Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerBus:
		return "BUS"
	case LayerStation:
		return "STATION"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame indicates a bus frame.
	CategoryFrame Category = 0
	// CategoryOutcome indicates a dispatch outcome.
	CategoryOutcome Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryOutcome:
		return "OUTCOME"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures a CAN frame.
type FrameEvent struct {
	// ID is the 11- or 29-bit identifier.
	ID uint32 `cbor:"1,keyasint"`

	Extended bool `cbor:"2,keyasint,omitempty"`
	RTR      bool `cbor:"3,keyasint,omitempty"`

	// Data is the payload.
	Data []byte `cbor:"4,keyasint,omitempty"`

	// Kind is the classification (STANDARD, EXTENDED, EVENT, UNRECOGNIZED).
	Kind string `cbor:"5,keyasint,omitempty"`

	// Opcode is the mnemonic of the first payload byte, if any.
	Opcode string `cbor:"6,keyasint,omitempty"`

	// Text is the raw GridConnect text at the transport layer.
	Text string `cbor:"7,keyasint,omitempty"`
}

// NewFrameEvent captures f.
func NewFrameEvent(f cbus.Frame) *FrameEvent {
	fe := &FrameEvent{
		ID:       f.ID,
		Extended: f.Extended,
		RTR:      f.RTR,
		Data:     f.Payload(),
		Kind:     cbus.Classify(f).String(),
	}
	if op, ok := f.Opcode(); ok {
		fe.Opcode = op.String()
	}
	return fe
}

// Frame rebuilds the CAN frame.
func (fe *FrameEvent) Frame() cbus.Frame {
	f := cbus.Frame{ID: fe.ID, Extended: fe.Extended, RTR: fe.RTR}
	f.Len = uint8(copy(f.Data[:], fe.Data))
	return f
}

// OutcomeEvent captures the result of dispatching a frame.
type OutcomeEvent struct {
	// Kind is the outcome kind name.
	Kind string `cbor:"1,keyasint"`

	// Opcode is the mnemonic of the dispatched command.
	Opcode string `cbor:"2,keyasint,omitempty"`

	// Handle is the throttle session.
	Handle uint8 `cbor:"3,keyasint,omitempty"`

	// Mode is the programming mode name.
	Mode string `cbor:"4,keyasint,omitempty"`

	CV    uint16 `cbor:"5,keyasint,omitempty"`
	Value uint8  `cbor:"6,keyasint,omitempty"`

	// Error is the rejection or failure message.
	Error string `cbor:"7,keyasint,omitempty"`

	// Reply is the frame sent in response, if any.
	Reply *FrameEvent `cbor:"8,keyasint,omitempty"`

	// ProcessingTime is the time from receipt to outcome.
	ProcessingTime *time.Duration `cbor:"9,keyasint,omitempty"`
}

// StateChangeEvent captures connection and station lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a bridge connection change.
	StateEntityConnection StateEntity = 0
	// StateEntityProgramming indicates a programming mode change.
	StateEntityProgramming StateEntity = 1
	// StateEntityPower indicates a track power change.
	StateEntityPower StateEntity = 2
	// StateEntityLocoSession indicates a loco session change.
	StateEntityLocoSession StateEntity = 3
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityProgramming:
		return "PROGRAMMING"
	case StateEntityPower:
		return "POWER"
	case StateEntityLocoSession:
		return "LOCO_SESSION"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the CBUS error or status code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
