package dispatch

import (
	"context"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/programming"
)

// OutcomeKind classifies the result of dispatching a frame.
type OutcomeKind uint8

const (
	// OutcomeIgnored means no handler acted. State is unchanged.
	OutcomeIgnored OutcomeKind = iota

	// OutcomeUnrecognized echoes a frame the classifier rejected.
	OutcomeUnrecognized

	// OutcomeRejected means a handler refused the command; Err says why.
	OutcomeRejected

	// OutcomeProgrammingStarted means a CV operation was handed to the
	// programmer.
	OutcomeProgrammingStarted

	// OutcomeProgrammingDone reports a successful CV operation.
	OutcomeProgrammingDone

	// OutcomeProgrammingFailed reports a CV operation the track rejected.
	OutcomeProgrammingFailed

	// OutcomeSessionEnded reports a session closed without a result.
	OutcomeSessionEnded

	// OutcomePowerChanged reports the track power state.
	OutcomePowerChanged

	// OutcomeSessionAborted reports a power-off that aborted a session.
	OutcomeSessionAborted

	// OutcomeEmergencyStop reports that all locos were stopped.
	OutcomeEmergencyStop

	// OutcomeThrottle reports a loco session command.
	OutcomeThrottle

	// OutcomeAccessory reports a queued accessory or raw DCC packet.
	OutcomeAccessory

	// OutcomeQuery answers a status or node query.
	OutcomeQuery

	// OutcomeEnumeration answers a CAN ID enumeration request.
	OutcomeEnumeration

	// OutcomeDeferred carries work to run outside the dispatch context.
	OutcomeDeferred
)

// String returns the outcome kind name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeIgnored:
		return "IGNORED"
	case OutcomeUnrecognized:
		return "UNRECOGNIZED"
	case OutcomeRejected:
		return "REJECTED"
	case OutcomeProgrammingStarted:
		return "PROGRAMMING_STARTED"
	case OutcomeProgrammingDone:
		return "PROGRAMMING_DONE"
	case OutcomeProgrammingFailed:
		return "PROGRAMMING_FAILED"
	case OutcomeSessionEnded:
		return "SESSION_ENDED"
	case OutcomePowerChanged:
		return "POWER_CHANGED"
	case OutcomeSessionAborted:
		return "SESSION_ABORTED"
	case OutcomeEmergencyStop:
		return "EMERGENCY_STOP"
	case OutcomeThrottle:
		return "THROTTLE"
	case OutcomeAccessory:
		return "ACCESSORY"
	case OutcomeQuery:
		return "QUERY"
	case OutcomeEnumeration:
		return "ENUMERATION"
	case OutcomeDeferred:
		return "DEFERRED"
	default:
		return "UNKNOWN"
	}
}

// Outcome is the result of dispatching one frame or completion.
// Only the fields relevant to Kind are set.
type Outcome struct {
	Kind   OutcomeKind
	Opcode cbus.Opcode
	Err    error

	// Programming fields.
	Handle uint8
	Op     programming.Op
	Mode   programming.Mode
	CV     programming.CVAddress
	Value  byte

	// Power fields. Aborted is the session a power-off closed.
	Power   programming.PowerState
	Aborted *programming.Session

	// Loco is the engine report for throttle commands that answer with PLOC.
	Loco *LocoReport

	// Status holds STAT flag bits for OutcomeQuery.
	Status uint8

	// Frame is the frame that produced the outcome, if any.
	Frame cbus.Frame

	// FollowUp runs outside the dispatch context (OutcomeDeferred).
	FollowUp func(ctx context.Context) error
}

// Consumed reports whether a handler acted on the frame.
func (o Outcome) Consumed() bool {
	return o.Kind != OutcomeIgnored && o.Kind != OutcomeUnrecognized
}
