// Package notify turns dispatch outcomes into outbound CBUS frames.
//
// Notify is a pure function of the Outcome and the station identity: it
// never touches command station state. Outcomes that need no reply yield
// no frame.
package notify

import (
	"errors"
	"fmt"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/dispatch"
	"github.com/cbus-station/cancmd-go/pkg/programming"
)

// Version is the firmware version reported in STAT.
type Version struct {
	Major uint8 `yaml:"major" toml:"major"`
	Minor uint8 `yaml:"minor" toml:"minor"`
	Build uint8 `yaml:"build" toml:"build"`
}

// String formats the version as major.minor.build.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
}

// Config identifies the station in reply frames.
type Config struct {
	CANID          uint8
	NodeNumber     uint16
	CommandStation uint8
	Version        Version
}

// Notifier builds reply frames.
type Notifier struct {
	config Config
}

// New creates a Notifier.
func New(config Config) *Notifier {
	return &Notifier{config: config}
}

// Notify returns the frame to transmit for o, if any.
func (n *Notifier) Notify(o dispatch.Outcome) (cbus.Frame, bool) {
	switch o.Kind {
	case dispatch.OutcomePowerChanged:
		if o.Power == programming.PowerOn {
			return n.frame(cbus.PriorityEmergency, cbus.OpTON), true
		}
		return n.frame(cbus.PriorityEmergency, cbus.OpTOF), true

	case dispatch.OutcomeSessionAborted:
		return n.frame(cbus.PriorityEmergency, cbus.OpTOF), true

	case dispatch.OutcomeEmergencyStop:
		return n.frame(cbus.PriorityEmergency, cbus.OpESTOP), true

	case dispatch.OutcomeProgrammingDone:
		if o.Op == programming.OpRead {
			return n.frame(cbus.PriorityAboveNormal, cbus.OpPCVS,
				o.Handle, byte(o.CV>>8), byte(o.CV), o.Value), true
		}
		return n.serviceStatus(o.Handle, cbus.ServiceWriteAck), true

	case dispatch.OutcomeProgrammingFailed, dispatch.OutcomeSessionEnded, dispatch.OutcomeRejected:
		return n.failure(o)

	case dispatch.OutcomeThrottle:
		if o.Err != nil {
			return n.failure(o)
		}
		if o.Loco != nil {
			return n.engineReport(*o.Loco), true
		}
		return cbus.Frame{}, false

	case dispatch.OutcomeQuery:
		return n.query(o)

	case dispatch.OutcomeEnumeration:
		return cbus.NewEnumerationReply(n.config.CANID), true

	default:
		return cbus.Frame{}, false
	}
}

// Aborted returns the SSTAT no-ack owed to the throttle whose session a
// power-off closed. It accompanies the TOF that Notify returns for the same
// outcome.
func (n *Notifier) Aborted(o dispatch.Outcome) (cbus.Frame, bool) {
	if o.Kind != dispatch.OutcomeSessionAborted || o.Aborted == nil {
		return cbus.Frame{}, false
	}
	return n.serviceStatus(o.Aborted.Handle, cbus.ServiceNoAck), true
}

// failure maps an error to SSTAT or ERR. Errors with no protocol code
// produce no frame.
func (n *Notifier) failure(o dispatch.Outcome) (cbus.Frame, bool) {
	if o.Err == nil {
		return cbus.Frame{}, false
	}

	var cmdErr *cbus.CommandError
	if errors.As(o.Err, &cmdErr) {
		return n.frame(cbus.PriorityAboveNormal, cbus.OpERR, cmdErr.Data1, cmdErr.Data2, byte(cmdErr.Code)), true
	}

	if errors.Is(o.Err, programming.ErrInvalidMode) {
		e := cbus.SessionError(cbus.ErrCodeInvalidRequest, o.Handle)
		return n.frame(cbus.PriorityAboveNormal, cbus.OpERR, e.Data1, e.Data2, byte(e.Code)), true
	}

	if status, ok := ServiceStatusFor(o.Err); ok {
		return n.serviceStatus(o.Handle, status), true
	}
	return cbus.Frame{}, false
}

// ServiceStatusFor maps a programming error onto its SSTAT code.
// Power and session errors have no code and report false.
func ServiceStatusFor(err error) (cbus.ServiceStatus, bool) {
	switch {
	case errors.Is(err, programming.ErrNoAck):
		return cbus.ServiceNoAck, true
	case errors.Is(err, programming.ErrOverload):
		return cbus.ServiceOverload, true
	case errors.Is(err, programming.ErrModeConflict),
		errors.Is(err, programming.ErrOperationPending),
		errors.Is(err, programming.ErrProgrammerBusy):
		return cbus.ServiceBusy, true
	case errors.Is(err, programming.ErrCVOutOfRange):
		return cbus.ServiceCVOutOfRange, true
	default:
		return 0, false
	}
}

func (n *Notifier) query(o dispatch.Outcome) (cbus.Frame, bool) {
	nn := n.config.NodeNumber
	switch o.Opcode {
	case cbus.OpRSTAT:
		v := n.config.Version
		return n.frame(cbus.PriorityNormal, cbus.OpSTAT,
			byte(nn>>8), byte(nn), n.config.CommandStation, o.Status,
			v.Major, v.Minor, v.Build), true
	case cbus.OpQNN:
		flags := cbus.NodeFlagConsumer | cbus.NodeFlagProducer | cbus.NodeFlagFLiM | cbus.NodeFlagBoot
		return n.frame(cbus.PriorityLow, cbus.OpPNN,
			byte(nn>>8), byte(nn), cbus.ManufacturerMERG, cbus.ModuleCANCMD, flags), true
	default:
		return cbus.Frame{}, false
	}
}

func (n *Notifier) engineReport(r dispatch.LocoReport) cbus.Frame {
	return n.frame(cbus.PriorityAboveNormal, cbus.OpPLOC,
		r.Session, byte(r.Address>>8), byte(r.Address), r.SpeedDir, r.Fn1, r.Fn2, r.Fn3)
}

func (n *Notifier) serviceStatus(handle uint8, status cbus.ServiceStatus) cbus.Frame {
	return n.frame(cbus.PriorityAboveNormal, cbus.OpSSTAT, handle, byte(status))
}

func (n *Notifier) frame(pri cbus.Priority, op cbus.Opcode, data ...byte) cbus.Frame {
	return cbus.NewFrame(n.config.CANID, pri, op, data...)
}
