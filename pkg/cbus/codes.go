package cbus

import "fmt"

// ServiceStatus is the status byte of an SSTAT reply.
type ServiceStatus uint8

const (
	// ServiceNoAck means the decoder did not acknowledge.
	ServiceNoAck ServiceStatus = 1

	// ServiceOverload means the programming track was overloaded.
	ServiceOverload ServiceStatus = 2

	// ServiceWriteAck means the write was acknowledged.
	ServiceWriteAck ServiceStatus = 3

	// ServiceBusy means the programmer is busy with another session.
	ServiceBusy ServiceStatus = 4

	// ServiceCVOutOfRange means the CV number is not valid for the mode.
	ServiceCVOutOfRange ServiceStatus = 5
)

// String returns the status name.
func (s ServiceStatus) String() string {
	switch s {
	case ServiceNoAck:
		return "NO_ACK"
	case ServiceOverload:
		return "OVERLOAD"
	case ServiceWriteAck:
		return "WRITE_ACK"
	case ServiceBusy:
		return "BUSY"
	case ServiceCVOutOfRange:
		return "CV_OUT_OF_RANGE"
	default:
		return "UNKNOWN"
	}
}

// ErrorCode is the error number of an ERR report.
type ErrorCode uint8

const (
	ErrCodeLocoStackFull     ErrorCode = 1
	ErrCodeLocoAddressTaken  ErrorCode = 2
	ErrCodeSessionNotPresent ErrorCode = 3
	ErrCodeConsistEmpty      ErrorCode = 4
	ErrCodeLocoNotFound      ErrorCode = 5
	ErrCodeCANBusError       ErrorCode = 6
	ErrCodeInvalidRequest    ErrorCode = 7
	ErrCodeSessionCancelled  ErrorCode = 8
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeLocoStackFull:
		return "LOCO_STACK_FULL"
	case ErrCodeLocoAddressTaken:
		return "LOCO_ADDRESS_TAKEN"
	case ErrCodeSessionNotPresent:
		return "SESSION_NOT_PRESENT"
	case ErrCodeConsistEmpty:
		return "CONSIST_EMPTY"
	case ErrCodeLocoNotFound:
		return "LOCO_NOT_FOUND"
	case ErrCodeCANBusError:
		return "CAN_BUS_ERROR"
	case ErrCodeInvalidRequest:
		return "INVALID_REQUEST"
	case ErrCodeSessionCancelled:
		return "SESSION_CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// CommandError is an error that travels to the bus as an ERR report.
// Data1 and Data2 are the loco address (high, low) or the session
// handle and zero, depending on the code.
type CommandError struct {
	Code  ErrorCode
	Data1 byte
	Data2 byte
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("cbus: %s (%02X %02X)", e.Code, e.Data1, e.Data2)
}

// AddressError builds a CommandError that reports a loco address.
func AddressError(code ErrorCode, addr uint16) *CommandError {
	return &CommandError{Code: code, Data1: byte(addr >> 8), Data2: byte(addr)}
}

// SessionError builds a CommandError that reports a session handle.
func SessionError(code ErrorCode, session uint8) *CommandError {
	return &CommandError{Code: code, Data1: session}
}

// Status flag bits of the STAT report.
const (
	StatusHardwareError uint8 = 1 << 0
	StatusTrackError    uint8 = 1 << 1
	StatusTrackOn       uint8 = 1 << 2
	StatusBusOn         uint8 = 1 << 3
	StatusEmergencyStop uint8 = 1 << 4
	StatusResetDone     uint8 = 1 << 5
	StatusServiceMode   uint8 = 1 << 6
)

// Manufacturer and module identifiers reported in PNN.
const (
	ManufacturerMERG uint8 = 165
	ModuleCANCMD     uint8 = 10
)

// Node flag bits reported in PNN.
const (
	NodeFlagConsumer uint8 = 1 << 0
	NodeFlagProducer uint8 = 1 << 1
	NodeFlagFLiM     uint8 = 1 << 2
	NodeFlagBoot     uint8 = 1 << 3
)
