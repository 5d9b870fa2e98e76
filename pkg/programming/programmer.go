package programming

import "errors"

// Op is the kind of CV operation handed to the Programmer.
type Op uint8

const (
	OpWrite Op = iota + 1
	OpRead
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpWrite:
		return "WRITE"
	case OpRead:
		return "READ"
	default:
		return "UNKNOWN"
	}
}

// Request is a CV operation for the programming track.
type Request struct {
	Op     Op
	Mode   Mode
	CV     CVAddress
	Value  byte  // value to write; ignored for reads
	Handle uint8 // session handle of the requesting throttle

	// Seq identifies the submission. Programmers must return it unchanged
	// in the Result.
	Seq uint32
}

// Result reports the physical outcome of a Request.
type Result struct {
	Request Request

	// Value is the byte read back (reads) or written (writes).
	Value byte

	// Err is nil on success, otherwise one of the programmer errors.
	Err error
}

// Programmer errors reported by track collaborators.
var (
	// ErrNoAck means the decoder did not acknowledge the operation.
	ErrNoAck = errors.New("decoder did not acknowledge")

	// ErrOverload means the programming track drew too much current.
	ErrOverload = errors.New("programming track overload")

	// ErrProgrammerBusy means the programmer cannot accept more work.
	ErrProgrammerBusy = errors.New("programmer busy")
)

// Programmer generates the programming track signal for CV operations.
// Submit must not block: it queues the request and returns, and the
// outcome is delivered later as a Result.
type Programmer interface {
	Submit(req Request) error
}

// ProgrammerFunc adapts a function to the Programmer interface.
type ProgrammerFunc func(req Request) error

// Submit calls f(req).
func (f ProgrammerFunc) Submit(req Request) error {
	return f(req)
}
