// Package dispatch routes classified CBUS frames to their handlers.
//
// The Dispatcher is the single place where bus traffic mutates the command
// station. Every call receives the programming.Machine by exclusive
// reference and returns an Outcome describing what happened; the Outcome is
// turned into reply frames by package notify.
//
// # Handler Tables
//
// Handlers are looked up per frame kind:
//   - StandardCommand: by opcode (programming, power, throttle, accessory,
//     query and node commands)
//   - ExtendedCommand: by 29-bit identifier (bootloader control)
//   - BusEvent: by opcode (accessory events, CAN ID enumeration)
//
// Opcodes without a handler produce OutcomeIgnored and leave the state
// untouched. Unrecognized frames produce OutcomeUnrecognized.
//
// # Blocking
//
// Dispatch never blocks. Throttles and Accessories must accept work
// immediately. Anything that may take time, such as entering the
// bootloader, is returned as Outcome.FollowUp for the caller to run
// outside the dispatch context.
package dispatch
