// Package cbus defines CAN frames and opcodes for the CBUS layout control
// protocol as seen by a DCC command station.
//
// # Frames
//
// CBUS runs on classical CAN. Standard (11-bit) identifiers carry a 4-bit
// priority and the 7-bit CAN ID of the sending node. Extended (29-bit)
// identifiers are reserved for the bootloader stream.
//
// The first payload byte of a standard frame is the opcode. Its top three
// bits give the number of data bytes that follow, so a well-formed frame
// always has exactly 1 + (opcode >> 5) payload bytes.
//
// # Classification
//
// Classify tags every frame with exactly one Kind:
//   - StandardCommand: well-formed standard frame with a command opcode
//   - ExtendedCommand: extended identifier frame
//   - BusEvent: producer events and CAN ID enumeration traffic
//   - Unrecognized: anything malformed
//
// Unrecognized frames are returned to the caller, never dropped silently.
//
// # Opcode Catalogue
//
// The opcode constants in opcodes_gen.go are generated from opcodes.yaml by
// cmd/cbus-opgen. Opcodes outside the catalogue are still classified; whether
// they are acted on is up to the dispatcher.
package cbus
