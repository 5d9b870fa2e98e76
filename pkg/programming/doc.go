// Package programming implements the service-mode programming state machine
// of the command station.
//
// # States
//
// The machine combines two axes:
//   - Mode: Idle, or one of DirectByte, DirectBit, Paged, Register, Address
//   - Power: Off or On
//
// At most one programming mode is active. A different mode can only be
// entered from Idle; entering the active mode again refreshes the CV
// address of the session.
//
// # Power Coupling
//
// Modes that drive the programming track (DirectByte, DirectBit, Paged,
// Register) require track power. Switching power off while one of them is
// active aborts the session and returns the machine to Idle; this abort is
// reported with ReasonPowerOff so it is never confused with a normal exit.
// Address mode is power independent. See RequiresPower.
//
// # Collaborators
//
// The machine only gates legality. The physical CV read or write is handed
// to a Programmer, which must accept work without blocking and report the
// outcome later through Complete.
//
// # Concurrency
//
// Machine is not safe for concurrent use. It is owned by a single
// serialized context (the station loop) and mutated only through its
// transition methods.
package programming
