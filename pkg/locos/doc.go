// Package locos keeps the command station's loco session table.
//
// A Table allocates a session handle for every loco a CAB throttle takes
// control of, tracks speed, direction, speed step mode and function state,
// and releases sessions whose throttle stopped sending keepalives. Table
// implements dispatch.Throttles. Errors are *cbus.CommandError values
// carrying the CBUS ERR code to report.
package locos
