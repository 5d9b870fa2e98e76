// Package station runs the command station core.
//
// A Station owns the programming state machine and serializes every
// change to it through one goroutine (Run). Inbound bus frames, programmer
// completions, session timeouts, loco keepalive sweeps and console
// requests all arrive on channels and are handled one at a time:
//
//	frame -> cbus.Classify -> dispatch.Dispatch -> notify.Notify -> Transmitter
//
// Receive and Complete never block the caller. When the inbound queue is
// full the frame is dropped and counted. Work that may stall (entering the
// bootloader) is returned by the dispatcher as a follow-up and runs on a
// separate worker.
package station
