// Package track simulates the service-mode programming track.
//
// Simulator implements programming.Programmer. Requests are queued without
// blocking and executed by a worker goroutine against an in-memory decoder,
// and each outcome is handed to a completion callback as a
// programming.Result. The simulator is used by the cancmd daemon when no
// hardware booster is attached and by tests that need realistic decoder
// behavior for each programming mode.
package track
