// Package bridge shares the CBUS bus with TCP clients using GridConnect
// framing.
//
// Each accepted client gets a UUID connection ID. Frames a client sends are
// handed to the OnFrame callback (normally the station's receive queue)
// and, when forwarding is on, relayed to every other client, so
// the bridge behaves like a CAN segment. Frames transmitted by the station
// are broadcast to all clients.
//
// Writes go through a bounded per-client queue. A client that cannot keep
// up loses frames instead of stalling the station.
package bridge
