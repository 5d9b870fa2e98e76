// Package gridconnect implements the GridConnect ASCII framing used by CBUS
// USB and TCP interfaces.
//
// A standard frame is written as
//
//	:S<hhhh>N<data>;
//
// where hhhh is the 11-bit identifier shifted into the SIDH/SIDL register
// layout (ID << 5) and data is up to 16 hex digits. Extended frames use an
// X and the plain 29-bit identifier in 8 hex digits. A remote request frame
// uses R instead of N.
//
// Reader and Writer carry frames over any byte stream and can report every
// frame to a protocol logger.
package gridconnect
