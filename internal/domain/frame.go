package domain

import "time"

// Frame is one complete compressed video frame. The transport treats
// Data as an opaque byte buffer; encoding and decoding happen outside
// the system boundary.
type Frame struct {
	// ID is the sender-assigned frame identifier. It increases strictly
	// per sender and wraps at 2^32.
	ID uint32

	// Data is the compressed frame payload.
	Data []byte

	// ReceivedAt is when reassembly of this frame completed. Zero on
	// the sending side.
	ReceivedAt time.Time
}
