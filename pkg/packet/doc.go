// Package packet implements the UDP wire format for the frame stream.
//
// A compressed frame travels as one FRAME_START packet followed by a
// run of CHUNK packets, each small enough to stay under typical path
// MTU so datagrams are never fragmented at the IP layer. Control
// packets (REGISTER_CLIENT, REGISTERED, KEEPALIVE, DISCONNECT) are
// bare tag literals.
//
// All fixed-width fields are big-endian. The packet layouts are:
//
//	FRAME_START  "FRAME_START" | frameID u32 | frameSize u32 | chunkCount u32
//	CHUNK        "CHUNK"       | frameID u32 | chunkIndex u32 | payload
//
// The codec is pure: it performs no I/O and holds no state. Boundary
// validation beyond structural well-formedness (chunk index ranges,
// buffer offsets) is the receiver's responsibility.
package packet
