package packet

import "errors"

// Default transport sizing.
const (
	// DefaultPayloadSize is the number of frame bytes carried per CHUNK.
	// Chosen to stay under typical path MTU minus protocol overhead.
	DefaultPayloadSize = 1200

	// MaxDatagramSize is the largest datagram a receiver must accept.
	MaxDatagramSize = 65507
)

// Wire tags. Control packets are exactly the tag bytes; FRAME_START and
// CHUNK carry a fixed-width header after the tag.
const (
	TagFrameStart = "FRAME_START"
	TagChunk      = "CHUNK"
	TagRegister   = "REGISTER_CLIENT"
	TagRegistered = "REGISTERED"
	TagKeepalive  = "KEEPALIVE"
	TagDisconnect = "DISCONNECT"
)

// Header lengths including the tag.
const (
	FrameStartLen  = len(TagFrameStart) + 12
	ChunkHeaderLen = len(TagChunk) + 8
)

// ErrMalformed reports a datagram that does not parse as its tag implies.
// Callers are expected to drop such datagrams silently.
var ErrMalformed = errors.New("packet: malformed datagram")

// Kind classifies an inbound datagram by its tag.
type Kind int

const (
	KindUnknown Kind = iota
	KindFrameStart
	KindChunk
	KindRegister
	KindRegistered
	KindKeepalive
	KindDisconnect
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindFrameStart:
		return "FRAME_START"
	case KindChunk:
		return "CHUNK"
	case KindRegister:
		return "REGISTER_CLIENT"
	case KindRegistered:
		return "REGISTERED"
	case KindKeepalive:
		return "KEEPALIVE"
	case KindDisconnect:
		return "DISCONNECT"
	default:
		return "UNKNOWN"
	}
}

// FrameStart is the decoded header announcing a new frame.
type FrameStart struct {
	FrameID    uint32
	FrameSize  uint32
	ChunkCount uint32
}

// Chunk is one decoded slice of a frame.
type Chunk struct {
	FrameID uint32
	Index   uint32
	Payload []byte
}
