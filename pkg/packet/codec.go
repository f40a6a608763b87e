package packet

import (
	"bytes"
	"encoding/binary"
)

// ChunkCount returns the number of CHUNK packets needed to carry
// frameSize bytes at the given payload size.
func ChunkCount(frameSize, payloadSize int) int {
	if frameSize <= 0 || payloadSize <= 0 {
		return 0
	}
	return (frameSize + payloadSize - 1) / payloadSize
}

// EncodeFrameStart builds a FRAME_START packet.
func EncodeFrameStart(fs FrameStart) []byte {
	b := make([]byte, FrameStartLen)
	n := copy(b, TagFrameStart)
	binary.BigEndian.PutUint32(b[n:], fs.FrameID)
	binary.BigEndian.PutUint32(b[n+4:], fs.FrameSize)
	binary.BigEndian.PutUint32(b[n+8:], fs.ChunkCount)
	return b
}

// EncodeChunk builds a CHUNK packet carrying the given payload.
// The payload is copied; callers may reuse their buffer.
func EncodeChunk(frameID, index uint32, payload []byte) []byte {
	b := make([]byte, ChunkHeaderLen+len(payload))
	n := copy(b, TagChunk)
	binary.BigEndian.PutUint32(b[n:], frameID)
	binary.BigEndian.PutUint32(b[n+4:], index)
	copy(b[ChunkHeaderLen:], payload)
	return b
}

// Fragment splits an opaque frame into its full packet sequence:
// one FRAME_START followed by ChunkCount(len(data), payloadSize)
// CHUNK packets in index order. A non-positive payloadSize falls
// back to DefaultPayloadSize.
func Fragment(data []byte, frameID uint32, payloadSize int) [][]byte {
	if payloadSize <= 0 {
		payloadSize = DefaultPayloadSize
	}

	count := ChunkCount(len(data), payloadSize)
	packets := make([][]byte, 0, count+1)
	packets = append(packets, EncodeFrameStart(FrameStart{
		FrameID:    frameID,
		FrameSize:  uint32(len(data)),
		ChunkCount: uint32(count),
	}))

	for i := 0; i < count; i++ {
		off := i * payloadSize
		end := off + payloadSize
		if end > len(data) {
			end = len(data)
		}
		packets = append(packets, EncodeChunk(frameID, uint32(i), data[off:end]))
	}

	return packets
}

// Classify identifies a datagram by its tag. Control tags are matched
// exactly; FRAME_START, CHUNK, and REGISTER_CLIENT by prefix. Exact
// tags are checked first since REGISTERED shares a prefix with
// REGISTER_CLIENT.
func Classify(b []byte) Kind {
	switch {
	case bytes.Equal(b, []byte(TagRegistered)):
		return KindRegistered
	case bytes.Equal(b, []byte(TagKeepalive)):
		return KindKeepalive
	case bytes.Equal(b, []byte(TagDisconnect)):
		return KindDisconnect
	case bytes.HasPrefix(b, []byte(TagRegister)):
		return KindRegister
	case bytes.HasPrefix(b, []byte(TagFrameStart)):
		return KindFrameStart
	case bytes.HasPrefix(b, []byte(TagChunk)):
		return KindChunk
	default:
		return KindUnknown
	}
}

// DecodeFrameStart parses a FRAME_START packet.
func DecodeFrameStart(b []byte) (FrameStart, error) {
	if len(b) != FrameStartLen || !bytes.HasPrefix(b, []byte(TagFrameStart)) {
		return FrameStart{}, ErrMalformed
	}
	h := b[len(TagFrameStart):]
	return FrameStart{
		FrameID:    binary.BigEndian.Uint32(h),
		FrameSize:  binary.BigEndian.Uint32(h[4:]),
		ChunkCount: binary.BigEndian.Uint32(h[8:]),
	}, nil
}

// DecodeChunk parses a CHUNK packet. The returned payload aliases b.
func DecodeChunk(b []byte) (Chunk, error) {
	if len(b) < ChunkHeaderLen || !bytes.HasPrefix(b, []byte(TagChunk)) {
		return Chunk{}, ErrMalformed
	}
	h := b[len(TagChunk):]
	return Chunk{
		FrameID: binary.BigEndian.Uint32(h),
		Index:   binary.BigEndian.Uint32(h[4:]),
		Payload: b[ChunkHeaderLen:],
	}, nil
}
