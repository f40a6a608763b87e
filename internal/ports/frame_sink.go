package ports

import "github.com/Pentagram-Sofware/udp-video-streamer/internal/domain"

// FrameSink consumes completed frames on the receiving side.
// Implementations render, persist, or forward the frame. Consume is
// called from the receive loop; slow sinks delay reassembly, so
// implementations that do real work should hand off internally.
type FrameSink interface {
	// Consume receives one completed frame. The frame's Data is owned
	// by the sink after the call returns.
	Consume(frame domain.Frame) error
}
