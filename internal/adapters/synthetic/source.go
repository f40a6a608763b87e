// Package synthetic provides a frame source that generates opaque test
// frames at a fixed rate. It stands in for a camera pipeline when
// exercising the transport without capture hardware.
package synthetic

import (
	"context"
	"encoding/binary"
	"time"
)

// Source produces deterministic patterned frames at a fixed cadence.
// Each frame begins with its sequence number so receivers can verify
// content, followed by a per-frame byte pattern.
type Source struct {
	frameBytes int
	interval   time.Duration
	seq        uint64
}

// New creates a source producing frames of frameBytes bytes at fps
// frames per second.
func New(frameBytes, fps int) *Source {
	if frameBytes < 8 {
		frameBytes = 32 << 10
	}
	if fps <= 0 {
		fps = 30
	}
	return &Source{
		frameBytes: frameBytes,
		interval:   time.Second / time.Duration(fps),
	}
}

// Next waits one frame interval and returns the next generated frame.
func (s *Source) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.interval):
	}

	frame := make([]byte, s.frameBytes)
	binary.BigEndian.PutUint64(frame, s.seq)
	fill := byte(s.seq)
	for i := 8; i < len(frame); i++ {
		frame[i] = fill ^ byte(i)
	}
	s.seq++
	return frame, nil
}

// Close is a no-op; the source holds no resources.
func (s *Source) Close() error { return nil }
