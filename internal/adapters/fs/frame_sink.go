// Package fs provides filesystem-backed adapters for the streaming
// pipeline.
package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Pentagram-Sofware/udp-video-streamer/internal/domain"
)

// FrameSink implements ports.FrameSink by writing each completed frame
// to a numbered file in a directory. Useful for inspecting received
// frames or feeding a downstream decoder.
type FrameSink struct {
	dir     string
	written uint64
}

// NewFrameSink creates a sink writing frames under dir.
func NewFrameSink(dir string) *FrameSink {
	return &FrameSink{dir: dir}
}

// Consume writes the frame atomically (temp file, then rename) so a
// reader never observes a partial frame.
func (s *FrameSink) Consume(frame domain.Frame) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}

	path := filepath.Join(s.dir, fmt.Sprintf("frame_%06d_%010d.bin", s.written, frame.ID))
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, frame.Data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}

	s.written++
	return nil
}

// Written reports how many frames the sink has persisted.
func (s *FrameSink) Written() uint64 {
	return s.written
}
