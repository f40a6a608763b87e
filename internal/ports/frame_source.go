package ports

import "context"

// FrameSource produces compressed frames for transmission.
// Implementations wrap a camera pipeline, a file reader, or a
// synthetic generator; the transport only sees opaque bytes.
type FrameSource interface {
	// Next blocks until the next compressed frame is available and
	// returns its bytes. The returned slice is owned by the caller.
	// Returns the context error when ctx is cancelled.
	Next(ctx context.Context) ([]byte, error)

	// Close releases any resources held by the source.
	Close() error
}
