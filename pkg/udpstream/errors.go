package udpstream

import "github.com/Pentagram-Sofware/udp-video-streamer/internal/domain"

// Sentinel errors returned by Streamer and Viewer. Check with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = domain.ErrAlreadyRunning

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = domain.ErrNotRunning

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = domain.ErrShutdownTimeout

	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = domain.ErrInvalidConfig

	// ErrRegisterTimeout is returned when the server never acknowledges
	// a registration attempt.
	ErrRegisterTimeout = domain.ErrRegisterTimeout
)
