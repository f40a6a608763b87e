package domain

import "errors"

// Domain errors returned by the public API. Check with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("udpstream: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("udpstream: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("udpstream: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("udpstream: invalid configuration")

	// ErrRegisterTimeout is returned when the server never acknowledges
	// a registration attempt.
	ErrRegisterTimeout = errors.New("udpstream: registration timed out")
)
