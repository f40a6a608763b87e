package ports

import "github.com/Pentagram-Sofware/udp-video-streamer/pkg/log"

// Logger is the structured logging abstraction used across internal
// packages. It aliases pkg/log so internal code can import one package
// for both its ports and its log fields.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors re-exported for convenience.
var (
	String   = log.String
	Int      = log.Int
	Uint32   = log.Uint32
	Uint64   = log.Uint64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Any      = log.Any
)
