package udpstream

import (
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/domain"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/ports"
	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// FrameSource supplies the frames a Streamer sends.
type FrameSource = ports.FrameSource

// FrameSink consumes the frames a Viewer completes.
type FrameSink = ports.FrameSink

// Frame is one completed frame delivered to a FrameSink.
type Frame = domain.Frame

// Option configures optional behavior of a Streamer or Viewer.
type Option func(*options)

// options holds the optional configuration.
type options struct {
	logger  ports.Logger
	source  ports.FrameSource
	sink    ports.FrameSink
	plugins []Plugin
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFrameSource sets the frame source a Streamer sends from.
// If not provided, a synthetic source sized by the configuration's
// FrameBytes and FPS is used.
func WithFrameSource(source FrameSource) Option {
	return func(o *options) {
		o.source = source
	}
}

// WithFrameSink sets the sink a Viewer delivers completed frames to.
// If not provided, frames are counted and discarded.
func WithFrameSink(sink FrameSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithPlugin registers a plugin to be initialized on Start.
// Plugins are initialized in registration order and shutdown in
// reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// discardSink drops every frame. Default sink for a Viewer.
type discardSink struct{}

func (discardSink) Consume(domain.Frame) error { return nil }
