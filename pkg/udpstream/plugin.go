package udpstream

import (
	"context"
	"time"
)

// Plugin extends a Streamer or Viewer with optional functionality.
// Register plugins with WithPlugin; they are initialized when the host
// starts and shut down when it stops.
type Plugin interface {
	// Name returns a stable identifier used in log output.
	Name() string

	// Initialize starts the plugin. The context is cancelled when the
	// host stops.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and releases its resources.
	Shutdown(ctx context.Context) error
}

// PluginConfig carries host settings into a plugin.
type PluginConfig struct {
	// ConfigPath is the host's configuration file, empty when the host
	// was configured programmatically.
	ConfigPath string

	// Logger is the host's logger.
	Logger Logger

	// Tuner applies runtime-tunable settings to the host. Nil on
	// hosts with no tunable settings.
	Tuner RuntimeTuner
}

// RuntimeTuner adjusts settings that may change while the host is
// running. A Streamer implements it.
type RuntimeTuner interface {
	// SetClientTimeout adjusts the idle-viewer eviction window.
	SetClientTimeout(d time.Duration)
}
