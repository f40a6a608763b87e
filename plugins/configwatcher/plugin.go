// Package configwatcher provides config file monitoring for the
// streaming server. When enabled, it watches the TOML config file for
// changes and applies runtime-tunable settings to the running host
// without a restart.
package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/udpstream"
)

// Plugin implements config file watching. It monitors the host's
// config file and applies tunable settings on change.
type Plugin struct {
	mu sync.RWMutex

	// Configuration
	debounceDelay time.Duration

	// Runtime state
	configPath string
	logger     udpstream.Logger
	tuner      udpstream.RuntimeTuner
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	debounce   *time.Timer
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// DebounceDelay is the delay to wait after a file change before
	// applying. Editors often produce several events per save.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{
		debounceDelay: cfg.DebounceDelay,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize sets up the plugin and starts the file watcher.
func (p *Plugin) Initialize(ctx context.Context, cfg udpstream.PluginConfig) error {
	p.mu.Lock()
	p.configPath = cfg.ConfigPath
	p.logger = cfg.Logger
	p.tuner = cfg.Tuner
	p.mu.Unlock()

	if p.configPath == "" || p.tuner == nil {
		p.logger.Warn("config watcher disabled: no config path or no tunable host")
		return nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("config watcher plugin initialized")

	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	return nil
}

// Shutdown stops the file watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

// watchLoop watches for config file changes. The containing directory
// is watched rather than the file itself, because editors replace
// files on save and a file watch dies with the old inode.
func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.logger.Error("config watcher: failed to create watcher")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(p.configPath)); err != nil {
		p.logger.Error("config watcher: failed to watch directory")
		return
	}

	target := filepath.Base(p.configPath)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceApply(p.debounceDelay)

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher: watcher error")
		}
	}
}

func (p *Plugin) debounceApply(delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(delay, p.apply)
}

// tunables is the subset of the config file that may change at
// runtime. Everything else requires a restart.
type tunables struct {
	ClientTimeout string `toml:"client_timeout"`
}

// apply re-reads the config file and pushes tunable settings to the
// host.
func (p *Plugin) apply() {
	p.mu.RLock()
	path := p.configPath
	tuner := p.tuner
	p.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		p.logger.Error("config watcher: read failed")
		return
	}

	var tn tunables
	if err := toml.Unmarshal(data, &tn); err != nil {
		p.logger.Error("config watcher: parse failed")
		return
	}

	if tn.ClientTimeout != "" {
		d, err := time.ParseDuration(tn.ClientTimeout)
		if err != nil || d <= 0 {
			p.logger.Error("config watcher: invalid client_timeout")
			return
		}
		tuner.SetClientTimeout(d)
		p.logger.Info("config watcher: applied client timeout")
	}
}

// Ensure Plugin implements udpstream.Plugin.
var _ udpstream.Plugin = (*Plugin)(nil)
