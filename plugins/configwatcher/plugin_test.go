package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/udpstream"
)

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(msg string, fields ...udpstream.LogField) {}
func (noopLogger) Info(msg string, fields ...udpstream.LogField)  {}
func (noopLogger) Warn(msg string, fields ...udpstream.LogField)  {}
func (noopLogger) Error(msg string, fields ...udpstream.LogField) {}

// recordingTuner records applied timeouts.
type recordingTuner struct {
	mu       sync.Mutex
	timeouts []time.Duration
}

func (r *recordingTuner) SetClientTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeouts = append(r.timeouts, d)
}

func (r *recordingTuner) applied() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.timeouts...)
}

func TestPluginAppliesTimeoutOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`client_timeout = "30s"`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	tuner := &recordingTuner{}
	plugin := New(Config{DebounceDelay: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := plugin.Initialize(ctx, udpstream.PluginConfig{
		ConfigPath: path,
		Logger:     noopLogger{},
		Tuner:      tuner,
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer plugin.Shutdown(context.Background())

	// Give the watcher a moment to arm before touching the file.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte(`client_timeout = "45s"`), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		applied := tuner.applied()
		if len(applied) > 0 {
			if got := applied[len(applied)-1]; got != 45*time.Second {
				t.Errorf("applied timeout = %v, want 45s", got)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timeout was never applied after config change")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestPluginIgnoresInvalidTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`client_timeout = "bogus"`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	tuner := &recordingTuner{}
	plugin := New(DefaultConfig())
	plugin.configPath = path
	plugin.logger = noopLogger{}
	plugin.tuner = tuner

	plugin.apply()

	if got := tuner.applied(); len(got) != 0 {
		t.Errorf("applied = %v, want none for invalid duration", got)
	}
}

func TestPluginDisabledWithoutConfigPath(t *testing.T) {
	plugin := New(DefaultConfig())

	err := plugin.Initialize(context.Background(), udpstream.PluginConfig{
		Logger: noopLogger{},
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := plugin.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestPluginName(t *testing.T) {
	if got := New(DefaultConfig()).Name(); got != "configwatcher" {
		t.Errorf("Name() = %q, want configwatcher", got)
	}
}
