package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ListenAddr     string `toml:"listen_addr"`
	Port           int    `toml:"port"`
	PayloadSize    int    `toml:"payload_size"`
	ClientTimeout  string `toml:"client_timeout"`
	SweepInterval  string `toml:"sweep_interval"`
	WriteTimeout   string `toml:"write_timeout"`
	MaxClients     int    `toml:"max_clients"`
	FrameBytes     int    `toml:"frame_bytes"`
	FPS            int    `toml:"fps"`
	StatusInterval string `toml:"status_interval"`

	ServerHost        string `toml:"server"`
	StaleAfter        string `toml:"stale_after"`
	MaxPending        int    `toml:"max_pending"`
	KeepaliveInterval string `toml:"keepalive"`
	RegisterTimeout   string `toml:"register_timeout"`
	RegisterAttempts  int    `toml:"register_attempts"`
	OutputDir         string `toml:"output_dir"`

	MetricsAddr string `toml:"metrics_addr"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.streamer/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".streamer", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("server", fc.ServerHost, &cfg.ServerHost)
	s.setString("output-dir", fc.OutputDir, &cfg.OutputDir)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)

	s.setInt("port", fc.Port, &cfg.Port)
	s.setInt("payload-size", fc.PayloadSize, &cfg.PayloadSize)
	s.setInt("max-clients", fc.MaxClients, &cfg.MaxClients)
	s.setInt("frame-bytes", fc.FrameBytes, &cfg.FrameBytes)
	s.setInt("fps", fc.FPS, &cfg.FPS)
	s.setInt("max-pending", fc.MaxPending, &cfg.MaxPending)
	s.setInt("register-attempts", fc.RegisterAttempts, &cfg.RegisterAttempts)

	if err := s.setDuration("client-timeout", fc.ClientTimeout, &cfg.ClientTimeout); err != nil {
		return err
	}
	if err := s.setDuration("sweep-interval", fc.SweepInterval, &cfg.SweepInterval); err != nil {
		return err
	}
	if err := s.setDuration("write-timeout", fc.WriteTimeout, &cfg.WriteTimeout); err != nil {
		return err
	}
	if err := s.setDuration("status-interval", fc.StatusInterval, &cfg.StatusInterval); err != nil {
		return err
	}
	if err := s.setDuration("stale-after", fc.StaleAfter, &cfg.StaleAfter); err != nil {
		return err
	}
	if err := s.setDuration("keepalive", fc.KeepaliveInterval, &cfg.KeepaliveInterval); err != nil {
		return err
	}
	if err := s.setDuration("register-timeout", fc.RegisterTimeout, &cfg.RegisterTimeout); err != nil {
		return err
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
