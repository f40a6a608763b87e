package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Pentagram-Sofware/udp-video-streamer/internal/app"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/domain"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/reassembly"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/registry"
	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/packet"
)

// DefaultPort is the UDP port the streamer listens on.
const DefaultPort = 9999

// Config holds CLI configuration for both the serve and view commands.
type Config struct {
	// Server side.
	ListenAddr     string
	Port           int
	PayloadSize    int
	ClientTimeout  time.Duration
	SweepInterval  time.Duration
	WriteTimeout   time.Duration
	MaxClients     int
	FrameBytes     int
	FPS            int
	StatusInterval time.Duration

	// Viewer side.
	ServerHost        string
	StaleAfter        time.Duration
	MaxPending        int
	KeepaliveInterval time.Duration
	RegisterTimeout   time.Duration
	RegisterAttempts  int
	OutputDir         string

	// Shared.
	MetricsAddr string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ListenAddr:        "0.0.0.0",
		Port:              DefaultPort,
		PayloadSize:       packet.DefaultPayloadSize,
		ClientTimeout:     30 * time.Second,
		SweepInterval:     5 * time.Second,
		WriteTimeout:      50 * time.Millisecond,
		MaxClients:        registry.DefaultMaxClients,
		FrameBytes:        32 << 10,
		FPS:               30,
		StatusInterval:    10 * time.Second,
		StaleAfter:        reassembly.DefaultStaleAfter,
		MaxPending:        reassembly.DefaultMaxPending,
		KeepaliveInterval: 15 * time.Second,
		RegisterTimeout:   5 * time.Second,
		RegisterAttempts:  app.DefaultRegisterAttempts,
	}
}

// ValidateServer checks the server-side configuration.
func (c *Config) ValidateServer() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be in 1..65535, got %d", domain.ErrInvalidConfig, c.Port)
	}
	if c.PayloadSize <= 0 || c.PayloadSize > packet.MaxDatagramSize-packet.ChunkHeaderLen {
		return fmt.Errorf("%w: payload-size must be in 1..%d, got %d",
			domain.ErrInvalidConfig, packet.MaxDatagramSize-packet.ChunkHeaderLen, c.PayloadSize)
	}
	if c.ClientTimeout <= 0 {
		return fmt.Errorf("%w: client-timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("%w: sweep-interval must be positive", domain.ErrInvalidConfig)
	}
	if c.MaxClients <= 0 {
		return fmt.Errorf("%w: max-clients must be positive", domain.ErrInvalidConfig)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

// ValidateViewer checks the viewer-side configuration.
func (c *Config) ValidateViewer() error {
	if c.ServerHost == "" {
		return fmt.Errorf("%w: server is required", domain.ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be in 1..65535, got %d", domain.ErrInvalidConfig, c.Port)
	}
	if c.StaleAfter <= 0 {
		return fmt.Errorf("%w: stale-after must be positive", domain.ErrInvalidConfig)
	}
	if c.MaxPending <= 0 {
		return fmt.Errorf("%w: max-pending must be positive", domain.ErrInvalidConfig)
	}
	if c.KeepaliveInterval <= 0 {
		return fmt.Errorf("%w: keepalive must be positive", domain.ErrInvalidConfig)
	}
	if c.RegisterAttempts <= 0 {
		return fmt.Errorf("%w: register-attempts must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidConfig, flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidConfig, flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}
