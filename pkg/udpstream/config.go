package udpstream

import (
	"fmt"
	"time"

	"github.com/Pentagram-Sofware/udp-video-streamer/internal/app"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/domain"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/reassembly"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/registry"
	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/packet"
)

// DefaultPort is the UDP port a Streamer binds when none is set.
const DefaultPort = 9999

// StreamerConfig configures the sending side.
type StreamerConfig struct {
	// ListenAddr is the local address to bind. Empty binds all
	// interfaces.
	ListenAddr string

	// Port is the UDP port serving control traffic and frames.
	Port int

	// PayloadSize is the number of frame bytes carried per datagram.
	PayloadSize int

	// WriteTimeout bounds each datagram write.
	WriteTimeout time.Duration

	// ClientTimeout evicts viewers silent for longer than this.
	ClientTimeout time.Duration

	// SweepInterval is the period of the idle-viewer sweep.
	SweepInterval time.Duration

	// MaxClients caps concurrently registered viewers.
	MaxClients int

	// StatusInterval is the period of the status log line.
	StatusInterval time.Duration

	// FrameBytes and FPS size the built-in synthetic frame source,
	// used when no WithFrameSource option is given.
	FrameBytes int
	FPS        int

	// MetricsAddr, when set, serves Prometheus metrics over HTTP on
	// this address.
	MetricsAddr string

	// ConfigPath is handed to plugins that watch configuration files.
	ConfigPath string
}

// SetDefaults fills zero-valued fields with defaults.
func (c *StreamerConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.PayloadSize == 0 {
		c.PayloadSize = packet.DefaultPayloadSize
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 50 * time.Millisecond
	}
	if c.ClientTimeout == 0 {
		c.ClientTimeout = 30 * time.Second
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = 5 * time.Second
	}
	if c.MaxClients == 0 {
		c.MaxClients = registry.DefaultMaxClients
	}
	if c.StatusInterval == 0 {
		c.StatusInterval = 10 * time.Second
	}
	if c.FrameBytes == 0 {
		c.FrameBytes = 32 << 10
	}
	if c.FPS == 0 {
		c.FPS = 30
	}
}

// Validate checks the configuration for errors.
func (c *StreamerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be in 1..65535, got %d", domain.ErrInvalidConfig, c.Port)
	}
	if c.PayloadSize <= 0 || c.PayloadSize > packet.MaxDatagramSize-packet.ChunkHeaderLen {
		return fmt.Errorf("%w: payload size must be in 1..%d, got %d",
			domain.ErrInvalidConfig, packet.MaxDatagramSize-packet.ChunkHeaderLen, c.PayloadSize)
	}
	if c.ClientTimeout <= 0 {
		return fmt.Errorf("%w: client timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("%w: sweep interval must be positive", domain.ErrInvalidConfig)
	}
	if c.MaxClients <= 0 {
		return fmt.Errorf("%w: max clients must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

func (c StreamerConfig) serverConfig() app.ServerConfig {
	return app.ServerConfig{
		ListenAddr:     c.ListenAddr,
		Port:           c.Port,
		PayloadSize:    c.PayloadSize,
		WriteTimeout:   c.WriteTimeout,
		ClientTimeout:  c.ClientTimeout,
		SweepInterval:  c.SweepInterval,
		MaxClients:     c.MaxClients,
		StatusInterval: c.StatusInterval,
	}
}

// ViewerConfig configures the viewing side.
type ViewerConfig struct {
	// ServerAddr is the streamer's host:port. Required.
	ServerAddr string

	// PayloadSize must match the streamer's payload size.
	PayloadSize int

	// StaleAfter discards incomplete frames older than this.
	StaleAfter time.Duration

	// MaxPending caps simultaneously assembling frames.
	MaxPending int

	// KeepaliveInterval refreshes the NAT mapping. Must stay well
	// under the streamer's client timeout.
	KeepaliveInterval time.Duration

	// RegisterTimeout bounds one registration attempt.
	RegisterTimeout time.Duration

	// RegisterAttempts is how many registrations to try before giving
	// up.
	RegisterAttempts int

	// StatusInterval is the period of the status log line.
	StatusInterval time.Duration

	// MetricsAddr, when set, serves Prometheus metrics over HTTP on
	// this address.
	MetricsAddr string

	// ConfigPath is handed to plugins that watch configuration files.
	ConfigPath string
}

// SetDefaults fills zero-valued fields with defaults.
func (c *ViewerConfig) SetDefaults() {
	if c.PayloadSize == 0 {
		c.PayloadSize = packet.DefaultPayloadSize
	}
	if c.StaleAfter == 0 {
		c.StaleAfter = reassembly.DefaultStaleAfter
	}
	if c.MaxPending == 0 {
		c.MaxPending = reassembly.DefaultMaxPending
	}
	if c.KeepaliveInterval == 0 {
		c.KeepaliveInterval = 15 * time.Second
	}
	if c.RegisterTimeout == 0 {
		c.RegisterTimeout = 5 * time.Second
	}
	if c.RegisterAttempts == 0 {
		c.RegisterAttempts = app.DefaultRegisterAttempts
	}
	if c.StatusInterval == 0 {
		c.StatusInterval = 10 * time.Second
	}
}

// Validate checks the configuration for errors.
func (c *ViewerConfig) Validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("%w: server address is required", domain.ErrInvalidConfig)
	}
	if c.StaleAfter <= 0 {
		return fmt.Errorf("%w: stale window must be positive", domain.ErrInvalidConfig)
	}
	if c.MaxPending <= 0 {
		return fmt.Errorf("%w: max pending must be positive", domain.ErrInvalidConfig)
	}
	if c.KeepaliveInterval <= 0 {
		return fmt.Errorf("%w: keepalive interval must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

func (c ViewerConfig) receiverConfig() app.ReceiverConfig {
	return app.ReceiverConfig{
		ServerAddr:        c.ServerAddr,
		PayloadSize:       c.PayloadSize,
		StaleAfter:        c.StaleAfter,
		MaxPending:        c.MaxPending,
		KeepaliveInterval: c.KeepaliveInterval,
		RegisterTimeout:   c.RegisterTimeout,
		RegisterAttempts:  c.RegisterAttempts,
		StatusInterval:    c.StatusInterval,
	}
}
