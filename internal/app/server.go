package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/Pentagram-Sofware/udp-video-streamer/internal/metrics"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/ports"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/registry"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/transmit"
	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/packet"
)

// ServerConfig contains configuration for the sending side.
type ServerConfig struct {
	// ListenAddr is the local address to bind, default all interfaces.
	ListenAddr string

	// Port is the UDP port serving both control traffic and frames.
	Port int

	// PayloadSize is the number of frame bytes per CHUNK.
	PayloadSize int

	// WriteTimeout bounds each datagram write.
	WriteTimeout time.Duration

	// ClientTimeout evicts clients silent for longer than this.
	ClientTimeout time.Duration

	// SweepInterval is the period of the eviction sweep, decoupled
	// from the frame rate.
	SweepInterval time.Duration

	// MaxClients caps concurrently registered clients.
	MaxClients int

	// StatusInterval is the period of the status log line.
	StatusInterval time.Duration
}

// Server runs the sender side: it services registration traffic,
// sweeps idle clients, and fans frames from the source out to every
// registered viewer. The three duties run as independent goroutines
// sharing the registry, so a stalled send can never starve control
// traffic.
type Server struct {
	cfg      ServerConfig
	source   ports.FrameSource
	registry *registry.Registry
	logger   ports.Logger
	metrics  *metrics.Metrics

	conn *net.UDPConn
	tx   *transmit.Transmitter
}

// NewServer creates a server. Listen must be called before Run.
func NewServer(cfg ServerConfig, source ports.FrameSource, logger ports.Logger, m *metrics.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		source:   source,
		registry: registry.New(cfg.ClientTimeout, cfg.MaxClients, logger, m),
		logger:   logger,
		metrics:  m,
	}
}

// Listen binds the UDP socket. A bind failure is fatal to the server;
// it is the one error class this transport does not absorb.
func (s *Server) Listen() error {
	addr := &net.UDPAddr{IP: net.ParseIP(s.cfg.ListenAddr), Port: s.cfg.Port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("bind udp %s:%d: %w", s.cfg.ListenAddr, s.cfg.Port, err)
	}
	s.conn = conn
	s.tx = transmit.New(conn, s.cfg.PayloadSize, s.cfg.WriteTimeout, s.logger, s.metrics)

	s.logger.Info("udp server listening",
		ports.String("addr", conn.LocalAddr().String()),
		ports.Int("payload_size", s.cfg.PayloadSize),
		ports.Duration("client_timeout", s.cfg.ClientTimeout))
	return nil
}

// Addr returns the bound local address. Valid after Listen.
func (s *Server) Addr() *net.UDPAddr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Close releases the socket without running the loops.
func (s *Server) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// SetClientTimeout hot-applies a new eviction timeout. Used by config
// reload; takes effect on the next sweep.
func (s *Server) SetClientTimeout(d time.Duration) {
	s.registry.SetTimeout(d)
}

// Run executes the server loops until ctx is cancelled. Listen must
// have succeeded first.
func (s *Server) Run(ctx context.Context) error {
	if s.conn == nil {
		return errors.New("server: Run called before Listen")
	}
	defer s.conn.Close()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.controlLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.sweepLoop(ctx)
	}()

	err := s.streamLoop(ctx)
	wg.Wait()
	return err
}

// controlLoop services inbound registration, keepalive, and disconnect
// packets. Reads use a short deadline so cancellation is observed
// within a second even when no traffic arrives.
func (s *Server) controlLoop(ctx context.Context) {
	buf := make([]byte, packet.MaxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = s.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, src, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("control read failed", ports.Err(err))
			return
		}

		s.handleControl(buf[:n], src, time.Now())
	}
}

// handleControl dispatches one inbound datagram. Malformed packets are
// dropped without reply and without side effects.
func (s *Server) handleControl(data []byte, src *net.UDPAddr, now time.Time) {
	s.metrics.AddPacketsReceived(1, uint64(len(data)))

	switch packet.Classify(data) {
	case packet.KindRegister:
		if !s.registry.Register(src, now) {
			return
		}
		// The acknowledgment goes to the observed source address, not
		// anything the client claims: that is what holds the NAT
		// mapping open for the frame stream.
		_ = s.conn.SetWriteDeadline(now.Add(s.cfg.WriteTimeout))
		if _, err := s.conn.WriteToUDP([]byte(packet.TagRegistered), src); err != nil {
			s.logger.Warn("registration ack failed",
				ports.String("addr", src.String()),
				ports.Err(err))
		}
	case packet.KindKeepalive:
		s.registry.Keepalive(src, now)
	case packet.KindDisconnect:
		s.registry.Disconnect(src)
	default:
		s.metrics.AddPacketsDropped(1)
	}
}

// sweepLoop periodically evicts clients that stopped sending
// keepalives, independent of whether frames are flowing.
func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.registry.Sweep(time.Now())
		}
	}
}

// streamLoop pumps frames from the source through the transmitter at
// the source's cadence. Frames produced while no clients are
// registered are discarded.
func (s *Server) streamLoop(ctx context.Context) error {
	var framesSent uint64
	lastStatus := time.Now()
	statusFrames := uint64(0)

	for {
		data, err := s.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("frame source failed", ports.Err(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		if dests := s.registry.Snapshot(); len(dests) > 0 {
			s.tx.Broadcast(data, dests)
			framesSent++
			statusFrames++
		}

		if since := time.Since(lastStatus); since >= s.cfg.StatusInterval {
			s.logger.Info("streaming status",
				ports.Uint64("frames_sent", framesSent),
				ports.Int("clients", s.registry.Len()),
				ports.Float64("fps", float64(statusFrames)/since.Seconds()))
			lastStatus = time.Now()
			statusFrames = 0
		}
	}
}
