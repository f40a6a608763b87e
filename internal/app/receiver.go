package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/Pentagram-Sofware/udp-video-streamer/internal/domain"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/metrics"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/ports"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/reassembly"
	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/packet"
)

// ReceiverConfig contains configuration for the viewing side.
type ReceiverConfig struct {
	// ServerAddr is the streaming server's host:port. Required.
	ServerAddr string

	// PayloadSize must match the server's chunk payload size.
	PayloadSize int

	// StaleAfter is the staleness window for incomplete frames.
	StaleAfter time.Duration

	// MaxPending caps simultaneously assembling frames.
	MaxPending int

	// KeepaliveInterval is how often to refresh the NAT mapping.
	// Must be well under the server's client timeout.
	KeepaliveInterval time.Duration

	// RegisterTimeout bounds one registration attempt.
	RegisterTimeout time.Duration

	// RegisterAttempts is how many registrations to try before giving
	// up. Zero means the default.
	RegisterAttempts int

	// StatusInterval is the period of the status log line.
	StatusInterval time.Duration
}

// DefaultRegisterAttempts is how many registration attempts the
// receiver makes before reporting the server unreachable.
const DefaultRegisterAttempts = 5

// Receiver runs the viewing side: it registers with the server, keeps
// the NAT mapping alive, and feeds every inbound datagram to the
// reassembly engine. Completed frames go to the sink; everything else
// is dropped silently.
type Receiver struct {
	cfg     ReceiverConfig
	sink    ports.FrameSink
	logger  ports.Logger
	metrics *metrics.Metrics

	framesReceived uint64
}

// NewReceiver creates a receiver delivering completed frames to sink.
func NewReceiver(cfg ReceiverConfig, sink ports.FrameSink, logger ports.Logger, m *metrics.Metrics) *Receiver {
	return &Receiver{cfg: cfg, sink: sink, logger: logger, metrics: m}
}

// Run connects, registers, and consumes the frame stream until ctx is
// cancelled. All pending reassembly state is discarded on shutdown; no
// partial frames are emitted.
func (r *Receiver) Run(ctx context.Context) error {
	raddr, err := net.ResolveUDPAddr("udp", r.cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("resolve server address %q: %w", r.cfg.ServerAddr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return fmt.Errorf("dial udp %s: %w", r.cfg.ServerAddr, err)
	}
	defer conn.Close()

	if err := r.register(ctx, conn); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.keepaliveLoop(ctx, conn)
	}()

	err = r.receiveLoop(ctx, conn)

	// Best-effort goodbye so the server frees the slot before the
	// sweep would.
	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, _ = conn.Write([]byte(packet.TagDisconnect))

	wg.Wait()
	return err
}

// register performs the REGISTER_CLIENT / REGISTERED handshake with
// exponential backoff between attempts.
func (r *Receiver) register(ctx context.Context, conn *net.UDPConn) error {
	attempts := r.cfg.RegisterAttempts
	if attempts <= 0 {
		attempts = DefaultRegisterAttempts
	}

	back := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)
	buf := make([]byte, packet.MaxDatagramSize)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
		if _, err := conn.Write([]byte(packet.TagRegister)); err != nil {
			r.logger.Warn("registration send failed", ports.Err(err))
		} else if r.awaitAck(conn, buf) {
			r.logger.Info("registered with server",
				ports.String("server", r.cfg.ServerAddr),
				ports.Int("attempt", attempt))
			return nil
		}

		if attempt >= attempts {
			return fmt.Errorf("%w: %s after %d attempts",
				domain.ErrRegisterTimeout, r.cfg.ServerAddr, attempts)
		}
		r.logger.Warn("no registration ack, retrying",
			ports.Int("attempt", attempt),
			ports.Duration("backoff", back.Current()))
		if err := back.Wait(ctx); err != nil {
			return err
		}
	}
}

// awaitAck reads until REGISTERED arrives or the attempt deadline
// passes. Frame packets that race ahead of the ack are ignored here;
// the stream restarts on every FRAME_START so nothing is lost.
func (r *Receiver) awaitAck(conn *net.UDPConn, buf []byte) bool {
	deadline := time.Now().Add(r.cfg.RegisterTimeout)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		n, err := conn.Read(buf)
		if err != nil {
			return false
		}
		if packet.Classify(buf[:n]) == packet.KindRegistered {
			return true
		}
	}
	return false
}

// keepaliveLoop refreshes the server-side session and the NAT mapping
// on a fixed period.
func (r *Receiver) keepaliveLoop(ctx context.Context, conn *net.UDPConn) {
	ticker := time.NewTicker(r.cfg.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
			if _, err := conn.Write([]byte(packet.TagKeepalive)); err != nil {
				r.logger.Warn("keepalive send failed", ports.Err(err))
			}
		}
	}
}

// receiveLoop is the single inbound-packet consumer feeding the
// reassembly engine. Staleness is evaluated opportunistically between
// reads; nothing in this loop blocks waiting for a specific chunk.
func (r *Receiver) receiveLoop(ctx context.Context, conn *net.UDPConn) error {
	engine := reassembly.New(reassembly.Config{
		PayloadSize: r.cfg.PayloadSize,
		StaleAfter:  r.cfg.StaleAfter,
		MaxPending:  r.cfg.MaxPending,
	}, r.deliver, r.logger, r.metrics)
	defer engine.Reset()

	buf := make([]byte, packet.MaxDatagramSize)
	lastSweep := time.Now()
	lastStatus := time.Now()
	statusFrames := uint64(0)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, err := conn.Read(buf)
		now := time.Now()

		if err != nil {
			var nerr net.Error
			if !errors.As(err, &nerr) || !nerr.Timeout() {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("receive: %w", err)
			}
		} else {
			engine.HandleDatagram(buf[:n], now)
		}

		if now.Sub(lastSweep) >= 500*time.Millisecond {
			engine.SweepStale(now)
			lastSweep = now
		}
		if since := now.Sub(lastStatus); since >= r.cfg.StatusInterval {
			r.logger.Info("viewing status",
				ports.Uint64("frames_received", r.framesReceived),
				ports.Int("pending", engine.PendingCount()),
				ports.Float64("fps", float64(r.framesReceived-statusFrames)/since.Seconds()))
			lastStatus = now
			statusFrames = r.framesReceived
		}
	}
}

// deliver hands one completed frame to the sink.
func (r *Receiver) deliver(frame domain.Frame) {
	r.framesReceived++
	if err := r.sink.Consume(frame); err != nil {
		r.logger.Error("frame sink failed",
			ports.Uint32("frame_id", frame.ID),
			ports.Err(err))
	}
}
