// Package transmit fans frames out to registered clients as chunked
// UDP packet sequences.
package transmit

import (
	"net"
	"time"

	"github.com/Pentagram-Sofware/udp-video-streamer/internal/metrics"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/ports"
	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/packet"
)

// DefaultWriteTimeout bounds a single datagram write. Sends are
// fire-and-forget; a destination that cannot accept a write loses the
// rest of this frame rather than blocking frame production.
const DefaultWriteTimeout = 50 * time.Millisecond

// Transmitter assigns frame ids and sends each frame's packet sequence
// to every destination. It owns the frame-id counter: ids increase
// strictly and wrap at 2^32 back to 0.
//
// Broadcast is called from the single frame pump goroutine; the
// counter needs no synchronization.
type Transmitter struct {
	conn         ports.PacketWriter
	payloadSize  int
	writeTimeout time.Duration
	nextFrameID  uint32

	logger  ports.Logger
	metrics *metrics.Metrics
}

// New creates a transmitter writing through conn. Non-positive
// payloadSize and writeTimeout take the defaults.
func New(conn ports.PacketWriter, payloadSize int, writeTimeout time.Duration, logger ports.Logger, m *metrics.Metrics) *Transmitter {
	if payloadSize <= 0 {
		payloadSize = packet.DefaultPayloadSize
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &Transmitter{
		conn:         conn,
		payloadSize:  payloadSize,
		writeTimeout: writeTimeout,
		logger:       logger,
		metrics:      m,
	}
}

// Broadcast fragments one frame and sends the full packet sequence to
// every destination, returning the frame id it assigned. Destinations
// receive independent copies. A write error drops the remaining
// packets for that destination only; the registry is left untouched —
// eviction is the sweep's job.
func (t *Transmitter) Broadcast(data []byte, dests []*net.UDPAddr) uint32 {
	id := t.nextFrameID
	t.nextFrameID++ // wraps at 2^32 by uint32 arithmetic

	if len(data) == 0 || len(dests) == 0 {
		return id
	}

	packets := packet.Fragment(data, id, t.payloadSize)
	for _, dest := range dests {
		t.sendSequence(packets, dest, id)
	}

	t.metrics.AddFramesSent(1)
	return id
}

// sendSequence writes the packet run to one destination, bailing out
// on the first failed write.
func (t *Transmitter) sendSequence(packets [][]byte, dest *net.UDPAddr, frameID uint32) {
	var sent, bytes uint64
	for _, p := range packets {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
		if _, err := t.conn.WriteToUDP(p, dest); err != nil {
			t.metrics.AddSendErrors(1)
			t.logger.Debug("send failed, dropping rest of frame for destination",
				ports.String("addr", dest.String()),
				ports.Uint32("frame_id", frameID),
				ports.Err(err))
			break
		}
		sent++
		bytes += uint64(len(p))
	}
	t.metrics.AddPacketsSent(sent, bytes)
}
