// Package reassembly rebuilds frames from their chunk sequence on the
// receiving side.
//
// The engine is purely reactive: it consumes inbound datagrams, keeps a
// table of partially assembled frames keyed by frame id, and emits each
// completed frame exactly once. Loss is expected and silent — a frame
// missing any chunk is never emitted and is garbage-collected once it
// sits incomplete past the staleness window.
//
// The engine is not safe for concurrent use. It is owned by the single
// receive loop; staleness sweeps run opportunistically from that same
// loop, never via blocking waits.
package reassembly

import (
	"time"

	"github.com/Pentagram-Sofware/udp-video-streamer/internal/domain"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/metrics"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/ports"
	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/packet"
)

// Defaults for the reassembly policy knobs.
const (
	// DefaultStaleAfter is how long an incomplete frame may linger.
	// Generous next to a typical frame interval so slow links still
	// complete, small enough to bound memory.
	DefaultStaleAfter = 2 * time.Second

	// DefaultMaxPending bounds simultaneously assembling frames. When
	// exceeded the oldest pending frame is abandoned.
	DefaultMaxPending = 8

	// DefaultMaxFrameSize rejects FRAME_START packets announcing
	// implausibly large frames before any allocation happens.
	DefaultMaxFrameSize = 8 << 20
)

// Config holds the reassembly policy. Zero values take the defaults.
type Config struct {
	// PayloadSize must match the sender's chunk payload size; chunk
	// buffer offsets are computed from it.
	PayloadSize int

	// StaleAfter is the staleness window for incomplete frames.
	StaleAfter time.Duration

	// MaxPending caps simultaneously assembling frames.
	MaxPending int

	// MaxFrameSize caps the announced size of a single frame.
	MaxFrameSize int
}

func (c *Config) setDefaults() {
	if c.PayloadSize <= 0 {
		c.PayloadSize = packet.DefaultPayloadSize
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = DefaultStaleAfter
	}
	if c.MaxPending <= 0 {
		c.MaxPending = DefaultMaxPending
	}
	if c.MaxFrameSize <= 0 {
		c.MaxFrameSize = DefaultMaxFrameSize
	}
}

type pendingFrame struct {
	totalSize  uint32
	chunkCount uint32
	remaining  uint32
	received   []bool
	buf        []byte
	createdAt  time.Time
}

// Engine reassembles frames from FRAME_START and CHUNK datagrams.
type Engine struct {
	cfg     Config
	pending map[uint32]*pendingFrame
	emit    func(domain.Frame)
	logger  ports.Logger
	metrics *metrics.Metrics
}

// New creates an engine that hands each completed frame to emit.
func New(cfg Config, emit func(domain.Frame), logger ports.Logger, m *metrics.Metrics) *Engine {
	cfg.setDefaults()
	return &Engine{
		cfg:     cfg,
		pending: make(map[uint32]*pendingFrame),
		emit:    emit,
		logger:  logger,
		metrics: m,
	}
}

// HandleDatagram classifies one inbound datagram and updates the
// assembly table. Anything that is not a well-formed FRAME_START or
// CHUNK is dropped without error: lost starts, late stragglers, and
// malformed packets are all expected conditions on a lossy path.
func (e *Engine) HandleDatagram(b []byte, now time.Time) {
	e.metrics.AddPacketsReceived(1, uint64(len(b)))

	switch packet.Classify(b) {
	case packet.KindFrameStart:
		fs, err := packet.DecodeFrameStart(b)
		if err != nil {
			e.metrics.AddPacketsDropped(1)
			return
		}
		e.HandleFrameStart(fs, now)
	case packet.KindChunk:
		c, err := packet.DecodeChunk(b)
		if err != nil {
			e.metrics.AddPacketsDropped(1)
			return
		}
		e.HandleChunk(c, now)
	default:
		e.metrics.AddPacketsDropped(1)
	}
}

// HandleFrameStart allocates the assembly buffer for a new frame. A
// start for an id already assembling discards the old buffer and
// begins fresh: the sender reuses ids after wraparound, so a repeat
// start is a reset, not an error.
func (e *Engine) HandleFrameStart(fs packet.FrameStart, now time.Time) {
	if !e.plausible(fs) {
		e.metrics.AddPacketsDropped(1)
		return
	}

	if _, ok := e.pending[fs.FrameID]; ok {
		e.logger.Debug("frame restarted, discarding partial buffer",
			ports.Uint32("frame_id", fs.FrameID))
	} else if len(e.pending) >= e.cfg.MaxPending {
		e.evictOldest()
	}

	e.pending[fs.FrameID] = &pendingFrame{
		totalSize:  fs.FrameSize,
		chunkCount: fs.ChunkCount,
		remaining:  fs.ChunkCount,
		received:   make([]bool, fs.ChunkCount),
		buf:        make([]byte, fs.FrameSize),
		createdAt:  now,
	}
}

// plausible rejects FRAME_START headers that are internally
// inconsistent or would allocate unbounded memory.
func (e *Engine) plausible(fs packet.FrameStart) bool {
	if fs.FrameSize == 0 || fs.ChunkCount == 0 {
		return false
	}
	if fs.FrameSize > uint32(e.cfg.MaxFrameSize) {
		return false
	}
	// chunkCount must agree with frameSize at our payload size,
	// otherwise the sender runs a different chunking configuration and
	// every offset we compute would be wrong.
	payload := uint64(e.cfg.PayloadSize)
	size := uint64(fs.FrameSize)
	count := uint64(fs.ChunkCount)
	return count*payload >= size && (count-1)*payload < size
}

// HandleChunk writes one chunk into its frame's buffer. Chunks for
// unknown ids, out-of-range indices, payloads that would write past
// the buffer, and duplicates are all dropped; the frame stays in
// assembly and is eventually completed or abandoned as stale.
func (e *Engine) HandleChunk(c packet.Chunk, now time.Time) {
	pf, ok := e.pending[c.FrameID]
	if !ok {
		// Never started, already completed, or expired.
		return
	}

	if c.Index >= pf.chunkCount || len(c.Payload) == 0 {
		e.metrics.AddPacketsDropped(1)
		return
	}
	off := uint64(c.Index) * uint64(e.cfg.PayloadSize)
	if off+uint64(len(c.Payload)) > uint64(pf.totalSize) {
		e.metrics.AddPacketsDropped(1)
		return
	}
	if pf.received[c.Index] {
		// Duplicate delivery; the first copy already counted.
		return
	}

	copy(pf.buf[off:], c.Payload)
	pf.received[c.Index] = true
	pf.remaining--

	if pf.remaining == 0 {
		delete(e.pending, c.FrameID)
		e.metrics.AddFramesAssembled(1)
		e.emit(domain.Frame{ID: c.FrameID, Data: pf.buf, ReceivedAt: now})
	}
}

// SweepStale removes every frame that has been assembling longer than
// the staleness window and returns how many were abandoned.
func (e *Engine) SweepStale(now time.Time) int {
	var expired int
	for id, pf := range e.pending {
		if now.Sub(pf.createdAt) > e.cfg.StaleAfter {
			delete(e.pending, id)
			expired++
			e.logger.Debug("abandoning stale frame",
				ports.Uint32("frame_id", id),
				ports.Uint32("missing_chunks", pf.remaining))
		}
	}
	if expired > 0 {
		e.metrics.AddFramesExpired(uint64(expired))
	}
	return expired
}

// Reset discards all pending assembly state without emitting frames.
func (e *Engine) Reset() {
	e.pending = make(map[uint32]*pendingFrame)
}

// PendingCount returns the number of frames currently assembling.
func (e *Engine) PendingCount() int {
	return len(e.pending)
}

// evictOldest abandons the pending frame with the earliest start time.
func (e *Engine) evictOldest() {
	var (
		oldestID uint32
		oldest   time.Time
		found    bool
	)
	for id, pf := range e.pending {
		if !found || pf.createdAt.Before(oldest) {
			oldestID, oldest, found = id, pf.createdAt, true
		}
	}
	if found {
		delete(e.pending, oldestID)
		e.metrics.AddFramesExpired(1)
	}
}
