// Package registry tracks registered viewer endpoints and their liveness.
//
// Clients register over UDP from behind NATs, so a session is keyed by
// the exact observed ip:port; replies and frames must go back to that
// address for the NAT mapping to hold. Insertion (register) and
// eviction (sweep, disconnect) are the only operations that change
// membership; keepalives refresh liveness but never create sessions.
package registry

import (
	"net"
	"sync"
	"time"

	"github.com/Pentagram-Sofware/udp-video-streamer/internal/metrics"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/ports"
)

// DefaultMaxClients caps concurrently tracked sessions. Beyond the cap
// new registrations are refused rather than evicting existing clients.
const DefaultMaxClients = 32

type session struct {
	addr     *net.UDPAddr
	lastSeen time.Time
}

// Registry is a thread-safe table of live client sessions.
type Registry struct {
	mu         sync.Mutex
	sessions   map[string]*session
	timeout    time.Duration
	maxClients int

	logger  ports.Logger
	metrics *metrics.Metrics
}

// New creates a registry. A non-positive maxClients falls back to
// DefaultMaxClients.
func New(timeout time.Duration, maxClients int, logger ports.Logger, m *metrics.Metrics) *Registry {
	if maxClients <= 0 {
		maxClients = DefaultMaxClients
	}
	return &Registry{
		sessions:   make(map[string]*session),
		timeout:    timeout,
		maxClients: maxClients,
		logger:     logger,
		metrics:    m,
	}
}

// Register inserts or refreshes the session for addr and reports
// whether the client is now live. Registration is idempotent: a
// re-register from a known address refreshes liveness. Returns false
// only when the registry is full and addr is not already tracked; the
// caller must not acknowledge a refused registration.
func (r *Registry) Register(addr *net.UDPAddr, now time.Time) bool {
	key := addr.String()

	r.mu.Lock()
	s, ok := r.sessions[key]
	if ok {
		s.lastSeen = now
		r.mu.Unlock()
		return true
	}
	if len(r.sessions) >= r.maxClients {
		r.mu.Unlock()
		r.metrics.AddRegisterRefused(1)
		r.logger.Warn("registration refused, registry full",
			ports.String("addr", key),
			ports.Int("max_clients", r.maxClients))
		return false
	}
	r.sessions[key] = &session{addr: addr, lastSeen: now}
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveClients(uint64(n))
	r.logger.Info("client registered",
		ports.String("addr", key),
		ports.Int("clients", n))
	return true
}

// Keepalive refreshes liveness for an existing session. Unknown
// addresses are ignored so spoofed keepalives cannot revive an evicted
// client without a fresh handshake.
func (r *Registry) Keepalive(addr *net.UDPAddr, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[addr.String()]
	if !ok {
		return false
	}
	s.lastSeen = now
	return true
}

// Disconnect removes the session for addr immediately.
func (r *Registry) Disconnect(addr *net.UDPAddr) bool {
	key := addr.String()

	r.mu.Lock()
	_, ok := r.sessions[key]
	if ok {
		delete(r.sessions, key)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if ok {
		r.metrics.SetActiveClients(uint64(n))
		r.logger.Info("client disconnected",
			ports.String("addr", key),
			ports.Int("clients", n))
	}
	return ok
}

// Sweep evicts every session silent for longer than the timeout and
// returns the evicted addresses. Invoked on a fixed period independent
// of traffic so idle clients are removed even when no frames flow.
func (r *Registry) Sweep(now time.Time) []*net.UDPAddr {
	var evicted []*net.UDPAddr

	r.mu.Lock()
	for key, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.timeout {
			delete(r.sessions, key)
			evicted = append(evicted, s.addr)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if len(evicted) > 0 {
		r.metrics.SetActiveClients(uint64(n))
		r.metrics.AddClientsEvicted(uint64(len(evicted)))
		for _, addr := range evicted {
			r.logger.Info("client evicted, keepalive timeout",
				ports.String("addr", addr.String()),
				ports.Duration("timeout", r.timeout))
		}
	}
	return evicted
}

// Snapshot returns a point-in-time copy of the live address set for
// fan-out. The slice is safe to iterate while registrations and sweeps
// proceed concurrently.
func (r *Registry) Snapshot() []*net.UDPAddr {
	r.mu.Lock()
	defer r.mu.Unlock()

	addrs := make([]*net.UDPAddr, 0, len(r.sessions))
	for _, s := range r.sessions {
		addrs = append(addrs, s.addr)
	}
	return addrs
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SetTimeout updates the eviction timeout. Applied by config reload.
func (r *Registry) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	r.timeout = d
	r.mu.Unlock()
}
