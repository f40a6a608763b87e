// Package metrics exposes transport counters as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds counters for both sides of the transport. All methods
// are safe on a nil receiver so components can run unmetered.
type Metrics struct {
	// Sender side
	FramesSent      atomic.Uint64
	PacketsSent     atomic.Uint64
	BytesSent       atomic.Uint64
	SendErrors      atomic.Uint64
	ActiveClients   atomic.Uint64
	ClientsEvicted  atomic.Uint64
	RegisterRefused atomic.Uint64

	// Receiver side
	PacketsReceived atomic.Uint64
	PacketsDropped  atomic.Uint64
	FramesAssembled atomic.Uint64
	FramesExpired   atomic.Uint64
	BytesReceived   atomic.Uint64

	registry *prometheus.Registry
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.register()
	return m
}

func (m *Metrics) register() {
	gauges := []struct {
		name string
		help string
		load func() uint64
	}{
		{"udpstream_frames_sent_total", "Total frames fanned out to clients", m.FramesSent.Load},
		{"udpstream_packets_sent_total", "Total datagrams written", m.PacketsSent.Load},
		{"udpstream_bytes_sent_total", "Total payload bytes written", m.BytesSent.Load},
		{"udpstream_send_errors_total", "Total datagram write failures", m.SendErrors.Load},
		{"udpstream_active_clients", "Currently registered clients", m.ActiveClients.Load},
		{"udpstream_clients_evicted_total", "Clients evicted by timeout", m.ClientsEvicted.Load},
		{"udpstream_register_refused_total", "Registrations refused at capacity", m.RegisterRefused.Load},
		{"udpstream_packets_received_total", "Total datagrams received", m.PacketsReceived.Load},
		{"udpstream_packets_dropped_total", "Malformed or out-of-range datagrams dropped", m.PacketsDropped.Load},
		{"udpstream_frames_assembled_total", "Frames fully reassembled", m.FramesAssembled.Load},
		{"udpstream_frames_expired_total", "Incomplete frames discarded as stale", m.FramesExpired.Load},
		{"udpstream_bytes_received_total", "Total payload bytes received", m.BytesReceived.Load},
	}

	for _, g := range gauges {
		load := g.load
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: g.name, Help: g.help},
			func() float64 { return float64(load()) },
		))
	}
}

// Handler returns an HTTP handler serving the Prometheus exposition
// format for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Counter bump helpers, nil-safe so call sites need no guards.

func (m *Metrics) AddFramesSent(n uint64) {
	if m != nil {
		m.FramesSent.Add(n)
	}
}

func (m *Metrics) AddPacketsSent(n, bytes uint64) {
	if m != nil {
		m.PacketsSent.Add(n)
		m.BytesSent.Add(bytes)
	}
}

func (m *Metrics) AddSendErrors(n uint64) {
	if m != nil {
		m.SendErrors.Add(n)
	}
}

func (m *Metrics) SetActiveClients(n uint64) {
	if m != nil {
		m.ActiveClients.Store(n)
	}
}

func (m *Metrics) AddClientsEvicted(n uint64) {
	if m != nil {
		m.ClientsEvicted.Add(n)
	}
}

func (m *Metrics) AddRegisterRefused(n uint64) {
	if m != nil {
		m.RegisterRefused.Add(n)
	}
}

func (m *Metrics) AddPacketsReceived(n, bytes uint64) {
	if m != nil {
		m.PacketsReceived.Add(n)
		m.BytesReceived.Add(bytes)
	}
}

func (m *Metrics) AddPacketsDropped(n uint64) {
	if m != nil {
		m.PacketsDropped.Add(n)
	}
}

func (m *Metrics) AddFramesAssembled(n uint64) {
	if m != nil {
		m.FramesAssembled.Add(n)
	}
}

func (m *Metrics) AddFramesExpired(n uint64) {
	if m != nil {
		m.FramesExpired.Add(n)
	}
}
