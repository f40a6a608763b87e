package udpstream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Pentagram-Sofware/udp-video-streamer/internal/adapters/synthetic"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/app"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/domain"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/metrics"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/ports"
)

// State describes the lifecycle of a Streamer or Viewer.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable state name.
func (s State) String() string {
	return convertStateBack(s).String()
}

// Streamer is an embeddable UDP frame streaming server. Use New() to
// create an instance, then Start() to begin serving.
type Streamer struct {
	config    StreamerConfig
	opts      options
	lifecycle *app.Lifecycle
	server    *app.Server
	logger    ports.Logger
	metrics   *metrics.Metrics

	plugins []Plugin

	metricsSrv *http.Server

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Streamer with the given configuration.
// The instance is created in StateStopped; call Start() to begin.
// Returns an error if configuration is invalid.
func New(cfg StreamerConfig, opts ...Option) (*Streamer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	source := o.source
	if source == nil {
		source = synthetic.New(cfg.FrameBytes, cfg.FPS)
	}

	m := metrics.New()
	server := app.NewServer(cfg.serverConfig(), source, o.logger, m)

	return &Streamer{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(o.logger),
		server:    server,
		logger:    o.logger,
		metrics:   m,
		plugins:   o.plugins,
	}, nil
}

// Start binds the UDP socket and begins streaming in the background.
// Returns immediately after starting the serving goroutines.
// Returns an error if already running or if the bind fails.
func (s *Streamer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	if err := s.server.Listen(); err != nil {
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "bind failed")
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.ctx = runCtx
	s.cancel = cancel
	s.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		ConfigPath: s.config.ConfigPath,
		Logger:     s.logger,
		Tuner:      s,
	}
	for _, p := range s.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			s.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			_ = s.server.Close()
			_ = s.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		s.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	s.metricsSrv = serveMetrics(s.config.MetricsAddr, s.metrics, s.logger)

	s.lifecycle.AddWorker()
	go func() {
		defer s.lifecycle.WorkerDone()

		if err := s.lifecycle.TransitionTo(app.StateRunning, "server starting"); err != nil {
			// Stop() won the race; Run never executes, so the socket
			// bound in Listen() must be released here.
			_ = s.server.Close()
			s.logger.Error("failed to transition to running", ports.Err(err))
			return
		}

		err := s.server.Run(runCtx)
		if err != nil && err != context.Canceled {
			s.logger.Error("server error", ports.Err(err))
			_ = s.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	}()

	return nil
}

// Stop gracefully shuts down the streamer. Waits up to the shutdown
// timeout before forcing. Returns nil on graceful shutdown,
// ErrShutdownTimeout if forced.
func (s *Streamer) Stop() error {
	s.mu.Lock()

	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	err := s.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	stopMetrics(s.metricsSrv)
	shutdownPlugins(s.plugins, s.logger)

	if err != nil {
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = s.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (s *Streamer) Status() State {
	return convertState(s.lifecycle.State())
}

// SetClientTimeout adjusts the idle-viewer eviction window on a
// running streamer. Used by plugins for configuration hot reload.
func (s *Streamer) SetClientTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	s.server.SetClientTimeout(d)
}

// Viewer is an embeddable UDP frame stream consumer. Use NewViewer()
// to create an instance, then Start() to begin receiving.
type Viewer struct {
	config    ViewerConfig
	opts      options
	lifecycle *app.Lifecycle
	receiver  *app.Receiver
	logger    ports.Logger
	metrics   *metrics.Metrics

	plugins []Plugin

	metricsSrv *http.Server

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewViewer creates a new Viewer delivering completed frames to the
// sink configured via WithFrameSink. Without a sink, frames are
// counted and discarded.
func NewViewer(cfg ViewerConfig, opts ...Option) (*Viewer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	sink := o.sink
	if sink == nil {
		sink = discardSink{}
	}

	m := metrics.New()
	receiver := app.NewReceiver(cfg.receiverConfig(), sink, o.logger, m)

	return &Viewer{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(o.logger),
		receiver:  receiver,
		logger:    o.logger,
		metrics:   m,
		plugins:   o.plugins,
	}, nil
}

// Start registers with the streamer and begins receiving in the
// background. Returns immediately; registration retries happen inside
// the receiving goroutine.
func (v *Viewer) Start(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := v.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	v.ctx = runCtx
	v.cancel = cancel
	v.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		ConfigPath: v.config.ConfigPath,
		Logger:     v.logger,
	}
	for _, p := range v.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			v.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			_ = v.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		v.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	v.metricsSrv = serveMetrics(v.config.MetricsAddr, v.metrics, v.logger)

	v.lifecycle.AddWorker()
	go func() {
		defer v.lifecycle.WorkerDone()

		if err := v.lifecycle.TransitionTo(app.StateRunning, "receiver starting"); err != nil {
			v.logger.Error("failed to transition to running", ports.Err(err))
			return
		}

		err := v.receiver.Run(runCtx)
		if err != nil && err != context.Canceled {
			v.logger.Error("receiver error", ports.Err(err))
			_ = v.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	}()

	return nil
}

// Stop gracefully shuts down the viewer, sending a best-effort
// disconnect to the streamer.
func (v *Viewer) Stop() error {
	v.mu.Lock()

	if !v.lifecycle.CanStop() {
		v.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := v.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		v.mu.Unlock()
		return err
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.mu.Unlock()

	err := v.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	stopMetrics(v.metricsSrv)
	shutdownPlugins(v.plugins, v.logger)

	if err != nil {
		_ = v.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = v.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
func (v *Viewer) Status() State {
	return convertState(v.lifecycle.State())
}

// serveMetrics starts an HTTP server exposing Prometheus metrics on
// addr, or returns nil when addr is empty.
func serveMetrics(addr string, m *metrics.Metrics, logger ports.Logger) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("metrics server listening", ports.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", ports.Err(err))
		}
	}()
	return srv
}

func stopMetrics(srv *http.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

// shutdownPlugins shuts plugins down in reverse registration order.
func shutdownPlugins(plugins []Plugin, logger ports.Logger) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		} else {
			logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

func convertStateBack(s State) app.State {
	switch s {
	case StateStarting:
		return app.StateStarting
	case StateRunning:
		return app.StateRunning
	case StateStopping:
		return app.StateStopping
	case StateCrashed:
		return app.StateCrashed
	default:
		return app.StateStopped
	}
}
