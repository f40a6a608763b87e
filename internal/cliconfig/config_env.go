package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (STREAMER_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", os.Getenv("STREAMER_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("server", os.Getenv("STREAMER_SERVER"), &cfg.ServerHost)
	s.setString("output-dir", os.Getenv("STREAMER_OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("metrics-addr", os.Getenv("STREAMER_METRICS_ADDR"), &cfg.MetricsAddr)

	if err := s.setIntFromString("port", os.Getenv("STREAMER_PORT"), &cfg.Port); err != nil {
		return err
	}
	if err := s.setIntFromString("payload-size", os.Getenv("STREAMER_PAYLOAD_SIZE"), &cfg.PayloadSize); err != nil {
		return err
	}
	if err := s.setIntFromString("max-clients", os.Getenv("STREAMER_MAX_CLIENTS"), &cfg.MaxClients); err != nil {
		return err
	}
	if err := s.setIntFromString("frame-bytes", os.Getenv("STREAMER_FRAME_BYTES"), &cfg.FrameBytes); err != nil {
		return err
	}
	if err := s.setIntFromString("fps", os.Getenv("STREAMER_FPS"), &cfg.FPS); err != nil {
		return err
	}
	if err := s.setIntFromString("max-pending", os.Getenv("STREAMER_MAX_PENDING"), &cfg.MaxPending); err != nil {
		return err
	}
	if err := s.setIntFromString("register-attempts", os.Getenv("STREAMER_REGISTER_ATTEMPTS"), &cfg.RegisterAttempts); err != nil {
		return err
	}

	if err := s.setDuration("client-timeout", os.Getenv("STREAMER_CLIENT_TIMEOUT"), &cfg.ClientTimeout); err != nil {
		return err
	}
	if err := s.setDuration("sweep-interval", os.Getenv("STREAMER_SWEEP_INTERVAL"), &cfg.SweepInterval); err != nil {
		return err
	}
	if err := s.setDuration("write-timeout", os.Getenv("STREAMER_WRITE_TIMEOUT"), &cfg.WriteTimeout); err != nil {
		return err
	}
	if err := s.setDuration("status-interval", os.Getenv("STREAMER_STATUS_INTERVAL"), &cfg.StatusInterval); err != nil {
		return err
	}
	if err := s.setDuration("stale-after", os.Getenv("STREAMER_STALE_AFTER"), &cfg.StaleAfter); err != nil {
		return err
	}
	if err := s.setDuration("keepalive", os.Getenv("STREAMER_KEEPALIVE"), &cfg.KeepaliveInterval); err != nil {
		return err
	}
	if err := s.setDuration("register-timeout", os.Getenv("STREAMER_REGISTER_TIMEOUT"), &cfg.RegisterTimeout); err != nil {
		return err
	}

	return nil
}
