package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		changed map[string]bool
		check   func(t *testing.T, cfg Config)
		wantErr bool
	}{
		{
			name: "applies valid env vars",
			envVars: map[string]string{
				"STREAMER_SERVER":         "10.1.2.3",
				"STREAMER_PORT":           "7777",
				"STREAMER_CLIENT_TIMEOUT": "1m",
				"STREAMER_MAX_PENDING":    "16",
			},
			changed: map[string]bool{},
			check: func(t *testing.T, cfg Config) {
				if cfg.ServerHost != "10.1.2.3" {
					t.Errorf("ServerHost = %q, want 10.1.2.3", cfg.ServerHost)
				}
				if cfg.Port != 7777 {
					t.Errorf("Port = %d, want 7777", cfg.Port)
				}
				if cfg.ClientTimeout != time.Minute {
					t.Errorf("ClientTimeout = %v, want 1m", cfg.ClientTimeout)
				}
				if cfg.MaxPending != 16 {
					t.Errorf("MaxPending = %d, want 16", cfg.MaxPending)
				}
			},
		},
		{
			name: "changed flag wins over env",
			envVars: map[string]string{
				"STREAMER_PORT": "7777",
			},
			changed: map[string]bool{"port": true},
			check: func(t *testing.T, cfg Config) {
				if cfg.Port != DefaultPort {
					t.Errorf("Port = %d, want default %d", cfg.Port, DefaultPort)
				}
			},
		},
		{
			name: "invalid duration",
			envVars: map[string]string{
				"STREAMER_KEEPALIVE": "soon",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "invalid int",
			envVars: map[string]string{
				"STREAMER_PORT": "nine-thousand",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			cfg := DefaultConfig()
			err := ApplyEnvConfig(&cfg, tt.changed)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ApplyEnvConfig() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnvConfig() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}
