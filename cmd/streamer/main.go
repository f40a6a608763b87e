package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/Pentagram-Sofware/udp-video-streamer/internal/adapters/fs"
	"github.com/Pentagram-Sofware/udp-video-streamer/internal/cliconfig"
	logpkg "github.com/Pentagram-Sofware/udp-video-streamer/pkg/log"
	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/udpstream"
	"github.com/Pentagram-Sofware/udp-video-streamer/plugins/configwatcher"
)

const helpDescription = `
Stream live video frames over UDP to every registered viewer.

Highlights:
  - Frames are chunked to fit UDP datagrams and reassembled on the
    viewer, with partial frames dropped rather than delivered broken.
  - Viewers register once and stay subscribed with periodic keepalives;
    idle viewers are evicted automatically.
  - Configure via file, env (STREAMER_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  streamer serve --port 9999
  streamer view --server 192.168.1.50 --output-dir ./frames
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "streamer",
		Short:   "Stream live video frames over UDP",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
	}

	// loadConfig layers file and env settings under explicit flags.
	loadConfig := func(cmd *cobra.Command) (string, error) {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = cliconfig.DefaultConfigPath()
		}

		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		if cfgFile != "" && cliconfig.FileExists(cfgFile) {
			fc, err := cliconfig.LoadFileConfig(cfgFile)
			if err != nil {
				return "", fmt.Errorf("load config: %w", err)
			}
			if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
				return "", err
			}
		} else {
			cfgFile = ""
		}

		if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
			return "", err
		}
		return cfgFile, nil
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the streaming server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			log.Info().Interface("config", cfg).Msg("configuration")

			s, err := udpstream.New(udpstream.StreamerConfig{
				ListenAddr:     cfg.ListenAddr,
				Port:           cfg.Port,
				PayloadSize:    cfg.PayloadSize,
				WriteTimeout:   cfg.WriteTimeout,
				ClientTimeout:  cfg.ClientTimeout,
				SweepInterval:  cfg.SweepInterval,
				MaxClients:     cfg.MaxClients,
				StatusInterval: cfg.StatusInterval,
				FrameBytes:     cfg.FrameBytes,
				FPS:            cfg.FPS,
				MetricsAddr:    cfg.MetricsAddr,
				ConfigPath:     cfgFile,
			},
				udpstream.WithLogger(logpkg.NewZerologAdapterWithLogger(log)),
				configwatcher.WithDefaultConfigWatcher(),
			)
			if err != nil {
				return fmt.Errorf("create streamer: %w", err)
			}
			return runUntilSignal(s.Start, s.Stop, s.Status)
		},
	}

	view := &cobra.Command{
		Use:   "view",
		Short: "Register with a streaming server and receive frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateViewer(); err != nil {
				return err
			}
			log.Info().Interface("config", cfg).Msg("configuration")

			opts := []udpstream.Option{
				udpstream.WithLogger(logpkg.NewZerologAdapterWithLogger(log)),
			}
			if cfg.OutputDir != "" {
				opts = append(opts, udpstream.WithFrameSink(fs.NewFrameSink(cfg.OutputDir)))
			}

			v, err := udpstream.NewViewer(udpstream.ViewerConfig{
				ServerAddr:        fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.Port),
				PayloadSize:       cfg.PayloadSize,
				StaleAfter:        cfg.StaleAfter,
				MaxPending:        cfg.MaxPending,
				KeepaliveInterval: cfg.KeepaliveInterval,
				RegisterTimeout:   cfg.RegisterTimeout,
				RegisterAttempts:  cfg.RegisterAttempts,
				StatusInterval:    cfg.StatusInterval,
				MetricsAddr:       cfg.MetricsAddr,
				ConfigPath:        cfgFile,
			}, opts...)
			if err != nil {
				return fmt.Errorf("create viewer: %w", err)
			}
			return runUntilSignal(v.Start, v.Stop, v.Status)
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.streamer/config.toml)")
	root.PersistentFlags().IntVar(&cfg.Port, "port", cfg.Port, "UDP port for control traffic and frames")
	root.PersistentFlags().IntVar(&cfg.PayloadSize, "payload-size", cfg.PayloadSize, "frame bytes per datagram")
	root.PersistentFlags().DurationVar(&cfg.StatusInterval, "status-interval", cfg.StatusInterval, "period of the status log line")
	root.PersistentFlags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (empty disables)")

	serve.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "local address to bind")
	serve.Flags().DurationVar(&cfg.ClientTimeout, "client-timeout", cfg.ClientTimeout, "evict viewers silent for longer than this")
	serve.Flags().DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "period of the idle-viewer sweep")
	serve.Flags().DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "bound on each datagram write")
	serve.Flags().IntVar(&cfg.MaxClients, "max-clients", cfg.MaxClients, "maximum concurrently registered viewers")
	serve.Flags().IntVar(&cfg.FrameBytes, "frame-bytes", cfg.FrameBytes, "synthetic source frame size in bytes")
	serve.Flags().IntVar(&cfg.FPS, "fps", cfg.FPS, "synthetic source frames per second")

	view.Flags().StringVar(&cfg.ServerHost, "server", cfg.ServerHost, "streaming server host")
	view.Flags().DurationVar(&cfg.StaleAfter, "stale-after", cfg.StaleAfter, "discard incomplete frames older than this")
	view.Flags().IntVar(&cfg.MaxPending, "max-pending", cfg.MaxPending, "maximum simultaneously assembling frames")
	view.Flags().DurationVar(&cfg.KeepaliveInterval, "keepalive", cfg.KeepaliveInterval, "NAT keepalive period")
	view.Flags().DurationVar(&cfg.RegisterTimeout, "register-timeout", cfg.RegisterTimeout, "bound on one registration attempt")
	view.Flags().IntVar(&cfg.RegisterAttempts, "register-attempts", cfg.RegisterAttempts, "registration attempts before giving up")
	view.Flags().StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "write completed frames to this directory (empty discards)")

	root.AddCommand(serve, view)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("streamer")
		os.Exit(1)
	}
}

// runUntilSignal starts the instance, blocks until SIGINT/SIGTERM or a
// crash, then stops it gracefully.
func runUntilSignal(start func(context.Context) error, stop func() error, status func() udpstream.State) error {
	log := cliconfig.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if err := start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	doneCh := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s := status()
				if s == udpstream.StateStopped || s == udpstream.StateCrashed {
					close(doneCh)
					return
				}
			}
		}
	}()

	select {
	case <-sigCh:
		log.Info().Msg("received signal, stopping...")
	case <-doneCh:
		if status() == udpstream.StateCrashed {
			log.Error().Msg("streamer crashed")
		}
	}

	if err := stop(); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	return nil
}
