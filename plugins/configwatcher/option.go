package configwatcher

import "github.com/Pentagram-Sofware/udp-video-streamer/pkg/udpstream"

// WithConfigWatcher returns an Option that enables config file
// watching. The host's ConfigPath names the file to watch; tunable
// settings are applied live when it changes.
//
// Usage:
//
//	s, err := udpstream.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) udpstream.Option {
	plugin := New(cfg)
	return udpstream.WithPlugin(plugin)
}

// WithDefaultConfigWatcher returns an Option that enables config
// watching with default settings (debounce 100ms).
func WithDefaultConfigWatcher() udpstream.Option {
	return WithConfigWatcher(DefaultConfig())
}
