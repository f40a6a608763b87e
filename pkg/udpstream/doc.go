// Package udpstream provides an embeddable UDP live-frame streaming
// server and viewer.
//
// A Streamer chunks frames from a source into UDP datagrams and fans
// them out to every registered viewer. A Viewer registers with a
// streamer, keeps its NAT mapping alive, and reassembles inbound
// datagrams back into complete frames.
//
// # Basic Usage
//
// To embed the server side in your application:
//
//	cfg := udpstream.StreamerConfig{Port: 9999}
//
//	s, err := udpstream.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := s.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// The viewing side is symmetric:
//
//	v, err := udpstream.NewViewer(udpstream.ViewerConfig{
//	    ServerAddr: "10.0.0.5:9999",
//	}, udpstream.WithFrameSink(mySink))
//
// # Dependency Injection
//
// For testing, or to plug in a real capture pipeline and decoder,
// inject custom implementations:
//
//	s, err := udpstream.New(cfg,
//	    udpstream.WithFrameSource(cameraSource),
//	    udpstream.WithLogger(customLogger),
//	)
//
// # Lifecycle States
//
// A Streamer or Viewer is in one of five states: [StateStopped],
// [StateStarting], [StateRunning], [StateStopping], or [StateCrashed].
// Use Status to query the current state.
//
// # Plugins
//
// Optional plugins extend a running instance:
//
//	import "github.com/Pentagram-Sofware/udp-video-streamer/plugins/configwatcher"
//
//	s, err := udpstream.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.DefaultConfig()),
//	)
package udpstream
