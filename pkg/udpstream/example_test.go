package udpstream_test

import (
	"fmt"

	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/udpstream"
)

// ExampleNew demonstrates how to embed the streaming server in your
// application.
func ExampleNew() {
	// Create configuration; zero fields take defaults.
	cfg := udpstream.StreamerConfig{
		Port:       9999,
		FrameBytes: 64 << 10,
		FPS:        30,
	}

	s, err := udpstream.New(cfg)
	if err != nil {
		fmt.Printf("failed to create streamer: %v\n", err)
		return
	}

	// The instance starts out stopped; call Start(ctx) to begin
	// serving and Stop() to shut down.
	fmt.Printf("status: %v\n", s.Status() == udpstream.StateStopped)

	// Output: status: true
}

// ExampleNewViewer demonstrates the consuming side with a custom sink.
func ExampleNewViewer() {
	cfg := udpstream.ViewerConfig{
		ServerAddr: "203.0.113.10:9999",
	}

	v, err := udpstream.NewViewer(cfg, udpstream.WithFrameSink(printSink{}))
	if err != nil {
		fmt.Printf("failed to create viewer: %v\n", err)
		return
	}

	fmt.Printf("status: %v\n", v.Status() == udpstream.StateStopped)

	// Output: status: true
}

// printSink logs each completed frame's size.
type printSink struct{}

func (printSink) Consume(f udpstream.Frame) error {
	fmt.Printf("frame %d: %d bytes\n", f.ID, len(f.Data))
	return nil
}
