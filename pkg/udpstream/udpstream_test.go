package udpstream_test

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/udpstream"
)

// freePort grabs an ephemeral UDP port and releases it so the streamer
// under test can bind it.
func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("pick port: %v", err)
	}
	port := conn.LocalAddr().(*net.UDPAddr).Port
	conn.Close()
	return port
}

// collectSink records completed frames.
type collectSink struct {
	mu     sync.Mutex
	frames []udpstream.Frame
}

func (c *collectSink) Consume(f udpstream.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *collectSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := udpstream.New(udpstream.StreamerConfig{Port: -1})
	if err == nil {
		t.Fatal("New() with negative port: want error, got nil")
	}
	if !errors.Is(err, udpstream.ErrInvalidConfig) {
		t.Errorf("New() error = %v, want ErrInvalidConfig", err)
	}

	_, err = udpstream.NewViewer(udpstream.ViewerConfig{})
	if err == nil {
		t.Fatal("NewViewer() without server address: want error, got nil")
	}
	if !errors.Is(err, udpstream.ErrInvalidConfig) {
		t.Errorf("NewViewer() error = %v, want ErrInvalidConfig", err)
	}
}

func TestStartTwiceFails(t *testing.T) {
	cfg := udpstream.StreamerConfig{
		ListenAddr: "127.0.0.1",
		Port:       freePort(t),
	}
	s, err := udpstream.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if err := s.Start(ctx); err == nil {
		t.Error("second Start(): want error, got nil")
	}
}

func TestStopWithoutStart(t *testing.T) {
	s, err := udpstream.New(udpstream.StreamerConfig{
		ListenAddr: "127.0.0.1",
		Port:       freePort(t),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Stop(); err == nil {
		t.Error("Stop() before Start(): want error, got nil")
	}
}

// TestStreamerToViewer runs both ends over loopback and verifies that
// complete frames arrive at the sink.
func TestStreamerToViewer(t *testing.T) {
	port := freePort(t)

	streamer, err := udpstream.New(udpstream.StreamerConfig{
		ListenAddr:    "127.0.0.1",
		Port:          port,
		PayloadSize:   512,
		FrameBytes:    2048,
		FPS:           100,
		SweepInterval: time.Second,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sink := &collectSink{}
	viewer, err := udpstream.NewViewer(udpstream.ViewerConfig{
		ServerAddr:        net.JoinHostPort("127.0.0.1", strconv.Itoa(port)),
		PayloadSize:       512,
		KeepaliveInterval: time.Second,
		RegisterTimeout:   2 * time.Second,
	}, udpstream.WithFrameSink(sink))
	if err != nil {
		t.Fatalf("NewViewer() error = %v", err)
	}

	ctx := context.Background()
	if err := streamer.Start(ctx); err != nil {
		t.Fatalf("streamer Start() error = %v", err)
	}
	defer streamer.Stop()

	if err := viewer.Start(ctx); err != nil {
		t.Fatalf("viewer Start() error = %v", err)
	}
	defer viewer.Stop()

	deadline := time.Now().Add(10 * time.Second)
	for sink.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("received %d frames before deadline, want at least 3", sink.count())
		}
		time.Sleep(50 * time.Millisecond)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, f := range sink.frames {
		if len(f.Data) != 2048 {
			t.Errorf("frame %d: %d bytes, want 2048", f.ID, len(f.Data))
		}
	}
}

// TestImmediateStopReleasesPort stops the streamer before its worker
// has a chance to reach the running state and verifies the socket is
// released anyway, so the port can be bound again.
func TestImmediateStopReleasesPort(t *testing.T) {
	port := freePort(t)

	for i := 0; i < 5; i++ {
		s, err := udpstream.New(udpstream.StreamerConfig{
			ListenAddr: "127.0.0.1",
			Port:       port,
		})
		if err != nil {
			t.Fatalf("iteration %d: New() error = %v", i, err)
		}
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("iteration %d: Start() error = %v", i, err)
		}
		if err := s.Stop(); err != nil {
			t.Fatalf("iteration %d: Stop() error = %v", i, err)
		}

		conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
		if err != nil {
			t.Fatalf("iteration %d: port still bound after Stop: %v", i, err)
		}
		conn.Close()
	}
}

func TestGracefulStop(t *testing.T) {
	s, err := udpstream.New(udpstream.StreamerConfig{
		ListenAddr: "127.0.0.1",
		Port:       freePort(t),
		FPS:        100,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if got := s.Status(); got != udpstream.StateStopped {
		t.Errorf("Status() = %v, want StateStopped", got)
	}
}
