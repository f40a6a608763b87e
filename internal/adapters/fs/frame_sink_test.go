package fs

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Pentagram-Sofware/udp-video-streamer/internal/domain"
)

func TestFrameSinkWritesNumberedFiles(t *testing.T) {
	dir := t.TempDir()
	sink := NewFrameSink(dir)

	frames := []domain.Frame{
		{ID: 7, Data: []byte("alpha"), ReceivedAt: time.Now()},
		{ID: 8, Data: []byte("beta"), ReceivedAt: time.Now()},
	}
	for _, f := range frames {
		if err := sink.Consume(f); err != nil {
			t.Fatalf("Consume(%d) error = %v", f.ID, err)
		}
	}
	if sink.Written() != 2 {
		t.Errorf("Written() = %d, want 2", sink.Written())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d files, want 2", len(entries))
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file %q left behind", e.Name())
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "frame_000000_0000000007.bin"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(data, []byte("alpha")) {
		t.Errorf("frame 7 content = %q, want %q", data, "alpha")
	}
}

func TestFrameSinkCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "frames")
	sink := NewFrameSink(dir)

	if err := sink.Consume(domain.Frame{ID: 1, Data: []byte("x")}); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("sink directory not created: %v", err)
	}
}
