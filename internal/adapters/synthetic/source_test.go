package synthetic

import (
	"context"
	"encoding/binary"
	"testing"
	"time"
)

func TestSourceFrameContent(t *testing.T) {
	src := New(64, 1000)
	defer src.Close()

	ctx := context.Background()
	for want := uint64(0); want < 3; want++ {
		frame, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if len(frame) != 64 {
			t.Fatalf("len(frame) = %d, want 64", len(frame))
		}
		if got := binary.BigEndian.Uint64(frame); got != want {
			t.Errorf("frame sequence = %d, want %d", got, want)
		}
	}
}

func TestSourceFramesDiffer(t *testing.T) {
	src := New(64, 1000)
	defer src.Close()

	ctx := context.Background()
	a, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	b, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("consecutive frames are identical, want distinct content")
	}
}

func TestSourceCancelled(t *testing.T) {
	src := New(64, 1)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); err != context.Canceled {
		t.Errorf("Next() error = %v, want context.Canceled", err)
	}
}

func TestSourceDefaults(t *testing.T) {
	src := New(0, 0)
	if src.frameBytes != 32<<10 {
		t.Errorf("frameBytes = %d, want %d", src.frameBytes, 32<<10)
	}
	if src.interval != time.Second/30 {
		t.Errorf("interval = %v, want %v", src.interval, time.Second/30)
	}
}
