package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Pentagram-Sofware/udp-video-streamer/internal/domain"
	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/log"
)

func TestNewLifecycle(t *testing.T) {
	l := NewLifecycle(log.NewNoopLogger())

	if l == nil {
		t.Fatal("NewLifecycle returned nil")
	}
	if l.State() != StateStopped {
		t.Errorf("initial state = %v, want StateStopped", l.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateCrashed, "Crashed"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		got := tt.state.String()
		if got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr bool
	}{
		{"stopped to starting", StateStopped, StateStarting, false},
		{"starting to running", StateStarting, StateRunning, false},
		{"starting to stopping", StateStarting, StateStopping, false},
		{"starting to crashed", StateStarting, StateCrashed, false},
		{"running to stopping", StateRunning, StateStopping, false},
		{"running to crashed", StateRunning, StateCrashed, false},
		{"stopping to stopped", StateStopping, StateStopped, false},
		{"stopping to crashed", StateStopping, StateCrashed, false},
		{"crashed to starting", StateCrashed, StateStarting, false},
		{"stopped to running", StateStopped, StateRunning, true},
		{"stopped to stopping", StateStopped, StateStopping, true},
		{"running to starting", StateRunning, StateStarting, true},
		{"crashed to stopped", StateCrashed, StateStopped, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(log.NewNoopLogger())
			l.state = tt.from

			err := l.TransitionTo(tt.to, "test")
			if (err != nil) != tt.wantErr {
				t.Errorf("TransitionTo(%v) error = %v, wantErr %v", tt.to, err, tt.wantErr)
			}
			if !tt.wantErr && l.State() != tt.to {
				t.Errorf("state after transition = %v, want %v", l.State(), tt.to)
			}
		})
	}
}

func TestLifecycle_CanStartCanStop(t *testing.T) {
	tests := []struct {
		state    State
		canStart bool
		canStop  bool
	}{
		{StateStopped, true, false},
		{StateStarting, false, true},
		{StateRunning, false, true},
		{StateStopping, false, false},
		{StateCrashed, true, false},
	}

	for _, tt := range tests {
		l := NewLifecycle(log.NewNoopLogger())
		l.state = tt.state

		if got := l.CanStart(); got != tt.canStart {
			t.Errorf("CanStart() in %v = %v, want %v", tt.state, got, tt.canStart)
		}
		if got := l.CanStop(); got != tt.canStop {
			t.Errorf("CanStop() in %v = %v, want %v", tt.state, got, tt.canStop)
		}
	}
}

func TestLifecycle_Cancel(t *testing.T) {
	l := NewLifecycle(log.NewNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	l.SetCancel(cancel)

	l.Cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("Cancel did not cancel the stored context")
	}
}

func TestLifecycle_WaitWithTimeout(t *testing.T) {
	l := NewLifecycle(log.NewNoopLogger())

	l.AddWorker()
	go func() {
		time.Sleep(10 * time.Millisecond)
		l.WorkerDone()
	}()

	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout = %v, want nil", err)
	}
}

func TestLifecycle_WaitWithTimeout_Expires(t *testing.T) {
	l := NewLifecycle(log.NewNoopLogger())

	l.AddWorker() // never done
	defer l.WorkerDone()

	err := l.WaitWithTimeout(20 * time.Millisecond)
	if !errors.Is(err, domain.ErrShutdownTimeout) {
		t.Errorf("WaitWithTimeout = %v, want ErrShutdownTimeout", err)
	}
}

func TestBackoff_DoublesUpToMax(t *testing.T) {
	b := newBackoff(100*time.Millisecond, 300*time.Millisecond)

	if got := b.Current(); got != 100*time.Millisecond {
		t.Errorf("initial Current() = %v, want 100ms", got)
	}

	ctx := context.Background()
	_ = b.Wait(ctx)
	if got := b.Current(); got != 200*time.Millisecond {
		t.Errorf("Current() after one wait = %v, want 200ms", got)
	}
	_ = b.Wait(ctx)
	if got := b.Current(); got != 300*time.Millisecond {
		t.Errorf("Current() after two waits = %v, want capped 300ms", got)
	}

	b.Reset()
	if got := b.Current(); got != 100*time.Millisecond {
		t.Errorf("Current() after Reset = %v, want 100ms", got)
	}
}

func TestBackoff_WaitHonorsCancellation(t *testing.T) {
	b := newBackoff(10*time.Second, 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := b.Wait(ctx)
	if err == nil {
		t.Error("Wait(cancelled ctx) = nil, want context error")
	}
	if time.Since(start) > time.Second {
		t.Error("Wait did not return promptly on cancellation")
	}
}
