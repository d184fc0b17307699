package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// --- Mock implementations ---

type countingRunner struct {
	calls atomic.Int32
	delay time.Duration
	err   error
	done  atomic.Bool
}

func (r *countingRunner) ImportAllActive(ctx context.Context) (int, error) {
	r.calls.Add(1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.done.Store(true)
	return 1, r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// --- Tests ---

func TestNew_InvalidSchedule(t *testing.T) {
	if _, err := New("every tuesday", &countingRunner{}, false, discardLogger()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	for _, spec := range []string{"@hourly", "@every 30m", "0 */2 * * *"} {
		if _, err := New(spec, &countingRunner{}, false, discardLogger()); err != nil {
			t.Errorf("New(%q): %v", spec, err)
		}
	}
}

func TestRun_CancelReturnsPromptly(t *testing.T) {
	runner := &countingRunner{}
	s, err := New("@hourly", runner, false, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
	if got := runner.calls.Load(); got != 0 {
		t.Errorf("runner calls = %d, want 0 without run_on_start", got)
	}
}

func TestRun_RunOnStart(t *testing.T) {
	runner := &countingRunner{}
	s, err := New("@hourly", runner, true, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	waitFor(t, func() bool { return runner.calls.Load() == 1 })
	cancel()
	<-done
}

func TestRun_ErrorDoesNotStopScheduler(t *testing.T) {
	runner := &countingRunner{err: errors.New("db locked")}
	s, err := New("@every 1s", runner, true, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	waitFor(t, func() bool { return runner.calls.Load() >= 2 })
	cancel()
	<-done
}

func TestRun_WaitsForRunningCycle(t *testing.T) {
	runner := &countingRunner{delay: 200 * time.Millisecond}
	s, err := New("@hourly", runner, true, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	waitFor(t, func() bool { return runner.calls.Load() == 1 })
	cancel()
	<-done

	if !runner.done.Load() {
		t.Error("Run returned before the running cycle finished")
	}
}
