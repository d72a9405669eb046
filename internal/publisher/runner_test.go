package publisher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	logx "tgpublish/pkg/logx"
)

func TestRunnerInteractiveSinglePass(t *testing.T) {
	t.Parallel()

	var passes atomic.Int64
	r := NewRunner(ModeInteractive, time.Millisecond, "", func(ctx context.Context) Report {
		passes.Add(1)
		return Report{State: StateDrained}
	}, logx.Nop())

	rep := r.Run(context.Background())
	if rep.State != StateDrained {
		t.Fatalf("State = %v, want drained", rep.State)
	}
	if got := passes.Load(); got != 1 {
		t.Fatalf("passes = %d, want exactly 1 in interactive mode", got)
	}
}

func TestRunnerForceCyclesUntilCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var passes atomic.Int64
	r := NewRunner(ModeForce, time.Millisecond, "", func(ctx context.Context) Report {
		if passes.Add(1) >= 3 {
			cancel()
		}
		return Report{State: StateDrained}
	}, logx.Nop())

	rep := r.Run(ctx)
	if rep.State != StateHalted {
		t.Fatalf("State = %v, want halted after cancellation", rep.State)
	}
	if !errors.Is(rep.Err, context.Canceled) {
		t.Fatalf("Err = %v, want context.Canceled", rep.Err)
	}
	if got := passes.Load(); got < 3 {
		t.Fatalf("passes = %d, want >= 3", got)
	}
}

func TestRunnerForceStopsOnFatal(t *testing.T) {
	t.Parallel()

	boom := errors.New("credentials revoked")
	var passes atomic.Int64
	r := NewRunner(ModeForce, time.Millisecond, "", func(ctx context.Context) Report {
		passes.Add(1)
		return Report{State: StateHalted, Err: boom}
	}, logx.Nop())

	rep := r.Run(context.Background())
	if rep.State != StateHalted || !errors.Is(rep.Err, boom) {
		t.Fatalf("got (%v, %v), want halted with fatal error", rep.State, rep.Err)
	}
	if got := passes.Load(); got != 1 {
		t.Fatalf("passes = %d, want 1 (no cycling past a fatal halt)", got)
	}
}

func TestRunnerRejectsInvalidSchedule(t *testing.T) {
	t.Parallel()

	r := NewRunner(ModeForce, time.Millisecond, "not a cron spec", func(ctx context.Context) Report {
		return Report{State: StateDrained}
	}, logx.Nop())

	rep := r.Run(context.Background())
	if rep.State != StateHalted || rep.Err == nil {
		t.Fatalf("got (%v, %v), want halted with schedule error", rep.State, rep.Err)
	}
}

func TestRunnerScheduledPassRuns(t *testing.T) {
	t.Parallel()

	fired := make(chan struct{}, 1)
	r := NewRunner(ModeForce, time.Millisecond, "@every 100ms", func(ctx context.Context) Report {
		select {
		case fired <- struct{}{}:
		default:
		}
		return Report{State: StateDrained}
	}, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Report, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled pass never fired")
	}
	cancel()

	select {
	case rep := <-done:
		if rep.State != StateHalted {
			t.Fatalf("State = %v, want halted after cancellation", rep.State)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
}
