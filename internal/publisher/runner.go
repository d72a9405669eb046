package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	logx "tgpublish/pkg/logx"
)

// Pass produces and runs one dispatch pass. The runner calls it fresh each
// cycle so force mode picks up hot-reloaded config between passes.
type Pass func(ctx context.Context) Report

// Runner wraps the single-pass dispatcher into the mode's outer iteration:
// interactive mode runs one pass; force mode repeats passes until cancelled,
// either back-to-back with a pause or on a cron schedule.
type Runner struct {
	mode       Mode
	cyclePause time.Duration
	schedule   string
	pass       Pass
	log        logx.Logger
}

func NewRunner(mode Mode, cyclePause time.Duration, schedule string, pass Pass, log logx.Logger) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cyclePause <= 0 {
		cyclePause = 30 * time.Second
	}
	return &Runner{mode: mode, cyclePause: cyclePause, schedule: schedule, pass: pass, log: log}
}

// Run blocks until the run finishes (interactive), a fatal error occurs, or
// ctx is cancelled. Cancellation is the only natural exit in force mode.
func (r *Runner) Run(ctx context.Context) Report {
	if r.mode != ModeForce {
		return r.pass(ctx)
	}
	if r.schedule != "" {
		return r.runScheduled(ctx)
	}
	return r.runContinuous(ctx)
}

func (r *Runner) runContinuous(ctx context.Context) Report {
	var last Report
	cycle := 0
	for {
		cycle++
		r.log.Info("publishing cycle started", logx.Int("cycle", cycle))
		last = r.pass(ctx)
		if last.State == StateHalted {
			return last
		}

		r.log.Info("cycle finished; pausing", logx.Int("cycle", cycle), logx.Duration("pause", r.cyclePause))
		t := time.NewTimer(r.cyclePause)
		select {
		case <-ctx.Done():
			t.Stop()
			last.State = StateHalted
			last.Err = ctx.Err()
			return last
		case <-t.C:
		}
	}
}

func (r *Runner) runScheduled(ctx context.Context) Report {
	done := make(chan Report, 1)

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger{r.log}),
	), cron.WithLogger(cronLogger{r.log}))

	_, err := c.AddFunc(r.schedule, func() {
		rep := r.pass(ctx)
		if rep.State == StateHalted && ctx.Err() == nil {
			select {
			case done <- rep:
			default:
			}
		}
	})
	if err != nil {
		return Report{State: StateHalted, Err: fmt.Errorf("invalid schedule %q: %w", r.schedule, err)}
	}

	r.log.Info("scheduled publishing started", logx.String("schedule", r.schedule))
	c.Start()
	defer func() { <-c.Stop().Done() }()

	select {
	case <-ctx.Done():
		return Report{State: StateHalted, Err: ctx.Err()}
	case rep := <-done:
		return rep
	}
}

// cronLogger adapts logx to cron's logging interface.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Debug("cron: "+msg, logx.Any("kv", kv))
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Warn("cron: "+msg, logx.Err(err), logx.Any("kv", kv))
}
