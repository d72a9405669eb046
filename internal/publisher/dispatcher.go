package publisher

import (
	"context"
	"time"

	"tgpublish/internal/eventbus"
	"tgpublish/internal/transport"
	logx "tgpublish/pkg/logx"
)

// Dispatcher runs one drain-to-completion pass over recipients × messages.
//
// Recipients are processed strictly one at a time, in list order. A pass
// ends Drained when every recipient has exhausted its plan, its quota, or
// failed permanently, and Halted on a fatal error or cancellation.
type Dispatcher struct {
	cfg        RunConfig
	plan       Plan
	recipients []transport.Recipient
	sender     transport.Sender
	usage      Usage
	delays     *DelayPlanner
	bus        eventbus.Bus
	log        logx.Logger
	now        func() time.Time
}

type DispatcherOption func(*Dispatcher)

// WithClock substitutes the time source (tests).
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// WithRand substitutes the gap jitter source (tests).
func WithRand(rng Rand) DispatcherOption {
	return func(d *Dispatcher) { d.delays = NewDelayPlanner(d.cfg, rng) }
}

func WithBus(bus eventbus.Bus) DispatcherOption {
	return func(d *Dispatcher) { d.bus = bus }
}

func NewDispatcher(cfg RunConfig, plan Plan, recipients []transport.Recipient, sender transport.Sender, usage Usage, log logx.Logger, opts ...DispatcherOption) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	d := &Dispatcher{
		cfg:        cfg,
		plan:       plan,
		recipients: recipients,
		sender:     sender,
		usage:      usage,
		delays:     NewDelayPlanner(cfg, nil),
		log:        log,
		now:        time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Run executes one pass. It returns a report whose State is Drained on
// success and Halted on fatal error or cancellation; recipient-local
// failures are absorbed into Report.Failed and never end the pass.
func (d *Dispatcher) Run(ctx context.Context) Report {
	rep := Report{Failed: map[int64]string{}}
	cursors := make([]int, len(d.recipients))

	first := true
	for {
		if ctx.Err() != nil {
			return d.halt(rep, ctx.Err())
		}

		idx := d.selectNext(cursors, rep.Failed)
		if idx < 0 {
			rep.State = StateDrained
			d.log.Info("run drained", logx.Int("sent", rep.Sent), logx.Int("failed", len(rep.Failed)))
			return rep
		}

		if !first {
			gap := d.delays.RecipientGap()
			d.log.Debug("waiting before next recipient", logx.Duration("gap", gap))
			if !d.wait(ctx, gap) {
				return d.halt(rep, ctx.Err())
			}
		}
		first = false

		if halted, err := d.runRecipient(ctx, idx, cursors, &rep); halted {
			return d.halt(rep, err)
		}
	}
}

// selectNext picks the next recipient in list order whose plan is not
// exhausted, which has not failed this run, and which the quota policy
// deems eligible now.
func (d *Dispatcher) selectNext(cursors []int, failed map[int64]string) int {
	now := d.now()
	for i, r := range d.recipients {
		if cursors[i] >= len(d.plan) {
			continue
		}
		if _, down := failed[r.ID]; down {
			continue
		}
		if !Eligible(d.usage.Get(r.ID, now), now, d.cfg) {
			continue
		}
		return i
	}
	return -1
}

// runRecipient sends the remaining plan to one recipient. Returns
// halted=true only for fatal conditions or cancellation; recipient-local
// failures are recorded and absorbed.
func (d *Dispatcher) runRecipient(ctx context.Context, idx int, cursors []int, rep *Report) (bool, error) {
	r := d.recipients[idx]
	log := d.log.With(logx.Int64("chat_id", r.ID), logx.String("group", r.Name))
	retries := 0

	for cursors[idx] < len(d.plan) {
		now := d.now()
		if !Eligible(d.usage.Get(r.ID, now), now, d.cfg) {
			log.Info("daily limit reached; skipping for today",
				logx.Int("limit", EffectiveLimit(d.cfg)))
			return false, nil
		}

		mi := cursors[idx]
		msg := d.plan[mi]

		if delay := d.delays.MessageDelay(mi, msg.PreDelay); delay > 0 {
			log.Debug("waiting before message", logx.Int("message", mi+1), logx.Duration("delay", delay))
			if !d.wait(ctx, delay) {
				return true, ctx.Err()
			}
		}

		err := d.sender.Send(ctx, r.ID, msg.Text)
		if ctx.Err() != nil {
			// Never leave a half-issued send unaccounted: a send that
			// completed before cancellation still gets recorded.
			if err == nil {
				d.confirm(ctx, idx, mi, cursors, rep, log)
			}
			return true, ctx.Err()
		}

		outcome, retryAfter := Classify(err)
		d.emit(r.ID, mi, outcome)

		switch outcome {
		case OutcomeSent:
			d.confirm(ctx, idx, mi, cursors, rep, log)
			retries = 0

		case OutcomeThrottled:
			// Honor the provider wait in full, then retry the same
			// message. Only this recipient's cursor stalls.
			log.Warn("throttled by provider", logx.Duration("retry_after", retryAfter), logx.Err(err))
			if !d.wait(ctx, retryAfter) {
				return true, ctx.Err()
			}

		case OutcomePermissionDenied:
			log.Warn("cannot post to group; skipping", logx.Err(err))
			rep.Failed[r.ID] = err.Error()
			return false, nil

		case OutcomeTransient:
			retries++
			if retries > d.cfg.RetryMax {
				log.Warn("retries exhausted; skipping group", logx.Int("attempts", retries), logx.Err(err))
				rep.Failed[r.ID] = err.Error()
				return false, nil
			}
			backoff := d.cfg.RetryBackoff * time.Duration(retries)
			log.Debug("transient send error; retrying", logx.Int("attempt", retries), logx.Duration("backoff", backoff), logx.Err(err))
			if !d.wait(ctx, backoff) {
				return true, ctx.Err()
			}

		case OutcomeFatal:
			log.Error("fatal send error; halting run", logx.Err(err))
			return true, err
		}
	}
	return false, nil
}

func (d *Dispatcher) confirm(ctx context.Context, idx, mi int, cursors []int, rep *Report, log logx.Logger) {
	// The ledger write must survive cancellation: the send is already out.
	if err := d.usage.RecordSend(context.WithoutCancel(ctx), d.recipients[idx].ID, d.now()); err != nil {
		// The send went out; losing the durable write must not stop the
		// run, but it has to be loud.
		log.Error("ledger persist failed", logx.Err(err))
	}
	cursors[idx] = mi + 1
	rep.Sent++
	log.Info("message sent", logx.Int("message", mi+1), logx.Int("total_sent", rep.Sent))
}

func (d *Dispatcher) emit(id int64, mi int, outcome Outcome) {
	if d.bus == nil {
		return
	}
	d.bus.Publish(eventbus.Event{
		Type: EventAttempt,
		Data: AttemptEvent{RecipientID: id, MessageIndex: mi, Outcome: outcome, At: d.now()},
	})
}

func (d *Dispatcher) halt(rep Report, err error) Report {
	rep.State = StateHalted
	rep.Err = err
	d.log.Warn("run halted", logx.Int("sent", rep.Sent), logx.Err(err))
	return rep
}

// wait sleeps for dur, returning false as soon as ctx is cancelled. The
// select observes cancellation immediately, so even a multi-minute throttle
// wait is abandoned without delay.
func (d *Dispatcher) wait(ctx context.Context, dur time.Duration) bool {
	if dur <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
