package publisher

import (
	"math/rand"
	"time"
)

// forceRecipientGap is the fixed spacing between recipients in force mode:
// throughput over human pacing, but never a zero-delay burst.
const forceRecipientGap = 2 * time.Second

// Rand is the randomness source for gap jitter. *rand.Rand satisfies it;
// tests substitute deterministic or boundary-value generators.
type Rand interface {
	Int63n(n int64) int64
}

// DelayPlanner computes the wait before each message and between recipients.
type DelayPlanner struct {
	cfg RunConfig
	rng Rand
}

func NewDelayPlanner(cfg RunConfig, rng Rand) *DelayPlanner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &DelayPlanner{cfg: cfg, rng: rng}
}

// MessageDelay returns the pre-delay for the message at index in a
// recipient's plan. The first message goes out without delay; later ones
// carry their configured pre-delay.
func (p *DelayPlanner) MessageDelay(index int, preDelay time.Duration) time.Duration {
	if index == 0 {
		return 0
	}
	return preDelay
}

// RecipientGap returns the pause before moving to the next recipient:
// uniform in [MinGap, MaxGap] interactively, a short constant in force mode.
func (p *DelayPlanner) RecipientGap() time.Duration {
	if p.cfg.Mode == ModeForce {
		return forceRecipientGap
	}
	lo, hi := p.cfg.MinGap, p.cfg.MaxGap
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(p.rng.Int63n(int64(hi-lo)+1))
}
