package publisher

import (
	"math/rand"
	"testing"
	"time"
)

func TestMessageDelay(t *testing.T) {
	t.Parallel()
	p := NewDelayPlanner(RunConfig{}, nil)

	if got := p.MessageDelay(0, 5*time.Minute); got != 0 {
		t.Fatalf("first message delay = %v, want 0", got)
	}
	if got := p.MessageDelay(1, 5*time.Minute); got != 5*time.Minute {
		t.Fatalf("second message delay = %v, want 5m", got)
	}
}

func TestRecipientGapWithinRange(t *testing.T) {
	t.Parallel()
	cfg := RunConfig{MinGap: 10 * time.Second, MaxGap: time.Minute, Mode: ModeInteractive}
	p := NewDelayPlanner(cfg, rand.New(rand.NewSource(1)))

	// Randomized: assert the range, never an exact value.
	for i := 0; i < 200; i++ {
		got := p.RecipientGap()
		if got < cfg.MinGap || got > cfg.MaxGap {
			t.Fatalf("gap %v outside [%v, %v]", got, cfg.MinGap, cfg.MaxGap)
		}
	}
}

func TestRecipientGapBoundaries(t *testing.T) {
	t.Parallel()
	cfg := RunConfig{MinGap: 10 * time.Second, MaxGap: time.Minute, Mode: ModeInteractive}

	if got := NewDelayPlanner(cfg, fixedRand{0}).RecipientGap(); got != cfg.MinGap {
		t.Fatalf("low boundary gap = %v, want %v", got, cfg.MinGap)
	}
	hi := fixedRand{int64(cfg.MaxGap-cfg.MinGap) + 1}
	if got := NewDelayPlanner(cfg, hi).RecipientGap(); got != cfg.MaxGap {
		t.Fatalf("high boundary gap = %v, want %v", got, cfg.MaxGap)
	}
}

func TestRecipientGapForceMode(t *testing.T) {
	t.Parallel()
	p := NewDelayPlanner(RunConfig{MinGap: 10 * time.Second, MaxGap: time.Minute, Mode: ModeForce}, nil)
	if got := p.RecipientGap(); got != forceRecipientGap {
		t.Fatalf("force gap = %v, want %v", got, forceRecipientGap)
	}
}

func TestRecipientGapDegenerateRange(t *testing.T) {
	t.Parallel()
	p := NewDelayPlanner(RunConfig{MinGap: 10 * time.Second, MaxGap: 10 * time.Second}, nil)
	if got := p.RecipientGap(); got != 10*time.Second {
		t.Fatalf("gap = %v, want 10s when min == max", got)
	}
}
