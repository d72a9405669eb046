package publisher

import (
	"testing"
	"time"

	"tgpublish/internal/ledger"
)

func TestEffectiveLimit(t *testing.T) {
	t.Parallel()
	if got := EffectiveLimit(RunConfig{DailyLimit: 50, Mode: ModeInteractive}); got != 50 {
		t.Fatalf("interactive limit = %d, want 50", got)
	}
	if got := EffectiveLimit(RunConfig{DailyLimit: 50, Mode: ModeForce}); got != 150 {
		t.Fatalf("force limit = %d, want 150", got)
	}
}

func TestEligible(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)

	tests := []struct {
		name string
		rec  ledger.UsageRecord
		cfg  RunConfig
		want bool
	}{
		{name: "fresh recipient", rec: ledger.UsageRecord{}, cfg: RunConfig{DailyLimit: 1}, want: true},
		{name: "under limit", rec: ledger.UsageRecord{SentCount: 1, LastSentAt: now}, cfg: RunConfig{DailyLimit: 2}, want: true},
		{name: "at limit", rec: ledger.UsageRecord{SentCount: 2, LastSentAt: now}, cfg: RunConfig{DailyLimit: 2}, want: false},
		{name: "stale count rolls over", rec: ledger.UsageRecord{SentCount: 99, LastSentAt: yesterday}, cfg: RunConfig{DailyLimit: 2}, want: true},
		{name: "force mode triples ceiling", rec: ledger.UsageRecord{SentCount: 5, LastSentAt: now}, cfg: RunConfig{DailyLimit: 2, Mode: ModeForce}, want: true},
		{name: "force mode ceiling reached", rec: ledger.UsageRecord{SentCount: 6, LastSentAt: now}, cfg: RunConfig{DailyLimit: 2, Mode: ModeForce}, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Eligible(tt.rec, now, tt.cfg); got != tt.want {
				t.Fatalf("Eligible = %v, want %v", got, tt.want)
			}
		})
	}
}
