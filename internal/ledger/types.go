package ledger

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("ledger store closed")

// UsageRecord is the per-recipient quota accounting state.
//
// SentCount only counts confirmed sends. The count is implicitly scoped to
// the calendar day of LastSentAt: a record whose LastSentAt falls on an
// earlier day reads as zero (see Rollover).
type UsageRecord struct {
	SentCount  int       `json:"sent_count"`
	LastSentAt time.Time `json:"last_sent_at"`
}

// Rollover returns the record as seen at the given instant: unchanged when
// LastSentAt is on the same calendar day, zeroed otherwise.
func (r UsageRecord) Rollover(now time.Time) UsageRecord {
	if r.LastSentAt.IsZero() || !sameDay(r.LastSentAt, now) {
		return UsageRecord{}
	}
	return r
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Store is the durable persistence boundary for the ledger.
//
// Load is called once at startup; Save rewrites the full state and must be
// atomic with respect to process crash (old state or new state, never a
// torn mix).
type Store interface {
	Load(ctx context.Context) (map[int64]UsageRecord, error)
	Save(ctx context.Context, records map[int64]UsageRecord) error
	Close() error
}

// Config selects and configures the ledger backend.
//
// Driver values:
//   - "file" (or empty): atomic JSON file
//   - "sqlite": SQLite database file
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}
