// Package ledger tracks per-recipient daily send counts and persists them
// after every confirmed send, so quota accounting survives crashes and
// restarts.
package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	logx "tgpublish/pkg/logx"
)

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "file":
		return openFile(cfg)
	case "sqlite", "sqlite3":
		return openSQLite(cfg)
	default:
		return nil, errors.New("unknown ledger driver: " + cfg.Driver)
	}
}

// Ledger is the in-memory mirror of the persisted usage state.
//
// There is one writer (the dispatch loop); readers get copies. Every
// RecordSend rewrites the backing store before returning, durability over
// batching: a crash mid-run must not lose quota accounting.
type Ledger struct {
	mu      sync.RWMutex
	store   Store
	records map[int64]UsageRecord
	log     logx.Logger
}

func New(store Store, log logx.Logger) *Ledger {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Ledger{
		store:   store,
		records: map[int64]UsageRecord{},
		log:     log,
	}
}

// Load refreshes the in-memory mirror from storage. Called once at startup.
func (l *Ledger) Load(ctx context.Context) error {
	recs, err := l.store.Load(ctx)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = map[int64]UsageRecord{}
	}
	l.mu.Lock()
	l.records = recs
	l.mu.Unlock()
	l.log.Debug("ledger loaded", logx.Int("recipients", len(recs)))
	return nil
}

// Get returns the usage record for a recipient as seen at now. Absent or
// stale-dated records read as zero.
func (l *Ledger) Get(id int64, now time.Time) UsageRecord {
	l.mu.RLock()
	rec := l.records[id]
	l.mu.RUnlock()
	return rec.Rollover(now)
}

// RecordSend increments the recipient's daily counter and durably persists
// the full ledger before returning.
func (l *Ledger) RecordSend(ctx context.Context, id int64, at time.Time) error {
	l.mu.Lock()
	rec := l.records[id].Rollover(at)
	rec.SentCount++
	rec.LastSentAt = at
	l.records[id] = rec
	snapshot := make(map[int64]UsageRecord, len(l.records))
	for k, v := range l.records {
		snapshot[k] = v
	}
	l.mu.Unlock()

	return l.store.Save(ctx, snapshot)
}

// Snapshot returns a copy of the raw records for status reporting.
func (l *Ledger) Snapshot() map[int64]UsageRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[int64]UsageRecord, len(l.records))
	for k, v := range l.records {
		out[k] = v
	}
	return out
}
