package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db *sql.DB
}

func openSQLite(cfg Config) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("ledger.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context) (map[int64]UsageRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT recipient_id, sent_count, last_sent_at FROM usage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]UsageRecord{}
	for rows.Next() {
		var (
			id   int64
			rec  UsageRecord
			last string
		)
		if err := rows.Scan(&id, &rec.SentCount, &last); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, last); err == nil {
			rec.LastSentAt = t
		}
		out[id] = rec
	}
	return out, rows.Err()
}

func (s *sqliteStore) Save(ctx context.Context, records map[int64]UsageRecord) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for id, rec := range records {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO usage(recipient_id, sent_count, last_sent_at) VALUES(?,?,?)
			 ON CONFLICT(recipient_id) DO UPDATE SET
			   sent_count=excluded.sent_count, last_sent_at=excluded.last_sent_at`,
			id, rec.SentCount, rec.LastSentAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
