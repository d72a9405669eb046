package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// fileStore persists the ledger as a single JSON document.
//
// Save writes to <path>.tmp and renames it over the target, so a crash
// leaves either the previous state or the new one, never a partial file.
type fileStore struct {
	mu   sync.Mutex
	path string
}

func openFile(cfg Config) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("ledger.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileStore{path: path}, nil
}

func (s *fileStore) Load(ctx context.Context) (map[int64]UsageRecord, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[int64]UsageRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	var recs map[int64]UsageRecord
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, err
	}
	if recs == nil {
		recs = map[int64]UsageRecord{}
	}
	return recs, nil
}

func (s *fileStore) Save(ctx context.Context, records map[int64]UsageRecord) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) Close() error { return nil }
