// Package groups owns the persistent recipient list: the set of Telegram
// groups the publisher posts to. The core only reads it; add/remove are
// operator actions exposed through cmd flags.
package groups

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tgpublish/internal/transport"
)

var ErrNotFound = errors.New("group not found")

type Group struct {
	ChatID  int64     `json:"chat_id"`
	Name    string    `json:"name"`
	AddedAt time.Time `json:"added_date"`
}

// Load reads the groups file. A missing file is an empty list, not an error.
func Load(path string) ([]Group, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var gs []Group
	if err := json.Unmarshal(b, &gs); err != nil {
		return nil, fmt.Errorf("groups file %s: %w", path, err)
	}
	return gs, nil
}

// Save atomically rewrites the groups file.
func Save(path string, gs []Group) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Add appends a group, rejecting duplicate chat ids.
func Add(path string, g Group) error {
	if strings.TrimSpace(g.Name) == "" {
		g.Name = fmt.Sprintf("group %d", g.ChatID)
	}
	if g.AddedAt.IsZero() {
		g.AddedAt = time.Now()
	}
	gs, err := Load(path)
	if err != nil {
		return err
	}
	for _, have := range gs {
		if have.ChatID == g.ChatID {
			return fmt.Errorf("group %q (%d) already in the list", have.Name, g.ChatID)
		}
	}
	return Save(path, append(gs, g))
}

// Remove deletes a group by chat id and returns the removed entry.
func Remove(path string, chatID int64) (Group, error) {
	gs, err := Load(path)
	if err != nil {
		return Group{}, err
	}
	for i, g := range gs {
		if g.ChatID == chatID {
			gs = append(gs[:i], gs[i+1:]...)
			return g, Save(path, gs)
		}
	}
	return Group{}, ErrNotFound
}

// Recipients converts the list into the core's recipient form, preserving
// file order (the dispatch loop honors list order).
func Recipients(gs []Group) []transport.Recipient {
	out := make([]transport.Recipient, 0, len(gs))
	for _, g := range gs {
		out = append(out, transport.Recipient{ID: g.ChatID, Name: g.Name})
	}
	return out
}
