package groups

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	gs, err := Load(filepath.Join(t.TempDir(), "groups.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(gs) != 0 {
		t.Fatalf("groups = %v, want empty", gs)
	}
}

func TestAddAndLoadPreservesOrder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "groups.json")
	ids := []int64{-100111, -100222, -100333}
	for _, id := range ids {
		if err := Add(path, Group{ChatID: id, Name: "g"}); err != nil {
			t.Fatalf("Add(%d): %v", id, err)
		}
	}

	gs, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(gs) != len(ids) {
		t.Fatalf("groups = %d, want %d", len(gs), len(ids))
	}
	for i, g := range gs {
		if g.ChatID != ids[i] {
			t.Fatalf("groups[%d].ChatID = %d, want %d (insertion order)", i, g.ChatID, ids[i])
		}
		if g.AddedAt.IsZero() {
			t.Fatalf("groups[%d].AddedAt not stamped", i)
		}
	}
}

func TestAddRejectsDuplicate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "groups.json")
	if err := Add(path, Group{ChatID: -1, Name: "first"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := Add(path, Group{ChatID: -1, Name: "second"}); err == nil {
		t.Fatal("expected duplicate error")
	}

	gs, _ := Load(path)
	if len(gs) != 1 || gs[0].Name != "first" {
		t.Fatalf("groups = %v, want original entry only", gs)
	}
}

func TestAddDefaultsName(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "groups.json")
	if err := Add(path, Group{ChatID: -42}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	gs, _ := Load(path)
	if len(gs) != 1 || gs[0].Name == "" {
		t.Fatalf("groups = %v, want defaulted name", gs)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "groups.json")
	_ = Add(path, Group{ChatID: -1, Name: "keep"})
	_ = Add(path, Group{ChatID: -2, Name: "drop"})

	removed, err := Remove(path, -2)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed.Name != "drop" {
		t.Fatalf("removed = %+v", removed)
	}

	gs, _ := Load(path)
	if len(gs) != 1 || gs[0].ChatID != -1 {
		t.Fatalf("groups = %v, want only the kept entry", gs)
	}

	if _, err := Remove(path, -999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Remove absent = %v, want ErrNotFound", err)
	}
}

func TestRecipients(t *testing.T) {
	t.Parallel()

	gs := []Group{
		{ChatID: -1, Name: "alpha", AddedAt: time.Now()},
		{ChatID: -2, Name: "beta", AddedAt: time.Now()},
	}
	recs := Recipients(gs)
	if len(recs) != 2 {
		t.Fatalf("recipients = %d, want 2", len(recs))
	}
	if recs[0].ID != -1 || recs[0].Name != "alpha" || recs[1].ID != -2 {
		t.Fatalf("recipients = %v", recs)
	}
}
