package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"rc-stats/internal/event"
	"rc-stats/internal/provider"
	"rc-stats/internal/store"
)

func TestGenerate_Deterministic(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	a := Generate(GeneratorConfig{Scenario: "busy", Events: 6, Seed: 7, Now: now})
	b := Generate(GeneratorConfig{Scenario: "busy", Events: 6, Seed: 7, Now: now})

	if len(a.Events) != 6 {
		t.Fatalf("Expected 6 events, got %d", len(a.Events))
	}
	if len(a.Visitors) != len(b.Visitors) {
		t.Errorf("Expected the same visitor count for the same seed, got %d and %d", len(a.Visitors), len(b.Visitors))
	}
	for _, e := range a.Events {
		if e.Key.Date.Weekday() != time.Saturday {
			t.Errorf("Expected events on Saturdays, got %s", e.Key.Date.Weekday())
		}
	}
	if len(a.External) != 0 || len(a.SupplementalItems) != 0 {
		t.Errorf("Expected no external or supplemental data outside the mixed scenario")
	}
}

func TestSaveAndWriteExternal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ds := Generate(GeneratorConfig{Scenario: "mixed", Events: 4, Seed: 3, Now: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)})

	st, err := store.Open(ctx, store.DriverSQLite, filepath.Join(dir, "seed.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if err := Save(ctx, st, ds); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	n, err := st.CountEvents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("Expected 4 stored events, got %d", n)
	}
	sup, err := st.SupplementalItems(ctx, event.All())
	if err != nil {
		t.Fatal(err)
	}
	if len(sup) != len(ds.SupplementalItems) {
		t.Errorf("Expected %d supplemental item rows, got %d", len(ds.SupplementalItems), len(sup))
	}

	path := filepath.Join(dir, "partner.jsonl")
	if err := WriteExternal(path, ds.External); err != nil {
		t.Fatal(err)
	}
	src, err := provider.LoadFile(path, "")
	if err != nil {
		t.Fatalf("Expected a loadable provider file, got %v", err)
	}
	items, err := src.Items(ctx, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) == 0 || len(items)*2 != len(ds.External) {
		t.Errorf("Expected one item per visitor record, got %d items of %d records", len(items), len(ds.External))
	}
}
