package stats

import (
	"context"
	"errors"
	"testing"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/store"
)

func TestBuildReport_ItemsByStation(t *testing.T) {
	st := &fakeStore{
		Static:   testStations(),
		events:   []event.Event{{Key: e1}, {Key: e2}},
		items:    []store.ItemCountRow{{Key: "1", Items: 3, Fixed: 2, Repairable: 1}},
		supItems: []store.ItemCountRow{{Key: "2", Items: 1, EOL: 1}},
	}
	s := NewSession(st, nil, DefaultConfidence)

	rep, err := BuildReport(context.Background(), s, KindItems, event.All(), group.ByFixerStation, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Events != 2 {
		t.Errorf("Expected 2 events, got %d", rep.Events)
	}
	if rep.Source != SourceAll {
		t.Errorf("Expected source %q, got %q", SourceAll, rep.Source)
	}
	wantLabels := []string{"StationA", "StationB", "StationC"}
	if len(rep.Rows) != len(wantLabels) {
		t.Fatalf("Expected %d rows, got %d", len(wantLabels), len(rep.Rows))
	}
	for i, want := range wantLabels {
		if rep.Rows[i].Label != want {
			t.Errorf("Expected row %d labelled %s, got %s", i, want, rep.Rows[i].Label)
		}
		if rep.Rows[i].Items == nil || rep.Rows[i].Visitors != nil {
			t.Errorf("Expected item summary only on row %d", i)
		}
	}
	if rep.Rows[0].Items.Fixed != 2 || rep.Rows[1].Items.EndOfLife != 1 {
		t.Errorf("Unexpected counts: %+v %+v", rep.Rows[0].Items, rep.Rows[1].Items)
	}
}

func TestBuildReport_SupplementalOnly(t *testing.T) {
	st := &fakeStore{
		Static:   testStations(),
		items:    []store.ItemCountRow{{Items: 5, Fixed: 5}},
		supItems: []store.ItemCountRow{{Items: 2, Fixed: 1}},
	}
	s := NewSession(st, nil, DefaultConfidence)

	rep, err := BuildReport(context.Background(), s, KindItems, event.NewKeySet(e1), group.ByTotal, SourceSupplemental)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Rows) != 1 || rep.Rows[0].Items.Items != 2 {
		t.Errorf("Expected supplemental total of 2, got %+v", rep.Rows)
	}
	if rep.Rows[0].Label != "Total" {
		t.Errorf("Expected Total label, got %s", rep.Rows[0].Label)
	}
}

func TestBuildReport_Errors(t *testing.T) {
	s := NewSession(&fakeStore{Static: testStations()}, nil, DefaultConfidence)
	ctx := context.Background()

	if _, err := BuildReport(ctx, s, "repairs", event.All(), group.ByTotal, ""); err == nil {
		t.Errorf("Expected error for unknown kind")
	}
	if _, err := BuildReport(ctx, s, KindVisitors, event.All(), group.ByItemType, ""); !errors.Is(err, group.ErrUnsupportedGrouping) {
		t.Errorf("Expected unsupported grouping, got %v", err)
	}
	if _, err := BuildReport(ctx, s, KindEvents, event.All(), group.ByTotal, "archived"); err == nil {
		t.Errorf("Expected error for unknown source")
	}
}

func TestGroupings(t *testing.T) {
	for _, kind := range Kinds {
		by, err := Groupings(kind)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", kind, err)
		}
		if by[0] != group.ByTotal {
			t.Errorf("Expected %s to support total first, got %s", kind, by[0])
		}
	}
	if _, err := Groupings("unknown"); err == nil {
		t.Errorf("Expected error for unknown kind")
	}
}
