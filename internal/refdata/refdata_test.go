package refdata

import (
	"context"
	"testing"
)

type countingCatalog struct {
	Static
	calls int
}

func (c *countingCatalog) Terms(ctx context.Context, taxonomy Taxonomy) ([]Term, error) {
	c.calls++
	return c.Static.Terms(ctx, taxonomy)
}

func TestFindByName(t *testing.T) {
	terms := []Term{
		{ID: 1, Name: "Electronics", AlternateNames: []string{"Electrical"}},
		{ID: 2, Name: "Bikes"},
	}

	tests := []struct {
		name   string
		wantID int64
		wantOK bool
	}{
		{"Electronics", 1, true},
		{"  bikes ", 2, true},
		{"electrical", 1, true},
		{"Jewellery", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := FindByName(terms, tt.name)
		if ok != tt.wantOK || got.ID != tt.wantID {
			t.Errorf("FindByName(%q) = (%d, %v), want (%d, %v)", tt.name, got.ID, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestCache_MemoisesUntilInvalidated(t *testing.T) {
	cat := &countingCatalog{Static: Static{FixerStations: {{ID: 1, Name: "Bikes"}}}}
	cache := NewCache(cat)
	ctx := context.Background()

	for range 3 {
		terms, err := cache.Terms(ctx, FixerStations)
		if err != nil {
			t.Fatal(err)
		}
		if len(terms) != 1 {
			t.Fatalf("Expected 1 term, got %d", len(terms))
		}
	}
	if cat.calls != 1 {
		t.Errorf("Expected 1 catalog call, got %d", cat.calls)
	}

	cache.Invalidate()
	if _, err := cache.Terms(ctx, FixerStations); err != nil {
		t.Fatal(err)
	}
	if cat.calls != 2 {
		t.Errorf("Expected 2 catalog calls after invalidation, got %d", cat.calls)
	}
}

func TestTaxonomy_Unspecified(t *testing.T) {
	if EventCategories.Unspecified() != CategoryNotSpecified {
		t.Errorf("Expected event categories sentinel %d", CategoryNotSpecified)
	}
	if FixerStations.Unspecified() != UnspecifiedFixerStationID {
		t.Errorf("Expected fixer station sentinel %d", UnspecifiedFixerStationID)
	}
}
