package stats

import (
	"testing"

	"rc-stats/internal/group"
	"rc-stats/internal/refdata"
)

func itemMap(stats ...*ItemGroupStats) *StatsMap[*ItemGroupStats] {
	m := NewStatsMap[*ItemGroupStats]()
	for _, s := range stats {
		m.Pool(s)
	}
	return m
}

func sameItems(t *testing.T, a, b *StatsMap[*ItemGroupStats]) {
	t.Helper()
	if a.Len() != b.Len() {
		t.Fatalf("Expected %d groups, got %d", a.Len(), b.Len())
	}
	for k, x := range a.All() {
		y, ok := b.Get(k)
		if !ok {
			t.Fatalf("Missing group %q", k)
		}
		if x.ItemCount() != y.ItemCount() || x.FixedCount() != y.FixedCount() ||
			x.RepairableCount() != y.RepairableCount() || x.EndOfLifeCount() != y.EndOfLifeCount() {
			t.Errorf("Group %q differs", k)
		}
	}
}

func TestMerge_CommutativeAndAssociative(t *testing.T) {
	a := itemMap(NewItemGroupStats("1", 3, 1, 1, 0), NewItemGroupStats("2", 1, 0, 0, 1))
	b := itemMap(NewItemGroupStats("2", 4, 2, 0, 1), NewItemGroupStats("3", 2, 2, 0, 0))
	c := itemMap(NewItemGroupStats("1", 1, 0, 0, 1), NewItemGroupStats("4", 5, 0, 5, 0))

	sameItems(t, Merge(a, b), Merge(b, a))
	sameItems(t, Merge(Merge(a, b), c), Merge(a, Merge(b, c)))
}

func TestMerge_LeavesInputsUntouched(t *testing.T) {
	shared := NewItemGroupStats("1", 3, 1, 1, 0)
	only := NewItemGroupStats("2", 1, 0, 0, 1)
	a := itemMap(shared, only)
	b := itemMap(NewItemGroupStats("1", 2, 2, 0, 0))

	out := Merge(a, b)
	sum, _ := out.Get("1")
	if sum.ItemCount() != 5 || sum.FixedCount() != 3 {
		t.Errorf("Expected 5/3, got %d/%d", sum.ItemCount(), sum.FixedCount())
	}

	before, _ := a.Get("1")
	if before.ItemCount() != 3 {
		t.Errorf("Expected input unchanged, got %d", before.ItemCount())
	}
	passed, _ := out.Get("2")
	passed.AddToCounts(10, 0, 0, 0)
	if only.ItemCount() != 1 {
		t.Errorf("Expected pass-through value to be a copy")
	}
}

func TestMerge_NilInputs(t *testing.T) {
	a := itemMap(NewItemGroupStats("1", 1, 0, 0, 0))
	if Merge(a, nil).Len() != 1 || Merge(nil, a).Len() != 1 {
		t.Errorf("Expected nil side to contribute nothing")
	}
	if Merge[*ItemGroupStats](nil, nil).Len() != 0 {
		t.Errorf("Expected empty merge of nils")
	}
}

func TestCanonicalize_TaxonomyCompleteness(t *testing.T) {
	terms := func(refdata.Taxonomy) []refdata.Term {
		return []refdata.Term{{ID: 5, Name: "Electrical"}, {ID: 2, Name: "Bikes"}, {ID: 9, Name: "Textiles"}}
	}

	tests := []struct {
		name string
		in   *StatsMap[*ItemGroupStats]
		want []group.Key
	}{
		{"Empty", itemMap(), []group.Key{"5", "2", "9"}},
		{"Sparse", itemMap(NewItemGroupStats("9", 1, 1, 0, 0)), []group.Key{"5", "2", "9"}},
		{"UnspecifiedZero", itemMap(NewItemGroupStats("0", 0, 0, 0, 0)), []group.Key{"5", "2", "9"}},
		{"Unspecified", itemMap(NewItemGroupStats("0", 2, 0, 0, 0)), []group.Key{"5", "2", "9", "0"}},
		{"StaleFolded", itemMap(NewItemGroupStats("77", 1, 0, 0, 0)), []group.Key{"5", "2", "9", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := canonicalize(tt.in, group.ByItemType, terms, zeroItems)
			if got := out.Keys(); !equalKeys(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCanonicalize_CompositeNestedOrder(t *testing.T) {
	terms := func(tax refdata.Taxonomy) []refdata.Term {
		if tax == refdata.FixerStations {
			return []refdata.Term{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
		}
		return []refdata.Term{{ID: 10, Name: "Lamp"}, {ID: 11, Name: "Radio"}}
	}
	in := itemMap(
		NewItemGroupStats("0|0", 1, 0, 0, 0),
		NewItemGroupStats("2|10", 1, 0, 0, 0),
		NewItemGroupStats("0|11", 1, 0, 0, 0),
		NewItemGroupStats("1|0", 1, 0, 0, 0),
		NewItemGroupStats("1|11", 1, 0, 0, 0),
		NewItemGroupStats("8|10", 2, 0, 0, 0),
	)

	out := canonicalize(in, group.ByStationAndType, terms, zeroItems)
	want := []group.Key{"1|11", "1|0", "2|10", "0|10", "0|11", "0|0"}
	if got := out.Keys(); !equalKeys(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	folded, _ := out.Get("0|10")
	if folded.ItemCount() != 2 {
		t.Errorf("Expected unknown station folded into 0|10, got %d", folded.ItemCount())
	}
}

func TestCanonicalize_EventsSortedByKey(t *testing.T) {
	in := itemMap(NewItemGroupStats("20240406|2|rcs", 1, 0, 0, 0), NewItemGroupStats("20240302|1|rcs", 1, 0, 0, 0))
	out := canonicalize(in, group.ByEvent, nil, zeroItems)
	want := []group.Key{"20240302|1|rcs", "20240406|2|rcs"}
	if got := out.Keys(); !equalKeys(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestReconcileName(t *testing.T) {
	terms := termSource(func(tax refdata.Taxonomy) []refdata.Term { return testStations()[tax] })
	tests := []struct {
		by   group.By
		name string
		want group.Key
	}{
		{group.ByFixerStation, "stationa", "1"},
		{group.ByFixerStation, "Bikes", "3"},
		{group.ByFixerStation, "Unknown Station", "0"},
		{group.ByFixerStation, "", "0"},
		{group.ByStationAndType, "StationB|Toaster", "2|10"},
		{group.ByStationAndType, "Nowhere|Bicycle", "0|11"},
		{group.ByTotal, "anything", group.Total},
		{group.ByEvent, "20240302|101|rcs", "20240302|101|rcs"},
	}
	for _, tt := range tests {
		if got := reconcileName(tt.by, tt.name, terms); got != tt.want {
			t.Errorf("%s %q: expected %q, got %q", tt.by, tt.name, tt.want, got)
		}
	}
}
