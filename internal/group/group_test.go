package group

import (
	"errors"
	"testing"

	"rc-stats/internal/refdata"
)

func TestParse(t *testing.T) {
	b, err := Parse("")
	if err != nil || b != ByTotal {
		t.Errorf("Expected total for empty input, got %q (%v)", b, err)
	}
	b, err = Parse("station_and_type")
	if err != nil || b != ByStationAndType {
		t.Errorf("Expected station_and_type, got %q (%v)", b, err)
	}
	if _, err := Parse("colour"); !errors.Is(err, ErrUnsupportedGrouping) {
		t.Errorf("Expected ErrUnsupportedGrouping, got %v", err)
	}
}

func TestTaxonomy(t *testing.T) {
	if tx, ok := ByFixerStation.Taxonomy(); !ok || tx != refdata.FixerStations {
		t.Errorf("Expected fixer stations taxonomy, got %q", tx)
	}
	if _, ok := ByStationAndType.Taxonomy(); ok {
		t.Error("Expected the composite dimension to have no single taxonomy")
	}
	if !ByStationAndType.IsTaxonomy() || ByEvent.IsTaxonomy() || ByTotal.IsTaxonomy() {
		t.Error("Expected only taxonomy and composite dimensions to be canonicalised")
	}
}

func TestComposite(t *testing.T) {
	k := Composite(3, 12)
	if k != "3|12" {
		t.Errorf("Expected 3|12, got %q", k)
	}
	s, it, ok := SplitComposite(k)
	if !ok || s != "3" || it != "12" {
		t.Errorf("Expected (3, 12), got (%q, %q, %v)", s, it, ok)
	}
	if id, ok := it.ID(); !ok || id != 12 {
		t.Errorf("Expected ID 12, got %d", id)
	}
	if _, _, ok := SplitComposite("7"); ok {
		t.Error("Expected a plain key not to split")
	}
	if _, ok := Total.ID(); ok {
		t.Error("Expected the total key to carry no ID")
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	a := All()
	a[0] = "mutated"
	if All()[0] != ByTotal {
		t.Error("Expected All to return a fresh slice")
	}
}
