package event

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestKey_RoundTrip(t *testing.T) {
	k := NewKey(time.Date(2024, 3, 16, 14, 30, 0, 0, time.Local), "42", "rcs")

	if got := k.String(); got != "20240316|42|rcs" {
		t.Fatalf("Expected canonical form 20240316|42|rcs, got %s", got)
	}

	parsed, err := ParseKey(k.String())
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}
	if parsed != k {
		t.Errorf("Expected parsed key %v to equal %v", parsed, k)
	}
}

func TestKey_EqualRegardlessOfConstruction(t *testing.T) {
	a := NewKey(time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), "7", "ext")
	b := NewKey(time.Date(2024, 3, 16, 23, 59, 0, 0, time.UTC), "7", "ext")
	c := MustParseKey("20240316|7|ext")

	if a != b || a != c {
		t.Errorf("Expected keys to be equal: %v %v %v", a, b, c)
	}
}

func TestParseKey_Malformed(t *testing.T) {
	for _, s := range []string{"", "20240316", "20240316||rcs", "2024-03-16|1|rcs", "x|1|rcs"} {
		if _, err := ParseKey(s); !errors.Is(err, ErrMalformedKey) {
			t.Errorf("ParseKey(%q): expected ErrMalformedKey, got %v", s, err)
		}
	}
}

func TestParseKey_ProviderMayContainSeparator(t *testing.T) {
	k, err := ParseKey("20240316|9|ext|eu")
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}
	if k.ProviderID != "ext|eu" {
		t.Errorf("Expected provider ext|eu, got %s", k.ProviderID)
	}
}

func TestKey_DescriptorWithSeparatorRoundTrips(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, descriptor := range []string{"cafe|north", "50%|off", "%7C"} {
		k := NewKey(date, descriptor, "partner")
		back, err := ParseKey(k.String())
		if err != nil {
			t.Fatalf("ParseKey(%q) failed: %v", k.String(), err)
		}
		if back != k {
			t.Errorf("Expected %+v, got %+v", k, back)
		}
	}

	if got := NewKey(date, "cafe|north", "partner").String(); got != "20240501|cafe%7Cnorth|partner" {
		t.Errorf("Expected escaped descriptor, got %s", got)
	}
	if got := NewKey(date, "42", "rcs").String(); got != "20240501|42|rcs" {
		t.Errorf("Expected plain descriptors unchanged, got %s", got)
	}
}

func TestKeySet_EmptyIsNotAll(t *testing.T) {
	empty := NewKeySet()
	if empty.IsAll() {
		t.Error("Expected explicit empty set not to be ALL")
	}
	if !empty.IsEmpty() {
		t.Error("Expected explicit empty set to be empty")
	}

	var zero KeySet
	if zero.IsAll() || !zero.IsEmpty() {
		t.Error("Expected zero KeySet to be an explicit empty set")
	}

	all := All()
	if !all.IsAll() || all.IsEmpty() {
		t.Error("Expected All() to be ALL and not empty")
	}
	if all.Keys() != nil {
		t.Error("Expected All().Keys() to be nil")
	}
}

func TestParseKeySet_NilVersusEmpty(t *testing.T) {
	s, err := ParseKeySet(nil)
	if err != nil || !s.IsAll() {
		t.Errorf("Expected nil to parse as ALL, got %v (%v)", s, err)
	}

	s, err = ParseKeySet([]string{})
	if err != nil || !s.IsEmpty() {
		t.Errorf("Expected [] to parse as empty, got %v (%v)", s, err)
	}
}

func TestKeySet_DedupSortContains(t *testing.T) {
	k1 := MustParseKey("20240316|1|rcs")
	k2 := MustParseKey("20240101|2|rcs")
	s := NewKeySet(k1, k2, k1)

	if s.Len() != 2 {
		t.Fatalf("Expected 2 keys, got %d", s.Len())
	}
	if s.Keys()[0] != k2 {
		t.Errorf("Expected earliest key first, got %v", s.Keys()[0])
	}
	if !s.Contains(k1) || !s.Contains(k2) {
		t.Error("Expected set to contain both keys")
	}
	if s.Contains(MustParseKey("20240316|3|rcs")) {
		t.Error("Expected set not to contain unrelated key")
	}
}

func TestKey_JSONUsesCanonicalForm(t *testing.T) {
	e := Event{Key: MustParseKey("20240301|42|rcs"), Title: "Spring"}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"key":"20240301|42|rcs"`) {
		t.Errorf("Expected canonical key in JSON, got %s", b)
	}
	var back Event
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.Key != e.Key {
		t.Errorf("Expected %v, got %v", e.Key, back.Key)
	}
}
