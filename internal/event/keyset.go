package event

import (
	"fmt"
	"slices"
)

// KeySet selects the events a query covers: either an explicit, possibly
// empty, list of keys or every event known to the system.
//
// The zero value is an explicit empty set. Use All for the unfiltered case;
// an empty explicit set is never treated as "all events".
type KeySet struct {
	all  bool
	keys []Key
}

// All returns the set denoting every known event.
func All() KeySet {
	return KeySet{all: true}
}

// NewKeySet returns an explicit set of the given keys, deduplicated and sorted.
func NewKeySet(keys ...Key) KeySet {
	out := make([]Key, 0, len(keys))
	seen := make(map[Key]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	slices.SortFunc(out, Compare)
	return KeySet{keys: out}
}

// ParseKeySet converts canonical key strings into a KeySet. A nil slice means
// all events; a non-nil empty slice is an explicit empty set.
func ParseKeySet(values []string) (KeySet, error) {
	if values == nil {
		return All(), nil
	}
	keys := make([]Key, 0, len(values))
	for _, v := range values {
		k, err := ParseKey(v)
		if err != nil {
			return KeySet{}, fmt.Errorf("parse key set: %w", err)
		}
		keys = append(keys, k)
	}
	return NewKeySet(keys...), nil
}

// IsAll reports whether the set denotes every known event.
func (s KeySet) IsAll() bool { return s.all }

// IsEmpty reports whether the set is explicit and has no keys.
func (s KeySet) IsEmpty() bool { return !s.all && len(s.keys) == 0 }

// Len returns the number of explicit keys (0 for All).
func (s KeySet) Len() int { return len(s.keys) }

// Keys returns a copy of the explicit keys; nil for All.
func (s KeySet) Keys() []Key {
	if s.all {
		return nil
	}
	return slices.Clone(s.keys)
}

// Strings returns the canonical strings of the explicit keys; nil for All.
func (s KeySet) Strings() []string {
	if s.all {
		return nil
	}
	out := make([]string, len(s.keys))
	for i, k := range s.keys {
		out[i] = k.String()
	}
	return out
}

// Contains reports whether k is selected by the set.
func (s KeySet) Contains(k Key) bool {
	if s.all {
		return true
	}
	_, found := slices.BinarySearchFunc(s.keys, k, Compare)
	return found
}

func (s KeySet) String() string {
	if s.all {
		return "ALL"
	}
	return fmt.Sprintf("%d events", len(s.keys))
}
