package stats

import (
	"iter"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"rc-stats/internal/group"
	"rc-stats/internal/refdata"
)

// StatsMap is an insertion-ordered map from group key to group statistics.
type StatsMap[S Counts[S]] struct {
	keys   []group.Key
	values map[group.Key]S
}

// NewStatsMap returns an empty map.
func NewStatsMap[S Counts[S]]() *StatsMap[S] {
	return &StatsMap[S]{values: make(map[group.Key]S)}
}

// Len returns the number of groups.
func (m *StatsMap[S]) Len() int { return len(m.keys) }

// Keys returns the group keys in order.
func (m *StatsMap[S]) Keys() []group.Key { return slices.Clone(m.keys) }

// Get returns the statistics of a group.
func (m *StatsMap[S]) Get(k group.Key) (S, bool) {
	s, ok := m.values[k]
	return s, ok
}

// All iterates over the groups in order.
func (m *StatsMap[S]) All() iter.Seq2[group.Key, S] {
	return func(yield func(group.Key, S) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Values returns the statistics in order.
func (m *StatsMap[S]) Values() []S {
	out := make([]S, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.values[k])
	}
	return out
}

// Set stores s under its key, keeping the key's position if present.
func (m *StatsMap[S]) Set(s S) {
	k := s.Key()
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = s
}

// Pool adds s into the group with its key, creating the group if needed.
func (m *StatsMap[S]) Pool(s S) {
	if cur, ok := m.values[s.Key()]; ok {
		m.values[s.Key()] = cur.Plus(s)
		return
	}
	m.Set(s.Clone())
}

// Merge returns the union of a and b. Groups present in both are summed
// into new values; groups present in one are copied. Neither input is
// modified. Either input may be nil.
func Merge[S Counts[S]](a, b *StatsMap[S]) *StatsMap[S] {
	out := NewStatsMap[S]()
	if a != nil {
		for k, s := range a.All() {
			if o, ok := b.lookup(k); ok {
				out.Set(s.Plus(o))
				continue
			}
			out.Set(s.Clone())
		}
	}
	if b != nil {
		for k, s := range b.All() {
			if _, ok := a.lookup(k); ok {
				continue
			}
			out.Set(s.Clone())
		}
	}
	return out
}

func (m *StatsMap[S]) lookup(k group.Key) (S, bool) {
	if m == nil {
		var zero S
		return zero, false
	}
	return m.Get(k)
}

// termSource supplies the terms of a taxonomy while canonicalising.
type termSource func(refdata.Taxonomy) []refdata.Term

// canonicalize orders m for consumers. For taxonomy dimensions every known
// term is emitted in display order, zero-filled, followed by the
// unspecified group only when it is non-zero. Keys that do not name a
// known term are folded into unspecified. The station-and-type dimension
// is ordered station by station, each station listing its types, with
// unspecified last at both levels and only groups with data included.
// Other dimensions are sorted by key.
func canonicalize[S Counts[S]](m *StatsMap[S], by group.By, terms termSource, zero func(group.Key) S) *StatsMap[S] {
	if by == group.ByStationAndType {
		return canonicalizeComposite(m, terms)
	}
	taxonomy, ok := by.Taxonomy()
	if !ok {
		out := NewStatsMap[S]()
		keys := m.Keys()
		slices.SortFunc(keys, func(a, b group.Key) int { return strings.Compare(string(a), string(b)) })
		for _, k := range keys {
			v, _ := m.Get(k)
			out.Set(v)
		}
		return out
	}

	list := terms(taxonomy)
	known := make(map[group.Key]bool, len(list))
	for _, t := range list {
		known[group.IDKey(t.ID)] = true
	}
	unspecified := group.IDKey(taxonomy.Unspecified())

	folded := NewStatsMap[S]()
	for k, v := range m.All() {
		if known[k] {
			folded.Pool(v)
			continue
		}
		if k != unspecified {
			log.Debug().Str("taxonomy", string(taxonomy)).Str("key", string(k)).Msg("Re-bucketing unknown reference value as unspecified")
		}
		folded.Pool(v.Rekey(unspecified))
	}

	out := NewStatsMap[S]()
	for _, t := range list {
		k := group.IDKey(t.ID)
		if v, ok := folded.Get(k); ok {
			out.Set(v)
		} else {
			out.Set(zero(k))
		}
	}
	if v, ok := folded.Get(unspecified); ok && !v.IsZero() {
		out.Set(v)
	}
	return out
}

func canonicalizeComposite[S Counts[S]](m *StatsMap[S], terms termSource) *StatsMap[S] {
	stations := append(termKeys(terms(refdata.FixerStations)), group.IDKey(refdata.UnspecifiedFixerStationID))
	types := append(termKeys(terms(refdata.ItemTypes)), group.IDKey(refdata.UnspecifiedItemTypeID))

	folded := NewStatsMap[S]()
	for k, v := range m.All() {
		station, itemType, ok := group.SplitComposite(k)
		if !ok {
			station, itemType = "", ""
		}
		if !slices.Contains(stations, station) {
			station = group.IDKey(refdata.UnspecifiedFixerStationID)
		}
		if !slices.Contains(types, itemType) {
			itemType = group.IDKey(refdata.UnspecifiedItemTypeID)
		}
		target := group.JoinComposite(station, itemType)
		if target != k {
			log.Debug().Str("key", string(k)).Str("target", string(target)).Msg("Re-bucketing unknown station or item type as unspecified")
		}
		folded.Pool(v.Rekey(target))
	}

	out := NewStatsMap[S]()
	for _, station := range stations {
		for _, itemType := range types {
			if v, ok := folded.Get(group.JoinComposite(station, itemType)); ok {
				out.Set(v)
			}
		}
	}
	return out
}

func termKeys(terms []refdata.Term) []group.Key {
	out := make([]group.Key, len(terms))
	for i, t := range terms {
		out[i] = group.IDKey(t.ID)
	}
	return out
}
