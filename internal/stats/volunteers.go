package stats

import (
	"context"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/provider"
	"rc-stats/internal/store"
)

// VolunteerGroupings lists the dimensions volunteers can be grouped by.
var VolunteerGroupings = []group.By{group.ByTotal, group.ByEvent, group.ByVolunteerRole, group.ByFixerStation}

// VolunteerStatsCollection aggregates volunteer registrations. Grouped by
// role, a volunteer with several roles counts once in each.
type VolunteerStatsCollection struct {
	*collection[*VolunteerGroupStats]
}

func zeroVolunteers(k group.Key) *VolunteerGroupStats { return NewVolunteerGroupStats(k, 0, 0) }

// NewVolunteerStatsCollection creates a collection over the selected events.
func NewVolunteerStatsCollection(s *Session, keys event.KeySet, by group.By) (*VolunteerStatsCollection, error) {
	if err := checkGrouping("volunteers", by, VolunteerGroupings); err != nil {
		return nil, err
	}
	c := &collection[*VolunteerGroupStats]{kind: "volunteers", session: s, keys: keys, by: by, zero: zeroVolunteers}
	c.loadInternal = func(ctx context.Context) (*StatsMap[*VolunteerGroupStats], error) {
		rows, err := s.store.VolunteerCounts(ctx, keys, by)
		if err != nil {
			return nil, err
		}
		return volunteerRows(rows), nil
	}
	c.loadSupplemental = func(ctx context.Context) (*StatsMap[*VolunteerGroupStats], error) {
		rows, err := s.store.SupplementalVolunteerCounts(ctx, keys, by)
		if err != nil {
			return nil, err
		}
		return volunteerRows(rows), nil
	}
	c.loadExternal = func(ctx context.Context) (*StatsMap[*VolunteerGroupStats], error) {
		rows, err := s.providers.VolunteerStats(ctx, provider.KeyFilter(keys), providerGrouping(by))
		if err != nil {
			return nil, err
		}
		terms, err := s.termsFor(ctx, by)
		if err != nil {
			return nil, err
		}
		m := NewStatsMap[*VolunteerGroupStats]()
		for _, r := range rows {
			m.Pool(NewVolunteerGroupStats(reconcileName(by, r.Name, terms), r.HeadCount, r.ApprenticeCount))
		}
		return m, nil
	}
	return &VolunteerStatsCollection{c}, nil
}

func volunteerRows(rows []store.VolunteerCountRow) *StatsMap[*VolunteerGroupStats] {
	m := NewStatsMap[*VolunteerGroupStats]()
	for _, r := range rows {
		m.Pool(NewVolunteerGroupStats(r.Key, r.Head, r.Apprentice))
	}
	return m
}
