package stats

import (
	"context"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/provider"
	"rc-stats/internal/store"
)

// VisitorGroupings lists the dimensions visitors can be grouped by.
var VisitorGroupings = []group.By{group.ByTotal, group.ByEvent}

// VisitorStatsCollection aggregates visitor registrations.
type VisitorStatsCollection struct {
	*collection[*VisitorGroupStats]
}

func zeroVisitors(k group.Key) *VisitorGroupStats { return NewVisitorGroupStats(k, 0, 0, 0, 0, 0) }

// NewVisitorStatsCollection creates a collection over the selected events.
func NewVisitorStatsCollection(s *Session, keys event.KeySet, by group.By) (*VisitorStatsCollection, error) {
	if err := checkGrouping("visitors", by, VisitorGroupings); err != nil {
		return nil, err
	}
	c := &collection[*VisitorGroupStats]{kind: "visitors", session: s, keys: keys, by: by, zero: zeroVisitors}
	c.loadInternal = func(ctx context.Context) (*StatsMap[*VisitorGroupStats], error) {
		rows, err := s.store.VisitorCounts(ctx, keys, by)
		if err != nil {
			return nil, err
		}
		return visitorRows(rows), nil
	}
	c.loadSupplemental = func(ctx context.Context) (*StatsMap[*VisitorGroupStats], error) {
		rows, err := s.store.SupplementalVisitorCounts(ctx, keys, by)
		if err != nil {
			return nil, err
		}
		return visitorRows(rows), nil
	}
	c.loadExternal = func(ctx context.Context) (*StatsMap[*VisitorGroupStats], error) {
		rows, err := s.providers.VisitorStats(ctx, provider.KeyFilter(keys), providerGrouping(by))
		if err != nil {
			return nil, err
		}
		m := NewStatsMap[*VisitorGroupStats]()
		for _, r := range rows {
			k := reconcileName(by, r.Name, nil)
			m.Pool(NewVisitorGroupStats(k, r.FirstTimeCount, r.ReturningCount, r.UnknownReturnStatusCount,
				r.ProvidedEmailCount, r.JoinMailListCount))
		}
		return m, nil
	}
	return &VisitorStatsCollection{c}, nil
}

func visitorRows(rows []store.VisitorCountRow) *StatsMap[*VisitorGroupStats] {
	m := NewStatsMap[*VisitorGroupStats]()
	for _, r := range rows {
		m.Pool(NewVisitorGroupStats(r.Key, r.FirstTime, r.Returning, r.Unknown, r.ProvidedEmail, r.JoinMailList))
	}
	return m
}
