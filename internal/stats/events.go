package stats

import (
	"context"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/refdata"
)

// EventGroupings lists the dimensions events can be grouped by.
var EventGroupings = []group.By{group.ByTotal, group.ByEvent, group.ByEventCategory}

// EventStatsCollection counts events. Events known only to external
// providers carry no categories and count as not specified. Events have
// no supplemental data.
type EventStatsCollection struct {
	*collection[*EventGroupStats]
}

func zeroEvents(k group.Key) *EventGroupStats { return NewEventGroupStats(k, 0) }

// NewEventStatsCollection creates a collection over the selected events.
func NewEventStatsCollection(s *Session, keys event.KeySet, by group.By) (*EventStatsCollection, error) {
	if err := checkGrouping("events", by, EventGroupings); err != nil {
		return nil, err
	}
	c := &collection[*EventGroupStats]{kind: "events", session: s, keys: keys, by: by, zero: zeroEvents}
	c.loadInternal = func(ctx context.Context) (*StatsMap[*EventGroupStats], error) {
		events, err := s.store.Events(ctx, keys)
		if err != nil {
			return nil, err
		}
		m := NewStatsMap[*EventGroupStats]()
		for _, e := range events {
			poolEvent(m, by, e.Key, e.Categories)
		}
		return m, nil
	}
	c.loadExternal = func(ctx context.Context) (*StatsMap[*EventGroupStats], error) {
		external, err := externalEventKeys(ctx, s, keys)
		if err != nil {
			return nil, err
		}
		m := NewStatsMap[*EventGroupStats]()
		for _, k := range external {
			poolEvent(m, by, k, nil)
		}
		return m, nil
	}
	c.loadSupplemental = func(context.Context) (*StatsMap[*EventGroupStats], error) {
		return NewStatsMap[*EventGroupStats](), nil
	}
	return &EventStatsCollection{c}, nil
}

func poolEvent(m *StatsMap[*EventGroupStats], by group.By, k event.Key, categories []int64) {
	switch by {
	case group.ByEvent:
		m.Pool(NewEventGroupStats(group.Key(k.String()), 1))
	case group.ByEventCategory:
		if len(categories) == 0 {
			m.Pool(NewEventGroupStats(group.IDKey(refdata.CategoryNotSpecified), 1))
			return
		}
		for _, c := range categories {
			m.Pool(NewEventGroupStats(group.IDKey(c), 1))
		}
	default:
		m.Pool(NewEventGroupStats(group.Total, 1))
	}
}

// externalEventKeys returns the selected events that are not stored
// internally. For ALL these are the provider-reported events; for an
// explicit set, the keys the store does not know.
func externalEventKeys(ctx context.Context, s *Session, keys event.KeySet) ([]event.Key, error) {
	candidates := keys.Keys()
	if keys.IsAll() {
		all, err := s.AllEventKeys(ctx)
		if err != nil {
			return nil, err
		}
		candidates = all
	}
	stored, err := s.store.Events(ctx, keys)
	if err != nil {
		return nil, err
	}
	known := make(map[event.Key]bool, len(stored))
	for _, e := range stored {
		known[e.Key] = true
	}
	var out []event.Key
	for _, k := range candidates {
		if !known[k] {
			out = append(out, k)
		}
	}
	return out, nil
}
