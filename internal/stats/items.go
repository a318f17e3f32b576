package stats

import (
	"context"
	"fmt"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/provider"
	"rc-stats/internal/store"
)

// ItemGroupings lists the dimensions items can be grouped by.
var ItemGroupings = []group.By{group.ByTotal, group.ByEvent, group.ByItemType, group.ByFixerStation, group.ByStationAndType}

// ItemStatsCollection aggregates item repair outcomes.
type ItemStatsCollection struct {
	*collection[*ItemGroupStats]
}

func zeroItems(k group.Key) *ItemGroupStats { return NewItemGroupStats(k, 0, 0, 0, 0) }

func checkGrouping(kind string, by group.By, supported []group.By) error {
	for _, b := range supported {
		if b == by {
			return nil
		}
	}
	return fmt.Errorf("%w: %s by %s", group.ErrUnsupportedGrouping, kind, by)
}

// NewItemStatsCollection creates a collection over the selected events.
func NewItemStatsCollection(s *Session, keys event.KeySet, by group.By) (*ItemStatsCollection, error) {
	if err := checkGrouping("items", by, ItemGroupings); err != nil {
		return nil, err
	}
	c := &collection[*ItemGroupStats]{kind: "items", session: s, keys: keys, by: by, zero: zeroItems}
	c.loadInternal = func(ctx context.Context) (*StatsMap[*ItemGroupStats], error) {
		rows, err := s.store.ItemCounts(ctx, keys, by)
		if err != nil {
			return nil, err
		}
		return itemRows(rows), nil
	}
	c.loadSupplemental = func(ctx context.Context) (*StatsMap[*ItemGroupStats], error) {
		rows, err := s.store.SupplementalItemCounts(ctx, keys, by)
		if err != nil {
			return nil, err
		}
		return itemRows(rows), nil
	}
	c.loadExternal = func(ctx context.Context) (*StatsMap[*ItemGroupStats], error) {
		rows, err := s.providers.ItemStats(ctx, provider.KeyFilter(keys), providerGrouping(by))
		if err != nil {
			return nil, err
		}
		terms, err := s.termsFor(ctx, by)
		if err != nil {
			return nil, err
		}
		m := NewStatsMap[*ItemGroupStats]()
		for _, r := range rows {
			k := reconcileName(by, r.Name, terms)
			m.Pool(NewItemGroupStats(k, r.ItemCount, r.FixedCount, r.RepairableCount, r.EOLCount))
		}
		return m, nil
	}
	return &ItemStatsCollection{c}, nil
}

func itemRows(rows []store.ItemCountRow) *StatsMap[*ItemGroupStats] {
	m := NewStatsMap[*ItemGroupStats]()
	for _, r := range rows {
		m.Pool(NewItemGroupStats(r.Key, r.Items, r.Fixed, r.Repairable, r.EOL))
	}
	return m
}
