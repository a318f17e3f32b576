package stats

import (
	"context"
	"fmt"
	"sync"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/metrics"
)

type loader[S Counts[S]] func(ctx context.Context) (*StatsMap[S], error)

// collection lazily builds and memoises the component maps of a statistics
// collection. Each map is loaded at most once; an explicit empty key set
// yields empty maps without touching any source.
type collection[S Counts[S]] struct {
	kind    string
	session *Session
	keys    event.KeySet
	by      group.By
	zero    func(group.Key) S

	loadInternal     loader[S]
	loadExternal     loader[S]
	loadSupplemental loader[S]

	mu           sync.Mutex
	internal     *StatsMap[S]
	external     *StatsMap[S]
	supplemental *StatsMap[S]
	registered   *StatsMap[S]
	all          *StatsMap[S]
}

func (c *collection[S]) load(ctx context.Context, memo **StatsMap[S], fn loader[S], source string) (*StatsMap[S], error) {
	if *memo != nil {
		return *memo, nil
	}
	if c.keys.IsEmpty() {
		*memo = NewStatsMap[S]()
		return *memo, nil
	}
	m, err := fn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s %s stats by %s: %w", source, c.kind, c.by, err)
	}
	*memo = m
	return m, nil
}

// Keys returns the event selection of the collection.
func (c *collection[S]) Keys() event.KeySet { return c.keys }

// GroupBy returns the grouping dimension of the collection.
func (c *collection[S]) GroupBy() group.By { return c.by }

// InternalStatsMap returns statistics over data registered with this service.
func (c *collection[S]) InternalStatsMap(ctx context.Context) (*StatsMap[S], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx, &c.internal, c.loadInternal, "internal")
}

// ExternalStatsMap returns statistics contributed by external providers, with
// provider group names reconciled onto internal group keys.
func (c *collection[S]) ExternalStatsMap(ctx context.Context) (*StatsMap[S], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx, &c.external, c.loadExternal, "external")
}

// SupplementalStatsMap returns statistics from supplemental counts.
func (c *collection[S]) SupplementalStatsMap(ctx context.Context) (*StatsMap[S], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx, &c.supplemental, c.loadSupplemental, "supplemental")
}

// AllRegisteredStatsMap merges internal and external statistics.
func (c *collection[S]) AllRegisteredStatsMap(ctx context.Context) (*StatsMap[S], error) {
	internal, err := c.InternalStatsMap(ctx)
	if err != nil {
		return nil, err
	}
	external, err := c.ExternalStatsMap(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.registered == nil {
		c.registered = Merge(internal, external)
	}
	return c.registered, nil
}

// AllStatsMap merges registered and supplemental statistics and puts the
// result in canonical order.
func (c *collection[S]) AllStatsMap(ctx context.Context) (*StatsMap[S], error) {
	registered, err := c.AllRegisteredStatsMap(ctx)
	if err != nil {
		return nil, err
	}
	supplemental, err := c.SupplementalStatsMap(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.all != nil {
		return c.all, nil
	}
	merged := Merge(registered, supplemental)
	if c.keys.IsEmpty() {
		c.all = merged
		return c.all, nil
	}
	terms, err := c.session.termsFor(ctx, c.by)
	if err != nil {
		return nil, err
	}
	c.all = canonicalize(merged, c.by, terms, c.zero)
	metrics.ObserveCollection(c.kind, string(c.by))
	return c.all, nil
}

// Total returns the merged statistics summed over every group.
func (c *collection[S]) Total(ctx context.Context) (S, error) {
	all, err := c.AllStatsMap(ctx)
	if err != nil {
		var zero S
		return zero, err
	}
	total := c.zero(group.Total)
	for _, s := range all.Values() {
		total = total.Plus(s.Rekey(group.Total))
	}
	return total, nil
}

// EventCount returns the number of events the collection covers.
func (c *collection[S]) EventCount(ctx context.Context) (int, error) {
	return c.session.EventCount(ctx, c.keys)
}
