package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/provider"
	"rc-stats/internal/refdata"
	"rc-stats/internal/store"
)

// Store is the persistence the collections read internal and supplemental data from.
type Store interface {
	refdata.Catalog
	Events(ctx context.Context, keys event.KeySet) ([]event.Event, error)
	EventKeys(ctx context.Context, from, to time.Time) ([]event.Key, error)

	ItemCounts(ctx context.Context, keys event.KeySet, by group.By) ([]store.ItemCountRow, error)
	SupplementalItemCounts(ctx context.Context, keys event.KeySet, by group.By) ([]store.ItemCountRow, error)
	VisitorCounts(ctx context.Context, keys event.KeySet, by group.By) ([]store.VisitorCountRow, error)
	SupplementalVisitorCounts(ctx context.Context, keys event.KeySet, by group.By) ([]store.VisitorCountRow, error)
	VolunteerCounts(ctx context.Context, keys event.KeySet, by group.By) ([]store.VolunteerCountRow, error)
	SupplementalVolunteerCounts(ctx context.Context, keys event.KeySet, by group.By) ([]store.VolunteerCountRow, error)
}

// Providers is the external provider chain the collections read external data from.
type Providers interface {
	ItemStats(ctx context.Context, filter []provider.KeyRecord, groupBy string) ([]provider.ItemStatsRow, error)
	VisitorStats(ctx context.Context, filter []provider.KeyRecord, groupBy string) ([]provider.VisitorStatsRow, error)
	VolunteerStats(ctx context.Context, filter []provider.KeyRecord, groupBy string) ([]provider.VolunteerStatsRow, error)
	EventKeysInRange(ctx context.Context, from, to time.Time) ([]provider.KeyRecord, error)
}

// Session carries the per-request state shared by the collections built
// while answering one request: memoised reference data, the memoised count
// of all known events and the confidence level estimates are reported at.
// A Session must not be reused across requests, since neither memo observes
// later changes. It is safe for concurrent use.
type Session struct {
	store     Store
	providers Providers
	refdata   *refdata.Cache
	level     ConfidenceLevel

	mu        sync.Mutex
	allEvents []event.Key
	loaded    bool
}

// NewSession starts a request. A nil providers chain contributes nothing.
func NewSession(st Store, providers Providers, level ConfidenceLevel) *Session {
	if providers == nil {
		providers = provider.NewRegistry()
	}
	if !level.Valid() {
		level = DefaultConfidence
	}
	return &Session{
		store:     st,
		providers: providers,
		refdata:   refdata.NewCache(st),
		level:     level,
	}
}

// ConfidenceLevel returns the level estimates are reported at.
func (s *Session) ConfidenceLevel() ConfidenceLevel { return s.level }

// Store returns the session's store.
func (s *Session) Store() Store { return s.store }

// Providers returns the session's provider chain.
func (s *Session) Providers() Providers { return s.providers }

// Terms returns the memoised terms of a taxonomy.
func (s *Session) Terms(ctx context.Context, taxonomy refdata.Taxonomy) ([]refdata.Term, error) {
	return s.refdata.Terms(ctx, taxonomy)
}

// termsFor loads every taxonomy a grouping needs and returns a lookup over them.
func (s *Session) termsFor(ctx context.Context, by group.By) (termSource, error) {
	var taxonomies []refdata.Taxonomy
	if by == group.ByStationAndType {
		taxonomies = []refdata.Taxonomy{refdata.FixerStations, refdata.ItemTypes}
	} else if t, ok := by.Taxonomy(); ok {
		taxonomies = []refdata.Taxonomy{t}
	}
	loaded := make(map[refdata.Taxonomy][]refdata.Term, len(taxonomies))
	for _, t := range taxonomies {
		terms, err := s.Terms(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", t, err)
		}
		loaded[t] = terms
	}
	return func(t refdata.Taxonomy) []refdata.Term { return loaded[t] }, nil
}

// AllEventKeys returns every event known to the system: stored events plus
// those reported by providers. The result is memoised for the session.
func (s *Session) AllEventKeys(ctx context.Context) ([]event.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.allEvents, nil
	}

	internal, err := s.store.EventKeys(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	external, err := s.providers.EventKeysInRange(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	keys, err := provider.EventKeys(external)
	if err != nil {
		return nil, err
	}
	s.allEvents = event.NewKeySet(append(keys, internal...)...).Keys()
	s.loaded = true
	return s.allEvents, nil
}

// EventCount returns the number of events a key set denotes.
func (s *Session) EventCount(ctx context.Context, keys event.KeySet) (int, error) {
	if !keys.IsAll() {
		return keys.Len(), nil
	}
	all, err := s.AllEventKeys(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}
