// Package provider lets external systems contribute events, registrations
// and aggregate statistics to the statistics pipeline.
//
// Providers register against named hooks. When a hook runs, each provider
// registered for it receives a copy of the accumulated result together with
// the event filter, and returns the accumulator extended with its own data.
package provider

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"rc-stats/internal/metrics"
)

// Hook names an extension point.
type Hook string

const (
	HookItemStats            Hook = "get_item_stats"
	HookVisitorStats         Hook = "get_visitor_registration_stats"
	HookVolunteerStats       Hook = "get_volunteer_registration_stats"
	HookItems                Hook = "get_items"
	HookVisitorRegistrations Hook = "get_visitor_registrations"
	HookVolunteers           Hook = "get_all_volunteer_registrations"
	HookEventKeysInRange     Hook = "get_event_keys_for_items_in_date_range"
)

// Hooks lists every hook in a stable order.
var Hooks = []Hook{
	HookItemStats, HookVisitorStats, HookVolunteerStats,
	HookItems, HookVisitorRegistrations, HookVolunteers,
	HookEventKeysInRange,
}

// Hook callables. A nil filter means every event known to the provider.
type (
	ItemStatsFunc      func(ctx context.Context, acc []ItemStatsRow, filter []KeyRecord, groupBy string) ([]ItemStatsRow, error)
	VisitorStatsFunc   func(ctx context.Context, acc []VisitorStatsRow, filter []KeyRecord, groupBy string) ([]VisitorStatsRow, error)
	VolunteerStatsFunc func(ctx context.Context, acc []VolunteerStatsRow, filter []KeyRecord, groupBy string) ([]VolunteerStatsRow, error)
	ItemsFunc          func(ctx context.Context, acc []ItemRecord, filter []KeyRecord) ([]ItemRecord, error)
	VisitorsFunc       func(ctx context.Context, acc []VisitorRecord, filter []KeyRecord) ([]VisitorRecord, error)
	VolunteersFunc     func(ctx context.Context, acc []VolunteerRecord, filter []KeyRecord) ([]VolunteerRecord, error)
	EventKeysFunc      func(ctx context.Context, acc []KeyRecord, from, to time.Time) ([]KeyRecord, error)
)

// Provider is implemented by sources registered as a whole. Register inspects
// the capability interfaces below to decide which hooks the source joins.
type Provider interface {
	Name() string
}

type (
	ItemStatsProvider interface {
		Provider
		ItemStats(ctx context.Context, acc []ItemStatsRow, filter []KeyRecord, groupBy string) ([]ItemStatsRow, error)
	}
	VisitorStatsProvider interface {
		Provider
		VisitorStats(ctx context.Context, acc []VisitorStatsRow, filter []KeyRecord, groupBy string) ([]VisitorStatsRow, error)
	}
	VolunteerStatsProvider interface {
		Provider
		VolunteerStats(ctx context.Context, acc []VolunteerStatsRow, filter []KeyRecord, groupBy string) ([]VolunteerStatsRow, error)
	}
	ItemProvider interface {
		Provider
		Items(ctx context.Context, acc []ItemRecord, filter []KeyRecord) ([]ItemRecord, error)
	}
	VisitorProvider interface {
		Provider
		VisitorRegistrations(ctx context.Context, acc []VisitorRecord, filter []KeyRecord) ([]VisitorRecord, error)
	}
	VolunteerProvider interface {
		Provider
		VolunteerRegistrations(ctx context.Context, acc []VolunteerRecord, filter []KeyRecord) ([]VolunteerRecord, error)
	}
	EventKeyProvider interface {
		Provider
		EventKeysInRange(ctx context.Context, acc []KeyRecord, from, to time.Time) ([]KeyRecord, error)
	}
)

type entry[F any] struct {
	name string
	fn   F
}

// Registry holds the ordered provider chain of each hook.
// It is safe for concurrent use.
type Registry struct {
	mu             sync.RWMutex
	itemStats      []entry[ItemStatsFunc]
	visitorStats   []entry[VisitorStatsFunc]
	volunteerStats []entry[VolunteerStatsFunc]
	items          []entry[ItemsFunc]
	visitors       []entry[VisitorsFunc]
	volunteers     []entry[VolunteersFunc]
	eventKeys      []entry[EventKeysFunc]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds p to every hook it implements and returns the hooks joined.
func (r *Registry) Register(p Provider) []Hook {
	var joined []Hook
	name := p.Name()
	if v, ok := p.(ItemStatsProvider); ok {
		r.AddItemStats(name, v.ItemStats)
		joined = append(joined, HookItemStats)
	}
	if v, ok := p.(VisitorStatsProvider); ok {
		r.AddVisitorStats(name, v.VisitorStats)
		joined = append(joined, HookVisitorStats)
	}
	if v, ok := p.(VolunteerStatsProvider); ok {
		r.AddVolunteerStats(name, v.VolunteerStats)
		joined = append(joined, HookVolunteerStats)
	}
	if v, ok := p.(ItemProvider); ok {
		r.AddItems(name, v.Items)
		joined = append(joined, HookItems)
	}
	if v, ok := p.(VisitorProvider); ok {
		r.AddVisitors(name, v.VisitorRegistrations)
		joined = append(joined, HookVisitorRegistrations)
	}
	if v, ok := p.(VolunteerProvider); ok {
		r.AddVolunteers(name, v.VolunteerRegistrations)
		joined = append(joined, HookVolunteers)
	}
	if v, ok := p.(EventKeyProvider); ok {
		r.AddEventKeys(name, v.EventKeysInRange)
		joined = append(joined, HookEventKeysInRange)
	}
	log.Info().Str("provider", name).Int("hooks", len(joined)).Msg("Registered statistics provider")
	return joined
}

func (r *Registry) AddItemStats(name string, fn ItemStatsFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.itemStats = append(r.itemStats, entry[ItemStatsFunc]{name, fn})
}

func (r *Registry) AddVisitorStats(name string, fn VisitorStatsFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visitorStats = append(r.visitorStats, entry[VisitorStatsFunc]{name, fn})
}

func (r *Registry) AddVolunteerStats(name string, fn VolunteerStatsFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volunteerStats = append(r.volunteerStats, entry[VolunteerStatsFunc]{name, fn})
}

func (r *Registry) AddItems(name string, fn ItemsFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, entry[ItemsFunc]{name, fn})
}

func (r *Registry) AddVisitors(name string, fn VisitorsFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visitors = append(r.visitors, entry[VisitorsFunc]{name, fn})
}

func (r *Registry) AddVolunteers(name string, fn VolunteersFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volunteers = append(r.volunteers, entry[VolunteersFunc]{name, fn})
}

func (r *Registry) AddEventKeys(name string, fn EventKeysFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.eventKeys = append(r.eventKeys, entry[EventKeysFunc]{name, fn})
}

// Names returns the provider names registered for a hook, in call order.
func (r *Registry) Names(h Hook) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch h {
	case HookItemStats:
		return names(r.itemStats)
	case HookVisitorStats:
		return names(r.visitorStats)
	case HookVolunteerStats:
		return names(r.volunteerStats)
	case HookItems:
		return names(r.items)
	case HookVisitorRegistrations:
		return names(r.visitors)
	case HookVolunteers:
		return names(r.volunteers)
	case HookEventKeysInRange:
		return names(r.eventKeys)
	}
	return nil
}

func names[F any](chain []entry[F]) []string {
	out := make([]string, len(chain))
	for i, e := range chain {
		out[i] = e.name
	}
	return out
}

func snapshot[F any](mu *sync.RWMutex, chain *[]entry[F]) []entry[F] {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Clone(*chain)
}

// run threads the accumulator through the chain. Each provider gets its own
// copy so it cannot mutate rows contributed earlier.
func run[T any, F any](ctx context.Context, hook Hook, chain []entry[F], call func(F, []T) ([]T, error)) ([]T, error) {
	acc := []T{}
	for _, e := range chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := invoke(e.fn, slices.Clone(acc), call)
		metrics.ObserveProviderCall(string(hook), e.name, err)
		if err != nil {
			log.Error().Err(err).Str("hook", string(hook)).Str("provider", e.name).Msg("Provider failed")
			return nil, fmt.Errorf("%s: provider %q: %w", hook, e.name, err)
		}
		log.Debug().Str("hook", string(hook)).Str("provider", e.name).Int("rows", len(out)-len(acc)).Msg("Provider contributed")
		acc = out
	}
	return acc, nil
}

func invoke[T any, F any](fn F, acc []T, call func(F, []T) ([]T, error)) (out []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return call(fn, acc)
}

// ItemStats runs the get_item_stats chain.
func (r *Registry) ItemStats(ctx context.Context, filter []KeyRecord, groupBy string) ([]ItemStatsRow, error) {
	return run(ctx, HookItemStats, snapshot(&r.mu, &r.itemStats), func(fn ItemStatsFunc, acc []ItemStatsRow) ([]ItemStatsRow, error) {
		return fn(ctx, acc, filter, groupBy)
	})
}

// VisitorStats runs the get_visitor_registration_stats chain.
func (r *Registry) VisitorStats(ctx context.Context, filter []KeyRecord, groupBy string) ([]VisitorStatsRow, error) {
	return run(ctx, HookVisitorStats, snapshot(&r.mu, &r.visitorStats), func(fn VisitorStatsFunc, acc []VisitorStatsRow) ([]VisitorStatsRow, error) {
		return fn(ctx, acc, filter, groupBy)
	})
}

// VolunteerStats runs the get_volunteer_registration_stats chain.
func (r *Registry) VolunteerStats(ctx context.Context, filter []KeyRecord, groupBy string) ([]VolunteerStatsRow, error) {
	return run(ctx, HookVolunteerStats, snapshot(&r.mu, &r.volunteerStats), func(fn VolunteerStatsFunc, acc []VolunteerStatsRow) ([]VolunteerStatsRow, error) {
		return fn(ctx, acc, filter, groupBy)
	})
}

// Items runs the get_items chain.
func (r *Registry) Items(ctx context.Context, filter []KeyRecord) ([]ItemRecord, error) {
	return run(ctx, HookItems, snapshot(&r.mu, &r.items), func(fn ItemsFunc, acc []ItemRecord) ([]ItemRecord, error) {
		return fn(ctx, acc, filter)
	})
}

// VisitorRegistrations runs the get_visitor_registrations chain.
func (r *Registry) VisitorRegistrations(ctx context.Context, filter []KeyRecord) ([]VisitorRecord, error) {
	return run(ctx, HookVisitorRegistrations, snapshot(&r.mu, &r.visitors), func(fn VisitorsFunc, acc []VisitorRecord) ([]VisitorRecord, error) {
		return fn(ctx, acc, filter)
	})
}

// VolunteerRegistrations runs the get_all_volunteer_registrations chain.
func (r *Registry) VolunteerRegistrations(ctx context.Context, filter []KeyRecord) ([]VolunteerRecord, error) {
	return run(ctx, HookVolunteers, snapshot(&r.mu, &r.volunteers), func(fn VolunteersFunc, acc []VolunteerRecord) ([]VolunteerRecord, error) {
		return fn(ctx, acc, filter)
	})
}

// EventKeysInRange runs the get_event_keys_for_items_in_date_range chain.
// Zero bounds are open.
func (r *Registry) EventKeysInRange(ctx context.Context, from, to time.Time) ([]KeyRecord, error) {
	return run(ctx, HookEventKeysInRange, snapshot(&r.mu, &r.eventKeys), func(fn EventKeysFunc, acc []KeyRecord) ([]KeyRecord, error) {
		return fn(ctx, acc, from, to)
	})
}
