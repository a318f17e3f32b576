package stats

import (
	"context"
	"errors"
	"fmt"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
)

// Statistics kinds.
const (
	KindItems      = "items"
	KindVisitors   = "visitors"
	KindVolunteers = "volunteers"
	KindEvents     = "events"
)

var (
	ErrUnknownKind   = errors.New("unknown statistics kind")
	ErrUnknownSource = errors.New("unknown source")
)

// Kinds lists every statistics kind.
var Kinds = []string{KindItems, KindVisitors, KindVolunteers, KindEvents}

// Data sources a report can be restricted to.
const (
	SourceAll          = "all"
	SourceRegistered   = "registered"
	SourceInternal     = "internal"
	SourceExternal     = "external"
	SourceSupplemental = "supplemental"
)

// Sources lists the accepted report sources.
var Sources = []string{SourceAll, SourceRegistered, SourceInternal, SourceExternal, SourceSupplemental}

// ReportRow is one group of a report. Exactly one of the kind fields is set.
type ReportRow struct {
	Key        group.Key         `json:"key"`
	Label      string            `json:"label"`
	Items      *ItemSummary      `json:"items,omitempty"`
	Visitors   *VisitorSummary   `json:"visitors,omitempty"`
	Volunteers *VolunteerSummary `json:"volunteers,omitempty"`
	Events     *int              `json:"events,omitempty"`
}

// Report is a grouped view of one statistics kind, rows in canonical order.
type Report struct {
	Kind    string          `json:"kind"`
	GroupBy group.By        `json:"group_by"`
	Source  string          `json:"source"`
	Events  int             `json:"event_count"`
	Level   ConfidenceLevel `json:"confidence_level"`
	Rows    []ReportRow     `json:"rows"`
}

// Groupings returns the dimensions a kind can be grouped by.
func Groupings(kind string) ([]group.By, error) {
	switch kind {
	case KindItems:
		return ItemGroupings, nil
	case KindVisitors:
		return VisitorGroupings, nil
	case KindVolunteers:
		return VolunteerGroupings, nil
	case KindEvents:
		return EventGroupings, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind)
}

func statsMapFor[S Counts[S]](ctx context.Context, c *collection[S], source string) (*StatsMap[S], error) {
	switch source {
	case "", SourceAll:
		return c.AllStatsMap(ctx)
	case SourceRegistered:
		return c.AllRegisteredStatsMap(ctx)
	case SourceInternal:
		return c.InternalStatsMap(ctx)
	case SourceExternal:
		return c.ExternalStatsMap(ctx)
	case SourceSupplemental:
		return c.SupplementalStatsMap(ctx)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownSource, source)
}

func rowsOf[S Counts[S]](ctx context.Context, c *collection[S], source string, labels func(group.Key) string, row func(S) ReportRow) ([]ReportRow, error) {
	m, err := statsMapFor(ctx, c, source)
	if err != nil {
		return nil, err
	}
	out := make([]ReportRow, 0, m.Len())
	for k, v := range m.All() {
		r := row(v)
		r.Key = k
		r.Label = labels(k)
		out = append(out, r)
	}
	return out, nil
}

// BuildReport builds the collection of kind grouped by by and reports the
// selected source.
func BuildReport(ctx context.Context, s *Session, kind string, keys event.KeySet, by group.By, source string) (Report, error) {
	if source == "" {
		source = SourceAll
	}
	rep := Report{Kind: kind, GroupBy: by, Source: source, Level: s.ConfidenceLevel()}
	labels, err := s.Labels(ctx, by)
	if err != nil {
		return Report{}, err
	}

	var count func(context.Context) (int, error)
	switch kind {
	case KindItems:
		c, err := NewItemStatsCollection(s, keys, by)
		if err != nil {
			return Report{}, err
		}
		count = c.EventCount
		rep.Rows, err = rowsOf(ctx, c.collection, source, labels, func(v *ItemGroupStats) ReportRow {
			sum := NewItemSummary(v, s.ConfidenceLevel())
			return ReportRow{Items: &sum}
		})
		if err != nil {
			return Report{}, err
		}
	case KindVisitors:
		c, err := NewVisitorStatsCollection(s, keys, by)
		if err != nil {
			return Report{}, err
		}
		count = c.EventCount
		rep.Rows, err = rowsOf(ctx, c.collection, source, labels, func(v *VisitorGroupStats) ReportRow {
			sum := NewVisitorSummary(v)
			return ReportRow{Visitors: &sum}
		})
		if err != nil {
			return Report{}, err
		}
	case KindVolunteers:
		c, err := NewVolunteerStatsCollection(s, keys, by)
		if err != nil {
			return Report{}, err
		}
		count = c.EventCount
		rep.Rows, err = rowsOf(ctx, c.collection, source, labels, func(v *VolunteerGroupStats) ReportRow {
			return ReportRow{Volunteers: &VolunteerSummary{Head: v.HeadCount(), Apprentice: v.ApprenticeCount()}}
		})
		if err != nil {
			return Report{}, err
		}
	case KindEvents:
		c, err := NewEventStatsCollection(s, keys, by)
		if err != nil {
			return Report{}, err
		}
		count = c.EventCount
		rep.Rows, err = rowsOf(ctx, c.collection, source, labels, func(v *EventGroupStats) ReportRow {
			n := v.EventCount()
			return ReportRow{Events: &n}
		})
		if err != nil {
			return Report{}, err
		}
	default:
		return Report{}, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}

	if rep.Events, err = count(ctx); err != nil {
		return Report{}, err
	}
	return rep, nil
}
