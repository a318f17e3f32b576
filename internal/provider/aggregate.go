package provider

import (
	"slices"
	"strings"
)

// Grouping names accepted in the groupBy argument of the stats hooks.
const (
	GroupTotal          = ""
	GroupEvent          = "event"
	GroupItemType       = "item_type"
	GroupFixerStation   = "fixer_station"
	GroupStationAndType = "station_and_type"
	GroupVolunteerRole  = "volunteer_role"
)

func eventName(r KeyRecord) string {
	if k, err := r.Key(); err == nil {
		return k.String()
	}
	return r.Date + "|" + r.DescriptorID + "|" + r.ProviderID
}

// bucket accumulates rows by name, preserving first-seen order.
type bucket[T any] struct {
	order []string
	rows  map[string]*T
}

func newBucket[T any]() *bucket[T] {
	return &bucket[T]{rows: make(map[string]*T)}
}

func (b *bucket[T]) get(name string, init func(string) T) *T {
	if r, ok := b.rows[name]; ok {
		return r
	}
	r := init(name)
	b.rows[name] = &r
	b.order = append(b.order, name)
	return &r
}

func (b *bucket[T]) list() []T {
	out := make([]T, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, *b.rows[name])
	}
	return out
}

// AggregateItems reduces raw item records to stats rows for a grouping.
func AggregateItems(records []ItemRecord, groupBy string) []ItemStatsRow {
	b := newBucket[ItemStatsRow]()
	for _, r := range records {
		var name string
		switch groupBy {
		case GroupEvent:
			name = eventName(r.KeyRecord())
		case GroupItemType:
			name = r.ItemType
		case GroupFixerStation:
			name = r.FixerStation
		case GroupStationAndType:
			name = r.FixerStation + "|" + r.ItemType
		}
		row := b.get(name, func(n string) ItemStatsRow { return ItemStatsRow{Name: n} })
		row.ItemCount++
		switch NormalizeStatus(r.Status) {
		case StatusFixed:
			row.FixedCount++
		case StatusRepairable:
			row.RepairableCount++
		case StatusEndOfLife:
			row.EOLCount++
		}
	}
	return b.list()
}

// AggregateVisitors reduces raw visitor records to stats rows for a grouping.
// Only total and per-event groupings are meaningful for visitors.
func AggregateVisitors(records []VisitorRecord, groupBy string) []VisitorStatsRow {
	b := newBucket[VisitorStatsRow]()
	for _, r := range records {
		var name string
		if groupBy == GroupEvent {
			name = eventName(r.KeyRecord())
		}
		row := b.get(name, func(n string) VisitorStatsRow { return VisitorStatsRow{Name: n} })
		switch {
		case r.IsFirstEvent == nil:
			row.UnknownReturnStatusCount++
		case *r.IsFirstEvent:
			row.FirstTimeCount++
		default:
			row.ReturningCount++
		}
		if strings.TrimSpace(r.Email) != "" {
			row.ProvidedEmailCount++
		}
		if r.JoinMailList {
			row.JoinMailListCount++
		}
	}
	return b.list()
}

// AggregateVolunteers reduces raw volunteer records to stats rows for a
// grouping. With the role grouping a volunteer counts once per role, and a
// volunteer with no roles counts under the empty name.
func AggregateVolunteers(records []VolunteerRecord, groupBy string) []VolunteerStatsRow {
	b := newBucket[VolunteerStatsRow]()
	add := func(name string, r VolunteerRecord) {
		row := b.get(name, func(n string) VolunteerStatsRow { return VolunteerStatsRow{Name: n} })
		row.HeadCount++
		if r.IsApprentice {
			row.ApprenticeCount++
		}
	}
	for _, r := range records {
		switch groupBy {
		case GroupEvent:
			add(eventName(r.KeyRecord()), r)
		case GroupFixerStation:
			add(r.FixerStation, r)
		case GroupVolunteerRole:
			roles := slices.Compact(slices.Sorted(slices.Values(r.Roles)))
			if len(roles) == 0 {
				add("", r)
			}
			for _, role := range roles {
				add(role, r)
			}
		default:
			add("", r)
		}
	}
	return b.list()
}
