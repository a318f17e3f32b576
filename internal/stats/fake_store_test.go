package stats

import (
	"context"
	"sync/atomic"
	"time"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/refdata"
	"rc-stats/internal/store"
)

// fakeStore returns canned rows whatever the query and counts every call.
type fakeStore struct {
	refdata.Static
	calls atomic.Int64

	events       []event.Event
	items        []store.ItemCountRow
	supItems     []store.ItemCountRow
	visitors     []store.VisitorCountRow
	supVisitors  []store.VisitorCountRow
	volunteers   []store.VolunteerCountRow
	supVolunteer []store.VolunteerCountRow
}

func (f *fakeStore) Terms(ctx context.Context, taxonomy refdata.Taxonomy) ([]refdata.Term, error) {
	f.calls.Add(1)
	return f.Static.Terms(ctx, taxonomy)
}

func (f *fakeStore) Events(_ context.Context, keys event.KeySet) ([]event.Event, error) {
	f.calls.Add(1)
	var out []event.Event
	for _, e := range f.events {
		if keys.Contains(e.Key) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) EventKeys(context.Context, time.Time, time.Time) ([]event.Key, error) {
	f.calls.Add(1)
	out := make([]event.Key, len(f.events))
	for i, e := range f.events {
		out[i] = e.Key
	}
	return out, nil
}

func (f *fakeStore) ItemCounts(context.Context, event.KeySet, group.By) ([]store.ItemCountRow, error) {
	f.calls.Add(1)
	return f.items, nil
}

func (f *fakeStore) SupplementalItemCounts(context.Context, event.KeySet, group.By) ([]store.ItemCountRow, error) {
	f.calls.Add(1)
	return f.supItems, nil
}

func (f *fakeStore) VisitorCounts(context.Context, event.KeySet, group.By) ([]store.VisitorCountRow, error) {
	f.calls.Add(1)
	return f.visitors, nil
}

func (f *fakeStore) SupplementalVisitorCounts(context.Context, event.KeySet, group.By) ([]store.VisitorCountRow, error) {
	f.calls.Add(1)
	return f.supVisitors, nil
}

func (f *fakeStore) VolunteerCounts(context.Context, event.KeySet, group.By) ([]store.VolunteerCountRow, error) {
	f.calls.Add(1)
	return f.volunteers, nil
}

func (f *fakeStore) SupplementalVolunteerCounts(context.Context, event.KeySet, group.By) ([]store.VolunteerCountRow, error) {
	f.calls.Add(1)
	return f.supVolunteer, nil
}

var (
	e1 = event.NewKey(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), "101", "rcs")
	e2 = event.NewKey(time.Date(2024, 4, 6, 0, 0, 0, 0, time.UTC), "102", "rcs")
)

func testStations() refdata.Static {
	return refdata.Static{
		refdata.FixerStations: {
			{ID: 1, Name: "StationA", Position: 1},
			{ID: 2, Name: "StationB", Position: 2},
			{ID: 3, Name: "StationC", AlternateNames: []string{"Bikes"}, Position: 3},
		},
		refdata.ItemTypes: {
			{ID: 10, Name: "Toaster", Position: 1},
			{ID: 11, Name: "Bicycle", Position: 2},
		},
		refdata.VolunteerRoles: {
			{ID: 20, Name: "Fixer", Position: 1},
			{ID: 21, Name: "Greeter", Position: 2},
		},
		refdata.EventCategories: {
			{ID: 30, Name: "Community", Position: 1},
		},
	}
}
