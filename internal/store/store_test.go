package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/refdata"
)

var (
	e1 = event.MustParseKey("20240301|1|rcs")
	e2 = event.MustParseKey("20240405|2|rcs")
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	require.Error(t, err)
}

func TestRebind(t *testing.T) {
	s := &Store{driver: DriverPostgres}
	assert.Equal(t, "a = $1 AND b IN ($2, $3)", s.rebind("a = ? AND b IN (?, ?)"))
	s.driver = DriverSQLite
	assert.Equal(t, "a = ?", s.rebind("a = ?"))
}

func TestTerms_OrderedByPositionThenID(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, err := s.UpsertTerm(ctx, refdata.FixerStations, refdata.Term{Name: "Electronics", Position: 2})
	require.NoError(t, err)
	bikes, err := s.UpsertTerm(ctx, refdata.FixerStations, refdata.Term{Name: "Bikes", Position: 1, AlternateNames: []string{"Cycles"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), bikes.ID)

	terms, err := s.Terms(ctx, refdata.FixerStations)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, "Bikes", terms[0].Name)
	assert.Equal(t, []string{"Cycles"}, terms[0].AlternateNames)
	assert.Equal(t, "Electronics", terms[1].Name)

	_, err = s.Terms(ctx, refdata.Taxonomy("colours"))
	assert.ErrorIs(t, err, ErrUnknownTaxonomy)
}

func TestEvents_StoreAndSelect(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.AddEvent(ctx, event.Event{Key: e2, Title: "April", Categories: []int64{3}}))
	require.NoError(t, s.AddEvent(ctx, event.Event{Key: e1, Title: "March", Country: "CA"}))

	n, err := s.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := s.Events(ctx, event.All())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, e1, all[0].Key)
	assert.Equal(t, []int64{3}, all[1].Categories)

	none, err := s.Events(ctx, event.NewKeySet())
	require.NoError(t, err)
	assert.Empty(t, none)

	keys, err := s.EventKeys(ctx, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []event.Key{e2}, keys)
}

func TestEvents_DescriptorWithSeparator(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	k := event.NewKey(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "cafe|north", "partner")
	require.NoError(t, s.AddEvent(ctx, event.Event{Key: k, Title: "North"}))

	got, err := s.Events(ctx, event.NewKeySet(k))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, k, got[0].Key)
}

func TestItemCounts_Grouped(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	for _, it := range []Item{
		{EventKey: e1, ItemTypeID: 1, FixerStationID: 10, Status: "fixed"},
		{EventKey: e1, ItemTypeID: 1, FixerStationID: 10, Status: "repairable"},
		{EventKey: e1, ItemTypeID: 2, FixerStationID: 11, Status: "eol"},
		{EventKey: e2, ItemTypeID: 2, FixerStationID: 11},
	} {
		_, err := s.AddItem(ctx, it)
		require.NoError(t, err)
	}

	rows, err := s.ItemCounts(ctx, event.All(), group.ByFixerStation)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ItemCountRow{Key: "10", Items: 2, Fixed: 1, Repairable: 1}, rows[0])
	assert.Equal(t, ItemCountRow{Key: "11", Items: 2, EOL: 1}, rows[1])

	rows, err = s.ItemCounts(ctx, event.NewKeySet(e1), group.ByStationAndType)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, group.Composite(10, 1), rows[0].Key)

	rows, err = s.ItemCounts(ctx, event.All(), group.ByTotal)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, group.Total, rows[0].Key)
	assert.Equal(t, 4, rows[0].Items)

	rows, err = s.ItemCounts(ctx, event.NewKeySet(), group.ByTotal)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = s.ItemCounts(ctx, event.All(), group.ByVolunteerRole)
	assert.ErrorIs(t, err, group.ErrUnsupportedGrouping)
}

func TestVisitorCounts(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	yes, no := true, false

	for _, v := range []VisitorRegistration{
		{EventKey: e1, Email: "a@example.org", IsFirstEvent: &yes, JoinMailList: true},
		{EventKey: e1, IsFirstEvent: &no},
		{EventKey: e2},
	} {
		_, err := s.AddVisitorRegistration(ctx, v)
		require.NoError(t, err)
	}

	rows, err := s.VisitorCounts(ctx, event.All(), group.ByTotal)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, VisitorCountRow{FirstTime: 1, Returning: 1, Unknown: 1, ProvidedEmail: 1, JoinMailList: 1}, rows[0])

	regs, err := s.VisitorRegistrations(ctx, event.NewKeySet(e1))
	require.NoError(t, err)
	require.Len(t, regs, 2)
	require.NotNil(t, regs[0].IsFirstEvent)
	assert.True(t, *regs[0].IsFirstEvent)
}

func TestVolunteerCounts_ByRole(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	for _, v := range []VolunteerRegistration{
		{EventKey: e1, RoleIDs: []int64{1, 2}, IsApprentice: true},
		{EventKey: e1, RoleIDs: []int64{1}},
		{EventKey: e1},
	} {
		_, err := s.AddVolunteerRegistration(ctx, v)
		require.NoError(t, err)
	}

	rows, err := s.VolunteerCounts(ctx, event.All(), group.ByVolunteerRole)
	require.NoError(t, err)
	assert.Equal(t, []VolunteerCountRow{
		{Key: "0", Head: 1},
		{Key: "1", Head: 2, Apprentice: 1},
		{Key: "2", Head: 1, Apprentice: 1},
	}, rows)

	regs, err := s.VolunteerRegistrations(ctx, event.All())
	require.NoError(t, err)
	require.Len(t, regs, 3)
	assert.Equal(t, []int64{1, 2}, regs[0].RoleIDs)
}

func TestSupplemental_ZeroWriteDeletes(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	row := SupplementalItem{EventKey: e1, ItemTypeID: 1, FixerStationID: 2, Fixed: 3, EOL: 1, Unreported: 2}

	require.NoError(t, s.SetSupplementalItem(ctx, row))
	rows, err := s.SupplementalItems(ctx, event.All())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, row, rows[0])

	cleared := SupplementalItem{EventKey: e1, ItemTypeID: 1, FixerStationID: 2}
	require.NoError(t, s.SetSupplementalItem(ctx, cleared))
	rows, err = s.SupplementalItems(ctx, event.All())
	require.NoError(t, err)
	assert.Empty(t, rows)

	// Clearing a row that does not exist is a successful no-op.
	require.NoError(t, s.SetSupplementalItem(ctx, cleared))
	require.NoError(t, s.SetSupplementalVisitor(ctx, SupplementalVisitor{EventKey: e2}))
	require.NoError(t, s.SetSupplementalVolunteer(ctx, SupplementalVolunteer{EventKey: e2, RoleID: 4}))

	assert.ErrorIs(t, s.SetSupplementalVisitor(ctx, SupplementalVisitor{EventKey: e1, FirstTime: -1}), ErrNegativeCount)
}

func TestSupplementalCounts(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.SetSupplementalItem(ctx, SupplementalItem{EventKey: e1, ItemTypeID: 1, FixerStationID: 2, Fixed: 3, EOL: 1, Unreported: 2}))
	require.NoError(t, s.SetSupplementalItem(ctx, SupplementalItem{EventKey: e2, ItemTypeID: 1, FixerStationID: 3, Repairable: 1}))
	require.NoError(t, s.SetSupplementalVisitor(ctx, SupplementalVisitor{EventKey: e1, FirstTime: 4, Unreported: 1}))
	require.NoError(t, s.SetSupplementalVolunteer(ctx, SupplementalVolunteer{EventKey: e1, RoleID: 1, FixerStationID: 2, Head: 3, Apprentice: 1}))

	items, err := s.SupplementalItemCounts(ctx, event.All(), group.ByItemType)
	require.NoError(t, err)
	assert.Equal(t, []ItemCountRow{{Key: "1", Items: 7, Fixed: 3, Repairable: 1, EOL: 1}}, items)

	visitors, err := s.SupplementalVisitorCounts(ctx, event.NewKeySet(e1), group.ByEvent)
	require.NoError(t, err)
	assert.Equal(t, []VisitorCountRow{{Key: group.Key(e1.String()), FirstTime: 4, Unknown: 1}}, visitors)

	volunteers, err := s.SupplementalVolunteerCounts(ctx, event.All(), group.ByFixerStation)
	require.NoError(t, err)
	assert.Equal(t, []VolunteerCountRow{{Key: "2", Head: 3, Apprentice: 1}}, volunteers)
}

func TestDeleteTerm_RebucketsIntoUnspecified(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	station, err := s.UpsertTerm(ctx, refdata.FixerStations, refdata.Term{Name: "Bikes"})
	require.NoError(t, err)

	_, err = s.AddItem(ctx, Item{EventKey: e1, ItemTypeID: 1, FixerStationID: station.ID, Status: "fixed"})
	require.NoError(t, err)
	require.NoError(t, s.SetSupplementalItem(ctx, SupplementalItem{EventKey: e1, ItemTypeID: 1, FixerStationID: station.ID, Fixed: 2}))
	require.NoError(t, s.SetSupplementalItem(ctx, SupplementalItem{EventKey: e1, ItemTypeID: 1, FixerStationID: 0, Fixed: 1, EOL: 1}))
	require.NoError(t, s.SetSupplementalVolunteer(ctx, SupplementalVolunteer{EventKey: e1, RoleID: 1, FixerStationID: station.ID, Head: 2}))

	require.NoError(t, s.DeleteTerm(ctx, refdata.FixerStations, station.ID))

	terms, err := s.Terms(ctx, refdata.FixerStations)
	require.NoError(t, err)
	assert.Empty(t, terms)

	sup, err := s.SupplementalItems(ctx, event.All())
	require.NoError(t, err)
	require.Len(t, sup, 1)
	assert.Equal(t, SupplementalItem{EventKey: e1, ItemTypeID: 1, FixerStationID: 0, Fixed: 3, EOL: 1}, sup[0])

	vols, err := s.SupplementalVolunteers(ctx, event.All())
	require.NoError(t, err)
	require.Len(t, vols, 1)
	assert.Equal(t, int64(0), vols[0].FixerStationID)
	assert.Equal(t, 2, vols[0].Head)

	items, err := s.ItemCounts(ctx, event.All(), group.ByFixerStation)
	require.NoError(t, err)
	assert.Equal(t, []ItemCountRow{{Key: "0", Items: 1, Fixed: 1}}, items)

	assert.Error(t, s.DeleteTerm(ctx, refdata.FixerStations, 0))
}

func TestDeleteTerm_VolunteerRole(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	role, err := s.UpsertTerm(ctx, refdata.VolunteerRoles, refdata.Term{Name: "Greeter"})
	require.NoError(t, err)
	_, err = s.AddVolunteerRegistration(ctx, VolunteerRegistration{EventKey: e1, RoleIDs: []int64{role.ID}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTerm(ctx, refdata.VolunteerRoles, role.ID))

	rows, err := s.VolunteerCounts(ctx, event.All(), group.ByVolunteerRole)
	require.NoError(t, err)
	assert.Equal(t, []VolunteerCountRow{{Key: "0", Head: 1}}, rows)
}

func TestDeleteTerm_VolunteerRoleKeepsOtherRoles(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	greeter, err := s.UpsertTerm(ctx, refdata.VolunteerRoles, refdata.Term{Name: "Greeter"})
	require.NoError(t, err)
	fixer, err := s.UpsertTerm(ctx, refdata.VolunteerRoles, refdata.Term{Name: "Fixer"})
	require.NoError(t, err)
	_, err = s.AddVolunteerRegistration(ctx, VolunteerRegistration{EventKey: e1, RoleIDs: []int64{greeter.ID, fixer.ID}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTerm(ctx, refdata.VolunteerRoles, greeter.ID))

	rows, err := s.VolunteerCounts(ctx, event.All(), group.ByVolunteerRole)
	require.NoError(t, err)
	assert.Equal(t, []VolunteerCountRow{{Key: group.IDKey(fixer.ID), Head: 1}}, rows)

	regs, err := s.VolunteerRegistrations(ctx, event.All())
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, []int64{fixer.ID}, regs[0].RoleIDs)
}

func TestDeleteTerm_ItemTypeMergesSupplementalRows(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	kettle, err := s.UpsertTerm(ctx, refdata.ItemTypes, refdata.Term{Name: "Kettle"})
	require.NoError(t, err)

	_, err = s.AddItem(ctx, Item{EventKey: e1, ItemTypeID: kettle.ID, FixerStationID: 3, Status: "eol"})
	require.NoError(t, err)
	require.NoError(t, s.SetSupplementalItem(ctx, SupplementalItem{EventKey: e1, ItemTypeID: kettle.ID, FixerStationID: 3, Fixed: 2, Unreported: 1}))
	require.NoError(t, s.SetSupplementalItem(ctx, SupplementalItem{EventKey: e1, ItemTypeID: 0, FixerStationID: 3, Repairable: 1}))
	require.NoError(t, s.SetSupplementalItem(ctx, SupplementalItem{EventKey: e2, ItemTypeID: kettle.ID, FixerStationID: 3, EOL: 4}))

	require.NoError(t, s.DeleteTerm(ctx, refdata.ItemTypes, kettle.ID))

	sup, err := s.SupplementalItems(ctx, event.All())
	require.NoError(t, err)
	assert.ElementsMatch(t, []SupplementalItem{
		{EventKey: e1, ItemTypeID: 0, FixerStationID: 3, Fixed: 2, Repairable: 1, Unreported: 1},
		{EventKey: e2, ItemTypeID: 0, FixerStationID: 3, EOL: 4},
	}, sup)

	items, err := s.ItemCounts(ctx, event.All(), group.ByItemType)
	require.NoError(t, err)
	assert.Equal(t, []ItemCountRow{{Key: "0", Items: 1, EOL: 1}}, items)
}
