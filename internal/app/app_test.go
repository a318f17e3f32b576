package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rc-stats/internal/config"
	"rc-stats/internal/event"
	"rc-stats/internal/provider"
	"rc-stats/internal/refdata"
	"rc-stats/internal/stats"
	"rc-stats/internal/store"
)

const referenceYAML = `
item_type:
  - id: 10
    name: Toaster
  - id: 11
    name: Lamp
fixer_station:
  - id: 1
    name: Electrical
`

const recordsJSONL = `{"kind":"item","id":"x1","description":"Kettle leaks","event-date":"20240310","event-id":"9","event-provider":"partner","item-type":"toaster","status":"fixed"}
{"kind":"visitor","id":"v1","public-name":"Sam","full-name":"Sam Smith","event-date":"20240310","event-id":"9","event-provider":"partner"}
`

func testApp(t *testing.T, cfg *config.AppConfig) *App {
	t.Helper()
	dir := t.TempDir()
	if cfg == nil {
		cfg = &config.AppConfig{}
	}
	cfg.DBDriver = store.DriverSQLite
	cfg.DBDSN = filepath.Join(dir, "app.db")
	if cfg.Confidence == 0 {
		cfg.Confidence = stats.DefaultConfidence
	}
	a, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

var march = event.NewKey(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), "1", event.InternalProviderID)

func TestOpen_SeedsReferenceDataAndProviders(t *testing.T) {
	dir := t.TempDir()
	refPath := filepath.Join(dir, "refdata.yaml")
	recPath := filepath.Join(dir, "records.jsonl")
	require.NoError(t, os.WriteFile(refPath, []byte(referenceYAML), 0o600))
	require.NoError(t, os.WriteFile(recPath, []byte(recordsJSONL), 0o600))

	a := testApp(t, &config.AppConfig{ReferenceDataFile: refPath, ExternalRecordsFile: recPath})
	ctx := context.Background()

	data, err := a.ReferenceData(ctx)
	require.NoError(t, err)
	require.Len(t, data[refdata.ItemTypes], 2)
	assert.Equal(t, "Toaster", data[refdata.ItemTypes][0].Name)
	assert.Len(t, data[refdata.FixerStations], 1)
	assert.Equal(t, []string{"file:records"}, a.Providers.Names(provider.HookItems))

	rep, err := stats.BuildReport(ctx, a.Session(), stats.KindItems, event.All(), "item_type", "")
	require.NoError(t, err)
	require.NotEmpty(t, rep.Rows)
	assert.Equal(t, "Toaster", rep.Rows[0].Label)
	assert.Equal(t, 1, rep.Rows[0].Items.Fixed)
	assert.Equal(t, 1, rep.Events)
}

func TestOpen_BadReferenceFile(t *testing.T) {
	cfg := &config.AppConfig{
		DBDriver:          store.DriverSQLite,
		DBDSN:             filepath.Join(t.TempDir(), "app.db"),
		ReferenceDataFile: filepath.Join(t.TempDir(), "missing.yaml"),
	}
	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	a := testApp(t, nil)
	ctx := context.Background()
	require.NoError(t, a.Store.AddEvent(ctx, event.Event{Key: march}))

	all, err := a.Resolve(ctx, Selection{})
	require.NoError(t, err)
	assert.True(t, all.IsAll())

	empty, err := a.Resolve(ctx, Selection{Events: []string{}})
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	ranged, err := a.Resolve(ctx, Selection{From: "2024-03-01", To: "2024-03-31"})
	require.NoError(t, err)
	assert.Equal(t, []event.Key{march}, ranged.Keys())

	outside, err := a.Resolve(ctx, Selection{From: "2024-04-01"})
	require.NoError(t, err)
	assert.True(t, outside.IsEmpty())

	_, err = a.Resolve(ctx, Selection{From: "2024-04-01", To: "2024-03-01"})
	assert.Error(t, err)
	_, err = a.Resolve(ctx, Selection{Events: []string{"not-a-key"}})
	assert.ErrorIs(t, err, event.ErrMalformedKey)
}

func TestSetSupplemental_RequiresEvent(t *testing.T) {
	a := testApp(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, a.SetSupplementalItem(ctx, store.SupplementalItem{Fixed: 1}), ErrMissingEvent)
	assert.ErrorIs(t, a.SetSupplementalVisitor(ctx, store.SupplementalVisitor{FirstTime: 1}), ErrMissingEvent)
	assert.ErrorIs(t, a.SetSupplementalVolunteer(ctx, store.SupplementalVolunteer{Head: 1}), ErrMissingEvent)

	require.NoError(t, a.SetSupplementalVisitor(ctx, store.SupplementalVisitor{EventKey: march, FirstTime: 2, Returning: 1}))
	rows, err := a.Store.SupplementalVisitors(ctx, event.NewKeySet(march))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].FirstTime)
}

func TestRegistrations_PersonalData(t *testing.T) {
	ctx := context.Background()
	for _, show := range []bool{false, true} {
		a := testApp(t, &config.AppConfig{ShowPersonalData: show})
		require.NoError(t, a.Store.AddEvent(ctx, event.Event{Key: march}))
		_, err := a.Store.AddVisitorRegistration(ctx, store.VisitorRegistration{
			EventKey: march, FullName: "Jane Doe", PublicName: "Jane D", Email: "jane@example.org",
		})
		require.NoError(t, err)

		got, err := a.Registrations(ctx, RegistrationVisitors, event.All())
		require.NoError(t, err)
		views, ok := got.([]VisitorView)
		require.True(t, ok)
		require.Len(t, views, 1)
		if show {
			assert.Equal(t, "Jane Doe", views[0].Name)
			assert.Equal(t, "jane@example.org", views[0].Email)
		} else {
			assert.Equal(t, "Jane D", views[0].Name)
			assert.Empty(t, views[0].Email)
		}
	}
}

func TestRegistrations_ItemsResolveNames(t *testing.T) {
	a := testApp(t, nil)
	ctx := context.Background()
	_, err := a.Store.UpsertTerm(ctx, refdata.ItemTypes, refdata.Term{ID: 10, Name: "Toaster"})
	require.NoError(t, err)
	require.NoError(t, a.Store.AddEvent(ctx, event.Event{Key: march}))
	_, err = a.Store.AddItem(ctx, store.Item{EventKey: march, Description: "No heat", ItemTypeID: 10})
	require.NoError(t, err)
	require.NoError(t, a.SetSupplementalItem(ctx, store.SupplementalItem{EventKey: march, Fixed: 1}))

	got, err := a.Registrations(ctx, RegistrationItems, event.NewKeySet(march))
	require.NoError(t, err)
	views := got.([]ItemView)
	require.Len(t, views, 2)
	assert.Equal(t, "Toaster", views[0].ItemType)
	assert.Equal(t, "Unspecified", views[0].FixerStation)
	assert.Equal(t, "Unspecified", views[1].ItemType)
	assert.Equal(t, provider.StatusFixed, views[1].Status)

	_, err = a.Registrations(ctx, "repairs", event.All())
	assert.Error(t, err)
}
