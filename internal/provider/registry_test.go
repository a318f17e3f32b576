package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rc-stats/internal/event"
)

func TestRegistry_ThreadsAccumulatorInOrder(t *testing.T) {
	r := NewRegistry()
	r.AddItemStats("first", func(_ context.Context, acc []ItemStatsRow, _ []KeyRecord, _ string) ([]ItemStatsRow, error) {
		return append(acc, ItemStatsRow{Name: "Bikes", ItemCount: 1}), nil
	})
	r.AddItemStats("second", func(_ context.Context, acc []ItemStatsRow, _ []KeyRecord, _ string) ([]ItemStatsRow, error) {
		require.Len(t, acc, 1)
		return append(acc, ItemStatsRow{Name: "Electronics", ItemCount: 2}), nil
	})

	rows, err := r.ItemStats(context.Background(), nil, GroupFixerStation)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bikes", rows[0].Name)
	assert.Equal(t, "Electronics", rows[1].Name)
	assert.Equal(t, []string{"first", "second"}, r.Names(HookItemStats))
}

func TestRegistry_ProviderCannotMutateEarlierRows(t *testing.T) {
	r := NewRegistry()
	r.AddItemStats("honest", func(_ context.Context, acc []ItemStatsRow, _ []KeyRecord, _ string) ([]ItemStatsRow, error) {
		return append(acc, ItemStatsRow{Name: "Bikes", ItemCount: 1}), nil
	})
	var seen []ItemStatsRow
	r.AddItemStats("meddler", func(_ context.Context, acc []ItemStatsRow, _ []KeyRecord, _ string) ([]ItemStatsRow, error) {
		acc[0].ItemCount = 100
		seen = acc
		return []ItemStatsRow{{Name: "Bikes", ItemCount: 1}}, nil
	})

	rows, err := r.ItemStats(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, 1, rows[0].ItemCount)
	assert.Equal(t, 100, seen[0].ItemCount)
}

func TestRegistry_PassesFilterThrough(t *testing.T) {
	k := event.MustParseKey("20240301|e1|ext")
	var got [][]KeyRecord
	r := NewRegistry()
	r.AddItems("capture", func(_ context.Context, acc []ItemRecord, filter []KeyRecord) ([]ItemRecord, error) {
		got = append(got, filter)
		return acc, nil
	})

	_, err := r.Items(context.Background(), KeyFilter(event.All()))
	require.NoError(t, err)
	_, err = r.Items(context.Background(), KeyFilter(event.NewKeySet(k)))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Nil(t, got[0], "ALL must reach providers as a nil filter")
	assert.Equal(t, []KeyRecord{{Date: "20240301", DescriptorID: "e1", ProviderID: "ext"}}, got[1])
}

func TestRegistry_ErrorsPropagateWithProviderName(t *testing.T) {
	boom := errors.New("boom")
	called := false
	r := NewRegistry()
	r.AddVolunteerStats("broken", func(context.Context, []VolunteerStatsRow, []KeyRecord, string) ([]VolunteerStatsRow, error) {
		return nil, boom
	})
	r.AddVolunteerStats("after", func(_ context.Context, acc []VolunteerStatsRow, _ []KeyRecord, _ string) ([]VolunteerStatsRow, error) {
		called = true
		return acc, nil
	})

	_, err := r.VolunteerStats(context.Background(), nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `"broken"`)
	assert.Contains(t, err.Error(), string(HookVolunteerStats))
	assert.False(t, called)
}

func TestRegistry_PanicBecomesError(t *testing.T) {
	r := NewRegistry()
	r.AddVisitorStats("panicky", func(context.Context, []VisitorStatsRow, []KeyRecord, string) ([]VisitorStatsRow, error) {
		panic("nil map")
	})

	_, err := r.VisitorStats(context.Background(), nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil map")
}

func TestRegistry_EmptyChainReturnsEmpty(t *testing.T) {
	rows, err := NewRegistry().VisitorRegistrations(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

type statsOnly struct{}

func (statsOnly) Name() string { return "stats-only" }
func (statsOnly) ItemStats(_ context.Context, acc []ItemStatsRow, _ []KeyRecord, _ string) ([]ItemStatsRow, error) {
	return acc, nil
}

func TestRegistry_RegisterDetectsCapabilities(t *testing.T) {
	r := NewRegistry()
	hooks := r.Register(statsOnly{})
	assert.Equal(t, []Hook{HookItemStats}, hooks)
	assert.Empty(t, r.Names(HookItems))
}

func TestKeyFilter_EmptyIsNotAll(t *testing.T) {
	f := KeyFilter(event.NewKeySet())
	assert.NotNil(t, f)
	assert.Empty(t, f)
	assert.False(t, Matches(f, KeyRecord{Date: "20240101", DescriptorID: "x"}))
	assert.True(t, Matches(nil, KeyRecord{Date: "20240101", DescriptorID: "x"}))
}

func TestKeyRecord_FreeTextDescriptor(t *testing.T) {
	r := KeyRecord{Date: "20240501", DescriptorID: "cafe|north", ProviderID: "partner"}
	k, err := r.Key()
	require.NoError(t, err)
	assert.Equal(t, "cafe|north", k.DescriptorID)
	assert.Equal(t, "partner", k.ProviderID)
	assert.Equal(t, r, RecordOf(k))
	assert.True(t, event.NewKeySet(k).Contains(event.MustParseKey(k.String())))

	_, err = KeyRecord{Date: "2024-05-01", DescriptorID: "x"}.Key()
	assert.ErrorIs(t, err, event.ErrMalformedKey)
	_, err = KeyRecord{Date: "20240501"}.Key()
	assert.ErrorIs(t, err, event.ErrMalformedKey)
}
