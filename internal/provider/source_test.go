package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFile = `{"kind":"item","id":"i1","event-date":"20240301","event-id":"e1","event-provider":"ext","item-type":"Lamp","fixer-station":"Electronics","status":"Fixed"}
{"kind":"item","id":"i2","event-date":"20240301","event-id":"e1","event-provider":"ext","item-type":"Toaster","fixer-station":"Electronics","status":"end of life"}
{"kind":"item","id":"i3","event-date":"20240405","event-id":"e2","event-provider":"ext","item-type":"Bike","fixer-station":"Bikes","status":""}
not json
{"kind":"visitor","id":"v1","event-date":"20240301","event-id":"e1","event-provider":"ext","email":"a@example.org","is-first-event":true,"join-mail-list":true}
{"kind":"visitor","id":"v2","event-date":"20240301","event-id":"e1","event-provider":"ext","is-first-event":null}
{"kind":"volunteer","id":"w1","event-date":"20240301","event-id":"e1","event-provider":"ext","roles":["Fixer","Greeter"],"is-apprentice":true}
{"kind":"volunteer","id":"w2","event-date":"20240301","event-id":"e1","event-provider":"ext"}
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "partner.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o644))
	return path
}

func TestFileSource_LoadSkipsInvalidLines(t *testing.T) {
	s, err := LoadFile(writeSample(t), "")
	require.NoError(t, err)
	assert.Equal(t, "file:partner", s.Name())

	items, err := s.Items(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, "file:partner", items[0].Source)
}

func TestFileSource_ItemStatsByStation(t *testing.T) {
	s, err := LoadFile(writeSample(t), "partner")
	require.NoError(t, err)

	rows, err := s.ItemStats(context.Background(), nil, nil, GroupFixerStation)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ItemStatsRow{Name: "Electronics", ItemCount: 2, FixedCount: 1, EOLCount: 1}, rows[0])
	assert.Equal(t, ItemStatsRow{Name: "Bikes", ItemCount: 1}, rows[1])

	rows, err = s.ItemStats(context.Background(), nil, nil, GroupStationAndType)
	require.NoError(t, err)
	assert.Equal(t, "Electronics|Lamp", rows[0].Name)
}

func TestFileSource_FilterSelectsEvents(t *testing.T) {
	s, err := LoadFile(writeSample(t), "partner")
	require.NoError(t, err)

	filter := []KeyRecord{{Date: "20240405", DescriptorID: "e2", ProviderID: "ext"}}
	rows, err := s.ItemStats(context.Background(), nil, filter, GroupTotal)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].ItemCount)

	rows, err = s.ItemStats(context.Background(), nil, []KeyRecord{}, GroupTotal)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFileSource_VisitorAndVolunteerStats(t *testing.T) {
	s, err := LoadFile(writeSample(t), "partner")
	require.NoError(t, err)
	ctx := context.Background()

	visitors, err := s.VisitorStats(ctx, nil, nil, GroupTotal)
	require.NoError(t, err)
	require.Len(t, visitors, 1)
	assert.Equal(t, VisitorStatsRow{FirstTimeCount: 1, UnknownReturnStatusCount: 1, ProvidedEmailCount: 1, JoinMailListCount: 1}, visitors[0])

	roles, err := s.VolunteerStats(ctx, nil, nil, GroupVolunteerRole)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, VolunteerStatsRow{Name: "Fixer", HeadCount: 1, ApprenticeCount: 1}, roles[0])
	assert.Equal(t, VolunteerStatsRow{Name: "Greeter", HeadCount: 1, ApprenticeCount: 1}, roles[1])
	assert.Equal(t, VolunteerStatsRow{Name: "", HeadCount: 1}, roles[2])
}

func TestFileSource_EventKeysInRange(t *testing.T) {
	s, err := LoadFile(writeSample(t), "partner")
	require.NoError(t, err)

	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	keys, err := s.EventKeysInRange(context.Background(), nil, from, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []KeyRecord{{Date: "20240405", DescriptorID: "e2", ProviderID: "ext"}}, keys)

	keys, err = s.EventKeysInRange(context.Background(), nil, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestHTTPSource_PostsHookAndCaches(t *testing.T) {
	var calls atomic.Int32
	var lastBody hookRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/hooks/get_item_stats", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&lastBody))
		_ = json.NewEncoder(w).Encode([]ItemStatsRow{{Name: "Bikes", ItemCount: 4, FixedCount: 3}})
	}))
	defer srv.Close()

	c := NewHTTPSource(HTTPConfig{Name: "remote", BaseURL: srv.URL + "/", Token: "secret", CacheTTL: time.Minute})
	acc := []ItemStatsRow{{Name: "Earlier"}}

	rows, err := c.ItemStats(context.Background(), acc, nil, GroupFixerStation)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 4, rows[1].ItemCount)
	assert.Nil(t, lastBody.Filter)
	assert.Equal(t, GroupFixerStation, lastBody.GroupBy)

	_, err = c.ItemStats(context.Background(), nil, nil, GroupFixerStation)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPSource_StatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPSource(HTTPConfig{BaseURL: srv.URL})
	_, err := c.Items(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get_items")
}
