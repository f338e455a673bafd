package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iobroker-bot-orga/check-tasks/internal/fetch"
)

const latestDoc = `{
  "_repoInfo": {"stable": false, "name": "latest", "version": 5},
  "admin": {"version": "7.1.0", "versionDate": "2024-05-01T10:00:00.000Z", "meta": "https://raw.githubusercontent.com/ioBroker/ioBroker.admin/master/io-package.json"},
  "zigbee": {"version": "1.10.0", "meta": "https://raw.githubusercontent.com/Koenkk/ioBroker.zigbee/master/io-package.json"}
}`

const statisticsDoc = `{
  "adapters": {"admin": 1000},
  "versions": {"admin": {"7.1.0": 120, "7.0.0": 880}}
}`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/latest.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(latestDoc))
	})
	mux.HandleFunc("/stable.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"admin": {"version": "7.0.0", "versionDate": "2024-01-01T00:00:00.000Z"}}`))
	})
	mux.HandleFunc("/stable-source.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{\n  \"admin\": {\n    \"version\": \"7.0.0\"\n  }\n}\n"))
	})
	mux.HandleFunc("/statistics.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(statisticsDoc))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestLoadSnapshot(t *testing.T) {
	server := newServer(t)
	f := NewHTTPFeed(fetch.NewGetter(time.Second, time.Second), URLs{
		Latest:     server.URL + "/latest.json",
		Stable:     server.URL + "/stable.json",
		StableFile: server.URL + "/stable-source.json",
		Statistics: server.URL + "/statistics.json",
	})

	snap, err := Load(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, []string{"admin", "zigbee"}, snap.Latest.Names())
	assert.Equal(t, "7.1.0", snap.Latest["admin"].Version)
	assert.Equal(t, "ioBroker", snap.Latest["admin"].Owner())
	assert.Equal(t, "Koenkk", snap.Latest["zigbee"].Owner())
	assert.Equal(t, "7.0.0", snap.Stable["admin"].Version)
	assert.Contains(t, snap.StableSource, `"admin": {`)

	installs, err := snap.Statistics.Installs("admin")
	require.NoError(t, err)
	assert.Equal(t, 1000, installs)
	assert.Equal(t, 120, snap.Statistics.VersionInstalls("admin", "7.1.0"))
	assert.Zero(t, snap.Statistics.VersionInstalls("admin", "6.0.0"))
}

func TestLoadSnapshotFailure(t *testing.T) {
	server := newServer(t)
	f := NewHTTPFeed(fetch.NewGetter(time.Second, time.Second), URLs{
		Latest:     server.URL + "/latest.json",
		Stable:     server.URL + "/missing.json",
		StableFile: server.URL + "/stable-source.json",
		Statistics: server.URL + "/statistics.json",
	})

	_, err := Load(context.Background(), f)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetch.ErrFetch)
	assert.Contains(t, err.Error(), "stable repository")
}

func TestReleaseDate(t *testing.T) {
	d, ok := Release{VersionDate: "2024-05-01T10:00:00.000Z"}.Date()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), d)

	_, ok = Release{}.Date()
	assert.False(t, ok)
	_, ok = Release{VersionDate: "yesterday"}.Date()
	assert.False(t, ok)
}

func TestParseRepositorySkipsBadEntries(t *testing.T) {
	repo, err := ParseRepository([]byte(`{"good": {"version": "1.0.0"}, "bad": {"version": 5}, "_meta": 1}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, repo.Names())

	_, err = ParseRepository([]byte(`not json`))
	assert.Error(t, err)
}

func TestStatisticsMissingAdapter(t *testing.T) {
	stats := &Statistics{Adapters: map[string]int{"admin": 1}}
	_, err := stats.Installs("zigbee")
	assert.True(t, errors.Is(err, ErrNoStatistics))

	var none *Statistics
	_, err = none.Installs("admin")
	assert.ErrorIs(t, err, ErrNoStatistics)
}

func TestOwnerFromMeta(t *testing.T) {
	assert.Equal(t, "foo", OwnerFromMeta("https://raw.githubusercontent.com/foo/ioBroker.bar/main/io-package.json"))
	assert.Empty(t, OwnerFromMeta("garbage"))
}
