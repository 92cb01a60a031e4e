package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-quake/internal/observability"
	"github.com/joeblew999/plat-quake/internal/service"
)

const quakes = `{"type":"FeatureCollection","features":[
 {"type":"Feature","id":"a","properties":{"mag":4.8,"place":"Kermadec Islands"},"geometry":{"type":"Point","coordinates":[-177.9,-29.3]}}
]}`

const plates = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"Name":"PA-NA","PlateA":"PA","PlateB":"NA"},"geometry":{"type":"LineString","coordinates":[[-125,40],[-124,41]]}}
]}`

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/quakes", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(quakes)) })
	mux.HandleFunc("/plates", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(plates)) })
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testOptions(t *testing.T, feeds *httptest.Server) (*Options, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/map.yaml", []byte(`
viewport:
  zoom: 4
feeds:
  earthquakes: `+feeds.URL+`/quakes
  major: `+feeds.URL+`/missing
  plates: `+feeds.URL+`/plates
`), 0644))
	return &Options{
		Host:         "127.0.0.1",
		Port:         0,
		MapboxToken:  "pk.test",
		Config:       "/map.yaml",
		FetchTimeout: 5,
		FetchRetries: 0,
		LogLevel:     "error",
	}, fs
}

func TestNewApp(t *testing.T) {
	opts, fs := testOptions(t, feedServer(t))
	a, err := newApp(opts, fs, observability.NewMetricsForTesting())
	require.NoError(t, err)
	defer a.closeDB()

	assert.Equal(t, 4, a.canvas.Viewport().Zoom)
	assert.NotNil(t, a.snapshot)

	a.canvas.Load(context.Background())
	var out bytes.Buffer
	failed := printCounts(&out, a.canvas.Overlays())
	assert.True(t, failed)
	assert.Contains(t, out.String(), "earthquakes")
	assert.Contains(t, out.String(), "unexpected status 404")

	res, err := a.snapshot.Query(context.Background(), "SELECT place FROM quakes")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Kermadec Islands", res.Rows[0]["place"])
}

func TestNewAppErrors(t *testing.T) {
	opts, fs := testOptions(t, feedServer(t))

	bad := *opts
	bad.LogLevel = "chatty"
	_, err := newApp(&bad, fs, observability.NewMetricsForTesting())
	assert.ErrorContains(t, err, "invalid log level")

	bad = *opts
	bad.Config = "/missing.yaml"
	_, err = newApp(&bad, fs, observability.NewMetricsForTesting())
	assert.ErrorContains(t, err, "read map file")

	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("feeds:\n  volcanoes: https://x.example"), 0644))
	bad = *opts
	bad.Config = "/bad.yaml"
	_, err = newApp(&bad, fs, observability.NewMetricsForTesting())
	assert.ErrorContains(t, err, "unknown overlay")
}

func TestPrintCounts(t *testing.T) {
	var out bytes.Buffer
	failed := printCounts(&out, []service.OverlaySummary{
		{ID: "plates", Status: service.StatusLoaded, Count: 241},
		{ID: "major", Status: service.StatusLoaded, Count: 12},
	})
	assert.False(t, failed)
	assert.Contains(t, out.String(), "OVERLAY")
	assert.Contains(t, out.String(), "241")
}

func TestServeLoadsAndStops(t *testing.T) {
	opts, fs := testOptions(t, feedServer(t))
	a, err := newApp(opts, fs, observability.NewMetricsForTesting())
	require.NoError(t, err)
	defer a.closeDB()
	srv, err := a.server(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- serve(ctx, a, srv) }()

	require.Eventually(t, a.canvas.Loaded, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
