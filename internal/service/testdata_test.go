package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"
)

const quakeFeed = `{
  "type": "FeatureCollection",
  "metadata": {"title": "USGS All Earthquakes, Past Week"},
  "features": [
    {"type": "Feature", "id": "us7000m9g4",
     "properties": {"mag": 5.2, "place": "98 km S of Sand Point, Alaska"},
     "geometry": {"type": "Point", "coordinates": [-160.41, 54.46, 35.0]}},
    {"type": "Feature", "id": "nc75012345",
     "properties": {"mag": 0, "place": "3km NW of The Geysers, CA"},
     "geometry": {"type": "Point", "coordinates": [-122.79, 38.80, 1.9]}},
    {"type": "Feature", "id": "ci40567890",
     "properties": {"mag": 3.5, "place": "10km SW of Searles Valley, CA"},
     "geometry": {"type": "Point", "coordinates": [-117.49, 35.70, 7.8]}}
  ]
}`

const plateFeed = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature",
     "properties": {"LAYER": "plate", "Name": "X", "PlateA": "A", "PlateB": "B"},
     "geometry": {"type": "LineString", "coordinates": [[-0.4, -54.9], [0.0, -54.7], [0.5, -54.5]]}},
    {"type": "Feature",
     "properties": {"LAYER": "plate", "Name": "AF-AN", "PlateA": "AF", "PlateB": "AN"},
     "geometry": {"type": "LineString", "coordinates": [[10.0, -50.0], [11.0, -50.5]]}}
  ]
}`

func mustParse(t *testing.T, raw string) *geojson.FeatureCollection {
	t.Helper()
	fc, err := geojson.UnmarshalFeatureCollection([]byte(raw))
	require.NoError(t, err)
	return fc
}

// quakeCollection builds a feed of n earthquakes with magnitudes 0.5, 1.0, ...
func quakeCollection(n int) string {
	features := make([]string, n)
	for i := range n {
		features[i] = fmt.Sprintf(
			`{"type":"Feature","id":"q%d","properties":{"mag":%g,"place":"place %d"},"geometry":{"type":"Point","coordinates":[%d,%d]}}`,
			i, float64(i+1)*0.5, i, i%180, i%90)
	}
	return `{"type":"FeatureCollection","features":[` + strings.Join(features, ",") + `]}`
}

// stubFetcher serves canned collections or errors per overlay id.
type stubFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	errs    map[string]error
	calls   []string
	release map[string]chan struct{}
}

func (s *stubFetcher) Fetch(ctx context.Context, feed Feed) (*geojson.FeatureCollection, error) {
	s.mu.Lock()
	s.calls = append(s.calls, feed.Overlay)
	wait := s.release[feed.Overlay]
	s.mu.Unlock()

	if wait != nil {
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := s.errs[feed.Overlay]; err != nil {
		return nil, err
	}
	return geojson.UnmarshalFeatureCollection([]byte(s.bodies[feed.Overlay]))
}
