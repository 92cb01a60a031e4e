package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)

func TestOverlayGroupStartsPending(t *testing.T) {
	g := newOverlayGroup(Feed{Overlay: "major", Name: "Major Earthquakes", Kind: KindQuakes})
	s := g.Summary()
	assert.Equal(t, StatusPending, s.Status)
	assert.Zero(t, s.Count)
	assert.Nil(t, s.LoadedAt)
	assert.True(t, s.Visible)
	assert.Empty(t, g.Markers())
}

func TestOverlayGroupAddMarkers(t *testing.T) {
	g := newOverlayGroup(Feed{Overlay: "earthquakes", Kind: KindQuakes})
	markers, _ := RenderQuakes(mustParse(t, quakeFeed))
	require.NoError(t, g.addMarkers(markers, testTime))

	s := g.Summary()
	assert.Equal(t, StatusLoaded, s.Status)
	assert.Equal(t, 3, s.Count)
	require.NotNil(t, s.LoadedAt)
	assert.Equal(t, testTime, *s.LoadedAt)
	assert.Equal(t, []float64{-160.41, 35.70, -117.49, 54.46}, s.BBox)
	assert.Equal(t, markers, g.Markers())
}

func TestOverlayGroupResolvesOnce(t *testing.T) {
	g := newOverlayGroup(Feed{Overlay: "plates", Kind: KindPlates})
	require.NoError(t, g.fail(errors.New("boom"), testTime))

	assert.Error(t, g.addBoundaries(nil, testTime))
	assert.Error(t, g.fail(errors.New("again"), testTime))

	s := g.Summary()
	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, "boom", s.Error)
	assert.Zero(t, s.Count)
}

func TestOverlayGroupCopiesAreIndependent(t *testing.T) {
	g := newOverlayGroup(Feed{Overlay: "earthquakes", Kind: KindQuakes})
	require.NoError(t, g.addMarkers([]Marker{{ID: "a"}}, testTime))

	got := g.Markers()
	got[0].ID = "changed"
	assert.Equal(t, "a", g.Markers()[0].ID)
}

func TestOverlayGroupGeoJSON(t *testing.T) {
	g := newOverlayGroup(Feed{Overlay: "plates", Kind: KindPlates})
	boundaries, _ := RenderPlates(mustParse(t, plateFeed))
	require.NoError(t, g.addBoundaries(boundaries, testTime))

	fc := g.GeoJSON()
	require.Len(t, fc.Features, 2)
	f := fc.Features[0]
	assert.IsType(t, orb.LineString{}, f.Geometry)
	assert.Equal(t, "X", f.Properties["Name"])
	assert.Contains(t, f.Properties["popup"], "PlateB: B")
	assert.NotNil(t, f.Properties["style"])

	data, err := fc.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"color":"#e85151"`)
}

func TestOverlayGroupConcurrentReads(t *testing.T) {
	g := newOverlayGroup(Feed{Overlay: "earthquakes", Kind: KindQuakes})
	markers, _ := RenderQuakes(mustParse(t, quakeCollection(200)))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				_ = g.Summary()
				_ = g.GeoJSON()
			}
		}()
	}
	require.NoError(t, g.addMarkers(markers, testTime))
	wg.Wait()
	assert.Equal(t, 200, g.Summary().Count)
}
