package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// OverlayGroup is a toggleable set of rendered features. It is populated
// at most once, by the task that fetched its feed; features are never
// removed afterwards.
type OverlayGroup struct {
	feed    Feed
	visible bool

	mu         sync.RWMutex
	status     OverlayStatus
	markers    []Marker
	boundaries []Boundary
	bound      *orb.Bound
	err        string
	resolvedAt time.Time
}

func newOverlayGroup(feed Feed) *OverlayGroup {
	return &OverlayGroup{
		feed:    feed,
		visible: true,
		status:  StatusPending,
	}
}

// ID returns the overlay group id.
func (g *OverlayGroup) ID() string { return g.feed.Overlay }

// Kind returns what the group draws.
func (g *OverlayGroup) Kind() FeedKind { return g.feed.Kind }

// Summary returns the group's current state.
func (g *OverlayGroup) Summary() OverlaySummary {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := OverlaySummary{
		ID:      g.feed.Overlay,
		Name:    g.feed.Name,
		Kind:    g.feed.Kind,
		Status:  g.status,
		Count:   len(g.markers) + len(g.boundaries),
		Error:   g.err,
		Visible: g.visible,
	}
	if !g.resolvedAt.IsZero() {
		at := g.resolvedAt
		s.LoadedAt = &at
	}
	if g.bound != nil {
		s.BBox = []float64{g.bound.Min.Lon(), g.bound.Min.Lat(), g.bound.Max.Lon(), g.bound.Max.Lat()}
	}
	return s
}

// Markers returns a copy of the rendered earthquake markers.
func (g *OverlayGroup) Markers() []Marker {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Marker(nil), g.markers...)
}

// Boundaries returns a copy of the rendered plate boundaries.
func (g *OverlayGroup) Boundaries() []Boundary {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Boundary(nil), g.boundaries...)
}

// GeoJSON returns the rendered group as a feature collection whose
// properties carry the popup and style of each feature.
func (g *OverlayGroup) GeoJSON() *geojson.FeatureCollection {
	g.mu.RLock()
	defer g.mu.RUnlock()

	fc := geojson.NewFeatureCollection()
	for _, m := range g.markers {
		f := geojson.NewFeature(orb.Point{m.Lon, m.Lat})
		f.ID = m.ID
		f.Properties["mag"] = m.Magnitude
		f.Properties["place"] = m.Place
		f.Properties["popup"] = m.Popup
		f.Properties["style"] = m.Style
		fc.Append(f)
	}
	for _, b := range g.boundaries {
		f := geojson.NewFeature(b.Geometry)
		f.Properties["Name"] = b.Name
		f.Properties["PlateA"] = b.PlateA
		f.Properties["PlateB"] = b.PlateB
		f.Properties["popup"] = b.Popup
		f.Properties["style"] = b.Style
		fc.Append(f)
	}
	return fc
}

func (g *OverlayGroup) addMarkers(markers []Marker, at time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.resolveLocked(at); err != nil {
		return err
	}
	g.markers = append(g.markers, markers...)
	for _, m := range markers {
		g.extendLocked(orb.Point{m.Lon, m.Lat}.Bound())
	}
	return nil
}

func (g *OverlayGroup) addBoundaries(boundaries []Boundary, at time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.resolveLocked(at); err != nil {
		return err
	}
	g.boundaries = append(g.boundaries, boundaries...)
	for _, b := range boundaries {
		g.extendLocked(b.Geometry.Bound())
	}
	return nil
}

func (g *OverlayGroup) fail(cause error, at time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusPending {
		return fmt.Errorf("overlay %q already %s", g.feed.Overlay, g.status)
	}
	g.status = StatusFailed
	g.err = cause.Error()
	g.resolvedAt = at
	return nil
}

func (g *OverlayGroup) resolveLocked(at time.Time) error {
	if g.status != StatusPending {
		return fmt.Errorf("overlay %q already %s", g.feed.Overlay, g.status)
	}
	g.status = StatusLoaded
	g.resolvedAt = at
	return nil
}

func (g *OverlayGroup) extendLocked(b orb.Bound) {
	if g.bound == nil {
		g.bound = &b
		return
	}
	u := g.bound.Union(b)
	g.bound = &u
}
