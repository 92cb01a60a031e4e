package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/joeblew999/plat-quake/internal/observability"
	"github.com/joeblew999/plat-quake/internal/quake"
)

const (
	mapboxTileURL     = "https://api.mapbox.com/styles/v1/{id}/tiles/{z}/{x}/{y}?access_token={accessToken}"
	mapboxAttribution = `Map data &copy; <a href="https://www.openstreetmap.org/">OpenStreetMap</a> contributors, ` +
		`<a href="https://creativecommons.org/licenses/by-sa/2.0/">CC-BY-SA</a>, ` +
		`Imagery &copy; <a href="https://www.mapbox.com/">Mapbox</a>`
	mapboxMaxZoom = 18
)

// Notice levels.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// CanvasConfig describes the map before any feed is loaded.
type CanvasConfig struct {
	Viewport    Viewport
	BaseLayers  []BaseLayer
	Feeds       []Feed
	MapboxToken string
}

// DefaultCanvasConfig returns the continental US view, the three Mapbox
// base layers and the three default feeds.
func DefaultCanvasConfig() CanvasConfig {
	return CanvasConfig{
		Viewport: Viewport{Center: [2]float64{39.5, -98.5}, Zoom: 3},
		BaseLayers: []BaseLayer{
			mapboxLayer("streets", "Streets", "mapbox/streets-v11", true),
			mapboxLayer("satellite", "Satellite", "mapbox/satellite-streets-v11", false),
			mapboxLayer("light", "Light", "mapbox/light-v10", false),
		},
		Feeds: DefaultFeeds(),
	}
}

func mapboxLayer(id, name, styleID string, def bool) BaseLayer {
	return BaseLayer{
		ID:          id,
		Name:        name,
		StyleID:     styleID,
		URL:         mapboxTileURL,
		Attribution: mapboxAttribution,
		MaxZoom:     mapboxMaxZoom,
		Default:     def,
	}
}

// Snapshotter receives every populated overlay group.
type Snapshotter interface {
	InsertMarkers(ctx context.Context, overlay string, markers []Marker) error
	InsertBoundaries(ctx context.Context, overlay string, boundaries []Boundary) error
}

// CanvasDeps are the collaborators of a Canvas. Snapshot may be nil.
type CanvasDeps struct {
	Fetcher  Fetcher
	Snapshot Snapshotter
	Clock    clockwork.Clock
	Logger   logrus.FieldLogger
	Metrics  *observability.Metrics
}

// Canvas is the application context of the map: it owns the viewport, the
// base layers, the overlay groups and the legend, and is handed to the
// loader and to every HTTP handler.
type Canvas struct {
	cfg      CanvasConfig
	overlays []*OverlayGroup
	byID     map[string]*OverlayGroup
	legend   []quake.LegendEntry

	fetcher  Fetcher
	snapshot Snapshotter
	bus      *EventBus
	clock    clockwork.Clock
	logger   logrus.FieldLogger
	metrics  *observability.Metrics

	noticesMu sync.RWMutex
	notices   []Notice
}

// NewCanvas validates cfg and creates a canvas with empty overlay groups.
func NewCanvas(cfg CanvasConfig, deps CanvasDeps) (*Canvas, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("canvas needs a fetcher")
	}
	if len(cfg.BaseLayers) == 0 {
		return nil, errors.New("canvas needs at least one base layer")
	}
	cfg.BaseLayers = append([]BaseLayer(nil), cfg.BaseLayers...)
	if err := normalizeDefault(cfg.BaseLayers); err != nil {
		return nil, err
	}

	c := &Canvas{
		cfg:      cfg,
		byID:     make(map[string]*OverlayGroup, len(cfg.Feeds)),
		legend:   quake.Legend(),
		fetcher:  deps.Fetcher,
		snapshot: deps.Snapshot,
		bus:      NewEventBus(),
		clock:    deps.Clock,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	if c.metrics == nil {
		c.metrics = observability.NewMetricsForTesting()
	}
	c.logger = c.logger.WithField("component", "canvas")

	for _, feed := range cfg.Feeds {
		if feed.Overlay == "" {
			return nil, errors.Errorf("feed %q has no overlay id", feed.URL)
		}
		if _, dup := c.byID[feed.Overlay]; dup {
			return nil, errors.Errorf("duplicate overlay %q", feed.Overlay)
		}
		if feed.Kind != KindQuakes && feed.Kind != KindPlates {
			return nil, errors.Errorf("overlay %q has unknown kind %q", feed.Overlay, feed.Kind)
		}
		g := newOverlayGroup(feed)
		c.overlays = append(c.overlays, g)
		c.byID[feed.Overlay] = g
	}

	if cfg.MapboxToken == "" {
		c.Notify(LevelWarn, "", "No Mapbox access token configured; base map tiles will not load.")
	}
	return c, nil
}

// normalizeDefault makes exactly one base layer the default: the first one
// flagged, or the first layer when none is.
func normalizeDefault(layers []BaseLayer) error {
	def := -1
	for i, l := range layers {
		if l.ID == "" {
			return errors.Errorf("base layer %d has no id", i)
		}
		if l.Default && def < 0 {
			def = i
		}
	}
	if def < 0 {
		def = 0
	}
	for i := range layers {
		layers[i].Default = i == def
	}
	return nil
}

// Load fetches every feed concurrently and populates the overlay groups.
// A failing feed leaves its own group failed and empty; it never cancels
// or delays the others. Load returns once every feed has resolved.
func (c *Canvas) Load(ctx context.Context) {
	var g errgroup.Group
	for _, group := range c.overlays {
		g.Go(func() error {
			c.loadGroup(ctx, group)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Canvas) loadGroup(ctx context.Context, group *OverlayGroup) {
	feed := group.feed
	logger := c.logger.WithFields(logrus.Fields{"overlay": feed.Overlay, "url": feed.URL})

	start := time.Now()
	fc, err := c.fetcher.Fetch(ctx, feed)
	c.metrics.FeedDuration.WithLabelValues(feed.Overlay).Observe(time.Since(start).Seconds())
	if err != nil {
		c.failGroup(group, err, logger)
		return
	}

	var (
		count   int
		skipped int
	)
	switch feed.Kind {
	case KindPlates:
		var boundaries []Boundary
		boundaries, skipped = RenderPlates(fc)
		count = len(boundaries)
		err = group.addBoundaries(boundaries, c.clock.Now())
		if err == nil && c.snapshot != nil {
			if serr := c.snapshot.InsertBoundaries(ctx, feed.Overlay, boundaries); serr != nil {
				logger.WithError(serr).Warn("snapshot insert failed")
			}
		}
	default:
		var markers []Marker
		markers, skipped = RenderQuakes(fc)
		count = len(markers)
		err = group.addMarkers(markers, c.clock.Now())
		if err == nil && c.snapshot != nil {
			if serr := c.snapshot.InsertMarkers(ctx, feed.Overlay, markers); serr != nil {
				logger.WithError(serr).Warn("snapshot insert failed")
			}
		}
	}
	if err != nil {
		logger.WithError(err).Error("overlay already resolved")
		return
	}

	c.metrics.FeedFetches.WithLabelValues(feed.Overlay, "success").Inc()
	c.metrics.OverlayFeatures.WithLabelValues(feed.Overlay).Set(float64(count))
	if skipped > 0 {
		c.metrics.FeaturesSkipped.WithLabelValues(feed.Overlay).Add(float64(skipped))
		logger.WithField("skipped", skipped).Warn("features without drawable geometry skipped")
	}
	logger.WithField("features", count).Info("overlay loaded")
	c.bus.Publish(Event{Resource: "overlays", Action: string(StatusLoaded), ID: feed.Overlay})
}

func (c *Canvas) failGroup(group *OverlayGroup, err error, logger logrus.FieldLogger) {
	c.metrics.FeedFetches.WithLabelValues(group.ID(), "error").Inc()
	logger.WithError(err).Error("overlay failed to load")

	if ferr := group.fail(err, c.clock.Now()); ferr != nil {
		logger.WithError(ferr).Error("overlay already resolved")
		return
	}
	c.bus.Publish(Event{Resource: "overlays", Action: string(StatusFailed), ID: group.ID()})
	c.Notify(LevelError, group.ID(), fmt.Sprintf("%s could not be loaded: %v", group.feed.Name, err))
}

// Notify records a user-visible notice and publishes it to live pages.
func (c *Canvas) Notify(level, overlay, message string) Notice {
	n := Notice{
		ID:      uuid.New().String(),
		Level:   level,
		Overlay: overlay,
		Message: message,
		At:      c.clock.Now(),
	}
	c.noticesMu.Lock()
	c.notices = append(c.notices, n)
	c.noticesMu.Unlock()

	c.metrics.NoticesPublished.WithLabelValues(level).Inc()
	c.bus.Publish(Event{Resource: "notices", Action: "created", ID: n.ID})
	return n
}

// Notices returns every notice raised so far, oldest first.
func (c *Canvas) Notices() []Notice {
	c.noticesMu.RLock()
	defer c.noticesMu.RUnlock()
	return append([]Notice(nil), c.notices...)
}

// Notice returns a notice by id.
func (c *Canvas) Notice(id string) (Notice, bool) {
	c.noticesMu.RLock()
	defer c.noticesMu.RUnlock()
	for _, n := range c.notices {
		if n.ID == id {
			return n, true
		}
	}
	return Notice{}, false
}

// Overlay returns an overlay group by id.
func (c *Canvas) Overlay(id string) (*OverlayGroup, bool) {
	g, ok := c.byID[id]
	return g, ok
}

// Overlays returns a summary of every overlay group in panel order.
func (c *Canvas) Overlays() []OverlaySummary {
	out := make([]OverlaySummary, 0, len(c.overlays))
	for _, g := range c.overlays {
		out = append(out, g.Summary())
	}
	return out
}

// Loaded reports whether every overlay group has resolved.
func (c *Canvas) Loaded() bool {
	for _, g := range c.overlays {
		if g.Summary().Status == StatusPending {
			return false
		}
	}
	return true
}

// Viewport returns the initial map view.
func (c *Canvas) Viewport() Viewport { return c.cfg.Viewport }

// BaseLayers returns the base layer set.
func (c *Canvas) BaseLayers() []BaseLayer {
	return append([]BaseLayer(nil), c.cfg.BaseLayers...)
}

// MapboxToken returns the tile provider access token.
func (c *Canvas) MapboxToken() string { return c.cfg.MapboxToken }

// Legend returns the magnitude legend.
func (c *Canvas) Legend() []quake.LegendEntry {
	return append([]quake.LegendEntry(nil), c.legend...)
}

// Events returns the canvas event bus.
func (c *Canvas) Events() *EventBus { return c.bus }
