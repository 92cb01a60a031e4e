// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-quake/internal/humastar"
	"github.com/joeblew999/plat-quake/internal/quake"
	"github.com/joeblew999/plat-quake/internal/service"
)

// Version is reported by /health and /api/v1/info.
const Version = "0.1.0"

// Services holds the service dependencies for API handlers. Snapshot is
// nil when DuckDB is unavailable.
type Services struct {
	Canvas   *service.Canvas
	Snapshot *service.Snapshot
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Overlay group ID" example:"earthquakes"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
	Loaded  bool   `json:"loaded" doc:"Whether every overlay group has resolved"`
}

type LegendBody struct {
	Position string              `json:"position" doc:"Map corner the legend is drawn in" example:"bottomright"`
	Entries  []quake.LegendEntry `json:"entries" doc:"Magnitude bands, lowest first"`
}

type MapBody struct {
	Viewport    service.Viewport         `json:"viewport" doc:"Initial view"`
	BaseLayers  []service.BaseLayer      `json:"baseLayers" doc:"Mutually exclusive base layers"`
	Overlays    []service.OverlaySummary `json:"overlays" doc:"Overlay groups in panel order"`
	Legend      LegendBody               `json:"legend" doc:"Magnitude legend"`
	MapboxToken string                   `json:"mapboxToken" doc:"Tile provider access token"`
}

type StyleInput struct {
	Mag string `query:"mag" doc:"Magnitude; empty, non-numeric or non-finite means unknown" example:"4.7"`
}

type StyleBody struct {
	Magnitude *float64    `json:"mag" doc:"Magnitude the style was resolved for, null when unknown"`
	Style     quake.Style `json:"style" doc:"Circle marker style"`
}

type GeoJSONOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type MarkersInput struct {
	IDInput
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Index of the first marker"`
	Limit  int `query:"limit" minimum:"1" maximum:"1000" default:"100" doc:"Page size"`
}

type MarkersOutput struct {
	Body humastar.PageBody[service.Marker]
}

type BoundariesOutput struct {
	Body []service.Boundary
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterMap registers the map canvas routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map", h.GetMap, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/legend", h.GetLegend, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/style", h.GetStyle, huma.OperationTags("map"))
}

// RegisterOverlays registers overlay group routes.
func (h *APIHandler) RegisterOverlays(api huma.API) {
	huma.Get(api, "/api/v1/overlays", h.GetOverlays, huma.OperationTags("overlays"))
	huma.Get(api, "/api/v1/overlays/{id}", h.GetOverlay, huma.OperationTags("overlays"))
	huma.Get(api, "/api/v1/overlays/{id}/geojson", h.GetOverlayGeoJSON, huma.OperationTags("overlays"),
		func(o *huma.Operation) {
			o.Description = "The rendered group as a FeatureCollection whose properties carry popup and style."
		})
	huma.Get(api, "/api/v1/overlays/{id}/markers", h.GetOverlayMarkers, huma.OperationTags("overlays"))
	huma.Get(api, "/api/v1/overlays/{id}/boundaries", h.GetOverlayBoundaries, huma.OperationTags("overlays"))
}

// RegisterRoutes registers all Huma API routes.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
	NewInfoHandler(svc.Snapshot != nil).RegisterRoutes(api)
	NewDBHandler(svc.Snapshot).RegisterRoutes(api)
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{
		Status:  "ok",
		Version: Version,
		Loaded:  h.svc.Canvas.Loaded(),
	}}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *struct{}) (*struct{ Body MapBody }, error) {
	c := h.svc.Canvas
	return &struct{ Body MapBody }{Body: MapBody{
		Viewport:    c.Viewport(),
		BaseLayers:  c.BaseLayers(),
		Overlays:    c.Overlays(),
		Legend:      LegendBody{Position: quake.LegendPosition, Entries: c.Legend()},
		MapboxToken: c.MapboxToken(),
	}}, nil
}

func (h *APIHandler) GetLegend(ctx context.Context, input *struct{}) (*struct{ Body LegendBody }, error) {
	return &struct{ Body LegendBody }{Body: LegendBody{
		Position: quake.LegendPosition,
		Entries:  h.svc.Canvas.Legend(),
	}}, nil
}

func (h *APIHandler) GetStyle(ctx context.Context, input *StyleInput) (*struct{ Body StyleBody }, error) {
	var mag *float64
	v, err := strconv.ParseFloat(strings.TrimSpace(input.Mag), 64)
	if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		mag = &v
	}
	return &struct{ Body StyleBody }{Body: StyleBody{Magnitude: mag, Style: quake.Resolve(mag)}}, nil
}

func (h *APIHandler) GetOverlays(ctx context.Context, input *struct{}) (*struct{ Body []service.OverlaySummary }, error) {
	return &struct{ Body []service.OverlaySummary }{Body: h.svc.Canvas.Overlays()}, nil
}

func (h *APIHandler) GetOverlay(ctx context.Context, input *IDInput) (*struct{ Body service.OverlaySummary }, error) {
	g, err := h.overlay(input.ID)
	if err != nil {
		return nil, err
	}
	return &struct{ Body service.OverlaySummary }{Body: g.Summary()}, nil
}

func (h *APIHandler) GetOverlayGeoJSON(ctx context.Context, input *IDInput) (*GeoJSONOutput, error) {
	g, err := h.overlay(input.ID)
	if err != nil {
		return nil, err
	}
	data, err := g.GeoJSON().MarshalJSON()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to encode GeoJSON", err)
	}
	return &GeoJSONOutput{ContentType: "application/geo+json", Body: data}, nil
}

func (h *APIHandler) GetOverlayMarkers(ctx context.Context, input *MarkersInput) (*MarkersOutput, error) {
	g, err := h.overlay(input.ID)
	if err != nil {
		return nil, err
	}
	if g.Kind() != service.KindQuakes {
		return nil, huma.Error400BadRequest("overlay " + input.ID + " has no markers")
	}
	return &MarkersOutput{Body: humastar.NewPage(g.Markers(), input.Offset, input.Limit)}, nil
}

func (h *APIHandler) GetOverlayBoundaries(ctx context.Context, input *IDInput) (*BoundariesOutput, error) {
	g, err := h.overlay(input.ID)
	if err != nil {
		return nil, err
	}
	if g.Kind() != service.KindPlates {
		return nil, huma.Error400BadRequest("overlay " + input.ID + " has no boundaries")
	}
	return &BoundariesOutput{Body: g.Boundaries()}, nil
}

func (h *APIHandler) overlay(id string) (*service.OverlayGroup, error) {
	g, ok := h.svc.Canvas.Overlay(id)
	if !ok {
		return nil, huma.Error404NotFound("overlay not found")
	}
	return g, nil
}
