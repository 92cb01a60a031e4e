// Package service holds the map canvas: its base layers, its overlay groups
// and the feed loading that populates them.
package service

import (
	"time"

	"github.com/joeblew999/plat-quake/internal/quake"
)

// Viewport is the initial map view.
type Viewport struct {
	Center [2]float64 `json:"center" doc:"Initial center as [lat, lon]" example:"[39.5,-98.5]"`
	Zoom   int        `json:"zoom" minimum:"0" maximum:"18" doc:"Initial zoom level" example:"3"`
}

// BaseLayer is one of the mutually exclusive tile sources.
type BaseLayer struct {
	ID          string `json:"id" doc:"Base layer identifier" example:"streets"`
	Name        string `json:"name" doc:"Display name in the layer switcher" example:"Streets"`
	StyleID     string `json:"styleId" doc:"Mapbox style id" example:"mapbox/streets-v11"`
	URL         string `json:"url" doc:"Tile URL template" example:"https://api.mapbox.com/styles/v1/{id}/tiles/{z}/{x}/{y}?access_token={accessToken}"`
	Attribution string `json:"attribution" doc:"Attribution HTML"`
	MaxZoom     int    `json:"maxZoom" doc:"Maximum zoom level" example:"18"`
	Default     bool   `json:"default" doc:"Whether this layer is selected on load"`
}

// FeedKind tells the render pipeline how to draw a feed's features.
type FeedKind string

const (
	KindQuakes FeedKind = "quakes"
	KindPlates FeedKind = "plates"
)

// Feed is a remote feature collection bound to one overlay group.
type Feed struct {
	Overlay string   `json:"overlay" doc:"Overlay group id" example:"earthquakes"`
	Name    string   `json:"name" doc:"Overlay display name" example:"Earthquakes"`
	URL     string   `json:"url" doc:"GeoJSON endpoint"`
	Kind    FeedKind `json:"kind" enum:"quakes,plates" doc:"How features are rendered"`
}

// OverlayStatus is the one-shot load state of an overlay group.
type OverlayStatus string

const (
	StatusPending OverlayStatus = "pending"
	StatusLoaded  OverlayStatus = "loaded"
	StatusFailed  OverlayStatus = "failed"
)

// OverlaySummary describes an overlay group without its features.
type OverlaySummary struct {
	ID       string        `json:"id" doc:"Overlay group id" example:"major"`
	Name     string        `json:"name" doc:"Display name" example:"Major Earthquakes"`
	Kind     FeedKind      `json:"kind" doc:"Feature kind"`
	Status   OverlayStatus `json:"status" enum:"pending,loaded,failed" doc:"Load status"`
	Count    int           `json:"count" doc:"Number of rendered features"`
	Error    string        `json:"error,omitempty" doc:"Why the feed failed to load"`
	LoadedAt *time.Time    `json:"loadedAt,omitempty" doc:"When the group was populated or failed"`
	Visible  bool          `json:"visible" doc:"Whether the group is shown on load"`
	BBox     []float64     `json:"bbox,omitempty" doc:"Bounds of the features as [minLon, minLat, maxLon, maxLat]"`
}

// Marker is a rendered earthquake.
type Marker struct {
	ID        string      `json:"id" doc:"Feed feature id" example:"us7000abcd"`
	Lat       float64     `json:"lat" doc:"Latitude"`
	Lon       float64     `json:"lon" doc:"Longitude"`
	Magnitude *float64    `json:"mag" doc:"Magnitude as published, null when missing"`
	Place     string      `json:"place" doc:"Location description"`
	Popup     string      `json:"popup" doc:"Popup HTML"`
	Style     quake.Style `json:"style" doc:"Circle marker style"`
}

// Notice is a user-visible message, typically a feed failure.
type Notice struct {
	ID      string    `json:"id" doc:"Notice id"`
	Level   string    `json:"level" enum:"info,warn,error" doc:"Severity"`
	Overlay string    `json:"overlay,omitempty" doc:"Overlay group the notice is about"`
	Message string    `json:"message" doc:"Notice text"`
	At      time.Time `json:"at" doc:"When the notice was raised"`
}
