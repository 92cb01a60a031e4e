// Package quake turns earthquake and plate-boundary features into what the
// map draws: marker styles, popup text and the magnitude legend.
package quake

import "math"

// Palette colors, from the most to the least alarming magnitude bucket.
const (
	ColorAbove5 = "#ea2c2c"
	ColorAbove4 = "#ea822c"
	ColorAbove3 = "#ee9c00"
	ColorAbove2 = "#eecc00"
	ColorAbove1 = "#d4ee00"
	ColorMinor  = "#98ee00"
)

// Palette lists the six marker colors in descending alarm order.
var Palette = []string{ColorAbove5, ColorAbove4, ColorAbove3, ColorAbove2, ColorAbove1, ColorMinor}

const (
	markerStroke      = "#000000"
	markerStrokeWidth = 0.5
	boundaryStroke    = "#e85151"
	boundaryWidth     = 2.7
)

// Style is the path style Leaflet applies to a rendered feature. JSON names
// follow Leaflet's path options so the page can pass it through unchanged.
type Style struct {
	FillColor    string  `json:"fillColor,omitempty" doc:"Fill color (CSS)" example:"#ea2c2c"`
	Radius       float64 `json:"radius,omitempty" doc:"Circle marker radius in pixels" example:"20.8"`
	StrokeColor  string  `json:"color" doc:"Stroke color (CSS)" example:"#000000"`
	StrokeWeight float64 `json:"weight" doc:"Stroke width in pixels" example:"0.5"`
	Stroke       bool    `json:"stroke" doc:"Whether the outline is drawn"`
	Opacity      float64 `json:"opacity" minimum:"0" maximum:"1" doc:"Stroke opacity (0-1)"`
	FillOpacity  float64 `json:"fillOpacity,omitempty" minimum:"0" maximum:"1" doc:"Fill opacity (0-1)"`
}

// Color maps a magnitude to its palette bucket.
func Color(magnitude float64) string {
	switch {
	case magnitude > 5:
		return ColorAbove5
	case magnitude > 4:
		return ColorAbove4
	case magnitude > 3:
		return ColorAbove3
	case magnitude > 2:
		return ColorAbove2
	case magnitude > 1:
		return ColorAbove1
	}
	return ColorMinor
}

// Radius returns the marker radius for a magnitude. Zero, negative and
// non-finite magnitudes are drawn with radius 1 so every quake stays visible.
func Radius(magnitude float64) float64 {
	if !finite(magnitude) || magnitude <= 0 {
		return 1
	}
	return magnitude * 4
}

// Resolve builds the marker style for a magnitude. A nil, NaN or infinite
// magnitude is treated as 0.
func Resolve(magnitude *float64) Style {
	m := valueOf(magnitude)
	return Style{
		FillColor:    Color(m),
		Radius:       Radius(m),
		StrokeColor:  markerStroke,
		StrokeWeight: markerStrokeWidth,
		Stroke:       true,
		Opacity:      1,
		FillOpacity:  1,
	}
}

// BoundaryStyle is the line style shared by every plate boundary.
func BoundaryStyle() Style {
	return Style{
		StrokeColor:  boundaryStroke,
		StrokeWeight: boundaryWidth,
		Stroke:       true,
		Opacity:      1,
	}
}

func valueOf(magnitude *float64) float64 {
	if magnitude == nil || !finite(*magnitude) {
		return 0
	}
	return *magnitude
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
