package service

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-quake/internal/quake"
)

// Boundary is a rendered plate boundary.
type Boundary struct {
	Name     string       `json:"name" doc:"Boundary name" example:"AF-AN"`
	PlateA   string       `json:"plateA" doc:"First plate code" example:"AF"`
	PlateB   string       `json:"plateB" doc:"Second plate code" example:"AN"`
	Geometry orb.Geometry `json:"-"`
	Vertices int          `json:"vertices" doc:"Number of vertices in the boundary geometry"`
	LengthKm float64      `json:"lengthKm" doc:"Great-circle length in kilometers"`
	Popup    string       `json:"popup" doc:"Popup HTML"`
	Style    quake.Style  `json:"style" doc:"Line style"`
}

// RenderQuakes turns an earthquake feed into circle markers. Features
// without a point geometry cannot be placed and are counted as skipped.
func RenderQuakes(fc *geojson.FeatureCollection) (markers []Marker, skipped int) {
	markers = make([]Marker, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil {
			skipped++
			continue
		}
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			skipped++
			continue
		}
		mag := quake.Magnitude(f.Properties)
		place := quake.Place(f.Properties)
		markers = append(markers, Marker{
			ID:        featureID(f, i),
			Lat:       p.Lat(),
			Lon:       p.Lon(),
			Magnitude: mag,
			Place:     place,
			Popup:     quake.QuakePopup(mag, place),
			Style:     quake.Resolve(mag),
		})
	}
	return markers, skipped
}

// RenderPlates turns a plate boundary feed into styled lines. Features
// with no geometry are counted as skipped.
func RenderPlates(fc *geojson.FeatureCollection) (boundaries []Boundary, skipped int) {
	boundaries = make([]Boundary, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			skipped++
			continue
		}
		plate := quake.PlateOf(f.Properties)
		boundaries = append(boundaries, Boundary{
			Name:     plate.Name,
			PlateA:   plate.PlateA,
			PlateB:   plate.PlateB,
			Geometry: f.Geometry,
			Vertices: vertexCount(f.Geometry),
			LengthKm: geo.Length(f.Geometry) / 1000,
			Popup:    quake.PlatePopup(plate),
			Style:    quake.BoundaryStyle(),
		})
	}
	return boundaries, skipped
}

func featureID(f *geojson.Feature, index int) string {
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	return fmt.Sprintf("feature-%d", index)
}

func vertexCount(g orb.Geometry) int {
	switch g := g.(type) {
	case orb.Point:
		return 1
	case orb.MultiPoint:
		return len(g)
	case orb.LineString:
		return len(g)
	case orb.MultiLineString:
		n := 0
		for _, ls := range g {
			n += len(ls)
		}
		return n
	case orb.Ring:
		return len(g)
	case orb.Polygon:
		n := 0
		for _, r := range g {
			n += len(r)
		}
		return n
	case orb.MultiPolygon:
		n := 0
		for _, p := range g {
			n += vertexCount(p)
		}
		return n
	case orb.Collection:
		n := 0
		for _, c := range g {
			n += vertexCount(c)
		}
		return n
	}
	return 0
}
