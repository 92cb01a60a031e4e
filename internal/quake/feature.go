package quake

import (
	"math"

	"github.com/paulmach/orb/geojson"
)

// Magnitude reads the "mag" property. It returns nil when the property is
// absent, null or not a finite number.
func Magnitude(props geojson.Properties) *float64 {
	v, ok := props["mag"].(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Place reads the "place" property, or "" when missing.
func Place(props geojson.Properties) string {
	return props.MustString("place", "")
}

// Plate holds the properties of a plate boundary feature.
type Plate struct {
	Name   string
	PlateA string
	PlateB string
}

// PlateOf reads the Name, PlateA and PlateB properties.
func PlateOf(props geojson.Properties) Plate {
	return Plate{
		Name:   props.MustString("Name", ""),
		PlateA: props.MustString("PlateA", ""),
		PlateB: props.MustString("PlateB", ""),
	}
}
