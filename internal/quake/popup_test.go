package quake

import (
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
)

func TestQuakePopup(t *testing.T) {
	got := QuakePopup(ptr(4.6), "12 km SSW of Ridgecrest, CA")
	assert.Equal(t, "<h2>Earthquake Magnitude: 4.6</h2><hr><h3>Location: 12 km SSW of Ridgecrest, CA</h3>", got)
}

func TestQuakePopupMissingValues(t *testing.T) {
	got := QuakePopup(nil, "")
	assert.Contains(t, got, "Magnitude: unknown")
	assert.Contains(t, got, "Location: unknown")
}

func TestQuakePopupEscapesMarkup(t *testing.T) {
	got := QuakePopup(ptr(1), `<script>alert(1)</script>`)
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "&lt;script&gt;")
}

func TestQuakePopupEscapesPlaceText(t *testing.T) {
	got := QuakePopup(ptr(2), `Trinidad & Tobago "offshore"`)
	assert.Contains(t, got, "Location: Trinidad &amp; Tobago &#34;offshore&#34;")
}

func TestPlatePopup(t *testing.T) {
	got := PlatePopup(Plate{Name: "X", PlateA: "A", PlateB: "B"})
	assert.Contains(t, got, "Tectonic Plate Boundary: X")
	assert.Contains(t, got, "PlateA: A")
	assert.Contains(t, got, "PlateB: B")
}

func TestFormatMagnitude(t *testing.T) {
	assert.Equal(t, "5.2", FormatMagnitude(ptr(5.2)))
	assert.Equal(t, "0", FormatMagnitude(ptr(0)))
	assert.Equal(t, "-0.35", FormatMagnitude(ptr(-0.35)))
	assert.Equal(t, "1.87", FormatMagnitude(ptr(1.87)))
	assert.Equal(t, "unknown", FormatMagnitude(nil))
}

func TestMagnitude(t *testing.T) {
	assert.Equal(t, 2.3, *Magnitude(geojson.Properties{"mag": 2.3}))
	assert.Nil(t, Magnitude(geojson.Properties{}))
	assert.Nil(t, Magnitude(geojson.Properties{"mag": nil}))
	assert.Nil(t, Magnitude(geojson.Properties{"mag": "4.0"}))
}

func TestPlateOf(t *testing.T) {
	p := PlateOf(geojson.Properties{"Name": "AF-AN", "PlateA": "AF", "PlateB": "AN", "LAYER": "plate"})
	assert.Equal(t, Plate{Name: "AF-AN", PlateA: "AF", PlateB: "AN"}, p)
	assert.Equal(t, Plate{}, PlateOf(geojson.Properties{"Name": 3}))
}
