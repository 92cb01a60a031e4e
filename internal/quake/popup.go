package quake

import (
	"html"
	"strconv"
)

const unknown = "unknown"

// QuakePopup formats the popup bound to an earthquake marker. Both
// earthquake feeds use it. The place is HTML-escaped, so a place containing
// &, < or " differs from the raw feed text.
func QuakePopup(magnitude *float64, place string) string {
	return "<h2>Earthquake Magnitude: " + FormatMagnitude(magnitude) +
		"</h2><hr><h3>Location: " + text(place) + "</h3>"
}

// PlatePopup formats the popup bound to a plate boundary.
func PlatePopup(p Plate) string {
	return "<h3>Tectonic Plate Boundary: " + text(p.Name) +
		"</h3><hr><h4>PlateA: " + text(p.PlateA) +
		" &#124; PlateB: " + text(p.PlateB) + "</h4>"
}

// FormatMagnitude prints a magnitude the way the feed wrote it: the
// shortest decimal that round-trips, or "unknown" when missing.
func FormatMagnitude(magnitude *float64) string {
	if magnitude == nil {
		return unknown
	}
	return strconv.FormatFloat(*magnitude, 'f', -1, 64)
}

func text(s string) string {
	if s == "" {
		return unknown
	}
	return html.EscapeString(s)
}
