package quake

import "strconv"

// LegendPosition is the Leaflet control corner the legend is drawn in.
const LegendPosition = "bottomright"

// LegendEntry is one magnitude band of the legend.
type LegendEntry struct {
	Label string  `json:"label" doc:"Magnitude band label" example:"3-4"`
	Color string  `json:"color" doc:"Band color (CSS)" example:"#ee9c00"`
	Min   float64 `json:"min" doc:"Lower bound of the band" example:"3"`
}

var legendBounds = []int{0, 1, 2, 3, 4, 5}

// Legend returns the six fixed magnitude bands, lowest first. Each band is
// colored with the bucket its midpoint falls in.
func Legend() []LegendEntry {
	entries := make([]LegendEntry, 0, len(legendBounds))
	for i, b := range legendBounds {
		label := strconv.Itoa(b) + "+"
		if i+1 < len(legendBounds) {
			label = strconv.Itoa(b) + "-" + strconv.Itoa(legendBounds[i+1])
		}
		entries = append(entries, LegendEntry{
			Label: label,
			Color: Color(float64(b + 1)),
			Min:   float64(b),
		})
	}
	return entries
}
