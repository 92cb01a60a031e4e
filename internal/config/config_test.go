package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-quake/internal/service"
)

func writeFile(t *testing.T, content string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/quake/map.yaml", []byte(content), 0644))
	return fs
}

func TestLoadAndApply(t *testing.T) {
	fs := writeFile(t, `
viewport:
  center: [35.7, 139.7]
  zoom: 5
baseLayers:
  satellite: mapbox/satellite-v9
feeds:
  earthquakes: https://mirror.example/all_week.geojson
`)
	f, err := Load(fs, "/etc/quake/map.yaml")
	require.NoError(t, err)

	cfg := service.DefaultCanvasConfig()
	require.NoError(t, f.Apply(&cfg))

	assert.Equal(t, [2]float64{35.7, 139.7}, cfg.Viewport.Center)
	assert.Equal(t, 5, cfg.Viewport.Zoom)
	assert.Equal(t, "mapbox/satellite-v9", cfg.BaseLayers[1].StyleID)
	assert.Equal(t, "mapbox/streets-v11", cfg.BaseLayers[0].StyleID)
	assert.Equal(t, "https://mirror.example/all_week.geojson", cfg.Feeds[1].URL)
	assert.Equal(t, service.PlatesURL, cfg.Feeds[0].URL)
}

func TestApplyEmptyFileKeepsDefaults(t *testing.T) {
	f, err := Load(writeFile(t, ""), "/etc/quake/map.yaml")
	require.NoError(t, err)

	cfg := service.DefaultCanvasConfig()
	require.NoError(t, f.Apply(&cfg))
	assert.Equal(t, service.DefaultCanvasConfig(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nope.yaml")
	assert.ErrorContains(t, err, "read map file /nope.yaml")
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeFile(t, "feeds: [unclosed"), "/etc/quake/map.yaml")
	assert.ErrorContains(t, err, "parse map file")
}

func TestApplyRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown overlay", "feeds:\n  volcanoes: https://x.example/v.json", `unknown overlay "volcanoes"`},
		{"non-http feed", "feeds:\n  major: ftp://x.example/m.json", "must be an http(s) URL"},
		{"unknown base layer", "baseLayers:\n  dark: mapbox/dark-v10", `unknown base layer "dark"`},
		{"empty style", "baseLayers:\n  light: \"\"", "empty style id"},
		{"bad center", "viewport:\n  center: [1]", "viewport.center"},
		{"center out of range", "viewport:\n  center: [95, 0]", "out of range"},
		{"bad zoom", "viewport:\n  zoom: 30", "viewport.zoom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Load(writeFile(t, tt.yaml), "/etc/quake/map.yaml")
			require.NoError(t, err)
			cfg := service.DefaultCanvasConfig()
			assert.ErrorContains(t, f.Apply(&cfg), tt.want)
		})
	}
}
