// Package config reads the optional YAML map file that overrides the
// default viewport, base layer styles and feed endpoints.
package config

import (
	"net/url"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-quake/internal/service"
)

// File is the YAML map file.
//
//	viewport:
//	  center: [39.5, -98.5]
//	  zoom: 3
//	baseLayers:
//	  satellite: mapbox/satellite-v9
//	feeds:
//	  earthquakes: https://mirror.example/all_week.geojson
type File struct {
	Viewport   *ViewportFile     `yaml:"viewport"`
	BaseLayers map[string]string `yaml:"baseLayers"` // base layer id -> Mapbox style id
	Feeds      map[string]string `yaml:"feeds"`      // overlay id -> URL
}

// ViewportFile overrides the initial view.
type ViewportFile struct {
	Center []float64 `yaml:"center"`
	Zoom   *int      `yaml:"zoom"`
}

// Load reads and parses the map file at path.
func Load(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read map file %s", path)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse map file %s", path)
	}
	return &f, nil
}

// Apply overlays the file onto cfg. Unknown base layer or overlay ids and
// invalid values are errors.
func (f *File) Apply(cfg *service.CanvasConfig) error {
	if v := f.Viewport; v != nil {
		if v.Center != nil {
			if len(v.Center) != 2 {
				return errors.New("viewport.center must be [lat, lon]")
			}
			lat, lon := v.Center[0], v.Center[1]
			if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
				return errors.Errorf("viewport.center %v is out of range", v.Center)
			}
			cfg.Viewport.Center = [2]float64{lat, lon}
		}
		if v.Zoom != nil {
			if *v.Zoom < 0 || *v.Zoom > 18 {
				return errors.Errorf("viewport.zoom %d must be between 0 and 18", *v.Zoom)
			}
			cfg.Viewport.Zoom = *v.Zoom
		}
	}

	for id, style := range f.BaseLayers {
		i := indexOfLayer(cfg.BaseLayers, id)
		if i < 0 {
			return errors.Errorf("unknown base layer %q", id)
		}
		if style == "" {
			return errors.Errorf("base layer %q has an empty style id", id)
		}
		cfg.BaseLayers[i].StyleID = style
	}

	for id, raw := range f.Feeds {
		i := indexOfFeed(cfg.Feeds, id)
		if i < 0 {
			return errors.Errorf("unknown overlay %q", id)
		}
		u, err := url.Parse(raw)
		if err != nil {
			return errors.Wrapf(err, "feed %q", id)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.Errorf("feed %q must be an http(s) URL, got %q", id, raw)
		}
		cfg.Feeds[i].URL = raw
	}
	return nil
}

func indexOfLayer(layers []service.BaseLayer, id string) int {
	for i, l := range layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func indexOfFeed(feeds []service.Feed, id string) int {
	for i, f := range feeds {
		if f.Overlay == id {
			return i
		}
	}
	return -1
}
