// Package validate provides the default structural validator for style
// documents. It enforces the invariants the engine relies on (unique layer
// IDs, resolvable source references) plus basic spec conformance. It is the
// stock implementation of the core.Validator port; richer validators can be
// injected in its place.
package validate

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/aretw0/atlas/pkg/core"
)

var layerTypes = map[string]bool{
	"background":     true,
	"fill":           true,
	"line":           true,
	"symbol":         true,
	"circle":         true,
	"heatmap":        true,
	"fill-extrusion": true,
	"raster":         true,
	"hillshade":      true,
}

var sourceTypes = map[string]bool{
	"vector":     true,
	"raster":     true,
	"raster-dem": true,
	"geojson":    true,
	"image":      true,
	"video":      true,
}

// layer types that render data and therefore need a source reference.
var sourcedLayerTypes = map[string]bool{
	"fill":           true,
	"line":           true,
	"symbol":         true,
	"circle":         true,
	"heatmap":        true,
	"fill-extrusion": true,
	"raster":         true,
	"hillshade":      true,
}

// Validator is the stock structural validator.
type Validator struct {
	maxErrors int
}

// New creates a validator with default limits.
func New() *Validator {
	return &Validator{maxErrors: 100}
}

// WithMaxErrors caps the number of collected errors (0 = unlimited).
func (v *Validator) WithMaxErrors(max int) *Validator {
	v.maxErrors = max
	return v
}

// Validate checks the candidate and returns all violations found.
// A nil result means the candidate is acceptable.
func (v *Validator) Validate(s *core.Style, specVersion int) []core.ValidationError {
	c := &collector{max: v.maxErrors}

	if s == nil {
		c.add(jp.R(), "style is nil")
		return c.errs
	}

	if s.Version != specVersion {
		c.add(jp.R().C("version"),
			fmt.Sprintf("unsupported version %d, expected %d", s.Version, specVersion))
	}

	v.validateSources(s, c)
	v.validateLayers(s, c)
	return c.errs
}

func (v *Validator) validateSources(s *core.Style, c *collector) {
	for name, src := range s.Sources {
		path := jp.R().C("sources").C(name)
		if src.Type == "" {
			c.add(path.C("type"), "source is missing a type")
			continue
		}
		if !sourceTypes[src.Type] {
			c.add(path.C("type"), fmt.Sprintf("unknown source type %q", src.Type))
		}
		switch src.Type {
		case "vector", "raster", "raster-dem":
			if src.URL == "" && len(src.Tiles) == 0 {
				c.add(path, "source needs a url or a tiles list")
			}
			for i, t := range src.Tiles {
				if !validTileURL(t) {
					c.add(path.C("tiles").N(i), fmt.Sprintf("malformed tile url %q", t))
				}
			}
		}
	}
}

func (v *Validator) validateLayers(s *core.Style, c *collector) {
	seen := make(map[string]int, len(s.Layers))
	for i, l := range s.Layers {
		path := jp.R().C("layers").N(i)

		if l.ID == "" {
			c.add(path.C("id"), "layer is missing an id")
		} else if first, dup := seen[l.ID]; dup {
			c.add(path.C("id"),
				fmt.Sprintf("duplicate layer id %q, first used by layers[%d]", l.ID, first))
		} else {
			seen[l.ID] = i
		}

		if l.Type == "" {
			c.add(path.C("type"), "layer is missing a type")
			continue
		}
		if !layerTypes[l.Type] {
			c.add(path.C("type"), fmt.Sprintf("unknown layer type %q", l.Type))
			continue
		}

		if sourcedLayerTypes[l.Type] {
			if l.Source == "" {
				c.add(path.C("source"),
					fmt.Sprintf("layer of type %q needs a source", l.Type))
			} else if src, ok := s.Sources[l.Source]; !ok {
				c.add(path.C("source"),
					fmt.Sprintf("layer references undeclared source %q", l.Source))
			} else if src.Type == "vector" && l.SourceLayer == "" {
				c.add(path.C("source-layer"),
					"layer on a vector source needs a source-layer")
			}
		}

		if l.MinZoom != 0 && l.MaxZoom != 0 && l.MinZoom > l.MaxZoom {
			c.add(path.C("minzoom"), "minzoom is greater than maxzoom")
		}
	}
}

func validTileURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// collector accumulates errors up to a cap.
type collector struct {
	errs []core.ValidationError
	max  int
}

func (c *collector) add(path jp.Expr, msg string) {
	if c.max > 0 && len(c.errs) >= c.max {
		return
	}
	c.errs = append(c.errs, core.ValidationError{Message: msg, Path: path.String()})
}
