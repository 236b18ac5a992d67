// Style is the central entity of the domain.
package core

import (
	"fmt"
	"reflect"

	"github.com/ohler55/ojg/oj"
)

// CurrentSpecVersion is the style specification version this engine targets.
const CurrentSpecVersion = 8

// Metadata represents the flexible key-value pairs associated with a style.
type Metadata map[string]any

// Style is the central entity of the domain. It represents a complete
// map-rendering style document: an ordered list of layers, a keyed set of
// sources, and the catalog URLs (glyphs, sprite) they reference.
//
// A Style value is treated as an immutable snapshot. The engine never edits
// one in place; callers derive a new candidate via Clone, mutate the copy,
// and submit it through the commit path.
type Style struct {
	Version  int
	Name     string
	Metadata Metadata
	Center   []float64
	Zoom     float64
	Bearing  float64
	Pitch    float64
	Glyphs   string
	Sprite   string
	Sources  map[string]Source
	Layers   []Layer

	// Extra preserves root members the engine does not model (light,
	// terrain, projection, ...) so they survive a decode/encode round trip.
	Extra map[string]any

	// An explicit "zoom": 0 in the input must survive encode even though
	// it matches the zero value.
	hasZoom, hasBearing, hasPitch bool
}

// Layer is one rendering rule, identified by an ID unique within the style.
type Layer struct {
	ID          string
	Type        string
	Source      string
	SourceLayer string
	Filter      []any
	MinZoom     float64
	MaxZoom     float64
	Layout      map[string]any
	Paint       map[string]any
	Extra       map[string]any

	hasMinZoom, hasMaxZoom bool
}

// Source describes where a layer's data comes from.
type Source struct {
	Type        string
	URL         string
	Tiles       []string
	Attribution string
	Extra       map[string]any
}

// StyleInfo is a lightweight listing entry for a persisted style.
type StyleInfo struct {
	ID        string
	Name      string
	UpdatedAt int64 // Unix timestamp
}

// NewStyle returns a minimal valid style of the current spec version.
func NewStyle(name string) *Style {
	return &Style{
		Version: CurrentSpecVersion,
		Name:    name,
		Sources: map[string]Source{},
		Layers:  []Layer{},
	}
}

// DecodeStyle parses a JSON style document.
func DecodeStyle(data []byte) (*Style, error) {
	v, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid style json: %w", err)
	}
	root, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("style root must be an object, got %T", v)
	}
	return FromMap(root)
}

// Encode serializes the style as indented JSON.
func (s *Style) Encode() ([]byte, error) {
	return oj.Marshal(s.ToMap(), 2)
}

// FromMap builds a Style from a decoded JSON-like map. Unknown root members
// land in Extra; unknown layer/source members land in their Extra maps.
func FromMap(root map[string]any) (*Style, error) {
	s := &Style{
		Sources: map[string]Source{},
		Layers:  []Layer{},
	}
	for key, val := range root {
		switch key {
		case "version":
			s.Version = asInt(val)
		case "name":
			s.Name = asString(val)
		case "metadata":
			if m, ok := val.(map[string]any); ok {
				s.Metadata = m
			}
		case "center":
			s.Center = asFloatSlice(val)
		case "zoom":
			s.Zoom, s.hasZoom = asFloat(val), true
		case "bearing":
			s.Bearing, s.hasBearing = asFloat(val), true
		case "pitch":
			s.Pitch, s.hasPitch = asFloat(val), true
		case "glyphs":
			s.Glyphs = asString(val)
		case "sprite":
			s.Sprite = asString(val)
		case "sources":
			m, ok := val.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("sources must be an object, got %T", val)
			}
			for name, sv := range m {
				sm, ok := sv.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("source %q must be an object, got %T", name, sv)
				}
				s.Sources[name] = sourceFromMap(sm)
			}
		case "layers":
			list, ok := val.([]any)
			if !ok {
				return nil, fmt.Errorf("layers must be an array, got %T", val)
			}
			for i, lv := range list {
				lm, ok := lv.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("layers[%d] must be an object, got %T", i, lv)
				}
				s.Layers = append(s.Layers, layerFromMap(lm))
			}
		default:
			if s.Extra == nil {
				s.Extra = map[string]any{}
			}
			s.Extra[key] = val
		}
	}
	return s, nil
}

func sourceFromMap(m map[string]any) Source {
	src := Source{}
	for key, val := range m {
		switch key {
		case "type":
			src.Type = asString(val)
		case "url":
			src.URL = asString(val)
		case "tiles":
			src.Tiles = asStringSlice(val)
		case "attribution":
			src.Attribution = asString(val)
		default:
			if src.Extra == nil {
				src.Extra = map[string]any{}
			}
			src.Extra[key] = val
		}
	}
	return src
}

func layerFromMap(m map[string]any) Layer {
	l := Layer{}
	for key, val := range m {
		switch key {
		case "id":
			l.ID = asString(val)
		case "type":
			l.Type = asString(val)
		case "source":
			l.Source = asString(val)
		case "source-layer":
			l.SourceLayer = asString(val)
		case "filter":
			if f, ok := val.([]any); ok {
				l.Filter = f
			}
		case "minzoom":
			l.MinZoom, l.hasMinZoom = asFloat(val), true
		case "maxzoom":
			l.MaxZoom, l.hasMaxZoom = asFloat(val), true
		case "layout":
			if lm, ok := val.(map[string]any); ok {
				l.Layout = lm
			}
		case "paint":
			if pm, ok := val.(map[string]any); ok {
				l.Paint = pm
			}
		default:
			if l.Extra == nil {
				l.Extra = map[string]any{}
			}
			l.Extra[key] = val
		}
	}
	return l
}

// ToMap renders the style into the JSON-shaped map form. The result shares
// no mutable state with the receiver, so it is safe to hand out.
func (s *Style) ToMap() map[string]any {
	root := map[string]any{
		"version": int64(s.Version),
		"sources": map[string]any{},
		"layers":  []any{},
	}
	if s.Name != "" {
		root["name"] = s.Name
	}
	if s.Metadata != nil {
		root["metadata"] = deepCopyMap(s.Metadata)
	}
	if s.Center != nil {
		center := make([]any, len(s.Center))
		for i, c := range s.Center {
			center[i] = c
		}
		root["center"] = center
	}
	if s.Zoom != 0 || s.hasZoom {
		root["zoom"] = s.Zoom
	}
	if s.Bearing != 0 || s.hasBearing {
		root["bearing"] = s.Bearing
	}
	if s.Pitch != 0 || s.hasPitch {
		root["pitch"] = s.Pitch
	}
	if s.Glyphs != "" {
		root["glyphs"] = s.Glyphs
	}
	if s.Sprite != "" {
		root["sprite"] = s.Sprite
	}

	sources := root["sources"].(map[string]any)
	for name, src := range s.Sources {
		sources[name] = src.toMap()
	}

	layers := make([]any, 0, len(s.Layers))
	for _, l := range s.Layers {
		layers = append(layers, l.toMap())
	}
	root["layers"] = layers

	for key, val := range s.Extra {
		root[key] = deepCopyValue(val)
	}
	return root
}

func (src Source) toMap() map[string]any {
	m := map[string]any{"type": src.Type}
	if src.URL != "" {
		m["url"] = src.URL
	}
	if src.Tiles != nil {
		tiles := make([]any, len(src.Tiles))
		for i, t := range src.Tiles {
			tiles[i] = t
		}
		m["tiles"] = tiles
	}
	if src.Attribution != "" {
		m["attribution"] = src.Attribution
	}
	for key, val := range src.Extra {
		m[key] = deepCopyValue(val)
	}
	return m
}

func (l Layer) toMap() map[string]any {
	m := map[string]any{
		"id":   l.ID,
		"type": l.Type,
	}
	if l.Source != "" {
		m["source"] = l.Source
	}
	if l.SourceLayer != "" {
		m["source-layer"] = l.SourceLayer
	}
	if l.Filter != nil {
		m["filter"] = deepCopySlice(l.Filter)
	}
	if l.MinZoom != 0 || l.hasMinZoom {
		m["minzoom"] = l.MinZoom
	}
	if l.MaxZoom != 0 || l.hasMaxZoom {
		m["maxzoom"] = l.MaxZoom
	}
	if l.Layout != nil {
		m["layout"] = deepCopyMap(l.Layout)
	}
	if l.Paint != nil {
		m["paint"] = deepCopyMap(l.Paint)
	}
	for key, val := range l.Extra {
		m[key] = deepCopyValue(val)
	}
	return m
}

// Clone returns a deep copy safe to mutate independently of the receiver.
func (s *Style) Clone() *Style {
	c, err := FromMap(s.ToMap())
	if err != nil {
		// ToMap output is always a well-formed style map.
		panic(fmt.Sprintf("core: clone failed: %v", err))
	}
	return c
}

// Equal reports whether two styles are structurally identical.
func (s *Style) Equal(o *Style) bool {
	if s == nil || o == nil {
		return s == o
	}
	return reflect.DeepEqual(s.ToMap(), o.ToMap())
}

// Equal reports whether two layers are structurally identical, ID included.
func (l Layer) Equal(o Layer) bool {
	return reflect.DeepEqual(l.toMap(), o.toMap())
}

// Equal reports whether two sources are structurally identical.
func (src Source) Equal(o Source) bool {
	return reflect.DeepEqual(src.toMap(), o.toMap())
}

// LayerIndex returns the position of the layer with the given ID, or -1.
func (s *Style) LayerIndex(id string) int {
	for i, l := range s.Layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// --- conversion helpers ---

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func asFloatSlice(v any) []float64 {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(list))
	for _, item := range list {
		out = append(out, asFloat(item))
	}
	return out
}

func asStringSlice(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, asString(item))
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		return deepCopySlice(t)
	default:
		return v
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopySlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = deepCopyValue(v)
	}
	return out
}
