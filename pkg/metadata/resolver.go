// Package metadata resolves the catalogs a style document references:
// available font names behind a glyphs URL template, icon names behind a
// sprite base URL, and vector layer names behind a TileJSON source URL.
//
// Requests are asynchronous and may complete out of order. At most one
// request is in flight per (kind, url); a newer request for the same key
// supersedes older completions (last-write-wins). Failures are logged and
// reported to the caller, never escalated: the engine degrades to its
// last-known metadata.
package metadata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ohler55/ojg/oj"
)

// Kind selects the catalog protocol used for a URL.
type Kind string

const (
	KindGlyphs   Kind = "glyphs"
	KindSprite   Kind = "sprite"
	KindTileJSON Kind = "tilejson"
)

// Result is delivered to the apply callback when a fetch completes.
type Result struct {
	Kind  Kind
	URL   string
	Names []string
	Err   error
}

const (
	defaultTimeout  = 15 * time.Second
	defaultCacheCap = 128
	maxBodyBytes    = 8 << 20
)

// Resolver fetches and caches catalog lookups.
type Resolver struct {
	client *http.Client
	logger *slog.Logger
	cache  *lru.Cache[string, []string]

	mu       sync.Mutex
	inflight map[string]uint64 // key -> generation of the newest request
	nextGen  uint64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient overrides the HTTP client (useful for tests).
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver with an LRU result cache.
func NewResolver(opts ...Option) *Resolver {
	cache, err := lru.New[string, []string](defaultCacheCap)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	r := &Resolver{
		client:   &http.Client{Timeout: defaultTimeout},
		cache:    cache,
		inflight: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch resolves (kind, url) and delivers the outcome to apply. Cached
// results are delivered synchronously; everything else runs in the
// background. When a newer Fetch for the same key is issued before this one
// completes, the older completion is discarded.
func (r *Resolver) Fetch(ctx context.Context, kind Kind, url string, apply func(Result)) {
	key := cacheKey(kind, url)

	if names, ok := r.cache.Get(key); ok {
		apply(Result{Kind: kind, URL: url, Names: names})
		return
	}

	r.mu.Lock()
	r.nextGen++
	gen := r.nextGen
	r.inflight[key] = gen
	r.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		names, err := r.resolve(ctx, kind, url)

		r.mu.Lock()
		if r.inflight[key] != gen {
			// Superseded by a newer request for the same key.
			r.mu.Unlock()
			return nil
		}
		delete(r.inflight, key)
		r.mu.Unlock()

		if err != nil {
			if r.logger != nil {
				r.logger.Warn("metadata fetch failed", "kind", kind, "url", url, "error", err)
			}
			apply(Result{Kind: kind, URL: url, Err: err})
			return nil
		}

		r.cache.Add(key, names)
		apply(Result{Kind: kind, URL: url, Names: names})
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		if r.logger != nil {
			r.logger.Error("metadata fetch panic", "kind", kind, "url", url, "error", err)
		}
	}))
}

func (r *Resolver) resolve(ctx context.Context, kind Kind, url string) ([]string, error) {
	switch kind {
	case KindGlyphs:
		return r.fetchFontNames(ctx, url)
	case KindSprite:
		return r.fetchIconNames(ctx, url)
	case KindTileJSON:
		return r.fetchVectorLayers(ctx, url)
	default:
		return nil, fmt.Errorf("unknown metadata kind %q", kind)
	}
}

// fetchFontNames resolves a glyphs URL template such as
// https://host/fonts/{fontstack}/{range}.pbf to the sibling catalog
// https://host/fonts/fontstacks.json, a JSON array of font names.
func (r *Resolver) fetchFontNames(ctx context.Context, template string) ([]string, error) {
	root := glyphCatalogRoot(template)
	v, err := r.getJSON(ctx, root+"/fontstacks.json")
	if err != nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("font catalog is not an array, got %T", v)
	}
	var names []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			names = append(names, s)
		}
	}
	return names, nil
}

// fetchIconNames resolves a sprite base URL to <base>.json, an object whose
// keys are the available icon names.
func (r *Resolver) fetchIconNames(ctx context.Context, base string) ([]string, error) {
	v, err := r.getJSON(ctx, base+".json")
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("sprite index is not an object, got %T", v)
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// fetchVectorLayers reads a TileJSON document and returns vector_layers ids.
func (r *Resolver) fetchVectorLayers(ctx context.Context, url string) ([]string, error) {
	v, err := r.getJSON(ctx, url)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("tilejson is not an object, got %T", v)
	}
	list, _ := m["vector_layers"].([]any)
	var names []string
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := entry["id"].(string); ok && id != "" {
			names = append(names, id)
		}
	}
	return names, nil
}

func (r *Resolver) getJSON(ctx context.Context, url string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("bad request for %s: %w", url, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	v, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return v, nil
}

// glyphCatalogRoot strips the {fontstack}/{range} tail from a glyph URL
// template, leaving the directory the font catalog lives in.
func glyphCatalogRoot(template string) string {
	if i := strings.Index(template, "{fontstack}"); i > 0 {
		return strings.TrimRight(template[:i], "/")
	}
	return strings.TrimRight(template, "/")
}

func cacheKey(kind Kind, url string) string {
	return string(kind) + " " + url
}
