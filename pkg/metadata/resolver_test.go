package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector gathers async fetch results.
type collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *collector) apply(res Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, res)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

func (c *collector) last() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results[len(c.results)-1]
}

func TestFetchFontNames(t *testing.T) {
	var hits int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		require.Equal(t, "/fonts/fontstacks.json", r.URL.Path)
		_, _ = w.Write([]byte(`["Open Sans Regular", "Noto Sans Bold"]`))
	}))
	defer server.Close()

	r := NewResolver()
	c := &collector{}
	template := server.URL + "/fonts/{fontstack}/{range}.pbf"
	r.Fetch(context.Background(), KindGlyphs, template, c.apply)

	require.Eventually(t, func() bool { return c.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	res := c.last()
	require.NoError(t, res.Err)
	assert.Equal(t, KindGlyphs, res.Kind)
	assert.Equal(t, template, res.URL)
	assert.Equal(t, []string{"Open Sans Regular", "Noto Sans Bold"}, res.Names)

	// Second fetch for the same key is served from cache, synchronously.
	r.Fetch(context.Background(), KindGlyphs, template, c.apply)
	assert.Equal(t, 2, c.len())
	mu.Lock()
	assert.Equal(t, 1, hits)
	mu.Unlock()
}

func TestFetchIconNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sprite.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"park": {"x": 0}, "airport": {"x": 16}}`))
	}))
	defer server.Close()

	r := NewResolver()
	c := &collector{}
	r.Fetch(context.Background(), KindSprite, server.URL+"/sprite", c.apply)

	require.Eventually(t, func() bool { return c.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	res := c.last()
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"airport", "park"}, res.Names, "icon names are sorted")
}

func TestFetchVectorLayers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"tilejson": "2.0.0",
			"vector_layers": [
				{"id": "water", "fields": {}},
				{"id": "transportation", "fields": {}}
			]
		}`))
	}))
	defer server.Close()

	r := NewResolver()
	c := &collector{}
	r.Fetch(context.Background(), KindTileJSON, server.URL+"/tiles.json", c.apply)

	require.Eventually(t, func() bool { return c.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	res := c.last()
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"water", "transportation"}, res.Names)
}

func TestFetchFailureIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	r := NewResolver()
	c := &collector{}
	r.Fetch(context.Background(), KindTileJSON, server.URL+"/tiles.json", c.apply)

	require.Eventually(t, func() bool { return c.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	res := c.last()
	require.Error(t, res.Err)
	assert.Nil(t, res.Names)
}

func TestNewerFetchSupersedesOlder(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"vector_layers": [{"id": "water"}]}`))
	}))
	defer server.Close()

	r := NewResolver()
	first := &collector{}
	second := &collector{}
	url := server.URL + "/tiles.json"

	r.Fetch(context.Background(), KindTileJSON, url, first.apply)
	r.Fetch(context.Background(), KindTileJSON, url, second.apply)
	close(release)

	require.Eventually(t, func() bool { return second.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	// The superseded completion never fires.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, first.len())
}

func TestUnknownKind(t *testing.T) {
	r := NewResolver()
	c := &collector{}
	r.Fetch(context.Background(), Kind("bogus"), "http://localhost/x", c.apply)

	require.Eventually(t, func() bool { return c.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Error(t, c.last().Err)
}
