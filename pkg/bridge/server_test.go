package bridge

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/atlas/pkg/core"
	"github.com/aretw0/atlas/pkg/engine"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	s := core.NewStyle("Bridge Test")
	s.Sources["openmaptiles"] = core.Source{
		Type:  "vector",
		Tiles: []string{"https://tiles.example.com/{z}/{x}/{y}.pbf?key={key}"},
	}
	s.Layers = []core.Layer{
		{ID: "background", Type: "background"},
		{ID: "water", Type: "fill", Source: "openmaptiles", SourceLayer: "water"},
	}
	eng := engine.New()
	require.Empty(t, eng.Open(context.Background(), s, "doc-1"))
	return eng
}

func newTestBridge(t *testing.T, eng *engine.Engine) *httptest.Server {
	t.Helper()
	srv := NewServer(Config{
		Tokens:  map[string]string{"tiles.example.com": "secret123"},
		Inspect: true,
	}, eng)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestStyleEndpointSubstitutesTokens(t *testing.T) {
	eng := testEngine(t)
	ts := newTestBridge(t, eng)

	resp, err := ts.Client().Get(ts.URL + "/style")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	sources := body["sources"].(map[string]any)
	src := sources["openmaptiles"].(map[string]any)
	tiles := src["tiles"].([]any)
	assert.Contains(t, tiles[0].(string), "key=secret123")
	assert.NotContains(t, tiles[0].(string), "{key}")

	// The engine's own document keeps the placeholder.
	assert.Contains(t, eng.Current().Sources["openmaptiles"].Tiles[0], "{key}")
}

func TestWSPushesStyleOnConnect(t *testing.T) {
	eng := testEngine(t)
	ts := newTestBridge(t, eng)
	conn := dialWS(t, ts)

	var push map[string]any
	require.NoError(t, conn.ReadJSON(&push))
	assert.Equal(t, "style", push["type"])
	assert.Equal(t, true, push["inspect"])
	style := push["style"].(map[string]any)
	assert.Equal(t, "Bridge Test", style["name"])
}

func TestWSPushesStyleOnCommit(t *testing.T) {
	eng := testEngine(t)
	ts := newTestBridge(t, eng)
	conn := dialWS(t, ts)

	var push map[string]any
	require.NoError(t, conn.ReadJSON(&push)) // initial push

	next := eng.Current().Clone()
	next.Name = "Renamed"
	require.Empty(t, eng.Propose(context.Background(), next))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	require.NoError(t, conn.ReadJSON(&push))
	style := push["style"].(map[string]any)
	assert.Equal(t, "Renamed", style["name"])
}

func TestWSLayerPicked(t *testing.T) {
	eng := testEngine(t)
	ts := newTestBridge(t, eng)
	conn := dialWS(t, ts)

	var push map[string]any
	require.NoError(t, conn.ReadJSON(&push))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":  "layer-picked",
		"layer": "water",
	}))

	require.Eventually(t, func() bool { return eng.Selected() == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestWSInteractionSettled(t *testing.T) {
	eng := testEngine(t)
	ts := newTestBridge(t, eng)
	conn := dialWS(t, ts)

	var push map[string]any
	require.NoError(t, conn.ReadJSON(&push))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "interaction-settled",
		"view": map[string]any{"zoom": 14, "lat": 51.5, "lng": -0.12},
	}))

	require.Eventually(t, func() bool {
		return eng.Link() == "#doc-1/14/51.5/-0.12"
	}, 2*time.Second, 10*time.Millisecond)
}
