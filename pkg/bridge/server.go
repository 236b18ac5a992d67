// Package bridge exposes the engine's current style to a rendering surface
// over HTTP and WebSocket. The surface gets the document (with access
// tokens substituted into URL placeholders) and reports interaction events
// back; it never holds a writable reference to the document.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aretw0/atlas/pkg/core"
	"github.com/aretw0/atlas/pkg/engine"
)

// Config holds the configuration for the bridge server.
type Config struct {
	Addr    string            // listen address, e.g. "127.0.0.1:8000"
	Tokens  map[string]string // access tokens keyed by URL host substring
	Inspect bool              // forwarded to the surface on connect
	Logger  *slog.Logger
}

// surfaceEvent is what a connected rendering surface sends back.
type surfaceEvent struct {
	Type  string       `json:"type"` // data-changed | interaction-settled | layer-picked
	View  *engine.View `json:"view,omitempty"`
	Layer string       `json:"layer,omitempty"`
}

// stylePush is the message sent to a surface when the document changes.
type stylePush struct {
	Type    string         `json:"type"` // "style"
	Inspect bool           `json:"inspect"`
	Style   map[string]any `json:"style"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server pushes style updates to connected surfaces and funnels their
// events into the engine.
type Server struct {
	config Config
	engine *engine.Engine
	http   *http.Server

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// NewServer creates a bridge server for the given engine.
func NewServer(config Config, eng *engine.Engine) *Server {
	s := &Server{
		config:  config,
		engine:  eng,
		clients: make(map[*client]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /style", s.handleStyle)
	mux.HandleFunc("GET /ws", s.handleWS)
	s.http = &http.Server{Addr: config.Addr, Handler: mux}

	eng.OnChange(func(style *core.Style) {
		s.broadcast(style)
	})

	return s
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
	}()

	if s.config.Logger != nil {
		s.config.Logger.Info("bridge listening", "addr", ln.Addr().String())
	}
	if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.config.Addr }

// Handler returns the HTTP handler, for embedding in another server.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// handleStyle serves the current style as JSON with tokens substituted.
func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	style := substituteTokens(s.engine.Current(), s.config.Tokens)
	data, err := style.Encode()
	if err != nil {
		http.Error(w, "failed to serialize style", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// handleWS upgrades the connection, pushes the current style, and reads
// surface events until the client disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.config.Logger != nil {
			s.config.Logger.Error("failed to upgrade websocket", "error", err)
		}
		return
	}

	c := &client{conn: conn}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	if err := c.send(s.pushFor(s.engine.Current())); err != nil {
		return
	}

	for {
		var ev surfaceEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if s.config.Logger != nil {
				s.config.Logger.Debug("surface disconnected", "error", err)
			}
			return
		}
		s.dispatch(r.Context(), ev)
	}
}

func (s *Server) dispatch(ctx context.Context, ev surfaceEvent) {
	switch ev.Type {
	case "data-changed":
		s.engine.DataChanged(ctx)
	case "interaction-settled":
		if ev.View != nil {
			s.engine.InteractionSettled(*ev.View)
		}
	case "layer-picked":
		s.engine.SelectLayer(ev.Layer)
	default:
		if s.config.Logger != nil {
			s.config.Logger.Debug("unknown surface event", "type", ev.Type)
		}
	}
}

func (s *Server) pushFor(style *core.Style) stylePush {
	return stylePush{
		Type:    "style",
		Inspect: s.config.Inspect,
		Style:   substituteTokens(style, s.config.Tokens).ToMap(),
	}
}

func (s *Server) broadcast(style *core.Style) {
	push := s.pushFor(style)

	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.send(push); err != nil && s.config.Logger != nil {
			s.config.Logger.Debug("failed to push style", "error", err)
		}
	}
}
