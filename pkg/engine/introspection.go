package engine

import (
	"github.com/aretw0/introspection"
)

// EngineState exposes internal state for observability.
type EngineState struct {
	CurrentID     string `json:"current_id"`
	Dirty         bool   `json:"dirty"`
	HistoryLen    int    `json:"history_len"`
	HistoryCursor int    `json:"history_cursor"`
	Layers        int    `json:"layers"`
	Sources       int    `json:"sources"`
	Errors        int    `json:"errors"`
	Infos         int    `json:"infos"`
	Subscribers   int    `json:"subscribers"`
}

// State implements introspection.Introspectable.
func (e *Engine) State() any {
	e.mu.Lock()
	defer e.mu.Unlock()

	return EngineState{
		CurrentID:     e.currentID,
		Dirty:         e.dirty,
		HistoryLen:    e.log.Len(),
		HistoryCursor: e.log.Cursor(),
		Layers:        len(e.current.Layers),
		Sources:       len(e.current.Sources),
		Errors:        len(e.valErrors),
		Infos:         len(e.infos),
		Subscribers:   len(e.onChange),
	}
}

// ComponentType implements introspection.Component.
func (e *Engine) ComponentType() string {
	return "engine"
}

var _ introspection.Introspectable = (*Engine)(nil)
var _ introspection.Component = (*Engine)(nil)
