package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// View is the camera state carried in the address fragment.
type View struct {
	Zoom    float64
	Lat     float64
	Lng     float64
	Bearing float64
	Pitch   float64
}

func (v View) isZero() bool {
	return v == View{}
}

// LinkState is the deep-link state: the open document's identifier plus the
// view parameters, encoded as an address fragment.
type LinkState struct {
	ID   string
	View View
}

// Fragment encodes the state as "#id/zoom/lat/lng[/bearing/pitch]".
func (l LinkState) Fragment() string {
	var b strings.Builder
	b.WriteString("#")
	b.WriteString(l.ID)
	if !l.View.isZero() {
		fmt.Fprintf(&b, "/%s/%s/%s",
			trimFloat(l.View.Zoom, 2),
			trimFloat(l.View.Lat, 5),
			trimFloat(l.View.Lng, 5))
		if l.View.Bearing != 0 || l.View.Pitch != 0 {
			fmt.Fprintf(&b, "/%s/%s",
				trimFloat(l.View.Bearing, 1),
				trimFloat(l.View.Pitch, 1))
		}
	}
	return b.String()
}

// ParseFragment decodes an address fragment produced by Fragment. Malformed
// numeric parts are an error; the identifier alone is always acceptable.
func ParseFragment(s string) (LinkState, error) {
	s = strings.TrimPrefix(s, "#")
	parts := strings.Split(s, "/")

	l := LinkState{ID: parts[0]}
	rest := parts[1:]
	if len(rest) == 0 {
		return l, nil
	}
	if len(rest) != 3 && len(rest) != 5 {
		return l, fmt.Errorf("malformed view fragment %q", s)
	}

	vals := make([]float64, len(rest))
	for i, p := range rest {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return l, fmt.Errorf("malformed view fragment %q: %w", s, err)
		}
		vals[i] = f
	}
	l.View.Zoom, l.View.Lat, l.View.Lng = vals[0], vals[1], vals[2]
	if len(vals) == 5 {
		l.View.Bearing, l.View.Pitch = vals[3], vals[4]
	}
	return l, nil
}

// trimFloat formats with at most prec decimals, dropping trailing zeros.
func trimFloat(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

// Link returns the current address fragment. It is re-derived after every
// commit and after the rendering surface settles an interaction, since
// that surface may overwrite the address state asynchronously.
func (e *Engine) Link() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.link.Fragment()
}

// InteractionSettled records the view the rendering surface settled on and
// re-syncs the address state with it.
func (e *Engine) InteractionSettled(v View) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.link.View = v
}

// refreshLinkLocked re-derives the address state from the in-memory
// document. The view keeps the last settled camera when one exists;
// otherwise it falls back to the document's own center/zoom.
func (e *Engine) refreshLinkLocked() {
	e.link.ID = e.currentID
	if !e.link.View.isZero() {
		return
	}
	s := e.current
	if len(s.Center) == 2 {
		e.link.View.Lng = s.Center[0]
		e.link.View.Lat = s.Center[1]
	}
	e.link.View.Zoom = s.Zoom
	e.link.View.Bearing = s.Bearing
	e.link.View.Pitch = s.Pitch
}
