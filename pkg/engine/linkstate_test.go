package engine

import (
	"context"
	"testing"

	"github.com/aretw0/atlas/pkg/core"
)

func TestFragmentEncoding(t *testing.T) {
	cases := []struct {
		name string
		l    LinkState
		want string
	}{
		{"id only", LinkState{ID: "doc-1"}, "#doc-1"},
		{"with view", LinkState{ID: "doc-1", View: View{Zoom: 11.5, Lat: 37.77, Lng: -122.42}},
			"#doc-1/11.5/37.77/-122.42"},
		{"full camera", LinkState{ID: "d", View: View{Zoom: 3, Lat: 1, Lng: 2, Bearing: 90, Pitch: 45}},
			"#d/3/1/2/90/45"},
		{"trailing zeros trimmed", LinkState{ID: "d", View: View{Zoom: 12.00, Lat: 37.70000, Lng: -122.40}},
			"#d/12/37.7/-122.4"},
	}
	for _, tc := range cases {
		if got := tc.l.Fragment(); got != tc.want {
			t.Errorf("%s: Fragment() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseFragmentRoundTrip(t *testing.T) {
	for _, frag := range []string{"#doc-1", "#doc-1/11.5/37.77/-122.42", "#d/3/1/2/90/45"} {
		l, err := ParseFragment(frag)
		if err != nil {
			t.Fatalf("ParseFragment(%q) failed: %v", frag, err)
		}
		if got := l.Fragment(); got != frag {
			t.Errorf("round trip %q -> %q", frag, got)
		}
	}
}

func TestParseFragmentErrors(t *testing.T) {
	if _, err := ParseFragment("#doc/12"); err == nil {
		t.Error("expected error for partial view")
	}
	if _, err := ParseFragment("#doc/a/b/c"); err == nil {
		t.Error("expected error for non-numeric view")
	}
}

func TestLinkDerivedFromDocument(t *testing.T) {
	s := core.NewStyle("Doc")
	s.Center = []float64{-122.42, 37.77}
	s.Zoom = 11.5
	e := New()
	if errs := e.Open(context.Background(), s, "doc-1"); len(errs) > 0 {
		t.Fatalf("Open failed: %v", errs)
	}

	if got := e.Link(); got != "#doc-1/11.5/37.77/-122.42" {
		t.Errorf("Link() = %q", got)
	}
}

func TestInteractionSettledOverridesDocumentView(t *testing.T) {
	s := core.NewStyle("Doc")
	s.Center = []float64{0, 0}
	s.Zoom = 2
	e := New()
	if errs := e.Open(context.Background(), s, "doc-1"); len(errs) > 0 {
		t.Fatalf("Open failed: %v", errs)
	}

	e.InteractionSettled(View{Zoom: 14, Lat: 51.5, Lng: -0.12})
	if got := e.Link(); got != "#doc-1/14/51.5/-0.12" {
		t.Errorf("Link() = %q", got)
	}

	// The settled view survives later commits.
	s2 := s.Clone()
	s2.Name = "Renamed"
	if errs := e.Propose(context.Background(), s2); len(errs) > 0 {
		t.Fatalf("Propose failed: %v", errs)
	}
	if got := e.Link(); got != "#doc-1/14/51.5/-0.12" {
		t.Errorf("Link() after commit = %q", got)
	}
}
