package kson

import (
	"errors"
	"math"
	"strings"
	"testing"
)

const curvedDoc = `{
  "format_version": 1,
  "meta": {"title": "Curves", "level": 12},
  "beat": {
    "bpm": [[0, 120]],
    "scroll_speed": [[0, 1.0, [0.25, 0.75]], [100, 2.0]]
  },
  "note": {
    "laser": [[[0, [[0, 0.0, [0.8, 0.2]], [100, 1.0]], 2]], []]
  },
  "camera": {
    "tilt": [[0, "bigger"]],
    "cam": {"body": {"zoom_top": [[0, 0, [0.3, 0.9]], [100, 100]]}}
  }
}`

const warningDoc = `{
  "format_version": 1,
  "meta": {"title": "Broken"},
  "note": {"bt": [["x"], [], [], []]}
}`

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEvaluateCurve(t *testing.T) {
	if got := EvaluateCurve(0.5, 0.9, 0.3); !near(got, 0.3) {
		t.Fatalf("EvaluateCurve at a=0.5 = %v, want 0.3", got)
	}
	if got := EvaluateCurve(0, 0, 0.7); !near(got, 0.7) {
		t.Fatalf("linear EvaluateCurve = %v, want 0.7", got)
	}
}

func TestGraphValueAt(t *testing.T) {
	g := NewGraph()
	g.Set(0, GraphPoint{V: GraphValue{V: 0, VF: 0}})
	g.Set(100, GraphPoint{V: GraphValue{V: 10, VF: 10}})
	if got := GraphValueAt(g, 50); !near(got, 5) {
		t.Fatalf("GraphValueAt(50) = %v, want 5", got)
	}
	g.Set(0, GraphPoint{Curve: GraphCurveValue{A: 0.5, B: 0.2}})
	if got := GraphValueAt(g, 50); !near(got, 5) {
		t.Fatalf("singular curve GraphValueAt(50) = %v, want 5", got)
	}
}

func TestSectionWrappers(t *testing.T) {
	c, err := Load(strings.NewReader(curvedDoc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	lane := c.Note.Laser[0]

	y, s, err := GraphSectionAt(lane, 50)
	if err != nil || y != 0 || !s.Wide() {
		t.Fatalf("GraphSectionAt = %d, %+v, %v", y, s, err)
	}
	if _, _, err := GraphSectionAt(c.Note.Laser[1], 50); !errors.Is(err, ErrEmptyTimeline) {
		t.Fatalf("empty lane err = %v", err)
	}

	v, ok := GraphSectionValueAt(lane, 50)
	if !ok || !near(v, EvaluateCurve(0.8, 0.2, 0.5)) {
		t.Fatalf("GraphSectionValueAt(50) = %v, %v", v, ok)
	}
	if _, ok := GraphSectionValueAt(lane, 100); ok {
		t.Fatalf("value at the last point must be undefined")
	}
	if got := GraphSectionValueAtWithDefault(lane, 100, -1); got != -1 {
		t.Fatalf("default = %v, want -1", got)
	}

	p, ok := GraphPointAt(lane, 100)
	if !ok || p.V.V != 1 {
		t.Fatalf("GraphPointAt(100) = %+v, %v", p, ok)
	}
	if _, ok := GraphPointAt(lane, 40); ok {
		t.Fatalf("GraphPointAt must not interpolate")
	}
}

func TestExpandWrappers(t *testing.T) {
	c, err := Load(strings.NewReader(curvedDoc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	g, err := ExpandCurveSegments(c.Beat.ScrollSpeed, 25)
	if err != nil {
		t.Fatalf("ExpandCurveSegments: %v", err)
	}
	keys := g.Keys()
	want := []Pulse{0, 25, 50, 75, 100}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
	if _, err := ExpandCurveSegments(c.Beat.ScrollSpeed, 0); !errors.Is(err, ErrInvalidSubdivision) {
		t.Fatalf("interval 0 err = %v", err)
	}

	_, s, _ := GraphSectionAt(c.Note.Laser[0], 0)
	ls, err := ExpandLaserSection(s, 50)
	if err != nil || ls.V.Len() != 3 || ls.W != s.W {
		t.Fatalf("ExpandLaserSection = %+v, %v", ls, err)
	}
	gs, err := ExpandGraphSection(GraphSection{V: s.V}, 10)
	if err != nil || gs.V.Len() != 11 {
		t.Fatalf("ExpandGraphSection len = %d, %v", gs.V.Len(), err)
	}
}

func TestTiltAt(t *testing.T) {
	c, err := Load(strings.NewReader(curvedDoc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	st := TiltAt(c, 500)
	if st.Manual || st.Auto.String() != "bigger" {
		t.Fatalf("TiltAt = %+v", st)
	}
}

func TestLoadOptions(t *testing.T) {
	var seen []string
	c, err := Load(strings.NewReader(warningDoc), WithWarningHook(func(w string) { seen = append(seen, w) }))
	if err != nil {
		t.Fatalf("lenient Load: %v", err)
	}
	if len(c.Warnings) != 1 || len(seen) != 1 || seen[0] != "Invalid note entry format" {
		t.Fatalf("warnings = %v, hook saw %v", c.Warnings, seen)
	}

	if _, err := Load(strings.NewReader(warningDoc), WithStrict(true)); !errors.Is(err, ErrWarnings) {
		t.Fatalf("strict Load err = %v, want ErrWarnings", err)
	}
	if _, err := Load(strings.NewReader(curvedDoc), WithStrict(true)); err != nil {
		t.Fatalf("strict Load of a clean chart: %v", err)
	}
	if _, err := Load(strings.NewReader(`{"meta": {}}`)); !errors.Is(err, ErrMissingFormatVersion) {
		t.Fatalf("err = %v, want ErrMissingFormatVersion", err)
	}
}

func TestLoadMetaStrict(t *testing.T) {
	doc := `{"format_version": 1, "meta": {"title": "M", "level": "high"}}`
	m, err := LoadMeta(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	if m.Meta.Title != "M" || m.Meta.Level != 1 || len(m.Warnings) != 1 {
		t.Fatalf("meta = %+v", m)
	}
	if _, err := LoadMeta(strings.NewReader(doc), WithStrict(true)); !errors.Is(err, ErrWarnings) {
		t.Fatalf("strict LoadMeta err = %v", err)
	}
}
