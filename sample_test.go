package kson

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestSampleGraph(t *testing.T) {
	g := NewGraph()
	g.Set(0, GraphPoint{V: GraphValue{V: 0, VF: 0}})
	g.Set(100, GraphPoint{V: GraphValue{V: 10, VF: 10}})

	got, err := SampleGraph(g, 0, 120, 40)
	if err != nil {
		t.Fatalf("SampleGraph: %v", err)
	}
	want := []Sample{{0, 0}, {40, 4}, {80, 8}, {120, 10}}
	if len(got) != len(want) {
		t.Fatalf("samples = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].Y != want[i].Y || !near(got[i].V, want[i].V) {
			t.Fatalf("samples = %v, want %v", got, want)
		}
	}

	if _, err := SampleGraph(g, 0, 100, 0); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("step 0 err = %v", err)
	}
	if s, err := SampleGraph(g, 100, 0, 10); err != nil || len(s) != 0 {
		t.Fatalf("reversed range = %v, %v", s, err)
	}
}

func TestSampleSections(t *testing.T) {
	c, err := Load(strings.NewReader(curvedDoc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := SampleSections(c.Note.Laser[0], 0, 150, 50, -1)
	if err != nil {
		t.Fatalf("SampleSections: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("samples = %v", got)
	}
	if got[0].V != 0 || got[2].V != -1 || got[3].V != -1 {
		t.Fatalf("samples = %v", got)
	}
	if !near(got[1].V, EvaluateCurve(0.8, 0.2, 0.5)) {
		t.Fatalf("sample at 50 = %v", got[1].V)
	}
	if _, err := SampleSections(c.Note.Laser[0], 0, 10, -5, 0); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("negative step err = %v", err)
	}
}

func TestLinearize(t *testing.T) {
	c, err := Load(strings.NewReader(curvedDoc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	lin, err := Linearize(c, 25)
	if err != nil {
		t.Fatalf("Linearize: %v", err)
	}

	if lin.Beat.ScrollSpeed.Len() != 5 || c.Beat.ScrollSpeed.Len() != 2 {
		t.Fatalf("scroll speed lens: linearized %d, original %d", lin.Beat.ScrollSpeed.Len(), c.Beat.ScrollSpeed.Len())
	}
	if lin.Camera.Cam.Body.ZoomTop.Len() != 5 || c.Camera.Cam.Body.ZoomTop.Len() != 2 {
		t.Fatalf("zoom_top not expanded")
	}
	_, s, err := GraphSectionAt(lin.Note.Laser[0], 0)
	if err != nil || s.V.Len() != 5 || !s.Wide() {
		t.Fatalf("laser section = %+v, %v", s, err)
	}
	if _, orig, _ := GraphSectionAt(c.Note.Laser[0], 0); orig.V.Len() != 2 {
		t.Fatalf("original laser modified")
	}
	if lin.Meta.Title != c.Meta.Title || lin.Note.BT[0] != c.Note.BT[0] {
		t.Fatalf("untouched fields must be shared")
	}

	for _, y := range []Pulse{0, 25, 50, 75, 100} {
		if !near(GraphValueAt(lin.Beat.ScrollSpeed, y), GraphValueAt(c.Beat.ScrollSpeed, y)) {
			t.Fatalf("linearized scroll speed differs at keyframe %d", y)
		}
	}

	if _, err := Linearize(c, 0); !errors.Is(err, ErrInvalidSubdivision) {
		t.Fatalf("interval 0 err = %v", err)
	}
}

func TestSampleGraphExtremeRanges(t *testing.T) {
	g := NewGraph()
	g.Set(0, GraphPoint{V: GraphValue{V: 0, VF: 0}})
	g.Set(100, GraphPoint{V: GraphValue{V: 10, VF: 10}})

	from, to := Pulse(math.MinInt64/2-10), Pulse(math.MaxInt64/2+10)
	step := RelPulse(math.MaxInt64 / 4)
	got, err := SampleGraph(g, from, to, step)
	if err != nil {
		t.Fatalf("SampleGraph: %v", err)
	}
	if len(got) != 5 || got[0].Y != from || got[4].Y > to {
		t.Fatalf("wide range samples = %v", got)
	}
	if got[0].V != 0 || got[4].V != 10 {
		t.Fatalf("values outside the keyframes must clamp, got %v", got)
	}

	got, err = SampleGraph(g, math.MaxInt64-5, math.MaxInt64, 4)
	if err != nil {
		t.Fatalf("SampleGraph near MaxInt64: %v", err)
	}
	if len(got) != 2 || got[0].Y != math.MaxInt64-5 || got[1].Y != math.MaxInt64-1 {
		t.Fatalf("samples near MaxInt64 = %v", got)
	}

	got, err = SampleGraph(g, math.MinInt64, math.MaxInt64, math.MaxInt64)
	if err != nil || len(got) != 3 || got[2].Y != math.MaxInt64-1 {
		t.Fatalf("full range samples = %v, %v", got, err)
	}
}
