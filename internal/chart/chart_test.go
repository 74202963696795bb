package chart

import (
	"testing"

	"github.com/cbegin/kson-go/internal/graph"
	"github.com/cbegin/kson-go/internal/timeline"
)

func TestNewAppliesDefaults(t *testing.T) {
	c := New()
	if c.Meta.Level != 1 || c.Audio.BGM.Vol != 1 || c.Audio.BGM.Preview.Duration != DefaultPreviewDuration {
		t.Fatalf("defaults not applied: %+v %+v", c.Meta, c.Audio.BGM)
	}
	if !c.BG.Legacy.Layer.Rotation.Tilt || !c.BG.Legacy.Layer.Rotation.Spin {
		t.Fatalf("layer rotation should default to enabled")
	}
	for i, l := range c.Note.BT {
		if l == nil {
			t.Fatalf("BT lane %d not allocated", i)
		}
	}
	if c.Note.Count() != 0 || c.Note.LastPulse() != 0 {
		t.Fatalf("new chart should be empty")
	}
}

func TestNoteCountAndLastPulse(t *testing.T) {
	c := New()
	c.Note.BT[0].Set(0, Interval{})
	c.Note.BT[3].Set(960, Interval{Length: 480})
	c.Note.FX[1].Set(1200, Interval{})

	laser := timeline.New[RelPulse, graph.GraphPoint]()
	laser.Set(0, graph.Point(0))
	laser.Set(720, graph.Point(1))
	c.Note.Laser[1].Set(1000, graph.LaserSection{V: laser, W: graph.LaserXScale1x})

	if got := c.Note.Count(); got != 3 {
		t.Fatalf("Count() = %d, want 3", got)
	}
	if got := c.Note.CountInRange(0, 960); got != 1 {
		t.Fatalf("CountInRange(0, 960) = %d, want 1", got)
	}
	if got := c.Note.CountInRange(960, 1920); got != 2 {
		t.Fatalf("CountInRange(960, 1920) = %d, want 2", got)
	}
	if got := c.Note.LaserSectionCount(); got != 1 {
		t.Fatalf("LaserSectionCount() = %d", got)
	}
	if got := c.Note.LastPulse(); got != 1720 {
		t.Fatalf("LastPulse() = %d, want 1720", got)
	}

	var zero NoteInfo
	if zero.Count() != 0 || zero.LastPulse() != 0 || zero.CountInRange(0, 960) != 0 {
		t.Fatalf("zero NoteInfo must be safe to query")
	}
}

func TestCamGraphsNamed(t *testing.T) {
	c := New()
	named := c.Camera.Cam.Body.Named()
	if len(named) != 5 || named[0].Name != "zoom_bottom" || named[4].Name != "center_split" {
		t.Fatalf("Named() = %+v", named)
	}
	if named[2].Graph != c.Camera.Cam.Body.ZoomTop {
		t.Fatalf("zoom_top does not point at the chart graph")
	}
}
