package ksonio

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cbegin/kson-go/internal/chart"
	"github.com/cbegin/kson-go/internal/effects"
	"github.com/cbegin/kson-go/internal/graph"
)

func loadSample(t *testing.T) *chart.ChartData {
	t.Helper()
	c, err := LoadFile(filepath.Join("testdata", "sample.kson"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	return c
}

func TestLoadMeta(t *testing.T) {
	c := loadSample(t)
	if c.Meta.Title != "Curve Test" || c.Meta.Artist != "kson-go" || c.Meta.ChartAuthor != "tester" {
		t.Fatalf("meta = %+v", c.Meta)
	}
	if c.Meta.Difficulty.Idx != 2 || c.Meta.Level != 14 || c.Meta.StdBPM != 120 {
		t.Fatalf("meta numbers = %+v", c.Meta)
	}
	if string(c.Impl) != `{"custom": [1, 2, 3]}` {
		t.Fatalf("impl = %s", c.Impl)
	}
}

func TestLoadBeat(t *testing.T) {
	c := loadSample(t)
	if bpm, _ := c.Beat.BPM.Get(3840); bpm != 240 {
		t.Fatalf("bpm at 3840 = %v", bpm)
	}
	if sig, ok := c.Beat.TimeSig.Get(4); !ok || sig.N != 3 || sig.D != 4 {
		t.Fatalf("time sig at measure 4 = %+v", sig)
	}
	if stop, _ := c.Beat.Stop.Get(2880); stop != 240 {
		t.Fatalf("stop = %v", stop)
	}

	p, ok := c.Beat.ScrollSpeed.Get(960)
	if !ok || p.V.V != 1 || p.V.VF != 2 || p.Curve != (graph.GraphCurveValue{A: 0.25, B: 0.75}) {
		t.Fatalf("scroll speed point = %+v", p)
	}
	want := 2 - graph.EvaluateCurve(0.25, 0.75, 0.5)
	if got := graph.ValueAt(c.Beat.ScrollSpeed, 1440); math.Abs(got-want) > 1e-12 {
		t.Fatalf("scroll speed at 1440 = %v, want %v", got, want)
	}
}

func TestLoadNotes(t *testing.T) {
	c := loadSample(t)
	if got := c.Note.Count(); got != 6 {
		t.Fatalf("note count = %d, want 6", got)
	}
	if iv, ok := c.Note.BT[0].Get(480); !ok || iv.Length != 240 {
		t.Fatalf("long BT note = %+v", iv)
	}
	if c.Note.BT[1].Len() != 0 {
		t.Fatalf("malformed note kept")
	}
	if got := c.Note.LastPulse(); got != 2400 {
		t.Fatalf("last pulse = %d", got)
	}

	left, ok := c.Note.Laser[0].Get(960)
	if !ok || left.V.Len() != 3 || left.Wide() {
		t.Fatalf("left laser = %+v", left)
	}
	if v, ok := graph.SectionValueAt(c.Note.Laser[0], 960+240); !ok || v != 0.5 {
		t.Fatalf("left laser on slam = (%v, %v)", v, ok)
	}
	right, _ := c.Note.Laser[1].Get(1920)
	if !right.Wide() || c.Note.Laser[1].Len() != 1 {
		t.Fatalf("right laser = %+v, len %d", right, c.Note.Laser[1].Len())
	}
}

func TestLoadAudio(t *testing.T) {
	c := loadSample(t)
	bgm := c.Audio.BGM
	if bgm.Filename != "song.ogg" || bgm.Vol != 1 || bgm.Offset != 50 {
		t.Fatalf("bgm = %+v", bgm)
	}
	if bgm.Preview.Offset != 30000 || bgm.Preview.Duration != 15000 {
		t.Fatalf("preview = %+v", bgm.Preview)
	}

	clap := c.Audio.KeySound.FX.ChipEvent["clap"]
	if inv, ok := clap[0].Get(0); !ok || inv.Vol != 1 {
		t.Fatalf("bare chip event = %+v", inv)
	}
	if inv, _ := clap[0].Get(960); inv.Vol != 0.5 {
		t.Fatalf("chip event vol = %v", inv.Vol)
	}
	if !c.Audio.KeySound.Laser.SlamEvent["slam_up"].Contains(1200) {
		t.Fatalf("slam event missing")
	}

	fx := c.Audio.AudioEffect.FX
	def, ok := effects.DefByName(fx.Def, "re8")
	if !ok || def.Type != effects.TypeRetrigger || def.V["rate"] != "70%" {
		t.Fatalf("fx def = %+v", def)
	}
	params, _ := effects.ParamsAt(fx.Def, fx.ParamChange, "re8", 2000)
	if params["wave_length"] != "1/16" {
		t.Fatalf("param change not applied: %v", params)
	}
	if long, _ := fx.LongEvent["re8"][0].Get(0); long["update_period"] != "1/4" {
		t.Fatalf("long event = %v", long)
	}
	if !fx.LongEvent["re8"][1].Contains(2400) {
		t.Fatalf("bare long event missing")
	}

	laser := c.Audio.AudioEffect.Laser
	if laser.PeakingFilterDelay != 40 || !laser.PulseEvent["lpf"].Contains(960) {
		t.Fatalf("laser effects = %+v", laser)
	}
	lpf, _ := effects.DefByName(laser.Def, "lpf")
	p, err := effects.ParseParam(lpf.V["freq"])
	if err != nil || p.At(0) != 2000 || p.At(1) != 500 {
		t.Fatalf("lpf freq = %+v, %v", p, err)
	}
}

func TestLoadCamera(t *testing.T) {
	c := loadSample(t)
	tilt := c.Camera.Tilt

	cases := []struct {
		at   graph.Pulse
		want graph.TiltState
	}{
		{0, graph.TiltState{Auto: graph.AutoTiltBigger}},
		{960, graph.TiltState{Manual: true, Value: 1.5}},
		{1200, graph.TiltState{Manual: true, Value: -0.5}},
		{1440, graph.TiltState{Manual: true, Value: 0}},
		{1500, graph.TiltState{Auto: graph.AutoTiltKeepNormal}},
		{1920, graph.TiltState{Manual: true, Value: 0}},
		{5000, graph.TiltState{Manual: true, Value: 0}},
	}
	for _, tc := range cases {
		if got := graph.TiltAt(tilt, tc.at); got != tc.want {
			t.Errorf("TiltAt(%d) = %+v, want %+v", tc.at, got, tc.want)
		}
	}
	if tv, _ := tilt.Get(1680); tv.Point.Curve != (graph.GraphCurveValue{A: 0.25, B: 0.75}) || tv.Point.V.V != 2 {
		t.Fatalf("curved tilt = %+v", tv)
	}
	if tilt.Contains(2160) {
		t.Fatalf("malformed tilt entry kept")
	}

	body := c.Camera.Cam.Body
	if body.ZoomTop.Len() != 3 || body.RotationDeg.Len() != 2 || body.ZoomSide.Len() != 0 {
		t.Fatalf("cam body lens: top=%d rot=%d side=%d", body.ZoomTop.Len(), body.RotationDeg.Len(), body.ZoomSide.Len())
	}
	if spin, ok := c.Camera.Cam.PatternLaser.Spin.Get(960); !ok || spin.D != 1 || spin.Length != 480 {
		t.Fatalf("spin = %+v", spin)
	}
	swing, _ := c.Camera.Cam.PatternLaser.Swing.Get(1920)
	if swing.D != -1 || swing.V.Scale != 100 || swing.V.Repeat != 1 {
		t.Fatalf("swing = %+v", swing)
	}
}

func TestLoadMiscSections(t *testing.T) {
	c := loadSample(t)
	if c.Gauge.Total != 200 {
		t.Fatalf("gauge = %+v", c.Gauge)
	}
	layer := c.BG.Legacy.Layer
	if layer.Filename != "arrow" || !layer.Rotation.Tilt || layer.Rotation.Spin {
		t.Fatalf("layer = %+v", layer)
	}
	if v, _ := c.Editor.Comment.Get(0); v != "start" || c.Editor.AppName != "kshootmania" {
		t.Fatalf("editor = %+v", c.Editor)
	}
	if c.Compat.KSHVersion != "171" || c.Compat.KSHUnknown.Meta["ver"] != "x" || len(c.Compat.KSHUnknown.Line) != 1 {
		t.Fatalf("compat = %+v", c.Compat)
	}
}

func TestLoadWarnings(t *testing.T) {
	c := loadSample(t)
	want := []string{"Invalid note entry format", "Invalid laser section format", "Invalid tilt value at pulse 2160"}
	if len(c.Warnings) != len(want) {
		t.Fatalf("warnings = %q", c.Warnings)
	}
	for i := range want {
		if c.Warnings[i] != want[i] {
			t.Fatalf("warnings = %q, want %q", c.Warnings, want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(strings.NewReader(`{"format_version": 1}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Meta.Level != 1 || c.Audio.BGM.Vol != 1 || c.Audio.BGM.Preview.Duration != 15000 {
		t.Fatalf("defaults = %+v %+v", c.Meta, c.Audio.BGM)
	}
	if p, ok := c.Beat.ScrollSpeed.Get(0); !ok || p != graph.Point(1) || c.Beat.ScrollSpeed.Len() != 1 {
		t.Fatalf("default scroll speed = %+v", c.Beat.ScrollSpeed.Entries())
	}
	if !c.BG.Legacy.Layer.Rotation.Tilt || !c.BG.Legacy.Layer.Rotation.Spin {
		t.Fatalf("layer rotation should default to enabled")
	}
	if c.Note.BT[0] == nil || c.Note.Laser[1] == nil || c.Camera.Tilt == nil {
		t.Fatalf("timelines must be allocated")
	}
	if len(c.Warnings) != 0 || c.Impl != nil {
		t.Fatalf("unexpected warnings %q / impl %s", c.Warnings, c.Impl)
	}
}

func TestLoadNamedDifficultyAndBadFields(t *testing.T) {
	c, err := Load(strings.NewReader(`{"format_version": 1, "meta": {"difficulty": "EXTRA", "level": "high"}, "beat": 5}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Meta.Difficulty.Idx != 3 || c.Meta.Difficulty.Name != "EXTRA" {
		t.Fatalf("difficulty = %+v", c.Meta.Difficulty)
	}
	if c.Meta.Level != 1 {
		t.Fatalf("bad level should fall back to 1, got %d", c.Meta.Level)
	}
	if len(c.Warnings) != 2 {
		t.Fatalf("warnings = %q", c.Warnings)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{"missing version", `{"meta": {}}`, ErrMissingFormatVersion},
		{"null version", `{"format_version": null}`, ErrMissingFormatVersion},
		{"float version", `{"format_version": 1.5}`, ErrInvalidFormatVersion},
		{"string version", `{"format_version": "1"}`, ErrInvalidFormatVersion},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tc.doc)); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if _, err := LoadMeta(strings.NewReader(tc.doc)); !errors.Is(err, tc.want) {
				t.Fatalf("LoadMeta err = %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := Load(strings.NewReader(`{"format_version": 1`)); err == nil || !strings.HasPrefix(err.Error(), "kson:") {
		t.Fatalf("truncated JSON err = %v", err)
	}
	if _, err := Load(strings.NewReader(`[1, 2]`)); err == nil {
		t.Fatalf("non-object document must fail")
	}
	if _, err := LoadFile(filepath.Join("testdata", "missing.kson")); err == nil {
		t.Fatalf("missing file must fail")
	}
}

func TestLoadMetaOnly(t *testing.T) {
	m, err := LoadMetaFile(filepath.Join("testdata", "sample.kson"))
	if err != nil {
		t.Fatalf("LoadMetaFile: %v", err)
	}
	if m.Meta.Title != "Curve Test" || m.Audio.BGM.Filename != "song.ogg" || m.Audio.BGM.Preview.Offset != 30000 {
		t.Fatalf("meta chart = %+v", m)
	}
	if len(m.Warnings) != 0 {
		t.Fatalf("meta load should not see note warnings: %q", m.Warnings)
	}
}

func TestWarningsFollowKeyOrder(t *testing.T) {
	doc := `{
  "format_version": 1,
  "audio": {"audio_effect": {"fx": {"param_change": {
    "zeta":  {"freq": [[100, 5]], "mix": [[110, 6]]},
    "alpha": {"freq": [[200, 7]]},
    "mid":   {"wave_length": [[300, 8]]}
  }}}}
}`
	want := []string{
		"Invalid ByPulse entry value at pulse 200",
		"Invalid ByPulse entry value at pulse 300",
		"Invalid ByPulse entry value at pulse 100",
		"Invalid ByPulse entry value at pulse 110",
	}
	for i := 0; i < 20; i++ {
		c, err := Load(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(c.Warnings) != len(want) {
			t.Fatalf("warnings = %q, want %q", c.Warnings, want)
		}
		for j := range want {
			if c.Warnings[j] != want[j] {
				t.Fatalf("load %d: warnings = %q, want %q", i, c.Warnings, want)
			}
		}
	}
}
