package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"log"
	"math"
	"path/filepath"

	"github.com/cbegin/kson-go"
	"github.com/cbegin/kson-go/internal/chart"
	"github.com/cbegin/kson-go/internal/config"
	"github.com/cbegin/kson-go/internal/graph"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	minWindowW = 640
	minWindowH = 360

	listW   = 150
	margin  = 12
	lineH   = 16
	markerR = 2

	minInterval = kson.RelPulse(1)
	maxInterval = kson.RelPulse(kson.Resolution4)
)

var (
	bgColor        = color.RGBA{24, 24, 32, 255}
	panelColor     = color.RGBA{40, 44, 58, 255}
	gridColor      = color.RGBA{60, 64, 80, 255}
	highlightColor = color.RGBA{0, 0, 128, 255}
	curveColor     = color.RGBA{120, 200, 255, 255}
	keyColor       = color.RGBA{255, 220, 80, 255}
	expandedColor  = color.RGBA{255, 110, 110, 255}
)

type plotPoint struct {
	y kson.Pulse
	v float64
}

// timelineView is one selectable timeline: its evaluator, the original
// keyframes and the keyframes after expansion, both as polylines.
type timelineView struct {
	name     string
	value    func(kson.Pulse) (float64, bool)
	keys     [][]plotPoint
	expanded [][]plotPoint
}

type game struct {
	chart    *kson.ChartData
	path     string
	views    []timelineView
	selected int
	expand   bool
	interval kson.RelPulse
	status   string

	viewW int
	viewH int
}

func newGame(c *kson.ChartData, path string, cfg config.Config) (*game, error) {
	g := &game{
		chart:    c,
		path:     path,
		expand:   true,
		interval: cfg.Subdivision,
		viewW:    cfg.Window.Width,
		viewH:    cfg.Window.Height,
	}
	if err := g.rebuild(); err != nil {
		return nil, err
	}
	return g, nil
}

// rebuild recomputes the expanded keyframes for the current interval.
func (g *game) rebuild() error {
	lin, err := kson.Linearize(g.chart, g.interval)
	if err != nil {
		return err
	}
	c := g.chart
	views := []timelineView{{
		name:     "scroll_speed",
		value:    graphValue(c.Beat.ScrollSpeed),
		keys:     graphStrokes(c.Beat.ScrollSpeed),
		expanded: graphStrokes(lin.Beat.ScrollSpeed),
	}}
	for i, name := range []string{"laser_l", "laser_r"} {
		lane := c.Note.Laser[i]
		views = append(views, timelineView{
			name: name,
			value: func(y kson.Pulse) (float64, bool) {
				return kson.GraphSectionValueAt(lane, y)
			},
			keys:     laserStrokes(lane),
			expanded: laserStrokes(lin.Note.Laser[i]),
		})
	}
	orig, expanded := c.Camera.Cam.Body.Named(), lin.Camera.Cam.Body.Named()
	for i := range orig {
		views = append(views, timelineView{
			name:     orig[i].Name,
			value:    graphValue(orig[i].Graph),
			keys:     graphStrokes(orig[i].Graph),
			expanded: graphStrokes(expanded[i].Graph),
		})
	}
	g.views = views
	g.status = fmt.Sprintf("interval %d pulses", g.interval)
	return nil
}

func graphValue(gr *kson.Graph) func(kson.Pulse) (float64, bool) {
	return func(y kson.Pulse) (float64, bool) {
		if gr.Empty() {
			return 0, false
		}
		return kson.GraphValueAt(gr, y), true
	}
}

// graphStrokes returns the keyframes of gr as one polyline. A slam adds a
// vertical step at its pulse.
func graphStrokes(gr *kson.Graph) [][]plotPoint {
	if gr.Empty() {
		return nil
	}
	var stroke []plotPoint
	gr.Ascend(func(y kson.Pulse, p kson.GraphPoint) bool {
		stroke = append(stroke, plotPoint{y, p.V.V})
		if p.V.IsSlam() {
			stroke = append(stroke, plotPoint{y, p.V.VF})
		}
		return true
	})
	return [][]plotPoint{stroke}
}

func laserStrokes(lane *chart.LaserLane) [][]plotPoint {
	var out [][]plotPoint
	lane.Ascend(func(start kson.Pulse, s graph.LaserSection) bool {
		var stroke []plotPoint
		s.V.Ascend(func(ry kson.RelPulse, p kson.GraphPoint) bool {
			y := start + kson.Pulse(ry)
			stroke = append(stroke, plotPoint{y, p.V.V})
			if p.V.IsSlam() {
				stroke = append(stroke, plotPoint{y, p.V.VF})
			}
			return true
		})
		out = append(out, stroke)
		return true
	})
	return out
}

func (g *game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		g.selected = (g.selected + len(g.views) - 1) % len(g.views)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		g.selected = (g.selected + 1) % len(g.views)
	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		g.expand = !g.expand
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		g.setInterval(g.interval * 2)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		g.setInterval(g.interval / 2)
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		if mx < margin+listW {
			if i := (my - margin - lineH) / lineH; i >= 0 && i < len(g.views) {
				g.selected = i
			}
		}
	}
	return nil
}

func (g *game) setInterval(v kson.RelPulse) {
	v = max(minInterval, min(maxInterval, v))
	if v == g.interval {
		return
	}
	prev := g.interval
	g.interval = v
	if err := g.rebuild(); err != nil {
		g.interval = prev
		g.status = err.Error()
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)

	list := image.Rect(margin, margin, margin+listW, g.viewH-margin-lineH)
	plot := image.Rect(list.Max.X+margin, margin, g.viewW-margin, g.viewH-margin-lineH)
	fillRect(screen, list, panelColor)
	fillRect(screen, plot, panelColor)

	ebitenutil.DebugPrintAt(screen, "Timelines", list.Min.X+4, list.Min.Y)
	for i, v := range g.views {
		y := list.Min.Y + lineH*(i+1)
		if i == g.selected {
			ebitenutil.DrawRect(screen, float64(list.Min.X), float64(y), float64(list.Dx()), lineH, highlightColor)
		}
		ebitenutil.DebugPrintAt(screen, v.name, list.Min.X+4, y)
	}

	g.drawPlot(screen, plot.Inset(margin))

	mode := "off"
	if g.expand {
		mode = "on"
	}
	status := fmt.Sprintf("%s | %s | expansion %s (E) | %s (+/-)", filepath.Base(g.path), g.chart.Meta.Title, mode, g.status)
	ebitenutil.DebugPrintAt(screen, status, margin, g.viewH-margin-lineH+2)
}

func (g *game) drawPlot(screen *ebiten.Image, rect image.Rectangle) {
	if len(g.views) == 0 || rect.Dx() <= 1 || rect.Dy() <= 1 {
		return
	}
	v := g.views[g.selected]

	end := max(g.chart.Note.LastPulse(), kson.Pulse(kson.Resolution4))
	for _, stroke := range v.keys {
		if n := len(stroke); n > 0 && stroke[n-1].y > end {
			end = stroke[n-1].y
		}
	}
	step := max(kson.Pulse(1), end/kson.Pulse(rect.Dx()))

	var samples []plotPoint
	lo, hi := math.Inf(1), math.Inf(-1)
	track := func(val float64) {
		lo, hi = min(lo, val), max(hi, val)
	}
	for y := kson.Pulse(0); y <= end; y += step {
		if val, ok := v.value(y); ok {
			samples = append(samples, plotPoint{y, val})
			track(val)
		} else {
			samples = append(samples, plotPoint{y, math.NaN()})
		}
	}
	for _, stroke := range v.keys {
		for _, p := range stroke {
			track(p.v)
		}
	}
	if math.IsInf(lo, 0) {
		ebitenutil.DebugPrintAt(screen, "(empty)", rect.Min.X, rect.Min.Y)
		return
	}
	if hi-lo < 1e-9 {
		lo, hi = lo-1, hi+1
	}

	toScreen := func(p plotPoint) (float64, float64) {
		x := float64(rect.Min.X) + float64(p.y)/float64(end)*float64(rect.Dx())
		y := float64(rect.Max.Y) - (p.v-lo)/(hi-lo)*float64(rect.Dy())
		return x, y
	}

	for m := kson.Pulse(0); m <= end; m += kson.Pulse(kson.Resolution4) {
		x, _ := toScreen(plotPoint{y: m})
		ebitenutil.DrawRect(screen, x, float64(rect.Min.Y), 1, float64(rect.Dy()), gridColor)
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.3g", hi), rect.Min.X+2, rect.Min.Y)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.3g", lo), rect.Min.X+2, rect.Max.Y-lineH)

	for i := 1; i < len(samples); i++ {
		a, b := samples[i-1], samples[i]
		if math.IsNaN(a.v) || math.IsNaN(b.v) {
			continue
		}
		x1, y1 := toScreen(a)
		x2, y2 := toScreen(b)
		ebitenutil.DrawLine(screen, x1, y1, x2, y2, curveColor)
	}

	if g.expand {
		for _, stroke := range v.expanded {
			for i := 1; i < len(stroke); i++ {
				x1, y1 := toScreen(stroke[i-1])
				x2, y2 := toScreen(stroke[i])
				ebitenutil.DrawLine(screen, x1, y1, x2, y2, expandedColor)
			}
		}
	}
	for _, stroke := range v.keys {
		for _, p := range stroke {
			x, y := toScreen(p)
			ebitenutil.DrawRect(screen, x-markerR, y-markerR, markerR*2+1, markerR*2+1, keyColor)
		}
	}
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	g.viewW = max(outsideW, minWindowW)
	g.viewH = max(outsideH, minWindowH)
	return g.viewW, g.viewH
}

func fillRect(screen *ebiten.Image, rect image.Rectangle, c color.Color) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), c)
}

func main() {
	var (
		configPath = flag.String("config", "", "optional yaml config file")
		envPath    = flag.String("env", ".env", "env file with KSON_* overrides")
	)
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatal("usage: kson_graph_ui [-config file] chart.kson")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if err := cfg.LoadEnv(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	path, err := filepath.Abs(flag.Arg(0))
	if err != nil {
		log.Fatalf("resolve %q: %v", flag.Arg(0), err)
	}
	c, err := kson.LoadFile(path,
		kson.WithStrict(cfg.Strict),
		kson.WithWarningHook(func(w string) { log.Println("[WARN]", w) }))
	if err != nil {
		log.Fatal(err)
	}

	g, err := newGame(c, path, cfg)
	if err != nil {
		log.Fatal(err)
	}
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle(fmt.Sprintf("kson graph inspector - %s", filepath.Base(path)))
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
