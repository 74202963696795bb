package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/cbegin/kson-go"
	"github.com/cbegin/kson-go/internal/chart"
	"github.com/cbegin/kson-go/internal/config"
	"github.com/cbegin/kson-go/internal/effects"
	"github.com/cbegin/kson-go/internal/graph"
	"github.com/cbegin/kson-go/internal/index"
	"github.com/cbegin/kson-go/internal/timing"
)

func main() {
	var (
		chartPath  = flag.String("file", "", "path to a .kson chart")
		configPath = flag.String("config", "", "optional yaml config file")
		envPath    = flag.String("env", ".env", "env file with KSON_* overrides")
		at         = flag.String("at", "0", "comma separated pulses to evaluate")
		expand     = flag.Int64("expand", 0, "expand curves with this interval in pulses (0 = config subdivision)")
		indexPath  = flag.String("index", "", "sqlite index path (default from config)")
		dir        = flag.String("dir", "", "index every .kson file under this directory")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath, *envPath)
	if err != nil {
		log.Fatal(err)
	}
	if *expand > 0 {
		cfg.Subdivision = kson.RelPulse(*expand)
	}
	if *indexPath != "" {
		cfg.IndexPath = *indexPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if *dir != "" {
		if err := runIndex(cfg, *dir); err != nil {
			log.Fatal(err)
		}
		if *chartPath == "" {
			return
		}
	}
	if strings.TrimSpace(*chartPath) == "" {
		log.Fatal("missing -file (or -dir to build an index)")
	}

	pulses, err := parsePulses(*at)
	if err != nil {
		log.Fatal(err)
	}
	c, err := kson.LoadFile(*chartPath,
		kson.WithStrict(cfg.Strict),
		kson.WithWarningHook(func(w string) { log.Println("[WARN]", w) }))
	if err != nil {
		log.Fatal(err)
	}
	printChart(c, pulses, cfg.Subdivision)
}

func loadConfig(path, envPath string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.LoadEnv(envPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
		log.Println("[INFO] No env file found, using process environment")
	}
	return cfg, nil
}

func parsePulses(s string) ([]kson.Pulse, error) {
	var out []kson.Pulse
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid -at pulse %q: %w", field, err)
		}
		out = append(out, kson.Pulse(n))
	}
	return out, nil
}

func printChart(c *kson.ChartData, pulses []kson.Pulse, interval kson.RelPulse) {
	fmt.Printf("%s / %s (%s, level %d)\n", c.Meta.Title, c.Meta.Artist, c.Meta.ChartAuthor, c.Meta.Level)
	fmt.Printf("notes %d, laser sections %d, last pulse %d, warnings %d\n",
		c.Note.Count(), c.Note.LaserSectionCount(), c.Note.LastPulse(), len(c.Warnings))

	cache, err := timing.ForChart(c)
	if err != nil {
		log.Println("[WARN] timing unavailable:", err)
	}
	for _, y := range pulses {
		fmt.Printf("\npulse %d\n", y)
		if cache != nil {
			m := cache.PulseToMeasure(y)
			start := cache.MeasureToPulse(m)
			fmt.Printf("  time %.3f ms, bpm %g, measure %d (%d notes)\n", cache.PulseToMs(y), cache.BPMAt(y), m,
				c.Note.CountInRange(start, start+cache.MeasureLength(m)))
		}
		fmt.Printf("  scroll_speed %g\n", kson.GraphValueAt(c.Beat.ScrollSpeed, y))
		for i, lane := range c.Note.Laser {
			if v, ok := kson.GraphSectionValueAt(lane, y); ok {
				fmt.Printf("  laser[%d] %g\n", i, v)
			} else {
				fmt.Printf("  laser[%d] -\n", i)
			}
		}
		tilt := kson.TiltAt(c, y)
		if tilt.Manual {
			fmt.Printf("  tilt %g\n", tilt.Value)
		} else {
			fmt.Printf("  tilt auto %s\n", tilt.Auto)
		}
		for _, g := range c.Camera.Cam.Body.Named() {
			fmt.Printf("  %s %g\n", g.Name, kson.GraphValueAt(g.Graph, y))
		}
		printLaserEffects(c, y)
	}

	lin, err := kson.Linearize(c, interval)
	if err != nil {
		log.Println("[WARN] expand:", err)
		return
	}
	fmt.Printf("\nexpansion every %d pulses\n", interval)
	fmt.Printf("  scroll_speed %d -> %d keyframes\n", c.Beat.ScrollSpeed.Len(), lin.Beat.ScrollSpeed.Len())
	orig, expanded := c.Camera.Cam.Body.Named(), lin.Camera.Cam.Body.Named()
	for i := range orig {
		fmt.Printf("  %s %d -> %d keyframes\n", orig[i].Name, orig[i].Graph.Len(), expanded[i].Graph.Len())
	}
	for i := range c.Note.Laser {
		fmt.Printf("  laser[%d] %d -> %d points\n", i, laserPoints(c.Note.Laser[i]), laserPoints(lin.Note.Laser[i]))
	}
}

// printLaserEffects prints each laser effect's parameters at pulse, resolved
// against the current laser position (0 when no laser is active).
func printLaserEffects(c *kson.ChartData, y kson.Pulse) {
	fx := c.Audio.AudioEffect.Laser
	pos := 0.0
	for _, lane := range c.Note.Laser {
		if v, ok := kson.GraphSectionValueAt(lane, y); ok {
			pos = max(pos, v)
		}
	}
	for _, def := range fx.Def {
		params, _ := effects.ParamsAt(fx.Def, fx.ParamChange, def.Name, y)
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var parts []string
		for _, k := range keys {
			p, err := effects.ParseParam(params[k])
			if err != nil {
				parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
				continue
			}
			parts = append(parts, fmt.Sprintf("%s=%g%s", k, p.At(pos), unitSuffix(p.On.Unit)))
		}
		fmt.Printf("  laser fx %s (%s) %s\n", def.Name, def.V.Type, strings.Join(parts, " "))
	}
}

func unitSuffix(u effects.Unit) string {
	if u == effects.UnitNone {
		return ""
	}
	return " " + u.String()
}

func laserPoints(lane *chart.LaserLane) int {
	n := 0
	lane.Ascend(func(_ kson.Pulse, s graph.LaserSection) bool {
		n += s.V.Len()
		return true
	})
	return n
}

func runIndex(cfg config.Config, dir string) error {
	store, err := index.Open(cfg.IndexPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	n, err := index.IndexDir(ctx, store, dir)
	if err != nil {
		log.Println("[WARN]", err)
	}
	log.Printf("[INFO] indexed %d charts into %s", n, cfg.IndexPath)

	entries, err := store.List(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%-40s %-24s lv%-2d %6.1f-%-6.1f bpm %5d notes %3d curves %8.0f ms\n",
			e.Path, e.Title, e.Level, e.MinBPM, e.MaxBPM, e.Notes, e.CurvedSegments, e.DurationMs)
	}
	return nil
}
