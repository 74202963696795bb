package index

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cbegin/kson-go/internal/chart"
	"github.com/cbegin/kson-go/internal/graph"
	"github.com/cbegin/kson-go/internal/ksonio"
	"github.com/cbegin/kson-go/internal/timeline"
	"github.com/cbegin/kson-go/internal/timing"
)

// Entry is the indexed summary of one chart file.
type Entry struct {
	Path        string
	Title       string
	Artist      string
	ChartAuthor string
	Difficulty  int
	Level       int
	MinBPM      float64
	MaxBPM      float64
	Notes       int
	// LaserSections counts sections on both laser lanes.
	LaserSections int
	// CurvedSegments counts segments with an easing curve across scroll
	// speed, camera body graphs and lasers.
	CurvedSegments int
	LastPulse      int64
	// DurationMs is the time of LastPulse; 0 when the chart has no tempo.
	DurationMs float64
	Warnings   int
}

// Summarize builds the index entry for a loaded chart.
func Summarize(path string, c *chart.ChartData) Entry {
	e := Entry{
		Path:          path,
		Title:         c.Meta.Title,
		Artist:        c.Meta.Artist,
		ChartAuthor:   c.Meta.ChartAuthor,
		Difficulty:    int(c.Meta.Difficulty.Idx),
		Level:         int(c.Meta.Level),
		Notes:         c.Note.Count(),
		LaserSections: c.Note.LaserSectionCount(),
		Warnings:      len(c.Warnings),
	}

	first := true
	c.Beat.BPM.Ascend(func(_ chart.Pulse, bpm float64) bool {
		if first || bpm < e.MinBPM {
			e.MinBPM = bpm
		}
		if first || bpm > e.MaxBPM {
			e.MaxBPM = bpm
		}
		first = false
		return true
	})

	e.CurvedSegments = countCurved(c.Beat.ScrollSpeed)
	for _, g := range c.Camera.Cam.Body.Named() {
		e.CurvedSegments += countCurved(g.Graph)
	}
	for _, lane := range c.Note.Laser {
		lane.Ascend(func(_ chart.Pulse, s graph.LaserSection) bool {
			e.CurvedSegments += countCurved(s.V)
			return true
		})
	}

	last := c.Note.LastPulse()
	e.LastPulse = int64(last)
	if cache, err := timing.ForChart(c); err == nil {
		e.DurationMs = cache.PulseToMs(last)
	}
	return e
}

// countCurved counts points that start a curved segment, i.e. that have a
// successor and a non-linear curve.
func countCurved[K timeline.Key](g *timeline.Map[K, graph.GraphPoint]) int {
	n := 0
	entries := g.Entries()
	for i := 0; i+1 < len(entries); i++ {
		if !entries[i].Value.Curve.IsLinear() {
			n++
		}
	}
	return n
}

// IndexDir loads every .kson file under dir and stores its summary. It keeps
// going past broken files and reports the first failure after the walk.
func IndexDir(ctx context.Context, s *Store, dir string) (int, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".kson") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("index: walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	indexed := 0
	var firstErr error
	var firstErrPath string
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		c, err := ksonio.LoadFile(p)
		if err == nil {
			err = s.Put(ctx, Summarize(p, c))
		}
		if err != nil {
			if firstErr == nil {
				firstErr, firstErrPath = err, p
			}
			continue
		}
		indexed++
	}
	if firstErr != nil {
		return indexed, fmt.Errorf("indexed %d/%d .kson files; first failure %s: %w", indexed, len(paths), firstErrPath, firstErr)
	}
	return indexed, nil
}
