package kson

import (
	"errors"
	"slices"

	"github.com/cbegin/kson-go/internal/graph"
	"github.com/cbegin/kson-go/internal/timeline"
)

var ErrInvalidStep = errors.New("kson: sample step must be positive")

const maxSamplePrealloc = 1 << 16

// Sample is one evaluated point of a graph.
type Sample struct {
	Y Pulse
	V float64
}

// SampleGraph evaluates g every step pulses from from to to inclusive.
func SampleGraph(g *Graph, from, to Pulse, step RelPulse) ([]Sample, error) {
	return sampleRange(from, to, step, func(y Pulse) float64 {
		return graph.ValueAt(g, y)
	})
}

// SampleSections evaluates a lane of sections like SampleGraph. Pulses with
// no defined section value get def.
func SampleSections[S graph.Section](lane *timeline.Map[Pulse, S], from, to Pulse, step RelPulse, def float64) ([]Sample, error) {
	return sampleRange(from, to, step, func(y Pulse) float64 {
		return graph.SectionValueAtOr(lane, y, def)
	})
}

func sampleRange(from, to Pulse, step RelPulse, eval func(Pulse) float64) ([]Sample, error) {
	if step <= 0 {
		return nil, ErrInvalidStep
	}
	if to < from {
		return nil, nil
	}
	// Differences are taken as uint64 so ranges wider than MaxInt64 do not wrap.
	n := (uint64(to)-uint64(from))/uint64(step) + 1
	if n == 0 || n > maxSamplePrealloc {
		n = maxSamplePrealloc
	}
	out := make([]Sample, 0, n)
	for y := from; ; y += Pulse(step) {
		out = append(out, Sample{Y: y, V: eval(y)})
		if uint64(to)-uint64(y) < uint64(step) {
			break
		}
	}
	return out, nil
}

// Linearize returns a shallow copy of c in which the scroll speed, the camera
// body graphs and both laser lanes have every curved segment expanded into
// linear keyframes interval pulses apart. c is left untouched.
func Linearize(c *ChartData, interval RelPulse) (*ChartData, error) {
	if interval <= 0 {
		return nil, ErrInvalidSubdivision
	}
	out := *c
	out.Warnings = slices.Clone(c.Warnings)

	var err error
	if out.Beat.ScrollSpeed, err = graph.ExpandCurveSegments(c.Beat.ScrollSpeed, Pulse(interval)); err != nil {
		return nil, err
	}
	body := &out.Camera.Cam.Body
	for _, g := range []**Graph{&body.ZoomBottom, &body.ZoomSide, &body.ZoomTop, &body.RotationDeg, &body.CenterSplit} {
		if *g, err = graph.ExpandCurveSegments(*g, Pulse(interval)); err != nil {
			return nil, err
		}
	}
	for i, lane := range c.Note.Laser {
		if out.Note.Laser[i], err = graph.ExpandSections(lane, interval, graph.ExpandLaserSection); err != nil {
			return nil, err
		}
	}
	return &out, nil
}
