// Package kson evaluates the graphs of KSON rhythm game charts: easing
// curves, keyframed value graphs, laser and graph sections, and the
// expansion of curved segments into linear keyframes.
package kson

import (
	"github.com/cbegin/kson-go/internal/chart"
	"github.com/cbegin/kson-go/internal/graph"
	"github.com/cbegin/kson-go/internal/timeline"
)

type (
	Pulse      = timeline.Pulse
	RelPulse   = timeline.RelPulse
	MeasureIdx = timeline.MeasureIdx

	GraphCurveValue = graph.GraphCurveValue
	GraphValue      = graph.GraphValue
	GraphPoint      = graph.GraphPoint
	Graph           = graph.Graph
	RelGraph        = graph.RelGraph
	GraphSection    = graph.GraphSection
	LaserSection    = graph.LaserSection
	TiltValue       = graph.TiltValue
	TiltState       = graph.TiltState

	ChartData     = chart.ChartData
	MetaChartData = chart.MetaChartData
)

const (
	Resolution  = timeline.Resolution
	Resolution4 = timeline.Resolution4
)

var (
	ErrInvalidSubdivision = graph.ErrInvalidSubdivision
	ErrEmptyTimeline      = graph.ErrEmptyTimeline
)

func NewGraph() *Graph { return timeline.New[Pulse, GraphPoint]() }

func NewRelGraph() *RelGraph { return timeline.New[RelPulse, GraphPoint]() }

// EvaluateCurve maps x in [0,1] through the easing curve with control
// parameters a and b.
func EvaluateCurve(a, b, x float64) float64 {
	return graph.EvaluateCurve(a, b, x)
}

// GraphValueAt interpolates g at pulse.
func GraphValueAt(g *Graph, pulse Pulse) float64 {
	return graph.ValueAt(g, pulse)
}

// GraphSectionAt returns the start and the section owning pulse. It fails
// with ErrEmptyTimeline when there are no sections.
func GraphSectionAt[S graph.Section](sections *timeline.Map[Pulse, S], pulse Pulse) (Pulse, S, error) {
	return graph.SectionAt(sections, pulse)
}

func GraphSectionValueAt[S graph.Section](sections *timeline.Map[Pulse, S], pulse Pulse) (float64, bool) {
	return graph.SectionValueAt(sections, pulse)
}

func GraphSectionValueAtWithDefault[S graph.Section](sections *timeline.Map[Pulse, S], pulse Pulse, def float64) float64 {
	return graph.SectionValueAtOr(sections, pulse, def)
}

func GraphPointAt[S graph.Section](sections *timeline.Map[Pulse, S], pulse Pulse) (GraphPoint, bool) {
	return graph.PointAt(sections, pulse)
}

func ExpandCurveSegments(g *Graph, interval Pulse) (*Graph, error) {
	return graph.ExpandCurveSegments(g, interval)
}

func ExpandGraphSection(s GraphSection, interval RelPulse) (GraphSection, error) {
	return graph.ExpandGraphSection(s, interval)
}

func ExpandLaserSection(s LaserSection, interval RelPulse) (LaserSection, error) {
	return graph.ExpandLaserSection(s, interval)
}

// TiltAt resolves the camera tilt of c at pulse.
func TiltAt(c *ChartData, pulse Pulse) TiltState {
	return graph.TiltAt(c.Camera.Tilt, pulse)
}
