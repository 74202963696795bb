package graph

import (
	"errors"

	"github.com/cbegin/kson-go/internal/timeline"
)

type (
	Pulse    = timeline.Pulse
	RelPulse = timeline.RelPulse
)

var (
	ErrInvalidSubdivision = errors.New("subdivision interval must be positive")
	ErrEmptyTimeline      = errors.New("timeline has no keyframes")
)

// GraphCurveValue holds the easing parameters of the segment leaving a point.
// Both zero means a straight line.
type GraphCurveValue struct {
	A float64
	B float64
}

func (c GraphCurveValue) IsLinear() bool { return c.A == 0 && c.B == 0 }

// GraphValue is the value entered at a keyframe (V) and the value the next
// segment starts from (VF). V != VF is an instantaneous jump (a slam).
type GraphValue struct {
	V  float64
	VF float64
}

// Value returns a GraphValue without a jump.
func Value(v float64) GraphValue { return GraphValue{V: v, VF: v} }

func (v GraphValue) IsSlam() bool { return v.V != v.VF }

type GraphPoint struct {
	V     GraphValue
	Curve GraphCurveValue
}

// Point returns a plain point holding v with a linear outgoing segment.
func Point(v float64) GraphPoint { return GraphPoint{V: Value(v)} }

// Graph is a whole-chart timeline keyed by absolute pulse.
type Graph = timeline.Map[Pulse, GraphPoint]

// RelGraph is a section-local timeline keyed by offset from the section start.
type RelGraph = timeline.Map[RelPulse, GraphPoint]

// Section is a bounded sub-timeline stored in a lane keyed by its start pulse.
type Section interface {
	Points() *RelGraph
}

type GraphSection struct {
	V *RelGraph
}

func (s GraphSection) Points() *RelGraph { return s.V }

const (
	LaserXScale1x int32 = 1
	LaserXScale2x int32 = 2
)

// LaserSection is one laser stroke. W selects the 1x or 2x wide lane.
type LaserSection struct {
	V *RelGraph
	W int32
}

func (s LaserSection) Points() *RelGraph { return s.V }

func (s LaserSection) Wide() bool { return s.W == LaserXScale2x }

// PointsEqual compares two points exactly.
func PointsEqual(a, b GraphPoint) bool { return a == b }
