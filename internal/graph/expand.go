package graph

import "github.com/cbegin/kson-go/internal/timeline"

// segmentShape tells expandSegments how to read and build points of one
// container kind.
type segmentShape[P any] struct {
	value  func(P) GraphValue
	curve  func(P) GraphCurveValue
	linear func(v float64) P
}

var graphPointShape = segmentShape[GraphPoint]{
	value:  func(p GraphPoint) GraphValue { return p.V },
	curve:  func(p GraphPoint) GraphCurveValue { return p.Curve },
	linear: Point,
}

// expandSegments returns a copy of src where every curved segment has been
// replaced by linear keyframes every interval ticks.
func expandSegments[K timeline.Key, P any](src *timeline.Map[K, P], interval K, shape segmentShape[P]) (*timeline.Map[K, P], error) {
	if interval <= 0 {
		return nil, ErrInvalidSubdivision
	}
	out := src.Clone()
	entries := src.Entries()
	for i := 0; i+1 < len(entries); i++ {
		y1, p1 := entries[i].Key, entries[i].Value
		y2, p2 := entries[i+1].Key, entries[i+1].Value

		curve := shape.curve(p1)
		if curve.IsLinear() {
			continue
		}
		from, to := shape.value(p1).VF, shape.value(p2).V
		length := y2 - y1
		for ry := interval; ry < length; ry += interval {
			rate := float64(ry) / float64(length)
			out.Insert(y1+ry, shape.linear(lerp(from, to, curve.Evaluate(rate))))
			// Stop before ry+interval could pass length and overflow.
			if length-ry <= interval {
				break
			}
		}
	}
	return out, nil
}

// ExpandCurveSegments approximates every curved segment of g with linear
// keyframes spaced interval pulses apart. Original keyframes are kept as-is
// and g is not modified.
func ExpandCurveSegments(g *Graph, interval Pulse) (*Graph, error) {
	return expandSegments(g, interval, graphPointShape)
}

// ExpandGraphSection is ExpandCurveSegments for a section's local points.
func ExpandGraphSection(s GraphSection, interval RelPulse) (GraphSection, error) {
	v, err := expandSegments(s.V, interval, graphPointShape)
	if err != nil {
		return GraphSection{}, err
	}
	return GraphSection{V: v}, nil
}

// ExpandLaserSection is ExpandCurveSegments for a laser stroke. The width flag
// is carried over unchanged.
func ExpandLaserSection(s LaserSection, interval RelPulse) (LaserSection, error) {
	v, err := expandSegments(s.V, interval, graphPointShape)
	if err != nil {
		return LaserSection{}, err
	}
	return LaserSection{V: v, W: s.W}, nil
}

// ExpandSections applies expand to every section of a lane and returns a new lane.
func ExpandSections[S Section](lane *timeline.Map[Pulse, S], interval RelPulse, expand func(S, RelPulse) (S, error)) (*timeline.Map[Pulse, S], error) {
	if interval <= 0 {
		return nil, ErrInvalidSubdivision
	}
	out := timeline.New[Pulse, S]()
	var err error
	lane.Ascend(func(y Pulse, s S) bool {
		var expanded S
		expanded, err = expand(s, interval)
		if err != nil {
			return false
		}
		out.Set(y, expanded)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
