package graph

import "github.com/cbegin/kson-go/internal/timeline"

// ValueAt returns the value of g at the given coordinate.
//
// Between two keyframes the outgoing value of the earlier one is blended
// toward the incoming value of the later one using the earlier keyframe's
// curve. Before the first keyframe the first incoming value is returned, and
// at or after the last keyframe its outgoing value is held. An empty graph
// evaluates to 0.
func ValueAt[K timeline.Key](g *timeline.Map[K, GraphPoint], at K) float64 {
	cur, ok := g.Floor(at)
	if !ok {
		first, ok := g.First()
		if !ok {
			return 0
		}
		return first.Value.V.V
	}
	next, ok := g.Higher(cur.Key)
	if !ok {
		return cur.Value.V.VF
	}
	p1, p2 := cur.Value, next.Value
	rate := float64(at-cur.Key) / float64(next.Key-cur.Key)
	return lerp(p1.V.VF, p2.V.V, p1.Curve.Evaluate(rate))
}

// SectionAt returns the section owning pulse: the one with the greatest start
// <= pulse, or the first section when pulse precedes them all.
func SectionAt[S Section](sections *timeline.Map[Pulse, S], pulse Pulse) (Pulse, S, error) {
	e, ok := sections.Owning(pulse)
	if !ok {
		var zero S
		return 0, zero, ErrEmptyTimeline
	}
	return e.Key, e.Value, nil
}

// SectionValueAt evaluates the section owning pulse. It reports false when
// there is no section, the section has fewer than two points, or pulse lies
// before the section's first point or at/after its last point.
func SectionValueAt[S Section](sections *timeline.Map[Pulse, S], pulse Pulse) (float64, bool) {
	y, section, err := SectionAt(sections, pulse)
	if err != nil {
		return 0, false
	}
	points := section.Points()
	if points.Len() <= 1 {
		return 0, false
	}
	ry := RelPulse(pulse - y)
	first, _ := points.First()
	if ry < first.Key {
		return 0, false
	}
	last, _ := points.Last()
	if ry >= last.Key {
		return 0, false
	}
	return ValueAt(points, ry), true
}

// SectionValueAtOr is SectionValueAt with def substituted for a missing value.
func SectionValueAtOr[S Section](sections *timeline.Map[Pulse, S], pulse Pulse, def float64) float64 {
	if v, ok := SectionValueAt(sections, pulse); ok {
		return v
	}
	return def
}

// PointAt returns the keyframe placed exactly at pulse, if any.
func PointAt[S Section](sections *timeline.Map[Pulse, S], pulse Pulse) (GraphPoint, bool) {
	y, section, err := SectionAt(sections, pulse)
	if err != nil {
		return GraphPoint{}, false
	}
	return section.Points().Get(RelPulse(pulse - y))
}
