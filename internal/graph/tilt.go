package graph

import (
	"strings"

	"github.com/cbegin/kson-go/internal/timeline"
)

// AutoTiltType is a camera tilt driven by the lasers instead of by keyframes.
type AutoTiltType int

const (
	AutoTiltNormal AutoTiltType = iota
	AutoTiltBigger
	AutoTiltBiggest
	AutoTiltKeepNormal
	AutoTiltKeepBigger
	AutoTiltKeepBiggest
	AutoTiltZero
)

var autoTiltNames = []string{
	AutoTiltNormal:      "normal",
	AutoTiltBigger:      "bigger",
	AutoTiltBiggest:     "biggest",
	AutoTiltKeepNormal:  "keep_normal",
	AutoTiltKeepBigger:  "keep_bigger",
	AutoTiltKeepBiggest: "keep_biggest",
	AutoTiltZero:        "zero",
}

// ParseAutoTiltType maps a KSON tilt name to its type. Unknown names are normal.
func ParseAutoTiltType(s string) AutoTiltType {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range autoTiltNames {
		if name == s {
			return AutoTiltType(i)
		}
	}
	return AutoTiltNormal
}

func (t AutoTiltType) String() string {
	if t < 0 || int(t) >= len(autoTiltNames) {
		return "normal"
	}
	return autoTiltNames[t]
}

// TiltGraphValue is a manual tilt keyframe value. When VFAuto is set the
// keyframe hands control back to the automatic tilt named by VFAutoType
// instead of continuing from VF.
type TiltGraphValue struct {
	V          float64
	VF         float64
	VFAuto     bool
	VFAutoType AutoTiltType
}

func TiltValueOf(v float64) TiltGraphValue { return TiltGraphValue{V: v, VF: v} }

type TiltGraphPoint struct {
	V     TiltGraphValue
	Curve GraphCurveValue
}

// TiltValue is one camera.tilt keyframe: an automatic tilt type, or a manual
// point when Manual is true.
type TiltValue struct {
	Manual bool
	Auto   AutoTiltType
	Point  TiltGraphPoint
}

func AutoTilt(t AutoTiltType) TiltValue { return TiltValue{Auto: t} }

func ManualTilt(p TiltGraphPoint) TiltValue { return TiltValue{Manual: true, Point: p} }

// TiltState is the resolved camera tilt at a pulse.
type TiltState struct {
	Manual bool
	Value  float64
	Auto   AutoTiltType
}

// TiltAt resolves the tilt at pulse. Before the first keyframe, and for an
// empty timeline, the tilt is automatic normal. A manual keyframe interpolates
// toward the next keyframe when that one is manual too, and holds otherwise.
func TiltAt(tilt *timeline.Map[Pulse, TiltValue], pulse Pulse) TiltState {
	cur, ok := tilt.Floor(pulse)
	if !ok {
		return TiltState{Auto: AutoTiltNormal}
	}
	if !cur.Value.Manual {
		return TiltState{Auto: cur.Value.Auto}
	}
	p1 := cur.Value.Point
	if pulse == cur.Key {
		if p1.V.VFAuto {
			// The keyframe itself still shows its manual value.
			return TiltState{Manual: true, Value: p1.V.V}
		}
		return TiltState{Manual: true, Value: p1.V.VF}
	}
	if p1.V.VFAuto {
		return TiltState{Auto: p1.V.VFAutoType}
	}
	next, ok := tilt.Higher(cur.Key)
	if !ok || !next.Value.Manual {
		return TiltState{Manual: true, Value: p1.V.VF}
	}
	rate := float64(pulse-cur.Key) / float64(next.Key-cur.Key)
	return TiltState{
		Manual: true,
		Value:  lerp(p1.V.VF, next.Value.Point.V.V, p1.Curve.Evaluate(rate)),
	}
}
