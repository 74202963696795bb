package graph

import "math"

// CurveEpsilon is the tolerance used when checking the a == 0.5 singularity.
const CurveEpsilon = 1e-6

// EvaluateCurve maps linear progress x to eased progress for the curve (a, b).
//
// The curve is the quadratic blend
//
//	x = 2(1-t)t·a + t²
//	y = 2(1-t)t·b + t²
//
// solved for t given x. Inputs are clamped to [0,1]. Where the closed form has
// no answer (a == 0.5, or a negative discriminant) the result is x.
func EvaluateCurve(a, b, x float64) float64 {
	a = clamp01(a)
	b = clamp01(b)
	x = clamp01(x)

	if (a == 0 && b == 0) || math.Abs(a-0.5) < CurveEpsilon {
		return x
	}

	d := a*a + x - 2*a*x
	if d < 0 {
		return x
	}

	t := (a - math.Sqrt(d)) / (2*a - 1)
	return clamp01(2*(1-t)*t*b + t*t)
}

// Evaluate applies the curve to x, returning x untouched for a linear curve.
func (c GraphCurveValue) Evaluate(x float64) float64 {
	if c.IsLinear() {
		return x
	}
	return EvaluateCurve(c.A, c.B, x)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// lerp is exact at both ends.
func lerp(a, b, t float64) float64 { return a*(1-t) + b*t }
