package settings

import "sort"

// Key is a single point of a curve.
type Key struct {
	Time  float64
	Value float64
}

// Curve is a piecewise linear curve. Values outside the range of its keys are clamped to the first and last key,
// and an empty curve always evaluates to zero.
type Curve []Key

// NewCurve creates a curve from the given keys, sorting them by time.
func NewCurve(keys ...Key) Curve {
	c := make(Curve, len(keys))
	copy(c, keys)
	sort.SliceStable(c, func(i, j int) bool { return c[i].Time < c[j].Time })
	return c
}

// Eval evaluates the curve at t.
func (c Curve) Eval(t float64) float64 {
	switch {
	case len(c) == 0:
		return 0
	case t <= c[0].Time:
		return c[0].Value
	case t >= c[len(c)-1].Time:
		return c[len(c)-1].Value
	}

	i := sort.Search(len(c), func(i int) bool { return c[i].Time > t })
	a, b := c[i-1], c[i]
	span := b.Time - a.Time
	if span <= 0 {
		return b.Value
	}
	return a.Value + (b.Value-a.Value)*(t-a.Time)/span
}

// CurveVector holds the acceleration, deceleration and ground friction channels evaluated against the gait
// amount.
type CurveVector struct {
	Acceleration Curve
	Deceleration Curve
	Friction     Curve
}

// Eval evaluates all three channels at t.
func (v *CurveVector) Eval(t float64) (acceleration, deceleration, friction float64) {
	return v.Acceleration.Eval(t), v.Deceleration.Eval(t), v.Friction.Eval(t)
}
