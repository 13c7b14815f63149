package game

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestMappedRangeValueClamped(t *testing.T) {
	if v := MappedRangeValueClamped(150, 375, 1, 2, 375); v != 2 {
		t.Fatalf("expected 2, got %v", v)
	}
	if v := MappedRangeValueClamped(0, 150, 0, 1, -10); v != 0 {
		t.Fatalf("expected clamp to 0, got %v", v)
	}
	if v := MappedRangeValueClamped(375, 600, 2, 3, 10000); v != 3 {
		t.Fatalf("expected clamp to 3, got %v", v)
	}
}

func TestSafeNormal2D(t *testing.T) {
	n := SafeNormal2D(mgl64.Vec3{3, 4, 100})
	if math.Abs(n.X()-0.6) > 1e-12 || math.Abs(n.Y()-0.8) > 1e-12 || n.Z() != 0 {
		t.Fatalf("unexpected normal %v", n)
	}
	if n := SafeNormal2D(mgl64.Vec3{0, 0, 5}); !IsZero(n) {
		t.Fatalf("vertical vector must have zero 2D normal, got %v", n)
	}
}

func TestRotatorQuatRoundTrip(t *testing.T) {
	r := Rotator{Pitch: 20, Yaw: 135, Roll: -10}
	back := RotatorFromQuat(r.Quat())
	if !back.Equals(r, 1e-6) {
		t.Fatalf("expected %v, got %v", r, back)
	}
}

func TestRotatorForwardMatchesQuat(t *testing.T) {
	r := Rotator{Pitch: 30, Yaw: -60}
	a := r.Forward()
	b := r.RotateVector(mgl64.Vec3{1, 0, 0})
	if !IsNearlyZero(a.Sub(b), 1e-9) {
		t.Fatalf("forward %v does not match rotated axis %v", a, b)
	}
}

func TestTwistKeepsYawOnly(t *testing.T) {
	q := Twist(Rotator{Pitch: 45, Yaw: 90}, mgl64.Vec3{0, 0, 1})
	r := RotatorFromQuat(q)
	if math.Abs(r.Pitch) > 1e-6 || math.Abs(r.Yaw-90) > 1e-6 {
		t.Fatalf("expected pure yaw twist, got %v", r)
	}
}

func TestParseTags(t *testing.T) {
	if s, err := ParseStance("proning"); err != nil || s != StanceProning {
		t.Fatalf("unexpected stance %v, %v", s, err)
	}
	if _, err := ParseGait("crawling"); err == nil {
		t.Fatalf("expected error for unknown gait")
	}
}

func TestSamples(t *testing.T) {
	var s Samples
	if s.Mean() != 0 || s.Max() != 0 || s.Percentile(95) != 0 {
		t.Fatalf("expected empty samples to summarise to zero")
	}
	for _, v := range []float64{4, 1, 3, 2} {
		s.Add(v)
	}
	if s.Mean() != 2.5 || s.Max() != 4 {
		t.Fatalf("unexpected mean %v or max %v", s.Mean(), s.Max())
	}
	if p := s.Percentile(50); p != 2 {
		t.Fatalf("expected a median of 2, got %v", p)
	}
	if p := s.Percentile(100); p != 4 {
		t.Fatalf("expected the 100th percentile to be the maximum, got %v", p)
	}
	if d := s.StandardDeviation(); math.Abs(d-math.Sqrt(1.25)) > 1e-12 {
		t.Fatalf("unexpected standard deviation %v", d)
	}
}
