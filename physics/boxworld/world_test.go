package boxworld

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/physics"
)

var testShape = physics.Capsule(30, 90)

func TestSweepOntoFloor(t *testing.T) {
	w := New()
	floor := w.AddFloor(0, 1000)

	hit, ok := w.SweepCapsule(mgl64.Vec3{0, 0, 200}, mgl64.Vec3{0, 0, 0}, testShape)
	if !ok {
		t.Fatalf("expected to hit the floor")
	}
	if hit.StartPenetrating {
		t.Fatalf("sweep should not start penetrating")
	}
	if !hit.Normal.ApproxEqual(mgl64.Vec3{0, 0, 1}) {
		t.Fatalf("expected an upward normal, got %v", hit.Normal)
	}
	if math.Abs(hit.Location.Z()-90.1) > 1e-6 {
		t.Fatalf("expected the capsule to rest just above the floor, got z=%f", hit.Location.Z())
	}
	if hit.ImpactPoint.Z() != 0 {
		t.Fatalf("expected the impact point on the floor surface, got %v", hit.ImpactPoint)
	}
	if hit.Base == nil || hit.Base.ID() != floor.ID() {
		t.Fatalf("expected the floor as the hit base")
	}
}

func TestSweepIgnoresOverlapWhenMovingOut(t *testing.T) {
	w := New()
	w.AddFloor(0, 1000)

	if _, ok := w.SweepCapsule(mgl64.Vec3{0, 0, 80}, mgl64.Vec3{0, 0, 120}, testShape); ok {
		t.Fatalf("a sweep leaving the floor should not report a hit")
	}
	hit, ok := w.SweepCapsule(mgl64.Vec3{0, 0, 80}, mgl64.Vec3{0, 0, 40}, testShape)
	if !ok || !hit.StartPenetrating {
		t.Fatalf("expected a penetrating hit when moving further in")
	}
	if math.Abs(hit.PenetrationDepth-10) > 1e-9 {
		t.Fatalf("expected a penetration depth of 10, got %f", hit.PenetrationDepth)
	}
}

func TestSweepAgainstWall(t *testing.T) {
	w := New()
	w.AddFloor(0, 1000)
	w.AddBox(mgl64.Vec3{100, -100, 0}, mgl64.Vec3{120, 100, 300})

	hit, ok := w.SweepCapsule(mgl64.Vec3{0, 0, 92}, mgl64.Vec3{200, 0, 92}, testShape)
	if !ok {
		t.Fatalf("expected to hit the wall")
	}
	if !hit.Normal.ApproxEqual(mgl64.Vec3{-1, 0, 0}) {
		t.Fatalf("expected the wall normal to face -X, got %v", hit.Normal)
	}
	if hit.Location.X() > 70 {
		t.Fatalf("capsule passed into the wall: x=%f", hit.Location.X())
	}
}

func TestLineTrace(t *testing.T) {
	w := New()
	w.AddFloor(0, 1000)

	hit, ok := w.LineTrace(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, -10})
	if !ok {
		t.Fatalf("expected the trace to hit the floor")
	}
	if math.Abs(hit.Time-0.5) > 1e-9 {
		t.Fatalf("expected time 0.5, got %f", hit.Time)
	}
	if _, ok := w.LineTrace(mgl64.Vec3{0, 0, -10}, mgl64.Vec3{0, 0, -20}); ok {
		t.Fatalf("a trace starting inside a box should be ignored")
	}
}

func TestRamp(t *testing.T) {
	w := New()
	ramp := w.AddRamp(mgl64.Vec2{0, -100}, mgl64.Vec2{200, 100}, 0, 100, false)

	if h := ramp.HeightAt(100, 0); math.Abs(h-50) > 1e-9 {
		t.Fatalf("expected a height of 50 at the middle of the ramp, got %f", h)
	}
	hit, ok := w.SweepCapsule(mgl64.Vec3{100, 0, 300}, mgl64.Vec3{100, 0, 0}, testShape)
	if !ok {
		t.Fatalf("expected to land on the ramp")
	}
	if !hit.ImpactNormal.ApproxEqual(ramp.Normal()) {
		t.Fatalf("expected the ramp normal, got %v", hit.ImpactNormal)
	}
	if hit.ImpactNormal.Z() < 0.89 || hit.ImpactNormal.Z() > 0.9 {
		t.Fatalf("unexpected ramp steepness %v", hit.ImpactNormal)
	}
	if w.Overlaps(hit.Location, testShape) {
		t.Fatalf("the sweep result should not overlap the ramp")
	}
	if !w.Overlaps(hit.Location.Sub(mgl64.Vec3{0, 0, 5}), testShape) {
		t.Fatalf("expected an overlap below the sweep result")
	}
}

func TestImmersionDepth(t *testing.T) {
	w := New()
	w.AddWater(mgl64.Vec3{-500, -500, -200}, mgl64.Vec3{500, 500, 0})

	if d := w.ImmersionDepth(mgl64.Vec3{0, 0, 0}, testShape); math.Abs(d-0.5) > 1e-9 {
		t.Fatalf("expected half of the capsule to be submerged, got %f", d)
	}
	if d := w.ImmersionDepth(mgl64.Vec3{0, 0, 200}, testShape); d != 0 {
		t.Fatalf("expected no immersion above the water, got %f", d)
	}
}

func TestPlatformAdvance(t *testing.T) {
	w := New()
	p := w.AddPlatform(mgl64.Vec3{}, mgl64.Vec3{-100, -100, -10}, mgl64.Vec3{100, 100, 0}, mgl64.Vec3{50, 0, 0}, 90)
	w.Advance(2)

	if !p.Location().ApproxEqual(mgl64.Vec3{100, 0, 0}) {
		t.Fatalf("expected the platform to move 100 units, got %v", p.Location())
	}
	if p.Rotation().Yaw != 180 {
		t.Fatalf("expected a yaw of 180, got %f", p.Rotation().Yaw)
	}
	base, ok := w.BaseByID(p.ID())
	if !ok || !base.Dynamic() {
		t.Fatalf("expected to resolve the platform as a dynamic base")
	}
	hit, ok := w.SweepCapsule(mgl64.Vec3{150, 0, 200}, mgl64.Vec3{150, 0, 0}, testShape)
	if !ok || hit.Base.ID() != p.ID() {
		t.Fatalf("expected to land on the moved platform")
	}
}
