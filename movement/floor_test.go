package movement

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/physics"
)

// scriptedEngine answers capsule sweeps from a queue and line traces with a fixed hit. It records the shapes
// it was asked to sweep.
type scriptedEngine struct {
	sweeps []physics.Hit
	line   *physics.Hit
	shapes []physics.Shape
}

func (e *scriptedEngine) SweepCapsule(start, end mgl64.Vec3, shape physics.Shape) (physics.Hit, bool) {
	e.shapes = append(e.shapes, shape)
	if len(e.sweeps) == 0 {
		return physics.Hit{}, false
	}
	hit := e.sweeps[0]
	e.sweeps = e.sweeps[1:]
	hit.TraceStart, hit.TraceEnd = start, end
	return hit, true
}

func (e *scriptedEngine) LineTrace(start, end mgl64.Vec3) (physics.Hit, bool) {
	if e.line == nil {
		return physics.Hit{}, false
	}
	hit := *e.line
	hit.TraceStart, hit.TraceEnd = start, end
	return hit, true
}

func (e *scriptedEngine) Overlaps(mgl64.Vec3, physics.Shape) bool {
	return false
}

var floorLocation = mgl64.Vec3{0, 0, 92.15}

const floorCheckDist = 4.8

func TestLineFallbackKeepsSweepNormal(t *testing.T) {
	penetrating := physics.Hit{
		Blocking:         true,
		StartPenetrating: true,
		Normal:           mgl64.Vec3{1, 0, 0},
		ImpactNormal:     mgl64.Vec3{1, 0, 0},
		PenetrationDepth: 3,
		ImpactPoint:      floorLocation.Sub(mgl64.Vec3{0, 0, 90}),
	}

	tests := []struct {
		name          string
		hooks         Hooks
		wantNormal    mgl64.Vec3
		wantPenDepth  float64
		wantPenetrate bool
	}{
		{"base", BaseHooks{}, mgl64.Vec3{0, 0, 1}, 0, false},
		{"als", ALSHooks{}, penetrating.Normal, penetrating.PenetrationDepth, true},
	}
	for _, tt := range tests {
		e := &scriptedEngine{sweeps: []physics.Hit{penetrating, penetrating}}
		c := newTestCharacter(t, e, nil)
		c.Hooks = tt.hooks

		// The line trace starts at the capsule centre, so the floor is half a capsule plus 2cm away.
		traceDist := floorCheckDist + c.HalfHeight
		e.line = &physics.Hit{
			Blocking:     true,
			Time:         (c.HalfHeight + 2) / traceDist,
			Normal:       mgl64.Vec3{0, 0, 1},
			ImpactNormal: mgl64.Vec3{0, 0, 1},
		}

		floor := c.Hooks.ComputeFloorDistance(c, floorLocation, floorCheckDist, floorCheckDist, c.Tuning.Radius, nil)
		if !floor.LineTrace || !floor.IsWalkableFloor() {
			t.Fatalf("%s: expected a walkable line trace floor, got %+v", tt.name, floor)
		}
		if !mgl64.FloatEqualThreshold(floor.LineDist, 2, 1e-9) {
			t.Fatalf("%s: expected a line distance of 2, got %v", tt.name, floor.LineDist)
		}
		if floor.Hit.Normal != tt.wantNormal {
			t.Fatalf("%s: expected normal %v, got %v", tt.name, tt.wantNormal, floor.Hit.Normal)
		}
		if floor.Hit.PenetrationDepth != tt.wantPenDepth || floor.Hit.StartPenetrating != tt.wantPenetrate {
			t.Fatalf("%s: expected penetration %v/%v, got %v/%v", tt.name, tt.wantPenetrate, tt.wantPenDepth,
				floor.Hit.StartPenetrating, floor.Hit.PenetrationDepth)
		}
		if floor.Hit.ImpactNormal != (mgl64.Vec3{0, 0, 1}) {
			t.Fatalf("%s: the impact normal must come from the line trace, got %v", tt.name, floor.Hit.ImpactNormal)
		}
	}
}

func TestEdgeHitRetriesWithSmallerSweep(t *testing.T) {
	tests := []struct {
		name       string
		offset     float64
		wantSweeps int
	}{
		{"centre", 0, 1},
		{"inside tolerance", 29, 1},
		{"on the rim", 29.95, 2},
	}
	for _, tt := range tests {
		e := &scriptedEngine{}
		c := newTestCharacter(t, e, nil)
		radius, halfHeight := c.Tuning.Radius, c.HalfHeight

		// Both sweeps report a floor 2cm below the capsule, corrected for the height each sweep was shrunk by.
		firstShrink := (halfHeight - radius) * 0.1
		secondShrink := (halfHeight - radius) * 0.9
		e.sweeps = []physics.Hit{
			{
				Blocking:     true,
				Time:         (2 + firstShrink) / (floorCheckDist + firstShrink),
				ImpactPoint:  floorLocation.Add(mgl64.Vec3{tt.offset, 0, -halfHeight}),
				Normal:       mgl64.Vec3{0, 0, 1},
				ImpactNormal: mgl64.Vec3{0, 0, 1},
			},
			{
				Blocking:     true,
				Time:         (2 + secondShrink) / (floorCheckDist + secondShrink),
				ImpactPoint:  floorLocation.Sub(mgl64.Vec3{0, 0, halfHeight}),
				Normal:       mgl64.Vec3{0, 0, 1},
				ImpactNormal: mgl64.Vec3{0, 0, 1},
			},
		}

		floor := c.computeFloorDist(floorLocation, floorCheckDist, floorCheckDist, radius, nil, false)
		if len(e.shapes) != tt.wantSweeps {
			t.Fatalf("%s: expected %d sweeps, got %d", tt.name, tt.wantSweeps, len(e.shapes))
		}
		if !floor.IsWalkableFloor() || floor.LineTrace {
			t.Fatalf("%s: expected a walkable sweep floor, got %+v", tt.name, floor)
		}
		if !mgl64.FloatEqualThreshold(floor.FloorDist, 2, 1e-9) {
			t.Fatalf("%s: expected a floor distance of 2, got %v", tt.name, floor.FloorDist)
		}
		if tt.wantSweeps == 1 {
			continue
		}

		retry := e.shapes[1]
		wantRadius := radius - game.SweepEdgeRejectDistance - game.KindaSmallNumber
		if !mgl64.FloatEqualThreshold(retry.Radius, wantRadius, 1e-9) {
			t.Fatalf("%s: expected the retry to sweep a radius of %v, got %v", tt.name, wantRadius, retry.Radius)
		}
		if wantHalfHeight := math.Max(halfHeight-secondShrink, retry.Radius); !mgl64.FloatEqualThreshold(retry.HalfHeight, wantHalfHeight, 1e-9) {
			t.Fatalf("%s: expected the retry to sweep a half height of %v, got %v", tt.name, wantHalfHeight, retry.HalfHeight)
		}
	}
}

func TestUnwalkableSweepWithoutLineFloor(t *testing.T) {
	steep := physics.Hit{
		Blocking:     true,
		Time:         0.5,
		ImpactPoint:  floorLocation.Sub(mgl64.Vec3{0, 0, 90}),
		Normal:       mgl64.Vec3{1, 0, 0.2}.Normalize(),
		ImpactNormal: mgl64.Vec3{1, 0, 0.2}.Normalize(),
	}
	e := &scriptedEngine{sweeps: []physics.Hit{steep}}
	c := newTestCharacter(t, e, nil)

	floor := c.computeFloorDist(floorLocation, floorCheckDist, floorCheckDist, c.Tuning.Radius, nil, true)
	if !floor.BlockingHit || floor.WalkableFloor || floor.LineTrace {
		t.Fatalf("expected a blocking unwalkable sweep result, got %+v", floor)
	}
}
