package network

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/movement"
)

func combinableMoves() (*SavedMove, *SavedMove) {
	newMove := func(ts float32) *SavedMove {
		m := &SavedMove{}
		m.Clear()
		m.TimeStamp = ts
		m.DeltaTime = testDeltaTime
		m.Acceleration = mgl64.Vec3{2000, 0, 0}
		m.AccelMag = 2000
		m.AccelNormal = mgl64.Vec3{1, 0, 0}
		m.MaxSpeed = 375
		m.StartMode, m.EndMode = movement.ModeWalking, movement.ModeWalking
		m.StartHalfHeight = 90
		return m
	}
	return newMove(testDeltaTime), newMove(2 * testDeltaTime)
}

func TestCanCombineWith(t *testing.T) {
	tests := map[string]struct {
		edit func(prev, next *SavedMove)
		want bool
	}{
		"identical": {func(prev, next *SavedMove) {}, true},
		"both idle": {func(prev, next *SavedMove) {
			prev.Acceleration, next.Acceleration = mgl64.Vec3{}, mgl64.Vec3{}
			prev.AccelMag, next.AccelMag = 0, 0
		}, true},
		"different tags": {func(prev, next *SavedMove) {
			next.Data.Stance = game.StanceCrouching
		}, false},
		"forced": {func(prev, next *SavedMove) {
			prev.ForceNoCombine = true
		}, false},
		"timestamp reset": {func(prev, next *SavedMove) {
			prev.OldTimeStampBeforeReset = true
		}, false},
		"root motion": {func(prev, next *SavedMove) {
			next.StartRootMotion = true
		}, false},
		"starts moving": {func(prev, next *SavedMove) {
			prev.Acceleration, prev.AccelMag = mgl64.Vec3{}, 0
		}, false},
		"turns": {func(prev, next *SavedMove) {
			next.Acceleration, next.AccelNormal = mgl64.Vec3{1414.2, 1414.2, 0}, mgl64.Vec3{0.7071, 0.7071, 0}
		}, false},
		"max speed": {func(prev, next *SavedMove) {
			next.MaxSpeed = 650
		}, false},
		"too long": {func(prev, next *SavedMove) {
			prev.DeltaTime, next.DeltaTime = 0.1, 0.1
		}, false},
		"jump pressed": {func(prev, next *SavedMove) {
			next.PressedJump = true
		}, false},
		"mode changed": {func(prev, next *SavedMove) {
			prev.EndMode = movement.ModeFalling
		}, false},
		"half height": {func(prev, next *SavedMove) {
			next.StartHalfHeight = 56
		}, false},
		"jump count": {func(prev, next *SavedMove) {
			next.JumpCurrentCount = 1
		}, false},
	}
	for name, tc := range tests {
		prev, next := combinableMoves()
		tc.edit(prev, next)
		if got := prev.CanCombineWith(next, 0.996, 0.125); got != tc.want {
			t.Fatalf("%s: expected CanCombineWith to return %v, got %v", name, tc.want, got)
		}
	}
}

func TestIsImportantMove(t *testing.T) {
	acked, m := combinableMoves()
	if m.IsImportantMove(acked) {
		t.Fatalf("expected an identical move not to be important")
	}
	m.WantsToCrouch = true
	if !m.IsImportantMove(acked) {
		t.Fatalf("expected a change of the input flags to be important")
	}

	acked, m = combinableMoves()
	m.Acceleration, m.AccelMag, m.AccelNormal = mgl64.Vec3{0, 2000, 0}, 2000, mgl64.Vec3{0, 1, 0}
	if !m.IsImportantMove(acked) {
		t.Fatalf("expected a change of the acceleration direction to be important")
	}
}

func TestCombineWithKeepsRotation(t *testing.T) {
	c := newActor(t, discardLogger())
	prev := &SavedMove{}
	prev.Clear()
	prev.SetMoveFor(c, testDeltaTime, mgl64.Vec3{}, testDeltaTime)
	prev.StartRotation = game.Rotator{Yaw: 45}
	start := prev.StartLocation

	c.Location = c.Location.Add(mgl64.Vec3{5, 0, 0})
	c.Rotation = game.Rotator{Yaw: 90}

	next := &SavedMove{}
	next.Clear()
	next.SetMoveFor(c, testDeltaTime, mgl64.Vec3{}, 2*testDeltaTime)
	next.CombineWith(prev, c, start)

	if c.Location != start {
		t.Fatalf("expected the actor to move back to %v, got %v", start, c.Location)
	}
	if c.Rotation.Yaw != 90 {
		t.Fatalf("expected the rotation to be kept, got %v", c.Rotation)
	}
	if prev.StartRotation.Yaw != 45 {
		t.Fatalf("expected the previous move to keep its start rotation, got %v", prev.StartRotation)
	}
	if next.DeltaTime != 2*testDeltaTime {
		t.Fatalf("expected the delta times to be summed, got %v", next.DeltaTime)
	}
}

func TestSetMoveForRoundsAcceleration(t *testing.T) {
	c := newActor(t, discardLogger())
	m := &SavedMove{}
	m.Clear()
	m.SetMoveFor(c, testDeltaTime, mgl64.Vec3{1234.5678, -0.04, 0}, 1)
	if m.Acceleration[0] < 1234.59 || m.Acceleration[0] > 1234.61 || m.Acceleration[1] != 0 {
		t.Fatalf("expected the acceleration to be rounded, got %v", m.Acceleration)
	}
	if m.AccelMag < 1234.56 {
		t.Fatalf("expected the magnitude to use the raw acceleration, got %v", m.AccelMag)
	}
	if vec64(vec32(m.Acceleration)) != m.Acceleration {
		t.Fatalf("expected the rounded acceleration to survive the wire unchanged")
	}
}
