package movement

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/physics/boxworld"
	"github.com/oomph-ac/locomotion/settings"
)

func TestCrouchShrinksCapsuleKeepingBase(t *testing.T) {
	c, _ := spawnOnFloor(t)
	h := &recordingHandler{}
	c.Handle(h)
	startZ := c.Location.Z()

	c.WantsToCrouch = true
	c.PerformMovement(testDeltaTime)

	if !c.Crouched || c.Stance != game.StanceCrouching {
		t.Fatalf("expected the actor to crouch")
	}
	if c.HalfHeight != c.CrouchedHalfHeight() {
		t.Fatalf("expected the crouched half height, got %v", c.HalfHeight)
	}
	drop := startZ - c.Location.Z()
	want := c.DefaultHalfHeight() - c.CrouchedHalfHeight()
	if math.Abs(drop-want) > 1 {
		t.Fatalf("expected the capsule to move down by %v, moved %v", want, drop)
	}
	if h.startCrouch != 1 {
		t.Fatalf("expected one crouch event, got %d", h.startCrouch)
	}

	c.WantsToCrouch = false
	c.PerformMovement(testDeltaTime)
	if c.Crouched || c.HalfHeight != c.DefaultHalfHeight() || c.Stance != game.StanceStanding {
		t.Fatalf("expected the actor to stand up again")
	}
}

func TestProneTakesPrecedenceOverCrouch(t *testing.T) {
	c, _ := spawnOnFloor(t)
	c.WantsToCrouch = true
	c.WantsToProne = true
	c.PerformMovement(testDeltaTime)

	if !c.Proned || c.Crouched {
		t.Fatalf("expected prone only, got crouched=%v proned=%v", c.Crouched, c.Proned)
	}
	if c.Stance != game.StanceProning || c.HalfHeight != c.PronedHalfHeight() {
		t.Fatalf("expected the proned capsule and stance")
	}
}

func TestSwitchFromCrouchToProne(t *testing.T) {
	c, _ := spawnOnFloor(t)
	c.WantsToCrouch = true
	c.PerformMovement(testDeltaTime)
	if !c.Crouched {
		t.Fatalf("expected the actor to crouch")
	}

	c.WantsToProne = true
	c.PerformMovement(testDeltaTime)
	if !c.Proned || c.Crouched {
		t.Fatalf("expected prone only after requesting prone, got crouched=%v proned=%v", c.Crouched, c.Proned)
	}
}

func TestBlockedUnProneRemainsProned(t *testing.T) {
	c, w := spawnOnFloor(t)
	c.WantsToProne = true
	c.PerformMovement(testDeltaTime)
	if !c.Proned {
		t.Fatalf("expected the actor to go prone")
	}

	top := c.Location.Z() + c.HalfHeight
	w.AddBox(mgl64.Vec3{-200, -200, top + 10}, mgl64.Vec3{200, 200, top + 200})

	c.WantsToProne = false
	c.PerformMovement(testDeltaTime)
	if !c.Proned || c.HalfHeight != c.PronedHalfHeight() {
		t.Fatalf("expected the actor to stay proned under the ceiling")
	}

	c.WantsToCrouch = true
	c.PerformMovement(testDeltaTime)
	if c.Crouched {
		t.Fatalf("the actor must never be crouched and proned at once")
	}
}

func TestCrouchDisabled(t *testing.T) {
	w := boxworld.New()
	w.AddFloor(0, 5000)
	c := newTestCharacter(t, w, func(s *settings.Settings) {
		s.Character.CanCrouch = false
		s.Character.CanProne = false
	})
	c.Spawn(mgl64.Vec3{0, 0, 92.15}, game.Rotator{})

	c.WantsToCrouch = true
	c.PerformMovement(testDeltaTime)
	if c.Crouched {
		t.Fatalf("crouching should be disabled")
	}
	c.WantsToProne = true
	c.PerformMovement(testDeltaTime)
	if c.Proned {
		t.Fatalf("proning should be disabled")
	}
}

func TestCannotCrouchWhileFlying(t *testing.T) {
	c, _ := spawnOnFloor(t)
	c.SetMovementMode(ModeFlying, CustomNone)
	if c.CanCrouchInCurrentState() || c.CanProneInCurrentState() {
		t.Fatalf("a flying actor should not be able to crouch or prone")
	}
}

func TestCrouchedActorCannotJump(t *testing.T) {
	c, _ := spawnOnFloor(t)
	c.WantsToCrouch = true
	c.PerformMovement(testDeltaTime)
	if c.CanJump() {
		t.Fatalf("a crouched actor should not be able to jump")
	}
}

func TestUnCrouchMovesCloserToFloorUnderCeiling(t *testing.T) {
	tests := []struct {
		name      string
		clearance float64
		wantStand bool
	}{
		// clearance is the room left above the standing capsule once it was moved down to the floor.
		{"fits once lowered", 1, true},
		{"blocked either way", -1, false},
	}
	for _, tt := range tests {
		c, w := spawnOnFloor(t)
		c.WantsToCrouch = true
		c.PerformMovement(testDeltaTime)
		if !c.Crouched || !c.Floor.BlockingHit {
			t.Fatalf("%s: expected a crouched actor on the floor", tt.name)
		}

		crouched := c.Location
		floorDist := c.Floor.FloorDist
		const closest = game.KindaSmallNumber * 10
		grown := c.DefaultHalfHeight() + sweepInflation
		top := crouched.Z() - c.HalfHeight + 2*grown
		lowered := top - (floorDist - closest)
		if top-lowered < 1.5 {
			t.Fatalf("%s: floor distance %v leaves no room to move down", tt.name, floorDist)
		}
		ceiling := lowered + tt.clearance
		w.AddBox(mgl64.Vec3{-200, -200, ceiling}, mgl64.Vec3{200, 200, ceiling + 100})

		c.UnCrouch(false)
		if c.Crouched == tt.wantStand {
			t.Fatalf("%s: expected standing=%v, got crouched=%v", tt.name, tt.wantStand, c.Crouched)
		}
		if !tt.wantStand {
			if c.Location != crouched || c.HalfHeight != c.CrouchedHalfHeight() {
				t.Fatalf("%s: a blocked uncrouch must not move or resize the capsule", tt.name)
			}
			continue
		}
		wantZ := crouched.Z() + grown - c.CrouchedHalfHeight() - (floorDist - closest)
		if !mgl64.FloatEqualThreshold(c.Location.Z(), wantZ, 1e-6) {
			t.Fatalf("%s: expected the standing capsule at z=%v, got %v", tt.name, wantZ, c.Location.Z())
		}
		if c.HalfHeight != c.DefaultHalfHeight() {
			t.Fatalf("%s: expected the standing half height, got %v", tt.name, c.HalfHeight)
		}
	}
}

func TestUnCrouchStandsOnBaseWhenGrowingInPlaceOverlaps(t *testing.T) {
	tests := []struct {
		name      string
		ceiling   bool
		wantStand bool
	}{
		{"open", false, true},
		{"ceiling", true, false},
	}
	for _, tt := range tests {
		c, w := spawnOnFloor(t)
		c.WantsToCrouch = true
		c.PerformMovement(testDeltaTime)
		if !c.Crouched {
			t.Fatalf("%s: expected the actor to crouch", tt.name)
		}
		if tt.ceiling {
			w.AddBox(mgl64.Vec3{-200, -200, 150}, mgl64.Vec3{200, 200, 300})
		}

		// A crouched actor falling 2cm above the floor: growing around its centre would push the capsule into
		// the floor, so it has to stand on the floor found below instead.
		c.SetMovementMode(ModeFalling, CustomNone)
		c.CrouchMaintainsBaseLocation = false
		c.Location = mgl64.Vec3{0, 0, c.CrouchedHalfHeight() + 2}
		before := c.Location

		c.UnCrouch(false)
		if c.Crouched == tt.wantStand {
			t.Fatalf("%s: expected standing=%v, got crouched=%v", tt.name, tt.wantStand, c.Crouched)
		}
		if !tt.wantStand {
			if c.Location != before {
				t.Fatalf("%s: a blocked uncrouch must not move the capsule, got %v", tt.name, c.Location)
			}
			continue
		}
		bottom := c.Location.Z() - c.HalfHeight
		if bottom <= 0 || bottom > 2 {
			t.Fatalf("%s: expected the standing capsule just above the floor, bottom at %v", tt.name, bottom)
		}
	}
}
