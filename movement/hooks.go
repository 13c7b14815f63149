package movement

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/physics"
)

// Hooks are the points of the simulation that can be replaced. Every method receives the actor it runs for, and
// implementations call back into the actor for the default behaviour.
type Hooks interface {
	// ComputeFloorDistance sweeps and traces below location to find a floor.
	ComputeFloorDistance(c *Character, location mgl64.Vec3, lineDistance, sweepDistance, sweepRadius float64, downwardSweep *physics.Hit) FloorResult
	// CalcVelocity updates the velocity from the acceleration, friction and braking.
	CalcVelocity(c *Character, deltaTime, friction float64, fluid bool, brakingDeceleration float64)
	// MaxSpeed returns the maximum speed in the current state.
	MaxSpeed(c *Character) float64
	// MaxAcceleration returns the maximum acceleration in the current state.
	MaxAcceleration(c *Character) float64
	// RefreshInputSettings updates the values MaxAcceleration reads before an acceleration is scaled or clamped.
	RefreshInputSettings(c *Character)
	// MaxBrakingDeceleration returns the braking deceleration in the current state.
	MaxBrakingDeceleration(c *Character) float64
	// OnModeChanged is called after the movement mode changed.
	OnModeChanged(c *Character, prevMode Mode, prevCustom CustomMode)
	// PhysWalking runs the walking integrator.
	PhysWalking(c *Character, deltaTime float64, iterations int)
	// PhysCustom runs the integrator of the current custom mode.
	PhysCustom(c *Character, deltaTime float64, iterations int)
	// UpdateStateBeforeMovement and UpdateStateAfterMovement run the state transitions around the integrators.
	UpdateStateBeforeMovement(c *Character, deltaTime float64)
	UpdateStateAfterMovement(c *Character, deltaTime float64)
	// CanAttemptJump reports whether the actor is in a state that allows jumping.
	CanAttemptJump(c *Character) bool
	// CanWalkOffLedges reports whether the actor may walk off ledges.
	CanWalkOffLedges(c *Character) bool
}

// BaseHooks is the generic ground movement without stances other than crouching.
type BaseHooks struct{}

func (BaseHooks) ComputeFloorDistance(c *Character, location mgl64.Vec3, lineDistance, sweepDistance, sweepRadius float64, downwardSweep *physics.Hit) FloorResult {
	return c.computeFloorDist(location, lineDistance, sweepDistance, sweepRadius, downwardSweep, false)
}

func (BaseHooks) CalcVelocity(c *Character, deltaTime, friction float64, fluid bool, brakingDeceleration float64) {
	c.calcVelocity(deltaTime, friction, fluid, brakingDeceleration)
}

func (BaseHooks) MaxSpeed(c *Character) float64 {
	t := &c.Tuning
	switch c.Mode {
	case ModeWalking, ModeNavWalking:
		if c.Crouched {
			return c.Grounded.MaxWalkSpeedCrouched
		}
		return c.Grounded.MaxWalkSpeed
	case ModeFalling:
		return c.Grounded.MaxWalkSpeed
	case ModeSwimming:
		return t.MaxSwimSpeed
	case ModeFlying:
		return t.MaxFlySpeed
	case ModeCustom:
		return t.MaxCustomSpeed
	}
	return 0
}

func (BaseHooks) MaxAcceleration(c *Character) float64 {
	return c.Tuning.MaxAcceleration
}

func (BaseHooks) RefreshInputSettings(*Character) {}

func (BaseHooks) MaxBrakingDeceleration(c *Character) float64 {
	t := &c.Tuning
	switch c.Mode {
	case ModeWalking, ModeNavWalking:
		return c.Grounded.BrakingDecelerationWalking
	case ModeFalling:
		return t.BrakingDecelerationFalling
	case ModeSwimming:
		return t.BrakingDecelerationSwimming
	case ModeFlying:
		return t.BrakingDecelerationFlying
	}
	return 0
}

func (BaseHooks) OnModeChanged(c *Character, prevMode Mode, prevCustom CustomMode) {
	c.onMovementModeChanged(prevMode, prevCustom)
}

func (BaseHooks) PhysWalking(c *Character, deltaTime float64, iterations int) {
	c.PhysWalking(deltaTime, iterations)
}

func (BaseHooks) PhysCustom(c *Character, deltaTime float64, iterations int) {
	c.physCustom(deltaTime, iterations)
}

func (BaseHooks) UpdateStateBeforeMovement(c *Character, _ float64) {
	if c.LocalRole == RoleSimulatedProxy {
		return
	}
	if c.Crouched && (!c.WantsToCrouch || !c.CanCrouchInCurrentState()) {
		c.UnCrouch(false)
	} else if !c.Crouched && c.WantsToCrouch && c.CanCrouchInCurrentState() {
		c.Crouch(false)
	}
}

func (BaseHooks) UpdateStateAfterMovement(c *Character, _ float64) {
	if c.LocalRole != RoleSimulatedProxy && c.Crouched && !c.CanCrouchInCurrentState() {
		c.UnCrouch(false)
	}
}

func (BaseHooks) CanAttemptJump(c *Character) bool {
	return !c.WantsToCrouch && (c.IsMovingOnGround() || c.IsFalling())
}

func (BaseHooks) CanWalkOffLedges(c *Character) bool {
	if !c.Tuning.CanWalkOffLedgesWhenCrouching && c.Crouched {
		return false
	}
	return c.Tuning.CanWalkOffLedges
}

// ALSHooks layers prone, slide and gait driven tuning on top of BaseHooks.
type ALSHooks struct {
	BaseHooks
}

// ComputeFloorDistance keeps the normal, penetration and base of the sweep when the line trace fallback is used,
// so that penetration recovery still sees the sweep result.
func (ALSHooks) ComputeFloorDistance(c *Character, location mgl64.Vec3, lineDistance, sweepDistance, sweepRadius float64, downwardSweep *physics.Hit) FloorResult {
	return c.computeFloorDist(location, lineDistance, sweepDistance, sweepRadius, downwardSweep, true)
}

// CalcVelocity rotates the velocity with the base before computing it.
func (h ALSHooks) CalcVelocity(c *Character, deltaTime, friction float64, fluid bool, brakingDeceleration float64) {
	if !c.Tuning.IgnoreBaseRotation {
		if speed, ok := c.baseRotationSpeed(); ok {
			c.Velocity = speed.Scale(deltaTime).RotateVector(c.Velocity)
		}
	}
	h.BaseHooks.CalcVelocity(c, deltaTime, friction, fluid, brakingDeceleration)
}

func (h ALSHooks) MaxSpeed(c *Character) float64 {
	switch {
	case c.Mode == ModeWalking || c.Mode == ModeNavWalking:
		if c.Crouched {
			return c.Grounded.MaxWalkSpeedCrouched
		}
		if c.Proned {
			return c.Tuning.MaxWalkSpeedProned
		}
		return c.Grounded.MaxWalkSpeed
	case c.IsCustomMode(CustomSlide):
		return c.Tuning.MaxSlideSpeed
	}
	return h.BaseHooks.MaxSpeed(c)
}

func (h ALSHooks) MaxAcceleration(c *Character) float64 {
	if c.IsMovingOnGround() {
		return c.Grounded.MaxAccelerationWalking
	}
	return h.BaseHooks.MaxAcceleration(c)
}

// RefreshInputSettings refreshes the gait driven values on the ground, so that the acceleration of a move only
// depends on the state it starts from.
func (ALSHooks) RefreshInputSettings(c *Character) {
	if c.IsMovingOnGround() {
		c.RefreshGroundedMovementSettings()
	}
}

func (h ALSHooks) MaxBrakingDeceleration(c *Character) float64 {
	if c.IsCustomMode(CustomSlide) {
		return c.Tuning.BrakingDecelerationSliding
	}
	return h.BaseHooks.MaxBrakingDeceleration(c)
}

func (h ALSHooks) OnModeChanged(c *Character, prevMode Mode, prevCustom CustomMode) {
	c.ProneMaintainsBaseLocation = c.Mode == ModeWalking

	h.BaseHooks.OnModeChanged(c, prevMode, prevCustom)

	if prevMode == ModeCustom && prevCustom == CustomSlide {
		c.ExitSlide()
	}
	if c.IsCustomMode(CustomSlide) {
		c.EnterSlide(prevMode, prevCustom)
	}

	c.CrouchMaintainsBaseLocation = true
	c.ProneMaintainsBaseLocation = true
}

func (h ALSHooks) PhysWalking(c *Character, deltaTime float64, iterations int) {
	c.RefreshGroundedMovementSettings()
	h.BaseHooks.PhysWalking(c, deltaTime, iterations)
}

func (h ALSHooks) PhysCustom(c *Character, deltaTime float64, iterations int) {
	if c.CustomMode == CustomSlide {
		c.PhysSlide(deltaTime, iterations)
		return
	}
	h.BaseHooks.PhysCustom(c, deltaTime, iterations)
}

// UpdateStateBeforeMovement runs the slide transitions, then the stance transitions with exits before entries
// and prone taking precedence over crouch.
func (ALSHooks) UpdateStateBeforeMovement(c *Character, _ float64) {
	if c.Mode == ModeWalking && c.IsSlideTriggered() {
		if c.CanSlide(false) && c.GaitAmount >= c.Tuning.MinSlideGaitAmount {
			c.SetMovementMode(ModeCustom, CustomSlide)
		}
	} else if c.IsCustomMode(CustomSlide) && !c.WantsToCrouch {
		c.SetMovementMode(ModeWalking, CustomNone)
	}

	if c.LocalRole == RoleSimulatedProxy {
		return
	}

	requestCrouch, requestProne := c.WantsToCrouch, c.WantsToProne

	if c.Crouched && (!requestCrouch || !c.CanCrouchInCurrentState()) {
		c.UnCrouch(false)
	}
	if c.Proned && (!requestProne || !c.CanProneInCurrentState()) {
		c.UnProne(false)
	}

	if requestProne && c.Crouched {
		c.UnCrouch(false)
	}
	if requestCrouch && c.Proned {
		c.UnProne(false)
	}

	// A stance that could not be left blocks entering the other one.
	if requestProne && !c.Proned && !c.Crouched && c.CanProneInCurrentState() {
		c.Prone(false)
	} else if requestCrouch && !c.Crouched && !c.Proned && c.CanCrouchInCurrentState() {
		c.Crouch(false)
	}
}

func (ALSHooks) UpdateStateAfterMovement(c *Character, _ float64) {
	if c.LocalRole == RoleSimulatedProxy {
		return
	}
	if c.Crouched && !c.CanCrouchInCurrentState() {
		c.UnCrouch(false)
	}
	if c.Proned && !c.CanProneInCurrentState() {
		c.UnProne(false)
	}
}

func (h ALSHooks) CanAttemptJump(c *Character) bool {
	return h.BaseHooks.CanAttemptJump(c) && !c.WantsToProne
}

func (h ALSHooks) CanWalkOffLedges(c *Character) bool {
	if !h.BaseHooks.CanWalkOffLedges(c) {
		return false
	}
	return c.Tuning.CanWalkOffLedgesWhenProning || !c.Proned
}

// ShouldCatchAir reports whether the actor should start falling after moving onto the given floor. It never does
// for the hooks in this package.
func (c *Character) ShouldCatchAir(_, _ FloorResult) bool { return false }

var _ Hooks = ALSHooks{}
