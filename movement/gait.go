package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
)

// RefreshGaitSettings looks up the gait settings for the current rotation mode and stance. A missing entry yields
// zeroed settings and a warning.
func (c *Character) RefreshGaitSettings() {
	gs, ok := c.Movement.Gait(c.RotationMode, c.Stance)
	if !ok {
		c.log.Warn("no gait settings for rotation mode and stance", "rotationMode", c.RotationMode, "stance", c.Stance)
	}
	c.GaitSettings = gs
}

// SetRotationMode changes the rotation mode, refreshing the gait settings if it changed.
func (c *Character) SetRotationMode(mode game.RotationMode) {
	if c.RotationMode != mode {
		c.RotationMode = mode
		c.RefreshGaitSettings()
	}
}

// SetStance changes the stance, refreshing the gait settings if it changed.
func (c *Character) SetStance(stance game.Stance) {
	if c.Stance != stance {
		c.Stance = stance
		c.RefreshGaitSettings()
	}
}

// SetMaxAllowedGait sets the fastest gait the actor may reach.
func (c *Character) SetMaxAllowedGait(gait game.Gait) {
	c.MaxAllowedGait = gait
}

// walkRunSpeeds returns the walk and run speeds, blended towards the backward speeds by the angle between the
// velocity and the view direction if the gait settings allow it.
func (c *Character) walkRunSpeeds() (walk, run float64) {
	gs := c.GaitSettings
	walk, run = gs.WalkForwardSpeed, gs.RunForwardSpeed

	if !gs.AllowDirectionDependentMovementSpeed || c.Velocity.LenSqr() <= game.KindaSmallNumber || c.Movement == nil {
		return walk, run
	}

	// The view rotation is used rather than the actor rotation, since the actor rotation is not replicated.
	relativeView := game.Twist(c.ControlRotation, c.up())
	relativeVelocity := relativeView.Inverse().Rotate(c.Velocity)
	velocityAngle := game.DirectionToAngle(mgl64.Vec2{relativeVelocity.X(), relativeVelocity.Y()})

	r := c.Movement.VelocityAngleToSpeedInterpolationRange
	forwardSpeedAmount := 1 - game.Clamp01(game.RangePct(r[0], r[1], math.Abs(velocityAngle)))

	walk = game.Lerp(gs.WalkBackwardSpeed, gs.WalkForwardSpeed, forwardSpeedAmount)
	run = game.Lerp(gs.RunBackwardSpeed, gs.RunForwardSpeed, forwardSpeedAmount)
	return walk, run
}

// CalculateGaitAmount maps a planar speed onto the gait amount: 0 to 1 up to the walk speed, 1 to 2 up to the
// run speed and 2 to 3 up to the sprint speed.
func CalculateGaitAmount(speed, walk, run, sprint float64) float64 {
	switch {
	case speed > run:
		return game.MappedRangeValueClamped(run, sprint, 2, 3, speed)
	case speed > walk:
		return game.MappedRangeValueClamped(walk, run, 1, 2, speed)
	default:
		return game.MappedRangeValueClamped(0, walk, 0, 1, speed)
	}
}

// RefreshGroundedMovementSettings updates the gait amount and the grounded speed, acceleration, braking and
// friction from the gait settings and the current velocity.
func (c *Character) RefreshGroundedMovementSettings() {
	walk, run := c.walkRunSpeeds()
	sprint := c.GaitSettings.SprintSpeed

	speed := c.projectToGravityFloor(c.Velocity).Len()
	c.GaitAmount = CalculateGaitAmount(speed, walk, run, sprint)

	switch c.MaxAllowedGait {
	case game.GaitWalking:
		c.Grounded.MaxWalkSpeed = walk
	case game.GaitRunning:
		c.Grounded.MaxWalkSpeed = run
	case game.GaitSprinting:
		c.Grounded.MaxWalkSpeed = sprint
	default:
		c.Grounded.MaxWalkSpeed = c.GaitSettings.RunForwardSpeed
	}
	c.Grounded.MaxWalkSpeedCrouched = c.Grounded.MaxWalkSpeed

	if curve := c.GaitSettings.Curve; curve != nil {
		c.Grounded.MaxAccelerationWalking, c.Grounded.BrakingDecelerationWalking, c.Grounded.GroundFriction = curve.Eval(c.GaitAmount)
	}
}
