package movement

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
)

// MoveData are the tags sent along with every move of an autonomous proxy.
type MoveData struct {
	RotationMode   game.RotationMode
	Stance         game.Stance
	MaxAllowedGait game.Gait
}

// MoveData returns the tags of the actor.
func (c *Character) MoveData() MoveData {
	return MoveData{RotationMode: c.RotationMode, Stance: c.Stance, MaxAllowedGait: c.MaxAllowedGait}
}

// Tick runs one movement tick of a locally controlled actor with the raw input vector passed. The input vector
// has a length of at most one.
func (c *Character) Tick(input mgl64.Vec3, deltaTime float64) {
	if c.LocalRole == RoleSimulatedProxy {
		return
	}
	c.ControlledCharacterMove(c.ConsumeInput(input, deltaTime), deltaTime)
}

// ConsumeInput returns the input vector to move with. Blocked input is zero, and input is rotated with the base
// unless base rotation is ignored.
func (c *Character) ConsumeInput(input mgl64.Vec3, deltaTime float64) mgl64.Vec3 {
	if c.InputBlocked {
		return mgl64Zero
	}
	if !c.Tuning.IgnoreBaseRotation {
		if speed, ok := c.baseRotationSpeed(); ok {
			input = speed.Scale(deltaTime).RotateVector(input)
		}
	}
	return input
}

// ApplyInput processes the jump input and turns the input vector into an acceleration.
func (c *Character) ApplyInput(input mgl64.Vec3, deltaTime float64) {
	c.CheckJumpInput(deltaTime)
	c.Hooks.RefreshInputSettings(c)
	c.Acceleration = c.scaleInputAcceleration(c.constrainInputAcceleration(input))
	c.AnalogInputModifier = c.computeAnalogInputModifier()
}

// ControlledCharacterMove applies the input and, on the authority, runs the movement. Autonomous proxies run the
// movement through their network client instead.
func (c *Character) ControlledCharacterMove(input mgl64.Vec3, deltaTime float64) {
	c.ApplyInput(input, deltaTime)
	if c.LocalRole == RoleAuthority {
		c.PerformMovement(deltaTime)
	}
	if c.HasController {
		c.PreviousControlRotation = c.ControlRotation
	}
}

// MoveAutonomous runs a move received from an autonomous proxy on the authority.
func (c *Character) MoveAutonomous(timeStamp, deltaTime float64, flags uint8, acceleration mgl64.Vec3, data MoveData) {
	c.RotationMode = data.RotationMode
	c.Stance = data.Stance
	c.MaxAllowedGait = data.MaxAllowedGait
	c.RefreshGaitSettings()

	c.clientTimeStamp = timeStamp
	c.UpdateFromCompressedFlags(flags)
	c.CheckJumpInput(deltaTime)

	c.SetAcceleration(c.constrainInputAcceleration(acceleration))

	c.PerformMovement(deltaTime)

	if c.HasController && c.RemoteRole == RoleAutonomousProxy {
		c.PreviousControlRotation = c.ControlRotation
	}
}

// SetAcceleration sets the acceleration of the next move, clamped to the maximum acceleration, and the analog
// input modifier derived from it.
func (c *Character) SetAcceleration(acceleration mgl64.Vec3) {
	c.Hooks.RefreshInputSettings(c)
	c.Acceleration = game.ClampedToMaxSize(acceleration, c.Hooks.MaxAcceleration(c))
	c.AnalogInputModifier = c.computeAnalogInputModifier()
}

// constrainInputAcceleration removes the vertical part of the input unless the actor flies or swims.
func (c *Character) constrainInputAcceleration(input mgl64.Vec3) mgl64.Vec3 {
	if c.gravitySpaceZ(input) != 0 && !(c.IsFlying() || c.IsSwimming()) {
		return c.projectToGravityFloor(input)
	}
	return input
}

func (c *Character) scaleInputAcceleration(input mgl64.Vec3) mgl64.Vec3 {
	return game.ClampedToMaxSize(input, 1).Mul(c.Hooks.MaxAcceleration(c))
}

func (c *Character) computeAnalogInputModifier() float64 {
	maxAccel := c.Hooks.MaxAcceleration(c)
	if c.Acceleration.LenSqr() > 0 && maxAccel > game.SmallNumber {
		return game.Clamp01(c.Acceleration.Len() / maxAccel)
	}
	return 0
}

// PerformMovement simulates the actor for deltaTime: it follows the base, updates the stance and slide state,
// runs the integrator of the movement mode and rotates the actor.
func (c *Character) PerformMovement(deltaTime float64) {
	if c.Mode == ModeNone || c.SimulatingPhysics {
		return
	}

	c.ForceNextFloorCheck = c.ForceNextFloorCheck || (c.IsMovingOnGround() && c.Location != c.LastUpdateLocation)
	if c.RootMotion.HasAdditive {
		c.RootMotion.lastPreAdditiveVelocity = c.RootMotion.lastPreAdditiveVelocity.Add(c.Velocity.Sub(c.LastUpdateVelocity))
	}

	c.maybeUpdateBasedMovement()

	c.Hooks.UpdateStateBeforeMovement(c, deltaTime)

	if c.RootMotion.HasOverride && deltaTime > 0 {
		c.Velocity = c.RootMotion.OverrideVelocity
	}

	c.ClearJumpInput(deltaTime)
	c.NumJumpApexAttempts = 0

	c.StartNewPhysics(deltaTime, 0)

	c.Hooks.UpdateStateAfterMovement(c, deltaTime)
	c.PhysicsRotation(deltaTime)
	c.OnMovementUpdated()

	c.SaveBaseLocation()
	c.WorldTime += deltaTime

	if c.LocalRole == RoleAuthority && c.HasController && !c.PreviousControlRotation.Equals(c.ControlRotation, 0) {
		if c.RemoteRole == RoleAutonomousProxy {
			c.ServerLastTransformUpdateTimeStamp = c.clientTimeStamp
		} else {
			c.ServerLastTransformUpdateTimeStamp = c.WorldTime
		}
	}

	c.LastUpdateLocation = c.Location
	c.LastUpdateVelocity = c.Velocity
}

// PhysicsRotation lets the handler rotate the actor after it moved.
func (c *Character) PhysicsRotation(deltaTime float64) {
	if c.Config.RunPhysicsWithNoController || c.HasController {
		c.handler.HandlePhysicsRotation(c, deltaTime)
	}
}

// OnMovementUpdated remembers the crouch intent of this tick for the slide trigger of the next.
func (c *Character) OnMovementUpdated() {
	c.PrevWantsToCrouch = c.WantsToCrouch
}

// physCustom moves the actor by its root motion only.
func (c *Character) physCustom(deltaTime float64, iterations int) {
	if deltaTime < minTickTime {
		return
	}
	c.JustTeleported = false
	c.restorePreAdditiveRootMotionVelocity()
	if !c.RootMotion.HasOverride {
		c.Velocity = mgl64Zero
	}
	c.applyRootMotionToVelocity(deltaTime)
	c.moveUpdatedComponent(c.Velocity.Mul(deltaTime), c.Rotation, false)
}
