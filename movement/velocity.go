package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
)

// brakingSubStepTime is the time step used to sub step braking with friction.
const brakingSubStepTime = 1.0 / 33.0

// calcVelocity updates the velocity from the acceleration, applying friction and braking.
func (c *Character) calcVelocity(deltaTime, friction float64, fluid bool, brakingDeceleration float64) {
	if c.RootMotion.HasOverride || deltaTime < minTickTime || c.isSimulatedProxy() {
		return
	}

	friction = math.Max(0, friction)
	maxAccel := c.Hooks.MaxAcceleration(c)
	maxSpeed := c.Hooks.MaxSpeed(c)

	if c.ForceMaxAccel {
		if c.Acceleration.LenSqr() > game.SmallNumber {
			c.Acceleration = game.SafeNormal(c.Acceleration, game.SmallNumber).Mul(maxAccel)
		} else if c.Velocity.LenSqr() < game.SmallNumber {
			c.Acceleration = c.Rotation.Forward().Mul(maxAccel)
		} else {
			c.Acceleration = game.SafeNormal(c.Velocity, game.SmallNumber).Mul(maxAccel)
		}
		c.AnalogInputModifier = 1
	}

	maxInputSpeed := math.Max(maxSpeed*c.AnalogInputModifier, c.minAnalogSpeed())
	maxSpeed = maxInputSpeed

	zeroAcceleration := game.IsZero(c.Acceleration)
	velocityOverMax := c.isExceedingMaxSpeed(maxSpeed)

	if zeroAcceleration || velocityOverMax {
		oldVelocity := c.Velocity
		brakingFriction := friction
		if c.Tuning.UseSeparateBrakingFriction {
			brakingFriction = c.Tuning.BrakingFriction
		}
		c.ApplyVelocityBraking(deltaTime, brakingFriction, brakingDeceleration)

		if velocityOverMax && c.Velocity.LenSqr() < maxSpeed*maxSpeed && c.Acceleration.Dot(oldVelocity) > 0 {
			c.Velocity = game.SafeNormal(oldVelocity, game.SmallNumber).Mul(maxSpeed)
		}
	} else {
		accelDir := game.SafeNormal(c.Acceleration, game.SmallNumber)
		velSize := c.Velocity.Len()
		c.Velocity = c.Velocity.Sub(c.Velocity.Sub(accelDir.Mul(velSize)).Mul(math.Min(deltaTime*friction, 1)))
	}

	if fluid {
		c.Velocity = c.Velocity.Mul(1 - math.Min(friction*deltaTime, 1))
	}

	if !zeroAcceleration {
		newMaxInputSpeed := maxInputSpeed
		if c.isExceedingMaxSpeed(maxInputSpeed) {
			newMaxInputSpeed = c.Velocity.Len()
		}
		c.Velocity = game.ClampedToMaxSize(c.Velocity.Add(c.Acceleration.Mul(deltaTime)), newMaxInputSpeed)
	}
}

// ApplyVelocityBraking slows the actor down using friction and a constant deceleration. The velocity never reverses
// and drops to zero below a small threshold.
func (c *Character) ApplyVelocityBraking(deltaTime, friction, brakingDeceleration float64) {
	if game.IsZero(c.Velocity) || c.RootMotion.HasOverride || deltaTime < minTickTime {
		return
	}

	frictionFactor := math.Max(0, c.Tuning.BrakingFrictionFactor)
	friction = math.Max(0, friction*frictionFactor)
	brakingDeceleration = math.Max(0, brakingDeceleration)
	zeroFriction := friction == 0
	zeroBraking := brakingDeceleration == 0
	if zeroFriction && zeroBraking {
		return
	}

	oldVel := c.Velocity
	remaining := deltaTime
	maxTimeStep := game.Clamp(brakingSubStepTime, 1.0/75.0, 1.0/20.0)

	var revAccel mgl64.Vec3
	if !zeroBraking {
		revAccel = game.SafeNormal(c.Velocity, game.SmallNumber).Mul(-brakingDeceleration)
	}
	for remaining >= minTickTime {
		dt := remaining
		if remaining > maxTimeStep && !zeroFriction {
			dt = math.Min(maxTimeStep, remaining*0.5)
		}
		remaining -= dt

		c.Velocity = c.Velocity.Add(c.Velocity.Mul(-friction).Add(revAccel).Mul(dt))
		if c.Velocity.Dot(oldVel) <= 0 {
			c.Velocity = mgl64Zero
			return
		}
	}

	sizeSq := c.Velocity.LenSqr()
	if sizeSq <= game.KindaSmallNumber || (!zeroBraking && sizeSq <= game.BrakeToStopVelocity*game.BrakeToStopVelocity) {
		c.Velocity = mgl64Zero
	}
}

// minAnalogSpeed returns the smallest speed analog input can ask for.
func (c *Character) minAnalogSpeed() float64 {
	switch c.Mode {
	case ModeWalking, ModeNavWalking, ModeFalling:
		return c.Tuning.MinAnalogWalkSpeed
	}
	return 0
}

func (c *Character) isExceedingMaxSpeed(maxSpeed float64) bool {
	maxSpeed = math.Max(0, maxSpeed)
	const overVelocityPercent = 1.01
	return c.Velocity.LenSqr() > maxSpeed*maxSpeed*overVelocityPercent
}

// maintainHorizontalGroundVelocity removes the vertical part of the velocity of a grounded actor.
func (c *Character) maintainHorizontalGroundVelocity() {
	if c.gravitySpaceZ(c.Velocity) == 0 {
		return
	}
	if c.Tuning.MaintainHorizontalGroundVelocity {
		c.Velocity = c.projectToGravityFloor(c.Velocity)
		return
	}
	c.Velocity = game.SafeNormal(c.projectToGravityFloor(c.Velocity), game.SmallNumber).Mul(c.Velocity.Len())
}

// newFallVelocity applies gravity to velocity, limited to the terminal velocity.
func (c *Character) newFallVelocity(velocity, gravity mgl64.Vec3, deltaTime float64) mgl64.Vec3 {
	if deltaTime <= 0 {
		return velocity
	}
	result := velocity.Add(gravity.Mul(deltaTime))

	terminal := math.Abs(c.Config.TerminalVelocity)
	if result.LenSqr() > terminal*terminal {
		gravityDir := game.SafeNormal(gravity, game.SmallNumber)
		if result.Dot(gravityDir) > terminal {
			result = result.Sub(gravityDir.Mul(result.Dot(gravityDir))).Add(gravityDir.Mul(terminal))
		}
	}
	return result
}

// TryConsumePrePenetrationAdjustmentVelocity returns the velocity the actor moved with before the last walking
// iteration rewrote it from the actual displacement. It can be consumed once.
func (c *Character) TryConsumePrePenetrationAdjustmentVelocity() (mgl64.Vec3, bool) {
	if !c.PrePenetrationAdjustmentVelocityValid {
		return mgl64Zero, false
	}
	v := c.PrePenetrationAdjustmentVelocity
	c.PrePenetrationAdjustmentVelocity = mgl64Zero
	c.PrePenetrationAdjustmentVelocityValid = false
	return v, true
}
