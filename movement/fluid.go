package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/physics"
)

const (
	// maxOutOfWaterStepHeight is the height of a ledge an actor can climb out of water onto.
	maxOutOfWaterStepHeight = 40
	// wallStepNormalZ is the largest normal Z of a surface treated as a wall by the fluid integrators.
	wallStepNormalZ = 0.2
)

// PhysFlying moves the actor freely in three dimensions with fluid friction.
func (c *Character) PhysFlying(deltaTime float64, iterations int) {
	if deltaTime < minTickTime {
		return
	}

	c.restorePreAdditiveRootMotionVelocity()
	if !c.RootMotion.HasOverride {
		c.Hooks.CalcVelocity(c, deltaTime, 0.5*c.Config.FluidFriction, true, c.Hooks.MaxBrakingDeceleration(c))
	}
	c.applyRootMotionToVelocity(deltaTime)

	c.JustTeleported = false
	oldLocation := c.Location
	adjusted := c.Velocity.Mul(deltaTime)
	hit, _ := c.SafeMove(adjusted, c.Rotation, true)

	if hit.Time < 1 {
		steppedUp := false
		if c.shouldStepUpInFluid(hit) {
			stepZ := c.gravitySpaceZ(c.Location)
			_, _, steppedUp = c.StepUp(c.gravityDirection(), adjusted.Mul(1-hit.Time), hit)
			if steppedUp {
				oldLocation = c.setGravitySpaceZ(oldLocation, c.gravitySpaceZ(c.Location)+(c.gravitySpaceZ(oldLocation)-stepZ))
			}
		}
		if !steppedUp {
			c.handleImpact(hit)
			c.SlideAlongSurface(adjusted, 1-hit.Time, hit.Normal, &hit, true)
		}
	}

	if !c.JustTeleported && !c.RootMotion.HasOverride {
		c.Velocity = c.Location.Sub(oldLocation).Mul(1 / deltaTime)
	}
}

// shouldStepUpInFluid reports whether a flying or swimming actor moving roughly horizontally should try to step
// onto the wall it hit.
func (c *Character) shouldStepUpInFluid(hit physics.Hit) bool {
	upDown := c.gravityDirection().Dot(game.SafeNormal(c.Velocity, game.SmallNumber))
	return math.Abs(c.gravitySpaceZ(hit.ImpactNormal)) < wallStepNormalZ && upDown < 0.5 && upDown > -0.2 && c.canStepUp(hit)
}

// PhysSwimming moves the actor through water, applying buoyancy and fluid friction scaled by the immersion depth.
func (c *Character) PhysSwimming(deltaTime float64, iterations int) {
	if deltaTime < minTickTime {
		return
	}

	c.restorePreAdditiveRootMotionVelocity()
	depth := c.immersionDepth()
	netBuoyancy := c.Tuning.Buoyancy * depth
	originalAccelZ := c.gravitySpaceZ(c.Acceleration)
	limitedUpAccel := false
	maxSwimSpeed := c.Tuning.MaxSwimSpeed

	if !c.RootMotion.HasOverride && c.gravitySpaceZ(c.Velocity) > 0.33*maxSwimSpeed && netBuoyancy != 0 {
		// Damp upward velocity when leaving the water.
		c.Velocity = c.setGravitySpaceZ(c.Velocity, math.Max(0.33*maxSwimSpeed, c.gravitySpaceZ(c.Velocity)*depth*depth))
	} else if depth < 0.65 {
		limitedUpAccel = originalAccelZ > 0
		c.Acceleration = c.setGravitySpaceZ(c.Acceleration, math.Min(0.1, originalAccelZ))
	}

	iterations++
	oldLocation := c.Location
	c.JustTeleported = false
	if !c.RootMotion.HasOverride {
		friction := 0.5 * c.Config.FluidFriction * depth
		c.Hooks.CalcVelocity(c, deltaTime, friction, true, c.Hooks.MaxBrakingDeceleration(c))
		c.Velocity = c.Velocity.Add(c.up().Mul(c.gravityZ() * deltaTime * (1 - netBuoyancy)))
	}
	c.applyRootMotionToVelocity(deltaTime)

	adjusted := c.Velocity.Mul(deltaTime)
	hit, remainingTime := c.swim(adjusted, deltaTime)
	if !c.IsSwimming() {
		c.StartNewPhysics(remainingTime, iterations)
		return
	}

	if hit.Time < 1 {
		if limitedUpAccel && c.gravitySpaceZ(c.Velocity) >= 0 {
			// Allow upward velocity at the surface when against an obstacle.
			c.Velocity = c.Velocity.Add(c.up().Mul(originalAccelZ * deltaTime))
			adjusted = c.Velocity.Mul((1 - hit.Time) * deltaTime)
			hit, _ = c.swim(adjusted, deltaTime)
			if !c.IsSwimming() {
				c.StartNewPhysics(remainingTime, iterations)
				return
			}
		}

		realVelocity := c.Velocity
		steppedUp := false
		if c.shouldStepUpInFluid(hit) {
			stepZ := c.gravitySpaceZ(c.Location)
			c.Velocity = c.setGravitySpaceZ(c.Velocity, 1)
			_, _, steppedUp = c.StepUp(c.gravityDirection(), adjusted.Mul(1-hit.Time), hit)
			if steppedUp {
				if !c.IsSwimming() {
					c.StartNewPhysics(remainingTime, iterations)
					return
				}
				oldLocation = c.setGravitySpaceZ(oldLocation, c.gravitySpaceZ(c.Location)+(c.gravitySpaceZ(oldLocation)-stepZ))
			}
			c.Velocity = realVelocity
		}
		if !steppedUp {
			c.handleImpact(hit)
			c.SlideAlongSurface(adjusted, 1-hit.Time, hit.Normal, &hit, true)
		}
	}

	if !c.RootMotion.HasOverride && !c.JustTeleported && deltaTime-remainingTime > game.KindaSmallNumber {
		waterJump := !c.InWater
		velZ := c.gravitySpaceZ(c.Velocity)
		c.Velocity = c.Location.Sub(oldLocation).Mul(1 / (deltaTime - remainingTime))
		if waterJump {
			c.Velocity = c.setGravitySpaceZ(c.Velocity, velZ)
		}
	}

	if !c.InWater && c.IsSwimming() {
		c.SetMovementMode(ModeFalling, CustomNone)
	}
	if !c.IsSwimming() {
		c.StartNewPhysics(remainingTime, iterations)
	}
}

// swim moves the actor through water. It returns the hit of the move and the time left over, which is always zero
// since the water line is not searched for.
func (c *Character) swim(delta mgl64.Vec3, _ float64) (physics.Hit, float64) {
	hit, _ := c.SafeMove(delta, c.Rotation, true)
	return hit, 0
}

// StartSwimming estimates the velocity the actor entered the water with and continues the tick swimming.
func (c *Character) StartSwimming(oldLocation, oldVelocity mgl64.Vec3, timeTick, remainingTime float64, iterations int) {
	if remainingTime < minTickTime || timeTick < minTickTime {
		return
	}

	if !c.RootMotion.HasOverride && !c.JustTeleported {
		average := c.Location.Sub(oldLocation).Mul(1 / timeTick)
		c.Velocity = game.ClampedToMaxSize(average.Mul(2).Sub(oldVelocity), c.Config.TerminalVelocity)
	}

	velZ := c.gravitySpaceZ(c.Velocity)
	if !c.RootMotion.HasOverride && velZ > 2*game.SwimBobSpeed && velZ < 0 {
		// Smooth bobbing.
		c.Velocity = c.setGravitySpaceZ(c.Velocity, game.SwimBobSpeed-c.projectToGravityFloor(c.Velocity).Len()*0.7)
	}

	if remainingTime >= minTickTime && iterations < c.Config.MaxSimulationIterations {
		c.PhysSwimming(remainingTime, iterations)
	}
}

// updatePhysicsVolume checks whether the actor entered or left water, switching to swimming or falling.
func (c *Character) updatePhysicsVolume() {
	if c.deferVolumeUpdates > 0 {
		return
	}
	inWater := c.IsInWater()
	if inWater == c.InWater {
		return
	}
	c.InWater = inWater

	if inWater {
		if !c.IsSwimming() {
			c.SetMovementMode(ModeSwimming, CustomNone)
		}
		return
	}
	if !c.IsSwimming() {
		return
	}
	c.SetMovementMode(ModeFalling, CustomNone)

	jumpDir := c.floorDirection(c.Rotation.Forward())
	if c.gravitySpaceZ(c.Acceleration) > 0 && jumpDir.Dot(c.Acceleration) > 0 && c.checkWaterJump(jumpDir) {
		c.Velocity = c.setGravitySpaceZ(c.Velocity, c.Tuning.OutOfWaterZ)
	}
}

// checkWaterJump reports whether there is a wall in front of the actor low enough to climb out of the water onto.
func (c *Character) checkWaterJump(checkDir mgl64.Vec3) bool {
	shape := c.Shape()
	start := c.Location
	checkPoint := start.Add(checkDir.Mul(1.2 * shape.Radius))
	hit, ok := c.World.SweepCapsule(start, checkPoint, shape)
	if !ok || !hit.Blocking || c.gravitySpaceZ(hit.ImpactNormal) >= wallStepNormalZ {
		return false
	}

	raise := c.up().Mul(maxOutOfWaterStepHeight)
	_, blocked := c.World.SweepCapsule(start.Add(raise), checkPoint.Add(raise), shape)
	return !blocked
}
