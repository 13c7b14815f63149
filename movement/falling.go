package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/physics"
)

// apexTimeMinimum is the shortest sub step used to land exactly on the apex of a jump.
const apexTimeMinimum = 0.0001

// fallingLateralAcceleration returns the horizontal acceleration available in the air.
func (c *Character) fallingLateralAcceleration(deltaTime float64) mgl64.Vec3 {
	fallAcceleration := c.projectToGravityFloor(c.Acceleration)
	if !c.RootMotion.HasOverride && fallAcceleration.LenSqr() > 0 {
		fallAcceleration = c.airControl(deltaTime, c.Tuning.AirControl, fallAcceleration)
		fallAcceleration = game.ClampedToMaxSize(fallAcceleration, c.Hooks.MaxAcceleration(c))
	}
	return fallAcceleration
}

func (c *Character) airControl(_ float64, tickAirControl float64, fallAcceleration mgl64.Vec3) mgl64.Vec3 {
	if tickAirControl != 0 {
		tickAirControl = c.boostAirControl(tickAirControl)
	}
	return fallAcceleration.Mul(tickAirControl)
}

// boostAirControl grants extra air control while the actor is almost not moving horizontally.
func (c *Character) boostAirControl(tickAirControl float64) float64 {
	threshold := c.Tuning.AirControlBoostVelocityThreshold
	if c.Tuning.AirControlBoostMultiplier > 0 && c.projectToGravityFloor(c.Velocity).LenSqr() < threshold*threshold {
		tickAirControl = math.Min(1, c.Tuning.AirControlBoostMultiplier*tickAirControl)
	}
	return tickAirControl
}

// limitAirControl stops air control from pushing the actor into a surface it can't land on.
func (c *Character) limitAirControl(fallAcceleration mgl64.Vec3, hit physics.Hit, checkForValidLandingSpot bool) mgl64.Vec3 {
	result := fallAcceleration
	if hit.IsValidBlockingHit() && c.gravitySpaceZ(hit.Normal) > verticalSlopeNormalZ {
		if (!checkForValidLandingSpot || !c.IsValidLandingSpot(hit.Location, hit)) && fallAcceleration.Dot(hit.Normal) < 0 {
			normal2D := c.floorDirection(hit.Normal)
			result = game.VectorPlaneProject(fallAcceleration, normal2D)
		}
	} else if hit.StartPenetrating {
		if result.Dot(hit.Normal) > 0 {
			return result
		}
		return mgl64Zero
	}
	return result
}

// horizontalCalcVelocity runs the velocity calculation on the horizontal part of the velocity only, with the
// acceleration passed, restoring the acceleration afterwards.
func (c *Character) horizontalCalcVelocity(acceleration mgl64.Vec3, deltaTime, brakingDeceleration float64) {
	savedAcceleration := c.Acceleration
	c.Acceleration = acceleration

	vertical := c.projectToGravityZ(c.Velocity)
	c.Velocity = c.projectToGravityFloor(c.Velocity)
	c.Hooks.CalcVelocity(c, deltaTime, c.Tuning.FallingLateralFriction, false, brakingDeceleration)
	c.Velocity = c.Velocity.Add(vertical)

	c.Acceleration = savedAcceleration
}

// PhysFalling moves the actor through the air under gravity with limited air control, landing it on the first
// valid landing spot and deflecting it off everything else.
func (c *Character) PhysFalling(deltaTime float64, iterations int) {
	if deltaTime < minTickTime {
		return
	}

	fallAcceleration := c.projectToGravityFloor(c.fallingLateralAcceleration(deltaTime))
	hasLimitedAirControl := !game.IsZero(fallAcceleration)

	remainingTime := deltaTime
	for remainingTime >= minTickTime && iterations < c.Config.MaxSimulationIterations {
		iterations++
		timeTick := c.getSimulationTimeStep(remainingTime, iterations)
		remainingTime -= timeTick

		oldLocation := c.Location
		pawnRotation := c.Rotation
		c.JustTeleported = false

		oldVelocityWithRootMotion := c.Velocity
		c.restorePreAdditiveRootMotionVelocity()
		oldVelocity := c.Velocity

		maxDecel := c.Hooks.MaxBrakingDeceleration(c)
		if !c.RootMotion.HasOverride {
			c.horizontalCalcVelocity(fallAcceleration, timeTick, maxDecel)
		}

		gravity := c.up().Mul(c.gravityZ())
		gravityTime := timeTick
		if c.JumpForceTimeRemaining > 0 {
			jumpForceTime := math.Min(c.JumpForceTimeRemaining, timeTick)
			c.JumpForceTimeRemaining -= jumpForceTime
			if c.JumpForceTimeRemaining <= 0 {
				c.ResetJumpState()
			}
		}
		c.Velocity = c.newFallVelocity(c.Velocity, gravity, gravityTime)

		// Sub step so the apex of a jump is reached exactly, independent of the tick rate.
		oldZ := c.gravitySpaceZ(oldVelocityWithRootMotion)
		if c.Config.ForceJumpPeakSubstep && oldZ > 0 && c.gravitySpaceZ(c.Velocity) <= 0 &&
			c.NumJumpApexAttempts < c.Config.MaxJumpApexAttemptsPerSimulation {
			derivedAccel := c.Velocity.Sub(oldVelocityWithRootMotion).Mul(1 / timeTick)
			derivedAccelZ := c.gravitySpaceZ(derivedAccel)
			if math.Abs(derivedAccelZ) > game.SmallNumber {
				timeToApex := -oldZ / derivedAccelZ
				if timeToApex >= apexTimeMinimum && timeToApex < timeTick {
					apexVelocity := oldVelocityWithRootMotion.Add(derivedAccel.Mul(timeToApex))
					c.Velocity = c.projectToGravityFloor(apexVelocity)

					remainingTime += timeTick - timeToApex
					timeTick = timeToApex
					iterations--
					c.NumJumpApexAttempts++
				}
			}
		}

		c.applyRootMotionToVelocity(timeTick)

		// Midpoint integration.
		adjusted := oldVelocityWithRootMotion.Add(c.Velocity).Mul(0.5 * timeTick)

		hit, _ := c.SafeMove(adjusted, pawnRotation, true)

		lastMoveTimeSlice := timeTick
		subTimeTickRemaining := timeTick * (1 - hit.Time)

		if c.IsSwimming() {
			remainingTime += subTimeTickRemaining
			c.StartSwimming(oldLocation, oldVelocity, timeTick, remainingTime, iterations)
			return
		}

		if hit.Blocking {
			if c.IsValidLandingSpot(c.Location, hit) {
				remainingTime += subTimeTickRemaining
				c.ProcessLanded(hit, remainingTime, iterations)
				return
			}

			// Deflect using the final velocity so the full effect of gravity is part of the slide.
			adjusted = c.Velocity.Mul(timeTick)

			if !hit.StartPenetrating && c.shouldCheckForValidLandingSpot(hit) {
				floor := c.FindFloor(c.Location, false, nil)
				if !floor.LineTrace && floor.IsWalkableFloor() && c.IsValidLandingSpot(c.Location, floor.Hit) {
					remainingTime += subTimeTickRemaining
					c.ProcessLanded(floor.Hit, remainingTime, iterations)
					return
				}
			}

			c.handleImpact(hit)
			if !c.IsFalling() {
				return
			}

			velocityNoAirControl := oldVelocity
			airControlAccel := c.Acceleration
			if hasLimitedAirControl {
				savedVelocity := c.Velocity
				c.Velocity = oldVelocity
				c.horizontalCalcVelocity(mgl64Zero, timeTick, maxDecel)
				velocityNoAirControl = c.Velocity
				c.Velocity = savedVelocity
				velocityNoAirControl = c.newFallVelocity(velocityNoAirControl, gravity, gravityTime)

				airControlAccel = c.Velocity.Sub(velocityNoAirControl).Mul(1 / timeTick)
				airControlDeltaV := c.limitAirControl(airControlAccel, hit, false).Mul(lastMoveTimeSlice)
				adjusted = velocityNoAirControl.Add(airControlDeltaV).Mul(lastMoveTimeSlice)
			}

			oldHitNormal := hit.Normal
			oldHitImpactNormal := hit.ImpactNormal
			delta := c.computeSlideVector(adjusted, 1-hit.Time, oldHitNormal, hit)

			if subTimeTickRemaining > game.KindaSmallNumber && !c.JustTeleported {
				newVelocity := delta.Mul(1 / subTimeTickRemaining)
				if c.RootMotion.HasOverride {
					c.Velocity = c.setGravitySpaceZ(c.Velocity, c.gravitySpaceZ(newVelocity))
				} else {
					c.Velocity = newVelocity
				}
			}

			if subTimeTickRemaining > game.KindaSmallNumber && delta.Dot(adjusted) > 0 {
				hit, _ = c.SafeMove(delta, pawnRotation, true)
				if hit.Blocking {
					// Second wall.
					lastMoveTimeSlice = subTimeTickRemaining
					subTimeTickRemaining *= 1 - hit.Time

					if c.IsValidLandingSpot(c.Location, hit) {
						remainingTime += subTimeTickRemaining
						c.ProcessLanded(hit, remainingTime, iterations)
						return
					}

					c.handleImpact(hit)
					if !c.IsFalling() {
						return
					}

					if hasLimitedAirControl && c.gravitySpaceZ(hit.Normal) > verticalSlopeNormalZ {
						lastMoveNoAirControl := velocityNoAirControl.Mul(lastMoveTimeSlice)
						delta = c.computeSlideVector(lastMoveNoAirControl, 1, oldHitNormal, hit)
					}

					delta = c.twoWallAdjust(delta, hit, oldHitNormal)

					if hasLimitedAirControl {
						airControlDeltaV := c.limitAirControl(airControlAccel, hit, false).Mul(subTimeTickRemaining)
						if airControlDeltaV.Dot(oldHitNormal) > 0 {
							delta = delta.Add(airControlDeltaV.Mul(subTimeTickRemaining))
						}
					}

					if subTimeTickRemaining > game.KindaSmallNumber && !c.JustTeleported {
						newVelocity := delta.Mul(1 / subTimeTickRemaining)
						if c.RootMotion.HasOverride {
							c.Velocity = c.setGravitySpaceZ(c.Velocity, c.gravitySpaceZ(newVelocity))
						} else {
							c.Velocity = newVelocity
						}
					}

					// A ditch is two slopes, neither of which can be stood on, meeting below the actor.
					ditch := c.gravitySpaceZ(oldHitImpactNormal) > 0 && c.gravitySpaceZ(hit.ImpactNormal) > 0 &&
						math.Abs(delta.Dot(c.gravityDirection())) <= game.KindaSmallNumber &&
						hit.ImpactNormal.Dot(oldHitImpactNormal) < 0

					hit, _ = c.SafeMove(delta, pawnRotation, true)
					if hit.Time == 0 {
						// Stuck, try to side step.
						sideDelta := c.floorDirection(oldHitNormal.Add(hit.ImpactNormal))
						if game.IsNearlyZero(sideDelta, game.KindaSmallNumber) {
							sideDelta = game.SafeNormal(c.projectToGravityFloor(oldHitNormal).Cross(c.up()), game.SmallNumber)
						}
						hit, _ = c.SafeMove(sideDelta, pawnRotation, true)
					}

					if ditch || c.IsValidLandingSpot(c.Location, hit) || hit.Time == 0 {
						c.ProcessLanded(hit, 0, iterations)
						return
					}
				}
			}
		}

		if c.projectToGravityFloor(c.Velocity).LenSqr() <= game.KindaSmallNumber*10 {
			c.Velocity = c.projectToGravityZ(c.Velocity)
		}
	}
}

// IsValidLandingSpot reports whether the actor at location can land on the surface it hit.
func (c *Character) IsValidLandingSpot(location mgl64.Vec3, hit physics.Hit) bool {
	if !hit.Blocking {
		return false
	}

	if !hit.StartPenetrating {
		if !c.IsWalkable(hit) {
			return false
		}
		// Hits above the lower hemisphere happen when sliding down a vertical surface.
		lowerHemisphereZ := c.gravitySpaceZ(hit.Location) - c.HalfHeight + c.Tuning.Radius
		if c.gravitySpaceZ(hit.ImpactPoint) >= lowerHemisphereZ {
			return false
		}
		if !c.isWithinEdgeTolerance(hit.Location, hit.ImpactPoint, c.Tuning.Radius) {
			return false
		}
	} else if c.gravitySpaceZ(hit.Normal) < game.KindaSmallNumber {
		// Penetration next to a vertical or overhanging wall.
		return false
	}

	floor := c.FindFloor(location, false, &hit)
	return floor.IsWalkableFloor()
}

// shouldCheckForValidLandingSpot reports whether the hit is on the edge of a surface, where a downward sweep
// may still find walkable ground on top of it.
func (c *Character) shouldCheckForValidLandingSpot(hit physics.Hit) bool {
	if c.gravitySpaceZ(hit.Normal) > game.KindaSmallNumber && !vecEquals(hit.Normal, hit.ImpactNormal, game.KindaSmallNumber) {
		return c.isWithinEdgeTolerance(c.Location, hit.ImpactPoint, c.Tuning.Radius)
	}
	return false
}

// ProcessLanded lands the actor and continues the tick in the new mode.
func (c *Character) ProcessLanded(hit physics.Hit, remainingTime float64, iterations int) {
	c.handler.HandleLanded(c, hit)
	if c.IsFalling() {
		c.SetPostLandedPhysics()
	}
	c.StartNewPhysics(remainingTime, iterations)
}

// SetPostLandedPhysics switches to swimming if the actor landed in water, walking otherwise.
func (c *Character) SetPostLandedPhysics() {
	if c.IsInWater() {
		c.SetMovementMode(ModeSwimming, CustomNone)
		return
	}
	c.SetMovementMode(ModeWalking, CustomNone)
}

func vecEquals(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a[0]-b[0]) <= tolerance && math.Abs(a[1]-b[1]) <= tolerance && math.Abs(a[2]-b[2]) <= tolerance
}
