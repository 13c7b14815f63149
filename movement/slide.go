package movement

import (
	"math"

	"github.com/oomph-ac/locomotion/game"
)

// slideSurfaceTraceScale is the length of the slide surface trace in capsule half heights.
const slideSurfaceTraceScale = 2.5

// IsSlideTriggered reports whether the crouch input of this tick triggers a slide.
func (c *Character) IsSlideTriggered() bool {
	switch c.slideTrigger {
	case SlideTriggerDoubleTap:
		return !c.WantsToCrouch && c.PrevWantsToCrouch
	case SlideTriggerSingleTap:
		return c.WantsToCrouch && !c.PrevWantsToCrouch
	}
	return false
}

// CanSlide reports whether there is a surface below the actor to slide on and, if checkSpeed is set, whether the
// actor is fast enough.
func (c *Character) CanSlide(checkSpeed bool) bool {
	start := c.Location
	end := start.Add(c.gravityDirection().Mul(c.HalfHeight * slideSurfaceTraceScale))
	_, validSurface := c.World.LineTrace(start, end)
	enoughSpeed := !checkSpeed || c.Velocity.LenSqr() > c.Tuning.MinSlideSpeed*c.Tuning.MinSlideSpeed
	return validSurface && enoughSpeed
}

// EnterSlide holds crouch, pushes the actor along its horizontal velocity and finds the floor again.
func (c *Character) EnterSlide(Mode, CustomMode) {
	c.WantsToCrouch = true
	c.Velocity = c.Velocity.Add(c.floorDirection(c.Velocity).Mul(c.Tuning.SlideEnterImpulse))
	c.Floor = c.FindFloor(c.Location, true, nil)
}

// ExitSlide releases crouch.
func (c *Character) ExitSlide() {
	c.WantsToCrouch = false
}

// PhysSlide moves the actor along the floor like PhysWalking, accelerating it down slopes and replacing the
// input with steering. The actor turns to face its horizontal velocity when the slide integration ends.
func (c *Character) PhysSlide(deltaTime float64, iterations int) {
	if deltaTime < minTickTime {
		return
	}
	if !c.CanSlide(true) {
		c.SetMovementMode(ModeWalking, CustomNone)
		c.StartNewPhysics(deltaTime, iterations)
		return
	}

	c.JustTeleported = false
	checkedFall, triedLedgeMove := false, false
	remainingTime := deltaTime

	for remainingTime >= minTickTime && iterations < c.Config.MaxSimulationIterations &&
		(c.HasController || c.Config.RunPhysicsWithNoController || c.isSimulatedProxy()) {
		iterations++
		c.JustTeleported = false
		timeTick := c.getSimulationTimeStep(remainingTime, iterations)
		remainingTime -= timeTick

		oldBase := c.Base
		previousBaseLocation := mgl64Zero
		if oldBase != nil {
			previousBaseLocation = oldBase.Location()
		}
		oldLocation := c.Location
		oldFloor := c.Floor

		c.maintainHorizontalGroundVelocity()
		oldVelocity := c.Velocity

		slopeForce := c.projectToGravityFloor(c.Floor.Hit.Normal)
		c.Velocity = c.Velocity.Add(slopeForce.Mul(c.Tuning.SlideGravityForce * timeTick))

		if !game.IsZero(c.Acceleration) {
			inputDir := c.floorDirection(c.Acceleration)
			right := c.Rotation.Right()
			steering := right.Mul(inputDir.Dot(right) * c.Tuning.SlideSteeringStrength)
			if c.Tuning.AllowForwardInputDuringSlide {
				forward := c.Rotation.Forward()
				steering = steering.Add(forward.Mul(inputDir.Dot(forward) * c.Tuning.SlideForwardInputStrength))
			}
			c.Acceleration = steering.Mul(c.Acceleration.Len())
		}

		c.Hooks.CalcVelocity(c, timeTick, c.Grounded.GroundFriction*c.Tuning.SlideFrictionFactor, false, c.Hooks.MaxBrakingDeceleration(c))

		moveVelocity := c.Velocity
		delta := moveVelocity.Mul(timeTick)
		zeroDelta := game.IsNearlyZero(delta, game.KindaSmallNumber)
		floorWalkable := c.Floor.IsWalkableFloor()
		var (
			stepDown         FloorResult
			stepDownComputed bool
		)

		if zeroDelta {
			remainingTime = 0
		} else {
			stepDown, stepDownComputed = c.MoveAlongFloor(moveVelocity, timeTick)

			if c.IsFalling() {
				desiredDist := delta.Len()
				if desiredDist > game.KindaSmallNumber {
					actualDist := c.projectToGravityFloor(c.Location.Sub(oldLocation)).Len()
					remainingTime += timeTick * (1 - math.Min(1, actualDist/desiredDist))
				}
				c.StartNewPhysics(remainingTime, iterations)
				return
			} else if c.IsSwimming() {
				c.StartSwimming(oldLocation, oldVelocity, timeTick, remainingTime, iterations)
				return
			}
		}

		if stepDownComputed {
			c.Floor = stepDown
		} else {
			c.Floor = c.FindFloor(c.Location, zeroDelta, nil)
		}

		if !c.Hooks.CanWalkOffLedges(c) && !c.Floor.IsWalkableFloor() {
			var newDelta = mgl64Zero
			if !triedLedgeMove {
				newDelta = c.GetLedgeMove(oldLocation, delta, oldFloor)
			}
			if !game.IsZero(newDelta) {
				c.RevertMove(oldLocation, oldBase, previousBaseLocation, oldFloor, false)
				triedLedgeMove = true
				c.Velocity = newDelta.Mul(1 / timeTick)
				remainingTime += timeTick
				continue
			}

			must := mustJump(zeroDelta, oldBase)
			if (must || !checkedFall) && c.CheckFall(oldFloor, delta, oldLocation, remainingTime, timeTick, iterations, must) {
				return
			}
			checkedFall = true

			c.RevertMove(oldLocation, oldBase, previousBaseLocation, oldFloor, true)
			break
		}

		if c.Floor.IsWalkableFloor() {
			if c.ShouldCatchAir(oldFloor, c.Floor) {
				c.handler.HandleWalkingOffLedge(c)
				if c.IsMovingOnGround() {
					c.StartFalling(iterations, remainingTime, timeTick, delta, oldLocation)
				}
				return
			}
			c.AdjustFloorHeight()
			c.SetBase(c.Floor.Hit.Base)
		} else if c.Floor.Hit.StartPenetrating && remainingTime <= 0 {
			hit := c.Floor.Hit
			hit.TraceEnd = hit.TraceStart.Add(c.up().Mul(game.MaxFloorDist))
			c.resolvePenetration(c.penetrationAdjustment(hit), hit, c.Rotation)
			c.ForceNextFloorCheck = true
		}

		if c.IsSwimming() {
			c.StartSwimming(oldLocation, c.Velocity, timeTick, remainingTime, iterations)
			return
		}

		if !c.Floor.IsWalkableFloor() && !c.Floor.Hit.StartPenetrating {
			must := c.JustTeleported || mustJump(zeroDelta, oldBase)
			if (must || !checkedFall) && c.CheckFall(oldFloor, delta, oldLocation, remainingTime, timeTick, iterations, must) {
				return
			}
			checkedFall = true
		}

		if c.IsMovingOnGround() && floorWalkable && !c.JustTeleported && !c.RootMotion.HasOverride && timeTick >= minTickTime {
			c.Velocity = c.Location.Sub(oldLocation).Mul(1 / timeTick)
			c.maintainHorizontalGroundVelocity()
		}

		if c.Location == oldLocation {
			break
		}
	}

	rotation := c.Rotation
	if dir := c.floorDirection(c.Velocity); !game.IsZero(dir) {
		rotation = game.RotatorFromXZ(dir)
	}
	c.SafeMove(mgl64Zero, rotation, false)
}
