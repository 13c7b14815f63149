package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/physics"
)

// canRunPhysics reports whether the actor may be simulated this tick.
func (c *Character) canRunPhysics() bool {
	return c.HasController || c.Config.RunPhysicsWithNoController || c.RootMotion.HasOverride || c.isSimulatedProxy()
}

// getSimulationTimeStep returns the length of the next sub step. Long steps are halved while iterations remain.
func (c *Character) getSimulationTimeStep(remainingTime float64, iterations int) float64 {
	if remainingTime > c.Config.MaxSimulationTimeStep && iterations < c.Config.MaxSimulationIterations {
		remainingTime = math.Min(c.Config.MaxSimulationTimeStep, remainingTime*0.5)
	}
	return math.Max(minTickTime, remainingTime)
}

// mustJump reports whether the actor has to fall when leaving the floor, regardless of whether it may walk off
// ledges.
func mustJump(zeroDelta bool, oldBase physics.Base) bool {
	return zeroDelta || oldBase == nil || (!oldBase.QueryCollision() && oldBase.Dynamic())
}

// PhysWalking moves the actor along the floor in sub steps. Every sub step accelerates, moves along the floor,
// finds the new floor and then either keeps walking, tries a ledge move, or starts falling.
func (c *Character) PhysWalking(deltaTime float64, iterations int) {
	if deltaTime < minTickTime {
		return
	}
	if !c.canRunPhysics() {
		c.Acceleration = mgl64Zero
		c.Velocity = mgl64Zero
		return
	}

	c.JustTeleported = false
	checkedFall, triedLedgeMove := false, false
	remainingTime := deltaTime
	startingMode, startingCustom := c.Mode, c.CustomMode

	for remainingTime >= minTickTime && iterations < c.Config.MaxSimulationIterations && c.canRunPhysics() {
		iterations++
		c.JustTeleported = false
		timeTick := c.getSimulationTimeStep(remainingTime, iterations)
		remainingTime -= timeTick

		oldBase := c.Base
		var previousBaseLocation mgl64.Vec3
		if oldBase != nil {
			previousBaseLocation = oldBase.Location()
		}
		oldLocation := c.Location
		oldFloor := c.Floor

		c.restorePreAdditiveRootMotionVelocity()

		c.maintainHorizontalGroundVelocity()
		oldVelocity := c.Velocity
		c.Acceleration = game.VectorPlaneProject(c.Acceleration, c.up())

		skipForLedgeMove := triedLedgeMove && c.Config.LedgeMovementApplyDirectMove
		if !c.RootMotion.HasOverride && !skipForLedgeMove {
			c.Hooks.CalcVelocity(c, timeTick, c.Grounded.GroundFriction, false, c.Hooks.MaxBrakingDeceleration(c))
		}
		c.applyRootMotionToVelocity(timeTick)

		if c.Mode != startingMode || c.CustomMode != startingCustom {
			// Root motion changed the mode before any movement happened.
			c.StartNewPhysics(remainingTime+timeTick, iterations-1)
			return
		}

		moveVelocity := c.Velocity
		delta := moveVelocity.Mul(timeTick)
		zeroDelta := game.IsNearlyZero(delta, game.KindaSmallNumber)
		var (
			stepDown         FloorResult
			stepDownComputed bool
		)

		if zeroDelta {
			remainingTime = 0
		} else {
			stepDown, stepDownComputed = c.MoveAlongFloor(moveVelocity, timeTick)

			if c.IsSwimming() {
				c.StartSwimming(oldLocation, oldVelocity, timeTick, remainingTime, iterations)
				return
			} else if c.Mode != startingMode || c.CustomMode != startingCustom {
				desiredDist := delta.Len()
				if desiredDist > game.KindaSmallNumber {
					actualDist := c.projectToGravityFloor(c.Location.Sub(oldLocation)).Len()
					remainingTime += timeTick * (1 - math.Min(1, actualDist/desiredDist))
				}
				c.StartNewPhysics(remainingTime, iterations)
				return
			}
		}

		if stepDownComputed {
			c.Floor = stepDown
		} else {
			c.Floor = c.FindFloor(c.Location, zeroDelta, nil)
		}

		checkLedges := !c.Hooks.CanWalkOffLedges(c)
		if checkLedges && !c.Floor.IsWalkableFloor() {
			var newDelta mgl64.Vec3
			if !triedLedgeMove {
				newDelta = c.GetLedgeMove(oldLocation, delta, oldFloor)
			}
			if !game.IsZero(newDelta) {
				c.RevertMove(oldLocation, oldBase, previousBaseLocation, oldFloor, false)
				triedLedgeMove = true

				c.Velocity = newDelta.Mul(1 / timeTick)
				remainingTime += timeTick
				iterations--
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
			c.SetBaseFromFloor(c.Floor)
		}

		if (c.Config.ImprovedPenetrationAdjust || !c.Floor.IsWalkableFloor()) && c.Floor.Hit.StartPenetrating && remainingTime <= 0 {
			// The floor sweep started in penetration, so pop out of the floor instead of moving down.
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

		if c.IsMovingOnGround() && !c.JustTeleported && !c.RootMotion.HasOverride && timeTick >= minTickTime {
			c.PrePenetrationAdjustmentVelocity = moveVelocity
			c.PrePenetrationAdjustmentVelocityValid = true

			c.Velocity = c.Location.Sub(oldLocation).Mul(1 / timeTick)
			c.maintainHorizontalGroundVelocity()
		}

		if c.Location == oldLocation {
			break
		}
	}

	if c.IsMovingOnGround() {
		c.maintainHorizontalGroundVelocity()
	}
}

// GetLedgeMove returns a move to the side of delta that keeps the actor on walkable ground, or a zero vector if
// there is none.
func (c *Character) GetLedgeMove(oldLocation, delta mgl64.Vec3, oldFloor FloorResult) mgl64.Vec3 {
	if game.IsZero(delta) {
		return mgl64Zero
	}
	sideDir := c.projectToGravityFloor(delta).Cross(c.up())
	if c.CheckLedgeDirection(oldLocation, sideDir, oldFloor) {
		return sideDir
	}
	sideDir = sideDir.Mul(-1)
	if c.CheckLedgeDirection(oldLocation, sideDir, oldFloor) {
		return sideDir
	}
	return mgl64Zero
}

// CheckLedgeDirection reports whether stepping from oldLocation by sideStep ends on walkable ground.
func (c *Character) CheckLedgeDirection(oldLocation, sideStep mgl64.Vec3, _ FloorResult) bool {
	sideDest := oldLocation.Add(sideStep)
	shape := c.Shape()

	result, _ := c.sweep(oldLocation, sideDest, shape)
	if result.Blocking && !c.IsWalkable(result) {
		return false
	}
	if !result.Blocking {
		down := c.gravityDirection().Mul(c.Tuning.MaxStepHeight + game.LedgeCheckThreshold)
		result, _ = c.sweep(sideDest, sideDest.Add(down), shape)
	}
	return result.Time < 1 && c.IsWalkable(result)
}

// CheckFall starts falling if the actor must, or is allowed to, walk off the ledge. It returns true if the
// actor left the walking integrator.
func (c *Character) CheckFall(oldFloor FloorResult, delta, oldLocation mgl64.Vec3, remainingTime, timeTick float64, iterations int, mustJump bool) bool {
	if !mustJump && !c.Hooks.CanWalkOffLedges(c) {
		return false
	}
	c.handler.HandleWalkingOffLedge(c)
	if c.IsMovingOnGround() {
		c.StartFalling(iterations, remainingTime, timeTick, delta, oldLocation)
	}
	return true
}

// StartFalling switches to falling and continues the tick with the time the walking sub step did not use.
func (c *Character) StartFalling(iterations int, remainingTime, timeTick float64, delta, subLocation mgl64.Vec3) {
	desiredDist := delta.Len()
	actualDist := c.projectToGravityFloor(c.Location.Sub(subLocation)).Len()
	if desiredDist < game.KindaSmallNumber {
		remainingTime = 0
	} else {
		remainingTime += timeTick * (1 - math.Min(1, actualDist/desiredDist))
	}

	if c.IsMovingOnGround() {
		c.SetMovementMode(ModeFalling, CustomNone)
	}
	c.StartNewPhysics(remainingTime, iterations)
}

// RevertMove puts the actor back where the sub step started. The old floor and base are restored if the base
// could not have moved since. A failed move also stops the actor.
func (c *Character) RevertMove(oldLocation mgl64.Vec3, oldBase physics.Base, previousBaseLocation mgl64.Vec3, oldFloor FloorResult, failMove bool) {
	c.Location = oldLocation
	c.JustTeleported = false

	if oldBase != nil && (!oldBase.Dynamic() || oldBase.Location() == previousBaseLocation) {
		c.Floor = oldFloor
		c.SetBase(oldBase)
	} else {
		c.SetBase(nil)
	}

	if failMove {
		c.Velocity = mgl64Zero
		c.Acceleration = mgl64Zero
	}
}
