package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/physics"
)

const (
	minTickTime = game.MinTickTime
	// minMovementDistSq is the smallest squared sweep distance that actually moves the actor.
	minMovementDistSq = (4 * game.KindaSmallNumber) * (4 * game.KindaSmallNumber)
	// verticalSlopeNormalZ is the largest normal Z treated as a vertical wall.
	verticalSlopeNormalZ = 0.001
)

// moveUpdatedComponent moves the actor by delta, sweeping the capsule if sweep is set. It returns the hit of the
// sweep and false if the actor could not move because it started in penetration.
func (c *Character) moveUpdatedComponent(delta mgl64.Vec3, rotation game.Rotator, sweep bool) (physics.Hit, bool) {
	c.Rotation = rotation
	start := c.Location
	if (sweep && delta.LenSqr() <= minMovementDistSq) || game.IsZero(delta) {
		return physics.Miss(start, start), true
	}
	end := start.Add(delta)
	if !sweep {
		c.Location = end
		c.updatePhysicsVolume()
		return physics.Miss(start, end), true
	}

	hit, ok := c.World.SweepCapsule(start, end, c.Shape())
	if !ok {
		c.Location = end
		c.updatePhysicsVolume()
		return physics.Miss(start, end), true
	}
	if hit.StartPenetrating {
		return hit, false
	}
	c.Location = hit.Location
	c.updatePhysicsVolume()
	return hit, true
}

// SafeMove moves the actor by delta, resolving an initial penetration and retrying the move once if needed.
func (c *Character) SafeMove(delta mgl64.Vec3, rotation game.Rotator, sweep bool) (physics.Hit, bool) {
	hit, moved := c.moveUpdatedComponent(delta, rotation, sweep)
	if hit.StartPenetrating {
		adjustment := c.penetrationAdjustment(hit)
		if c.resolvePenetration(adjustment, hit, rotation) {
			hit, moved = c.moveUpdatedComponent(delta, rotation, sweep)
		}
	}
	return hit, moved
}

// penetrationAdjustment returns the vector that moves the actor out of the penetration described by hit.
func (c *Character) penetrationAdjustment(hit physics.Hit) mgl64.Vec3 {
	if !hit.StartPenetrating {
		return mgl64Zero
	}
	depth := hit.PenetrationDepth
	if depth <= 0 {
		depth = game.PenetrationPullbackDistance
	}
	result := hit.Normal.Mul(depth + game.PenetrationPullbackDistance)

	maxDistance := c.Config.MaxDepenetrationWithGeometry
	if c.isSimulatedProxy() {
		maxDistance = c.Config.MaxDepenetrationWithGeometryAsProxy
	}
	return game.ClampedToMaxSize(result, maxDistance)
}

// resolvePenetration tries to move the actor out of a penetration, first by teleporting to a free location, then
// by sweeping along the adjustment, combinations of it with a second adjustment and the original move.
func (c *Character) resolvePenetration(adjustment mgl64.Vec3, hit physics.Hit, rotation game.Rotator) bool {
	if game.IsZero(adjustment) {
		return false
	}

	if !c.World.Overlaps(hit.TraceStart.Add(adjustment), c.Shape()) {
		c.moveUpdatedComponent(adjustment, rotation, false)
		c.JustTeleported = true
		return true
	}

	sweepOut, moved := c.moveUpdatedComponent(adjustment, rotation, true)
	if !moved && sweepOut.StartPenetrating {
		second := c.penetrationAdjustment(sweepOut)
		combined := adjustment.Add(second)
		if second != adjustment && !game.IsZero(combined) {
			_, moved = c.moveUpdatedComponent(combined, rotation, true)
		}
	}
	if !moved {
		moveDelta := hit.TraceEnd.Sub(hit.TraceStart)
		if !game.IsZero(moveDelta) {
			_, moved = c.moveUpdatedComponent(adjustment.Add(moveDelta), rotation, true)
			if !moved && moveDelta.Dot(adjustment) > 0 {
				_, moved = c.moveUpdatedComponent(moveDelta, rotation, true)
			}
		}
	}
	c.JustTeleported = c.JustTeleported || moved
	return moved
}

// handleImpact notifies the handler of a hit.
func (c *Character) handleImpact(hit physics.Hit) {
	c.handler.HandleImpact(c, hit)
}

// SlideAlongSurface moves the actor along the surface it hit, deflecting off a second surface if needed. It returns
// the fraction of the time that was applied.
func (c *Character) SlideAlongSurface(delta mgl64.Vec3, time float64, normal mgl64.Vec3, hit *physics.Hit, handleImpact bool) float64 {
	if !hit.Blocking {
		return 0
	}

	if c.IsMovingOnGround() {
		if c.gravitySpaceZ(normal) > 0 {
			if !c.IsWalkable(*hit) {
				normal = game.SafeNormal(c.projectToGravityFloor(normal), game.SmallNumber)
			}
		} else if c.gravitySpaceZ(normal) < -game.KindaSmallNumber {
			if c.Floor.FloorDist < game.MinFloorDist && c.Floor.BlockingHit {
				floorNormal := c.Floor.Hit.Normal
				floorOpposedToMovement := delta.Dot(floorNormal) < 0 && c.gravitySpaceZ(floorNormal) < 1-1e-5
				if floorOpposedToMovement {
					normal = floorNormal
				}
				normal = game.SafeNormal(c.projectToGravityFloor(normal), game.SmallNumber)
			}
		}
	}

	oldHitNormal := normal
	slideDelta := c.computeSlideVector(delta, time, normal, *hit)
	if slideDelta.Dot(delta) <= 0 {
		return 0
	}

	rotation := c.Rotation
	*hit, _ = c.SafeMove(slideDelta, rotation, true)
	firstHitPercent := hit.Time
	percentTimeApplied := firstHitPercent

	if hit.IsValidBlockingHit() {
		if handleImpact {
			c.handleImpact(*hit)
		}
		slideDelta = c.twoWallAdjust(slideDelta, *hit, oldHitNormal)

		if !game.IsNearlyZero(slideDelta, 1e-3) && slideDelta.Dot(delta) > 0 {
			*hit, _ = c.SafeMove(slideDelta, rotation, true)
			secondHitPercent := hit.Time * (1 - firstHitPercent)
			percentTimeApplied += secondHitPercent
			if handleImpact && hit.Blocking {
				c.handleImpact(*hit)
			}
		}
	}
	return game.Clamp01(percentTimeApplied)
}

func (c *Character) computeSlideVector(delta mgl64.Vec3, time float64, normal mgl64.Vec3, hit physics.Hit) mgl64.Vec3 {
	result := game.VectorPlaneProject(delta, normal).Mul(time)
	if c.IsFalling() {
		result = c.handleSlopeBoosting(result, delta, time, normal, hit)
	}
	return result
}

// handleSlopeBoosting keeps a falling actor from being deflected higher than its original move would have taken it.
func (c *Character) handleSlopeBoosting(slideResult, delta mgl64.Vec3, time float64, normal mgl64.Vec3, _ physics.Hit) mgl64.Vec3 {
	result := slideResult
	resultZ := c.gravitySpaceZ(result)
	if resultZ <= 0 {
		return result
	}

	zLimit := c.gravitySpaceZ(delta) * time
	if resultZ-zLimit > game.KindaSmallNumber {
		if zLimit > 0 {
			result = result.Mul(zLimit / resultZ)
		} else {
			result = mgl64Zero
		}

		remainder := c.projectToGravityFloor(slideResult.Sub(result))
		normal2D := game.SafeNormal(c.projectToGravityFloor(normal), game.SmallNumber)
		result = result.Add(game.VectorPlaneProject(remainder, normal2D))
	}
	return result
}

// twoWallAdjust computes the direction to move in after hitting a second wall.
func (c *Character) twoWallAdjust(delta mgl64.Vec3, hit physics.Hit, oldHitNormal mgl64.Vec3) mgl64.Vec3 {
	inDelta := delta
	hitNormal := hit.Normal

	if oldHitNormal.Dot(hitNormal) <= 0 {
		desired := delta
		newDir := game.SafeNormal(hitNormal.Cross(oldHitNormal), game.SmallNumber)
		delta = newDir.Mul(delta.Dot(newDir) * (1 - hit.Time))
		if desired.Dot(delta) < 0 {
			delta = delta.Mul(-1)
		}
	} else {
		desired := delta
		delta = c.computeSlideVector(delta, 1-hit.Time, hitNormal, hit)
		if delta.Dot(desired) <= 0 {
			delta = mgl64Zero
		} else if math.Abs(hitNormal.Dot(oldHitNormal)-1) < game.KindaSmallNumber {
			delta = delta.Add(hitNormal.Mul(0.01))
		}
	}

	if !c.IsMovingOnGround() {
		return delta
	}
	deltaZ := c.gravitySpaceZ(delta)
	if deltaZ > 0 {
		normalZ := c.gravitySpaceZ(hit.Normal)
		if (normalZ >= c.walkableFloorZ || c.IsWalkable(hit)) && normalZ > game.KindaSmallNumber {
			t := 1 - hit.Time
			scaled := game.SafeNormal(delta, game.SmallNumber).Mul(inDelta.Len())
			delta = c.projectToGravityFloor(inDelta).Add(c.up().Mul(c.gravitySpaceZ(scaled) / normalZ)).Mul(t)
		} else {
			delta = c.projectToGravityFloor(delta)
		}
	} else if deltaZ < 0 && c.Floor.FloorDist < game.MinFloorDist && c.Floor.BlockingHit {
		delta = c.projectToGravityFloor(delta)
	}
	return delta
}

// canStepUp reports whether the actor may try to step up onto the hit surface.
func (c *Character) canStepUp(hit physics.Hit) bool {
	return hit.IsValidBlockingHit() && c.Mode != ModeFalling
}

// StepUp tries to move up and over the obstacle described by hit. If a floor was found while stepping down, it is
// returned with computed set.
func (c *Character) StepUp(gravDir, delta mgl64.Vec3, hit physics.Hit) (floor FloorResult, computed, ok bool) {
	if !c.canStepUp(hit) || c.Tuning.MaxStepHeight <= 0 || game.IsZero(gravDir) {
		return FloorResult{}, false, false
	}

	oldLocation := c.Location
	radius, halfHeight := c.Tuning.Radius, c.HalfHeight

	initialImpactZ := c.gravitySpaceZ(hit.ImpactPoint)
	oldLocationZ := c.gravitySpaceZ(oldLocation)
	if initialImpactZ > oldLocationZ+(halfHeight-radius) {
		return FloorResult{}, false, false
	}

	stepTravelUpHeight := c.Tuning.MaxStepHeight
	stepTravelDownHeight := stepTravelUpHeight
	stepSideZ := -hit.ImpactNormal.Dot(gravDir)
	pawnInitialFloorBaseZ := oldLocationZ - halfHeight
	pawnFloorPointZ := pawnInitialFloorBaseZ

	if c.IsMovingOnGround() && c.Floor.IsWalkableFloor() {
		floorDist := math.Max(0, c.Floor.DistanceToFloor())
		pawnInitialFloorBaseZ -= floorDist
		stepTravelUpHeight = math.Max(stepTravelUpHeight-floorDist, 0)
		stepTravelDownHeight = c.Tuning.MaxStepHeight + game.MaxFloorDist*2

		hitVerticalFace := !c.isWithinEdgeTolerance(hit.Location, hit.ImpactPoint, radius)
		if !c.Floor.LineTrace && !hitVerticalFace {
			pawnFloorPointZ = c.gravitySpaceZ(c.Floor.Hit.ImpactPoint)
		} else {
			pawnFloorPointZ -= c.Floor.FloorDist
		}
	}

	if initialImpactZ <= pawnInitialFloorBaseZ {
		return FloorResult{}, false, false
	}

	rotation := c.Rotation
	c.deferVolumeUpdates++
	defer func() {
		c.deferVolumeUpdates--
		c.updatePhysicsVolume()
	}()
	revert := func() (FloorResult, bool, bool) {
		c.Location, c.Rotation = oldLocation, rotation
		return FloorResult{}, false, false
	}

	sweepUpHit, _ := c.moveUpdatedComponent(gravDir.Mul(-stepTravelUpHeight), rotation, true)
	if sweepUpHit.StartPenetrating {
		return revert()
	}

	forwardHit, _ := c.moveUpdatedComponent(delta, rotation, true)
	if forwardHit.Blocking {
		if forwardHit.StartPenetrating {
			return revert()
		}
		if sweepUpHit.Blocking {
			c.handleImpact(sweepUpHit)
		}
		c.handleImpact(forwardHit)
		if c.IsFalling() {
			return FloorResult{}, false, true
		}

		forwardHitTime := forwardHit.Time
		forwardSlideAmount := c.SlideAlongSurface(delta, 1-forwardHit.Time, forwardHit.Normal, &forwardHit, true)
		if c.IsFalling() {
			return revert()
		}
		if forwardHitTime == 0 && forwardSlideAmount == 0 {
			return revert()
		}
	}

	downHit, _ := c.moveUpdatedComponent(gravDir.Mul(stepTravelDownHeight), c.Rotation, true)
	if downHit.StartPenetrating {
		return revert()
	}

	if downHit.IsValidBlockingHit() {
		deltaZ := c.gravitySpaceZ(downHit.ImpactPoint) - pawnFloorPointZ
		if deltaZ > c.Tuning.MaxStepHeight {
			return revert()
		}
		if !c.IsWalkable(downHit) {
			if delta.Dot(downHit.ImpactNormal) < 0 {
				return revert()
			}
			if c.gravitySpaceZ(downHit.Location) > oldLocationZ {
				return revert()
			}
		}
		if !c.isWithinEdgeTolerance(downHit.Location, downHit.ImpactPoint, radius) {
			return revert()
		}
		if deltaZ > 0 && !c.canStepUp(downHit) {
			return revert()
		}

		floor = c.FindFloor(c.Location, false, &downHit)
		if c.gravitySpaceZ(downHit.Location) > oldLocationZ && !floor.BlockingHit && stepSideZ < game.MaxStepSideZ {
			return revert()
		}
		computed = true
	}

	c.JustTeleported = c.JustTeleported || !c.Tuning.MaintainHorizontalGroundVelocity
	return floor, computed, true
}

// ComputeGroundMovementDelta projects a horizontal move onto the ramp the actor stands on.
func (c *Character) ComputeGroundMovementDelta(delta mgl64.Vec3, rampHit physics.Hit, hitFromLineTrace bool) mgl64.Vec3 {
	floorNormal := rampHit.ImpactNormal
	contactNormal := rampHit.Normal
	floorZ := c.gravitySpaceZ(floorNormal)

	if floorZ < 1-game.KindaSmallNumber && floorZ > game.KindaSmallNumber &&
		c.gravitySpaceZ(contactNormal) > game.KindaSmallNumber && !hitFromLineTrace && c.IsWalkable(rampHit) {
		floorDotDelta := floorNormal.Dot(delta)
		rampMovement := delta.Add(c.up().Mul(-floorDotDelta / floorZ))
		if c.Tuning.MaintainHorizontalGroundVelocity {
			return rampMovement
		}
		return game.SafeNormal(rampMovement, game.SmallNumber).Mul(delta.Len())
	}
	return delta
}

// MoveAlongFloor moves the actor along the current floor, stepping up or sliding along obstacles. If stepping up
// found a floor it is returned with computed set.
func (c *Character) MoveAlongFloor(velocity mgl64.Vec3, deltaSeconds float64) (stepDown FloorResult, computed bool) {
	if !c.Floor.IsWalkableFloor() {
		return
	}

	delta := c.projectToGravityFloor(velocity).Mul(deltaSeconds)
	rampVector := c.ComputeGroundMovementDelta(delta, c.Floor.Hit, c.Floor.LineTrace)
	hit, _ := c.SafeMove(rampVector, c.Rotation, true)

	if hit.StartPenetrating {
		c.handleImpact(hit)
		c.SlideAlongSurface(delta, 1, hit.Normal, &hit, true)
		if hit.StartPenetrating && c.Config.DebugMovement {
			c.log.Debug("actor stuck in geometry", "location", c.Location)
		}
		return
	}
	if !hit.IsValidBlockingHit() {
		return
	}

	percentTimeApplied := hit.Time
	if hit.Time > 0 && c.gravitySpaceZ(hit.Normal) > game.KindaSmallNumber && c.IsWalkable(hit) {
		initialPercentRemaining := 1 - percentTimeApplied
		rampVector = c.ComputeGroundMovementDelta(delta.Mul(initialPercentRemaining), hit, false)
		hit, _ = c.SafeMove(rampVector, c.Rotation, true)
		secondHitPercent := hit.Time * initialPercentRemaining
		percentTimeApplied = game.Clamp01(percentTimeApplied + secondHitPercent)
	}

	if !hit.IsValidBlockingHit() {
		return
	}
	if c.canStepUp(hit) || (c.Base != nil && hit.Base != nil && hit.Base.ID() == c.Base.ID()) {
		preStepUpLocation := c.Location
		floor, ok, stepped := c.StepUp(c.gravityDirection(), delta.Mul(1-percentTimeApplied), hit)
		if !stepped {
			c.handleImpact(hit)
			c.SlideAlongSurface(delta, 1-percentTimeApplied, hit.Normal, &hit, true)
			return
		}
		stepDown, computed = floor, ok
		if !c.Tuning.MaintainHorizontalGroundVelocity {
			c.JustTeleported = true
			stepUpTimeSlice := (1 - percentTimeApplied) * deltaSeconds
			if !c.RootMotion.HasOverride && stepUpTimeSlice >= game.KindaSmallNumber {
				c.Velocity = c.projectToGravityFloor(c.Location.Sub(preStepUpLocation).Mul(1 / stepUpTimeSlice))
			}
		}
	}
	return
}
