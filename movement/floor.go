package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/physics"
)

// IsWalkable reports whether the surface of the hit can be stood on.
func (c *Character) IsWalkable(hit physics.Hit) bool {
	if !hit.IsValidBlockingHit() {
		return false
	}
	impactNormalZ := c.gravitySpaceZ(hit.ImpactNormal)
	if impactNormalZ < game.KindaSmallNumber {
		return false
	}
	return impactNormalZ >= c.walkableFloorZ
}

// isWithinEdgeTolerance reports whether the impact point is far enough from the rim of the capsule to count as a
// floor contact.
func (c *Character) isWithinEdgeTolerance(capsuleLocation, impactPoint mgl64.Vec3, radius float64) bool {
	distFromCenterSq := c.projectToGravityFloor(impactPoint.Sub(capsuleLocation)).LenSqr()
	reducedRadius := math.Max(game.SweepEdgeRejectDistance+game.KindaSmallNumber, radius-game.SweepEdgeRejectDistance)
	return distFromCenterSq < reducedRadius*reducedRadius
}

// sweep sweeps a shape and always returns a hit, which is a miss if nothing was found.
func (c *Character) sweep(start, end mgl64.Vec3, shape physics.Shape) (physics.Hit, bool) {
	hit, ok := c.World.SweepCapsule(start, end, shape)
	if !ok {
		return physics.Miss(start, end), false
	}
	return hit, true
}

func (c *Character) trace(start, end mgl64.Vec3) (physics.Hit, bool) {
	hit, ok := c.World.LineTrace(start, end)
	if !ok {
		return physics.Miss(start, end), false
	}
	return hit, true
}

// computeFloorDist sweeps a shrunk capsule below location, falling back to a line trace from the centre when the
// sweep starts in penetration or finds an unwalkable surface. If preserveSweep is set, a successful line trace
// keeps the normal, penetration and base of the sweep.
func (c *Character) computeFloorDist(location mgl64.Vec3, lineDistance, sweepDistance, sweepRadius float64, downwardSweep *physics.Hit, preserveSweep bool) FloorResult {
	var result FloorResult
	radius, halfHeight := c.Tuning.Radius, c.HalfHeight

	skipSweep := false
	if downwardSweep != nil && downwardSweep.IsValidBlockingHit() {
		travel := downwardSweep.TraceStart.Sub(downwardSweep.TraceEnd)
		downward := c.gravitySpaceZ(travel) > 0
		vertical := c.projectToGravityFloor(travel).LenSqr() <= game.KindaSmallNumber
		if downward && vertical && c.isWithinEdgeTolerance(downwardSweep.Location, downwardSweep.ImpactPoint, radius) {
			skipSweep = true
			walkable := c.IsWalkable(*downwardSweep)
			floorDist := c.gravitySpaceZ(location.Sub(downwardSweep.Location))
			result.SetFromSweep(*downwardSweep, floorDist, walkable)
			if walkable {
				return result
			}
		}
	}

	if sweepDistance < lineDistance {
		return result
	}

	gravDir := c.gravityDirection()
	maxPenetrationAdjust := math.Max(game.MaxFloorDist, radius)

	if !skipSweep && sweepDistance > 0 && sweepRadius > 0 {
		const shrinkScale, shrinkScaleOverlap = 0.9, 0.1
		shrinkHeight := (halfHeight - radius) * (1 - shrinkScale)
		traceDist := sweepDistance + shrinkHeight
		shape := physics.Shape{Radius: sweepRadius, HalfHeight: halfHeight - shrinkHeight}

		hit, blocking := c.sweep(location, location.Add(gravDir.Mul(traceDist)), shape)
		if blocking {
			if hit.StartPenetrating || !c.isWithinEdgeTolerance(location, hit.ImpactPoint, shape.Radius) {
				shape.Radius = math.Max(0, shape.Radius-game.SweepEdgeRejectDistance-game.KindaSmallNumber)
				if !shape.IsNearlyZero() {
					shrinkHeight = (halfHeight - radius) * (1 - shrinkScaleOverlap)
					traceDist = sweepDistance + shrinkHeight
					shape.HalfHeight = math.Max(halfHeight-shrinkHeight, shape.Radius)
					hit, _ = c.sweep(location, location.Add(gravDir.Mul(traceDist)), shape)
				}
			}

			sweepResult := math.Max(-maxPenetrationAdjust, hit.Time*traceDist-shrinkHeight)
			result.SetFromSweep(hit, sweepResult, false)
			if hit.IsValidBlockingHit() && c.IsWalkable(hit) && sweepResult <= sweepDistance {
				result.WalkableFloor = true
				return result
			}
		}
	}

	if !result.BlockingHit && !result.Hit.StartPenetrating {
		result.FloorDist = sweepDistance
		return result
	}

	if lineDistance > 0 {
		shrinkHeight := halfHeight
		traceDist := lineDistance + shrinkHeight
		hit, blocking := c.trace(location, location.Add(gravDir.Mul(traceDist)))
		if blocking && hit.Time > 0 {
			lineResult := math.Max(-maxPenetrationAdjust, hit.Time*traceDist-shrinkHeight)
			result.BlockingHit = true
			if lineResult <= lineDistance && c.IsWalkable(hit) {
				sweepHit := result.Hit
				result.SetFromLineTrace(hit, result.FloorDist, lineResult, true)
				if preserveSweep {
					result.Hit.Normal = sweepHit.Normal
					result.Hit.PenetrationDepth = sweepHit.PenetrationDepth
					result.Hit.StartPenetrating = sweepHit.StartPenetrating
					result.Hit.Base = sweepHit.Base
				}
				return result
			}
		}
	}

	result.WalkableFloor = false
	return result
}

// FindFloor returns the floor below the capsule at location. If canUseCachedLocation is set and nothing forces a
// new check, the current floor is reused. downwardSweep is an optional vertical sweep that already found the floor.
func (c *Character) FindFloor(location mgl64.Vec3, canUseCachedLocation bool, downwardSweep *physics.Hit) FloorResult {
	heightCheckAdjust := -game.MaxFloorDist
	if c.IsMovingOnGround() {
		heightCheckAdjust = game.MaxFloorDist + game.KindaSmallNumber
	}
	floorSweepTraceDist := math.Max(game.MaxFloorDist, c.Tuning.MaxStepHeight+heightCheckAdjust)
	floorLineTraceDist := floorSweepTraceDist
	needToValidateFloor := true

	var result FloorResult
	if c.Tuning.AlwaysCheckFloor || !canUseCachedLocation || c.ForceNextFloorCheck || c.JustTeleported {
		c.ForceNextFloorCheck = false
		result = c.Hooks.ComputeFloorDistance(c, location, floorLineTraceDist, floorSweepTraceDist, c.Tuning.Radius, downwardSweep)
	} else {
		if c.Base != nil {
			c.ForceNextFloorCheck = !c.Base.QueryCollision() || c.Base.Dynamic()
		}
		if !c.ForceNextFloorCheck && c.Base != nil {
			result = c.Floor
			needToValidateFloor = false
		} else {
			c.ForceNextFloorCheck = false
			result = c.Hooks.ComputeFloorDistance(c, location, floorLineTraceDist, floorSweepTraceDist, c.Tuning.Radius, downwardSweep)
		}
	}

	if needToValidateFloor && result.BlockingHit && !result.LineTrace && c.shouldComputePerchResult(result.Hit, true) {
		maxPerchFloorDist := math.Max(game.MaxFloorDist, c.Tuning.MaxStepHeight+heightCheckAdjust)
		if c.IsMovingOnGround() {
			maxPerchFloorDist += math.Max(0, c.Tuning.PerchAdditionalHeight)
		}

		if perch, ok := c.computePerchResult(c.validPerchRadius(), result.Hit, maxPerchFloorDist); ok {
			avgFloorDist := (game.MinFloorDist + game.MaxFloorDist) * 0.5
			moveUpDist := avgFloorDist - result.FloorDist
			if moveUpDist+perch.FloorDist >= maxPerchFloorDist {
				result.FloorDist = avgFloorDist
			}
			if !result.WalkableFloor {
				result.SetFromLineTrace(perch.Hit, result.FloorDist, math.Max(result.FloorDist, game.MinFloorDist), true)
			}
		} else {
			result.WalkableFloor = false
		}
	}
	return result
}

func (c *Character) perchRadiusThreshold() float64 {
	return math.Max(0, c.Tuning.PerchRadiusThreshold)
}

func (c *Character) validPerchRadius() float64 {
	radius := c.Tuning.Radius
	return game.Clamp(radius-c.perchRadiusThreshold(), 0.11, radius)
}

func (c *Character) shouldComputePerchResult(hit physics.Hit, checkRadius bool) bool {
	if !hit.IsValidBlockingHit() {
		return false
	}
	if c.perchRadiusThreshold() <= game.SweepEdgeRejectDistance {
		return false
	}
	if checkRadius {
		distFromCenterSq := c.projectToGravityFloor(hit.ImpactPoint.Sub(hit.Location)).LenSqr()
		standOnEdgeRadius := c.validPerchRadius()
		if distFromCenterSq <= standOnEdgeRadius*standOnEdgeRadius {
			return false
		}
	}
	return true
}

// computePerchResult checks whether a thinner capsule at the location of hit would stand on walkable ground.
func (c *Character) computePerchResult(testRadius float64, hit physics.Hit, maxFloorDist float64) (FloorResult, bool) {
	if maxFloorDist <= 0 {
		return FloorResult{}, false
	}
	hitAboveBase := math.Max(0, c.gravitySpaceZ(hit.ImpactPoint.Sub(hit.Location))+c.HalfHeight)
	perchLineDist := math.Max(0, maxFloorDist-hitAboveBase)
	perchSweepDist := math.Max(0, maxFloorDist)
	actualSweepDist := perchSweepDist + c.Tuning.Radius

	perch := c.Hooks.ComputeFloorDistance(c, hit.Location, perchLineDist, actualSweepDist, testRadius, nil)
	if !perch.IsWalkableFloor() {
		return perch, false
	}
	if hitAboveBase+perch.FloorDist > maxFloorDist {
		perch.WalkableFloor = false
		return perch, false
	}
	return perch, true
}

// AdjustFloorHeight moves the actor up or down to keep it between the minimum and maximum floor distance.
func (c *Character) AdjustFloorHeight() {
	if !c.Floor.IsWalkableFloor() {
		return
	}

	oldFloorDist := c.Floor.FloorDist
	if c.Floor.LineTrace {
		if oldFloorDist < game.MinFloorDist && c.Floor.LineDist >= game.MinFloorDist {
			return
		}
		oldFloorDist = c.Floor.LineDist
	}

	if oldFloorDist >= game.MinFloorDist && oldFloorDist <= game.MaxFloorDist {
		return
	}

	initialZ := c.gravitySpaceZ(c.Location)
	avgFloorDist := (game.MinFloorDist + game.MaxFloorDist) * 0.5
	moveDist := avgFloorDist - oldFloorDist
	adjustHit, _ := c.SafeMove(c.up().Mul(moveDist), c.Rotation, true)

	switch {
	case !adjustHit.IsValidBlockingHit():
		c.Floor.FloorDist += moveDist
	case moveDist > 0:
		c.Floor.FloorDist += c.gravitySpaceZ(c.Location) - initialZ
	default:
		c.Floor.FloorDist = c.gravitySpaceZ(c.Location) - c.gravitySpaceZ(adjustHit.Location)
		if c.IsWalkable(adjustHit) {
			c.Floor.SetFromSweep(adjustHit, c.Floor.FloorDist, true)
		}
	}

	c.JustTeleported = c.JustTeleported || !c.Tuning.MaintainHorizontalGroundVelocity || oldFloorDist < 0
	if !c.isSimulatedProxy() {
		c.ForceNextFloorCheck = true
	}
}

// SetBaseFromFloor bases the actor on the floor if it is walkable and clears the base otherwise.
func (c *Character) SetBaseFromFloor(floor FloorResult) {
	if floor.IsWalkableFloor() {
		c.SetBase(floor.Hit.Base)
		return
	}
	c.SetBase(nil)
}
