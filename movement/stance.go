package movement

import (
	"math"

	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/physics"
)

// sweepInflation is added to the standing capsule when testing whether the actor fits, to avoid touching geometry
// it is resting against.
const sweepInflation = game.KindaSmallNumber * 10

// CanCrouchInCurrentState reports whether the actor may crouch in its current mode.
func (c *Character) CanCrouchInCurrentState() bool {
	return c.Tuning.CanCrouch && (c.IsFalling() || c.IsMovingOnGround()) && !c.SimulatingPhysics
}

// CanProneInCurrentState reports whether the actor may go prone in its current mode.
func (c *Character) CanProneInCurrentState() bool {
	return c.Tuning.CanProne && (c.IsFalling() || c.IsMovingOnGround()) && !c.SimulatingPhysics
}

// Crouch shrinks the capsule to the crouched half height. When clientSimulation is set, only the capsule and
// events of a simulated proxy are updated and no eligibility or encroachment checks run.
func (c *Character) Crouch(clientSimulation bool) {
	if !clientSimulation && !c.CanCrouchInCurrentState() {
		return
	}
	if c.HalfHeight == c.CrouchedHalfHeight() {
		if !clientSimulation {
			c.Crouched = true
		}
		c.SetStance(game.StanceCrouching)
		c.handler.HandleStartCrouch(c, 0, 0)
		return
	}

	adjust, ok := c.shrink(c.CrouchedHalfHeight(), c.CrouchMaintainsBaseLocation, clientSimulation)
	if !ok {
		return
	}
	if !clientSimulation {
		c.Crouched = true
	}
	c.SetStance(game.StanceCrouching)
	c.handler.HandleStartCrouch(c, adjust, adjust)
}

// UnCrouch grows the capsule back to the standing half height. Nothing happens if the standing capsule does not
// fit.
func (c *Character) UnCrouch(clientSimulation bool) {
	if c.HalfHeight == c.defaultHalfHeight {
		if !clientSimulation {
			c.Crouched = false
		}
		c.SetStance(game.StanceStanding)
		c.handler.HandleEndCrouch(c, 0, 0)
		return
	}

	adjust, ok := c.expand(c.CrouchMaintainsBaseLocation, clientSimulation)
	if !ok {
		return
	}
	if !clientSimulation {
		c.Crouched = false
	}
	c.SetStance(game.StanceStanding)
	c.handler.HandleEndCrouch(c, adjust, adjust)
}

// Prone shrinks the capsule to the proned half height.
func (c *Character) Prone(clientSimulation bool) {
	if !clientSimulation && !c.CanProneInCurrentState() {
		return
	}
	if c.HalfHeight == c.PronedHalfHeight() {
		if !clientSimulation {
			c.Proned = true
		}
		c.SetStance(game.StanceProning)
		c.handler.HandleStartProne(c, 0, 0)
		return
	}

	adjust, ok := c.shrink(c.PronedHalfHeight(), c.ProneMaintainsBaseLocation, clientSimulation)
	if !ok {
		return
	}
	if !clientSimulation {
		c.Proned = true
	}
	c.SetStance(game.StanceProning)
	c.handler.HandleStartProne(c, adjust, adjust)
}

// UnProne grows the capsule back to the standing half height. Nothing happens if the standing capsule does not
// fit.
func (c *Character) UnProne(clientSimulation bool) {
	if c.HalfHeight == c.defaultHalfHeight {
		if !clientSimulation {
			c.Proned = false
		}
		c.SetStance(game.StanceStanding)
		c.handler.HandleEndProne(c, 0, 0)
		return
	}

	adjust, ok := c.expand(c.ProneMaintainsBaseLocation, clientSimulation)
	if !ok {
		return
	}
	if !clientSimulation {
		c.Proned = false
	}
	c.SetStance(game.StanceStanding)
	c.handler.HandleEndProne(c, adjust, adjust)
}

// shrink resizes the capsule to the target half height, keeping the bottom of the capsule in place if
// maintainBase is set. It returns the change from the standing half height.
func (c *Character) shrink(target float64, maintainBase, clientSimulation bool) (float64, bool) {
	oldHalfHeight := c.HalfHeight
	clamped := math.Max(0, math.Max(c.Tuning.Radius, target))
	heightAdjust := oldHalfHeight - clamped

	if !clientSimulation {
		if clamped > oldHalfHeight {
			// Shrinking to a larger height.
			location := c.Location.Add(c.gravityDirection().Mul(heightAdjust))
			if c.World.Overlaps(location, physics.Capsule(c.Tuning.Radius, clamped)) {
				return 0, false
			}
		}
		c.HalfHeight = clamped
		if maintainBase {
			c.moveUpdatedComponent(c.gravityDirection().Mul(heightAdjust), c.Rotation, true)
		}
	} else {
		c.HalfHeight = clamped
	}

	c.ForceNextFloorCheck = true
	if c.shouldSkipMeshSmoothing(clientSimulation) {
		c.MeshOffset -= heightAdjust
	}
	return c.defaultHalfHeight - clamped, true
}

// expand grows the capsule back to the standing half height. If the standing capsule does not fit in place it
// tries standing on the floor below before giving up.
func (c *Character) expand(maintainBase, clientSimulation bool) (float64, bool) {
	currentHalfHeight := c.HalfHeight
	heightAdjust := c.defaultHalfHeight - currentHalfHeight
	location := c.Location

	if !clientSimulation {
		standing := physics.Capsule(c.Tuning.Radius, c.defaultHalfHeight+sweepInflation)
		up := c.up()
		encroached := true

		if !maintainBase {
			encroached = c.World.Overlaps(location, standing)
			if encroached && heightAdjust > 0 {
				// Sweep a short capsule down to the base and try to stand up from where it hits.
				shrinkHalfHeight := currentHalfHeight - c.Tuning.Radius
				traceDist := currentHalfHeight - shrinkHalfHeight
				short := physics.Capsule(c.Tuning.Radius, currentHalfHeight-shrinkHalfHeight)

				hit, _ := c.sweep(location, location.Add(c.gravityDirection().Mul(traceDist)), short)
				if hit.StartPenetrating {
					encroached = true
				} else {
					distanceToBase := hit.Time*traceDist + short.HalfHeight
					newLocation := location.Add(up.Mul(-distanceToBase + standing.HalfHeight + sweepInflation + game.MinFloorDist/2))
					encroached = c.World.Overlaps(newLocation, standing)
					if !encroached {
						c.Location = newLocation
					}
				}
			}
		} else {
			standingLocation := location.Add(up.Mul(standing.HalfHeight - currentHalfHeight))
			encroached = c.World.Overlaps(standingLocation, standing)

			if encroached && c.IsMovingOnGround() {
				// Something might be just overhead, try moving closer to the floor.
				const minFloorDist = game.KindaSmallNumber * 10
				if c.Floor.BlockingHit && c.Floor.FloorDist > minFloorDist {
					standingLocation = standingLocation.Sub(up.Mul(c.Floor.FloorDist - minFloorDist))
					encroached = c.World.Overlaps(standingLocation, standing)
				}
			}
			if !encroached {
				c.Location = standingLocation
				c.ForceNextFloorCheck = true
			}
		}

		if encroached {
			return 0, false
		}
	}

	c.HalfHeight = c.defaultHalfHeight
	if c.shouldSkipMeshSmoothing(clientSimulation) {
		c.MeshOffset += heightAdjust
	}
	return heightAdjust, true
}

// shouldSkipMeshSmoothing reports whether a capsule height change should be hidden by offsetting the mesh instead
// of being smoothed.
func (c *Character) shouldSkipMeshSmoothing(clientSimulation bool) bool {
	if !c.Config.NetworkSmoothing {
		return false
	}
	return (clientSimulation && c.isSimulatedProxy()) || (c.LocalRole == RoleAuthority && c.RemoteRole == RoleAutonomousProxy)
}
