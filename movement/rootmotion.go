package movement

import (
	"github.com/go-gl/mathgl/mgl64"
)

// rootMotionLiftoffBound is the upward velocity change root motion must add for a grounded actor to start falling.
const rootMotionLiftoffBound = 10

// SetRootMotionOverride makes the actor move with the velocity passed, ignoring input, until cleared.
func (c *Character) SetRootMotionOverride(velocity mgl64.Vec3) {
	c.RootMotion.OverrideVelocity = velocity
	c.RootMotion.HasOverride = true
}

// SetRootMotionAdditive adds the velocity passed on top of the integrated velocity until cleared.
func (c *Character) SetRootMotionAdditive(velocity mgl64.Vec3) {
	c.RootMotion.AdditiveVelocity = velocity
	c.RootMotion.HasAdditive = true
}

// ClearRootMotion removes all root motion. An additive velocity that is still applied is removed from the
// velocity.
func (c *Character) ClearRootMotion() {
	c.restorePreAdditiveRootMotionVelocity()
	c.RootMotion = RootMotion{}
}

// restorePreAdditiveRootMotionVelocity removes the additive root motion applied during the previous sub step.
func (c *Character) restorePreAdditiveRootMotionVelocity() {
	if !c.RootMotion.additiveApplied {
		return
	}
	c.Velocity = c.RootMotion.lastPreAdditiveVelocity
	c.RootMotion.additiveApplied = false
}

// applyRootMotionToVelocity applies the override and additive root motion. A grounded actor pushed upwards
// starts falling.
func (c *Character) applyRootMotionToVelocity(float64) {
	oldVelocity := c.Velocity
	applied := false

	if c.RootMotion.HasOverride {
		c.Velocity = c.RootMotion.OverrideVelocity
		applied = true
	}
	if c.RootMotion.HasAdditive {
		c.RootMotion.lastPreAdditiveVelocity = c.Velocity
		c.Velocity = c.Velocity.Add(c.RootMotion.AdditiveVelocity)
		c.RootMotion.additiveApplied = true
		applied = true
	}

	if applied && c.IsMovingOnGround() && c.gravitySpaceZ(c.Velocity.Sub(oldVelocity)) > rootMotionLiftoffBound {
		c.SetMovementMode(ModeFalling, CustomNone)
	}
}
