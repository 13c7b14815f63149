package movement

import (
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/physics"
)

// SetBase changes the base the actor stands on and saves its transform.
func (c *Character) SetBase(base physics.Base) {
	if sameBase(c.Base, base) {
		return
	}
	c.Base = base
	c.SaveBaseLocation()
}

// SaveBaseLocation stores the current transform of a dynamic base, which the next based movement update compares
// against.
func (c *Character) SaveBaseLocation() {
	if c.Base == nil || !c.Base.Dynamic() {
		return
	}
	c.OldBaseLocation = c.Base.Location()
	c.OldBaseQuat = c.Base.Rotation().Quat()
}

func sameBase(a, b physics.Base) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

// baseRotationSpeed returns the rotation speed of a dynamic base.
func (c *Character) baseRotationSpeed() (game.Rotator, bool) {
	if c.Base == nil || !c.Base.Dynamic() {
		return game.Rotator{}, false
	}
	return c.Base.RotationSpeed(), true
}

// UpdateBasedMovement moves the actor along with its base if the base moved or rotated since its transform was
// last saved.
func (c *Character) UpdateBasedMovement() {
	base := c.Base
	if base == nil || !base.Dynamic() {
		return
	}

	newBaseLocation := base.Location()
	newBaseQuat := base.Rotation().Quat()

	rotationChanged := !game.QuatEquals(c.OldBaseQuat, newBaseQuat, 1e-8)
	if !rotationChanged && c.OldBaseLocation == newBaseLocation {
		return
	}

	// The actor rotation is left to the handler, only the control rotation follows the base.
	if rotationChanged && !c.Tuning.IgnoreBaseRotation && c.HasController {
		c.UpdateBasedRotation()
	}

	baseOffset := c.up().Mul(c.HalfHeight)
	localBasePos := c.OldBaseQuat.Inverse().Rotate(c.Location.Sub(baseOffset).Sub(c.OldBaseLocation))
	newWorldPos := newBaseQuat.Rotate(localBasePos).Add(newBaseLocation).Add(baseOffset)
	deltaPosition := newWorldPos.Sub(c.Location)

	baseMoveDelta := newBaseLocation.Sub(c.OldBaseLocation)
	if !rotationChanged && c.projectToGravityFloor(baseMoveDelta) == mgl64Zero {
		deltaPosition = c.projectToGravityZ(deltaPosition)
	}

	oldLocation := c.Location
	hit, _ := c.moveUpdatedComponent(deltaPosition, c.Rotation, true)
	if !game.IsNearlyZero(c.Location.Sub(oldLocation.Add(deltaPosition)), game.KindaSmallNumber) {
		c.onUnableToFollowBaseMove(hit)
	}
}

func (c *Character) onUnableToFollowBaseMove(hit physics.Hit) {
	if c.Config.DebugMovement {
		c.log.Debug("unable to follow base move", "location", c.Location, "blocked", hit.Blocking)
	}
}

// UpdateBasedRotation adds the pitch and yaw the base turned by since its rotation was saved to the control
// rotation.
func (c *Character) UpdateBasedRotation() {
	if c.Base == nil {
		return
	}
	baseQuat := c.Base.Rotation().Quat()
	if game.QuatEquals(c.OldBaseQuat, baseQuat, game.SmallNumber) {
		return
	}
	delta := game.RotatorFromQuat(baseQuat.Mul(c.OldBaseQuat.Inverse()))
	control := c.ControlRotation
	control.Pitch += delta.Pitch
	control.Yaw += delta.Yaw
	c.ControlRotation = control.Normalize()
}

// maybeUpdateBasedMovement follows the base before the actor moves.
func (c *Character) maybeUpdateBasedMovement() {
	c.UpdateBasedMovement()
}
