package movement

import (
	"math"

	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/physics"
)

// Handler receives the events of an actor. Handlers run inside the tick and must not block.
type Handler interface {
	// HandleStartCrouch is called after the actor crouched. halfHeightAdjust is the difference between the default
	// and the crouched half height.
	HandleStartCrouch(c *Character, halfHeightAdjust, scaledHalfHeightAdjust float64)
	HandleEndCrouch(c *Character, halfHeightAdjust, scaledHalfHeightAdjust float64)
	HandleStartProne(c *Character, halfHeightAdjust, scaledHalfHeightAdjust float64)
	HandleEndProne(c *Character, halfHeightAdjust, scaledHalfHeightAdjust float64)
	// HandleModeChanged is called after the movement mode changed.
	HandleModeChanged(c *Character, prevMode Mode, prevCustom CustomMode)
	// HandlePhysicsRotation is called every tick after the movement ran. It is the place to rotate the actor.
	HandlePhysicsRotation(c *Character, deltaTime float64)
	// HandleImpact is called when the actor bumped into something while moving.
	HandleImpact(c *Character, hit physics.Hit)
	// HandleLanded is called when a falling actor landed.
	HandleLanded(c *Character, hit physics.Hit)
	// HandleJumped is called when a jump started.
	HandleJumped(c *Character)
	// HandleWalkingOffLedge is called before a walking actor starts falling off a ledge.
	HandleWalkingOffLedge(c *Character)
}

// NopHandler implements Handler with no-ops.
type NopHandler struct{}

func (NopHandler) HandleStartCrouch(*Character, float64, float64) {}
func (NopHandler) HandleEndCrouch(*Character, float64, float64)   {}
func (NopHandler) HandleStartProne(*Character, float64, float64)  {}
func (NopHandler) HandleEndProne(*Character, float64, float64)    {}
func (NopHandler) HandleModeChanged(*Character, Mode, CustomMode) {}
func (NopHandler) HandlePhysicsRotation(*Character, float64)      {}
func (NopHandler) HandleImpact(*Character, physics.Hit)           {}
func (NopHandler) HandleLanded(*Character, physics.Hit)           {}
func (NopHandler) HandleJumped(*Character)                        {}
func (NopHandler) HandleWalkingOffLedge(*Character)               {}

// RotationHandler turns the actor on physics rotation: towards the velocity in the velocity direction rotation mode
// and towards the control rotation otherwise. The yaw changes by at most YawRate degrees per second, or instantly if
// YawRate is zero.
type RotationHandler struct {
	NopHandler
	YawRate float64
}

// HandlePhysicsRotation turns the actor.
func (h RotationHandler) HandlePhysicsRotation(c *Character, deltaTime float64) {
	if c.IsCustomMode(CustomSlide) {
		return
	}
	target := c.Rotation.Yaw
	switch c.RotationMode {
	case game.RotationModeVelocityDirection:
		if game.Vec3HzDistSqr(c.Velocity) <= 1 {
			return
		}
		target = game.DirectionToAngle(c.Velocity.Vec2())
	default:
		target = c.ControlRotation.Yaw
	}

	delta := game.WrapYawDelta(target - c.Rotation.Yaw)
	if h.YawRate > 0 {
		step := h.YawRate * deltaTime
		delta = math.Max(-step, math.Min(step, delta))
	}
	c.Rotation.Yaw = game.NormalizeAxis(c.Rotation.Yaw + delta)
}
