package movement

// Mode is the movement mode of an actor.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeWalking
	// ModeNavWalking is reserved. Without navigation data it always resolves to ModeWalking.
	ModeNavWalking
	ModeFalling
	ModeSwimming
	ModeFlying
	ModeCustom
)

var modeNames = [...]string{"None", "Walking", "NavWalking", "Falling", "Swimming", "Flying", "Custom"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "Unknown"
}

// CustomMode is the sub mode used when the movement mode is ModeCustom.
type CustomMode uint8

const (
	CustomNone CustomMode = iota
	CustomSlide
)

func (m CustomMode) String() string {
	switch m {
	case CustomNone:
		return "None"
	case CustomSlide:
		return "Slide"
	}
	return "Unknown"
}

// Role is the network role of an actor on the local peer.
type Role uint8

const (
	RoleNone Role = iota
	RoleSimulatedProxy
	RoleAutonomousProxy
	RoleAuthority
)

// SlideTrigger decides which change of the crouch intent starts a slide.
type SlideTrigger uint8

const (
	// SlideTriggerSingleTap starts a slide on the tick crouch is pressed.
	SlideTriggerSingleTap SlideTrigger = iota
	// SlideTriggerDoubleTap starts a slide on the tick crouch is released.
	SlideTriggerDoubleTap
)

// SetMovementMode changes the movement mode. Custom sub modes are cleared for every mode but ModeCustom, and
// nothing happens if the mode is locked or unchanged.
func (c *Character) SetMovementMode(mode Mode, custom CustomMode) {
	if c.MovementModeLocked {
		return
	}
	if mode != ModeCustom {
		custom = CustomNone
	}
	if mode == ModeNavWalking {
		mode = ModeWalking
	}
	if c.Mode == mode && (mode != ModeCustom || c.CustomMode == custom) {
		return
	}

	prevMode, prevCustom := c.Mode, c.CustomMode
	c.Mode, c.CustomMode = mode, custom
	if c.Config.DebugMovement {
		c.log.Debug("movement mode changed", "from", modeString(prevMode, prevCustom), "to", modeString(mode, custom))
	}
	c.Hooks.OnModeChanged(c, prevMode, prevCustom)
}

// onMovementModeChanged reacts to a change of the movement mode.
func (c *Character) onMovementModeChanged(prevMode Mode, prevCustom CustomMode) {
	if c.Mode == ModeWalking {
		c.Velocity = c.projectToGravityFloor(c.Velocity)
		c.CrouchMaintainsBaseLocation = true

		c.Floor = c.FindFloor(c.Location, false, nil)
		c.AdjustFloorHeight()
		c.SetBaseFromFloor(c.Floor)
	} else {
		c.Floor = FloorResult{}
		c.CrouchMaintainsBaseLocation = false
		c.SetBase(nil)

		if c.Mode == ModeNone {
			c.Velocity = mgl64Zero
			c.Acceleration = mgl64Zero
		}
	}

	if !c.PressedJump || !c.IsFalling() {
		c.ResetJumpState()
	}
	c.handler.HandleModeChanged(c, prevMode, prevCustom)
}

// IsMovingOnGround reports whether the actor is walking or sliding.
func (c *Character) IsMovingOnGround() bool {
	return c.Mode == ModeWalking || c.Mode == ModeNavWalking || c.IsCustomMode(CustomSlide)
}

// IsFalling reports whether the actor is falling.
func (c *Character) IsFalling() bool { return c.Mode == ModeFalling }

// IsSwimming reports whether the actor is swimming.
func (c *Character) IsSwimming() bool { return c.Mode == ModeSwimming }

// IsFlying reports whether the actor is flying.
func (c *Character) IsFlying() bool { return c.Mode == ModeFlying }

// IsCustomMode reports whether the actor is in the given custom mode.
func (c *Character) IsCustomMode(custom CustomMode) bool {
	return c.Mode == ModeCustom && c.CustomMode == custom
}

// StartNewPhysics runs the integrator of the current movement mode.
func (c *Character) StartNewPhysics(deltaTime float64, iterations int) {
	if deltaTime < minTickTime || iterations >= c.Config.MaxSimulationIterations || c.SimulatingPhysics {
		return
	}

	switch c.Mode {
	case ModeNone:
	case ModeWalking, ModeNavWalking:
		c.Hooks.PhysWalking(c, deltaTime, iterations)
	case ModeFalling:
		c.PhysFalling(deltaTime, iterations)
	case ModeFlying:
		c.PhysFlying(deltaTime, iterations)
	case ModeSwimming:
		c.PhysSwimming(deltaTime, iterations)
	case ModeCustom:
		c.Hooks.PhysCustom(c, deltaTime, iterations)
	default:
		c.SetMovementMode(ModeNone, CustomNone)
	}
}

func modeString(mode Mode, custom CustomMode) string {
	if mode == ModeCustom {
		return mode.String() + ":" + custom.String()
	}
	return mode.String()
}
