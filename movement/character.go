package movement

import (
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/assert"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/oerror"
	"github.com/oomph-ac/locomotion/physics"
	"github.com/oomph-ac/locomotion/settings"
)

// Character is a simulated actor: an upright capsule moved through a physics.Engine. A Character is not safe for
// concurrent use; it must be owned by a single goroutine at a time.
type Character struct {
	State

	// World is the collision world the actor moves in.
	World physics.Engine
	// Tuning holds the static tuning values. The walking values in use live in State.Grounded.
	Tuning settings.CharacterSettings
	// Movement is the gait table used by the gait refresh.
	Movement *settings.MovementSettings
	Config   Config
	Hooks    Hooks

	LocalRole     Role
	RemoteRole    Role
	HasController bool

	defaultHalfHeight float64
	walkableFloorZ    float64
	slideTrigger      SlideTrigger

	// clientTimeStamp is the timestamp of the move being verified by the authority.
	clientTimeStamp float64

	// deferVolumeUpdates is non-zero while a multi step move is in progress. Water is only checked once it ends.
	deferVolumeUpdates int

	handler Handler
	log     *slog.Logger
}

// New returns an actor using the tuning and gait table passed. The actor has no movement mode until it is
// spawned.
func New(world physics.Engine, tuning settings.CharacterSettings, table *settings.MovementSettings, log *slog.Logger) (*Character, error) {
	assert.IsTrue(world != nil, "movement.New: nil physics engine")
	assert.IsTrue(tuning.Radius > 0 && tuning.HalfHeight > 0, "movement.New: invalid capsule %vx%v", tuning.Radius, tuning.HalfHeight)

	var trigger SlideTrigger
	switch tuning.SlideTrigger {
	case "SingleTap", "":
		trigger = SlideTriggerSingleTap
	case "DoubleTap":
		trigger = SlideTriggerDoubleTap
	default:
		return nil, oerror.New("unknown slide trigger %q", tuning.SlideTrigger)
	}
	if log == nil {
		log = slog.Default()
	}

	c := &Character{
		World:             world,
		Tuning:            tuning,
		Movement:          table,
		Config:            DefaultConfig(),
		Hooks:             ALSHooks{},
		LocalRole:         RoleAuthority,
		RemoteRole:        RoleNone,
		HasController:     true,
		defaultHalfHeight: math.Max(tuning.HalfHeight, tuning.Radius),
		slideTrigger:      trigger,
		handler:           NopHandler{},
		log:               log,
	}
	c.SetWalkableFloorAngle(tuning.WalkableFloorAngle)

	c.HalfHeight = c.defaultHalfHeight
	c.Grounded = groundedTuning(tuning)
	c.OldBaseQuat = mgl64.QuatIdent()
	c.RotationMode = game.RotationModeViewDirection
	c.Stance = game.StanceStanding
	c.MaxAllowedGait = game.GaitRunning
	c.CrouchMaintainsBaseLocation = true
	c.ProneMaintainsBaseLocation = true
	c.RefreshGaitSettings()
	return c, nil
}

// Spawn places the actor at the location and starts walking. The actor falls if there is no floor below.
func (c *Character) Spawn(location mgl64.Vec3, rotation game.Rotator) {
	c.Location = location
	c.Rotation = rotation
	c.ControlRotation = rotation
	c.PreviousControlRotation = rotation
	c.LastUpdateLocation = location
	c.Mode = ModeNone
	c.SetMovementMode(ModeWalking, CustomNone)
}

// Handle sets the handler of the actor. A nil handler resets it to a NopHandler.
func (c *Character) Handle(h Handler) {
	if h == nil {
		h = NopHandler{}
	}
	c.handler = h
}

// Handler returns the current handler.
func (c *Character) Handler() Handler {
	return c.handler
}

// Logger returns the logger of the actor.
func (c *Character) Logger() *slog.Logger {
	return c.log
}

// Snapshot returns a copy of the simulated state.
func (c *Character) Snapshot() State {
	return c.State
}

// Restore replaces the simulated state with a snapshot.
func (c *Character) Restore(s State) {
	c.State = s
}

// Teleport moves the actor without sweeping. The floor is checked again on the next tick.
func (c *Character) Teleport(location mgl64.Vec3) {
	c.Location = location
	c.JustTeleported = true
	c.ForceNextFloorCheck = true
}

// Shape returns the current capsule.
func (c *Character) Shape() physics.Shape {
	return physics.Capsule(c.Tuning.Radius, c.HalfHeight)
}

// DefaultHalfHeight returns the standing half height.
func (c *Character) DefaultHalfHeight() float64 {
	return c.defaultHalfHeight
}

// CrouchedHalfHeight returns the crouched half height, never smaller than the radius.
func (c *Character) CrouchedHalfHeight() float64 {
	return math.Max(0, math.Max(c.Tuning.Radius, c.Tuning.CrouchedHalfHeight))
}

// PronedHalfHeight returns the proned half height, never smaller than the radius.
func (c *Character) PronedHalfHeight() float64 {
	return math.Max(0, math.Max(c.Tuning.Radius, c.Tuning.PronedHalfHeight))
}

// SetWalkableFloorAngle sets the steepest walkable slope in degrees.
func (c *Character) SetWalkableFloorAngle(angle float64) {
	c.Tuning.WalkableFloorAngle = game.Clamp(angle, 0, 90)
	c.walkableFloorZ = math.Cos(mgl64.DegToRad(c.Tuning.WalkableFloorAngle))
}

// WalkableFloorZ returns the smallest gravity space Z component of a walkable floor normal.
func (c *Character) WalkableFloorZ() float64 {
	return c.walkableFloorZ
}

// SlideTrigger returns the configured slide trigger.
func (c *Character) SlideTrigger() SlideTrigger {
	return c.slideTrigger
}

// SetInputBlocked blocks or unblocks the input of the actor. Blocked input is consumed as zero.
func (c *Character) SetInputBlocked(blocked bool) {
	c.InputBlocked = blocked
}

// SetMovementModeLocked locks or unlocks the movement mode.
func (c *Character) SetMovementModeLocked(locked bool) {
	c.MovementModeLocked = locked
}

// IsCrouching reports whether the actor is crouched.
func (c *Character) IsCrouching() bool { return c.Crouched }

// IsProning reports whether the actor is proned.
func (c *Character) IsProning() bool { return c.Proned }

func (c *Character) gravityDirection() mgl64.Vec3 {
	return c.Config.GravityDirection
}

func (c *Character) up() mgl64.Vec3 {
	return c.Config.GravityDirection.Mul(-1)
}

// gravityZ returns the signed gravity acceleration along the up axis.
func (c *Character) gravityZ() float64 {
	return game.DefaultGravityZ * c.Tuning.GravityScale
}

func (c *Character) gravitySpaceZ(v mgl64.Vec3) float64 {
	return v.Dot(c.up())
}

func (c *Character) projectToGravityFloor(v mgl64.Vec3) mgl64.Vec3 {
	up := c.up()
	return v.Sub(up.Mul(v.Dot(up)))
}

func (c *Character) projectToGravityZ(v mgl64.Vec3) mgl64.Vec3 {
	up := c.up()
	return up.Mul(v.Dot(up))
}

// setGravitySpaceZ replaces the component of v along the up axis.
func (c *Character) setGravitySpaceZ(v mgl64.Vec3, z float64) mgl64.Vec3 {
	return c.projectToGravityFloor(v).Add(c.up().Mul(z))
}

func (c *Character) isSimulatedProxy() bool {
	return c.LocalRole == RoleSimulatedProxy
}

// immersionDepth returns how deep the actor is in water, from 0 to 1.
func (c *Character) immersionDepth() float64 {
	if fluid, ok := c.World.(physics.FluidProvider); ok {
		return fluid.ImmersionDepth(c.Location, c.Shape())
	}
	return 0
}

// IsInWater reports whether the centre of the actor is submerged.
func (c *Character) IsInWater() bool {
	return c.immersionDepth() >= c.Tuning.WaterImmersionMin
}

// floorDirection returns the normalised part of v perpendicular to gravity.
func (c *Character) floorDirection(v mgl64.Vec3) mgl64.Vec3 {
	return game.SafeNormal(c.projectToGravityFloor(v), game.SmallNumber)
}
