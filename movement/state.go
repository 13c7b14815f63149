package movement

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/physics"
	"github.com/oomph-ac/locomotion/settings"
)

var mgl64Zero = mgl64.Vec3{}

// State is the simulated state of an actor. It is a plain value: copying it yields an independent snapshot that
// can be restored later, which is how replays and determinism checks work.
type State struct {
	Location mgl64.Vec3
	Rotation game.Rotator
	// HalfHeight is the current capsule half height. It changes with the stance.
	HalfHeight float64

	Velocity     mgl64.Vec3
	Acceleration mgl64.Vec3
	// AnalogInputModifier is the fraction of the maximum acceleration requested by the input, from 0 to 1.
	AnalogInputModifier float64
	ForceMaxAccel       bool

	ControlRotation         game.Rotator
	PreviousControlRotation game.Rotator

	Mode       Mode
	CustomMode CustomMode

	Floor FloorResult
	Base  physics.Base
	// OldBaseLocation and OldBaseQuat are the transform of the base when it was last saved.
	OldBaseLocation mgl64.Vec3
	OldBaseQuat     mgl64.Quat

	Crouched          bool
	Proned            bool
	WantsToCrouch     bool
	WantsToProne      bool
	PrevWantsToCrouch bool

	CrouchMaintainsBaseLocation bool
	ProneMaintainsBaseLocation  bool
	// MeshOffset is the vertical offset applied to the visual mesh to hide capsule height changes.
	MeshOffset float64

	// InWater is the water state seen by the last volume check.
	InWater             bool
	ForceNextFloorCheck bool
	JustTeleported      bool
	SimulatingPhysics   bool

	PrePenetrationAdjustmentVelocity      mgl64.Vec3
	PrePenetrationAdjustmentVelocityValid bool

	RotationMode   game.RotationMode
	Stance         game.Stance
	MaxAllowedGait game.Gait
	GaitAmount     float64
	GaitSettings   settings.GaitSettings
	// Grounded holds the walking values derived from the gait. It is seeded from the tuning and rewritten by
	// the gait refresh.
	Grounded GroundedTuning

	InputBlocked       bool
	MovementModeLocked bool

	PressedJump             bool
	WasJumping              bool
	JumpKeyHoldTime         float64
	JumpForceTimeRemaining  float64
	JumpCurrentCount        int
	JumpCurrentCountPreJump int
	NumJumpApexAttempts     int

	RootMotion RootMotion

	LastUpdateLocation mgl64.Vec3
	LastUpdateVelocity mgl64.Vec3

	// WorldTime is the simulated time of the actor, advanced by every PerformMovement.
	WorldTime float64
	// ServerLastTransformUpdateTimeStamp is the time of the last change to the control rotation seen by the
	// authority.
	ServerLastTransformUpdateTimeStamp float64
}

// GroundedTuning are the walking speed, acceleration, braking and friction in use.
type GroundedTuning struct {
	MaxWalkSpeed               float64
	MaxWalkSpeedCrouched       float64
	MaxAccelerationWalking     float64
	BrakingDecelerationWalking float64
	GroundFriction             float64
}

// groundedTuning returns the walking values of the character settings passed.
func groundedTuning(s settings.CharacterSettings) GroundedTuning {
	return GroundedTuning{
		MaxWalkSpeed:               s.MaxWalkSpeed,
		MaxWalkSpeedCrouched:       s.MaxWalkSpeedCrouched,
		MaxAccelerationWalking:     s.MaxAccelerationWalking,
		BrakingDecelerationWalking: s.BrakingDecelerationWalking,
		GroundFriction:             s.GroundFriction,
	}
}

// FloorResult describes the floor found below an actor.
type FloorResult struct {
	// BlockingHit is true when the floor query hit something.
	BlockingHit bool
	// WalkableFloor is true when the hit surface can be walked on.
	WalkableFloor bool
	// LineTrace is true when the result came from the line trace fallback.
	LineTrace bool
	// FloorDist is the distance from the bottom of the capsule to the floor found by the sweep.
	FloorDist float64
	// LineDist is the distance to the floor found by the line trace, if LineTrace is set.
	LineDist float64
	Hit      physics.Hit
}

// IsWalkableFloor reports whether the result is a blocking hit on walkable geometry.
func (f FloorResult) IsWalkableFloor() bool {
	return f.BlockingHit && f.WalkableFloor
}

// DistanceToFloor returns the line distance for line trace results and the sweep distance otherwise.
func (f FloorResult) DistanceToFloor() float64 {
	if f.LineTrace {
		return f.LineDist
	}
	return f.FloorDist
}

// SetFromSweep fills the result from a floor sweep.
func (f *FloorResult) SetFromSweep(hit physics.Hit, sweepFloorDist float64, walkable bool) {
	f.BlockingHit = hit.IsValidBlockingHit()
	f.WalkableFloor = walkable
	f.LineTrace = false
	f.FloorDist = sweepFloorDist
	f.LineDist = 0
	f.Hit = hit
}

// SetFromLineTrace fills the result from a line trace that followed a sweep. The hit normals and base are taken
// from the trace, the timing and locations stay those of the sweep.
func (f *FloorResult) SetFromLineTrace(hit physics.Hit, sweepFloorDist, lineDist float64, walkable bool) {
	if !f.Hit.Blocking || !hit.Blocking {
		return
	}
	old := f.Hit
	f.Hit = hit
	f.Hit.Time = old.Time
	f.Hit.ImpactPoint = old.ImpactPoint
	f.Hit.Location = old.Location
	f.Hit.TraceStart = old.TraceStart
	f.Hit.TraceEnd = old.TraceEnd

	f.LineTrace = true
	f.FloorDist = sweepFloorDist
	f.LineDist = lineDist
	f.WalkableFloor = walkable
}

// RootMotion is motion imposed on the actor by animation or gameplay, bypassing the velocity computed from input.
type RootMotion struct {
	// OverrideVelocity replaces the integrated velocity while HasOverride is set.
	OverrideVelocity mgl64.Vec3
	HasOverride      bool
	// AdditiveVelocity is added on top of the integrated velocity while HasAdditive is set.
	AdditiveVelocity mgl64.Vec3
	HasAdditive      bool

	lastPreAdditiveVelocity mgl64.Vec3
	additiveApplied         bool
}

// Active reports whether any root motion is applied.
func (r RootMotion) Active() bool {
	return r.HasOverride || r.HasAdditive
}
