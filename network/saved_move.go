package network

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/movement"
	"github.com/oomph-ac/locomotion/physics"
)

const (
	// accelMagThreshold is the largest change of the acceleration magnitude for which a move is not important.
	accelMagThreshold = 1.0
	// accelDotThreshold is the smallest dot product of two acceleration directions for which a move is not
	// important.
	accelDotThreshold = 0.9
	// maxSpeedThresholdCombine is the largest difference of the maximum speed between two combinable moves.
	maxSpeedThresholdCombine = 10.0
)

// PostUpdateMode tells SavedMove.PostUpdate whether the move was just recorded or replayed.
type PostUpdateMode uint8

const (
	PostUpdateRecord PostUpdateMode = iota
	PostUpdateReplay
)

// SavedMove is one predicted move of the client: the input it was made with and the state of the actor before
// and after it. Moves are kept until the server acknowledges them so they can be replayed after a correction.
type SavedMove struct {
	TimeStamp float32
	DeltaTime float64

	// Acceleration is rounded to the precision it is sent with.
	Acceleration mgl64.Vec3
	AccelMag     float64
	AccelNormal  mgl64.Vec3
	MaxSpeed     float64

	PressedJump   bool
	WantsToCrouch bool
	WantsToProne  bool
	ForceMaxAccel bool

	WasJumping             bool
	JumpKeyHoldTime        float64
	JumpForceTimeRemaining float64
	JumpCurrentCount       int

	Data              movement.MoveData
	PrevWantsToCrouch bool
	ControlRotation   game.Rotator

	StartLocation   mgl64.Vec3
	StartRotation   game.Rotator
	StartVelocity   mgl64.Vec3
	StartFloor      movement.FloorResult
	StartBase       physics.Base
	StartMode       movement.Mode
	StartCustomMode movement.CustomMode
	StartHalfHeight float64
	StartRootMotion bool

	SavedLocation mgl64.Vec3
	SavedRotation game.Rotator
	SavedVelocity mgl64.Vec3
	EndBase       physics.Base
	EndMode       movement.Mode
	EndCustomMode movement.CustomMode
	// Hash is the HashState of the actor after the move.
	Hash uint64

	// ForceNoCombine prevents the move from being combined with the next one.
	ForceNoCombine bool
	// OldTimeStampBeforeReset is set on moves whose timestamp predates a timestamp reset.
	OldTimeStampBeforeReset bool
}

// Clear resets the move. The replicated tags go back to their defaults.
func (m *SavedMove) Clear() {
	*m = SavedMove{}
	m.Data = DefaultMoveData()
}

// SetMoveFor records a new move of the actor with the delta time, acceleration and timestamp passed.
func (m *SavedMove) SetMoveFor(c *movement.Character, deltaTime float64, acceleration mgl64.Vec3, timeStamp float32) {
	m.DeltaTime = deltaTime
	m.TimeStamp = timeStamp

	m.SetInitialPosition(c)

	m.AccelMag = acceleration.Len()
	if m.AccelMag > game.SmallNumber {
		m.AccelNormal = acceleration.Mul(1 / m.AccelMag)
	} else {
		m.AccelNormal = mgl64.Vec3{}
	}
	// The magnitude and direction above use the raw value. Only the rounded one is simulated.
	m.Acceleration = roundAcceleration(acceleration)
	m.MaxSpeed = c.Hooks.MaxSpeed(c)

	m.PressedJump = c.PressedJump
	m.WantsToCrouch = c.WantsToCrouch
	m.WantsToProne = c.WantsToProne
	m.ForceMaxAccel = c.ForceMaxAccel

	m.Data = c.MoveData()
	m.PrevWantsToCrouch = c.PrevWantsToCrouch
	m.ControlRotation = c.ControlRotation
	m.OldTimeStampBeforeReset = false
}

// SetInitialPosition records the state of the actor at the start of the move.
func (m *SavedMove) SetInitialPosition(c *movement.Character) {
	m.StartLocation = c.Location
	m.StartRotation = c.Rotation
	m.StartVelocity = c.Velocity
	m.StartFloor = c.Floor
	m.StartBase = c.Base
	m.StartMode, m.StartCustomMode = c.Mode, c.CustomMode
	m.StartHalfHeight = c.HalfHeight
	m.StartRootMotion = c.RootMotion.HasOverride || c.RootMotion.HasAdditive

	m.WasJumping = c.WasJumping
	m.JumpKeyHoldTime = c.JumpKeyHoldTime
	m.JumpForceTimeRemaining = c.JumpForceTimeRemaining
	m.JumpCurrentCount = c.JumpCurrentCountPreJump
}

// PostUpdate records the state of the actor after the move. Recorded moves that changed the movement mode, the
// jump input or started or stopped the actor are never combined.
func (m *SavedMove) PostUpdate(c *movement.Character, mode PostUpdateMode) {
	m.SavedLocation = c.Location
	m.SavedRotation = c.Rotation
	m.SavedVelocity = c.Velocity
	m.EndBase = c.Base
	m.EndMode, m.EndCustomMode = c.Mode, c.CustomMode
	m.Hash = HashState(c)

	if mode != PostUpdateRecord {
		return
	}
	if isZero(m.StartVelocity) != isZero(m.SavedVelocity) {
		m.ForceNoCombine = true
	}
	if m.StartMode != m.EndMode || m.StartCustomMode != m.EndCustomMode {
		m.ForceNoCombine = true
	}
	if m.PressedJump != c.PressedJump {
		m.ForceNoCombine = true
	}
}

// CompressedFlags returns the input flags of the move.
func (m *SavedMove) CompressedFlags() uint8 {
	var flags uint8
	if m.PressedJump {
		flags |= movement.FlagJumpPressed
	}
	if m.WantsToCrouch {
		flags |= movement.FlagWantsToCrouch
	}
	if m.WantsToProne {
		flags |= movement.FlagWantsToProne
	}
	return flags
}

// IsImportantMove reports whether the move differs enough from the last acknowledged move to be sent again with
// the next packet.
func (m *SavedMove) IsImportantMove(lastAcked *SavedMove) bool {
	if m.CompressedFlags() != lastAcked.CompressedFlags() {
		return true
	}
	if m.StartMode != lastAcked.EndMode || m.EndMode != lastAcked.EndMode || m.EndCustomMode != lastAcked.EndCustomMode {
		return true
	}
	if m.Acceleration != lastAcked.Acceleration {
		return math.Abs(m.AccelMag-lastAcked.AccelMag) > accelMagThreshold ||
			m.AccelNormal.Dot(lastAcked.AccelNormal) < accelDotThreshold
	}
	return false
}

// CanCombineWith reports whether the next move can be merged into this one without changing the outcome on the
// server. Moves with different replicated tags are never combined.
func (m *SavedMove) CanCombineWith(next *SavedMove, dotThreshold, maxDeltaTime float64) bool {
	if m.Data != next.Data {
		return false
	}
	if m.ForceNoCombine || next.ForceNoCombine {
		return false
	}
	if m.OldTimeStampBeforeReset != next.OldTimeStampBeforeReset {
		return false
	}
	if m.StartRootMotion || next.StartRootMotion {
		return false
	}

	if isZero(m.Acceleration) != isZero(next.Acceleration) {
		return false
	}
	if !isZero(m.Acceleration) {
		if math.Abs(m.AccelMag-next.AccelMag) > accelMagThreshold || m.AccelNormal.Dot(next.AccelNormal) < dotThreshold {
			return false
		}
	}
	if math.Abs(m.MaxSpeed-next.MaxSpeed) > maxSpeedThresholdCombine {
		return false
	}

	if m.DeltaTime+next.DeltaTime > maxDeltaTime {
		return false
	}
	if m.CompressedFlags() != next.CompressedFlags() {
		return false
	}
	if !sameBase(m.StartBase, next.StartBase) {
		return false
	}
	if m.StartMode != next.StartMode || m.StartCustomMode != next.StartCustomMode {
		return false
	}
	if m.EndMode != next.StartMode || m.EndCustomMode != next.StartCustomMode {
		return false
	}
	if m.StartHalfHeight != next.StartHalfHeight {
		return false
	}
	return m.JumpCurrentCount == next.JumpCurrentCount
}

// CombineWith merges the previous move into this one: the actor is moved back to where the previous move
// started so that this move can be simulated again over both delta times. The rotation of the actor is left as
// it is.
func (m *SavedMove) CombineWith(prev *SavedMove, c *movement.Character, prevStartLocation mgl64.Vec3) {
	defer override(&prev.StartRotation, c.Rotation)()
	m.combineWith(prev, c, prevStartLocation)
}

func (m *SavedMove) combineWith(prev *SavedMove, c *movement.Character, prevStartLocation mgl64.Vec3) {
	c.Location = prevStartLocation
	c.Rotation = prev.StartRotation
	c.Velocity = prev.StartVelocity
	c.SetBase(prev.StartBase)
	c.Floor = prev.StartFloor

	m.DeltaTime += prev.DeltaTime

	// Roll back the jump timers. SetInitialPosition copies them back into the move.
	c.JumpForceTimeRemaining = prev.JumpForceTimeRemaining
	c.JumpKeyHoldTime = prev.JumpKeyHoldTime
	c.JumpCurrentCountPreJump = prev.JumpCurrentCount
}

// PrepMoveFor restores the input state the move was made with before it is replayed.
func (m *SavedMove) PrepMoveFor(c *movement.Character) {
	c.ForceMaxAccel = m.ForceMaxAccel
	c.WasJumping = m.WasJumping
	c.JumpKeyHoldTime = m.JumpKeyHoldTime
	c.JumpForceTimeRemaining = m.JumpForceTimeRemaining
	c.JumpCurrentCount = m.JumpCurrentCount
	c.ControlRotation = m.ControlRotation

	c.RotationMode = m.Data.RotationMode
	c.Stance = m.Data.Stance
	c.MaxAllowedGait = m.Data.MaxAllowedGait
	c.RefreshGaitSettings()

	c.PrevWantsToCrouch = m.PrevWantsToCrouch
}

// payload returns the wire form of the move. Only the newest move of a packet carries the client location used
// for the error check.
func (m *SavedMove) payload(withLocation bool) MovePayload {
	p := MovePayload{
		TimeStamp:    m.TimeStamp,
		Acceleration: vec32(m.Acceleration),
		Pitch:        float32(m.ControlRotation.Pitch),
		Yaw:          float32(m.ControlRotation.Yaw),
		Flags:        m.CompressedFlags(),
		Data:         m.Data,
	}
	if withLocation {
		p.HasLocation = true
		p.Location = quantizeLocation(m.SavedLocation)
		p.Mode = packMode(m.EndMode, m.EndCustomMode)
	}
	return p
}

// override sets *field to value and returns a function that puts the old value back.
func override[T any](field *T, value T) (restore func()) {
	old := *field
	*field = value
	return func() { *field = old }
}

func isZero(v mgl64.Vec3) bool {
	return v == mgl64.Vec3{}
}

func sameBase(a, b physics.Base) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}
