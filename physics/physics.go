package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
)

// Shape is an upright capsule described by its radius and half height. Half height includes the hemispheres.
type Shape struct {
	Radius     float64
	HalfHeight float64
}

// Capsule returns a capsule shape, clamping the half height so it is never smaller than the radius.
func Capsule(radius, halfHeight float64) Shape {
	return Shape{Radius: max(radius, 0), HalfHeight: max(halfHeight, radius, 0)}
}

// IsNearlyZero reports whether the shape is too small to be swept.
func (s Shape) IsNearlyZero() bool {
	return s.Radius <= game.KindaSmallNumber && s.HalfHeight <= game.KindaSmallNumber
}

// WithHalfHeight returns a copy of the shape with a different half height.
func (s Shape) WithHalfHeight(halfHeight float64) Shape {
	return Capsule(s.Radius, halfHeight)
}

// Inflate grows (or shrinks, for negative values) the shape.
func (s Shape) Inflate(amount float64) Shape {
	return Capsule(s.Radius+amount, s.HalfHeight+amount)
}

// Base is something an actor can stand on. Bases are read only from the movement simulation.
type Base interface {
	// ID returns an identifier that is stable across peers.
	ID() uint64
	// Location returns the world location of the base origin.
	Location() mgl64.Vec3
	// Rotation returns the world rotation of the base.
	Rotation() game.Rotator
	// RotationSpeed returns the angular speed of the base in degrees per second.
	RotationSpeed() game.Rotator
	// QueryCollision reports whether the base currently blocks queries.
	QueryCollision() bool
	// Dynamic reports whether the base can move.
	Dynamic() bool
}

// Hit is the result of a sweep or trace.
type Hit struct {
	// Blocking is true when the query hit something.
	Blocking bool
	// StartPenetrating is true when the query started inside the hit object.
	StartPenetrating bool
	// Time is the fraction of the query travelled before the hit, 1 if nothing was hit.
	Time float64
	// Location is the position of the shape (or the trace point) at the time of the hit.
	Location mgl64.Vec3
	// ImpactPoint is the contact point on the hit object.
	ImpactPoint mgl64.Vec3
	// Normal is the normal of the swept shape at the contact, ImpactNormal the normal of the hit surface.
	Normal       mgl64.Vec3
	ImpactNormal mgl64.Vec3
	// PenetrationDepth is the depth to move along Normal to escape when StartPenetrating is set.
	PenetrationDepth float64

	TraceStart mgl64.Vec3
	TraceEnd   mgl64.Vec3

	Base Base
}

// Miss returns an empty hit for a query from start to end.
func Miss(start, end mgl64.Vec3) Hit {
	return Hit{Time: 1, Location: end, TraceStart: start, TraceEnd: end}
}

// IsValidBlockingHit reports whether the hit blocked without starting in penetration.
func (h Hit) IsValidBlockingHit() bool {
	return h.Blocking && !h.StartPenetrating
}

// Distance returns the distance travelled before the hit.
func (h Hit) Distance() float64 {
	return h.TraceEnd.Sub(h.TraceStart).Len() * h.Time
}

// Engine is the collision world queried by the movement simulation. Implementations must be deterministic: the
// same query against the same world always yields the same hit.
type Engine interface {
	// SweepCapsule sweeps the shape from start to end and returns the first blocking hit. Initial overlaps with
	// objects the sweep moves away from are ignored.
	SweepCapsule(start, end mgl64.Vec3, shape Shape) (Hit, bool)
	// LineTrace traces a ray from start to end and returns the first blocking hit.
	LineTrace(start, end mgl64.Vec3) (Hit, bool)
	// Overlaps reports whether the shape at location overlaps anything blocking.
	Overlaps(location mgl64.Vec3, shape Shape) bool
}

// FluidProvider is implemented by engines that contain water volumes.
type FluidProvider interface {
	// ImmersionDepth returns how much of the shape is submerged, from 0 to 1.
	ImmersionDepth(location mgl64.Vec3, shape Shape) float64
}

// BaseResolver is implemented by engines that can look up bases by ID, which is required to apply corrections
// that reference a movement base.
type BaseResolver interface {
	BaseByID(id uint64) (Base, bool)
}
