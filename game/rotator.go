package game

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// Rotator is an orientation expressed as pitch, yaw and roll in degrees. Yaw turns around +Z, positive pitch
// raises the forward vector and roll is applied first, then pitch, then yaw.
type Rotator struct {
	Pitch, Yaw, Roll float64
}

// Quat converts the rotator into a quaternion.
func (r Rotator) Quat() mgl64.Quat {
	yaw := mgl64.QuatRotate(mgl64.DegToRad(r.Yaw), axisZ)
	pitch := mgl64.QuatRotate(-mgl64.DegToRad(r.Pitch), axisY)
	roll := mgl64.QuatRotate(-mgl64.DegToRad(r.Roll), axisX)
	return yaw.Mul(pitch).Mul(roll)
}

// RotateVector rotates v by the rotator.
func (r Rotator) RotateVector(v mgl64.Vec3) mgl64.Vec3 {
	if r.IsZero() {
		return v
	}
	return r.Quat().Rotate(v)
}

// UnrotateVector applies the inverse rotation to v.
func (r Rotator) UnrotateVector(v mgl64.Vec3) mgl64.Vec3 {
	if r.IsZero() {
		return v
	}
	return r.Quat().Inverse().Rotate(v)
}

// Forward returns the unit forward vector.
func (r Rotator) Forward() mgl64.Vec3 {
	p, y := mgl64.DegToRad(r.Pitch), mgl64.DegToRad(r.Yaw)
	cp := math.Cos(p)
	return mgl64.Vec3{cp * math.Cos(y), cp * math.Sin(y), math.Sin(p)}
}

// Right returns the unit right vector.
func (r Rotator) Right() mgl64.Vec3 {
	return r.RotateVector(axisY)
}

// Scale multiplies every component by the given scalar.
func (r Rotator) Scale(s float64) Rotator {
	return Rotator{Pitch: r.Pitch * s, Yaw: r.Yaw * s, Roll: r.Roll * s}
}

// Normalize wraps every component to (-180, 180].
func (r Rotator) Normalize() Rotator {
	return Rotator{Pitch: NormalizeAxis(r.Pitch), Yaw: NormalizeAxis(r.Yaw), Roll: NormalizeAxis(r.Roll)}
}

// IsZero reports whether all components are zero.
func (r Rotator) IsZero() bool {
	return r.Pitch == 0 && r.Yaw == 0 && r.Roll == 0
}

// Equals compares two rotators after normalisation within tolerance.
func (r Rotator) Equals(o Rotator, tolerance float64) bool {
	a, b := r.Normalize(), o.Normalize()
	return math.Abs(NormalizeAxis(a.Pitch-b.Pitch)) <= tolerance &&
		math.Abs(NormalizeAxis(a.Yaw-b.Yaw)) <= tolerance &&
		math.Abs(NormalizeAxis(a.Roll-b.Roll)) <= tolerance
}

func (r Rotator) String() string {
	return fmt.Sprintf("P=%.3f Y=%.3f R=%.3f", r.Pitch, r.Yaw, r.Roll)
}

// RotatorFromQuat converts a quaternion back into a rotator.
func RotatorFromQuat(q mgl64.Quat) Rotator {
	forward := q.Rotate(axisX)
	right := q.Rotate(axisY)

	r := Rotator{
		Yaw:   mgl64.RadToDeg(math.Atan2(forward.Y(), forward.X())),
		Pitch: mgl64.RadToDeg(math.Atan2(forward.Z(), math.Hypot(forward.X(), forward.Y()))),
	}
	unrolled := r.Quat()
	r.Roll = mgl64.RadToDeg(math.Atan2(-right.Dot(unrolled.Rotate(axisZ)), right.Dot(unrolled.Rotate(axisY))))
	return r
}

// RotatorFromXZ returns the rotator whose forward vector is x, keeping z as close to up as possible. A zero
// horizontal x yields the zero rotator.
func RotatorFromXZ(x mgl64.Vec3) Rotator {
	if IsNearlyZero(x, SmallNumber) {
		return Rotator{}
	}
	return Rotator{
		Yaw:   mgl64.RadToDeg(math.Atan2(x.Y(), x.X())),
		Pitch: mgl64.RadToDeg(math.Atan2(x.Z(), math.Hypot(x.X(), x.Y()))),
	}
}

// Twist returns the rotation of r around the given axis only.
func Twist(r Rotator, twistAxis mgl64.Vec3) mgl64.Quat {
	q := r.Quat()
	projection := twistAxis.Mul(twistAxis.Dot(q.V))
	twist := mgl64.Quat{W: q.W, V: projection}
	if twist.Len() < SmallNumber {
		return mgl64.QuatIdent()
	}
	return twist.Normalize()
}

// QuatEquals reports whether two quaternions describe the same rotation within tolerance.
func QuatEquals(a, b mgl64.Quat, tolerance float64) bool {
	same := math.Abs(a.W-b.W) <= tolerance && IsNearlyZero(a.V.Sub(b.V), tolerance)
	opposite := math.Abs(a.W+b.W) <= tolerance && IsNearlyZero(a.V.Add(b.V), tolerance)
	return same || opposite
}
