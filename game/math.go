package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// SmallNumber matches the tolerance used for normalisation.
	SmallNumber = 1e-8
	// KindaSmallNumber is the general purpose tolerance of the simulation.
	KindaSmallNumber = 1e-4
)

// Round64 will round a float64 to a given precision.
func Round64(val float64, precision int) float64 {
	pwr := math.Pow(10, float64(precision))
	return math.Round(val*pwr) / pwr
}

// Clamp clamps the given value to the given range.
func Clamp(num, min, max float64) float64 {
	if num < min {
		return min
	}
	return math.Min(num, max)
}

// Clamp01 clamps the value to [0, 1].
func Clamp01(num float64) float64 {
	return Clamp(num, 0, 1)
}

// Lerp interpolates between a and b.
func Lerp(a, b, alpha float64) float64 {
	return a + alpha*(b-a)
}

// RangePct returns where value lies between min and max as a fraction. A zero-length range returns 1 if
// value is at or beyond max and 0 otherwise.
func RangePct(min, max, value float64) float64 {
	divisor := max - min
	if math.Abs(divisor) < SmallNumber {
		if value >= max {
			return 1
		}
		return 0
	}
	return (value - min) / divisor
}

// MappedRangeValueClamped maps value from the input range to the output range, clamping to the output range.
func MappedRangeValueClamped(inMin, inMax, outMin, outMax, value float64) float64 {
	return Lerp(outMin, outMax, Clamp01(RangePct(inMin, inMax, value)))
}

// Vec32To64 converts a 32-bit vector to a 64-bit one.
func Vec32To64(vec3 mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(vec3[0]), float64(vec3[1]), float64(vec3[2])}
}

// Vec64To32 converts a 64-bit vector to a 32-bit one.
func Vec64To32(vec3 mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(vec3[0]), float32(vec3[1]), float32(vec3[2])}
}

// RoundVec64 will round a 64-bit vector to a given precision.
func RoundVec64(v mgl64.Vec3, p int) mgl64.Vec3 {
	return mgl64.Vec3{Round64(v.X(), p), Round64(v.Y(), p), Round64(v.Z(), p)}
}

// AbsVec64 will return the given vector, but all the values of it are switched to their absolute values.
func AbsVec64(vec mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Abs(vec.X()), math.Abs(vec.Y()), math.Abs(vec.Z())}
}

// Vec3HzDistSqr returns the squared horizontal (XY) length of a vector.
func Vec3HzDistSqr(vec3 mgl64.Vec3) float64 {
	return vec3.X()*vec3.X() + vec3.Y()*vec3.Y()
}

// Vec3HzDist returns the horizontal (XY) length of a vector.
func Vec3HzDist(vec3 mgl64.Vec3) float64 {
	return math.Sqrt(Vec3HzDistSqr(vec3))
}

// IsNearlyZero reports whether every component of the vector is within tolerance of zero.
func IsNearlyZero(vec mgl64.Vec3, tolerance float64) bool {
	return math.Abs(vec[0]) <= tolerance && math.Abs(vec[1]) <= tolerance && math.Abs(vec[2]) <= tolerance
}

// IsZero reports whether the vector is exactly zero.
func IsZero(vec mgl64.Vec3) bool {
	return vec[0] == 0 && vec[1] == 0 && vec[2] == 0
}

// SafeNormal returns the normalised vector, or zero if its squared length is below tolerance.
func SafeNormal(vec mgl64.Vec3, tolerance float64) mgl64.Vec3 {
	sq := vec.LenSqr()
	if sq == 1 {
		return vec
	} else if sq < tolerance {
		return mgl64.Vec3{}
	}
	return vec.Mul(1 / math.Sqrt(sq))
}

// SafeNormal2D returns the normalised XY part of the vector with Z zeroed.
func SafeNormal2D(vec mgl64.Vec3) mgl64.Vec3 {
	sq := Vec3HzDistSqr(vec)
	if sq == 1 {
		if vec[2] == 0 {
			return vec
		}
		return mgl64.Vec3{vec[0], vec[1], 0}
	} else if sq < SmallNumber {
		return mgl64.Vec3{}
	}
	scale := 1 / math.Sqrt(sq)
	return mgl64.Vec3{vec[0] * scale, vec[1] * scale, 0}
}

// ClampedToMaxSize returns the vector with its length clamped to max.
func ClampedToMaxSize(vec mgl64.Vec3, max float64) mgl64.Vec3 {
	if max < KindaSmallNumber {
		return mgl64.Vec3{}
	}
	sq := vec.LenSqr()
	if sq > max*max {
		return vec.Mul(max / math.Sqrt(sq))
	}
	return vec
}

// VectorPlaneProject projects the vector onto the plane described by the given normal.
func VectorPlaneProject(vec, normal mgl64.Vec3) mgl64.Vec3 {
	return vec.Sub(normal.Mul(vec.Dot(normal)))
}

// DirectionToAngle returns the angle in degrees of a 2D direction measured from the X axis.
func DirectionToAngle(direction mgl64.Vec2) float64 {
	return mgl64.RadToDeg(math.Atan2(direction.Y(), direction.X()))
}

// NormalizeAxis wraps an angle in degrees to (-180, 180].
func NormalizeAxis(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	if angle > 180 {
		angle -= 360
	}
	return angle
}

// WrapYawDelta wraps a yaw difference in degrees to [-180, 180].
func WrapYawDelta(delta float64) float64 {
	if delta > 180 {
		delta -= 360
	} else if delta < -180 {
		delta += 360
	}
	return delta
}
