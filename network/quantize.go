package network

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/movement"
	"github.com/zeebo/xxh3"
)

// roundAcceleration rounds every component to one decimal so that the client and the server simulate with the
// exact value that went over the wire.
func roundAcceleration(v mgl64.Vec3) mgl64.Vec3 {
	return vec64(mgl32.Vec3{
		math32.Round(float32(v[0])*10) / 10,
		math32.Round(float32(v[1])*10) / 10,
		math32.Round(float32(v[2])*10) / 10,
	})
}

// quantizeLocation rounds a location to two decimals. Client locations are only used for the error check, so
// the precision lost here never feeds back into the simulation.
func quantizeLocation(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		math32.Round(float32(v[0])*100) / 100,
		math32.Round(float32(v[1])*100) / 100,
		math32.Round(float32(v[2])*100) / 100,
	}
}

// quantizeRotator drops the roll and reduces pitch and yaw to the precision they are sent with.
func quantizeRotator(r game.Rotator) game.Rotator {
	return game.Rotator{Pitch: float64(float32(r.Pitch)), Yaw: float64(float32(r.Yaw))}
}

func vec32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func vec64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

// packMode packs a movement mode and its custom sub mode into one byte.
func packMode(mode movement.Mode, custom movement.CustomMode) uint8 {
	return uint8(mode)&0x0f | uint8(custom)<<4
}

func unpackMode(packed uint8) (movement.Mode, movement.CustomMode) {
	return movement.Mode(packed & 0x0f), movement.CustomMode(packed >> 4)
}

// HashState returns a fingerprint of the simulated location, velocity and movement mode of an actor. The server
// sends it with every acknowledgement so the client can tell whether an acknowledged move matched bit for bit.
func HashState(c *movement.Character) uint64 {
	buf := make([]byte, 0, 6*8+1)
	for _, v := range [2]mgl64.Vec3{c.Location, c.Velocity} {
		for _, f := range v {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
		}
	}
	buf = append(buf, packMode(c.Mode, c.CustomMode))
	return xxh3.Hash(buf)
}
