package boxworld

import (
	"math"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/physics"
)

// Solid is a static box.
type Solid struct {
	id uint64
	bb cube.BBox
}

func (s *Solid) ID() uint64                  { return s.id }
func (s *Solid) Location() mgl64.Vec3        { return s.bb.Min().Add(s.bb.Max()).Mul(0.5) }
func (s *Solid) Rotation() game.Rotator      { return game.Rotator{} }
func (s *Solid) RotationSpeed() game.Rotator { return game.Rotator{} }
func (s *Solid) QueryCollision() bool        { return true }
func (s *Solid) Dynamic() bool               { return false }

// BBox returns the bounds of the solid.
func (s *Solid) BBox() cube.BBox { return s.bb }

// Platform is a box that moves at a constant velocity and yaw rate. Its collision box does not turn with it, the
// yaw only affects actors based on it.
type Platform struct {
	id       uint64
	local    cube.BBox
	origin   mgl64.Vec3
	velocity mgl64.Vec3
	yaw      float64
	yawRate  float64
}

func (p *Platform) ID() uint64                  { return p.id }
func (p *Platform) Location() mgl64.Vec3        { return p.origin }
func (p *Platform) Rotation() game.Rotator      { return game.Rotator{Yaw: p.yaw} }
func (p *Platform) RotationSpeed() game.Rotator { return game.Rotator{Yaw: p.yawRate} }
func (p *Platform) QueryCollision() bool        { return true }
func (p *Platform) Dynamic() bool               { return true }

// BBox returns the world bounds of the platform.
func (p *Platform) BBox() cube.BBox { return p.local.Translate(p.origin) }

// Ramp is an inclined plane over a rectangular footprint. Only its top surface collides.
type Ramp struct {
	id       uint64
	min, max mgl64.Vec2
	baseZ    float64
	rise     float64
	alongY   bool

	origin mgl64.Vec3
	normal mgl64.Vec3
}

func newRamp(id uint64, min, max mgl64.Vec2, baseZ, rise float64, alongY bool) *Ramp {
	lo := mgl64.Vec2{math.Min(min[0], max[0]), math.Min(min[1], max[1])}
	hi := mgl64.Vec2{math.Max(min[0], max[0]), math.Max(min[1], max[1])}
	r := &Ramp{id: id, min: lo, max: hi, baseZ: baseZ, rise: rise, alongY: alongY}

	axis := r.axis()
	slope := rise / math.Max(hi[axis]-lo[axis], game.KindaSmallNumber)
	n := mgl64.Vec3{0, 0, 1}
	n[axis] = -slope
	r.normal = n.Normalize()
	r.origin = mgl64.Vec3{lo[0], lo[1], baseZ}
	return r
}

func (r *Ramp) ID() uint64                  { return r.id }
func (r *Ramp) Location() mgl64.Vec3        { return r.origin }
func (r *Ramp) Rotation() game.Rotator      { return game.Rotator{} }
func (r *Ramp) RotationSpeed() game.Rotator { return game.Rotator{} }
func (r *Ramp) QueryCollision() bool        { return true }
func (r *Ramp) Dynamic() bool               { return false }

// Normal returns the surface normal of the ramp.
func (r *Ramp) Normal() mgl64.Vec3 { return r.normal }

// HeightAt returns the surface height at the given horizontal position, clamped to the footprint.
func (r *Ramp) HeightAt(x, y float64) float64 {
	axis := r.axis()
	c := [2]float64{x, y}[axis]
	return r.baseZ + r.rise*game.Clamp01((c-r.min[axis])/math.Max(r.max[axis]-r.min[axis], game.KindaSmallNumber))
}

func (r *Ramp) axis() int {
	if r.alongY {
		return 1
	}
	return 0
}

func (r *Ramp) contains(p mgl64.Vec3) bool {
	return p[0] >= r.min[0] && p[0] <= r.max[0] && p[1] >= r.min[1] && p[1] <= r.max[1]
}

// distance returns the signed distance between the capsule and the ramp plane.
func (r *Ramp) distance(center mgl64.Vec3, shape physics.Shape) float64 {
	lower := center.Sub(mgl64.Vec3{0, 0, shape.HalfHeight - shape.Radius})
	return lower.Sub(r.origin).Dot(r.normal) - shape.Radius
}

// support returns the point of the capsule closest to the ramp plane.
func (r *Ramp) support(center mgl64.Vec3, shape physics.Shape) mgl64.Vec3 {
	return center.Sub(mgl64.Vec3{0, 0, shape.HalfHeight - shape.Radius}).Sub(r.normal.Mul(shape.Radius))
}

func (r *Ramp) sweep(start, end mgl64.Vec3, shape physics.Shape) (physics.Hit, bool) {
	delta := end.Sub(start)
	moving := delta.LenSqr() > game.SmallNumber
	rate := delta.Dot(r.normal)

	d0 := r.distance(start, shape)
	if d0 < -insideTolerance {
		if -d0 > shape.HalfHeight || !r.contains(r.support(start, shape)) {
			return physics.Hit{}, false
		}
		if moving && rate >= 0 {
			return physics.Hit{}, false
		}
		return physics.Hit{
			StartPenetrating: true,
			Location:         start,
			ImpactPoint:      r.support(start, shape),
			Normal:           r.normal,
			ImpactNormal:     r.normal,
			PenetrationDepth: -d0,
			Base:             r,
		}, true
	}
	if !moving || rate >= 0 {
		return physics.Hit{}, false
	}
	t := math.Max(d0/-rate, 0)
	if t > 1 {
		return physics.Hit{}, false
	}
	contact := r.support(start.Add(delta.Mul(t)), shape)
	if !r.contains(contact) {
		return physics.Hit{}, false
	}
	t = pullBack(t, delta.Len())
	return physics.Hit{
		Time:         t,
		Location:     start.Add(delta.Mul(t)),
		ImpactPoint:  contact,
		Normal:       r.normal,
		ImpactNormal: r.normal,
		Base:         r,
	}, true
}

func (r *Ramp) trace(start, end mgl64.Vec3) (physics.Hit, bool) {
	d0 := start.Sub(r.origin).Dot(r.normal)
	d1 := end.Sub(r.origin).Dot(r.normal)
	if d0 < 0 || d1 >= 0 {
		return physics.Hit{}, false
	}
	t := d0 / (d0 - d1)
	p := start.Add(end.Sub(start).Mul(t))
	if !r.contains(p) {
		return physics.Hit{}, false
	}
	return physics.Hit{Time: t, Location: p, ImpactPoint: p, Normal: r.normal, ImpactNormal: r.normal, Base: r}, true
}

func (r *Ramp) overlaps(location mgl64.Vec3, shape physics.Shape) bool {
	d := r.distance(location, shape)
	return d < -insideTolerance && -d <= shape.HalfHeight && r.contains(r.support(location, shape))
}
