// Package boxworld implements a deterministic collision world made of axis aligned boxes, inclined ramps, water
// volumes and moving platforms. Capsules are approximated by their axis aligned bounds against boxes and are
// swept exactly against ramp surfaces.
package boxworld

import (
	"sync"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/physics"
	"github.com/oomph-ac/locomotion/utils"
)

// World is a collision world. Queries may run concurrently with each other, but not with Advance or any of the
// Add methods.
type World struct {
	mu sync.RWMutex

	nextID    uint64
	solids    []*Solid
	ramps     []*Ramp
	platforms []*Platform
	water     []cube.BBox
}

// New creates an empty world.
func New() *World {
	return &World{nextID: 1}
}

func (w *World) id() uint64 {
	id := w.nextID
	w.nextID++
	return id
}

// AddBox adds a static solid box spanning min to max.
func (w *World) AddBox(min, max mgl64.Vec3) *Solid {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := &Solid{id: w.id(), bb: cube.Box(min[0], min[1], min[2], max[0], max[1], max[2])}
	w.solids = append(w.solids, s)
	return s
}

// AddFloor adds a flat square slab whose top surface lies at height z.
func (w *World) AddFloor(z, halfExtent float64) *Solid {
	return w.AddBox(mgl64.Vec3{-halfExtent, -halfExtent, z - 50}, mgl64.Vec3{halfExtent, halfExtent, z})
}

// AddRamp adds an inclined surface over the footprint min to max. The surface is at height baseZ along the
// low edge and rises by rise towards the high edge. If alongY is set the ramp rises along +Y, otherwise +X.
func (w *World) AddRamp(min, max mgl64.Vec2, baseZ, rise float64, alongY bool) *Ramp {
	w.mu.Lock()
	defer w.mu.Unlock()

	r := newRamp(w.id(), min, max, baseZ, rise, alongY)
	w.ramps = append(w.ramps, r)
	return r
}

// AddPlatform adds a moving box. The box is given relative to origin and moves with velocity while turning
// around Z at yawRate degrees per second.
func (w *World) AddPlatform(origin, min, max, velocity mgl64.Vec3, yawRate float64) *Platform {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := &Platform{
		id:       w.id(),
		local:    cube.Box(min[0], min[1], min[2], max[0], max[1], max[2]),
		origin:   origin,
		velocity: velocity,
		yawRate:  yawRate,
	}
	w.platforms = append(w.platforms, p)
	return p
}

// AddWater adds a water volume spanning min to max.
func (w *World) AddWater(min, max mgl64.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.water = append(w.water, cube.Box(min[0], min[1], min[2], max[0], max[1], max[2]))
}

// Advance moves every platform forward by dt seconds.
func (w *World) Advance(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.platforms {
		p.origin = p.origin.Add(p.velocity.Mul(dt))
		p.yaw = game.NormalizeAxis(p.yaw + p.yawRate*dt)
	}
}

// BaseByID looks up a solid, ramp or platform by its ID.
func (w *World) BaseByID(id uint64) (physics.Base, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, s := range w.solids {
		if s.id == id {
			return s, true
		}
	}
	for _, r := range w.ramps {
		if r.id == id {
			return r, true
		}
	}
	for _, p := range w.platforms {
		if p.id == id {
			return p, true
		}
	}
	return nil, false
}

// SweepCapsule sweeps the capsule against every solid, platform and ramp and returns the closest hit.
func (w *World) SweepCapsule(start, end mgl64.Vec3, shape physics.Shape) (physics.Hit, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	extents := capsuleExtents(shape)
	var (
		best  physics.Hit
		found bool
	)
	consider := func(hit physics.Hit, ok bool) {
		if !ok {
			return
		}
		if !found || better(hit, best) {
			best, found = hit, true
		}
	}

	candidates, owners := w.broadPhase(start, end, extents)
	defer putLists(candidates, owners)
	for i, bb := range *candidates {
		consider(sweepBox(bb, w.baseAt((*owners)[i]), start, end, extents))
	}
	for _, r := range w.ramps {
		consider(r.sweep(start, end, shape))
	}
	if found {
		best.TraceStart, best.TraceEnd = start, end
		best.Blocking = true
	}
	return best, found
}

// LineTrace returns the first surface crossed by the segment. Boxes containing start are ignored.
func (w *World) LineTrace(start, end mgl64.Vec3) (physics.Hit, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var (
		best  physics.Hit
		found bool
	)
	candidates, owners := w.broadPhase(start, end, mgl64.Vec3{})
	defer putLists(candidates, owners)
	for i, bb := range *candidates {
		if hit, ok := traceBox(bb, w.baseAt((*owners)[i]), start, end); ok && (!found || hit.Time < best.Time) {
			best, found = hit, true
		}
	}
	for _, r := range w.ramps {
		if hit, ok := r.trace(start, end); ok && (!found || hit.Time < best.Time) {
			best, found = hit, true
		}
	}
	if found {
		best.TraceStart, best.TraceEnd = start, end
		best.Blocking = true
	}
	return best, found
}

// Overlaps reports whether the capsule at location intersects any blocking object.
func (w *World) Overlaps(location mgl64.Vec3, shape physics.Shape) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	extents := capsuleExtents(shape)
	capsuleBB := boxAround(location, extents)
	for _, s := range w.solids {
		if capsuleBB.IntersectsWith(s.bb) {
			return true
		}
	}
	for _, p := range w.platforms {
		if capsuleBB.IntersectsWith(p.BBox()) {
			return true
		}
	}
	for _, r := range w.ramps {
		if r.overlaps(location, shape) {
			return true
		}
	}
	return false
}

// ImmersionDepth returns the submerged fraction of the capsule's height in the deepest water volume it touches.
func (w *World) ImmersionDepth(location mgl64.Vec3, shape physics.Shape) float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	capsuleBB := boxAround(location, capsuleExtents(shape))
	var depth float64
	for _, bb := range w.water {
		if !capsuleBB.IntersectsWith(bb) {
			continue
		}
		bottom := location[2] - shape.HalfHeight
		top := min(bb.Max()[2], location[2]+shape.HalfHeight)
		depth = max(depth, game.Clamp01((top-bottom)/(2*shape.HalfHeight)))
	}
	return depth
}

// broadPhase collects the boxes whose bounds touch the swept region of the query. owners holds the index of the
// object each box belongs to: solids first, then platforms.
func (w *World) broadPhase(start, end, extents mgl64.Vec3) (*[]cube.BBox, *[]int) {
	lo := mgl64.Vec3{min(start[0], end[0]), min(start[1], end[1]), min(start[2], end[2])}.Sub(extents)
	hi := mgl64.Vec3{max(start[0], end[0]), max(start[1], end[1]), max(start[2], end[2])}.Add(extents)
	swept := cube.Box(lo[0]-1, lo[1]-1, lo[2]-1, hi[0]+1, hi[1]+1, hi[2]+1)

	boxes, owners := utils.GetBBoxList(), utils.GetIndexList()
	for i, s := range w.solids {
		if swept.IntersectsWith(s.bb) {
			*boxes = append(*boxes, s.bb)
			*owners = append(*owners, i)
		}
	}
	for i, p := range w.platforms {
		if bb := p.BBox(); swept.IntersectsWith(bb) {
			*boxes = append(*boxes, bb)
			*owners = append(*owners, len(w.solids)+i)
		}
	}
	return boxes, owners
}

func (w *World) baseAt(owner int) physics.Base {
	if owner < len(w.solids) {
		return w.solids[owner]
	}
	return w.platforms[owner-len(w.solids)]
}

// better reports whether a should replace b as the result of a sweep. Penetrating hits win over regular ones and
// the deeper penetration wins between two penetrating hits.
func better(a, b physics.Hit) bool {
	if a.StartPenetrating != b.StartPenetrating {
		return a.StartPenetrating
	}
	if a.StartPenetrating {
		return a.PenetrationDepth > b.PenetrationDepth
	}
	return a.Time < b.Time
}

func putLists(boxes *[]cube.BBox, owners *[]int) {
	utils.PutBBoxList(boxes)
	utils.PutIndexList(owners)
}
