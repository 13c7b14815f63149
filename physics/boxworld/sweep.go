package boxworld

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/block/cube/trace"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/physics"
)

const (
	// insideTolerance is the depth a point must be inside a box before it counts as penetrating.
	insideTolerance = 1e-5
	// pullBackDistance is the distance a sweep result is moved back from the surface it hit.
	pullBackDistance = 0.1
)

func capsuleExtents(shape physics.Shape) mgl64.Vec3 {
	return mgl64.Vec3{shape.Radius, shape.Radius, shape.HalfHeight}
}

func boxAround(center, extents mgl64.Vec3) cube.BBox {
	lo, hi := center.Sub(extents), center.Add(extents)
	return cube.Box(lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
}

// expand grows bb by the capsule extents, so a sweep of the capsule becomes a ray against the expanded box.
func expand(bb cube.BBox, extents mgl64.Vec3) cube.BBox {
	lo, hi := bb.Min().Sub(extents), bb.Max().Add(extents)
	return cube.Box(lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
}

func insideBy(bb cube.BBox, p mgl64.Vec3, tolerance float64) bool {
	lo, hi := bb.Min(), bb.Max()
	for i := range 3 {
		if p[i] <= lo[i]+tolerance || p[i] >= hi[i]-tolerance {
			return false
		}
	}
	return true
}

func clampInto(bb cube.BBox, p mgl64.Vec3) mgl64.Vec3 {
	lo, hi := bb.Min(), bb.Max()
	return mgl64.Vec3{
		game.Clamp(p[0], lo[0], hi[0]),
		game.Clamp(p[1], lo[1], hi[1]),
		game.Clamp(p[2], lo[2], hi[2]),
	}
}

// escape returns the direction and distance of the shortest way out of bb for a point inside it. Upward escapes
// are preferred on ties.
func escape(bb cube.BBox, p mgl64.Vec3) (mgl64.Vec3, float64) {
	lo, hi := bb.Min(), bb.Max()
	candidates := [...]struct {
		normal mgl64.Vec3
		depth  float64
	}{
		{mgl64.Vec3{0, 0, 1}, hi[2] - p[2]},
		{mgl64.Vec3{0, 0, -1}, p[2] - lo[2]},
		{mgl64.Vec3{1, 0, 0}, hi[0] - p[0]},
		{mgl64.Vec3{-1, 0, 0}, p[0] - lo[0]},
		{mgl64.Vec3{0, 1, 0}, hi[1] - p[1]},
		{mgl64.Vec3{0, -1, 0}, p[1] - lo[1]},
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.depth < best.depth {
			best = c
		}
	}
	return best.normal, best.depth
}

func faceNormal(face cube.Face) mgl64.Vec3 {
	switch face {
	case cube.FaceDown:
		return mgl64.Vec3{0, -1, 0}
	case cube.FaceUp:
		return mgl64.Vec3{0, 1, 0}
	case cube.FaceNorth:
		return mgl64.Vec3{0, 0, -1}
	case cube.FaceSouth:
		return mgl64.Vec3{0, 0, 1}
	case cube.FaceWest:
		return mgl64.Vec3{-1, 0, 0}
	default:
		return mgl64.Vec3{1, 0, 0}
	}
}

func pullBack(t, dist float64) float64 {
	if dist < game.SmallNumber {
		return 0
	}
	return game.Clamp(t-pullBackDistance/dist, 0, 1)
}

func sweepBox(bb cube.BBox, base physics.Base, start, end, extents mgl64.Vec3) (physics.Hit, bool) {
	expanded := expand(bb, extents)
	delta := end.Sub(start)
	moving := delta.LenSqr() > game.SmallNumber

	if insideBy(expanded, start, 0) {
		normal, depth := escape(expanded, start)
		if depth >= insideTolerance {
			if moving && delta.Dot(normal) >= 0 {
				return physics.Hit{}, false
			}
			return physics.Hit{
				StartPenetrating: true,
				Location:         start,
				ImpactPoint:      clampInto(bb, start),
				Normal:           normal,
				ImpactNormal:     normal,
				PenetrationDepth: depth,
				Base:             base,
			}, true
		}
		if !moving || delta.Dot(normal) >= 0 {
			return physics.Hit{}, false
		}
		return physics.Hit{
			Location:     start,
			ImpactPoint:  clampInto(bb, start),
			Normal:       normal,
			ImpactNormal: normal,
			Base:         base,
		}, true
	}
	if !moving {
		return physics.Hit{}, false
	}

	result, ok := trace.BBoxIntercept(expanded, start, end)
	if !ok {
		return physics.Hit{}, false
	}
	normal := faceNormal(result.Face())
	if delta.Dot(normal) >= 0 {
		return physics.Hit{}, false
	}
	dist := delta.Len()
	contact := result.Position()
	t := pullBack(contact.Sub(start).Len()/dist, dist)
	return physics.Hit{
		Time:         t,
		Location:     start.Add(delta.Mul(t)),
		ImpactPoint:  clampInto(bb, contact),
		Normal:       normal,
		ImpactNormal: normal,
		Base:         base,
	}, true
}

func traceBox(bb cube.BBox, base physics.Base, start, end mgl64.Vec3) (physics.Hit, bool) {
	delta := end.Sub(start)
	if delta.LenSqr() < game.SmallNumber || insideBy(bb, start, 0) {
		return physics.Hit{}, false
	}
	result, ok := trace.BBoxIntercept(bb, start, end)
	if !ok {
		return physics.Hit{}, false
	}
	normal := faceNormal(result.Face())
	if delta.Dot(normal) >= 0 {
		return physics.Hit{}, false
	}
	pos := result.Position()
	return physics.Hit{
		Time:         pos.Sub(start).Len() / delta.Len(),
		Location:     pos,
		ImpactPoint:  pos,
		Normal:       normal,
		ImpactNormal: normal,
		Base:         base,
	}, true
}
