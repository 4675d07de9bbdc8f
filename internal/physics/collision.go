package physics

import (
	"math"

	"github.com/Versifine/locomotion/internal/collision"
	"github.com/go-gl/mathgl/mgl64"
)

type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

func BoxAABB(center, halfExtents mgl64.Vec3) AABB {
	return AABB{Min: center.Sub(halfExtents), Max: center.Add(halfExtents)}
}

// Inflate grows the box by e on every side.
func (a AABB) Inflate(e mgl64.Vec3) AABB {
	return AABB{Min: a.Min.Sub(e), Max: a.Max.Add(e)}
}

func (a AABB) Union(b AABB) AABB {
	var out AABB
	for i := 0; i < 3; i++ {
		out.Min[i] = math.Min(a.Min[i], b.Min[i])
		out.Max[i] = math.Max(a.Max[i], b.Max[i])
	}
	return out
}

// Overlaps treats boxes closer than margin as overlapping.
func (a AABB) Overlaps(b AABB, margin float64) bool {
	for i := 0; i < 3; i++ {
		if a.Min[i] > b.Max[i]+margin || b.Min[i] > a.Max[i]+margin {
			return false
		}
	}
	return true
}

// ContainsStrict reports whether p lies inside the box and not on its surface.
func (a AABB) ContainsStrict(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] <= a.Min[i] || p[i] >= a.Max[i] {
			return false
		}
	}
	return true
}

// exitFace returns the outward normal of the face through which the interior
// span [lo, hi] leaves the box with the least travel, and that travel.
func (a AABB) exitFace(lo, hi mgl64.Vec3) (mgl64.Vec3, float64) {
	var normal mgl64.Vec3
	depth := math.Inf(1)
	for i := 0; i < 3; i++ {
		if d := a.Max[i] - lo[i]; d < depth {
			depth = d
			normal = mgl64.Vec3{}
			normal[i] = 1
		}
		if d := hi[i] - a.Min[i]; d < depth {
			depth = d
			normal = mgl64.Vec3{}
			normal[i] = -1
		}
	}
	return normal, depth
}

// RayIntersect runs a slab test for the segment from→to. Segments that start
// inside the box, or graze along one of its faces, do not hit. The returned
// normal is the face entered.
func (a AABB) RayIntersect(from, to mgl64.Vec3) (float64, mgl64.Vec3, bool) {
	dir := to.Sub(from)
	tEnter := math.Inf(-1)
	tExit := math.Inf(1)
	var normal mgl64.Vec3

	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) <= CollisionAxisTolerance {
			if from[i] <= a.Min[i] || from[i] >= a.Max[i] {
				return 0, mgl64.Vec3{}, false
			}
			continue
		}
		t1 := (a.Min[i] - from[i]) / dir[i]
		t2 := (a.Max[i] - from[i]) / dir[i]
		face := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			face = 1
		}
		if t1 > tEnter {
			tEnter = t1
			normal = mgl64.Vec3{}
			normal[i] = face
		}
		tExit = math.Min(tExit, t2)
	}

	if tEnter < 0 || tEnter > 1 || tEnter > tExit {
		return 0, mgl64.Vec3{}, false
	}
	return tEnter, normal, true
}

// capsuleBoxContact computes the closest features of an upright capsule and
// a box. The normal points from the box towards the capsule and the distance
// is negative when they overlap.
func capsuleBoxContact(center mgl64.Vec3, capsule *collision.CapsuleShape, box AABB) collision.ManifoldPoint {
	segLo := center.Y() - capsule.HalfHeight
	segHi := center.Y() + capsule.HalfHeight

	var segY, boxY float64
	lo := math.Max(segLo, box.Min.Y())
	hi := math.Min(segHi, box.Max.Y())
	switch {
	case lo <= hi:
		segY, boxY = lo, lo
	case segLo > box.Max.Y():
		segY, boxY = segLo, box.Max.Y()
	default:
		segY, boxY = segHi, box.Min.Y()
	}

	segPt := mgl64.Vec3{center.X(), segY, center.Z()}
	boxPt := mgl64.Vec3{
		clamp(center.X(), box.Min.X(), box.Max.X()),
		boxY,
		clamp(center.Z(), box.Min.Z(), box.Max.Z()),
	}

	diff := segPt.Sub(boxPt)
	if d := diff.Len(); d > CollisionAxisTolerance {
		n := diff.Mul(1 / d)
		dist := d - capsule.Radius
		return collision.ManifoldPoint{
			Distance:         dist,
			NormalWorldOnB:   n,
			PositionWorldOnB: boxPt,
			PositionWorldOnA: boxPt.Add(n.Mul(dist)),
		}
	}

	// The core segment is inside the box: leave through the cheapest face.
	n, depth := box.exitFace(
		mgl64.Vec3{center.X(), segLo, center.Z()},
		mgl64.Vec3{center.X(), segHi, center.Z()},
	)
	dist := -(depth + capsule.Radius)
	onB := segPt
	for i := 0; i < 3; i++ {
		switch {
		case n[i] > 0:
			onB[i] = box.Max[i]
		case n[i] < 0:
			onB[i] = box.Min[i]
		}
	}
	return collision.ManifoldPoint{
		Distance:         dist,
		NormalWorldOnB:   n,
		PositionWorldOnB: onB,
		PositionWorldOnA: onB.Add(n.Mul(dist)),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func nearlyZero(v float64) bool {
	return math.Abs(v) <= CollisionAxisTolerance
}
