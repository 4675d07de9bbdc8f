package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// applyBodyPush separates overlapping dynamic capsules horizontally. Each
// body's push is capped per neighbour and per tick, then resolved against
// static geometry.
func (w *World) applyBodyPush() {
	pushes := make([]mgl64.Vec3, len(w.bodies))
	for i, b := range w.bodies {
		pushes[i] = w.bodyPush(b)
	}
	for i, b := range w.bodies {
		if pushes[i] == (mgl64.Vec3{}) {
			continue
		}
		origin := b.transform.Origin.Add(pushes[i])
		b.transform.Origin, b.velocity = w.resolveMovement(b, origin, b.velocity, 0)
		b.wake()
	}
}

func (w *World) bodyPush(b *RigidBody) mgl64.Vec3 {
	var push mgl64.Vec3
	self := shapeBounds(b)
	pos := b.transform.Origin

	for _, other := range w.bodies {
		if other == b || !b.filter.Accepts(other.filter) {
			continue
		}
		box := shapeBounds(other)
		if self.Max.Y() <= box.Min.Y() || self.Min.Y() >= box.Max.Y() {
			continue
		}

		dx := pos.X() - other.transform.Origin.X()
		dz := pos.Z() - other.transform.Origin.Z()
		dist2 := dx*dx + dz*dz
		minDist := b.capsule.Radius + other.capsule.Radius
		if dist2 >= minDist*minDist {
			continue
		}

		dist := math.Sqrt(dist2)
		if dist < CollisionAxisTolerance {
			dx, dz, dist = 1, 0, 1
		}

		overlap := minDist - dist
		mag := math.Min(overlap*bodyPushStrength, bodyPushMaxPerBody)
		push = push.Add(mgl64.Vec3{dx / dist * mag, 0, dz / dist * mag})
	}

	if length := push.Len(); length > bodyPushMaxPerTick {
		push = push.Mul(bodyPushMaxPerTick / length)
	} else if length <= CollisionAxisTolerance {
		return mgl64.Vec3{}
	}
	return push
}
