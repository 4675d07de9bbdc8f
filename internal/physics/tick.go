package physics

import (
	"math"

	"github.com/Versifine/locomotion/internal/collision"
	"github.com/go-gl/mathgl/mgl64"
)

// StepSimulation advances the world by dt: integrate dynamic bodies, separate
// them from static geometry and from each other, refresh the broadphase, then
// run every registered action.
func (w *World) StepSimulation(dt float64) {
	if dt <= 0 {
		return
	}
	w.info.TimeStep = dt

	for _, b := range w.bodies {
		w.integrate(b, dt)
	}
	w.applyBodyPush()
	w.updateAabbs()

	for _, a := range w.actions {
		a.UpdateAction(w, dt)
	}
}

func (w *World) integrate(b *RigidBody, dt float64) {
	if b.sleeping {
		return
	}

	b.velocity = b.velocity.Add(b.gravity.Mul(dt))
	origin := b.transform.Origin.Add(b.velocity.Mul(dt))
	b.transform.Origin, b.velocity = w.resolveMovement(b, origin, b.velocity, dt)
	zeroResidualVelocity(&b.velocity)
	b.updateActivation(dt)
}

// resolveMovement pushes a capsule out of every static box it penetrates and
// strips the velocity component heading into the box.
func (w *World) resolveMovement(b *RigidBody, origin, velocity mgl64.Vec3, dt float64) (mgl64.Vec3, mgl64.Vec3) {
	for i := 0; i < maxPushOutIterations; i++ {
		penetrated := false
		for _, s := range w.statics {
			if !s.contactResponse || !b.contactResponse || !b.filter.Accepts(s.filter) {
				continue
			}
			cp := capsuleBoxContact(origin, b.capsule, shapeBounds(s))
			if cp.Distance >= 0 {
				continue
			}
			penetrated = true
			n := cp.NormalWorldOnB
			origin = origin.Add(n.Mul(-cp.Distance))
			if into := velocity.Dot(n); into < 0 {
				velocity = velocity.Sub(n.Mul(into))
				if b.friction > 0 {
					velocity = velocity.Mul(math.Max(0, 1-b.friction*dt))
				}
			}
		}
		if !penetrated {
			break
		}
	}
	return origin, velocity
}

func (w *World) updateAabbs() {
	for _, b := range w.bodies {
		w.proxies[b.handle] = shapeBounds(b)
	}
	for _, g := range w.ghosts {
		lo, hi := g.shape.Aabb(g.transform)
		w.broadphase.SetAabb(g.handle, lo, hi, w.dispatcher)
	}
}

func zeroResidualVelocity(v *mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		if nearlyZero(v[i]) {
			v[i] = 0
		}
	}
}

var _ collision.Broadphase = (*broadphase)(nil)
var _ collision.Dispatcher = (*dispatcher)(nil)
