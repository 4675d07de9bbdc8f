package kinematic

import (
	"log/slog"

	"github.com/Versifine/locomotion/internal/collision"
	"github.com/Versifine/locomotion/internal/locomotion"
	"github.com/go-gl/mathgl/mgl64"
)

const maxPenetrationPasses = 4

// proxy is the state both kinematic strategies keep about their ghost.
type proxy struct {
	ghost collision.GhostObject
	shape collision.ConvexShape
	log   *slog.Logger

	current          mgl64.Vec3
	target           mgl64.Vec3
	verticalVelocity float64
	useGhostSweep    bool
}

func newProxy(ghost collision.GhostObject, shape collision.ConvexShape, useGhostSweep bool) proxy {
	return proxy{
		ghost:         ghost,
		shape:         shape,
		log:           slog.Default(),
		useGhostSweep: useGhostSweep,
	}
}

func (p *proxy) SetLogger(l *slog.Logger) {
	if l != nil {
		p.log = l
	}
}

func (p *proxy) Ghost() collision.GhostObject {
	return p.ghost
}

func (p *proxy) SetUseGhostSweepTest(v bool) {
	p.useGhostSweep = v
}

func (p *proxy) VerticalVelocity() float64 {
	return p.verticalVelocity
}

// Warp teleports the proxy without any collision check.
func (p *proxy) Warp(origin mgl64.Vec3) {
	p.ghost.SetWorldTransform(collision.Translation(origin))
}

func (p *proxy) PreStep(w collision.World) {
	passes := 0
	for passes < maxPenetrationPasses && p.recoverFromPenetration(w) {
		passes++
	}
	if passes == maxPenetrationPasses {
		p.log.Debug("penetration recovery exhausted", "position", p.ghost.WorldTransform().Origin)
	}

	p.current = p.ghost.WorldTransform().Origin
	p.target = p.current
}

// recoverFromPenetration refreshes the ghost's overlaps and pushes it out of
// every contact with negative distance. It reports whether anything
// penetrated.
func (p *proxy) recoverFromPenetration(w collision.World) bool {
	lo, hi := p.shape.Aabb(p.ghost.WorldTransform())
	w.Broadphase().SetAabb(p.ghost.Handle(), lo, hi, w.Dispatcher())

	cache := p.ghost.OverlappingPairCache()
	w.Dispatcher().DispatchAllCollisionPairs(cache, w.DispatchInfo(), w.Dispatcher())

	p.current = p.ghost.WorldTransform().Origin
	penetration := false

	for _, pair := range cache.Pairs() {
		if !pair.Proxy0.HasContactResponse() || !pair.Proxy1.HasContactResponse() {
			continue
		}
		for _, m := range pair.AllContactManifolds() {
			sign := 1.0
			if collision.SameObject(m.Body0, p.ghost) {
				sign = -1
			}
			for _, pt := range m.Points {
				if pt.Distance >= 0 {
					continue
				}
				push := pt.NormalWorldOnB.Mul(sign * pt.Distance)
				p.current = p.current.Add(push)
				penetration = true
				if push.Dot(locomotion.Up) > 0 {
					p.verticalVelocity = 0
				}
			}
		}
	}

	p.ghost.SetWorldTransform(p.ghost.WorldTransform().WithOrigin(p.current))
	return penetration
}

// drainPairs empties the ghost's pair cache so stale contacts do not survive
// a reset.
func (p *proxy) drainPairs(w collision.World) {
	cache := p.ghost.OverlappingPairCache()
	for cache.NumPairs() > 0 {
		first := cache.Pairs()[0]
		cache.RemovePair(first.Proxy0, first.Proxy1, w.Dispatcher())
	}
}

func (p *proxy) sweep(w collision.World, from, to mgl64.Vec3, cb collision.ConvexResultCallback, worldPenetration float64) collision.SweepResult {
	start := collision.Translation(from)
	end := collision.Translation(to)
	if p.useGhostSweep {
		return p.ghost.ConvexSweepTest(p.shape, start, end, cb, w.DispatchInfo().AllowedCcdPenetration)
	}
	return w.ConvexSweepTest(p.shape, start, end, cb, worldPenetration)
}

func (p *proxy) callback(up mgl64.Vec3, minSlopeDot float64) *closestNotMe {
	return &closestNotMe{me: p.ghost, up: up, minSlopeDot: minSlopeDot}
}

func (p *proxy) commit() {
	p.ghost.SetWorldTransform(p.ghost.WorldTransform().WithOrigin(p.current))
}
