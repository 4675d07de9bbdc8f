// Package physics is a small reference collision world: static boxes, upright
// capsule rigid bodies and pair-caching ghost capsules. Every object other
// than the querying capsule is treated as its axis-aligned bounds.
package physics

import (
	"log/slog"

	"github.com/Versifine/locomotion/internal/collision"
	"github.com/go-gl/mathgl/mgl64"
)

type World struct {
	gravity mgl64.Vec3
	info    collision.DispatchInfo
	log     *slog.Logger

	objects []collision.Object
	statics []*StaticObject
	bodies  []*RigidBody
	ghosts  []*GhostObject
	actions []collision.Action

	// bounds registered through the broadphase, keyed by handle
	proxies map[collision.Handle]AABB

	broadphase *broadphase
	dispatcher *dispatcher
}

var _ collision.World = (*World)(nil)

func NewWorld(gravity mgl64.Vec3) *World {
	w := &World{
		gravity: gravity,
		info: collision.DispatchInfo{
			TimeStep:              DefaultTimeStep,
			AllowedCcdPenetration: AllowedCcdPenetration,
		},
		log:     slog.Default(),
		proxies: make(map[collision.Handle]AABB),
	}
	w.broadphase = &broadphase{world: w}
	w.dispatcher = &dispatcher{}
	return w
}

func (w *World) SetLogger(l *slog.Logger) {
	if l != nil {
		w.log = l
	}
}

func (w *World) Gravity() mgl64.Vec3 {
	return w.gravity
}

func (w *World) Objects() []collision.Object {
	out := make([]collision.Object, len(w.objects))
	copy(out, w.objects)
	return out
}

func (w *World) AddStaticBox(center, halfExtents mgl64.Vec3) *StaticObject {
	s := &StaticObject{
		object: newObject(collision.NewBoxShape(halfExtents), collision.Translation(center), collision.StaticFilter),
	}
	w.statics = append(w.statics, s)
	w.add(s)
	return s
}

func (w *World) AddRigidBody(shape *collision.CapsuleShape, t collision.Transform, filter collision.Filter) *RigidBody {
	b := &RigidBody{
		object:        newObject(shape, t, filter),
		capsule:       shape,
		gravity:       w.gravity,
		angularFactor: mgl64.Vec3{1, 1, 1},
		friction:      0.5,
	}
	w.bodies = append(w.bodies, b)
	w.add(b)
	return b
}

func (w *World) AddGhost(shape *collision.CapsuleShape, t collision.Transform, filter collision.Filter) *GhostObject {
	g := &GhostObject{
		object: newObject(shape, t, filter),
		world:  w,
		pairs:  collision.NewHashedPairCache(),
	}
	w.ghosts = append(w.ghosts, g)
	w.add(g)
	return g
}

func (w *World) add(o collision.Object) {
	w.objects = append(w.objects, o)
	w.log.Debug("collision object added", "handle", o.Handle(), "filter_group", o.Filter().Group)
}

func (w *World) RemoveObject(o collision.Object) {
	w.objects = removeObject(w.objects, o)
	w.statics = removeObject(w.statics, o)
	w.bodies = removeObject(w.bodies, o)
	w.ghosts = removeObject(w.ghosts, o)
	delete(w.proxies, o.Handle())
	for _, g := range w.ghosts {
		g.pairs.RemovePair(g, o, w.dispatcher)
	}
}

func removeObject[T collision.Object](list []T, o collision.Object) []T {
	for i, item := range list {
		if collision.SameObject(item, o) {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func (w *World) AddAction(a collision.Action) {
	w.actions = append(w.actions, a)
}

func (w *World) RemoveAction(a collision.Action) {
	for i, existing := range w.actions {
		if existing == a {
			w.actions = append(w.actions[:i], w.actions[i+1:]...)
			return
		}
	}
}

func (w *World) Broadphase() collision.Broadphase {
	return w.broadphase
}

func (w *World) Dispatcher() collision.Dispatcher {
	return w.dispatcher
}

func (w *World) DispatchInfo() collision.DispatchInfo {
	return w.info
}

// bounds is the broadphase view of o: the box last registered for it, or its
// current shape bounds.
func (w *World) bounds(o collision.Object) AABB {
	if box, ok := w.proxies[o.Handle()]; ok {
		return box
	}
	return shapeBounds(o)
}

func shapeBounds(o collision.Object) AABB {
	lo, hi := o.Shape().Aabb(o.WorldTransform())
	return AABB{Min: lo, Max: hi}
}

func (w *World) ContactTest(obj collision.Object, filter collision.Filter, cb collision.ContactCallback) {
	capsule, ok := obj.Shape().(*collision.CapsuleShape)
	if !ok {
		return
	}
	center := obj.WorldTransform().Origin

	for _, other := range w.objects {
		if collision.SameObject(other, obj) || !filter.Accepts(other.Filter()) {
			continue
		}
		cp := capsuleBoxContact(center, capsule, shapeBounds(other))
		if cp.Distance <= ContactBreakingThreshold {
			cb.AddSingleResult(cp, obj, other)
		}
	}
}

func (w *World) ConvexSweepTest(
	shape collision.ConvexShape,
	from, to collision.Transform,
	cb collision.ConvexResultCallback,
	allowedPenetration float64,
) collision.SweepResult {
	return sweep(w.objects, shape, from, to, cb, allowedPenetration)
}

func (w *World) RayTest(from, to mgl64.Vec3, filter collision.Filter) collision.RayResult {
	best := collision.NoRayHit()
	for _, o := range w.objects {
		if !filter.Accepts(o.Filter()) {
			continue
		}
		fraction, normal, ok := shapeBounds(o).RayIntersect(from, to)
		if !ok || (best.HasHit && fraction >= best.HitFraction) {
			continue
		}
		best = collision.RayResult{
			HasHit:         true,
			HitFraction:    fraction,
			HitPointWorld:  from.Add(to.Sub(from).Mul(fraction)),
			HitNormalWorld: normal,
			Object:         o,
		}
	}
	return best
}

// sweep moves the shape's bounds centre along from→to against each
// candidate's box grown by those bounds. A sweep that starts inside a box only
// hits when it heads deeper than allowedPenetration.
func sweep(
	candidates []collision.Object,
	shape collision.ConvexShape,
	from, to collision.Transform,
	cb collision.ConvexResultCallback,
	allowedPenetration float64,
) collision.SweepResult {
	lo, hi := shape.Aabb(collision.Identity())
	half := hi.Sub(lo).Mul(0.5)
	start := from.Origin
	end := to.Origin
	dir := end.Sub(start)

	best := collision.NoSweepHit()
	for _, o := range candidates {
		if !cb.Filter().Accepts(o.Filter()) {
			continue
		}
		box := shapeBounds(o).Inflate(half)

		fraction, normal, ok := box.RayIntersect(start, end)
		if !ok && box.ContainsStrict(start) {
			n, depth := box.exitFace(start, start)
			if dir.Dot(n) < -CollisionAxisTolerance && depth > allowedPenetration {
				fraction, normal, ok = 0, n, true
			}
		}
		if !ok || (best.HasHit && fraction >= best.HitFraction) {
			continue
		}

		center := start.Add(dir.Mul(fraction))
		hit := collision.ConvexHit{
			Object:         o,
			HitFraction:    fraction,
			HitNormalWorld: normal,
			HitPointWorld:  center.Sub(mulComponents(normal, half)),
		}
		if !cb.Accept(hit) {
			continue
		}
		best = collision.SweepResult{
			HasHit:         true,
			HitFraction:    hit.HitFraction,
			HitNormalWorld: hit.HitNormalWorld,
			HitPointWorld:  hit.HitPointWorld,
			Object:         o,
		}
	}
	return best
}

func mulComponents(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

type broadphase struct {
	world *World
}

// SetAabb registers new bounds for h. Ghost objects refresh their pair cache
// against everything their filter accepts.
func (b *broadphase) SetAabb(h collision.Handle, min, max mgl64.Vec3, _ collision.Dispatcher) {
	w := b.world
	w.proxies[h] = AABB{Min: min, Max: max}
	for _, g := range w.ghosts {
		if g.handle == h {
			w.refreshPairs(g)
			return
		}
	}
}

func (w *World) refreshPairs(g *GhostObject) {
	own := w.bounds(g)
	for _, o := range w.objects {
		if collision.SameObject(o, g) {
			continue
		}
		overlapping := g.filter.Accepts(o.Filter()) && own.Overlaps(w.bounds(o), ContactBreakingThreshold)
		_, cached := g.pairs.FindPair(g, o)
		switch {
		case overlapping && !cached:
			g.pairs.AddPair(g, o)
		case !overlapping && cached:
			g.pairs.RemovePair(g, o, w.dispatcher)
		}
	}
}

type dispatcher struct{}

// DispatchAllCollisionPairs rebuilds the manifold of every cached pair. The
// capsule side of a pair is always Body0.
func (d *dispatcher) DispatchAllCollisionPairs(cache collision.PairCache, _ collision.DispatchInfo, _ collision.Dispatcher) {
	for _, pair := range cache.Pairs() {
		a, b := pair.Proxy0, pair.Proxy1
		capsule, ok := a.Shape().(*collision.CapsuleShape)
		if !ok {
			a, b = b, a
			if capsule, ok = a.Shape().(*collision.CapsuleShape); !ok {
				pair.Manifolds = nil
				continue
			}
		}

		cp := capsuleBoxContact(a.WorldTransform().Origin, capsule, shapeBounds(b))
		if cp.Distance > ContactBreakingThreshold {
			pair.Manifolds = nil
			continue
		}
		pair.Manifolds = []*collision.Manifold{{
			Body0:  a,
			Body1:  b,
			Points: []collision.ManifoldPoint{cp},
		}}
	}
}
