package physics

import (
	"github.com/Versifine/locomotion/internal/collision"
	"github.com/go-gl/mathgl/mgl64"
)

type object struct {
	handle          collision.Handle
	transform       collision.Transform
	shape           collision.Shape
	filter          collision.Filter
	contactResponse bool
}

func newObject(shape collision.Shape, t collision.Transform, filter collision.Filter) object {
	return object{
		handle:          collision.NewHandle(),
		transform:       t,
		shape:           shape,
		filter:          filter,
		contactResponse: true,
	}
}

func (o *object) Handle() collision.Handle                { return o.handle }
func (o *object) WorldTransform() collision.Transform     { return o.transform }
func (o *object) SetWorldTransform(t collision.Transform) { o.transform = t }
func (o *object) HasContactResponse() bool                { return o.contactResponse }
func (o *object) SetContactResponse(v bool)               { o.contactResponse = v }
func (o *object) Filter() collision.Filter                { return o.filter }
func (o *object) Shape() collision.Shape                  { return o.shape }

// StaticObject is an immovable box.
type StaticObject struct {
	object
}

// RigidBody is a dynamic upright capsule. Rotation never affects its
// collision geometry.
type RigidBody struct {
	object
	capsule *collision.CapsuleShape

	velocity        mgl64.Vec3
	gravity         mgl64.Vec3
	angularFactor   mgl64.Vec3
	friction        float64
	rollingFriction float64
	linearSleep     float64
	angularSleep    float64
	idleTime        float64
	sleeping        bool
}

var _ collision.RigidBody = (*RigidBody)(nil)

func (b *RigidBody) LinearVelocity() mgl64.Vec3 {
	return b.velocity
}

func (b *RigidBody) SetLinearVelocity(v mgl64.Vec3) {
	b.velocity = v
	b.wake()
}

func (b *RigidBody) SetWorldTransform(t collision.Transform) {
	b.transform = t
	b.wake()
}

func (b *RigidBody) Gravity() mgl64.Vec3 {
	return b.gravity
}

func (b *RigidBody) SetGravity(g mgl64.Vec3) {
	b.gravity = g
}

func (b *RigidBody) SetSleepingThresholds(linear, angular float64) {
	b.linearSleep = linear
	b.angularSleep = angular
}

func (b *RigidBody) SetAngularFactor(f mgl64.Vec3) {
	b.angularFactor = f
}

func (b *RigidBody) AngularFactor() mgl64.Vec3 {
	return b.angularFactor
}

func (b *RigidBody) SetFriction(f float64) {
	b.friction = f
}

func (b *RigidBody) Friction() float64 {
	return b.friction
}

func (b *RigidBody) SetRollingFriction(f float64) {
	b.rollingFriction = f
}

func (b *RigidBody) Sleeping() bool {
	return b.sleeping
}

func (b *RigidBody) wake() {
	b.sleeping = false
	b.idleTime = 0
}

func (b *RigidBody) updateActivation(dt float64) {
	if b.linearSleep <= 0 || b.velocity.Len() >= b.linearSleep {
		b.idleTime = 0
		return
	}
	b.idleTime += dt
	if b.idleTime >= DeactivationTime {
		b.sleeping = true
		b.velocity = mgl64.Vec3{}
	}
}

// GhostObject is a capsule without dynamic response. It tracks every object
// its broadphase bounds overlap.
type GhostObject struct {
	object
	world *World
	pairs *collision.HashedPairCache
}

var _ collision.GhostObject = (*GhostObject)(nil)

func (g *GhostObject) OverlappingPairCache() collision.PairCache {
	return g.pairs
}

// ConvexSweepTest only considers objects near the swept volume.
func (g *GhostObject) ConvexSweepTest(
	shape collision.ConvexShape,
	from, to collision.Transform,
	cb collision.ConvexResultCallback,
	allowedPenetration float64,
) collision.SweepResult {
	min0, max0 := shape.Aabb(from)
	min1, max1 := shape.Aabb(to)
	swept := AABB{Min: min0, Max: max0}.Union(AABB{Min: min1, Max: max1})

	var candidates []collision.Object
	for _, o := range g.world.objects {
		if g.world.bounds(o).Overlaps(swept, ContactBreakingThreshold) {
			candidates = append(candidates, o)
		}
	}
	return sweep(candidates, shape, from, to, cb, allowedPenetration)
}
