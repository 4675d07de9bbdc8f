// Package collision defines the query boundary between character controllers
// and a collision engine. Controllers only ever talk to a World; any engine
// backend that can answer contact, sweep and ray queries can drive them.
package collision

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Handle identifies a collision object inside a world.
type Handle uuid.UUID

func NewHandle() Handle {
	return Handle(uuid.New())
}

func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// Collision filter groups, matching the usual broadphase conventions.
const (
	GroupDefault   uint16 = 1
	GroupStatic    uint16 = 2
	GroupKinematic uint16 = 4
	GroupDebris    uint16 = 8
	GroupSensor    uint16 = 16
	GroupCharacter uint16 = 32
	GroupAll       uint16 = 0xFFFF
)

type Filter struct {
	Group uint16 `yaml:"group"`
	Mask  uint16 `yaml:"mask"`
}

var (
	DefaultFilter   = Filter{Group: GroupDefault, Mask: GroupAll}
	StaticFilter    = Filter{Group: GroupStatic, Mask: GroupAll ^ GroupStatic}
	CharacterFilter = Filter{Group: GroupCharacter, Mask: GroupAll}
)

// Accepts reports whether two filters allow their owners to collide.
func (f Filter) Accepts(other Filter) bool {
	return f.Group&other.Mask != 0 && other.Group&f.Mask != 0
}

type Object interface {
	Handle() Handle
	WorldTransform() Transform
	SetWorldTransform(t Transform)
	HasContactResponse() bool
	Filter() Filter
	Shape() Shape
}

type RigidBody interface {
	Object
	LinearVelocity() mgl64.Vec3
	SetLinearVelocity(v mgl64.Vec3)
	Gravity() mgl64.Vec3
	SetGravity(g mgl64.Vec3)
	SetSleepingThresholds(linear, angular float64)
	SetAngularFactor(f mgl64.Vec3)
	SetFriction(f float64)
	SetRollingFriction(f float64)
}

// GhostObject is a collision presence without dynamic response that keeps
// track of every object its bounds overlap.
type GhostObject interface {
	Object
	OverlappingPairCache() PairCache
	ConvexSweepTest(shape ConvexShape, from, to Transform, cb ConvexResultCallback, allowedPenetration float64) SweepResult
}

type Broadphase interface {
	SetAabb(h Handle, min, max mgl64.Vec3, d Dispatcher)
}

type Dispatcher interface {
	DispatchAllCollisionPairs(cache PairCache, info DispatchInfo, d Dispatcher)
}

type DispatchInfo struct {
	TimeStep              float64
	AllowedCcdPenetration float64
}

// World is the synchronous query surface consumed by the controllers. No
// query ever fails: misses are reported through the result values.
type World interface {
	ContactTest(obj Object, filter Filter, cb ContactCallback)
	ConvexSweepTest(shape ConvexShape, from, to Transform, cb ConvexResultCallback, allowedPenetration float64) SweepResult
	RayTest(from, to mgl64.Vec3, filter Filter) RayResult
	Broadphase() Broadphase
	Dispatcher() Dispatcher
	DispatchInfo() DispatchInfo
}

// Action is invoked once per simulation step by the host loop.
type Action interface {
	UpdateAction(w World, dt float64)
}

// SameObject compares two objects by handle; nil never matches.
func SameObject(a, b Object) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Handle() == b.Handle()
}
