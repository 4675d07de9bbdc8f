package collision

import "github.com/go-gl/mathgl/mgl64"

// ManifoldPoint is one contact between object A and object B. NormalWorldOnB
// points from B towards A; a negative Distance is a penetration depth.
type ManifoldPoint struct {
	Distance         float64
	NormalWorldOnB   mgl64.Vec3
	PositionWorldOnA mgl64.Vec3
	PositionWorldOnB mgl64.Vec3
}

type ContactCallback interface {
	AddSingleResult(cp ManifoldPoint, obj0, obj1 Object)
}

type ContactCallbackFunc func(cp ManifoldPoint, obj0, obj1 Object)

func (f ContactCallbackFunc) AddSingleResult(cp ManifoldPoint, obj0, obj1 Object) {
	f(cp, obj0, obj1)
}

// ConvexHit is a candidate hit offered to a ConvexResultCallback during a sweep.
type ConvexHit struct {
	Object         Object
	HitFraction    float64
	HitNormalWorld mgl64.Vec3
	HitPointWorld  mgl64.Vec3
}

// ConvexResultCallback selects which sweep hits count. The world keeps the
// closest accepted hit.
type ConvexResultCallback interface {
	Filter() Filter
	Accept(hit ConvexHit) bool
}

// ClosestConvexResult accepts every hit that passes its filter.
type ClosestConvexResult struct {
	CollisionFilter Filter
}

func (c ClosestConvexResult) Filter() Filter {
	return c.CollisionFilter
}

func (c ClosestConvexResult) Accept(ConvexHit) bool {
	return true
}

type SweepResult struct {
	HasHit         bool
	HitFraction    float64
	HitNormalWorld mgl64.Vec3
	HitPointWorld  mgl64.Vec3
	Object         Object
}

// NoSweepHit is the result of a sweep that reached its end transform.
func NoSweepHit() SweepResult {
	return SweepResult{HitFraction: 1}
}

type RayResult struct {
	HasHit         bool
	HitFraction    float64
	HitPointWorld  mgl64.Vec3
	HitNormalWorld mgl64.Vec3
	Object         Object
}

func NoRayHit() RayResult {
	return RayResult{HitFraction: 1}
}
