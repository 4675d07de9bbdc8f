package kinematic

import (
	"github.com/Versifine/locomotion/internal/collision"
	"github.com/go-gl/mathgl/mgl64"
)

type fakeObject struct {
	handle   collision.Handle
	response bool
}

func newFakeObject(response bool) *fakeObject {
	return &fakeObject{handle: collision.NewHandle(), response: response}
}

func (o *fakeObject) Handle() collision.Handle              { return o.handle }
func (o *fakeObject) WorldTransform() collision.Transform   { return collision.Identity() }
func (o *fakeObject) SetWorldTransform(collision.Transform) {}
func (o *fakeObject) HasContactResponse() bool              { return o.response }
func (o *fakeObject) Filter() collision.Filter              { return collision.StaticFilter }
func (o *fakeObject) Shape() collision.Shape                { return collision.NewBoxShape(mgl64.Vec3{1, 1, 1}) }

type sweepCall struct {
	from, to mgl64.Vec3
}

// fakeGhost records every sweep and answers it with hit, or a miss when hit
// is nil.
type fakeGhost struct {
	handle    collision.Handle
	transform collision.Transform
	shape     *collision.CapsuleShape
	pairs     *collision.HashedPairCache
	sweeps    []sweepCall
	hit       func(from, to mgl64.Vec3) collision.SweepResult
}

func newFakeGhost(origin mgl64.Vec3) *fakeGhost {
	return &fakeGhost{
		handle:    collision.NewHandle(),
		transform: collision.Translation(origin),
		shape:     collision.NewCapsuleShape(0.5, 0.5),
		pairs:     collision.NewHashedPairCache(),
	}
}

func (g *fakeGhost) Handle() collision.Handle                  { return g.handle }
func (g *fakeGhost) WorldTransform() collision.Transform       { return g.transform }
func (g *fakeGhost) SetWorldTransform(t collision.Transform)   { g.transform = t }
func (g *fakeGhost) HasContactResponse() bool                  { return true }
func (g *fakeGhost) Filter() collision.Filter                  { return collision.CharacterFilter }
func (g *fakeGhost) Shape() collision.Shape                    { return g.shape }
func (g *fakeGhost) OverlappingPairCache() collision.PairCache { return g.pairs }

func (g *fakeGhost) ConvexSweepTest(
	_ collision.ConvexShape,
	from, to collision.Transform,
	_ collision.ConvexResultCallback,
	_ float64,
) collision.SweepResult {
	g.sweeps = append(g.sweeps, sweepCall{from: from.Origin, to: to.Origin})
	if g.hit == nil {
		return collision.NoSweepHit()
	}
	return g.hit(from.Origin, to.Origin)
}

func (g *fakeGhost) horizontalSweeps() int {
	n := 0
	for _, s := range g.sweeps {
		if s.from.Y() == s.to.Y() {
			n++
		}
	}
	return n
}

// fakeWorld leaves every manifold as the test prepared it.
type fakeWorld struct {
	setAabbCalls int
}

func (w *fakeWorld) ContactTest(collision.Object, collision.Filter, collision.ContactCallback) {}

func (w *fakeWorld) ConvexSweepTest(
	collision.ConvexShape, collision.Transform, collision.Transform, collision.ConvexResultCallback, float64,
) collision.SweepResult {
	return collision.NoSweepHit()
}

func (w *fakeWorld) RayTest(mgl64.Vec3, mgl64.Vec3, collision.Filter) collision.RayResult {
	return collision.NoRayHit()
}

func (w *fakeWorld) Broadphase() collision.Broadphase { return w }
func (w *fakeWorld) Dispatcher() collision.Dispatcher { return w }

func (w *fakeWorld) DispatchInfo() collision.DispatchInfo {
	return collision.DispatchInfo{TimeStep: 1.0 / 60, AllowedCcdPenetration: 0.04}
}

func (w *fakeWorld) SetAabb(collision.Handle, mgl64.Vec3, mgl64.Vec3, collision.Dispatcher) {
	w.setAabbCalls++
}

func (w *fakeWorld) DispatchAllCollisionPairs(collision.PairCache, collision.DispatchInfo, collision.Dispatcher) {
}
