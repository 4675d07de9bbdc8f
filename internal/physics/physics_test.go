package physics

import (
	"math"
	"testing"

	"github.com/Versifine/locomotion/internal/collision"
	"github.com/go-gl/mathgl/mgl64"
)

func approxEqual(t *testing.T, got, want, tol float64, field string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %.8f, want %.8f (tol=%.8f)", field, got, want, tol)
	}
}

func approxVec(t *testing.T, got, want mgl64.Vec3, tol float64, field string) {
	t.Helper()
	if got.Sub(want).Len() > tol {
		t.Fatalf("%s = %v, want %v (tol=%g)", field, got, want, tol)
	}
}

func newFloorWorld() (*World, *StaticObject) {
	w := NewWorld(DefaultGravity)
	floor := w.AddStaticBox(mgl64.Vec3{0, -0.5, 0}, mgl64.Vec3{10, 0.5, 10})
	return w, floor
}

func testCapsule() *collision.CapsuleShape {
	return collision.NewCapsuleShape(0.5, 0.5)
}

type recordingAction struct {
	body    *RigidBody
	heights []float64
}

func (a *recordingAction) UpdateAction(_ collision.World, _ float64) {
	a.heights = append(a.heights, a.body.WorldTransform().Origin.Y())
}

func TestStepSimulation_FreeFallOneTick(t *testing.T) {
	w := NewWorld(DefaultGravity)
	b := w.AddRigidBody(testCapsule(), collision.Translation(mgl64.Vec3{0, 10, 0}), collision.CharacterFilter)

	w.StepSimulation(0.1)

	approxEqual(t, b.LinearVelocity().Y(), -0.981, 1e-9, "velocity.y")
	approxEqual(t, b.WorldTransform().Origin.Y(), 9.9019, 1e-9, "position.y")
}

func TestStepSimulation_BodyRestsOnFloor(t *testing.T) {
	w, _ := newFloorWorld()
	b := w.AddRigidBody(testCapsule(), collision.Translation(mgl64.Vec3{0, 1, 0}), collision.CharacterFilter)

	for i := 0; i < 60; i++ {
		w.StepSimulation(DefaultTimeStep)
	}

	approxEqual(t, b.WorldTransform().Origin.Y(), 1.0, 1e-9, "position.y")
	approxEqual(t, b.LinearVelocity().Y(), 0, 1e-9, "velocity.y")
}

func TestStepSimulation_WallStopsHorizontalMovement(t *testing.T) {
	w := NewWorld(DefaultGravity)
	w.AddStaticBox(mgl64.Vec3{2, 1, 0}, mgl64.Vec3{0.5, 1, 5})
	b := w.AddRigidBody(testCapsule(), collision.Translation(mgl64.Vec3{0, 1, 0}), collision.CharacterFilter)
	b.SetGravity(mgl64.Vec3{})
	b.SetLinearVelocity(mgl64.Vec3{3, 0, 0})

	for i := 0; i < 60; i++ {
		w.StepSimulation(DefaultTimeStep)
	}

	approxEqual(t, b.WorldTransform().Origin.X(), 1.0, 1e-9, "position.x")
	approxEqual(t, b.LinearVelocity().X(), 0, 1e-9, "velocity.x")
}

func TestStepSimulation_BodyPushSeparatesCapsules(t *testing.T) {
	w := NewWorld(mgl64.Vec3{})
	a := w.AddRigidBody(testCapsule(), collision.Translation(mgl64.Vec3{0, 1, 0}), collision.CharacterFilter)
	b := w.AddRigidBody(testCapsule(), collision.Translation(mgl64.Vec3{0.5, 1, 0}), collision.CharacterFilter)

	w.StepSimulation(DefaultTimeStep)

	approxEqual(t, a.WorldTransform().Origin.X(), -bodyPushMaxPerBody, 1e-9, "a.x")
	approxEqual(t, b.WorldTransform().Origin.X(), 0.5+bodyPushMaxPerBody, 1e-9, "b.x")
}

func TestStepSimulation_ActionsRunAfterIntegration(t *testing.T) {
	w := NewWorld(DefaultGravity)
	b := w.AddRigidBody(testCapsule(), collision.Translation(mgl64.Vec3{0, 10, 0}), collision.CharacterFilter)
	action := &recordingAction{body: b}
	w.AddAction(action)

	w.StepSimulation(0.1)
	w.RemoveAction(action)
	w.StepSimulation(0.1)

	if len(action.heights) != 1 {
		t.Fatalf("action ran %d times, want 1", len(action.heights))
	}
	approxEqual(t, action.heights[0], 9.9019, 1e-9, "height seen by action")
}

func TestStepSimulation_SleepingBodyStopsIntegrating(t *testing.T) {
	w, _ := newFloorWorld()
	b := w.AddRigidBody(testCapsule(), collision.Translation(mgl64.Vec3{0, 1, 0}), collision.CharacterFilter)
	b.SetSleepingThresholds(0.8, 1.0)

	for i := 0; i < 150; i++ {
		w.StepSimulation(DefaultTimeStep)
	}
	if !b.Sleeping() {
		t.Fatalf("sleeping = false, want true after resting for %.1fs", DeactivationTime)
	}

	b.SetLinearVelocity(mgl64.Vec3{1, 0, 0})
	if b.Sleeping() {
		t.Fatalf("sleeping = true after velocity change, want false")
	}
}

func TestCapsuleBoxContact(t *testing.T) {
	box := AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 0, 1}}
	tests := []struct {
		name     string
		center   mgl64.Vec3
		distance float64
		normal   mgl64.Vec3
		onB      mgl64.Vec3
	}{
		{"above", mgl64.Vec3{0, 1.2, 0}, 0.2, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 0}},
		{"beside", mgl64.Vec3{1.3, 0, 0}, -0.2, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, -0.5, 0}},
		{"sunk", mgl64.Vec3{0, 0.2, 0}, -0.8, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := capsuleBoxContact(tt.center, testCapsule(), box)
			approxEqual(t, cp.Distance, tt.distance, 1e-9, "distance")
			approxVec(t, cp.NormalWorldOnB, tt.normal, 1e-9, "normal")
			approxVec(t, cp.PositionWorldOnB, tt.onB, 1e-9, "position on B")
			approxVec(t, cp.PositionWorldOnA, cp.PositionWorldOnB.Add(cp.NormalWorldOnB.Mul(cp.Distance)), 1e-9, "position on A")
		})
	}
}

func TestAABB_RayIntersect(t *testing.T) {
	box := AABB{Max: mgl64.Vec3{1, 1, 1}}
	tests := []struct {
		name     string
		from, to mgl64.Vec3
		hit      bool
		fraction float64
		normal   mgl64.Vec3
	}{
		{"from outside", mgl64.Vec3{-1, 0.5, 0.5}, mgl64.Vec3{2, 0.5, 0.5}, true, 1.0 / 3.0, mgl64.Vec3{-1, 0, 0}},
		{"from above", mgl64.Vec3{0.5, 3, 0.5}, mgl64.Vec3{0.5, -1, 0.5}, true, 0.5, mgl64.Vec3{0, 1, 0}},
		{"starts inside", mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{2, 0.5, 0.5}, false, 0, mgl64.Vec3{}},
		{"grazes top face", mgl64.Vec3{-1, 1, 0.5}, mgl64.Vec3{2, 1, 0.5}, false, 0, mgl64.Vec3{}},
		{"too short", mgl64.Vec3{-1, 0.5, 0.5}, mgl64.Vec3{-0.5, 0.5, 0.5}, false, 0, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fraction, normal, ok := box.RayIntersect(tt.from, tt.to)
			if ok != tt.hit {
				t.Fatalf("hit = %t, want %t", ok, tt.hit)
			}
			if !ok {
				return
			}
			approxEqual(t, fraction, tt.fraction, 1e-9, "fraction")
			approxVec(t, normal, tt.normal, 1e-9, "normal")
		})
	}
}

func TestRayTest_ReturnsClosestAcceptedHit(t *testing.T) {
	w, floor := newFloorWorld()
	w.AddStaticBox(mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{0.5, 0.5, 0.5})

	res := w.RayTest(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -5, 0}, collision.Filter{Group: collision.GroupDefault, Mask: collision.GroupStatic})
	if !res.HasHit {
		t.Fatalf("hasHit = false, want true")
	}
	approxEqual(t, res.HitPointWorld.Y(), 1.0, 1e-9, "hit.y")

	res = w.RayTest(mgl64.Vec3{3, 5, 0}, mgl64.Vec3{3, -5, 0}, collision.Filter{Group: collision.GroupDefault, Mask: collision.GroupStatic})
	if !res.HasHit || !collision.SameObject(res.Object, floor) {
		t.Fatalf("ray beside the block should hit the floor, got %+v", res)
	}

	res = w.RayTest(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -5, 0}, collision.Filter{Group: collision.GroupDefault, Mask: collision.GroupKinematic})
	if res.HasHit {
		t.Fatalf("filtered ray hit %v", res.Object.Handle())
	}
}

func TestConvexSweepTest_HitsFloor(t *testing.T) {
	w, _ := newFloorWorld()
	cb := collision.ClosestConvexResult{CollisionFilter: collision.DefaultFilter}

	res := w.ConvexSweepTest(testCapsule(),
		collision.Translation(mgl64.Vec3{0, 5, 0}),
		collision.Translation(mgl64.Vec3{0, -5, 0}),
		cb, 0)

	if !res.HasHit {
		t.Fatalf("hasHit = false, want true")
	}
	approxEqual(t, res.HitFraction, 0.4, 1e-9, "fraction")
	approxVec(t, res.HitNormalWorld, mgl64.Vec3{0, 1, 0}, 1e-9, "normal")
	approxVec(t, res.HitPointWorld, mgl64.Vec3{0, 0, 0}, 1e-9, "point")
}

func TestConvexSweepTest_StartingInside(t *testing.T) {
	w, _ := newFloorWorld()
	cb := collision.ClosestConvexResult{CollisionFilter: collision.DefaultFilter}
	start := collision.Translation(mgl64.Vec3{0, 0.5, 0})

	out := w.ConvexSweepTest(testCapsule(), start, collision.Translation(mgl64.Vec3{0, 3, 0}), cb, 0)
	if out.HasHit {
		t.Fatalf("sweep leaving the floor hit at %.4f", out.HitFraction)
	}

	in := w.ConvexSweepTest(testCapsule(), start, collision.Translation(mgl64.Vec3{0, -3, 0}), cb, 0)
	if !in.HasHit || in.HitFraction != 0 {
		t.Fatalf("sweep heading deeper = %+v, want hit at 0", in)
	}
}

func TestGhostObject_PairCacheAndManifolds(t *testing.T) {
	w, floor := newFloorWorld()
	shape := testCapsule()
	g := w.AddGhost(shape, collision.Translation(mgl64.Vec3{0, 0.9, 0}), collision.CharacterFilter)

	lo, hi := shape.Aabb(g.WorldTransform())
	w.Broadphase().SetAabb(g.Handle(), lo, hi, w.Dispatcher())

	cache := g.OverlappingPairCache()
	if cache.NumPairs() != 1 {
		t.Fatalf("pairs = %d, want 1", cache.NumPairs())
	}

	w.Dispatcher().DispatchAllCollisionPairs(cache, w.DispatchInfo(), w.Dispatcher())
	manifolds := cache.Pairs()[0].AllContactManifolds()
	if len(manifolds) != 1 || len(manifolds[0].Points) != 1 {
		t.Fatalf("manifolds = %+v, want one with one point", manifolds)
	}
	m := manifolds[0]
	if !collision.SameObject(m.Body0, g) || !collision.SameObject(m.Body1, floor) {
		t.Fatalf("manifold bodies not ordered ghost first")
	}
	approxEqual(t, m.Points[0].Distance, -0.1, 1e-9, "distance")
	approxVec(t, m.Points[0].NormalWorldOnB, mgl64.Vec3{0, 1, 0}, 1e-9, "normal")

	g.SetWorldTransform(collision.Translation(mgl64.Vec3{0, 5, 0}))
	lo, hi = shape.Aabb(g.WorldTransform())
	w.Broadphase().SetAabb(g.Handle(), lo, hi, w.Dispatcher())
	if cache.NumPairs() != 0 {
		t.Fatalf("pairs = %d after moving away, want 0", cache.NumPairs())
	}
}

func TestWorld_RemoveObjectDropsGhostPairs(t *testing.T) {
	w, floor := newFloorWorld()
	g := w.AddGhost(testCapsule(), collision.Translation(mgl64.Vec3{0, 1, 0}), collision.CharacterFilter)
	w.StepSimulation(DefaultTimeStep)
	if g.OverlappingPairCache().NumPairs() != 1 {
		t.Fatalf("pairs = %d, want 1", g.OverlappingPairCache().NumPairs())
	}

	w.RemoveObject(floor)

	if g.OverlappingPairCache().NumPairs() != 0 {
		t.Fatalf("pairs = %d after removal, want 0", g.OverlappingPairCache().NumPairs())
	}
	if len(w.Objects()) != 1 {
		t.Fatalf("objects = %d, want 1", len(w.Objects()))
	}
}
