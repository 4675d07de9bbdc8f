package kinematic

import (
	"testing"

	"github.com/Versifine/locomotion/internal/collision"
	"github.com/Versifine/locomotion/internal/physics"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimpleController(w *physics.World, origin mgl64.Vec3) *SimpleController {
	shape := collision.NewCapsuleShape(0.5, 0.5)
	ghost := w.AddGhost(shape, collision.Translation(origin), collision.CharacterFilter)
	return NewSimple(ghost, shape, DefaultConfig())
}

func TestSimpleController_LandsOnFloor(t *testing.T) {
	w := newWorld(true)
	c := newSimpleController(w, mgl64.Vec3{0, 2, 0})

	c.UpdateAction(w, tick)
	require.False(t, c.OnGround())

	for i := 0; i < 120; i++ {
		c.UpdateAction(w, tick)
	}

	assert.True(t, c.OnGround())
	assert.Equal(t, 0.0, c.VerticalVelocity())
	assert.InDelta(t, 1.0, origin(c).Y(), 1e-9)
}

func TestSimpleController_WalksOnFloor(t *testing.T) {
	w := newWorld(true)
	c := newSimpleController(w, mgl64.Vec3{0, 1, 0})
	c.SetWalkDirection(mgl64.Vec3{3, 0, 0})

	for i := 0; i < 30; i++ {
		c.UpdateAction(w, tick)
		require.True(t, c.OnGround(), "tick %d", i)
	}

	pos := origin(c)
	assert.InDelta(t, 1.5, pos.X(), 1e-9)
	assert.Equal(t, 1.0, pos.Y())
}

func TestSimpleController_SlidesAlongWall(t *testing.T) {
	w := newWorld(true)
	w.AddStaticBox(mgl64.Vec3{3, 1, 0}, mgl64.Vec3{2, 1, 5})
	c := newSimpleController(w, mgl64.Vec3{0.46875, 1, 0})
	c.SetWalkDirection(mgl64.Vec3{0.5, 0, 0.5})

	const dt = 0.125
	for i := 0; i < 4; i++ {
		c.UpdateAction(w, dt)
	}

	pos := origin(c)
	assert.InDelta(t, 0.5, pos.X(), 1e-12)
	assert.InDelta(t, 1.0, pos.Y(), 1e-12)
	assert.InDelta(t, 0.25, pos.Z(), 1e-12)
}

func TestSimpleController_Jump(t *testing.T) {
	w := newWorld(true)
	c := newSimpleController(w, mgl64.Vec3{0, 5, 0})

	c.Jump()
	assert.Equal(t, 0.0, c.VerticalVelocity(), "airborne jump")

	for i := 0; i < 120; i++ {
		c.UpdateAction(w, tick)
	}
	require.True(t, c.CanJump())

	c.Jump()
	assert.Equal(t, 10.0, c.VerticalVelocity())
	assert.False(t, c.OnGround())

	before := origin(c).Y()
	c.UpdateAction(w, tick)
	assert.Greater(t, origin(c).Y(), before)
}

func TestSimpleController_ClampsVerticalVelocity(t *testing.T) {
	w := newWorld(false)
	c := newSimpleController(w, mgl64.Vec3{0, 1000, 0})
	c.cfg.FallSpeed = 1

	for i := 0; i < 10; i++ {
		c.UpdateAction(w, tick)
	}

	assert.Equal(t, -1.0, c.VerticalVelocity())
	assert.InDelta(t, 1000-(0.49+0.98+8)*tick, origin(c).Y(), 1e-9)
}

func TestSimpleController_ResetAndWarp(t *testing.T) {
	w := newWorld(true)
	c := newSimpleController(w, mgl64.Vec3{0, 1, 0})
	c.SetWalkDirection(mgl64.Vec3{1, 0, 0})
	c.UpdateAction(w, tick)
	require.Positive(t, c.Ghost().OverlappingPairCache().NumPairs())

	c.Reset(w)
	assert.Equal(t, 0, c.Ghost().OverlappingPairCache().NumPairs())
	assert.Equal(t, mgl64.Vec3{}, c.walkDirection)
	assert.False(t, c.OnGround())

	c.Warp(mgl64.Vec3{2, 3, 4})
	assert.Equal(t, collision.Translation(mgl64.Vec3{2, 3, 4}), c.Ghost().WorldTransform())
}
