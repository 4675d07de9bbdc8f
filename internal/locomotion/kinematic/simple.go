package kinematic

import (
	"math"

	"github.com/Versifine/locomotion/internal/collision"
	"github.com/Versifine/locomotion/internal/locomotion"
	"github.com/go-gl/mathgl/mgl64"
)

const maxSlideIterations = 10

// SimpleController integrates vertical velocity directly and resolves the
// whole tick's displacement with a single sweep-and-slide loop.
type SimpleController struct {
	proxy
	cfg         Config
	maxSlopeCos float64

	walkDirection mgl64.Vec3
	onGround      bool
}

var _ locomotion.Controller = (*SimpleController)(nil)

func NewSimple(ghost collision.GhostObject, shape collision.ConvexShape, cfg Config) *SimpleController {
	return &SimpleController{
		proxy:       newProxy(ghost, shape, cfg.UseGhostSweepTest),
		cfg:         cfg,
		maxSlopeCos: math.Cos(mgl64.DegToRad(cfg.MaxSlopeDegrees)),
	}
}

func (c *SimpleController) Config() Config {
	return c.cfg
}

func (c *SimpleController) SetWalkDirection(dir mgl64.Vec3) {
	c.walkDirection = dir
}

// OnGround reports whether the last slide landed on a walkable surface.
func (c *SimpleController) OnGround() bool {
	return c.onGround
}

func (c *SimpleController) CanJump() bool {
	return c.onGround
}

func (c *SimpleController) Jump() {
	if !c.onGround {
		return
	}
	c.verticalVelocity = c.cfg.JumpSpeed
	c.onGround = false
}

func (c *SimpleController) Reset(w collision.World) {
	c.verticalVelocity = 0
	c.onGround = false
	c.walkDirection = mgl64.Vec3{}
	c.drainPairs(w)
}

func (c *SimpleController) UpdateAction(w collision.World, dt float64) {
	c.PreStep(w)
	c.PlayerStep(w, dt)
}

func (c *SimpleController) PlayerStep(w collision.World, dt float64) {
	c.verticalVelocity -= c.cfg.Gravity * dt
	c.verticalVelocity = mgl64.Clamp(c.verticalVelocity, -math.Abs(c.cfg.FallSpeed), c.cfg.JumpSpeed)

	move := c.walkDirection.Mul(dt).Add(locomotion.Up.Mul(c.verticalVelocity * dt))
	landed := false
	allowed := w.DispatchInfo().AllowedCcdPenetration

	for i := 0; i < maxSlideIterations && move.LenSqr() > locomotion.Epsilon; i++ {
		c.target = c.current.Add(move)
		res := c.sweep(w, c.current, c.target, c.callback(move.Mul(-1), 0), allowed)
		if !res.HasHit {
			c.current = c.target
			break
		}

		c.current = locomotion.Lerp(c.current, c.target, res.HitFraction)
		n := res.HitNormalWorld
		if n.Dot(locomotion.Up) >= c.maxSlopeCos && c.verticalVelocity <= 0 {
			landed = true
			c.verticalVelocity = 0
		}

		remaining := move.Mul(1 - res.HitFraction)
		move = remaining.Sub(n.Mul(remaining.Dot(n)))
	}

	if landed && !c.onGround {
		c.log.Debug("landed", "position", c.current)
	}
	c.onGround = landed
	c.commit()
}

func (c *SimpleController) DebugDraw(locomotion.DebugDrawer) {}
