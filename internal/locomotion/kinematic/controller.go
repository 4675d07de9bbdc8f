package kinematic

import (
	"math"

	"github.com/Versifine/locomotion/internal/collision"
	"github.com/Versifine/locomotion/internal/locomotion"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	maxStrafeIterations = 10
	minStrafeFraction   = 0.01
	stepUpMinSlopeDot   = 0.7071
)

// Controller runs the phased kinematic step: recover from penetration, step
// up, slide along obstacles, then step down to the ground or keep falling.
type Controller struct {
	proxy
	cfg         Config
	maxSlopeCos float64

	walkDirection        mgl64.Vec3
	normalizedDirection  mgl64.Vec3
	useWalkDirection     bool
	velocityTimeInterval float64

	verticalOffset    float64
	currentStepOffset float64
	wasOnGround       bool
	wasJumping        bool
	fullDrop          bool
	skipUpdate        bool
}

var _ locomotion.Controller = (*Controller)(nil)

func New(ghost collision.GhostObject, shape collision.ConvexShape, cfg Config) *Controller {
	c := &Controller{
		proxy:            newProxy(ghost, shape, cfg.UseGhostSweepTest),
		cfg:              cfg,
		useWalkDirection: true,
	}
	c.SetMaxSlope(mgl64.DegToRad(cfg.MaxSlopeDegrees))
	return c
}

func (c *Controller) Config() Config {
	return c.cfg
}

func (c *Controller) SetFallSpeed(v float64)     { c.cfg.FallSpeed = v }
func (c *Controller) SetJumpSpeed(v float64)     { c.cfg.JumpSpeed = v }
func (c *Controller) SetGravity(v float64)       { c.cfg.Gravity = v }
func (c *Controller) SetUpInterpolate(v bool)    { c.cfg.InterpolateUp = v }
func (c *Controller) SetBounceFix(v bool)        { c.cfg.BounceFix = v }
func (c *Controller) SetSkipUpdate(v bool)       { c.skipUpdate = v }
func (c *Controller) VerticalOffset() float64    { return c.verticalOffset }
func (c *Controller) FullDrop() bool             { return c.fullDrop }
func (c *Controller) CurrentStepOffset() float64 { return c.currentStepOffset }

// SetMaxSlope sets the steepest walkable slope in radians.
func (c *Controller) SetMaxSlope(radians float64) {
	c.cfg.MaxSlopeDegrees = mgl64.RadToDeg(radians)
	c.maxSlopeCos = math.Cos(radians)
}

func (c *Controller) MaxSlope() float64 {
	return mgl64.DegToRad(c.cfg.MaxSlopeDegrees)
}

// SetWalkDirection sets the world-space velocity applied every tick.
func (c *Controller) SetWalkDirection(dir mgl64.Vec3) {
	c.useWalkDirection = true
	c.walkDirection = dir
	c.normalizedDirection = locomotion.NormalizedOrZero(dir)
}

// SetVelocityForTimeInterval moves the proxy at velocity until interval
// seconds of simulation have elapsed.
func (c *Controller) SetVelocityForTimeInterval(velocity mgl64.Vec3, interval float64) {
	c.useWalkDirection = false
	c.walkDirection = velocity
	c.normalizedDirection = locomotion.NormalizedOrZero(velocity)
	c.velocityTimeInterval = interval
}

func (c *Controller) OnGround() bool {
	return c.verticalVelocity == 0 && c.verticalOffset == 0
}

func (c *Controller) CanJump() bool {
	return c.OnGround()
}

func (c *Controller) Jump() {
	if !c.CanJump() {
		return
	}
	c.verticalVelocity = c.cfg.JumpSpeed
	c.wasJumping = true
}

func (c *Controller) Reset(w collision.World) {
	c.verticalVelocity = 0
	c.verticalOffset = 0
	c.wasOnGround = false
	c.wasJumping = false
	c.walkDirection = mgl64.Vec3{}
	c.velocityTimeInterval = 0
	c.drainPairs(w)
}

func (c *Controller) UpdateAction(w collision.World, dt float64) {
	if c.skipUpdate {
		return
	}
	c.PreStep(w)
	c.PlayerStep(w, dt)
}

func (c *Controller) PlayerStep(w collision.World, dt float64) {
	if !c.useWalkDirection && c.velocityTimeInterval <= 0 {
		return
	}

	c.wasOnGround = c.OnGround()

	c.verticalVelocity -= c.cfg.Gravity * dt
	if c.verticalVelocity > 0 && c.verticalVelocity > c.cfg.JumpSpeed {
		c.verticalVelocity = c.cfg.JumpSpeed
	}
	if c.verticalVelocity < 0 && math.Abs(c.verticalVelocity) > math.Abs(c.cfg.FallSpeed) {
		c.verticalVelocity = -math.Abs(c.cfg.FallSpeed)
	}
	c.verticalOffset = c.verticalVelocity * dt

	c.stepUp(w)
	if c.useWalkDirection {
		c.stepForwardAndStrafe(w, c.walkDirection.Mul(dt))
	} else {
		moving := math.Min(dt, c.velocityTimeInterval)
		c.velocityTimeInterval -= dt
		c.stepForwardAndStrafe(w, c.walkDirection.Mul(moving))
	}
	c.stepDown(w, dt)

	c.commit()
}

func (c *Controller) stepUp(w collision.World) {
	c.target = c.current.Add(locomotion.Up.Mul(c.cfg.StepHeight + math.Max(c.verticalOffset, 0)))
	start := c.current.Add(locomotion.Up.Mul(c.shape.Margin() + c.cfg.AddedMargin))

	res := c.sweep(w, start, c.target, c.callback(locomotion.Up.Mul(-1), stepUpMinSlopeDot), 0)
	if !res.HasHit {
		c.currentStepOffset = c.cfg.StepHeight
		c.current = c.target
		return
	}

	c.currentStepOffset = 0
	if res.HitNormalWorld.Dot(locomotion.Up) > 0 {
		c.currentStepOffset = c.cfg.StepHeight * res.HitFraction
		if c.cfg.InterpolateUp {
			c.current = locomotion.Lerp(c.current, c.target, res.HitFraction)
		} else {
			c.current = c.target
		}
	}
	c.verticalVelocity = 0
	c.verticalOffset = 0
}

// slideTarget replaces the target with the part of the remaining movement that
// runs along the hit surface.
func (c *Controller) slideTarget(normal mgl64.Vec3, normalMag float64) {
	move := c.target.Sub(c.current)
	length := move.Len()
	if length <= locomotion.Epsilon {
		return
	}

	dir := move.Mul(1 / length)
	reflect := locomotion.NormalizedOrZero(dir.Sub(normal.Mul(2 * dir.Dot(normal))))
	perpendicular := reflect.Sub(normal.Mul(reflect.Dot(normal)))

	c.target = c.current
	if normalMag != 0 {
		c.target = c.target.Add(perpendicular.Mul(normalMag * length))
	}
}

func (c *Controller) stepForwardAndStrafe(w collision.World, walk mgl64.Vec3) {
	c.target = c.current.Add(walk)
	fraction := 1.0

	for i := 0; i < maxStrafeIterations && fraction > minStrafeFraction; i++ {
		cb := c.callback(c.current.Sub(c.target), 0)

		margin := c.shape.Margin()
		c.shape.SetMargin(margin + c.cfg.AddedMargin)
		res := c.sweep(w, c.current, c.target, cb, w.DispatchInfo().AllowedCcdPenetration)
		c.shape.SetMargin(margin)

		fraction -= res.HitFraction

		if !res.HasHit {
			c.current = c.target
			continue
		}

		c.slideTarget(res.HitNormalWorld, 1)
		remaining := c.target.Sub(c.current)
		if remaining.LenSqr() <= locomotion.Epsilon {
			break
		}
		// Moving against the intended direction means a concave corner.
		if remaining.Normalize().Dot(c.normalizedDirection) <= 0 {
			break
		}
	}
}

func (c *Controller) fallDistance(dt float64) float64 {
	return math.Max(-c.verticalVelocity, 0) * dt
}

func (c *Controller) stepDown(w collision.World, dt float64) {
	origTarget := c.target
	allowed := w.DispatchInfo().AllowedCcdPenetration

	downVelocity := c.fallDistance(dt)
	if downVelocity > c.cfg.FallSpeed && (c.wasOnGround || !c.wasJumping) {
		downVelocity = c.cfg.FallSpeed
	}
	stepDrop := locomotion.Up.Mul(c.currentStepOffset + downVelocity)
	c.target = c.target.Sub(stepDrop)

	cb := c.callback(locomotion.Up, c.maxSlopeCos)
	var first collision.SweepResult
	runOnce := false

	for {
		first = c.sweep(w, c.current, c.target, cb, allowed)
		secondHit := false
		if !first.HasHit {
			// A doubled drop tells a short fall apart from a real one.
			secondHit = c.sweep(w, c.current, c.target.Sub(stepDrop), cb, allowed).HasHit
		}

		hasHit := secondHit
		if c.cfg.BounceFix {
			hasHit = first.HasHit || secondHit
		}

		down := c.fallDistance(dt)
		if down > 0 && down < c.cfg.StepHeight && hasHit && !runOnce && (c.wasOnGround || !c.wasJumping) {
			c.target = origTarget.Sub(locomotion.Up.Mul(c.currentStepOffset + c.cfg.StepHeight))
			runOnce = true
			continue
		}
		break
	}

	if first.HasHit || runOnce {
		fraction := first.HitFraction
		if c.cfg.BounceFix && !c.fullDrop && first.HasHit {
			fraction = (c.current.Y() - first.HitPointWorld.Y()) / 2
		}
		c.current = locomotion.Lerp(c.current, c.target, fraction)

		if c.fullDrop {
			c.log.Debug("landed", "position", c.current)
		}
		c.fullDrop = false
		c.verticalVelocity = 0
		c.verticalOffset = 0
		c.wasJumping = false
		return
	}

	c.fullDrop = true
	if c.cfg.BounceFix {
		downVelocity = c.fallDistance(dt)
		if downVelocity > c.cfg.FallSpeed && (c.wasOnGround || !c.wasJumping) {
			c.target = c.target.Add(stepDrop)
			stepDrop = locomotion.Up.Mul(c.currentStepOffset + c.cfg.FallSpeed)
			c.target = c.target.Sub(stepDrop)
		}
	}
	c.current = c.target
}

// DebugDraw has nothing to show: the proxy carries no multi-tick target.
func (c *Controller) DebugDraw(locomotion.DebugDrawer) {}
