// Package dynamic drives a simulated rigid-body capsule: it blends the body's
// velocity towards the requested speed, detects ground and steps from contact
// geometry, and lifts the body over low obstacles.
package dynamic

import (
	"log/slog"
	"math"

	"github.com/Versifine/locomotion/internal/collision"
	"github.com/Versifine/locomotion/internal/locomotion"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	idleSpeedSqr     = 0.0001
	minJumpDirSqr    = 0.001
	blendEpsilon     = 0.00001
	stepDrawLifetime = 1000
)

var stepDrawColor = mgl64.Vec3{0, 0.3, 1}

type Controller struct {
	cfg     Config
	body    collision.RigidBody
	capsule locomotion.Capsule
	gravity mgl64.Vec3
	log     *slog.Logger

	onGround          bool
	groundNormal      mgl64.Vec3
	targetSpeed       mgl64.Vec3
	isJumping         bool
	jumpDir           mgl64.Vec3
	stepping          bool
	steppingTo        mgl64.Vec3
	steppingInvNormal mgl64.Vec3

	detector *Detector
}

var _ locomotion.Controller = (*Controller)(nil)

// New takes ownership of body. The body's current gravity is restored
// whenever the character leaves the ground.
func New(body collision.RigidBody, shape *collision.CapsuleShape, cfg Config) *Controller {
	c := &Controller{
		cfg:     cfg,
		body:    body,
		capsule: locomotion.CapsuleOf(shape),
		gravity: body.Gravity(),
		log:     slog.Default(),
	}
	c.detector = newDetector(c)

	body.SetFriction(0)
	body.SetRollingFriction(0)
	c.setupBody()
	c.ResetStatus()
	return c
}

func (c *Controller) SetLogger(l *slog.Logger) {
	if l != nil {
		c.log = l
	}
}

func (c *Controller) setupBody() {
	c.body.SetSleepingThresholds(0, 0)
	c.body.SetAngularFactor(mgl64.Vec3{})
}

func (c *Controller) RigidBody() collision.RigidBody {
	return c.body
}

func (c *Controller) Capsule() locomotion.Capsule {
	return c.capsule
}

func (c *Controller) Config() Config {
	return c.cfg
}

func (c *Controller) Detector() *Detector {
	return c.detector
}

func (c *Controller) OnGround() bool {
	return c.onGround
}

func (c *Controller) CanJump() bool {
	return c.onGround
}

func (c *Controller) GroundNormal() mgl64.Vec3 {
	return c.groundNormal
}

func (c *Controller) Stepping() bool {
	return c.stepping
}

// SteppingTarget is the centre position the body is being lifted to.
func (c *Controller) SteppingTarget() (mgl64.Vec3, bool) {
	return c.steppingTo, c.stepping
}

func (c *Controller) JumpPending() bool {
	return c.isJumping
}

// SetTargetSpeed sets the desired velocity in the body's local frame.
func (c *Controller) SetTargetSpeed(v mgl64.Vec3) {
	c.targetSpeed = v
}

func (c *Controller) SetWalkDirection(dir mgl64.Vec3) {
	c.SetTargetSpeed(dir)
}

func (c *Controller) SetJumpSpeed(speed float64) {
	c.cfg.JumpSpeed = speed
}

func (c *Controller) ResetStatus() {
	c.targetSpeed = mgl64.Vec3{}
	c.isJumping = false
	c.onGround = false
	c.body.SetGravity(c.gravity)
	c.cancelStep()
}

func (c *Controller) Reset(collision.World) {
	c.ResetStatus()
}

func (c *Controller) Jump() {
	c.JumpToward(mgl64.Vec3{})
}

// JumpToward queues a jump along dir blended with world up. It is ignored
// while airborne.
func (c *Controller) JumpToward(dir mgl64.Vec3) {
	if !c.onGround {
		return
	}

	dir[1] = 0
	if dir.LenSqr() < minJumpDirSqr {
		dir = locomotion.Forward
	}
	c.jumpDir = dir.Add(locomotion.Up).Normalize()
	c.isJumping = true
}

func (c *Controller) Warp(origin mgl64.Vec3) {
	c.body.SetWorldTransform(c.body.WorldTransform().WithOrigin(origin))
	c.cancelStep()
}

func (c *Controller) UpdateAction(w collision.World, dt float64) {
	c.PreStep(w)
	c.PlayerStep(w, dt)
}

func (c *Controller) PreStep(w collision.World) {
	c.detector.Reset()
	c.detector.bind(w)
	w.ContactTest(c.body, c.cfg.StaticRaycast, c.detector)
	c.onGround = c.detector.HaveGround
	c.groundNormal = c.detector.GroundNormal
}

func (c *Controller) PlayerStep(_ collision.World, dt float64) {
	c.updateVelocity()

	if c.stepping || c.detector.HaveStep {
		if !c.stepping {
			c.steppingTo = c.detector.StepPoint
			c.steppingInvNormal = c.detector.InvNormal()
		}
		c.stepUp(dt)
	}

	// Zero gravity keeps the solver from sliding a grounded body down ramps.
	if c.onGround || c.stepping {
		c.body.SetGravity(mgl64.Vec3{})
	} else {
		c.body.SetGravity(c.gravity)
	}
}

func (c *Controller) updateVelocity() {
	t := c.body.WorldTransform()
	v := t.Inverse().ApplyNormal(c.body.LinearVelocity())

	switch {
	case c.targetSpeed.LenSqr() < idleSpeedSqr && c.onGround:
		v[0] *= c.cfg.SpeedDamping
		v[2] *= c.cfg.SpeedDamping
	case c.onGround || v.Y() > 0:
		velXZ := locomotion.Horizontal(v)
		moveXZ := locomotion.Horizontal(c.targetSpeed)
		delta := moveXZ.Sub(velXZ).Len()
		blend := math.Min(1, c.cfg.WalkAcceleration/(delta+blendEpsilon))
		velXZ = locomotion.Lerp(velXZ, moveXZ, blend)

		maxSqr := c.cfg.MaxLinearVelocity * c.cfg.MaxLinearVelocity
		if speedSqr := velXZ.LenSqr(); speedSqr > maxSqr {
			velXZ = velXZ.Mul(math.Sqrt(maxSqr / speedSqr))
		}
		v[0] = velXZ.X()
		v[2] = velXZ.Z()
	}

	if c.isJumping {
		v = v.Add(c.jumpDir.Mul(c.cfg.JumpSpeed))
		c.isJumping = false
		c.cancelStep()
	}

	c.body.SetLinearVelocity(t.ApplyNormal(v))
}

func (c *Controller) stepUp(dt float64) {
	t := c.body.WorldTransform()

	if !c.stepping {
		c.stepping = true
		c.steppingTo[1] += c.capsule.OriginHeight()
		c.log.Debug("step started", "target", c.steppingTo)
	}

	origin := t.Origin
	hor := origin.Sub(c.steppingTo).Dot(c.steppingInvNormal)

	stepDir := locomotion.NormalizedOrZero(locomotion.Horizontal(c.steppingTo.Sub(origin)))
	speed := stepDir.Dot(t.ApplyNormal(c.targetSpeed)) * c.cfg.SteppingSpeed

	if origin.Y() < c.steppingTo.Y() {
		origin[1] = math.Min(origin.Y()+speed*dt*2, c.steppingTo.Y())
	}
	dv := c.steppingTo.Y() - origin.Y()

	if dv <= -c.cfg.MaxStepHeight || c.targetSpeed.LenSqr() < idleSpeedSqr || speed <= 0 {
		c.cancelStep()
		return
	}

	if dv < c.capsule.Radius {
		dh := locomotion.SafeSqrt(dv * (2*c.capsule.Radius - dv))
		if dh < math.Abs(hor) {
			advance := math.Min(dh*locomotion.Sign(hor)-hor, speed*dt)
			origin = origin.Add(c.steppingInvNormal.Mul(advance))
		}
	}
	c.body.SetWorldTransform(t.WithOrigin(origin))
}

func (c *Controller) cancelStep() {
	if c.stepping {
		c.log.Debug("step finished", "position", c.body.WorldTransform().Origin)
	}
	c.stepping = false
}

func (c *Controller) DebugDraw(d locomotion.DebugDrawer) {
	if !c.stepping || d == nil {
		return
	}
	d.DrawContactPoint(c.steppingTo, locomotion.Forward, 0, stepDrawLifetime, stepDrawColor)
}
