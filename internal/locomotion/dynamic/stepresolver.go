package dynamic

import (
	"github.com/Versifine/locomotion/internal/collision"
	"github.com/Versifine/locomotion/internal/locomotion"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	minStepVelocitySqr = 0.001
	minStepRise        = 0.0001
)

// StepResolver decides whether a single contact is a step the character can
// climb and, if so, where its top surface is.
type StepResolver struct {
	IsStep       bool
	RealPosWorld mgl64.Vec3
	Dist         float64

	ctrl         *Controller
	world        collision.World
	stepPos      mgl64.Vec3
	stepDir      mgl64.Vec3
	originHeight float64
}

func newStepResolver(ctrl *Controller) *StepResolver {
	return &StepResolver{ctrl: ctrl}
}

func (r *StepResolver) Resolve(cp collision.ManifoldPoint) {
	r.stepPos = cp.PositionWorldOnB
	r.originHeight = r.ctrl.capsule.OriginHeight()

	t := r.ctrl.body.WorldTransform()
	r.IsStep = r.world != nil && r.checkPreconditions(t) && r.findRealPoint(t) && r.canFit(t)
	if r.IsStep {
		base := t.Origin
		base[1] -= r.originHeight
		r.Dist = base.Sub(r.RealPosWorld).Len()
	}
}

func (r *StepResolver) checkPreconditions(t collision.Transform) bool {
	velocity := r.ctrl.body.LinearVelocity()
	if velocity.LenSqr() < minStepVelocitySqr {
		return false
	}

	// The lowest capsule point stands in for the ground height.
	approximateHeight := r.stepPos.Y() - t.Origin.Y() + r.originHeight
	if approximateHeight >= r.ctrl.cfg.MaxStepHeight {
		return false
	}

	toLocal := t.Inverse()
	local := toLocal.Apply(r.stepPos)
	r.stepDir = locomotion.NormalizedOrZero(locomotion.Horizontal(local))
	moveDir := locomotion.NormalizedOrZero(locomotion.Horizontal(toLocal.ApplyNormal(velocity)))
	if r.stepDir == (mgl64.Vec3{}) || moveDir == (mgl64.Vec3{}) {
		return false
	}

	return r.stepDir.Dot(moveDir) >= r.ctrl.cfg.StepDirectionMinDot
}

// findRealPoint casts down through the band the character could climb, just
// past the contact, to find the actual height of the obstacle.
func (r *StepResolver) findRealPoint(t collision.Transform) bool {
	local := t.Inverse().Apply(r.stepPos)
	reach := locomotion.Horizontal(local).Len() + r.ctrl.cfg.StepSearchOvershoot

	minTarget := r.stepDir.Mul(reach)
	minTarget[1] -= r.originHeight
	maxTarget := minTarget
	maxTarget[1] += r.ctrl.cfg.MaxStepHeight + r.ctrl.cfg.StepSearchOvershoot

	from := t.Apply(maxTarget)
	to := t.Apply(minTarget)
	hit := r.world.RayTest(from, to, r.ctrl.cfg.StaticRaycast)
	if !hit.HasHit {
		return false
	}
	if 1-hit.HitFraction < minStepRise {
		// Level with the base, plain walking handles it.
		return false
	}

	r.RealPosWorld = hit.HitPointWorld
	return true
}

func (r *StepResolver) canFit(t collision.Transform) bool {
	horFrom := r.RealPosWorld
	horFrom[1] += r.originHeight
	horTo := horFrom.Add(t.ApplyNormal(r.stepDir).Mul(r.ctrl.capsule.Radius))

	vertFrom := r.RealPosWorld
	vertTo := horFrom
	vertTo[1] += r.originHeight

	if r.world.RayTest(vertFrom, vertTo, r.ctrl.cfg.StaticRaycast).HasHit {
		return false
	}
	return !r.world.RayTest(horFrom, horTo, r.ctrl.cfg.StaticRaycast).HasHit
}
