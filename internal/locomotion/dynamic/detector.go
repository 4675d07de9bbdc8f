package dynamic

import (
	"math"

	"github.com/Versifine/locomotion/internal/collision"
	"github.com/Versifine/locomotion/internal/locomotion"
	"github.com/go-gl/mathgl/mgl64"
)

// Detector classifies the contacts of one contact test into standing ground
// and the closest climbable step. It must be Reset before every test.
type Detector struct {
	HaveGround   bool
	GroundPoint  mgl64.Vec3
	GroundNormal mgl64.Vec3
	HaveStep     bool
	StepPoint    mgl64.Vec3

	stepNormal mgl64.Vec3
	stepDist   float64
	ctrl       *Controller
	resolver   *StepResolver
}

func newDetector(ctrl *Controller) *Detector {
	return &Detector{
		ctrl:     ctrl,
		resolver: newStepResolver(ctrl),
	}
}

func (d *Detector) Reset() {
	d.HaveGround = false
	d.HaveStep = false
}

// bind points the step resolver at the world queried during this tick.
func (d *Detector) bind(w collision.World) {
	d.resolver.world = w
}

func (d *Detector) AddSingleResult(cp collision.ManifoldPoint, obj0, _ collision.Object) {
	if !collision.SameObject(obj0, d.ctrl.body) {
		return
	}

	d.checkGround(cp)

	d.resolver.Resolve(cp)
	if !d.resolver.IsStep {
		return
	}
	if !d.HaveStep || d.resolver.Dist < d.stepDist {
		d.StepPoint = d.resolver.RealPosWorld
		d.stepNormal = cp.NormalWorldOnB
		d.stepDist = d.resolver.Dist
	}
	d.HaveStep = true
}

func (d *Detector) checkGround(cp collision.ManifoldPoint) {
	if d.HaveGround {
		return
	}

	capsule := d.ctrl.capsule
	local := d.ctrl.body.WorldTransform().Inverse().Apply(cp.PositionWorldOnB)
	local[1] += capsule.HalfHeight

	r := local.Len()
	if r < locomotion.Epsilon {
		return
	}
	cosTheta := local.Y() / r

	if math.Abs(r-capsule.Radius) <= d.ctrl.cfg.GroundSearchMargin && cosTheta < d.ctrl.cfg.MaxCosGround {
		d.HaveGround = true
		d.GroundPoint = cp.PositionWorldOnB
		d.GroundNormal = cp.NormalWorldOnB
	}
}

// InvNormal returns the horizontal direction that leads into the current step,
// or the zero vector when there is no step or its normal is vertical.
func (d *Detector) InvNormal() mgl64.Vec3 {
	if !d.HaveStep {
		return mgl64.Vec3{}
	}

	tangent := d.stepNormal.Cross(locomotion.Up)
	if tangent.Len() < locomotion.Epsilon {
		return mgl64.Vec3{}
	}
	tangent = tangent.Normalize()
	forward := tangent.Cross(locomotion.Up)

	stepToWorld := mgl64.Mat3FromCols(tangent, locomotion.Up, forward)
	worldToStep := stepToWorld.Transpose()
	return worldToStep.Row(2)
}
