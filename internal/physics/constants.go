package physics

import "github.com/go-gl/mathgl/mgl64"

const (
	ContactBreakingThreshold = 0.02
	AllowedCcdPenetration    = 0.04
	CollisionAxisTolerance   = 1e-9
	DeactivationTime         = 2.0
	DefaultTimeStep          = 1.0 / 60.0

	maxPushOutIterations = 4
	bodyPushMaxPerBody   = 0.08
	bodyPushMaxPerTick   = 0.12
	bodyPushStrength     = 0.7
)

var DefaultGravity = mgl64.Vec3{0, -9.81, 0}
