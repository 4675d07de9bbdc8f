// Package locomotion holds the capability contract shared by every character
// controller variant together with the small vector helpers they all use.
package locomotion

import (
	"fmt"
	"math"

	"github.com/Versifine/locomotion/internal/collision"
	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon guards normalisation of near-zero vectors.
const Epsilon = 1.1920929e-07

var (
	Up      = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec3{0, 0, 1}
)

// Capsule holds the immutable dimensions of a character's collision capsule.
type Capsule struct {
	Radius     float64
	HalfHeight float64
}

func CapsuleOf(shape *collision.CapsuleShape) Capsule {
	return Capsule{Radius: shape.Radius, HalfHeight: shape.HalfHeight}
}

// OriginHeight is the distance from the capsule's lowest point to its centre.
func (c Capsule) OriginHeight() float64 {
	return c.HalfHeight + c.Radius
}

// Controller is implemented by every locomotion strategy. UpdateAction is the
// per-tick hook; it runs PreStep followed by PlayerStep.
type Controller interface {
	collision.Action

	CanJump() bool
	OnGround() bool
	Jump()
	PlayerStep(w collision.World, dt float64)
	PreStep(w collision.World)
	Reset(w collision.World)
	SetWalkDirection(dir mgl64.Vec3)
	Warp(origin mgl64.Vec3)
	DebugDraw(d DebugDrawer)
}

// Stepper is implemented by controllers that climb steps over several ticks.
type Stepper interface {
	Stepping() bool
}

type DebugDrawer interface {
	DrawContactPoint(point, normal mgl64.Vec3, distance float64, lifeTime int, color mgl64.Vec3)
}

type Variant string

const (
	VariantDynamic         Variant = "dynamic"
	VariantKinematic       Variant = "kinematic"
	VariantKinematicSimple Variant = "kinematic-simple"
)

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantDynamic, VariantKinematic, VariantKinematicSimple:
		return v, nil
	case "":
		return VariantDynamic, nil
	default:
		return "", fmt.Errorf("unknown controller variant %q", s)
	}
}

// NormalizedOrZero returns v scaled to unit length, or the zero vector when v
// is too short to normalise.
func NormalizedOrZero(v mgl64.Vec3) mgl64.Vec3 {
	if v.Len() < Epsilon {
		return mgl64.Vec3{}
	}
	return v.Normalize()
}

// Horizontal drops the vertical component of v.
func Horizontal(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), 0, v.Z()}
}

func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// SafeSqrt clamps negative inputs to zero.
func SafeSqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}
