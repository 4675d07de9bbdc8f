package collision

import "github.com/go-gl/mathgl/mgl64"

// Transform is a rigid world transform: a rotation followed by a translation.
// The zero value is the identity.
type Transform struct {
	Origin   mgl64.Vec3
	Rotation mgl64.Quat
}

func Identity() Transform {
	return Transform{Rotation: mgl64.QuatIdent()}
}

func Translation(origin mgl64.Vec3) Transform {
	return Transform{Origin: origin, Rotation: mgl64.QuatIdent()}
}

func (t Transform) rotation() mgl64.Quat {
	if t.Rotation == (mgl64.Quat{}) {
		return mgl64.QuatIdent()
	}
	return t.Rotation
}

// Apply maps a point from local to world space.
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Origin.Add(t.rotation().Rotate(p))
}

// ApplyNormal maps a direction from local to world space, ignoring translation.
func (t Transform) ApplyNormal(v mgl64.Vec3) mgl64.Vec3 {
	return t.rotation().Rotate(v)
}

func (t Transform) Inverse() Transform {
	inv := t.rotation().Inverse()
	return Transform{
		Origin:   inv.Rotate(t.Origin.Mul(-1)),
		Rotation: inv,
	}
}

func (t Transform) Basis() mgl64.Mat3 {
	return t.rotation().Mat4().Mat3()
}

// WithOrigin returns a copy of t translated to origin.
func (t Transform) WithOrigin(origin mgl64.Vec3) Transform {
	t.Origin = origin
	return t
}
