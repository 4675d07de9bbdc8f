package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultMargin is the collision margin given to convex shapes.
const DefaultMargin = 0.04

type Shape interface {
	Aabb(t Transform) (min, max mgl64.Vec3)
}

type ConvexShape interface {
	Shape
	Margin() float64
	SetMargin(m float64)
}

// CapsuleShape is a Y-aligned capsule. HalfHeight is half the length of the
// cylindrical part, so the total height is 2*(HalfHeight+Radius).
type CapsuleShape struct {
	Radius     float64
	HalfHeight float64
	margin     float64
}

func NewCapsuleShape(radius, halfHeight float64) *CapsuleShape {
	return &CapsuleShape{Radius: radius, HalfHeight: halfHeight, margin: DefaultMargin}
}

func (c *CapsuleShape) Margin() float64 {
	return c.margin
}

func (c *CapsuleShape) SetMargin(m float64) {
	c.margin = m
}

func (c *CapsuleShape) Aabb(t Transform) (mgl64.Vec3, mgl64.Vec3) {
	return rotatedAabb(t, mgl64.Vec3{c.Radius, c.HalfHeight + c.Radius, c.Radius})
}

// BoxShape is an oriented box given by its half extents.
type BoxShape struct {
	HalfExtents mgl64.Vec3
}

func NewBoxShape(halfExtents mgl64.Vec3) *BoxShape {
	return &BoxShape{HalfExtents: halfExtents}
}

func (b *BoxShape) Aabb(t Transform) (mgl64.Vec3, mgl64.Vec3) {
	return rotatedAabb(t, b.HalfExtents)
}

func rotatedAabb(t Transform, extents mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	basis := t.Basis()
	var half mgl64.Vec3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			half[row] += math.Abs(basis.At(row, col)) * extents[col]
		}
	}
	return t.Origin.Sub(half), t.Origin.Add(half)
}
