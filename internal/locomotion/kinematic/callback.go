package kinematic

import (
	"github.com/Versifine/locomotion/internal/collision"
	"github.com/go-gl/mathgl/mgl64"
)

// closestNotMe keeps the closest sweep hit that is not the proxy itself, has
// contact response and whose normal faces up enough.
type closestNotMe struct {
	me          collision.Object
	up          mgl64.Vec3
	minSlopeDot float64
}

func (c *closestNotMe) Filter() collision.Filter {
	return c.me.Filter()
}

func (c *closestNotMe) Accept(hit collision.ConvexHit) bool {
	if collision.SameObject(hit.Object, c.me) {
		return false
	}
	if !hit.Object.HasContactResponse() {
		return false
	}
	return c.up.Dot(hit.HitNormalWorld) >= c.minSlopeDot
}
