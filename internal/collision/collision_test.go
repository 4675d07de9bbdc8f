package collision

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubObject struct {
	handle Handle
}

func newStub() *stubObject                        { return &stubObject{handle: NewHandle()} }
func (s *stubObject) Handle() Handle              { return s.handle }
func (s *stubObject) WorldTransform() Transform   { return Identity() }
func (s *stubObject) SetWorldTransform(Transform) {}
func (s *stubObject) HasContactResponse() bool    { return true }
func (s *stubObject) Filter() Filter              { return DefaultFilter }
func (s *stubObject) Shape() Shape                { return nil }

func TestTransform_InverseRoundTrip(t *testing.T) {
	tr := Transform{
		Origin:   mgl64.Vec3{1, 2, 3},
		Rotation: mgl64.QuatRotate(math.Pi/3, mgl64.Vec3{0, 1, 0}),
	}
	p := mgl64.Vec3{0.5, -1, 4}

	back := tr.Inverse().Apply(tr.Apply(p))

	assert.True(t, back.Sub(p).Len() <= 1e-9, "got %v want %v", back, p)
}

func TestTransform_ZeroValueIsIdentity(t *testing.T) {
	var tr Transform
	p := mgl64.Vec3{1, 2, 3}

	assert.Equal(t, p, tr.Apply(p))
	assert.Equal(t, p, tr.ApplyNormal(p))
}

func TestFilter_Accepts(t *testing.T) {
	ray := Filter{Group: GroupDefault, Mask: GroupStatic}

	assert.True(t, ray.Accepts(StaticFilter))
	assert.False(t, ray.Accepts(CharacterFilter))
	assert.False(t, StaticFilter.Accepts(StaticFilter))
	assert.True(t, CharacterFilter.Accepts(StaticFilter))
}

func TestCapsuleShape_Aabb(t *testing.T) {
	c := NewCapsuleShape(0.5, 0.75)

	min, max := c.Aabb(Translation(mgl64.Vec3{1, 2, 3}))

	assert.True(t, min.Sub(mgl64.Vec3{0.5, 0.75, 2.5}).Len() <= 1e-9, "min %v", min)
	assert.True(t, max.Sub(mgl64.Vec3{1.5, 3.25, 3.5}).Len() <= 1e-9, "max %v", max)
	assert.Equal(t, DefaultMargin, c.Margin())
}

func TestHashedPairCache_AddFindRemove(t *testing.T) {
	cache := NewHashedPairCache()
	a, b, c := newStub(), newStub(), newStub()

	p := cache.AddPair(a, b)
	again := cache.AddPair(b, a)
	require.Same(t, p, again)
	cache.AddPair(a, c)
	require.Equal(t, 2, cache.NumPairs())

	found, ok := cache.FindPair(b, a)
	require.True(t, ok)
	assert.Same(t, p, found)

	cache.RemovePair(a, b, nil)
	_, ok = cache.FindPair(a, b)
	assert.False(t, ok)
	require.Equal(t, 1, cache.NumPairs())
	assert.True(t, SameObject(cache.Pairs()[0].Proxy1, c))
}

func TestHashedPairCache_DrainInInsertionOrder(t *testing.T) {
	cache := NewHashedPairCache()
	ghost := newStub()
	for i := 0; i < 5; i++ {
		cache.AddPair(ghost, newStub())
	}

	for cache.NumPairs() > 0 {
		first := cache.Pairs()[0]
		cache.RemovePair(first.Proxy0, first.Proxy1, nil)
	}

	assert.Empty(t, cache.Pairs())
}
