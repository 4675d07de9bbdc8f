package collision

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

type Manifold struct {
	Body0  Object
	Body1  Object
	Points []ManifoldPoint
}

type BroadphasePair struct {
	Proxy0    Object
	Proxy1    Object
	Manifolds []*Manifold
}

func (p *BroadphasePair) AllContactManifolds() []*Manifold {
	return p.Manifolds
}

func (p *BroadphasePair) matches(a, b Object) bool {
	return (SameObject(p.Proxy0, a) && SameObject(p.Proxy1, b)) ||
		(SameObject(p.Proxy0, b) && SameObject(p.Proxy1, a))
}

// PairCache holds the overlapping pairs found by the broadphase.
type PairCache interface {
	Pairs() []*BroadphasePair
	NumPairs() int
	AddPair(a, b Object) *BroadphasePair
	FindPair(a, b Object) (*BroadphasePair, bool)
	RemovePair(a, b Object, d Dispatcher)
}

// HashedPairCache stores pairs keyed by a hash of both handles. Enumeration
// follows insertion order so that queries stay deterministic.
type HashedPairCache struct {
	buckets map[uint64][]*BroadphasePair
	order   []*BroadphasePair
}

func NewHashedPairCache() *HashedPairCache {
	return &HashedPairCache{buckets: make(map[uint64][]*BroadphasePair)}
}

func pairKey(a, b Handle) uint64 {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	d := xxhash.New()
	_, _ = d.Write(a[:])
	_, _ = d.Write(b[:])
	return d.Sum64()
}

func (c *HashedPairCache) Pairs() []*BroadphasePair {
	out := make([]*BroadphasePair, len(c.order))
	copy(out, c.order)
	return out
}

func (c *HashedPairCache) NumPairs() int {
	return len(c.order)
}

func (c *HashedPairCache) FindPair(a, b Object) (*BroadphasePair, bool) {
	for _, p := range c.buckets[pairKey(a.Handle(), b.Handle())] {
		if p.matches(a, b) {
			return p, true
		}
	}
	return nil, false
}

func (c *HashedPairCache) AddPair(a, b Object) *BroadphasePair {
	if p, ok := c.FindPair(a, b); ok {
		return p
	}
	key := pairKey(a.Handle(), b.Handle())
	p := &BroadphasePair{Proxy0: a, Proxy1: b}
	c.buckets[key] = append(c.buckets[key], p)
	c.order = append(c.order, p)
	return p
}

func (c *HashedPairCache) RemovePair(a, b Object, _ Dispatcher) {
	key := pairKey(a.Handle(), b.Handle())
	bucket := c.buckets[key]
	for i, p := range bucket {
		if !p.matches(a, b) {
			continue
		}
		bucket = append(bucket[:i], bucket[i+1:]...)
		if len(bucket) == 0 {
			delete(c.buckets, key)
		} else {
			c.buckets[key] = bucket
		}
		for j, q := range c.order {
			if q == p {
				c.order = append(c.order[:j], c.order[j+1:]...)
				break
			}
		}
		p.Manifolds = nil
		return
	}
}
