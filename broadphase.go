package cm3

import "github.com/go-gl/mathgl/mgl64"

// BroadphaseProxy is the broad phase handle of a CollisionObject.
type BroadphaseProxy struct {
	ClientObject *CollisionObject
	Filter       ShapeFilter

	aabb  BB
	uid   int
	leaf  *Node[*BroadphaseProxy]
	moved bool
}

// Aabb returns the bounds last set on the proxy.
func (proxy *BroadphaseProxy) Aabb() BB {
	return proxy.aabb
}

// UID returns the identifier that orders the proxies of a pair.
func (proxy *BroadphaseProxy) UID() int {
	return proxy.uid
}

// Broadphase finds the pairs of proxies whose bounds overlap.
type Broadphase interface {
	CreateProxy(bb BB, client *CollisionObject, filter ShapeFilter, dispatcher *Dispatcher) *BroadphaseProxy
	DestroyProxy(proxy *BroadphaseProxy, dispatcher *Dispatcher)
	SetAabb(proxy *BroadphaseProxy, bb BB, dispatcher *Dispatcher)
	// CalculateOverlappingPairs adds the pairs of moved proxies and removes
	// pairs that stopped overlapping.
	CalculateOverlappingPairs(dispatcher *Dispatcher)
	// AabbQuery calls f for every proxy overlapping bb.
	AabbQuery(bb BB, f func(proxy *BroadphaseProxy))
	// SegmentQuery visits the proxies along from→to, nearest first. f returns
	// the new maximum fraction.
	SegmentQuery(from, to mgl64.Vec3, tExit float64, f func(proxy *BroadphaseProxy) float64) float64
	OverlappingPairCache() OverlappingPairCache
}

// TreeBroadphase keeps the proxies in a BBTree with fattened leaves.
type TreeBroadphase struct {
	tree    *BBTree[*BroadphaseProxy]
	pairs   OverlappingPairCache
	moved   []*BroadphaseProxy
	nextUID int
}

// NewTreeBroadphase returns a broad phase that stores its pairs in cache. A nil
// cache is replaced by a new HashedPairCache.
func NewTreeBroadphase(cache OverlappingPairCache) *TreeBroadphase {
	if cache == nil {
		cache = NewHashedPairCache()
	}
	return &TreeBroadphase{
		tree:    NewBBTree[*BroadphaseProxy](0.1),
		pairs:   cache,
		nextUID: 1,
	}
}

func (bp *TreeBroadphase) OverlappingPairCache() OverlappingPairCache {
	return bp.pairs
}

func (bp *TreeBroadphase) CreateProxy(bb BB, client *CollisionObject, filter ShapeFilter, dispatcher *Dispatcher) *BroadphaseProxy {
	proxy := &BroadphaseProxy{
		ClientObject: client,
		Filter:       filter,
		aabb:         bb,
		uid:          bp.nextUID,
	}
	bp.nextUID++
	proxy.leaf = bp.tree.Insert(proxy, bb)
	bp.markMoved(proxy)
	return proxy
}

func (bp *TreeBroadphase) DestroyProxy(proxy *BroadphaseProxy, dispatcher *Dispatcher) {
	bp.pairs.RemoveOverlappingPairsContainingProxy(proxy, dispatcher)
	if proxy.leaf != nil {
		bp.tree.Remove(proxy.leaf)
		proxy.leaf = nil
	}
	if proxy.moved {
		for i, p := range bp.moved {
			if p == proxy {
				bp.moved = append(bp.moved[:i], bp.moved[i+1:]...)
				break
			}
		}
		proxy.moved = false
	}
}

func (bp *TreeBroadphase) SetAabb(proxy *BroadphaseProxy, bb BB, dispatcher *Dispatcher) {
	proxy.aabb = bb
	bp.tree.Update(proxy.leaf, bb)
	bp.markMoved(proxy)
}

func (bp *TreeBroadphase) markMoved(proxy *BroadphaseProxy) {
	if !proxy.moved {
		proxy.moved = true
		bp.moved = append(bp.moved, proxy)
	}
}

func (bp *TreeBroadphase) CalculateOverlappingPairs(dispatcher *Dispatcher) {
	for _, proxy := range bp.moved {
		bp.tree.Query(proxy.aabb, func(other *BroadphaseProxy) {
			if other != proxy && proxy.aabb.Intersects(other.aabb) {
				bp.pairs.AddOverlappingPair(proxy, other)
			}
		})
		proxy.moved = false
	}
	bp.moved = bp.moved[:0]

	bp.pairs.ProcessAllOverlappingPairs(func(pair *BroadphasePair) bool {
		return !pair.Proxy0.aabb.Intersects(pair.Proxy1.aabb)
	}, dispatcher)
}

func (bp *TreeBroadphase) AabbQuery(bb BB, f func(proxy *BroadphaseProxy)) {
	bp.tree.Query(bb, func(proxy *BroadphaseProxy) {
		if bb.Intersects(proxy.aabb) {
			f(proxy)
		}
	})
}

func (bp *TreeBroadphase) SegmentQuery(from, to mgl64.Vec3, tExit float64, f func(proxy *BroadphaseProxy) float64) float64 {
	return bp.tree.SegmentQuery(from, to, tExit, f)
}
