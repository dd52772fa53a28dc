package cm3

// BroadphasePair is an overlapping pair of proxies. Proxy0 always has the lower
// uid. Algorithm is created lazily by the dispatcher and cached with the pair.
type BroadphasePair struct {
	Proxy0, Proxy1 *BroadphaseProxy
	Algorithm      CollisionAlgorithm

	index int
}

type pairKey struct {
	uid0, uid1 int
}

func orderedProxies(proxy0, proxy1 *BroadphaseProxy) (*BroadphaseProxy, *BroadphaseProxy) {
	if proxy0.uid > proxy1.uid {
		return proxy1, proxy0
	}
	return proxy0, proxy1
}

// OverlapFilterFunc decides whether two proxies may form a pair.
type OverlapFilterFunc func(proxy0, proxy1 *BroadphaseProxy) bool

// OverlappingPairCallback is told about every pair added to or removed from a
// cache. Ghost objects use it to mirror the pairs they take part in.
type OverlappingPairCallback interface {
	AddOverlappingPair(proxy0, proxy1 *BroadphaseProxy) *BroadphasePair
	RemoveOverlappingPair(proxy0, proxy1 *BroadphaseProxy, dispatcher *Dispatcher)
	RemoveOverlappingPairsContainingProxy(proxy *BroadphaseProxy, dispatcher *Dispatcher)
}

// OverlappingPairCache stores the pairs reported by a broad phase.
type OverlappingPairCache interface {
	OverlappingPairCallback

	FindPair(proxy0, proxy1 *BroadphaseProxy) *BroadphasePair
	Pairs() []*BroadphasePair
	NumOverlappingPairs() int
	// ProcessAllOverlappingPairs calls f for every pair. Pairs for which f
	// returns true are removed.
	ProcessAllOverlappingPairs(f func(pair *BroadphasePair) bool, dispatcher *Dispatcher)
	// CleanOverlappingPair destroys the algorithm of the pair.
	CleanOverlappingPair(pair *BroadphasePair, dispatcher *Dispatcher)
	// CleanProxyFromPairs destroys the algorithms of every pair of proxy.
	CleanProxyFromPairs(proxy *BroadphaseProxy, dispatcher *Dispatcher)
	NeedsBroadphaseCollision(proxy0, proxy1 *BroadphaseProxy) bool
	SetOverlapFilter(f OverlapFilterFunc)
	SetInternalGhostPairCallback(cb OverlappingPairCallback)
}

// HashedPairCache keeps its pairs in a slice indexed by a map keyed on the
// ordered proxy uids. Removal swaps the last pair into the freed slot.
type HashedPairCache struct {
	pairs  []*BroadphasePair
	lookup map[pairKey]*BroadphasePair

	filter        OverlapFilterFunc
	ghostCallback OverlappingPairCallback
}

// NewHashedPairCache returns an empty cache filtering pairs with ShapeFilter.
func NewHashedPairCache() *HashedPairCache {
	return &HashedPairCache{
		lookup: make(map[pairKey]*BroadphasePair),
	}
}

func (c *HashedPairCache) SetOverlapFilter(f OverlapFilterFunc) {
	c.filter = f
}

func (c *HashedPairCache) SetInternalGhostPairCallback(cb OverlappingPairCallback) {
	c.ghostCallback = cb
}

// NeedsBroadphaseCollision runs the overlap filter, or the ShapeFilter test of
// the proxies when no filter is set.
func (c *HashedPairCache) NeedsBroadphaseCollision(proxy0, proxy1 *BroadphaseProxy) bool {
	if c.filter != nil {
		return c.filter(proxy0, proxy1)
	}
	return !proxy0.Filter.Reject(proxy1.Filter)
}

func (c *HashedPairCache) Pairs() []*BroadphasePair {
	return c.pairs
}

func (c *HashedPairCache) NumOverlappingPairs() int {
	return len(c.pairs)
}

func (c *HashedPairCache) FindPair(proxy0, proxy1 *BroadphaseProxy) *BroadphasePair {
	proxy0, proxy1 = orderedProxies(proxy0, proxy1)
	return c.lookup[pairKey{proxy0.uid, proxy1.uid}]
}

// AddOverlappingPair inserts the pair unless the filter rejects it. An existing
// pair is returned unchanged.
func (c *HashedPairCache) AddOverlappingPair(proxy0, proxy1 *BroadphaseProxy) *BroadphasePair {
	if !c.NeedsBroadphaseCollision(proxy0, proxy1) {
		return nil
	}
	proxy0, proxy1 = orderedProxies(proxy0, proxy1)
	key := pairKey{proxy0.uid, proxy1.uid}
	if pair, ok := c.lookup[key]; ok {
		return pair
	}

	pair := &BroadphasePair{Proxy0: proxy0, Proxy1: proxy1, index: len(c.pairs)}
	c.pairs = append(c.pairs, pair)
	c.lookup[key] = pair

	if c.ghostCallback != nil {
		c.ghostCallback.AddOverlappingPair(proxy0, proxy1)
	}
	return pair
}

// RemoveOverlappingPair removes the pair and destroys its algorithm.
func (c *HashedPairCache) RemoveOverlappingPair(proxy0, proxy1 *BroadphaseProxy, dispatcher *Dispatcher) {
	proxy0, proxy1 = orderedProxies(proxy0, proxy1)
	pair, ok := c.lookup[pairKey{proxy0.uid, proxy1.uid}]
	if !ok {
		return
	}
	c.CleanOverlappingPair(pair, dispatcher)
	if c.ghostCallback != nil {
		c.ghostCallback.RemoveOverlappingPair(proxy0, proxy1, dispatcher)
	}
	c.removePair(pair)
}

func (c *HashedPairCache) removePair(pair *BroadphasePair) {
	delete(c.lookup, pairKey{pair.Proxy0.uid, pair.Proxy1.uid})
	last := len(c.pairs) - 1
	if pair.index != last {
		moved := c.pairs[last]
		c.pairs[pair.index] = moved
		moved.index = pair.index
	}
	c.pairs[last] = nil
	c.pairs = c.pairs[:last]
	pair.index = -1
}

func (c *HashedPairCache) CleanOverlappingPair(pair *BroadphasePair, dispatcher *Dispatcher) {
	if pair.Algorithm != nil {
		pair.Algorithm.Destroy()
		if dispatcher != nil {
			dispatcher.FreeAlgorithm(pair.Algorithm)
		}
		pair.Algorithm = nil
	}
}

func (c *HashedPairCache) CleanProxyFromPairs(proxy *BroadphaseProxy, dispatcher *Dispatcher) {
	c.ProcessAllOverlappingPairs(func(pair *BroadphasePair) bool {
		if pair.Proxy0 == proxy || pair.Proxy1 == proxy {
			c.CleanOverlappingPair(pair, dispatcher)
		}
		return false
	}, dispatcher)
}

func (c *HashedPairCache) RemoveOverlappingPairsContainingProxy(proxy *BroadphaseProxy, dispatcher *Dispatcher) {
	c.ProcessAllOverlappingPairs(func(pair *BroadphasePair) bool {
		if pair.Proxy0 == proxy || pair.Proxy1 == proxy {
			c.CleanOverlappingPair(pair, dispatcher)
			return true
		}
		return false
	}, dispatcher)
}

// ProcessAllOverlappingPairs walks the pairs from the end so that a removal
// only moves pairs that were already visited.
func (c *HashedPairCache) ProcessAllOverlappingPairs(f func(pair *BroadphasePair) bool, dispatcher *Dispatcher) {
	for i := len(c.pairs) - 1; i >= 0; i-- {
		if i >= len(c.pairs) {
			continue
		}
		pair := c.pairs[i]
		if f(pair) {
			if c.ghostCallback != nil {
				c.ghostCallback.RemoveOverlappingPair(pair.Proxy0, pair.Proxy1, dispatcher)
			}
			c.CleanOverlappingPair(pair, dispatcher)
			c.removePair(pair)
		}
	}
}
