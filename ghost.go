package cm3

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// overlapTracker is implemented by ghost objects. The GhostPairCallback of a
// world forwards the pairs of the main cache to it.
type overlapTracker interface {
	addOverlappingObject(other, self *BroadphaseProxy)
	removeOverlappingObject(other, self *BroadphaseProxy, dispatcher *Dispatcher)
}

// GhostObject keeps the list of objects whose broad phase bounds overlap its
// own. It has no contact response. Queries against a ghost only visit the
// overlapping objects.
type GhostObject struct {
	*CollisionObject

	overlapping []*CollisionObject
}

// NewGhostObject returns a ghost with the given shape. Add it to a world with
// World.AddCollisionObject(ghost.CollisionObject, filter).
func NewGhostObject(shape CollisionShape) *GhostObject {
	g := &GhostObject{CollisionObject: NewCollisionObject(shape)}
	g.flags |= CollisionFlagNoContactResponse
	g.ghost = g
	return g
}

func (g *GhostObject) addOverlappingObject(other, self *BroadphaseProxy) {
	g.AddOverlappingObjectInternal(other.ClientObject)
}

func (g *GhostObject) removeOverlappingObject(other, self *BroadphaseProxy, dispatcher *Dispatcher) {
	g.RemoveOverlappingObjectInternal(other.ClientObject)
}

// AddOverlappingObjectInternal appends obj unless it is already tracked.
func (g *GhostObject) AddOverlappingObjectInternal(obj *CollisionObject) {
	if !slices.Contains(g.overlapping, obj) {
		g.overlapping = append(g.overlapping, obj)
	}
}

// RemoveOverlappingObjectInternal drops obj. The last tracked object takes its
// slot.
func (g *GhostObject) RemoveOverlappingObjectInternal(obj *CollisionObject) {
	i := slices.Index(g.overlapping, obj)
	if i < 0 {
		return
	}
	last := len(g.overlapping) - 1
	g.overlapping[i] = g.overlapping[last]
	g.overlapping[last] = nil
	g.overlapping = g.overlapping[:last]
}

// OverlappingObjects returns the tracked objects. The slice aliases ghost
// storage.
func (g *GhostObject) OverlappingObjects() []*CollisionObject {
	return g.overlapping
}

func (g *GhostObject) NumOverlappingObjects() int {
	return len(g.overlapping)
}

func (g *GhostObject) OverlappingObject(index int) *CollisionObject {
	return g.overlapping[index]
}

// RayTest casts the segment from→to against the overlapping objects only. A
// ghost outside a world reports nothing.
func (g *GhostObject) RayTest(from, to mgl64.Vec3, cb RayResultCallback) {
	if g.World == nil {
		return
	}
	rayFrom := NewTransformTranslate(from)
	rayTo := NewTransformTranslate(to)

	for _, obj := range g.overlapping {
		if cb.HitFraction() == 0 {
			return
		}
		if obj.broadphaseHandle == nil || !cb.NeedsCollision(obj.broadphaseHandle) {
			continue
		}
		g.World.RayTestSingle(rayFrom, rayTo, obj, obj.shape, obj.worldTransform, cb)
	}
}

// ConvexSweepTest sweeps castShape against the overlapping objects only. A
// ghost outside a world reports nothing.
func (g *GhostObject) ConvexSweepTest(castShape ConvexShape, from, to Transform, cb ConvexResultCallback, allowedPenetration float64) {
	if g.World == nil {
		return
	}
	linVel, angVel := CalculateVelocity(from, to, 1)
	castBB := temporalAabb(castShape, Transform{Basis: from.Basis}, linVel, angVel, 1)

	for _, obj := range g.overlapping {
		if cb.HitFraction() == 0 {
			return
		}
		if obj.broadphaseHandle == nil || !cb.NeedsCollision(obj.broadphaseHandle) {
			continue
		}
		bb := obj.shape.Aabb(obj.worldTransform).Minkowski(castBB)
		if _, _, ok := bb.RayHit(from.Origin, to.Origin, 1); ok {
			g.World.ObjectQuerySingle(castShape, from, to, obj, obj.shape, obj.worldTransform, cb, allowedPenetration)
		}
	}
}

// PairCachingGhostObject is a GhostObject that also keeps a pair cache of its
// own, so the narrow phase can be run on its overlaps without walking the
// pairs of the whole world.
type PairCachingGhostObject struct {
	GhostObject

	pairs *HashedPairCache
}

func NewPairCachingGhostObject(shape CollisionShape) *PairCachingGhostObject {
	g := &PairCachingGhostObject{
		GhostObject: GhostObject{CollisionObject: NewCollisionObject(shape)},
		pairs:       NewHashedPairCache(),
	}
	// the world already filtered the pairs it forwards
	g.pairs.SetOverlapFilter(func(proxy0, proxy1 *BroadphaseProxy) bool { return true })
	g.flags |= CollisionFlagNoContactResponse
	g.ghost = g
	return g
}

// OverlappingPairCache returns the pairs of the ghost with its overlapping
// objects.
func (g *PairCachingGhostObject) OverlappingPairCache() *HashedPairCache {
	return g.pairs
}

func (g *PairCachingGhostObject) addOverlappingObject(other, self *BroadphaseProxy) {
	if self == nil {
		self = g.broadphaseHandle
	}
	if !slices.Contains(g.overlapping, other.ClientObject) {
		g.overlapping = append(g.overlapping, other.ClientObject)
		g.pairs.AddOverlappingPair(self, other)
	}
}

func (g *PairCachingGhostObject) removeOverlappingObject(other, self *BroadphaseProxy, dispatcher *Dispatcher) {
	if self == nil {
		self = g.broadphaseHandle
	}
	if slices.Contains(g.overlapping, other.ClientObject) {
		g.pairs.RemoveOverlappingPair(self, other, dispatcher)
		g.GhostObject.RemoveOverlappingObjectInternal(other.ClientObject)
	}
}

// AddOverlappingObjectInternal tracks obj and adds its pair with the ghost to
// the ghost pair cache. Both objects must be in a world.
func (g *PairCachingGhostObject) AddOverlappingObjectInternal(obj *CollisionObject) {
	if g.broadphaseHandle == nil || obj.broadphaseHandle == nil {
		panic(fmt.Sprintf("cm3: %v and %v need broad phase proxies to be paired", g.CollisionObject, obj))
	}
	g.addOverlappingObject(obj.broadphaseHandle, g.broadphaseHandle)
}

// RemoveOverlappingObjectInternal drops obj and every pair of the ghost pair
// cache that refers to it.
func (g *PairCachingGhostObject) RemoveOverlappingObjectInternal(obj *CollisionObject) {
	var dispatcher *Dispatcher
	if g.World != nil {
		dispatcher = g.World.dispatcher
	}
	g.pairs.ProcessAllOverlappingPairs(func(pair *BroadphasePair) bool {
		return pair.Proxy0.ClientObject == obj || pair.Proxy1.ClientObject == obj
	}, dispatcher)
	g.GhostObject.RemoveOverlappingObjectInternal(obj)
}

// GhostPairCallback forwards the pairs of the main cache that involve a ghost
// object to that ghost. A World installs one when its first ghost is added.
type GhostPairCallback struct{}

func NewGhostPairCallback() *GhostPairCallback {
	return &GhostPairCallback{}
}

func (*GhostPairCallback) AddOverlappingPair(proxy0, proxy1 *BroadphaseProxy) *BroadphasePair {
	if g := proxy0.ClientObject.ghost; g != nil {
		g.addOverlappingObject(proxy1, proxy0)
	}
	if g := proxy1.ClientObject.ghost; g != nil {
		g.addOverlappingObject(proxy0, proxy1)
	}
	return nil
}

func (*GhostPairCallback) RemoveOverlappingPair(proxy0, proxy1 *BroadphaseProxy, dispatcher *Dispatcher) {
	if g := proxy0.ClientObject.ghost; g != nil {
		g.removeOverlappingObject(proxy1, proxy0, dispatcher)
	}
	if g := proxy1.ClientObject.ghost; g != nil {
		g.removeOverlappingObject(proxy0, proxy1, dispatcher)
	}
}

// RemoveOverlappingPairsContainingProxy is a no-op. The main cache reports
// each removed pair through RemoveOverlappingPair.
func (*GhostPairCallback) RemoveOverlappingPairsContainingProxy(*BroadphaseProxy, *Dispatcher) {}
