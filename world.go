package cm3

import (
	"fmt"
	"slices"
)

// Link connects two objects the way a constraint of the dynamics layer would:
// linked objects share a simulation island and optionally ignore each other.
type Link struct {
	A, B              *CollisionObject
	DisableCollisions bool
}

// World owns the collision objects, the broad phase and the dispatcher, and
// runs the collision pipeline of one simulation step.
type World struct {
	cfg          *Config
	dispatcher   *Dispatcher
	broadphase   Broadphase
	dispatchInfo *DispatchInfo
	islands      *IslandManager

	objects []*CollisionObject
	links   []*Link

	debugDrawer   IDrawer
	ghostCallback *GhostPairCallback

	reportedOverflow bool
	warnedShapes     map[ShapeType]bool
}

// NewWorld returns an empty world with a TreeBroadphase. A nil cfg uses
// DefaultConfig.
func NewWorld(cfg *Config) *World {
	if cfg == nil {
		def := DefaultConfig()
		cfg = &def
	}
	info := NewDispatchInfo()
	info.AllowedCcdPenetration = cfg.AllowedCcdPenetration

	w := &World{
		cfg:          cfg,
		dispatcher:   NewDispatcher(cfg),
		broadphase:   NewTreeBroadphase(nil),
		dispatchInfo: info,
		islands:      NewIslandManager(),
		warnedShapes: make(map[ShapeType]bool),
	}
	w.pairCache().SetOverlapFilter(defaultOverlapFilter)
	return w
}

// defaultOverlapFilter applies the ShapeFilter of both proxies and never pairs
// two static or kinematic objects.
func defaultOverlapFilter(proxy0, proxy1 *BroadphaseProxy) bool {
	if proxy0.Filter.Reject(proxy1.Filter) {
		return false
	}
	obj0, obj1 := proxy0.ClientObject, proxy1.ClientObject
	return !(obj0.IsStaticOrKinematicObject() && obj1.IsStaticOrKinematicObject())
}

func (w *World) Config() *Config {
	return w.cfg
}

func (w *World) Dispatcher() *Dispatcher {
	return w.dispatcher
}

func (w *World) Broadphase() Broadphase {
	return w.broadphase
}

// DispatchInfo returns the parameters used by the next narrow phase pass.
func (w *World) DispatchInfo() *DispatchInfo {
	return w.dispatchInfo
}

func (w *World) IslandManager() *IslandManager {
	return w.islands
}

func (w *World) pairCache() OverlappingPairCache {
	return w.broadphase.OverlappingPairCache()
}

// CollisionObjects returns the objects of the world. The slice aliases world
// storage.
func (w *World) CollisionObjects() []*CollisionObject {
	return w.objects
}

func (w *World) NumCollisionObjects() int {
	return len(w.objects)
}

func (w *World) SetDebugDrawer(drawer IDrawer) {
	w.debugDrawer = drawer
	w.dispatchInfo.DebugDraw = drawer
}

func (w *World) DebugDrawer() IDrawer {
	return w.debugDrawer
}

func (w *World) warn(msg string) {
	w.cfg.warn(msg)
	if w.debugDrawer != nil {
		w.debugDrawer.ReportErrorWarning(msg)
	}
}

// AddCollisionObject inserts obj into the world and the broad phase.
func (w *World) AddCollisionObject(obj *CollisionObject, filter ShapeFilter) {
	if obj.World != nil {
		panic(fmt.Sprintf("cm3: %v is already added to a world", obj))
	}
	if obj.ghost != nil && w.ghostCallback == nil {
		w.ghostCallback = NewGhostPairCallback()
		w.pairCache().SetInternalGhostPairCallback(w.ghostCallback)
	}

	obj.World = w
	w.objects = append(w.objects, obj)

	bb := obj.shape.Aabb(obj.worldTransform)
	obj.broadphaseHandle = w.broadphase.CreateProxy(bb, obj, filter, w.dispatcher)
}

// RemoveCollisionObject removes obj, its pairs and their algorithms.
func (w *World) RemoveCollisionObject(obj *CollisionObject) {
	if obj.World != w {
		panic(fmt.Sprintf("cm3: %v is not in this world", obj))
	}
	if proxy := obj.broadphaseHandle; proxy != nil {
		w.pairCache().CleanProxyFromPairs(proxy, w.dispatcher)
		w.broadphase.DestroyProxy(proxy, w.dispatcher)
		obj.broadphaseHandle = nil
	}
	if i := slices.Index(w.objects, obj); i >= 0 {
		last := len(w.objects) - 1
		w.objects[i] = w.objects[last]
		w.objects[last] = nil
		w.objects = w.objects[:last]
	}
	obj.World = nil
}

// UpdateSingleAabb recomputes the broad phase bounds of obj, grown by the
// contact breaking threshold. Objects with absurdly large bounds are removed
// from simulation.
func (w *World) UpdateSingleAabb(obj *CollisionObject) {
	bb := obj.shape.Aabb(obj.worldTransform).Grow(w.cfg.ContactBreakingThreshold)
	if w.dispatchInfo.UseContinuous {
		bb = bb.Merge(obj.shape.Aabb(obj.interpolationWorldTransform).Grow(w.cfg.ContactBreakingThreshold))
	}

	// moving objects should be moderately sized
	if obj.IsStaticObject() || bb.Max.Sub(bb.Min).LenSqr() < aabbOverflowLimit {
		w.broadphase.SetAabb(obj.broadphaseHandle, bb, w.dispatcher)
		return
	}

	obj.SetActivationState(DisableSimulation)
	if !w.reportedOverflow {
		w.reportedOverflow = true
		w.warn("Overflow in AABB, object removed from simulation")
	}
}

// UpdateAabbs updates the bounds of the active objects, or of all objects when
// Config.ForceUpdateAllAabbs is set.
func (w *World) UpdateAabbs() {
	for _, obj := range w.objects {
		if w.cfg.ForceUpdateAllAabbs || obj.IsActive() {
			w.UpdateSingleAabb(obj)
		}
	}
}

// PerformDiscreteCollisionDetection updates the bounds, the overlapping pairs
// and the contact manifolds of every pair.
func (w *World) PerformDiscreteCollisionDetection() {
	w.UpdateAabbs()
	w.broadphase.CalculateOverlappingPairs(w.dispatcher)

	w.dispatchInfo.DispatchFunc = DispatchDiscrete
	w.dispatcher.DispatchAllCollisionPairs(w.pairCache(), w.dispatchInfo)
}

// PerformContinuousCollisionDetection computes the earliest time of impact of
// the motion from the world transforms to the interpolation transforms. The
// hit fractions of the objects are lowered along the way.
func (w *World) PerformContinuousCollisionDetection() float64 {
	useContinuous := w.dispatchInfo.UseContinuous
	w.dispatchInfo.UseContinuous = true
	w.UpdateAabbs()
	w.broadphase.CalculateOverlappingPairs(w.dispatcher)

	w.dispatchInfo.DispatchFunc = DispatchContinuous
	w.dispatchInfo.TimeOfImpact = 1
	w.dispatcher.DispatchAllCollisionPairs(w.pairCache(), w.dispatchInfo)
	toi := w.dispatchInfo.TimeOfImpact

	w.dispatchInfo.DispatchFunc = DispatchDiscrete
	w.dispatchInfo.UseContinuous = useContinuous
	return toi
}

// UpdateActivationState advances the deactivation timers by dt and moves
// objects at rest towards sleeping.
func (w *World) UpdateActivationState(dt float64) {
	for _, obj := range w.objects {
		obj.UpdateDeactivation(dt)

		if obj.WantsSleeping(w.cfg) {
			if obj.IsStaticOrKinematicObject() {
				obj.SetActivationState(IslandSleeping)
			} else if obj.activationState == ActiveTag {
				obj.SetActivationState(WantsDeactivation)
			}
		} else if obj.activationState != DisableDeactivation {
			obj.SetActivationState(ActiveTag)
		}
	}
}

// AddLink links a and b. With disableCollisions the pair is ignored by the
// narrow phase.
func (w *World) AddLink(a, b *CollisionObject, disableCollisions bool) *Link {
	link := &Link{A: a, B: b, DisableCollisions: disableCollisions}
	if disableCollisions {
		a.IgnoreCollisionWith(b)
	}
	w.links = append(w.links, link)
	return link
}

func (w *World) RemoveLink(link *Link) {
	i := slices.Index(w.links, link)
	if i < 0 {
		return
	}
	w.links = slices.Delete(w.links, i, i+1)
	if link.DisableCollisions {
		link.A.RestoreCollisionWith(link.B)
	}
}

func (w *World) Links() []*Link {
	return w.links
}

// CalculateSimulationIslands unites the objects of overlapping pairs and of
// links with an active end, then stores the island ids in the objects.
func (w *World) CalculateSimulationIslands() {
	w.islands.UpdateActivationState(w)

	for _, link := range w.links {
		a, b := link.A, link.B
		if a.IsStaticOrKinematicObject() || b.IsStaticOrKinematicObject() {
			continue
		}
		if a.World != w || b.World != w {
			continue
		}
		if a.IsActive() || b.IsActive() {
			w.islands.unionFind.Unite(a.islandTag, b.islandTag)
		}
	}

	w.islands.StoreIslandActivationState(w)
}

// ProcessIslands hands the awake islands and their manifolds to callback.
func (w *World) ProcessIslands(callback IslandCallback) {
	w.islands.BuildAndProcessIslands(w.dispatcher, w.objects, callback)
}
