package cm3

import "slices"

// IslandCallback receives the bodies and the response manifolds of one awake
// island.
type IslandCallback func(bodies []*CollisionObject, manifolds []*PersistentManifold, islandID int)

// IslandManager groups the objects of a World into simulation islands: sets of
// objects connected by overlapping pairs. Islands fall asleep and wake up as a
// whole.
type IslandManager struct {
	unionFind UnionFind
	islands   IslandIndex

	islandManifolds []*PersistentManifold
	islandBodies    []*CollisionObject
}

func NewIslandManager() *IslandManager {
	return &IslandManager{}
}

// UnionFind returns the union-find of the last UpdateActivationState.
func (im *IslandManager) UnionFind() *UnionFind {
	return &im.unionFind
}

// UpdateActivationState tags every object with its index and unites the
// objects of each overlapping pair that merges islands.
func (im *IslandManager) UpdateActivationState(world *World) {
	objects := world.objects
	im.unionFind.Reset(len(objects))

	for i, obj := range objects {
		obj.islandTag = i
		obj.companionID = -1
		obj.hitFraction = 1
	}

	im.findUnions(world)
}

func (im *IslandManager) findUnions(world *World) {
	for _, pair := range world.pairCache().Pairs() {
		obj0 := pair.Proxy0.ClientObject
		obj1 := pair.Proxy1.ClientObject
		if obj0 != nil && obj0.MergesSimulationIslands() &&
			obj1 != nil && obj1.MergesSimulationIslands() {
			im.unionFind.Unite(obj0.islandTag, obj1.islandTag)
		}
	}
}

// StoreIslandActivationState writes the island id into the tag of every
// object. Static and kinematic objects get -1.
func (im *IslandManager) StoreIslandActivationState(world *World) {
	for i, obj := range world.objects {
		if !obj.IsStaticOrKinematicObject() {
			obj.islandTag = im.unionFind.FindGroupID(i)
			obj.companionID = -1
		} else {
			obj.islandTag = -1
			obj.companionID = -2
		}
	}
}

// eachIsland calls f with the bounds of every island in im.islands.
func (im *IslandManager) eachIsland(f func(islandID, start, end int)) {
	n := len(im.islands)
	for start := 0; start < n; {
		islandID := im.islands[start].GroupID
		end := start + 1
		for end < n && im.islands[end].GroupID == islandID {
			end++
		}
		f(islandID, start, end)
		start = end
	}
}

// BuildIslands puts islands without an awake member to sleep, wakes objects
// touched by awake kinematic objects and collects the manifolds that need a
// response.
func (im *IslandManager) BuildIslands(dispatcher *Dispatcher, objects []*CollisionObject) {
	im.islandManifolds = im.islandManifolds[:0]
	im.islands = im.unionFind.SortIslands()

	im.eachIsland(func(islandID, start, end int) {
		allSleeping := true
		for _, entry := range im.islands[start:end] {
			obj := objects[entry.BodyIndex]
			if obj.islandTag == islandID {
				if obj.activationState == ActiveTag || obj.activationState == DisableDeactivation {
					allSleeping = false
				}
			}
		}

		for _, entry := range im.islands[start:end] {
			obj := objects[entry.BodyIndex]
			if obj.islandTag != islandID {
				continue
			}
			if allSleeping {
				obj.SetActivationState(IslandSleeping)
			} else if obj.activationState == IslandSleeping {
				obj.SetActivationState(WantsDeactivation)
			}
		}
	})

	for _, m := range dispatcher.Manifolds() {
		obj0, obj1 := m.body0, m.body1
		if obj0 == nil || obj1 == nil {
			continue
		}
		if obj0.activationState == IslandSleeping && obj1.activationState == IslandSleeping {
			continue
		}
		// kinematic objects do not merge islands but wake what they touch
		if obj0.IsKinematicObject() && obj0.activationState != IslandSleeping {
			obj1.Activate(false)
		}
		if obj1.IsKinematicObject() && obj1.activationState != IslandSleeping {
			obj0.Activate(false)
		}
		if dispatcher.NeedsResponse(obj0, obj1) {
			im.islandManifolds = append(im.islandManifolds, m)
		}
	}
}

func manifoldIslandID(m *PersistentManifold) int {
	if m.body0.islandTag >= 0 {
		return m.body0.islandTag
	}
	return m.body1.islandTag
}

// BuildAndProcessIslands builds the islands and calls callback for every
// island with at least one active member.
func (im *IslandManager) BuildAndProcessIslands(dispatcher *Dispatcher, objects []*CollisionObject, callback IslandCallback) {
	im.BuildIslands(dispatcher, objects)

	slices.SortStableFunc(im.islandManifolds, func(a, b *PersistentManifold) int {
		return manifoldIslandID(a) - manifoldIslandID(b)
	})

	numManifolds := len(im.islandManifolds)
	startManifold := 0

	im.eachIsland(func(islandID, start, end int) {
		im.islandBodies = im.islandBodies[:0]
		islandSleeping := true
		for _, entry := range im.islands[start:end] {
			obj := objects[entry.BodyIndex]
			// static and kinematic objects are tagged -1
			if obj.islandTag != islandID {
				continue
			}
			im.islandBodies = append(im.islandBodies, obj)
			if obj.IsActive() {
				islandSleeping = false
			}
		}

		// manifolds of islands that produced no island entry
		for startManifold < numManifolds && manifoldIslandID(im.islandManifolds[startManifold]) < islandID {
			startManifold++
		}
		endManifold := startManifold
		for endManifold < numManifolds && manifoldIslandID(im.islandManifolds[endManifold]) == islandID {
			endManifold++
		}

		if !islandSleeping {
			callback(im.islandBodies, im.islandManifolds[startManifold:endManifold], islandID)
		}
		startManifold = endManifold
	})
	im.islandBodies = im.islandBodies[:0]
}
