package cm3

import (
	"fmt"
	"sync"
)

// NearCallback processes one overlapping pair during
// Dispatcher.DispatchAllCollisionPairs.
type NearCallback func(pair *BroadphasePair, dispatcher *Dispatcher, info *DispatchInfo)

// Dispatcher creates the collision algorithms of overlapping pairs and owns
// the persistent manifolds they write to.
type Dispatcher struct {
	cfg    *Config
	matrix *AlgorithmMatrix

	// manifolds[i].index == i
	manifolds       []*PersistentManifold
	pooledManifolds sync.Pool

	nearCallback NearCallback
	penetration  *epaPenetrationSolver

	warnedPairs  map[[2]ShapeType]bool
	warnedStatic bool
}

// NewDispatcher returns a dispatcher with the default algorithm matrix. A nil
// cfg uses DefaultConfig.
func NewDispatcher(cfg *Config) *Dispatcher {
	if cfg == nil {
		def := DefaultConfig()
		cfg = &def
	}
	d := &Dispatcher{
		cfg:             cfg,
		matrix:          NewDefaultAlgorithmMatrix(),
		pooledManifolds: sync.Pool{New: func() any { return &PersistentManifold{} }},
		penetration:     newEpaPenetrationSolver(cfg),
		warnedPairs:     make(map[[2]ShapeType]bool),
	}
	d.nearCallback = DefaultNearCallback
	return d
}

func (d *Dispatcher) Config() *Config {
	return d.cfg
}

// Matrix returns the algorithm matrix used by FindAlgorithm.
func (d *Dispatcher) Matrix() *AlgorithmMatrix {
	return d.matrix
}

// RegisterAlgorithm overrides the factory of one ordered pair of shape types.
func (d *Dispatcher) RegisterAlgorithm(a, b ShapeType, factory AlgorithmFactory) {
	d.matrix.Register(a, b, factory)
}

func (d *Dispatcher) penetrationSolver() *epaPenetrationSolver {
	return d.penetration
}

// FindAlgorithm creates the algorithm for the shapes of a and b. A non nil
// shared manifold is used by the algorithm instead of a manifold of its own.
func (d *Dispatcher) FindAlgorithm(a, b *Collider, shared *PersistentManifold) CollisionAlgorithm {
	ci := AlgorithmConstructionInfo{Dispatcher: d, Manifold: shared}
	factory := d.matrix.Lookup(a.Shape.Type(), b.Shape.Type())
	return factory.CreateAlgorithm(&ci, a, b)
}

// FreeAlgorithm returns a destroyed algorithm to the pool of its factory.
func (d *Dispatcher) FreeAlgorithm(alg CollisionAlgorithm) {
	alg.base().factory.ReleaseAlgorithm(alg)
}

// NewManifold returns an empty manifold for body0 and body1 and appends it to
// the manifold list.
func (d *Dispatcher) NewManifold(body0, body1 *CollisionObject) *PersistentManifold {
	m := d.pooledManifolds.Get().(*PersistentManifold)
	m.Init(body0, body1, d.cfg.ContactBreakingThreshold, d.cfg)
	m.index = len(d.manifolds)
	d.manifolds = append(d.manifolds, m)
	return m
}

// ReleaseManifold clears m and removes it from the manifold list. The last
// manifold of the list takes its slot.
func (d *Dispatcher) ReleaseManifold(m *PersistentManifold) {
	d.ClearManifold(m)

	index := m.index
	if index < 0 || index >= len(d.manifolds) || d.manifolds[index] != m {
		panic(fmt.Sprintf("cm3: manifold index %d out of sync with the dispatcher", index))
	}
	last := len(d.manifolds) - 1
	if index != last {
		moved := d.manifolds[last]
		d.manifolds[index] = moved
		moved.index = index
	}
	d.manifolds[last] = nil
	d.manifolds = d.manifolds[:last]

	m.Init(nil, nil, 0, nil)
	d.pooledManifolds.Put(m)
}

func (d *Dispatcher) ClearManifold(m *PersistentManifold) {
	m.ClearManifold()
}

func (d *Dispatcher) NumManifolds() int {
	return len(d.manifolds)
}

func (d *Dispatcher) ManifoldByIndex(index int) *PersistentManifold {
	return d.manifolds[index]
}

// Manifolds returns the live manifolds. The slice aliases dispatcher storage.
func (d *Dispatcher) Manifolds() []*PersistentManifold {
	return d.manifolds
}

// NeedsCollision reports whether the narrow phase should run for the pair.
// Two inactive bodies and ignored pairs are skipped.
func (d *Dispatcher) NeedsCollision(body0, body1 *CollisionObject) bool {
	if !d.warnedStatic && body0.IsStaticOrKinematicObject() && body1.IsStaticOrKinematicObject() {
		d.warnedStatic = true
		d.cfg.warn("Dispatcher.NeedsCollision: static-static collision!")
	}
	if !body0.IsActive() && !body1.IsActive() {
		return false
	}
	return body0.CheckCollideWith(body1) && body1.CheckCollideWith(body0)
}

// NeedsResponse reports whether contacts of the pair should reach the solver.
func (d *Dispatcher) NeedsResponse(body0, body1 *CollisionObject) bool {
	hasResponse := body0.HasContactResponse() && body1.HasContactResponse()
	// no response between two static or kinematic objects
	return hasResponse && (!body0.IsStaticOrKinematicObject() || !body1.IsStaticOrKinematicObject())
}

// SetNearCallback replaces DefaultNearCallback. nil restores it.
func (d *Dispatcher) SetNearCallback(cb NearCallback) {
	if cb == nil {
		cb = DefaultNearCallback
	}
	d.nearCallback = cb
}

// DispatchAllCollisionPairs runs the near callback on every pair of cache.
func (d *Dispatcher) DispatchAllCollisionPairs(cache OverlappingPairCache, info *DispatchInfo) {
	cache.ProcessAllOverlappingPairs(func(pair *BroadphasePair) bool {
		d.nearCallback(pair, d, info)
		return false
	}, d)
}

// DefaultNearCallback creates the algorithm of the pair on first use. Discrete
// dispatch updates the contacts, continuous dispatch folds the time of impact
// into info.TimeOfImpact.
func DefaultNearCallback(pair *BroadphasePair, d *Dispatcher, info *DispatchInfo) {
	obj0 := pair.Proxy0.ClientObject
	obj1 := pair.Proxy1.ClientObject
	if !d.NeedsCollision(obj0, obj1) {
		return
	}

	a, b := NewCollider(obj0), NewCollider(obj1)
	if pair.Algorithm == nil {
		pair.Algorithm = d.FindAlgorithm(&a, &b, nil)
	}

	result := NewManifoldResult(d.cfg, obj0, obj1)
	if info.DispatchFunc == DispatchDiscrete {
		pair.Algorithm.ProcessCollision(&a, &b, info, result)
		return
	}
	toi := pair.Algorithm.CalculateTimeOfImpact(&a, &b, info, result)
	if info.TimeOfImpact > toi {
		info.TimeOfImpact = toi
	}
}

func (d *Dispatcher) warnUnsupportedPair(a, b ShapeType) {
	key := [2]ShapeType{a, b}
	if d.warnedPairs[key] {
		return
	}
	d.warnedPairs[key] = true
	d.cfg.warn(fmt.Sprintf("no collision algorithm for %v and %v, pair ignored", a, b))
}
