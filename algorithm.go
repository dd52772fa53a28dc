package cm3

// DispatchFunc selects between the discrete and the continuous narrow phase.
type DispatchFunc int

const (
	// DispatchDiscrete computes contacts at the current transforms.
	DispatchDiscrete DispatchFunc = iota + 1
	// DispatchContinuous computes the time of impact of the motion from the
	// world transform to the interpolation transform.
	DispatchContinuous
)

// DispatchInfo holds the per step parameters of a narrow phase pass.
type DispatchInfo struct {
	TimeStep     float64
	DispatchFunc DispatchFunc
	// TimeOfImpact is folded to the minimum fraction found by a continuous pass.
	TimeOfImpact float64
	// UseContinuous grows the object bounds by the interpolation motion.
	UseContinuous         bool
	AllowedCcdPenetration float64
	DebugDraw             IDrawer
}

// NewDispatchInfo returns a discrete dispatch with TimeOfImpact 1.
func NewDispatchInfo() *DispatchInfo {
	return &DispatchInfo{
		TimeStep:              1.0 / 60.0,
		DispatchFunc:          DispatchDiscrete,
		TimeOfImpact:          1,
		AllowedCcdPenetration: DefaultConfig().AllowedCcdPenetration,
	}
}

// AlgorithmConstructionInfo is handed to AlgorithmFactory.CreateAlgorithm.
type AlgorithmConstructionInfo struct {
	Dispatcher *Dispatcher
	// Manifold, when set, is shared with the caller and not owned by the
	// created algorithm.
	Manifold *PersistentManifold
}

// CollisionAlgorithm computes contacts for one pair of colliders. Instances are
// pooled per factory: create them with Dispatcher.FindAlgorithm and release
// them with Dispatcher.FreeAlgorithm.
type CollisionAlgorithm interface {
	// ProcessCollision writes the contacts of a and b at their current
	// transforms into result.
	ProcessCollision(a, b *Collider, info *DispatchInfo, result *ManifoldResult)
	// CalculateTimeOfImpact returns the fraction of the motion to the
	// interpolation transforms at which a and b touch, 1 for no impact.
	CalculateTimeOfImpact(a, b *Collider, info *DispatchInfo, result *ManifoldResult) float64
	// AllContactManifolds appends the manifolds owned by the algorithm.
	AllContactManifolds(dst []*PersistentManifold) []*PersistentManifold
	// Destroy releases the manifolds and child algorithms of the algorithm.
	Destroy()

	base() *AlgorithmBase
}

// AlgorithmBase is embedded by every CollisionAlgorithm. It tags the algorithm
// with the factory that has to take it back.
type AlgorithmBase struct {
	dispatcher *Dispatcher
	factory    AlgorithmFactory
}

func (ab *AlgorithmBase) base() *AlgorithmBase {
	return ab
}

// Dispatcher returns the dispatcher that created the algorithm.
func (ab *AlgorithmBase) Dispatcher() *Dispatcher {
	return ab.dispatcher
}

// Factory returns the factory the algorithm is released to.
func (ab *AlgorithmBase) Factory() AlgorithmFactory {
	return ab.factory
}

// AlgorithmFactory creates and recycles one concrete CollisionAlgorithm type.
type AlgorithmFactory interface {
	CreateAlgorithm(ci *AlgorithmConstructionInfo, a, b *Collider) CollisionAlgorithm
	// ReleaseAlgorithm returns a destroyed algorithm to the pool. Algorithms
	// of another factory are rejected with a panic.
	ReleaseAlgorithm(alg CollisionAlgorithm)
	// Swapped reports whether created algorithms exchange the colliders
	// before running.
	Swapped() bool
}

type pooledAlgorithm[T any] interface {
	*T
	CollisionAlgorithm
	init(ci *AlgorithmConstructionInfo, a, b *Collider, swapped bool)
}

// algorithmFactory pools algorithms of type T on a free list.
type algorithmFactory[T any, PT pooledAlgorithm[T]] struct {
	free    []PT
	swapped bool
}

func newAlgorithmFactory[T any, PT pooledAlgorithm[T]](swapped bool) *algorithmFactory[T, PT] {
	return &algorithmFactory[T, PT]{swapped: swapped}
}

func (f *algorithmFactory[T, PT]) CreateAlgorithm(ci *AlgorithmConstructionInfo, a, b *Collider) CollisionAlgorithm {
	var alg PT
	if n := len(f.free); n > 0 {
		alg = f.free[n-1]
		f.free = f.free[:n-1]
	} else {
		alg = PT(new(T))
	}
	base := alg.base()
	base.factory = f
	base.dispatcher = ci.Dispatcher
	alg.init(ci, a, b, f.swapped)
	return alg
}

func (f *algorithmFactory[T, PT]) ReleaseAlgorithm(alg CollisionAlgorithm) {
	typed, ok := alg.(PT)
	if !ok || alg.base().factory != AlgorithmFactory(f) {
		panic("cm3: algorithm released into a foreign pool")
	}
	var zero T
	*typed = zero
	f.free = append(f.free, typed)
}

func (f *algorithmFactory[T, PT]) Swapped() bool {
	return f.swapped
}

// Pooled returns the number of algorithms waiting for reuse.
func (f *algorithmFactory[T, PT]) Pooled() int {
	return len(f.free)
}

// Default factories.

func NewSphereSphereAlgorithmFactory() AlgorithmFactory {
	return newAlgorithmFactory[sphereSphereAlgorithm](false)
}

func NewConvexConvexAlgorithmFactory() AlgorithmFactory {
	return newAlgorithmFactory[convexConvexAlgorithm](false)
}

func NewConvexPlaneAlgorithmFactory(swapped bool) AlgorithmFactory {
	return newAlgorithmFactory[convexPlaneAlgorithm](swapped)
}

func NewConvexConcaveAlgorithmFactory(swapped bool) AlgorithmFactory {
	return newAlgorithmFactory[convexConcaveAlgorithm](swapped)
}

func NewCompoundAlgorithmFactory(swapped bool) AlgorithmFactory {
	return newAlgorithmFactory[compoundAlgorithm](swapped)
}

func NewEmptyAlgorithmFactory() AlgorithmFactory {
	return newAlgorithmFactory[emptyAlgorithm](false)
}
