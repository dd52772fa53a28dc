package cm3

// emptyAlgorithm handles shape pairs no other algorithm supports. It never
// reports contacts.
type emptyAlgorithm struct {
	AlgorithmBase
}

func (alg *emptyAlgorithm) init(ci *AlgorithmConstructionInfo, a, b *Collider, swapped bool) {
	ta, tb := a.Shape.Type(), b.Shape.Type()
	if ta != EmptyShapeType && tb != EmptyShapeType {
		ci.Dispatcher.warnUnsupportedPair(ta, tb)
	}
}

func (alg *emptyAlgorithm) ProcessCollision(a, b *Collider, info *DispatchInfo, resultOut *ManifoldResult) {
}

func (alg *emptyAlgorithm) CalculateTimeOfImpact(a, b *Collider, info *DispatchInfo, resultOut *ManifoldResult) float64 {
	return 1
}

func (alg *emptyAlgorithm) AllContactManifolds(dst []*PersistentManifold) []*PersistentManifold {
	return dst
}

func (alg *emptyAlgorithm) Destroy() {}
