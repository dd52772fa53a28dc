package cm3

// compoundAlgorithm splits a compound shape into its children and runs one
// child algorithm per child against the other collider.
type compoundAlgorithm struct {
	AlgorithmBase
	children []CollisionAlgorithm
	shared   *PersistentManifold
	swapped  bool
	revision int
}

func (alg *compoundAlgorithm) init(ci *AlgorithmConstructionInfo, a, b *Collider, swapped bool) {
	alg.swapped = swapped
	alg.shared = ci.Manifold
	compound, other := a, b
	if swapped {
		compound, other = b, a
	}
	alg.createChildren(compound, other)
}

func (alg *compoundAlgorithm) createChildren(compound, other *Collider) {
	shape := compound.Shape.(*CompoundShape)
	n := shape.NumChildShapes()
	alg.revision = shape.Revision()
	alg.children = alg.children[:0]
	for i := 0; i < n; i++ {
		child := compound.Child(shape.ChildShape(i), shape.ChildTransform(i), i)
		alg.children = append(alg.children, alg.dispatcher.FindAlgorithm(&child, other, alg.shared))
	}
}

func (alg *compoundAlgorithm) destroyChildren() {
	for i, child := range alg.children {
		child.Destroy()
		alg.dispatcher.FreeAlgorithm(child)
		alg.children[i] = nil
	}
	alg.children = alg.children[:0]
}

func (alg *compoundAlgorithm) colliders(a, b *Collider) (compound, other *Collider, shape *CompoundShape) {
	compound, other = a, b
	if alg.swapped {
		compound, other = b, a
	}
	shape = compound.Shape.(*CompoundShape)
	// children added, removed or modified since the last step
	if shape.Revision() != alg.revision {
		alg.destroyChildren()
		alg.createChildren(compound, other)
	}
	return compound, other, shape
}

func (alg *compoundAlgorithm) ProcessCollision(a, b *Collider, info *DispatchInfo, resultOut *ManifoldResult) {
	compound, other, shape := alg.colliders(a, b)
	for i, childAlg := range alg.children {
		child := compound.Child(shape.ChildShape(i), shape.ChildTransform(i), i)
		childAlg.ProcessCollision(&child, other, info, resultOut)
	}
}

// CalculateTimeOfImpact returns the earliest impact of any child.
func (alg *compoundAlgorithm) CalculateTimeOfImpact(a, b *Collider, info *DispatchInfo, resultOut *ManifoldResult) float64 {
	compound, other, shape := alg.colliders(a, b)
	hitFraction := 1.0
	for i, childAlg := range alg.children {
		child := compound.Child(shape.ChildShape(i), shape.ChildTransform(i), i)
		if frac := childAlg.CalculateTimeOfImpact(&child, other, info, resultOut); frac < hitFraction {
			hitFraction = frac
		}
	}
	return hitFraction
}

func (alg *compoundAlgorithm) AllContactManifolds(dst []*PersistentManifold) []*PersistentManifold {
	for _, child := range alg.children {
		dst = child.AllContactManifolds(dst)
	}
	return dst
}

func (alg *compoundAlgorithm) Destroy() {
	alg.destroyChildren()
	alg.shared = nil
}
