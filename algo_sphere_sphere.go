package cm3

import "github.com/go-gl/mathgl/mgl64"

// sphereSphereAlgorithm handles sphere against sphere analytically.
type sphereSphereAlgorithm struct {
	AlgorithmBase
	manifold    *PersistentManifold
	ownManifold bool
}

func (alg *sphereSphereAlgorithm) init(ci *AlgorithmConstructionInfo, a, b *Collider, swapped bool) {
	alg.manifold = ci.Manifold
	if alg.manifold == nil && ci.Dispatcher.NeedsCollision(a.Object, b.Object) {
		alg.manifold = ci.Dispatcher.NewManifold(a.Object, b.Object)
		alg.ownManifold = true
	}
}

func (alg *sphereSphereAlgorithm) ProcessCollision(a, b *Collider, info *DispatchInfo, resultOut *ManifoldResult) {
	if alg.manifold == nil {
		return
	}
	resultOut.SetPersistentManifold(alg.manifold)

	r0 := a.Shape.(*SphereShape).Radius()
	r1 := b.Shape.(*SphereShape).Radius()

	diff := a.Transform.Origin.Sub(b.Transform.Origin)
	length := diff.Len()

	if length > r0+r1 {
		if alg.ownManifold {
			resultOut.RefreshContactPoints()
		}
		return
	}

	normalOnB := mgl64.Vec3{1, 0, 0}
	if length > fltEpsilon {
		normalOnB = diff.Mul(1 / length)
	}
	pointOnB := b.Transform.Origin.Add(normalOnB.Mul(r1))

	resultOut.SetShapeIdentifiers(a.PartID, a.Index, b.PartID, b.Index)
	resultOut.AddContactPoint(normalOnB, pointOnB, length-(r0+r1))

	if alg.ownManifold {
		resultOut.RefreshContactPoints()
	}
}

func (alg *sphereSphereAlgorithm) CalculateTimeOfImpact(a, b *Collider, info *DispatchInfo, resultOut *ManifoldResult) float64 {
	return 1
}

func (alg *sphereSphereAlgorithm) AllContactManifolds(dst []*PersistentManifold) []*PersistentManifold {
	if alg.manifold != nil && alg.ownManifold {
		dst = append(dst, alg.manifold)
	}
	return dst
}

func (alg *sphereSphereAlgorithm) Destroy() {
	if alg.ownManifold && alg.manifold != nil {
		alg.dispatcher.ReleaseManifold(alg.manifold)
	}
	alg.manifold = nil
	alg.ownManifold = false
}
