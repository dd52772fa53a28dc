package cm3

// convexPlaneAlgorithm collides a convex shape with a StaticPlaneShape using
// the deepest support point of the convex shape along the plane normal.
type convexPlaneAlgorithm struct {
	AlgorithmBase
	manifold    *PersistentManifold
	ownManifold bool
	swapped     bool
}

func (alg *convexPlaneAlgorithm) init(ci *AlgorithmConstructionInfo, a, b *Collider, swapped bool) {
	alg.swapped = swapped
	convex, plane := a, b
	if swapped {
		convex, plane = b, a
	}
	alg.manifold = ci.Manifold
	if alg.manifold == nil && ci.Dispatcher.NeedsCollision(convex.Object, plane.Object) {
		alg.manifold = ci.Dispatcher.NewManifold(convex.Object, plane.Object)
		alg.ownManifold = true
	}
}

func (alg *convexPlaneAlgorithm) ProcessCollision(a, b *Collider, info *DispatchInfo, resultOut *ManifoldResult) {
	if alg.manifold == nil {
		return
	}
	convex, plane := a, b
	if alg.swapped {
		convex, plane = b, a
	}

	convexShape := convex.Shape.(ConvexShape)
	planeShape := plane.Shape.(*StaticPlaneShape)
	planeNormal := planeShape.PlaneNormal()

	planeInConvex := convex.Transform.InverseTimes(plane.Transform)
	convexInPlane := plane.Transform.InverseTimes(convex.Transform)

	vtx := convexShape.LocalSupport(planeInConvex.ApplyVector(planeNormal.Mul(-1)))
	vtxInPlane := convexInPlane.Apply(vtx)
	distance := planeNormal.Dot(vtxInPlane) - planeShape.PlaneConstant()

	resultOut.SetPersistentManifold(alg.manifold)
	if distance <= alg.manifold.ContactBreakingThreshold() {
		vtxInPlaneProjected := vtxInPlane.Sub(planeNormal.Mul(distance))
		pointOnB := plane.Transform.Apply(vtxInPlaneProjected)
		normalOnB := plane.Transform.ApplyVector(planeNormal)
		resultOut.SetShapeIdentifiers(convex.PartID, convex.Index, plane.PartID, plane.Index)
		resultOut.AddContactPoint(normalOnB, pointOnB, distance)
	}
	if alg.ownManifold && alg.manifold.NumContacts() > 0 {
		resultOut.RefreshContactPoints()
	}
}

func (alg *convexPlaneAlgorithm) CalculateTimeOfImpact(a, b *Collider, info *DispatchInfo, resultOut *ManifoldResult) float64 {
	return 1
}

func (alg *convexPlaneAlgorithm) AllContactManifolds(dst []*PersistentManifold) []*PersistentManifold {
	if alg.manifold != nil && alg.ownManifold {
		dst = append(dst, alg.manifold)
	}
	return dst
}

func (alg *convexPlaneAlgorithm) Destroy() {
	if alg.ownManifold && alg.manifold != nil {
		alg.dispatcher.ReleaseManifold(alg.manifold)
	}
	alg.manifold = nil
	alg.ownManifold = false
}
