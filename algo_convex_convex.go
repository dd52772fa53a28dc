package cm3

// convexConvexAlgorithm runs the GJK pair detector on two convex shapes, with
// EPA for overlapping cores.
type convexConvexAlgorithm struct {
	AlgorithmBase
	manifold    *PersistentManifold
	ownManifold bool
}

func (alg *convexConvexAlgorithm) init(ci *AlgorithmConstructionInfo, a, b *Collider, swapped bool) {
	alg.manifold = ci.Manifold
}

func (alg *convexConvexAlgorithm) ProcessCollision(a, b *Collider, info *DispatchInfo, resultOut *ManifoldResult) {
	if alg.manifold == nil {
		alg.manifold = alg.dispatcher.NewManifold(a.Object, b.Object)
		alg.ownManifold = true
	}
	resultOut.SetPersistentManifold(alg.manifold)

	shapeA := a.Shape.(ConvexShape)
	shapeB := b.Shape.(ConvexShape)

	cfg := alg.dispatcher.Config()
	gjk := newGjkPairDetector(shapeA, shapeB, alg.dispatcher.penetrationSolver(), cfg.GjkMaxIterations)

	input := DefaultClosestPointInput()
	maxDist := shapeA.Margin() + shapeB.Margin() + alg.manifold.ContactBreakingThreshold()
	input.MaximumDistanceSquared = maxDist * maxDist
	input.TransformA = a.Transform
	input.TransformB = b.Transform

	resultOut.SetShapeIdentifiers(a.PartID, a.Index, b.PartID, b.Index)
	gjk.ClosestPoints(&input, resultOut)

	if alg.ownManifold {
		resultOut.RefreshContactPoints()
	}
}

// CalculateTimeOfImpact sweeps each shape against the swept sphere of the
// other body. Bodies moving less than their motion threshold are skipped.
func (alg *convexConvexAlgorithm) CalculateTimeOfImpact(a, b *Collider, info *DispatchInfo, resultOut *ManifoldResult) float64 {
	resultFraction := 1.0

	squareMot0 := a.Interpolation.Origin.Sub(a.Transform.Origin).LenSqr()
	squareMot1 := b.Interpolation.Origin.Sub(b.Transform.Origin).LenSqr()
	if squareMot0 < a.Object.ccdSquareMotionThreshold && squareMot1 < b.Object.ccdSquareMotionThreshold {
		return resultFraction
	}

	allowed := alg.dispatcher.Config().AllowedCcdPenetration
	if info != nil {
		allowed = info.AllowedCcdPenetration
	}

	apply := func(fraction float64) {
		if a.Object.hitFraction > fraction {
			a.Object.hitFraction = fraction
		}
		if b.Object.hitFraction > fraction {
			b.Object.hitFraction = fraction
		}
		if resultFraction > fraction {
			resultFraction = fraction
		}
	}

	// convex0 against the swept sphere of body 1
	{
		sphere1 := NewSphereShape(b.Object.ccdSweptSphereRadius)
		result := NewCastResult()
		result.AllowedPenetration = allowed
		cast := newConvexCast(a.Shape.(ConvexShape), sphere1)
		if cast.CalcTimeOfImpact(a.Transform, a.Interpolation, b.Transform, b.Interpolation, &result) {
			apply(result.Fraction)
		}
	}

	// swept sphere of body 0 against convex1
	{
		sphere0 := NewSphereShape(a.Object.ccdSweptSphereRadius)
		result := NewCastResult()
		result.AllowedPenetration = allowed
		cast := newConvexCast(sphere0, b.Shape.(ConvexShape))
		if cast.CalcTimeOfImpact(a.Transform, a.Interpolation, b.Transform, b.Interpolation, &result) {
			apply(result.Fraction)
		}
	}

	return resultFraction
}

func (alg *convexConvexAlgorithm) AllContactManifolds(dst []*PersistentManifold) []*PersistentManifold {
	if alg.manifold != nil && alg.ownManifold {
		dst = append(dst, alg.manifold)
	}
	return dst
}

func (alg *convexConvexAlgorithm) Destroy() {
	if alg.ownManifold && alg.manifold != nil {
		alg.dispatcher.ReleaseManifold(alg.manifold)
	}
	alg.manifold = nil
	alg.ownManifold = false
}
