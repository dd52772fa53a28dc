package cm3

import "github.com/go-gl/mathgl/mgl64"

// convexConcaveAlgorithm streams the triangles of a concave shape that overlap
// the convex shape and collides each of them as a TriangleShape. All triangle
// contacts go to one manifold owned by this algorithm.
type convexConcaveAlgorithm struct {
	AlgorithmBase
	manifold *PersistentManifold
	swapped  bool
}

func (alg *convexConcaveAlgorithm) init(ci *AlgorithmConstructionInfo, a, b *Collider, swapped bool) {
	alg.swapped = swapped
	convex, concave := a, b
	if swapped {
		convex, concave = b, a
	}
	alg.manifold = ci.Dispatcher.NewManifold(convex.Object, concave.Object)
}

func (alg *convexConcaveAlgorithm) ProcessCollision(a, b *Collider, info *DispatchInfo, resultOut *ManifoldResult) {
	convex, concave := a, b
	if alg.swapped {
		convex, concave = b, a
	}
	concaveShape, ok := concave.Shape.(ConcaveShape)
	if !ok {
		return
	}
	if _, ok := convex.Shape.(ConvexShape); !ok {
		return
	}

	triMargin := concaveShape.Margin()
	resultOut.SetPersistentManifold(alg.manifold)
	alg.manifold.SetBodies(convex.Object, concave.Object)

	convexInTriangleSpace := concave.Transform.InverseTimes(convex.Transform)
	bb := convex.Shape.Aabb(convexInTriangleSpace).Grow(triMargin)

	concaveShape.ProcessAllTriangles(func(triangle [3]mgl64.Vec3, partID, triangleIndex int) {
		tri := NewTriangleShape(triangle[0], triangle[1], triangle[2])
		tri.SetMargin(triMargin)

		triCollider := Collider{
			Object:        concave.Object,
			Shape:         tri,
			Transform:     concave.Transform,
			Interpolation: concave.Interpolation,
			PartID:        partID,
			Index:         triangleIndex,
		}
		colAlgo := alg.dispatcher.FindAlgorithm(convex, &triCollider, alg.manifold)
		colAlgo.ProcessCollision(convex, &triCollider, info, resultOut)
		colAlgo.Destroy()
		alg.dispatcher.FreeAlgorithm(colAlgo)
	}, bb.Min, bb.Max)

	resultOut.RefreshContactPoints()
}

// CalculateTimeOfImpact sweeps the swept sphere of the convex body against the
// triangles along its motion, in the local space of the concave shape.
func (alg *convexConcaveAlgorithm) CalculateTimeOfImpact(a, b *Collider, info *DispatchInfo, resultOut *ManifoldResult) float64 {
	convex, concave := a, b
	if alg.swapped {
		convex, concave = b, a
	}
	obj := convex.Object

	squareMot0 := convex.Interpolation.Origin.Sub(convex.Transform.Origin).LenSqr()
	if squareMot0 < obj.ccdSquareMotionThreshold {
		return 1
	}

	concaveShape, ok := concave.Shape.(ConcaveShape)
	if !ok {
		return 1
	}

	triInv := concave.Transform.Inverse()
	convexFromLocal := triInv.Mult(convex.Transform)
	convexToLocal := triInv.Mult(convex.Interpolation)

	ccdRadius := obj.ccdSweptSphereRadius
	rayMin := minVec(convexFromLocal.Origin, convexToLocal.Origin).Sub(splat(ccdRadius))
	rayMax := maxVec(convexFromLocal.Origin, convexToLocal.Origin).Add(splat(ccdRadius))

	hitFraction := obj.hitFraction
	ident := NewTransformIdentity()
	sphere := NewSphereShape(ccdRadius)

	concaveShape.ProcessAllTriangles(func(triangle [3]mgl64.Vec3, partID, triangleIndex int) {
		tri := NewTriangleShape(triangle[0], triangle[1], triangle[2])
		result := NewCastResult()
		result.Fraction = hitFraction
		cast := newConvexCast(sphere, tri)
		if cast.CalcTimeOfImpact(convexFromLocal, convexToLocal, ident, ident, &result) {
			if hitFraction > result.Fraction {
				hitFraction = result.Fraction
			}
		}
	}, rayMin, rayMax)

	if hitFraction < obj.hitFraction {
		obj.hitFraction = hitFraction
		return hitFraction
	}
	return 1
}

func (alg *convexConcaveAlgorithm) AllContactManifolds(dst []*PersistentManifold) []*PersistentManifold {
	if alg.manifold != nil {
		dst = append(dst, alg.manifold)
	}
	return dst
}

func (alg *convexConcaveAlgorithm) Destroy() {
	if alg.manifold != nil {
		alg.manifold.ClearManifold()
		alg.dispatcher.ReleaseManifold(alg.manifold)
	}
	alg.manifold = nil
}
