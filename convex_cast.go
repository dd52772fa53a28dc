package cm3

import "github.com/go-gl/mathgl/mgl64"

const (
	convexCastMaxIterations = 32
	// Distance at which conservative advancement stops.
	convexCastRadius = 0.001
)

// CastResult is the outcome of a time of impact query.
type CastResult struct {
	// Fraction of the motion at which the shapes touch, 1 when they never do.
	Fraction float64
	// Normal on the target shape pointing towards the caster, in world space.
	Normal mgl64.Vec3
	// HitPoint on the target shape in world space.
	HitPoint mgl64.Vec3
	// Penetration tolerated before a motion away from the normal is reported.
	AllowedPenetration float64
}

// NewCastResult returns a result with fraction 1.
func NewCastResult() CastResult {
	return CastResult{Fraction: 1}
}

// convexCast computes the time of impact of two moving convex shapes by
// conservative advancement on the closest points. Only the translation is
// interpolated, the rotation stays at the start transforms.
type convexCast struct {
	shapeA, shapeB ConvexShape
	maxIterations  int
}

func newConvexCast(a, b ConvexShape) *convexCast {
	return &convexCast{shapeA: a, shapeB: b}
}

// CalcTimeOfImpact returns true and fills result when A moving from fromA to
// toA touches B moving from fromB to toB.
func (cast *convexCast) CalcTimeOfImpact(fromA, toA, fromB, toB Transform, result *CastResult) bool {
	r := toA.Origin.Sub(fromA.Origin).Sub(toB.Origin.Sub(fromB.Origin))

	lambda := 0.0
	lastLambda := lambda

	gjk := newGjkPairDetector(cast.shapeA, cast.shapeB, nil, cast.maxIterations)
	input := DefaultClosestPointInput()
	input.TransformA = fromA
	input.TransformB = fromB

	collector := newPointCollector()
	gjk.ClosestPoints(&input, &collector)
	if !collector.hasResult {
		return false
	}

	dist := collector.distance
	n := collector.normalOnBInWorld
	c := collector.pointInWorld

	for numIter := 1; dist > convexCastRadius; numIter++ {
		if numIter > convexCastMaxIterations {
			return false
		}

		projectedLinearVelocity := r.Dot(n)
		if projectedLinearVelocity == 0 {
			return false
		}
		lambda -= dist / projectedLinearVelocity

		if lambda > 1 || lambda < 0 || lambda <= lastLambda {
			return false
		}
		lastLambda = lambda

		input.TransformA.Origin = lerpVec(fromA.Origin, toA.Origin, lambda)
		input.TransformB.Origin = lerpVec(fromB.Origin, toB.Origin, lambda)

		collector = newPointCollector()
		gjk.ClosestPoints(&input, &collector)
		if !collector.hasResult {
			return false
		}
		if collector.distance < 0 {
			result.Fraction = lastLambda
			result.Normal = collector.normalOnBInWorld
			result.HitPoint = collector.pointInWorld
			return true
		}
		c = collector.pointInWorld
		n = collector.normalOnBInWorld
		dist = collector.distance
	}

	// motion away from the contact normal is not an impact
	if n.Dot(r) >= -result.AllowedPenetration {
		return false
	}

	result.Fraction = lambda
	result.Normal = n
	result.HitPoint = c
	return true
}
