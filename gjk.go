package cm3

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	gjkRelError2 = 1e-6
	// Squared length under which a separating axis counts as degenerate.
	gjkDegenerateAxis = 1e-4
	// Penetration below which a degenerate simplex is double checked by EPA.
	gjkDegeneratePenetration = 0.01
)

// ContactResult receives the contacts found by the narrow phase.
type ContactResult interface {
	// SetShapeIdentifiers tags the following contacts with the mesh part and
	// triangle (or compound child) on each side.
	SetShapeIdentifiers(partID0, index0, partID1, index1 int)
	// AddContactPoint reports a contact. normalOnBInWorld points from B
	// towards A, pointInWorld lies on B and depth is negative when the shapes
	// overlap.
	AddContactPoint(normalOnBInWorld, pointInWorld mgl64.Vec3, depth float64)
}

// ClosestPointInput places the two shapes of a gjkPairDetector query.
type ClosestPointInput struct {
	TransformA, TransformB Transform
	// Squared distance beyond which the query may stop without a result.
	MaximumDistanceSquared float64
}

// DefaultClosestPointInput returns an input at identity transforms with an
// unbounded search distance.
func DefaultClosestPointInput() ClosestPointInput {
	return ClosestPointInput{
		TransformA:             NewTransformIdentity(),
		TransformB:             NewTransformIdentity(),
		MaximumDistanceSquared: largeFloat,
	}
}

// gjkPairDetector finds the closest points of two convex shapes. The iteration
// runs on the core shapes, margins are added back at the end. Overlapping cores
// are handed to the penetration solver.
type gjkPairDetector struct {
	shapeA, shapeB       ConvexShape
	cachedSeparatingAxis mgl64.Vec3
	ignoreMargin         bool
	penetration          *epaPenetrationSolver // nil disables penetration depth

	maxIterations     int
	lastUsedMethod    int
	curIter           int
	degenerateSimplex int
	catchDegeneracies bool
}

func newGjkPairDetector(a, b ConvexShape, penetration *epaPenetrationSolver, maxIterations int) *gjkPairDetector {
	if maxIterations <= 0 {
		maxIterations = DefaultConfig().GjkMaxIterations
	}
	return &gjkPairDetector{
		shapeA:               a,
		shapeB:               b,
		cachedSeparatingAxis: mgl64.Vec3{0, 1, 0},
		penetration:          penetration,
		maxIterations:        maxIterations,
		lastUsedMethod:       -1,
		catchDegeneracies:    true,
	}
}

// ClosestPoints runs the query and reports at most one contact to output.
func (gjk *gjkPairDetector) ClosestPoints(input *ClosestPointInput, output ContactResult) {
	var distance float64
	var normalInB, pointOnA, pointOnB mgl64.Vec3

	localTransA := input.TransformA
	localTransB := input.TransformB
	positionOffset := localTransA.Origin.Add(localTransB.Origin).Mul(0.5)
	localTransA.Origin = localTransA.Origin.Sub(positionOffset)
	localTransB.Origin = localTransB.Origin.Sub(positionOffset)

	marginA := gjk.shapeA.Margin()
	marginB := gjk.shapeB.Margin()
	if gjk.ignoreMargin {
		marginA, marginB = 0, 0
	}

	gjk.curIter = 0
	gjk.cachedSeparatingAxis = mgl64.Vec3{0, 1, 0}
	gjk.degenerateSimplex = 0
	gjk.lastUsedMethod = -1

	isValid := false
	checkSimplex := false
	checkPenetration := true

	squaredDistance := largeFloat
	margin := marginA + marginB

	simplex := getSimplexSolver()
	defer putSimplexSolver(simplex)

	for {
		sepAxisInA := localTransA.InvApplyVector(gjk.cachedSeparatingAxis.Mul(-1))
		sepAxisInB := localTransB.InvApplyVector(gjk.cachedSeparatingAxis)

		pWorld := localTransA.Apply(gjk.shapeA.LocalSupportWithoutMargin(sepAxisInA))
		qWorld := localTransB.Apply(gjk.shapeB.LocalSupportWithoutMargin(sepAxisInB))
		w := pWorld.Sub(qWorld)

		delta := gjk.cachedSeparatingAxis.Dot(w)

		// potential exit, the shapes are further apart than the search distance
		if delta > 0 && delta*delta > squaredDistance*input.MaximumDistanceSquared {
			checkSimplex = true
			break
		}

		// no progress, w is already part of the simplex
		if simplex.inSimplex(w) {
			gjk.degenerateSimplex = 1
			checkSimplex = true
			break
		}

		f0 := squaredDistance - delta
		f1 := squaredDistance * gjkRelError2
		if f0 <= f1 {
			if f0 <= 0 {
				gjk.degenerateSimplex = 2
			}
			checkSimplex = true
			break
		}

		simplex.addVertex(w, pWorld, qWorld)

		axis, ok := simplex.closest()
		gjk.cachedSeparatingAxis = axis
		if !ok {
			gjk.degenerateSimplex = 3
			checkSimplex = true
			break
		}

		if axis.LenSqr() < gjkRelError2 {
			gjk.degenerateSimplex = 6
			checkSimplex = true
			break
		}

		previousSquaredDistance := squaredDistance
		squaredDistance = axis.LenSqr()

		if previousSquaredDistance-squaredDistance <= fltEpsilon*previousSquaredDistance {
			gjk.cachedSeparatingAxis = simplex.backupClosest()
			checkSimplex = true
			break
		}

		if gjk.curIter > gjk.maxIterations {
			break
		}
		gjk.curIter++

		if simplex.fullSimplex() {
			gjk.cachedSeparatingAxis = simplex.backupClosest()
			break
		}
	}

	if checkSimplex {
		pointOnA, pointOnB = simplex.computePoints()
		normalInB = pointOnA.Sub(pointOnB)
		lenSqr := gjk.cachedSeparatingAxis.LenSqr()
		if lenSqr < gjkDegenerateAxis {
			gjk.degenerateSimplex = 5
		}
		if lenSqr > fltEpsilon*fltEpsilon {
			rlen := 1 / math.Sqrt(lenSqr)
			normalInB = normalInB.Mul(rlen)
			s := math.Sqrt(squaredDistance)
			pointOnA = pointOnA.Sub(gjk.cachedSeparatingAxis.Mul(marginA / s))
			pointOnB = pointOnB.Add(gjk.cachedSeparatingAxis.Mul(marginB / s))
			distance = 1/rlen - margin
			isValid = true
			gjk.lastUsedMethod = 1
		} else {
			gjk.lastUsedMethod = 2
		}
	}

	catchDegeneratePenetrationCase := gjk.catchDegeneracies && gjk.penetration != nil &&
		gjk.degenerateSimplex != 0 && distance+margin < gjkDegeneratePenetration

	if checkPenetration && (!isValid || catchDegeneratePenetrationCase) && gjk.penetration != nil {
		tmpA, tmpB, ok := gjk.penetration.calcPenDepth(gjk.shapeA, gjk.shapeB, localTransA, localTransB, gjk.cachedSeparatingAxis)
		if ok {
			tmpNormalInB := tmpB.Sub(tmpA)
			lenSqr := tmpNormalInB.LenSqr()
			if lenSqr > fltEpsilon*fltEpsilon {
				tmpNormalInB = tmpNormalInB.Mul(1 / math.Sqrt(lenSqr))
				distance2 := -tmpA.Sub(tmpB).Len()
				if !isValid || distance2 < distance {
					distance = distance2
					pointOnA = tmpA
					pointOnB = tmpB
					normalInB = tmpNormalInB
					isValid = true
					gjk.lastUsedMethod = 3
				} else {
					gjk.lastUsedMethod = 8
				}
			} else {
				gjk.lastUsedMethod = 9
			}
		} else {
			gjk.lastUsedMethod = 5
		}
	}

	if isValid {
		output.AddContactPoint(normalInB, pointOnB.Add(positionOffset), distance)
	}
}

// pointCollector is a ContactResult that keeps the deepest contact reported.
type pointCollector struct {
	normalOnBInWorld mgl64.Vec3
	pointInWorld     mgl64.Vec3
	distance         float64
	hasResult        bool
}

func newPointCollector() pointCollector {
	return pointCollector{distance: largeFloat}
}

func (pc *pointCollector) SetShapeIdentifiers(partID0, index0, partID1, index1 int) {}

func (pc *pointCollector) AddContactPoint(normalOnBInWorld, pointInWorld mgl64.Vec3, depth float64) {
	if depth < pc.distance {
		pc.hasResult = true
		pc.normalOnBInWorld = normalOnBInWorld
		pc.pointInWorld = pointInWorld
		pc.distance = depth
	}
}
