package cm3

import "github.com/go-gl/mathgl/mgl64"

// triangleRaycaster intersects a segment with streamed triangles. The segment
// lives in the local space of the concave shape.
type triangleRaycaster struct {
	from, to    mgl64.Vec3
	hitFraction float64
	// reportHit receives the unit normal facing the segment start and returns
	// the new maximum hit fraction.
	reportHit func(normalLocal mgl64.Vec3, fraction float64, partID, triangleIndex int) float64
}

func (rc *triangleRaycaster) processTriangle(triangle [3]mgl64.Vec3, partID, triangleIndex int) {
	vert0, vert1, vert2 := triangle[0], triangle[1], triangle[2]

	triangleNormal := vert1.Sub(vert0).Cross(vert2.Sub(vert0))
	dist := vert0.Dot(triangleNormal)
	distA := triangleNormal.Dot(rc.from) - dist
	distB := triangleNormal.Dot(rc.to) - dist

	// both ends on the same side
	if distA*distB >= 0 {
		return
	}

	distance := distA / (distA - distB)
	if distance >= rc.hitFraction {
		return
	}

	edgeTolerance := triangleNormal.LenSqr() * -0.0001
	point := lerpVec(rc.from, rc.to, distance)
	v0p := vert0.Sub(point)
	v1p := vert1.Sub(point)
	if v0p.Cross(v1p).Dot(triangleNormal) < edgeTolerance {
		return
	}
	v2p := vert2.Sub(point)
	if v1p.Cross(v2p).Dot(triangleNormal) < edgeTolerance {
		return
	}
	if v2p.Cross(v0p).Dot(triangleNormal) < edgeTolerance {
		return
	}

	n := triangleNormal.Normalize()
	if distA <= 0 {
		n = n.Mul(-1)
	}
	rc.hitFraction = rc.reportHit(n, distance, partID, triangleIndex)
}

// triangleConvexcaster sweeps a convex shape against streamed triangles that
// are placed in the world by triangleToWorld.
type triangleConvexcaster struct {
	castShape          ConvexShape
	from, to           Transform
	triangleToWorld    Transform
	triangleMargin     float64
	allowedPenetration float64
	hitFraction        float64
	// reportHit receives world space normal and hit point and returns the new
	// maximum hit fraction.
	reportHit func(normal, point mgl64.Vec3, fraction float64, partID, triangleIndex int) float64
}

func (cc *triangleConvexcaster) processTriangle(triangle [3]mgl64.Vec3, partID, triangleIndex int) {
	tri := NewTriangleShape(triangle[0], triangle[1], triangle[2])
	tri.SetMargin(cc.triangleMargin)

	result := NewCastResult()
	result.Fraction = cc.hitFraction
	result.AllowedPenetration = cc.allowedPenetration

	cast := newConvexCast(cc.castShape, tri)
	if !cast.CalcTimeOfImpact(cc.from, cc.to, cc.triangleToWorld, cc.triangleToWorld, &result) {
		return
	}
	if result.Normal.LenSqr() > 0.0001 && result.Fraction < cc.hitFraction {
		cc.hitFraction = cc.reportHit(result.Normal.Normalize(), result.HitPoint, result.Fraction, partID, triangleIndex)
	}
}
