package cm3

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func fsel(a, b, c float64) float64 {
	if a >= 0 {
		return b
	}
	return c
}

// BoxShape is an axis aligned box centered on the local origin. The core box is
// the outer box shrunk by the margin.
type BoxShape struct {
	halfExtents mgl64.Vec3
	margin      float64
}

// NewBoxShape returns a box with the given half extents. The default margin is
// reduced when the box is thinner than twice the margin.
func NewBoxShape(halfExtents mgl64.Vec3) *BoxShape {
	halfExtents = absVec(halfExtents)
	return &BoxShape{
		halfExtents: halfExtents,
		margin:      math.Min(defaultCollisionMargin, minComponent(halfExtents)*0.5),
	}
}

func minComponent(v mgl64.Vec3) float64 {
	return math.Min(v[0], math.Min(v[1], v[2]))
}

func (box *BoxShape) Type() ShapeType {
	return BoxShapeType
}

func (box *BoxShape) Margin() float64 {
	return box.margin
}

// SetMargin changes the margin while keeping the outer extents. The margin is
// capped by the smallest half extent.
func (box *BoxShape) SetMargin(margin float64) {
	box.margin = math.Min(margin, minComponent(box.halfExtents))
}

// HalfExtents returns the outer half extents, margin included.
func (box *BoxShape) HalfExtents() mgl64.Vec3 {
	return box.halfExtents
}

// HalfExtentsWithoutMargin returns the half extents of the core box.
func (box *BoxShape) HalfExtentsWithoutMargin() mgl64.Vec3 {
	return box.halfExtents.Sub(splat(box.margin))
}

func (box *BoxShape) Aabb(t Transform) BB {
	return t.BB(mgl64.Vec3{}, box.halfExtents)
}

func (box *BoxShape) LocalSupportWithoutMargin(dir mgl64.Vec3) mgl64.Vec3 {
	he := box.HalfExtentsWithoutMargin()
	return mgl64.Vec3{fsel(dir[0], he[0], -he[0]), fsel(dir[1], he[1], -he[1]), fsel(dir[2], he[2], -he[2])}
}

// LocalSupport returns a corner of the outer box, so the full box keeps sharp edges.
func (box *BoxShape) LocalSupport(dir mgl64.Vec3) mgl64.Vec3 {
	he := box.halfExtents
	return mgl64.Vec3{fsel(dir[0], he[0], -he[0]), fsel(dir[1], he[1], -he[1]), fsel(dir[2], he[2], -he[2])}
}

// Vertices returns the eight outer corners of the box in local space.
func (box *BoxShape) Vertices() [8]mgl64.Vec3 {
	he := box.HalfExtents()
	var out [8]mgl64.Vec3
	for i := range out {
		out[i] = mgl64.Vec3{
			he[0] * float64(1-((i&1)<<1)),
			he[1] * float64(1-((i&2))),
			he[2] * float64(1-((i&4)>>1)),
		}
	}
	return out
}

// CapsuleShape is a capsule aligned with the local Y axis. Its core is the
// segment between the two cap centers and its margin is the radius.
type CapsuleShape struct {
	radius     float64
	halfHeight float64
}

// NewCapsuleShape returns a capsule whose cap centers are height apart.
func NewCapsuleShape(radius, height float64) *CapsuleShape {
	return &CapsuleShape{radius: radius, halfHeight: height * 0.5}
}

func (capsule *CapsuleShape) Type() ShapeType {
	return CapsuleShapeType
}

func (capsule *CapsuleShape) Radius() float64 {
	return capsule.radius
}

func (capsule *CapsuleShape) HalfHeight() float64 {
	return capsule.halfHeight
}

func (capsule *CapsuleShape) Margin() float64 {
	return capsule.radius
}

// SetMargin is a no-op, the margin of a capsule is its radius.
func (capsule *CapsuleShape) SetMargin(float64) {}

func (capsule *CapsuleShape) Aabb(t Transform) BB {
	e := t.Basis.Abs().Mul3x1(mgl64.Vec3{0, capsule.halfHeight, 0}).Add(splat(capsule.radius))
	return NewBBForExtents(t.Origin, e)
}

func (capsule *CapsuleShape) LocalSupportWithoutMargin(dir mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{0, fsel(dir[1], capsule.halfHeight, -capsule.halfHeight), 0}
}

func (capsule *CapsuleShape) LocalSupport(dir mgl64.Vec3) mgl64.Vec3 {
	return addMargin(capsule.LocalSupportWithoutMargin(dir), dir, capsule.radius)
}

// ConvexHullShape is the convex hull of a point cloud, inflated by the margin.
type ConvexHullShape struct {
	points []mgl64.Vec3
	margin float64
}

// NewConvexHullShape returns the hull of points. The points are copied.
func NewConvexHullShape(points []mgl64.Vec3) (*ConvexHullShape, error) {
	if len(points) == 0 {
		return nil, errors.New("cm3: convex hull needs at least one point")
	}
	return &ConvexHullShape{
		points: append([]mgl64.Vec3(nil), points...),
		margin: defaultCollisionMargin,
	}, nil
}

func (hull *ConvexHullShape) Type() ShapeType {
	return ConvexHullShapeType
}

func (hull *ConvexHullShape) Points() []mgl64.Vec3 {
	return hull.points
}

func (hull *ConvexHullShape) Margin() float64 {
	return hull.margin
}

func (hull *ConvexHullShape) SetMargin(margin float64) {
	hull.margin = margin
}

func (hull *ConvexHullShape) Aabb(t Transform) BB {
	return convexAabb(hull, t)
}

func (hull *ConvexHullShape) LocalSupportWithoutMargin(dir mgl64.Vec3) mgl64.Vec3 {
	return supportOfPoints(hull.points, dir)
}

func (hull *ConvexHullShape) LocalSupport(dir mgl64.Vec3) mgl64.Vec3 {
	return addMargin(supportOfPoints(hull.points, dir), dir, hull.margin)
}

func supportOfPoints(points []mgl64.Vec3, dir mgl64.Vec3) mgl64.Vec3 {
	best := points[0]
	maxDot := best.Dot(dir)
	for _, p := range points[1:] {
		if d := p.Dot(dir); d > maxDot {
			maxDot = d
			best = p
		}
	}
	return best
}

// TriangleShape is a single triangle. The narrow phase builds transient
// triangles while streaming concave shapes.
type TriangleShape struct {
	Vertices [3]mgl64.Vec3
	margin   float64
}

// NewTriangleShape returns a triangle with zero margin.
func NewTriangleShape(a, b, c mgl64.Vec3) *TriangleShape {
	return &TriangleShape{Vertices: [3]mgl64.Vec3{a, b, c}}
}

func (tri *TriangleShape) Type() ShapeType {
	return TriangleShapeType
}

func (tri *TriangleShape) Margin() float64 {
	return tri.margin
}

func (tri *TriangleShape) SetMargin(margin float64) {
	tri.margin = margin
}

// Normal returns the unit normal following the winding a→b→c.
func (tri *TriangleShape) Normal() mgl64.Vec3 {
	v := tri.Vertices
	return normalizeOr(v[1].Sub(v[0]).Cross(v[2].Sub(v[0])), mgl64.Vec3{0, 1, 0})
}

func (tri *TriangleShape) Aabb(t Transform) BB {
	v := tri.Vertices
	return triangleBB(t.Apply(v[0]), t.Apply(v[1]), t.Apply(v[2])).Grow(tri.margin)
}

func (tri *TriangleShape) LocalSupportWithoutMargin(dir mgl64.Vec3) mgl64.Vec3 {
	return supportOfPoints(tri.Vertices[:], dir)
}

func (tri *TriangleShape) LocalSupport(dir mgl64.Vec3) mgl64.Vec3 {
	return addMargin(supportOfPoints(tri.Vertices[:], dir), dir, tri.margin)
}
