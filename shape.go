package cm3

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType tags a CollisionShape for algorithm selection. The order groups the
// categories: convex types first, then concave, then compound.
type ShapeType int

// Shape types
const (
	BoxShapeType ShapeType = iota
	TriangleShapeType
	ConvexHullShapeType
	SphereShapeType
	CapsuleShapeType
	TriangleMeshShapeType
	StaticPlaneShapeType
	CompoundShapeType
	EmptyShapeType

	ShapeTypeNum
)

const concaveShapesStart = TriangleMeshShapeType

var shapeTypeNames = [...]string{
	BoxShapeType:          "Box",
	TriangleShapeType:     "Triangle",
	ConvexHullShapeType:   "ConvexHull",
	SphereShapeType:       "Sphere",
	CapsuleShapeType:      "Capsule",
	TriangleMeshShapeType: "TriangleMesh",
	StaticPlaneShapeType:  "StaticPlane",
	CompoundShapeType:     "Compound",
	EmptyShapeType:        "Empty",
}

func (t ShapeType) String() string {
	if t >= 0 && int(t) < len(shapeTypeNames) {
		return shapeTypeNames[t]
	}
	return fmt.Sprintf("ShapeType(%d)", int(t))
}

// IsConvex reports whether shapes of type t implement ConvexShape.
func (t ShapeType) IsConvex() bool {
	return t >= 0 && t < concaveShapesStart
}

// IsConcave reports whether shapes of type t implement ConcaveShape.
func (t ShapeType) IsConcave() bool {
	return t >= concaveShapesStart && t < CompoundShapeType
}

// IsCompound reports whether t is the compound shape type.
func (t ShapeType) IsCompound() bool {
	return t == CompoundShapeType
}

// CollisionShape is the geometry capability consumed by the narrow phase.
// Shapes are immutable while they are part of a world and may be shared by
// several objects.
type CollisionShape interface {
	Type() ShapeType
	// Aabb returns the world bounds of the shape placed at t, margin included.
	Aabb(t Transform) BB
	Margin() float64
	SetMargin(margin float64)
}

// ConvexShape is a CollisionShape that can answer support point queries.
type ConvexShape interface {
	CollisionShape
	// LocalSupport returns the furthest point of the shape along dir, margin included.
	LocalSupport(dir mgl64.Vec3) mgl64.Vec3
	// LocalSupportWithoutMargin returns the furthest point of the core shape along dir.
	LocalSupportWithoutMargin(dir mgl64.Vec3) mgl64.Vec3
}

// TriangleCallback receives the triangles enumerated by a ConcaveShape.
type TriangleCallback func(triangle [3]mgl64.Vec3, partID, triangleIndex int)

// ConcaveShape is a CollisionShape that is only available as a stream of triangles.
type ConcaveShape interface {
	CollisionShape
	// ProcessAllTriangles calls cb for every triangle whose bounds overlap the
	// local space box [aabbMin, aabbMax].
	ProcessAllTriangles(cb TriangleCallback, aabbMin, aabbMax mgl64.Vec3)
}

// AngularMotionDisc returns the radius of the sphere around the local origin
// that contains the shape.
func AngularMotionDisc(shape CollisionShape) float64 {
	bb := shape.Aabb(NewTransformIdentity())
	return bb.Center().Len() + bb.HalfExtents().Len()
}

// convexAabb computes the bounds of a convex shape from six support queries.
func convexAabb(s ConvexShape, t Transform) BB {
	var bb BB
	for i := 0; i < 3; i++ {
		var axis mgl64.Vec3
		axis[i] = 1
		dir := t.InvApplyVector(axis)
		bb.Max[i] = t.Apply(s.LocalSupport(dir))[i]
		bb.Min[i] = t.Apply(s.LocalSupport(dir.Mul(-1)))[i]
	}
	return bb
}

// addMargin moves a core support point outwards by margin along dir.
func addMargin(p, dir mgl64.Vec3, margin float64) mgl64.Vec3 {
	if margin == 0 {
		return p
	}
	n := normalizeOr(dir, mgl64.Vec3{-1, -1, -1}.Normalize())
	return p.Add(n.Mul(margin))
}

// worldSupport returns the support point of s placed at t along the world direction dir.
func worldSupport(s ConvexShape, t Transform, dir mgl64.Vec3) mgl64.Vec3 {
	return t.Apply(s.LocalSupport(t.InvApplyVector(dir)))
}

// EmptyShape has no geometry. Pairs involving it never produce contacts.
type EmptyShape struct{}

// NewEmptyShape returns a shape without geometry.
func NewEmptyShape() *EmptyShape {
	return &EmptyShape{}
}

func (*EmptyShape) Type() ShapeType { return EmptyShapeType }

func (*EmptyShape) Aabb(t Transform) BB {
	return BB{Min: t.Origin, Max: t.Origin}
}

func (*EmptyShape) Margin() float64 { return 0 }

func (*EmptyShape) SetMargin(float64) {}

// temporalAabb returns the bounds of shape placed at t and moving with linVel
// and angVel for timeStep seconds.
func temporalAabb(shape CollisionShape, t Transform, linVel, angVel mgl64.Vec3, timeStep float64) BB {
	bb := shape.Aabb(t)
	linMotion := linVel.Mul(timeStep)
	bb.Min = bb.Min.Add(minVec(linMotion, mgl64.Vec3{}))
	bb.Max = bb.Max.Add(maxVec(linMotion, mgl64.Vec3{}))
	angularMotion := angVel.Len() * AngularMotionDisc(shape) * timeStep
	return bb.Grow(angularMotion)
}
