package cm3

import "github.com/go-gl/mathgl/mgl64"

// SphereShape is a sphere centered on the local origin. Its core is a point and
// the radius is carried entirely by the margin.
type SphereShape struct {
	radius float64
}

// NewSphereShape returns a sphere of the given radius. A zero radius gives a
// point, which ray queries use as their caster.
func NewSphereShape(radius float64) *SphereShape {
	return &SphereShape{radius: radius}
}

func (sphere *SphereShape) Type() ShapeType {
	return SphereShapeType
}

func (sphere *SphereShape) Radius() float64 {
	return sphere.radius
}

func (sphere *SphereShape) Margin() float64 {
	return sphere.radius
}

// SetMargin is a no-op, the margin of a sphere is its radius.
func (sphere *SphereShape) SetMargin(float64) {}

func (sphere *SphereShape) Aabb(t Transform) BB {
	return NewBBForSphere(t.Origin, sphere.radius)
}

func (sphere *SphereShape) LocalSupportWithoutMargin(mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{}
}

func (sphere *SphereShape) LocalSupport(dir mgl64.Vec3) mgl64.Vec3 {
	return normalizeOr(dir, mgl64.Vec3{1, 0, 0}).Mul(sphere.radius)
}
