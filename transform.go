package cm3

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform represents a 3D rigid transformation: an orthonormal rotation
// basis followed by a translation.
//
// A point p is mapped as:
//
//	p' = Basis * p + Origin
//
// Where:
//   - Basis: a 3x3 rotation matrix (column-major, as mgl64 stores it).
//   - Origin: the translation, also the position of the local frame in its parent.
//
// Transforms compose right to left, so parent.Mult(child) maps child-local points
// into the parent's parent frame.
type Transform struct {
	Basis  mgl64.Mat3
	Origin mgl64.Vec3
}

// NewTransformIdentity creates and returns an identity transformation.
func NewTransformIdentity() Transform {
	return Transform{Basis: mgl64.Ident3()}
}

// NewTransform returns a rigid transformation from a rotation and a translation.
//
// Parameters:
//   - rotation: orientation of the frame. It is normalized before use.
//   - origin: position of the frame.
func NewTransform(rotation mgl64.Quat, origin mgl64.Vec3) Transform {
	return Transform{
		Basis:  rotation.Normalize().Mat4().Mat3(),
		Origin: origin,
	}
}

// NewTransformTranslate returns a new transformation with translation only.
func NewTransformTranslate(translate mgl64.Vec3) Transform {
	return Transform{Basis: mgl64.Ident3(), Origin: translate}
}

// NewTransformRotate returns a new transformation rotating by angle radians around axis.
func NewTransformRotate(angle float64, axis mgl64.Vec3) Transform {
	return NewTransform(mgl64.QuatRotate(angle, axis.Normalize()), mgl64.Vec3{})
}

// Apply applies the transformation to a point p and returns the transformed point.
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Basis.Mul3x1(p).Add(t.Origin)
}

// ApplyVector rotates the direction v without translating it.
func (t Transform) ApplyVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.Basis.Mul3x1(v)
}

// InvApply maps a point from the parent frame back into the local frame.
func (t Transform) InvApply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Basis.Transpose().Mul3x1(p.Sub(t.Origin))
}

// InvApplyVector maps a direction from the parent frame back into the local frame.
func (t Transform) InvApplyVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.Basis.Transpose().Mul3x1(v)
}

// Mult multiplies this and t2
//
// Parameters:
//
//   - t2 - The Transform to be multiplied with the receiver.
//
// Returns:
//
//   - A new Transform that applies t2 first, then t.
func (t Transform) Mult(t2 Transform) Transform {
	return Transform{
		Basis:  t.Basis.Mul3(t2.Basis),
		Origin: t.Apply(t2.Origin),
	}
}

// Inverse returns the inverse of the rigid transformation t.
func (t Transform) Inverse() Transform {
	inv := t.Basis.Transpose()
	return Transform{
		Basis:  inv,
		Origin: inv.Mul3x1(t.Origin).Mul(-1),
	}
}

// InverseTimes returns t^-1 * t2, the frame of t2 expressed in the local frame of t.
func (t Transform) InverseTimes(t2 Transform) Transform {
	inv := t.Basis.Transpose()
	return Transform{
		Basis:  inv.Mul3(t2.Basis),
		Origin: inv.Mul3x1(t2.Origin.Sub(t.Origin)),
	}
}

// Rotation returns the orientation of t as a quaternion.
func (t Transform) Rotation() mgl64.Quat {
	return mgl64.Mat4ToQuat(t.Basis.Mat4()).Normalize()
}

// ApproxEqual reports whether t and t2 are equal within a threshold of 1e-6.
// Components near zero are compared against the squared threshold, see
// mgl64.FloatEqualThreshold.
func (t Transform) ApproxEqual(t2 Transform) bool {
	return t.ApproxEqualThreshold(t2, 1e-6)
}

func (t Transform) ApproxEqualThreshold(t2 Transform, threshold float64) bool {
	return t.Basis.ApproxEqualThreshold(t2.Basis, threshold) && t.Origin.ApproxEqualThreshold(t2.Origin, threshold)
}

// BB returns the world AABB of the local box given by its center and half extents.
func (t Transform) BB(center, halfExtents mgl64.Vec3) BB {
	abs := t.Basis.Abs()
	c := t.Apply(center)
	e := abs.Mul3x1(halfExtents)
	return BB{Min: c.Sub(e), Max: c.Add(e)}
}

// CalculateVelocity derives the linear and angular velocity that moves from
// into to over timeStep seconds.
//
// Parameters:
//   - from, to: start and end frames.
//   - timeStep: duration of the motion. Must be positive.
//
// Returns:
//   - linVel: translation per second.
//   - angVel: rotation axis scaled by the rotation speed in radians per second.
func CalculateVelocity(from, to Transform, timeStep float64) (linVel, angVel mgl64.Vec3) {
	linVel = to.Origin.Sub(from.Origin).Mul(1 / timeStep)
	axis, angle := diffAxisAngle(from, to)
	angVel = axis.Mul(angle / timeStep)
	return
}

func diffAxisAngle(from, to Transform) (axis mgl64.Vec3, angle float64) {
	dmat := to.Basis.Mul3(from.Basis.Transpose())
	dorn := mgl64.Mat4ToQuat(dmat.Mat4()).Normalize()
	if dorn.W < 0 {
		dorn = dorn.Scale(-1)
	}
	angle = 2 * math.Acos(clamp(dorn.W, -1, 1))
	axis = dorn.V
	l2 := axis.LenSqr()
	if l2 < fltEpsilon*fltEpsilon {
		return mgl64.Vec3{1, 0, 0}, 0
	}
	return axis.Mul(1 / math.Sqrt(l2)), angle
}
