package cm3

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

const (
	pooledBufferSize int     = 1024
	infinity         float64 = math.MaxFloat64
	// single precision epsilon, used by the iterative solvers as a relative tolerance
	fltEpsilon float64 = 1.1920929e-07
	largeFloat float64 = 1e18

	// MaxCachedPoints is the capacity of a PersistentManifold.
	MaxCachedPoints = 4
	// MaxFriction bounds the combined friction of a contact point.
	MaxFriction = 10.0

	// squared AABB extent above which an object is removed from simulation
	aabbOverflowLimit = 1e12

	defaultCollisionMargin = 0.04
)

// ActivationState is the sleep/wake state of a CollisionObject.
type ActivationState int

// Activation states
const (
	// Object takes part in the simulation.
	ActiveTag ActivationState = iota + 1
	// Object belongs to an island where every member came to rest.
	IslandSleeping
	// Object came to rest and waits for its island to follow.
	WantsDeactivation
	// Object never goes to sleep. Sticky, never downgraded by the island manager.
	DisableDeactivation
	// Object is excluded from simulation. Sticky, never downgraded by the island manager.
	DisableSimulation
)

func (s ActivationState) String() string {
	switch s {
	case ActiveTag:
		return "Active"
	case IslandSleeping:
		return "IslandSleeping"
	case WantsDeactivation:
		return "WantsDeactivation"
	case DisableDeactivation:
		return "DisableDeactivation"
	case DisableSimulation:
		return "DisableSimulation"
	}
	return fmt.Sprintf("ActivationState(%d)", int(s))
}

// Collision flags
const (
	CollisionFlagStaticObject uint = 1 << iota
	CollisionFlagKinematicObject
	CollisionFlagNoContactResponse
	CollisionFlagCustomMaterialCallback
)

const (
	// Value for group signifying that an object is in no group.
	NoGroup uint = 0
	// Value for filter categories signifying that an object is in every category.
	AllCategories uint = ^uint(0)
)

// ShapeFilterAll is a collision filter value for an object that will collide with
// anything except ShapeFilterNone.
var ShapeFilterAll = ShapeFilter{NoGroup, AllCategories, AllCategories}

// ShapeFilterNone is a collision filter value for an object that does not collide
// with anything.
var ShapeFilterNone = ShapeFilter{NoGroup, ^AllCategories, ^AllCategories}

// ShapeFilter is fast collision filtering type that is used to determine if two
// objects collide before the narrow phase or query callbacks run.
type ShapeFilter struct {
	// Two objects with the same non-zero group value do not collide.
	// This is generally used to group objects in a composite object together to disable self collisions.
	Group uint
	// A bitmask of user definable categories that this object belongs to.
	// The category/mask combinations of both objects in a collision must agree for a collision to occur.
	Categories uint
	// A bitmask of user definable category types that this object collides with.
	Mask uint
}

// Reject returns true if the two filters are incompatible: both share a non-zero
// group, or the category/mask combination of either side does not match the other.
func (sf ShapeFilter) Reject(other ShapeFilter) bool {
	return (sf.Group != 0 && sf.Group == other.Group) ||
		(sf.Categories&other.Mask) == 0 ||
		(other.Categories&sf.Mask) == 0
}

// ContactAddedFunc is called for every contact point accepted by a ManifoldResult
// when either object carries CollisionFlagCustomMaterialCallback. It may modify
// the combined friction and restitution of cp.
type ContactAddedFunc func(cp *ManifoldPoint, obj0 *CollisionObject, partID0, index0 int, obj1 *CollisionObject, partID1, index1 int) bool

// ContactProcessedFunc is called for every contact point that survives
// PersistentManifold.RefreshContactPoints.
type ContactProcessedFunc func(cp *ManifoldPoint, body0, body1 *CollisionObject) bool

// ContactDestroyedFunc is called with the user persistent data of a contact
// point when the point leaves its manifold.
type ContactDestroyedFunc func(userPersistentData any) bool

func clamp[T constraints.Float](f, min, max T) T {
	if f > min {
		if f < max {
			return f
		}
		return max
	}
	if min < max {
		return min
	}
	return max
}

func lerp[T constraints.Float](f1, f2, t T) T {
	return f1*(1.0-t) + f2*t
}

func lerpVec(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return mgl64.Vec3{lerp(a[0], b[0], t), lerp(a[1], b[1], t), lerp(a[2], b[2], t)}
}

func minVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

func maxVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}

func absVec(a mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Abs(a[0]), math.Abs(a[1]), math.Abs(a[2])}
}

func splat(f float64) mgl64.Vec3 {
	return mgl64.Vec3{f, f, f}
}

// normalizeOr returns v normalized, or fallback when v is too short to normalize.
func normalizeOr(v, fallback mgl64.Vec3) mgl64.Vec3 {
	l2 := v.LenSqr()
	if l2 < fltEpsilon*fltEpsilon {
		return fallback
	}
	return v.Mul(1 / math.Sqrt(l2))
}

// planeSpace returns two unit vectors orthogonal to n and to each other.
func planeSpace(n mgl64.Vec3) (p, q mgl64.Vec3) {
	if math.Abs(n[2]) > math.Sqrt2/2 {
		// choose p in y-z plane
		a := n[1]*n[1] + n[2]*n[2]
		k := 1 / math.Sqrt(a)
		p = mgl64.Vec3{0, -n[2] * k, n[1] * k}
		q = mgl64.Vec3{a * k, -n[0] * p[2], n[0] * p[1]}
		return
	}
	// choose p in x-y plane
	a := n[0]*n[0] + n[1]*n[1]
	k := 1 / math.Sqrt(a)
	p = mgl64.Vec3{-n[1] * k, n[0] * k, 0}
	q = mgl64.Vec3{-n[2] * p[1], n[2] * p[0], a * k}
	return
}

// maxAxis4 returns the index of the largest of the four values. Ties resolve to
// the lowest index.
func maxAxis4(v [4]float64) int {
	maxIndex := -1
	maxVal := -largeFloat
	for i, x := range v {
		if x > maxVal {
			maxIndex = i
			maxVal = x
		}
	}
	return maxIndex
}
