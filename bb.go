package cm3

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BB is an axis-aligned 3D bounding box.
type BB struct {
	Min, Max mgl64.Vec3
}

// NewBB is convenience constructor for BB structs.
func NewBB(min, max mgl64.Vec3) BB {
	return BB{Min: min, Max: max}
}

func (bb BB) String() string {
	return fmt.Sprintf("%v %v", bb.Min, bb.Max)
}

// NewBBForExtents constructs a BB centered on a point with the given extents (half sizes).
func NewBBForExtents(c, halfExtents mgl64.Vec3) BB {
	return BB{
		Min: c.Sub(halfExtents),
		Max: c.Add(halfExtents),
	}
}

// NewBBForSphere constructs a BB for a sphere with the given position and radius.
func NewBBForSphere(p mgl64.Vec3, r float64) BB {
	return NewBBForExtents(p, splat(r))
}

// Intersects returns true if a and b intersect.
func (bb BB) Intersects(b BB) bool {
	return bb.Min[0] <= b.Max[0] && b.Min[0] <= bb.Max[0] &&
		bb.Min[1] <= b.Max[1] && b.Min[1] <= bb.Max[1] &&
		bb.Min[2] <= b.Max[2] && b.Min[2] <= bb.Max[2]
}

// Contains returns true if other lies completely within bb.
func (bb BB) Contains(other BB) bool {
	return bb.Min[0] <= other.Min[0] && bb.Max[0] >= other.Max[0] &&
		bb.Min[1] <= other.Min[1] && bb.Max[1] >= other.Max[1] &&
		bb.Min[2] <= other.Min[2] && bb.Max[2] >= other.Max[2]
}

// ContainsVect returns true if bb contains v.
func (bb BB) ContainsVect(v mgl64.Vec3) bool {
	return bb.Min[0] <= v[0] && bb.Max[0] >= v[0] &&
		bb.Min[1] <= v[1] && bb.Max[1] >= v[1] &&
		bb.Min[2] <= v[2] && bb.Max[2] >= v[2]
}

// Merge returns a bounding box that holds both bounding boxes.
func (bb BB) Merge(b BB) BB {
	return BB{minVec(bb.Min, b.Min), maxVec(bb.Max, b.Max)}
}

// Expand returns a bounding box that holds both bb and v.
func (bb BB) Expand(v mgl64.Vec3) BB {
	return BB{minVec(bb.Min, v), maxVec(bb.Max, v)}
}

// Grow returns bb enlarged by d on every side.
func (bb BB) Grow(d float64) BB {
	e := splat(d)
	return BB{bb.Min.Sub(e), bb.Max.Add(e)}
}

// Minkowski returns bb enlarged by the extents of other, as if other were swept
// over every point of bb.
func (bb BB) Minkowski(other BB) BB {
	return BB{bb.Min.Add(other.Min), bb.Max.Add(other.Max)}
}

// Center returns the center of a bounding box.
func (bb BB) Center() mgl64.Vec3 {
	return bb.Min.Add(bb.Max).Mul(0.5)
}

// HalfExtents returns the half sizes of a bounding box.
func (bb BB) HalfExtents() mgl64.Vec3 {
	return bb.Max.Sub(bb.Min).Mul(0.5)
}

// Area returns the surface area of the bounding box.
func (bb BB) Area() float64 {
	d := bb.Max.Sub(bb.Min)
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}

// MergedArea merges a and b and returns the surface area of the merged bounding box.
func (bb BB) MergedArea(b BB) float64 {
	return bb.Merge(b).Area()
}

// Proximity returns the Manhattan distance between the centers of a and b,
// scaled by two.
func (bb BB) Proximity(b BB) float64 {
	d := bb.Min.Add(bb.Max).Sub(b.Min.Add(b.Max))
	return math.Abs(d[0]) + math.Abs(d[1]) + math.Abs(d[2])
}

// SegmentQuery returns the fraction along the segment a→b at which the BB is
// entered, 0 when a is inside. Returns infinity if it doesn't hit.
func (bb BB) SegmentQuery(a, b mgl64.Vec3) float64 {
	delta := b.Sub(a)
	tmin := -infinity
	tmax := infinity

	for i := 0; i < 3; i++ {
		if delta[i] == 0 {
			if a[i] < bb.Min[i] || bb.Max[i] < a[i] {
				return infinity
			}
			continue
		}
		t1 := (bb.Min[i] - a[i]) / delta[i]
		t2 := (bb.Max[i] - a[i]) / delta[i]
		tmin = math.Max(tmin, math.Min(t1, t2))
		tmax = math.Min(tmax, math.Max(t1, t2))
	}

	if tmin <= tmax && 0 <= tmax && tmin <= 1.0 {
		return math.Max(tmin, 0.0)
	}
	return infinity
}

// IntersectsSegment returns true if the bounding box intersects the line segment with ends a and b.
func (bb BB) IntersectsSegment(a, b mgl64.Vec3) bool {
	return bb.SegmentQuery(a, b) != infinity
}

// RayHit tests the segment from→to against bb, accepting only entry fractions
// below maxFraction. It returns the entry fraction and the outward normal of the
// face that was entered. A segment starting inside the box reports fraction 0
// and a zero normal.
func (bb BB) RayHit(from, to mgl64.Vec3, maxFraction float64) (fraction float64, normal mgl64.Vec3, ok bool) {
	t := bb.SegmentQuery(from, to)
	if t == infinity || t > maxFraction {
		return 0, mgl64.Vec3{}, false
	}
	if t == 0 {
		return 0, mgl64.Vec3{}, true
	}
	p := lerpVec(from, to, t)
	best := infinity
	for i := 0; i < 3; i++ {
		if d := math.Abs(p[i] - bb.Min[i]); d < best {
			best = d
			normal = mgl64.Vec3{}
			normal[i] = -1
		}
		if d := math.Abs(p[i] - bb.Max[i]); d < best {
			best = d
			normal = mgl64.Vec3{}
			normal[i] = 1
		}
	}
	return t, normal, true
}

// ClampVect clamps a vector to bounding box.
func (bb BB) ClampVect(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		clamp(v[0], bb.Min[0], bb.Max[0]),
		clamp(v[1], bb.Min[1], bb.Max[1]),
		clamp(v[2], bb.Min[2], bb.Max[2]),
	}
}

// triangleBB returns the bounding box of a triangle.
func triangleBB(a, b, c mgl64.Vec3) BB {
	return BB{minVec(a, minVec(b, c)), maxVec(a, maxVec(b, c))}
}
