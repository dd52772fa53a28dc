package cm3

import (
	"fmt"
	"slices"
)

// CompoundChild is a child shape placed in the local frame of a CompoundShape.
type CompoundChild struct {
	Transform Transform
	Shape     CollisionShape
}

// CompoundShape groups child shapes with local transforms. Children may be
// compounds themselves.
type CompoundShape struct {
	children []CompoundChild
	localBB  BB
	margin   float64
	revision int
}

// NewCompoundShape returns an empty compound.
func NewCompoundShape() *CompoundShape {
	return &CompoundShape{}
}

func (compound *CompoundShape) Type() ShapeType {
	return CompoundShapeType
}

// AddChildShape appends shape at the local transform t.
func (compound *CompoundShape) AddChildShape(t Transform, shape CollisionShape) {
	compound.children = append(compound.children, CompoundChild{Transform: t, Shape: shape})
	compound.RecalculateLocalBB()
}

// RemoveChildShapeByIndex removes a child. The order of the remaining children is kept.
func (compound *CompoundShape) RemoveChildShapeByIndex(index int) {
	if index < 0 || index >= len(compound.children) {
		panic(fmt.Sprintf("cm3: compound child index %d out of range", index))
	}
	compound.children = slices.Delete(compound.children, index, index+1)
	compound.RecalculateLocalBB()
}

func (compound *CompoundShape) NumChildShapes() int {
	return len(compound.children)
}

func (compound *CompoundShape) ChildShape(index int) CollisionShape {
	return compound.children[index].Shape
}

func (compound *CompoundShape) ChildTransform(index int) Transform {
	return compound.children[index].Transform
}

// Revision changes whenever children are added or removed or the bounds are
// recalculated. Collision algorithms rebuild their child algorithms on change.
func (compound *CompoundShape) Revision() int {
	return compound.revision
}

// RecalculateLocalBB refreshes the cached bounds. Call it after a child shape
// has been modified in place.
func (compound *CompoundShape) RecalculateLocalBB() {
	compound.revision++
	if len(compound.children) == 0 {
		compound.localBB = BB{}
		return
	}
	compound.localBB = compound.children[0].Shape.Aabb(compound.children[0].Transform)
	for _, child := range compound.children[1:] {
		compound.localBB = compound.localBB.Merge(child.Shape.Aabb(child.Transform))
	}
}

func (compound *CompoundShape) Margin() float64 {
	return compound.margin
}

func (compound *CompoundShape) SetMargin(margin float64) {
	compound.margin = margin
}

func (compound *CompoundShape) Aabb(t Transform) BB {
	return t.BB(compound.localBB.Center(), compound.localBB.HalfExtents()).Grow(compound.margin)
}
