package cm3

// Collider is the view of a CollisionObject that the narrow phase works on.
// Compound and mesh traversal derive child colliders that carry a child shape
// and a composed transform while Object keeps pointing at the body that owns
// them. The body itself is never modified by a traversal.
type Collider struct {
	Object        *CollisionObject
	Shape         CollisionShape
	Transform     Transform
	Interpolation Transform
	// PartID and Index identify the mesh part and triangle, or the compound
	// child, the shape was taken from. -1 when the shape is the object's own.
	PartID int
	Index  int
}

// NewCollider returns the collider of obj with its own shape and transforms.
func NewCollider(obj *CollisionObject) Collider {
	return Collider{
		Object:        obj,
		Shape:         obj.shape,
		Transform:     obj.worldTransform,
		Interpolation: obj.interpolationWorldTransform,
		PartID:        -1,
		Index:         -1,
	}
}

// Child returns a collider for a child shape placed at local inside c.
func (c *Collider) Child(shape CollisionShape, local Transform, index int) Collider {
	return Collider{
		Object:        c.Object,
		Shape:         shape,
		Transform:     c.Transform.Mult(local),
		Interpolation: c.Interpolation.Mult(local),
		PartID:        c.PartID,
		Index:         index,
	}
}
