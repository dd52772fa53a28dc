package cm3

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// MeshPart is one indexed triangle list of a TriangleMeshShape. Every three
// indices form a triangle.
type MeshPart struct {
	Vertices []mgl64.Vec3
	Indices  []int
}

// meshTriangle addresses a triangle inside a TriangleMeshShape.
type meshTriangle struct {
	part, index int32
}

// TriangleMeshShape is a static concave mesh. Triangles are indexed by a BBTree
// so that streaming only visits the triangles near the query box.
type TriangleMeshShape struct {
	parts    []MeshPart
	tree     *BBTree[meshTriangle]
	localBB  BB
	margin   float64
	numTris  int
	hasBound bool
}

// NewTriangleMeshShape returns a mesh made of a single part.
func NewTriangleMeshShape(vertices []mgl64.Vec3, indices []int) (*TriangleMeshShape, error) {
	mesh := &TriangleMeshShape{tree: NewBBTree[meshTriangle](0)}
	if err := mesh.AddMeshPart(MeshPart{Vertices: vertices, Indices: indices}); err != nil {
		return nil, err
	}
	return mesh, nil
}

// AddMeshPart appends a part to the mesh. The part id reported to triangle
// callbacks is the order of insertion.
func (mesh *TriangleMeshShape) AddMeshPart(part MeshPart) error {
	if len(part.Indices)%3 != 0 {
		return fmt.Errorf("cm3: index count %d is not a multiple of 3", len(part.Indices))
	}
	for _, idx := range part.Indices {
		if idx < 0 || idx >= len(part.Vertices) {
			return fmt.Errorf("cm3: vertex index %d out of range [0,%d)", idx, len(part.Vertices))
		}
	}
	partID := len(mesh.parts)
	mesh.parts = append(mesh.parts, part)
	for i := 0; i < len(part.Indices)/3; i++ {
		tri := mesh.triangle(partID, i)
		bb := triangleBB(tri[0], tri[1], tri[2])
		mesh.tree.Insert(meshTriangle{int32(partID), int32(i)}, bb)
		if mesh.hasBound {
			mesh.localBB = mesh.localBB.Merge(bb)
		} else {
			mesh.localBB = bb
			mesh.hasBound = true
		}
		mesh.numTris++
	}
	return nil
}

func (mesh *TriangleMeshShape) triangle(partID, index int) [3]mgl64.Vec3 {
	part := &mesh.parts[partID]
	i := index * 3
	return [3]mgl64.Vec3{
		part.Vertices[part.Indices[i]],
		part.Vertices[part.Indices[i+1]],
		part.Vertices[part.Indices[i+2]],
	}
}

// NumTriangles returns the triangle count over all parts.
func (mesh *TriangleMeshShape) NumTriangles() int {
	return mesh.numTris
}

func (mesh *TriangleMeshShape) Type() ShapeType {
	return TriangleMeshShapeType
}

func (mesh *TriangleMeshShape) Margin() float64 {
	return mesh.margin
}

func (mesh *TriangleMeshShape) SetMargin(margin float64) {
	mesh.margin = margin
}

// LocalBB returns the bounds of all triangles in mesh space.
func (mesh *TriangleMeshShape) LocalBB() BB {
	return mesh.localBB
}

func (mesh *TriangleMeshShape) Aabb(t Transform) BB {
	return t.BB(mesh.localBB.Center(), mesh.localBB.HalfExtents()).Grow(mesh.margin)
}

func (mesh *TriangleMeshShape) ProcessAllTriangles(cb TriangleCallback, aabbMin, aabbMax mgl64.Vec3) {
	mesh.tree.Query(BB{aabbMin, aabbMax}, func(t meshTriangle) {
		cb(mesh.triangle(int(t.part), int(t.index)), int(t.part), int(t.index))
	})
}

// PerformRaycast streams only the triangles whose bounds are crossed by the
// local segment from→to, nearest first.
func (mesh *TriangleMeshShape) PerformRaycast(cb TriangleCallback, from, to mgl64.Vec3) {
	mesh.tree.SegmentQuery(from, to, 1, func(t meshTriangle) float64 {
		cb(mesh.triangle(int(t.part), int(t.index)), int(t.part), int(t.index))
		return 1
	})
}

// StaticPlaneShape is the infinite plane {x | Normal·x = Constant}, solid on
// the side opposite to the normal.
type StaticPlaneShape struct {
	normal   mgl64.Vec3
	constant float64
	margin   float64
}

// NewStaticPlaneShape returns a plane with the given normal (normalized here)
// and signed distance from the origin.
func NewStaticPlaneShape(normal mgl64.Vec3, constant float64) *StaticPlaneShape {
	return &StaticPlaneShape{
		normal:   normalizeOr(normal, mgl64.Vec3{0, 1, 0}),
		constant: constant,
	}
}

func (plane *StaticPlaneShape) Type() ShapeType {
	return StaticPlaneShapeType
}

func (plane *StaticPlaneShape) PlaneNormal() mgl64.Vec3 {
	return plane.normal
}

func (plane *StaticPlaneShape) PlaneConstant() float64 {
	return plane.constant
}

func (plane *StaticPlaneShape) Margin() float64 {
	return plane.margin
}

func (plane *StaticPlaneShape) SetMargin(margin float64) {
	plane.margin = margin
}

// Aabb returns a very large box; planes are unbounded.
func (plane *StaticPlaneShape) Aabb(Transform) BB {
	return BB{Min: splat(-largeFloat), Max: splat(largeFloat)}
}

// ProcessAllTriangles emits two triangles covering the projection of the query
// box onto the plane.
func (plane *StaticPlaneShape) ProcessAllTriangles(cb TriangleCallback, aabbMin, aabbMax mgl64.Vec3) {
	halfExtents := aabbMax.Sub(aabbMin).Mul(0.5)
	radius := halfExtents.Len()
	center := aabbMax.Add(aabbMin).Mul(0.5)

	t0, t1 := planeSpace(plane.normal)
	t0 = t0.Mul(radius)
	t1 = t1.Mul(radius)

	projected := center.Sub(plane.normal.Mul(plane.normal.Dot(center) - plane.constant))

	cb([3]mgl64.Vec3{
		projected.Add(t0).Add(t1),
		projected.Add(t0).Sub(t1),
		projected.Sub(t0).Sub(t1),
	}, 0, 0)

	cb([3]mgl64.Vec3{
		projected.Sub(t0).Sub(t1),
		projected.Sub(t0).Add(t1),
		projected.Add(t0).Add(t1),
	}, 0, 1)
}
