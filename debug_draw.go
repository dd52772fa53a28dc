package cm3

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Draw flags
const (
	DrawWireframe     = 1 << 0
	DrawAabb          = 1 << 1
	DrawContactPoints = 1 << 2
)

// 16 bytes
type FColor struct {
	R, G, B, A float32
}

var (
	wireframeColor    = FColor{1, 1, 1, 1}
	aabbColor         = FColor{1, 0, 0, 1}
	contactPointColor = FColor{1, 1, 0, 1}
)

// IDrawer receives the debug geometry of a World and its warnings.
type IDrawer interface {
	DrawLine(from, to mgl64.Vec3, color FColor)
	DrawContactPoint(pointOnB, normalOnB mgl64.Vec3, distance float64, lifeTime int, color FColor)
	ReportErrorWarning(warning string)
	Flags() uint
}

// DebugDrawWorld draws the contact points, shapes and bounds selected by the
// flags of the debug drawer. It does nothing without a drawer.
func (w *World) DebugDrawWorld() {
	drawer := w.debugDrawer
	if drawer == nil {
		return
	}
	flags := drawer.Flags()

	if flags&DrawContactPoints != 0 {
		for _, m := range w.dispatcher.Manifolds() {
			for i := range m.NumContacts() {
				cp := m.ContactPoint(i)
				drawer.DrawContactPoint(cp.PositionWorldOnB, cp.NormalWorldOnB, cp.Distance, cp.LifeTime, contactPointColor)
			}
		}
	}

	if flags&(DrawWireframe|DrawAabb) == 0 {
		return
	}
	for _, obj := range w.objects {
		if flags&DrawWireframe != 0 {
			DrawShape(obj.shape, obj.worldTransform, wireframeColor, drawer)
		}
		if flags&DrawAabb != 0 && obj.broadphaseHandle != nil {
			drawBB(obj.broadphaseHandle.Aabb(), aabbColor, drawer)
		}
	}
}

// DrawShape draws the wireframe of shape placed at t.
func DrawShape(shape CollisionShape, t Transform, color FColor, drawer IDrawer) {
	switch s := shape.(type) {
	case *BoxShape:
		verts := s.Vertices()
		for i := range verts {
			for bit := 1; bit < 8; bit <<= 1 {
				// corners differing in one sign are joined by an edge
				if j := i | bit; j != i {
					drawer.DrawLine(t.Apply(verts[i]), t.Apply(verts[j]), color)
				}
			}
		}
	case *SphereShape:
		drawSphere(t, mgl64.Vec3{}, s.Radius(), color, drawer)
	case *CapsuleShape:
		up := mgl64.Vec3{0, s.HalfHeight(), 0}
		drawSphere(t, up, s.Radius(), color, drawer)
		drawSphere(t, up.Mul(-1), s.Radius(), color, drawer)
		for _, side := range [4]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 0, 1}, {0, 0, -1}} {
			offset := side.Mul(s.Radius())
			drawer.DrawLine(t.Apply(up.Add(offset)), t.Apply(offset.Sub(up)), color)
		}
	case *TriangleShape:
		drawTriangle(t, s.Vertices, color, drawer)
	case *ConvexHullShape:
		points := s.Points()
		for i := range points {
			drawer.DrawLine(t.Apply(points[i]), t.Apply(points[(i+1)%len(points)]), color)
		}
	case *TriangleMeshShape:
		bb := s.LocalBB()
		s.ProcessAllTriangles(func(triangle [3]mgl64.Vec3, partID, triangleIndex int) {
			drawTriangle(t, triangle, color, drawer)
		}, bb.Min, bb.Max)
	case *StaticPlaneShape:
		n := s.PlaneNormal()
		t0, t1 := planeSpace(n)
		center := n.Mul(s.PlaneConstant())
		const extent = 100
		drawer.DrawLine(t.Apply(center.Sub(t0.Mul(extent))), t.Apply(center.Add(t0.Mul(extent))), color)
		drawer.DrawLine(t.Apply(center.Sub(t1.Mul(extent))), t.Apply(center.Add(t1.Mul(extent))), color)
		drawer.DrawLine(t.Apply(center), t.Apply(center.Add(n)), color)
	case *CompoundShape:
		for i := 0; i < s.NumChildShapes(); i++ {
			DrawShape(s.ChildShape(i), t.Mult(s.ChildTransform(i)), color, drawer)
		}
	}
}

func drawTriangle(t Transform, v [3]mgl64.Vec3, color FColor, drawer IDrawer) {
	a, b, c := t.Apply(v[0]), t.Apply(v[1]), t.Apply(v[2])
	drawer.DrawLine(a, b, color)
	drawer.DrawLine(b, c, color)
	drawer.DrawLine(c, a, color)
}

const sphereSegments = 16

// drawSphere draws three great circles of the sphere at center in the local
// space of t.
func drawSphere(t Transform, center mgl64.Vec3, radius float64, color FColor, drawer IDrawer) {
	axes := [3][2]mgl64.Vec3{
		{{1, 0, 0}, {0, 1, 0}},
		{{0, 1, 0}, {0, 0, 1}},
		{{0, 0, 1}, {1, 0, 0}},
	}
	for _, axis := range axes {
		prev := center.Add(axis[0].Mul(radius))
		for i := 1; i <= sphereSegments; i++ {
			angle := 2 * math.Pi * float64(i) / sphereSegments
			sin, cos := math.Sincos(angle)
			next := center.Add(axis[0].Mul(radius * cos)).Add(axis[1].Mul(radius * sin))
			drawer.DrawLine(t.Apply(prev), t.Apply(next), color)
			prev = next
		}
	}
}

func drawBB(bb BB, color FColor, drawer IDrawer) {
	corner := func(i int) mgl64.Vec3 {
		var p mgl64.Vec3
		for axis := range 3 {
			if i&(1<<axis) != 0 {
				p[axis] = bb.Max[axis]
			} else {
				p[axis] = bb.Min[axis]
			}
		}
		return p
	}
	for i := range 8 {
		for bit := 1; bit < 8; bit <<= 1 {
			if j := i | bit; j != i {
				drawer.DrawLine(corner(i), corner(j), color)
			}
		}
	}
}
