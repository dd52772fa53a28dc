package cm3

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

type recordingDrawer struct {
	flags    uint
	lines    int
	contacts []float64
	warnings []string
}

func (d *recordingDrawer) DrawLine(from, to mgl64.Vec3, color FColor) {
	d.lines++
}

func (d *recordingDrawer) DrawContactPoint(pointOnB, normalOnB mgl64.Vec3, distance float64, lifeTime int, color FColor) {
	d.contacts = append(d.contacts, distance)
}

func (d *recordingDrawer) ReportErrorWarning(warning string) {
	d.warnings = append(d.warnings, warning)
}

func (d *recordingDrawer) Flags() uint {
	return d.flags
}

func TestDebugDrawWorld(t *testing.T) {
	w, _ := newTestWorld(t)
	w.DebugDrawWorld()

	box := NewStaticObject(NewBoxShape(mgl64.Vec3{1, 1, 1}))
	w.AddCollisionObject(box, ShapeFilterAll)

	drawer := &recordingDrawer{flags: DrawWireframe}
	w.SetDebugDrawer(drawer)
	assert.Same(t, drawer, w.DebugDrawer())
	assert.Equal(t, IDrawer(drawer), w.DispatchInfo().DebugDraw)

	w.DebugDrawWorld()
	assert.Equal(t, 12, drawer.lines)

	drawer.lines = 0
	drawer.flags = DrawWireframe | DrawAabb
	w.DebugDrawWorld()
	assert.Equal(t, 24, drawer.lines)
}

func TestDebugDrawContactPoints(t *testing.T) {
	w, _ := newTestWorld(t)
	addSphere(w, 1, mgl64.Vec3{})
	addSphere(w, 1, mgl64.Vec3{1.5, 0, 0})
	w.PerformDiscreteCollisionDetection()

	drawer := &recordingDrawer{flags: DrawContactPoints}
	w.SetDebugDrawer(drawer)
	w.DebugDrawWorld()
	assert.Equal(t, 0, drawer.lines)
	assert.Equal(t, []float64{-0.5}, drawer.contacts)
}

func TestDrawShape(t *testing.T) {
	compound := NewCompoundShape()
	compound.AddChildShape(NewTransformIdentity(), NewSphereShape(1))
	compound.AddChildShape(NewTransformTranslate(mgl64.Vec3{0, 2, 0}), NewTriangleShape(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}))

	tests := []struct {
		name  string
		shape CollisionShape
		lines int
	}{
		{"sphere", NewSphereShape(1), 3 * sphereSegments},
		{"capsule", NewCapsuleShape(0.5, 2), 6*sphereSegments + 4},
		{"triangle", NewTriangleShape(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}), 3},
		{"plane", NewStaticPlaneShape(mgl64.Vec3{0, 1, 0}, 0), 3},
		{"compound", compound, 3*sphereSegments + 3},
		{"empty", NewEmptyShape(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drawer := &recordingDrawer{}
			DrawShape(tt.shape, NewTransformIdentity(), wireframeColor, drawer)
			assert.Equal(t, tt.lines, drawer.lines)
		})
	}
}
