package cm3

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collide runs one discrete narrow phase pass on a and b and returns the
// manifolds written by the algorithm.
func collide(t *testing.T, d *Dispatcher, a, b *CollisionObject) []*PersistentManifold {
	t.Helper()
	colA, colB := NewCollider(a), NewCollider(b)
	alg := d.FindAlgorithm(&colA, &colB, nil)
	t.Cleanup(func() {
		alg.Destroy()
		d.FreeAlgorithm(alg)
	})
	result := NewManifoldResult(d.Config(), a, b)
	alg.ProcessCollision(&colA, &colB, NewDispatchInfo(), result)
	return alg.AllContactManifolds(nil)
}

func newSphereAt(radius float64, p mgl64.Vec3) *CollisionObject {
	obj := NewCollisionObject(NewSphereShape(radius))
	obj.SetPosition(p)
	return obj
}

func TestSphereSphere(t *testing.T) {
	tests := []struct {
		name     string
		posA     mgl64.Vec3
		contacts int
		distance float64
		normal   mgl64.Vec3
	}{
		{"overlapping", mgl64.Vec3{1.5, 0, 0}, 1, -0.5, mgl64.Vec3{1, 0, 0}},
		{"touching", mgl64.Vec3{0, 2, 0}, 1, 0, mgl64.Vec3{0, 1, 0}},
		{"separated", mgl64.Vec3{0, 0, 2.5}, 0, 0, mgl64.Vec3{}},
		{"concentric", mgl64.Vec3{}, 1, -2, mgl64.Vec3{1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(nil)
			a := newSphereAt(1, tt.posA)
			b := newSphereAt(1, mgl64.Vec3{})

			manifolds := collide(t, d, a, b)
			require.Len(t, manifolds, 1)
			m := manifolds[0]
			require.Equal(t, tt.contacts, m.NumContacts())
			if tt.contacts == 0 {
				return
			}
			cp := m.ContactPoint(0)
			assert.InDelta(t, tt.distance, cp.Distance, 1e-12)
			assertVecNear(t, tt.normal, cp.NormalWorldOnB, 1e-12)
			// point on B lies on the surface of B, point on A is offset by the distance
			assert.InDelta(t, 1, cp.PositionWorldOnB.Len(), 1e-12)
			assertVecNear(t, cp.PositionWorldOnB.Add(cp.NormalWorldOnB.Mul(cp.Distance)), cp.PositionWorldOnA, 1e-12)
		})
	}
}

func TestSphereSphereContactPoints(t *testing.T) {
	d := NewDispatcher(nil)
	a := newSphereAt(1, mgl64.Vec3{1.5, 0, 0})
	b := newSphereAt(1, mgl64.Vec3{})

	m := collide(t, d, a, b)[0]
	cp := m.ContactPoint(0)
	assertVecNear(t, mgl64.Vec3{1, 0, 0}, cp.PositionWorldOnB, 1e-12)
	assertVecNear(t, mgl64.Vec3{0.5, 0, 0}, cp.PositionWorldOnA, 1e-12)
	assert.Equal(t, 1, d.NumManifolds())
}

func TestBoxOnPlaneThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContactBreakingThreshold = 0.25
	d := NewDispatcher(&cfg)

	plane := NewStaticObject(NewStaticPlaneShape(mgl64.Vec3{0, 1, 0}, 0))
	box := NewCollisionObject(NewBoxShape(mgl64.Vec3{0.5, 0.5, 0.5}))

	box.SetPosition(mgl64.Vec3{0, 0.75, 0})
	m := collide(t, d, box, plane)[0]
	require.Equal(t, 1, m.NumContacts(), "a gap equal to the threshold is a contact")
	assert.Equal(t, 0.25, m.ContactPoint(0).Distance)
	assert.Equal(t, box, m.Body0())

	box.SetPosition(mgl64.Vec3{0, 0.75 + 1e-9, 0})
	m = collide(t, d, box, plane)[0]
	assert.Equal(t, 0, m.NumContacts())
}

func TestPlaneConvexSwapped(t *testing.T) {
	d := NewDispatcher(nil)
	plane := NewStaticObject(NewStaticPlaneShape(mgl64.Vec3{0, 1, 0}, 0))
	sphere := newSphereAt(1, mgl64.Vec3{0, 0.9, 0})

	m := collide(t, d, plane, sphere)[0]
	require.Equal(t, 1, m.NumContacts())
	// the manifold keeps the convex body first
	assert.Equal(t, sphere, m.Body0())
	cp := m.ContactPoint(0)
	assert.InDelta(t, -0.1, cp.Distance, 1e-9)
	assertVecNear(t, mgl64.Vec3{0, 1, 0}, cp.NormalWorldOnB, 1e-12)
}

func TestConvexConvexBoxes(t *testing.T) {
	d := NewDispatcher(nil)
	a := NewCollisionObject(NewBoxShape(mgl64.Vec3{1, 1, 1}))
	b := NewCollisionObject(NewBoxShape(mgl64.Vec3{1, 1, 1}))

	a.SetPosition(mgl64.Vec3{0, 2.5, 0})
	m := collide(t, d, a, b)[0]
	assert.Equal(t, 0, m.NumContacts())

	a.SetPosition(mgl64.Vec3{0, 1.9, 0})
	m = collide(t, d, a, b)[0]
	require.Equal(t, 1, m.NumContacts())
	cp := m.ContactPoint(0)
	assert.InDelta(t, -0.1, cp.Distance, 1e-2)
	assert.InDelta(t, 1, cp.NormalWorldOnB.Y(), 1e-2)
}

func TestConvexConcaveMesh(t *testing.T) {
	d := NewDispatcher(nil)
	mesh, err := NewTriangleMeshShape([]mgl64.Vec3{
		{-5, 0, -5}, {5, 0, -5}, {5, 0, 5}, {-5, 0, 5},
	}, []int{0, 2, 1, 0, 3, 2})
	require.NoError(t, err)

	ground := NewStaticObject(mesh)
	sphere := newSphereAt(1, mgl64.Vec3{2, 0.8, -1})

	m := collide(t, d, ground, sphere)[0]
	require.GreaterOrEqual(t, m.NumContacts(), 1)
	assert.Equal(t, sphere, m.Body0())
	for _, cp := range m.Points() {
		assert.InDelta(t, -0.2, cp.Distance, 1e-2)
		assert.InDelta(t, 1, cp.NormalWorldOnB.Y(), 1e-2)
		assert.GreaterOrEqual(t, cp.Index1, 0, "triangle index of the mesh side")
	}
}

func TestCompoundChildContacts(t *testing.T) {
	d := NewDispatcher(nil)
	compound := NewCompoundShape()
	compound.AddChildShape(NewTransformTranslate(mgl64.Vec3{-2, 0, 0}), NewSphereShape(0.5))
	compound.AddChildShape(NewTransformTranslate(mgl64.Vec3{2, 0, 0}), NewSphereShape(0.5))

	body := NewCollisionObject(compound)
	other := newSphereAt(0.5, mgl64.Vec3{2, 0.9, 0})

	manifolds := collide(t, d, body, other)
	require.Len(t, manifolds, 2)

	var points []ManifoldPoint
	for _, m := range manifolds {
		points = append(points, m.Points()...)
	}
	require.Len(t, points, 1)
	assert.InDelta(t, -0.1, points[0].Distance, 1e-9)
	assert.Equal(t, 1, points[0].Index0)
	assert.Equal(t, -1, points[0].Index1)
}

func TestDefaultAlgorithmMatrix(t *testing.T) {
	m := NewDefaultAlgorithmMatrix()

	sphereSphere := m.Lookup(SphereShapeType, SphereShapeType)
	assert.IsType(t, &algorithmFactory[sphereSphereAlgorithm, *sphereSphereAlgorithm]{}, sphereSphere)

	assert.IsType(t, &algorithmFactory[convexPlaneAlgorithm, *convexPlaneAlgorithm]{}, m.Lookup(BoxShapeType, StaticPlaneShapeType))
	assert.False(t, m.Lookup(BoxShapeType, StaticPlaneShapeType).Swapped())
	assert.True(t, m.Lookup(StaticPlaneShapeType, BoxShapeType).Swapped())

	assert.IsType(t, &algorithmFactory[convexConvexAlgorithm, *convexConvexAlgorithm]{}, m.Lookup(BoxShapeType, SphereShapeType))
	assert.IsType(t, &algorithmFactory[convexConcaveAlgorithm, *convexConcaveAlgorithm]{}, m.Lookup(TriangleMeshShapeType, CapsuleShapeType))
	assert.True(t, m.Lookup(TriangleMeshShapeType, CapsuleShapeType).Swapped())

	// compounds are split before the plane rule applies
	assert.IsType(t, &algorithmFactory[compoundAlgorithm, *compoundAlgorithm]{}, m.Lookup(CompoundShapeType, StaticPlaneShapeType))
	assert.True(t, m.Lookup(StaticPlaneShapeType, CompoundShapeType).Swapped())

	assert.IsType(t, &algorithmFactory[emptyAlgorithm, *emptyAlgorithm]{}, m.Lookup(TriangleMeshShapeType, StaticPlaneShapeType))
	assert.IsType(t, &algorithmFactory[emptyAlgorithm, *emptyAlgorithm]{}, m.Lookup(EmptyShapeType, SphereShapeType))

	for i := ShapeType(0); i < ShapeTypeNum; i++ {
		for j := ShapeType(0); j < ShapeTypeNum; j++ {
			assert.NotNil(t, m.Lookup(i, j), "%v %v", i, j)
		}
	}
}

func TestRegisterAlgorithm(t *testing.T) {
	d := NewDispatcher(nil)
	empty := NewEmptyAlgorithmFactory()
	d.RegisterAlgorithm(SphereShapeType, SphereShapeType, empty)
	assert.Equal(t, empty, d.Matrix().Lookup(SphereShapeType, SphereShapeType))

	manifolds := collide(t, d, newSphereAt(1, mgl64.Vec3{}), newSphereAt(1, mgl64.Vec3{}))
	assert.Empty(t, manifolds)
}

func TestAlgorithmPool(t *testing.T) {
	d := NewDispatcher(nil)
	a, b := NewCollider(newSphereAt(1, mgl64.Vec3{})), NewCollider(newSphereAt(1, mgl64.Vec3{}))

	f := newAlgorithmFactory[sphereSphereAlgorithm](false)
	alg := f.CreateAlgorithm(&AlgorithmConstructionInfo{Dispatcher: d}, &a, &b)
	alg.Destroy()
	d.FreeAlgorithm(alg)
	assert.Equal(t, 1, f.Pooled())

	again := f.CreateAlgorithm(&AlgorithmConstructionInfo{Dispatcher: d}, &a, &b)
	assert.Same(t, alg, again)
	assert.Equal(t, 0, f.Pooled())

	foreign := NewSphereSphereAlgorithmFactory()
	assert.Panics(t, func() { foreign.ReleaseAlgorithm(again) })
	assert.Panics(t, func() {
		NewConvexConvexAlgorithmFactory().ReleaseAlgorithm(again)
	})
}

func TestDispatcherReleaseManifold(t *testing.T) {
	d := NewDispatcher(nil)
	obj := newSphereAt(1, mgl64.Vec3{})
	m0 := d.NewManifold(obj, obj)
	m1 := d.NewManifold(obj, obj)
	m2 := d.NewManifold(obj, obj)
	require.Equal(t, 3, d.NumManifolds())

	d.ReleaseManifold(m1)
	require.Equal(t, 2, d.NumManifolds())
	assert.Same(t, m0, d.ManifoldByIndex(0))
	assert.Same(t, m2, d.ManifoldByIndex(1))
	assert.Equal(t, 1, m2.Index())

	assert.Panics(t, func() { d.ReleaseManifold(m1) })
}

func TestNeedsCollision(t *testing.T) {
	d := NewDispatcher(nil)
	a := newSphereAt(1, mgl64.Vec3{})
	b := newSphereAt(1, mgl64.Vec3{})
	assert.True(t, d.NeedsCollision(a, b))

	a.ForceActivationState(IslandSleeping)
	assert.True(t, d.NeedsCollision(a, b))
	b.ForceActivationState(IslandSleeping)
	assert.False(t, d.NeedsCollision(a, b))

	b.Activate(false)
	a.IgnoreCollisionWith(b)
	assert.False(t, d.NeedsCollision(a, b))
	assert.False(t, d.NeedsCollision(b, a))
	a.RestoreCollisionWith(b)
	assert.True(t, d.NeedsCollision(a, b))
}

func TestAlgorithmArgumentOrder(t *testing.T) {
	compoundAt := func(offset mgl64.Vec3) *CollisionObject {
		compound := NewCompoundShape()
		compound.AddChildShape(NewTransformTranslate(offset), NewSphereShape(0.5))
		return NewCollisionObject(compound)
	}
	tests := []struct {
		name string
		a, b func() *CollisionObject
	}{
		{
			name: "plane sphere",
			a:    func() *CollisionObject { return NewStaticObject(NewStaticPlaneShape(mgl64.Vec3{0, 1, 0}, 0)) },
			b:    func() *CollisionObject { return newSphereAt(1, mgl64.Vec3{0, 0.9, 0}) },
		},
		{
			name: "mesh sphere",
			a:    func() *CollisionObject { return NewStaticObject(newQuadMesh(t)) },
			b:    func() *CollisionObject { return newSphereAt(1, mgl64.Vec3{0.2, 0.8, 0.1}) },
		},
		{
			name: "compound sphere",
			a:    func() *CollisionObject { return compoundAt(mgl64.Vec3{2, 0, 0}) },
			b:    func() *CollisionObject { return newSphereAt(0.5, mgl64.Vec3{2, 0.9, 0}) },
		},
		{
			name: "compound plane",
			a:    func() *CollisionObject { return compoundAt(mgl64.Vec3{1, 0.4, 0}) },
			b:    func() *CollisionObject { return NewStaticObject(NewStaticPlaneShape(mgl64.Vec3{0, 1, 0}, 0)) },
		},
	}

	// firstContact returns the distance and the normal pointing towards a.
	firstContact := func(t *testing.T, manifolds []*PersistentManifold, a *CollisionObject) (float64, mgl64.Vec3) {
		t.Helper()
		for _, m := range manifolds {
			if m.NumContacts() == 0 {
				continue
			}
			cp := m.ContactPoint(0)
			normal := cp.NormalWorldOnB
			if m.Body0() != a {
				normal = normal.Mul(-1)
			}
			return cp.Distance, normal
		}
		require.Fail(t, "no contact")
		return 0, mgl64.Vec3{}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(nil)
			a, b := tt.a(), tt.b()
			distAB, normalAB := firstContact(t, collide(t, d, a, b), a)
			distBA, normalBA := firstContact(t, collide(t, d, b, a), a)
			assert.Less(t, distAB, 0.0)
			assert.InDelta(t, distAB, distBA, 1e-3)
			assertVecNear(t, normalAB, normalBA, 1e-3)
		})
	}
}
