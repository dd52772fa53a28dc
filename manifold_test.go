package cm3

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManifold() *PersistentManifold {
	a := NewCollisionObject(NewSphereShape(1))
	b := NewCollisionObject(NewSphereShape(1))
	return NewPersistentManifold(a, b, 0.02, nil)
}

func pointAt(x, z, distance float64) ManifoldPoint {
	p := mgl64.Vec3{x, 0, z}
	return NewManifoldPoint(p, p, mgl64.Vec3{0, 1, 0}, distance)
}

func TestManifoldCapacity(t *testing.T) {
	m := newTestManifold()
	m.AddManifoldPoint(pointAt(-1, -1, -0.1))
	m.AddManifoldPoint(pointAt(1, -1, -0.5))
	m.AddManifoldPoint(pointAt(1, 1, -0.1))
	m.AddManifoldPoint(pointAt(-1, 1, -0.1))
	require.Equal(t, MaxCachedPoints, m.NumContacts())

	index := m.AddManifoldPoint(pointAt(0, 2, -0.2))
	assert.Equal(t, MaxCachedPoints, m.NumContacts())
	assert.NotEqual(t, 1, index, "the deepest point is never evicted")
	assert.Equal(t, -0.5, m.ContactPoint(1).Distance)
	assert.Equal(t, -0.2, m.ContactPoint(index).Distance)
}

func TestManifoldEvictsNewDeepest(t *testing.T) {
	m := newTestManifold()
	for _, p := range [][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
		m.AddManifoldPoint(pointAt(p[0], p[1], -0.1))
	}
	// the new point is the deepest, every slot competes on area
	index := m.AddManifoldPoint(pointAt(0, 0, -0.9))
	assert.GreaterOrEqual(t, index, 0)
	assert.Less(t, index, MaxCachedPoints)
	assert.Equal(t, -0.9, m.ContactPoint(index).Distance)
}

func TestReplaceContactPointKeepsSolverState(t *testing.T) {
	m := newTestManifold()
	i := m.AddManifoldPoint(pointAt(0, 0, -0.1))
	cp := m.ContactPoint(i)
	cp.AppliedImpulse = 3
	cp.AppliedImpulseLateral1 = 1
	cp.LifeTime = 7
	cp.UserPersistentData = "warm"

	m.ReplaceContactPoint(pointAt(0.001, 0, -0.2), i)
	cp = m.ContactPoint(i)
	assert.Equal(t, -0.2, cp.Distance)
	assert.Equal(t, 3.0, cp.AppliedImpulse)
	assert.Equal(t, 1.0, cp.AppliedImpulseLateral1)
	assert.Equal(t, 7, cp.LifeTime)
	assert.Equal(t, "warm", cp.UserPersistentData)
}

func TestCacheEntry(t *testing.T) {
	m := newTestManifold()
	m.AddManifoldPoint(pointAt(0, 0, -0.1))
	m.AddManifoldPoint(pointAt(1, 0, -0.1))

	near := pointAt(1.01, 0, -0.1)
	assert.Equal(t, 1, m.CacheEntry(&near))
	far := pointAt(0.5, 0, -0.1)
	assert.Equal(t, -1, m.CacheEntry(&far))
}

func TestRemoveContactPoint(t *testing.T) {
	var destroyed []any
	cfg := DefaultConfig()
	cfg.ContactDestroyed = func(data any) bool {
		destroyed = append(destroyed, data)
		return true
	}
	m := newTestManifold()
	m.cfg = &cfg

	m.AddManifoldPoint(pointAt(0, 0, -0.1))
	m.AddManifoldPoint(pointAt(1, 0, -0.2))
	m.AddManifoldPoint(pointAt(2, 0, -0.3))
	m.ContactPoint(0).UserPersistentData = 42

	m.RemoveContactPoint(0)
	require.Equal(t, 2, m.NumContacts())
	assert.Equal(t, -0.3, m.ContactPoint(0).Distance, "the last point takes the freed slot")
	assert.Equal(t, []any{42}, destroyed)

	m.ClearManifold()
	assert.Equal(t, 0, m.NumContacts())
	assert.Panics(t, func() { m.ContactPoint(0) })
}

func TestRefreshContactPoints(t *testing.T) {
	m := newTestManifold()
	normal := mgl64.Vec3{0, 1, 0}
	trA := NewTransformTranslate(mgl64.Vec3{0, 1.9, 0})
	trB := NewTransformIdentity()

	// A rests 0.1 deep on B
	m.AddManifoldPoint(NewManifoldPoint(mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 1, 0}, normal, -0.1))
	m.RefreshContactPoints(trA, trB)
	require.Equal(t, 1, m.NumContacts())
	assert.InDelta(t, -0.1, m.ContactPoint(0).Distance, 1e-12)
	assert.Equal(t, 1, m.ContactPoint(0).LifeTime)

	// separated beyond the breaking threshold along the normal
	m.RefreshContactPoints(NewTransformTranslate(mgl64.Vec3{0, 2.5, 0}), trB)
	assert.Equal(t, 0, m.NumContacts())

	// drifted sideways
	m.AddManifoldPoint(NewManifoldPoint(mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 1, 0}, normal, -0.1))
	m.RefreshContactPoints(NewTransformTranslate(mgl64.Vec3{0.5, 1.9, 0}), trB)
	assert.Equal(t, 0, m.NumContacts())
}

func TestManifoldResultSwapped(t *testing.T) {
	d := NewDispatcher(nil)
	a := newSphereAt(1, mgl64.Vec3{0, 1.9, 0})
	b := newSphereAt(1, mgl64.Vec3{})

	// manifold in (b, a) order, result in (a, b) order
	m := d.NewManifold(b, a)
	result := NewManifoldResult(d.Config(), a, b)
	result.SetPersistentManifold(m)
	result.AddContactPoint(mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 0.9, 0}, -0.1)

	require.Equal(t, 1, m.NumContacts())
	cp := m.ContactPoint(0)
	assertVecNear(t, mgl64.Vec3{0, 1, 0}, cp.LocalPointA, 1e-12)
	assertVecNear(t, mgl64.Vec3{0, -1, 0}, cp.LocalPointB, 1e-12)

	result.RefreshContactPoints()
	assert.Equal(t, 1, m.NumContacts())
	assert.InDelta(t, -0.1, m.ContactPoint(0).Distance, 1e-12)
}

func TestManifoldResultContactAdded(t *testing.T) {
	cfg := DefaultConfig()
	var calls int
	cfg.ContactAdded = func(cp *ManifoldPoint, obj0 *CollisionObject, partID0, index0 int, obj1 *CollisionObject, partID1, index1 int) bool {
		calls++
		cp.CombinedFriction = 0
		return true
	}
	d := NewDispatcher(&cfg)
	a := newSphereAt(1, mgl64.Vec3{1.5, 0, 0})
	b := newSphereAt(1, mgl64.Vec3{})

	m := collide(t, d, a, b)[0]
	assert.Equal(t, 0, calls, "only objects with a custom material callback are reported")
	assert.Equal(t, 0.25, m.ContactPoint(0).CombinedFriction)

	a.SetFlags(a.Flags() | CollisionFlagCustomMaterialCallback)
	m = collide(t, d, a, b)[0]
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0.0, m.ContactPoint(0).CombinedFriction)
}
