package cm3

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGhostObjectOverlaps(t *testing.T) {
	w, _ := newTestWorld(t)
	ghost := NewGhostObject(NewSphereShape(2))
	w.AddCollisionObject(ghost.CollisionObject, ShapeFilterAll)
	assert.False(t, ghost.HasContactResponse())

	a := addSphere(w, 1.5, mgl64.Vec3{3, 0, 0})
	b := addSphere(w, 1, mgl64.Vec3{10, 0, 0})

	w.PerformDiscreteCollisionDetection()
	require.Equal(t, 1, ghost.NumOverlappingObjects())
	assert.Same(t, a, ghost.OverlappingObject(0))

	b.SetPosition(mgl64.Vec3{0, -3, 0})
	w.PerformDiscreteCollisionDetection()
	assert.ElementsMatch(t, []*CollisionObject{a, b}, ghost.OverlappingObjects())

	a.SetPosition(mgl64.Vec3{20, 0, 0})
	w.PerformDiscreteCollisionDetection()
	assert.Equal(t, []*CollisionObject{b}, ghost.OverlappingObjects())

	w.RemoveCollisionObject(b)
	assert.Equal(t, 0, ghost.NumOverlappingObjects())
}

func TestGhostObjectInternalList(t *testing.T) {
	ghost := NewGhostObject(NewSphereShape(1))
	a := NewCollisionObject(NewSphereShape(1))
	b := NewCollisionObject(NewSphereShape(1))

	ghost.AddOverlappingObjectInternal(a)
	ghost.AddOverlappingObjectInternal(a)
	ghost.AddOverlappingObjectInternal(b)
	assert.Equal(t, []*CollisionObject{a, b}, ghost.OverlappingObjects())

	ghost.RemoveOverlappingObjectInternal(a)
	assert.Equal(t, []*CollisionObject{b}, ghost.OverlappingObjects())
	ghost.RemoveOverlappingObjectInternal(a)
	assert.Equal(t, 1, ghost.NumOverlappingObjects())
}

func TestGhostObjectQueries(t *testing.T) {
	w, _ := newTestWorld(t)
	ghost := NewGhostObject(NewSphereShape(2))
	w.AddCollisionObject(ghost.CollisionObject, ShapeFilterAll)
	a := addSphere(w, 1.5, mgl64.Vec3{3, 0, 0})
	addSphere(w, 1, mgl64.Vec3{10, 0, 0})
	w.PerformDiscreteCollisionDetection()

	cb := NewClosestRayResultCallback(mgl64.Vec3{3, 5, 0}, mgl64.Vec3{3, -5, 0})
	ghost.RayTest(cb.RayFromWorld, cb.RayToWorld, cb)
	require.True(t, cb.HasHit())
	assert.Same(t, a, cb.CollisionObject)
	assert.InDelta(t, 0.35, cb.ClosestHitFraction, 1e-3)

	// the far sphere is hit by the world but not by the ghost
	cb = NewClosestRayResultCallback(mgl64.Vec3{10, 5, 0}, mgl64.Vec3{10, -5, 0})
	ghost.RayTest(cb.RayFromWorld, cb.RayToWorld, cb)
	assert.False(t, cb.HasHit())
	w.RayTest(cb.RayFromWorld, cb.RayToWorld, cb)
	assert.True(t, cb.HasHit())

	from := NewTransformTranslate(mgl64.Vec3{3, 5, 0})
	to := NewTransformTranslate(mgl64.Vec3{3, -5, 0})
	sweep := NewClosestConvexResultCallback(from.Origin, to.Origin)
	ghost.ConvexSweepTest(NewSphereShape(0.5), from, to, sweep, 0)
	require.True(t, sweep.HasHit())
	assert.Same(t, a, sweep.HitCollisionObject)
	assert.InDelta(t, 0.3, sweep.ClosestHitFraction, 1e-3)
}

func TestPairCachingGhostObject(t *testing.T) {
	w, _ := newTestWorld(t)
	ghost := NewPairCachingGhostObject(NewBoxShape(mgl64.Vec3{2, 2, 2}))
	w.AddCollisionObject(ghost.CollisionObject, ShapeFilterAll)
	a := addSphere(w, 1, mgl64.Vec3{2.5, 0, 0})
	b := addSphere(w, 1, mgl64.Vec3{-2.5, 0, 0})

	w.PerformDiscreteCollisionDetection()
	pairs := ghost.OverlappingPairCache()
	require.Equal(t, 2, pairs.NumOverlappingPairs())
	assert.Equal(t, 2, ghost.NumOverlappingObjects())
	proxyA := a.BroadphaseHandle()
	assert.NotNil(t, pairs.FindPair(ghost.BroadphaseHandle(), proxyA))

	w.RemoveCollisionObject(a)
	assert.Equal(t, 1, pairs.NumOverlappingPairs())
	assert.Nil(t, pairs.FindPair(ghost.BroadphaseHandle(), proxyA))
	assert.Equal(t, []*CollisionObject{b}, ghost.OverlappingObjects())

	// ghost contacts never reach the islands
	w.CalculateSimulationIslands()
	w.ProcessIslands(func(bodies []*CollisionObject, manifolds []*PersistentManifold, islandID int) {
		assert.Empty(t, manifolds)
	})
}

func TestPairCachingGhostObjectInternalList(t *testing.T) {
	w, _ := newTestWorld(t)
	ghost := NewPairCachingGhostObject(NewBoxShape(mgl64.Vec3{2, 2, 2}))
	w.AddCollisionObject(ghost.CollisionObject, ShapeFilterAll)
	a := addSphere(w, 1, mgl64.Vec3{2.5, 0, 0})
	pairs := ghost.OverlappingPairCache()

	w.PerformDiscreteCollisionDetection()
	require.Equal(t, 1, ghost.NumOverlappingObjects())
	require.Equal(t, 1, pairs.NumOverlappingPairs())

	ghost.RemoveOverlappingObjectInternal(a)
	assert.Equal(t, 0, ghost.NumOverlappingObjects())
	assert.Equal(t, 0, pairs.NumOverlappingPairs())

	ghost.AddOverlappingObjectInternal(a)
	ghost.AddOverlappingObjectInternal(a)
	assert.Equal(t, 1, ghost.NumOverlappingObjects())
	assert.Equal(t, 1, pairs.NumOverlappingPairs())
	assert.NotNil(t, pairs.FindPair(ghost.BroadphaseHandle(), a.BroadphaseHandle()))

	w.RemoveCollisionObject(a)
	assert.Equal(t, 0, ghost.NumOverlappingObjects())
	assert.Equal(t, 0, pairs.NumOverlappingPairs())

	outside := NewCollisionObject(NewSphereShape(1))
	assert.Panics(t, func() { ghost.AddOverlappingObjectInternal(outside) })
	assert.Equal(t, 0, ghost.NumOverlappingObjects())
}

func TestGhostObjectQueriesOutsideWorld(t *testing.T) {
	ghost := NewGhostObject(NewSphereShape(2))
	ghost.AddOverlappingObjectInternal(newSphereAt(1, mgl64.Vec3{}))

	cb := NewClosestRayResultCallback(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -5, 0})
	require.NotPanics(t, func() { ghost.RayTest(cb.RayFromWorld, cb.RayToWorld, cb) })
	assert.False(t, cb.HasHit())

	from := NewTransformTranslate(mgl64.Vec3{0, 5, 0})
	to := NewTransformTranslate(mgl64.Vec3{0, -5, 0})
	sweep := NewClosestConvexResultCallback(from.Origin, to.Origin)
	require.NotPanics(t, func() { ghost.ConvexSweepTest(NewSphereShape(0.5), from, to, sweep, 0) })
	assert.False(t, sweep.HasHit())
}
