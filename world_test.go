package cm3

import (
	"bytes"
	"log"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorld(t *testing.T) (*World, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Logger = log.New(&buf, "", 0)
	return NewWorld(&cfg), &buf
}

func addSphere(w *World, r float64, p mgl64.Vec3) *CollisionObject {
	obj := newSphereAt(r, p)
	w.AddCollisionObject(obj, ShapeFilterAll)
	return obj
}

func TestWorldSphereOnPlane(t *testing.T) {
	w, _ := newTestWorld(t)
	ground := NewStaticObject(NewStaticPlaneShape(mgl64.Vec3{0, 1, 0}, 0))
	w.AddCollisionObject(ground, ShapeFilterAll)
	ball := addSphere(w, 1, mgl64.Vec3{0, 0.9, 0})

	w.PerformDiscreteCollisionDetection()
	require.Equal(t, 1, w.Dispatcher().NumManifolds())
	m := w.Dispatcher().ManifoldByIndex(0)
	require.Equal(t, 1, m.NumContacts())

	cp := m.ContactPoint(0)
	assert.InDelta(t, -0.1, cp.Distance, 1e-6)
	normal := cp.NormalWorldOnB
	if m.Body0() == ground {
		normal = normal.Mul(-1)
	}
	assertVecNear(t, mgl64.Vec3{0, 1, 0}, normal, 1e-6)
	assert.Equal(t, 1, cp.LifeTime)

	// the contact persists while the ball rests
	w.PerformDiscreteCollisionDetection()
	require.Equal(t, 1, m.NumContacts())
	assert.Equal(t, 2, m.ContactPoint(0).LifeTime)

	ball.SetPosition(mgl64.Vec3{0, 5, 0})
	w.PerformDiscreteCollisionDetection()
	assert.Equal(t, 0, m.NumContacts())
}

func TestWorldAddRemove(t *testing.T) {
	w, _ := newTestWorld(t)
	a := addSphere(w, 1, mgl64.Vec3{})
	b := addSphere(w, 1, mgl64.Vec3{1.5, 0, 0})
	assert.Panics(t, func() { w.AddCollisionObject(a, ShapeFilterAll) })

	w.PerformDiscreteCollisionDetection()
	require.Equal(t, 1, w.Dispatcher().NumManifolds())
	require.Equal(t, 1, w.pairCache().NumOverlappingPairs())

	w.RemoveCollisionObject(b)
	assert.Nil(t, b.World)
	assert.Nil(t, b.BroadphaseHandle())
	assert.Equal(t, 0, w.Dispatcher().NumManifolds())
	assert.Equal(t, 0, w.pairCache().NumOverlappingPairs())
	assert.Equal(t, []*CollisionObject{a}, w.CollisionObjects())
	assert.Panics(t, func() { w.RemoveCollisionObject(b) })
}

func TestWorldFilters(t *testing.T) {
	w, _ := newTestWorld(t)
	a := newSphereAt(1, mgl64.Vec3{})
	b := newSphereAt(1, mgl64.Vec3{1.5, 0, 0})
	w.AddCollisionObject(a, ShapeFilter{Group: 3, Categories: AllCategories, Mask: AllCategories})
	w.AddCollisionObject(b, ShapeFilter{Group: 3, Categories: AllCategories, Mask: AllCategories})
	w.PerformDiscreteCollisionDetection()
	assert.Equal(t, 0, w.pairCache().NumOverlappingPairs(), "same group")

	s0 := NewStaticObject(NewSphereShape(1))
	s1 := NewKinematicObject(NewSphereShape(1))
	w.AddCollisionObject(s0, ShapeFilterAll)
	w.AddCollisionObject(s1, ShapeFilterAll)
	w.PerformDiscreteCollisionDetection()
	for _, pair := range w.pairCache().Pairs() {
		assert.False(t, pair.Proxy0.ClientObject.IsStaticOrKinematicObject() &&
			pair.Proxy1.ClientObject.IsStaticOrKinematicObject())
	}
}

func TestWorldLinkDisablesCollision(t *testing.T) {
	w, _ := newTestWorld(t)
	a := addSphere(w, 1, mgl64.Vec3{})
	b := addSphere(w, 1, mgl64.Vec3{1.5, 0, 0})
	link := w.AddLink(a, b, true)

	w.PerformDiscreteCollisionDetection()
	assert.Equal(t, 0, w.Dispatcher().NumManifolds())

	w.CalculateSimulationIslands()
	assert.Equal(t, a.IslandTag(), b.IslandTag(), "linked objects share an island")

	w.RemoveLink(link)
	assert.Empty(t, w.Links())
	w.PerformDiscreteCollisionDetection()
	assert.Equal(t, 1, w.Dispatcher().NumManifolds())
}

func TestWorldIslands(t *testing.T) {
	w, _ := newTestWorld(t)
	a := addSphere(w, 1, mgl64.Vec3{})
	b := addSphere(w, 1, mgl64.Vec3{1.5, 0, 0})
	c := addSphere(w, 1, mgl64.Vec3{10, 0, 0})
	ground := NewStaticObject(NewBoxShape(mgl64.Vec3{20, 1, 20}))
	ground.SetPosition(mgl64.Vec3{0, -1.9, 0})
	w.AddCollisionObject(ground, ShapeFilterAll)

	w.PerformDiscreteCollisionDetection()
	w.CalculateSimulationIslands()
	assert.Equal(t, a.IslandTag(), b.IslandTag())
	assert.NotEqual(t, a.IslandTag(), c.IslandTag(), "static objects do not merge islands")
	assert.Equal(t, -1, ground.IslandTag())

	type island struct {
		bodies    int
		manifolds int
	}
	var got []island
	w.ProcessIslands(func(bodies []*CollisionObject, manifolds []*PersistentManifold, islandID int) {
		got = append(got, island{len(bodies), len(manifolds)})
	})
	// a-b, a-ground and b-ground land in the first island, c-ground in the second
	assert.ElementsMatch(t, []island{{2, 3}, {1, 1}}, got)

	c.ForceActivationState(IslandSleeping)
	w.PerformDiscreteCollisionDetection()
	w.CalculateSimulationIslands()
	got = got[:0]
	w.ProcessIslands(func(bodies []*CollisionObject, manifolds []*PersistentManifold, islandID int) {
		got = append(got, island{len(bodies), len(manifolds)})
	})
	assert.Equal(t, []island{{2, 3}}, got)
	assert.Equal(t, IslandSleeping, c.ActivationState())
}

func TestKinematicWakesSleepingObject(t *testing.T) {
	w, _ := newTestWorld(t)
	k := NewKinematicObject(NewSphereShape(1))
	w.AddCollisionObject(k, ShapeFilterAll)
	d := addSphere(w, 1, mgl64.Vec3{1.5, 0, 0})
	d.ForceActivationState(IslandSleeping)

	w.PerformDiscreteCollisionDetection()
	require.Equal(t, 1, w.Dispatcher().NumManifolds())
	w.CalculateSimulationIslands()

	var visited int
	w.ProcessIslands(func(bodies []*CollisionObject, manifolds []*PersistentManifold, islandID int) {
		visited++
	})
	assert.Equal(t, ActiveTag, d.ActivationState())
	assert.Equal(t, 1, visited)
}

func TestWorldUpdateActivationState(t *testing.T) {
	w, _ := newTestWorld(t)
	resting := addSphere(w, 1, mgl64.Vec3{})
	moving := addSphere(w, 1, mgl64.Vec3{10, 0, 0})
	moving.SetInterpolationLinearVelocity(mgl64.Vec3{5, 0, 0})
	pinned := addSphere(w, 1, mgl64.Vec3{20, 0, 0})
	pinned.ForceActivationState(DisableDeactivation)

	w.UpdateActivationState(1)
	assert.Equal(t, ActiveTag, resting.ActivationState())
	w.UpdateActivationState(1.5)
	assert.Equal(t, WantsDeactivation, resting.ActivationState())
	assert.Equal(t, ActiveTag, moving.ActivationState())
	assert.Equal(t, 0.0, moving.DeactivationTime())
	assert.Equal(t, DisableDeactivation, pinned.ActivationState())
}

func TestWorldAabbOverflow(t *testing.T) {
	w, logged := newTestWorld(t)
	drawer := &recordingDrawer{}
	w.SetDebugDrawer(drawer)

	huge := addSphere(w, 1e7, mgl64.Vec3{})
	other := addSphere(w, 1e7, mgl64.Vec3{5, 0, 0})
	w.UpdateAabbs()
	w.UpdateAabbs()

	assert.Equal(t, DisableSimulation, huge.ActivationState())
	assert.Equal(t, DisableSimulation, other.ActivationState())
	assert.Equal(t, []string{"Overflow in AABB, object removed from simulation"}, drawer.warnings)
	assert.Contains(t, logged.String(), "Overflow in AABB")

	// static objects may be arbitrarily large
	ground := NewStaticObject(NewSphereShape(1e7))
	w.AddCollisionObject(ground, ShapeFilterAll)
	w.UpdateAabbs()
	assert.Equal(t, ActiveTag, ground.ActivationState())
}

func TestContinuousCollision(t *testing.T) {
	w, _ := newTestWorld(t)
	box := NewStaticObject(NewBoxShape(mgl64.Vec3{1, 1, 1}))
	w.AddCollisionObject(box, ShapeFilterAll)

	ball := addSphere(w, 0.5, mgl64.Vec3{-5, 0, 0})
	ball.SetInterpolationWorldTransform(NewTransformTranslate(mgl64.Vec3{5, 0, 0}))
	ball.SetCcdSweptSphereRadius(0.5)
	ball.SetCcdMotionThreshold(0.1)

	toi := w.PerformContinuousCollisionDetection()
	assert.InDelta(t, 0.35, toi, 1e-2)
	assert.InDelta(t, 0.35, ball.HitFraction(), 1e-2)
	assert.False(t, w.DispatchInfo().UseContinuous)
	assert.Equal(t, DispatchDiscrete, w.DispatchInfo().DispatchFunc)

	// below the motion threshold nothing is swept
	ball.SetHitFraction(1)
	ball.SetCcdMotionThreshold(20)
	box.SetCcdMotionThreshold(1)
	assert.Equal(t, 1.0, w.PerformContinuousCollisionDetection())
}

func contactPoints(w *World) []ManifoldPoint {
	var points []ManifoldPoint
	for _, m := range w.Dispatcher().Manifolds() {
		points = append(points, m.Points()...)
	}
	return points
}

func TestWorldCompoundChildReplaced(t *testing.T) {
	w, _ := newTestWorld(t)
	compound := NewCompoundShape()
	compound.AddChildShape(NewTransformIdentity(), NewSphereShape(1))
	body := NewCollisionObject(compound)
	w.AddCollisionObject(body, ShapeFilterAll)
	addSphere(w, 1, mgl64.Vec3{1.5, 0, 0})

	w.PerformDiscreteCollisionDetection()
	require.Len(t, contactPoints(w), 1)

	// same child count, different child shape type
	compound.RemoveChildShapeByIndex(0)
	compound.AddChildShape(NewTransformIdentity(), NewBoxShape(mgl64.Vec3{1, 1, 1}))
	w.UpdateSingleAabb(body)

	require.NotPanics(t, w.PerformDiscreteCollisionDetection)
	points := contactPoints(w)
	require.NotEmpty(t, points)
	for _, cp := range points {
		assert.Less(t, cp.Distance, 0.0)
	}
}

func TestWorldSetShapeRedispatches(t *testing.T) {
	w, _ := newTestWorld(t)
	addSphere(w, 1, mgl64.Vec3{})
	b := addSphere(w, 1, mgl64.Vec3{1.5, 0, 0})

	w.PerformDiscreteCollisionDetection()
	require.Len(t, contactPoints(w), 1)

	b.SetShape(NewBoxShape(mgl64.Vec3{1, 1, 1}))
	w.UpdateSingleAabb(b)

	require.NotPanics(t, w.PerformDiscreteCollisionDetection)
	assert.Equal(t, 1, w.Dispatcher().NumManifolds())
	points := contactPoints(w)
	require.NotEmpty(t, points)
	assert.Less(t, points[0].Distance, 0.0)
}

func TestWorldIslandWithDisabledMember(t *testing.T) {
	w, _ := newTestWorld(t)
	a := addSphere(w, 1, mgl64.Vec3{})
	b := addSphere(w, 1, mgl64.Vec3{1.5, 0, 0})
	b.ForceActivationState(DisableSimulation)

	w.PerformDiscreteCollisionDetection()
	require.Equal(t, 1, w.Dispatcher().NumManifolds())
	w.CalculateSimulationIslands()
	require.Equal(t, a.IslandTag(), b.IslandTag())

	var calls, bodies, manifolds int
	w.ProcessIslands(func(bs []*CollisionObject, ms []*PersistentManifold, islandID int) {
		calls++
		bodies += len(bs)
		manifolds += len(ms)
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, bodies)
	assert.Equal(t, 1, manifolds)
	assert.Equal(t, DisableSimulation, b.ActivationState())
}
