package cm3

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ManifoldPoint is a contact point of a PersistentManifold.
//
// Geometry and material fields are overwritten when a new contact replaces the
// point. The solver fields (impulses, friction directions, lifetime, user
// data) survive the replacement so that the solver can warm start.
type ManifoldPoint struct {
	// Contact on body 0 and body 1 in their local frames.
	LocalPointA, LocalPointB mgl64.Vec3
	// Contact on body 0 and body 1 in world space.
	PositionWorldOnA, PositionWorldOnB mgl64.Vec3
	// NormalWorldOnB points from body 1 towards body 0.
	NormalWorldOnB mgl64.Vec3
	// Distance is negative when the bodies overlap.
	Distance float64

	CombinedFriction    float64
	CombinedRestitution float64

	// Mesh part and triangle (or compound child) of each body, -1 when unused.
	PartID0, PartID1 int
	Index0, Index1   int

	UserPersistentData         any
	LateralFrictionInitialized bool
	AppliedImpulse             float64
	AppliedImpulseLateral1     float64
	AppliedImpulseLateral2     float64
	LateralFrictionDir1        mgl64.Vec3
	LateralFrictionDir2        mgl64.Vec3
	// LifeTime counts the refreshes the point survived.
	LifeTime int
}

// NewManifoldPoint returns a point with no solver history.
func NewManifoldPoint(pointA, pointB, normal mgl64.Vec3, distance float64) ManifoldPoint {
	return ManifoldPoint{
		LocalPointA:    pointA,
		LocalPointB:    pointB,
		NormalWorldOnB: normal,
		Distance:       distance,
		PartID0:        -1,
		PartID1:        -1,
		Index0:         -1,
		Index1:         -1,
	}
}

func (mp *ManifoldPoint) String() string {
	return fmt.Sprintf("ManifoldPoint{A:%v B:%v N:%v D:%.4f}", mp.PositionWorldOnA, mp.PositionWorldOnB, mp.NormalWorldOnB, mp.Distance)
}

// PersistentManifold caches up to MaxCachedPoints contact points of one pair of
// bodies across steps.
type PersistentManifold struct {
	body0, body1             *CollisionObject
	points                   [MaxCachedPoints]ManifoldPoint
	cachedPoints             int
	contactBreakingThreshold float64
	// index of the manifold in the dispatcher list
	index int
	cfg   *Config
}

// NewPersistentManifold returns an empty manifold for body0 and body1.
func NewPersistentManifold(body0, body1 *CollisionObject, contactBreakingThreshold float64, cfg *Config) *PersistentManifold {
	m := &PersistentManifold{}
	m.Init(body0, body1, contactBreakingThreshold, cfg)
	return m
}

// Init resets the manifold for reuse from a pool.
func (m *PersistentManifold) Init(body0, body1 *CollisionObject, contactBreakingThreshold float64, cfg *Config) {
	*m = PersistentManifold{
		body0:                    body0,
		body1:                    body1,
		contactBreakingThreshold: contactBreakingThreshold,
		index:                    -1,
		cfg:                      cfg,
	}
}

func (m *PersistentManifold) Body0() *CollisionObject {
	return m.body0
}

func (m *PersistentManifold) Body1() *CollisionObject {
	return m.body1
}

// SetBodies swaps in a new pair of bodies. Cached points are kept.
func (m *PersistentManifold) SetBodies(body0, body1 *CollisionObject) {
	m.body0 = body0
	m.body1 = body1
}

func (m *PersistentManifold) NumContacts() int {
	return m.cachedPoints
}

// ContactPoint returns the point at index. The solver may write to it.
func (m *PersistentManifold) ContactPoint(index int) *ManifoldPoint {
	if index < 0 || index >= m.cachedPoints {
		panic(fmt.Sprintf("cm3: manifold point index %d out of range [0,%d)", index, m.cachedPoints))
	}
	return &m.points[index]
}

// Points returns the cached points. The slice aliases the manifold storage.
func (m *PersistentManifold) Points() []ManifoldPoint {
	return m.points[:m.cachedPoints]
}

func (m *PersistentManifold) ContactBreakingThreshold() float64 {
	return m.contactBreakingThreshold
}

// Index returns the position of the manifold in its dispatcher, -1 when detached.
func (m *PersistentManifold) Index() int {
	return m.index
}

// CacheEntry returns the index of the cached point whose local point A is
// closest to the one of pt within the breaking threshold, or -1.
func (m *PersistentManifold) CacheEntry(pt *ManifoldPoint) int {
	shortestDist := m.contactBreakingThreshold * m.contactBreakingThreshold
	nearest := -1
	for i := 0; i < m.cachedPoints; i++ {
		d := m.points[i].LocalPointA.Sub(pt.LocalPointA).LenSqr()
		if d < shortestDist {
			shortestDist = d
			nearest = i
		}
	}
	return nearest
}

// AddManifoldPoint inserts pt and returns its index. A full manifold evicts a
// point chosen by sortCachedPoints.
func (m *PersistentManifold) AddManifoldPoint(pt ManifoldPoint) int {
	insertIndex := m.cachedPoints
	if insertIndex == MaxCachedPoints {
		insertIndex = m.sortCachedPoints(&pt)
		m.clearUserCache(&m.points[insertIndex])
	} else {
		m.cachedPoints++
	}
	m.points[insertIndex] = pt
	return insertIndex
}

// sortCachedPoints picks the slot to overwrite with pt. The deepest point is
// always kept, among the others the slot whose replacement spans the largest
// area wins. Ties resolve to the lowest index.
func (m *PersistentManifold) sortCachedPoints(pt *ManifoldPoint) int {
	maxPenetrationIndex := -1
	maxPenetration := pt.Distance
	for i := 0; i < MaxCachedPoints; i++ {
		if m.points[i].Distance < maxPenetration {
			maxPenetrationIndex = i
			maxPenetration = m.points[i].Distance
		}
	}

	p := &m.points
	var res [4]float64
	if maxPenetrationIndex != 0 {
		res[0] = pt.LocalPointA.Sub(p[1].LocalPointA).Cross(p[3].LocalPointA.Sub(p[2].LocalPointA)).LenSqr()
	}
	if maxPenetrationIndex != 1 {
		res[1] = pt.LocalPointA.Sub(p[0].LocalPointA).Cross(p[3].LocalPointA.Sub(p[2].LocalPointA)).LenSqr()
	}
	if maxPenetrationIndex != 2 {
		res[2] = pt.LocalPointA.Sub(p[0].LocalPointA).Cross(p[3].LocalPointA.Sub(p[1].LocalPointA)).LenSqr()
	}
	if maxPenetrationIndex != 3 {
		res[3] = pt.LocalPointA.Sub(p[0].LocalPointA).Cross(p[2].LocalPointA.Sub(p[1].LocalPointA)).LenSqr()
	}
	if maxPenetrationIndex >= 0 {
		res[maxPenetrationIndex] = -1
	}
	return maxAxis4(res)
}

// ReplaceContactPoint overwrites the point at index with pt, keeping the
// solver history of the old point.
func (m *PersistentManifold) ReplaceContactPoint(pt ManifoldPoint, index int) {
	old := &m.points[index]
	pt.LifeTime = old.LifeTime
	pt.AppliedImpulse = old.AppliedImpulse
	pt.AppliedImpulseLateral1 = old.AppliedImpulseLateral1
	pt.AppliedImpulseLateral2 = old.AppliedImpulseLateral2
	pt.LateralFrictionDir1 = old.LateralFrictionDir1
	pt.LateralFrictionDir2 = old.LateralFrictionDir2
	pt.LateralFrictionInitialized = old.LateralFrictionInitialized
	pt.UserPersistentData = old.UserPersistentData
	m.points[index] = pt
}

// RemoveContactPoint drops the point at index. The last point takes its slot.
func (m *PersistentManifold) RemoveContactPoint(index int) {
	m.clearUserCache(&m.points[index])
	last := m.cachedPoints - 1
	if index != last {
		m.points[index] = m.points[last]
	}
	m.points[last] = ManifoldPoint{}
	m.cachedPoints--
}

// ClearManifold removes every point.
func (m *PersistentManifold) ClearManifold() {
	for i := 0; i < m.cachedPoints; i++ {
		m.clearUserCache(&m.points[i])
		m.points[i] = ManifoldPoint{}
	}
	m.cachedPoints = 0
}

func (m *PersistentManifold) clearUserCache(pt *ManifoldPoint) {
	if pt.UserPersistentData != nil {
		if m.cfg != nil && m.cfg.ContactDestroyed != nil {
			m.cfg.ContactDestroyed(pt.UserPersistentData)
		}
		pt.UserPersistentData = nil
	}
}

func (m *PersistentManifold) validContactDistance(pt *ManifoldPoint) bool {
	return pt.Distance <= m.contactBreakingThreshold
}

// RefreshContactPoints moves the cached points with the bodies and drops the
// ones that separated along the normal or drifted apart orthogonally beyond
// the breaking threshold.
func (m *PersistentManifold) RefreshContactPoints(trA, trB Transform) {
	for i := m.cachedPoints - 1; i >= 0; i-- {
		pt := &m.points[i]
		pt.PositionWorldOnA = trA.Apply(pt.LocalPointA)
		pt.PositionWorldOnB = trB.Apply(pt.LocalPointB)
		pt.Distance = pt.PositionWorldOnA.Sub(pt.PositionWorldOnB).Dot(pt.NormalWorldOnB)
		pt.LifeTime++
	}

	threshold2 := m.contactBreakingThreshold * m.contactBreakingThreshold
	for i := m.cachedPoints - 1; i >= 0; i-- {
		pt := &m.points[i]
		if !m.validContactDistance(pt) {
			m.RemoveContactPoint(i)
			continue
		}
		projectedPoint := pt.PositionWorldOnA.Sub(pt.NormalWorldOnB.Mul(pt.Distance))
		if pt.PositionWorldOnB.Sub(projectedPoint).LenSqr() > threshold2 {
			m.RemoveContactPoint(i)
			continue
		}
		if m.cfg != nil && m.cfg.ContactProcessed != nil {
			m.cfg.ContactProcessed(pt, m.body0, m.body1)
		}
	}
}
