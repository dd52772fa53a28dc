package cm3

import "github.com/go-gl/mathgl/mgl64"

// ManifoldResult records the contacts of one body pair into a
// PersistentManifold.
//
// Algorithms report contacts in the body order of the manifold they write to,
// which may be the reverse of the pair order the result was created with. The
// result detects the swap and localizes points with the matching transforms.
type ManifoldResult struct {
	manifold     *PersistentManifold
	body0, body1 *CollisionObject
	// world transforms of the bodies, not of the child shapes being processed
	rootTransA, rootTransB Transform

	partID0, index0 int
	partID1, index1 int

	cfg *Config
}

// NewManifoldResult returns a result for the pair body0, body1.
func NewManifoldResult(cfg *Config, body0, body1 *CollisionObject) *ManifoldResult {
	return &ManifoldResult{
		body0:      body0,
		body1:      body1,
		rootTransA: body0.worldTransform,
		rootTransB: body1.worldTransform,
		partID0:    -1,
		index0:     -1,
		partID1:    -1,
		index1:     -1,
		cfg:        cfg,
	}
}

func (r *ManifoldResult) Body0() *CollisionObject {
	return r.body0
}

func (r *ManifoldResult) Body1() *CollisionObject {
	return r.body1
}

// SetPersistentManifold selects the manifold the following contacts go to.
func (r *ManifoldResult) SetPersistentManifold(m *PersistentManifold) {
	r.manifold = m
}

func (r *ManifoldResult) PersistentManifold() *PersistentManifold {
	return r.manifold
}

func (r *ManifoldResult) SetShapeIdentifiers(partID0, index0, partID1, index1 int) {
	r.partID0 = partID0
	r.index0 = index0
	r.partID1 = partID1
	r.index1 = index1
}

func (r *ManifoldResult) isSwapped() bool {
	return r.manifold.body0 != r.body0
}

// AddContactPoint records a contact. Points further apart than the breaking
// threshold of the manifold are ignored.
func (r *ManifoldResult) AddContactPoint(normalOnBInWorld, pointInWorld mgl64.Vec3, depth float64) {
	if r.manifold == nil {
		panic("cm3: ManifoldResult has no manifold")
	}
	if depth > r.manifold.ContactBreakingThreshold() {
		return
	}

	trA, trB := r.rootTransA, r.rootTransB
	if r.isSwapped() {
		trA, trB = trB, trA
	}

	pointA := pointInWorld.Add(normalOnBInWorld.Mul(depth))
	newPt := NewManifoldPoint(trA.InvApply(pointA), trB.InvApply(pointInWorld), normalOnBInWorld, depth)
	newPt.PositionWorldOnA = pointA
	newPt.PositionWorldOnB = pointInWorld

	obj0, obj1 := r.manifold.body0, r.manifold.body1
	newPt.CombinedFriction = combinedFriction(obj0, obj1)
	newPt.CombinedRestitution = combinedRestitution(obj0, obj1)
	newPt.PartID0 = r.partID0
	newPt.PartID1 = r.partID1
	newPt.Index0 = r.index0
	newPt.Index1 = r.index1

	insertIndex := r.manifold.CacheEntry(&newPt)
	if insertIndex >= 0 {
		r.manifold.ReplaceContactPoint(newPt, insertIndex)
	} else {
		insertIndex = r.manifold.AddManifoldPoint(newPt)
	}

	if r.cfg != nil && r.cfg.ContactAdded != nil &&
		(obj0.flags&CollisionFlagCustomMaterialCallback != 0 || obj1.flags&CollisionFlagCustomMaterialCallback != 0) {
		r.cfg.ContactAdded(r.manifold.ContactPoint(insertIndex), obj0, r.partID0, r.index0, obj1, r.partID1, r.index1)
	}
}

// RefreshContactPoints refreshes the current manifold with the body transforms.
func (r *ManifoldResult) RefreshContactPoints() {
	if r.manifold == nil {
		panic("cm3: ManifoldResult has no manifold")
	}
	if r.manifold.NumContacts() == 0 {
		return
	}
	if r.isSwapped() {
		r.manifold.RefreshContactPoints(r.rootTransB, r.rootTransA)
	} else {
		r.manifold.RefreshContactPoints(r.rootTransA, r.rootTransB)
	}
}

func combinedFriction(body0, body1 *CollisionObject) float64 {
	return clamp(body0.friction*body1.friction, -MaxFriction, MaxFriction)
}

func combinedRestitution(body0, body1 *CollisionObject) float64 {
	return body0.restitution * body1.restitution
}
