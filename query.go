package cm3

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// LocalShapeInfo identifies the triangle of a mesh hit by a query.
type LocalShapeInfo struct {
	ShapePart     int
	TriangleIndex int
}

// LocalRayResult is one hit of a ray query.
type LocalRayResult struct {
	CollisionObject *CollisionObject
	// nil unless a mesh triangle was hit
	LocalShapeInfo *LocalShapeInfo
	HitNormalLocal mgl64.Vec3
	HitFraction    float64
}

// RayResultCallback receives the hits of World.RayTest.
type RayResultCallback interface {
	// HitFraction is the current upper bound for reported hits. Queries stop
	// once it reaches zero.
	HitFraction() float64
	NeedsCollision(proxy *BroadphaseProxy) bool
	// AddSingleResult records a hit and returns the new upper bound.
	AddSingleResult(result *LocalRayResult, normalInWorldSpace bool) float64
}

// RayResultBase holds the state shared by ray callbacks.
type RayResultBase struct {
	ClosestHitFraction float64
	CollisionObject    *CollisionObject
	Filter             ShapeFilter
}

func (r *RayResultBase) HitFraction() float64 {
	return r.ClosestHitFraction
}

// HasHit returns true if any hit was recorded.
func (r *RayResultBase) HasHit() bool {
	return r.CollisionObject != nil
}

func (r *RayResultBase) NeedsCollision(proxy *BroadphaseProxy) bool {
	return !r.Filter.Reject(proxy.Filter)
}

// ClosestRayResultCallback keeps the hit nearest to the ray start.
type ClosestRayResultCallback struct {
	RayResultBase
	RayFromWorld, RayToWorld mgl64.Vec3
	HitNormalWorld           mgl64.Vec3
	HitPointWorld            mgl64.Vec3
	LocalShapeInfo           *LocalShapeInfo
}

func NewClosestRayResultCallback(from, to mgl64.Vec3) *ClosestRayResultCallback {
	return &ClosestRayResultCallback{
		RayResultBase: RayResultBase{ClosestHitFraction: 1, Filter: ShapeFilterAll},
		RayFromWorld:  from,
		RayToWorld:    to,
	}
}

func (cb *ClosestRayResultCallback) AddSingleResult(result *LocalRayResult, normalInWorldSpace bool) float64 {
	cb.ClosestHitFraction = result.HitFraction
	cb.CollisionObject = result.CollisionObject
	cb.LocalShapeInfo = result.LocalShapeInfo
	if normalInWorldSpace {
		cb.HitNormalWorld = result.HitNormalLocal
	} else {
		cb.HitNormalWorld = cb.CollisionObject.worldTransform.ApplyVector(result.HitNormalLocal)
	}
	cb.HitPointWorld = lerpVec(cb.RayFromWorld, cb.RayToWorld, result.HitFraction)
	return result.HitFraction
}

// AllHitsRayResultCallback records every hit along the ray, in the order they
// were found.
type AllHitsRayResultCallback struct {
	RayResultBase
	RayFromWorld, RayToWorld mgl64.Vec3

	CollisionObjects []*CollisionObject
	HitNormalWorld   []mgl64.Vec3
	HitPointWorld    []mgl64.Vec3
	HitFractions     []float64
}

func NewAllHitsRayResultCallback(from, to mgl64.Vec3) *AllHitsRayResultCallback {
	return &AllHitsRayResultCallback{
		RayResultBase: RayResultBase{ClosestHitFraction: 1, Filter: ShapeFilterAll},
		RayFromWorld:  from,
		RayToWorld:    to,
	}
}

func (cb *AllHitsRayResultCallback) AddSingleResult(result *LocalRayResult, normalInWorldSpace bool) float64 {
	cb.CollisionObject = result.CollisionObject
	cb.CollisionObjects = append(cb.CollisionObjects, result.CollisionObject)

	normal := result.HitNormalLocal
	if !normalInWorldSpace {
		normal = result.CollisionObject.worldTransform.ApplyVector(normal)
	}
	cb.HitNormalWorld = append(cb.HitNormalWorld, normal)
	cb.HitPointWorld = append(cb.HitPointWorld, lerpVec(cb.RayFromWorld, cb.RayToWorld, result.HitFraction))
	cb.HitFractions = append(cb.HitFractions, result.HitFraction)
	return cb.ClosestHitFraction
}

// LocalConvexResult is one hit of a convex sweep.
type LocalConvexResult struct {
	HitCollisionObject *CollisionObject
	LocalShapeInfo     *LocalShapeInfo
	HitNormalLocal     mgl64.Vec3
	HitPointLocal      mgl64.Vec3
	HitFraction        float64
}

// ConvexResultCallback receives the hits of World.ConvexSweepTest.
type ConvexResultCallback interface {
	HitFraction() float64
	NeedsCollision(proxy *BroadphaseProxy) bool
	AddSingleResult(result *LocalConvexResult, normalInWorldSpace bool) float64
}

// ConvexResultBase holds the state shared by convex sweep callbacks.
type ConvexResultBase struct {
	ClosestHitFraction float64
	Filter             ShapeFilter
}

func (r *ConvexResultBase) HitFraction() float64 {
	return r.ClosestHitFraction
}

// HasHit returns true if a hit before the end of the sweep was recorded.
func (r *ConvexResultBase) HasHit() bool {
	return r.ClosestHitFraction < 1
}

func (r *ConvexResultBase) NeedsCollision(proxy *BroadphaseProxy) bool {
	return !r.Filter.Reject(proxy.Filter)
}

// ClosestConvexResultCallback keeps the earliest hit of the sweep.
type ClosestConvexResultCallback struct {
	ConvexResultBase
	ConvexFromWorld, ConvexToWorld mgl64.Vec3
	HitNormalWorld                 mgl64.Vec3
	HitPointWorld                  mgl64.Vec3
	HitCollisionObject             *CollisionObject
}

func NewClosestConvexResultCallback(from, to mgl64.Vec3) *ClosestConvexResultCallback {
	return &ClosestConvexResultCallback{
		ConvexResultBase: ConvexResultBase{ClosestHitFraction: 1, Filter: ShapeFilterAll},
		ConvexFromWorld:  from,
		ConvexToWorld:    to,
	}
}

func (cb *ClosestConvexResultCallback) AddSingleResult(result *LocalConvexResult, normalInWorldSpace bool) float64 {
	cb.ClosestHitFraction = result.HitFraction
	cb.HitCollisionObject = result.HitCollisionObject
	if normalInWorldSpace {
		cb.HitNormalWorld = result.HitNormalLocal
	} else {
		cb.HitNormalWorld = cb.HitCollisionObject.worldTransform.ApplyVector(result.HitNormalLocal)
	}
	cb.HitPointWorld = result.HitPointLocal
	return result.HitFraction
}

// RayTest casts the segment from→to against every object of the world whose
// bounds it crosses. Candidates are visited nearest first and the traversal
// stops once the callback hit fraction reaches zero.
func (w *World) RayTest(from, to mgl64.Vec3, cb RayResultCallback) {
	rayFrom := NewTransformTranslate(from)
	rayTo := NewTransformTranslate(to)

	w.broadphase.SegmentQuery(from, to, cb.HitFraction(), func(proxy *BroadphaseProxy) float64 {
		if cb.HitFraction() == 0 {
			return 0
		}
		if !cb.NeedsCollision(proxy) {
			return cb.HitFraction()
		}
		obj := proxy.ClientObject
		bb := obj.shape.Aabb(obj.worldTransform)
		if _, _, ok := bb.RayHit(from, to, cb.HitFraction()); ok {
			w.RayTestSingle(rayFrom, rayTo, obj, obj.shape, obj.worldTransform, cb)
		}
		return cb.HitFraction()
	})
}

// RayTestSingle casts the ray against shape placed at colObjWorldTransform and
// reports hits on obj.
func (w *World) RayTestSingle(rayFrom, rayTo Transform, obj *CollisionObject, shape CollisionShape, colObjWorldTransform Transform, cb RayResultCallback) {
	switch {
	case shape.Type().IsConvex():
		pointShape := NewSphereShape(0)
		castResult := NewCastResult()
		castResult.Fraction = cb.HitFraction()

		cast := newConvexCast(pointShape, shape.(ConvexShape))
		if !cast.CalcTimeOfImpact(rayFrom, rayTo, colObjWorldTransform, colObjWorldTransform, &castResult) {
			return
		}
		if castResult.Normal.LenSqr() > 0.0001 && castResult.Fraction < cb.HitFraction() {
			cb.AddSingleResult(&LocalRayResult{
				CollisionObject: obj,
				HitNormalLocal:  castResult.Normal.Normalize(),
				HitFraction:     castResult.Fraction,
			}, true)
		}

	case shape.Type().IsConcave():
		worldToObj := colObjWorldTransform.Inverse()
		fromLocal := worldToObj.Apply(rayFrom.Origin)
		toLocal := worldToObj.Apply(rayTo.Origin)

		rc := triangleRaycaster{
			from:        fromLocal,
			to:          toLocal,
			hitFraction: cb.HitFraction(),
			reportHit: func(normalLocal mgl64.Vec3, fraction float64, partID, triangleIndex int) float64 {
				return cb.AddSingleResult(&LocalRayResult{
					CollisionObject: obj,
					LocalShapeInfo:  &LocalShapeInfo{ShapePart: partID, TriangleIndex: triangleIndex},
					HitNormalLocal:  normalLocal,
					HitFraction:     fraction,
				}, false)
			},
		}
		if mesh, ok := shape.(*TriangleMeshShape); ok {
			mesh.PerformRaycast(rc.processTriangle, fromLocal, toLocal)
		} else {
			shape.(ConcaveShape).ProcessAllTriangles(rc.processTriangle, minVec(fromLocal, toLocal), maxVec(fromLocal, toLocal))
		}

	case shape.Type().IsCompound():
		compound := shape.(*CompoundShape)
		for i := 0; i < compound.NumChildShapes(); i++ {
			childWorld := colObjWorldTransform.Mult(compound.ChildTransform(i))
			w.RayTestSingle(rayFrom, rayTo, obj, compound.ChildShape(i), childWorld, cb)
		}

	default:
		w.warnUnsupportedShape(shape.Type(), "RayTestSingle")
	}
}

// ConvexSweepTest sweeps castShape from one transform to another against every
// object whose bounds, grown by the swept bounds of castShape, the motion
// crosses. Only the translation of the sweep is interpolated.
func (w *World) ConvexSweepTest(castShape ConvexShape, from, to Transform, cb ConvexResultCallback, allowedPenetration float64) {
	linVel, angVel := CalculateVelocity(from, to, 1)
	rotation := Transform{Basis: from.Basis}
	castBB := temporalAabb(castShape, rotation, linVel, angVel, 1)

	for _, obj := range w.objects {
		if cb.HitFraction() == 0 {
			break
		}
		if obj.broadphaseHandle == nil || !cb.NeedsCollision(obj.broadphaseHandle) {
			continue
		}
		bb := obj.shape.Aabb(obj.worldTransform).Minkowski(castBB)
		if _, _, ok := bb.RayHit(from.Origin, to.Origin, 1); ok {
			w.ObjectQuerySingle(castShape, from, to, obj, obj.shape, obj.worldTransform, cb, allowedPenetration)
		}
	}
}

// ObjectQuerySingle sweeps castShape against shape placed at
// colObjWorldTransform and reports hits on obj.
func (w *World) ObjectQuerySingle(castShape ConvexShape, from, to Transform, obj *CollisionObject, shape CollisionShape, colObjWorldTransform Transform, cb ConvexResultCallback, allowedPenetration float64) {
	switch {
	case shape.Type().IsConvex():
		castResult := NewCastResult()
		castResult.AllowedPenetration = allowedPenetration

		cast := newConvexCast(castShape, shape.(ConvexShape))
		if !cast.CalcTimeOfImpact(from, to, colObjWorldTransform, colObjWorldTransform, &castResult) {
			return
		}
		if castResult.Normal.LenSqr() > 0.0001 && castResult.Fraction < cb.HitFraction() {
			cb.AddSingleResult(&LocalConvexResult{
				HitCollisionObject: obj,
				HitNormalLocal:     castResult.Normal.Normalize(),
				HitPointLocal:      castResult.HitPoint,
				HitFraction:        castResult.Fraction,
			}, true)
		}

	case shape.Type().IsConcave():
		concave := shape.(ConcaveShape)
		worldToObj := colObjWorldTransform.Inverse()
		fromLocal := worldToObj.Apply(from.Origin)
		toLocal := worldToObj.Apply(to.Origin)

		// rotation of the cast shape in the local space of the concave shape
		rotationXform := Transform{Basis: worldToObj.Basis.Mul3(to.Basis)}
		boxLocal := castShape.Aabb(rotationXform)

		cc := triangleConvexcaster{
			castShape:          castShape,
			from:               from,
			to:                 to,
			triangleToWorld:    colObjWorldTransform,
			triangleMargin:     concave.Margin(),
			allowedPenetration: allowedPenetration,
			hitFraction:        cb.HitFraction(),
			reportHit: func(normal, point mgl64.Vec3, fraction float64, partID, triangleIndex int) float64 {
				if fraction > cb.HitFraction() {
					return fraction
				}
				return cb.AddSingleResult(&LocalConvexResult{
					HitCollisionObject: obj,
					LocalShapeInfo:     &LocalShapeInfo{ShapePart: partID, TriangleIndex: triangleIndex},
					HitNormalLocal:     normal,
					HitPointLocal:      point,
					HitFraction:        fraction,
				}, true)
			},
		}
		aabbMin := minVec(fromLocal, toLocal).Add(boxLocal.Min)
		aabbMax := maxVec(fromLocal, toLocal).Add(boxLocal.Max)
		concave.ProcessAllTriangles(cc.processTriangle, aabbMin, aabbMax)

	case shape.Type().IsCompound():
		compound := shape.(*CompoundShape)
		for i := 0; i < compound.NumChildShapes(); i++ {
			childWorld := colObjWorldTransform.Mult(compound.ChildTransform(i))
			w.ObjectQuerySingle(castShape, from, to, obj, compound.ChildShape(i), childWorld, cb, allowedPenetration)
		}

	default:
		w.warnUnsupportedShape(shape.Type(), "ObjectQuerySingle")
	}
}

func (w *World) warnUnsupportedShape(t ShapeType, query string) {
	if t == EmptyShapeType || w.warnedShapes[t] {
		return
	}
	w.warnedShapes[t] = true
	w.warn(fmt.Sprintf("%s: unsupported shape %v, treated as a miss", query, t))
}

// ContactResultFunc receives the contacts found by ContactTest and
// ContactPairTest in the body order of their manifold.
type ContactResultFunc func(cp *ManifoldPoint, body0, body1 *CollisionObject)

// ContactPairTest runs the narrow phase on a and b without touching the
// persistent pair state of the world and reports the contacts to f.
func (w *World) ContactPairTest(a, b *CollisionObject, f ContactResultFunc) {
	colA, colB := NewCollider(a), NewCollider(b)
	alg := w.dispatcher.FindAlgorithm(&colA, &colB, nil)
	defer func() {
		alg.Destroy()
		w.dispatcher.FreeAlgorithm(alg)
	}()

	result := NewManifoldResult(w.cfg, a, b)
	info := *w.dispatchInfo
	info.DispatchFunc = DispatchDiscrete
	alg.ProcessCollision(&colA, &colB, &info, result)

	for _, m := range alg.AllContactManifolds(nil) {
		for i := range m.NumContacts() {
			f(m.ContactPoint(i), m.Body0(), m.Body1())
		}
	}
}

// ContactTest reports the contacts of obj with every object whose bounds
// overlap it.
func (w *World) ContactTest(obj *CollisionObject, f ContactResultFunc) {
	bb := obj.shape.Aabb(obj.worldTransform).Grow(w.cfg.ContactBreakingThreshold)
	var others []*CollisionObject
	w.broadphase.AabbQuery(bb, func(proxy *BroadphaseProxy) {
		other := proxy.ClientObject
		if other == obj || !obj.CheckCollideWith(other) {
			return
		}
		if obj.broadphaseHandle != nil && obj.broadphaseHandle.Filter.Reject(proxy.Filter) {
			return
		}
		others = append(others, other)
	})
	for _, other := range others {
		w.ContactPairTest(obj, other, f)
	}
}
