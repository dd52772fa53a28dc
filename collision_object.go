package cm3

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

var objectCur int = 0

// CollisionObject is one body of a World. It carries the placement, the shape
// and the state the narrow phase and the island manager need. Mass and
// integration belong to the dynamics layer built on top.
type CollisionObject struct {
	// UserData is an object that this collision object is associated with.
	//
	// You can use this get a reference to your game object or controller object from within callbacks.
	UserData any
	World    *World

	id                          int
	worldTransform              Transform
	interpolationWorldTransform Transform
	// Diagnostic velocities used by continuous collision and deactivation,
	// not integrated by this package.
	interpolationLinearVelocity  mgl64.Vec3
	interpolationAngularVelocity mgl64.Vec3
	shape                        CollisionShape
	broadphaseHandle             *BroadphaseProxy
	flags                        uint
	activationState              ActivationState
	deactivationTime             float64
	linearSleepingThreshold      float64
	angularSleepingThreshold     float64
	islandTag                    int
	companionID                  int
	friction                     float64
	restitution                  float64
	hitFraction                  float64 // Time of impact scratch value, reset to 1 each step
	ccdSweptSphereRadius         float64
	ccdSquareMotionThreshold     float64
	ignored                      []*CollisionObject // Objects this one never collides with
	ghost                        overlapTracker     // Non-nil for ghost objects
}

// NewCollisionObject returns an active dynamic object at the identity transform.
func NewCollisionObject(shape CollisionShape) *CollisionObject {
	obj := &CollisionObject{
		id:                          objectCur,
		worldTransform:              NewTransformIdentity(),
		interpolationWorldTransform: NewTransformIdentity(),
		shape:                       shape,
		activationState:             ActiveTag,
		linearSleepingThreshold:     0.8,
		angularSleepingThreshold:    1.0,
		islandTag:                   -1,
		companionID:                 -1,
		friction:                    0.5,
		hitFraction:                 1,
	}
	objectCur++
	return obj
}

// NewStaticObject returns an object flagged as static.
func NewStaticObject(shape CollisionShape) *CollisionObject {
	obj := NewCollisionObject(shape)
	obj.flags |= CollisionFlagStaticObject
	return obj
}

// NewKinematicObject returns an object flagged as kinematic.
func NewKinematicObject(shape CollisionShape) *CollisionObject {
	obj := NewCollisionObject(shape)
	obj.flags |= CollisionFlagKinematicObject
	return obj
}

func (obj *CollisionObject) String() string {
	return fmt.Sprint("CollisionObject ", obj.id, ", ", obj.shape.Type())
}

// ID returns the creation order of the object.
func (obj *CollisionObject) ID() int {
	return obj.id
}

func (obj *CollisionObject) Shape() CollisionShape {
	return obj.shape
}

// SetShape changes the shape. The pairs of an object already in a world drop
// their algorithms so the next dispatch picks one for the new shape type. Call
// World.UpdateSingleAabb afterwards.
func (obj *CollisionObject) SetShape(shape CollisionShape) {
	obj.shape = shape
	if obj.World != nil && obj.broadphaseHandle != nil {
		obj.World.pairCache().CleanProxyFromPairs(obj.broadphaseHandle, obj.World.dispatcher)
	}
}

func (obj *CollisionObject) WorldTransform() Transform {
	return obj.worldTransform
}

// SetWorldTransform places the object. The interpolation transform is left
// untouched so that continuous collision sees the motion.
func (obj *CollisionObject) SetWorldTransform(t Transform) {
	obj.worldTransform = t
}

// SetPosition moves the object keeping its orientation.
func (obj *CollisionObject) SetPosition(p mgl64.Vec3) {
	obj.worldTransform.Origin = p
}

func (obj *CollisionObject) Position() mgl64.Vec3 {
	return obj.worldTransform.Origin
}

func (obj *CollisionObject) InterpolationWorldTransform() Transform {
	return obj.interpolationWorldTransform
}

func (obj *CollisionObject) SetInterpolationWorldTransform(t Transform) {
	obj.interpolationWorldTransform = t
}

func (obj *CollisionObject) InterpolationLinearVelocity() mgl64.Vec3 {
	return obj.interpolationLinearVelocity
}

func (obj *CollisionObject) SetInterpolationLinearVelocity(v mgl64.Vec3) {
	obj.interpolationLinearVelocity = v
}

func (obj *CollisionObject) InterpolationAngularVelocity() mgl64.Vec3 {
	return obj.interpolationAngularVelocity
}

func (obj *CollisionObject) SetInterpolationAngularVelocity(v mgl64.Vec3) {
	obj.interpolationAngularVelocity = v
}

// BroadphaseHandle returns the proxy of the object, nil outside of a world.
func (obj *CollisionObject) BroadphaseHandle() *BroadphaseProxy {
	return obj.broadphaseHandle
}

func (obj *CollisionObject) Flags() uint {
	return obj.flags
}

func (obj *CollisionObject) SetFlags(flags uint) {
	obj.flags = flags
}

func (obj *CollisionObject) IsStaticObject() bool {
	return obj.flags&CollisionFlagStaticObject != 0
}

func (obj *CollisionObject) IsKinematicObject() bool {
	return obj.flags&CollisionFlagKinematicObject != 0
}

func (obj *CollisionObject) IsStaticOrKinematicObject() bool {
	return obj.flags&(CollisionFlagStaticObject|CollisionFlagKinematicObject) != 0
}

func (obj *CollisionObject) HasContactResponse() bool {
	return obj.flags&CollisionFlagNoContactResponse == 0
}

// MergesSimulationIslands reports whether contacts of this object join islands.
// Static, kinematic and non-responding objects never do.
func (obj *CollisionObject) MergesSimulationIslands() bool {
	return obj.flags&(CollisionFlagStaticObject|CollisionFlagKinematicObject|CollisionFlagNoContactResponse) == 0
}

func (obj *CollisionObject) ActivationState() ActivationState {
	return obj.activationState
}

// SetActivationState changes the activation state unless the object carries
// one of the sticky states DisableDeactivation or DisableSimulation.
func (obj *CollisionObject) SetActivationState(state ActivationState) {
	if obj.activationState != DisableDeactivation && obj.activationState != DisableSimulation {
		obj.activationState = state
	}
}

// ForceActivationState changes the activation state unconditionally.
func (obj *CollisionObject) ForceActivationState(state ActivationState) {
	obj.activationState = state
}

// Activate wakes the object up. Static and kinematic objects are only woken
// when force is set.
func (obj *CollisionObject) Activate(force bool) {
	if force || !obj.IsStaticOrKinematicObject() {
		obj.SetActivationState(ActiveTag)
		obj.deactivationTime = 0
	}
}

// IsActive returns true if the object is neither sleeping nor disabled.
func (obj *CollisionObject) IsActive() bool {
	return obj.activationState != IslandSleeping && obj.activationState != DisableSimulation
}

func (obj *CollisionObject) DeactivationTime() float64 {
	return obj.deactivationTime
}

func (obj *CollisionObject) SetDeactivationTime(t float64) {
	obj.deactivationTime = t
}

// SetSleepingThresholds sets the velocities below which the object counts as resting.
func (obj *CollisionObject) SetSleepingThresholds(linear, angular float64) {
	obj.linearSleepingThreshold = linear
	obj.angularSleepingThreshold = angular
}

// UpdateDeactivation accumulates the time the object spent below its sleeping
// thresholds. Motion above a threshold resets the timer and wakes the object.
func (obj *CollisionObject) UpdateDeactivation(dt float64) {
	if obj.activationState == IslandSleeping || obj.activationState == DisableDeactivation {
		return
	}
	if obj.interpolationLinearVelocity.LenSqr() < obj.linearSleepingThreshold*obj.linearSleepingThreshold &&
		obj.interpolationAngularVelocity.LenSqr() < obj.angularSleepingThreshold*obj.angularSleepingThreshold {
		obj.deactivationTime += dt
	} else {
		obj.deactivationTime = 0
		obj.SetActivationState(ActiveTag)
	}
}

// WantsSleeping reports whether the object rested long enough to be deactivated.
func (obj *CollisionObject) WantsSleeping(cfg *Config) bool {
	if obj.activationState == DisableDeactivation {
		return false
	}
	if cfg.DisableDeactivation || cfg.DeactivationTime == 0 {
		return false
	}
	if obj.activationState == IslandSleeping || obj.activationState == WantsDeactivation {
		return true
	}
	return obj.deactivationTime > cfg.DeactivationTime
}

func (obj *CollisionObject) IslandTag() int {
	return obj.islandTag
}

func (obj *CollisionObject) SetIslandTag(tag int) {
	obj.islandTag = tag
}

func (obj *CollisionObject) CompanionID() int {
	return obj.companionID
}

func (obj *CollisionObject) SetCompanionID(id int) {
	obj.companionID = id
}

func (obj *CollisionObject) Friction() float64 {
	return obj.friction
}

func (obj *CollisionObject) SetFriction(friction float64) {
	obj.friction = friction
}

func (obj *CollisionObject) Restitution() float64 {
	return obj.restitution
}

func (obj *CollisionObject) SetRestitution(restitution float64) {
	obj.restitution = restitution
}

func (obj *CollisionObject) HitFraction() float64 {
	return obj.hitFraction
}

func (obj *CollisionObject) SetHitFraction(fraction float64) {
	obj.hitFraction = fraction
}

// CcdSweptSphereRadius returns the radius of the sphere used to approximate
// the object during time of impact queries.
func (obj *CollisionObject) CcdSweptSphereRadius() float64 {
	return obj.ccdSweptSphereRadius
}

func (obj *CollisionObject) SetCcdSweptSphereRadius(radius float64) {
	obj.ccdSweptSphereRadius = radius
}

// CcdMotionThreshold returns the per-step motion below which continuous
// collision is skipped.
func (obj *CollisionObject) CcdMotionThreshold() float64 {
	return math.Sqrt(obj.ccdSquareMotionThreshold)
}

func (obj *CollisionObject) CcdSquareMotionThreshold() float64 {
	return obj.ccdSquareMotionThreshold
}

// SetCcdMotionThreshold stores the squared threshold. With zero every motion
// runs the continuous test.
func (obj *CollisionObject) SetCcdMotionThreshold(threshold float64) {
	obj.ccdSquareMotionThreshold = threshold * threshold
}

// IgnoreCollisionWith excludes other from the collision pairs of obj.
func (obj *CollisionObject) IgnoreCollisionWith(other *CollisionObject) {
	if !slices.Contains(obj.ignored, other) {
		obj.ignored = append(obj.ignored, other)
	}
}

// RestoreCollisionWith reverts IgnoreCollisionWith.
func (obj *CollisionObject) RestoreCollisionWith(other *CollisionObject) {
	if i := slices.Index(obj.ignored, other); i >= 0 {
		obj.ignored = slices.Delete(obj.ignored, i, i+1)
	}
}

// CheckCollideWith returns false if either object ignores the other.
func (obj *CollisionObject) CheckCollideWith(other *CollisionObject) bool {
	return !slices.Contains(obj.ignored, other) && !slices.Contains(other.ignored, obj)
}
