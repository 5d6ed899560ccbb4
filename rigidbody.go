package corephys

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// BodyKind distinguishes how a Simulator integrates and places a body.
type BodyKind int

const (
	// KindDynamic bodies integrate velocity/angular-velocity every tick and
	// participate fully in manipulators and resolvers.
	KindDynamic BodyKind = iota
	// KindStatic bodies never move; they still occupy the octree and are
	// queried against, but Simulator never writes to their Node.
	KindStatic
	// KindControlled bodies have their velocities set each tick by an
	// external Controller and then integrate like dynamic bodies; only the
	// accumulated angular delta folded into their
	// AngularVelocity after each tick is attenuated (divided by 100), per
	// the spec's controlled-body damping rule (see Simulator.applyResolvers).
	KindControlled
)

// RigidBody is a single simulated object: a transform, its linear/angular
// velocity, mass properties, an optional collider, and the bookkeeping the
// Simulator needs to place and integrate it.
type RigidBody struct {
	ID uuid.UUID

	Transform *Node
	Collider  *Collider
	Kind      BodyKind
	Method    CollisionMethod

	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3

	Mass             float64
	InverseInertia   mgl64.Mat3

	// Caller is opaque metadata the simulator never inspects, carried so a
	// game layer can recover "which game entity is this" from a hit report.
	Caller interface{}

	alive bool
}

// NewRigidBody constructs a body at transform's current pose with the given
// mass and inverse inertia tensor. InverseInertia should be the zero matrix
// for KindStatic bodies (they are never integrated).
func NewRigidBody(transform *Node, collider *Collider, kind BodyKind, mass float64, inverseInertia mgl64.Mat3) *RigidBody {
	return &RigidBody{
		ID:             uuid.New(),
		Transform:      transform,
		Collider:       collider,
		Kind:           kind,
		Method:         MethodCPUExact,
		Mass:           mass,
		InverseInertia: inverseInertia,
		alive:          true,
	}
}

// SphereCenter, SphereRadius and Alive satisfy OctreeBody by delegating to
// the body's collider and liveness flag.
func (b *RigidBody) SphereCenter() mgl64.Vec3 {
	if b.Collider == nil {
		return b.Transform.GetPos()
	}
	return b.Collider.SphereCenter()
}

func (b *RigidBody) SphereRadius() float64 {
	if b.Collider == nil {
		return 0
	}
	return b.Collider.SphereRadius()
}

// Alive reports whether the simulator still considers this body live. Once
// Kill is called, every weak reference held by the octree is pruned the next
// time it's touched instead of dereferenced.
func (b *RigidBody) Alive() bool { return b.alive }

// Kill marks the body dead; Simulator.Bodies stops returning it and the
// octree prunes it the next time a walk touches its cell. Only
// Simulator.RemoveBody drops it from the simulator's own maps.
func (b *RigidBody) Kill() { b.alive = false }

// integrateRotation advances orientation by one small-angle quaternion step
// derived from the body's current angular velocity, scaled by
// cfg.AngularScalingFactor. The Controlled-body /100 attenuation applies
// only to the accumulator's angular delta when the simulator folds it into
// AngularVelocity after this integration step, not to the velocity
// integrated with here (see Simulator.applyResolvers).
func (b *RigidBody) integrateRotation(dt float64, cfg *Config) {
	omega := b.AngularVelocity
	mag := omega.Len()
	if mag*dt < 1e-12 {
		return
	}
	ha := omega.Mul(0.5 * dt * cfg.AngularScalingFactor)
	var dq mgl64.Quat
	if mag > 1 {
		dq = mgl64.Quat{W: math.Cos(mag), V: ha.Mul(math.Sin(mag) / mag)}
	} else {
		dq = mgl64.Quat{W: 1, V: ha}
	}
	b.Transform.RotateWorld(dq.Normalize())
}

// integrateTranslation advances position by linear velocity over dt.
func (b *RigidBody) integrateTranslation(dt float64) {
	b.Transform.Translate(b.LinearVelocity.Mul(dt))
}

// Integrate advances this body's pose by one timestep. Static bodies are a
// no-op; dynamic and controlled bodies integrate identically, with no
// angular attenuation here (see Simulator.applyResolvers).
func (b *RigidBody) Integrate(dt float64, cfg *Config) {
	if b.Kind == KindStatic {
		return
	}
	b.integrateTranslation(dt)
	b.integrateRotation(dt, cfg)
}
