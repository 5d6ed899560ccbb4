package corephys

import "github.com/go-gl/mathgl/mgl64"

// Accumulator collects one tick's worth of velocity and angular-velocity
// deltas for a single body. Collision resolution and manipulators never
// write to a body's velocity directly; they add into its accumulator, and
// the simulator folds the result into the body exactly once, after
// integration, so the order manipulators and resolved pairs run in within a
// tick is never observable.
type Accumulator struct {
	DeltaLinearVelocity  mgl64.Vec3
	DeltaAngularVelocity mgl64.Vec3
	// Colliding flags whether this body took part in a reported collision or
	// scene-bounds violation this tick.
	Colliding bool
}

// AddLinear adds dv to the accumulated linear velocity delta.
func (a *Accumulator) AddLinear(dv mgl64.Vec3) {
	a.DeltaLinearVelocity = a.DeltaLinearVelocity.Add(dv)
}

// AddAngular adds dw to the accumulated angular velocity delta.
func (a *Accumulator) AddAngular(dw mgl64.Vec3) {
	a.DeltaAngularVelocity = a.DeltaAngularVelocity.Add(dw)
}

// accumulatorFor fetches body's accumulator from accs, creating an empty one
// on first touch. Used both by the simulator (which pre-populates accs for
// every live body) and by manipulators exercised directly in tests against
// an ad hoc map.
func accumulatorFor(accs map[*RigidBody]*Accumulator, b *RigidBody) *Accumulator {
	acc, ok := accs[b]
	if !ok {
		acc = &Accumulator{}
		accs[b] = acc
	}
	return acc
}

// applyPointForce decomposes a force applied at a world-space point into a
// linear acceleration and, when the point is off the body's center, a
// torque resolved through the body's inverse inertia tensor. Both are
// scaled by dt and written into acc. Mirrors the teacher's own impulse
// decomposition in physics.go (WorldInvInertia.Mul3x1(torque)).
func applyPointForce(acc *Accumulator, body *RigidBody, point, force mgl64.Vec3, dt float64) {
	if body.Mass <= 0 {
		return
	}
	acc.AddLinear(force.Mul(dt / body.Mass))
	arm := point.Sub(body.SphereCenter())
	torque := arm.Cross(force)
	acc.AddAngular(body.InverseInertia.Mul3x1(torque).Mul(dt))
}
