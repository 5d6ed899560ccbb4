package corephys

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestForceCollectionAppliesAcceleration(t *testing.T) {
	b := NewRigidBody(NewNode(), nil, KindDynamic, 2, mgl64.Mat3{})
	fc := NewForceCollection()
	fc.Add(b, b.SphereCenter(), mgl64.Vec3{0, -10, 0}, 1)

	accs := map[*RigidBody]*Accumulator{}
	fc.Apply(1, nil, accs)
	require.InDelta(t, -5, accs[b].DeltaLinearVelocity[1], 1e-9)
	require.Equal(t, mgl64.Vec3{0, 0, 0}, accs[b].DeltaAngularVelocity, "force at the body's own center must not produce torque")
}

func TestForceCollectionOffCenterProducesTorque(t *testing.T) {
	b := NewRigidBody(NewNode(), nil, KindDynamic, 1, mgl64.Ident3())
	fc := NewForceCollection()
	point := mgl64.Vec3{1, 0, 0}
	fc.Add(b, point, mgl64.Vec3{0, 1, 0}, 1)

	accs := map[*RigidBody]*Accumulator{}
	fc.Apply(1, nil, accs)
	require.NotEqual(t, mgl64.Vec3{0, 0, 0}, accs[b].DeltaAngularVelocity, "off-center force must produce torque")
}

func TestForceCollectionRemove(t *testing.T) {
	b := NewRigidBody(NewNode(), nil, KindDynamic, 1, mgl64.Mat3{})
	fc := NewForceCollection()
	fc.Add(b, b.SphereCenter(), mgl64.Vec3{1, 0, 0}, 1)
	fc.Remove(b)

	accs := map[*RigidBody]*Accumulator{}
	fc.Apply(1, nil, accs)
	require.Empty(t, accs)
}

func TestForceCollectionIgnoresStaticBodies(t *testing.T) {
	b := NewRigidBody(NewNode(), nil, KindStatic, 1, mgl64.Mat3{})
	fc := NewForceCollection()
	fc.Add(b, b.SphereCenter(), mgl64.Vec3{1, 0, 0}, 1)

	accs := map[*RigidBody]*Accumulator{}
	fc.Apply(1, nil, accs)
	require.Empty(t, accs, "Static bodies must be skipped entirely")
}

func TestForceCollectionAppliesToControlledBodies(t *testing.T) {
	b := NewRigidBody(NewNode(), nil, KindControlled, 1, mgl64.Mat3{})
	fc := NewForceCollection()
	fc.Add(b, b.SphereCenter(), mgl64.Vec3{1, 0, 0}, 1)

	accs := map[*RigidBody]*Accumulator{}
	fc.Apply(1, nil, accs)
	require.InDelta(t, 1, accs[b].DeltaLinearVelocity[0], 1e-9, "only Static bodies are excluded from Force")
}

func TestSpringPullsBodyTowardAnchor(t *testing.T) {
	b := NewRigidBody(NewNode().WithPosition(mgl64.Vec3{5, 0, 0}), nil, KindDynamic, 1, mgl64.Mat3{})
	spring := NewSpring(b, nil, 1, 0, SpringModeFull)
	spring.AnchorB = mgl64.Vec3{0, 0, 0}

	accs := map[*RigidBody]*Accumulator{}
	spring.Apply(1, nil, accs)
	require.Less(t, accs[b].DeltaLinearVelocity[0], 0.0, "stretched spring must pull the body back toward the anchor")
}

func TestSpringStringModeNeverPushes(t *testing.T) {
	b := NewRigidBody(NewNode().WithPosition(mgl64.Vec3{0.5, 0, 0}), nil, KindDynamic, 1, mgl64.Mat3{})
	spring := NewSpring(b, nil, 1, 1, SpringModeString)
	spring.AnchorB = mgl64.Vec3{0, 0, 0}

	accs := map[*RigidBody]*Accumulator{}
	spring.Apply(1, nil, accs)
	require.Empty(t, accs, "slack string spring must not push")
}

func TestSpringAppliesOppositeForceToBothBodies(t *testing.T) {
	a := NewRigidBody(NewNode().WithPosition(mgl64.Vec3{0, 0, 0}), nil, KindDynamic, 1, mgl64.Mat3{})
	b := NewRigidBody(NewNode().WithPosition(mgl64.Vec3{5, 0, 0}), nil, KindDynamic, 1, mgl64.Mat3{})
	spring := NewSpring(a, b, 1, 0, SpringModeFull)

	accs := map[*RigidBody]*Accumulator{}
	spring.Apply(1, nil, accs)
	require.Greater(t, accs[a].DeltaLinearVelocity[0], 0.0, "A must be pulled toward B")
	require.Less(t, accs[b].DeltaLinearVelocity[0], 0.0, "B must be pulled toward A")
}

func TestCentripetalPullsTowardCenter(t *testing.T) {
	b := NewRigidBody(NewNode().WithPosition(mgl64.Vec3{10, 0, 0}), nil, KindDynamic, 1, mgl64.Mat3{})
	b.LinearVelocity = mgl64.Vec3{0, 1, 0}
	c := NewCentripetal(b, mgl64.Vec3{0, 0, 0})

	accs := map[*RigidBody]*Accumulator{}
	c.Apply(1, nil, accs)
	require.Less(t, accs[b].DeltaLinearVelocity[0], 0.0)
}

func TestCentripetalAtRestIsNoOp(t *testing.T) {
	b := NewRigidBody(NewNode().WithPosition(mgl64.Vec3{10, 0, 0}), nil, KindDynamic, 1, mgl64.Mat3{})
	c := NewCentripetal(b, mgl64.Vec3{0, 0, 0})

	accs := map[*RigidBody]*Accumulator{}
	c.Apply(1, nil, accs)
	require.Empty(t, accs, "a body with zero velocity needs no centripetal correction")
}

func TestTetherNoOpBelowLength(t *testing.T) {
	a := NewRigidBody(NewNode().WithPosition(mgl64.Vec3{0, 0, 0}), nil, KindDynamic, 1, mgl64.Mat3{})
	b := NewRigidBody(NewNode().WithPosition(mgl64.Vec3{3, 0, 0}), nil, KindDynamic, 1, mgl64.Mat3{})
	a.LinearVelocity = mgl64.Vec3{-1, 0, 0}
	b.LinearVelocity = mgl64.Vec3{1, 0, 0}
	tether := NewTether(a, b, 5)

	accs := map[*RigidBody]*Accumulator{}
	tether.Apply(1, nil, accs)
	require.Empty(t, accs)
}

func TestTetherAtExactLengthNoVelocityViolationIsNoOp(t *testing.T) {
	a := NewRigidBody(NewNode().WithPosition(mgl64.Vec3{0, 0, 0}), nil, KindDynamic, 1, mgl64.Mat3{})
	b := NewRigidBody(NewNode().WithPosition(mgl64.Vec3{5, 0, 0}), nil, KindDynamic, 1, mgl64.Mat3{})
	a.LinearVelocity = mgl64.Vec3{1, 0, 0}
	b.LinearVelocity = mgl64.Vec3{-1, 0, 0}
	tether := NewTether(a, b, 5)

	accs := map[*RigidBody]*Accumulator{}
	tether.Apply(1, nil, accs)
	require.Empty(t, accs, "neither body's velocity stretches the tether, so |d|==L stays a no-op")
}

// TestTetherClampRedistributesMomentum reproduces the spec's exact
// scenario: masses 1 and 3, velocities (+1,0,0) and (-2,0,0), on a tether
// already at its limit with both velocities stretching it further. Both
// bodies must end up sharing (m1*v1+m2*v2)/(m1+m2) = (-5/4,0,0) along the
// tether axis.
func TestTetherClampRedistributesMomentum(t *testing.T) {
	a := NewRigidBody(NewNode().WithPosition(mgl64.Vec3{0, 0, 0}), nil, KindDynamic, 1, mgl64.Mat3{})
	b := NewRigidBody(NewNode().WithPosition(mgl64.Vec3{-5, 0, 0}), nil, KindDynamic, 3, mgl64.Mat3{})
	a.LinearVelocity = mgl64.Vec3{1, 0, 0}
	b.LinearVelocity = mgl64.Vec3{-2, 0, 0}
	tether := NewTether(a, b, 5)

	accs := map[*RigidBody]*Accumulator{}
	tether.Apply(1, nil, accs)

	finalA := a.LinearVelocity.Add(accs[a].DeltaLinearVelocity)
	finalB := b.LinearVelocity.Add(accs[b].DeltaLinearVelocity)
	require.InDelta(t, -1.25, finalA[0], 1e-9)
	require.InDelta(t, -1.25, finalB[0], 1e-9)
}

func TestTetherConservesParallelMomentum(t *testing.T) {
	a := NewRigidBody(NewNode().WithPosition(mgl64.Vec3{0, 0, 0}), nil, KindDynamic, 1, mgl64.Mat3{})
	b := NewRigidBody(NewNode().WithPosition(mgl64.Vec3{-5, 0, 0}), nil, KindDynamic, 3, mgl64.Mat3{})
	a.LinearVelocity = mgl64.Vec3{1, 0, 0}
	b.LinearVelocity = mgl64.Vec3{-2, 0, 0}
	u := b.SphereCenter().Sub(a.SphereCenter()).Normalize()
	before := a.LinearVelocity.Dot(u)*a.Mass + b.LinearVelocity.Dot(u)*b.Mass

	tether := NewTether(a, b, 5)
	accs := map[*RigidBody]*Accumulator{}
	tether.Apply(1, nil, accs)

	finalA := a.LinearVelocity.Add(accs[a].DeltaLinearVelocity)
	finalB := b.LinearVelocity.Add(accs[b].DeltaLinearVelocity)
	after := finalA.Dot(u)*a.Mass + finalB.Dot(u)*b.Mass
	require.InDelta(t, before, after, 1e-9)
}
