package corephys

import "github.com/go-gl/mathgl/mgl64"

// Manipulator is a per-tick external influence applied to a set of bodies
// before resolution: it reads positions/velocities and writes linear and/or
// angular deltas into each body's accumulator. Manipulators never mutate a
// body's velocity directly, so the order several of them run in within a
// tick never changes the result.
type Manipulator interface {
	Apply(dt float64, bodies []*RigidBody, accs map[*RigidBody]*Accumulator)
}

// ForceCollection applies a world-space force at a world-space point to
// every body it holds, each with its own per-body scale. Mirrors the
// original source's point-force decomposition: linear delta f/m*dt plus an
// angular delta through the inverse inertia tensor when the point is off
// the body's center. Only Static bodies are excluded; Controlled bodies
// still receive forces (e.g. thrust, knockback) like Dynamic ones.
type ForceCollection struct {
	entries []forceEntry
}

type forceEntry struct {
	body  *RigidBody
	point mgl64.Vec3
	force mgl64.Vec3
	scale float64
}

func NewForceCollection() *ForceCollection { return &ForceCollection{} }

// Add registers body to receive force*scale, applied at the given
// world-space point, every tick until Remove is called.
func (f *ForceCollection) Add(body *RigidBody, point, force mgl64.Vec3, scale float64) {
	f.entries = append(f.entries, forceEntry{body: body, point: point, force: force, scale: scale})
}

// Remove drops every entry registered for body.
func (f *ForceCollection) Remove(body *RigidBody) {
	out := f.entries[:0]
	for _, e := range f.entries {
		if e.body != body {
			out = append(out, e)
		}
	}
	f.entries = out
}

func (f *ForceCollection) Apply(dt float64, bodies []*RigidBody, accs map[*RigidBody]*Accumulator) {
	for _, e := range f.entries {
		if e.body.Kind == KindStatic {
			continue
		}
		applyPointForce(accumulatorFor(accs, e.body), e.body, e.point, e.force.Mul(e.scale), dt)
	}
}

// SpringMode selects whether a Spring only pulls (String: never pushes
// past rest length) or behaves as a full two-way Hookean spring.
type SpringMode int

const (
	SpringModeFull SpringMode = iota
	SpringModeString
)

// Spring connects two bodies (or one body and a fixed world anchor, when B
// is nil) with a Hookean restoring force of the given stiffness and rest
// length. The force applies at each body's attach point in its own local
// frame, so an off-center attach point contributes torque.
type Spring struct {
	A, B       *RigidBody
	AttachA    mgl64.Vec3 // local offset on A
	AttachB    mgl64.Vec3 // local offset on B; unused when B is nil
	AnchorB    mgl64.Vec3 // world-space anchor used in place of B when B is nil
	Stiffness  float64
	RestLength float64
	Mode       SpringMode
}

func NewSpring(a, b *RigidBody, stiffness, restLength float64, mode SpringMode) *Spring {
	return &Spring{A: a, B: b, Stiffness: stiffness, RestLength: restLength, Mode: mode}
}

func (s *Spring) worldPointA() mgl64.Vec3 { return s.A.Transform.TransformPoint(s.AttachA) }

func (s *Spring) worldPointB() mgl64.Vec3 {
	if s.B != nil {
		return s.B.Transform.TransformPoint(s.AttachB)
	}
	return s.AnchorB
}

func (s *Spring) Apply(dt float64, bodies []*RigidBody, accs map[*RigidBody]*Accumulator) {
	if s.A == nil || s.A.Kind == KindStatic {
		return
	}
	pa := s.worldPointA()
	pb := s.worldPointB()
	delta := pb.Sub(pa)
	dist := delta.Len()
	if dist < 1e-9 {
		return
	}
	dir := delta.Mul(1 / dist)
	stretch := dist - s.RestLength
	if s.Mode == SpringModeString && stretch < 0 {
		return
	}
	force := dir.Mul(s.Stiffness * stretch)

	applyPointForce(accumulatorFor(accs, s.A), s.A, pa, force, dt)
	if s.B != nil && s.B.Kind != KindStatic {
		applyPointForce(accumulatorFor(accs, s.B), s.B, pb, force.Mul(-1), dt)
	}
}

// Centripetal applies the inward force m*|v|^2/|r|*unit(r) required to hold
// Body on its current circular path around Center, derived from the body's
// own current linear velocity and mass (not an externally supplied angular
// speed). Applied at AttachPoint (a local offset, zero meaning the body's
// own center).
type Centripetal struct {
	Body        *RigidBody
	Center      mgl64.Vec3
	AttachPoint mgl64.Vec3
}

func NewCentripetal(body *RigidBody, center mgl64.Vec3) *Centripetal {
	return &Centripetal{Body: body, Center: center}
}

func (c *Centripetal) Apply(dt float64, bodies []*RigidBody, accs map[*RigidBody]*Accumulator) {
	if c.Body == nil || c.Body.Kind == KindStatic || c.Body.Mass <= 0 {
		return
	}
	radial := c.Body.SphereCenter().Sub(c.Center)
	r := radial.Len()
	if r < 1e-9 {
		return
	}
	speed := c.Body.LinearVelocity.Len()
	if speed < 1e-12 {
		return
	}
	inward := radial.Mul(-1 / r)
	force := inward.Mul(c.Body.Mass * speed * speed / r)
	point := c.Body.Transform.TransformPoint(c.AttachPoint)
	applyPointForce(accumulatorFor(accs, c.Body), c.Body, point, force, dt)
}

// Tether is an inextensible maximum-length constraint between two bodies'
// centers. Below length it is a no-op; at or past it, the velocity
// component of each body that would stretch the tether further is clamped
// to zero and the clamped momentum is redistributed as a shared velocity
// along the tether axis, so total parallel momentum is conserved exactly.
type Tether struct {
	A, B   *RigidBody
	Length float64
}

func NewTether(a, b *RigidBody, length float64) *Tether {
	return &Tether{A: a, B: b, Length: length}
}

func (t *Tether) Apply(dt float64, bodies []*RigidBody, accs map[*RigidBody]*Accumulator) {
	d := t.B.SphereCenter().Sub(t.A.SphereCenter())
	dist := d.Len()
	if dist < t.Length || dist < 1e-12 {
		return
	}
	u := d.Mul(1 / dist)

	ta := t.A.LinearVelocity.Dot(u)
	tb := t.B.LinearVelocity.Dot(u)

	var parallelMomentum mgl64.Vec3
	engaged := false
	if ta < 0 {
		accumulatorFor(accs, t.A).AddLinear(u.Mul(-ta))
		parallelMomentum = parallelMomentum.Add(u.Mul(ta * t.A.Mass))
		engaged = true
	}
	if tb > 0 {
		accumulatorFor(accs, t.B).AddLinear(u.Mul(-tb))
		parallelMomentum = parallelMomentum.Add(u.Mul(tb * t.B.Mass))
		engaged = true
	}
	if !engaged {
		return
	}
	totalMass := t.A.Mass + t.B.Mass
	if totalMass <= 0 {
		return
	}
	shared := parallelMomentum.Mul(1 / totalMass)
	accumulatorFor(accs, t.A).AddLinear(shared)
	accumulatorFor(accs, t.B).AddLinear(shared)
}
