package corephys

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Controller drives a KindControlled body's intent every tick; the
// simulator reads ControllerOutput and applies it directly to the body's
// velocity fields rather than integrating it like a dynamic body.
type Controller interface {
	Tick(dt float64, body *RigidBody) ControllerOutput
}

// ControllerOutput is what a Controller hands back for the simulator to
// apply to a controlled body on this tick.
type ControllerOutput struct {
	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

// OnHitFunc is called once per newly-detected, deduplicated colliding pair
// this tick, and once per body that violates the scene bounds, after the
// pipeline (or the bounds check) has produced a HitReport.
type OnHitFunc func(a, b *RigidBody, hit *HitReport)

// DoResolveFunc lets the caller veto or rewrite the simulator's own
// resolution step for a pair (return false to skip automatic resolution
// entirely, leaving it to the caller's own logic run from OnHit).
type DoResolveFunc func(a, b *RigidBody, hit *HitReport) bool

// Simulator owns the octree, every live body, the manipulator set, and the
// per-method collision strategies, and drives one tick at a time.
type Simulator struct {
	cfg            *Config
	tree           *Octree
	sceneCenter    mgl64.Vec3
	sceneHalfWidth float64
	bodies         map[*RigidBody]bool
	strategies     map[CollisionMethod]HighPrecisionStrategy
	controllers    map[*RigidBody]Controller
	manipulators   []Manipulator
	logger         Logger

	OnHit     OnHitFunc
	DoResolve DoResolveFunc

	seenPairs map[pairKey]bool
}

type pairKey struct{ a, b string }

func makePairKey(a, b *RigidBody) pairKey {
	sa, sb := a.ID.String(), b.ID.String()
	if sa > sb {
		sa, sb = sb, sa
	}
	return pairKey{a: sa, b: sb}
}

// NewSimulator builds a simulator over an octree of the given scene bounds.
// sceneCenter/sceneHalfWidth also bound the octree's root cell and define
// the box every live body's center is pushed back inside of (§4.9 step 5).
func NewSimulator(sceneCenter mgl64.Vec3, sceneHalfWidth float64, cfg *Config) *Simulator {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	s := &Simulator{
		cfg:            cfg,
		tree:           NewOctree(sceneCenter, sceneHalfWidth, cfg.MaxObjectsPerLeaf),
		sceneCenter:    sceneCenter,
		sceneHalfWidth: sceneHalfWidth,
		bodies:         make(map[*RigidBody]bool),
		strategies:     make(map[CollisionMethod]HighPrecisionStrategy),
		controllers:    make(map[*RigidBody]Controller),
		logger:         NewNopLogger(),
		seenPairs:      make(map[pairKey]bool),
	}
	s.strategies[MethodNone] = NoneStrategy{}
	s.strategies[MethodCPUExact] = CPUExactStrategy{}
	return s
}

func (s *Simulator) SetLogger(l Logger) {
	if l != nil {
		s.logger = l
		s.tree.SetLogger(l)
	}
}

// SetStrategy registers (or replaces) the strategy used for a collision
// method. GPU strategies must be registered explicitly by the caller, since
// the simulator never constructs a GraphicsContext itself.
func (s *Simulator) SetStrategy(method CollisionMethod, strategy HighPrecisionStrategy) {
	s.strategies[method] = strategy
}

// AddManipulator registers a manipulator to run every tick, after collision
// detection and before scene-bounds clamping and the resolver fold.
func (s *Simulator) AddManipulator(m Manipulator) { s.manipulators = append(s.manipulators, m) }

// AddBody inserts a body into the scene and the spatial index.
func (s *Simulator) AddBody(b *RigidBody) error {
	if err := s.tree.Insert(b); err != nil {
		return err
	}
	s.bodies[b] = true
	return nil
}

// RemoveBody kills and unindexes a body.
func (s *Simulator) RemoveBody(b *RigidBody) {
	b.Kill()
	s.tree.Remove(b)
	delete(s.bodies, b)
	delete(s.controllers, b)
}

// SetController attaches (or replaces) the controller driving a
// KindControlled body.
func (s *Simulator) SetController(b *RigidBody, c Controller) {
	s.controllers[b] = c
}

// Bodies returns every live body currently tracked by the simulator.
func (s *Simulator) Bodies() []*RigidBody {
	out := make([]*RigidBody, 0, len(s.bodies))
	for b := range s.bodies {
		if b.Alive() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (s *Simulator) strategyFor(a, b *RigidBody) HighPrecisionStrategy {
	method := a.Method
	if method == MethodNone {
		method = b.Method
	}
	if strat, ok := s.strategies[method]; ok {
		return strat
	}
	return s.strategies[s.cfg.DefaultStrategy]
}

// Tick advances the whole scene by dt, in the order the original source's
// Simulation::tick/apply_resolvers split specifies:
//
//  1. Controllers set their body's velocity directly.
//  2. The octree is refreshed for every live body's current (pre-integration)
//     placement.
//  3. Collision detection runs against those pre-integration placements;
//     resolved pairs write impulses into a fresh per-tick accumulator rather
//     than mutating velocity, so pair order within the tick is unobservable.
//  4. Manipulators run, also writing into the accumulator.
//  5. Scene bounds are enforced, adding a correction into the accumulator
//     for any body pushing outward past the scene box.
//  6. apply_resolvers: every body integrates motion using the velocity it
//     had at the *start* of this tick, and only afterward do the
//     accumulated deltas fold into its velocity for next tick's integration
//     (Controlled bodies attenuate only the angular delta here, by 100).
//
// OnHit and DoResolve are read into locals and cleared for the duration of
// the callback invocations below, so a callback that itself calls back into
// the simulator (e.g. removing a body, or re-entering Tick) cannot observe
// or mutate the very callbacks currently running.
func (s *Simulator) Tick(dt float64) {
	onHit, doResolve := s.OnHit, s.DoResolve
	s.OnHit, s.DoResolve = nil, nil
	defer func() { s.OnHit, s.DoResolve = onHit, doResolve }()

	for b, ctrl := range s.controllers {
		if !b.Alive() {
			continue
		}
		res := ctrl.Tick(dt, b)
		b.LinearVelocity = res.LinearVelocity
		b.AngularVelocity = res.AngularVelocity
	}

	bodies := s.Bodies()
	for _, b := range bodies {
		s.tree.Update(b)
	}

	accs := make(map[*RigidBody]*Accumulator, len(bodies))
	for _, b := range bodies {
		accs[b] = &Accumulator{}
	}

	thisTick := make(map[pairKey]bool)
	for _, a := range bodies {
		if a.Collider == nil {
			continue
		}
		for _, other := range s.tree.AllPossibleColliders(a) {
			b, isBody := other.(*RigidBody)
			if !isBody || b.Collider == nil || b == a {
				continue
			}
			key := makePairKey(a, b)
			if thisTick[key] {
				continue
			}
			thisTick[key] = true

			strategy := s.strategyFor(a, b)
			hit, err := CollidePair(a.Collider, b.Collider, strategy)
			if err != nil {
				s.logger.Warnf("collision pipeline error between %s and %s: %v", a.ID, b.ID, err)
				continue
			}
			if hit == nil {
				continue
			}
			if onHit != nil {
				onHit(a, b, hit)
			}
			resolve := true
			if doResolve != nil {
				resolve = doResolve(a, b, hit)
			}
			if resolve {
				s.accumulateResolution(a, b, hit, accs)
			}
		}
	}
	s.seenPairs = thisTick

	for _, m := range s.manipulators {
		m.Apply(dt, bodies, accs)
	}

	s.applySceneBounds(bodies, accs, onHit)

	s.applyResolvers(dt, bodies, accs)
}

// accumulateResolution computes a momentum-conserving elastic-separation
// impulse along the contact normal and writes it into each side's
// accumulator, matching the original source's default bounce response.
// Only Static bodies are excluded; Controlled bodies are pushed like
// Dynamic ones.
func (s *Simulator) accumulateResolution(a, b *RigidBody, hit *HitReport, accs map[*RigidBody]*Accumulator) {
	normal := hit.NormalA
	if normal.Len() < 1e-9 {
		normal = hit.NormalB.Mul(-1)
	}
	if normal.Len() < 1e-9 {
		return
	}
	normal = normal.Normalize()

	aDyn := a.Kind != KindStatic && a.Mass > 0
	bDyn := b.Kind != KindStatic && b.Mass > 0
	if !aDyn && !bDyn {
		return
	}

	relVel := a.LinearVelocity.Sub(b.LinearVelocity)
	sep := relVel.Dot(normal)
	if sep >= 0 {
		return
	}

	var invMassA, invMassB float64
	if aDyn {
		invMassA = 1 / a.Mass
	}
	if bDyn {
		invMassB = 1 / b.Mass
	}
	denom := invMassA + invMassB
	if denom <= 0 {
		return
	}
	impulseMag := -2 * sep / denom
	impulse := normal.Mul(impulseMag)

	if aDyn {
		acc := accumulatorFor(accs, a)
		acc.AddLinear(impulse.Mul(invMassA))
		acc.Colliding = true
	}
	if bDyn {
		acc := accumulatorFor(accs, b)
		acc.AddLinear(impulse.Mul(-invMassB))
		acc.Colliding = true
	}
}

// applySceneBounds pushes back any non-static body whose center has left the
// scene box and whose velocity is still carrying it further outward: it adds
// the exact per-axis overflow as a correction into the body's accumulator
// and reports a synthetic hit whose normal is the (renormalized) sum of the
// violated axes' inward directions.
func (s *Simulator) applySceneBounds(bodies []*RigidBody, accs map[*RigidBody]*Accumulator, onHit OnHitFunc) {
	half := mgl64.Vec3{s.sceneHalfWidth, s.sceneHalfWidth, s.sceneHalfWidth}
	lo := s.sceneCenter.Sub(half)
	hi := s.sceneCenter.Add(half)

	for _, b := range bodies {
		if b.Kind == KindStatic {
			continue
		}
		center := b.SphereCenter()
		var correction, inward mgl64.Vec3
		violated := false
		for axis := 0; axis < 3; axis++ {
			switch {
			case center[axis] < lo[axis] && b.LinearVelocity[axis] < 0:
				correction[axis] = lo[axis] - center[axis]
				inward[axis] = 1
				violated = true
			case center[axis] > hi[axis] && b.LinearVelocity[axis] > 0:
				correction[axis] = hi[axis] - center[axis]
				inward[axis] = -1
				violated = true
			}
		}
		if !violated {
			continue
		}

		acc := accumulatorFor(accs, b)
		acc.AddLinear(correction)
		acc.Colliding = true

		if onHit != nil {
			normal := inward.Normalize()
			hit := &HitReport{PointA: center, NormalA: normal, PointB: center, NormalB: normal.Mul(-1)}
			onHit(b, b, hit)
		}
	}
}

// applyResolvers is step 6: integrate every non-static body using the
// velocity it held at the start of this tick, then fold this tick's
// accumulated deltas into velocity for the next tick. Controlled bodies
// attenuate only the angular delta (divide by 100), not the velocity they
// integrated with.
func (s *Simulator) applyResolvers(dt float64, bodies []*RigidBody, accs map[*RigidBody]*Accumulator) {
	for _, b := range bodies {
		if b.Kind != KindStatic {
			b.Integrate(dt, s.cfg)
		}

		acc := accs[b]
		if acc == nil {
			s.tree.Update(b)
			continue
		}
		b.LinearVelocity = b.LinearVelocity.Add(acc.DeltaLinearVelocity)
		angularDelta := acc.DeltaAngularVelocity
		if b.Kind == KindControlled {
			angularDelta = angularDelta.Mul(1.0 / 100.0)
		}
		b.AngularVelocity = b.AngularVelocity.Add(angularDelta)

		s.tree.Update(b)
	}
}
