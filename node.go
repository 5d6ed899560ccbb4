package corephys

import "github.com/go-gl/mathgl/mgl64"

// Node is a scene-graph transform: local position, orientation, nonuniform
// scale and anchor, an optional parent, and a cached world matrix kept
// coherent by a pair of monotone version counters. Nodes are shared by
// reference across rigid bodies, colliders, and manipulators; the model is
// single-threaded cooperative, so no synchronization is attempted here.
type Node struct {
	pos         mgl64.Vec3
	scale       mgl64.Vec3
	orientation mgl64.Quat
	anchor      mgl64.Vec3

	parent *Node

	cached       mgl64.Mat4
	cacheValid   bool
	ownVer       uint64
	parentVerAt  uint64
}

// NewNode constructs a node at the identity transform. Any of pos, rot,
// scale, anchor may be overridden with the With* builders below.
func NewNode() *Node {
	return &Node{
		pos:         mgl64.Vec3{0, 0, 0},
		scale:       mgl64.Vec3{1, 1, 1},
		orientation: mgl64.QuatIdent(),
		anchor:      mgl64.Vec3{0, 0, 0},
	}
}

func (n *Node) invalidate() {
	n.cacheValid = false
}

// --- builder-style setters: mutate and return self for chaining ---

func (n *Node) WithPosition(p mgl64.Vec3) *Node {
	n.pos = p
	n.invalidate()
	return n
}

func (n *Node) WithOrientation(q mgl64.Quat) *Node {
	n.orientation = q
	n.invalidate()
	return n
}

func (n *Node) WithScale(s mgl64.Vec3) *Node {
	n.scale = s
	n.invalidate()
	return n
}

func (n *Node) WithAnchor(a mgl64.Vec3) *Node {
	n.anchor = a
	n.invalidate()
	return n
}

// WithParent is the builder form of SetParent; it silently ignores a cycle
// rather than returning an error, since builder chains have no error path.
// Callers that need cycle detection should use SetParent directly.
func (n *Node) WithParent(p *Node) *Node {
	_ = n.SetParent(p)
	return n
}

// --- in-place setters: mutate, invalidate, no return value ---

func (n *Node) SetPosition(p mgl64.Vec3)    { n.pos = p; n.invalidate() }
func (n *Node) SetOrientation(q mgl64.Quat) { n.orientation = q; n.invalidate() }
func (n *Node) SetScale(s mgl64.Vec3)       { n.scale = s; n.invalidate() }
func (n *Node) SetAnchor(a mgl64.Vec3)      { n.anchor = a; n.invalidate() }

// SetParent changes lineage and invalidates the cache. Setting a parent
// that would form a cycle is caller-forbidden by the spec; this
// implementation detects it and returns ErrInvalidParent rather than
// silently corrupting the graph.
func (n *Node) SetParent(p *Node) error {
	for cur := p; cur != nil; cur = cur.parent {
		if cur == n {
			return ErrInvalidParent
		}
	}
	n.parent = p
	n.invalidate()
	return nil
}

func (n *Node) Parent() *Node { return n.parent }

func (n *Node) Position() mgl64.Vec3    { return n.pos }
func (n *Node) Orientation() mgl64.Quat { return n.orientation }
func (n *Node) Scale() mgl64.Vec3       { return n.scale }
func (n *Node) Anchor() mgl64.Vec3      { return n.anchor }

// Translate adds delta to the local position.
func (n *Node) Translate(delta mgl64.Vec3) {
	n.pos = n.pos.Add(delta)
	n.invalidate()
}

// RotateWorld right-multiplies the orientation by q.
func (n *Node) RotateWorld(q mgl64.Quat) {
	n.orientation = n.orientation.Mul(q)
	n.invalidate()
}

// RotateLocal left-multiplies the orientation by q.
func (n *Node) RotateLocal(q mgl64.Quat) {
	n.orientation = q.Mul(n.orientation)
	n.invalidate()
}

// needsRecompute reports whether the cache must be rebuilt: either this
// node was dirtied directly, or the parent chain has advanced past the
// parent-version recorded at this node's last recompute.
func (n *Node) needsRecompute() bool {
	if !n.cacheValid {
		return true
	}
	if n.parent == nil {
		return false
	}
	// Force the parent's own cache current first so its ownVer reflects
	// any pending change before we compare.
	n.parent.Mat()
	return n.parent.ownVer > n.parentVerAt
}

// localMatrix computes T(anchor)*T(pos)*R(orientation)*S(scale)*T(-anchor).
func (n *Node) localMatrix() mgl64.Mat4 {
	negAnchor := mgl64.Translate3D(-n.anchor[0], -n.anchor[1], -n.anchor[2])
	s := mgl64.Scale3D(n.scale[0], n.scale[1], n.scale[2])
	r := n.orientation.Mat4()
	t := mgl64.Translate3D(n.pos[0], n.pos[1], n.pos[2])
	anchor := mgl64.Translate3D(n.anchor[0], n.anchor[1], n.anchor[2])
	return anchor.Mul4(t).Mul4(r).Mul4(s).Mul4(negAnchor)
}

// Mat returns the cached world matrix, recomputing it (and incrementing the
// own-version counter exactly once) iff the cache is currently invalid.
func (n *Node) Mat() mgl64.Mat4 {
	if !n.needsRecompute() {
		return n.cached
	}
	local := n.localMatrix()
	if n.parent != nil {
		n.cached = n.parent.Mat().Mul4(local)
		n.parentVerAt = n.parent.ownVer
	} else {
		n.cached = local
	}
	n.cacheValid = true
	n.ownVer++
	return n.cached
}

// TransformPoint maps a local-space point into world space.
func (n *Node) TransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	m := n.Mat()
	v := m.Mul4x1(mgl64.Vec4{p[0], p[1], p[2], 1})
	return mgl64.Vec3{v[0], v[1], v[2]}
}

// TransformVector maps a local-space direction into world space (no
// translation component).
func (n *Node) TransformVector(v mgl64.Vec3) mgl64.Vec3 {
	m := n.Mat()
	r := m.Mul4x1(mgl64.Vec4{v[0], v[1], v[2], 0})
	return mgl64.Vec3{r[0], r[1], r[2]}
}

// GetPos returns the world-space image of the local origin.
func (n *Node) GetPos() mgl64.Vec3 {
	return n.TransformPoint(mgl64.Vec3{0, 0, 0})
}
