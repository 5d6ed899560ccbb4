package corephys

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// OctreeBody is anything the octree can index by bounding sphere. Alive
// reports whether the owner still considers this body live; once it
// returns false the octree treats every stored reference to it as a
// failed weak-upgrade and prunes it on the next pass it touches, per the
// spec's "stale weak references are silently pruned" recoverable-condition
// policy. Implementations are expected to be pointer types so identity
// comparison (used as the map key backing the body->cell back-reference)
// is well defined.
type OctreeBody interface {
	SphereCenter() mgl64.Vec3
	SphereRadius() float64
	Alive() bool
}

type octreeCell struct {
	center      mgl64.Vec3
	halfWidth   float64
	bodies      []OctreeBody
	children    [8]*octreeCell
	parent      *octreeCell
	octantIndex int
}

func (c *octreeCell) isLeaf() bool { return c.children[0] == nil }

// Octree is a loose, fleet-wide spatial index of bounding spheres. The
// tree owns its cells strongly; a body's "current cell" is tracked as a
// reverse index rather than a pointer stored on the body itself, which is
// the Go-idiomatic stand-in for the spec's weak self/back-references (see
// DESIGN.md and SPEC_FULL.md §3 on the weak-reference translation).
type Octree struct {
	root              *octreeCell
	bodyCell          map[OctreeBody]*octreeCell
	maxObjectsPerLeaf int
	logger            Logger
}

// NewOctree creates a single-cell tree centered at center with the given
// half-width and leaf capacity.
func NewOctree(center mgl64.Vec3, halfWidth float64, maxObjectsPerLeaf int) *Octree {
	return &Octree{
		root:              &octreeCell{center: center, halfWidth: halfWidth, octantIndex: -1},
		bodyCell:          make(map[OctreeBody]*octreeCell),
		maxObjectsPerLeaf: maxObjectsPerLeaf,
		logger:            NewNopLogger(),
	}
}

func (o *Octree) SetLogger(l Logger) {
	if l != nil {
		o.logger = l
	}
}

// getOctantIndex implements the bit-set octant rule the spec mandates
// (idx & (1<<i) != 0) and not the older idx&2==1 variant. Returns
// straddle=true when the body cannot descend below this cell.
func (o *Octree) getOctantIndex(cell *octreeCell, body OctreeBody) (idx int, straddle bool) {
	off := body.SphereCenter().Sub(cell.center)
	r := body.SphereRadius()
	h := cell.halfWidth
	for i := 0; i < 3; i++ {
		if math.Abs(off[i]) < r || math.Abs(off[i])+r > h {
			return 0, true
		}
	}
	for i := 0; i < 3; i++ {
		if off[i] > 0 {
			idx |= 1 << i
		}
	}
	return idx, false
}

func childOffset(idx int, halfWidth float64) mgl64.Vec3 {
	var v mgl64.Vec3
	for i := 0; i < 3; i++ {
		if idx&(1<<i) != 0 {
			v[i] = halfWidth
		} else {
			v[i] = -halfWidth
		}
	}
	return v
}

func (o *Octree) splitIntoChildren(cell *octreeCell) {
	childHalf := cell.halfWidth / 2
	for idx := 0; idx < 8; idx++ {
		cell.children[idx] = &octreeCell{
			center:      cell.center.Add(childOffset(idx, childHalf)),
			halfWidth:   childHalf,
			parent:      cell,
			octantIndex: idx,
		}
	}
	old := cell.bodies
	cell.bodies = nil
	for _, b := range old {
		idx, straddle := o.getOctantIndex(cell, b)
		if straddle {
			cell.bodies = append(cell.bodies, b)
			o.bodyCell[b] = cell
			continue
		}
		final := o.insertInto(cell.children[idx], b)
		o.bodyCell[b] = final
	}
}

// insertInto inserts body starting at cell, descending/splitting as
// needed, and returns the cell it finally landed in.
func (o *Octree) insertInto(cell *octreeCell, body OctreeBody) *octreeCell {
	if cell.isLeaf() {
		if len(cell.bodies) < o.maxObjectsPerLeaf {
			cell.bodies = append(cell.bodies, body)
			return cell
		}
		o.splitIntoChildren(cell)
	}
	idx, straddle := o.getOctantIndex(cell, body)
	if straddle {
		cell.bodies = append(cell.bodies, body)
		return cell
	}
	return o.insertInto(cell.children[idx], body)
}

// Insert places a body in the tree. Rejected with ErrDoesNotFitInTree when
// the body's radius exceeds twice the root's half-width.
func (o *Octree) Insert(body OctreeBody) error {
	if body.SphereRadius() > 2*o.root.halfWidth {
		return ErrDoesNotFitInTree
	}
	final := o.insertInto(o.root, body)
	o.bodyCell[body] = final
	return nil
}

func removeFromBodies(bodies []OctreeBody, body OctreeBody) []OctreeBody {
	for i, b := range bodies {
		if b == body {
			return append(bodies[:i], bodies[i+1:]...)
		}
	}
	return bodies
}

// Remove unlinks body from its current cell and clears its back-pointer,
// collapsing empty, childless sibling cells up the tree.
func (o *Octree) Remove(body OctreeBody) {
	cell, ok := o.bodyCell[body]
	if !ok {
		return
	}
	cell.bodies = removeFromBodies(cell.bodies, body)
	delete(o.bodyCell, body)
	o.collapseUpward(cell)
}

func (o *Octree) collapseUpward(cell *octreeCell) {
	parent := cell.parent
	if parent == nil || parent.isLeaf() {
		return
	}
	for _, c := range parent.children {
		if len(c.bodies) != 0 || !c.isLeaf() {
			return
		}
	}
	parent.children = [8]*octreeCell{}
	o.collapseUpward(parent)
}

// Update re-buckets a body after its transform has changed.
func (o *Octree) Update(body OctreeBody) {
	cell, ok := o.bodyCell[body]
	if !ok {
		return
	}
	if cell.parent != nil {
		idx, straddle := o.getOctantIndex(cell.parent, body)
		fitsHere := !straddle && idx == cell.octantIndex
		if !fitsHere {
			cell.bodies = removeFromBodies(cell.bodies, body)
			final := o.insertInto(cell.parent, body)
			o.bodyCell[body] = final
			return
		}
	}
	if !cell.isLeaf() {
		idx, straddle := o.getOctantIndex(cell, body)
		if !straddle {
			cell.bodies = removeFromBodies(cell.bodies, body)
			final := o.insertInto(cell.children[idx], body)
			o.bodyCell[body] = final
		}
	}
}

func (o *Octree) pruneDead(cell *octreeCell) {
	live := cell.bodies[:0]
	for _, b := range cell.bodies {
		if b.Alive() {
			live = append(live, b)
		} else {
			delete(o.bodyCell, b)
			o.logger.Debugf("octree: pruned stale body reference")
		}
	}
	cell.bodies = live
}

func sphereOverlap(a OctreeBody, b OctreeBody) bool {
	dist := a.SphereCenter().Sub(b.SphereCenter()).Len()
	return dist <= a.SphereRadius()+b.SphereRadius()
}

func sphereOverlapPoint(center mgl64.Vec3, radius float64, b OctreeBody) bool {
	dist := center.Sub(b.SphereCenter()).Len()
	return dist <= radius+b.SphereRadius()
}

func (o *Octree) walkSubtree(cell *octreeCell, visit func(OctreeBody)) {
	o.pruneDead(cell)
	for _, b := range cell.bodies {
		visit(b)
	}
	if !cell.isLeaf() {
		for _, c := range cell.children {
			o.walkSubtree(c, visit)
		}
	}
}

// SubtreeColliders walks from body's own cell through self and all
// descendants, returning every other stored body whose sphere overlaps.
func (o *Octree) SubtreeColliders(body OctreeBody) []OctreeBody {
	cell, ok := o.bodyCell[body]
	if !ok {
		return nil
	}
	var out []OctreeBody
	o.walkSubtree(cell, func(other OctreeBody) {
		if other == body {
			return
		}
		if sphereOverlap(body, other) {
			out = append(out, other)
		}
	})
	return out
}

// ParentColliders walks the ancestor chain of body's cell, testing
// bounding-sphere overlap against bodies stored there (not their other
// descendants).
func (o *Octree) ParentColliders(body OctreeBody) []OctreeBody {
	cell, ok := o.bodyCell[body]
	if !ok {
		return nil
	}
	var out []OctreeBody
	for anc := cell.parent; anc != nil; anc = anc.parent {
		o.pruneDead(anc)
		for _, other := range anc.bodies {
			if sphereOverlap(body, other) {
				out = append(out, other)
			}
		}
	}
	return out
}

// AllPossibleColliders is the union of SubtreeColliders and ParentColliders.
func (o *Octree) AllPossibleColliders(body OctreeBody) []OctreeBody {
	out := o.SubtreeColliders(body)
	out = append(out, o.ParentColliders(body)...)
	return out
}

// TestSphere walks the whole tree from the root testing an ephemeral
// sphere (no body of its own) against every stored body.
func (o *Octree) TestSphere(center mgl64.Vec3, radius float64) []OctreeBody {
	var out []OctreeBody
	o.walkSubtree(o.root, func(other OctreeBody) {
		if sphereOverlapPoint(center, radius, other) {
			out = append(out, other)
		}
	})
	return out
}

// AllObjects returns every live body currently stored anywhere in the tree.
func (o *Octree) AllObjects() []OctreeBody {
	var out []OctreeBody
	o.walkSubtree(o.root, func(b OctreeBody) { out = append(out, b) })
	return out
}

// HasChildren reports whether the root cell currently has a children array,
// exposed chiefly so tests can observe the collapse-on-remove-all behavior
// (spec §8 concrete scenario 4).
func (o *Octree) HasChildren() bool { return !o.root.isLeaf() }
