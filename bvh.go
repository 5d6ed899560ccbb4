package corephys

import "github.com/go-gl/mathgl/mgl64"

// StopCriteria decides whether a BVH build should stop and produce a leaf
// at the given triangle count and depth.
type StopCriteria interface {
	ShouldStop(triCount, depth int) bool
}

type leafCountCriteria struct{ K int }

func (c leafCountCriteria) ShouldStop(triCount, depth int) bool { return triCount <= c.K }

type depthCriteria struct{ D int }

func (c depthCriteria) ShouldStop(triCount, depth int) bool { return depth >= c.D }

type alwaysStopCriteria struct{}

func (alwaysStopCriteria) ShouldStop(triCount, depth int) bool { return true }

type orCriteria []StopCriteria

func (cs orCriteria) ShouldStop(triCount, depth int) bool {
	for _, c := range cs {
		if c.ShouldStop(triCount, depth) {
			return true
		}
	}
	return false
}

// NewStandardStopCriteria stops a BVH build when a leaf holds <= K
// triangles or has reached depth D, whichever triggers first.
func NewStandardStopCriteria(k, d int) StopCriteria {
	return orCriteria{leafCountCriteria{K: k}, depthCriteria{D: d}}
}

// NewAlwaysStopCriteria always produces a single root leaf holding every
// triangle.
func NewAlwaysStopCriteria() StopCriteria { return alwaysStopCriteria{} }

// BVHNode is either an internal node (Left and Right non-nil) or a leaf
// (Tris non-nil, non-empty; the one exception is the empty root leaf of an
// owner built from no indices). Every node carries the AABB enclosing its
// subtree's triangle vertices.
type BVHNode struct {
	Bounds Aabb
	Left   *BVHNode
	Right  *BVHNode
	Tris   []Triangle
}

func (n *BVHNode) IsLeaf() bool { return n.Left == nil && n.Right == nil }

func aabbFromTriangles(tris []Triangle) Aabb {
	pts := make([]mgl64.Vec3, 0, len(tris)*3)
	for _, t := range tris {
		a, b, c := t.Verts()
		pts = append(pts, a, b, c)
	}
	return AabbFromPoints(pts)
}

func largestExtentIndex(a Aabb) int {
	best := 0
	for i := 1; i < 3; i++ {
		if a.HalfExtents[i] > a.HalfExtents[best] {
			best = i
		}
	}
	return best
}

func buildBVH(tris []Triangle, stop StopCriteria, depth int) *BVHNode {
	bounds := aabbFromTriangles(tris)
	if stop.ShouldStop(len(tris), depth) {
		return &BVHNode{Bounds: bounds, Tris: tris}
	}
	axis := largestExtentIndex(bounds)
	center := bounds.Center[axis]

	var left, right []Triangle
	for _, t := range tris {
		if t.Centroid()[axis] < center {
			left = append(left, t)
		} else {
			right = append(right, t)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &BVHNode{Bounds: bounds, Tris: tris}
	}
	return &BVHNode{
		Bounds: bounds,
		Left:   buildBVH(left, stop, depth+1),
		Right:  buildBVH(right, stop, depth+1),
	}
}

// BVHOwner pins a vertex buffer for its lifetime and owns the root BVH
// node built over it.
type BVHOwner struct {
	Buf  *VertexBuffer
	Root *BVHNode
}

// NewBVHOwner builds a BVH from a flat vertex/index pair under the given
// stopping policy. Returns ErrMalformedMesh if any index is out of bounds.
func NewBVHOwner(points []mgl64.Vec3, indices []uint32, stop StopCriteria) (*BVHOwner, error) {
	vb := NewVertexBuffer(points)
	tris, err := NewTriangles(vb, indices)
	if err != nil {
		return nil, err
	}
	if len(tris) == 0 {
		return &BVHOwner{Buf: vb, Root: &BVHNode{Tris: nil}}, nil
	}
	return &BVHOwner{Buf: vb, Root: buildBVH(tris, stop, 0)}, nil
}

// BoundingBox returns the conservative AABB of the whole BVH.
func (o *BVHOwner) BoundingBox() Aabb { return o.Root.Bounds }

// ForAllVerts iterates every vertex in the pinned buffer.
func (o *BVHOwner) ForAllVerts(f func(mgl64.Vec3)) {
	for i := 0; i < o.Buf.Len(); i++ {
		f(o.Buf.At(uint32(i)))
	}
}

type bvhPair struct{ a, b *BVHNode }

// Collision cross-traverses two BVHs under their respective world
// transforms using an explicit stack, returning the candidate triangle
// lists from every pair of leaves whose bounding volumes overlap. ok is
// false only when the root volumes themselves do not overlap, matching the
// "or nothing if the root volumes do not overlap" contract.
func (o *BVHOwner) Collision(selfTransform mgl64.Mat4, other *BVHOwner, otherTransform mgl64.Mat4) (trisA, trisB []Triangle, ok bool) {
	if o.Root == nil || other.Root == nil {
		return nil, nil, false
	}
	if !IsColliding(o.Root.Bounds, selfTransform, other.Root.Bounds, otherTransform) {
		return nil, nil, false
	}

	seenA := map[*BVHNode]bool{}
	seenB := map[*BVHNode]bool{}
	stack := []bvhPair{{o.Root, other.Root}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		na, nb := p.a, p.b

		if !IsColliding(na.Bounds, selfTransform, nb.Bounds, otherTransform) {
			continue
		}

		if na.IsLeaf() && nb.IsLeaf() {
			if !seenA[na] {
				trisA = append(trisA, na.Tris...)
				seenA[na] = true
			}
			if !seenB[nb] {
				trisB = append(trisB, nb.Tris...)
				seenB[nb] = true
			}
			continue
		}

		var descendA bool
		switch {
		case na.IsLeaf():
			descendA = false
		case nb.IsLeaf():
			descendA = true
		default:
			descendA = Vol(na.Bounds) >= Vol(nb.Bounds)
		}

		if descendA {
			stack = append(stack, bvhPair{na.Left, nb}, bvhPair{na.Right, nb})
		} else {
			stack = append(stack, bvhPair{na, nb.Left}, bvhPair{na, nb.Right})
		}
	}
	return trisA, trisB, true
}
