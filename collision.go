package corephys

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Collider is the (transform, bounding sphere, BVH) triple the spec
// attaches to a rigid body for collision queries. SubMeshes mirrors the
// original source's CollisionMesh: a body's geometry may be split across
// several BVH owners (e.g. separate hull pieces), each cross-queried
// independently against the other side's submeshes.
type Collider struct {
	Transform   *Node
	LocalAABB   Aabb
	LocalRadius float64
	SubMeshes   []*BVHOwner
	Method      CollisionMethod
}

// NewCollider builds a collider directly from a known local AABB and
// bounding radius.
func NewCollider(transform *Node, localAABB Aabb, localRadius float64, subMeshes []*BVHOwner, method CollisionMethod) *Collider {
	return &Collider{
		Transform:   transform,
		LocalAABB:   localAABB,
		LocalRadius: localRadius,
		SubMeshes:   subMeshes,
		Method:      method,
	}
}

// NewColliderFromSubMeshes derives a conservative local AABB and bounding
// sphere from the submeshes themselves, grounded on the original source's
// CollisionMesh::bounding_sphere conservative-enclosing-sphere computation.
func NewColliderFromSubMeshes(transform *Node, subMeshes []*BVHOwner, method CollisionMethod) *Collider {
	if len(subMeshes) == 0 {
		return NewCollider(transform, Aabb{}, 0, subMeshes, method)
	}
	combined := subMeshes[0].BoundingBox()
	for _, sm := range subMeshes[1:] {
		combined = AabbCombine(combined, sm.BoundingBox())
	}
	radius := 0.0
	for _, sm := range subMeshes {
		bb := sm.BoundingBox()
		for _, sign := range [8][3]float64{
			{1, 1, 1}, {1, 1, -1}, {1, -1, 1}, {1, -1, -1},
			{-1, 1, 1}, {-1, 1, -1}, {-1, -1, 1}, {-1, -1, -1},
		} {
			corner := bb.Center.Add(mgl64.Vec3{
				sign[0] * bb.HalfExtents[0],
				sign[1] * bb.HalfExtents[1],
				sign[2] * bb.HalfExtents[2],
			})
			d := corner.Sub(combined.Center).Len()
			if d > radius {
				radius = d
			}
		}
	}
	return NewCollider(transform, combined, radius, subMeshes, method)
}

// SphereCenter and SphereRadius satisfy OctreeBody, so a Collider (or
// whatever embeds it) can be inserted into an Octree directly.
func (c *Collider) SphereCenter() mgl64.Vec3 { return c.Transform.GetPos() }

// SphereRadius applies the spec's deliberately conservative nonuniform-
// scale policy: local_radius * max(sx, sy, sz).
func (c *Collider) SphereRadius() float64 {
	s := c.Transform.Scale()
	return c.LocalRadius * math.Max(s[0], math.Max(s[1], s[2]))
}

// HitReport is the (point, normal) pair per side the pipeline produces for
// an intersecting pair, used only for external reporting.
type HitReport struct {
	PointA, NormalA mgl64.Vec3
	PointB, NormalB mgl64.Vec3
}

// obbStage runs the OBB/SAT overlap test (step 1 of the pipeline).
func obbStage(a, b *Collider, ta, tb mgl64.Mat4) bool {
	return IsColliding(a.LocalAABB, ta, b.LocalAABB, tb)
}

// bvhStage cross-queries every pair of submeshes (step 2), returning the
// union of candidate triangles from every overlapping leaf pair. anyRootOverlap
// distinguishes "no submesh pair's roots overlapped" from "roots overlapped but
// candidate lists came up empty."
func bvhStage(a, b *Collider, ta, tb mgl64.Mat4) (trisA, trisB []Triangle, anyRootOverlap bool) {
	for _, sa := range a.SubMeshes {
		for _, sb := range b.SubMeshes {
			ca, cb, ok := sa.Collision(ta, sb, tb)
			if !ok {
				continue
			}
			anyRootOverlap = true
			trisA = append(trisA, ca...)
			trisB = append(trisB, cb...)
		}
	}
	return trisA, trisB, anyRootOverlap
}

// buildHitReport averages triangle centroids (as contact points) and face
// normals (transformed by the upper-left 3x3 and renormalized) over the
// colliding triangles on each side.
func buildHitReport(hit *TriangleHit, ta, tb mgl64.Mat4) *HitReport {
	avg := func(tris []Triangle, m mgl64.Mat4) (mgl64.Vec3, mgl64.Vec3) {
		if len(tris) == 0 {
			return mgl64.Vec3{}, mgl64.Vec3{}
		}
		upper := m.Mat3()
		var pointSum, normalSum mgl64.Vec3
		for _, t := range tris {
			pointSum = pointSum.Add(transformPoint(m, t.Centroid()))
			normalSum = normalSum.Add(upper.Mul3x1(t.Normal()))
		}
		point := pointSum.Mul(1.0 / float64(len(tris)))
		n := normalSum.Mul(1.0 / float64(len(tris)))
		if l := n.Len(); l > 1e-12 {
			n = n.Mul(1 / l)
		}
		return point, n
	}
	pa, na := avg(hit.TrianglesA, ta)
	pb, nb := avg(hit.TrianglesB, tb)
	return &HitReport{PointA: pa, NormalA: na, PointB: pb, NormalB: nb}
}

// CollidePair runs the full three-phase collision pipeline for a single
// pair of colliders under the given strategy. Returns (nil, nil) for "no
// collision," a non-nil report for a hit, and a non-nil error only for the
// programmer-error conditions surfaced by the underlying strategy.
func CollidePair(a, b *Collider, strategy HighPrecisionStrategy) (*HitReport, error) {
	ta, tb := a.Transform.Mat(), b.Transform.Mat()

	if !obbStage(a, b, ta, tb) {
		return nil, nil
	}

	trisA, trisB, anyRootOverlap := bvhStage(a, b, ta, tb)
	if !anyRootOverlap {
		return nil, nil
	}
	if len(trisA) == 0 || len(trisB) == 0 {
		return nil, nil
	}

	hit, err := strategy.Collide(trisA, ta, trisB, tb)
	if err != nil {
		return nil, err
	}
	if hit == nil {
		return nil, nil
	}
	return buildHitReport(hit, ta, tb), nil
}
