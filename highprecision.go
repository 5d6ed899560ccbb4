package corephys

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CollisionMethod selects which HighPrecisionStrategy a body's collider
// uses for the triangle stage.
type CollisionMethod int

const (
	MethodNone CollisionMethod = iota
	MethodCPUExact
	MethodGPU
)

// TriangleHit is the set of triangles on each side that participated in at
// least one intersecting pair. The collision pipeline (collision.go)
// averages centroids/normals over these to build the reported Hit.
type TriangleHit struct {
	TrianglesA []Triangle
	TrianglesB []Triangle
}

// HighPrecisionStrategy is the triangle-pair test interface. Three
// implementations exist in this module: NoneStrategy, CPUExactStrategy,
// and GPUStrategy.
type HighPrecisionStrategy interface {
	Collide(trisA []Triangle, transformA mgl64.Mat4, trisB []Triangle, transformB mgl64.Mat4) (*TriangleHit, error)
}

// triEps is the tolerance used for plane-sign, coplanarity, and interval
// overlap guard bands. The spec calls for an epsilon guard band on edge
// tests; this value is looser than machine epsilon to absorb the floating
// error accumulated by the transform multiplications upstream of this test.
const triEps = 1e-9

// NoneStrategy reports a hit with no geometric data (empty triangle lists)
// for any non-empty input, for bounding-only collision modes. It returns
// ErrEmptyCollisionBuffer when both inputs are empty.
type NoneStrategy struct{}

func (NoneStrategy) Collide(trisA []Triangle, transformA mgl64.Mat4, trisB []Triangle, transformB mgl64.Mat4) (*TriangleHit, error) {
	if len(trisA) == 0 && len(trisB) == 0 {
		return nil, ErrEmptyCollisionBuffer
	}
	return &TriangleHit{}, nil
}

// CPUExactStrategy implements Möller's triangle-triangle interval-overlap
// test, including the coplanar 2D fallback, with the spec's flagged edge
// bug fixed: the coplanar edge pairs include (v1,v2)-(v0,v1), not the
// original's degenerate (v1,v2)-(v0,v0).
type CPUExactStrategy struct{}

func transformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	v := m.Mul4x1(mgl64.Vec4{p[0], p[1], p[2], 1})
	return mgl64.Vec3{v[0], v[1], v[2]}
}

func transformTri(t Triangle, m mgl64.Mat4) (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3) {
	a, b, c := t.Verts()
	return transformPoint(m, a), transformPoint(m, b), transformPoint(m, c)
}

func planeTestSeparates(d [3]float64) bool {
	allPos := d[0] > triEps && d[1] > triEps && d[2] > triEps
	allNeg := d[0] < -triEps && d[1] < -triEps && d[2] < -triEps
	return allPos || allNeg
}

func isCoplanarDists(da, db [3]float64) bool {
	for _, v := range da {
		if math.Abs(v) > triEps {
			return false
		}
	}
	for _, v := range db {
		if math.Abs(v) > triEps {
			return false
		}
	}
	return true
}

// oddVertexIndex returns the index of the triangle vertex lying alone on
// one side of the other triangle's plane.
func oddVertexIndex(d [3]float64) int {
	sameSign := func(a, b float64) bool {
		return (a > 0 && b > 0) || (a < 0 && b < 0) || (a == 0 && b == 0)
	}
	if sameSign(d[0], d[1]) {
		return 2
	}
	if sameSign(d[0], d[2]) {
		return 1
	}
	return 0
}

func absMaxDimIndex(v mgl64.Vec3) int {
	best := 0
	for i := 1; i < 3; i++ {
		if math.Abs(v[i]) > math.Abs(v[best]) {
			best = i
		}
	}
	return best
}

func getT(pOdd, pOther, dOdd, dOther float64) float64 {
	denom := dOdd - dOther
	if math.Abs(denom) < triEps {
		return pOdd
	}
	return pOdd + (pOther-pOdd)*(dOdd/denom)
}

func orderInterval(t1, t2 float64) (float64, float64) {
	if t1 > t2 {
		return t2, t1
	}
	return t1, t2
}

func getInterval(odd int, p, d [3]float64) (float64, float64) {
	others := [2]int{}
	j := 0
	for i := 0; i < 3; i++ {
		if i != odd {
			others[j] = i
			j++
		}
	}
	t1 := getT(p[odd], p[others[0]], d[odd], d[others[0]])
	t2 := getT(p[odd], p[others[1]], d[odd], d[others[1]])
	return orderInterval(t1, t2)
}

func intervalsOverlap(aLo, aHi, bLo, bHi float64) bool {
	return aHi+triEps >= bLo && bHi+triEps >= aLo
}

func orient2D(a, b, c [2]float64) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment2D(a, b, c [2]float64) bool {
	return math.Min(a[0], b[0])-triEps <= c[0] && c[0] <= math.Max(a[0], b[0])+triEps &&
		math.Min(a[1], b[1])-triEps <= c[1] && c[1] <= math.Max(a[1], b[1])+triEps
}

func segmentsIntersect2D(p1, p2, q1, q2 [2]float64) bool {
	d1 := orient2D(q1, q2, p1)
	d2 := orient2D(q1, q2, p2)
	d3 := orient2D(p1, p2, q1)
	d4 := orient2D(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if math.Abs(d1) < triEps && onSegment2D(q1, q2, p1) {
		return true
	}
	if math.Abs(d2) < triEps && onSegment2D(q1, q2, p2) {
		return true
	}
	if math.Abs(d3) < triEps && onSegment2D(p1, p2, q1) {
		return true
	}
	if math.Abs(d4) < triEps && onSegment2D(p1, p2, q2) {
		return true
	}
	return false
}

// coplanarTest projects both triangles onto the coordinate plane most
// perpendicular to the shared normal and tests the nine edge-edge pairs.
func coplanarTest(a0, a1, a2, b0, b1, b2, normal mgl64.Vec3) bool {
	drop := absMaxDimIndex(normal)
	proj := func(v mgl64.Vec3) [2]float64 {
		var out [2]float64
		j := 0
		for i := 0; i < 3; i++ {
			if i == drop {
				continue
			}
			out[j] = v[i]
			j++
		}
		return out
	}
	pa0, pa1, pa2 := proj(a0), proj(a1), proj(a2)
	pb0, pb1, pb2 := proj(b0), proj(b1), proj(b2)

	edgesA := [3][2][2]float64{{pa0, pa1}, {pa1, pa2}, {pa2, pa0}}
	// Correct edge set for B: (b0,b1), (b1,b2), (b2,b0). The original
	// source's ninth edge used the degenerate pair (v1,v2)-(v0,v0); fixed
	// here per the spec's explicit instruction.
	edgesB := [3][2][2]float64{{pb0, pb1}, {pb1, pb2}, {pb2, pb0}}

	for _, ea := range edgesA {
		for _, eb := range edgesB {
			if segmentsIntersect2D(ea[0], ea[1], eb[0], eb[1]) {
				return true
			}
		}
	}
	return false
}

func mollerTest(a0, a1, a2, b0, b1, b2 mgl64.Vec3) bool {
	nb := b1.Sub(b0).Cross(b2.Sub(b0))
	db := -nb.Dot(b0)
	da := [3]float64{nb.Dot(a0) + db, nb.Dot(a1) + db, nb.Dot(a2) + db}
	if planeTestSeparates(da) {
		return false
	}

	na := a1.Sub(a0).Cross(a2.Sub(a0))
	daPlaneA := -na.Dot(a0)
	dbv := [3]float64{na.Dot(b0) + daPlaneA, na.Dot(b1) + daPlaneA, na.Dot(b2) + daPlaneA}
	if planeTestSeparates(dbv) {
		return false
	}

	if isCoplanarDists(da, dbv) {
		return coplanarTest(a0, a1, a2, b0, b1, b2, na)
	}

	d := na.Cross(nb)
	var axis mgl64.Vec3
	if d.Dot(d) < triEps {
		dim := absMaxDimIndex(d)
		var a mgl64.Vec3
		a[dim] = 1
		axis = a
	} else {
		axis = d.Normalize()
	}

	pa := [3]float64{axis.Dot(a0), axis.Dot(a1), axis.Dot(a2)}
	pb := [3]float64{axis.Dot(b0), axis.Dot(b1), axis.Dot(b2)}

	oddA := oddVertexIndex(da)
	oddB := oddVertexIndex(dbv)
	aLo, aHi := getInterval(oddA, pa, da)
	bLo, bHi := getInterval(oddB, pb, dbv)
	return intervalsOverlap(aLo, aHi, bLo, bHi)
}

func (CPUExactStrategy) Collide(trisA []Triangle, transformA mgl64.Mat4, trisB []Triangle, transformB mgl64.Mat4) (*TriangleHit, error) {
	if len(trisA) == 0 && len(trisB) == 0 {
		return nil, ErrEmptyCollisionBuffer
	}
	var hitA, hitB []Triangle
	seenA := map[Triangle]bool{}
	seenB := map[Triangle]bool{}

	for _, ta := range trisA {
		a0, a1, a2 := transformTri(ta, transformA)
		for _, tb := range trisB {
			b0, b1, b2 := transformTri(tb, transformB)
			if mollerTest(a0, a1, a2, b0, b1, b2) {
				if !seenA[ta] {
					hitA = append(hitA, ta)
					seenA[ta] = true
				}
				if !seenB[tb] {
					hitB = append(hitB, tb)
					seenB[tb] = true
				}
			}
		}
	}
	if len(hitA) == 0 && len(hitB) == 0 {
		return nil, nil
	}
	return &TriangleHit{TrianglesA: hitA, TrianglesB: hitB}, nil
}
