package corephys

import "github.com/go-gl/mathgl/mgl64"

// VertexBuffer is an immutable, address-stable vertex store. It is built
// once and never reallocated in place; triangles reference it by pointer
// plus index, mirroring the spec's pinned-vertex-buffer requirement
// without needing unsafe pointer pinning the way the original source does.
type VertexBuffer struct {
	verts []mgl64.Vec3
}

// NewVertexBuffer copies points into a freshly allocated, immutable buffer.
func NewVertexBuffer(points []mgl64.Vec3) *VertexBuffer {
	vb := &VertexBuffer{verts: make([]mgl64.Vec3, len(points))}
	copy(vb.verts, points)
	return vb
}

func (vb *VertexBuffer) Len() int { return len(vb.verts) }

func (vb *VertexBuffer) At(i uint32) mgl64.Vec3 { return vb.verts[i] }

// Triangle is three indices into a shared vertex buffer. Equality is
// defined by (buffer identity, ordered indices); triangles must never
// outlive the buffer they reference, which NewVertexBuffer's build-once
// contract guarantees as long as the owning BVHOwner is kept alive.
type Triangle struct {
	Buf        *VertexBuffer
	I0, I1, I2 uint32
}

func (t Triangle) Verts() (a, b, c mgl64.Vec3) {
	return t.Buf.At(t.I0), t.Buf.At(t.I1), t.Buf.At(t.I2)
}

func (t Triangle) Equal(o Triangle) bool {
	return t.Buf == o.Buf && t.I0 == o.I0 && t.I1 == o.I1 && t.I2 == o.I2
}

// Centroid returns the unweighted average of the triangle's three vertices.
func (t Triangle) Centroid() mgl64.Vec3 {
	a, b, c := t.Verts()
	return a.Add(b).Add(c).Mul(1.0 / 3.0)
}

// Normal returns the (non-normalized) winding normal of the triangle.
func (t Triangle) Normal() mgl64.Vec3 {
	a, b, c := t.Verts()
	return b.Sub(a).Cross(c.Sub(a))
}

// NewTriangles validates indices against the buffer and builds triangle
// records from a flat index list; it is the one place MalformedMesh can be
// raised, since a bad index here would otherwise panic deep inside BVH
// construction.
func NewTriangles(buf *VertexBuffer, indices []uint32) ([]Triangle, error) {
	if len(indices)%3 != 0 {
		return nil, ErrMalformedMesh
	}
	n := uint32(buf.Len())
	tris := make([]Triangle, 0, len(indices)/3)
	for i := 0; i < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if i0 >= n || i1 >= n || i2 >= n {
			return nil, ErrMalformedMesh
		}
		tris = append(tris, Triangle{Buf: buf, I0: i0, I1: i1, I2: i2})
	}
	return tris, nil
}
