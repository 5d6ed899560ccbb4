package corephys

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func quadIndices() []uint32 { return []uint32{0, 1, 2, 0, 2, 3} }

func unitQuadVerts() []mgl64.Vec3 {
	return []mgl64.Vec3{
		{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1},
	}
}

func TestNewTrianglesRejectsOutOfBoundsIndex(t *testing.T) {
	buf := NewVertexBuffer(unitQuadVerts())
	_, err := NewTriangles(buf, []uint32{0, 1, 99})
	require.ErrorIs(t, err, ErrMalformedMesh)
}

func TestNewTrianglesRejectsNonMultipleOfThree(t *testing.T) {
	buf := NewVertexBuffer(unitQuadVerts())
	_, err := NewTriangles(buf, []uint32{0, 1})
	require.ErrorIs(t, err, ErrMalformedMesh)
}

func TestBVHOwnerBoundingBox(t *testing.T) {
	owner, err := NewBVHOwner(unitQuadVerts(), quadIndices(), NewStandardStopCriteria(2, 4))
	require.NoError(t, err)
	bb := owner.BoundingBox()
	require.InDelta(t, 0, bb.Center[1], 1e-9)
	require.InDelta(t, 1, bb.HalfExtents[0], 1e-9)
	require.InDelta(t, 1, bb.HalfExtents[2], 1e-9)
}

func TestBVHCollisionOverlappingQuads(t *testing.T) {
	a, err := NewBVHOwner(unitQuadVerts(), quadIndices(), NewStandardStopCriteria(1, 8))
	require.NoError(t, err)
	b, err := NewBVHOwner(unitQuadVerts(), quadIndices(), NewStandardStopCriteria(1, 8))
	require.NoError(t, err)

	trisA, trisB, ok := a.Collision(mgl64.Ident4(), b, mgl64.Ident4())
	require.True(t, ok)
	require.NotEmpty(t, trisA)
	require.NotEmpty(t, trisB)
}

func TestBVHCollisionSeparatedQuads(t *testing.T) {
	a, err := NewBVHOwner(unitQuadVerts(), quadIndices(), NewStandardStopCriteria(1, 8))
	require.NoError(t, err)
	b, err := NewBVHOwner(unitQuadVerts(), quadIndices(), NewStandardStopCriteria(1, 8))
	require.NoError(t, err)

	far := mgl64.Translate3D(100, 0, 0)
	_, _, ok := a.Collision(mgl64.Ident4(), b, far)
	require.False(t, ok)
}

func TestBuildBVHAlwaysStop(t *testing.T) {
	buf := NewVertexBuffer(unitQuadVerts())
	tris, err := NewTriangles(buf, quadIndices())
	require.NoError(t, err)
	root := buildBVH(tris, NewAlwaysStopCriteria(), 0)
	require.True(t, root.IsLeaf())
	require.Len(t, root.Tris, 2)
}
