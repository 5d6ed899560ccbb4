package corephys

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func triangleAt(buf *VertexBuffer, i0, i1, i2 uint32) Triangle {
	return Triangle{Buf: buf, I0: i0, I1: i1, I2: i2}
}

func xyTriangle(z float64) Triangle {
	buf := NewVertexBuffer([]mgl64.Vec3{{-1, -1, z}, {1, -1, z}, {0, 1, z}})
	return triangleAt(buf, 0, 1, 2)
}

func TestCPUExactStrategyIntersectingTriangles(t *testing.T) {
	bufA := NewVertexBuffer([]mgl64.Vec3{{-2, -2, 0}, {2, -2, 0}, {0, 2, 0}})
	a := triangleAt(bufA, 0, 1, 2)
	bufB := NewVertexBuffer([]mgl64.Vec3{{-1, 0, -1}, {1, 0, -1}, {0, 0, 1}})
	b := triangleAt(bufB, 0, 1, 2)

	strat := CPUExactStrategy{}
	hit, err := strat.Collide([]Triangle{a}, mgl64.Ident4(), []Triangle{b}, mgl64.Ident4())
	require.NoError(t, err)
	require.NotNil(t, hit)
	require.Len(t, hit.TrianglesA, 1)
	require.Len(t, hit.TrianglesB, 1)
}

func TestCPUExactStrategyDisjointTriangles(t *testing.T) {
	a := xyTriangle(0)
	b := xyTriangle(0)
	strat := CPUExactStrategy{}
	hit, err := strat.Collide([]Triangle{a}, mgl64.Ident4(), []Triangle{b}, mgl64.Translate3D(100, 100, 100))
	require.NoError(t, err)
	require.Nil(t, hit)
}

func TestCPUExactStrategyEmptyBuffersError(t *testing.T) {
	strat := CPUExactStrategy{}
	_, err := strat.Collide(nil, mgl64.Ident4(), nil, mgl64.Ident4())
	require.ErrorIs(t, err, ErrEmptyCollisionBuffer)
}

func TestCoplanarTestSharedPlaneOverlapping(t *testing.T) {
	a0, a1, a2 := mgl64.Vec3{-1, -1, 0}, mgl64.Vec3{1, -1, 0}, mgl64.Vec3{0, 1, 0}
	b0, b1, b2 := mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, -2, 0}
	require.True(t, coplanarTest(a0, a1, a2, b0, b1, b2, mgl64.Vec3{0, 0, 1}))
}

func TestCoplanarTestSharedPlaneDisjoint(t *testing.T) {
	a0, a1, a2 := mgl64.Vec3{-1, -1, 0}, mgl64.Vec3{1, -1, 0}, mgl64.Vec3{0, 1, 0}
	b0, b1, b2 := mgl64.Vec3{10, 10, 0}, mgl64.Vec3{12, 10, 0}, mgl64.Vec3{11, 12, 0}
	require.False(t, coplanarTest(a0, a1, a2, b0, b1, b2, mgl64.Vec3{0, 0, 1}))
}

func TestMollerTestCoplanarCrossingTriangles(t *testing.T) {
	a0, a1, a2 := mgl64.Vec3{-1, -1, 0}, mgl64.Vec3{1, -1, 0}, mgl64.Vec3{0, 1, 0}
	b0, b1, b2 := mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, -2, 0}
	require.True(t, mollerTest(a0, a1, a2, b0, b1, b2))
}

func TestNoneStrategyAlwaysHits(t *testing.T) {
	strat := NoneStrategy{}
	a := xyTriangle(0)
	hit, err := strat.Collide([]Triangle{a}, mgl64.Ident4(), []Triangle{a}, mgl64.Ident4())
	require.NoError(t, err)
	require.NotNil(t, hit)
}
