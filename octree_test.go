package corephys

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

type testSphere struct {
	center mgl64.Vec3
	radius float64
	alive  bool
}

func newTestSphere(center mgl64.Vec3, radius float64) *testSphere {
	return &testSphere{center: center, radius: radius, alive: true}
}

func (s *testSphere) SphereCenter() mgl64.Vec3 { return s.center }
func (s *testSphere) SphereRadius() float64    { return s.radius }
func (s *testSphere) Alive() bool              { return s.alive }

func TestOctreeInsertRejectsOversizedBody(t *testing.T) {
	tree := NewOctree(mgl64.Vec3{0, 0, 0}, 10, 4)
	big := newTestSphere(mgl64.Vec3{0, 0, 0}, 100)
	err := tree.Insert(big)
	require.ErrorIs(t, err, ErrDoesNotFitInTree)
}

func TestOctreeSplitsOnOverflow(t *testing.T) {
	tree := NewOctree(mgl64.Vec3{0, 0, 0}, 100, 2)
	for i := 0; i < 5; i++ {
		offset := float64(i) * 30
		b := newTestSphere(mgl64.Vec3{offset, offset, offset}, 0.5)
		require.NoError(t, tree.Insert(b))
	}
	require.True(t, tree.HasChildren())
	require.Len(t, tree.AllObjects(), 5)
}

func TestOctreeCollapsesOnRemoveAll(t *testing.T) {
	tree := NewOctree(mgl64.Vec3{0, 0, 0}, 100, 1)
	bodies := make([]*testSphere, 0, 4)
	for i := 0; i < 4; i++ {
		offset := float64(i) * 40
		b := newTestSphere(mgl64.Vec3{offset, offset, offset}, 0.5)
		bodies = append(bodies, b)
		require.NoError(t, tree.Insert(b))
	}
	require.True(t, tree.HasChildren())
	for _, b := range bodies {
		tree.Remove(b)
	}
	require.False(t, tree.HasChildren())
	require.Empty(t, tree.AllObjects())
}

func TestOctreeSubtreeCollidersFindsOverlap(t *testing.T) {
	tree := NewOctree(mgl64.Vec3{0, 0, 0}, 100, 8)
	a := newTestSphere(mgl64.Vec3{0, 0, 0}, 1)
	b := newTestSphere(mgl64.Vec3{1.5, 0, 0}, 1)
	c := newTestSphere(mgl64.Vec3{50, 50, 50}, 1)
	require.NoError(t, tree.Insert(a))
	require.NoError(t, tree.Insert(b))
	require.NoError(t, tree.Insert(c))

	colliders := tree.SubtreeColliders(a)
	require.Len(t, colliders, 1)
	require.Equal(t, OctreeBody(b), colliders[0])
}

func TestOctreeUpdateRepositionsAcrossCells(t *testing.T) {
	tree := NewOctree(mgl64.Vec3{0, 0, 0}, 100, 1)
	a := newTestSphere(mgl64.Vec3{-50, -50, -50}, 0.5)
	b := newTestSphere(mgl64.Vec3{50, 50, 50}, 0.5)
	require.NoError(t, tree.Insert(a))
	require.NoError(t, tree.Insert(b))
	require.True(t, tree.HasChildren())

	a.center = b.center
	tree.Update(a)

	require.Len(t, tree.AllObjects(), 2)
	hits := tree.TestSphere(b.center, 0.5)
	require.Len(t, hits, 2, "both bodies now occupy the same point and must both match a query there")
}

func TestOctreePrunesDeadBodies(t *testing.T) {
	tree := NewOctree(mgl64.Vec3{0, 0, 0}, 100, 8)
	a := newTestSphere(mgl64.Vec3{0, 0, 0}, 1)
	require.NoError(t, tree.Insert(a))
	a.alive = false

	require.Empty(t, tree.AllObjects())
}

func TestOctreeTestSphereEphemeralQuery(t *testing.T) {
	tree := NewOctree(mgl64.Vec3{0, 0, 0}, 100, 8)
	a := newTestSphere(mgl64.Vec3{10, 0, 0}, 1)
	require.NoError(t, tree.Insert(a))

	hits := tree.TestSphere(mgl64.Vec3{10.5, 0, 0}, 0.6)
	require.Len(t, hits, 1)

	hits = tree.TestSphere(mgl64.Vec3{-10, 0, 0}, 1)
	require.Empty(t, hits)
}
