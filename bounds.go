package corephys

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// degenerateAxisEpsilon is the |u x v|^2 threshold below which two axes are
// treated as near-parallel, per the spec's 5*epsilon guard.
const degenerateAxisEpsilon = 5 * 2.220446049250313e-16

// Aabb is an axis-aligned bounding box in its owner's local frame: a center
// and three non-negative half-extents.
type Aabb struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
}

// Obb is an oriented bounding box: a center, three non-negative
// half-extents, and an orthonormal basis.
type Obb struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
	Basis       [3]mgl64.Vec3
}

// BoundingVolume is the tagged union {Aabb, Obb} the spec requires. Both
// concrete types implement it; callers type-switch when they need to tell
// them apart, and use the package-level functions below (Vol, Collide, ...)
// when they don't.
type BoundingVolume interface {
	isBoundingVolume()
}

func (Aabb) isBoundingVolume() {}
func (Obb) isBoundingVolume()  {}

// AabbFromPoints returns the tight AABB of a point cloud.
func AabbFromPoints(points []mgl64.Vec3) Aabb {
	if len(points) == 0 {
		return Aabb{}
	}
	min, max := points[0], points[0]
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < min[i] {
				min[i] = p[i]
			}
			if p[i] > max[i] {
				max[i] = p[i]
			}
		}
	}
	center := min.Add(max).Mul(0.5)
	half := max.Sub(min).Mul(0.5)
	return Aabb{Center: center, HalfExtents: half}
}

// AabbCombine returns the minimal AABB enclosing both inputs.
func AabbCombine(a, b Aabb) Aabb {
	aMin, aMax := a.Center.Sub(a.HalfExtents), a.Center.Add(a.HalfExtents)
	bMin, bMax := b.Center.Sub(b.HalfExtents), b.Center.Add(b.HalfExtents)
	min, max := aMin, aMax
	for i := 0; i < 3; i++ {
		if bMin[i] < min[i] {
			min[i] = bMin[i]
		}
		if bMax[i] > max[i] {
			max[i] = bMax[i]
		}
	}
	return Aabb{Center: min.Add(max).Mul(0.5), HalfExtents: max.Sub(min).Mul(0.5)}
}

// Vol returns 8*ex*ey*ez for any bounding volume.
func Vol(bv BoundingVolume) float64 {
	var h mgl64.Vec3
	switch v := bv.(type) {
	case Aabb:
		h = v.HalfExtents
	case Obb:
		h = v.HalfExtents
	}
	return 8 * h[0] * h[1] * h[2]
}

// worldBox is a volume's representation once its local->world transform
// has been applied: a center, three (not necessarily unit, but here
// normalized) world-space axes, and the half-extent along each axis.
type worldBox struct {
	center mgl64.Vec3
	axes   [3]mgl64.Vec3
	half   mgl64.Vec3
}

func toWorldBox(bv BoundingVolume, transform mgl64.Mat4) worldBox {
	upper := transform.Mat3()
	var localCenter, half mgl64.Vec3
	var localBasis [3]mgl64.Vec3
	switch v := bv.(type) {
	case Aabb:
		localCenter = v.Center
		half = v.HalfExtents
		localBasis = [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	case Obb:
		localCenter = v.Center
		half = v.HalfExtents
		localBasis = v.Basis
	}
	wb := worldBox{}
	p4 := transform.Mul4x1(mgl64.Vec4{localCenter[0], localCenter[1], localCenter[2], 1})
	wb.center = mgl64.Vec3{p4[0], p4[1], p4[2]}
	for i := 0; i < 3; i++ {
		col := upper.Mul3x1(localBasis[i])
		l := col.Len()
		if l > 1e-12 {
			wb.axes[i] = col.Mul(1 / l)
		} else {
			wb.axes[i] = localBasis[i]
		}
		wb.half[i] = half[i] * l
	}
	return wb
}

// projectRadius returns the radius of wb's projection onto unit axis n.
func (wb worldBox) projectRadius(n mgl64.Vec3) float64 {
	r := 0.0
	for i := 0; i < 3; i++ {
		r += math.Abs(wb.axes[i].Dot(n)) * wb.half[i]
	}
	return r
}

// IsColliding runs the 15-axis Separating Axis Theorem test between two
// bounding volumes under their respective world transforms.
func IsColliding(self BoundingVolume, selfTransform mgl64.Mat4, other BoundingVolume, otherTransform mgl64.Mat4) bool {
	a := toWorldBox(self, selfTransform)
	b := toWorldBox(other, otherTransform)
	centerDiff := b.center.Sub(a.center)

	axes := make([]mgl64.Vec3, 0, 15)
	axes = append(axes, a.axes[0], a.axes[1], a.axes[2])
	axes = append(axes, b.axes[0], b.axes[1], b.axes[2])
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cross := a.axes[i].Cross(b.axes[j])
			lenSq := cross.Dot(cross)
			if lenSq < degenerateAxisEpsilon {
				// Near-parallel: fall back to the axis perpendicular to
				// the plane containing both axes and the center segment.
				alt := a.axes[i].Cross(centerDiff)
				altLenSq := alt.Dot(alt)
				if altLenSq < degenerateAxisEpsilon {
					// Still degenerate: no separation evidence on this
					// axis pair, skip it entirely.
					continue
				}
				axes = append(axes, alt.Normalize())
				continue
			}
			axes = append(axes, cross.Mul(1/math.Sqrt(lenSq)))
		}
	}

	for _, n := range axes {
		if n.Dot(n) < 1e-20 {
			continue
		}
		dist := math.Abs(centerDiff.Dot(n))
		radiusSum := a.projectRadius(n) + b.projectRadius(n)
		if dist > radiusSum {
			return false
		}
	}
	return true
}
