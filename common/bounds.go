package common

import "math"

// AABB is an axis-aligned bounding box expressed by its minimum and maximum corners.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// Sphere is a bounding sphere. A Radius of +Inf denotes an unbounded sphere
// that contains everything (used for directional lights so culling never
// rejects them).
type Sphere struct {
	Center [3]float32
	Radius float32
}

// InfiniteSphere returns a sphere with infinite radius, containing all of space.
//
// Returns:
//   - Sphere: a sphere whose Radius is +Inf
func InfiniteSphere() Sphere {
	return Sphere{Radius: float32(math.Inf(1))}
}

// IsInfinite reports whether the sphere has infinite radius.
//
// Returns:
//   - bool: true if the sphere contains all of space
func (s Sphere) IsInfinite() bool {
	return math.IsInf(float64(s.Radius), 1)
}

// Center returns the center point of the box.
//
// Returns:
//   - [3]float32: the midpoint of Min and Max
func (b AABB) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) * 0.5,
		(b.Min[1] + b.Max[1]) * 0.5,
		(b.Min[2] + b.Max[2]) * 0.5,
	}
}

// HalfExtents returns the half-size of the box along each axis.
//
// Returns:
//   - [3]float32: half of Max-Min per axis
func (b AABB) HalfExtents() [3]float32 {
	return [3]float32{
		(b.Max[0] - b.Min[0]) * 0.5,
		(b.Max[1] - b.Min[1]) * 0.5,
		(b.Max[2] - b.Min[2]) * 0.5,
	}
}

// Expand grows the box to include the given point.
//
// Parameters:
//   - x, y, z: the point to include
//
// Returns:
//   - AABB: the expanded box
func (b AABB) Expand(x, y, z float32) AABB {
	if x < b.Min[0] {
		b.Min[0] = x
	}
	if y < b.Min[1] {
		b.Min[1] = y
	}
	if z < b.Min[2] {
		b.Min[2] = z
	}
	if x > b.Max[0] {
		b.Max[0] = x
	}
	if y > b.Max[1] {
		b.Max[1] = y
	}
	if z > b.Max[2] {
		b.Max[2] = z
	}
	return b
}

// Union returns the smallest box containing both b and other.
//
// Parameters:
//   - other: the box to merge with
//
// Returns:
//   - AABB: the merged box
func (b AABB) Union(other AABB) AABB {
	b = b.Expand(other.Min[0], other.Min[1], other.Min[2])
	return b.Expand(other.Max[0], other.Max[1], other.Max[2])
}

// IntersectsSphere tests the box against a sphere using the closest-point
// clamp and a squared-distance compare. Infinite spheres intersect everything.
//
// Parameters:
//   - s: the sphere to test
//
// Returns:
//   - bool: true if the sphere overlaps the box
func (b AABB) IntersectsSphere(s Sphere) bool {
	if s.IsInfinite() {
		return true
	}
	var distSq float32
	for i := 0; i < 3; i++ {
		c := s.Center[i]
		if c < b.Min[i] {
			d := b.Min[i] - c
			distSq += d * d
		} else if c > b.Max[i] {
			d := c - b.Max[i]
			distSq += d * d
		}
	}
	return distSq <= s.Radius*s.Radius
}

// TransformAABB transforms a local-space box by a column-major world matrix and
// returns the axis-aligned box enclosing the result. Uses the center/extents
// absolute-matrix method, which avoids transforming all eight corners.
//
// Parameters:
//   - world: the world matrix (16 elements, column-major)
//   - local: the local-space box
//
// Returns:
//   - AABB: the enclosing world-space box
func TransformAABB(world []float32, local AABB) AABB {
	c := local.Center()
	e := local.HalfExtents()

	wc := [3]float32{
		world[0]*c[0] + world[4]*c[1] + world[8]*c[2] + world[12],
		world[1]*c[0] + world[5]*c[1] + world[9]*c[2] + world[13],
		world[2]*c[0] + world[6]*c[1] + world[10]*c[2] + world[14],
	}
	we := [3]float32{
		absf(world[0])*e[0] + absf(world[4])*e[1] + absf(world[8])*e[2],
		absf(world[1])*e[0] + absf(world[5])*e[1] + absf(world[9])*e[2],
		absf(world[2])*e[0] + absf(world[6])*e[1] + absf(world[10])*e[2],
	}

	return AABB{
		Min: [3]float32{wc[0] - we[0], wc[1] - we[1], wc[2] - we[2]},
		Max: [3]float32{wc[0] + we[0], wc[1] + we[1], wc[2] + we[2]},
	}
}

// absf returns the absolute value of a float32.
func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
