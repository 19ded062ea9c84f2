// Package spatialmath provides the axis-aligned geometry used by the resampler:
// bounding boxes, planar polygon helpers, and analytic intersection volumes
// between boxes and 3D cells.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Bounds is an axis-aligned box given by its extrema along each axis.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
}

// EmptyBounds returns bounds that contain nothing; extending them with any
// point yields that point's degenerate bounds.
func EmptyBounds() Bounds {
	return Bounds{
		XMin: math.Inf(1), XMax: math.Inf(-1),
		YMin: math.Inf(1), YMax: math.Inf(-1),
		ZMin: math.Inf(1), ZMax: math.Inf(-1),
	}
}

// BoundsAroundPoints returns the smallest bounds containing all given points.
func BoundsAroundPoints(pts []r3.Vector) Bounds {
	b := EmptyBounds()
	for _, p := range pts {
		b.Extend(p)
	}
	return b
}

// String returns a human readable string that represents the bounds.
func (b Bounds) String() string {
	return fmt.Sprintf("Bounds | X: [%.4f, %.4f] | Y: [%.4f, %.4f] | Z: [%.4f, %.4f]",
		b.XMin, b.XMax, b.YMin, b.YMax, b.ZMin, b.ZMax)
}

// Extend grows the bounds to contain p.
func (b *Bounds) Extend(p r3.Vector) {
	b.XMin = math.Min(b.XMin, p.X)
	b.XMax = math.Max(b.XMax, p.X)
	b.YMin = math.Min(b.YMin, p.Y)
	b.YMax = math.Max(b.YMax, p.Y)
	b.ZMin = math.Min(b.ZMin, p.Z)
	b.ZMax = math.Max(b.ZMax, p.Z)
}

// IsEmpty reports whether the bounds contain no point.
func (b Bounds) IsEmpty() bool {
	return b.XMin > b.XMax || b.YMin > b.YMax || b.ZMin > b.ZMax
}

// SizeX returns the extent of the bounds along the X axis.
func (b Bounds) SizeX() float64 { return b.XMax - b.XMin }

// SizeY returns the extent of the bounds along the Y axis.
func (b Bounds) SizeY() float64 { return b.YMax - b.YMin }

// SizeZ returns the extent of the bounds along the Z axis.
func (b Bounds) SizeZ() float64 { return b.ZMax - b.ZMin }

// Volume returns the volume enclosed by the bounds, zero if empty.
func (b Bounds) Volume() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.SizeX() * b.SizeY() * b.SizeZ()
}

// Center returns the centroid of the bounds.
func (b Bounds) Center() r3.Vector {
	return r3.Vector{
		X: 0.5 * (b.XMin + b.XMax),
		Y: 0.5 * (b.YMin + b.YMax),
		Z: 0.5 * (b.ZMin + b.ZMax),
	}
}

// Contains reports whether p lies inside the bounds, boundary included.
func (b Bounds) Contains(p r3.Vector) bool {
	return p.X >= b.XMin && p.X <= b.XMax &&
		p.Y >= b.YMin && p.Y <= b.YMax &&
		p.Z >= b.ZMin && p.Z <= b.ZMax
}

// Overlaps reports whether the two bounds share any point, boundary included.
func (b Bounds) Overlaps(other Bounds) bool {
	return b.XMin <= other.XMax && b.XMax >= other.XMin &&
		b.YMin <= other.YMax && b.YMax >= other.YMin &&
		b.ZMin <= other.ZMax && b.ZMax >= other.ZMin
}

// Corner returns the i-th corner of the bounds for i in [0,8). Bit 0 of i
// selects the X extremum, bit 1 the Y extremum and bit 2 the Z extremum.
func (b Bounds) Corner(i int) r3.Vector {
	p := r3.Vector{X: b.XMin, Y: b.YMin, Z: b.ZMin}
	if i&1 != 0 {
		p.X = b.XMax
	}
	if i&2 != 0 {
		p.Y = b.YMax
	}
	if i&4 != 0 {
		p.Z = b.ZMax
	}
	return p
}

// Min returns the lower bound along axis in [0,3).
func (b Bounds) Min(axis int) float64 {
	switch axis {
	case 0:
		return b.XMin
	case 1:
		return b.YMin
	default:
		return b.ZMin
	}
}

// Max returns the upper bound along axis in [0,3).
func (b Bounds) Max(axis int) float64 {
	switch axis {
	case 0:
		return b.XMax
	case 1:
		return b.YMax
	default:
		return b.ZMax
	}
}

func (b *Bounds) setMin(axis int, v float64) {
	switch axis {
	case 0:
		b.XMin = v
	case 1:
		b.YMin = v
	default:
		b.ZMin = v
	}
}

func (b *Bounds) setMax(axis int, v float64) {
	switch axis {
	case 0:
		b.XMax = v
	case 1:
		b.YMax = v
	default:
		b.ZMax = v
	}
}

func axisComponent(v r3.Vector, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func setAxisComponent(v *r3.Vector, axis int, x float64) {
	switch axis {
	case 0:
		v.X = x
	case 1:
		v.Y = x
	default:
		v.Z = x
	}
}

// axisVector returns the unit vector along axis in [0,3).
func axisVector(axis int) r3.Vector {
	switch axis {
	case 0:
		return r3.Vector{X: 1}
	case 1:
		return r3.Vector{Y: 1}
	default:
		return r3.Vector{Z: 1}
	}
}

// nearlyEqual reports whether two floats are equal up to a few ulps, with a
// relative comparison for large magnitudes.
func nearlyEqual(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	if diff <= 4*dblEpsilon {
		return true
	}
	largest := math.Max(math.Abs(a), math.Abs(b))
	return diff <= largest*4*dblEpsilon
}

const (
	dblEpsilon = 2.220446049250313e-16
	dblMin     = 2.2250738585072014e-308
)
