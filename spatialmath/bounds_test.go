package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestBoundsBasic(t *testing.T) {
	b := EmptyBounds()
	test.That(t, b.IsEmpty(), test.ShouldBeTrue)
	test.That(t, b.Volume(), test.ShouldEqual, 0.0)

	b.Extend(r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, b.IsEmpty(), test.ShouldBeFalse)
	test.That(t, b.Volume(), test.ShouldEqual, 0.0)

	b.Extend(r3.Vector{X: -1, Y: 0, Z: 1})
	test.That(t, b.SizeX(), test.ShouldEqual, 2.0)
	test.That(t, b.SizeY(), test.ShouldEqual, 2.0)
	test.That(t, b.SizeZ(), test.ShouldEqual, 2.0)
	test.That(t, b.Volume(), test.ShouldEqual, 8.0)
	test.That(t, b.Center(), test.ShouldResemble, r3.Vector{X: 0, Y: 1, Z: 2})

	test.That(t, b.Contains(r3.Vector{X: 0, Y: 1, Z: 2}), test.ShouldBeTrue)
	test.That(t, b.Contains(r3.Vector{X: 0, Y: 1, Z: 4}), test.ShouldBeFalse)
}

func TestBoundsCorners(t *testing.T) {
	b := Bounds{XMin: 0, XMax: 1, YMin: 2, YMax: 3, ZMin: 4, ZMax: 5}
	test.That(t, b.Corner(0), test.ShouldResemble, r3.Vector{X: 0, Y: 2, Z: 4})
	test.That(t, b.Corner(1), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 4})
	test.That(t, b.Corner(2), test.ShouldResemble, r3.Vector{X: 0, Y: 3, Z: 4})
	test.That(t, b.Corner(7), test.ShouldResemble, r3.Vector{X: 1, Y: 3, Z: 5})
}

func TestBoundsOverlaps(t *testing.T) {
	a := Bounds{XMin: 0, XMax: 1, YMin: 0, YMax: 1, ZMin: 0, ZMax: 1}
	test.That(t, a.Overlaps(Bounds{XMin: 0.5, XMax: 2, YMin: 0, YMax: 1, ZMin: 0, ZMax: 1}), test.ShouldBeTrue)
	// Touching boundaries still overlap.
	test.That(t, a.Overlaps(Bounds{XMin: 1, XMax: 2, YMin: 0, YMax: 1, ZMin: 0, ZMax: 1}), test.ShouldBeTrue)
	test.That(t, a.Overlaps(Bounds{XMin: 1.1, XMax: 2, YMin: 0, YMax: 1, ZMin: 0, ZMax: 1}), test.ShouldBeFalse)
}

func TestPolygonNormal(t *testing.T) {
	square := []r3.Vector{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}
	n := PolygonNormal(square)
	test.That(t, n.X, test.ShouldAlmostEqual, 0)
	test.That(t, n.Y, test.ShouldAlmostEqual, 0)
	test.That(t, n.Z, test.ShouldAlmostEqual, 1)

	// Reversed winding flips the normal.
	reversed := []r3.Vector{{0, 1, 1}, {1, 1, 1}, {1, 0, 1}, {0, 0, 1}}
	n = PolygonNormal(reversed)
	test.That(t, n.Z, test.ShouldAlmostEqual, -1)
}

func TestPointInPolygon(t *testing.T) {
	square := []r3.Vector{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}
	n := PolygonNormal(square)
	test.That(t, PointInPolygon(r3.Vector{X: 0.5, Y: 0.5, Z: 1}, square, n), test.ShouldBeTrue)
	test.That(t, PointInPolygon(r3.Vector{X: 1.5, Y: 0.5, Z: 1}, square, n), test.ShouldBeFalse)
	test.That(t, PointInPolygon(r3.Vector{X: -0.5, Y: 0.5, Z: 1}, square, n), test.ShouldBeFalse)

	tri := []r3.Vector{{1.5, 0, 0}, {0, 1.5, 0}, {0, 0, 1.5}}
	n = PolygonNormal(tri)
	test.That(t, PointInPolygon(r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}, tri, n), test.ShouldBeTrue)
	test.That(t, PointInPolygon(r3.Vector{X: 1.4, Y: 1.4, Z: -1.3}, tri, n), test.ShouldBeFalse)
}

func TestIntersectBoxWithLine(t *testing.T) {
	box := Bounds{XMin: 0, XMax: 1, YMin: 0, YMax: 1, ZMin: 0, ZMax: 1}

	hit, ok := IntersectBoxWithLine(box, r3.Vector{X: -1, Y: 0.5, Z: 0.5}, r3.Vector{X: 2, Y: 0.5, Z: 0.5})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, hit.T1, test.ShouldAlmostEqual, 1.0/3.0)
	test.That(t, hit.T2, test.ShouldAlmostEqual, 2.0/3.0)
	test.That(t, hit.Plane1, test.ShouldEqual, 0)
	test.That(t, hit.Plane2, test.ShouldEqual, 1)
	test.That(t, hit.X1.X, test.ShouldAlmostEqual, 0)
	test.That(t, hit.X2.X, test.ShouldAlmostEqual, 1)

	// A line pointed away still intersects: the clip is against the infinite line.
	hit, ok = IntersectBoxWithLine(box, r3.Vector{X: 2, Y: 0.5, Z: 0.5}, r3.Vector{X: 3, Y: 0.5, Z: 0.5})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, hit.T1, test.ShouldAlmostEqual, -2)
	test.That(t, hit.T2, test.ShouldAlmostEqual, -1)

	// Parallel line outside a slab misses.
	_, ok = IntersectBoxWithLine(box, r3.Vector{X: -1, Y: 2, Z: 0.5}, r3.Vector{X: 2, Y: 2, Z: 0.5})
	test.That(t, ok, test.ShouldBeFalse)

	// Diagonal through the cube.
	hit, ok = IntersectBoxWithLine(box, r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, hit.T1, test.ShouldAlmostEqual, 0)
	test.That(t, hit.T2, test.ShouldAlmostEqual, 1)
	test.That(t, math.IsInf(hit.T1, 0), test.ShouldBeFalse)
}
