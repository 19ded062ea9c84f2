package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// PolygonNormal computes the unit normal of a planar polygon using Newell's
// method. The normal orientation follows the winding order of the points.
// A zero vector is returned for degenerate polygons.
func PolygonNormal(pts []r3.Vector) r3.Vector {
	var n r3.Vector
	for i := range pts {
		p := pts[i]
		q := pts[(i+1)%len(pts)]
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
	}
	norm := n.Norm()
	if norm < dblMin {
		return r3.Vector{}
	}
	return n.Mul(1 / norm)
}

// PointInPolygon reports whether x, assumed to lie on the plane of the planar
// polygon pts with unit normal, falls inside the polygon. The test projects
// the polygon onto the coordinate plane most orthogonal to the normal and ray
// casts in 2D.
func PointInPolygon(x r3.Vector, pts []r3.Vector, normal r3.Vector) bool {
	if len(pts) < 3 {
		return false
	}

	// Drop the dominant axis of the normal to get a non-degenerate projection.
	drop := 0
	largest := math.Abs(normal.X)
	if math.Abs(normal.Y) > largest {
		drop = 1
		largest = math.Abs(normal.Y)
	}
	if math.Abs(normal.Z) > largest {
		drop = 2
	}
	u := (drop + 1) % 3
	v := (drop + 2) % 3

	px := axisComponent(x, u)
	py := axisComponent(x, v)

	inside := false
	for i := range pts {
		ax := axisComponent(pts[i], u)
		ay := axisComponent(pts[i], v)
		bx := axisComponent(pts[(i+1)%len(pts)], u)
		by := axisComponent(pts[(i+1)%len(pts)], v)
		if (ay > py) != (by > py) {
			t := (py - ay) / (by - ay)
			if px < ax+t*(bx-ax) {
				inside = !inside
			}
		}
	}
	return inside
}
