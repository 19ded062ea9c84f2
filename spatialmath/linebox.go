package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// LineBoxIntersection holds the result of clipping an infinite line against a
// box. T1 and T2 are the entry and exit parameters of the clipped segment in
// the parameterization p(t) = p1 + t*(p2-p1), X1 and X2 the corresponding
// points, and Plane1, Plane2 the box planes hit on entry and exit. Planes are
// numbered 2*axis for the lower bound and 2*axis+1 for the upper bound.
type LineBoxIntersection struct {
	T1, T2         float64
	X1, X2         r3.Vector
	Plane1, Plane2 int
}

// IntersectBoxWithLine clips the infinite line through p1 and p2 against the
// box using the slab method. It returns false when the line misses the box or
// is parallel to a slab it lies outside of.
func IntersectBoxWithLine(box Bounds, p1, p2 r3.Vector) (LineBoxIntersection, bool) {
	dir := p2.Sub(p1)
	res := LineBoxIntersection{T1: math.Inf(-1), T2: math.Inf(1), Plane1: -1, Plane2: -1}

	for axis := 0; axis < 3; axis++ {
		o := axisComponent(p1, axis)
		d := axisComponent(dir, axis)
		lo := box.Min(axis)
		hi := box.Max(axis)
		if math.Abs(d) < dblMin {
			if o < lo || o > hi {
				return LineBoxIntersection{}, false
			}
			continue
		}
		tLo := (lo - o) / d
		tHi := (hi - o) / d
		planeLo := 2 * axis
		planeHi := 2*axis + 1
		if tLo > tHi {
			tLo, tHi = tHi, tLo
			planeLo, planeHi = planeHi, planeLo
		}
		if tLo > res.T1 {
			res.T1 = tLo
			res.Plane1 = planeLo
		}
		if tHi < res.T2 {
			res.T2 = tHi
			res.Plane2 = planeHi
		}
	}

	if res.T1 > res.T2 || res.Plane1 < 0 || res.Plane2 < 0 {
		return LineBoxIntersection{}, false
	}
	res.X1 = p1.Add(dir.Mul(res.T1))
	res.X2 = p1.Add(dir.Mul(res.T2))
	return res, true
}
