package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// DefaultSnapTolerance is the default inflation applied to a box face when a
// cell vertex lies on it, so the vertex is counted as interior exactly once.
// It is deliberately exposed as a tunable since it trades robustness against
// mis-classification of sub-box cells.
const DefaultSnapTolerance = 1e-2

// duplicateTolerance merges face-plane piercings of the same box edge closer
// than this, so shared face edges are not counted twice.
const duplicateTolerance = 1e-6

// Solid is a closed 3D cell bounded by planar faces.
type Solid interface {
	// Bounds returns the axis-aligned bounds of the cell.
	Bounds() Bounds
	// Points returns the vertices of the cell.
	Points() []r3.Vector
	// NumFaces returns the number of faces.
	NumFaces() int
	// FacePoints returns the vertices of face i, ordered along its perimeter
	// so that the winding is consistent across the cell.
	FacePoints(i int) []r3.Vector
	// IsInsideOut reports whether the face windings orient the cell inward.
	IsInsideOut() bool
	// EvaluatePosition reports whether x lies inside the cell. When the cell
	// supports interpolation it also returns the interpolation weights of x
	// with respect to the cell vertices; otherwise weights is nil.
	EvaluatePosition(x r3.Vector) (bool, []float64)
}

// IntersectedVoxelVolume returns the volume of the intersection of two
// axis-aligned boxes, normalized by volumeUnit, along with whether that
// volume is meaningfully non-zero. Clamped edges below the cube root of the
// smallest representable double are treated as empty to avoid degenerate
// products.
func IntersectedVoxelVolume(box, voxel Bounds, volumeUnit float64) (float64, bool) {
	x := math.Min(box.XMax, voxel.XMax) - math.Max(box.XMin, voxel.XMin)
	y := math.Min(box.YMax, voxel.YMax) - math.Max(box.YMin, voxel.YMin)
	z := math.Min(box.ZMax, voxel.ZMax) - math.Max(box.ZMin, voxel.ZMin)

	minEdge := math.Cbrt(dblMin)
	normalization := volumeUnit
	if normalization > 1.0 {
		normalization = 1.0
	}
	nonZero := x >= minEdge/normalization && y >= minEdge/normalization && z >= minEdge/normalization
	if !nonZero {
		return 0, false
	}
	return x * y * z / volumeUnit, true
}

// IntersectedSolidVolume returns the volume of the intersection between an
// axis-aligned box and a 3D cell with planar faces, computed by a divergence
// decomposition of the field xyz: six times the volume is the sum of signed
// corner contributions from box vertices interior to the cell, cell edges
// clipped by the box, and cell faces pierced by box edges.
//
// snapTol inflates the box wherever a cell vertex lies on one of its faces,
// preventing the vertex from being counted as both interior and boundary.
// An error is returned when the computed volume exceeds the box volume, in
// which case the volume is reported as zero.
func IntersectedSolidVolume(box Bounds, cell Solid, snapTol float64) (float64, bool, error) {
	cellPts := cell.Points()

	// Inflate the box away from any cell vertex sitting on one of its faces.
	// Inflation can expose new vertices, so repeat until stable.
	for changed := true; changed; {
		changed = false
		for _, p := range cellPts {
			for axis := 0; axis < 3; axis++ {
				u := (axis + 1) % 3
				v := (axis + 2) % 3
				pu := axisComponent(p, u)
				pv := axisComponent(p, v)
				onFaceSpan := pu <= box.Max(u)+snapTol && pu >= box.Min(u)-snapTol &&
					pv <= box.Max(v)+snapTol && pv >= box.Min(v)-snapTol
				if !onFaceSpan {
					continue
				}
				pa := axisComponent(p, axis)
				if math.Abs(pa-box.Min(axis)) < snapTol {
					box.setMin(axis, box.Min(axis)-snapTol)
					changed = true
				}
				if math.Abs(pa-box.Max(axis)) < snapTol {
					box.setMax(axis, box.Max(axis)+snapTol)
					changed = true
				}
			}
		}
	}

	var volume, boxVolume float64

	// Box vertices interior to the cell contribute +-6*x*y*z following the
	// alternating corner pattern.
	for vid := 0; vid < 8; vid++ {
		corner := box.Corner(vid)
		inside, weights := cell.EvaluatePosition(corner)
		if !inside {
			continue
		}
		slightlyOutside := false
		for _, w := range weights {
			if w < dblMin {
				slightlyOutside = true
				break
			}
		}
		if slightlyOutside {
			continue
		}
		sign := 6.0
		if (vid&1 != 0) == (vid&2 != 0) {
			sign = -6.0
		}
		if vid&4 != 0 {
			sign = -sign
		}
		boxVolume += sign * corner.X * corner.Y * corner.Z
	}

	// Per box edge set of face-plane piercing coordinates already counted.
	var duplicates [12][]float64

	for faceID := 0; faceID < cell.NumFaces(); faceID++ {
		pts := cell.FacePoints(faceID)
		if len(pts) <= 2 {
			continue
		}
		normal := PolygonNormal(pts)

		for idx1 := 0; idx1 < len(pts); idx1++ {
			p1 := pts[idx1]
			p2 := pts[(idx1+1)%len(pts)]
			if nearlyEqual(p1.X, p2.X) && nearlyEqual(p1.Y, p2.Y) && nearlyEqual(p1.Z, p2.Z) {
				continue
			}
			tangent := normalizeOrZero(p2.Sub(p1))
			edgeNormal := normal.Cross(tangent)

			p1Inside := strictlyInside(p1, box)
			p2Inside := strictlyInside(p2, box)
			if p1Inside {
				boxVolume += p1.Dot(tangent) * p1.Dot(edgeNormal) * p1.Dot(normal)
			}
			if p2Inside {
				boxVolume -= p2.Dot(tangent) * p2.Dot(edgeNormal) * p2.Dot(normal)
			}

			if !p1Inside || !p2Inside {
				hit, ok := IntersectBoxWithLine(box, p1, p2)
				if ok && !nearlyEqual(hit.T1, hit.T2) {
					if hit.T1 >= 0.0 && hit.T1+dblEpsilon <= 1.0 {
						axis1 := hit.Plane1 / 2
						ebb := normalizeOrZero(axisVector(axis1).Cross(normal))
						enbb := normal.Cross(ebb)
						boxVolume += hit.X1.Dot(tangent) * hit.X1.Dot(edgeNormal) * hit.X1.Dot(normal)
						boxVolume -= hit.X1.Dot(ebb) * hit.X1.Dot(enbb) * hit.X1.Dot(normal)
						enOnBox := axisVector(axis1).Cross(ebb)
						volume += hit.X1.Dot(ebb) * axisComponent(hit.X1, axis1) * hit.X1.Dot(enOnBox)
					}
					if hit.T2 >= dblMin && hit.T2 <= 1.0 {
						axis2 := hit.Plane2 / 2
						ebb := normalizeOrZero(axisVector(axis2).Cross(normal))
						enbb := normal.Cross(ebb)
						boxVolume -= hit.X2.Dot(tangent) * hit.X2.Dot(edgeNormal) * hit.X2.Dot(normal)
						boxVolume += hit.X2.Dot(ebb) * hit.X2.Dot(enbb) * hit.X2.Dot(normal)
						enOnBox := axisVector(axis2).Cross(ebb)
						volume -= hit.X2.Dot(ebb) * axisComponent(hit.X2, axis2) * hit.X2.Dot(enOnBox)
					}
				}
			}
		}

		volume += facePiercingContributions(box, pts, normal, &duplicates)
	}

	if cell.IsInsideOut() {
		volume = -volume
	}
	volume += boxVolume
	volume /= 6.0

	if math.Abs(volume) > box.Volume() {
		return 0, false, errors.Errorf(
			"intersected volume %g exceeds box volume %g, discarding contribution", volume, box.Volume())
	}
	return volume, volume >= dblEpsilon, nil
}

// facePiercingContributions accumulates the corner terms arising where the
// face plane pierces one of the 12 box edges inside the face polygon. For each
// axis the four box edges parallel to it are visited in a fixed order matching
// the entries of duplicates.
func facePiercingContributions(box Bounds, pts []r3.Vector, normal r3.Vector, duplicates *[12][]float64) float64 {
	var volume float64
	d := -normal.Dot(pts[0])

	sgn := func(positive bool) float64 {
		if positive {
			return 1.0
		}
		return -1.0
	}

	for dim := 0; dim < 3; dim++ {
		u := (dim + 1) % 3
		v := (dim + 2) % 3
		nd := axisComponent(normal, dim)

		ebb1 := normalizeOrZero(normal.Cross(axisVector(u)))
		ebb2 := normalizeOrZero(normal.Cross(axisVector(v)))
		enbb1 := ebb1.Cross(normal)
		enbb2 := ebb2.Cross(normal)
		enOnBox1 := ebb1.Cross(axisVector(u))
		enOnBox2 := ebb2.Cross(axisVector(v))

		var p r3.Vector
		solve := func() float64 {
			if math.Abs(nd) < dblEpsilon {
				return math.Inf(1)
			}
			return -1.0 / nd * (d + axisComponent(p, u)*axisComponent(normal, u) +
				axisComponent(p, v)*axisComponent(normal, v))
		}
		pierces := func(edge int) bool {
			pd := axisComponent(p, dim)
			for _, prev := range duplicates[dim*4+edge] {
				if math.Abs(prev-pd) <= duplicateTolerance {
					return false
				}
			}
			withinSlab := (pd >= box.Min(dim) && pd <= box.Max(dim)) ||
				(nearlyEqual(pd, box.Min(dim)) && nearlyEqual(pd, box.Max(dim)))
			return withinSlab && PointInPolygon(p, pts, normal)
		}
		term := func(e, en r3.Vector) float64 {
			return p.Dot(e) * p.Dot(en) * p.Dot(normal)
		}
		edgeTerm := func(e r3.Vector, axis int, enOnBox r3.Vector) float64 {
			return p.Dot(e) * axisComponent(p, axis) * p.Dot(enOnBox)
		}

		// Edge at (min u, min v).
		setAxisComponent(&p, u, box.Min(u))
		setAxisComponent(&p, v, box.Min(v))
		setAxisComponent(&p, dim, solve())
		if pierces(0) {
			volume += sgn(nd > 0) * term(ebb1, enbb1)
			volume -= sgn(axisComponent(ebb1, v) > 0) * edgeTerm(ebb1, u, enOnBox1)
			volume += sgn(nd < 0) * term(ebb2, enbb2)
			volume -= sgn(axisComponent(ebb2, u) > 0) * edgeTerm(ebb2, v, enOnBox2)
			volume += sgn(nd > 0) * 2.0 * p.X * p.Y * p.Z
		}
		duplicates[dim*4] = append(duplicates[dim*4], axisComponent(p, dim))

		// Edge at (max u, min v).
		setAxisComponent(&p, u, box.Max(u))
		setAxisComponent(&p, dim, solve())
		if pierces(1) {
			volume += sgn(nd < 0) * term(ebb1, enbb1)
			volume += sgn(axisComponent(ebb1, v) > 0) * edgeTerm(ebb1, u, enOnBox1)
			volume += sgn(nd > 0) * term(ebb2, enbb2)
			volume -= sgn(axisComponent(ebb2, u) < 0) * edgeTerm(ebb2, v, enOnBox2)
			volume -= sgn(nd > 0) * 2.0 * p.X * p.Y * p.Z
		}
		duplicates[dim*4+1] = append(duplicates[dim*4+1], axisComponent(p, dim))

		// Edge at (max u, max v).
		setAxisComponent(&p, v, box.Max(v))
		setAxisComponent(&p, dim, solve())
		if pierces(2) {
			volume += sgn(nd > 0) * term(ebb1, enbb1)
			volume += sgn(axisComponent(ebb1, v) < 0) * edgeTerm(ebb1, u, enOnBox1)
			volume += sgn(nd < 0) * term(ebb2, enbb2)
			volume += sgn(axisComponent(ebb2, u) < 0) * edgeTerm(ebb2, v, enOnBox2)
			volume += sgn(nd > 0) * 2.0 * p.X * p.Y * p.Z
		}
		duplicates[dim*4+2] = append(duplicates[dim*4+2], axisComponent(p, dim))

		// Edge at (min u, max v).
		setAxisComponent(&p, u, box.Min(u))
		setAxisComponent(&p, dim, solve())
		if pierces(3) {
			volume += sgn(nd < 0) * term(ebb1, enbb1)
			volume -= sgn(axisComponent(ebb1, v) < 0) * edgeTerm(ebb1, u, enOnBox1)
			volume += sgn(nd > 0) * term(ebb2, enbb2)
			volume += sgn(axisComponent(ebb2, u) > 0) * edgeTerm(ebb2, v, enOnBox2)
			volume -= sgn(nd > 0) * 2.0 * p.X * p.Y * p.Z
		}
		duplicates[dim*4+3] = append(duplicates[dim*4+3], axisComponent(p, dim))
	}
	return volume
}

func strictlyInside(p r3.Vector, b Bounds) bool {
	for axis := 0; axis < 3; axis++ {
		c := axisComponent(p, axis)
		if c <= b.Min(axis) || nearlyEqual(c, b.Min(axis)) ||
			c >= b.Max(axis) || nearlyEqual(c, b.Max(axis)) {
			return false
		}
	}
	return true
}

func normalizeOrZero(v r3.Vector) r3.Vector {
	n := v.Norm()
	if n < dblMin {
		return r3.Vector{}
	}
	return v.Mul(1 / n)
}
