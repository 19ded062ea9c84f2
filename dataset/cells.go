package dataset

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/htgrid/spatialmath"
)

// planeTolerance absorbs rounding when classifying a point against the face
// planes of a convex cell.
const planeTolerance = 1e-10

// Voxel is an axis-aligned box cell. It is integrated by clamping rather than
// by the polyhedron kernel.
type Voxel struct {
	bounds spatialmath.Bounds
}

// NewVoxel returns a voxel cell spanning the given bounds.
func NewVoxel(bounds spatialmath.Bounds) *Voxel {
	return &Voxel{bounds: bounds}
}

// Bounds returns the voxel bounds.
func (v *Voxel) Bounds() spatialmath.Bounds { return v.bounds }

// NumPoints returns 8.
func (v *Voxel) NumPoints() int { return 8 }

// Points returns the 8 corners, x-fastest bit order.
func (v *Voxel) Points() []r3.Vector {
	pts := make([]r3.Vector, 8)
	for i := range pts {
		pts[i] = v.bounds.Corner(i)
	}
	return pts
}

// EvaluatePosition reports containment and the trilinear corner weights of x.
func (v *Voxel) EvaluatePosition(x r3.Vector) (bool, []float64) {
	if !v.bounds.Contains(x) {
		return false, nil
	}
	tx := fraction(x.X, v.bounds.XMin, v.bounds.XMax)
	ty := fraction(x.Y, v.bounds.YMin, v.bounds.YMax)
	tz := fraction(x.Z, v.bounds.ZMin, v.bounds.ZMax)
	weights := make([]float64, 8)
	for i := range weights {
		w := 1.0
		if i&1 != 0 {
			w *= tx
		} else {
			w *= 1 - tx
		}
		if i&2 != 0 {
			w *= ty
		} else {
			w *= 1 - ty
		}
		if i&4 != 0 {
			w *= tz
		} else {
			w *= 1 - tz
		}
		weights[i] = w
	}
	return true, weights
}

func fraction(x, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return (x - lo) / (hi - lo)
}

// Tetra is a tetrahedral cell.
type Tetra struct {
	v [4]r3.Vector
}

// NewTetra returns a tetrahedron over the four vertices. The vertex order is
// canonicalized to a positive orientation.
func NewTetra(p0, p1, p2, p3 r3.Vector) *Tetra {
	t := &Tetra{v: [4]r3.Vector{p0, p1, p2, p3}}
	if t.vol6() < 0 {
		t.v[2], t.v[3] = t.v[3], t.v[2]
	}
	return t
}

func (t *Tetra) vol6() float64 {
	e1 := t.v[1].Sub(t.v[0])
	e2 := t.v[2].Sub(t.v[0])
	e3 := t.v[3].Sub(t.v[0])
	return e1.Dot(e2.Cross(e3))
}

// Bounds returns the bounds of the four vertices.
func (t *Tetra) Bounds() spatialmath.Bounds { return spatialmath.BoundsAroundPoints(t.v[:]) }

// NumPoints returns 4.
func (t *Tetra) NumPoints() int { return 4 }

// Points returns the vertices.
func (t *Tetra) Points() []r3.Vector { return t.v[:] }

// NumFaces returns 4.
func (t *Tetra) NumFaces() int { return 4 }

// FacePoints returns face i wound with an outward normal.
func (t *Tetra) FacePoints(i int) []r3.Vector {
	switch i {
	case 0:
		return []r3.Vector{t.v[0], t.v[3], t.v[2]}
	case 1:
		return []r3.Vector{t.v[0], t.v[1], t.v[3]}
	case 2:
		return []r3.Vector{t.v[0], t.v[2], t.v[1]}
	default:
		return []r3.Vector{t.v[1], t.v[2], t.v[3]}
	}
}

// IsInsideOut always reports false: construction canonicalizes orientation.
func (t *Tetra) IsInsideOut() bool { return false }

// EvaluatePosition reports containment and the barycentric weights of x.
func (t *Tetra) EvaluatePosition(x r3.Vector) (bool, []float64) {
	e1 := t.v[1].Sub(t.v[0])
	e2 := t.v[2].Sub(t.v[0])
	e3 := t.v[3].Sub(t.v[0])
	d := x.Sub(t.v[0])
	vol6 := e1.Dot(e2.Cross(e3))
	w1 := d.Dot(e2.Cross(e3)) / vol6
	w2 := e1.Dot(d.Cross(e3)) / vol6
	w3 := e1.Dot(e2.Cross(d)) / vol6
	w0 := 1 - w1 - w2 - w3
	weights := []float64{w0, w1, w2, w3}
	for _, w := range weights {
		if w < -planeTolerance {
			return false, weights
		}
	}
	return true, weights
}

// Hexahedron is an 8-vertex cell with planar quadrilateral faces, wound with
// the bottom quad 0-1-2-3 counter-clockwise seen from above and the top quad
// 4-5-6-7 above it. Containment assumes a convex cell.
type Hexahedron struct {
	v [8]r3.Vector
}

// hexaFaces winds each face with an outward normal.
var hexaFaces = [6][4]int{
	{0, 3, 2, 1},
	{4, 5, 6, 7},
	{0, 1, 5, 4},
	{1, 2, 6, 5},
	{2, 3, 7, 6},
	{3, 0, 4, 7},
}

// NewHexahedron returns a hexahedral cell over the eight vertices.
func NewHexahedron(v [8]r3.Vector) *Hexahedron {
	return &Hexahedron{v: v}
}

// Bounds returns the bounds of the vertices.
func (h *Hexahedron) Bounds() spatialmath.Bounds { return spatialmath.BoundsAroundPoints(h.v[:]) }

// NumPoints returns 8.
func (h *Hexahedron) NumPoints() int { return 8 }

// Points returns the vertices.
func (h *Hexahedron) Points() []r3.Vector { return h.v[:] }

// NumFaces returns 6.
func (h *Hexahedron) NumFaces() int { return 6 }

// FacePoints returns face i wound with an outward normal.
func (h *Hexahedron) FacePoints(i int) []r3.Vector {
	f := hexaFaces[i]
	return []r3.Vector{h.v[f[0]], h.v[f[1]], h.v[f[2]], h.v[f[3]]}
}

// IsInsideOut always reports false.
func (h *Hexahedron) IsInsideOut() bool { return false }

// EvaluatePosition reports containment by testing x against every face plane.
func (h *Hexahedron) EvaluatePosition(x r3.Vector) (bool, []float64) {
	return insideConvexFaces(h, x, false), nil
}

// Polyhedron is a convex cell with arbitrary planar faces given as vertex
// index loops.
type Polyhedron struct {
	points    []r3.Vector
	faces     [][]int
	insideOut bool
}

// NewPolyhedron returns a polyhedral cell. Faces index into points and every
// face must hold at least three vertices. The cell is flagged inside-out when
// the face windings enclose a negative volume.
func NewPolyhedron(points []r3.Vector, faces [][]int) (*Polyhedron, error) {
	if len(points) < 4 || len(faces) < 4 {
		return nil, errors.Errorf("polyhedron needs at least 4 points and 4 faces, got %d and %d",
			len(points), len(faces))
	}
	for _, f := range faces {
		if len(f) < 3 {
			return nil, errors.New("polyhedron face with fewer than 3 vertices")
		}
		for _, idx := range f {
			if idx < 0 || idx >= len(points) {
				return nil, errors.Errorf("polyhedron face references point %d of %d", idx, len(points))
			}
		}
	}
	p := &Polyhedron{points: points, faces: faces}
	p.insideOut = p.signedVolume() < 0
	return p, nil
}

// signedVolume sums the divergence contributions of fan triangles per face.
func (p *Polyhedron) signedVolume() float64 {
	var vol float64
	for _, f := range p.faces {
		a := p.points[f[0]]
		for i := 1; i < len(f)-1; i++ {
			b := p.points[f[i]]
			c := p.points[f[i+1]]
			vol += a.Dot(b.Cross(c)) / 6
		}
	}
	return vol
}

// Bounds returns the bounds of the vertices.
func (p *Polyhedron) Bounds() spatialmath.Bounds { return spatialmath.BoundsAroundPoints(p.points) }

// NumPoints returns the number of vertices.
func (p *Polyhedron) NumPoints() int { return len(p.points) }

// Points returns the vertices.
func (p *Polyhedron) Points() []r3.Vector { return p.points }

// NumFaces returns the number of faces.
func (p *Polyhedron) NumFaces() int { return len(p.faces) }

// FacePoints returns the vertices of face i in winding order.
func (p *Polyhedron) FacePoints(i int) []r3.Vector {
	pts := make([]r3.Vector, len(p.faces[i]))
	for j, idx := range p.faces[i] {
		pts[j] = p.points[idx]
	}
	return pts
}

// IsInsideOut reports whether the face windings enclose a negative volume.
func (p *Polyhedron) IsInsideOut() bool { return p.insideOut }

// EvaluatePosition reports containment by testing x against every face plane.
func (p *Polyhedron) EvaluatePosition(x r3.Vector) (bool, []float64) {
	return insideConvexFaces(p, x, p.insideOut), nil
}

// insideConvexFaces tests x against the face planes of a convex solid. When
// insideOut is set, the windings point the normals inward and the half-space
// test is mirrored.
func insideConvexFaces(s spatialmath.Solid, x r3.Vector, insideOut bool) bool {
	for i := 0; i < s.NumFaces(); i++ {
		pts := s.FacePoints(i)
		n := spatialmath.PolygonNormal(pts)
		dist := x.Sub(pts[0]).Dot(n)
		if insideOut {
			dist = -dist
		}
		if dist > planeTolerance {
			return false
		}
	}
	return true
}
