package spatialmath

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

// testPolyhedron is a convex cell with planar faces given by explicit windings.
type testPolyhedron struct {
	points    []r3.Vector
	faces     [][]int
	insideOut bool
}

func (p *testPolyhedron) Bounds() Bounds      { return BoundsAroundPoints(p.points) }
func (p *testPolyhedron) Points() []r3.Vector { return p.points }
func (p *testPolyhedron) NumFaces() int       { return len(p.faces) }
func (p *testPolyhedron) IsInsideOut() bool   { return p.insideOut }

func (p *testPolyhedron) FacePoints(i int) []r3.Vector {
	pts := make([]r3.Vector, len(p.faces[i]))
	for j, idx := range p.faces[i] {
		pts[j] = p.points[idx]
	}
	return pts
}

func (p *testPolyhedron) EvaluatePosition(x r3.Vector) (bool, []float64) {
	for i := range p.faces {
		pts := p.FacePoints(i)
		n := PolygonNormal(pts)
		if x.Sub(pts[0]).Dot(n) > 0 {
			return false, nil
		}
	}
	return true, nil
}

// testTetra evaluates positions with barycentric weights, as the dataset
// tetrahedron does.
type testTetra struct {
	v [4]r3.Vector
}

func (t *testTetra) Bounds() Bounds      { return BoundsAroundPoints(t.v[:]) }
func (t *testTetra) Points() []r3.Vector { return t.v[:] }
func (t *testTetra) NumFaces() int       { return 4 }
func (t *testTetra) IsInsideOut() bool   { return false }

func (t *testTetra) FacePoints(i int) []r3.Vector {
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

func (t *testTetra) EvaluatePosition(x r3.Vector) (bool, []float64) {
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
		if w < 0 {
			return false, weights
		}
	}
	return true, weights
}

func unitCube() *testPolyhedron {
	return &testPolyhedron{
		points: []r3.Vector{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
		},
		faces: [][]int{
			{0, 3, 2, 1},
			{4, 5, 6, 7},
			{0, 4, 7, 3},
			{1, 2, 6, 5},
			{0, 1, 5, 4},
			{3, 7, 6, 2},
		},
	}
}

func TestIntersectedVoxelVolume(t *testing.T) {
	box := Bounds{XMin: 0, XMax: 1, YMin: 0, YMax: 1, ZMin: 0, ZMax: 1}

	vol, nonZero := IntersectedVoxelVolume(box, Bounds{XMin: 0.5, XMax: 1.5, YMin: 0, YMax: 1, ZMin: 0, ZMax: 1}, 1.0)
	test.That(t, nonZero, test.ShouldBeTrue)
	test.That(t, vol, test.ShouldAlmostEqual, 0.5)

	vol, nonZero = IntersectedVoxelVolume(box, Bounds{XMin: 2, XMax: 3, YMin: 0, YMax: 1, ZMin: 0, ZMax: 1}, 1.0)
	test.That(t, nonZero, test.ShouldBeFalse)
	test.That(t, vol, test.ShouldEqual, 0.0)

	// Touching faces carry no volume.
	_, nonZero = IntersectedVoxelVolume(box, Bounds{XMin: 1, XMax: 2, YMin: 0, YMax: 1, ZMin: 0, ZMax: 1}, 1.0)
	test.That(t, nonZero, test.ShouldBeFalse)

	// The unit normalization divides the result.
	vol, nonZero = IntersectedVoxelVolume(box, Bounds{XMin: 0, XMax: 1, YMin: 0, YMax: 1, ZMin: 0, ZMax: 1}, 0.25)
	test.That(t, nonZero, test.ShouldBeTrue)
	test.That(t, vol, test.ShouldAlmostEqual, 4.0)
}

func TestSolidVolumeBoxInsideCell(t *testing.T) {
	big := &testPolyhedron{
		points: []r3.Vector{
			{-5, -5, -5}, {5, -5, -5}, {5, 5, -5}, {-5, 5, -5},
			{-5, -5, 5}, {5, -5, 5}, {5, 5, 5}, {-5, 5, 5},
		},
		faces: [][]int{
			{0, 3, 2, 1},
			{4, 5, 6, 7},
			{0, 4, 7, 3},
			{1, 2, 6, 5},
			{0, 1, 5, 4},
			{3, 7, 6, 2},
		},
	}
	box := Bounds{XMin: 0.5, XMax: 2.5, YMin: -1, YMax: 1, ZMin: 0, ZMax: 3}
	vol, nonZero, err := IntersectedSolidVolume(box, big, DefaultSnapTolerance)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, nonZero, test.ShouldBeTrue)
	test.That(t, vol, test.ShouldAlmostEqual, box.Volume(), 1e-9)
}

func TestSolidVolumeCellInsideBox(t *testing.T) {
	box := Bounds{XMin: -1, XMax: 2, YMin: -1, YMax: 2, ZMin: -1, ZMax: 2}
	vol, nonZero, err := IntersectedSolidVolume(box, unitCube(), DefaultSnapTolerance)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, nonZero, test.ShouldBeTrue)
	test.That(t, vol, test.ShouldAlmostEqual, 1.0, 1e-9)
}

func TestSolidVolumeCoincidentBox(t *testing.T) {
	// All cube vertices lie on the box faces; the snap inflation must count
	// the whole cube exactly once.
	box := Bounds{XMin: 0, XMax: 1, YMin: 0, YMax: 1, ZMin: 0, ZMax: 1}
	vol, nonZero, err := IntersectedSolidVolume(box, unitCube(), DefaultSnapTolerance)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, nonZero, test.ShouldBeTrue)
	test.That(t, vol, test.ShouldAlmostEqual, 1.0, 1e-9)
}

func TestSolidVolumeHalfOverlap(t *testing.T) {
	box := Bounds{XMin: 0.5, XMax: 1.5, YMin: -0.5, YMax: 1.5, ZMin: -0.5, ZMax: 1.5}
	vol, nonZero, err := IntersectedSolidVolume(box, unitCube(), DefaultSnapTolerance)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, nonZero, test.ShouldBeTrue)
	test.That(t, vol, test.ShouldAlmostEqual, 0.5, 1e-9)
}

func TestSolidVolumeDisjoint(t *testing.T) {
	box := Bounds{XMin: 3, XMax: 4, YMin: 3, YMax: 4, ZMin: 3, ZMax: 4}
	vol, nonZero, err := IntersectedSolidVolume(box, unitCube(), DefaultSnapTolerance)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, nonZero, test.ShouldBeFalse)
	test.That(t, vol, test.ShouldAlmostEqual, 0.0, 1e-9)
}

func TestSolidVolumeTetraInsideBox(t *testing.T) {
	tet := &testTetra{v: [4]r3.Vector{{0.2, 0.2, 0.2}, {0.8, 0.2, 0.2}, {0.2, 0.8, 0.2}, {0.2, 0.2, 0.8}}}
	box := Bounds{XMin: 0, XMax: 1, YMin: 0, YMax: 1, ZMin: 0, ZMax: 1}
	vol, nonZero, err := IntersectedSolidVolume(box, tet, DefaultSnapTolerance)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, nonZero, test.ShouldBeTrue)
	// Corner tetra with legs 0.6.
	test.That(t, vol, test.ShouldAlmostEqual, 0.6*0.6*0.6/6, 1e-9)
}

func TestSolidVolumeTetraClipped(t *testing.T) {
	// Plane x+y+z=1.5 slices the unit box through the interior of six of its
	// edges, exercising the face piercing contributions.
	tet := &testTetra{v: [4]r3.Vector{{0, 0, 0}, {1.5, 0, 0}, {0, 1.5, 0}, {0, 0, 1.5}}}
	box := Bounds{XMin: 0, XMax: 1, YMin: 0, YMax: 1, ZMin: 0, ZMax: 1}
	vol, nonZero, err := IntersectedSolidVolume(box, tet, DefaultSnapTolerance)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, nonZero, test.ShouldBeTrue)
	// Tetra volume minus the three corner tetras cut off beyond the box.
	expected := 1.5*1.5*1.5/6 - 3*(0.5*0.5*0.5/6)
	test.That(t, vol, test.ShouldAlmostEqual, expected, 1e-6)
}
