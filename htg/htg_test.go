package htg

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/htgrid/spatialmath"
)

func TestBitArray(t *testing.T) {
	b := NewBitArray()
	test.That(t, b.Get(0), test.ShouldBeFalse)
	test.That(t, b.Get(1000), test.ShouldBeFalse)

	b.Set(3, true)
	b.Set(64, true)
	b.Set(65, true)
	b.Set(64, false)
	test.That(t, b.Get(3), test.ShouldBeTrue)
	test.That(t, b.Get(64), test.ShouldBeFalse)
	test.That(t, b.Get(65), test.ShouldBeTrue)
	test.That(t, b.Count(), test.ShouldEqual, 2)
	test.That(t, b.Len(), test.ShouldEqual, 66)
}

func TestGridValidation(t *testing.T) {
	_, err := NewGrid([3]int{1, 2, 2}, 2)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewGrid([3]int{2, 2, 2}, 1)
	test.That(t, err, test.ShouldNotBeNil)

	g, err := NewGrid([3]int{3, 2, 2}, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.CellDims(), test.ShouldResemble, [3]int{2, 1, 1})
	test.That(t, g.NumTrees(), test.ShouldEqual, 2)
	test.That(t, g.NumChildren(), test.ShouldEqual, 8)
}

func TestGridTreeIndexRoundTrip(t *testing.T) {
	g, err := NewGrid([3]int{4, 3, 5}, 2)
	test.That(t, err, test.ShouldBeNil)
	dims := g.CellDims()
	idx := 0
	for i := 0; i < dims[0]; i++ {
		for j := 0; j < dims[1]; j++ {
			for k := 0; k < dims[2]; k++ {
				test.That(t, g.TreeIndex(i, j, k), test.ShouldEqual, idx)
				gi, gj, gk := g.TreeCoordinates(idx)
				test.That(t, [3]int{gi, gj, gk}, test.ShouldResemble, [3]int{i, j, k})
				idx++
			}
		}
	}
}

func TestGridUniformCoordinates(t *testing.T) {
	g, err := NewGrid([3]int{3, 2, 2}, 2)
	test.That(t, err, test.ShouldBeNil)
	g.SetUniformCoordinates(spatialmath.Bounds{XMin: 0, XMax: 2, YMin: -1, YMax: 1, ZMin: 0, ZMax: 10})
	test.That(t, g.XCoordinates(), test.ShouldResemble, []float64{0, 1, 2})
	test.That(t, g.YCoordinates(), test.ShouldResemble, []float64{-1, 1})
	test.That(t, g.ZCoordinates(), test.ShouldResemble, []float64{0, 10})
}

func TestTreeSubdivision(t *testing.T) {
	g, err := NewGrid([3]int{2, 2, 2}, 2)
	test.That(t, err, test.ShouldBeNil)
	tr := g.NewTree(0, 10)

	test.That(t, tr.NumVertices(), test.ShouldEqual, 1)
	test.That(t, tr.IsLeaf(0), test.ShouldBeTrue)
	test.That(t, tr.GlobalIndexFromLocal(0), test.ShouldEqual, 10)

	tr.SubdivideLeaf(0)
	test.That(t, tr.NumVertices(), test.ShouldEqual, 9)
	test.That(t, tr.IsLeaf(0), test.ShouldBeFalse)

	// Children occupy contiguous ids right after their creation point, so
	// parents always precede children.
	for c := 0; c < 8; c++ {
		test.That(t, tr.ChildID(0, c), test.ShouldEqual, 1+c)
		test.That(t, tr.IsLeaf(1+c), test.ShouldBeTrue)
	}

	tr.SubdivideLeaf(3)
	test.That(t, tr.NumVertices(), test.ShouldEqual, 17)
	test.That(t, tr.ChildID(3, 0), test.ShouldEqual, 9)

	// Subdividing a non-leaf changes nothing.
	tr.SubdivideLeaf(0)
	test.That(t, tr.NumVertices(), test.ShouldEqual, 17)
}

func TestCursorWalk(t *testing.T) {
	g, err := NewGrid([3]int{2, 2, 2}, 2)
	test.That(t, err, test.ShouldBeNil)
	tr := g.NewTree(0, 0)

	c := NewCursor(tr)
	test.That(t, c.Level(), test.ShouldEqual, 0)
	test.That(t, c.IsLeaf(), test.ShouldBeTrue)

	c.SubdivideLeaf()
	test.That(t, c.IsLeaf(), test.ShouldBeFalse)

	c.ToChild(5)
	test.That(t, c.Level(), test.ShouldEqual, 1)
	test.That(t, c.VertexID(), test.ShouldEqual, 6)
	test.That(t, c.GlobalIndex(), test.ShouldEqual, 6)

	c.SubdivideLeaf()
	c.ToChild(0)
	test.That(t, c.Level(), test.ShouldEqual, 2)
	test.That(t, c.VertexID(), test.ShouldEqual, 9)

	c.ToParent()
	test.That(t, c.VertexID(), test.ShouldEqual, 6)
	c.ToParent()
	test.That(t, c.VertexID(), test.ShouldEqual, 0)
	test.That(t, c.Level(), test.ShouldEqual, 0)
}

func TestGridFields(t *testing.T) {
	g, err := NewGrid([3]int{2, 2, 2}, 2)
	test.That(t, err, test.ShouldBeNil)

	g.AddScalarField("density_measure")
	g.AddCountField("Number of points")
	test.That(t, g.FieldNames(), test.ShouldResemble, []string{"density_measure", "Number of points"})

	g.SetScalarValue("density_measure", 4, 2.5)
	test.That(t, g.ScalarValue("density_measure", 4), test.ShouldEqual, 2.5)
	test.That(t, g.ScalarValue("density_measure", 2), test.ShouldEqual, 0.0)

	g.SetCountValue("Number of points", 2, 7)
	test.That(t, g.CountValue("Number of points", 2), test.ShouldEqual, 7)
}

func TestSuperCursorSiblings(t *testing.T) {
	g, err := NewGrid([3]int{2, 2, 2}, 2)
	test.That(t, err, test.ShouldBeNil)
	tr := g.NewTree(0, 0)
	tr.SubdivideLeaf(0)

	sc, err := NewSuperCursor(g, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sc.NumCursors(), test.ShouldEqual, 7)
	test.That(t, sc.CentralGlobalIndex(), test.ShouldEqual, 0)

	// Single tree: every axial neighbor of the root is outside the domain.
	for slot := 0; slot < 7; slot++ {
		if slot == CentralCursor {
			continue
		}
		test.That(t, sc.GlobalNodeIndex(slot), test.ShouldEqual, InvalidIndex)
	}

	// Child 0 is the (0,0,0) octant: its +x, +y, +z neighbors are siblings.
	sc.ToChild(0)
	test.That(t, sc.Level(), test.ShouldEqual, 1)
	test.That(t, sc.CentralGlobalIndex(), test.ShouldEqual, 1)
	test.That(t, sc.GlobalNodeIndex(4), test.ShouldEqual, 2) // +x sibling, child 1
	test.That(t, sc.GlobalNodeIndex(5), test.ShouldEqual, 3) // +y sibling, child 2
	test.That(t, sc.GlobalNodeIndex(6), test.ShouldEqual, 5) // +z sibling, child 4
	test.That(t, sc.GlobalNodeIndex(2), test.ShouldEqual, InvalidIndex)
	test.That(t, sc.GlobalNodeIndex(1), test.ShouldEqual, InvalidIndex)
	test.That(t, sc.GlobalNodeIndex(0), test.ShouldEqual, InvalidIndex)

	sc.ToParent()
	test.That(t, sc.Level(), test.ShouldEqual, 0)
	test.That(t, sc.CentralGlobalIndex(), test.ShouldEqual, 0)

	// Child 7 is the (1,1,1) octant: its -x, -y, -z neighbors are siblings.
	sc.ToChild(7)
	test.That(t, sc.GlobalNodeIndex(2), test.ShouldEqual, 7) // -x sibling, child 6
	test.That(t, sc.GlobalNodeIndex(1), test.ShouldEqual, 6) // -y sibling, child 5
	test.That(t, sc.GlobalNodeIndex(0), test.ShouldEqual, 4) // -z sibling, child 3
}

func TestSuperCursorAcrossTrees(t *testing.T) {
	g, err := NewGrid([3]int{3, 2, 2}, 2)
	test.That(t, err, test.ShouldBeNil)
	t0 := g.NewTree(0, 0)
	t0.SubdivideLeaf(0)
	t1 := g.NewTree(1, int64(t0.NumVertices()))
	t1.SubdivideLeaf(0)

	sc, err := NewSuperCursor(g, 0)
	test.That(t, err, test.ShouldBeNil)
	// The +x neighbor of tree 0's root is tree 1's root.
	test.That(t, sc.GlobalNodeIndex(4), test.ShouldEqual, 9)

	// Child (1,0,0) of tree 0 faces child (0,0,0) of tree 1 across the
	// shared lattice face.
	sc.ToChild(1)
	test.That(t, sc.GlobalNodeIndex(4), test.ShouldEqual, 10)
	// Its -x neighbor is a sibling.
	test.That(t, sc.GlobalNodeIndex(2), test.ShouldEqual, 1)
}

func TestSuperCursorDegradesToCoarserNeighbor(t *testing.T) {
	g, err := NewGrid([3]int{3, 2, 2}, 2)
	test.That(t, err, test.ShouldBeNil)
	t0 := g.NewTree(0, 0)
	t0.SubdivideLeaf(0)
	// Tree 1 stays a single leaf.
	g.NewTree(1, int64(t0.NumVertices()))

	sc, err := NewSuperCursor(g, 0)
	test.That(t, err, test.ShouldBeNil)
	sc.ToChild(1)
	// The finer node borders the coarse leaf of tree 1; the slot degrades to
	// that leaf instead of vanishing.
	test.That(t, sc.GlobalNodeIndex(4), test.ShouldEqual, 9)

	// Deeper still, the slot keeps pointing at the same coarse leaf.
	t0.SubdivideLeaf(t0.ChildID(0, 1))
	sc.ToChild(1)
	test.That(t, sc.GlobalNodeIndex(4), test.ShouldEqual, 9)
}

func TestSuperCursorMask(t *testing.T) {
	g, err := NewGrid([3]int{2, 2, 2}, 2)
	test.That(t, err, test.ShouldBeNil)
	tr := g.NewTree(0, 0)
	tr.SubdivideLeaf(0)
	g.Mask().Set(2, true)

	sc, err := NewSuperCursor(g, 0)
	test.That(t, err, test.ShouldBeNil)
	sc.ToChild(0)
	test.That(t, sc.IsMasked(CentralCursor), test.ShouldBeFalse)
	test.That(t, sc.IsMasked(4), test.ShouldBeTrue) // sibling with global id 2
	// Out-of-domain slots read masked.
	test.That(t, sc.IsMasked(2), test.ShouldBeTrue)
}
