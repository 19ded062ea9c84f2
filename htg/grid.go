// Package htg implements a hypertree grid: a coarse rectilinear lattice of
// cells, each hosting an adaptive refinement tree whose nodes subdivide into
// branchFactor^3 children. The package provides the grid container with its
// per-node mask and cell data arrays, a depth-first cursor for building and
// walking trees, and a Von-Neumann super-cursor exposing a node together with
// its six axial neighbors.
package htg

import (
	"github.com/pkg/errors"

	"go.viam.com/htgrid/spatialmath"
)

// InvalidIndex marks a missing global node index, e.g. a neighbor outside the
// domain.
const InvalidIndex int64 = -1

// Grid is a hypertree grid. Trees are indexed by lattice cell coordinates
// flattened k-fastest: index = k + j*Cz + i*Cz*Cy.
type Grid struct {
	dims         [3]int
	cellDims     [3]int
	branchFactor int
	numChildren  int

	xCoords []float64
	yCoords []float64
	zCoords []float64

	trees []*Tree
	mask  *BitArray

	scalarFields map[string][]float64
	countFields  map[string][]int64
	fieldOrder   []string
}

// NewGrid creates a hypertree grid with the given vertex dimensions and
// branch factor. Each dimension must be at least 2 and the branch factor at
// least 2.
func NewGrid(dims [3]int, branchFactor int) (*Grid, error) {
	for _, d := range dims {
		if d < 2 {
			return nil, errors.Errorf("invalid grid dimensions %v: each must be >= 2", dims)
		}
	}
	if branchFactor < 2 {
		return nil, errors.Errorf("invalid branch factor %d: must be >= 2", branchFactor)
	}
	g := &Grid{
		dims:         dims,
		cellDims:     [3]int{dims[0] - 1, dims[1] - 1, dims[2] - 1},
		branchFactor: branchFactor,
		numChildren:  branchFactor * branchFactor * branchFactor,
		mask:         NewBitArray(),
		scalarFields: map[string][]float64{},
		countFields:  map[string][]int64{},
	}
	g.trees = make([]*Tree, g.cellDims[0]*g.cellDims[1]*g.cellDims[2])
	return g, nil
}

// Dims returns the vertex dimensions of the coarse lattice.
func (g *Grid) Dims() [3]int { return g.dims }

// CellDims returns the cell dimensions of the coarse lattice, i.e. the number
// of trees along each axis.
func (g *Grid) CellDims() [3]int { return g.cellDims }

// BranchFactor returns the subdivision factor along each axis.
func (g *Grid) BranchFactor() int { return g.branchFactor }

// NumChildren returns branchFactor^3.
func (g *Grid) NumChildren() int { return g.numChildren }

// NumTrees returns the number of lattice cells.
func (g *Grid) NumTrees() int { return len(g.trees) }

// SetUniformCoordinates fills the axis coordinate arrays with uniform steps
// spanning the given bounds.
func (g *Grid) SetUniformCoordinates(bounds spatialmath.Bounds) {
	g.xCoords = uniformCoordinates(bounds.XMin, bounds.XMax, g.dims[0])
	g.yCoords = uniformCoordinates(bounds.YMin, bounds.YMax, g.dims[1])
	g.zCoords = uniformCoordinates(bounds.ZMin, bounds.ZMax, g.dims[2])
}

func uniformCoordinates(lo, hi float64, n int) []float64 {
	coords := make([]float64, n)
	step := 0.0
	if n > 1 {
		step = (hi - lo) / float64(n-1)
	}
	for i := range coords {
		coords[i] = lo + step*float64(i)
	}
	return coords
}

// XCoordinates returns the vertex coordinates along X.
func (g *Grid) XCoordinates() []float64 { return g.xCoords }

// YCoordinates returns the vertex coordinates along Y.
func (g *Grid) YCoordinates() []float64 { return g.yCoords }

// ZCoordinates returns the vertex coordinates along Z.
func (g *Grid) ZCoordinates() []float64 { return g.zCoords }

// TreeIndex flattens lattice cell coordinates, k-fastest.
func (g *Grid) TreeIndex(i, j, k int) int {
	return k + j*g.cellDims[2] + i*g.cellDims[2]*g.cellDims[1]
}

// TreeCoordinates is the inverse of TreeIndex.
func (g *Grid) TreeCoordinates(index int) (int, int, int) {
	k := index % g.cellDims[2]
	j := (index / g.cellDims[2]) % g.cellDims[1]
	i := index / (g.cellDims[2] * g.cellDims[1])
	return i, j, k
}

// Tree returns the tree at the given lattice index, nil when never built.
func (g *Grid) Tree(index int) *Tree {
	if index < 0 || index >= len(g.trees) {
		return nil
	}
	return g.trees[index]
}

// NewTree creates an empty single-root tree at the given lattice index with
// global indices starting at offset, replacing any existing tree.
func (g *Grid) NewTree(index int, offset int64) *Tree {
	t := newTree(g.branchFactor, offset)
	g.trees[index] = t
	return t
}

// Mask returns the per-node mask bitset of the grid.
func (g *Grid) Mask() *BitArray { return g.mask }

// SetMask replaces the per-node mask bitset.
func (g *Grid) SetMask(mask *BitArray) { g.mask = mask }

// NumNodes returns the total number of nodes across all trees.
func (g *Grid) NumNodes() int64 {
	var n int64
	for _, t := range g.trees {
		if t != nil {
			n += int64(t.NumVertices())
		}
	}
	return n
}

// AddScalarField registers a named float64 cell data array.
func (g *Grid) AddScalarField(name string) {
	if _, ok := g.scalarFields[name]; !ok {
		g.scalarFields[name] = nil
		g.fieldOrder = append(g.fieldOrder, name)
	}
}

// AddCountField registers a named int64 cell data array.
func (g *Grid) AddCountField(name string) {
	if _, ok := g.countFields[name]; !ok {
		g.countFields[name] = nil
		g.fieldOrder = append(g.fieldOrder, name)
	}
}

// ScalarField returns the named float64 array, nil when absent.
func (g *Grid) ScalarField(name string) []float64 { return g.scalarFields[name] }

// CountField returns the named int64 array, nil when absent.
func (g *Grid) CountField(name string) []int64 { return g.countFields[name] }

// FieldNames returns the registered field names in registration order.
func (g *Grid) FieldNames() []string { return g.fieldOrder }

// SetScalarValue grows the named float64 array as needed and sets index.
func (g *Grid) SetScalarValue(name string, index int64, value float64) {
	arr := g.scalarFields[name]
	for int64(len(arr)) <= index {
		arr = append(arr, 0)
	}
	arr[index] = value
	g.scalarFields[name] = arr
}

// ScalarValue reads the named float64 array at index.
func (g *Grid) ScalarValue(name string, index int64) float64 {
	return g.scalarFields[name][index]
}

// SetCountValue grows the named int64 array as needed and sets index.
func (g *Grid) SetCountValue(name string, index int64, value int64) {
	arr := g.countFields[name]
	for int64(len(arr)) <= index {
		arr = append(arr, 0)
	}
	arr[index] = value
	g.countFields[name] = arr
}

// CountValue reads the named int64 array at index.
func (g *Grid) CountValue(name string, index int64) int64 {
	return g.countFields[name][index]
}
