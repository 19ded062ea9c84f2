package resample

import (
	"math"

	"go.viam.com/htgrid/htg"
)

// generateTrees emits one adaptive tree per lattice cell, consuming the
// multi-resolution grids top-down. Global node indices are assigned tree by
// tree, parents before children.
func (r *Resampler) generateTrees() {
	var treeOffset int64
	for i := 0; i < r.cellDims[0]; i++ {
		for j := 0; j < r.cellDims[1]; j++ {
			for k := 0; k < r.cellDims[2]; k++ {
				treeIdx := r.out.TreeIndex(i, j, k)
				tree := r.out.NewTree(treeIdx, treeOffset)
				r.subdivideLeaves(htg.NewCursor(tree), treeIdx, 0, 0, 0)
				treeOffset += int64(tree.NumVertices())
			}
		}
	}
}

// subdivideLeaves writes the fields and mask bit of the current node, decides
// whether to refine it, and recurses into the children, x-fastest.
func (r *Resampler) subdivideLeaves(cursor *htg.Cursor, treeIdx, i, j, k int) {
	level := cursor.Level()
	idx := cursor.GlobalIndex()
	elem := r.grids[treeIdx][level][r.localIndex(i, j, k, level)]

	value := math.NaN()
	displayValue := math.NaN()
	if elem != nil && len(elem.accumulators) > 0 {
		value = r.set.MeasurePrimary(elem.accumulators, elem.numPoints, elem.weight)
		displayValue = r.set.MeasureDisplay(elem.accumulators, elem.numPoints, elem.weight)
	}

	if r.scalarName != "" {
		r.out.SetScalarValue(r.scalarName, idx, value)
	}
	if r.displayName != "" {
		r.out.SetScalarValue(r.displayName, idx, displayValue)
	}
	var numLeaves, numPoints int64
	if elem != nil {
		numLeaves = elem.numLeaves
		numPoints = elem.numPoints
	}
	r.out.SetCountValue(LeavesFieldName, idx, numLeaves)
	r.out.SetCountValue(PointsFieldName, idx, numPoints)
	r.out.Mask().Set(idx, elem == nil)

	// A subtree holding a single populated finest cell is already at the
	// finest resolution the data supports.
	if elem == nil || level >= r.cfg.MaxDepth || elem.numLeaves <= 1 || !elem.canSubdivide {
		return
	}
	if r.set.HasPrimary() && (math.IsNaN(value) || !r.cfg.withinRange(value)) {
		return
	}

	cursor.SubdivideLeaf()
	b := r.cfg.BranchFactor
	ii, jj, kk := 0, 0, 0
	for child := 0; child < cursor.NumChildren(); child++ {
		cursor.ToChild(child)
		r.subdivideLeaves(cursor, treeIdx, i*b+ii, j*b+jj, k*b+kk)
		cursor.ToParent()

		ii++
		if ii == b {
			ii = 0
			jj++
			if jj == b {
				jj = 0
				kk++
			}
		}
	}
}
