package resample

import (
	"go.viam.com/htgrid/dataset"
	"go.viam.com/htgrid/spatialmath"
)

// analyzeGaps walks every input cell through the multi-resolution grids it
// overlaps. In no-empty-cells mode, a node whose recursion finds an empty
// child intersected by geometry is made non-subdividable, so its subtree
// stays one valued leaf instead of leaving a hole. In extrapolation mode,
// empty positions covered by geometry get an empty entry so the extrapolator
// later fills them.
func (r *Resampler) analyzeGaps(ds dataset.Dataset) {
	markEmpty := r.cfg.Extrapolate && ds.Association() == dataset.PointAssociation
	numCells := ds.NumCells()
	for cellID := 0; cellID < numCells; cellID++ {
		r.progress(float64(cellID) / float64(numCells))

		cell := ds.Cell(cellID)
		cb := cell.Bounds()

		imin, imax := r.treeSpan(cb.XMin, cb.XMax, r.bounds.XMin, r.bounds.SizeX(), r.cellDims[0])
		jmin, jmax := r.treeSpan(cb.YMin, cb.YMax, r.bounds.YMin, r.bounds.SizeY(), r.cellDims[1])
		kmin, kmax := r.treeSpan(cb.ZMin, cb.ZMax, r.bounds.ZMin, r.bounds.SizeZ(), r.cellDims[2])

		for i := imin; i <= imax; i++ {
			for j := jmin; j <= jmax; j++ {
				for k := kmin; k <= kmax; k++ {
					r.fillGapsRecursively(cell, cb, i, j, k, 0, 0, 0, 0, markEmpty)
				}
			}
		}
	}
}

// treeSpan maps a cell's extent along one axis to the inclusive range of
// lattice cells it covers.
func (r *Resampler) treeSpan(lo, hi, domainLo, size float64, cells int) (int, int) {
	if size <= 0 {
		return 0, 0
	}
	spanLo := int((lo - domainLo) * float64(cells) / size)
	spanHi := int((hi - domainLo) * float64(cells) / size * (1.0 - dblEpsilon))
	return spanLo, spanHi
}

// fillGapsRecursively reports whether the cell passes through the grid box
// (ii,jj,kk) at the given depth of tree (i,j,k), descending into present
// entries and probing the box center of absent ones.
func (r *Resampler) fillGapsRecursively(
	cell dataset.Cell,
	cb spatialmath.Bounds,
	i, j, k, ii, jj, kk, depth int,
	markEmpty bool,
) bool {
	mrg := r.grids[r.out.TreeIndex(i, j, k)]
	idx := r.localIndex(ii, jj, kk, depth)
	elem, ok := mrg[depth][idx]

	// Absent positions are the masked candidates: probe whether the geometry
	// actually covers them.
	if !ok {
		inside, _ := cell.EvaluatePosition(r.boxCenter(i, j, k, ii, jj, kk, depth))
		if markEmpty && inside {
			mrg[depth][idx] = &gridElement{}
		}
		return inside
	}

	if depth == r.cfg.MaxDepth || !elem.canSubdivide ||
		(elem.numUnmaskedChildren == r.numChildren && elem.childrenFullyPopulated) {
		return true
	}

	b := r.cfg.BranchFactor
	for iii := 0; iii < b; iii++ {
		for jjj := 0; jjj < b; jjj++ {
			for kkk := 0; kkk < b; kkk++ {
				childBox := r.boxAt(i, j, k, ii*b+iii, jj*b+jjj, kk*b+kkk, depth+1)
				if !childBox.Overlaps(cb) {
					continue
				}
				if markEmpty {
					r.fillGapsRecursively(cell, cb, i, j, k, ii*b+iii, jj*b+jjj, kk*b+kkk, depth+1, markEmpty)
					continue
				}
				// The child answers whether subdividing here would expose a
				// hole under the geometry.
				ok := r.fillGapsRecursively(cell, cb, i, j, k, ii*b+iii, jj*b+jjj, kk*b+kkk, depth+1, markEmpty)
				elem.canSubdivide = elem.canSubdivide && ok
			}
		}
	}
	return true
}
