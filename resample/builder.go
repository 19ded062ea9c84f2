package resample

import (
	"go.viam.com/htgrid/dataset"
	"go.viam.com/htgrid/measure"
	"go.viam.com/htgrid/spatialmath"
)

// createMultiResolutionGrids seeds the finest sparse grids from the input,
// propagates the aggregates bottom-up, and runs the gap analysis when the
// configuration calls for it.
func (r *Resampler) createMultiResolutionGrids(ds dataset.Dataset) error {
	r.grids = make([]multiResGrid, r.out.NumTrees())
	for i := range r.grids {
		r.grids[i] = newMultiResGrid(r.cfg.MaxDepth)
	}

	switch ds.Association() {
	case dataset.PointAssociation:
		r.seedPoints(ds)
	case dataset.CellAssociation:
		if err := r.seedCells(ds); err != nil {
			return err
		}
	default:
		r.logger.Warnw("unknown field association, supported are points and cells",
			"association", ds.Association())
	}

	if err := r.propagateUpward(); err != nil {
		return err
	}

	if r.cfg.NoEmptyCells || (r.cfg.Extrapolate && ds.Association() == dataset.PointAssociation) {
		r.analyzeGaps(ds)
	}
	return nil
}

// seedPoints drops every input point into the finest depth of its tree,
// counting it with unit weight.
func (r *Resampler) seedPoints(ds dataset.Dataset) {
	for pointID := 0; pointID < ds.NumPoints(); pointID++ {
		p := ds.Point(pointID)
		value := ds.Value(pointID)

		i := r.finestCoordinate(p.X, r.bounds.XMin, r.bounds.SizeX(), r.cellDims[0])
		j := r.finestCoordinate(p.Y, r.bounds.YMin, r.bounds.SizeY(), r.cellDims[1])
		k := r.finestCoordinate(p.Z, r.bounds.ZMin, r.bounds.SizeZ(), r.cellDims[2])

		grid := r.grids[r.out.TreeIndex(i/r.maxResolution, j/r.maxResolution, k/r.maxResolution)]
		idx := r.localIndex(i%r.maxResolution, j%r.maxResolution, k%r.maxResolution, r.cfg.MaxDepth)

		if elem, ok := grid[r.cfg.MaxDepth][idx]; ok {
			r.set.AddSample(elem.accumulators, value, 1)
			elem.numPoints++
			elem.weight++
			continue
		}
		elem := &gridElement{
			numLeaves:              1,
			numPoints:              1,
			weight:                 1,
			childrenFullyPopulated: true,
			accumulators:           r.set.NewAccumulators(),
		}
		r.set.AddSample(elem.accumulators, value, 1)
		grid[r.cfg.MaxDepth][idx] = elem
	}
}

// finestCoordinate maps one point coordinate to its integer cell on the
// virtual finest grid spanning the whole domain.
func (r *Resampler) finestCoordinate(x, lo, size float64, cells int) int {
	if size <= 0 {
		return 0
	}
	return int((x - lo) / size * float64(cells*r.maxResolution) * (1.0 - dblEpsilon))
}

// seedCells places every input cell at the shallowest depth where its bounds
// straddle at least two grid boxes along every axis, weighting each grid box
// it overlaps by the intersected volume.
func (r *Resampler) seedCells(ds dataset.Dataset) error {
	const volumeUnit = 1.0
	for cellID := 0; cellID < ds.NumCells(); cellID++ {
		cell := ds.Cell(cellID)
		value := ds.Value(cellID)

		var vox *dataset.Voxel
		var solid spatialmath.Solid
		switch c := cell.(type) {
		case *dataset.Voxel:
			vox = c
		case spatialmath.Solid:
			solid = c
		default:
			r.logger.Warnw("unsupported cell type, ignoring cell", "cell", cellID)
			continue
		}

		cb := cell.Bounds()
		depth := -1
		var imin, imax, jmin, jmax, kmin, kmax int
		for {
			depth++
			imin, imax = r.cellSpan(cb.XMin, cb.XMax, r.bounds.XMin, r.bounds.SizeX(), r.cellDims[0], depth)
			jmin, jmax = r.cellSpan(cb.YMin, cb.YMax, r.bounds.YMin, r.bounds.SizeY(), r.cellDims[1], depth)
			kmin, kmax = r.cellSpan(cb.ZMin, cb.ZMax, r.bounds.ZMin, r.bounds.SizeZ(), r.cellDims[2], depth)
			if !((imin == imax || jmin == jmax || kmin == kmax) && depth != r.cfg.MaxDepth) {
				break
			}
		}

		res := r.resolutionPerTree[depth]
		for igrid := imin / res; igrid <= imax/res; igrid++ {
			for jgrid := jmin / res; jgrid <= jmax/res; jgrid++ {
				for kgrid := kmin / res; kgrid <= kmax/res; kgrid++ {
					grid := r.grids[r.out.TreeIndex(igrid, jgrid, kgrid)][depth]

					iiLo, iiHi := localSpan(igrid, imin, imax, res)
					jjLo, jjHi := localSpan(jgrid, jmin, jmax, res)
					kkLo, kkHi := localSpan(kgrid, kmin, kmax, res)
					for ii := iiLo; ii <= iiHi; ii++ {
						for jj := jjLo; jj <= jjHi; jj++ {
							for kk := kkLo; kk <= kkHi; kk++ {
								box := r.boxAt(igrid, jgrid, kgrid, ii, jj, kk, depth)

								var volume float64
								var nonZero bool
								if vox != nil {
									volume, nonZero = spatialmath.IntersectedVoxelVolume(box, vox.Bounds(), volumeUnit)
								} else {
									var err error
									volume, nonZero, err = spatialmath.IntersectedSolidVolume(box, solid, r.cfg.SnapTolerance)
									if err != nil {
										r.logger.Warnw("discarding cell contribution", "cell", cellID, "error", err)
										continue
									}
								}
								if !nonZero {
									continue
								}

								idx := r.localIndex(ii, jj, kk, depth)
								if elem, ok := grid[idx]; ok {
									r.set.AddSample(elem.accumulators, value, volume)
									elem.numPoints++
									elem.weight += volume
									continue
								}
								elem := &gridElement{
									numLeaves:              1,
									numPoints:              1,
									weight:                 volume,
									childrenFullyPopulated: true,
									accumulators:           r.set.NewAccumulators(),
								}
								r.set.AddSample(elem.accumulators, value, volume)
								grid[idx] = elem
							}
						}
					}
				}
			}
		}
	}
	return nil
}

// cellSpan maps a cell's extent along one axis to the inclusive range of
// finest-at-depth grid coordinates it covers.
func (r *Resampler) cellSpan(lo, hi, domainLo, size float64, cells, depth int) (int, int) {
	if size <= 0 {
		return 0, 0
	}
	n := float64(cells * r.resolutionPerTree[depth])
	spanLo := int((lo - domainLo) * n / size)
	spanHi := int((hi - domainLo) * n / size * (1.0 - dblEpsilon))
	return spanLo, spanHi
}

// localSpan restricts a global coordinate range to the tree at grid position
// g, in local coordinates.
func localSpan(g, lo, hi, res int) (int, int) {
	outLo, outHi := 0, res-1
	if g == lo/res {
		outLo = lo % res
	}
	if g == hi/res {
		outHi = hi % res
	}
	return outLo, outHi
}

// propagateUpward folds every sparse entry into its parent, depth by depth,
// so each node aggregates its entire subtree.
func (r *Resampler) propagateUpward() error {
	for _, mrg := range r.grids {
		for depth := r.cfg.MaxDepth; depth > 0; depth-- {
			for idx, elem := range mrg[depth] {
				i, j, k := r.localCoordinates(idx, depth)
				parentIdx := r.localIndex(i/r.cfg.BranchFactor, j/r.cfg.BranchFactor, k/r.cfg.BranchFactor, depth-1)

				childOK := elem.numPoints >= r.cfg.MinPointsPerSubtree &&
					r.set.CanMeasure(elem.numPoints, elem.weight)
				fullyPopulated := elem.childrenFullyPopulated && elem.numUnmaskedChildren == r.numChildren

				if parent, ok := mrg[depth-1][parentIdx]; ok {
					parent.numLeaves += elem.numLeaves
					parent.numPoints += elem.numPoints
					parent.weight += elem.weight
					parent.numUnmaskedChildren++
					parent.childrenFullyPopulated = parent.childrenFullyPopulated && fullyPopulated
					parent.canSubdivide = parent.canSubdivide && childOK
					for l, acc := range parent.accumulators {
						if err := acc.Merge(elem.accumulators[l]); err != nil {
							return err
						}
					}
					continue
				}

				accumulators := make([]measure.Accumulator, len(elem.accumulators))
				for l, acc := range elem.accumulators {
					accumulators[l] = acc.Clone()
				}
				mrg[depth-1][parentIdx] = &gridElement{
					numLeaves:              elem.numLeaves,
					numPoints:              elem.numPoints,
					weight:                 elem.weight,
					numUnmaskedChildren:    1,
					childrenFullyPopulated: fullyPopulated,
					canSubdivide:           childOK,
					accumulators:           accumulators,
				}
			}
		}
	}
	return nil
}
