package resample

import "go.viam.com/htgrid/measure"

// gridElement is the aggregate state of one (tree, depth, local) position of
// the sparse multi-resolution grid.
type gridElement struct {
	// numLeaves counts the finest-level cells under this node that received
	// at least one sample.
	numLeaves int64
	// numPoints counts the input samples contributing to this subtree.
	numPoints int64
	// weight is the accumulated weight: one per point for point inputs, the
	// intersected volume for cell inputs.
	weight float64
	// numUnmaskedChildren counts the direct children present in the sparse map.
	numUnmaskedChildren int
	// childrenFullyPopulated holds when no subtree below carries a masked leaf.
	childrenFullyPopulated bool
	// canSubdivide holds when every present child meets the minimum point
	// count and the configured measurements can be computed on it.
	canSubdivide bool
	// accumulators is the deduplicated accumulator union of the configured
	// measurements, empty for gap markers.
	accumulators []measure.Accumulator
}

// multiResGrid is the per-tree stack of sparse depth maps, indexed by depth
// then by packed local coordinates.
type multiResGrid []map[int64]*gridElement

func newMultiResGrid(maxDepth int) multiResGrid {
	g := make(multiResGrid, maxDepth+1)
	for d := range g {
		g[d] = map[int64]*gridElement{}
	}
	return g
}
