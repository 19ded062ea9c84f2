package resample

import (
	"container/heap"
	"math"

	"go.viam.com/htgrid/htg"
)

// gapElement is one undefined node queued for extrapolation, keyed by its
// number of already-valid Von-Neumann neighbors.
type gapElement struct {
	id                 int64
	key                int64
	mean               float64
	displayMean        float64
	invalidNeighborIDs []int64
}

// gapQueue is a max-heap of gap elements by key.
type gapQueue []*gapElement

func (q gapQueue) Len() int            { return len(q) }
func (q gapQueue) Less(i, j int) bool  { return q[i].key > q[j].key }
func (q gapQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *gapQueue) Push(x interface{}) { *q = append(*q, x.(*gapElement)) }
func (q *gapQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// extrapolateGaps fills every undefined node value by averaging defined
// Von-Neumann neighbors, draining nodes with the most defined neighbors
// first. Nodes popped at the same key are averaged against the same snapshot
// of the fields, so the fill is stable layer by layer.
func (r *Resampler) extrapolateGaps() {
	pq := &gapQueue{}
	heap.Init(pq)
	for treeIdx := 0; treeIdx < r.out.NumTrees(); treeIdx++ {
		sc, err := htg.NewSuperCursor(r.out, treeIdx)
		if err != nil {
			continue
		}
		r.fillQueueRecursively(sc, pq)
	}

	var buf []*gapElement
	for pq.Len() > 0 {
		top := (*pq)[0]
		key := top.key
		heap.Pop(pq)

		var invalidRemaining int64
		for _, nid := range top.invalidNeighborIDs {
			v := r.out.ScalarValue(r.scalarName, nid)
			if math.IsNaN(v) {
				invalidRemaining++
				continue
			}
			top.mean += v
			if r.displayName != "" {
				top.displayMean += r.out.ScalarValue(r.displayName, nid)
			}
		}
		top.key = key + int64(len(top.invalidNeighborIDs)) - invalidRemaining
		buf = append(buf, top)

		// Flush once the key class is exhausted, so every element of the
		// class saw the same field snapshot.
		if pq.Len() == 0 || (*pq)[0].key != key {
			for _, e := range buf {
				if e.key <= 0 {
					continue
				}
				r.out.SetScalarValue(r.scalarName, e.id, e.mean/float64(e.key))
				if r.displayName != "" {
					r.out.SetScalarValue(r.displayName, e.id, e.displayMean/float64(e.key))
				}
			}
			buf = buf[:0]
		}
	}
}

// fillQueueRecursively visits the tree under the super-cursor. Undefined
// nodes collect their neighbor sums: those with no undefined neighbors are
// resolved on the spot, the rest are queued. Defined internal nodes recurse.
func (r *Resampler) fillQueueRecursively(sc *htg.SuperCursor, pq *gapQueue) {
	id := sc.CentralGlobalIndex()
	if math.IsNaN(r.out.ScalarValue(r.scalarName, id)) {
		qe := &gapElement{id: id}
		var validNeighbors int64
		for c := 0; c < sc.NumCursors(); c++ {
			nid := sc.GlobalNodeIndex(c)
			if nid == htg.InvalidIndex || sc.IsMasked(c) {
				continue
			}
			v := r.out.ScalarValue(r.scalarName, nid)
			if math.IsNaN(v) {
				qe.invalidNeighborIDs = append(qe.invalidNeighborIDs, nid)
				continue
			}
			validNeighbors++
			qe.mean += v
			if r.displayName != "" {
				qe.displayMean += r.out.ScalarValue(r.displayName, nid)
			}
		}
		if len(qe.invalidNeighborIDs) == 0 {
			if validNeighbors > 0 {
				r.out.SetScalarValue(r.scalarName, id, qe.mean/float64(validNeighbors))
				if r.displayName != "" {
					r.out.SetScalarValue(r.displayName, id, qe.displayMean/float64(validNeighbors))
				}
			}
			return
		}
		qe.key = validNeighbors
		heap.Push(pq, qe)
		return
	}

	if !sc.IsLeaf() {
		for child := 0; child < sc.NumChildren(); child++ {
			sc.ToChild(child)
			r.fillQueueRecursively(sc, pq)
			sc.ToParent()
		}
	}
}
