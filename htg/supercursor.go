package htg

import "github.com/pkg/errors"

// CentralCursor is the slot of the central node in a Von-Neumann super-cursor.
const CentralCursor = 3

// vonNeumannOffsets lists the lattice offsets of the 7 cursor slots: the six
// axial neighbors around the central slot, ordered -z, -y, -x, self, +x, +y, +z.
var vonNeumannOffsets = [7][3]int{
	{0, 0, -1},
	{0, -1, 0},
	{-1, 0, 0},
	{0, 0, 0},
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
}

type superCursorEntry struct {
	tree     *Tree
	vertexID int
	level    int
	valid    bool
}

// SuperCursor walks one tree while tracking, for every visited node, the six
// axial neighbors at the same level when they exist. When a neighbor subtree
// stops short, its slot degrades to the deepest existing ancestor, mirroring
// how coarse neighbors border finer leaves in the grid. Slots outside the
// domain are invalid.
type SuperCursor struct {
	grid    *Grid
	cursors [7]superCursorEntry
	stack   [][7]superCursorEntry
}

// NewSuperCursor returns a super-cursor rooted at the given tree of the grid.
func NewSuperCursor(g *Grid, treeIndex int) (*SuperCursor, error) {
	central := g.Tree(treeIndex)
	if central == nil {
		return nil, errors.Errorf("no tree at index %d", treeIndex)
	}
	sc := &SuperCursor{grid: g}
	ti, tj, tk := g.TreeCoordinates(treeIndex)
	for slot, off := range vonNeumannOffsets {
		ni, nj, nk := ti+off[0], tj+off[1], tk+off[2]
		if ni < 0 || ni >= g.cellDims[0] || nj < 0 || nj >= g.cellDims[1] || nk < 0 || nk >= g.cellDims[2] {
			continue
		}
		t := g.Tree(g.TreeIndex(ni, nj, nk))
		if t == nil {
			continue
		}
		sc.cursors[slot] = superCursorEntry{tree: t, valid: true}
	}
	return sc, nil
}

// NumCursors returns the size of the stencil, 7 in 3D.
func (sc *SuperCursor) NumCursors() int { return len(sc.cursors) }

// Level returns the depth of the central node.
func (sc *SuperCursor) Level() int { return sc.cursors[CentralCursor].level }

// IsLeaf reports whether the central node has no children.
func (sc *SuperCursor) IsLeaf() bool {
	c := sc.cursors[CentralCursor]
	return c.tree.IsLeaf(c.vertexID)
}

// NumChildren returns branchFactor^3 of the underlying grid.
func (sc *SuperCursor) NumChildren() int { return sc.grid.numChildren }

// GlobalNodeIndex returns the global node index of the given slot,
// InvalidIndex when that slot has no node.
func (sc *SuperCursor) GlobalNodeIndex(slot int) int64 {
	e := sc.cursors[slot]
	if !e.valid {
		return InvalidIndex
	}
	return e.tree.GlobalIndexFromLocal(e.vertexID)
}

// CentralGlobalIndex returns the global node index of the central node.
func (sc *SuperCursor) CentralGlobalIndex() int64 {
	return sc.GlobalNodeIndex(CentralCursor)
}

// IsMasked reports the mask bit of the given slot; invalid slots read masked.
func (sc *SuperCursor) IsMasked(slot int) bool {
	idx := sc.GlobalNodeIndex(slot)
	if idx == InvalidIndex {
		return true
	}
	return sc.grid.mask.Get(idx)
}

// ToChild descends the central cursor into the given child, x-fastest, and
// repositions every neighbor slot: a sibling inside the same parent when the
// step stays within it, otherwise the facing child of the neighbor subtree,
// degrading to the neighbor node itself when that subtree stops short.
func (sc *SuperCursor) ToChild(child int) {
	sc.stack = append(sc.stack, sc.cursors)
	old := &sc.stack[len(sc.stack)-1]

	b := sc.grid.branchFactor
	ci := child % b
	cj := (child / b) % b
	ck := child / (b * b)

	central := old[CentralCursor]
	var next [7]superCursorEntry
	next[CentralCursor] = superCursorEntry{
		tree:     central.tree,
		vertexID: central.tree.ChildID(central.vertexID, child),
		level:    central.level + 1,
		valid:    true,
	}

	childCoord := [3]int{ci, cj, ck}
	for slot, off := range vonNeumannOffsets {
		if slot == CentralCursor {
			continue
		}
		axis := 0
		for a := 1; a < 3; a++ {
			if off[a] != 0 {
				axis = a
			}
		}
		target := childCoord
		target[axis] += off[axis]
		if target[axis] >= 0 && target[axis] < b {
			// The neighbor is a sibling inside the same parent.
			sibling := target[0] + target[1]*b + target[2]*b*b
			next[slot] = superCursorEntry{
				tree:     central.tree,
				vertexID: central.tree.ChildID(central.vertexID, sibling),
				level:    central.level + 1,
				valid:    true,
			}
			continue
		}
		// The neighbor lives in the adjacent subtree; wrap the coordinate to
		// the facing child.
		n := old[slot]
		if !n.valid {
			continue
		}
		if n.level != central.level || n.tree.IsLeaf(n.vertexID) {
			// The neighbor subtree is coarser here; stay on its deepest node.
			next[slot] = n
			continue
		}
		if target[axis] < 0 {
			target[axis] = b - 1
		} else {
			target[axis] = 0
		}
		facing := target[0] + target[1]*b + target[2]*b*b
		next[slot] = superCursorEntry{
			tree:     n.tree,
			vertexID: n.tree.ChildID(n.vertexID, facing),
			level:    n.level + 1,
			valid:    true,
		}
	}
	sc.cursors = next
}

// ToParent returns every slot to its position before the matching ToChild.
func (sc *SuperCursor) ToParent() {
	sc.cursors = sc.stack[len(sc.stack)-1]
	sc.stack = sc.stack[:len(sc.stack)-1]
}
