package htg

// Tree is one adaptive refinement tree of a hypertree grid. Nodes are stored
// in creation order; SubdivideLeaf appends all children of a node at once, so
// parents always precede their children and the children of a node occupy
// contiguous vertex ids.
type Tree struct {
	branchFactor int
	numChildren  int
	offset       int64

	// firstChild[v] is the vertex id of the first child of v, -1 for leaves.
	firstChild []int32
}

func newTree(branchFactor int, offset int64) *Tree {
	return &Tree{
		branchFactor: branchFactor,
		numChildren:  branchFactor * branchFactor * branchFactor,
		offset:       offset,
		firstChild:   []int32{-1},
	}
}

// BranchFactor returns the subdivision factor along each axis.
func (t *Tree) BranchFactor() int { return t.branchFactor }

// NumChildren returns branchFactor^3.
func (t *Tree) NumChildren() int { return t.numChildren }

// NumVertices returns the number of nodes in the tree.
func (t *Tree) NumVertices() int { return len(t.firstChild) }

// GlobalIndexStart returns the global index of vertex 0.
func (t *Tree) GlobalIndexStart() int64 { return t.offset }

// GlobalIndexFromLocal converts a vertex id to a global node index.
func (t *Tree) GlobalIndexFromLocal(vertexID int) int64 { return t.offset + int64(vertexID) }

// IsLeaf reports whether the vertex has no children.
func (t *Tree) IsLeaf(vertexID int) bool { return t.firstChild[vertexID] < 0 }

// FirstChildren returns, for every vertex, the vertex id of its first child,
// -1 for leaves. The returned slice is a copy.
func (t *Tree) FirstChildren() []int32 {
	out := make([]int32, len(t.firstChild))
	copy(out, t.firstChild)
	return out
}

// ChildID returns the vertex id of the given child of vertexID, -1 when the
// vertex is a leaf. Children are ordered x-fastest: child = ci + cj*b + ck*b².
func (t *Tree) ChildID(vertexID, child int) int {
	first := t.firstChild[vertexID]
	if first < 0 {
		return -1
	}
	return int(first) + child
}

// SubdivideLeaf appends numChildren fresh leaves as the children of vertexID.
// Subdividing a non-leaf is a no-op.
func (t *Tree) SubdivideLeaf(vertexID int) {
	if !t.IsLeaf(vertexID) {
		return
	}
	t.firstChild[vertexID] = int32(len(t.firstChild))
	for i := 0; i < t.numChildren; i++ {
		t.firstChild = append(t.firstChild, -1)
	}
}

// Cursor is a depth-first cursor over one tree, tracking its level and path
// so it can return to the parent.
type Cursor struct {
	tree     *Tree
	vertexID int
	path     []int
}

// NewCursor returns a cursor at the root of the tree.
func NewCursor(t *Tree) *Cursor {
	return &Cursor{tree: t}
}

// Tree returns the tree under the cursor.
func (c *Cursor) Tree() *Tree { return c.tree }

// Level returns the depth of the current node, 0 at the root.
func (c *Cursor) Level() int { return len(c.path) }

// VertexID returns the vertex id of the current node.
func (c *Cursor) VertexID() int { return c.vertexID }

// GlobalIndex returns the global node index of the current node.
func (c *Cursor) GlobalIndex() int64 { return c.tree.GlobalIndexFromLocal(c.vertexID) }

// IsLeaf reports whether the current node has no children.
func (c *Cursor) IsLeaf() bool { return c.tree.IsLeaf(c.vertexID) }

// NumChildren returns branchFactor^3.
func (c *Cursor) NumChildren() int { return c.tree.numChildren }

// SubdivideLeaf creates the children of the current node.
func (c *Cursor) SubdivideLeaf() { c.tree.SubdivideLeaf(c.vertexID) }

// ToChild descends into the given child of the current node.
func (c *Cursor) ToChild(child int) {
	c.path = append(c.path, c.vertexID)
	c.vertexID = c.tree.ChildID(c.vertexID, child)
}

// ToParent returns to the parent of the current node.
func (c *Cursor) ToParent() {
	c.vertexID = c.path[len(c.path)-1]
	c.path = c.path[:len(c.path)-1]
}
