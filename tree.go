package patchbay

// The scene tree is a closed set of value types. Every edit replaces nodes
// rather than mutating them: slices are cloned before modification, so a
// previously returned snapshot is never changed under a concurrent reader.

// NoLink marks an OutEdge that is not linked to any target node.
const NoLink = -1

// Root is the top of the scene tree: the canvas identity and pixel size.
type Root struct {
	ID            string
	Width, Height float64
	Window        Window
}

// Window maps normalized [-1,1]×[-1,1] coordinates to canvas pixels
// (Y flipped). Its matrix is recomputed on container resize.
type Window struct {
	M     Mat
	Plane Plane
}

// Plane owns the node collection and carries the pan/zoom transform.
// Nodes[0] is the front of the z-order and is hit-tested first. NextKey
// only ever grows, so a deleted node's key is never handed out again and
// can never be mistaken for a live identity by an in-flight handler.
type Plane struct {
	M       Mat
	NextKey int
	Nodes   []GraphNode
}

// GraphNode is a single box on the plane. Key is unique among siblings and
// is the identity interaction handlers are scoped to.
type GraphNode struct {
	Key      int
	M        Mat
	Box      Rect
	Title    string
	Selected bool
	Active   bool
	In       InEdge
	Outs     []OutEdge
}

// InEdge is the single input anchor of a GraphNode.
type InEdge struct {
	M         Mat
	Box       Rect
	ParentKey int
}

// OutEdge is an output anchor. Exactly one of LinkedTo/To is meaningful:
// LinkedTo != NoLink means the anchor is resolved to a target node; HasTo
// means a drag is in flight and To is the floating endpoint in plane
// coordinates. An anchor with neither is open; the invariant kept by the
// edge controller is that the open anchor is always the last sibling.
type OutEdge struct {
	Key       int
	M         Mat
	Box       Rect
	ParentKey int
	LinkedTo  int
	To        Vec2
	HasTo     bool
}

// Resolved reports whether the anchor is linked to a target node.
func (o OutEdge) Resolved() bool { return o.LinkedTo != NoLink }

// Open reports whether the anchor has neither a link nor a floating endpoint.
func (o OutEdge) Open() bool { return o.LinkedTo == NoLink && !o.HasTo }

// --- Frames ---

// WindowFrame returns the window-local→canvas matrix.
func (r Root) WindowFrame() Mat { return r.Window.M }

// PlaneFrame returns the plane-local→canvas matrix.
func (r Root) PlaneFrame() Mat { return r.Window.M.Mul(r.Window.Plane.M) }

// nodeFrame returns the node-local→canvas matrix for the node at index i,
// given the plane frame.
func nodeFrame(planeFrame Mat, n GraphNode) Mat { return planeFrame.Mul(n.M) }

// NodeFrame returns the node-local→canvas matrix for the node with the given
// key, and false if no such node exists.
func (r Root) NodeFrame(key int) (Mat, bool) {
	n, ok := r.Window.Plane.NodeByKey(key)
	if !ok {
		return Identity, false
	}
	return nodeFrame(r.PlaneFrame(), n), true
}

// --- Queries ---

// NodeByKey returns the node with the given sibling key.
func (p Plane) NodeByKey(key int) (GraphNode, bool) {
	for _, n := range p.Nodes {
		if n.Key == key {
			return n, true
		}
	}
	return GraphNode{}, false
}

// nodeIndex returns the position of key in p.Nodes, or -1.
func (p Plane) nodeIndex(key int) int {
	for i, n := range p.Nodes {
		if n.Key == key {
			return i
		}
	}
	return -1
}

// MaxKey returns the largest node key on the plane, or -1 when empty.
func (p Plane) MaxKey() int {
	max := -1
	for _, n := range p.Nodes {
		if n.Key > max {
			max = n.Key
		}
	}
	return max
}

// outIndex returns the position of key in n.Outs, or -1.
func (n GraphNode) outIndex(key int) int {
	for i, o := range n.Outs {
		if o.Key == key {
			return i
		}
	}
	return -1
}

// OutByKey returns the output anchor with the given sibling key.
func (n GraphNode) OutByKey(key int) (OutEdge, bool) {
	if i := n.outIndex(key); i >= 0 {
		return n.Outs[i], true
	}
	return OutEdge{}, false
}

// maxOutKey returns the largest anchor key on the node, or -1 when empty.
func (n GraphNode) maxOutKey() int {
	max := -1
	for _, o := range n.Outs {
		if o.Key > max {
			max = o.Key
		}
	}
	return max
}

// --- Copy-on-write helpers ---

// withNode returns a copy of p with the node at index i replaced.
func (p Plane) withNode(i int, n GraphNode) Plane {
	nodes := make([]GraphNode, len(p.Nodes))
	copy(nodes, p.Nodes)
	nodes[i] = n
	p.Nodes = nodes
	return p
}

// withNodes returns a copy of p with a fresh node slice.
func (p Plane) withNodes(nodes []GraphNode) Plane {
	p.Nodes = nodes
	return p
}

// withOut returns a copy of n with the anchor at index i replaced.
func (n GraphNode) withOut(i int, o OutEdge) GraphNode {
	outs := make([]OutEdge, len(n.Outs))
	copy(outs, n.Outs)
	outs[i] = o
	n.Outs = outs
	return n
}

// withOuts returns a copy of n with a fresh anchor slice.
func (n GraphNode) withOuts(outs []OutEdge) GraphNode {
	n.Outs = outs
	return n
}

// cloneNodes returns a fresh copy of a node slice.
func cloneNodes(nodes []GraphNode) []GraphNode {
	out := make([]GraphNode, len(nodes))
	copy(out, nodes)
	return out
}
