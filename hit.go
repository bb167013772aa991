package patchbay

// Hit testing walks the tree front-to-back and tests each hit box in its own
// local frame, transforming the pointer through the inverted composed
// matrices. There is no flattened global-space pass: geometry lives in
// nested frames and is queried there.

type targetKind uint8

const (
	targetNone targetKind = iota
	targetPlane
	targetNode
	targetInEdge
	targetOutEdge
)

// hitTarget identifies what is under the pointer. node is the GraphNode key;
// anchor is the OutEdge key for targetOutEdge.
type hitTarget struct {
	kind   targetKind
	node   int
	anchor int
}

// contains reports whether the canvas-space point p falls inside box, where
// frame is the box's local→canvas matrix.
func contains(box Rect, frame Mat, p Vec2) bool {
	lp := frame.Invert().Apply(p)
	return box.Contains(lp.X, lp.Y)
}

// hitTest finds the topmost element at the canvas-space point p. Nodes are
// tested in child order (index 0 = front); within a node, anchors sit on top
// of the body. A point on the canvas but outside every node hits the plane.
func hitTest(r Root, p Vec2) hitTarget {
	planeFrame := r.PlaneFrame()

	for _, n := range r.Window.Plane.Nodes {
		nf := nodeFrame(planeFrame, n)

		if contains(n.In.Box, nf.Mul(n.In.M), p) {
			return hitTarget{kind: targetInEdge, node: n.Key}
		}
		for _, o := range n.Outs {
			if contains(o.Box, nf.Mul(o.M), p) {
				return hitTarget{kind: targetOutEdge, node: n.Key, anchor: o.Key}
			}
		}
		if contains(n.Box, nf, p) {
			return hitTarget{kind: targetNode, node: n.Key}
		}
	}

	if p.X >= 0 && p.X <= r.Width && p.Y >= 0 && p.Y <= r.Height {
		return hitTarget{kind: targetPlane}
	}
	return hitTarget{kind: targetNone}
}

// hoverInEdge returns the key of the node whose input anchor is under the
// canvas-space point p, excluding the node with key self. Used by the edge
// controller to detect link candidates while dragging.
func hoverInEdge(r Root, p Vec2, self int) (int, bool) {
	planeFrame := r.PlaneFrame()
	for _, n := range r.Window.Plane.Nodes {
		if n.Key == self {
			continue
		}
		nf := nodeFrame(planeFrame, n)
		if contains(n.In.Box, nf.Mul(n.In.M), p) {
			return n.Key, true
		}
	}
	return 0, false
}
