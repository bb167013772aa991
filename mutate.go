package patchbay

// Shared mutation constructors. Selection, activation, and z-order are
// cross-sibling concerns: a node cannot enforce "only one active sibling"
// locally, so these run at plane scope and are emitted upward by the node
// controllers. All of them follow the stale-key policy: a missing key means
// the mutation is the identity.

// moveToFront returns a copy of nodes with the node at index i moved to
// position 0 (top of the z-order).
func moveToFront(nodes []GraphNode, i int) []GraphNode {
	out := make([]GraphNode, 0, len(nodes))
	out = append(out, nodes[i])
	out = append(out, nodes[:i]...)
	return append(out, nodes[i+1:]...)
}

// exclusiveSelect promotes the targeted node to the front and makes it the
// sole selected and active node. The selected/active flip is guarded on the
// node actually ending up at position 0.
func exclusiveSelect(key int) Mutation[Plane] {
	return func(p Plane) Plane {
		i := p.nodeIndex(key)
		if i < 0 {
			return p
		}
		nodes := moveToFront(p.Nodes, i)
		if nodes[0].Key == key {
			nodes[0].Selected = true
			nodes[0].Active = true
			for j := 1; j < len(nodes); j++ {
				nodes[j].Selected = false
				nodes[j].Active = false
			}
		}
		return p.withNodes(nodes)
	}
}

// promoteActive promotes the targeted node to the front and marks it
// selected and active. Other nodes keep their selection but lose active,
// preserving "at most one active".
func promoteActive(key int) Mutation[Plane] {
	return func(p Plane) Plane {
		i := p.nodeIndex(key)
		if i < 0 {
			return p
		}
		nodes := moveToFront(p.Nodes, i)
		if nodes[0].Key == key {
			nodes[0].Selected = true
			nodes[0].Active = true
			for j := 1; j < len(nodes); j++ {
				nodes[j].Active = false
			}
		}
		return p.withNodes(nodes)
	}
}

// deselectAll clears selection and activation on every node.
func deselectAll() Mutation[Plane] {
	return func(p Plane) Plane {
		nodes := cloneNodes(p.Nodes)
		for i := range nodes {
			nodes[i].Selected = false
			nodes[i].Active = false
		}
		return p.withNodes(nodes)
	}
}

// deselect clears selection and activation on a single node.
func deselect(key int) Mutation[Plane] {
	return func(p Plane) Plane {
		i := p.nodeIndex(key)
		if i < 0 {
			return p
		}
		n := p.Nodes[i]
		n.Selected = false
		n.Active = false
		return p.withNode(i, n)
	}
}

// moveSelected translates every selected node by delta, expressed in plane
// coordinates (the nodes' parent frame).
func moveSelected(delta Vec2) Mutation[Plane] {
	return func(p Plane) Plane {
		nodes := cloneNodes(p.Nodes)
		for i := range nodes {
			if nodes[i].Selected {
				nodes[i].M = Translate(delta.X, delta.Y).Mul(nodes[i].M)
			}
		}
		return p.withNodes(nodes)
	}
}

// --- Anchor spacing and repair ---

// anchorOffset returns the vertical offset factor for anchor i of count
// anchors: even spacing 2/(n(n+1)) with n = count-1, symmetric about the
// node's center. The exact values are load-bearing: anchors must never
// overlap and must stay evenly distributed after every edit.
func anchorOffset(i, count int) float64 {
	if count <= 1 {
		return 0
	}
	n := float64(count - 1)
	return (2*float64(i) - n) / (n * (n + 1))
}

// respaceOuts returns a copy of n with all output anchors evenly
// redistributed along the right edge of the node's box. Only anchor
// translations change; their scale/rotation components are preserved.
func respaceOuts(n GraphNode) GraphNode {
	outs := make([]OutEdge, len(n.Outs))
	copy(outs, n.Outs)
	x := n.Box.X + n.Box.Width
	cy := n.Box.Y + n.Box.Height/2
	for i := range outs {
		y := cy + anchorOffset(i, len(outs))*n.Box.Height
		outs[i].M[4] = x
		outs[i].M[5] = y
	}
	return n.withOuts(outs)
}

// placeInEdge returns a copy of n with the input anchor centered on the left
// edge of the node's box.
func placeInEdge(n GraphNode) GraphNode {
	n.In.M[4] = n.Box.X
	n.In.M[5] = n.Box.Y + n.Box.Height/2
	return n
}

// newOpenAnchor builds a fresh open trailing anchor for n, reusing the hit
// box and scale of an existing anchor when one exists.
func newOpenAnchor(n GraphNode) OutEdge {
	o := OutEdge{
		Key:       n.maxOutKey() + 1,
		M:         Scale(anchorFrameScale, anchorFrameScale),
		Box:       Rect{X: -1, Y: -1, Width: 2, Height: 2},
		ParentKey: n.Key,
		LinkedTo:  NoLink,
	}
	if len(n.Outs) > 0 {
		last := n.Outs[len(n.Outs)-1]
		o.Box = last.Box
		o.M = last.M // translation is overwritten by respaceOuts
	}
	return o
}

// repairAnchors re-establishes the trailing-anchor invariant on the node
// with key nodeKey after a drag of the anchor draggedKey ends:
//
//   - every anchor resolved → append a fresh open trailing anchor, respace
//   - dragged anchor is last → it stays, floating endpoint cleared (open)
//   - dragged anchor is unresolved mid-list → it was dragged off its link;
//     remove it and respace, closing the gap
//
// In all other cases the structure already satisfies the invariant.
func repairAnchors(nodeKey, draggedKey int) Mutation[Plane] {
	return func(p Plane) Plane {
		i := p.nodeIndex(nodeKey)
		if i < 0 {
			return p
		}
		n := p.Nodes[i]
		di := n.outIndex(draggedKey)
		if di < 0 {
			return p
		}

		allResolved := true
		for _, o := range n.Outs {
			if !o.Resolved() {
				allResolved = false
				break
			}
		}

		switch {
		case allResolved:
			anchor := newOpenAnchor(n)
			outs := make([]OutEdge, len(n.Outs), len(n.Outs)+1)
			copy(outs, n.Outs)
			n = n.withOuts(append(outs, anchor))
			n = respaceOuts(n)
		case di == len(n.Outs)-1:
			o := n.Outs[di]
			o.HasTo = false
			o.To = Vec2{}
			n = n.withOut(di, o)
		case !n.Outs[di].Resolved():
			outs := make([]OutEdge, 0, len(n.Outs)-1)
			outs = append(outs, n.Outs[:di]...)
			outs = append(outs, n.Outs[di+1:]...)
			n = n.withOuts(outs)
			n = respaceOuts(n)
		}

		return p.withNode(i, n)
	}
}
