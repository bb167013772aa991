package patchbay

import "fmt"

// Edit operations are pure tree→tree functions, usable both from the
// interaction core and by external callers (key bindings, scripts, tests).

// windowMatrix maps normalized [-1,1]×[-1,1] window coordinates onto a
// w×h pixel canvas, with Y flipped so +Y points up on screen.
func windowMatrix(w, h float64) Mat {
	return Mat{w / 2, 0, 0, -h / 2, w / 2, h / 2}
}

// NewTree builds a minimal valid tree: a canvas of the given pixel size with
// an empty plane. The plane starts at a scale that puts a unit diagonal in
// the middle of the legal [minDiagonalPx, maxDiagonalPx] on-screen range.
func NewTree(id string, width, height float64) Root {
	win := windowMatrix(width, height)
	// Pick s so |win · s·(1,1)| is centered in the zoom clamp range.
	diag := win.ApplyVec(Vec2{1, 1})
	l := vecLen(diag)
	s := (minDiagonalPx + maxDiagonalPx) / 2 / l
	return Root{
		ID:     id,
		Width:  width,
		Height: height,
		Window: Window{
			M: win,
			Plane: Plane{
				M: Scale(s, s),
			},
		},
	}
}

// AppendNode adds a new GraphNode at the center of the current view. The new
// node takes the plane's next key (keys are never reused, even after the
// plane empties), is placed at the front of the z-order, and becomes the
// sole selected and active node. It starts with one input anchor and one
// open output anchor.
func AppendNode(r Root) Root {
	p := r.Window.Plane
	// Trees seeded without a counter get one a step past their keys.
	key := p.NextKey
	if k := p.MaxKey() + 1; k > key {
		key = k
	}

	center := TransformPoint(Vec2{0, 0}, r.WindowFrame(), r.PlaneFrame())
	m := Translate(center.X, center.Y).Mul(Scale(nodeFrameScale, nodeFrameScale))

	n := GraphNode{
		Key:      key,
		M:        m,
		Box:      Rect{X: -1, Y: -0.6, Width: 2, Height: 1.2},
		Title:    fmt.Sprintf("node %d", key),
		Selected: true,
		Active:   true,
		In: InEdge{
			M:         Scale(anchorFrameScale, anchorFrameScale),
			Box:       Rect{X: -1, Y: -1, Width: 2, Height: 2},
			ParentKey: key,
		},
	}
	n = n.withOuts([]OutEdge{newOpenAnchor(n)})
	n = placeInEdge(n)
	n = respaceOuts(n)

	nodes := make([]GraphNode, 0, len(p.Nodes)+1)
	nodes = append(nodes, n)
	for _, old := range p.Nodes {
		old.Selected = false
		old.Active = false
		nodes = append(nodes, old)
	}
	r.Window.Plane = p.withNodes(nodes)
	r.Window.Plane.NextKey = key + 1
	return r
}

// DeleteSelected removes every selected GraphNode. Anchors on surviving
// nodes that linked to a removed node are dropped and the remaining anchors
// respaced, so no dangling link survives and the trailing-anchor invariant
// is preserved.
func DeleteSelected(r Root) Root {
	p := r.Window.Plane

	removed := make(map[int]bool)
	for _, n := range p.Nodes {
		if n.Selected {
			removed[n.Key] = true
		}
	}
	if len(removed) == 0 {
		return r
	}

	nodes := make([]GraphNode, 0, len(p.Nodes)-len(removed))
	for _, n := range p.Nodes {
		if removed[n.Key] {
			continue
		}
		nodes = append(nodes, pruneLinks(n, removed))
	}
	r.Window.Plane = p.withNodes(nodes)
	return r
}

// pruneLinks drops anchors on n that link into the removed set.
func pruneLinks(n GraphNode, removed map[int]bool) GraphNode {
	stale := false
	for _, o := range n.Outs {
		if o.Resolved() && removed[o.LinkedTo] {
			stale = true
			break
		}
	}
	if !stale {
		return n
	}
	outs := make([]OutEdge, 0, len(n.Outs))
	for _, o := range n.Outs {
		if o.Resolved() && removed[o.LinkedTo] {
			continue
		}
		outs = append(outs, o)
	}
	return respaceOuts(n.withOuts(outs))
}

// Pan returns a mutation translating the plane by delta canvas pixels.
// Used by programmatic scrolling; interactive panning goes through the
// plane controller.
func Pan(delta Vec2) Mutation[Root] {
	return func(r Root) Root {
		r.Window.Plane.M = TranslatedIn(r.Window.Plane.M, delta, Identity, r.WindowFrame())
		return r
	}
}

// RefreshCanvas rebinds the tree to a new canvas element identity without
// touching geometry or edit state. The host calls this when the underlying
// surface is replaced and the old reference has gone stale.
func RefreshCanvas(id string) Mutation[Root] {
	return func(r Root) Root {
		r.ID = id
		return r
	}
}
