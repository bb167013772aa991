package patchbay

import (
	"testing"
	"time"
)

// waitFor polls the viewport until the predicate holds or the deadline
// passes. The pipeline applies mutations asynchronously, so tests observe
// convergence rather than stepping it.
func waitFor(t *testing.T, v *Viewport, what string, pred func(Root) bool) Root {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		r := v.Tree()
		if pred(r) {
			return r
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; tree: %+v", what, r)
		}
		time.Sleep(time.Millisecond)
	}
}

// drag replays a press-drag-release gesture through the viewport.
func drag(v *Viewport, from, to Vec2) {
	v.Dispatch(down(from))
	mid := Vec2{(from.X + to.X) / 2, (from.Y + to.Y) / 2}
	v.Dispatch(move(mid))
	v.Dispatch(move(to))
	v.Dispatch(up(to))
}

// --- lifecycle ---

func TestViewportPublishesSeed(t *testing.T) {
	v := NewViewport(NewTree("seed", 800, 600))
	defer v.Close()

	r := <-v.Updates()
	if r.ID != "seed" {
		t.Errorf("ID = %q, want %q", r.ID, "seed")
	}
}

func TestViewportCloseIsIdempotentAndFinal(t *testing.T) {
	v := NewViewport(NewTree("t", 800, 600))
	v.Close()
	v.Close()

	// Inputs after close are dropped, not deadlocked.
	v.Dispatch(down(Vec2{1, 1}))
	v.Resize(100, 100)
	v.Apply(AppendNode)

	for range v.Updates() {
	}
}

// --- external edits ---

func TestViewportApplyAppend(t *testing.T) {
	v := NewViewport(NewTree("t", 800, 600))
	defer v.Close()

	v.Apply(AppendNode)
	v.Apply(AppendNode)

	r := waitFor(t, v, "two nodes", func(r Root) bool {
		return len(r.Window.Plane.Nodes) == 2
	})
	assertSoleActive(t, r.Window.Plane, 1)
}

// --- click and drag through the full pipeline ---

func TestViewportClickSelectsNode(t *testing.T) {
	v := NewViewport(AppendNode(NewTree("t", 800, 600)))
	defer v.Close()
	seed := waitFor(t, v, "seed", func(r Root) bool { return len(r.Window.Plane.Nodes) == 1 })

	// Clear the append's selection by clicking empty space first.
	empty := canvasPos(seed, Vec2{50, 50})
	v.Dispatch(down(empty))
	v.Dispatch(up(empty))
	waitFor(t, v, "deselect", func(r Root) bool {
		return !r.Window.Plane.Nodes[0].Selected
	})

	pos := canvasPos(seed, Vec2{0, 0})
	v.Dispatch(down(pos))
	v.Dispatch(up(pos))
	r := waitFor(t, v, "selection", func(r Root) bool {
		return r.Window.Plane.Nodes[0].Selected
	})
	assertSoleActive(t, r.Window.Plane, 0)
}

func TestViewportDragMovesNode(t *testing.T) {
	v := NewViewport(AppendNode(NewTree("t", 800, 600)))
	defer v.Close()
	seed := v.Tree()
	start := canvasPos(seed, Vec2{0, 0})

	drag(v, start, start.Add(Vec2{60, 0}))

	r := waitFor(t, v, "node moved", func(r Root) bool {
		return r.Window.Plane.Nodes[0].M[4] > 1
	})
	pos := nodeFrame(r.PlaneFrame(), r.Window.Plane.Nodes[0]).Apply(Vec2{0, 0})
	assertVec(t, "on-screen position", pos, start.Add(Vec2{60, 0}))
}

func TestViewportPanOnEmptySpace(t *testing.T) {
	v := NewViewport(AppendNode(NewTree("t", 800, 600)))
	defer v.Close()
	seed := v.Tree()

	from := canvasPos(seed, Vec2{50, 50})
	drag(v, from, from.Add(Vec2{-80, 0}))

	r := waitFor(t, v, "pan", func(r Root) bool {
		return r.Window.Plane.M[4] != seed.Window.Plane.M[4]
	})
	before := seed.PlaneFrame().Apply(Vec2{0, 0})
	after := r.PlaneFrame().Apply(Vec2{0, 0})
	assertVec(t, "screen delta", after.Sub(before), Vec2{-80, 0})

	if r.Window.Plane.Nodes[0].Selected {
		t.Error("pan kept the selection")
	}
}

func TestViewportWheelZoomsWithClamp(t *testing.T) {
	v := NewViewport(NewTree("t", 800, 600))
	defer v.Close()

	for i := 0; i < 20; i++ {
		v.Dispatch(wheel(Vec2{400, 300}, -500))
	}
	waitFor(t, v, "zoom clamp", func(r Root) bool {
		l := vecLen(r.PlaneFrame().ApplyVec(Vec2{1, 1}))
		return l > maxDiagonalPx-epsilon && l < maxDiagonalPx+epsilon
	})
}

// --- edge linking end to end ---

func TestViewportDragLinksAnchorToForeignInput(t *testing.T) {
	seed := testTree(testNode(0, -4, 0, nil, true), testNode(1, 4, 0, nil, true))
	v := NewViewport(seed)
	defer v.Close()

	drag(v, anchorPos(t, seed, 0, 0), inEdgePos(t, seed, 1))

	r := waitFor(t, v, "link + repair", func(r Root) bool {
		n, ok := r.Window.Plane.NodeByKey(0)
		return ok && len(n.Outs) == 2 && n.Outs[0].LinkedTo == 1
	})
	n, _ := r.Window.Plane.NodeByKey(0)
	assertTrailing(t, n)
}

func TestViewportDragAnchorToNowhereStaysOpen(t *testing.T) {
	seed := testTree(testNode(0, -4, 0, nil, true), testNode(1, 4, 0, nil, true))
	v := NewViewport(seed)
	defer v.Close()

	drag(v, anchorPos(t, seed, 0, 0), canvasPos(seed, Vec2{0, 3}))

	// The anchor floated during the drag; release clears the endpoint
	// and the anchor count is unchanged.
	r := waitFor(t, v, "float cleared", func(r Root) bool {
		n, ok := r.Window.Plane.NodeByKey(0)
		if !ok || len(n.Outs) != 1 {
			return false
		}
		return n.Outs[0].Open()
	})
	n, _ := r.Window.Plane.NodeByKey(0)
	assertTrailing(t, n)
}

// --- resize ---

func TestViewportResizePreservesZoom(t *testing.T) {
	v := NewViewport(AppendNode(NewTree("t", 800, 600)))
	defer v.Close()
	seed := v.Tree()
	before := vecLen(seed.PlaneFrame().ApplyVec(Vec2{1, 1}))

	v.Resize(400, 1200)

	r := waitFor(t, v, "resize", func(r Root) bool {
		return r.Width == 400 && r.Height == 1200
	})
	after := vecLen(r.PlaneFrame().ApplyVec(Vec2{1, 1}))
	assertNear(t, "pixels per unit", after, before)
}

func TestViewportResizeIgnoresDegenerateSize(t *testing.T) {
	v := NewViewport(NewTree("t", 800, 600))
	defer v.Close()

	v.Resize(0, 600)
	v.Resize(800, 400)

	r := waitFor(t, v, "valid resize", func(r Root) bool {
		return r.Height == 400
	})
	if r.Width != 800 {
		t.Errorf("width = %v, want 800 (zero-size resize must be dropped)", r.Width)
	}
}

// --- deleted node teardown ---

func TestViewportStaleControllerCannotResurrectNode(t *testing.T) {
	v := NewViewport(AppendNode(NewTree("t", 800, 600)))
	defer v.Close()
	seed := v.Tree()
	pos := canvasPos(seed, Vec2{0, 0})

	// Press the node, then delete it mid-gesture and release.
	v.Dispatch(down(pos))
	v.Apply(DeleteSelected)
	waitFor(t, v, "deleted", func(r Root) bool {
		return len(r.Window.Plane.Nodes) == 0
	})
	v.Dispatch(up(pos))

	// Append a fresh node; it gets a key the dead controller never owned,
	// so nothing the old gesture emits can land on it.
	v.Apply(AppendNode)
	r := waitFor(t, v, "fresh node", func(r Root) bool {
		return len(r.Window.Plane.Nodes) == 1
	})
	time.Sleep(20 * time.Millisecond)
	r = v.Tree()
	if len(r.Window.Plane.Nodes) != 1 {
		t.Fatalf("node count = %d, want 1", len(r.Window.Plane.Nodes))
	}
	if got := r.Window.Plane.Nodes[0].Key; got != 1 {
		t.Errorf("fresh node key = %d, want 1 (deleted key must not return)", got)
	}
}
