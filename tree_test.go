package patchbay

import "testing"

// testNode builds a node at plane position (x, y) with one input anchor,
// the given resolved links, and a trailing open anchor when trailing is
// true. Anchor keys are 0..n-1.
func testNode(key int, x, y float64, links []int, trailing bool) GraphNode {
	n := GraphNode{
		Key: key,
		M:   Translate(x, y).Mul(Scale(nodeFrameScale, nodeFrameScale)),
		Box: Rect{X: -1, Y: -0.6, Width: 2, Height: 1.2},
		In: InEdge{
			M:         Scale(anchorFrameScale, anchorFrameScale),
			Box:       Rect{X: -1, Y: -1, Width: 2, Height: 2},
			ParentKey: key,
		},
	}
	var outs []OutEdge
	for i, to := range links {
		outs = append(outs, OutEdge{
			Key:       i,
			M:         Scale(anchorFrameScale, anchorFrameScale),
			Box:       Rect{X: -1, Y: -1, Width: 2, Height: 2},
			ParentKey: key,
			LinkedTo:  to,
		})
	}
	if trailing {
		outs = append(outs, OutEdge{
			Key:       len(links),
			M:         Scale(anchorFrameScale, anchorFrameScale),
			Box:       Rect{X: -1, Y: -1, Width: 2, Height: 2},
			ParentKey: key,
			LinkedTo:  NoLink,
		})
	}
	n = n.withOuts(outs)
	n = placeInEdge(n)
	return respaceOuts(n)
}

// testTree builds an 800×600 tree holding the given nodes, front first.
func testTree(nodes ...GraphNode) Root {
	r := NewTree("test", 800, 600)
	r.Window.Plane.Nodes = nodes
	return r
}

// --- frames ---

func TestPlaneFrameComposes(t *testing.T) {
	r := testTree()
	want := r.Window.M.Mul(r.Window.Plane.M)
	assertMatrix(t, "plane frame", r.PlaneFrame(), want)
}

func TestNodeFrame(t *testing.T) {
	n := testNode(7, 2, 3, nil, true)
	r := testTree(n)

	got, ok := r.NodeFrame(7)
	if !ok {
		t.Fatal("NodeFrame(7) not found")
	}
	assertMatrix(t, "node frame", got, r.PlaneFrame().Mul(n.M))

	if _, ok := r.NodeFrame(99); ok {
		t.Error("NodeFrame(99) found a node that does not exist")
	}
}

// --- lookups ---

func TestNodeByKey(t *testing.T) {
	r := testTree(testNode(3, 0, 0, nil, true), testNode(1, 5, 5, nil, true))
	p := r.Window.Plane

	n, ok := p.NodeByKey(1)
	if !ok || n.Key != 1 {
		t.Fatalf("NodeByKey(1) = %v, %v", n.Key, ok)
	}
	if _, ok := p.NodeByKey(2); ok {
		t.Error("NodeByKey(2) found a node that does not exist")
	}
}

func TestMaxKey(t *testing.T) {
	if got := (Plane{}).MaxKey(); got != -1 {
		t.Errorf("empty MaxKey = %d, want -1", got)
	}
	p := testTree(testNode(3, 0, 0, nil, true), testNode(8, 0, 0, nil, true)).Window.Plane
	if got := p.MaxKey(); got != 8 {
		t.Errorf("MaxKey = %d, want 8", got)
	}
}

func TestOutByKey(t *testing.T) {
	n := testNode(0, 0, 0, []int{5}, true)
	o, ok := n.OutByKey(1)
	if !ok || o.Key != 1 || !o.Open() {
		t.Fatalf("OutByKey(1) = %+v, %v", o, ok)
	}
	if _, ok := n.OutByKey(9); ok {
		t.Error("OutByKey(9) found an anchor that does not exist")
	}
}

// --- anchor predicates ---

func TestAnchorPredicates(t *testing.T) {
	tests := []struct {
		name     string
		o        OutEdge
		resolved bool
		open     bool
	}{
		{"open", OutEdge{LinkedTo: NoLink}, false, true},
		{"resolved", OutEdge{LinkedTo: 4}, true, false},
		{"floating", OutEdge{LinkedTo: NoLink, HasTo: true, To: Vec2{1, 2}}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.o.Resolved(); got != tt.resolved {
				t.Errorf("Resolved = %v, want %v", got, tt.resolved)
			}
			if got := tt.o.Open(); got != tt.open {
				t.Errorf("Open = %v, want %v", got, tt.open)
			}
		})
	}
}

// --- copy-on-write ---

func TestWithNodeLeavesOriginalUntouched(t *testing.T) {
	before := testTree(testNode(0, 0, 0, nil, true), testNode(1, 5, 5, nil, true))
	p := before.Window.Plane

	changed := p.Nodes[0]
	changed.Selected = true
	after := p.withNode(0, changed)

	if p.Nodes[0].Selected {
		t.Error("withNode modified the original plane")
	}
	if !after.Nodes[0].Selected {
		t.Error("withNode did not apply the change")
	}
}

func TestWithOutsLeavesOriginalUntouched(t *testing.T) {
	n := testNode(0, 0, 0, []int{3}, true)
	outs := make([]OutEdge, len(n.Outs))
	copy(outs, n.Outs)
	outs[0].LinkedTo = 7

	after := n.withOuts(outs)
	if n.Outs[0].LinkedTo != 3 {
		t.Error("withOuts modified the original node")
	}
	if after.Outs[0].LinkedTo != 7 {
		t.Error("withOuts did not apply the change")
	}
}
