package patchbay

import "math"

// The node controller owns one GraphNode's interactions: selection and
// activation on click, promotion and move on drag, plus one edge controller
// per output anchor. Selection rules that cross sibling boundaries (only
// one active node, exclusive select) are emitted upward as plane-scope
// mutations; everything the node can decide alone is self-scope.

type nodePhase uint8

const (
	nodeIdle nodePhase = iota
	nodePressed
	nodeDragging
)

// nodeState is the per-node pointer state machine.
type nodeState struct {
	phase        nodePhase
	pressPos     Vec2
	lastPos      Vec2
	pressShift   bool
	wasActive    bool
	wasSelected  bool
	onlySelected bool
}

// nodeEmit is one step's output: either or both scopes may be nil.
type nodeEmit struct {
	self   Mutation[GraphNode]
	parent Mutation[Plane]
}

// nodeStep advances the state machine for the node with the given key.
func nodeStep(s nodeState, key int, re routedEvent) (nodeState, []nodeEmit) {
	switch re.ev.Type {
	case EventPointerDown:
		n, ok := re.snap.Window.Plane.NodeByKey(key)
		if !ok {
			return s, nil
		}
		only := n.Selected
		for _, sib := range re.snap.Window.Plane.Nodes {
			if sib.Key != key && sib.Selected {
				only = false
				break
			}
		}
		return nodeState{
			phase:        nodePressed,
			pressPos:     re.ev.Pos,
			lastPos:      re.ev.Pos,
			pressShift:   re.ev.Shift,
			wasActive:    n.Active,
			wasSelected:  n.Selected,
			onlySelected: only,
		}, nil

	case EventPointerMove:
		switch s.phase {
		case nodePressed:
			d := re.ev.Pos.Sub(s.pressPos)
			if math.Hypot(d.X, d.Y) <= dragDeadZone {
				return s, nil
			}
			s.phase = nodeDragging
			var emits []nodeEmit
			switch {
			case s.wasActive:
				// Already active: just move.
			case s.wasSelected || s.pressShift:
				emits = append(emits, nodeEmit{parent: promoteActive(key)})
			default:
				emits = append(emits, nodeEmit{parent: exclusiveSelect(key)})
			}
			if em, ok := moveEmit(s.lastPos, re.ev.Pos, re.snap); ok {
				emits = append(emits, em)
			}
			s.lastPos = re.ev.Pos
			return s, emits
		case nodeDragging:
			var emits []nodeEmit
			if em, ok := moveEmit(s.lastPos, re.ev.Pos, re.snap); ok {
				emits = append(emits, em)
			}
			s.lastPos = re.ev.Pos
			return s, emits
		}
		return s, nil

	case EventPointerUp:
		phase := s.phase
		s.phase = nodeIdle
		if phase != nodePressed {
			return s, nil
		}
		// Click.
		switch {
		case s.pressShift && s.wasActive:
			return s, []nodeEmit{{self: deselectSelf()}}
		case s.pressShift:
			return s, []nodeEmit{{parent: promoteActive(key)}}
		case s.wasActive && s.onlySelected:
			return s, []nodeEmit{{self: deselectSelf()}}
		default:
			return s, []nodeEmit{{parent: exclusiveSelect(key)}}
		}
	}
	return s, nil
}

// moveEmit builds a "move all selected by delta" emission, converting the
// pointer delta from canvas to plane coordinates. Zero-delta samples are
// suppressed.
func moveEmit(from, to Vec2, snap Root) (nodeEmit, bool) {
	d := to.Sub(from)
	if d.X == 0 && d.Y == 0 {
		return nodeEmit{}, false
	}
	dp := TransformVec(d, Identity, snap.PlaneFrame())
	return nodeEmit{parent: moveSelected(dp)}, true
}

// deselectSelf drops the node back to idle.
func deselectSelf() Mutation[GraphNode] {
	return func(n GraphNode) GraphNode {
		n.Selected = false
		n.Active = false
		return n
	}
}

const noAnchor = -1

// nodeController wraps the state machine and the per-anchor edge
// controllers in a goroutine. The plane controller feeds it routed events
// and snapshots; closing events and snaps tears everything down. Self
// carries node-scope mutations, Parent carries plane-scope mutations from
// the node and its anchors, interleaved concurrently.
type nodeController struct {
	key    int
	events chan<- routedEvent
	snaps  chan<- Root
	Self   <-chan Mutation[GraphNode]
	Parent <-chan Mutation[Plane]
}

func newNodeController(key int) *nodeController {
	evIn, evOut := mailbox[routedEvent]()
	snapIn := make(chan Root)
	snapOut := Conflate(snapIn)

	selfOut := make(chan Mutation[GraphNode])
	parentInner := make(chan (<-chan Mutation[Plane]))
	c := &nodeController{
		key:    key,
		events: evIn,
		snaps:  snapIn,
		Self:   selfOut,
		Parent: FlattenAll(parentInner),
	}

	go c.loop(evOut, snapOut, selfOut, parentInner)
	return c
}

func (c *nodeController) loop(
	evOut <-chan routedEvent,
	snapOut <-chan Root,
	selfOut chan Mutation[GraphNode],
	parentInner chan (<-chan Mutation[Plane]),
) {
	parentDirect := make(chan Mutation[Plane])
	parentInner <- parentDirect

	edges := make(map[int]*edgeController)
	var st nodeState
	activeAnchor := noAnchor

	reconcile := func(snap Root) {
		n, ok := snap.Window.Plane.NodeByKey(c.key)
		if !ok {
			return
		}
		seen := make(map[int]bool, len(n.Outs))
		for _, o := range n.Outs {
			seen[o.Key] = true
			if edges[o.Key] == nil {
				e := newEdgeController(c.key, o.Key)
				edges[o.Key] = e
				parentInner <- e.Out
			}
		}
		for k, e := range edges {
			if !seen[k] {
				close(e.events)
				delete(edges, k)
				if k == activeAnchor {
					activeAnchor = noAnchor
				}
			}
		}
	}

	defer func() {
		for _, e := range edges {
			close(e.events)
		}
		close(selfOut)
		close(parentDirect)
		close(parentInner)
		if snapOut != nil {
			for range snapOut {
			}
		}
	}()

	for {
		select {
		case re, ok := <-evOut:
			if !ok {
				return
			}
			reconcile(re.snap)

			// An in-flight anchor drag captures every event until release.
			if activeAnchor != noAnchor {
				if e := edges[activeAnchor]; e != nil {
					e.events <- re
				}
				if re.ev.Type == EventPointerUp {
					activeAnchor = noAnchor
				}
				continue
			}

			if re.ev.Type == EventPointerDown &&
				re.target.kind == targetOutEdge && re.target.node == c.key {
				if e := edges[re.target.anchor]; e != nil {
					activeAnchor = re.target.anchor
					e.events <- re
				}
				continue
			}

			var emits []nodeEmit
			st, emits = nodeStep(st, c.key, re)
			for _, em := range emits {
				if em.self != nil {
					selfOut <- em.self
				}
				if em.parent != nil {
					parentDirect <- em.parent
				}
			}

		case snap, ok := <-snapOut:
			if !ok {
				snapOut = nil
				continue
			}
			reconcile(snap)
		}
	}
}
