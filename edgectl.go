package patchbay

// The edge controller turns a drag that starts on an output anchor into
// linking mutations: while the pointer floats freely the anchor tracks it
// with a floating endpoint, while it hovers a foreign input anchor the
// anchor carries a link candidate, and on release the trailing-anchor
// invariant is repaired.
//
// Everything an edge emits travels over one stream, already lifted to
// plane scope. The repair on release only makes sense after the link or
// float that precedes it, and a single channel is what keeps that order
// intact all the way to the applier.

// routedEvent pairs a raw pointer event with the hit-test result and the
// tree snapshot current at dispatch time. Controllers read geometry from
// the snapshot; they never hold a shared mutable tree.
type routedEvent struct {
	ev     PointerEvent
	target hitTarget
	snap   Root
}

// edgeState is the per-anchor drag state machine.
type edgeState struct {
	dragging  bool
	candidate int // last emitted link candidate, NoLink when floating
	lastTo    Vec2
	hasLast   bool
}

// anchorLifted scopes an anchor mutation to the plane through the keyed
// accessors, so a stale node or anchor key degrades to the identity.
func anchorLifted(nodeKey, anchorKey int, m Mutation[OutEdge]) Mutation[Plane] {
	return func(p Plane) Plane {
		return applyKeyed(p, Keyed[GraphNode]{Key: nodeKey, Mut: func(n GraphNode) GraphNode {
			return applyKeyed(n, Keyed[OutEdge]{Key: anchorKey, Mut: m}, nodeOuts)
		}}, planeNodes)
	}
}

// edgeStep advances the drag state machine for the anchor anchorKey on node
// nodeKey. Identical consecutive hover states are suppressed so the same
// candidate or endpoint is never re-emitted.
func edgeStep(s edgeState, nodeKey, anchorKey int, re routedEvent) (edgeState, []Mutation[Plane]) {
	switch re.ev.Type {
	case EventPointerDown:
		return edgeState{dragging: true, candidate: NoLink}, nil

	case EventPointerMove:
		if !s.dragging {
			return s, nil
		}
		if target, ok := hoverInEdge(re.snap, re.ev.Pos, nodeKey); ok {
			if target == s.candidate {
				return s, nil
			}
			s.candidate = target
			s.hasLast = false
			return s, []Mutation[Plane]{anchorLifted(nodeKey, anchorKey, linkCandidate(target))}
		}
		to := TransformPoint(re.ev.Pos, Identity, re.snap.PlaneFrame())
		if s.candidate == NoLink && s.hasLast && to == s.lastTo {
			return s, nil
		}
		s.candidate = NoLink
		s.lastTo = to
		s.hasLast = true
		return s, []Mutation[Plane]{anchorLifted(nodeKey, anchorKey, floatTo(to))}

	case EventPointerUp:
		if !s.dragging {
			return s, nil
		}
		var muts []Mutation[Plane]
		if s.candidate != NoLink {
			muts = append(muts, anchorLifted(nodeKey, anchorKey, clearFloat()))
		}
		muts = append(muts, repairAnchors(nodeKey, anchorKey))
		return edgeState{candidate: NoLink}, muts
	}
	return s, nil
}

// linkCandidate marks the anchor as linked to target, dropping any floating
// endpoint.
func linkCandidate(target int) Mutation[OutEdge] {
	return func(o OutEdge) OutEdge {
		o.LinkedTo = target
		o.HasTo = false
		o.To = Vec2{}
		return o
	}
}

// floatTo sets a floating endpoint in plane coordinates, dropping any link.
func floatTo(to Vec2) Mutation[OutEdge] {
	return func(o OutEdge) OutEdge {
		o.LinkedTo = NoLink
		o.To = to
		o.HasTo = true
		return o
	}
}

// clearFloat removes the floating endpoint, keeping the link.
func clearFloat() Mutation[OutEdge] {
	return func(o OutEdge) OutEdge {
		o.HasTo = false
		o.To = Vec2{}
		return o
	}
}

// edgeController wraps the state machine in a goroutine fed by the owning
// node controller. Closing events tears it down; Out closes when the loop
// exits.
type edgeController struct {
	events chan<- routedEvent
	Out    <-chan Mutation[Plane]
}

func newEdgeController(nodeKey, anchorKey int) *edgeController {
	evIn, evOut := mailbox[routedEvent]()
	out := make(chan Mutation[Plane])

	go func() {
		defer close(out)
		var st edgeState
		for re := range evOut {
			var muts []Mutation[Plane]
			st, muts = edgeStep(st, nodeKey, anchorKey, re)
			for _, m := range muts {
				out <- m
			}
		}
	}()

	return &edgeController{events: evIn, Out: out}
}
