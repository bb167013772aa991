package patchbay

import "math"

// The plane controller owns the node collection's shared interactions: pan,
// zoom, and click-to-deselect on empty space. It is also the router: every
// pointer event is hit-tested here against the current snapshot and handed
// to the per-node controller that owns the hit, with pointer capture for
// in-flight drags. Node controllers are keyed by node identity, never by
// list position: when a key disappears from a snapshot its controller is
// torn down, so a removed node's handlers can never leak mutations onto a
// newcomer reusing its slot.

// zoomWheelFactor converts wheel deltaY into an exponential scale step.
const zoomWheelFactor = 0.002

type planePhase uint8

const (
	planeIdle planePhase = iota
	planePressed
	planePanning
)

// planeState is the background pan/click state machine.
type planeState struct {
	phase    planePhase
	pressPos Vec2
	lastPos  Vec2
}

// planeStep advances the background state machine. windowM is the window
// frame from the snapshot current at dispatch time; it only changes on
// resize, which cannot happen mid-drag.
func planeStep(s planeState, ev PointerEvent, windowM Mat) (planeState, []Mutation[Plane]) {
	switch ev.Type {
	case EventPointerDown:
		return planeState{phase: planePressed, pressPos: ev.Pos, lastPos: ev.Pos}, nil

	case EventPointerMove:
		switch s.phase {
		case planePressed:
			d := ev.Pos.Sub(s.pressPos)
			if math.Hypot(d.X, d.Y) <= dragDeadZone {
				return s, nil
			}
			s.phase = planePanning
			muts := []Mutation[Plane]{deselectAll()}
			if m, ok := panEmit(s.lastPos, ev.Pos, windowM); ok {
				muts = append(muts, m)
			}
			s.lastPos = ev.Pos
			return s, muts
		case planePanning:
			var muts []Mutation[Plane]
			if m, ok := panEmit(s.lastPos, ev.Pos, windowM); ok {
				muts = append(muts, m)
			}
			s.lastPos = ev.Pos
			return s, muts
		}
		return s, nil

	case EventPointerUp:
		phase := s.phase
		s.phase = planeIdle
		if phase == planePressed {
			// Click on empty space.
			return s, []Mutation[Plane]{deselectAll()}
		}
		return s, nil
	}
	return s, nil
}

// panEmit translates the plane by the pointer delta, converted from canvas
// to window coordinates (the plane's parent frame). Zero deltas are
// suppressed.
func panEmit(from, to Vec2, windowM Mat) (Mutation[Plane], bool) {
	d := to.Sub(from)
	if d.X == 0 && d.Y == 0 {
		return nil, false
	}
	dw := TransformVec(d, Identity, windowM)
	return func(p Plane) Plane {
		p.M = Translate(dw.X, dw.Y).Mul(p.M)
		return p
	}, true
}

// zoomAt scales the plane about the pointer position, clamped so the
// on-screen length of a unit plane diagonal stays within
// [minDiagonalPx, maxDiagonalPx] regardless of the wheel delta.
func zoomAt(pos Vec2, deltaY float64, windowM Mat) Mutation[Plane] {
	return func(p Plane) Plane {
		f := math.Exp(-deltaY * zoomWheelFactor)
		l := vecLen(windowM.Mul(p.M).ApplyVec(Vec2{1, 1}))
		if l <= 0 {
			return p
		}
		f = math.Max(f, minDiagonalPx/l)
		f = math.Min(f, maxDiagonalPx/l)
		pivot := TransformPoint(pos, Identity, windowM)
		p.M = ScaledAt(p.M, Vec2{f, f}, pivot)
		return p
	}
}

// nodeHandle bundles the channels the router owns for one child controller.
type nodeHandle struct {
	ctl *nodeController
}

func (h nodeHandle) teardown() {
	close(h.ctl.events)
	close(h.ctl.snaps)
}

// planeController is the composition root for the node collection. Out
// carries every plane-scope mutation: its own pan/zoom/deselect, the nodes'
// upward mutations, and the nodes' self mutations lifted by key.
type planeController struct {
	events chan<- PointerEvent
	snaps  chan<- Root
	Out    <-chan Mutation[Plane]
}

func newPlaneController() *planeController {
	evIn, evOut := mailbox[PointerEvent]()
	snapIn := make(chan Root)
	snapOut := Conflate(snapIn)
	inner := make(chan (<-chan Mutation[Plane]))

	c := &planeController{
		events: evIn,
		snaps:  snapIn,
		Out:    FlattenAll(inner),
	}
	go c.loop(evOut, snapOut, inner)
	return c
}

func (c *planeController) loop(
	evOut <-chan PointerEvent,
	snapOut <-chan Root,
	inner chan (<-chan Mutation[Plane]),
) {
	own := make(chan Mutation[Plane])
	inner <- own

	nodes := make(map[int]nodeHandle)
	var st planeState
	captured := noCapture
	var cur Root
	haveSnap := false

	reconcile := func(snap Root) {
		cur = snap
		haveSnap = true
		seen := make(map[int]bool, len(snap.Window.Plane.Nodes))
		for _, n := range snap.Window.Plane.Nodes {
			seen[n.Key] = true
			h, ok := nodes[n.Key]
			if !ok {
				ctl := newNodeController(n.Key)
				h = nodeHandle{ctl: ctl}
				nodes[n.Key] = h
				inner <- LiftToParent(TagWithKey(n.Key, ctl.Self), planeNodes)
				inner <- ctl.Parent
			}
			h.ctl.snaps <- snap
		}
		for k, h := range nodes {
			if !seen[k] {
				h.teardown()
				delete(nodes, k)
				if captured == k {
					captured = noCapture
				}
			}
		}
	}

	defer func() {
		for _, h := range nodes {
			h.teardown()
		}
		close(own)
		close(inner)
		if snapOut != nil {
			for range snapOut {
			}
		}
	}()

	for {
		select {
		case ev, ok := <-evOut:
			if !ok {
				return
			}
			if !haveSnap {
				// The seed snapshot is always published before any
				// event can matter; wait for it instead of dropping
				// the event.
				if snap, ok := <-snapOut; ok {
					reconcile(snap)
				}
				if !haveSnap {
					continue
				}
			}
			c.route(ev, cur, &st, &captured, nodes, own)

		case snap, ok := <-snapOut:
			if !ok {
				snapOut = nil
				continue
			}
			reconcile(snap)
		}
	}
}

// noCapture means no node controller currently owns the pointer.
const noCapture = -1

// route dispatches one pointer event: to the capturing node while a drag is
// in flight, to the hit node on press, or into the background state
// machine. Wheel events always zoom, capture or not.
func (c *planeController) route(
	ev PointerEvent,
	cur Root,
	st *planeState,
	captured *int,
	nodes map[int]nodeHandle,
	own chan Mutation[Plane],
) {
	if ev.Type == EventWheel {
		own <- zoomAt(ev.Pos, ev.WheelDY, cur.WindowFrame())
		return
	}

	if *captured != noCapture {
		if h, ok := nodes[*captured]; ok {
			h.ctl.events <- routedEvent{ev: ev, target: hitTarget{}, snap: cur}
		}
		if ev.Type == EventPointerUp {
			*captured = noCapture
		}
		return
	}

	switch ev.Type {
	case EventPointerDown:
		target := hitTest(cur, ev.Pos)
		switch target.kind {
		case targetNode, targetInEdge, targetOutEdge:
			if h, ok := nodes[target.node]; ok {
				*captured = target.node
				h.ctl.events <- routedEvent{ev: ev, target: target, snap: cur}
				return
			}
		case targetPlane:
			var muts []Mutation[Plane]
			*st, muts = planeStep(*st, ev, cur.WindowFrame())
			for _, m := range muts {
				own <- m
			}
		}
	case EventPointerMove, EventPointerUp:
		var muts []Mutation[Plane]
		*st, muts = planeStep(*st, ev, cur.WindowFrame())
		for _, m := range muts {
			own <- m
		}
	}
}
