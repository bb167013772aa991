package patchbay

import "sync"

// Viewport is the top-level orchestrator and the externally visible surface
// of the interaction core. It owns the Root→Window→Plane nesting, applies
// every mutation from a single goroutine in arrival order, and publishes
// immutable snapshots: mutation production is concurrent, application is
// serialized, and copy-on-write keeps previously published snapshots valid.
type Viewport struct {
	plane *planeController

	applyIn  chan<- Mutation[Root]
	resizeIn chan<- ResizeEvent

	mu     sync.Mutex
	tree   Root
	closed bool

	updates  <-chan Root
	updateIn chan Root
	done     chan struct{}
}

// NewViewport starts the interaction pipeline seeded with the given tree.
// Feed it pointer events with Dispatch and container sizes with Resize;
// read snapshots with Tree or Updates. Call Close to tear the pipeline
// down.
func NewViewport(seed Root) *Viewport {
	applyIn, applyOut := mailbox[Mutation[Root]]()
	resizeIn, resizeOut := mailbox[ResizeEvent]()
	updateIn := make(chan Root)

	v := &Viewport{
		plane:    newPlaneController(),
		applyIn:  applyIn,
		resizeIn: resizeIn,
		tree:     seed,
		updateIn: updateIn,
		updates:  Conflate(updateIn),
		done:     make(chan struct{}),
	}

	muts := Merge(
		MapChan(v.plane.Out, liftPlane),
		applyOut,
		MapChan(resizeOut, func(e ResizeEvent) Mutation[Root] {
			return resized(e.Width, e.Height)
		}),
	)

	go v.run(muts)
	return v
}

// run is the single applier: one mutation at a time against the shared
// tree, in emission order, then snapshot fan-out.
func (v *Viewport) run(muts <-chan Mutation[Root]) {
	v.publish(v.tree)
	for m := range muts {
		v.mu.Lock()
		v.tree = m(v.tree)
		next := v.tree
		v.mu.Unlock()
		v.publish(next)
	}
	close(v.plane.snaps)
	close(v.updateIn)
	for range v.updates {
	}
	close(v.done)
}

func (v *Viewport) publish(tree Root) {
	v.plane.snaps <- tree
	v.updateIn <- tree
}

// Dispatch feeds one raw pointer event into the pipeline. Events arriving
// after Close are dropped.
func (v *Viewport) Dispatch(ev PointerEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.plane.events <- ev
}

// Resize notifies the pipeline that the hosting container changed size.
func (v *Viewport) Resize(width, height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.resizeIn <- ResizeEvent{Width: width, Height: height}
}

// Apply queues an external mutation (AppendNode, DeleteSelected, Pan, …).
// It is applied in order with the interaction-produced mutations.
func (v *Viewport) Apply(m Mutation[Root]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.applyIn <- m
}

// Tree returns the current snapshot. The returned value is immutable: no
// later mutation will modify it.
func (v *Viewport) Tree() Root {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tree
}

// Updates returns a conflated snapshot stream for the renderer: a slow
// consumer always sees the latest tree, never a backlog. The channel closes
// after Close.
func (v *Viewport) Updates() <-chan Root {
	return v.updates
}

// Close tears down the pipeline and waits for it to drain.
func (v *Viewport) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	close(v.plane.events)
	close(v.applyIn)
	close(v.resizeIn)
	<-v.done
}

// liftPlane scopes a plane mutation to the root.
func liftPlane(m Mutation[Plane]) Mutation[Root] {
	return func(r Root) Root {
		r.Window.Plane = m(r.Window.Plane)
		return r
	}
}

// resized recomputes the window matrix for the new container size and
// rescales the plane so its pixels-per-unit is unchanged: the visual zoom
// level survives a resize.
func resized(w, h float64) Mutation[Root] {
	return func(r Root) Root {
		if w <= 0 || h <= 0 {
			return r
		}
		old := r.Window.M
		win := windowMatrix(w, h)
		r.Width = w
		r.Height = h
		r.Window.M = win
		if old[0] != 0 && old[3] != 0 {
			r.Window.Plane.M = Scale(old[0]/win[0], old[3]/win[3]).Mul(r.Window.Plane.M)
		}
		return r
	}
}
