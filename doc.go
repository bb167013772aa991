// Package patchbay is the interaction core of a node-graph canvas editor
// for [Ebitengine].
//
// Patchbay models the canvas as an immutable value tree, Root → Window →
// Plane → GraphNode → anchors, positioned by affine frames ([Mat]). All
// editing flows through mutations: pure functions from one tree value to
// the next, produced concurrently by per-element controllers and applied
// one at a time by a [Viewport]. Rendering is out of scope; the
// patchbay/ebitencanvas subpackage draws a tree and feeds mouse input back
// in.
//
// # Quick start
//
// Seed a tree, start a viewport, feed it pointer events, and render
// whatever Updates delivers:
//
//	vp := patchbay.NewViewport(patchbay.NewTree("scratch", 800, 600))
//	defer vp.Close()
//
//	vp.Apply(patchbay.AppendNode)
//	vp.Dispatch(patchbay.PointerEvent{
//		Type: patchbay.EventPointerDown, Pos: patchbay.Vec2{X: 400, Y: 300},
//	})
//
//	for tree := range vp.Updates() {
//		draw(tree)
//	}
//
// The viewport dispatches events by hit-testing the current snapshot:
// presses on a node body select and drag it, presses on an anchor drag out
// an edge, presses on empty space pan the plane, and the wheel zooms about
// the pointer. Each gesture is a controller emitting mutations over
// channels; [Merge], [FlattenAll], and [LiftToParent] compose the streams
// so that every mutation arrives at the viewport already scoped to Root.
//
// # Coordinates
//
// Every element carries a matrix M mapping its local frame into its
// parent's. The window frame maps the unit square [-1,1]² onto the pixel
// canvas with Y flipped, so plane coordinates are Y-up while canvas
// coordinates are Y-down. [TransformPoint] and [TransformVec] convert
// between any two frames.
//
// Trees round-trip through JSON with [LoadTree] and [SaveTree].
//
// [Ebitengine]: https://ebitengine.org
package patchbay
