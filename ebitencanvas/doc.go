// Package ebitencanvas hosts a patchbay viewport inside an [Ebitengine]
// game loop: it polls mouse and keyboard state into pointer events, feeds
// them to the viewport, and draws the latest published tree with simple
// vector primitives.
//
//	canvas := ebitencanvas.New(vp, ebitencanvas.Config{})
//	if err := ebiten.RunGame(canvas); err != nil {
//		...
//	}
//
// The package renders nothing fancy: node boxes, anchors, and edge lines,
// with highlights for selection and activation. A host that wants its own
// look can drive the viewport directly and only borrow the input polling.
//
// [Ebitengine]: https://ebitengine.org
package ebitencanvas
