package ebitencanvas

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/patchbaykit/patchbay"
)

// Config tunes the canvas driver. The zero value takes DefaultTheme and
// leaves scroll animation at its default speed.
type Config struct {
	Theme *Theme
}

// Canvas adapts a [patchbay.Viewport] to the [ebiten.Game] interface. Each
// Update polls the mouse into pointer events for the viewport; each Draw
// renders the most recent snapshot the viewport has published.
type Canvas struct {
	vp    *patchbay.Viewport
	theme Theme

	tree patchbay.Root

	mouseDown bool
	lastX     float64
	lastY     float64

	width  float64
	height float64

	scroll *scrollAnim
}

// scrollAnim animates the plane toward a target with per-axis tweens, fed
// to the viewport as pan mutations.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	prevX  float32
	prevY  float32
}

// New wraps a running viewport. The caller keeps ownership: closing the
// viewport is the caller's job, after the game loop exits.
func New(vp *patchbay.Viewport, cfg Config) *Canvas {
	theme := DefaultTheme
	if cfg.Theme != nil {
		theme = *cfg.Theme
	}
	return &Canvas{vp: vp, theme: theme, tree: vp.Tree()}
}

// Tree returns the snapshot the canvas drew last.
func (c *Canvas) Tree() patchbay.Root { return c.tree }

// ScrollTo animates the view so the given plane-space point ends up at the
// canvas center, over duration seconds.
func (c *Canvas) ScrollTo(target patchbay.Vec2, duration float32) {
	onScreen := patchbay.TransformPoint(target, c.tree.PlaneFrame(), patchbay.Identity)
	c.scroll = &scrollAnim{
		tweenX: gween.New(float32(onScreen.X), float32(c.width/2), duration, ease.OutQuad),
		tweenY: gween.New(float32(onScreen.Y), float32(c.height/2), duration, ease.OutQuad),
		prevX:  float32(onScreen.X),
		prevY:  float32(onScreen.Y),
	}
}

// Update implements ebiten.Game. It never returns an error; closing the
// window is the host's concern.
func (c *Canvas) Update() error {
	select {
	case tree, ok := <-c.vp.Updates():
		if ok {
			c.tree = tree
		}
	default:
	}

	c.pollMouse()
	c.stepScroll()
	return nil
}

// pollMouse turns ebiten's polled mouse state into the event stream the
// viewport expects: a down edge, moves while anything changed, an up edge,
// and wheel deltas.
func (c *Canvas) pollMouse() {
	mx, my := ebiten.CursorPosition()
	x, y := float64(mx), float64(my)
	pos := patchbay.Vec2{X: x, Y: y}
	shift := ebiten.IsKeyPressed(ebiten.KeyShift) ||
		ebiten.IsKeyPressed(ebiten.KeyShiftLeft) ||
		ebiten.IsKeyPressed(ebiten.KeyShiftRight)

	down := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	switch {
	case down && !c.mouseDown:
		c.vp.Dispatch(patchbay.PointerEvent{
			Type: patchbay.EventPointerDown, Pos: pos, Shift: shift,
		})
	case down && (x != c.lastX || y != c.lastY):
		c.vp.Dispatch(patchbay.PointerEvent{
			Type: patchbay.EventPointerMove, Pos: pos, Shift: shift,
		})
	case !down && c.mouseDown:
		c.vp.Dispatch(patchbay.PointerEvent{
			Type: patchbay.EventPointerUp, Pos: pos, Shift: shift,
		})
	}
	c.mouseDown = down
	c.lastX, c.lastY = x, y

	if _, wy := ebiten.Wheel(); wy != 0 {
		c.vp.Dispatch(patchbay.PointerEvent{
			Type: patchbay.EventWheel, Pos: pos, WheelDY: -wy * 40, Shift: shift,
		})
	}
}

// stepScroll advances an active scroll animation by one tick, emitting the
// frame's delta as a pan.
func (c *Canvas) stepScroll() {
	if c.scroll == nil {
		return
	}
	const dt = 1.0 / 60
	sx, doneX := c.scroll.tweenX.Update(dt)
	sy, doneY := c.scroll.tweenY.Update(dt)
	dx := float64(sx - c.scroll.prevX)
	dy := float64(sy - c.scroll.prevY)
	c.scroll.prevX, c.scroll.prevY = sx, sy
	if dx != 0 || dy != 0 {
		c.vp.Apply(patchbay.Pan(patchbay.Vec2{X: dx, Y: dy}))
	}
	if doneX && doneY {
		c.scroll = nil
	}
}

// Draw implements ebiten.Game.
func (c *Canvas) Draw(screen *ebiten.Image) {
	Draw(screen, c.tree, c.theme)
}

// Layout implements ebiten.Game, forwarding container size changes to the
// viewport.
func (c *Canvas) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := float64(outsideWidth), float64(outsideHeight)
	if w != c.width || h != c.height {
		c.width, c.height = w, h
		c.vp.Resize(w, h)
	}
	return outsideWidth, outsideHeight
}
