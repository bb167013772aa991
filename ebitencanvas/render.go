package ebitencanvas

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/patchbaykit/patchbay"
)

// Theme holds the renderer's palette. The zero value is unusable; use
// DefaultTheme as a starting point.
type Theme struct {
	Background   color.RGBA
	NodeFill     color.RGBA
	NodeStroke   color.RGBA
	SelectStroke color.RGBA
	ActiveStroke color.RGBA
	Anchor       color.RGBA
	AnchorLinked color.RGBA
	Edge         color.RGBA
	EdgeFloating color.RGBA
}

// DefaultTheme is a dark palette in the spirit of most patcher UIs.
var DefaultTheme = Theme{
	Background:   color.RGBA{0x23, 0x1e, 0x2d, 0xff},
	NodeFill:     color.RGBA{0x3a, 0x34, 0x4a, 0xff},
	NodeStroke:   color.RGBA{0x6a, 0x62, 0x80, 0xff},
	SelectStroke: color.RGBA{0xc8, 0xb4, 0x50, 0xff},
	ActiveStroke: color.RGBA{0xff, 0xe0, 0x66, 0xff},
	Anchor:       color.RGBA{0x87, 0x7f, 0x9e, 0xff},
	AnchorLinked: color.RGBA{0x4d, 0xb6, 0x7a, 0xff},
	Edge:         color.RGBA{0x4d, 0xb6, 0x7a, 0xff},
	EdgeFloating: color.RGBA{0xc8, 0xb4, 0x50, 0xff},
}

// Draw renders one tree snapshot onto dst. Geometry is projected through
// the tree's own frames, so pan and zoom fall out of the matrices and the
// renderer never keeps state of its own.
func Draw(dst *ebiten.Image, tree patchbay.Root, theme Theme) {
	dst.Fill(theme.Background)

	planeFrame := tree.PlaneFrame()
	nodes := tree.Window.Plane.Nodes

	// Edges first so they run under the node boxes. Back-to-front
	// overall, matching hit-test order front-to-back.
	for i := len(nodes) - 1; i >= 0; i-- {
		drawEdges(dst, tree, nodes[i], theme)
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		drawNode(dst, planeFrame, nodes[i], theme)
	}
}

func drawEdges(dst *ebiten.Image, tree patchbay.Root, n patchbay.GraphNode, theme Theme) {
	planeFrame := tree.PlaneFrame()
	nf := planeFrame.Mul(n.M)
	for _, o := range n.Outs {
		from := nf.Mul(o.M).Apply(patchbay.Vec2{})
		switch {
		case o.Resolved():
			target, ok := tree.Window.Plane.NodeByKey(o.LinkedTo)
			if !ok {
				continue
			}
			to := planeFrame.Mul(target.M).Mul(target.In.M).Apply(patchbay.Vec2{})
			strokeLine(dst, from, to, theme.Edge)
		case o.HasTo:
			to := planeFrame.Apply(o.To)
			strokeLine(dst, from, to, theme.EdgeFloating)
		}
	}
}

func drawNode(dst *ebiten.Image, planeFrame patchbay.Mat, n patchbay.GraphNode, theme Theme) {
	nf := planeFrame.Mul(n.M)

	tl := nf.Apply(patchbay.Vec2{X: n.Box.X, Y: n.Box.Y + n.Box.Height})
	br := nf.Apply(patchbay.Vec2{X: n.Box.X + n.Box.Width, Y: n.Box.Y})
	x, y := float32(tl.X), float32(tl.Y)
	w, h := float32(br.X-tl.X), float32(br.Y-tl.Y)

	vector.DrawFilledRect(dst, x, y, w, h, theme.NodeFill, true)
	stroke := theme.NodeStroke
	if n.Active {
		stroke = theme.ActiveStroke
	} else if n.Selected {
		stroke = theme.SelectStroke
	}
	vector.StrokeRect(dst, x, y, w, h, 1.5, stroke, true)

	drawAnchor(dst, nf.Mul(n.In.M), theme.Anchor)
	for _, o := range n.Outs {
		c := theme.Anchor
		if o.Resolved() {
			c = theme.AnchorLinked
		}
		drawAnchor(dst, nf.Mul(o.M), c)
	}

	if n.Title != "" {
		ebitenutil.DebugPrintAt(dst, n.Title, int(x)+4, int(y)+2)
	}
}

func drawAnchor(dst *ebiten.Image, frame patchbay.Mat, c color.RGBA) {
	center := frame.Apply(patchbay.Vec2{})
	edge := frame.Apply(patchbay.Vec2{X: 1})
	r := float32(vecDist(center, edge))
	if r < 2 {
		r = 2
	}
	vector.DrawFilledCircle(dst, float32(center.X), float32(center.Y), r, c, true)
}

func strokeLine(dst *ebiten.Image, from, to patchbay.Vec2, c color.RGBA) {
	vector.StrokeLine(dst,
		float32(from.X), float32(from.Y),
		float32(to.X), float32(to.Y),
		1.5, c, true)
}

func vecDist(a, b patchbay.Vec2) float64 {
	d := b.Sub(a)
	return math.Hypot(d.X, d.Y)
}
