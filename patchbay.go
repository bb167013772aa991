package patchbay

// Vec2 is a 2D point or direction, used for positions, deltas, and sizes
// throughout the API. Which interpretation applies depends on context:
// TransformPoint treats a Vec2 as a position, TransformVec as a direction.
type Vec2 struct {
	X, Y float64
}

// Add returns v + w.
func (v Vec2) Add(w Vec2) Vec2 { return Vec2{v.X + w.X, v.Y + w.Y} }

// Sub returns v - w.
func (v Vec2) Sub(w Vec2) Vec2 { return Vec2{v.X - w.X, v.Y - w.Y} }

// Rect is an axis-aligned rectangle in some node's local coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Center returns the rectangle's midpoint.
func (r Rect) Center() Vec2 {
	return Vec2{r.X + r.Width/2, r.Y + r.Height/2}
}

// EventType identifies a kind of pointer event.
type EventType uint8

const (
	EventPointerMove EventType = iota // fires when the pointer moves
	EventPointerDown                  // fires when the primary button is pressed
	EventPointerUp                    // fires when the primary button is released
	EventWheel                        // fires on scroll wheel movement
)

// PointerEvent is a raw pointer sample from the host event source.
// Pos is in canvas pixels. WheelDY is only meaningful for EventWheel.
type PointerEvent struct {
	Type    EventType
	Pos     Vec2
	WheelDY float64
	Shift   bool
}

// ResizeEvent carries the new size of the hosting container in pixels.
type ResizeEvent struct {
	Width, Height float64
}

const (
	// dragDeadZone is the minimum pointer travel in pixels before a press
	// becomes a drag rather than a click.
	dragDeadZone = 4.0

	// minDiagonalPx and maxDiagonalPx bound the on-screen length of a unit
	// diagonal of the plane. Zoom is clamped so the length never leaves
	// this range.
	minDiagonalPx = 5.0
	maxDiagonalPx = 10.0

	// nodeFrameScale is the scale of a freshly appended GraphNode's frame
	// in plane units; anchorFrameScale is the scale of an anchor's frame
	// in node units. Tuned visual defaults.
	nodeFrameScale   = 2.5
	anchorFrameScale = 0.1
)
