package patchbay

import "math"

// vecLen returns the Euclidean length of v.
func vecLen(v Vec2) float64 { return math.Hypot(v.X, v.Y) }

// Mat is a 2D affine matrix with layout [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
//
// A scene node's matrix maps its local coordinates into its parent's
// coordinates. A frame is a node-local→canvas matrix obtained by composing
// ancestor matrices root-down; the frame algebra below works on frames.
type Mat [6]float64

// Identity is the identity affine matrix.
var Identity = Mat{1, 0, 0, 1, 0, 0}

// Translate returns a pure translation matrix.
func Translate(tx, ty float64) Mat { return Mat{1, 0, 0, 1, tx, ty} }

// Scale returns a pure scale matrix.
func Scale(sx, sy float64) Mat { return Mat{sx, 0, 0, sy, 0, 0} }

// Mul returns m * n (apply n first, then m).
func (m Mat) Mul(n Mat) Mat {
	return Mat{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

// Invert returns the inverse of m. A degenerate (non-invertible) matrix is a
// precondition violation: frames are built only from invertible pieces, so
// this panics rather than limping along with a wrong answer.
func (m Mat) Invert() Mat {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		panic("patchbay: inverting a singular matrix")
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Mat{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// Apply transforms the point p by m.
func (m Mat) Apply(p Vec2) Vec2 {
	return Vec2{m[0]*p.X + m[2]*p.Y + m[4], m[1]*p.X + m[3]*p.Y + m[5]}
}

// ApplyVec transforms the direction v by m, ignoring translation.
func (m Mat) ApplyVec(v Vec2) Vec2 {
	return Vec2{m[0]*v.X + m[2]*v.Y, m[1]*v.X + m[3]*v.Y}
}

// TransformPoint converts the point p from one frame to another by composing
// to⁻¹ · from.
func TransformPoint(p Vec2, from, to Mat) Vec2 {
	return to.Invert().Mul(from).Apply(p)
}

// TransformVec converts the direction v between frames. Unlike points,
// directions are unaffected by the frames' translations.
func TransformVec(v Vec2, from, to Mat) Vec2 {
	return to.Invert().Mul(from).ApplyVec(v)
}

// TranslatedIn returns a copy of the node matrix m shifted by delta, where
// delta is expressed in the frame ref and parent is the frame m maps into.
// Rotation and scale are unchanged; children follow automatically because
// their local matrices compose with the result.
func TranslatedIn(m Mat, delta Vec2, ref, parent Mat) Mat {
	d := TransformVec(delta, ref, parent)
	return Translate(d.X, d.Y).Mul(m)
}

// ScaledAt returns a copy of the node matrix m scaled by factors about pivot,
// with pivot expressed in the frame m maps into. Used for zoom: the point
// under the pivot stays fixed.
func ScaledAt(m Mat, factors Vec2, pivot Vec2) Mat {
	s := Translate(pivot.X, pivot.Y).
		Mul(Scale(factors.X, factors.Y)).
		Mul(Translate(-pivot.X, -pivot.Y))
	return s.Mul(m)
}
