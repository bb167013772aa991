package patchbay

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertVec(t *testing.T, name string, got, want Vec2) {
	t.Helper()
	if math.Abs(got.X-want.X) > epsilon || math.Abs(got.Y-want.Y) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want Mat) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

// --- Mul ---

func TestMulIdentity(t *testing.T) {
	m := Mat{2, 1, 3, 4, 5, 6}
	assertMatrix(t, "id*m", Identity.Mul(m), m)
	assertMatrix(t, "m*id", m.Mul(Identity), m)
}

func TestMulTranslations(t *testing.T) {
	got := Translate(10, 20).Mul(Translate(5, 3))
	assertMatrix(t, "translations", got, Mat{1, 0, 0, 1, 15, 23})
}

func TestMulScaleThenTranslate(t *testing.T) {
	// Scale applied first (rightmost), then translate.
	got := Translate(10, 0).Mul(Scale(2, 3))
	assertMatrix(t, "T*S", got, Mat{2, 0, 0, 3, 10, 0})
	assertVec(t, "T*S apply", got.Apply(Vec2{1, 1}), Vec2{12, 3})
}

func TestMulNotCommutative(t *testing.T) {
	a := Scale(2, 2)
	b := Translate(5, 0)
	ab := a.Mul(b)
	ba := b.Mul(a)
	assertVec(t, "S*T", ab.Apply(Vec2{0, 0}), Vec2{10, 0})
	assertVec(t, "T*S", ba.Apply(Vec2{0, 0}), Vec2{5, 0})
}

// --- Invert ---

func TestInvert(t *testing.T) {
	m := Mat{2, 0, 0, 3, 10, 20}
	assertMatrix(t, "m*inv", m.Mul(m.Invert()), Identity)
	assertMatrix(t, "inv*m", m.Invert().Mul(m), Identity)
}

func TestInvertGeneral(t *testing.T) {
	m := Mat{2, 1, -1, 3, 7, -4}
	assertMatrix(t, "m*inv", m.Mul(m.Invert()), Identity)
}

func TestInvertSingularPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Invert on a singular matrix did not panic")
		}
	}()
	Mat{1, 2, 2, 4, 0, 0}.Invert()
}

// --- Apply / ApplyVec ---

func TestApplyVecIgnoresTranslation(t *testing.T) {
	m := Translate(100, 200).Mul(Scale(2, 3))
	assertVec(t, "point", m.Apply(Vec2{1, 1}), Vec2{102, 203})
	assertVec(t, "vector", m.ApplyVec(Vec2{1, 1}), Vec2{2, 3})
}

// --- TransformPoint / TransformVec ---

func TestTransformPointRoundTrip(t *testing.T) {
	from := Translate(3, 4).Mul(Scale(2, 2))
	to := Translate(-1, 5).Mul(Scale(0.5, 4))
	p := Vec2{1.25, -7}
	back := TransformPoint(TransformPoint(p, from, to), to, from)
	assertVec(t, "round trip", back, p)
}

func TestTransformPointAcrossFrames(t *testing.T) {
	// Point at local (1,0) in a frame scaled 2x and shifted +10 in x,
	// expressed in an unshifted unit frame.
	from := Translate(10, 0).Mul(Scale(2, 2))
	got := TransformPoint(Vec2{1, 0}, from, Identity)
	assertVec(t, "across", got, Vec2{12, 0})
}

func TestTransformVecRoundTrip(t *testing.T) {
	from := Translate(3, 4).Mul(Scale(2, 5))
	to := Scale(0.25, 8)
	v := Vec2{-2, 0.5}
	back := TransformVec(TransformVec(v, from, to), to, from)
	assertVec(t, "round trip", back, v)
}

// --- TranslatedIn ---

func TestTranslatedIn(t *testing.T) {
	// A 10px screen delta in a window that maps [-1,1] to 100px is a 0.2
	// unit delta in window coordinates.
	win := windowMatrix(100, 100)
	m := Translate(1, 2)
	got := TranslatedIn(m, Vec2{10, 0}, Identity, win)
	assertMatrix(t, "pan", got, Translate(0.2, 0).Mul(m))
}

func TestTranslatedInFlipsY(t *testing.T) {
	win := windowMatrix(100, 100)
	got := TranslatedIn(Identity, Vec2{0, 10}, Identity, win)
	// Screen Y grows downward, window Y grows upward.
	assertMatrix(t, "flip", got, Translate(0, -0.2))
}

// --- ScaledAt ---

func TestScaledAtKeepsPivotFixed(t *testing.T) {
	m := Translate(3, -2).Mul(Scale(2, 2))
	pivot := Vec2{0.5, 0.25}
	got := ScaledAt(m, Vec2{3, 3}, pivot)

	// The parent-space pivot maps to the same parent-space point before
	// and after, while vectors grow by the factor.
	local := m.Invert().Apply(pivot)
	assertVec(t, "pivot fixed", got.Apply(local), pivot)
	assertVec(t, "vectors scaled", got.ApplyVec(Vec2{1, 0}), Vec2{6, 0})
}

func TestScaledAtOrigin(t *testing.T) {
	got := ScaledAt(Identity, Vec2{2, 2}, Vec2{0, 0})
	assertMatrix(t, "at origin", got, Scale(2, 2))
}

// --- benchmarks ---

func BenchmarkMul(b *testing.B) {
	m := Translate(3, 4).Mul(Scale(2, 2))
	n := Translate(-1, 5)
	for b.Loop() {
		_ = m.Mul(n)
	}
}

func BenchmarkTransformPoint(b *testing.B) {
	from := Translate(3, 4).Mul(Scale(2, 2))
	to := Translate(-1, 5).Mul(Scale(0.5, 4))
	for b.Loop() {
		_ = TransformPoint(Vec2{1, 1}, from, to)
	}
}
