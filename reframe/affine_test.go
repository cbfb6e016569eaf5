package reframe

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func transformsAlmostEqual(a, b AffineTransform) bool {
	return math.Abs(a.A-b.A) < eps && math.Abs(a.B-b.B) < eps &&
		math.Abs(a.C-b.C) < eps && math.Abs(a.D-b.D) < eps &&
		math.Abs(a.Tx-b.Tx) < eps && math.Abs(a.Ty-b.Ty) < eps
}

func TestAffineConcatOrder(t *testing.T) {
	translate := NewTranslation(10, 0)
	scale := NewScale(2, 2)
	p := Point{X: 1, Y: 1}

	// Translate first, then scale
	answer := translate.Concat(scale).ApplyPoint(p)
	correctAnswer := Point{X: 22, Y: 2}
	if answer != correctAnswer {
		t.Errorf("Wrong point: %v, correct answer: %v", answer, correctAnswer)
	}

	// Scale first, then translate
	answer = scale.Concat(translate).ApplyPoint(p)
	correctAnswer = Point{X: 12, Y: 2}
	if answer != correctAnswer {
		t.Errorf("Wrong point: %v, correct answer: %v", answer, correctAnswer)
	}
}

func TestAffineIdentity(t *testing.T) {
	tr := AffineTransform{A: 1.5, B: 0.1, C: -0.2, D: 0.7, Tx: 3, Ty: -4}
	if Identity().Concat(tr) != tr || tr.Concat(Identity()) != tr {
		t.Error("Identity should be neutral element of Concat")
	}
	if !Identity().IsIdentity() {
		t.Error("Identity should report IsIdentity")
	}
	if NewTranslation(1, 0).IsIdentity() {
		t.Error("Translation should not report IsIdentity")
	}
}

func TestAffineApplyRect(t *testing.T) {
	tr := NewScale(2, 3).Concat(NewTranslation(-10, 5))
	rect := tr.ApplyRect(NewRect(10, 10, 100, 50))
	expected := NewRect(10, 35, 200, 150)
	if !rectsAlmostEqual(rect, expected) {
		t.Errorf("Wrong rect: %v, expected: %v", rect, expected)
	}

	// Negative scale flips, bounding box stays positive
	flipped := NewScale(-1, 1).ApplyRect(NewRect(10, 0, 20, 10))
	expected = NewRect(-30, 0, 20, 10)
	if !rectsAlmostEqual(flipped, expected) {
		t.Errorf("Wrong flipped rect: %v, expected: %v", flipped, expected)
	}
}

func TestAffineInvert(t *testing.T) {
	tr := NewTranslation(432, -17).Concat(NewScale(1.8, 1.8)).Concat(NewTranslation(-777.6, 3))
	inv, err := tr.Invert()
	if err != nil {
		t.Fatalf("Invert failed: %v", err)
	}
	if !transformsAlmostEqual(tr.Concat(inv), Identity()) {
		t.Errorf("Transform concatenated with its inverse should be identity: %+v", tr.Concat(inv))
	}
	p := Point{X: 123, Y: 456}
	back := inv.ApplyPoint(tr.ApplyPoint(p))
	if euclideanDistance(p, back) > eps {
		t.Errorf("Wrong point after round trip: %v, expected: %v", back, p)
	}
}

func TestAffineInvertSingular(t *testing.T) {
	_, err := NewScale(0, 1).Invert()
	if !errors.Is(err, ErrDegenerateGeometry) {
		t.Errorf("Expected ErrDegenerateGeometry, got: %v", err)
	}
}

func TestAffineDenseRoundTrip(t *testing.T) {
	tr := AffineTransform{A: 1.5, B: 0.1, C: -0.2, D: 0.7, Tx: 3, Ty: -4}
	back := AffineFromDense(tr.Dense())
	if back != tr {
		t.Errorf("Wrong transform: %+v, expected: %+v", back, tr)
	}
}
