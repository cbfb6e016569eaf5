package reframe

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// AffineTransform is a 2D affine map:
//
//	x' = A*x + C*y + Tx
//	y' = B*x + D*y + Ty
type AffineTransform struct {
	A, B, C, D float64
	Tx, Ty     float64
}

// Identity returns the neutral transform
func Identity() AffineTransform {
	return AffineTransform{A: 1, D: 1}
}

// NewTranslation returns transform moving points by (tx, ty)
func NewTranslation(tx, ty float64) AffineTransform {
	return AffineTransform{A: 1, D: 1, Tx: tx, Ty: ty}
}

// NewScale returns transform scaling points about the coordinate origin
func NewScale(sx, sy float64) AffineTransform {
	return AffineTransform{A: sx, D: sy}
}

// Concat returns transform which applies t first and then next.
func (t AffineTransform) Concat(next AffineTransform) AffineTransform {
	return AffineTransform{
		A:  next.A*t.A + next.C*t.B,
		B:  next.B*t.A + next.D*t.B,
		C:  next.A*t.C + next.C*t.D,
		D:  next.B*t.C + next.D*t.D,
		Tx: next.A*t.Tx + next.C*t.Ty + next.Tx,
		Ty: next.B*t.Tx + next.D*t.Ty + next.Ty,
	}
}

// ApplyPoint maps a point through the transform
func (t AffineTransform) ApplyPoint(p Point) Point {
	return Point{
		X: t.A*p.X + t.C*p.Y + t.Tx,
		Y: t.B*p.X + t.D*p.Y + t.Ty,
	}
}

// ApplyRect returns the axis-aligned bounding box of the transformed rectangle
func (t AffineTransform) ApplyRect(r Rectangle) Rectangle {
	corners := [4]Point{
		t.ApplyPoint(Point{X: r.X, Y: r.Y}),
		t.ApplyPoint(Point{X: r.MaxX(), Y: r.Y}),
		t.ApplyPoint(Point{X: r.X, Y: r.MaxY()}),
		t.ApplyPoint(Point{X: r.MaxX(), Y: r.MaxY()}),
	}
	minX, minY := corners[0].X, corners[0].Y
	maxX, maxY := corners[0].X, corners[0].Y
	for _, c := range corners[1:] {
		minX = minFloat64(minX, c.X)
		minY = minFloat64(minY, c.Y)
		maxX = maxFloat64(maxX, c.X)
		maxY = maxFloat64(maxY, c.Y)
	}
	return Rectangle{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// IsIdentity reports whether transform is exactly the identity
func (t AffineTransform) IsIdentity() bool {
	return t == Identity()
}

// IsAxisAligned reports whether transform has no rotation or shear component
func (t AffineTransform) IsAxisAligned() bool {
	return t.B == 0 && t.C == 0
}

// Determinant of the linear part
func (t AffineTransform) Determinant() float64 {
	return t.A*t.D - t.B*t.C
}

// Dense returns the 3x3 homogeneous matrix (column-vector convention)
func (t AffineTransform) Dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		t.A, t.C, t.Tx,
		t.B, t.D, t.Ty,
		0, 0, 1,
	})
}

// AffineFromDense reads the affine part of a 3x3 homogeneous matrix
func AffineFromDense(m mat.Matrix) AffineTransform {
	return AffineTransform{
		A:  m.At(0, 0),
		C:  m.At(0, 1),
		Tx: m.At(0, 2),
		B:  m.At(1, 0),
		D:  m.At(1, 1),
		Ty: m.At(1, 2),
	}
}

// Invert returns the inverse transform. Singular transforms yield ErrDegenerateGeometry.
func (t AffineTransform) Invert() (AffineTransform, error) {
	det := t.Determinant()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return AffineTransform{}, errors.Wrapf(ErrDegenerateGeometry, "transform is not invertible (det=%v)", det)
	}
	var inv mat.Dense
	err := inv.Inverse(t.Dense())
	if err != nil {
		// mat.Condition only reports poor conditioning, the result is still computed
		if _, ok := err.(mat.Condition); !ok {
			return AffineTransform{}, errors.Wrap(ErrDegenerateGeometry, err.Error())
		}
	}
	return AffineFromDense(&inv), nil
}
