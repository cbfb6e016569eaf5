package reframe

import (
	"image"
	"math"
)

// Rectangle is an axis-aligned rectangle in frame space: top-left origin, Y grows downward.
type Rectangle struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func NewRect(x, y, width, height float64) Rectangle {
	return Rectangle{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

func NewRectFrom(rect image.Rectangle) Rectangle {
	return Rectangle{
		X:      float64(rect.Min.X),
		Y:      float64(rect.Min.Y),
		Width:  float64(rect.Dx()),
		Height: float64(rect.Dy()),
	}
}

// MaxX returns right edge of rectangle
func (r Rectangle) MaxX() float64 {
	return r.X + r.Width
}

// MaxY returns bottom edge of rectangle
func (r Rectangle) MaxY() float64 {
	return r.Y + r.Height
}

// Center returns center of rectangle
func (r Rectangle) Center() Point {
	return Point{
		X: r.X + r.Width/2.0,
		Y: r.Y + r.Height/2.0,
	}
}

// Area returns area of rectangle
func (r Rectangle) Area() float64 {
	return r.Width * r.Height
}

// Diagonal returns length of rectangle's diagonal
func (r Rectangle) Diagonal() float64 {
	return math.Sqrt(math.Pow(r.Width, 2) + math.Pow(r.Height, 2))
}

// Offset returns copy of rectangle moved by (dx, dy)
func (r Rectangle) Offset(dx, dy float64) Rectangle {
	return Rectangle{
		X:      r.X + dx,
		Y:      r.Y + dy,
		Width:  r.Width,
		Height: r.Height,
	}
}

// Size returns rectangle's size
func (r Rectangle) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Covers reports whether r fully contains other (edges may touch).
func (r Rectangle) Covers(other Rectangle) bool {
	return r.X <= other.X && r.Y <= other.Y && r.MaxX() >= other.MaxX() && r.MaxY() >= other.MaxY()
}

// Degenerate reports whether rectangle has zero, negative or non-finite dimensions
// or a non-finite origin.
func (r Rectangle) Degenerate() bool {
	if !isFinite(r.X) || !isFinite(r.Y) || !isFinite(r.Width) || !isFinite(r.Height) {
		return true
	}
	return r.Width <= 0 || r.Height <= 0
}

type Point struct {
	X float64
	Y float64
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

func NewPointFrom(point image.Point) Point {
	return Point{
		X: float64(point.X),
		Y: float64(point.Y),
	}
}

// Size is width and height pair
type Size struct {
	Width  float64
	Height float64
}

func NewSize(width, height float64) Size {
	return Size{
		Width:  width,
		Height: height,
	}
}

// Center returns center of the area [0, Width]x[0, Height]
func (s Size) Center() Point {
	return Point{X: s.Width / 2.0, Y: s.Height / 2.0}
}

// Rect returns rectangle with origin at (0, 0) and given size
func (s Size) Rect() Rectangle {
	return Rectangle{Width: s.Width, Height: s.Height}
}

// Degenerate reports whether size has zero, negative or non-finite dimensions
func (s Size) Degenerate() bool {
	return s.Rect().Degenerate()
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(float64(p1.X-p2.X), 2) + math.Pow(float64(p1.Y-p2.Y), 2))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
