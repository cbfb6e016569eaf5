package reframe

import "fmt"

// Origin is the coordinate origin convention of a normalized box
type Origin uint16

const (
	// OriginBottomLeft means Y is measured upward from the bottom edge of the image (Vision-style detectors)
	OriginBottomLeft Origin = iota
	// OriginTopLeft means Y is measured downward from the top edge of the image (image rows)
	OriginTopLeft
)

func (o Origin) String() string {
	switch o {
	case OriginBottomLeft:
		return "bottom-left"
	case OriginTopLeft:
		return "top-left"
	default:
		return fmt.Sprintf("Origin(%d)", uint16(o))
	}
}

// ParseOrigin parses "bottom-left" / "top-left"
func ParseOrigin(s string) (Origin, error) {
	switch s {
	case "bottom-left", "bottomleft", "bl":
		return OriginBottomLeft, nil
	case "top-left", "topleft", "tl":
		return OriginTopLeft, nil
	default:
		return OriginBottomLeft, fmt.Errorf("unknown origin convention: '%s'", s)
	}
}

// NormalizedBox is a bounding box with coordinates in [0, 1] relative to the image it was
// measured in. (X, Y) is the corner closest to the origin given by Origin.
type NormalizedBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Origin Origin
}

func NewNormalizedBox(x, y, width, height float64, origin Origin) NormalizedBox {
	return NormalizedBox{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
		Origin: origin,
	}
}

// Area returns normalized area of the box
func (box NormalizedBox) Area() float64 {
	return box.Width * box.Height
}

// ToTopLeft returns the same region expressed with the top-left origin convention
func (box NormalizedBox) ToTopLeft() NormalizedBox {
	if box.Origin == OriginTopLeft {
		return box
	}
	return NormalizedBox{
		X:      box.X,
		Y:      1.0 - box.Y - box.Height,
		Width:  box.Width,
		Height: box.Height,
		Origin: OriginTopLeft,
	}
}

// ToBottomLeft returns the same region expressed with the bottom-left origin convention
func (box NormalizedBox) ToBottomLeft() NormalizedBox {
	if box.Origin == OriginBottomLeft {
		return box
	}
	return NormalizedBox{
		X:      box.X,
		Y:      1.0 - box.Y - box.Height,
		Width:  box.Width,
		Height: box.Height,
		Origin: OriginBottomLeft,
	}
}

// In returns the box converted to the given origin convention
func (box NormalizedBox) In(origin Origin) NormalizedBox {
	if origin == OriginTopLeft {
		return box.ToTopLeft()
	}
	return box.ToBottomLeft()
}

// Denormalize returns the frame-space rectangle of the box inside imageRect.
func (box NormalizedBox) Denormalize(imageRect Rectangle) Rectangle {
	tl := box.ToTopLeft()
	return Rectangle{
		X:      imageRect.X + tl.X*imageRect.Width,
		Y:      imageRect.Y + tl.Y*imageRect.Height,
		Width:  tl.Width * imageRect.Width,
		Height: tl.Height * imageRect.Height,
	}
}

// NormalizeRect is the inverse of Denormalize: it expresses rect relative to imageRect using the
// given origin convention.
func NormalizeRect(rect Rectangle, imageRect Rectangle, origin Origin) NormalizedBox {
	tl := NormalizedBox{
		X:      (rect.X - imageRect.X) / imageRect.Width,
		Y:      (rect.Y - imageRect.Y) / imageRect.Height,
		Width:  rect.Width / imageRect.Width,
		Height: rect.Height / imageRect.Height,
		Origin: OriginTopLeft,
	}
	return tl.In(origin)
}

// Finite reports whether every coordinate of the box is a finite number
func (box NormalizedBox) Finite() bool {
	return isFinite(box.X) && isFinite(box.Y) && isFinite(box.Width) && isFinite(box.Height)
}
