package pipeline

import (
	"image"
	"math"

	"github.com/LdDl/reframe-go/reframe"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Slack for floating point noise when snapping the source window to whole pixels
const pixelSnap = 1e-6

// Upper bound of the intermediate image relative to the output, per axis
const maxScaledExtent = 4

// Renderer resamples frames into the output frame size
type Renderer struct {
	filter imaging.ResampleFilter
}

// NewRenderer creates renderer with given resampling filter
func NewRenderer(filter imaging.ResampleFilter) *Renderer {
	return &Renderer{filter: filter}
}

// NewRendererDefault creates renderer with Lanczos filter
func NewRendererDefault() *Renderer {
	return NewRenderer(imaging.Lanczos)
}

// ParseFilter returns resampling filter by name
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	switch name {
	case "lanczos":
		return imaging.Lanczos, nil
	case "linear":
		return imaging.Linear, nil
	case "catmullrom":
		return imaging.CatmullRom, nil
	case "box":
		return imaging.Box, nil
	case "nearest":
		return imaging.NearestNeighbor, nil
	default:
		return imaging.ResampleFilter{}, errors.Errorf("unknown resampling filter: '%s'", name)
	}
}

func outputDims(output reframe.Size) (int, int, error) {
	if output.Degenerate() {
		return 0, 0, errors.Wrapf(reframe.ErrDegenerateGeometry, "output size %vx%v", output.Width, output.Height)
	}
	width, height := int(math.Round(output.Width)), int(math.Round(output.Height))
	if width <= 0 || height <= 0 {
		return 0, 0, errors.Wrapf(reframe.ErrDegenerateGeometry, "output size %dx%d", width, height)
	}
	return width, height, nil
}

// Render applies transform (source pixel space to output frame space) to src and samples the
// output window. Only axis-aligned transforms (translation and scale) are supported.
func (renderer *Renderer) Render(src image.Image, transform reframe.AffineTransform, output reframe.Size) (*image.NRGBA, error) {
	width, height, err := outputDims(output)
	if err != nil {
		return nil, err
	}
	if !transform.IsAxisAligned() {
		return nil, errors.Errorf("transform %+v has rotation or shear component", transform)
	}
	inverse, err := transform.Invert()
	if err != nil {
		return nil, err
	}
	bounds := src.Bounds()
	window := inverse.ApplyRect(output.Rect()).Offset(float64(bounds.Min.X), float64(bounds.Min.Y))
	if window.Degenerate() {
		return nil, errors.Wrapf(reframe.ErrDegenerateGeometry, "source window %+v", window)
	}
	cropRect := image.Rect(
		int(math.Floor(window.X+pixelSnap)),
		int(math.Floor(window.Y+pixelSnap)),
		int(math.Ceil(window.MaxX()-pixelSnap)),
		int(math.Ceil(window.MaxY()-pixelSnap)),
	).Intersect(bounds)
	if cropRect.Empty() {
		return nil, errors.Wrapf(reframe.ErrDegenerateGeometry, "source window %+v is outside of image %v", window, bounds)
	}
	cropped := imaging.Crop(src, cropRect)

	// Scale the whole-pixel crop with the window's own factors, then cut the output at the
	// fractional window offset. Aspect is kept and centering error stays under one output pixel.
	scaleX := float64(width) / window.Width
	scaleY := float64(height) / window.Height
	scaledWidth := int(math.Round(float64(cropRect.Dx()) * scaleX))
	scaledHeight := int(math.Round(float64(cropRect.Dy()) * scaleY))
	if scaledWidth < width || scaledHeight < height || scaledWidth > maxScaledExtent*width || scaledHeight > maxScaledExtent*height {
		// Window is clipped by the image bounds or scaling is extreme
		return imaging.Resize(cropped, width, height, renderer.filter), nil
	}
	scaled := imaging.Resize(cropped, scaledWidth, scaledHeight, renderer.filter)
	offsetX := clampInt(int(math.Round((window.X-float64(cropRect.Min.X))*scaleX)), 0, scaledWidth-width)
	offsetY := clampInt(int(math.Round((window.Y-float64(cropRect.Min.Y))*scaleY)), 0, scaledHeight-height)
	return imaging.Crop(scaled, image.Rect(offsetX, offsetY, offsetX+width, offsetY+height)), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Fit scales src to fill the output frame and crops the center. Used when there is no subject.
func (renderer *Renderer) Fit(src image.Image, output reframe.Size) (*image.NRGBA, error) {
	width, height, err := outputDims(output)
	if err != nil {
		return nil, err
	}
	if src.Bounds().Empty() {
		return nil, errors.Wrap(reframe.ErrDegenerateGeometry, "empty source image")
	}
	return imaging.Fill(src, width, height, imaging.Center, renderer.filter), nil
}
