package reframe

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ConvergencePolicy decides when the subject counts as centered
type ConvergencePolicy uint16

const (
	// ConvergenceAnyAxis stops as soon as one axis is within tolerance (|dx| < tol OR |dy| < tol)
	ConvergenceAnyAxis ConvergencePolicy = iota
	// ConvergenceAllAxes stops only when both axes are within tolerance
	ConvergenceAllAxes
)

func (p ConvergencePolicy) String() string {
	switch p {
	case ConvergenceAnyAxis:
		return "any-axis"
	case ConvergenceAllAxes:
		return "all-axes"
	default:
		return fmt.Sprintf("ConvergencePolicy(%d)", uint16(p))
	}
}

// ParseConvergencePolicy parses "any-axis" / "all-axes"
func ParseConvergencePolicy(s string) (ConvergencePolicy, error) {
	switch s {
	case "any-axis", "any", "or":
		return ConvergenceAnyAxis, nil
	case "all-axes", "all", "and":
		return ConvergenceAllAxes, nil
	default:
		return ConvergenceAnyAxis, fmt.Errorf("unknown convergence policy: '%s'", s)
	}
}

const (
	DefaultTolerance     = 1.0
	DefaultMaxIterations = 64
)

// Options for Engine
type Options struct {
	// Max distance (in output pixels) between subject center and frame center. Default 1.0
	Tolerance float64
	// Max number of correction steps. Default 64
	MaxIterations int
	// Default is ConvergenceAnyAxis
	Policy ConvergencePolicy
}

// DefaultOptions returns default engine options
func DefaultOptions() Options {
	return Options{
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		Policy:        ConvergenceAnyAxis,
	}
}

// Engine computes reframing transforms. It holds no per-frame state and is safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngineDefault creates engine with DefaultOptions
func NewEngineDefault() *Engine {
	return &Engine{opts: DefaultOptions()}
}

// NewEngine creates engine with given options. Non-positive values fall back to defaults.
func NewEngine(opts Options) *Engine {
	if opts.Tolerance <= 0 || !isFinite(opts.Tolerance) {
		opts.Tolerance = DefaultTolerance
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	return &Engine{opts: opts}
}

// Options returns engine's options
func (engine *Engine) Options() Options {
	return engine.opts
}

// StepState is the state threaded through the correction loop
type StepState struct {
	// Current image rect in frame space
	ImageRect Rectangle
	// Transform accumulated so far
	Transform AffineTransform
	// Subject center minus output frame center
	Offset Point
}

// Result of Engine.Transform
type Result struct {
	Transform  AffineTransform
	ImageRect  Rectangle
	Offset     Point
	Iterations int
	Converged  bool
}

func (state StepState) finite() bool {
	t := state.Transform
	for _, v := range []float64{state.Offset.X, state.Offset.Y, t.A, t.B, t.C, t.D, t.Tx, t.Ty} {
		if !isFinite(v) {
			return false
		}
	}
	return !state.ImageRect.Degenerate()
}

// InitialState builds the loop state before any correction is applied
func InitialState(imageRect Rectangle, box NormalizedBox, output Size) StepState {
	return StepState{
		ImageRect: imageRect,
		Transform: Identity(),
		Offset:    subjectOffset(imageRect, box, output),
	}
}

// subjectOffset re-derives subject rect against the given image rect and returns its center offset
// from the output frame center.
func subjectOffset(imageRect Rectangle, box NormalizedBox, output Size) Point {
	subjectCenter := box.Denormalize(imageRect).Center()
	frameCenter := output.Center()
	return Point{
		X: subjectCenter.X - frameCenter.X,
		Y: subjectCenter.Y - frameCenter.Y,
	}
}

// Step performs a single correction: translate the subject toward the center, scale to close the
// gap opened by the translation, re-anchor the image to the output edges and recompute the offset.
func Step(state StepState, box NormalizedBox, output Size) StepState {
	offset := state.Offset
	imageRect := state.ImageRect
	transform := state.Transform

	translate := NewTranslation(-offset.X, -offset.Y)
	imageRect = translate.ApplyRect(imageRect)
	transform = transform.Concat(translate)

	// Larger offset decides the axis, ties go to Y
	var scaleValue float64
	if absFloat64(offset.Y) >= absFloat64(offset.X) {
		halfImage := imageRect.Height / 2.0
		scaleValue = (halfImage + absFloat64(offset.Y)) / halfImage
	} else {
		halfImage := imageRect.Width / 2.0
		scaleValue = (halfImage + absFloat64(offset.X)) / halfImage
	}
	// Uniform scale about the frame-space origin the transform is expressed in
	scale := NewScale(scaleValue, scaleValue)
	imageRect = scale.ApplyRect(imageRect)
	transform = transform.Concat(scale)

	translationX, translationY := anchorShift(imageRect, output)
	if translationX != 0 || translationY != 0 {
		anchor := NewTranslation(translationX, translationY)
		imageRect = anchor.ApplyRect(imageRect)
		transform = transform.Concat(anchor)
	}

	return StepState{
		ImageRect: imageRect,
		Transform: transform,
		Offset:    subjectOffset(imageRect, box, output),
	}
}

// anchorShift returns per-axis translation which pulls image edges back onto the output frame edges
func anchorShift(imageRect Rectangle, output Size) (float64, float64) {
	translationX := 0.0
	if imageRect.X > 0 {
		translationX = -imageRect.X
	} else if imageRect.MaxX() < output.Width {
		translationX = output.Width - imageRect.MaxX()
	}
	translationY := 0.0
	if imageRect.Y > 0 {
		translationY = -imageRect.Y
	} else if imageRect.MaxY() < output.Height {
		translationY = output.Height - imageRect.MaxY()
	}
	return translationX, translationY
}

// Centered reports whether offset satisfies the engine's convergence policy
func (engine *Engine) Centered(offset Point) bool {
	dx := absFloat64(offset.X) < engine.opts.Tolerance
	dy := absFloat64(offset.Y) < engine.opts.Tolerance
	if engine.opts.Policy == ConvergenceAllAxes {
		return dx && dy
	}
	return dx || dy
}

// distance measures how far offset is from satisfying the convergence policy
func (engine *Engine) distance(offset Point) float64 {
	if engine.opts.Policy == ConvergenceAllAxes {
		return maxFloat64(absFloat64(offset.X), absFloat64(offset.Y))
	}
	return minFloat64(absFloat64(offset.X), absFloat64(offset.Y))
}

// Transform computes the affine transform which, applied to the image occupying imageRect, centers
// the subject inside the output frame while keeping the output frame covered by the image.
//
// On ErrDegenerateGeometry the returned Result must not be used.
// On ErrConvergenceExceeded the Result holds the state closest to convergence seen within the
// iteration cap (the initial state included). Iterations counts all steps taken.
func (engine *Engine) Transform(output Size, imageRect Rectangle, box NormalizedBox) (Result, error) {
	if output.Degenerate() {
		return Result{}, errors.Wrapf(ErrDegenerateGeometry, "output size %vx%v", output.Width, output.Height)
	}
	if imageRect.Degenerate() {
		return Result{}, errors.Wrapf(ErrDegenerateGeometry, "image rect %+v", imageRect)
	}
	if !box.Finite() {
		return Result{}, errors.Wrapf(ErrDegenerateGeometry, "subject box %+v", box)
	}

	state := InitialState(imageRect, box, output)
	if !state.finite() {
		return Result{}, errors.Wrapf(ErrDegenerateGeometry, "non-finite initial offset (%v, %v)", state.Offset.X, state.Offset.Y)
	}
	best := state
	bestDistance := engine.distance(state.Offset)
	iterations := 0
	for {
		if engine.Centered(state.Offset) {
			return Result{
				Transform:  state.Transform,
				ImageRect:  state.ImageRect,
				Offset:     state.Offset,
				Iterations: iterations,
				Converged:  true,
			}, nil
		}
		if iterations >= engine.opts.MaxIterations {
			break
		}
		next := Step(state, box, output)
		iterations++
		if !next.finite() {
			// Boxes far outside the unit square make the fold diverge
			logrus.WithFields(logrus.Fields{
				"function":   "Transform",
				"iterations": iterations,
			}).Debug("Correction diverged")
			break
		}
		state = next
		if d := engine.distance(state.Offset); d < bestDistance {
			best, bestDistance = state, d
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Transform",
		"iterations": iterations,
		"offset_x":   best.Offset.X,
		"offset_y":   best.Offset.Y,
	}).Debug("Iteration cap reached before subject was centered")

	return Result{
		Transform:  best.Transform,
		ImageRect:  best.ImageRect,
		Offset:     best.Offset,
		Iterations: iterations,
		Converged:  false,
	}, errors.Wrapf(ErrConvergenceExceeded, "best offset (%.3f, %.3f) after %d iterations", best.Offset.X, best.Offset.Y, iterations)
}

// Reframe maps a source image of size source onto the output frame (aspect fill) and then centers
// the subject. The returned transform maps source pixel space to output frame space.
func (engine *Engine) Reframe(source Size, output Size, box NormalizedBox) (Result, error) {
	fill, err := FillTransform(source, output)
	if err != nil {
		return Result{}, err
	}
	result, err := engine.Transform(output, fill.ApplyRect(source.Rect()), box)
	if err != nil && !errors.Is(err, ErrConvergenceExceeded) {
		return Result{}, err
	}
	result.Transform = fill.Concat(result.Transform)
	return result, err
}

// FillTransform scales the source to fill the output frame preserving aspect ratio and centers it.
// The transformed source always covers the output frame.
func FillTransform(source Size, output Size) (AffineTransform, error) {
	if source.Degenerate() {
		return AffineTransform{}, errors.Wrapf(ErrDegenerateGeometry, "source size %vx%v", source.Width, source.Height)
	}
	if output.Degenerate() {
		return AffineTransform{}, errors.Wrapf(ErrDegenerateGeometry, "output size %vx%v", output.Width, output.Height)
	}
	scaleToFillRatio := maxFloat64(output.Width/source.Width, output.Height/source.Height)
	translationX := output.Width/2.0 - source.Width*scaleToFillRatio/2.0
	translationY := output.Height/2.0 - source.Height*scaleToFillRatio/2.0
	return NewScale(scaleToFillRatio, scaleToFillRatio).Concat(NewTranslation(translationX, translationY)), nil
}
