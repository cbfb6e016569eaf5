package reframe

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Smoother removes frame-to-frame jitter from the subject box using 8-D Kalman filter.
// State vector: [cx, cy, w, h, vx, vy, vw, vh] in source pixels.
type Smoother struct {
	dt       float64
	subject  uuid.UUID
	tracker  *kalman_filter.KalmanBBox
	lastBBox Rectangle
}

// NewSmootherWithTime creates a new Smoother with specified time step.
func NewSmootherWithTime(dt float64) *Smoother {
	return &Smoother{
		dt: dt,
	}
}

// NewSmoother creates a new Smoother with default time step of 1.0.
func NewSmoother() *Smoother {
	return NewSmootherWithTime(1.0)
}

func (smoother *Smoother) reset(subject uuid.UUID, bbox Rectangle) {
	centerX := bbox.X + bbox.Width/2.0
	centerY := bbox.Y + bbox.Height/2.0

	// Kalman filter props
	uCx := 1.0
	uCy := 1.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	smoother.tracker = kalman_filter.NewKalmanBBox(
		smoother.dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(centerX, centerY, bbox.Width, bbox.Height),
	)
	smoother.subject = subject
	smoother.lastBBox = bbox
}

// Reset drops filter state
func (smoother *Smoother) Reset() {
	smoother.tracker = nil
	smoother.subject = uuid.Nil
	smoother.lastBBox = Rectangle{}
}

// Smooth returns the filtered box for the given subject. Filter is reinitialized when subject
// changes or when the box center jumps farther than the previous box diagonal.
func (smoother *Smoother) Smooth(subject uuid.UUID, box NormalizedBox, frameSize Size) NormalizedBox {
	if frameSize.Degenerate() || !box.Finite() {
		return box
	}
	frameRect := frameSize.Rect()
	bbox := box.Denormalize(frameRect)

	if smoother.tracker == nil || smoother.subject != subject {
		smoother.reset(subject, bbox)
		return box
	}
	if euclideanDistance(bbox.Center(), smoother.lastBBox.Center()) > smoother.lastBBox.Diagonal() {
		logrus.WithFields(logrus.Fields{
			"function": "Smooth",
			"subject":  subject.String(),
		}).Debug("Subject jumped, resetting filter")
		smoother.reset(subject, bbox)
		return box
	}

	smoother.tracker.Predict()
	err := smoother.tracker.Update(bbox.X+bbox.Width/2.0, bbox.Y+bbox.Height/2.0, bbox.Width, bbox.Height)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Smooth",
			"subject":  subject.String(),
			"error":    err.Error(),
		}).Warn("Can't update subject filter, using raw box")
		smoother.reset(subject, bbox)
		return box
	}

	cx, cy, w, h := smoother.tracker.GetState()
	if w <= 0 || h <= 0 {
		smoother.reset(subject, bbox)
		return box
	}
	smoothed := Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
	smoother.lastBBox = smoothed
	return NormalizeRect(smoothed, frameRect, box.Origin)
}

// Velocity returns current velocity estimates (vx, vy, vw, vh) in source pixels per time step
func (smoother *Smoother) Velocity() (float64, float64, float64, float64) {
	if smoother.tracker == nil {
		return 0, 0, 0, 0
	}
	return smoother.tracker.GetVelocity()
}
