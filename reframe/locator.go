package reframe

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SubjectHandle is the last known box of the subject being followed
type SubjectHandle struct {
	ID  uuid.UUID
	Box NormalizedBox
	// Number of frames the subject has been tracked after detection
	Age int
}

// Locator decides per frame whether to track the current subject or detect a new one.
// It owns exactly one SubjectHandle at most. Use one Locator per stream.
type Locator struct {
	detector Detector
	tracker  Tracker
	smoother *Smoother

	mu     sync.Mutex
	handle *SubjectHandle
}

// LocatorOption configures Locator
type LocatorOption func(*Locator)

// WithSmoother enables Kalman smoothing of located boxes
func WithSmoother(smoother *Smoother) LocatorOption {
	return func(locator *Locator) {
		locator.smoother = smoother
	}
}

// NewLocator creates new instance of Locator
func NewLocator(detector Detector, tracker Tracker, options ...LocatorOption) *Locator {
	locator := &Locator{
		detector: detector,
		tracker:  tracker,
	}
	for _, option := range options {
		option(locator)
	}
	return locator
}

// Locate returns the subject box for the frame, or false when there is no subject this frame.
// When tracking fails the handle is dropped and detection runs on the next call, not this one.
func (locator *Locator) Locate(frame Frame) (NormalizedBox, bool) {
	locator.mu.Lock()
	defer locator.mu.Unlock()

	if locator.handle != nil {
		return locator.track(frame)
	}
	return locator.detect(frame)
}

func (locator *Locator) track(frame Frame) (NormalizedBox, bool) {
	handle := locator.handle
	box, ok, err := locator.tracker.Advance(handle.Box, frame)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Locate",
			"frame":    frame.Index,
			"subject":  handle.ID.String(),
			"error":    err.Error(),
		}).Warn("Tracker failed, subject dropped")
		locator.handle = nil
		return NormalizedBox{}, false
	}
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function": "Locate",
			"frame":    frame.Index,
			"subject":  handle.ID.String(),
			"age":      handle.Age,
		}).Debug("Subject lost")
		locator.handle = nil
		return NormalizedBox{}, false
	}
	handle.Box = box
	handle.Age++
	return locator.smooth(frame, box), true
}

func (locator *Locator) detect(frame Frame) (NormalizedBox, bool) {
	candidates, err := locator.detector.DetectAll(frame)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Locate",
			"frame":    frame.Index,
			"error":    err.Error(),
		}).Warn("Detector failed")
		return NormalizedBox{}, false
	}
	best, ok := LargestBox(candidates)
	if !ok {
		return NormalizedBox{}, false
	}
	locator.handle = &SubjectHandle{
		ID:  uuid.New(),
		Box: best,
	}
	logrus.WithFields(logrus.Fields{
		"function":   "Locate",
		"frame":      frame.Index,
		"subject":    locator.handle.ID.String(),
		"candidates": len(candidates),
	}).Debug("Subject detected")
	return locator.smooth(frame, best), true
}

func (locator *Locator) smooth(frame Frame, box NormalizedBox) NormalizedBox {
	if locator.smoother == nil {
		return box
	}
	return locator.smoother.Smooth(locator.handle.ID, box, frame.Size())
}

// Handle returns a copy of the current subject handle
func (locator *Locator) Handle() (SubjectHandle, bool) {
	locator.mu.Lock()
	defer locator.mu.Unlock()
	if locator.handle == nil {
		return SubjectHandle{}, false
	}
	return *locator.handle, true
}

// Reset drops the current subject so the next call detects again
func (locator *Locator) Reset() {
	locator.mu.Lock()
	defer locator.mu.Unlock()
	locator.handle = nil
	if locator.smoother != nil {
		locator.smoother.Reset()
	}
}

// LargestBox returns the box with the largest area. Ties are won by the first one.
func LargestBox(boxes []NormalizedBox) (NormalizedBox, bool) {
	if len(boxes) == 0 {
		return NormalizedBox{}, false
	}
	best := boxes[0]
	for _, box := range boxes[1:] {
		if box.Area() > best.Area() {
			best = box
		}
	}
	return best, true
}
