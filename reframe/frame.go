package reframe

import "image"

// Frame is a single decoded video frame in presentation order
type Frame struct {
	// Presentation index, starting from 0
	Index int64
	Image image.Image
}

func NewFrame(index int64, img image.Image) Frame {
	return Frame{
		Index: index,
		Image: img,
	}
}

// Size returns pixel dimensions of the frame. Frames without image have zero size.
func (frame Frame) Size() Size {
	if frame.Image == nil {
		return Size{}
	}
	bounds := frame.Image.Bounds()
	return Size{
		Width:  float64(bounds.Dx()),
		Height: float64(bounds.Dy()),
	}
}

// Detector finds candidate subjects in a frame. An empty slice means there are no subjects.
type Detector interface {
	DetectAll(frame Frame) ([]NormalizedBox, error)
}

// Tracker advances a previously known subject box into the next frame.
// It returns false when the subject is lost.
type Tracker interface {
	Advance(previous NormalizedBox, frame Frame) (NormalizedBox, bool, error)
}

// DetectorFunc is an adapter to allow the use of ordinary functions as Detector
type DetectorFunc func(frame Frame) ([]NormalizedBox, error)

// DetectAll calls f(frame)
func (f DetectorFunc) DetectAll(frame Frame) ([]NormalizedBox, error) {
	return f(frame)
}

// TrackerFunc is an adapter to allow the use of ordinary functions as Tracker
type TrackerFunc func(previous NormalizedBox, frame Frame) (NormalizedBox, bool, error)

// Advance calls f(previous, frame)
func (f TrackerFunc) Advance(previous NormalizedBox, frame Frame) (NormalizedBox, bool, error) {
	return f(previous, frame)
}
