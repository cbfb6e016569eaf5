package reframe

import (
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type scriptedDetector struct {
	calls int
	boxes []NormalizedBox
	err   error
}

func (d *scriptedDetector) DetectAll(frame Frame) ([]NormalizedBox, error) {
	d.calls++
	return d.boxes, d.err
}

type scriptedTracker struct {
	calls int
	// Frame index from which the tracker reports loss
	failFrom int64
	err      error
	shift    float64
}

func (tr *scriptedTracker) Advance(previous NormalizedBox, frame Frame) (NormalizedBox, bool, error) {
	tr.calls++
	if tr.err != nil {
		return NormalizedBox{}, false, tr.err
	}
	if tr.failFrom > 0 && frame.Index >= tr.failFrom {
		return NormalizedBox{}, false, nil
	}
	previous.X += tr.shift
	return previous, true, nil
}

func testFrame(index int64) Frame {
	return NewFrame(index, image.NewGray(image.Rect(0, 0, 64, 36)))
}

func TestLocatorContinuity(t *testing.T) {
	subject := NewNormalizedBox(0.4, 0.4, 0.2, 0.2, OriginBottomLeft)
	detector := &scriptedDetector{boxes: []NormalizedBox{subject}}
	tracker := &scriptedTracker{failFrom: 6, shift: 0.01}
	locator := NewLocator(detector, tracker)

	var subjectID uuid.UUID
	for index := int64(1); index <= 5; index++ {
		box, ok := locator.Locate(testFrame(index))
		if !ok {
			t.Fatalf("Frame %d: expected subject", index)
		}
		handle, ok := locator.Handle()
		if !ok {
			t.Fatalf("Frame %d: expected handle", index)
		}
		if index == 1 {
			subjectID = handle.ID
		} else if handle.ID != subjectID {
			t.Errorf("Frame %d: subject ID changed: %v, expected: %v", index, handle.ID, subjectID)
		}
		if handle.Box != box {
			t.Errorf("Frame %d: handle box %v differs from returned box %v", index, handle.Box, box)
		}
	}
	// Frame 1 detected, frames 2-5 tracked
	if detector.calls != 1 || tracker.calls != 4 {
		t.Errorf("Wrong calls: detector %d, tracker %d, expected: 1, 4", detector.calls, tracker.calls)
	}

	if _, ok := locator.Locate(testFrame(6)); ok {
		t.Error("Frame 6: expected no subject")
	}
	if _, ok := locator.Handle(); ok {
		t.Error("Frame 6: handle should be dropped")
	}
	if detector.calls != 1 || tracker.calls != 5 {
		t.Errorf("Frame 6 must not re-detect: detector %d, tracker %d", detector.calls, tracker.calls)
	}

	if _, ok := locator.Locate(testFrame(7)); !ok {
		t.Error("Frame 7: expected re-detected subject")
	}
	if detector.calls != 2 || tracker.calls != 5 {
		t.Errorf("Frame 7 must call detector only: detector %d, tracker %d", detector.calls, tracker.calls)
	}
	handle, _ := locator.Handle()
	if handle.ID == subjectID {
		t.Error("Re-detected subject should get a new ID")
	}
	if handle.Age != 0 {
		t.Errorf("Wrong age of new subject: %d, expected: 0", handle.Age)
	}
}

func TestLocatorPicksLargest(t *testing.T) {
	small := NewNormalizedBox(0.1, 0.1, 0.1, 0.1, OriginTopLeft)
	large := NewNormalizedBox(0.5, 0.5, 0.3, 0.2, OriginTopLeft)
	twin := NewNormalizedBox(0.2, 0.6, 0.2, 0.3, OriginTopLeft)
	detector := &scriptedDetector{boxes: []NormalizedBox{small, large, twin}}
	locator := NewLocator(detector, &scriptedTracker{})

	box, ok := locator.Locate(testFrame(0))
	if !ok {
		t.Fatal("Expected subject")
	}
	if box != large {
		t.Errorf("Wrong subject: %v, expected first of the largest: %v", box, large)
	}
}

func TestLargestBoxEmpty(t *testing.T) {
	if _, ok := LargestBox(nil); ok {
		t.Error("Expected no box for empty input")
	}
}

func TestLocatorAbsorbsFailures(t *testing.T) {
	detector := &scriptedDetector{err: fmt.Errorf("model is not loaded")}
	locator := NewLocator(detector, &scriptedTracker{})
	if _, ok := locator.Locate(testFrame(0)); ok {
		t.Error("Detector failure should mean no subject")
	}
	if _, ok := locator.Handle(); ok {
		t.Error("Detector failure should not create a handle")
	}

	detector.err = nil
	detector.boxes = []NormalizedBox{NewNormalizedBox(0.1, 0.1, 0.2, 0.2, OriginTopLeft)}
	tracker := &scriptedTracker{err: fmt.Errorf("sequence handler failed")}
	locator = NewLocator(detector, tracker)
	if _, ok := locator.Locate(testFrame(0)); !ok {
		t.Fatal("Expected detected subject")
	}
	if _, ok := locator.Locate(testFrame(1)); ok {
		t.Error("Tracker failure should mean no subject")
	}
	if _, ok := locator.Handle(); ok {
		t.Error("Tracker failure should drop the handle")
	}
}

func TestLocatorNoSubject(t *testing.T) {
	detector := &scriptedDetector{}
	locator := NewLocator(detector, &scriptedTracker{})
	for index := int64(0); index < 3; index++ {
		if _, ok := locator.Locate(testFrame(index)); ok {
			t.Errorf("Frame %d: expected no subject", index)
		}
	}
	if detector.calls != 3 {
		t.Errorf("Wrong detector calls: %d, expected: 3", detector.calls)
	}
}

func TestLocatorReset(t *testing.T) {
	detector := &scriptedDetector{boxes: []NormalizedBox{NewNormalizedBox(0.1, 0.1, 0.2, 0.2, OriginTopLeft)}}
	tracker := &scriptedTracker{}
	locator := NewLocator(detector, tracker, WithSmoother(NewSmoother()))
	locator.Locate(testFrame(0))
	locator.Reset()
	locator.Locate(testFrame(1))
	if detector.calls != 2 || tracker.calls != 0 {
		t.Errorf("Reset should force detection: detector %d, tracker %d", detector.calls, tracker.calls)
	}
}

func TestLocatorConcurrentAccess(t *testing.T) {
	detector := DetectorFunc(func(frame Frame) ([]NormalizedBox, error) {
		return []NormalizedBox{NewNormalizedBox(0.1, 0.1, 0.2, 0.2, OriginTopLeft)}, nil
	})
	tracker := TrackerFunc(func(previous NormalizedBox, frame Frame) (NormalizedBox, bool, error) {
		return previous, frame.Index%3 != 0, nil
	})
	locator := NewLocator(detector, tracker)

	var wg sync.WaitGroup
	for worker := 0; worker < 4; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				locator.Locate(testFrame(int64(worker*50 + i)))
			}
		}(worker)
	}
	wg.Wait()
}
