package reframe

import (
	"fmt"
	"testing"
)

func TestAssociationTrackerFollowsSubject(t *testing.T) {
	for _, algorithm := range []MatchingAlgorithm{MatchingAlgorithmHungarian, MatchingAlgorithmGreedy} {
		previous := NewNormalizedBox(0.40, 0.40, 0.2, 0.2, OriginBottomLeft)
		moved := NewNormalizedBox(0.42, 0.41, 0.2, 0.2, OriginBottomLeft)
		other := NewNormalizedBox(0.05, 0.05, 0.3, 0.3, OriginBottomLeft)
		detector := &scriptedDetector{boxes: []NormalizedBox{other, moved}}
		tracker := NewAssociationTracker(detector, 0.3, algorithm)

		box, ok, err := tracker.Advance(previous, testFrame(1))
		if err != nil {
			t.Fatalf("Algorithm %d: Advance failed: %v", algorithm, err)
		}
		if !ok {
			t.Fatalf("Algorithm %d: expected subject to be kept", algorithm)
		}
		if box != moved {
			t.Errorf("Algorithm %d: wrong box: %v, expected: %v", algorithm, box, moved)
		}
	}
}

func TestAssociationTrackerLosesSubject(t *testing.T) {
	previous := NewNormalizedBox(0.40, 0.40, 0.2, 0.2, OriginTopLeft)
	far := NewNormalizedBox(0.75, 0.75, 0.2, 0.2, OriginTopLeft)
	detector := &scriptedDetector{boxes: []NormalizedBox{far}}
	tracker := DefaultAssociationTracker(detector)

	if _, ok, err := tracker.Advance(previous, testFrame(1)); ok || err != nil {
		t.Errorf("Expected lost subject without error, got ok=%v err=%v", ok, err)
	}

	detector.boxes = nil
	if _, ok, err := tracker.Advance(previous, testFrame(2)); ok || err != nil {
		t.Errorf("Expected lost subject on empty frame, got ok=%v err=%v", ok, err)
	}
}

func TestAssociationTrackerMixedOrigins(t *testing.T) {
	// Same region in both conventions must associate with IoU 1
	previous := NewNormalizedBox(0.1, 0.7, 0.2, 0.2, OriginBottomLeft)
	candidate := NewNormalizedBox(0.1, 0.1, 0.2, 0.2, OriginTopLeft)
	tracker := NewAssociationTracker(&scriptedDetector{boxes: []NormalizedBox{candidate}}, 0.9, MatchingAlgorithmHungarian)
	box, ok, err := tracker.Advance(previous, testFrame(1))
	if err != nil || !ok || box != candidate {
		t.Errorf("Expected candidate to match, got box=%v ok=%v err=%v", box, ok, err)
	}
}

func TestAssociationTrackerDetectorError(t *testing.T) {
	detector := &scriptedDetector{err: fmt.Errorf("inference timeout")}
	tracker := DefaultAssociationTracker(detector)
	if _, ok, err := tracker.Advance(NewNormalizedBox(0, 0, 0.1, 0.1, OriginTopLeft), testFrame(3)); ok || err == nil {
		t.Errorf("Expected error, got ok=%v err=%v", ok, err)
	}
}

func TestHungarianMatchingPadding(t *testing.T) {
	iouMatrix := [][]float64{{0.1, 0.8, 0.0}}
	matches := hungarianMatching(iouMatrix)
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got: %v", matches)
	}
	if matches[0] != [2]int{0, 1} {
		t.Errorf("Wrong match: %v, expected: %v", matches[0], [2]int{0, 1})
	}
	if len(hungarianMatching(nil)) != 0 {
		t.Error("Expected no matches for empty matrix")
	}
}
