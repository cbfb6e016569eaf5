package reframe

import (
	"github.com/arthurkushman/go-hungarian"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MatchingAlgorithm is for algorithm type for matching detections to tracks
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal assignment
	MatchingAlgorithmHungarian MatchingAlgorithm = iota
	// MatchingAlgorithmGreedy uses a greedy algorithm for faster but potentially suboptimal assignment
	MatchingAlgorithmGreedy
)

// AssociationTracker is a Tracker which advances the subject by re-running a detector on the new
// frame and associating the previous box with the candidates by IoU.
type AssociationTracker struct {
	detector Detector
	// Min IoU between previous box and candidate to keep tracking. Default 0.3
	minIoU float64
	// Algorithm to use for matching
	algorithm MatchingAlgorithm
}

// DefaultAssociationTracker creates an AssociationTracker with default parameters.
func DefaultAssociationTracker(detector Detector) *AssociationTracker {
	return &AssociationTracker{
		detector:  detector,
		minIoU:    0.3,
		algorithm: MatchingAlgorithmHungarian,
	}
}

// NewAssociationTracker creates a new instance of AssociationTracker with specified parameters.
func NewAssociationTracker(detector Detector, minIoU float64, algorithm MatchingAlgorithm) *AssociationTracker {
	return &AssociationTracker{
		detector:  detector,
		minIoU:    minIoU,
		algorithm: algorithm,
	}
}

// Advance implements Tracker
func (at *AssociationTracker) Advance(previous NormalizedBox, frame Frame) (NormalizedBox, bool, error) {
	candidates, err := at.detector.DetectAll(frame)
	if err != nil {
		return NormalizedBox{}, false, errors.Wrapf(err, "Can't detect candidates on frame %d", frame.Index)
	}
	if len(candidates) == 0 {
		return NormalizedBox{}, false, nil
	}

	// Compare in a common unit square with top-left origin
	unit := Rectangle{Width: 1, Height: 1}
	tracks := []Rectangle{previous.Denormalize(unit)}
	detections := make([]Rectangle, len(candidates))
	for i := range candidates {
		detections[i] = candidates[i].Denormalize(unit)
	}

	iouMatrix := createIoUMatrix(tracks, detections)
	matches := at.performMatching(iouMatrix)
	for _, match := range matches {
		trackIdx, detIdx := match[0], match[1]
		if trackIdx != 0 {
			continue
		}
		if iouMatrix[trackIdx][detIdx] >= at.minIoU {
			return candidates[detIdx], true, nil
		}
	}
	return NormalizedBox{}, false, nil
}

// createIoUMatrix is helper function to create IoU matrix: rows = tracks, columns = detections
func createIoUMatrix(tracks []Rectangle, detections []Rectangle) [][]float64 {
	iouMatrix := make([][]float64, len(tracks))
	for i, trk := range tracks {
		row := make([]float64, len(detections))
		for j, det := range detections {
			row[j] = IoU(trk, det)
		}
		iouMatrix[i] = row
	}
	return iouMatrix
}

// performMatching is helper function to perform matching using Hungarian or Greedy algorithm.
// Returns: a slice of [2]int, where each element is {trackIndex, detectionIndex}.
func (at *AssociationTracker) performMatching(iouMatrix [][]float64) [][2]int {
	switch at.algorithm {
	case MatchingAlgorithmHungarian:
		return hungarianMatching(iouMatrix)
	default:
		return at.greedyMatching(iouMatrix)
	}
}

func hungarianMatching(iouMatrix [][]float64) [][2]int {
	numTracks := len(iouMatrix)
	if numTracks == 0 || len(iouMatrix[0]) == 0 {
		return [][2]int{}
	}
	numDetections := len(iouMatrix[0])

	// Pad rectangular matrix with zero IoU to make it square
	paddedSize := maxInt(numTracks, numDetections)
	paddedMatrix := make([][]float64, paddedSize)
	for i := 0; i < paddedSize; i++ {
		paddedMatrix[i] = make([]float64, paddedSize)
		if i < numTracks {
			copy(paddedMatrix[i], iouMatrix[i])
		}
	}

	assignmentsMap := hungarian.SolveMax(paddedMatrix)
	matches := make([][2]int, 0, numTracks)
	for trackIndex, rowMap := range assignmentsMap {
		for detectionIndex := range rowMap {
			if trackIndex < numTracks && detectionIndex < numDetections {
				matches = append(matches, [2]int{trackIndex, detectionIndex})
			} else if trackIndex < numTracks {
				logrus.WithFields(logrus.Fields{
					"function":  "hungarianMatching",
					"track":     trackIndex,
					"detection": detectionIndex,
				}).Debug("Track assigned to padding column")
			}
			break
		}
	}
	return matches
}

func (at *AssociationTracker) greedyMatching(iouMatrix [][]float64) [][2]int {
	matches := make([][2]int, 0)
	if len(iouMatrix) == 0 || len(iouMatrix[0]) == 0 {
		return matches
	}
	// Keep track of detection indices that are already matched
	matchedDetections := make(map[int]struct{})
	for i := range iouMatrix {
		bestIoU := -1.0
		bestDetIdx := -1
		for j, currentIoU := range iouMatrix[i] {
			if _, found := matchedDetections[j]; found {
				continue
			}
			if currentIoU > bestIoU && currentIoU >= at.minIoU {
				bestIoU = currentIoU
				bestDetIdx = j
			}
		}
		if bestDetIdx != -1 {
			matches = append(matches, [2]int{i, bestDetIdx})
			matchedDetections[bestDetIdx] = struct{}{}
		}
	}
	return matches
}
