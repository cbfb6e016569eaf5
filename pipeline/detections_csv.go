package pipeline

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/LdDl/reframe-go/reframe"
	"github.com/pkg/errors"
)

// CSVDetector replays pre-computed detections.
// Format: header "frame;boxes", then one row per frame: "index;x,y,w,h|x,y,w,h|...".
// Coordinates are normalized, with the origin convention given on construction.
type CSVDetector struct {
	origin reframe.Origin
	boxes  map[int64][]reframe.NormalizedBox
}

// NewCSVDetector reads detections from file
func NewCSVDetector(path string, origin reframe.Origin) (*CSVDetector, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open detections '%s'", path)
	}
	defer file.Close()
	return ParseCSVDetections(file, origin)
}

// ParseCSVDetections reads detections from r
func ParseCSVDetections(r io.Reader, origin reframe.Origin) (*CSVDetector, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	detector := &CSVDetector{
		origin: origin,
		boxes:  make(map[int64][]reframe.NormalizedBox),
	}
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "Can't read detections")
		}
		line++
		if line == 1 && record[0] == "frame" {
			continue
		}
		index, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Bad frame index on line %d", line)
		}
		boxes, err := parseBoxes(record[1], origin)
		if err != nil {
			return nil, errors.Wrapf(err, "Bad boxes on line %d", line)
		}
		if len(boxes) == 0 {
			continue
		}
		detector.boxes[index] = append(detector.boxes[index], boxes...)
	}
	return detector, nil
}

func parseBoxes(data string, origin reframe.Origin) ([]reframe.NormalizedBox, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, nil
	}
	parts := strings.Split(data, "|")
	boxes := make([]reframe.NormalizedBox, 0, len(parts))
	for _, part := range parts {
		fields := strings.Split(part, ",")
		if len(fields) != 4 {
			return nil, errors.Errorf("expected 4 coordinates, got '%s'", part)
		}
		var coords [4]float64
		for i, field := range fields {
			value, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "Bad coordinate '%s'", field)
			}
			coords[i] = value
		}
		boxes = append(boxes, reframe.NewNormalizedBox(coords[0], coords[1], coords[2], coords[3], origin))
	}
	return boxes, nil
}

// DetectAll implements reframe.Detector
func (detector *CSVDetector) DetectAll(frame reframe.Frame) ([]reframe.NormalizedBox, error) {
	boxes := detector.boxes[frame.Index]
	if len(boxes) == 0 {
		return nil, nil
	}
	result := make([]reframe.NormalizedBox, len(boxes))
	copy(result, boxes)
	return result, nil
}

// Frames returns number of frames having at least one detection
func (detector *CSVDetector) Frames() int {
	return len(detector.boxes)
}
