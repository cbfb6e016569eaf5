package reframe

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestSmootherFirstBoxPassesThrough(t *testing.T) {
	smoother := NewSmoother()
	box := NewNormalizedBox(0.4, 0.4, 0.2, 0.2, OriginBottomLeft)
	smoothed := smoother.Smooth(uuid.New(), box, NewSize(1920, 1080))
	if smoothed != box {
		t.Errorf("Wrong box: %v, expected: %v", smoothed, box)
	}
}

func TestSmootherFollowsSubject(t *testing.T) {
	smoother := NewSmootherWithTime(1.0 / 25.0)
	subject := uuid.New()
	frameSize := NewSize(1920, 1080)

	var smoothed NormalizedBox
	for i := 0; i < 20; i++ {
		box := NewNormalizedBox(0.3+float64(i)*0.002, 0.4, 0.2, 0.3, OriginBottomLeft)
		smoothed = smoother.Smooth(subject, box, frameSize)
		if !smoothed.Finite() || smoothed.Width <= 0 || smoothed.Height <= 0 {
			t.Fatalf("Step %d: bad smoothed box: %v", i, smoothed)
		}
		if smoothed.Origin != OriginBottomLeft {
			t.Fatalf("Step %d: origin changed: %v", i, smoothed.Origin)
		}
	}
	last := NewNormalizedBox(0.3+19*0.002, 0.4, 0.2, 0.3, OriginBottomLeft)
	if math.Abs(smoothed.X-last.X) > 0.05 || math.Abs(smoothed.Y-last.Y) > 0.05 {
		t.Errorf("Smoothed box drifted away: %v, raw: %v", smoothed, last)
	}
	vx, _, _, _ := smoother.Velocity()
	t.Logf("Estimated horizontal velocity: %f px per step", vx)
}

func TestSmootherResetsOnNewSubject(t *testing.T) {
	smoother := NewSmoother()
	frameSize := NewSize(1920, 1080)
	smoother.Smooth(uuid.New(), NewNormalizedBox(0.1, 0.1, 0.2, 0.2, OriginTopLeft), frameSize)
	smoother.Smooth(uuid.Nil, NewNormalizedBox(0.1, 0.1, 0.2, 0.2, OriginTopLeft), frameSize)

	fresh := NewNormalizedBox(0.6, 0.6, 0.2, 0.2, OriginTopLeft)
	if smoothed := smoother.Smooth(uuid.New(), fresh, frameSize); smoothed != fresh {
		t.Errorf("New subject should reset filter: %v, expected: %v", smoothed, fresh)
	}
}

func TestSmootherResetsOnJump(t *testing.T) {
	smoother := NewSmoother()
	subject := uuid.New()
	frameSize := NewSize(1920, 1080)
	smoother.Smooth(subject, NewNormalizedBox(0.05, 0.05, 0.1, 0.1, OriginTopLeft), frameSize)

	jumped := NewNormalizedBox(0.8, 0.8, 0.1, 0.1, OriginTopLeft)
	if smoothed := smoother.Smooth(subject, jumped, frameSize); smoothed != jumped {
		t.Errorf("Jump should reset filter: %v, expected: %v", smoothed, jumped)
	}
}

func TestSmootherIgnoresEmptyFrame(t *testing.T) {
	smoother := NewSmoother()
	box := NewNormalizedBox(0.1, 0.1, 0.2, 0.2, OriginTopLeft)
	if smoothed := smoother.Smooth(uuid.New(), box, Size{}); smoothed != box {
		t.Errorf("Empty frame should leave box untouched: %v", smoothed)
	}
}
