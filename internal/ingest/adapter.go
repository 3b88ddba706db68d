package ingest

import (
	"math"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// FromResult converts one raw tracking result into a DetectionFrame.
//
// Only the first tracked hand is used. A hand with a short or missing
// landmark list is treated as no hand at all, so a single bad frame can
// never stall the pipeline.
func FromResult(res detector.Result, at time.Time) DetectionFrame {
	if len(res.Landmarks) == 0 || len(res.Landmarks[0]) < detector.NumLandmarks {
		return Empty(at)
	}

	hand := make([]detector.Point3D, detector.NumLandmarks)
	copy(hand, res.Landmarks[0])

	frame := DetectionFrame{
		Landmarks:  hand,
		Gesture:    GestureNone,
		Handedness: HandUnknown,
		Pinch:      DetectPinch(hand),
		Timestamp:  at,
	}

	if top, ok := topCategory(res.Gestures); ok {
		frame.Gesture = ParseGesture(top.CategoryName)
		frame.Confidence = clamp01(top.Score)
	}

	if top, ok := topCategory(res.Handedness); ok {
		label := top.DisplayName
		if label == "" {
			label = top.CategoryName
		}
		frame.Handedness = ParseHandedness(label)
	}

	return frame
}

func topCategory(lists [][]detector.Category) (detector.Category, bool) {
	if len(lists) == 0 || len(lists[0]) == 0 {
		return detector.Category{}, false
	}
	return lists[0][0], true
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
