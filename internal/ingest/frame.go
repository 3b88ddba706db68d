// Package ingest turns raw hand tracking results into DetectionFrames, the
// input type of the gesture pipeline.
package ingest

import (
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// PinchThreshold is the thumb-tip to index-tip distance, in normalized image
// units, below which the hand counts as pinching.
const PinchThreshold = 0.08

// Gesture is a discrete hand pose label supplied by the classifier.
type Gesture string

const (
	GestureNone         Gesture = "None"
	GestureClosedFist   Gesture = "Closed_Fist"
	GestureOpenPalm     Gesture = "Open_Palm"
	GesturePointingUp   Gesture = "Pointing_Up"
	GesturePointingDown Gesture = "Pointing_Down"
	GestureVictory      Gesture = "Victory"
	GestureThumbUp      Gesture = "Thumb_Up"
	GestureThumbDown    Gesture = "Thumb_Down"
)

// Gestures lists every gesture label in declaration order.
var Gestures = []Gesture{
	GestureNone,
	GestureClosedFist,
	GestureOpenPalm,
	GesturePointingUp,
	GesturePointingDown,
	GestureVictory,
	GestureThumbUp,
	GestureThumbDown,
}

// ParseGesture maps a classifier label to a Gesture. Unknown labels are None.
func ParseGesture(label string) Gesture {
	for _, g := range Gestures {
		if string(g) == label {
			return g
		}
	}
	return GestureNone
}

// Handedness identifies which hand was tracked.
type Handedness string

const (
	HandLeft    Handedness = "Left"
	HandRight   Handedness = "Right"
	HandUnknown Handedness = "Unknown"
)

// ParseHandedness maps a classifier label to a Handedness.
func ParseHandedness(label string) Handedness {
	switch label {
	case string(HandLeft):
		return HandLeft
	case string(HandRight):
		return HandRight
	default:
		return HandUnknown
	}
}

// PinchState is derived from landmark positions; it cannot be set directly.
// X and Y are the thumb/index midpoint while pinching and zero otherwise.
type PinchState struct {
	isPinching bool
	x, y       float64
}

// IsPinching reports whether the thumb and index tips are touching.
func (p PinchState) IsPinching() bool { return p.isPinching }

// X returns the horizontal pinch anchor.
func (p PinchState) X() float64 { return p.x }

// Y returns the vertical pinch anchor.
func (p PinchState) Y() float64 { return p.y }

// DetectPinch computes the pinch state of a single hand.
// Hands without a full landmark set never pinch.
func DetectPinch(hand []detector.Point3D) PinchState {
	if len(hand) < detector.NumLandmarks {
		return PinchState{}
	}

	thumb := hand[detector.ThumbTip]
	index := hand[detector.IndexTip]
	if detector.PlanarDistance(thumb, index) >= PinchThreshold {
		return PinchState{}
	}

	return PinchState{
		isPinching: true,
		x:          (thumb.X + index.X) / 2,
		y:          (thumb.Y + index.Y) / 2,
	}
}

// DetectionFrame is the normalized result of one tracking cycle.
type DetectionFrame struct {
	Landmarks  []detector.Point3D
	Gesture    Gesture
	Confidence float64
	Handedness Handedness
	Pinch      PinchState
	Timestamp  time.Time
}

// HasHand reports whether a hand was tracked in this frame.
func (f DetectionFrame) HasHand() bool {
	return len(f.Landmarks) > 0
}

// Empty returns the "no hand detected" frame.
func Empty(at time.Time) DetectionFrame {
	return DetectionFrame{
		Gesture:    GestureNone,
		Handedness: HandUnknown,
		Timestamp:  at,
	}
}
