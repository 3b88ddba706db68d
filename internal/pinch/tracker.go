// Package pinch converts pinch-drag motion into incremental rotation.
package pinch

import (
	"math"

	"github.com/ayusman/mudra/internal/ingest"
)

// Sensitivity converts normalized anchor movement into radians. A drag
// across the full frame width turns the object one and a half times.
const Sensitivity = math.Pi * 3

// Delta is an incremental rotation in radians. Yaw turns about the vertical
// axis, pitch about the horizontal one.
type Delta struct {
	Yaw   float64
	Pitch float64
}

// IsZero reports whether the delta rotates nothing.
func (d Delta) IsZero() bool {
	return d.Yaw == 0 && d.Pitch == 0
}

type anchor struct {
	x, y float64
}

// Tracker is a two-state machine: Idle (no anchor) and Dragging.
// The first frame of every drag only records the anchor, so a new drag can
// never inherit movement from an old one.
type Tracker struct {
	last *anchor
}

// NewTracker returns an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update advances the state machine with one frame's pinch state.
func (t *Tracker) Update(p ingest.PinchState) Delta {
	if !p.IsPinching() {
		t.last = nil
		return Delta{}
	}

	now := anchor{x: p.X(), y: p.Y()}
	prev := t.last
	t.last = &now

	if prev == nil {
		return Delta{}
	}

	// The camera image is mirrored for the user, so moving the hand right
	// decreases x.
	dx := -(now.x - prev.x)
	dy := now.y - prev.y

	return Delta{
		Yaw:   dx * Sensitivity,
		Pitch: -dy * Sensitivity,
	}
}

// Reset forces the tracker back to Idle.
func (t *Tracker) Reset() {
	t.last = nil
}

// Active reports whether a drag is in progress.
func (t *Tracker) Active() bool {
	return t.last != nil
}
