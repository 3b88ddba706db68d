// Package scene owns the per-frame state of the rendered object and runs
// the inference and render loops that feed it.
package scene

import (
	"time"

	"github.com/ayusman/mudra/internal/animate"
	"github.com/ayusman/mudra/internal/history"
	"github.com/ayusman/mudra/internal/ingest"
	"github.com/ayusman/mudra/internal/pinch"
	"github.com/ayusman/mudra/internal/visual"
)

// Config holds the construction parameters of a Scene.
type Config struct {
	Rates    animate.Rates
	MaxDelta time.Duration

	HistoryCapacity int
	HistoryTTL      time.Duration

	Shape visual.Shape
	Theme visual.Theme
}

// DefaultConfig returns a Config with the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Rates:           animate.DefaultRates(),
		MaxDelta:        100 * time.Millisecond,
		HistoryCapacity: history.DefaultCapacity,
		HistoryTTL:      history.DefaultTTL,
		Shape:           visual.DefaultShape,
		Theme:           visual.ThemeDark,
	}
}

// StepInput is everything one render frame depends on.
type StepInput struct {
	// Frames are the tracking results that arrived since the previous step,
	// oldest first. Every one of them drives the pinch tracker and the
	// gesture feed; the last one is the frame on display.
	Frames []ingest.DetectionFrame

	// Gap marks that results were lost before Frames[0]. Pinch tracking
	// restarts so the lost release cannot turn into a jump.
	Gap bool

	// Delta is the elapsed time since the previous step in seconds.
	Delta float64
	Now   time.Time

	// Shape and Theme are the current preferences. Empty values keep the
	// previous ones.
	Shape visual.Shape
	Theme visual.Theme
}

// Recognition is a feed entry together with the frame that produced it.
type Recognition struct {
	history.Entry
	Handedness ingest.Handedness
	Confidence float64
}

// Output is what one render frame produces.
type Output struct {
	State   animate.State
	Target  visual.Target
	Frame   ingest.DetectionFrame
	History []history.Entry
	// Added lists the feed entries created during this step, oldest first.
	Added []Recognition
	// Pinch is the rotation accumulated over all frames of this step.
	Pinch        pinch.Delta
	Manipulating bool
	Shape        visual.Shape
	Theme        visual.Theme
	At           time.Time
}

// Scene is the single owner of the animated state, the pinch tracker and
// the gesture feed. It is not safe for concurrent use.
type Scene struct {
	driver  *animate.Driver
	tracker *pinch.Tracker
	history *history.Queue

	frame   ingest.DetectionFrame
	gesture ingest.Gesture
	target  visual.Target
	shape   visual.Shape
	theme   visual.Theme
}

// New creates a Scene mounted with the None target.
func New(config Config) *Scene {
	theme := visual.ThemeOrDefault(string(config.Theme))
	target := visual.MapGesture(ingest.GestureNone, theme)

	return &Scene{
		driver:  animate.NewDriver(config.Rates, config.MaxDelta.Seconds(), target),
		tracker: pinch.NewTracker(),
		history: history.NewQueue(config.HistoryCapacity, config.HistoryTTL),
		frame:   ingest.Empty(time.Time{}),
		gesture: ingest.GestureNone,
		target:  target,
		shape:   visual.ShapeOrDefault(string(config.Shape)),
		theme:   theme,
	}
}

// Step advances the scene by one render frame.
func (s *Scene) Step(in StepInput) Output {
	if in.Shape != "" && in.Shape != s.shape {
		s.shape = in.Shape
		s.tracker.Reset()
	}

	retarget := false
	if in.Theme != "" && in.Theme != s.theme {
		s.theme = in.Theme
		retarget = true
	}

	if in.Gap {
		s.tracker.Reset()
	}

	var (
		delta pinch.Delta
		added []Recognition
	)
	for _, f := range in.Frames {
		d := s.tracker.Update(f.Pinch)
		delta.Yaw += d.Yaw
		delta.Pitch += d.Pitch

		if f.Gesture != s.gesture {
			s.gesture = f.Gesture
			retarget = true
		}
		if e, ok := s.history.Observe(f.Gesture, in.Now); ok {
			added = append(added, Recognition{Entry: e, Handedness: f.Handedness, Confidence: f.Confidence})
		}
		s.frame = f
	}
	s.history.Expire(in.Now)

	if retarget {
		s.target = visual.MapGesture(s.gesture, s.theme)
	}

	manipulating := s.tracker.Active()
	state := s.driver.Step(in.Delta, s.target, manipulating, delta)

	return Output{
		State:        state,
		Target:       s.target,
		Frame:        s.frame,
		History:      s.history.Entries(),
		Added:        added,
		Pinch:        delta,
		Manipulating: manipulating,
		Shape:        s.shape,
		Theme:        s.theme,
		At:           in.Now,
	}
}

// Target returns the current visual target.
func (s *Scene) Target() visual.Target {
	return s.target
}

// State returns the current animated state.
func (s *Scene) State() animate.State {
	return s.driver.State()
}
