package scene

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/ingest"
	"github.com/ayusman/mudra/internal/visual"
)

const frameDelta = 1.0 / 60

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func gestureFrame(g ingest.Gesture, at time.Time) *ingest.DetectionFrame {
	f := ingest.FromResult(detector.GestureResult(string(g), 0.9, detector.OpenPalmLandmarks()), at)
	return &f
}

func pinchFrame(x, y float64, at time.Time) *ingest.DetectionFrame {
	f := ingest.FromResult(detector.GestureResult("None", 0.6, detector.PinchLandmarks(x, y, 0.02)), at)
	return &f
}

// stepper feeds a Scene at a fixed frame rate.
type stepper struct {
	scene *Scene
	now   time.Time
}

func newStepper(cfg Config) *stepper {
	return &stepper{scene: New(cfg), now: epoch}
}

func (s *stepper) step(f *ingest.DetectionFrame) Output {
	if f == nil {
		return s.batch()
	}
	return s.batch(*f)
}

// batch renders one frame with several tracking results pending.
func (s *stepper) batch(frames ...ingest.DetectionFrame) Output {
	step := frameDelta * float64(time.Second)
	s.now = s.now.Add(time.Duration(step))
	return s.scene.Step(StepInput{Frames: frames, Delta: frameDelta, Now: s.now})
}

func addedGestures(out Output) []ingest.Gesture {
	var gs []ingest.Gesture
	for _, a := range out.Added {
		gs = append(gs, a.Gesture)
	}
	return gs
}

func TestNew_MountsWithNoneTarget(t *testing.T) {
	s := New(DefaultConfig())

	want := visual.MapGesture(ingest.GestureNone, visual.ThemeDark)
	assert.Equal(t, want, s.Target())
	assert.Equal(t, want.Scale, s.State().Scale)
	assert.Equal(t, want.Color, s.State().Color)
}

func TestNew_InvalidPrefsFallBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shape = "Cube"
	cfg.Theme = "sepia"

	out := New(cfg).Step(StepInput{Delta: frameDelta, Now: epoch})

	assert.Equal(t, visual.ShapeIcosahedron, out.Shape)
	assert.Equal(t, visual.ThemeDark, out.Theme)
}

func TestStep_GestureSequence(t *testing.T) {
	st := newStepper(DefaultConfig())

	var added []ingest.Gesture
	var out Output
	for _, g := range []ingest.Gesture{
		ingest.GestureNone,
		ingest.GestureOpenPalm,
		ingest.GestureOpenPalm,
		ingest.GestureClosedFist,
	} {
		out = st.step(gestureFrame(g, st.now))
		added = append(added, addedGestures(out)...)
	}

	assert.Equal(t, []ingest.Gesture{ingest.GestureOpenPalm, ingest.GestureClosedFist}, added)
	require.Len(t, out.History, 2)
	assert.Equal(t, ingest.GestureOpenPalm, out.History[0].Gesture)
	assert.Equal(t, ingest.GestureClosedFist, out.History[1].Gesture)
	assert.Equal(t, visual.MapGesture(ingest.GestureClosedFist, visual.ThemeDark), out.Target)
}

func TestStep_MissingFrameKeepsTarget(t *testing.T) {
	st := newStepper(DefaultConfig())

	st.step(gestureFrame(ingest.GestureVictory, st.now))
	for i := 0; i < 30; i++ {
		out := st.step(nil)
		assert.Equal(t, ingest.GestureVictory, out.Frame.Gesture)
		assert.Equal(t, visual.MapGesture(ingest.GestureVictory, visual.ThemeDark), out.Target)
	}
}

func TestStep_NoHandTargetsNone(t *testing.T) {
	st := newStepper(DefaultConfig())

	st.step(gestureFrame(ingest.GestureVictory, st.now))
	empty := ingest.Empty(st.now)
	out := st.step(&empty)

	assert.Equal(t, visual.MapGesture(ingest.GestureNone, visual.ThemeDark), out.Target)
	assert.Len(t, out.History, 1, "None never enters the feed")
}

func TestStep_ThemeChangeRetargets(t *testing.T) {
	st := newStepper(DefaultConfig())
	st.step(gestureFrame(ingest.GestureOpenPalm, st.now))

	out := st.scene.Step(StepInput{Delta: frameDelta, Now: st.now, Theme: visual.ThemeLight})

	assert.Equal(t, visual.ThemeLight, out.Theme)
	assert.Equal(t, visual.MustHex("#0066ff"), out.Target.Color)
}

func TestStep_PinchTakesOverAndHandsBack(t *testing.T) {
	st := newStepper(DefaultConfig())

	out := st.step(pinchFrame(0.5, 0.5, st.now))
	assert.True(t, out.Manipulating)
	assert.True(t, out.Pinch.IsZero(), "first pinch frame must not rotate")

	out = st.step(pinchFrame(0.45, 0.5, st.now))
	assert.True(t, out.Manipulating)
	assert.InDelta(t, 0.05*3*math.Pi, out.Pinch.Yaw, 1e-9)

	out = st.step(nil)
	assert.True(t, out.Manipulating, "stalled source keeps the drag")
	assert.True(t, out.Pinch.IsZero(), "a delta is applied once")

	out = st.step(gestureFrame(ingest.GestureOpenPalm, st.now))
	assert.False(t, out.Manipulating)

	out = st.step(pinchFrame(0.9, 0.1, st.now))
	assert.True(t, out.Pinch.IsZero(), "new pinch session starts without a jump")
}

func TestStep_ShapeChangeResetsPinch(t *testing.T) {
	st := newStepper(DefaultConfig())

	st.step(pinchFrame(0.5, 0.5, st.now))
	st.step(pinchFrame(0.4, 0.5, st.now))

	st.now = st.now.Add(time.Second / 60)
	out := st.scene.Step(StepInput{
		Frames: []ingest.DetectionFrame{*pinchFrame(0.3, 0.5, st.now)},
		Delta:  frameDelta,
		Now:    st.now,
		Shape:  visual.ShapeTorus,
	})

	assert.Equal(t, visual.ShapeTorus, out.Shape)
	assert.True(t, out.Pinch.IsZero())
	assert.True(t, out.Manipulating)

	out = st.step(pinchFrame(0.2, 0.5, st.now))
	assert.False(t, out.Pinch.IsZero())
}

func TestStep_ContinuousAcrossGestureChange(t *testing.T) {
	cfg := DefaultConfig()
	st := newStepper(cfg)

	prev := st.step(gestureFrame(ingest.GestureClosedFist, st.now)).State
	maxStep := 1 - math.Exp(-cfg.Rates.Scale*frameDelta)

	for i, g := range []ingest.Gesture{ingest.GestureVictory, ingest.GestureOpenPalm, ingest.GestureClosedFist} {
		for j := 0; j < 20; j++ {
			out := st.step(gestureFrame(g, st.now))
			span := math.Abs(out.Target.Scale - prev.Scale)
			assert.LessOrEqual(t, math.Abs(out.State.Scale-prev.Scale), span*maxStep+1e-12,
				"gesture %d frame %d", i, j)
			prev = out.State
		}
	}
}

func TestStep_HistoryExpires(t *testing.T) {
	cfg := DefaultConfig()
	st := newStepper(cfg)

	st.step(gestureFrame(ingest.GestureOpenPalm, st.now))
	st.step(gestureFrame(ingest.GestureVictory, st.now))

	st.now = st.now.Add(cfg.HistoryTTL)
	out := st.step(nil)
	require.Len(t, out.History, 1)
	assert.Equal(t, ingest.GestureVictory, out.History[0].Gesture)

	st.now = st.now.Add(cfg.HistoryTTL)
	out = st.step(nil)
	assert.Empty(t, out.History)
}

func TestStep_BatchFeedsEveryGesture(t *testing.T) {
	st := newStepper(DefaultConfig())

	out := st.batch(
		*gestureFrame(ingest.GestureOpenPalm, st.now),
		*gestureFrame(ingest.GestureClosedFist, st.now),
		*gestureFrame(ingest.GestureVictory, st.now),
	)

	want := []ingest.Gesture{ingest.GestureOpenPalm, ingest.GestureClosedFist, ingest.GestureVictory}
	assert.Equal(t, want, addedGestures(out))
	require.Len(t, out.History, 3)
	for i, e := range out.History {
		assert.Equal(t, want[i], e.Gesture)
		assert.Equal(t, e.ID, out.Added[i].ID)
		assert.Equal(t, ingest.HandRight, out.Added[i].Handedness)
		assert.InDelta(t, 0.9, out.Added[i].Confidence, 1e-9)
	}
	assert.Equal(t, ingest.GestureVictory, out.Frame.Gesture)
	assert.Equal(t, visual.MapGesture(ingest.GestureVictory, visual.ThemeDark), out.Target)
}

func TestStep_BatchReleaseBetweenPinches(t *testing.T) {
	st := newStepper(DefaultConfig())
	st.step(pinchFrame(0.5, 0.5, st.now))

	out := st.batch(
		*pinchFrame(0.45, 0.5, st.now),
		*gestureFrame(ingest.GestureOpenPalm, st.now),
		*pinchFrame(0.9, 0.1, st.now),
	)

	assert.InDelta(t, 0.05*3*math.Pi, out.Pinch.Yaw, 1e-9, "only the first session moved")
	assert.InDelta(t, 0, out.Pinch.Pitch, 1e-9)
	assert.True(t, out.Manipulating)

	out = st.batch(*gestureFrame(ingest.GestureOpenPalm, st.now), *pinchFrame(0.1, 0.9, st.now))
	assert.True(t, out.Pinch.IsZero(), "a release inside a batch ends the drag")
}

func TestStep_BatchAccumulatesDrag(t *testing.T) {
	st := newStepper(DefaultConfig())

	out := st.batch(
		*pinchFrame(0.5, 0.5, st.now),
		*pinchFrame(0.48, 0.5, st.now),
		*pinchFrame(0.46, 0.52, st.now),
	)

	assert.InDelta(t, 0.04*3*math.Pi, out.Pinch.Yaw, 1e-9)
	assert.InDelta(t, -0.02*3*math.Pi, out.Pinch.Pitch, 1e-9)
}

func TestStep_GapRestartsDrag(t *testing.T) {
	st := newStepper(DefaultConfig())
	st.step(pinchFrame(0.5, 0.5, st.now))

	st.now = st.now.Add(time.Second / 60)
	out := st.scene.Step(StepInput{
		Frames: []ingest.DetectionFrame{*pinchFrame(0.1, 0.1, st.now)},
		Gap:    true,
		Delta:  frameDelta,
		Now:    st.now,
	})

	assert.True(t, out.Pinch.IsZero())
	assert.True(t, out.Manipulating)
}
