package animate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"

	"github.com/ayusman/mudra/internal/ingest"
	"github.com/ayusman/mudra/internal/pinch"
	"github.com/ayusman/mudra/internal/visual"
)

const frame60 = 1.0 / 60

func newTestDriver() *Driver {
	return NewDriver(DefaultRates(), DefaultMaxDelta, visual.MapGesture(ingest.GestureNone, visual.ThemeDark))
}

func colorGap(a, b visual.Color) float64 {
	return math.Max(math.Abs(a.R-b.R), math.Max(math.Abs(a.G-b.G), math.Abs(a.B-b.B)))
}

func TestNewDriver_StartsAtInitialTarget(t *testing.T) {
	d := newTestDriver()
	s := d.State()

	assert.Equal(t, 1.2, s.Scale)
	assert.Equal(t, visual.MustHex("#ffffff"), s.Color)
	assert.Equal(t, quat.Number{Real: 1}, s.Rotation)
	assert.Equal(t, 0.3, s.Roughness)
	assert.Equal(t, 0.5, d.Spin())
}

func TestDriver_GestureModeConverges(t *testing.T) {
	d := newTestDriver()
	target := visual.MapGesture(ingest.GesturePointingUp, visual.ThemeDark)

	for i := 0; i < 60*10; i++ {
		d.Step(frame60, target, false, pinch.Delta{})
	}

	s := d.State()
	assert.InDelta(t, target.Scale, s.Scale, 1e-6)
	assert.InDelta(t, 2, s.Position.Y, 1e-6)
	assert.InDelta(t, 0, s.Position.X, 1e-6)
	assert.InDelta(t, 0, colorGap(target.Color, s.Color), 1e-6)
	assert.InDelta(t, target.Roughness, s.Roughness, 1e-6)
	assert.InDelta(t, target.RotationSpeed, d.Spin(), 1e-6)
}

func TestDriver_TransitionsAreContinuous(t *testing.T) {
	d := newTestDriver()
	rates := DefaultRates()
	sequence := []ingest.Gesture{
		ingest.GestureOpenPalm, ingest.GestureClosedFist, ingest.GestureVictory,
		ingest.GesturePointingDown, ingest.GestureNone,
	}

	for _, g := range sequence {
		target := visual.MapGesture(g, visual.ThemeDark)
		for i := 0; i < 20; i++ {
			before := d.State()
			after := d.Step(frame60, target, false, pinch.Delta{})

			maxScale := math.Abs(target.Scale-before.Scale) * Alpha(rates.Scale, frame60)
			assert.LessOrEqual(t, math.Abs(after.Scale-before.Scale), maxScale+1e-12, "%s scale jumped", g)

			maxY := math.Abs(target.VerticalOffset-before.Position.Y) * Alpha(rates.Position, frame60)
			assert.LessOrEqual(t, math.Abs(after.Position.Y-before.Position.Y), maxY+1e-12, "%s position jumped", g)

			maxColor := colorGap(target.Color, before.Color) * Alpha(rates.Color, frame60)
			assert.LessOrEqual(t, colorGap(after.Color, before.Color), maxColor+1e-12, "%s color jumped", g)
		}
	}
}

func TestDriver_ManipulationMode(t *testing.T) {
	d := newTestDriver()
	up := visual.MapGesture(ingest.GesturePointingUp, visual.ThemeDark)
	for i := 0; i < 120; i++ {
		d.Step(frame60, up, false, pinch.Delta{})
	}
	before := d.State()
	require.Greater(t, before.Position.Y, 1.0)

	t.Run("rotation follows delta exactly", func(t *testing.T) {
		d2 := newTestDriver()
		s := d2.Step(frame60, up, true, pinch.Delta{Yaw: 0.4})
		assert.InDelta(t, math.Cos(0.2), s.Rotation.Real, 1e-12)
		assert.InDelta(t, math.Sin(0.2), s.Rotation.Jmag, 1e-12)
		assert.Zero(t, d2.Spin())
	})

	t.Run("zero delta holds rotation", func(t *testing.T) {
		d2 := newTestDriver()
		s := d2.Step(frame60, up, true, pinch.Delta{})
		assert.Equal(t, quat.Number{Real: 1}, s.Rotation)
	})

	t.Run("pulls toward manipulation look and holds roughness", func(t *testing.T) {
		roughness := before.Roughness
		for i := 0; i < 60; i++ {
			d.Step(frame60, up, true, pinch.Delta{})
		}
		s := d.State()
		assert.InDelta(t, 0, s.Position.Y, 1e-3)
		assert.InDelta(t, ManipulationScale, s.Scale, 1e-3)
		assert.InDelta(t, 0, colorGap(visual.MustHex(ManipulationColor), s.Color), 1e-3)
		assert.Equal(t, roughness, s.Roughness)
	})

	t.Run("recentering is faster than idle drift", func(t *testing.T) {
		idle := newTestDriver()
		manip := newTestDriver()
		for _, dr := range []*Driver{idle, manip} {
			for i := 0; i < 300; i++ {
				dr.Step(frame60, up, false, pinch.Delta{})
			}
		}
		none := visual.MapGesture(ingest.GestureNone, visual.ThemeDark)
		a := idle.Step(frame60, none, false, pinch.Delta{})
		b := manip.Step(frame60, up, true, pinch.Delta{})
		assert.Less(t, b.Position.Y, a.Position.Y)
	})
}

func TestDriver_KeepRoughness(t *testing.T) {
	d := newTestDriver()
	fist := visual.MapGesture(ingest.GestureClosedFist, visual.ThemeDark)
	for i := 0; i < 600; i++ {
		d.Step(frame60, fist, false, pinch.Delta{})
	}
	require.InDelta(t, 0.8, d.State().Roughness, 1e-6)

	thumb := visual.MapGesture(ingest.GestureThumbUp, visual.ThemeDark)
	for i := 0; i < 600; i++ {
		d.Step(frame60, thumb, false, pinch.Delta{})
	}
	assert.InDelta(t, 0.8, d.State().Roughness, 1e-6)
}

func TestDriver_InvalidDelta(t *testing.T) {
	d := newTestDriver()
	target := visual.MapGesture(ingest.GestureOpenPalm, visual.ThemeDark)
	start := d.State()

	for _, dt := range []float64{0, -0.5, math.NaN(), math.Inf(1)} {
		assert.Equal(t, start, d.Step(dt, target, false, pinch.Delta{}), "dt=%v", dt)
	}
}

func TestDriver_ClampsLongFrames(t *testing.T) {
	a := newTestDriver()
	b := newTestDriver()
	target := visual.MapGesture(ingest.GestureOpenPalm, visual.ThemeDark)

	sa := a.Step(5, target, false, pinch.Delta{})
	sb := b.Step(DefaultMaxDelta, target, false, pinch.Delta{})

	assert.Equal(t, sb.Scale, sa.Scale)
}

func TestDriver_RotationStaysUnit(t *testing.T) {
	d := newTestDriver()
	target := visual.MapGesture(ingest.GestureVictory, visual.ThemeDark)

	for i := 0; i < 5000; i++ {
		manip := i%7 == 0
		d.Step(frame60, target, manip, pinch.Delta{Yaw: 0.05, Pitch: -0.03})
	}

	assert.InDelta(t, 1, quat.Abs(d.State().Rotation), 1e-9)
}

func TestRates_Validate(t *testing.T) {
	assert.NoError(t, DefaultRates().Validate())

	r := DefaultRates()
	r.Color = 0
	assert.Error(t, r.Validate())

	r = DefaultRates()
	r.ManipulationPosition = r.Position
	assert.Error(t, r.Validate())

	r = DefaultRates()
	r.Spin = math.NaN()
	assert.Error(t, r.Validate())
}
