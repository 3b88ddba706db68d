package animate

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/mudra/internal/pinch"
	"github.com/ayusman/mudra/internal/visual"
)

// Manipulation mode targets.
const (
	ManipulationScale = 0.9
	ManipulationColor = "#ff00ff"
)

// DefaultMaxDelta bounds a single step so a stalled display callback
// cannot jump the state.
const DefaultMaxDelta = 0.1

var (
	axisX = r3.Vec{X: 1}
	axisY = r3.Vec{Y: 1}

	manipulationColor = visual.MustHex(ManipulationColor)
)

// Rates holds the smoothing rate constants in 1/s.
type Rates struct {
	Scale     float64 `yaml:"scale"`
	Position  float64 `yaml:"position"`
	Color     float64 `yaml:"color"`
	Roughness float64 `yaml:"roughness"`
	Spin      float64 `yaml:"spin"`

	ManipulationPosition float64 `yaml:"manipulation_position"`
	ManipulationScale    float64 `yaml:"manipulation_scale"`
	ManipulationColor    float64 `yaml:"manipulation_color"`
}

// DefaultRates returns the tuned rate constants.
func DefaultRates() Rates {
	return Rates{
		Scale:                3,
		Position:             2,
		Color:                5,
		Roughness:            2,
		Spin:                 3,
		ManipulationPosition: 15,
		ManipulationScale:    10,
		ManipulationColor:    10,
	}
}

// Validate checks that every rate is positive and that a dragged object
// recenters faster than an idle one drifts.
func (r Rates) Validate() error {
	for _, v := range []float64{
		r.Scale, r.Position, r.Color, r.Roughness, r.Spin,
		r.ManipulationPosition, r.ManipulationScale, r.ManipulationColor,
	} {
		if !(v > 0) || math.IsInf(v, 0) {
			return errors.New("smoothing rates must be positive and finite")
		}
	}
	if r.ManipulationPosition <= r.Position {
		return errors.New("manipulation position rate must exceed idle position rate")
	}
	return nil
}

// State is the visual state applied to the rendered object.
type State struct {
	Scale     float64
	Color     visual.Color
	Rotation  quat.Number
	Position  r3.Vec
	Roughness float64
}

// Driver owns State and advances it once per display frame.
type Driver struct {
	rates    Rates
	maxDelta float64

	state         State
	roughnessGoal float64
	spin          float64
}

// NewDriver creates a driver whose state starts at the initial target.
func NewDriver(rates Rates, maxDelta float64, initial visual.Target) *Driver {
	if maxDelta <= 0 {
		maxDelta = DefaultMaxDelta
	}
	return &Driver{
		rates:    rates,
		maxDelta: maxDelta,
		state: State{
			Scale:     initial.Scale,
			Color:     initial.Color,
			Rotation:  quat.Number{Real: 1},
			Position:  r3.Vec{Y: initial.VerticalOffset},
			Roughness: initial.Roughness,
		},
		roughnessGoal: initial.Roughness,
		spin:          initial.RotationSpeed,
	}
}

// State returns the current state.
func (d *Driver) State() State {
	return d.state
}

// Spin returns the current idle spin rate in rad/s.
func (d *Driver) Spin() float64 {
	return d.spin
}

// Step advances the state by dt seconds. While manipulating, rotation
// follows the pinch delta directly and everything else eases toward the
// manipulation look; otherwise everything eases toward target.
func (d *Driver) Step(dt float64, target visual.Target, manipulating bool, delta pinch.Delta) State {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return d.state
	}
	if dt > d.maxDelta {
		dt = d.maxDelta
	}

	if !target.KeepRoughness {
		d.roughnessGoal = target.Roughness
	}

	s := &d.state
	if manipulating {
		s.Position = DampVec(s.Position, r3.Vec{}, d.rates.ManipulationPosition, dt)
		s.Scale = Damp(s.Scale, ManipulationScale, d.rates.ManipulationScale, dt)
		s.Color = DampColor(s.Color, manipulationColor, d.rates.ManipulationColor, dt)
		d.spin = 0
		s.Rotation = rotate(s.Rotation, delta.Yaw, delta.Pitch)
		return d.state
	}

	s.Scale = Damp(s.Scale, target.Scale, d.rates.Scale, dt)
	s.Position.X = Damp(s.Position.X, 0, d.rates.Position, dt)
	s.Position.Y = Damp(s.Position.Y, target.VerticalOffset, d.rates.Position, dt)
	s.Position.Z = Damp(s.Position.Z, 0, d.rates.Position, dt)
	s.Color = DampColor(s.Color, target.Color, d.rates.Color, dt)
	s.Roughness = Damp(s.Roughness, d.roughnessGoal, d.rates.Roughness, dt)

	d.spin = Damp(d.spin, target.RotationSpeed, d.rates.Spin, dt)
	s.Rotation = rotate(s.Rotation, d.spin*dt, d.spin*dt*0.5)

	return d.state
}

// rotate applies world-space yaw then pitch to q and renormalizes.
func rotate(q quat.Number, yaw, pitch float64) quat.Number {
	if yaw == 0 && pitch == 0 {
		return q
	}
	q = quat.Mul(axisAngle(axisY, yaw), q)
	q = quat.Mul(axisAngle(axisX, pitch), q)
	return normalize(q)
}

func axisAngle(axis r3.Vec, angle float64) quat.Number {
	s, c := math.Sincos(angle / 2)
	return quat.Number{Real: c, Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
}

func normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}
