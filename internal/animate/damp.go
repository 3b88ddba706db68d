// Package animate advances the rendered object's visual state toward the
// current gesture target once per display frame.
package animate

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/mudra/internal/visual"
)

// Alpha is the fraction of the remaining distance covered in dt seconds at
// rate k. Composing n steps of dt/n gives exactly Alpha(k, dt), so the
// convergence speed does not depend on the frame rate.
func Alpha(k, dt float64) float64 {
	if k <= 0 || dt <= 0 {
		return 0
	}
	return 1 - math.Exp(-k*dt)
}

// Damp moves current toward target with rate constant k over dt seconds.
// It never overshoots.
func Damp(current, target, k, dt float64) float64 {
	return current + (target-current)*Alpha(k, dt)
}

// DampVec is Damp applied to each component of a vector.
func DampVec(current, target r3.Vec, k, dt float64) r3.Vec {
	return r3.Add(current, r3.Scale(Alpha(k, dt), r3.Sub(target, current)))
}

// DampColor is Damp applied to each color channel.
func DampColor(current, target visual.Color, k, dt float64) visual.Color {
	a := Alpha(k, dt)
	return visual.Color{
		R: current.R + (target.R-current.R)*a,
		G: current.G + (target.G-current.G)*a,
		B: current.B + (target.B-current.B)*a,
	}
}
