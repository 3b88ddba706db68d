// Package visual maps discrete gestures to the visual parameters of the
// rendered object.
package visual

import "github.com/ayusman/mudra/internal/ingest"

// Target is the visual state a gesture asks for. The animation driver
// eases toward it; it never jumps there.
type Target struct {
	Scale         float64
	Color         Color
	RotationSpeed float64
	Roughness     float64
	// KeepRoughness means the gesture leaves roughness where it was.
	KeepRoughness  bool
	VerticalOffset float64
}

// style is one row of the gesture table. light is the zero Color when the
// gesture uses the same color in both themes.
type style struct {
	scale          float64
	dark, light    Color
	rotationSpeed  float64
	roughness      float64
	keepRoughness  bool
	verticalOffset float64
}

var (
	purple = MustHex("#a020f0")
	gold   = MustHex("#ffd700")
	green  = MustHex("#00ff00")
	gray   = MustHex("#808080")
)

var styles = map[ingest.Gesture]style{
	ingest.GestureNone: {
		scale: 1.2, dark: MustHex("#ffffff"), light: MustHex("#333333"),
		rotationSpeed: 0.5, roughness: 0.3,
	},
	ingest.GestureOpenPalm: {
		scale: 2.0, dark: MustHex("#00ffff"), light: MustHex("#0066ff"),
		rotationSpeed: 0.2, roughness: 0.05,
	},
	ingest.GestureClosedFist: {
		scale: 0.6, dark: MustHex("#ff0000"), light: MustHex("#990000"),
		rotationSpeed: 0, roughness: 0.8,
	},
	ingest.GesturePointingUp: {
		scale: 1.2, dark: purple, rotationSpeed: 1.0, roughness: 0.2, verticalOffset: 2,
	},
	ingest.GesturePointingDown: {
		scale: 1.2, dark: purple, rotationSpeed: 1.0, roughness: 0.2, verticalOffset: -2,
	},
	ingest.GestureVictory: {
		scale: 1.5, dark: gold, rotationSpeed: 3.0, roughness: 0,
	},
	ingest.GestureThumbUp: {
		scale: 1.3, dark: green, rotationSpeed: 1.0, keepRoughness: true,
	},
	ingest.GestureThumbDown: {
		scale: 0.8, dark: gray, rotationSpeed: 0.2, keepRoughness: true,
	},
}

// MapGesture returns the target for gesture g under the given theme.
// Gestures outside the table map like None.
func MapGesture(g ingest.Gesture, theme Theme) Target {
	s, ok := styles[g]
	if !ok {
		s = styles[ingest.GestureNone]
	}

	color := s.dark
	if theme == ThemeLight && s.light != (Color{}) {
		color = s.light
	}

	return Target{
		Scale:          s.scale,
		Color:          color,
		RotationSpeed:  s.rotationSpeed,
		Roughness:      s.roughness,
		KeepRoughness:  s.keepRoughness,
		VerticalOffset: s.verticalOffset,
	}
}
