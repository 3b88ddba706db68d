package visual

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidShape is returned for shape names outside the supported set.
	ErrInvalidShape = errors.New("invalid shape")
	// ErrInvalidTheme is returned for theme names other than dark and light.
	ErrInvalidTheme = errors.New("invalid theme")
)

// Shape identifies the rendered geometry.
type Shape string

const (
	ShapeIcosahedron Shape = "Icosahedron"
	ShapeTorus       Shape = "Torus"
	ShapeCapsule     Shape = "Capsule"
)

// DefaultShape is used when no valid preference is stored.
const DefaultShape = ShapeIcosahedron

// Shapes lists the supported shapes.
var Shapes = []Shape{ShapeIcosahedron, ShapeTorus, ShapeCapsule}

// ParseShape validates a stored or requested shape name.
func ParseShape(s string) (Shape, error) {
	for _, shape := range Shapes {
		if string(shape) == s {
			return shape, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidShape, s)
}

// ShapeOrDefault parses s and falls back to DefaultShape.
func ShapeOrDefault(s string) Shape {
	shape, err := ParseShape(s)
	if err != nil {
		return DefaultShape
	}
	return shape
}

// Theme selects the color palette.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ParseTheme validates a stored or requested theme name.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeDark, ThemeLight:
		return Theme(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
}

// ThemeOrDefault parses s and falls back to ThemeDark.
func ThemeOrDefault(s string) Theme {
	theme, err := ParseTheme(s)
	if err != nil {
		return ThemeDark
	}
	return theme
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}
