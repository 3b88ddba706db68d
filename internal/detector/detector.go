package detector

import (
	"context"
	"errors"

	"gocv.io/x/gocv"
)

// ErrSourceUnavailable is returned when the tracking backend cannot be started.
// Callers treat it as retryable.
var ErrSourceUnavailable = errors.New("tracking source unavailable")

// Detector defines the interface for hand tracking implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the raw tracking result.
	// A frame with no hands yields an empty Result, not an error.
	Detect(frame *gocv.Mat) (Result, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Source produces one tracking result per available video frame.
type Source interface {
	Next(ctx context.Context) (Result, error)
	Close() error
}

// Config holds configuration options for hand tracking.
type Config struct {
	// MaxHands is the maximum number of hands to track (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// ScriptPath overrides the location of the MediaPipe service script.
	ScriptPath string

	// PythonPath overrides the interpreter; by default a venv next to the
	// binary or under ~/.mudra is preferred over python3 on PATH.
	PythonPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      1,
		MinConfidence: 0.5,
	}
}
