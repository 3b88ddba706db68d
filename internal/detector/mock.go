package detector

import (
	"context"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the tracking results.
type MockDetector struct {
	result Result
	err    error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetResult sets the result that will be returned by Detect.
func (m *MockDetector) SetResult(res Result) {
	m.result = res
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured result or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Result, error) {
	if m.err != nil {
		return Result{}, m.err
	}
	return m.result, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// ScriptedSource replays a fixed sequence of results, one per Next call.
// Once the script is exhausted it keeps returning the last entry.
type ScriptedSource struct {
	mu     sync.Mutex
	steps  []ScriptStep
	index  int
	closed bool
}

// ScriptStep is one scripted tracking cycle.
type ScriptStep struct {
	Result Result
	Err    error
}

// NewScriptedSource creates a source that replays steps in order.
func NewScriptedSource(steps ...ScriptStep) *ScriptedSource {
	return &ScriptedSource{steps: steps}
}

// Next returns the next scripted step.
func (s *ScriptedSource) Next(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.steps) == 0 {
		return Result{}, nil
	}

	step := s.steps[s.index]
	if s.index < len(s.steps)-1 {
		s.index++
	}
	return step.Result, step.Err
}

// Consumed reports how many steps have been handed out.
func (s *ScriptedSource) Consumed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Close marks the source closed.
func (s *ScriptedSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *ScriptedSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// GestureResult builds a single-hand result classified as gesture.
func GestureResult(gesture string, score float64, hand []Point3D) Result {
	return Result{
		Landmarks:  [][]Point3D{hand},
		Gestures:   [][]Category{{{CategoryName: gesture, Score: score}}},
		Handedness: [][]Category{{{CategoryName: "Right", DisplayName: "Right", Score: 0.98}}},
	}
}

// openPalm holds each finger's joints, base to tip, for a relaxed right hand.
var openPalm = [5][JointsPerFinger]Point3D{
	Thumb:  {{X: 0.55, Y: 0.75, Z: 0.02}, {X: 0.62, Y: 0.70, Z: 0.03}, {X: 0.68, Y: 0.65, Z: 0.03}, {X: 0.73, Y: 0.60, Z: 0.03}},
	Index:  {{X: 0.55, Y: 0.68}, {X: 0.57, Y: 0.55}, {X: 0.58, Y: 0.45}, {X: 0.58, Y: 0.35}},
	Middle: {{X: 0.50, Y: 0.66}, {X: 0.50, Y: 0.52}, {X: 0.50, Y: 0.40}, {X: 0.50, Y: 0.28}},
	Ring:   {{X: 0.45, Y: 0.68}, {X: 0.43, Y: 0.55}, {X: 0.42, Y: 0.45}, {X: 0.42, Y: 0.35}},
	Pinky:  {{X: 0.40, Y: 0.70}, {X: 0.37, Y: 0.60}, {X: 0.35, Y: 0.50}, {X: 0.34, Y: 0.42}},
}

// OpenPalmLandmarks returns a right hand with all fingers extended and the
// thumb well away from the index finger.
func OpenPalmLandmarks() []Point3D {
	points := make([]Point3D, NumLandmarks)
	points[Wrist] = Point3D{X: 0.5, Y: 0.8}
	for f, joints := range openPalm {
		for j, p := range joints {
			points[Joint(Finger(f), j)] = p
		}
	}
	return points
}

// PinchLandmarks returns an open hand whose thumb and index tips are gap apart,
// centered on (x, y).
func PinchLandmarks(x, y, gap float64) []Point3D {
	points := OpenPalmLandmarks()
	points[ThumbTip] = Point3D{X: x - gap/2, Y: y}
	points[IndexTip] = Point3D{X: x + gap/2, Y: y}
	return points
}
