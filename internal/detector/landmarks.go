// Package detector provides the hand tracking source that feeds the gesture pipeline.
package detector

import "math"

// Finger names the five digits in MediaPipe landmark order.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// JointsPerFinger counts the landmarks of one digit, base first, tip last.
const JointsPerFinger = 4

// Landmark indices follow the MediaPipe hand model: the wrist, then four
// joints per finger from thumb to pinky.
const (
	Wrist        = 0
	ThumbTip     = 4
	IndexTip     = 8
	NumLandmarks = 1 + 5*JointsPerFinger
)

// Joint returns the landmark index of joint j (0 = base, 3 = tip) on f.
func Joint(f Finger, j int) int {
	return 1 + int(f)*JointsPerFinger + j
}

// Tip returns the fingertip landmark of f.
func Tip(f Finger) int {
	return Joint(f, JointsPerFinger-1)
}

// HandConnections lists the landmark pairs drawn as the hand skeleton.
var HandConnections = skeleton()

func skeleton() [][2]int {
	var bones [][2]int
	for f := Thumb; f <= Pinky; f++ {
		for j := 0; j < JointsPerFinger-1; j++ {
			bones = append(bones, [2]int{Joint(f, j), Joint(f, j+1)})
		}
	}
	// Palm outline: wrist to thumb, index and pinky bases, then across the knuckles.
	bones = append(bones,
		[2]int{Wrist, Joint(Thumb, 0)},
		[2]int{Wrist, Joint(Index, 0)},
		[2]int{Wrist, Joint(Pinky, 0)},
	)
	for f := Index; f < Pinky; f++ {
		bones = append(bones, [2]int{Joint(f, 0), Joint(f+1, 0)})
	}
	return bones
}

// Point3D is a landmark position in normalized [0,1] image space.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Category is one ranked classification entry (gesture or handedness).
type Category struct {
	CategoryName string  `json:"categoryName"`
	DisplayName  string  `json:"displayName,omitempty"`
	Score        float64 `json:"score"`
}

// Result is the raw output of one tracking cycle. Each outer slice is indexed
// by tracked hand; inner classification lists are ranked by score.
type Result struct {
	Landmarks  [][]Point3D  `json:"landmarks"`
	Gestures   [][]Category `json:"gestures"`
	Handedness [][]Category `json:"handedness"`
}

// PlanarDistance is the distance between a and b ignoring depth.
func PlanarDistance(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
