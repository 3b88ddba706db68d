package server

import (
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/scene"
)

// frameView is the data of a "frame" message.
type frameView struct {
	State        stateView     `json:"state"`
	Frame        detectionView `json:"frame"`
	History      []historyView `json:"history"`
	Shape        string        `json:"shape"`
	Theme        string        `json:"theme"`
	Manipulating bool          `json:"manipulating"`
}

type stateView struct {
	Scale     float64    `json:"scale"`
	Color     string     `json:"color"`
	Rotation  [4]float64 `json:"rotation"` // x, y, z, w
	Position  [3]float64 `json:"position"`
	Roughness float64    `json:"roughness"`
}

type detectionView struct {
	Gesture    string             `json:"gesture"`
	Confidence float64            `json:"confidence"`
	Handedness string             `json:"handedness"`
	Landmarks  []detector.Point3D `json:"landmarks"`
	Pinch      pinchView          `json:"pinch"`
}

type pinchView struct {
	Active bool    `json:"active"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type historyView struct {
	ID         string    `json:"id"`
	Gesture    string    `json:"gesture"`
	InsertedAt time.Time `json:"inserted_at"`
}

func newFrameView(out scene.Output) frameView {
	s := out.State
	f := out.Frame

	history := make([]historyView, len(out.History))
	for i, e := range out.History {
		history[i] = historyView{ID: e.ID, Gesture: string(e.Gesture), InsertedAt: e.InsertedAt}
	}

	landmarks := f.Landmarks
	if landmarks == nil {
		landmarks = []detector.Point3D{}
	}

	return frameView{
		State: stateView{
			Scale:     s.Scale,
			Color:     s.Color.Hex(),
			Rotation:  [4]float64{s.Rotation.Imag, s.Rotation.Jmag, s.Rotation.Kmag, s.Rotation.Real},
			Position:  [3]float64{s.Position.X, s.Position.Y, s.Position.Z},
			Roughness: s.Roughness,
		},
		Frame: detectionView{
			Gesture:    string(f.Gesture),
			Confidence: f.Confidence,
			Handedness: string(f.Handedness),
			Landmarks:  landmarks,
			Pinch: pinchView{
				Active: f.Pinch.IsPinching(),
				X:      f.Pinch.X(),
				Y:      f.Pinch.Y(),
			},
		},
		History:      history,
		Shape:        string(out.Shape),
		Theme:        string(out.Theme),
		Manipulating: out.Manipulating,
	}
}
