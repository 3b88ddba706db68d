package detector

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
)

// AnnotateFunc receives every captured frame together with its tracking
// result before the frame is released.
type AnnotateFunc func(frame *gocv.Mat, res Result)

// CameraSource reads frames from a camera and runs them through a Detector.
type CameraSource struct {
	camera   capture.Camera
	detector Detector
	annotate AnnotateFunc
}

// NewCameraSource creates a Source over camera and detector. annotate may be nil.
func NewCameraSource(camera capture.Camera, d Detector, annotate AnnotateFunc) *CameraSource {
	return &CameraSource{
		camera:   camera,
		detector: d,
		annotate: annotate,
	}
}

// Next captures one frame and returns its tracking result.
func (s *CameraSource) Next(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if !s.camera.IsOpen() {
		if err := s.camera.Open(); err != nil {
			return Result{}, fmt.Errorf("open camera: %v: %w", err, ErrSourceUnavailable)
		}
	}

	frame, err := s.camera.ReadFrame()
	if err != nil {
		return Result{}, fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	res, err := s.detector.Detect(frame)
	if err != nil {
		return Result{}, fmt.Errorf("detect: %w", err)
	}

	if s.annotate != nil {
		s.annotate(frame, res)
	}

	return res, nil
}

// Close releases the camera and the detector.
func (s *CameraSource) Close() error {
	camErr := s.camera.Close()
	detErr := s.detector.Close()
	if camErr != nil {
		return camErr
	}
	return detErr
}
