// Package capture reads webcam frames through GoCV.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned by ReadFrame before Open succeeds.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEmptyFrame means the device answered but produced no pixels,
	// which usually happens while it is still warming up.
	ErrEmptyFrame = errors.New("camera returned an empty frame")
)

// Camera is a frame producer. The caller owns every Mat returned by ReadFrame.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
	Stats() Stats
}

// Stats counts reads since construction.
type Stats struct {
	Frames   uint64
	Failures uint64
	Width    int
	Height   int
}

// Config selects the device and the requested stream format. Mirror flips
// frames horizontally, for devices that already deliver a selfie-mirrored
// image; tracking expects the raw sensor orientation.
type Config struct {
	DeviceID int
	FPS      int
	Width    int
	Height   int
	Mirror   bool
}

func (c Config) normalized() Config {
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	return c
}

type webcam struct {
	mu    sync.Mutex
	cfg   Config
	dev   *gocv.VideoCapture
	stats Stats
}

// NewCamera returns a closed camera for cfg.DeviceID.
func NewCamera(cfg Config) Camera {
	return &webcam{cfg: cfg.normalized()}
}

func (w *webcam) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dev != nil {
		return nil
	}

	dev, err := gocv.OpenVideoCapture(w.cfg.DeviceID)
	if err != nil {
		return fmt.Errorf("open device %d: %w", w.cfg.DeviceID, err)
	}
	if !dev.IsOpened() {
		dev.Close()
		return fmt.Errorf("device %d did not open", w.cfg.DeviceID)
	}

	// Drivers treat these as hints; the real size is recorded per frame.
	dev.Set(gocv.VideoCaptureFrameWidth, float64(w.cfg.Width))
	dev.Set(gocv.VideoCaptureFrameHeight, float64(w.cfg.Height))
	dev.Set(gocv.VideoCaptureFPS, float64(w.cfg.FPS))

	w.dev = dev
	return nil
}

func (w *webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dev == nil {
		return nil
	}
	err := w.dev.Close()
	w.dev = nil
	return err
}

func (w *webcam) ReadFrame() (*gocv.Mat, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dev == nil {
		return nil, ErrCameraNotOpen
	}

	img := gocv.NewMat()
	if !w.dev.Read(&img) || img.Empty() {
		img.Close()
		w.stats.Failures++
		return nil, ErrEmptyFrame
	}

	if w.cfg.Mirror {
		gocv.Flip(img, &img, 1)
	}

	w.stats.Frames++
	w.stats.Width, w.stats.Height = img.Cols(), img.Rows()
	return &img, nil
}

func (w *webcam) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dev != nil
}

func (w *webcam) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
