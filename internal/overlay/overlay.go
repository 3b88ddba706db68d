// Package overlay draws the tracked hand skeleton and the pinch indicator
// onto captured frames and keeps the latest annotated frame for streaming.
package overlay

import (
	"image"
	"image/color"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/ingest"
)

var (
	boneColor     = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	jointColor    = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	pinchColor    = color.RGBA{R: 255, G: 0, B: 255, A: 0}
	pinchOffColor = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// Overlay annotates frames and holds the most recent one as JPEG.
type Overlay struct {
	mu   sync.RWMutex
	jpeg []byte
	seq  uint64
	now  func() time.Time
}

// New creates an empty Overlay.
func New() *Overlay {
	return &Overlay{now: time.Now}
}

// Annotate draws res onto frame and stores the encoded result. Its
// signature matches detector.AnnotateFunc.
func (o *Overlay) Annotate(frame *gocv.Mat, res detector.Result) {
	if frame == nil || frame.Empty() {
		return
	}

	Draw(frame, ingest.FromResult(res, o.now()))

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return
	}
	defer buf.Close()

	o.Store(buf.GetBytes())
}

// Store replaces the latest frame with a copy of jpeg.
func (o *Overlay) Store(jpeg []byte) {
	b := make([]byte, len(jpeg))
	copy(b, jpeg)

	o.mu.Lock()
	o.jpeg = b
	o.seq++
	o.mu.Unlock()
}

// Latest returns the latest encoded frame and its sequence number. The
// sequence is zero until the first frame arrives.
func (o *Overlay) Latest() ([]byte, uint64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.jpeg, o.seq
}

// Draw renders the skeleton connections, the joints and the pinch indicator
// of f onto img. Frames without a hand are left untouched.
func Draw(img *gocv.Mat, f ingest.DetectionFrame) {
	if !f.HasHand() {
		return
	}

	w, h := img.Cols(), img.Rows()
	pts := make([]image.Point, len(f.Landmarks))
	for i, p := range f.Landmarks {
		pts[i] = toPixel(p.X, p.Y, w, h)
	}

	for _, c := range detector.HandConnections {
		gocv.Line(img, pts[c[0]], pts[c[1]], boneColor, 2)
	}
	for _, p := range pts {
		gocv.Circle(img, p, 4, jointColor, -1)
	}

	thumb, index := pts[detector.ThumbTip], pts[detector.IndexTip]
	if f.Pinch.IsPinching() {
		center := toPixel(f.Pinch.X(), f.Pinch.Y(), w, h)
		gocv.Circle(img, center, 12, pinchColor, 3)
		gocv.Line(img, thumb, index, pinchColor, 3)
	} else {
		gocv.Line(img, thumb, index, pinchOffColor, 1)
	}
}

func toPixel(x, y float64, w, h int) image.Point {
	return image.Point{X: int(x * float64(w)), Y: int(y * float64(h))}
}
