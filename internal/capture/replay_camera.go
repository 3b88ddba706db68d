package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrReplayExhausted is returned once a non-looping replay has handed out
// every frame.
var ErrReplayExhausted = errors.New("replay exhausted")

// ReplayCamera serves clones of in-memory frames. It stands in for a webcam
// in tests and offline runs.
type ReplayCamera struct {
	mu      sync.Mutex
	frames  []*gocv.Mat
	next    int
	loop    bool
	open    bool
	openErr error
	stats   Stats
}

// NewReplayCamera plays frames in order, wrapping around when loop is set.
func NewReplayCamera(frames []*gocv.Mat, loop bool) *ReplayCamera {
	return &ReplayCamera{frames: frames, loop: loop}
}

// FailOpen makes Open return err until it is called again with nil.
func (c *ReplayCamera) FailOpen(err error) {
	c.mu.Lock()
	c.openErr = err
	c.mu.Unlock()
}

func (c *ReplayCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return c.openErr
	}
	c.open = true
	c.next = 0
	return nil
}

func (c *ReplayCamera) Close() error {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
	return nil
}

func (c *ReplayCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case !c.open:
		return nil, ErrCameraNotOpen
	case len(c.frames) == 0:
		c.stats.Failures++
		return nil, ErrEmptyFrame
	case c.next == len(c.frames) && !c.loop:
		c.stats.Failures++
		return nil, ErrReplayExhausted
	}

	src := c.frames[c.next%len(c.frames)]
	c.next = c.next%len(c.frames) + 1

	img := src.Clone()
	c.stats.Frames++
	c.stats.Width, c.stats.Height = img.Cols(), img.Rows()
	return &img, nil
}

func (c *ReplayCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *ReplayCamera) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
