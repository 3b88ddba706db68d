package capture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func solid(t *testing.T, rows, cols int, v float64) *gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), rows, cols, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { m.Close() })
	return &m
}

func TestReplayCamera_PlaysInOrder(t *testing.T) {
	small := solid(t, 24, 32, 10)
	large := solid(t, 48, 64, 200)
	cam := NewReplayCamera([]*gocv.Mat{small, large}, false)
	require.NoError(t, cam.Open())
	defer cam.Close()

	first, err := cam.ReadFrame()
	require.NoError(t, err)
	defer first.Close()
	assert.Equal(t, 32, first.Cols())

	second, err := cam.ReadFrame()
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, 64, second.Cols())

	_, err = cam.ReadFrame()
	assert.ErrorIs(t, err, ErrReplayExhausted)

	assert.Equal(t, Stats{Frames: 2, Failures: 1, Width: 64, Height: 48}, cam.Stats())
}

func TestReplayCamera_ReturnsClones(t *testing.T) {
	src := solid(t, 8, 8, 50)
	cam := NewReplayCamera([]*gocv.Mat{src}, true)
	require.NoError(t, cam.Open())

	img, err := cam.ReadFrame()
	require.NoError(t, err)
	img.Close()

	assert.False(t, src.Empty(), "closing a served frame leaves the source intact")
}

func TestReplayCamera_Loops(t *testing.T) {
	cam := NewReplayCamera([]*gocv.Mat{solid(t, 4, 4, 1), solid(t, 4, 6, 1)}, true)
	require.NoError(t, cam.Open())

	widths := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		img, err := cam.ReadFrame()
		require.NoError(t, err)
		widths = append(widths, img.Cols())
		img.Close()
	}
	assert.Equal(t, []int{4, 6, 4, 6, 4}, widths)
}

func TestReplayCamera_ReopenRewinds(t *testing.T) {
	cam := NewReplayCamera([]*gocv.Mat{solid(t, 4, 4, 1)}, false)
	require.NoError(t, cam.Open())
	img, err := cam.ReadFrame()
	require.NoError(t, err)
	img.Close()

	require.NoError(t, cam.Close())
	require.NoError(t, cam.Open())

	img, err = cam.ReadFrame()
	require.NoError(t, err)
	img.Close()
}

func TestReplayCamera_Errors(t *testing.T) {
	t.Run("not open", func(t *testing.T) {
		_, err := NewReplayCamera(nil, false).ReadFrame()
		assert.ErrorIs(t, err, ErrCameraNotOpen)
	})

	t.Run("no frames", func(t *testing.T) {
		cam := NewReplayCamera(nil, true)
		require.NoError(t, cam.Open())
		_, err := cam.ReadFrame()
		assert.ErrorIs(t, err, ErrEmptyFrame)
	})

	t.Run("open failure", func(t *testing.T) {
		cam := NewReplayCamera(nil, false)
		cam.FailOpen(errors.New("no device"))
		assert.EqualError(t, cam.Open(), "no device")
		assert.False(t, cam.IsOpen())

		cam.FailOpen(nil)
		assert.NoError(t, cam.Open())
	})
}
