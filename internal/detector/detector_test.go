package detector

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
)

func TestParseResult(t *testing.T) {
	t.Run("decodes service line", func(t *testing.T) {
		line := []byte(`{"landmarks":[[{"x":0.1,"y":0.2,"z":0.3}]],` +
			`"gestures":[[{"categoryName":"Victory","score":0.91}]],` +
			`"handedness":[[{"categoryName":"Left","displayName":"Left","score":0.99}]]}` + "\n")

		res, err := parseResult(line)
		require.NoError(t, err)
		require.Len(t, res.Landmarks, 1)
		assert.Equal(t, Point3D{X: 0.1, Y: 0.2, Z: 0.3}, res.Landmarks[0][0])
		assert.Equal(t, "Victory", res.Gestures[0][0].CategoryName)
		assert.InDelta(t, 0.91, res.Gestures[0][0].Score, 1e-9)
		assert.Equal(t, "Left", res.Handedness[0][0].DisplayName)
	})

	t.Run("empty object is no hands", func(t *testing.T) {
		res, err := parseResult([]byte("{}\n"))
		require.NoError(t, err)
		assert.Empty(t, res.Landmarks)
	})

	t.Run("garbage is an error", func(t *testing.T) {
		_, err := parseResult([]byte("not json\n"))
		assert.Error(t, err)
	})
}

func TestServiceConn_RoundTrip(t *testing.T) {
	var sent bytes.Buffer
	conn := &serviceConn{
		w: &sent,
		r: bufio.NewReader(strings.NewReader(`{"gestures":[[{"categoryName":"Open_Palm","score":0.7}]]}` + "\n")),
	}

	res, err := conn.roundTrip([]byte("JPEG"))
	require.NoError(t, err)
	assert.Equal(t, "Open_Palm", res.Gestures[0][0].CategoryName)

	wire := sent.Bytes()
	require.Len(t, wire, 8)
	assert.Equal(t, uint32(4), binary.BigEndian.Uint32(wire[:4]))
	assert.Equal(t, "JPEG", string(wire[4:]))

	_, err = conn.roundTrip([]byte("JPEG"))
	assert.ErrorIs(t, err, io.EOF, "closed stdout surfaces as EOF")
}

func TestNewMediaPipeDetector_ExplicitPaths(t *testing.T) {
	d, err := NewMediaPipeDetector(Config{ScriptPath: "/opt/svc.py", PythonPath: "/opt/py"})
	require.NoError(t, err)
	assert.Equal(t, "/opt/svc.py", d.script)
	assert.Equal(t, "/opt/py", d.python)
	assert.NoError(t, d.Close(), "closing an unstarted detector is a no-op")
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestMediaPipeDetector_StaleIdleTimerKeepsService(t *testing.T) {
	stdin := &closeRecorder{}
	d := &MediaPipeDetector{in: stdin, conn: &serviceConn{w: stdin}}

	d.mu.Lock()
	d.touch()
	stale := d.gen
	d.touch()
	current := d.gen
	d.mu.Unlock()

	d.idleExpired(stale)
	assert.NotNil(t, d.conn, "a timer re-armed by a later frame must not stop the service")
	assert.False(t, stdin.closed)

	d.idleExpired(current)
	assert.Nil(t, d.conn)
	assert.Nil(t, d.idle)
	assert.True(t, stdin.closed)

	d.idleExpired(current)
	assert.Nil(t, d.conn, "a callback that fired before a stop is a no-op")
}

func TestPlanarDistance(t *testing.T) {
	a := Point3D{X: 0, Y: 0, Z: 5}
	b := Point3D{X: 0.3, Y: 0.4, Z: -5}

	if got := PlanarDistance(a, b); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("PlanarDistance() = %f, want 0.5", got)
	}
}

func TestLandmarkLayout(t *testing.T) {
	assert.Equal(t, 21, NumLandmarks)
	assert.Equal(t, ThumbTip, Tip(Thumb))
	assert.Equal(t, IndexTip, Tip(Index))
	assert.Equal(t, 20, Tip(Pinky))
	assert.Equal(t, 9, Joint(Middle, 0))

	require.Len(t, HandConnections, 21)
	degree := make([]int, NumLandmarks)
	for _, bone := range HandConnections {
		require.Less(t, bone[0], NumLandmarks)
		require.Less(t, bone[1], NumLandmarks)
		degree[bone[0]]++
		degree[bone[1]]++
	}
	for i, d := range degree {
		assert.NotZero(t, d, "landmark %d is not connected", i)
	}
	for f := Thumb; f <= Pinky; f++ {
		assert.Equal(t, 1, degree[Tip(f)], "finger %d tip ends the chain", f)
	}
}

func TestPinchLandmarks(t *testing.T) {
	hand := PinchLandmarks(0.4, 0.6, 0.05)

	require.Len(t, hand, NumLandmarks)
	assert.InDelta(t, 0.05, PlanarDistance(hand[ThumbTip], hand[IndexTip]), 1e-12)
	assert.InDelta(t, 0.4, (hand[ThumbTip].X+hand[IndexTip].X)/2, 1e-12)
	assert.InDelta(t, 0.6, (hand[ThumbTip].Y+hand[IndexTip].Y)/2, 1e-12)
}

func TestOpenPalmLandmarks_NotPinching(t *testing.T) {
	hand := OpenPalmLandmarks()

	if d := PlanarDistance(hand[ThumbTip], hand[IndexTip]); d < 0.08 {
		t.Errorf("open palm thumb/index distance = %f, should be well above pinch range", d)
	}
}

func TestScriptedSource(t *testing.T) {
	ctx := context.Background()
	failure := errors.New("inference failed")

	src := NewScriptedSource(
		ScriptStep{Result: GestureResult("Open_Palm", 0.9, OpenPalmLandmarks())},
		ScriptStep{Err: failure},
		ScriptStep{Result: Result{}},
	)

	res, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Open_Palm", res.Gestures[0][0].CategoryName)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, failure)

	for i := 0; i < 3; i++ {
		res, err = src.Next(ctx)
		require.NoError(t, err)
		assert.Empty(t, res.Landmarks, "exhausted script repeats its last step")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = src.Next(cancelled)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, src.Close())
	assert.True(t, src.Closed())
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty result by default", func(t *testing.T) {
		mock := NewMockDetector()

		res, err := mock.Detect(nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(res.Landmarks) != 0 {
			t.Errorf("expected no hands, got %d", len(res.Landmarks))
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		if _, err := mock.Detect(nil); err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestCameraSource(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := capture.NewReplayCamera([]*gocv.Mat{&frame}, true)
	det := NewMockDetector()
	det.SetResult(GestureResult("Thumb_Up", 0.8, OpenPalmLandmarks()))

	var annotated int
	src := NewCameraSource(cam, det, func(m *gocv.Mat, res Result) {
		annotated++
		assert.False(t, m.Empty())
		assert.Len(t, res.Landmarks, 1)
	})
	defer src.Close()

	t.Run("opens camera lazily and annotates", func(t *testing.T) {
		res, err := src.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Thumb_Up", res.Gestures[0][0].CategoryName)
		assert.True(t, cam.IsOpen())
		assert.Equal(t, 1, annotated)
	})

	t.Run("detector errors are wrapped", func(t *testing.T) {
		det.SetError(errors.New("boom"))
		_, err := src.Next(context.Background())
		assert.ErrorContains(t, err, "detect: boom")
		det.SetError(nil)
	})

	t.Run("open failure is retryable", func(t *testing.T) {
		broken := capture.NewReplayCamera(nil, false)
		broken.FailOpen(errors.New("no device"))
		s := NewCameraSource(broken, NewMockDetector(), nil)

		_, err := s.Next(context.Background())
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})
}
