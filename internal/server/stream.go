package server

import (
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"
)

const (
	streamBoundary = "frame"
	streamPoll     = 33 * time.Millisecond
)

// FrameSource provides the latest annotated JPEG and a sequence number that
// advances whenever it changes. Sequence 0 means nothing has been captured.
type FrameSource interface {
	Latest() ([]byte, uint64)
}

// StreamHandler serves the debug overlay as an MJPEG multipart stream.
type StreamHandler struct {
	frames FrameSource
	poll   time.Duration
}

func NewStreamHandler(frames FrameSource) *StreamHandler {
	return &StreamHandler{frames: frames, poll: streamPoll}
}

// ServeHTTP writes each new frame once, until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(streamBoundary); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+streamBoundary)
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)

	tick := time.NewTicker(h.poll)
	defer tick.Stop()

	var last uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
		}

		jpeg, seq := h.frames.Latest()
		if seq == 0 || seq == last {
			continue
		}
		last = seq

		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":   {"image/jpeg"},
			"Content-Length": {strconv.Itoa(len(jpeg))},
		})
		if err != nil {
			return
		}
		if _, err := part.Write(jpeg); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
