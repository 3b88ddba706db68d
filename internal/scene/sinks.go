package scene

import (
	"log/slog"

	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/store"
)

// GestureAppender persists gesture feed entries.
type GestureAppender interface {
	Append(g *store.LoggedGesture) error
}

// GestureLogSink writes every new feed entry to the gesture log. Write
// failures are logged and dropped.
type GestureLogSink struct {
	log    GestureAppender
	logger *slog.Logger
}

// NewGestureLogSink creates a sink over log.
func NewGestureLogSink(log GestureAppender, logger *slog.Logger) *GestureLogSink {
	return &GestureLogSink{log: log, logger: logging.OrDefault(logger)}
}

// PublishFrame records out.Added in order.
func (s *GestureLogSink) PublishFrame(out Output) {
	for _, a := range out.Added {
		err := s.log.Append(&store.LoggedGesture{
			ID:           a.ID,
			Gesture:      string(a.Gesture),
			Handedness:   string(a.Handedness),
			Confidence:   a.Confidence,
			Shape:        string(out.Shape),
			RecognizedAt: a.InsertedAt,
		})
		if err != nil {
			s.logger.Debug("gesture log write failed", "id", a.ID, "err", err)
		}
	}
}

// PublishStatus is a no-op.
func (s *GestureLogSink) PublishStatus(Status) {}
