// Package history keeps the short feed of recently recognized gestures.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/ingest"
)

// Defaults for the gesture feed.
const (
	DefaultCapacity = 3
	DefaultTTL      = 2500 * time.Millisecond
)

// Entry is one recognized gesture in the feed.
type Entry struct {
	ID         string
	Gesture    ingest.Gesture
	InsertedAt time.Time
}

// Queue is a bounded FIFO of gestures. It is not safe for concurrent use;
// the frame loop owns it.
//
// Expiry uses a single restart-on-mutation timer: after TTL with no change,
// the oldest entry is dropped and the timer restarts.
type Queue struct {
	capacity int
	ttl      time.Duration
	newID    func() string

	entries  []Entry
	last     ingest.Gesture
	deadline time.Time
}

// NewQueue creates an empty queue. Non-positive arguments use the defaults.
func NewQueue(capacity int, ttl time.Duration) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{
		capacity: capacity,
		ttl:      ttl,
		newID:    uuid.NewString,
		entries:  make([]Entry, 0, capacity),
		last:     ingest.GestureNone,
	}
}

// Observe records the gesture of the current frame. It enqueues only when g
// is not None and differs from the most recently enqueued gesture.
func (q *Queue) Observe(g ingest.Gesture, now time.Time) (Entry, bool) {
	if g == ingest.GestureNone || g == q.last {
		return Entry{}, false
	}

	e := Entry{
		ID:         q.newID(),
		Gesture:    g,
		InsertedAt: now,
	}

	if len(q.entries) == q.capacity {
		copy(q.entries, q.entries[1:])
		q.entries = q.entries[:q.capacity-1]
	}
	q.entries = append(q.entries, e)
	q.last = g
	q.deadline = now.Add(q.ttl)

	return e, true
}

// Expire drops the oldest entry if the timer has fired. It reports whether
// anything was removed.
func (q *Queue) Expire(now time.Time) bool {
	if len(q.entries) == 0 || now.Before(q.deadline) {
		return false
	}

	copy(q.entries, q.entries[1:])
	q.entries = q.entries[:len(q.entries)-1]
	q.deadline = now.Add(q.ttl)

	return true
}

// Entries returns a copy of the feed, oldest first.
func (q *Queue) Entries() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of entries.
func (q *Queue) Len() int {
	return len(q.entries)
}
