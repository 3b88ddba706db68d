package store

import (
	"database/sql"
	"time"
)

// DefaultLogLimit caps List when no limit is given.
const DefaultLogLimit = 50

// LoggedGesture is one persisted gesture feed entry.
type LoggedGesture struct {
	ID           string    `json:"id"`
	Gesture      string    `json:"gesture"`
	Handedness   string    `json:"handedness"`
	Confidence   float64   `json:"confidence"`
	Shape        string    `json:"shape"`
	RecognizedAt time.Time `json:"recognized_at"`
}

// GestureLogRepository appends to and reads the gesture log.
type GestureLogRepository struct {
	db *sql.DB
}

// GestureLog returns the gesture log repository for this store.
func (s *Store) GestureLog() *GestureLogRepository {
	return &GestureLogRepository{db: s.db}
}

// Append inserts one entry.
func (r *GestureLogRepository) Append(g *LoggedGesture) error {
	_, err := r.db.Exec(
		`INSERT INTO gesture_log (id, gesture, handedness, confidence, shape, recognized_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Gesture, g.Handedness, g.Confidence, g.Shape, g.RecognizedAt.UTC(),
	)
	return err
}

// List returns up to limit entries, newest first.
func (r *GestureLogRepository) List(limit int) ([]LoggedGesture, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}

	rows, err := r.db.Query(
		`SELECT id, gesture, handedness, confidence, shape, recognized_at
		 FROM gesture_log ORDER BY recognized_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LoggedGesture
	for rows.Next() {
		var g LoggedGesture
		if err := rows.Scan(&g.ID, &g.Gesture, &g.Handedness, &g.Confidence, &g.Shape, &g.RecognizedAt); err != nil {
			return nil, err
		}
		entries = append(entries, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// CountByGesture returns how often each gesture was logged.
func (r *GestureLogRepository) CountByGesture() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT gesture, COUNT(*) FROM gesture_log GROUP BY gesture`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}

	return counts, rows.Err()
}
