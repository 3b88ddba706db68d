package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/mudra/internal/store"
)

// MaxHistoryLimit caps the limit query parameter.
const MaxHistoryLimit = 500

// GestureLog is the read side of the persisted gesture log.
type GestureLog interface {
	List(limit int) ([]store.LoggedGesture, error)
	CountByGesture() (map[string]int, error)
}

// HistoryHandler handles GET /api/history.
type HistoryHandler struct {
	log GestureLog
}

// NewHistoryHandler creates a HistoryHandler over log.
func NewHistoryHandler(log GestureLog) *HistoryHandler {
	return &HistoryHandler{log: log}
}

type historyResponse struct {
	Entries []store.LoggedGesture `json:"entries"`
	Counts  map[string]int        `json:"counts"`
}

// ServeHTTP implements the http.Handler interface.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		allowMethods(w, http.MethodGet)
		return
	}

	limit := store.DefaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxHistoryLimit)
	}

	entries, err := h.log.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list gesture history: %v", err)
		return
	}
	if entries == nil {
		entries = []store.LoggedGesture{}
	}

	counts, err := h.log.CountByGesture()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "count gestures: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{Entries: entries, Counts: counts})
}
