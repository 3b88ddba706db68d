// Package server exposes the visual state to browsers: the state websocket,
// the overlay MJPEG stream, the settings and history APIs, and the static
// viewer.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/visual"
)

// Config selects the routes to mount. A nil component leaves its route
// unregistered.
type Config struct {
	StaticDir  string
	Hub        *Hub
	Frames     FrameSource
	Controller api.Controller
	GestureLog api.GestureLog
}

type Server struct {
	cfg     Config
	mux     *http.ServeMux
	started time.Time
}

func New(cfg Config) *Server {
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		started: time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.health)

	if s.cfg.Hub != nil {
		s.mux.Handle("GET /api/state", s.cfg.Hub)
	}
	if s.cfg.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.cfg.Frames))
	}
	if s.cfg.Controller != nil {
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.cfg.Controller))
	}
	if s.cfg.GestureLog != nil {
		s.mux.Handle("/api/history", api.NewHistoryHandler(s.cfg.GestureLog))
		s.mux.Handle("/api/history/chart", api.NewChartHandler(s.cfg.GestureLog, s.theme))
	}
	if s.cfg.StaticDir != "" {
		s.mux.Handle("GET /", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
}

// theme follows the live preference so the chart matches the viewer.
func (s *Server) theme() visual.Theme {
	if s.cfg.Controller == nil {
		return visual.ThemeDark
	}
	return s.cfg.Controller.Prefs().Theme
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Started  string `json:"started"`
	Clients  int    `json:"clients"`
	Stream   bool   `json:"stream"`
	Settings bool   `json:"settings"`
	History  bool   `json:"history"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Started:  humanize.Time(s.started),
		Stream:   s.cfg.Frames != nil,
		Settings: s.cfg.Controller != nil,
		History:  s.cfg.GestureLog != nil,
	}
	if s.cfg.Hub != nil {
		resp.Clients = s.cfg.Hub.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HTTPServer binds s to addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
