package api

import (
	"net/http"

	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/visual"
)

// Controller is the part of the scene runner the settings API drives.
type Controller interface {
	Prefs() scene.Prefs
	SetShape(shape visual.Shape)
	SetTheme(theme visual.Theme)
	Enabled() bool
	SetEnabled(enabled bool)
}

// SettingsHandler handles GET and PUT on /api/settings.
type SettingsHandler struct {
	ctrl Controller
}

// NewSettingsHandler creates a SettingsHandler over ctrl.
func NewSettingsHandler(ctrl Controller) *SettingsHandler {
	return &SettingsHandler{ctrl: ctrl}
}

type settingsResponse struct {
	Shape   visual.Shape   `json:"shape"`
	Theme   visual.Theme   `json:"theme"`
	Enabled bool           `json:"enabled"`
	Shapes  []visual.Shape `json:"shapes"`
}

type updateSettingsRequest struct {
	Shape   *string `json:"shape"`
	Theme   *string `json:"theme"`
	Enabled *bool   `json:"enabled"`
}

// ServeHTTP implements the http.Handler interface.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		p := h.ctrl.Prefs()
		writeJSON(w, http.StatusOK, h.response(p.Shape, p.Theme, h.ctrl.Enabled()))
	case http.MethodPut:
		h.update(w, r)
	default:
		allowMethods(w, http.MethodGet, http.MethodPut)
	}
}

// update validates the whole request before applying any of it.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings body: %v", err)
		return
	}

	current := h.ctrl.Prefs()
	shape, theme, enabled := current.Shape, current.Theme, h.ctrl.Enabled()

	if req.Shape != nil {
		s, err := visual.ParseShape(*req.Shape)
		if err != nil {
			writeError(w, http.StatusBadRequest, "%v", err)
			return
		}
		shape = s
	}
	if req.Theme != nil {
		t, err := visual.ParseTheme(*req.Theme)
		if err != nil {
			writeError(w, http.StatusBadRequest, "%v", err)
			return
		}
		theme = t
	}
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	if shape != current.Shape {
		h.ctrl.SetShape(shape)
	}
	if theme != current.Theme {
		h.ctrl.SetTheme(theme)
	}
	h.ctrl.SetEnabled(enabled)

	writeJSON(w, http.StatusOK, h.response(shape, theme, enabled))
}

func (h *SettingsHandler) response(shape visual.Shape, theme visual.Theme, enabled bool) settingsResponse {
	return settingsResponse{
		Shape:   shape,
		Theme:   theme,
		Enabled: enabled,
		Shapes:  visual.Shapes,
	}
}
