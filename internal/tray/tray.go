// Package tray provides a system tray menu for mudra.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/visual"
)

// Tray represents the system tray menu. It is also a scene.Sink so the
// menu can show the last recognized gesture and the tracking status.
type Tray struct {
	onToggle func(enabled bool)
	onTheme  func(theme visual.Theme)
	onShape  func(shape visual.Shape)
	onOpen   func()
	onQuit   func()

	mu          sync.RWMutex
	enabled     bool
	theme       visual.Theme
	shape       visual.Shape
	lastGesture string
	status      string

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuDark        *systray.MenuItem
	menuShapes      map[visual.Shape]*systray.MenuItem
	menuLastGesture *systray.MenuItem
	menuStatus      *systray.MenuItem
}

// New creates a Tray reflecting the current preferences.
func New(enabled bool, prefs scene.Prefs) *Tray {
	return &Tray{
		enabled: enabled,
		theme:   prefs.Theme,
		shape:   prefs.Shape,
	}
}

// OnToggle sets the callback for the enable item.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnTheme sets the callback for the dark theme item.
func (t *Tray) OnTheme(fn func(theme visual.Theme)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTheme = fn
}

// OnShape sets the callback for the shape items.
func (t *Tray) OnShape(fn func(shape visual.Shape)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onShape = fn
}

// OnOpen sets the callback for the "Open Viewer" item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for the quit item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops the tray event loop.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra gesture viewer")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(enabledTitle(t.enabled), "Toggle hand tracking")
	t.menuStatus = systray.AddMenuItem(statusTitle(t.status), "Tracking source status")
	t.menuStatus.Disable()
	systray.AddSeparator()

	t.menuDark = systray.AddMenuItemCheckbox("Dark theme", "Use the dark palette", t.theme == visual.ThemeDark)
	menuShape := systray.AddMenuItem("Shape", "Displayed object")
	t.menuShapes = make(map[visual.Shape]*systray.MenuItem, len(visual.Shapes))
	for _, s := range visual.Shapes {
		t.menuShapes[s] = menuShape.AddSubMenuItemCheckbox(string(s), "Show a "+string(s), s == t.shape)
	}
	systray.AddSeparator()

	t.menuLastGesture = systray.AddMenuItem(lastTitle(t.lastGesture), "Last recognized gesture")
	t.menuLastGesture.Disable()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Viewer...", "Open the viewer in a browser")
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")
	t.mu.Unlock()

	for s, item := range t.menuShapes {
		go func(s visual.Shape, item *systray.MenuItem) {
			for range item.ClickedCh {
				t.handleShape(s)
			}
		}(s, item)
	}

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuDark.ClickedCh:
				t.handleTheme()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(enabledTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleTheme() {
	t.mu.Lock()
	t.theme = t.theme.Toggle()
	theme := t.theme
	t.checkTheme()
	callback := t.onTheme
	t.mu.Unlock()

	if callback != nil {
		callback(theme)
	}
}

func (t *Tray) handleShape(shape visual.Shape) {
	t.mu.Lock()
	changed := shape != t.shape
	t.shape = shape
	t.checkShape()
	callback := t.onShape
	t.mu.Unlock()

	if changed && callback != nil {
		callback(shape)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// PublishFrame shows newly recognized gestures and follows preference
// changes made elsewhere.
func (t *Tray) PublishFrame(out scene.Output) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if out.Theme != "" && out.Theme != t.theme {
		t.theme = out.Theme
		t.checkTheme()
	}
	if out.Shape != "" && out.Shape != t.shape {
		t.shape = out.Shape
		t.checkShape()
	}

	if len(out.Added) == 0 {
		return
	}
	t.lastGesture = string(out.Added[len(out.Added)-1].Gesture)
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(lastTitle(t.lastGesture))
	}
}

// checkTheme syncs the dark theme checkbox. Callers hold t.mu.
func (t *Tray) checkTheme() {
	if t.menuDark == nil {
		return
	}
	if t.theme == visual.ThemeDark {
		t.menuDark.Check()
	} else {
		t.menuDark.Uncheck()
	}
}

// checkShape marks the current shape. Callers hold t.mu.
func (t *Tray) checkShape() {
	for s, item := range t.menuShapes {
		if s == t.shape {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// PublishStatus shows the tracking source status.
func (t *Tray) PublishStatus(st scene.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = st.State
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitle(t.status))
	}
}

// LastGesture returns the last gesture shown in the menu.
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastGesture
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func enabledTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(gesture string) string {
	if gesture == "" {
		return "Last: none"
	}
	return "Last: " + gesture
}

func statusTitle(status string) string {
	if status == "" {
		status = scene.StateStarting
	}
	return "Tracking: " + status
}
