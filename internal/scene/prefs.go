package scene

import (
	"errors"
	"log/slog"

	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/visual"
)

// Settings is the persisted key-value store for preferences.
type Settings interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// LoadPrefs reads the stored shape and theme. Missing, invalid or
// unreadable values fall back to the defaults.
func LoadPrefs(settings Settings, logger *slog.Logger) (visual.Shape, visual.Theme) {
	if settings == nil {
		return visual.DefaultShape, visual.ThemeDark
	}

	read := func(key string) string {
		v, err := settings.Get(key)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			logger.Debug("read preference failed", "key", key, "err", err)
		}
		return v
	}

	raw := read(store.SettingShape)
	shape := visual.ShapeOrDefault(raw)
	if raw != "" && string(shape) != raw {
		logger.Debug("ignoring invalid stored shape", "shape", raw)
	}

	return shape, visual.ThemeOrDefault(read(store.SettingTheme))
}

func savePref(settings Settings, logger *slog.Logger, key, value string) {
	if settings == nil {
		return
	}
	if err := settings.Set(key, value); err != nil {
		logger.Debug("save preference failed", "key", key, "err", err)
	}
}
