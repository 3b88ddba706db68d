// Package config loads the YAML configuration for the mudra service.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/animate"
	"github.com/ayusman/mudra/internal/logging"
)

// Config is the top-level YAML configuration.
//
// Defaults live in Default so the rest of the code can assume a
// well-formed config after Validate.
type Config struct {
	Camera    CameraConfig   `yaml:"camera"`
	Detector  DetectorConfig `yaml:"detector"`
	Render    RenderConfig   `yaml:"render"`
	Smoothing animate.Rates  `yaml:"smoothing"`
	Server    ServerConfig   `yaml:"server"`
	Store     StoreConfig    `yaml:"store"`
	Logging   LoggingConfig  `yaml:"logging"`
	Tray      TrayConfig     `yaml:"tray"`
}

type CameraConfig struct {
	Device int  `yaml:"device"`
	FPS    int  `yaml:"fps"`
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	Mirror bool `yaml:"mirror"`
}

type DetectorConfig struct {
	MaxHands      int     `yaml:"max_hands"`
	MinConfidence float64 `yaml:"min_confidence"`
	ScriptPath    string  `yaml:"script_path,omitempty"`
	PythonPath    string  `yaml:"python_path,omitempty"`
	RetryMS       int     `yaml:"retry_ms"`
}

type RenderConfig struct {
	RefreshHz  int `yaml:"refresh_hz"`
	MaxDeltaMS int `yaml:"max_delta_ms"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir,omitempty"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns a fully-populated Config.
func Default() Config {
	return Config{
		Camera: CameraConfig{
			Device: 0,
			FPS:    30,
			Width:  640,
			Height: 480,
		},
		Detector: DetectorConfig{
			MaxHands:      1,
			MinConfidence: 0.5,
			RetryMS:       2000,
		},
		Render: RenderConfig{
			RefreshHz:  60,
			MaxDeltaMS: 100,
		},
		Smoothing: animate.DefaultRates(),
		Server: ServerConfig{
			Addr: ":8080",
		},
		Store: StoreConfig{
			Path: "~/.mudra/mudra.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Tray: TrayConfig{
			Enabled: false,
		},
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return "~/.mudra/config.yaml"
}

// Load reads path on top of the defaults. A missing file at the default
// path is not an error; the defaults are returned.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	return Parse(b)
}

// Parse decodes YAML on top of the defaults. Unknown fields are rejected.
func Parse(b []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	return cfg, nil
}

// Validate checks config invariants and returns a user-friendly error.
func (c *Config) Validate() error {
	if c.Camera.Device < 0 {
		return fmt.Errorf("camera.device must be >= 0, got %d", c.Camera.Device)
	}
	if c.Camera.FPS <= 0 || c.Camera.FPS > 240 {
		return fmt.Errorf("camera.fps must be in 1..240, got %d", c.Camera.FPS)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return errors.New("camera.width and camera.height must be positive")
	}

	if c.Detector.MaxHands < 1 {
		return fmt.Errorf("detector.max_hands must be >= 1, got %d", c.Detector.MaxHands)
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector.min_confidence must be in [0,1], got %v", c.Detector.MinConfidence)
	}
	if c.Detector.RetryMS <= 0 {
		return fmt.Errorf("detector.retry_ms must be positive, got %d", c.Detector.RetryMS)
	}

	if c.Render.RefreshHz <= 0 || c.Render.RefreshHz > 480 {
		return fmt.Errorf("render.refresh_hz must be in 1..480, got %d", c.Render.RefreshHz)
	}
	if c.Render.MaxDeltaMS <= 0 {
		return fmt.Errorf("render.max_delta_ms must be positive, got %d", c.Render.MaxDeltaMS)
	}

	if err := c.Smoothing.Validate(); err != nil {
		return fmt.Errorf("smoothing: %w", err)
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr must not be empty")
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path must not be empty")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ExpandPath expands a leading "~/" to the user's home directory.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}
