package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/overlay"
	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (default ~/.mudra/config.yaml)")
	logLevel := flag.String("log-level", "", "Override logging.level: error, warn, info, debug")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.New(os.Stderr, level)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("mudra exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := server.NewHub(logger, server.HubConfig{})
	sinks := []scene.Sink{hub}
	srvCfg := server.Config{
		StaticDir: staticDir(cfg.Server.StaticDir),
		Hub:       hub,
	}

	// Preferences are optional; without a store the defaults apply.
	var settings scene.Settings
	dbPath := config.ExpandPath(cfg.Store.Path)
	st, err := store.New(dbPath)
	if err != nil {
		logger.Warn("preferences store unavailable, using defaults", "path", dbPath, "err", err)
	} else {
		defer st.Close()
		if v, err := st.SchemaVersion(); err == nil {
			logger.Debug("store opened", "path", dbPath, "schema", v)
		}
		settings = st.Settings()
		sinks = append(sinks, scene.NewGestureLogSink(st.GestureLog(), logger))
		srvCfg.GestureLog = st.GestureLog()
	}

	var tr *tray.Tray
	if cfg.Tray.Enabled {
		shape, theme := scene.LoadPrefs(settings, logger)
		tr = tray.New(true, scene.Prefs{Shape: shape, Theme: theme})
		sinks = append(sinks, tr)
	}

	source, frames := newSource(cfg, logger)
	defer source.Close()
	srvCfg.Frames = frames

	runner := scene.NewRunner(scene.Options{
		Source:   source,
		Settings: settings,
		Sinks:    sinks,
		Logger:   logger,
		Scene: scene.Config{
			Rates:    cfg.Smoothing,
			MaxDelta: time.Duration(cfg.Render.MaxDeltaMS) * time.Millisecond,
		},
		FPS:           cfg.Camera.FPS,
		RefreshHz:     cfg.Render.RefreshHz,
		RetryInterval: time.Duration(cfg.Detector.RetryMS) * time.Millisecond,
	})
	srvCfg.Controller = runner

	httpServer := server.New(srvCfg).HTTPServer(cfg.Server.Addr)

	go hub.Run(ctx)

	runnerDone := make(chan error, 1)
	go func() { runnerDone <- runner.Run(ctx) }()

	httpErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- fmt.Errorf("http server: %w", err)
			stop()
		}
	}()

	if tr != nil {
		tr.OnToggle(runner.SetEnabled)
		tr.OnTheme(runner.SetTheme)
		tr.OnShape(runner.SetShape)
		tr.OnOpen(func() { openBrowser(viewerURL(cfg.Server.Addr), logger) })
		tr.OnQuit(stop)
		go func() {
			<-ctx.Done()
			tr.Quit()
		}()
		// The tray event loop must own the main thread.
		tr.Run()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", "err", err)
	}

	if err := <-runnerDone; err != nil {
		return err
	}
	select {
	case err := <-httpErr:
		return err
	default:
		return nil
	}
}

// newSource wires camera capture, hand tracking and the debug overlay.
// MediaPipe is preferred; the mock detector keeps the pipeline running
// without it.
func newSource(cfg config.Config, logger *slog.Logger) (detector.Source, *overlay.Overlay) {
	camera := capture.NewCamera(capture.Config{
		DeviceID: cfg.Camera.Device,
		FPS:      cfg.Camera.FPS,
		Width:    cfg.Camera.Width,
		Height:   cfg.Camera.Height,
		Mirror:   cfg.Camera.Mirror,
	})

	var d detector.Detector
	mp, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:      cfg.Detector.MaxHands,
		MinConfidence: cfg.Detector.MinConfidence,
		ScriptPath:    config.ExpandPath(cfg.Detector.ScriptPath),
		PythonPath:    config.ExpandPath(cfg.Detector.PythonPath),
	})
	if err != nil {
		logger.Warn("MediaPipe not available, using mock detector", "err", err)
		d = detector.NewMockDetector()
	} else {
		logger.Info("using MediaPipe hand tracking")
		d = mp
	}

	ov := overlay.New()
	return detector.NewCameraSource(camera, d, ov.Annotate), ov
}

// staticDir returns configured, or the first web directory found next to
// the binary or in ~/.mudra/web.
func staticDir(configured string) string {
	if configured != "" {
		return config.ExpandPath(configured)
	}

	candidates := []string{"web", "../web", "../../web", config.ExpandPath("~/.mudra/web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func viewerURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string, logger *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("cannot open browser", "url", url, "err", err)
	}
}
