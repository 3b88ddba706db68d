package scene

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/ingest"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/visual"
)

// Loop timing defaults.
const (
	DefaultFPS           = 30
	DefaultRefreshHz     = 60
	DefaultRetryInterval = 2 * time.Second
)

// frameBacklog bounds the tracking results waiting for the render loop.
// It only fills when rendering stalls for several seconds.
const frameBacklog = 256

// Tracking states reported through Status.
const (
	StateStarting    = "starting"
	StateRunning     = "running"
	StateDisabled    = "disabled"
	StateSourceError = "source_error"
)

// Status describes the tracking source.
type Status struct {
	State     string `json:"state"`
	Retryable bool   `json:"retryable,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Sink receives what the render loop publishes. Sinks are called from the
// render loop goroutine only and must not block.
type Sink interface {
	PublishFrame(out Output)
	PublishStatus(st Status)
}

// Options configures a Runner.
type Options struct {
	Source   detector.Source
	Scene    Config
	Settings Settings
	Sinks    []Sink
	Logger   *slog.Logger

	FPS           int
	RefreshHz     int
	RetryInterval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Prefs is the current shape and theme.
type Prefs struct {
	Shape visual.Shape `json:"shape"`
	Theme visual.Theme `json:"theme"`
}

type command struct {
	shape visual.Shape
	theme visual.Theme
}

// Runner drives a Scene with two independent loops: the inference loop
// pulls tracking results from the source, the render loop steps the scene
// at the display refresh rate with every result that arrived since its
// previous tick. Only the render loop touches the Scene.
type Runner struct {
	source   detector.Source
	scene    *Scene
	settings Settings
	sinks    []Sink
	logger   *slog.Logger
	now      func() time.Time

	frameInterval  time.Duration
	renderInterval time.Duration
	retryInterval  time.Duration

	frames   *queue[ingest.DetectionFrame]
	statuses *mailbox[Status]

	// Preference changes waiting for the render loop. Later calls
	// overwrite earlier ones; wake has room for one signal.
	cmdMu   sync.Mutex
	pending command
	wake    chan struct{}

	enabled  atomic.Bool
	snapshot atomic.Pointer[Output]
	prefs    atomic.Pointer[Prefs]

	// Owned by the render loop.
	shape visual.Shape
	theme visual.Theme
}

// NewRunner loads the stored preferences and mounts a Scene with them.
func NewRunner(opts Options) *Runner {
	logger := logging.OrDefault(opts.Logger)

	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.RefreshHz <= 0 {
		opts.RefreshHz = DefaultRefreshHz
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	shape, theme := LoadPrefs(opts.Settings, logger)
	cfg := opts.Scene
	cfg.Shape, cfg.Theme = shape, theme

	r := &Runner{
		source:         opts.Source,
		scene:          New(cfg),
		settings:       opts.Settings,
		sinks:          opts.Sinks,
		logger:         logger,
		now:            opts.Now,
		frameInterval:  time.Second / time.Duration(opts.FPS),
		renderInterval: time.Second / time.Duration(opts.RefreshHz),
		retryInterval:  opts.RetryInterval,
		frames:         newQueue[ingest.DetectionFrame](frameBacklog),
		statuses:       newMailbox[Status](),
		wake:           make(chan struct{}, 1),
		shape:          shape,
		theme:          theme,
	}
	r.enabled.Store(true)
	r.prefs.Store(&Prefs{Shape: shape, Theme: theme})

	return r
}

// Run starts both loops and blocks until ctx is cancelled and both have
// exited.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("scene runner started",
		"shape", r.shape,
		"theme", r.theme,
		"frame_interval", r.frameInterval,
		"render_interval", r.renderInterval,
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.inferenceLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		r.renderLoop(ctx)
	}()
	wg.Wait()

	r.logger.Info("scene runner stopped")
	return nil
}

// SetShape swaps the displayed shape. The render loop persists it and
// resets pinch tracking. SetShape and SetTheme never block, whether or not
// Run is active; a change made while Run is not running is applied once it
// starts.
func (r *Runner) SetShape(shape visual.Shape) {
	r.send(command{shape: shape})
}

// SetTheme switches the palette.
func (r *Runner) SetTheme(theme visual.Theme) {
	r.send(command{theme: theme})
}

func (r *Runner) send(c command) {
	r.cmdMu.Lock()
	if c.shape != "" {
		r.pending.shape = c.shape
	}
	if c.theme != "" {
		r.pending.theme = c.theme
	}
	r.cmdMu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Runner) takeCommand() command {
	r.cmdMu.Lock()
	defer r.cmdMu.Unlock()
	c := r.pending
	r.pending = command{}
	return c
}

// SetEnabled pauses or resumes tracking. While paused the render loop keeps
// easing toward the last target.
func (r *Runner) SetEnabled(enabled bool) {
	r.enabled.Store(enabled)
}

// Enabled reports whether tracking is active.
func (r *Runner) Enabled() bool {
	return r.enabled.Load()
}

// Prefs returns the preferences the render loop has applied.
func (r *Runner) Prefs() Prefs {
	return *r.prefs.Load()
}

// Snapshot returns the most recent render output, or false before the first
// frame was rendered.
func (r *Runner) Snapshot() (Output, bool) {
	out := r.snapshot.Load()
	if out == nil {
		return Output{}, false
	}
	return *out, true
}

func (r *Runner) inferenceLoop(ctx context.Context) {
	ticker := time.NewTicker(r.frameInterval)
	defer ticker.Stop()

	last := Status{State: StateStarting}
	setStatus := func(st Status) {
		if st != last {
			last = st
			r.statuses.put(st)
		}
	}

	var retryAt time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !r.enabled.Load() {
			setStatus(Status{State: StateDisabled})
			continue
		}

		now := r.now()
		if now.Before(retryAt) {
			continue
		}

		res, err := r.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, detector.ErrSourceUnavailable) {
				r.logger.Warn("tracking source unavailable", "err", err, "retry_in", r.retryInterval)
				setStatus(Status{State: StateSourceError, Retryable: true, Error: err.Error()})
				retryAt = now.Add(r.retryInterval)
				continue
			}
			r.logger.Warn("inference failed, frame skipped", "err", err)
			continue
		}

		setStatus(Status{State: StateRunning})
		r.frames.push(ingest.FromResult(res, now))
	}
}

func (r *Runner) renderLoop(ctx context.Context) {
	ticker := time.NewTicker(r.renderInterval)
	defer ticker.Stop()

	last := r.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
			r.apply(r.takeCommand())
		case <-ticker.C:
			now := r.now()
			r.render(now, now.Sub(last).Seconds())
			last = now
		}
	}
}

func (r *Runner) apply(c command) {
	if c.shape != "" && c.shape != r.shape {
		r.shape = c.shape
		savePref(r.settings, r.logger, store.SettingShape, string(c.shape))
		r.logger.Info("shape changed", "shape", c.shape)
	}
	if c.theme != "" && c.theme != r.theme {
		r.theme = c.theme
		savePref(r.settings, r.logger, store.SettingTheme, string(c.theme))
		r.logger.Info("theme changed", "theme", c.theme)
	}
	r.prefs.Store(&Prefs{Shape: r.shape, Theme: r.theme})
}

func (r *Runner) render(now time.Time, dt float64) {
	if st, ok := r.statuses.take(); ok {
		for _, s := range r.sinks {
			s.PublishStatus(st)
		}
	}

	in := StepInput{
		Delta: dt,
		Now:   now,
		Shape: r.shape,
		Theme: r.theme,
	}
	in.Frames, in.Gap = r.frames.drain()
	if in.Gap {
		r.logger.Warn("render loop fell behind, tracking results dropped", "backlog", frameBacklog)
	}

	out := r.scene.Step(in)
	for _, a := range out.Added {
		r.logger.Debug("gesture recognized", "gesture", a.Gesture, "id", a.ID)
	}

	r.snapshot.Store(&out)
	for _, s := range r.sinks {
		s.PublishFrame(out)
	}
}
