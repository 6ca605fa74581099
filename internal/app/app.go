// Package app wires capture, perception, the engine and input injection into
// the running Mudra service.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/input"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/recognizer"
	"github.com/ayusman/mudra/internal/store"
)

// Queue sizes between the workers.
const (
	// LandmarkBuffer holds pending pointer results. Only the newest position matters.
	LandmarkBuffer = 1
	// GestureBuffer holds pending classification results; the oldest is dropped when full.
	GestureBuffer = 8
	// ActionQueue holds dispatched actions waiting for the action worker.
	ActionQueue = 16
)

var (
	// ErrMissingDependency is returned by New when a required collaborator is nil.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrStopped is returned when a change races with Stop.
	ErrStopped = errors.New("app stopped")
)

// Observer receives the engine state after every processed result.
// Publish must not block.
type Observer interface {
	Publish(snap engine.Snapshot)
}

// Preview receives annotated camera frames when someone is watching.
type Preview interface {
	Wanted() bool
	Publish(frame gocv.Mat) error
}

// Deps are the collaborators the app drives.
type Deps struct {
	// Camera may be nil, in which case results only arrive through Feed.
	Camera   capture.Camera
	Detector recognizer.Detector
	Injector input.Injector
	// Plugins runs plugin actions. It may be nil when no plugins are installed.
	Plugins input.PluginRunner
	// Store supplies the action map and the enabled flag. It may be nil.
	Store     *store.Store
	Preview   Preview
	Observers []Observer
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

type landmarkResult struct {
	hands []detector.Landmarks
}

type gestureResult struct {
	gestures []detector.Category
	hand     detector.Handedness
	at       time.Time
}

type request struct {
	fn    func(*engine.Engine) error
	reply chan error
}

type job struct {
	action  action.Action
	gesture string
	hand    detector.Handedness
}

// App is the main application. It owns the engine through a single run-loop
// goroutine and feeds it from the perception worker.
type App struct {
	config   config.Config
	deps     Deps
	executor *input.Executor
	motion   *capture.MotionDetector
	gate     *capture.ActivityGate
	engine   *engine.Engine

	landmarks chan landmarkResult
	gestures  chan gestureResult
	actions   chan job

	mu       sync.RWMutex
	tunables config.Tunables
	// frameW and frameH are the camera resolution seen by the last Start.
	frameW, frameH int
	enabled  bool
	snapshot engine.Snapshot
	requests chan request
	done     chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New validates cfg and builds an app. The action map comes from the store
// when one is given and from cfg otherwise.
func New(cfg config.Config, deps Deps) (*App, error) {
	if deps.Detector == nil {
		return nil, fmt.Errorf("%w: detector", ErrMissingDependency)
	}
	if deps.Injector == nil {
		return nil, fmt.Errorf("%w: injector", ErrMissingDependency)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bindings := cfg.SeedBindings()
	enabled := true
	if deps.Store != nil {
		stored, err := deps.Store.Bindings().ActionMap()
		if err != nil {
			return nil, fmt.Errorf("load bindings: %w", err)
		}
		bindings = stored

		if v, err := deps.Store.Settings().Get(store.SettingEnabled); err == nil {
			if b, err := strconv.ParseBool(v); err == nil {
				enabled = b
			}
		}
	}

	eng, err := engine.New(cfg.Engine(bindings), deps.Now())
	if err != nil {
		return nil, err
	}

	motion := capture.NewMotionDetector(cfg.MotionThreshold)
	a := &App{
		config:   cfg,
		deps:     deps,
		executor: input.NewExecutor(deps.Injector, deps.Plugins),
		motion:   motion,
		gate: capture.NewActivityGate(capture.GateConfig{
			IdleFPS:     cfg.IdleFPS,
			ActiveFPS:   cfg.ActiveFPS,
			IdleTimeout: cfg.IdleTimeout.Std(),
		}, motion),
		engine:    eng,
		landmarks: make(chan landmarkResult, LandmarkBuffer),
		gestures:  make(chan gestureResult, GestureBuffer),
		actions:   make(chan job, ActionQueue),
		tunables:  cfg.Tunables,
		enabled:   enabled,
		snapshot:  eng.Snapshot(),
	}

	log.Info().
		Int("bindings", len(bindings)).
		Bool("enabled", enabled).
		Str("policy", string(cfg.Region.Policy)).
		Msg("engine ready")
	return a, nil
}

// Start opens the camera, checks that the ROI fits its frames and starts the
// workers. Starting a running app is a no-op.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	if a.deps.Camera != nil {
		if err := a.deps.Camera.Open(); err != nil {
			return err
		}
		a.frameW, a.frameH = a.deps.Camera.FrameSize()
		if err := a.fitsFrame(a.tunables.Region.ROI); err != nil {
			if cerr := a.deps.Camera.Close(); cerr != nil {
				log.Warn().Err(cerr).Msg("error closing camera")
			}
			return err
		}
		a.deps.Camera.SetFPS(a.gate.FPS())
	}

	// Results and actions left over from a previous run are stale.
	if n := drain(a.landmarks) + drain(a.gestures) + drain(a.actions); n > 0 {
		log.Debug().Int("dropped", n).Msg("discarded stale queue entries")
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.requests = make(chan request)
	a.done = make(chan struct{})

	a.wg.Add(2)
	go a.runLoop(ctx, a.requests, a.done)
	go a.actionWorker(ctx)
	if a.deps.Camera != nil {
		a.wg.Add(1)
		go a.perceive(ctx)
	}

	log.Info().Msg("gesture pipeline started")
	return nil
}

// Stop halts the workers and closes the camera. The app can be started again.
func (a *App) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	a.wg.Wait()

	a.mu.Lock()
	a.cancel = nil
	a.requests = nil
	a.mu.Unlock()

	if a.deps.Camera != nil {
		if err := a.deps.Camera.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing camera")
		}
	}
	log.Info().Msg("gesture pipeline stopped")
}

// Close stops the app and releases the detector and motion buffers.
func (a *App) Close() error {
	a.Stop()
	a.motion.Close()
	return a.deps.Detector.Close()
}

// Running reports whether the workers are running.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cancel != nil
}

// Enabled reports whether gesture control is on.
func (a *App) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled turns gesture control on or off. While off, frames are still
// captured for the preview but nothing reaches the engine.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if changed {
		log.Info().Bool("enabled", enabled).Msg("gesture control toggled")
	}
}

// Tunables returns the tunables in effect.
func (a *App) Tunables() config.Tunables {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tunables
}

// Snapshot returns the most recently published engine state.
func (a *App) Snapshot() engine.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// ApplyTunables validates t, including its ROI against the camera resolution,
// and reconfigures the engine with it. The action map is kept.
func (a *App) ApplyTunables(t config.Tunables) error {
	if err := t.Validate(); err != nil {
		return err
	}
	a.mu.RLock()
	err := a.fitsFrame(t.Region.ROI)
	a.mu.RUnlock()
	if err != nil {
		return err
	}

	err = a.do(func(e *engine.Engine) error {
		return e.Reconfigure(t.Engine(e.Bindings()))
	})
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.tunables = t
	a.mu.Unlock()

	log.Info().
		Interface("region", t.Region).
		Float64("dead_zone_radius", t.DeadZoneRadius).
		Dur("cooldown", t.Cooldown.Std()).
		Msg("tunables applied")
	return nil
}

// fitsFrame checks roi against the camera resolution. An unknown resolution
// passes. The caller holds a.mu.
func (a *App) fitsFrame(roi pointer.Rect) error {
	if a.frameW <= 0 || a.frameH <= 0 {
		return nil
	}
	if err := capture.CheckROI(roi, a.frameW, a.frameH); err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidRegion, err)
	}
	return nil
}

// ReloadBindings replaces the engine's action map with the store's enabled bindings.
func (a *App) ReloadBindings() error {
	if a.deps.Store == nil {
		return nil
	}
	bindings, err := a.deps.Store.Bindings().ActionMap()
	if err != nil {
		return err
	}

	if err := a.do(func(e *engine.Engine) error { return e.SetBindings(bindings) }); err != nil {
		return err
	}
	log.Info().Int("bindings", len(bindings)).Msg("action map reloaded")
	return nil
}

// do runs fn against the engine on the goroutine that owns it. When the app
// is not running nobody owns the engine and fn runs under the app lock.
func (a *App) do(fn func(*engine.Engine) error) error {
	a.mu.Lock()
	if a.requests == nil {
		defer a.mu.Unlock()
		if err := fn(a.engine); err != nil {
			return err
		}
		a.snapshot = a.engine.Snapshot()
		return nil
	}
	requests, done := a.requests, a.done
	a.mu.Unlock()

	req := request{fn: fn, reply: make(chan error, 1)}
	select {
	case requests <- req:
	case <-done:
		return ErrStopped
	}
	return <-req.reply
}

// Feed hands one detection to the engine the way the perception worker does:
// landmarks and classifications travel on separate queues. Results are
// ignored while gesture control is disabled.
func (a *App) Feed(det detector.Detection, at time.Time) {
	if !a.Enabled() {
		return
	}

	offer(a.landmarks, landmarkResult{hands: det.Hands})
	if offer(a.gestures, gestureResult{gestures: det.Gestures, hand: det.Handedness, at: at}) {
		log.Debug().Msg("gesture queue full, dropped oldest result")
	}
}

// offer sends v without blocking, discarding the oldest queued value to make
// room. It reports whether a value was discarded. Only one goroutine may send on ch.
func offer[T any](ch chan T, v T) bool {
	dropped := false
	for {
		select {
		case ch <- v:
			return dropped
		default:
		}
		select {
		case <-ch:
			dropped = true
		default:
		}
	}
}

// drain discards everything queued on ch and reports how much was dropped.
func drain[T any](ch chan T) int {
	n := 0
	for {
		select {
		case <-ch:
			n++
		default:
			return n
		}
	}
}
