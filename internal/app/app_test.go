package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

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

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.FillScreen(1920, 1080)
	return cfg
}

// snapshots collects published engine state.
type snapshots struct {
	mu   sync.Mutex
	list []engine.Snapshot
}

func (s *snapshots) Publish(snap engine.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, snap)
}

func (s *snapshots) last() (engine.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.list) == 0 {
		return engine.Snapshot{}, false
	}
	return s.list[len(s.list)-1], true
}

func newTestApp(t *testing.T, cfg config.Config, s *store.Store) (*App, *input.Recorder, *snapshots) {
	t.Helper()
	rec := input.NewRecorder()
	obs := &snapshots{}

	a, err := New(cfg, Deps{
		Detector:  recognizer.NewMockDetector(),
		Injector:  rec,
		Plugins:   rec,
		Store:     s,
		Observers: []Observer{obs},
		Now:       func() time.Time { return t0 },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, rec, obs
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func hasCall(rec *input.Recorder, call string) bool {
	for _, c := range rec.Calls() {
		if c == call {
			return true
		}
	}
	return false
}

func TestNew_Errors(t *testing.T) {
	rec := input.NewRecorder()

	if _, err := New(testConfig(), Deps{Injector: rec}); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("missing detector: error = %v, want ErrMissingDependency", err)
	}
	if _, err := New(testConfig(), Deps{Detector: recognizer.NewMockDetector()}); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("missing injector: error = %v, want ErrMissingDependency", err)
	}

	cfg := testConfig()
	cfg.Region.Active.Width = 0
	if _, err := New(cfg, Deps{Detector: recognizer.NewMockDetector(), Injector: rec}); !errors.Is(err, config.ErrInvalidRegion) {
		t.Errorf("zero-area sub-region: error = %v, want ErrInvalidRegion", err)
	}
}

func TestApp_MoveAndAction(t *testing.T) {
	a, rec, _ := newTestApp(t, testConfig(), nil)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Palm in the middle of the ROI lands in the middle of the screen.
	a.Feed(detector.NewDetection(detector.Right, "Closed_Fist", 0.9, 0.5, 0.5), t0.Add(time.Second))

	waitFor(t, "cursor move", func() bool { return hasCall(rec, "move(960,540)") })
	waitFor(t, "left click", func() bool { return hasCall(rec, "click(left)") })

	waitFor(t, "snapshot", func() bool {
		snap := a.Snapshot()
		return snap.Accepted == "Closed_Fist" && snap.Cursor != nil
	})
	if snap := a.Snapshot(); *snap.Cursor != (pointer.Point{X: 960, Y: 540}) || snap.Handedness != detector.Right {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestApp_CooldownAcrossFrames(t *testing.T) {
	a, rec, obs := newTestApp(t, testConfig(), nil)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	a.Feed(detector.NewDetection(detector.Right, "Victory", 0.8, 0.5, 0.5), t0.Add(time.Second))
	waitFor(t, "scroll down", func() bool { return hasCall(rec, "scroll(-12)") })

	// Too soon after the last change: observed but not accepted.
	a.Feed(detector.NewDetection(detector.Right, "Closed_Fist", 0.9, 0.5, 0.5), t0.Add(1200*time.Millisecond))
	waitFor(t, "rejected label", func() bool {
		snap, ok := obs.last()
		return ok && snap.Label == "Closed_Fist (0.90)"
	})
	if snap, _ := obs.last(); snap.Accepted != "Victory" {
		t.Errorf("accepted = %q, want Victory", snap.Accepted)
	}
	if hasCall(rec, "click(left)") {
		t.Fatal("click dispatched inside the cooldown window")
	}

	a.Feed(detector.NewDetection(detector.Right, "Closed_Fist", 0.9, 0.5, 0.5), t0.Add(1600*time.Millisecond))
	waitFor(t, "left click", func() bool { return hasCall(rec, "click(left)") })
}

func TestApp_PluginAction(t *testing.T) {
	a, rec, _ := newTestApp(t, testConfig(), nil)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	a.Feed(detector.NewDetection(detector.Right, "ILoveYou", 0.7, 0.5, 0.5), t0.Add(time.Second))
	waitFor(t, "plugin call", func() bool {
		return hasCall(rec, "plugin(media-control/play-pause,right,ILoveYou)")
	})
}

func TestApp_InjectorErrorsDoNotStopTheLoop(t *testing.T) {
	a, rec, _ := newTestApp(t, testConfig(), nil)
	rec.SetError(errors.New("display unavailable"))
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	a.Feed(detector.NewDetection(detector.Right, "Closed_Fist", 0.9, 0.5, 0.5), t0.Add(time.Second))
	waitFor(t, "failed click", func() bool { return hasCall(rec, "click(left)") })

	rec.SetError(nil)
	a.Feed(detector.NewDetection(detector.Right, "Thumb_Up", 0.9, 0.5, 0.5), t0.Add(2*time.Second))
	waitFor(t, "right click", func() bool { return hasCall(rec, "click(right)") })
}

func TestApp_Disabled(t *testing.T) {
	a, _, _ := newTestApp(t, testConfig(), nil)

	a.SetEnabled(false)
	if a.Enabled() {
		t.Fatal("Enabled() = true after SetEnabled(false)")
	}

	a.Feed(detector.NewDetection(detector.Right, "Closed_Fist", 0.9, 0.5, 0.5), t0.Add(time.Second))
	if len(a.landmarks) != 0 || len(a.gestures) != 0 {
		t.Errorf("disabled app queued results: %d landmarks, %d gestures", len(a.landmarks), len(a.gestures))
	}
}

func TestApp_EnabledFromStore(t *testing.T) {
	s := newTestStore(t)
	if err := s.Settings().Set(store.SettingEnabled, "false"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	a, _, _ := newTestApp(t, testConfig(), s)
	if a.Enabled() {
		t.Error("expected the persisted enabled flag to be honoured")
	}
}

func TestApp_ReloadBindings(t *testing.T) {
	s := newTestStore(t)
	b := &store.Binding{Handedness: detector.Left, Gesture: "Thumb_Up", Action: action.Hotkey("ctrl", "z"), Enabled: true}
	if err := s.Bindings().Create(b); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	a, rec, _ := newTestApp(t, testConfig(), s)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	b.Action = action.Hotkey("ctrl", "y")
	if err := s.Bindings().Update(b); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := a.ReloadBindings(); err != nil {
		t.Fatalf("ReloadBindings() error = %v", err)
	}

	a.Feed(detector.NewDetection(detector.Left, "Thumb_Up", 0.9, 0.5, 0.5), t0.Add(time.Second))
	waitFor(t, "reloaded hotkey", func() bool { return hasCall(rec, "hotkey(ctrl+y)") })
	if hasCall(rec, "hotkey(ctrl+z)") {
		t.Error("old binding fired after reload")
	}
}

func TestApp_ApplyTunables(t *testing.T) {
	a, _, _ := newTestApp(t, testConfig(), nil)

	tests := []struct {
		name    string
		running bool
	}{
		{"stopped", false},
		{"running", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.running {
				if err := a.Start(context.Background()); err != nil {
					t.Fatalf("Start() error = %v", err)
				}
				defer a.Stop()
			}

			bad := a.Tunables()
			bad.Region.Active = pointer.Rect{X: 600, Y: 0, Width: 100, Height: 100}
			if err := a.ApplyTunables(bad); !errors.Is(err, config.ErrInvalidRegion) {
				t.Errorf("ApplyTunables(bad) error = %v, want ErrInvalidRegion", err)
			}

			good := a.Tunables()
			good.Region.Policy = pointer.PolicyStrict
			good.DeadZoneRadius = 3
			if err := a.ApplyTunables(good); err != nil {
				t.Fatalf("ApplyTunables() error = %v", err)
			}
			if a.Tunables() != good {
				t.Errorf("Tunables() = %+v, want %+v", a.Tunables(), good)
			}

			var region pointer.Region
			a.do(func(e *engine.Engine) error {
				region = e.Region()
				return nil
			})
			if region.Policy != pointer.PolicyStrict {
				t.Errorf("engine policy = %s, want strict", region.Policy)
			}

			good.Region.Policy = pointer.PolicyClamped
			if err := a.ApplyTunables(good); err != nil {
				t.Fatalf("restore ApplyTunables() error = %v", err)
			}
		})
	}
}

func TestApp_StartStop(t *testing.T) {
	a, _, _ := newTestApp(t, testConfig(), nil)

	for i := 0; i < 2; i++ {
		if err := a.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if err := a.Start(context.Background()); err != nil {
			t.Fatalf("second Start() error = %v", err)
		}
		if !a.Running() {
			t.Fatal("Running() = false after Start")
		}
		a.Stop()
		a.Stop()
		if a.Running() {
			t.Fatal("Running() = true after Stop")
		}
	}
}

func TestApp_StartDropsStaleQueues(t *testing.T) {
	a, rec, _ := newTestApp(t, testConfig(), nil)

	// Left behind by a previous run.
	a.Feed(detector.NewDetection(detector.Right, "Closed_Fist", 0.9, 0.5, 0.5), t0.Add(time.Second))
	a.actions <- job{action: action.Hotkey("alt", "tab"), gesture: "Closed_Fist", hand: detector.Left}

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	a.Feed(detector.NewDetection(detector.Right, "Thumb_Up", 0.9, 0.5, 0.5), t0.Add(2*time.Second))
	waitFor(t, "right click", func() bool { return hasCall(rec, "click(right)") })

	for _, stale := range []string{"click(left)", "hotkey(alt+tab)"} {
		if hasCall(rec, stale) {
			t.Errorf("stale %s ran after Start", stale)
		}
	}
}

func TestApp_ROIMustFitCamera(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	newCameraApp := func(t *testing.T, cam capture.Camera) *App {
		t.Helper()
		a, err := New(testConfig(), Deps{
			Camera:   cam,
			Detector: recognizer.NewMockDetector(),
			Injector: input.NewRecorder(),
		})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		t.Cleanup(func() { a.Close() })
		return a
	}

	t.Run("start fails on a smaller camera", func(t *testing.T) {
		// The default ROI is 640x480.
		cam := capture.NewBlankCamera(320, 240)
		a := newCameraApp(t, cam)

		err := a.Start(context.Background())
		if !errors.Is(err, capture.ErrROIOutsideFrame) || !errors.Is(err, config.ErrInvalidRegion) {
			t.Fatalf("Start() error = %v, want ErrROIOutsideFrame and ErrInvalidRegion", err)
		}
		if a.Running() || cam.IsOpen() {
			t.Errorf("after failed Start: running = %v, camera open = %v", a.Running(), cam.IsOpen())
		}
	})

	t.Run("tunables are checked against the camera", func(t *testing.T) {
		a := newCameraApp(t, capture.NewBlankCamera(640, 480))
		if err := a.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		before := a.Tunables()

		tooBig := before
		tooBig.Region.ROI = pointer.Rect{Width: 800, Height: 600}
		if err := a.ApplyTunables(tooBig); !errors.Is(err, capture.ErrROIOutsideFrame) {
			t.Errorf("ApplyTunables() error = %v, want ErrROIOutsideFrame", err)
		}
		if a.Tunables() != before {
			t.Errorf("rejected tunables were applied: %+v", a.Tunables())
		}

		smaller := before
		smaller.Region.ROI = pointer.Rect{X: 160, Y: 120, Width: 320, Height: 240}
		smaller.Region.Active = pointer.Rect{X: 40, Y: 30, Width: 240, Height: 180}
		if err := a.ApplyTunables(smaller); err != nil {
			t.Errorf("ApplyTunables() error = %v", err)
		}
	})
}

func TestOffer_DropsOldest(t *testing.T) {
	ch := make(chan int, 2)

	if offer(ch, 1) || offer(ch, 2) {
		t.Fatal("offer() dropped a value while the channel had room")
	}
	if !offer(ch, 3) {
		t.Fatal("offer() should report the dropped value")
	}

	if got := []int{<-ch, <-ch}; got[0] != 2 || got[1] != 3 {
		t.Errorf("channel = %v, want [2 3]", got)
	}
}

func TestObserverFunc(t *testing.T) {
	var got engine.Snapshot
	var o Observer = ObserverFunc(func(s engine.Snapshot) { got = s })
	o.Publish(engine.Snapshot{Label: "Victory (0.50)"})
	if got.Label != "Victory (0.50)" {
		t.Errorf("ObserverFunc did not forward the snapshot: %+v", got)
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
