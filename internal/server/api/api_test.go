package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// fakeController records the calls the handlers make.
type fakeController struct {
	mu       sync.Mutex
	tunables config.Tunables
	enabled  bool
	reloads  int
}

func newFakeController() *fakeController {
	t := config.DefaultConfig().Tunables
	t.Region.ScreenWidth = 1920
	t.Region.ScreenHeight = 1080
	return &fakeController{tunables: t, enabled: true}
}

func (f *fakeController) ReloadBindings() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return nil
}

func (f *fakeController) Tunables() config.Tunables {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tunables
}

// fakeFrameW and fakeFrameH are the camera resolution the fake controller checks ROIs against.
const fakeFrameW, fakeFrameH = 640, 480

func (f *fakeController) ApplyTunables(t config.Tunables) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if roi := t.Region.ROI; roi.X+roi.Width > fakeFrameW || roi.Y+roi.Height > fakeFrameH {
		return fmt.Errorf("%w: roi %+v outside %dx%d frame", config.ErrInvalidRegion, roi, fakeFrameW, fakeFrameH)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tunables = t
	return nil
}

func (f *fakeController) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

func (f *fakeController) SetEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = enabled
}

func (f *fakeController) reloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}
