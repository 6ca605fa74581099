package input

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ayusman/mudra/internal/plugin"
)

// Recorder is an Injector and PluginRunner that records calls instead of
// touching the operating system. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

// NewRecorder creates a new Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetError makes every subsequent call fail with err.
func (r *Recorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) record(call string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return r.err
}

// Calls returns the recorded calls in order, e.g. "move(10,20)" or "hotkey(ctrl+left)".
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset clears the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// MoveCursor implements Injector.
func (r *Recorder) MoveCursor(x, y int) error {
	return r.record(fmt.Sprintf("move(%d,%d)", x, y))
}

// Scroll implements Injector.
func (r *Recorder) Scroll(delta int) error {
	return r.record(fmt.Sprintf("scroll(%+d)", delta))
}

// Click implements Injector.
func (r *Recorder) Click(button string) error {
	return r.record("click(" + button + ")")
}

// Hotkey implements Injector.
func (r *Recorder) Hotkey(keys []string) error {
	return r.record("hotkey(" + strings.Join(keys, "+") + ")")
}

// Run implements PluginRunner.
func (r *Recorder) Run(ctx context.Context, name string, req *plugin.Request) error {
	return r.record(fmt.Sprintf("plugin(%s/%s,%s,%s)", name, req.Action, req.Handedness, req.Gesture))
}
