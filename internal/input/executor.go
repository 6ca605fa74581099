package input

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/pointer"
)

// ErrNoPluginRunner is returned for plugin actions when no runner is configured.
var ErrNoPluginRunner = errors.New("no plugin runner configured")

// PluginRunner executes a named plugin action.
type PluginRunner interface {
	Run(ctx context.Context, name string, req *plugin.Request) error
}

// Executor routes engine output onto an Injector, or onto a plugin for plugin actions.
type Executor struct {
	injector Injector
	plugins  PluginRunner
}

// NewExecutor creates an Executor. plugins may be nil when plugin actions are not used.
func NewExecutor(injector Injector, plugins PluginRunner) *Executor {
	return &Executor{injector: injector, plugins: plugins}
}

// Move moves the cursor to p.
func (e *Executor) Move(p pointer.Point) error {
	return e.injector.MoveCursor(p.X, p.Y)
}

// Execute performs a dispatched action. gesture and hand describe what triggered it
// and are passed through to plugins.
func (e *Executor) Execute(ctx context.Context, a action.Action, gesture string, hand detector.Handedness) error {
	switch a.Kind {
	case action.KindScroll:
		return e.injector.Scroll(a.Amount)
	case action.KindClick:
		return e.injector.Click(a.Button)
	case action.KindHotkey:
		return e.injector.Hotkey(a.Keys)
	case action.KindPlugin:
		if e.plugins == nil {
			return ErrNoPluginRunner
		}
		return e.plugins.Run(ctx, a.Plugin, &plugin.Request{
			Action:     a.Name,
			Gesture:    gesture,
			Handedness: string(hand),
			Params:     a.Params,
		})
	default:
		return fmt.Errorf("%w: unknown kind %q", action.ErrInvalidAction, a.Kind)
	}
}
