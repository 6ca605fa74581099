package plugin

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrActionNotSupported is returned when a plugin's manifest does not list the action.
	ErrActionNotSupported = errors.New("action not supported by plugin")
	// ErrPluginFailed is returned when a plugin answers with success=false.
	ErrPluginFailed = errors.New("plugin reported failure")
)

// Runner resolves plugins by name and executes their actions.
type Runner struct {
	manager  *Manager
	executor *Executor
}

// NewRunner creates a Runner over a manager and an executor.
func NewRunner(manager *Manager, executor *Executor) *Runner {
	return &Runner{manager: manager, executor: executor}
}

// Run executes req.Action on the named plugin.
func (r *Runner) Run(ctx context.Context, name string, req *Request) error {
	p, err := r.manager.Get(name)
	if err != nil {
		return fmt.Errorf("%w: %s", err, name)
	}
	if !p.Manifest.Supports(req.Action) {
		return fmt.Errorf("%w: %s/%s", ErrActionNotSupported, name, req.Action)
	}

	resp, err := r.executor.Execute(ctx, p, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s/%s: %s", ErrPluginFailed, name, req.Action, resp.Error)
	}
	return nil
}
