// Package engine turns per-frame detections into cursor moves and gesture actions.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
)

// ErrInvalidConfig is returned when the engine tunables are out of range.
var ErrInvalidConfig = errors.New("invalid engine config")

// Config holds the tunables the engine is built from.
type Config struct {
	Region         pointer.Region
	DeadZoneRadius float64
	Cooldown       time.Duration
	Bindings       []action.Binding
}

// Validate checks the config without building an engine.
func (c Config) Validate() error {
	if err := c.Region.Validate(); err != nil {
		return err
	}
	if c.DeadZoneRadius < 0 {
		return fmt.Errorf("%w: dead zone radius %v is negative", ErrInvalidConfig, c.DeadZoneRadius)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("%w: cooldown %v is negative", ErrInvalidConfig, c.Cooldown)
	}
	for i, b := range c.Bindings {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("binding %d: %w", i, err)
		}
	}
	return nil
}

// Result is what one frame produced. Move and Action are independent: a frame
// may yield either, both, or neither.
type Result struct {
	// Move is the new cursor target, nil unless Pointer is StatusMoved.
	Move    *pointer.Point
	Pointer pointer.Status

	// Action is the dispatched action, nil unless Changed and a binding matched.
	Action     *action.Action
	Label      string
	Accepted   string
	Changed    bool
	Handedness detector.Handedness
}

// Snapshot is the engine state published to observers after each frame.
type Snapshot struct {
	Label      string              `json:"label"`
	Accepted   string              `json:"accepted"`
	Handedness detector.Handedness `json:"handedness"`
	Cursor     *pointer.Point      `json:"cursor,omitempty"`
	Pointer    string              `json:"pointer"`
}

// Engine holds the explicit pointer and gesture state. It is not safe for
// concurrent use and is meant to be owned by a single goroutine.
type Engine struct {
	region     pointer.Region
	deadZone   *pointer.DeadZone
	debouncer  *gesture.Debouncer
	actions    *action.Map
	handedness detector.Handedness
	status     pointer.Status
}

// New validates cfg and builds an engine whose debounce window starts at start.
func New(cfg Config, start time.Time) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := action.NewMap(cfg.Bindings)
	if err != nil {
		return nil, err
	}

	return &Engine{
		region:     cfg.Region,
		deadZone:   pointer.NewDeadZone(cfg.DeadZoneRadius),
		debouncer:  gesture.NewDebouncer(cfg.Cooldown, start),
		actions:    m,
		handedness: detector.Unknown,
		status:     pointer.StatusNoHand,
	}, nil
}

// Step processes one full detection. The pointer path runs when the detection
// carries landmarks and the gesture path always runs.
func (e *Engine) Step(det detector.Detection, now time.Time) Result {
	var res Result
	res.Move, res.Pointer = e.StepPointer(det.Hands)

	g := e.StepGesture(det.Gestures, det.Handedness, now)
	res.Action = g.Action
	res.Label = g.Label
	res.Accepted = g.Accepted
	res.Changed = g.Changed
	res.Handedness = g.Handedness
	return res
}

// StepPointer maps the first hand's palm base to the screen and runs it
// through the dead zone. It returns at most one move.
func (e *Engine) StepPointer(hands []detector.Landmarks) (*pointer.Point, pointer.Status) {
	p, ok := detector.Detection{Hands: hands}.PalmBase()
	if !ok {
		e.status = pointer.StatusNoHand
		return nil, e.status
	}

	target, ok := e.region.Map(p.X, p.Y)
	if !ok {
		e.status = pointer.StatusOutOfRegion
		return nil, e.status
	}

	e.status = e.deadZone.Filter(target)
	if e.status != pointer.StatusMoved {
		return nil, e.status
	}
	return &target, e.status
}

// StepGesture debounces the top gesture and, when the accepted gesture
// changes, dispatches at most one action. The returned Result carries no
// pointer data.
func (e *Engine) StepGesture(gestures []detector.Category, hand detector.Handedness, now time.Time) Result {
	det := detector.Detection{Gestures: gestures, Handedness: hand}
	label := det.TopLabel()
	e.handedness = hand

	accepted, changed := e.debouncer.Observe(label, now)
	res := Result{
		Pointer:    e.status,
		Label:      label,
		Accepted:   accepted,
		Changed:    changed,
		Handedness: hand,
	}
	if !changed {
		return res
	}

	if a, ok := e.actions.Lookup(hand, accepted); ok {
		res.Action = &a
	}
	return res
}

// Snapshot returns the state observers render.
func (e *Engine) Snapshot() Snapshot {
	st := e.debouncer.State()
	s := Snapshot{
		Label:      st.Current,
		Accepted:   st.Accepted,
		Handedness: e.handedness,
		Pointer:    e.status.String(),
	}
	if p, ok := e.deadZone.Last(); ok {
		s.Cursor = &p
	}
	return s
}

// Region returns the active mapping region.
func (e *Engine) Region() pointer.Region {
	return e.region
}

// Bindings returns a copy of the active action map.
func (e *Engine) Bindings() []action.Binding {
	return e.actions.Bindings()
}

// SetBindings swaps the action map. Debounce and cursor state are kept.
func (e *Engine) SetBindings(bindings []action.Binding) error {
	m, err := action.NewMap(bindings)
	if err != nil {
		return err
	}
	e.actions = m
	return nil
}

// Reconfigure applies new tunables. The accepted gesture survives; the cursor
// state is cleared when the region or radius changes since old positions no
// longer mean the same thing.
func (e *Engine) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m, err := action.NewMap(cfg.Bindings)
	if err != nil {
		return err
	}

	if cfg.Region != e.region || cfg.DeadZoneRadius != e.deadZone.Radius() {
		e.deadZone = pointer.NewDeadZone(cfg.DeadZoneRadius)
	}
	e.region = cfg.Region
	e.debouncer.SetCooldown(cfg.Cooldown)
	e.actions = m
	return nil
}
