// Package action defines the abstract input actions a gesture can trigger and
// the handedness-aware table that selects them.
package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAction is returned when an action descriptor is malformed.
var ErrInvalidAction = errors.New("invalid action")

// Kind identifies what an action does.
type Kind string

const (
	// KindScroll scrolls vertically by Amount (positive is up).
	KindScroll Kind = "scroll"
	// KindClick presses and releases Button.
	KindClick Kind = "click"
	// KindHotkey taps the last key of Keys while holding the others.
	KindHotkey Kind = "hotkey"
	// KindPlugin runs the named action of an external plugin.
	KindPlugin Kind = "plugin"
)

// Action is an abstract input instruction. Which fields are meaningful depends on Kind.
type Action struct {
	Kind   Kind            `json:"kind"`
	Amount int             `json:"amount,omitempty"`
	Button string          `json:"button,omitempty"`
	Keys   []string        `json:"keys,omitempty"`
	Plugin string          `json:"plugin,omitempty"`
	Name   string          `json:"name,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Scroll returns a scroll action. Positive amounts scroll up.
func Scroll(amount int) Action {
	return Action{Kind: KindScroll, Amount: amount}
}

// Click returns a click action for the given mouse button.
func Click(button string) Action {
	return Action{Kind: KindClick, Button: button}
}

// Hotkey returns a key chord action, e.g. Hotkey("ctrl", "left").
func Hotkey(keys ...string) Action {
	return Action{Kind: KindHotkey, Keys: keys}
}

// Plugin returns an action that delegates to an external plugin.
func Plugin(plugin, name string, params json.RawMessage) Action {
	return Action{Kind: KindPlugin, Plugin: plugin, Name: name, Params: params}
}

// Validate checks that the fields required by Kind are present.
func (a Action) Validate() error {
	switch a.Kind {
	case KindScroll:
		if a.Amount == 0 {
			return fmt.Errorf("%w: scroll amount must be non-zero", ErrInvalidAction)
		}
	case KindClick:
		switch a.Button {
		case "", "left", "right", "center":
		default:
			return fmt.Errorf("%w: unknown button %q", ErrInvalidAction, a.Button)
		}
	case KindHotkey:
		if len(a.Keys) == 0 {
			return fmt.Errorf("%w: hotkey needs at least one key", ErrInvalidAction)
		}
		for _, k := range a.Keys {
			if strings.TrimSpace(k) == "" {
				return fmt.Errorf("%w: hotkey contains an empty key", ErrInvalidAction)
			}
		}
	case KindPlugin:
		if a.Plugin == "" || a.Name == "" {
			return fmt.Errorf("%w: plugin action needs plugin and name", ErrInvalidAction)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidAction, a.Kind)
	}
	return nil
}

func (a Action) String() string {
	switch a.Kind {
	case KindScroll:
		return fmt.Sprintf("scroll(%+d)", a.Amount)
	case KindClick:
		button := a.Button
		if button == "" {
			button = "left"
		}
		return "click(" + button + ")"
	case KindHotkey:
		return "hotkey(" + strings.Join(a.Keys, "+") + ")"
	case KindPlugin:
		return "plugin(" + a.Plugin + "/" + a.Name + ")"
	default:
		return string(a.Kind)
	}
}
