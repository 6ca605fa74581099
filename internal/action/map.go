package action

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/mudra/internal/detector"
)

// ErrInvalidBinding is returned when a binding cannot be added to a Map.
var ErrInvalidBinding = errors.New("invalid binding")

// DefaultScrollAmount is the scroll magnitude used by DefaultBindings.
const DefaultScrollAmount = 12

// Binding ties a (handedness, gesture prefix) pair to an action.
type Binding struct {
	Handedness detector.Handedness `json:"handedness"`
	Gesture    string              `json:"gesture"`
	Action     Action              `json:"action"`
}

// Validate checks the binding for configuration errors.
func (b Binding) Validate() error {
	if b.Handedness != detector.Left && b.Handedness != detector.Right {
		return fmt.Errorf("%w: handedness must be left or right, got %q", ErrInvalidBinding, b.Handedness)
	}
	if strings.TrimSpace(b.Gesture) == "" {
		return fmt.Errorf("%w: gesture is required", ErrInvalidBinding)
	}
	if err := b.Action.Validate(); err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrInvalidBinding, b.Handedness, b.Gesture, err)
	}
	return nil
}

// Map is an immutable, ordered lookup table from (handedness, gesture) to action.
type Map struct {
	bindings []Binding
}

// NewMap validates the bindings and returns a Map. Order is preserved; the first
// matching binding wins during Lookup.
func NewMap(bindings []Binding) (*Map, error) {
	copied := make([]Binding, 0, len(bindings))
	for _, b := range bindings {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		copied = append(copied, b)
	}
	return &Map{bindings: copied}, nil
}

// Lookup returns the action bound to label for the given hand. The binding's
// gesture is matched as a prefix of label so score annotations are ignored.
// An empty label or unknown handedness never matches.
func (m *Map) Lookup(hand detector.Handedness, label string) (Action, bool) {
	if m == nil || label == "" || hand == detector.Unknown {
		return Action{}, false
	}
	for _, b := range m.bindings {
		if b.Handedness == hand && strings.HasPrefix(label, b.Gesture) {
			return b.Action, true
		}
	}
	return Action{}, false
}

// Bindings returns a copy of the table.
func (m *Map) Bindings() []Binding {
	if m == nil {
		return nil
	}
	out := make([]Binding, len(m.bindings))
	copy(out, m.bindings)
	return out
}

// Len returns the number of bindings.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.bindings)
}

// DefaultBindings returns the built-in gesture layout. The right hand drives the
// pointer buttons and scrolling; the left hand drives desktop navigation.
func DefaultBindings(scrollAmount int) []Binding {
	return []Binding{
		{Handedness: detector.Right, Gesture: "Pointing_Up", Action: Scroll(scrollAmount)},
		{Handedness: detector.Right, Gesture: "Victory", Action: Scroll(-scrollAmount)},
		{Handedness: detector.Right, Gesture: "Closed_Fist", Action: Click("left")},
		{Handedness: detector.Right, Gesture: "Thumb_Up", Action: Click("right")},
		{Handedness: detector.Right, Gesture: "ILoveYou", Action: Plugin("media-control", "play-pause", nil)},
		{Handedness: detector.Left, Gesture: "Victory", Action: Hotkey("ctrl", "left")},
		{Handedness: detector.Left, Gesture: "Pointing_Up", Action: Hotkey("ctrl", "right")},
		{Handedness: detector.Left, Gesture: "Open_Palm", Action: Hotkey("ctrl", "up")},
		{Handedness: detector.Left, Gesture: "Closed_Fist", Action: Hotkey("alt", "tab")},
	}
}
