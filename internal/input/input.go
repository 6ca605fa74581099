// Package input turns abstract actions into operating-system input events.
package input

import (
	"errors"
	"fmt"

	"github.com/go-vgo/robotgo"
)

// ErrInvalidKeys is returned when a hotkey has no key to tap.
var ErrInvalidKeys = errors.New("hotkey needs at least one key")

// Injector delivers input events to the operating system.
type Injector interface {
	MoveCursor(x, y int) error
	Scroll(delta int) error
	Click(button string) error
	// Hotkey taps the last key while holding the preceding ones as modifiers.
	Hotkey(keys []string) error
}

// RobotInjector implements Injector with robotgo.
type RobotInjector struct{}

// NewRobotInjector creates a new RobotInjector.
func NewRobotInjector() *RobotInjector {
	return &RobotInjector{}
}

// ScreenSize returns the primary display size.
func ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}

// MoveCursor moves the pointer to an absolute screen position.
func (r *RobotInjector) MoveCursor(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

// Scroll scrolls vertically. Positive deltas scroll up.
func (r *RobotInjector) Scroll(delta int) error {
	switch {
	case delta > 0:
		robotgo.ScrollDir(delta, "up")
	case delta < 0:
		robotgo.ScrollDir(-delta, "down")
	}
	return nil
}

// Click presses and releases a mouse button.
func (r *RobotInjector) Click(button string) error {
	if button == "" {
		button = "left"
	}
	robotgo.Click(button, false)
	return nil
}

// Hotkey taps a key chord such as ["ctrl", "left"].
func (r *RobotInjector) Hotkey(keys []string) error {
	if len(keys) == 0 {
		return ErrInvalidKeys
	}
	key := keys[len(keys)-1]
	mods := keys[:len(keys)-1]

	var err error
	if len(mods) == 0 {
		err = robotgo.KeyTap(key)
	} else {
		err = robotgo.KeyTap(key, mods)
	}
	if err != nil {
		return fmt.Errorf("key tap %v: %w", keys, err)
	}
	return nil
}
