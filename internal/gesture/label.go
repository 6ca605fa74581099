// Package gesture turns the per-frame gesture classification stream into
// debounced intent changes.
package gesture

import (
	"fmt"
	"strings"
)

// placeholders are category names the recognizer emits when it sees a hand
// but no known gesture.
var placeholders = map[string]bool{
	"none":    true,
	"unknown": true,
}

// Format renders a category the way it is shown to the user, e.g. "Pointing_Up (0.93)".
// An empty name formats as "".
func Format(name string, score float64) string {
	if name == "" {
		return ""
	}
	return fmt.Sprintf("%s (%.2f)", name, score)
}

// Canonical strips the trailing confidence annotation from a label and maps
// placeholder categories to "". "Pointing_Up (0.93)" becomes "Pointing_Up".
func Canonical(label string) string {
	label = strings.TrimSpace(label)
	if i := strings.Index(label, " ("); i >= 0 && strings.HasSuffix(label, ")") {
		label = label[:i]
	}
	if placeholders[strings.ToLower(label)] {
		return ""
	}
	return label
}
