// Package testdata holds recorded perception sessions for end-to-end tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

//go:embed sessions/*.json
var sessionsFS embed.FS

// Frame is one recorded detection and when it arrived.
type Frame struct {
	AtMS      int64              `json:"at_ms"`
	Detection detector.Detection `json:"detection"`
}

// Offset returns the arrival time relative to the engine start.
func (f Frame) Offset() time.Duration {
	return time.Duration(f.AtMS) * time.Millisecond
}

// Session is a recorded sequence of detections with the injector calls a
// default action map is expected to produce, cursor moves excluded.
type Session struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Frames      []Frame  `json:"frames"`
	Expect      []string `json:"expect"`
}

// LastLabel returns the top label of the final frame.
func (s *Session) LastLabel() string {
	if len(s.Frames) == 0 {
		return ""
	}
	return s.Frames[len(s.Frames)-1].Detection.TopLabel()
}

// LoadSession loads a session by file name without extension.
func LoadSession(name string) (*Session, error) {
	data, err := sessionsFS.ReadFile("sessions/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", name, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", name, err)
	}
	if s.Name == "" {
		s.Name = name
	}
	return &s, nil
}

// Sessions lists the available session names in sorted order.
func Sessions() ([]string, error) {
	entries, err := sessionsFS.ReadDir("sessions")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
