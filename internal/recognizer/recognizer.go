// Package recognizer runs the hand-landmark and gesture-recognition model on
// camera frames and turns its output into detector.Detection values.
package recognizer

import (
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
)

var (
	// ErrScriptNotFound is returned when the recognizer service script cannot be located.
	ErrScriptNotFound = errors.New("recognizer script not found")
	// ErrModelNotFound is returned when the gesture model file does not exist.
	ErrModelNotFound = errors.New("gesture model not found")
	// ErrServiceReported is wrapped around errors the service reports for a
	// single frame. The service keeps running after them.
	ErrServiceReported = errors.New("recognizer reported an error")
)

// Detector defines the interface for the perception oracle.
type Detector interface {
	// Detect analyzes a frame cropped to the region of interest. Landmark
	// coordinates in the result are normalized to that frame.
	// A frame without hands yields an empty Detection and a nil error.
	Detect(frame *gocv.Mat) (detector.Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for the recognizer.
type Config struct {
	// ScriptPath points at the recognizer service. Empty means search the usual locations.
	ScriptPath string `json:"script_path"`

	// ModelPath points at the MediaPipe gesture_recognizer.task file.
	ModelPath string `json:"model_path"`

	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int `json:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `json:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `json:"min_tracking_confidence"`

	// IdleShutdown stops the service process after this long without frames.
	IdleShutdown time.Duration `json:"-"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelPath:       "models/gesture_recognizer.task",
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleShutdown:    30 * time.Second,
	}
}
