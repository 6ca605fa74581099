// Package detector holds the per-frame perception result: hand landmarks,
// handedness and ranked gesture categories.
package detector

import (
	"strings"

	"github.com/ayusman/mudra/internal/gesture"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21

	// PalmBase is the landmark that drives the pointer.
	PalmBase = Wrist
)

// Point is a landmark position normalized to the frame the detector saw (x, y in [0,1]).
// Z is the relative depth reported by the model and is not used for pointing.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Landmarks is the ordered list of points for one hand. Index 0 is the palm base.
type Landmarks []Point

// Handedness is which hand a detection belongs to.
type Handedness string

const (
	Left    Handedness = "left"
	Right   Handedness = "right"
	Unknown Handedness = "unknown"
)

// ParseHandedness accepts the model's "Left"/"Right" labels in any case.
// Anything else is Unknown.
func ParseHandedness(s string) Handedness {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left
	case "right":
		return Right
	default:
		return Unknown
	}
}

// UnmarshalText lets Handedness decode leniently from JSON and config files.
func (h *Handedness) UnmarshalText(text []byte) error {
	*h = ParseHandedness(string(text))
	return nil
}

// Category is one ranked gesture classification.
type Category struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Detection is the perception result for one frame.
type Detection struct {
	// Gestures is ranked best first and may be empty.
	Gestures []Category `json:"gestures"`
	// Handedness of the hand the gestures were classified on.
	Handedness Handedness `json:"handedness"`
	// Hands holds landmarks for every detected hand; only the first drives the pointer.
	Hands []Landmarks `json:"hands"`
}

// TopLabel returns the best gesture formatted as "Name (0.93)", or "" if there is none.
func (d Detection) TopLabel() string {
	if len(d.Gestures) == 0 {
		return ""
	}
	return gesture.Format(d.Gestures[0].Name, d.Gestures[0].Score)
}

// PalmBase returns the first hand's palm-base landmark.
func (d Detection) PalmBase() (Point, bool) {
	if len(d.Hands) == 0 || len(d.Hands[0]) <= PalmBase {
		return Point{}, false
	}
	return d.Hands[0][PalmBase], true
}

// Empty reports whether the detection carries neither gestures nor landmarks.
func (d Detection) Empty() bool {
	return len(d.Gestures) == 0 && len(d.Hands) == 0
}
