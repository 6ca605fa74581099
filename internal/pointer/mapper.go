// Package pointer maps hand positions inside the camera region of interest onto
// absolute screen coordinates and filters jitter out of the resulting cursor stream.
package pointer

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRegion is returned when a Region cannot produce screen coordinates.
var ErrInvalidRegion = errors.New("invalid region")

// Policy decides what happens to a point that falls outside the active sub-region.
type Policy string

const (
	// PolicyClamped pins out-of-range points to the nearest sub-region edge,
	// so every point yields a coordinate.
	PolicyClamped Policy = "clamped"
	// PolicyStrict drops points outside the sub-region.
	PolicyStrict Policy = "strict"
)

// Rect is an axis-aligned rectangle in pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether (x, y) lies inside the rectangle, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= float64(r.X) && x <= float64(r.X+r.Width) &&
		y >= float64(r.Y) && y <= float64(r.Y+r.Height)
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Point is an absolute screen coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	dx := float64(p.X - q.X)
	dy := float64(p.Y - q.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Region describes how the camera frame maps onto the screen.
//
// ROI is expressed in camera-frame pixels. Active is expressed in ROI-local
// pixels (its origin is the ROI's top-left corner) and must lie inside the ROI.
type Region struct {
	ROI          Rect   `json:"roi"`
	Active       Rect   `json:"active"`
	ScreenWidth  int    `json:"screen_width"`
	ScreenHeight int    `json:"screen_height"`
	Policy       Policy `json:"policy"`
}

// Validate checks the region for configuration errors.
func (r Region) Validate() error {
	if r.ROI.Empty() {
		return fmt.Errorf("%w: roi %dx%d has no area", ErrInvalidRegion, r.ROI.Width, r.ROI.Height)
	}
	if r.Active.Empty() {
		return fmt.Errorf("%w: active sub-region %dx%d has no area", ErrInvalidRegion, r.Active.Width, r.Active.Height)
	}
	if r.Active.X < 0 || r.Active.Y < 0 ||
		r.Active.X+r.Active.Width > r.ROI.Width ||
		r.Active.Y+r.Active.Height > r.ROI.Height {
		return fmt.Errorf("%w: active sub-region %+v exceeds roi %dx%d", ErrInvalidRegion, r.Active, r.ROI.Width, r.ROI.Height)
	}
	if r.ScreenWidth <= 0 || r.ScreenHeight <= 0 {
		return fmt.Errorf("%w: screen %dx%d", ErrInvalidRegion, r.ScreenWidth, r.ScreenHeight)
	}
	switch r.Policy {
	case PolicyClamped, PolicyStrict:
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidRegion, r.Policy)
	}
	return nil
}

// Map converts a ROI-normalized position (x, y in [0,1]) into a screen coordinate.
// The second return value is false when the strict policy rejects the point.
// The region must have passed Validate.
func (r Region) Map(x, y float64) (Point, bool) {
	px := x * float64(r.ROI.Width)
	py := y * float64(r.ROI.Height)

	if !r.Active.Contains(px, py) {
		if r.Policy == PolicyStrict {
			return Point{}, false
		}
		px = clamp(px, float64(r.Active.X), float64(r.Active.X+r.Active.Width))
		py = clamp(py, float64(r.Active.Y), float64(r.Active.Y+r.Active.Height))
	}

	sx := (px - float64(r.Active.X)) / float64(r.Active.Width) * float64(r.ScreenWidth)
	sy := (py - float64(r.Active.Y)) / float64(r.Active.Height) * float64(r.ScreenHeight)

	return Point{
		X: clampInt(int(math.Round(sx)), 0, r.ScreenWidth-1),
		Y: clampInt(int(math.Round(sy)), 0, r.ScreenHeight-1),
	}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
