// Package overlay draws the mapping region and recognizer state onto preview frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/pointer"
	"gocv.io/x/gocv"
)

var (
	roiColor    = color.RGBA{R: 0, G: 200, B: 255, A: 0}
	activeColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	palmColor   = color.RGBA{R: 255, G: 0, B: 255, A: 0}
	textColor   = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// State is what one preview frame shows.
type State struct {
	Region pointer.Region
	// Palm is the palm base normalized to the ROI, nil when no hand is visible.
	Palm       *detector.Point
	Label      string
	Accepted   string
	Handedness detector.Handedness
	Mode       string
}

// Draw renders s onto frame in place. frame is the full camera frame.
func Draw(frame *gocv.Mat, s State) {
	if frame == nil || frame.Empty() {
		return
	}

	roi := s.Region.ROI
	roiRect := image.Rect(roi.X, roi.Y, roi.X+roi.Width, roi.Y+roi.Height)
	gocv.Rectangle(frame, roiRect, roiColor, 1)

	a := s.Region.Active
	activeRect := image.Rect(roi.X+a.X, roi.Y+a.Y, roi.X+a.X+a.Width, roi.Y+a.Y+a.Height)
	gocv.Rectangle(frame, activeRect, activeColor, 2)

	if s.Palm != nil {
		gocv.Circle(frame, PalmPixel(s.Region.ROI, *s.Palm), 6, palmColor, -1)
	}

	gocv.PutText(frame, headline(s), image.Pt(10, 24), gocv.FontHersheySimplex, 0.6, textColor, 2)
	if s.Mode != "" {
		gocv.PutText(frame, s.Mode, image.Pt(10, frame.Rows()-12), gocv.FontHersheySimplex, 0.5, textColor, 1)
	}
}

// PalmPixel converts an ROI-normalized point to camera-frame pixels.
func PalmPixel(roi pointer.Rect, p detector.Point) image.Point {
	return image.Pt(
		roi.X+int(p.X*float64(roi.Width)),
		roi.Y+int(p.Y*float64(roi.Height)),
	)
}

func headline(s State) string {
	label := s.Label
	if label == "" {
		label = "-"
	}
	if s.Accepted == "" {
		return fmt.Sprintf("%s [%s]", label, s.Handedness)
	}
	return fmt.Sprintf("%s [%s] -> %s", label, s.Handedness, s.Accepted)
}
