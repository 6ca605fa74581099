package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/overlay"
)

// perceive is the capture and detection worker.
//
// Pipeline logic:
//  1. Sample the camera at the idle rate until motion shows up inside the ROI
//  2. On motion, switch to the active rate and run the detector on the ROI crop
//  3. Feed landmarks and classifications to the run loop
//  4. After the idle timeout without motion, drop back to the idle rate
func (a *App) perceive(ctx context.Context) {
	defer a.wg.Done()

	interval := a.gate.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if a.processFrame() {
			a.deps.Camera.SetFPS(a.gate.FPS())
			if next := a.gate.Interval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// processFrame reads, gates and detects one frame. It reports whether the
// capture mode changed.
func (a *App) processFrame() bool {
	frame, err := a.deps.Camera.ReadFrame()
	if err != nil {
		log.Debug().Err(err).Msg("frame read failed")
		return false
	}
	defer frame.Close()

	region := a.Tunables().Region
	roi, err := capture.CropROI(frame, region.ROI)
	if err != nil {
		log.Warn().Err(err).Msg("cannot crop roi")
		return false
	}
	defer roi.Close()

	now := a.deps.Now()
	mode, changed := a.gate.Observe(&roi, now)
	if changed {
		log.Info().Str("mode", mode.String()).Int("fps", a.gate.FPS()).Msg("capture mode changed")
	}

	var det detector.Detection
	if mode == capture.ModeActive && a.Enabled() {
		det, err = a.deps.Detector.Detect(&roi)
		if err != nil {
			log.Warn().Err(err).Msg("detection failed")
		} else {
			a.Feed(det, now)
		}
	}

	if a.deps.Preview != nil && a.deps.Preview.Wanted() {
		a.renderPreview(frame, det, mode)
	}
	return changed
}

// renderPreview draws the overlay onto frame and publishes it.
func (a *App) renderPreview(frame *gocv.Mat, det detector.Detection, mode capture.Mode) {
	snap := a.Snapshot()
	state := overlay.State{
		Region:     a.Tunables().Region,
		Label:      snap.Label,
		Accepted:   snap.Accepted,
		Handedness: snap.Handedness,
		Mode:       mode.String(),
	}
	if !a.Enabled() {
		state.Mode = "disabled"
	}
	if p, ok := det.PalmBase(); ok {
		state.Palm = &p
	}

	overlay.Draw(frame, state)
	if err := a.deps.Preview.Publish(*frame); err != nil {
		log.Debug().Err(err).Msg("preview encode failed")
	}
}
