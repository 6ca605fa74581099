package capture

import (
	"time"

	"gocv.io/x/gocv"
)

// Mode is the sampling mode of the capture loop.
type Mode int

const (
	// ModeIdle samples slowly and skips recognition.
	ModeIdle Mode = iota
	// ModeActive samples at full rate and runs recognition.
	ModeActive
)

func (m Mode) String() string {
	if m == ModeActive {
		return "active"
	}
	return "idle"
}

// GateConfig holds the sampling rates and the idle timeout.
type GateConfig struct {
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration
}

// DefaultGateConfig returns 5 FPS idle, 15 FPS active and a 2s timeout.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		IdleFPS:     5,
		ActiveFPS:   15,
		IdleTimeout: 2 * time.Second,
	}
}

// ActivityGate switches to active mode on motion and back to idle once no
// motion has been seen for IdleTimeout.
type ActivityGate struct {
	config     GateConfig
	motion     *MotionDetector
	mode       Mode
	lastMotion time.Time
}

// NewActivityGate creates a gate in idle mode. motion may be nil when frames
// are judged by the caller through Update.
func NewActivityGate(config GateConfig, motion *MotionDetector) *ActivityGate {
	return &ActivityGate{
		config: config,
		motion: motion,
		mode:   ModeIdle,
	}
}

// Observe runs motion detection on frame and updates the mode.
func (g *ActivityGate) Observe(frame *gocv.Mat, now time.Time) (Mode, bool) {
	moved := false
	if g.motion != nil {
		moved, _ = g.motion.Detect(frame)
	}
	return g.Update(moved, now)
}

// Update applies one motion observation and returns the mode and whether it changed.
func (g *ActivityGate) Update(moved bool, now time.Time) (Mode, bool) {
	if moved {
		g.lastMotion = now
		if g.mode != ModeActive {
			g.mode = ModeActive
			return g.mode, true
		}
		return g.mode, false
	}

	if g.mode == ModeActive && now.Sub(g.lastMotion) > g.config.IdleTimeout {
		g.mode = ModeIdle
		return g.mode, true
	}
	return g.mode, false
}

// Mode returns the current mode.
func (g *ActivityGate) Mode() Mode {
	return g.mode
}

// FPS returns the capture rate for the current mode.
func (g *ActivityGate) FPS() int {
	if g.mode == ModeActive {
		return g.config.ActiveFPS
	}
	return g.config.IdleFPS
}

// Interval returns the frame interval for the current mode.
func (g *ActivityGate) Interval() time.Duration {
	fps := g.FPS()
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}
