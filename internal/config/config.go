// Package config holds the runtime configuration and its layering:
// defaults, then a JSON file, then persisted settings, then flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/recognizer"
)

var (
	// ErrInvalidConfig is returned by Validate for out-of-range settings.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidRegion is returned by Validate when the mapping region is unusable.
	ErrInvalidRegion = pointer.ErrInvalidRegion
)

// Duration is a time.Duration that reads and writes as a Go duration string.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts "500ms" style strings or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(val))
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Tunables are the settings that can change while the engine runs.
// They are what the settings API reads and writes.
type Tunables struct {
	Region         pointer.Region `json:"region"`
	DeadZoneRadius float64        `json:"dead_zone_radius"`
	Cooldown       Duration       `json:"cooldown"`
	ScrollAmount   int            `json:"scroll_amount"`
}

// Validate checks the tunables.
func (t Tunables) Validate() error {
	if err := t.Region.Validate(); err != nil {
		return err
	}
	if t.DeadZoneRadius < 0 {
		return fmt.Errorf("%w: dead_zone_radius must not be negative", ErrInvalidConfig)
	}
	if t.Cooldown < 0 {
		return fmt.Errorf("%w: cooldown must not be negative", ErrInvalidConfig)
	}
	if t.ScrollAmount <= 0 {
		return fmt.Errorf("%w: scroll_amount must be positive", ErrInvalidConfig)
	}
	return nil
}

// Engine builds the engine config for these tunables and bindings.
func (t Tunables) Engine(bindings []action.Binding) engine.Config {
	return engine.Config{
		Region:         t.Region,
		DeadZoneRadius: t.DeadZoneRadius,
		Cooldown:       t.Cooldown.Std(),
		Bindings:       bindings,
	}
}

// Config holds all application settings.
type Config struct {
	Tunables

	CameraID        int      `json:"camera_id"`
	Mirror          bool     `json:"mirror"`
	MotionThreshold float64  `json:"motion_threshold"`
	IdleFPS         int      `json:"idle_fps"`
	ActiveFPS       int      `json:"active_fps"`
	IdleTimeout     Duration `json:"idle_timeout"`

	Detector recognizer.Config `json:"detector"`

	// Bindings, when set, replace the built-in map as the seed for an empty store.
	Bindings []action.Binding `json:"bindings,omitempty"`

	Addr          string   `json:"addr"`
	DataDir       string   `json:"data_dir"`
	PluginDir     string   `json:"plugin_dir"`
	WebDir        string   `json:"web_dir"`
	PluginTimeout Duration `json:"plugin_timeout"`
	LogLevel      string   `json:"log_level"`
	Tray          bool     `json:"tray"`
}

// DefaultConfig returns a Config with sensible default values.
// Screen dimensions are left at zero so the caller can fill them from the display.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	dataDir := home + "/.mudra"

	return Config{
		Tunables: Tunables{
			Region: pointer.Region{
				ROI:    pointer.Rect{X: 0, Y: 0, Width: 640, Height: 480},
				Active: pointer.Rect{X: 80, Y: 60, Width: 480, Height: 360},
				Policy: pointer.PolicyClamped,
			},
			DeadZoneRadius: 10,
			Cooldown:       Duration(gesture.DefaultCooldown),
			ScrollAmount:   action.DefaultScrollAmount,
		},
		CameraID:        0,
		Mirror:          true,
		MotionThreshold: 1.0,
		IdleFPS:         5,
		ActiveFPS:       15,
		IdleTimeout:     Duration(2 * time.Second),
		Detector:        recognizer.DefaultConfig(),
		Addr:            "127.0.0.1:8765",
		DataDir:         dataDir,
		PluginDir:       dataDir + "/plugins",
		WebDir:          "web",
		PluginTimeout:   Duration(5 * time.Second),
		LogLevel:        "info",
		Tray:            true,
	}
}

// Load reads a JSON config file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FillScreen sets unset screen dimensions.
func (c *Config) FillScreen(width, height int) {
	if c.Region.ScreenWidth <= 0 {
		c.Region.ScreenWidth = width
	}
	if c.Region.ScreenHeight <= 0 {
		c.Region.ScreenHeight = height
	}
}

// Validate checks the whole config. It is the single gate before startup.
func (c Config) Validate() error {
	if err := c.Tunables.Validate(); err != nil {
		return err
	}
	if c.CameraID < 0 {
		return fmt.Errorf("%w: camera_id must not be negative", ErrInvalidConfig)
	}
	if c.IdleFPS <= 0 || c.ActiveFPS <= 0 {
		return fmt.Errorf("%w: idle_fps and active_fps must be positive", ErrInvalidConfig)
	}
	if c.ActiveFPS < c.IdleFPS {
		return fmt.Errorf("%w: active_fps %d is below idle_fps %d", ErrInvalidConfig, c.ActiveFPS, c.IdleFPS)
	}
	if c.MotionThreshold < 0 || c.MotionThreshold > 100 {
		return fmt.Errorf("%w: motion_threshold must be a percentage", ErrInvalidConfig)
	}
	if c.Detector.MaxHands <= 0 {
		return fmt.Errorf("%w: detector.max_hands must be positive", ErrInvalidConfig)
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is required", ErrInvalidConfig)
	}
	for i, b := range c.Bindings {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("bindings[%d]: %w", i, err)
		}
	}
	return nil
}

// SeedBindings returns the bindings an empty store should start with.
func (c Config) SeedBindings() []action.Binding {
	if len(c.Bindings) > 0 {
		return c.Bindings
	}
	return action.DefaultBindings(c.ScrollAmount)
}
