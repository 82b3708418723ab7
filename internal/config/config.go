// ABOUTME: Soundboard configuration types
// ABOUTME: Defines config sections, defaults and validation
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/Soundboard/soundboard-go/pkg/audio/output"
	"github.com/Soundboard/soundboard-go/pkg/soundboard"
)

// Config is the complete application configuration
type Config struct {
	Output   OutputConfig   `mapstructure:"output"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Log      LogConfig      `mapstructure:"log"`
	UI       UIConfig       `mapstructure:"ui"`
}

// OutputConfig selects the output backend and device
type OutputConfig struct {
	Backend         string `mapstructure:"backend"`
	Device          string `mapstructure:"device"` // empty selects the default device
	Mode            string `mapstructure:"mode"`
	FramesPerBuffer int    `mapstructure:"frames_per_buffer"`
	LatencyMs       int    `mapstructure:"latency_ms"`
}

// PlaybackConfig holds the initial player settings
type PlaybackConfig struct {
	Gain     float64 `mapstructure:"gain"`
	Repeat   bool    `mapstructure:"repeat"`
	Autoplay bool    `mapstructure:"autoplay"`
}

// LogConfig holds logging settings
type LogConfig struct {
	File string `mapstructure:"file"`
}

// UIConfig holds terminal UI settings
type UIConfig struct {
	RefreshMs int  `mapstructure:"refresh_ms"`
	Disabled  bool `mapstructure:"disabled"`
}

// DefaultConfig returns a Config with the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Backend:         "malgo",
			Mode:            soundboard.ModeStereo.String(),
			FramesPerBuffer: soundboard.DefaultFramesPerBuffer,
			LatencyMs:       int(soundboard.DefaultLatency / time.Millisecond),
		},
		Playback: PlaybackConfig{
			Gain: soundboard.DefaultGain,
		},
		Log: LogConfig{
			File: "soundboard.log",
		},
		UI: UIConfig{
			RefreshMs: 100,
		},
	}
}

// Latency returns the suggested output latency
func (o OutputConfig) Latency() time.Duration {
	return time.Duration(o.LatencyMs) * time.Millisecond
}

// RoutingMode parses the configured mode
func (o OutputConfig) RoutingMode() (soundboard.Mode, error) {
	return soundboard.ParseMode(o.Mode)
}

// Refresh returns the UI polling interval
func (u UIConfig) Refresh() time.Duration {
	return time.Duration(u.RefreshMs) * time.Millisecond
}

// Validate checks that every value is usable
func (c *Config) Validate() error {
	if !slices.Contains(output.Names(), c.Output.Backend) {
		return fmt.Errorf("output.backend: %w: %q", output.ErrUnknownBackend, c.Output.Backend)
	}
	if _, err := c.Output.RoutingMode(); err != nil {
		return fmt.Errorf("output.mode: %w", err)
	}
	if c.Output.FramesPerBuffer <= 0 {
		return fmt.Errorf("output.frames_per_buffer must be positive, got %d", c.Output.FramesPerBuffer)
	}
	if c.Output.LatencyMs < 0 {
		return fmt.Errorf("output.latency_ms must not be negative, got %d", c.Output.LatencyMs)
	}
	if c.Playback.Gain < 0 || c.Playback.Gain > soundboard.MaxGain {
		return fmt.Errorf("playback.gain must be within [0, %g], got %g", soundboard.MaxGain, c.Playback.Gain)
	}
	if c.UI.RefreshMs <= 0 {
		return fmt.Errorf("ui.refresh_ms must be positive, got %d", c.UI.RefreshMs)
	}
	return nil
}
