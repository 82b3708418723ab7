// ABOUTME: Configuration loading
// ABOUTME: Merges defaults, soundboard.toml, .env, SOUNDBOARD_ environment and flags
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SOUNDBOARD_OUTPUT_BACKEND
const EnvPrefix = "SOUNDBOARD"

// flag name -> config key
var flagKeys = map[string]string{
	"backend":           "output.backend",
	"device":            "output.device",
	"mode":              "output.mode",
	"frames-per-buffer": "output.frames_per_buffer",
	"latency-ms":        "output.latency_ms",
	"gain":              "playback.gain",
	"repeat":            "playback.repeat",
	"autoplay":          "playback.autoplay",
	"log-file":          "log.file",
	"refresh-ms":        "ui.refresh_ms",
	"no-tui":            "ui.disabled",
}

// RegisterFlags adds the configuration flags to fs
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String("config", "", "Config file path (default: soundboard.toml in ~/.config/soundboard or .)")
	fs.String("backend", d.Output.Backend, "Output backend (malgo, portaudio, oto, null)")
	fs.String("device", d.Output.Device, "Output device name (default: system default)")
	fs.String("mode", d.Output.Mode, "Channel routing (stereo, left, right)")
	fs.Int("frames-per-buffer", d.Output.FramesPerBuffer, "Frames per output buffer")
	fs.Int("latency-ms", d.Output.LatencyMs, "Suggested output latency in milliseconds")
	fs.Float64("gain", d.Playback.Gain, "Initial player gain (0-2)")
	fs.Bool("repeat", d.Playback.Repeat, "Loop every file")
	fs.Bool("autoplay", d.Playback.Autoplay, "Start playing files immediately")
	fs.String("log-file", d.Log.File, "Log file path")
	fs.Int("refresh-ms", d.UI.RefreshMs, "Level meter refresh interval in milliseconds")
	fs.Bool("no-tui", d.UI.Disabled, "Disable TUI, use streaming logs instead")
}

// Load builds the configuration. Later sources win: defaults, config file,
// .env, environment, then flags that were set on the command line. fs may
// be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("soundboard")
	v.SetConfigType("toml")
	v.AddConfigPath("$HOME/.config/soundboard")
	v.AddConfigPath(".")

	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := ""
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("output.backend", d.Output.Backend)
	v.SetDefault("output.device", d.Output.Device)
	v.SetDefault("output.mode", d.Output.Mode)
	v.SetDefault("output.frames_per_buffer", d.Output.FramesPerBuffer)
	v.SetDefault("output.latency_ms", d.Output.LatencyMs)
	v.SetDefault("playback.gain", d.Playback.Gain)
	v.SetDefault("playback.repeat", d.Playback.Repeat)
	v.SetDefault("playback.autoplay", d.Playback.Autoplay)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("ui.refresh_ms", d.UI.RefreshMs)
	v.SetDefault("ui.disabled", d.UI.Disabled)
}
