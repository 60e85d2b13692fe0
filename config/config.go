// Package config loads the immutable configuration snapshot shared by the
// primary and worker threads.
//
// Precedence, highest first: command-line flags bound into the viper
// instance, PLAYER_* environment variables, the config file, the game
// manifest (game.toml in the game folder), defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/wippyai/wasm-player/errors"
)

// Termination handshake defaults: 1000 attempts of 10ms.
const (
	DefaultPollInterval = 10 * time.Millisecond
	DefaultAttempts     = 1000
)

// EnvPrefix is the prefix for environment overrides (PLAYER_WINDOW_TITLE, ...).
const EnvPrefix = "PLAYER"

// Config is the configuration snapshot. It is built once at boot and never
// mutated afterwards; components receive it by value.
type Config struct {
	GameFolder  string            `mapstructure:"game_folder"`
	Window      WindowConfig      `mapstructure:"window"`
	Graphics    GraphicsConfig    `mapstructure:"graphics"`
	Audio       AudioConfig       `mapstructure:"audio"`
	Script      ScriptConfig      `mapstructure:"script"`
	Input       InputConfig       `mapstructure:"input"`
	Termination TerminationConfig `mapstructure:"termination"`
	Log         LogConfig         `mapstructure:"log"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type WindowConfig struct {
	Title     string `mapstructure:"title"`
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	Resizable bool   `mapstructure:"resizable"`
	AltScreen bool   `mapstructure:"alt_screen"`
	// Headless runs without a terminal: no renderer, no input, and notifier
	// messages go to the log only.
	Headless bool `mapstructure:"headless"`
}

type GraphicsConfig struct {
	VSync             bool `mapstructure:"vsync"`
	SyncToRefreshRate bool `mapstructure:"sync_to_refresh_rate"`
	// RefreshRate of the display in Hz. Zero means unknown.
	RefreshRate int  `mapstructure:"refresh_rate"`
	Debug       bool `mapstructure:"debug"`
}

type AudioConfig struct {
	Device string  `mapstructure:"device"`
	Volume float64 `mapstructure:"volume"`
}

type ScriptConfig struct {
	Path             string `mapstructure:"path"`
	Entry            string `mapstructure:"entry"`
	CacheDir         string `mapstructure:"cache_dir"`
	Interpreter      bool   `mapstructure:"interpreter"`
	MemoryLimitPages uint32 `mapstructure:"memory_limit_pages"`
}

type InputConfig struct {
	Bindings string `mapstructure:"bindings"`
	// Watch reloads the bindings file when it changes on disk.
	Watch bool `mapstructure:"watch"`
}

type TerminationConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Attempts     int           `mapstructure:"attempts"`
}

// Budget is the total time the primary thread waits for the worker.
func (t TerminationConfig) Budget() time.Duration {
	return t.PollInterval * time.Duration(t.Attempts)
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	// File receives log output. Empty means stderr, which the terminal
	// renderer also draws on, so interactive runs should log to a file.
	File string `mapstructure:"file"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults installs default values into v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("game_folder", ".")
	v.SetDefault("window.title", "")
	v.SetDefault("window.headless", false)
	v.SetDefault("window.width", 80)
	v.SetDefault("window.height", 24)
	v.SetDefault("window.resizable", true)
	v.SetDefault("window.alt_screen", true)
	v.SetDefault("graphics.vsync", false)
	v.SetDefault("graphics.sync_to_refresh_rate", false)
	v.SetDefault("graphics.refresh_rate", 60)
	v.SetDefault("graphics.debug", false)
	v.SetDefault("audio.device", "bell")
	v.SetDefault("audio.volume", 1.0)
	v.SetDefault("script.path", "")
	v.SetDefault("script.entry", "")
	v.SetDefault("script.cache_dir", "")
	v.SetDefault("script.interpreter", false)
	v.SetDefault("script.memory_limit_pages", 0)
	v.SetDefault("input.bindings", "")
	v.SetDefault("input.watch", true)
	v.SetDefault("termination.poll_interval", DefaultPollInterval)
	v.SetDefault("termination.attempts", DefaultAttempts)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
	v.SetDefault("metrics.addr", "")
}

// NewViper returns a viper instance with defaults, env overrides and the
// config file search path set up. An explicit configPath disables the search.
func NewViper(configPath string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("player")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "wasm-player"))
		}
	}
	return v
}

// Load reads the config file (if any), merges the game manifest and
// validates the result.
func Load(v *viper.Viper) (*Config, error) {
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "decode config")
	}

	if err := applyManifest(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "read config file")
	}
	return nil
}

// applyManifest fills unset fields from game.toml and resolves relative paths
// against the game folder.
func applyManifest(cfg *Config) error {
	m, err := LoadManifest(cfg.GameFolder)
	if err != nil {
		return err
	}

	if cfg.Window.Title == "" {
		cfg.Window.Title = m.Title
	}
	if cfg.Window.Title == "" {
		cfg.Window.Title = "wasm-player"
	}
	if cfg.Script.Path == "" {
		cfg.Script.Path = m.Script
	}
	if cfg.Input.Bindings == "" {
		cfg.Input.Bindings = m.Bindings
	}

	cfg.Script.Path = resolve(cfg.GameFolder, cfg.Script.Path)
	cfg.Input.Bindings = resolve(cfg.GameFolder, cfg.Input.Bindings)
	return nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Validate checks cross-field constraints.
func Validate(cfg *Config) error {
	switch {
	case cfg.Script.Path == "":
		return errors.InvalidInput(errors.PhaseConfig, "no script configured (set script.path or game.toml script)")
	case cfg.Window.Width <= 0 || cfg.Window.Height <= 0:
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("window size %dx%d must be positive", cfg.Window.Width, cfg.Window.Height).
			Build()
	case cfg.Termination.PollInterval <= 0:
		return errors.InvalidInput(errors.PhaseConfig, "termination.poll_interval must be positive")
	case cfg.Termination.Attempts <= 0:
		return errors.InvalidInput(errors.PhaseConfig, "termination.attempts must be positive")
	case cfg.Graphics.RefreshRate < 0:
		return errors.InvalidInput(errors.PhaseConfig, "graphics.refresh_rate must not be negative")
	case cfg.Audio.Volume < 0 || cfg.Audio.Volume > 1:
		return errors.InvalidInput(errors.PhaseConfig, "audio.volume must be within [0, 1]")
	}
	return nil
}

// VSyncEnabled reports whether presents should wait for the refresh period.
// Syncing to the refresh rate requires a known rate.
func (c Config) VSyncEnabled() bool {
	return c.Graphics.VSync || (c.Graphics.SyncToRefreshRate && c.Graphics.RefreshRate > 0)
}
