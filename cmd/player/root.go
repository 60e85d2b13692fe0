package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wippyai/wasm-player/config"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
)

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"title":                "window.title",
	"width":                "window.width",
	"height":               "window.height",
	"headless":             "window.headless",
	"resizable":            "window.resizable",
	"alt-screen":           "window.alt_screen",
	"vsync":                "graphics.vsync",
	"sync-refresh":         "graphics.sync_to_refresh_rate",
	"refresh-rate":         "graphics.refresh_rate",
	"debug":                "graphics.debug",
	"audio-device":         "audio.device",
	"volume":               "audio.volume",
	"script":               "script.path",
	"entry":                "script.entry",
	"cache-dir":            "script.cache_dir",
	"interpreter":          "script.interpreter",
	"memory-limit-pages":   "script.memory_limit_pages",
	"bindings":             "input.bindings",
	"watch-bindings":       "input.watch",
	"termination-poll":     "termination.poll_interval",
	"termination-attempts": "termination.attempts",
	"log-level":            "log.level",
	"log-file":             "log.file",
	"dev":                  "log.development",
	"metrics-addr":         "metrics.addr",
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "player [game-folder]",
		Short: "Run a WebAssembly game script in the terminal",
		Long: `player loads a WebAssembly script from a game folder and runs it with a
terminal window, key input and a bell for audio.

The primary thread runs the window event loop. A worker thread owns the
graphics and audio contexts and runs the script. When the window closes the
worker is asked to stop and given a bounded time to finish.`,
		Version:       version + " (" + commit + ")",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.NewViper(cfgFile)
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			if len(args) == 1 {
				v.Set("game_folder", args[0])
			}
			boot(cmd.Context(), v, streams{
				in:  cmd.InOrStdin(),
				out: cmd.OutOrStdout(),
				err: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfgFile, "config", "", "config file (default: player.toml in . or the user config dir)")
	f.String("title", "", "window title (default: game title)")
	f.Int("width", 80, "window width in cells when there is no terminal")
	f.Int("height", 24, "window height in cells when there is no terminal")
	f.Bool("headless", false, "run without a terminal")
	f.Bool("resizable", true, "follow terminal resizes")
	f.Bool("alt-screen", true, "render in the alternate screen")
	f.Bool("vsync", false, "pace presents to the refresh rate")
	f.Bool("sync-refresh", false, "sync to the display refresh rate when it is known")
	f.Int("refresh-rate", 60, "display refresh rate in Hz, 0 if unknown")
	f.Bool("debug", false, "create a debug graphics context")
	f.String("audio-device", "bell", "audio device: bell or null")
	f.Float64("volume", 1, "audio volume in [0, 1]")
	f.String("script", "", "script path (default: game.toml script)")
	f.String("entry", "", "script entry point (default: _start, main or run)")
	f.String("cache-dir", "", "directory for compiled scripts")
	f.Bool("interpreter", false, "use the wazero interpreter")
	f.Uint32("memory-limit-pages", 0, "script memory limit in 64KiB pages, 0 for no limit")
	f.String("bindings", "", "key bindings file")
	f.Bool("watch-bindings", true, "reload the bindings file when it changes")
	f.Duration("termination-poll", config.DefaultPollInterval, "termination handshake poll interval")
	f.Int("termination-attempts", config.DefaultAttempts, "termination handshake attempts")
	f.String("log-level", "info", "log level")
	f.String("log-file", "", "log file (default: stderr)")
	f.Bool("dev", false, "development logging")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

// bindFlags binds every flag so that only flags the user set override the
// config file and environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}
