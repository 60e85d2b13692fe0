package main

import (
	"context"
	"io"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"

	"github.com/wippyai/wasm-player/audio"
	"github.com/wippyai/wasm-player/config"
	"github.com/wippyai/wasm-player/errors"
	"github.com/wippyai/wasm-player/gfx"
	"github.com/wippyai/wasm-player/input"
	"github.com/wippyai/wasm-player/lifecycle"
	"github.com/wippyai/wasm-player/logging"
	"github.com/wippyai/wasm-player/metrics"
	"github.com/wippyai/wasm-player/notify"
	"github.com/wippyai/wasm-player/script"
	"github.com/wippyai/wasm-player/shared"
	"github.com/wippyai/wasm-player/window"
)

const defaultTitle = "wasm-player"

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// boot runs the primary thread from configuration to shutdown. Every
// outcome, including boot failures and forced quits, is reported through
// the notifier rather than the exit status.
func boot(ctx context.Context, v *viper.Viper, s streams) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	headless := v.GetBool("window.headless")
	n := newNotifier(nil, headless)

	cfg, err := config.Load(v)
	if err != nil {
		showInitError(n, defaultTitle, err)
		return
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		showInitError(n, cfg.Window.Title, err)
		return
	}
	defer log.Sync()
	installLogger(log)
	n = newNotifier(log, cfg.Window.Headless)

	m := metrics.NewCollector(nil)
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	win, err := window.New(cfg.Window)
	if err != nil {
		showInitError(n, cfg.Window.Title, err)
		return
	}
	defer win.Destroy()

	dev, err := audio.Open(cfg.Audio.Device, s.err)
	if err != nil {
		showInitError(n, cfg.Window.Title, err)
		return
	}
	defer dev.Close()

	refreshRate := cfg.Graphics.RefreshRate
	if refreshRate == 0 {
		cfg.Graphics.SyncToRefreshRate = false
	}

	bindings, err := input.LoadOrDefault(cfg.Input.Bindings)
	if err != nil {
		showInitError(n, cfg.Window.Title, err)
		return
	}

	tc := lifecycle.NewThreadContext(cfg, win, dev, refreshRate)
	tc.WindowSize.Post(win.Size())
	tc.Bindings.Post(bindings)

	pump := window.NewPump(win,
		window.WithInput(s.in),
		window.WithOutput(s.out),
		window.WithRefreshRate(refreshRate),
		window.WithAltScreen(cfg.Window.AltScreen),
		window.WithBindings(cfg.Input.Bindings, cfg.Input.Watch),
		window.WithInitialBindings(bindings),
	)

	scriptOut := &zapio.Writer{Log: log.Named("script"), Level: zap.InfoLevel}
	defer scriptOut.Close()

	worker := &lifecycle.Worker{
		Graphics: gfx.NewProvider(refreshRate, log.Named("gfx")),
		Audio:    audio.NewProvider(),
		Engine:   script.New(cfg.Script, script.WithOutput(scriptOut, scriptOut)),
		Pump:     pump,
		Metrics:  m,
	}

	log.Info("starting",
		zap.String("title", win.Title()),
		zap.String("script", cfg.Script.Path),
		zap.Bool("headless", win.Headless()),
		zap.Int("refresh_rate", refreshRate))

	handle := worker.Start(ctx, tc)

	if err := pump.Process(ctx, tc); err != nil {
		log.Error("event pump failed", zap.Error(err))
	}

	lifecycle.Terminate(tc, handle, n, lifecycle.TerminationFromConfig(cfg.Termination, m))
	pump.Cleanup(tc)

	log.Info("shutting down")
}

func newNotifier(log *zap.Logger, headless bool) *notify.Terminal {
	if headless {
		return notify.NewTerminal(log, notify.Headless())
	}
	return notify.NewTerminal(log)
}

// showInitError reports a failure that happened before the worker started.
func showInitError(n lifecycle.Notifier, title string, err error) {
	if title == "" {
		title = defaultTitle
	}
	n.ShowBlockingMessage(title, errors.Reason(err))
}

func installLogger(log *zap.Logger) {
	lifecycle.SetLogger(log.Named("lifecycle"))
	window.SetLogger(log.Named("window"))
	script.SetLogger(log.Named("script"))
	shared.SetLogger(log.Named("shared"))
}
