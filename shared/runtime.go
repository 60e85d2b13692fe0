package shared

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	player "github.com/wippyai/wasm-player"
	"github.com/wippyai/wasm-player/config"
	"github.com/wippyai/wasm-player/errors"
	"github.com/wippyai/wasm-player/input"
	"github.com/wippyai/wasm-player/resource"
	"github.com/wippyai/wasm-player/signal"
)

// HostModuleName is the import module scripts use for player functions.
const HostModuleName = "player"

// Env is everything a Runtime needs from the worker.
type Env struct {
	Graphics player.GraphicsContext
	Audio    player.AudioContext
	Config   config.Config

	// Stop is the termination request latch polled by should_stop.
	Stop *signal.Latch

	WindowSize *signal.Slot[player.Size]
	Bindings   *signal.Slot[*input.Bindings]
	Keys       *signal.Slot[input.KeyEvent]
}

// Runtime is the engine-global state for one worker run.
type Runtime struct {
	env Env

	resources *resource.Table
	sprites   *resource.Cache
	cache     wazero.CompilationCache
	wasm      wazero.Runtime
	wasi      api.Closer
	host      api.Module

	// Consumer-side view of the slots. Only the worker thread touches these.
	size       player.Size
	bindings   *input.Bindings
	key        input.KeyEvent
	keyPending bool

	mu     sync.Mutex
	closed bool
}

// New builds the runtime. The worker's graphics and audio contexts must be
// current. On failure every subsystem built so far is released and a
// runtime_init error names the subsystem that failed.
func New(ctx context.Context, env Env) (rt *Runtime, err error) {
	if env.Graphics == nil {
		return nil, errors.RuntimeInit("environment", errors.InvalidInput(errors.PhaseRuntime, "no graphics context"))
	}
	if env.Audio == nil {
		return nil, errors.RuntimeInit("environment", errors.InvalidInput(errors.PhaseRuntime, "no audio context"))
	}
	if env.Stop == nil {
		env.Stop = &signal.Latch{}
	}
	if env.WindowSize == nil {
		env.WindowSize = &signal.Slot[player.Size]{}
	}
	if env.Bindings == nil {
		env.Bindings = &signal.Slot[*input.Bindings]{}
	}
	if env.Keys == nil {
		env.Keys = &signal.Slot[input.KeyEvent]{}
	}

	r := &Runtime{env: env, size: env.Graphics.Size()}
	defer func() {
		if err != nil {
			if cerr := r.release(ctx); cerr != nil {
				Logger().Warn("release partial runtime", zap.Error(cerr))
			}
			rt = nil
		}
	}()

	r.resources = resource.NewTable()
	r.sprites = resource.NewCache(r.resources, resource.TypeSprite, r.loadSprite)

	sc := env.Config.Script
	if sc.CacheDir != "" {
		r.cache, err = wazero.NewCompilationCacheWithDir(sc.CacheDir)
		if err != nil {
			return nil, errors.RuntimeInit("compilation cache", err)
		}
	} else {
		r.cache = wazero.NewCompilationCache()
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if sc.Interpreter {
		runtimeCfg = wazero.NewRuntimeConfigInterpreter()
	}
	runtimeCfg = runtimeCfg.WithCompilationCache(r.cache)
	if sc.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(sc.MemoryLimitPages)
	}
	r.wasm = wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	r.wasi, err = wasi_snapshot_preview1.Instantiate(ctx, r.wasm)
	if err != nil {
		return nil, errors.RuntimeInit("wasi", err)
	}

	r.host, err = r.instantiateHost(ctx)
	if err != nil {
		return nil, errors.RuntimeInit("host module", err)
	}

	Logger().Debug("shared runtime ready",
		zap.Bool("interpreter", sc.Interpreter),
		zap.String("cache_dir", sc.CacheDir))
	return r, nil
}

// Teardown releases everything New built, newest first. Later calls are
// no-ops.
func (r *Runtime) Teardown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	return r.release(ctx)
}

func (r *Runtime) release(ctx context.Context) error {
	var err error
	if r.host != nil {
		err = multierr.Append(err, wrapTeardown("host module", r.host.Close(ctx)))
	}
	if r.wasi != nil {
		err = multierr.Append(err, wrapTeardown("wasi", r.wasi.Close(ctx)))
	}
	if r.wasm != nil {
		err = multierr.Append(err, wrapTeardown("wasm runtime", r.wasm.Close(ctx)))
	}
	if r.cache != nil {
		err = multierr.Append(err, wrapTeardown("compilation cache", r.cache.Close(ctx)))
	}
	if r.resources != nil {
		r.resources.Each(func(_ resource.Handle, _ uint32, v any) bool {
			if sp, ok := v.(*sprite); ok {
				Logger().Debug("releasing sprite", zap.String("name", sp.name))
			}
			return true
		})
		err = multierr.Append(err, wrapTeardown("resource table", r.resources.Close()))
	}
	return err
}

func wrapTeardown(what string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(errors.PhaseTeardown, errors.KindIO, err, "close "+what)
}

// Closed reports whether Teardown has run.
func (r *Runtime) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Wasm returns the wazero runtime scripts are compiled into.
func (r *Runtime) Wasm() wazero.Runtime {
	return r.wasm
}

// Config returns the configuration snapshot.
func (r *Runtime) Config() config.Config {
	return r.env.Config
}

// Graphics returns the worker's graphics context.
func (r *Runtime) Graphics() player.GraphicsContext {
	return r.env.Graphics
}

// Audio returns the worker's audio context.
func (r *Runtime) Audio() player.AudioContext {
	return r.env.Audio
}

// Resources returns the resource table.
func (r *Runtime) Resources() *resource.Table {
	return r.resources
}

// Sprites returns the sprite cache.
func (r *Runtime) Sprites() *resource.Cache {
	return r.sprites
}

// StopRequested reports whether the primary thread asked the worker to stop.
func (r *Runtime) StopRequested() bool {
	return r.env.Stop.IsSet()
}

// WindowSize returns the latest window size posted by the primary thread.
func (r *Runtime) WindowSize() player.Size {
	if s, ok := r.env.WindowSize.Poll(); ok {
		r.size = s
	}
	return r.size
}

// Bindings returns the latest key bindings, or nil if none were posted.
func (r *Runtime) Bindings() *input.Bindings {
	if b, ok := r.env.Bindings.Poll(); ok {
		r.bindings = b
	}
	return r.bindings
}

func (r *Runtime) pollKey() {
	if ev, ok := r.env.Keys.Poll(); ok {
		r.key = ev
		r.keyPending = true
	}
}

// ActionPressed reports whether the latest unconsumed key press maps to
// action under the current bindings, and consumes it if so.
func (r *Runtime) ActionPressed(action string) bool {
	r.pollKey()
	if !r.keyPending {
		return false
	}
	got := r.key.Action
	if b := r.Bindings(); b != nil {
		got, _ = b.Match(r.key.Key)
	}
	if got != action {
		return false
	}
	r.keyPending = false
	return true
}

// KeyPressed reports whether the latest unconsumed key press is key, and
// consumes it if so.
func (r *Runtime) KeyPressed(key string) bool {
	r.pollKey()
	if !r.keyPending || r.key.Key != key {
		return false
	}
	r.keyPending = false
	return true
}

type sprite struct {
	name string
	text string
}

// loadSprite reads a text sprite relative to the game folder.
func (r *Runtime) loadSprite(name string) (any, error) {
	if !filepath.IsLocal(name) {
		return nil, errors.InvalidInput(errors.PhaseHost, "sprite path escapes the game folder: "+name)
	}
	data, err := os.ReadFile(filepath.Join(r.env.Config.GameFolder, name))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindIO, err, "load sprite "+name)
	}
	return &sprite{name: name, text: string(data)}, nil
}

// DrawSprite draws a loaded sprite into the back buffer.
func (r *Runtime) DrawSprite(h resource.Handle) error {
	v, ok := r.resources.GetTyped(h, resource.TypeSprite)
	if !ok || !r.resources.Borrow(h) {
		return errors.NotFound(errors.PhaseHost, "sprite", "#"+strconv.FormatUint(uint64(h), 10))
	}
	defer r.resources.ReturnBorrow(h)

	r.env.Graphics.Draw(v.(*sprite).text)
	return nil
}
