// Package script runs a WebAssembly script inside a shared.Runtime.
//
// Scripts are core WebAssembly modules. They import the "player" host module
// and optionally WASI preview1, and export an entry point that takes no
// arguments: the configured entry, or else _start, main or run.
package script

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-player/config"
	"github.com/wippyai/wasm-player/errors"
	"github.com/wippyai/wasm-player/shared"
)

// DefaultEntries are tried in order when no entry point is configured.
var DefaultEntries = []string{"_start", "main", "run"}

// Engine compiles and runs one script.
type Engine struct {
	path   string
	entry  string
	source []byte
	stdout io.Writer
	stderr io.Writer
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource runs the given module bytes instead of reading the script path.
func WithSource(wasm []byte) Option {
	return func(e *Engine) { e.source = wasm }
}

// WithOutput sets the script's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Engine) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// New creates an engine for the configured script.
func New(cfg config.ScriptConfig, opts ...Option) *Engine {
	e := &Engine{
		path:   cfg.Path,
		entry:  cfg.Entry,
		stdout: io.Discard,
		stderr: io.Discard,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the script to completion. A script that exits through WASI
// with code 0 has completed normally; any other exit code or trap is a
// script error. Execute does not interrupt a running script: scripts poll
// should_stop to cooperate with shutdown.
func (e *Engine) Execute(ctx context.Context, rt *shared.Runtime) error {
	wasm, err := e.load()
	if err != nil {
		return err
	}

	compiled, err := rt.Wasm().CompileModule(ctx, wasm)
	if err != nil {
		return errors.Script("compile script", err)
	}
	defer compiled.Close(ctx)

	modCfg := wazero.NewModuleConfig().
		WithName("script").
		WithStartFunctions().
		WithArgs("script").
		WithStdout(e.stdout).
		WithStderr(e.stderr).
		WithSysWalltime().
		WithSysNanotime()

	mod, err := rt.Wasm().InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return exitResult("instantiate script", err)
	}
	defer mod.Close(ctx)

	name, fn, err := e.resolveEntry(mod)
	if err != nil {
		return err
	}

	Logger().Debug("script started", zap.String("entry", name))
	_, err = fn.Call(ctx)
	if err = exitResult("run "+name, err); err != nil {
		return err
	}
	Logger().Debug("script finished", zap.String("entry", name))
	return nil
}

func (e *Engine) load() ([]byte, error) {
	if e.source != nil {
		return e.source, nil
	}
	if e.path == "" {
		return nil, errors.Script("no script configured", nil)
	}
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, errors.Script("read script", err)
	}
	return data, nil
}

func (e *Engine) resolveEntry(mod api.Module) (string, api.Function, error) {
	candidates := DefaultEntries
	if e.entry != "" {
		candidates = []string{e.entry}
	}
	for _, name := range candidates {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			continue
		}
		if n := len(fn.Definition().ParamTypes()); n != 0 {
			return "", nil, errors.Script(fmt.Sprintf("entry %s takes %d parameters, want 0", name, n), nil)
		}
		return name, fn, nil
	}
	if e.entry != "" {
		return "", nil, errors.NotFound(errors.PhaseScript, "entry point", e.entry)
	}
	return "", nil, errors.Script("script exports none of _start, main, run", nil)
}

// exitResult maps a wazero call error to the script's outcome.
func exitResult(detail string, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == 0 {
			return nil
		}
		return errors.New(errors.PhaseScript, errors.KindScript).
			Detail("script exited with code %d", exitErr.ExitCode()).
			Value(exitErr.ExitCode()).
			Build()
	}
	return errors.Script(detail, err)
}
