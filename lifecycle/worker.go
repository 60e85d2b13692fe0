package lifecycle

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	player "github.com/wippyai/wasm-player"
	"github.com/wippyai/wasm-player/errors"
	"github.com/wippyai/wasm-player/metrics"
	"github.com/wippyai/wasm-player/shared"
)

// GraphicsProvider creates graphics contexts on the worker thread.
type GraphicsProvider interface {
	CreateContext(surface player.Surface, debug bool) (player.GraphicsContext, error)
	DestroyContext(ctx player.GraphicsContext)
}

// AudioProvider creates audio contexts on the worker thread.
type AudioProvider interface {
	CreateContext(device player.Device) (player.AudioContext, error)
	DestroyContext(ctx player.AudioContext)
}

// ScriptEngine runs the script against a shared runtime until it finishes.
type ScriptEngine interface {
	Execute(ctx context.Context, rt *shared.Runtime) error
}

// RuntimeFactory builds the shared runtime. shared.New is the default.
type RuntimeFactory func(ctx context.Context, env shared.Env) (*shared.Runtime, error)

// PumpStopper is the part of the event pump the worker may call.
type PumpStopper interface {
	RequestTerminate()
}

// Stage names a worker state.
type Stage string

const (
	StageInitGraphics Stage = "init_graphics"
	StageInitAudio    Stage = "init_audio"
	StageInitRuntime  Stage = "init_runtime"
	StageRunning      Stage = "running"
	StageTeardown     Stage = "teardown"
	StageDone         Stage = "done"
)

var tracer = otel.Tracer("github.com/wippyai/wasm-player/lifecycle")

// Worker drives one worker run: context acquisition, script execution and
// teardown.
type Worker struct {
	Graphics   GraphicsProvider
	Audio      AudioProvider
	Engine     ScriptEngine
	NewRuntime RuntimeFactory
	Pump       PumpStopper
	Metrics    *metrics.Collector
}

// Handle refers to a started worker.
type Handle struct {
	runID string
	done  chan struct{}
}

// RunID identifies the worker run in logs.
func (h *Handle) RunID() string {
	return h.runID
}

// Done is closed when the worker thread has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Join waits for the worker thread to finish.
func (h *Handle) Join() {
	<-h.done
}

// Start runs the worker on its own locked OS thread.
func (w *Worker) Start(ctx context.Context, tc *ThreadContext) *Handle {
	h := &Handle{runID: uuid.NewString(), done: make(chan struct{})}
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(h.done)
		w.Run(ctx, tc, h.runID)
	}()
	return h
}

// run is the state of one worker run.
type run struct {
	w     *Worker
	tc    *ThreadContext
	log   *zap.Logger
	stage Stage

	gfx player.GraphicsContext
	sfx player.AudioContext
	rt  *shared.Runtime
}

// Run executes the worker on the calling goroutine. It never panics.
func (w *Worker) Run(ctx context.Context, tc *ThreadContext, runID string) {
	ctx, span := tracer.Start(ctx, "worker.run",
		trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	r := &run{
		w:   w,
		tc:  tc,
		log: Logger().With(zap.String("run_id", runID)),
	}

	func() {
		defer r.recover(span)
		r.start(ctx)
	}()
	r.teardown(ctx)

	if msg := tc.ErrorMessage.Get(); msg != "" {
		span.SetStatus(codes.Error, msg)
	}
	r.enter(StageDone)
}

func (r *run) enter(stage Stage) {
	r.stage = stage
	r.log.Debug("worker stage", zap.String("stage", string(stage)))
}

// fail stores msg for the primary thread. The first message wins.
func (r *run) fail(err error, msg string) {
	r.tc.ErrorMessage.Set(msg)
	r.log.Error("worker failed",
		zap.String("stage", string(r.stage)),
		zap.Error(err))
}

func (r *run) recover(span trace.Span) {
	v := recover()
	if v == nil {
		return
	}
	err := errors.Panic(phaseOf(r.stage), v)
	span.RecordError(err)
	r.fail(err, errors.Reason(err))
}

func (r *run) start(ctx context.Context) {
	tc := r.tc
	cfg := tc.Config()

	r.enter(StageInitGraphics)
	err := r.traced(ctx, func(context.Context) (err error) {
		r.gfx, err = r.w.Graphics.CreateContext(tc.Window(), cfg.Graphics.Debug)
		return err
	})
	if err != nil {
		r.gfx = nil
		r.w.Metrics.RecordWorkerFailure("graphics")
		r.fail(err, "Error creating context: "+errors.Reason(err))
		return
	}
	r.gfx.SetSwapInterval(tc.SwapInterval())

	r.enter(StageInitAudio)
	err = r.traced(ctx, func(context.Context) (err error) {
		r.sfx, err = r.w.Audio.CreateContext(tc.Device())
		return err
	})
	if err != nil {
		r.sfx = nil
		r.w.Metrics.RecordWorkerFailure("audio")
		r.fail(err, "Error creating audio context: "+errors.Reason(err))
		return
	}
	r.sfx.SetVolume(cfg.Audio.Volume)

	r.enter(StageInitRuntime)
	newRuntime := r.w.NewRuntime
	if newRuntime == nil {
		newRuntime = shared.New
	}
	err = r.traced(ctx, func(ctx context.Context) (err error) {
		r.rt, err = newRuntime(ctx, shared.Env{
			Graphics:   r.gfx,
			Audio:      r.sfx,
			Config:     cfg,
			Stop:       &tc.TerminationRequested,
			WindowSize: &tc.WindowSize,
			Bindings:   &tc.Bindings,
			Keys:       &tc.Keys,
		})
		return err
	})
	if err != nil {
		r.rt = nil
		r.w.Metrics.RecordWorkerFailure("runtime")
		r.fail(err, errors.Reason(err))
		return
	}

	r.enter(StageRunning)
	start := time.Now()
	err = r.traced(ctx, func(ctx context.Context) error {
		return r.w.Engine.Execute(ctx, r.rt)
	})
	if err != nil {
		r.w.Metrics.RecordScriptError()
		r.fail(err, errors.Reason(err))
		return
	}
	r.log.Info("script finished", zap.Duration("elapsed", time.Since(start)))
}

// traced runs fn inside a span named after the current stage.
func (r *run) traced(ctx context.Context, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, string(r.stage))
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errors.Reason(err))
	}
	return err
}

func phaseOf(stage Stage) errors.Phase {
	switch stage {
	case StageInitGraphics:
		return errors.PhaseGraphics
	case StageInitAudio:
		return errors.PhaseAudio
	case StageInitRuntime:
		return errors.PhaseRuntime
	}
	return errors.PhaseScript
}

// teardown acknowledges termination, stops the pump and releases what was
// acquired in reverse order.
func (r *run) teardown(ctx context.Context) {
	r.enter(StageTeardown)

	r.tc.TerminationAcknowledged.Set()
	if r.w.Pump != nil {
		r.w.Pump.RequestTerminate()
	}

	release := func(what string, fn func()) {
		defer func() {
			if v := recover(); v != nil {
				r.log.Error("release panicked", zap.String("what", what), zap.Any("panic", v))
			}
		}()
		fn()
	}

	if r.rt != nil {
		release("shared runtime", func() {
			if err := r.rt.Teardown(ctx); err != nil {
				r.log.Warn("shared runtime teardown", zap.Error(err))
			}
		})
	}
	if r.sfx != nil {
		release("audio context", func() { r.w.Audio.DestroyContext(r.sfx) })
	}
	if r.gfx != nil {
		release("graphics context", func() { r.w.Graphics.DestroyContext(r.gfx) })
	}
	r.log.Debug("worker released contexts",
		zap.Bool("graphics", r.gfx != nil),
		zap.Bool("audio", r.sfx != nil),
		zap.Bool("runtime", r.rt != nil))
}
