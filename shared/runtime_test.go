package shared

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero/api"

	player "github.com/wippyai/wasm-player"
	"github.com/wippyai/wasm-player/config"
	"github.com/wippyai/wasm-player/errors"
	"github.com/wippyai/wasm-player/input"
	"github.com/wippyai/wasm-player/signal"
)

type fakeGraphics struct {
	size     player.Size
	drawn    strings.Builder
	presents int
}

func (g *fakeGraphics) Size() player.Size     { return g.size }
func (g *fakeGraphics) Draw(text string)      { g.drawn.WriteString(text) }
func (g *fakeGraphics) Present() error        { g.presents++; return nil }
func (g *fakeGraphics) SetSwapInterval(_ int) {}

type fakeAudio struct{ beeps int }

func (a *fakeAudio) Beep() error         { a.beeps++; return nil }
func (a *fakeAudio) SetVolume(_ float64) {}
func (a *fakeAudio) Volume() float64     { return 1 }

func testEnv(t *testing.T) (Env, *fakeGraphics, *fakeAudio) {
	t.Helper()
	g := &fakeGraphics{size: player.Size{Width: 80, Height: 24}}
	a := &fakeAudio{}
	env := Env{
		Graphics:   g,
		Audio:      a,
		Config:     config.Config{GameFolder: t.TempDir()},
		Stop:       &signal.Latch{},
		WindowSize: &signal.Slot[player.Size]{},
		Bindings:   &signal.Slot[*input.Bindings]{},
		Keys:       &signal.Slot[input.KeyEvent]{},
	}
	return env, g, a
}

func newRuntime(t *testing.T, env Env) *Runtime {
	t.Helper()
	rt, err := New(context.Background(), env)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rt
}

func TestNew_Teardown(t *testing.T) {
	ctx := context.Background()
	env, _, _ := testEnv(t)
	rt := newRuntime(t, env)

	if rt.Closed() {
		t.Fatal("fresh runtime reports closed")
	}
	if rt.Wasm().Module(HostModuleName) == nil {
		t.Fatal("host module not instantiated")
	}
	if rt.Wasm().Module("wasi_snapshot_preview1") == nil {
		t.Fatal("wasi not instantiated")
	}

	if err := rt.Teardown(ctx); err != nil {
		t.Fatalf("Teardown: %v", err)
	}
	if !rt.Closed() {
		t.Fatal("runtime should be closed")
	}
	if err := rt.Teardown(ctx); err != nil {
		t.Fatalf("second Teardown: %v", err)
	}
}

func TestNew_DirCache(t *testing.T) {
	env, _, _ := testEnv(t)
	env.Config.Script.CacheDir = filepath.Join(t.TempDir(), "cache")
	env.Config.Script.Interpreter = true
	env.Config.Script.MemoryLimitPages = 16

	rt := newRuntime(t, env)
	if err := rt.Teardown(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestNew_Failures(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(*Env)
		reason string
	}{
		{"no graphics", func(e *Env) { e.Graphics = nil }, "initialize environment: no graphics context"},
		{"no audio", func(e *Env) { e.Audio = nil }, "initialize environment: no audio context"},
		{"bad cache dir", func(e *Env) { e.Config.Script.CacheDir = filepath.Join(blocker, "sub") }, "initialize compilation cache"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _, _ := testEnv(t)
			tt.mutate(&env)

			rt, err := New(context.Background(), env)
			if rt != nil {
				t.Fatal("failed New must not return a runtime")
			}
			if !errors.IsKind(err, errors.KindRuntimeInit) {
				t.Fatalf("err = %v", err)
			}
			if got := errors.Reason(err); !strings.HasPrefix(got, tt.reason) {
				t.Errorf("Reason = %q, want prefix %q", got, tt.reason)
			}
		})
	}
}

func TestRuntime_WindowSizeLatest(t *testing.T) {
	env, _, _ := testEnv(t)
	rt := newRuntime(t, env)
	defer rt.Teardown(context.Background())

	if got := rt.WindowSize(); got != (player.Size{Width: 80, Height: 24}) {
		t.Fatalf("initial size = %v", got)
	}

	for i := 1; i <= 10; i++ {
		env.WindowSize.Post(player.Size{Width: i, Height: i})
	}
	if got := rt.WindowSize(); got != (player.Size{Width: 10, Height: 10}) {
		t.Fatalf("size = %v, want the last post", got)
	}
	if got := rt.WindowSize(); got.Width != 10 {
		t.Fatalf("size should stick after the slot is drained, got %v", got)
	}
}

func TestRuntime_ActionPressed(t *testing.T) {
	env, _, _ := testEnv(t)
	rt := newRuntime(t, env)
	defer rt.Teardown(context.Background())

	env.Bindings.Post(input.Default())
	env.Keys.Post(input.KeyEvent{Key: "k", Action: "up", Seq: 1})

	if rt.ActionPressed("down") {
		t.Fatal("k is not down")
	}
	if !rt.ActionPressed("up") {
		t.Fatal("k should be up")
	}
	if rt.ActionPressed("up") {
		t.Fatal("press should be consumed")
	}

	env.Keys.Post(input.KeyEvent{Key: "q", Seq: 2})
	if !rt.KeyPressed("q") {
		t.Fatal("KeyPressed(q)")
	}
	if rt.KeyPressed("q") {
		t.Fatal("key should be consumed")
	}
}

func TestRuntime_ActionUsesLatestBindings(t *testing.T) {
	env, _, _ := testEnv(t)
	rt := newRuntime(t, env)
	defer rt.Teardown(context.Background())

	path := filepath.Join(t.TempDir(), "keys.toml")
	os.WriteFile(path, []byte("[actions.up]\nkeys = [\"w\"]\n\n[actions.jump]\nkeys = [\"k\"]\n"), 0o644)
	b, err := input.LoadBindings(path)
	if err != nil {
		t.Fatal(err)
	}

	env.Bindings.Post(input.Default())
	env.Bindings.Post(b)
	env.Keys.Post(input.KeyEvent{Key: "k", Action: "up", Seq: 1})

	if rt.ActionPressed("up") {
		t.Fatal("k was rebound away from up")
	}
	if !rt.ActionPressed("jump") {
		t.Fatal("k should resolve to jump under the latest bindings")
	}
}

func TestRuntime_Sprites(t *testing.T) {
	ctx := context.Background()
	env, g, _ := testEnv(t)
	os.WriteFile(filepath.Join(env.Config.GameFolder, "ship.txt"), []byte("<=>"), 0o644)

	rt := newRuntime(t, env)

	h, err := rt.Sprites().Load("ship.txt")
	if err != nil {
		t.Fatal(err)
	}
	again, _ := rt.Sprites().Load("ship.txt")
	if again != h {
		t.Fatal("sprite loads should be deduplicated")
	}
	if err := rt.DrawSprite(h); err != nil {
		t.Fatal(err)
	}
	if g.drawn.String() != "<=>" {
		t.Errorf("drawn = %q", g.drawn.String())
	}

	if _, err := rt.Sprites().Load("../escape.txt"); err == nil {
		t.Fatal("paths outside the game folder must be rejected")
	}
	if err := rt.DrawSprite(h + 100); !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("DrawSprite(bad) = %v", err)
	}

	rt.Teardown(ctx)
	if rt.Resources().Len() != 0 || rt.Sprites().Len() != 0 {
		t.Fatal("teardown should drop every resource")
	}
}

func TestHost_Functions(t *testing.T) {
	ctx := context.Background()
	env, g, a := testEnv(t)
	rt := newRuntime(t, env)
	defer rt.Teardown(ctx)

	call := func(fn api.GoModuleFunc) uint64 {
		t.Helper()
		stack := make([]uint64, 1)
		fn(ctx, nil, stack)
		return stack[0]
	}

	if call(rt.hostShouldStop) != 0 {
		t.Fatal("should_stop before request")
	}
	env.Stop.Set()
	if call(rt.hostShouldStop) != 1 {
		t.Fatal("should_stop after request")
	}

	env.WindowSize.Post(player.Size{Width: 100, Height: 50})
	call(rt.hostShouldStop)
	if w, h := call(rt.hostWindowWidth), call(rt.hostWindowHeight); w != 100 || h != 50 {
		t.Fatalf("window = %dx%d", w, h)
	}

	if call(rt.hostPresent) != 0 || g.presents != 1 {
		t.Fatal("present")
	}
	call(rt.hostBeep)
	if a.beeps != 1 {
		t.Fatal("beep")
	}
}

func TestHost_WindowSizeConsistentWithinFrame(t *testing.T) {
	ctx := context.Background()
	env, _, _ := testEnv(t)
	rt := newRuntime(t, env)
	defer rt.Teardown(ctx)

	call := func(fn api.GoModuleFunc) int32 {
		t.Helper()
		stack := make([]uint64, 1)
		fn(ctx, nil, stack)
		return api.DecodeI32(stack[0])
	}

	env.WindowSize.Post(player.Size{Width: 100, Height: 50})
	call(rt.hostShouldStop)

	w := call(rt.hostWindowWidth)
	env.WindowSize.Post(player.Size{Width: 30, Height: 10})
	h := call(rt.hostWindowHeight)
	if w != 100 || h != 50 {
		t.Fatalf("window = %dx%d, want 100x50 until the next frame boundary", w, h)
	}

	call(rt.hostPresent)
	if w, h := call(rt.hostWindowWidth), call(rt.hostWindowHeight); w != 30 || h != 10 {
		t.Fatalf("window after present = %dx%d, want 30x10", w, h)
	}
}
