package shared

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-player/resource"
)

var (
	i32  = []api.ValueType{api.ValueTypeI32}
	i32s = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
)

// hostFunc is one export of the player host module.
type hostFunc struct {
	name    string
	fn      api.GoModuleFunc
	params  []api.ValueType
	results []api.ValueType
}

func (r *Runtime) hostFuncs() []hostFunc {
	return []hostFunc{
		{"should_stop", r.hostShouldStop, nil, i32},
		{"log", r.hostLog, i32s, nil},
		{"window_width", r.hostWindowWidth, nil, i32},
		{"window_height", r.hostWindowHeight, nil, i32},
		{"draw", r.hostDraw, i32s, nil},
		{"present", r.hostPresent, nil, i32},
		{"beep", r.hostBeep, nil, nil},
		{"action_pressed", r.hostActionPressed, i32s, i32},
		{"key_pressed", r.hostKeyPressed, i32s, i32},
		{"sprite_load", r.hostSpriteLoad, i32s, i32},
		{"draw_sprite", r.hostDrawSprite, i32, i32},
		{"sprite_free", r.hostSpriteFree, i32, nil},
	}
}

func (r *Runtime) instantiateHost(ctx context.Context) (api.Module, error) {
	builder := r.wasm.NewHostModuleBuilder(HostModuleName)
	for _, f := range r.hostFuncs() {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.fn, f.params, f.results).
			Export(f.name)
	}
	return builder.Instantiate(ctx)
}

// readString reads a (ptr, len) string argument from the caller's memory.
func readString(mod api.Module, ptr, length uint64) (string, bool) {
	mem := mod.Memory()
	if mem == nil {
		return "", false
	}
	b, ok := mem.Read(api.DecodeU32(ptr), api.DecodeU32(length))
	if !ok {
		return "", false
	}
	return string(b), true
}

func boolResult(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// hostShouldStop and hostPresent mark frame boundaries, the only points
// where a posted window size is picked up. window_width and window_height
// read the same snapshot.
func (r *Runtime) hostShouldStop(_ context.Context, _ api.Module, stack []uint64) {
	r.WindowSize()
	stack[0] = boolResult(r.StopRequested())
}

func (r *Runtime) hostLog(_ context.Context, mod api.Module, stack []uint64) {
	msg, ok := readString(mod, stack[0], stack[1])
	if !ok {
		Logger().Warn("script log out of bounds")
		return
	}
	Logger().Info(msg, zap.String("source", "script"))
}

func (r *Runtime) hostWindowWidth(_ context.Context, _ api.Module, stack []uint64) {
	stack[0] = api.EncodeI32(int32(r.size.Width))
}

func (r *Runtime) hostWindowHeight(_ context.Context, _ api.Module, stack []uint64) {
	stack[0] = api.EncodeI32(int32(r.size.Height))
}

func (r *Runtime) hostDraw(_ context.Context, mod api.Module, stack []uint64) {
	text, ok := readString(mod, stack[0], stack[1])
	if !ok {
		Logger().Warn("script draw out of bounds")
		return
	}
	r.env.Graphics.Draw(text)
}

func (r *Runtime) hostPresent(_ context.Context, _ api.Module, stack []uint64) {
	defer r.WindowSize()
	if err := r.env.Graphics.Present(); err != nil {
		Logger().Warn("present failed", zap.Error(err))
		stack[0] = 1
		return
	}
	stack[0] = 0
}

func (r *Runtime) hostBeep(_ context.Context, _ api.Module, _ []uint64) {
	if err := r.env.Audio.Beep(); err != nil {
		Logger().Warn("beep failed", zap.Error(err))
	}
}

func (r *Runtime) hostActionPressed(_ context.Context, mod api.Module, stack []uint64) {
	action, ok := readString(mod, stack[0], stack[1])
	stack[0] = boolResult(ok && r.ActionPressed(action))
}

func (r *Runtime) hostKeyPressed(_ context.Context, mod api.Module, stack []uint64) {
	key, ok := readString(mod, stack[0], stack[1])
	stack[0] = boolResult(ok && r.KeyPressed(key))
}

func (r *Runtime) hostSpriteLoad(_ context.Context, mod api.Module, stack []uint64) {
	name, ok := readString(mod, stack[0], stack[1])
	if !ok {
		stack[0] = 0
		return
	}
	h, err := r.sprites.Load(name)
	if err != nil {
		Logger().Warn("sprite load failed", zap.String("name", name), zap.Error(err))
		stack[0] = 0
		return
	}
	stack[0] = uint64(h)
}

func (r *Runtime) hostDrawSprite(_ context.Context, _ api.Module, stack []uint64) {
	if err := r.DrawSprite(resource.Handle(api.DecodeU32(stack[0]))); err != nil {
		stack[0] = 1
		return
	}
	stack[0] = 0
}

func (r *Runtime) hostSpriteFree(_ context.Context, _ api.Module, stack []uint64) {
	r.resources.Remove(resource.Handle(api.DecodeU32(stack[0])))
}
