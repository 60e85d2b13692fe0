package lifecycle

import (
	player "github.com/wippyai/wasm-player"
	"github.com/wippyai/wasm-player/config"
	"github.com/wippyai/wasm-player/input"
	"github.com/wippyai/wasm-player/signal"
)

// ThreadContext is the state shared by the primary and worker threads.
// It is created by the primary thread before the worker starts and is
// passed to both by reference.
type ThreadContext struct {
	// TerminationRequested is set by the primary thread when the pump exits.
	TerminationRequested signal.Latch
	// TerminationAcknowledged is set once by the worker when it stops,
	// whether after a controlled shutdown or an init failure.
	TerminationAcknowledged signal.Latch
	// ErrorMessage is written by the worker before it acknowledges and read
	// by the primary thread after the handshake.
	ErrorMessage signal.Message

	WindowSize signal.Slot[player.Size]
	Bindings   signal.Slot[*input.Bindings]
	Keys       signal.Slot[input.KeyEvent]

	config      config.Config
	window      player.Surface
	device      player.Device
	refreshRate int
}

// NewThreadContext snapshots cfg and records the primary thread's handles.
func NewThreadContext(cfg *config.Config, window player.Surface, device player.Device, refreshRate int) *ThreadContext {
	tc := &ThreadContext{
		window:      window,
		device:      device,
		refreshRate: refreshRate,
	}
	if cfg != nil {
		tc.config = *cfg
	}
	return tc
}

// Config returns the configuration snapshot.
func (tc *ThreadContext) Config() config.Config {
	return tc.config
}

// Window returns the window surface.
func (tc *ThreadContext) Window() player.Surface {
	return tc.window
}

// Device returns the audio device.
func (tc *ThreadContext) Device() player.Device {
	return tc.device
}

// Title is the window title used for operator messages.
func (tc *ThreadContext) Title() string {
	if tc.window == nil {
		return tc.config.Window.Title
	}
	return tc.window.Title()
}

// RefreshRate returns the display refresh rate in Hz, or 0 when unknown.
func (tc *ThreadContext) RefreshRate() int {
	return tc.refreshRate
}

// SwapInterval is the graphics swap interval implied by the configuration:
// one refresh period when vsync is on, otherwise immediate.
func (tc *ThreadContext) SwapInterval() int {
	cfg := tc.config
	cfg.Graphics.RefreshRate = tc.refreshRate
	if cfg.VSyncEnabled() {
		return 1
	}
	return 0
}
