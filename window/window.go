// Package window implements the terminal window surface and the event pump
// that runs on the primary thread.
package window

import (
	"os"
	"sync"

	"golang.org/x/term"

	player "github.com/wippyai/wasm-player"
	"github.com/wippyai/wasm-player/config"
	"github.com/wippyai/wasm-player/errors"
	"github.com/wippyai/wasm-player/signal"
)

// Window is a terminal-backed player.Surface. Frames presented by the worker
// land in an overwrite-latest slot that the pump renders on each tick.
type Window struct {
	mu        sync.Mutex
	title     string
	size      player.Size
	attached  bool
	destroyed bool
	headless  bool
	resizable bool
	frames    signal.Slot[player.Frame]
}

// New creates the window. Interactive windows take their initial size from
// the controlling terminal when there is one.
func New(cfg config.WindowConfig) (*Window, error) {
	size := player.Size{Width: cfg.Width, Height: cfg.Height}
	headless := cfg.Headless

	if !headless {
		fd := int(os.Stdout.Fd())
		if !term.IsTerminal(fd) {
			headless = true
		} else if w, h, err := term.GetSize(fd); err == nil && w > 0 && h > 0 {
			size = player.Size{Width: w, Height: h}
		}
	}

	if size.Empty() {
		return nil, errors.New(errors.PhaseBoot, errors.KindInvalidInput).
			Detail("window size %dx%d has no drawable area", size.Width, size.Height).
			Build()
	}

	title := cfg.Title
	if title == "" {
		title = "wasm-player"
	}

	return &Window{title: title, size: size, headless: headless, resizable: cfg.Resizable}, nil
}

// Title returns the window title.
func (w *Window) Title() string {
	return w.title
}

// Size returns the current size.
func (w *Window) Size() player.Size {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Headless reports whether the window has no terminal behind it.
func (w *Window) Headless() bool {
	return w.headless
}

// Resizable reports whether terminal resizes change the window size.
// A fixed window keeps the size it was created with.
func (w *Window) Resizable() bool {
	return w.resizable
}

// Resize records a new size. Called by the pump.
func (w *Window) Resize(size player.Size) {
	w.mu.Lock()
	w.size = size
	w.mu.Unlock()
}

// Attach binds a graphics context.
func (w *Window) Attach() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return errors.Closed(errors.PhaseGraphics, "window")
	}
	if w.attached {
		return errors.InvalidInput(errors.PhaseGraphics, "window already has a graphics context")
	}
	w.attached = true
	return nil
}

// Detach unbinds the graphics context.
func (w *Window) Detach() {
	w.mu.Lock()
	w.attached = false
	w.mu.Unlock()
}

// Attached reports whether a graphics context is bound.
func (w *Window) Attached() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attached
}

// Present publishes frame, replacing any frame not yet rendered.
func (w *Window) Present(frame player.Frame) {
	w.frames.Post(frame)
}

// Frame takes the latest presented frame, if a new one arrived.
func (w *Window) Frame() (player.Frame, bool) {
	return w.frames.Poll()
}

// Destroy releases the window. Later attaches fail.
func (w *Window) Destroy() {
	w.mu.Lock()
	w.destroyed = true
	w.attached = false
	w.mu.Unlock()
	w.frames.Poll()
}
