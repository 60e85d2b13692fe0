// Package gfx implements the worker-side graphics context: a text back
// buffer bound to a window surface and presented as whole frames.
package gfx

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	player "github.com/wippyai/wasm-player"
	"github.com/wippyai/wasm-player/errors"
)

// Provider creates and destroys graphics contexts.
type Provider struct {
	refreshRate int
	log         *zap.Logger
	now         func() time.Time
	sleep       func(time.Duration)
}

// NewProvider returns a provider pacing presents against refreshRate Hz.
// A zero refresh rate disables pacing.
func NewProvider(refreshRate int, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		refreshRate: refreshRate,
		log:         log,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// CreateContext binds a new context to surface. The surface must not
// already carry a context and must have a drawable area.
func (p *Provider) CreateContext(surface player.Surface, debug bool) (player.GraphicsContext, error) {
	if surface == nil {
		return nil, errors.ContextCreation(errors.PhaseGraphics, "no window surface", nil)
	}
	if err := surface.Attach(); err != nil {
		return nil, errors.ContextCreation(errors.PhaseGraphics, "bind surface", err)
	}

	size := surface.Size()
	if size.Empty() {
		surface.Detach()
		return nil, errors.ContextCreation(errors.PhaseGraphics,
			"surface has no drawable area", nil)
	}

	c := &Context{
		surface: surface,
		debug:   debug,
		log:     p.log,
		now:     p.now,
		sleep:   p.sleep,
	}
	if p.refreshRate > 0 {
		c.period = time.Second / time.Duration(p.refreshRate)
	}

	if debug {
		p.log.Debug("graphics context created",
			zap.String("surface", surface.Title()),
			zap.Int("width", size.Width),
			zap.Int("height", size.Height))
	}
	return c, nil
}

// DestroyContext releases c and unbinds its surface. Safe to call twice.
func (p *Provider) DestroyContext(gc player.GraphicsContext) {
	c, ok := gc.(*Context)
	if !ok || c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.back.Reset()
	c.surface.Detach()
	if c.debug {
		c.log.Debug("graphics context destroyed", zap.Uint64("frames", c.seq))
	}
}

// Context is a graphics context bound to one surface.
type Context struct {
	mu           sync.Mutex
	surface      player.Surface
	back         strings.Builder
	seq          uint64
	swapInterval int
	period       time.Duration
	lastPresent  time.Time
	closed       bool
	debug        bool
	log          *zap.Logger
	now          func() time.Time
	sleep        func(time.Duration)
}

// Size returns the current surface size.
func (c *Context) Size() player.Size {
	return c.surface.Size()
}

// Draw appends text to the back buffer.
func (c *Context) Draw(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.back.WriteString(text)
}

// Present publishes the back buffer as the next frame and clears it.
// With a non-zero swap interval it waits until that many refresh periods
// have passed since the previous present.
func (c *Context) Present() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.Closed(errors.PhaseGraphics, "graphics context")
	}

	if wait := c.pacing(); wait > 0 {
		c.sleep(wait)
	}

	c.seq++
	frame := player.Frame{Text: c.back.String(), Seq: c.seq}
	c.back.Reset()
	c.lastPresent = c.now()
	c.surface.Present(frame)

	if c.debug {
		c.log.Debug("frame presented",
			zap.Uint64("seq", frame.Seq),
			zap.Int("bytes", len(frame.Text)))
	}
	return nil
}

func (c *Context) pacing() time.Duration {
	if c.swapInterval <= 0 || c.period == 0 || c.lastPresent.IsZero() {
		return 0
	}
	due := c.lastPresent.Add(time.Duration(c.swapInterval) * c.period)
	return due.Sub(c.now())
}

// SetSwapInterval sets the number of refresh periods between presents.
func (c *Context) SetSwapInterval(interval int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if interval < 0 {
		interval = 0
	}
	c.swapInterval = interval
}

// SwapInterval returns the configured swap interval.
func (c *Context) SwapInterval() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.swapInterval
}
