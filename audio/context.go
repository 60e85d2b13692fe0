package audio

import (
	"sync"

	player "github.com/wippyai/wasm-player"
	"github.com/wippyai/wasm-player/errors"
)

var bell = []byte{'\a'}

// Provider creates and destroys audio contexts.
type Provider struct{}

// NewProvider returns an audio context provider.
func NewProvider() *Provider {
	return &Provider{}
}

// CreateContext binds a new context to dev at full volume.
func (p *Provider) CreateContext(dev player.Device) (player.AudioContext, error) {
	if dev == nil {
		return nil, errors.ContextCreation(errors.PhaseAudio, "no audio device", nil)
	}
	if err := dev.Attach(); err != nil {
		return nil, errors.ContextCreation(errors.PhaseAudio, "bind device "+dev.Name(), err)
	}
	return &Context{dev: dev, volume: 1}, nil
}

// DestroyContext releases c and unbinds its device. Safe to call twice.
func (p *Provider) DestroyContext(ac player.AudioContext) {
	c, ok := ac.(*Context)
	if !ok || c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.dev.Detach()
}

// Context is an audio context bound to one device.
type Context struct {
	mu     sync.Mutex
	dev    player.Device
	volume float64
	closed bool
}

// Beep rings the device bell. Muted contexts stay silent.
func (c *Context) Beep() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.Closed(errors.PhaseAudio, "audio context")
	}
	if c.volume == 0 {
		return nil
	}
	_, err := c.dev.Write(bell)
	return err
}

// SetVolume clamps volume to [0, 1].
func (c *Context) SetVolume(volume float64) {
	switch {
	case volume < 0:
		volume = 0
	case volume > 1:
		volume = 1
	}
	c.mu.Lock()
	c.volume = volume
	c.mu.Unlock()
}

// Volume returns the current volume.
func (c *Context) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}
