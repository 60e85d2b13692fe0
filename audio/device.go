// Package audio implements the output device opened by the primary thread
// and the worker-side audio context bound to it.
//
// The player's only sound is the terminal bell, so the "bell" device writes
// BEL to its sink and the "null" device discards everything.
package audio

import (
	"io"
	"sync"

	"github.com/wippyai/wasm-player/errors"
)

// Device names accepted by Open.
const (
	DeviceBell = "bell"
	DeviceNull = "null"
)

// Device is an opened audio output.
type Device struct {
	mu       sync.Mutex
	name     string
	sink     io.Writer
	attached bool
	closed   bool
}

// Open opens the named device. The bell device writes to sink.
func Open(name string, sink io.Writer) (*Device, error) {
	switch name {
	case DeviceBell:
		if sink == nil {
			return nil, errors.InvalidInput(errors.PhaseBoot, "bell device needs an output")
		}
	case DeviceNull, "":
		name = DeviceNull
		sink = io.Discard
	default:
		return nil, errors.NotFound(errors.PhaseBoot, "audio device", name)
	}
	return &Device{name: name, sink: sink}, nil
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.name
}

// Attach binds an audio context to the device.
func (d *Device) Attach() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.Closed(errors.PhaseAudio, "audio device")
	}
	if d.attached {
		return errors.InvalidInput(errors.PhaseAudio, "audio device already has a context")
	}
	d.attached = true
	return nil
}

// Detach unbinds the current context.
func (d *Device) Detach() {
	d.mu.Lock()
	d.attached = false
	d.mu.Unlock()
}

// Attached reports whether a context is bound.
func (d *Device) Attached() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attached
}

// Write emits p on the device sink.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, errors.Closed(errors.PhaseAudio, "audio device")
	}
	return d.sink.Write(p)
}

// Close closes the device. Later writes and attaches fail.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.attached = false
	return nil
}
