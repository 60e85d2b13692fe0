package player

// Size is a surface extent measured in character cells.
type Size struct {
	Width  int
	Height int
}

// Empty reports whether either dimension is zero or negative.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Frame is one presented image. Seq increases with every Present call of the
// graphics context that produced it.
type Frame struct {
	Text string
	Seq  uint64
}

// Surface is the window handle a graphics context binds to.
// It is created and owned by the primary thread.
type Surface interface {
	Title() string
	Size() Size

	// Attach binds a graphics context to the surface.
	// At most one context may be attached at a time.
	Attach() error
	Detach()

	// Present publishes a finished frame. Safe to call from the worker thread.
	Present(frame Frame)
}

// Device is the audio output handle an audio context binds to.
// It is opened and closed by the primary thread.
type Device interface {
	Name() string

	// Attach binds an audio context to the device.
	// At most one context may be attached at a time.
	Attach() error
	Detach()

	// Write emits raw output on the device.
	Write(p []byte) (int, error)
}

// GraphicsContext is the worker-owned drawing context bound to a Surface.
type GraphicsContext interface {
	Size() Size
	Draw(text string)
	Present() error

	// SetSwapInterval sets how many refresh periods Present waits for.
	// Zero presents immediately.
	SetSwapInterval(interval int)
}

// AudioContext is the worker-owned audio context bound to a Device.
type AudioContext interface {
	Beep() error
	SetVolume(volume float64)
	Volume() float64
}
