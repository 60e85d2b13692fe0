package window

import (
	"testing"

	player "github.com/wippyai/wasm-player"
	"github.com/wippyai/wasm-player/config"
)

func newHeadless(t *testing.T) *Window {
	t.Helper()
	w, err := New(config.WindowConfig{Title: "test", Width: 40, Height: 10, Headless: true, Resizable: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func TestNew(t *testing.T) {
	w := newHeadless(t)
	if !w.Headless() {
		t.Error("window should be headless")
	}
	if w.Title() != "test" {
		t.Errorf("Title() = %q", w.Title())
	}
	if got := w.Size(); got != (player.Size{Width: 40, Height: 10}) {
		t.Errorf("Size() = %v", got)
	}
}

func TestNew_Failures(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.WindowConfig
	}{
		{"zero width", config.WindowConfig{Width: 0, Height: 10, Headless: true}},
		{"negative height", config.WindowConfig{Width: 10, Height: -1, Headless: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNew_DefaultTitle(t *testing.T) {
	w, err := New(config.WindowConfig{Width: 1, Height: 1, Headless: true})
	if err != nil {
		t.Fatal(err)
	}
	if w.Title() != "wasm-player" {
		t.Errorf("Title() = %q", w.Title())
	}
}

func TestWindow_Attach(t *testing.T) {
	w := newHeadless(t)

	if err := w.Attach(); err != nil {
		t.Fatal(err)
	}
	if err := w.Attach(); err == nil {
		t.Fatal("second attach should fail")
	}
	w.Detach()
	if err := w.Attach(); err != nil {
		t.Fatalf("attach after detach: %v", err)
	}

	w.Destroy()
	if w.Attached() {
		t.Fatal("destroy should detach")
	}
	if err := w.Attach(); err == nil {
		t.Fatal("attach after destroy should fail")
	}
}

func TestWindow_FrameLatestWins(t *testing.T) {
	w := newHeadless(t)

	for i := uint64(1); i <= 5; i++ {
		w.Present(player.Frame{Text: "f", Seq: i})
	}
	f, ok := w.Frame()
	if !ok || f.Seq != 5 {
		t.Fatalf("Frame() = %+v, %v", f, ok)
	}
	if _, ok := w.Frame(); ok {
		t.Fatal("frame should be consumed")
	}
}
