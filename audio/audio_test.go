package audio

import (
	"bytes"
	"testing"

	"github.com/wippyai/wasm-player/errors"
)

func TestOpen(t *testing.T) {
	var buf bytes.Buffer

	tests := []struct {
		name    string
		device  string
		want    string
		wantErr bool
	}{
		{"bell", DeviceBell, DeviceBell, false},
		{"null", DeviceNull, DeviceNull, false},
		{"empty defaults to null", "", DeviceNull, false},
		{"unknown", "alsa", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, err := Open(tt.device, &buf)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if dev.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", dev.Name(), tt.want)
			}
		})
	}

	if _, err := Open(DeviceBell, nil); err == nil {
		t.Error("bell without output should fail")
	}
}

func TestContext_Beep(t *testing.T) {
	var buf bytes.Buffer
	dev, err := Open(DeviceBell, &buf)
	if err != nil {
		t.Fatal(err)
	}

	p := NewProvider()
	ac, err := p.CreateContext(dev)
	if err != nil {
		t.Fatal(err)
	}
	if !dev.Attached() {
		t.Fatal("device should be attached")
	}

	if err := ac.Beep(); err != nil {
		t.Fatal(err)
	}
	ac.SetVolume(0)
	if err := ac.Beep(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\a" {
		t.Errorf("output = %q, want one bell", buf.String())
	}

	p.DestroyContext(ac)
	if dev.Attached() {
		t.Fatal("device should be detached")
	}
	if err := ac.Beep(); !errors.IsKind(err, errors.KindClosed) {
		t.Errorf("Beep after destroy = %v", err)
	}
	p.DestroyContext(ac)
}

func TestContext_SingleBinding(t *testing.T) {
	dev, _ := Open(DeviceNull, nil)
	p := NewProvider()

	ac, err := p.CreateContext(dev)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.CreateContext(dev); err == nil {
		t.Fatal("second context on one device should fail")
	}
	p.DestroyContext(ac)
	if _, err := p.CreateContext(dev); err != nil {
		t.Fatalf("rebinding after destroy: %v", err)
	}
}

func TestContext_ClosedDevice(t *testing.T) {
	dev, _ := Open(DeviceNull, nil)
	dev.Close()

	_, err := NewProvider().CreateContext(dev)
	if !errors.IsKind(err, errors.KindContextCreation) {
		t.Fatalf("err = %v", err)
	}
	if got := errors.Reason(err); got != "bind device null: audio device is closed" {
		t.Errorf("Reason = %q", got)
	}
}

func TestSetVolume_Clamps(t *testing.T) {
	c := &Context{}
	tests := []struct{ in, want float64 }{
		{-1, 0}, {0.5, 0.5}, {3, 1},
	}
	for _, tt := range tests {
		c.SetVolume(tt.in)
		if c.Volume() != tt.want {
			t.Errorf("SetVolume(%v) -> %v, want %v", tt.in, c.Volume(), tt.want)
		}
	}
}
