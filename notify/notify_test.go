package notify

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestShowBlockingMessage_Interactive(t *testing.T) {
	var out bytes.Buffer
	n := NewTerminal(nil, WithIO(strings.NewReader("\n"), &out))

	n.ShowBlockingMessage("Error", "Error creating context: no surface")

	got := out.String()
	for _, want := range []string{"Error", "Error creating context: no surface", "press enter"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestShowBlockingMessage_Headless(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var out bytes.Buffer
	n := NewTerminal(zap.New(core), WithIO(blockingReader{}, &out), Headless())

	done := make(chan struct{})
	go func() {
		n.ShowBlockingMessage("Warning", "forced quit")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("headless notifier must not block")
	}

	if out.Len() != 0 {
		t.Errorf("headless notifier wrote %q", out.String())
	}
	if logs.Len() != 1 || logs.All()[0].Message != "forced quit" {
		t.Errorf("logs = %v", logs.All())
	}
}

func TestShowBlockingMessage_EOF(t *testing.T) {
	var out bytes.Buffer
	n := NewTerminal(nil, WithIO(strings.NewReader(""), &out))
	n.ShowBlockingMessage("Error", "boom")
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {}
}
