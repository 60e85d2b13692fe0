package lifecycle

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-player/config"
	"github.com/wippyai/wasm-player/errors"
	"github.com/wippyai/wasm-player/metrics"
)

// ForcedQuitMessage is shown when the worker does not acknowledge in time.
const ForcedQuitMessage = "The script seems to be stuck and wasm-player will now force quit"

// Notifier shows operator-visible messages. ShowBlockingMessage returns
// after the user dismisses the message, or at once when there is no user.
type Notifier interface {
	ShowBlockingMessage(title, message string)
}

// Termination configures the handshake.
type Termination struct {
	PollInterval time.Duration
	Attempts     int
	Metrics      *metrics.Collector
}

// DefaultTermination waits up to 10s: 1000 attempts of 10ms.
func DefaultTermination() Termination {
	return Termination{PollInterval: config.DefaultPollInterval, Attempts: config.DefaultAttempts}
}

// TerminationFromConfig builds the handshake settings from cfg.
func TerminationFromConfig(cfg config.TerminationConfig, m *metrics.Collector) Termination {
	return Termination{PollInterval: cfg.PollInterval, Attempts: cfg.Attempts, Metrics: m}
}

// Budget is the longest the primary thread waits for an acknowledgement.
func (t Termination) Budget() time.Duration {
	return t.PollInterval * time.Duration(t.Attempts)
}

// Outcome reports how the handshake ended.
type Outcome struct {
	// Acknowledged is false when the worker was abandoned.
	Acknowledged bool
	// Elapsed is the time spent waiting for the acknowledgement.
	Elapsed time.Duration
	// ErrorMessage is the worker's error message, if any.
	ErrorMessage string
}

// Terminate runs the termination handshake on the primary thread. It
// requests termination, waits up to the budget for the worker to
// acknowledge, then joins the worker or abandons it with a forced-quit
// warning. A worker error message is shown on either path.
func Terminate(tc *ThreadContext, h *Handle, n Notifier, t Termination) Outcome {
	tc.TerminationRequested.Set()

	budget := t.Budget()
	start := time.Now()
	acked := tc.TerminationAcknowledged.WaitTimeout(budget)
	out := Outcome{Acknowledged: acked, Elapsed: time.Since(start)}

	title := tc.Title()
	log := Logger()
	if h != nil {
		log = log.With(zap.String("run_id", h.RunID()))
	}

	if acked {
		log.Info(fmt.Sprintf("worker acknowledged after %d ms", out.Elapsed.Milliseconds()),
			zap.Duration("elapsed", out.Elapsed))
		t.Metrics.ObserveTerminationAck(out.Elapsed)
		if h != nil {
			h.Join()
		}
	} else {
		log.Warn("abandoning worker", zap.Error(errors.HandshakeTimeout(budget)))
		t.Metrics.RecordForcedQuit()
		n.ShowBlockingMessage(title, ForcedQuitMessage)
	}

	if msg := tc.ErrorMessage.Get(); msg != "" {
		out.ErrorMessage = msg
		log.Error("worker reported an error", zap.String("error", msg))
		n.ShowBlockingMessage(title, msg)
	}
	return out
}
