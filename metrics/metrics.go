// Package metrics exposes the player's Prometheus collectors.
//
// Methods handle a nil receiver, so a nil *Collector is a no-op when
// metrics are disabled.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector tracks worker and shutdown outcomes.
type Collector struct {
	// WorkerFailures counts worker init failures by stage.
	// Labels: stage=[graphics, audio, runtime]
	WorkerFailures *prometheus.CounterVec

	// ScriptErrors counts scripts that ended with an error.
	ScriptErrors prometheus.Counter

	// ForcedQuits counts handshakes that ran out of budget.
	ForcedQuits prometheus.Counter

	// TerminationAck tracks how long the worker took to acknowledge.
	TerminationAck prometheus.Histogram

	gatherer prometheus.Gatherer
}

// NewCollector creates the collectors and registers them with reg.
// A nil reg uses a fresh registry.
func NewCollector(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	c := &Collector{
		WorkerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "player_worker_failures_total",
				Help: "Total worker initialization failures by stage",
			},
			[]string{"stage"},
		),
		ScriptErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "player_script_errors_total",
				Help: "Total scripts that ended with an error",
			},
		),
		ForcedQuits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "player_forced_quits_total",
				Help: "Total shutdowns that abandoned an unresponsive worker",
			},
		),
		TerminationAck: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "player_termination_ack_seconds",
				Help:    "Time from termination request to worker acknowledgement",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
			},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		c.WorkerFailures,
		c.ScriptErrors,
		c.ForcedQuits,
		c.TerminationAck,
	)
	return c
}

// RecordWorkerFailure counts an init failure at stage.
func (c *Collector) RecordWorkerFailure(stage string) {
	if c == nil {
		return
	}
	c.WorkerFailures.WithLabelValues(stage).Inc()
}

// RecordScriptError counts a script error.
func (c *Collector) RecordScriptError() {
	if c == nil {
		return
	}
	c.ScriptErrors.Inc()
}

// RecordForcedQuit counts an abandoned worker.
func (c *Collector) RecordForcedQuit() {
	if c == nil {
		return
	}
	c.ForcedQuits.Inc()
}

// ObserveTerminationAck records the acknowledgement latency.
func (c *Collector) ObserveTerminationAck(d time.Duration) {
	if c == nil {
		return
	}
	c.TerminationAck.Observe(d.Seconds())
}

// Handler serves the collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
