// Package metrics exposes Prometheus metrics for runs, scheduler ticks and continue signals.
//
// All Collector methods are safe on a nil receiver so components can record unconditionally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "prn"

// Collector owns the metric vectors for one registry.
type Collector struct {
	runsStarted     prometheus.Counter
	runsRejected    *prometheus.CounterVec
	runOutcomes     *prometheus.CounterVec
	runDuration     prometheus.Histogram
	runActive       prometheus.Gauge
	outputLines     *prometheus.CounterVec
	ticks           prometheus.Counter
	tickFailures    prometheus.Counter
	nextRun         prometheus.Gauge
	continueSignals *prometheus.CounterVec
}

// NewCollector registers the metrics with the default registry.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry registers the metrics with registry.
func NewCollectorWithRegistry(registry prometheus.Registerer) *Collector {
	c := &Collector{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Child processes spawned",
		}),
		runsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_rejected_total",
			Help:      "Start requests rejected before spawning, by reason",
		}, []string{"reason"}),
		runOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Finished runs by outcome (completed, cancelled, failed)",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time from spawn to outcome",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		runActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_active",
			Help:      "1 while a child process is running",
		}),
		outputLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_lines_total",
			Help:      "Output lines delivered, by stream",
		}, []string{"stream"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_ticks_total",
			Help:      "Scheduler action invocations",
		}),
		tickFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_action_failures_total",
			Help:      "Scheduler actions that returned an error or panicked",
		}),
		nextRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_next_run_timestamp_seconds",
			Help:      "Unix time of the next scheduled tick, 0 when disabled",
		}),
		continueSignals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "continue_signals_total",
			Help:      "Continue signal requests, by result",
		}, []string{"result"}),
	}

	registry.MustRegister(
		c.runsStarted,
		c.runsRejected,
		c.runOutcomes,
		c.runDuration,
		c.runActive,
		c.outputLines,
		c.ticks,
		c.tickFailures,
		c.nextRun,
		c.continueSignals,
	)
	return c
}

func (c *Collector) RunStarted() {
	if c == nil {
		return
	}
	c.runsStarted.Inc()
	c.runActive.Set(1)
}

func (c *Collector) RunRejected(reason string) {
	if c == nil {
		return
	}
	c.runsRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) RunFinished(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.runOutcomes.WithLabelValues(outcome).Inc()
	c.runDuration.Observe(d.Seconds())
	c.runActive.Set(0)
}

func (c *Collector) OutputLine(stream string) {
	if c == nil {
		return
	}
	c.outputLines.WithLabelValues(stream).Inc()
}

func (c *Collector) Tick(failed bool) {
	if c == nil {
		return
	}
	c.ticks.Inc()
	if failed {
		c.tickFailures.Inc()
	}
}

// SetNextRun records the next tick; the zero time clears it.
func (c *Collector) SetNextRun(t time.Time) {
	if c == nil {
		return
	}
	if t.IsZero() {
		c.nextRun.Set(0)
		return
	}
	c.nextRun.Set(float64(t.Unix()))
}

func (c *Collector) ContinueSignal(result string) {
	if c == nil {
		return
	}
	c.continueSignals.WithLabelValues(result).Inc()
}
