// Package metrics exposes verdict counters and run durations through a
// Prometheus registry that can be dumped to a node-exporter textfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ringjudge/internal/interactor"
)

// Recorder holds the judge metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal    *prometheus.CounterVec
	runSeconds   *prometheus.HistogramVec
	successRatio *prometheus.GaugeVec
}

// NewRecorder builds a Recorder with its metrics registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ringjudge_runs_total",
			Help: "Judged runs by candidate and verdict reason",
		}, []string{"algo", "reason"}),
		runSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ringjudge_run_seconds",
			Help:    "Wall-clock duration of one judged run",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"algo"}),
		successRatio: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ringjudge_last_suite_success_ratio",
			Help: "Fraction of successful runs in the most recent suite",
		}, []string{"algo"}),
	}
}

// Observe counts one outcome.
func (r *Recorder) Observe(algo string, o interactor.Outcome) {
	r.runsTotal.WithLabelValues(algo, string(o.Reason)).Inc()
	r.runSeconds.WithLabelValues(algo).Observe(o.Runtime.Seconds())
}

// SuiteFinished publishes the success ratio of a completed suite.
func (r *Recorder) SuiteFinished(algo string, successes, total int) {
	ratio := 0.0
	if total > 0 {
		ratio = float64(successes) / float64(total)
	}
	r.successRatio.WithLabelValues(algo).Set(ratio)
}

// Registry returns the gatherer backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes every ringjudge metric in text exposition format,
// atomically replacing path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
