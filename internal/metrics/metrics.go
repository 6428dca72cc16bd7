// Package metrics exposes Prometheus counters for atomic operations.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/multierr"
)

const namespace = "atomics"

// Recorder owns a private registry so that several environments can run in
// one process without colliding on the default registerer.
type Recorder struct {
	registry *prometheus.Registry
	ops      *prometheus.CounterVec
	errors   *prometheus.CounterVec
	resolves *prometheus.CounterVec
	live     prometheus.Gauge
}

// New creates a recorder with its counters registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Atomic operations dispatched to the provider.",
		}, []string{"op", "width"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Rejected atomic operations and constructions by error code.",
		}, []string{"code"}),
		resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_resolves_total",
			Help:      "Provider capability queries by width.",
		}, []string{"width"}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_objects",
			Help:      "Atomic objects and entered views not yet released.",
		}),
	}
	r.registry.MustRegister(r.ops, r.errors, r.resolves, r.live)
	return r
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveOp(op string, width int) {
	if r == nil {
		return
	}
	r.ops.WithLabelValues(op, strconv.Itoa(width)).Inc()
}

func (r *Recorder) ObserveError(code string) {
	if r == nil {
		return
	}
	r.errors.WithLabelValues(code).Inc()
}

func (r *Recorder) ObserveResolve(width int) {
	if r == nil {
		return
	}
	r.resolves.WithLabelValues(strconv.Itoa(width)).Inc()
}

// Acquired and Released track live objects.
func (r *Recorder) Acquired() {
	if r == nil {
		return
	}
	r.live.Inc()
}

func (r *Recorder) Released() {
	if r == nil {
		return
	}
	r.live.Dec()
}

// WriteText dumps every metric family in the Prometheus text format.
func (r *Recorder) WriteText(w io.Writer) error {
	if r == nil {
		return nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		_, writeErr := expfmt.MetricFamilyToText(w, mf)
		err = multierr.Append(err, writeErr)
	}
	return err
}
