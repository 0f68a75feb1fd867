package observability

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors describing an acquisition run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer
	textfile string

	Iterations        prometheus.Counter
	Faults            *prometheus.CounterVec
	IterationDuration prometheus.Histogram
	Sequence          prometheus.Gauge
	MirrorErrors      prometheus.Counter
}

// WithTextfile makes Flush write the metrics to path in the node exporter
// textfile collector format
func WithTextfile(path string) func(*Metrics) {
	return func(m *Metrics) {
		m.textfile = path
	}
}

// NewMetrics registers the acquisition metrics against reg, defaulting to the
// global Prometheus registry when nil
func NewMetrics(reg prometheus.Registerer, options ...func(*Metrics)) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	iterations, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "survey_iterations_total",
		Help: "Number of iterations which produced a record and an image.",
	}))
	if err != nil {
		return nil, err
	}

	faults, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "survey_faults_total",
		Help: "Number of iterations abandoned because of a fault, labeled by fault kind.",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "survey_iteration_duration_seconds",
		Help:    "Time spent collecting, capturing and recording one iteration, excluding the sleep.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
	}))
	if err != nil {
		return nil, err
	}

	sequence, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "survey_sequence",
		Help: "Sequence number of the last recorded sample.",
	}))
	if err != nil {
		return nil, err
	}

	mirrorErrors, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "survey_mirror_errors_total",
		Help: "Number of samples the secondary store failed to record.",
	}))
	if err != nil {
		return nil, err
	}

	m := Metrics{
		gatherer:          gatherer,
		Iterations:        iterations,
		Faults:            faults,
		IterationDuration: duration,
		Sequence:          sequence,
		MirrorErrors:      mirrorErrors,
	}

	for _, option := range options {
		option(&m)
	}

	return &m, nil
}

// ObserveIteration records a successful iteration
func (m *Metrics) ObserveIteration(sequence uint64, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.Iterations.Inc()
	m.Sequence.Set(float64(sequence))
	m.IterationDuration.Observe(elapsed.Seconds())
}

// ObserveFault records an abandoned iteration
func (m *Metrics) ObserveFault(kind string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.Faults.WithLabelValues(kind).Inc()
	m.IterationDuration.Observe(elapsed.Seconds())
}

// ObserveMirrorError records a failed write to the secondary store
func (m *Metrics) ObserveMirrorError() {
	if m == nil {
		return
	}

	m.MirrorErrors.Inc()
}

// Flush writes the current metric values to the textfile, if one is configured
func (m *Metrics) Flush() error {
	if m == nil || m.textfile == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(m.textfile, m.gatherer); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// register adds c to reg, returning the already registered collector of the
// same type when there is one
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return c, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		return c, err
	}
	return c, nil
}
