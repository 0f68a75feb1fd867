package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.ObserveIteration(1, 200*time.Millisecond)
	m.ObserveIteration(2, 300*time.Millisecond)
	m.ObserveFault("CollaboratorFault", 50*time.Millisecond)
	m.ObserveMirrorError()

	if got := testutil.ToFloat64(m.Iterations); got != 2 {
		t.Errorf("survey_iterations_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Sequence); got != 2 {
		t.Errorf("survey_sequence = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Faults.WithLabelValues("CollaboratorFault")); got != 1 {
		t.Errorf("survey_faults_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.MirrorErrors); got != 1 {
		t.Errorf("survey_mirror_errors_total = %v, want 1", got)
	}

	want := `
# HELP survey_iteration_duration_seconds Time spent collecting, capturing and recording one iteration, excluding the sleep.
# TYPE survey_iteration_duration_seconds histogram
survey_iteration_duration_seconds_bucket{le="0.05"} 1
survey_iteration_duration_seconds_bucket{le="0.1"} 1
survey_iteration_duration_seconds_bucket{le="0.25"} 2
survey_iteration_duration_seconds_bucket{le="0.5"} 3
survey_iteration_duration_seconds_bucket{le="1"} 3
survey_iteration_duration_seconds_bucket{le="2"} 3
survey_iteration_duration_seconds_bucket{le="5"} 3
survey_iteration_duration_seconds_bucket{le="10"} 3
survey_iteration_duration_seconds_bucket{le="15"} 3
survey_iteration_duration_seconds_bucket{le="+Inf"} 3
survey_iteration_duration_seconds_sum 0.55
survey_iteration_duration_seconds_count 3
`
	if err = testutil.GatherAndCompare(reg, strings.NewReader(want), "survey_iteration_duration_seconds"); err != nil {
		t.Error(err)
	}
}

func TestMetricsNil(t *testing.T) {
	var m *Metrics

	m.ObserveIteration(1, time.Second)
	m.ObserveFault("PersistenceFault", time.Second)
	m.ObserveMirrorError()

	if err := m.Flush(); err != nil {
		t.Fatalf("Flush on nil metrics: %v", err)
	}
}

func TestMetricsReuseRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	second, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics second time: %v", err)
	}

	first.ObserveIteration(7, time.Second)
	if got := testutil.ToFloat64(second.Sequence); got != 7 {
		t.Fatalf("survey_sequence via second instance = %v, want 7", got)
	}
}

func TestMetricsFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.prom")

	m, err := NewMetrics(prometheus.NewRegistry(), WithTextfile(path))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.ObserveIteration(3, time.Second)

	if err = m.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	for _, want := range []string{"survey_iterations_total 1", "survey_sequence 3"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile is missing %q:\n%s", want, data)
		}
	}
}
