package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/voxelflow/internal/pipeline"
	"github.com/vk/voxelflow/internal/step"
)

const namespace = "voxelflow"

// Metrics holds the pipeline collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal    *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
	StepsTotal   *prometheus.CounterVec
	StepDuration *prometheus.HistogramVec
	Messages     *prometheus.CounterVec
	LastRunState *prometheus.GaugeVec
}

var (
	_ step.Observer = (*Metrics)(nil)
	_ pipeline.Hook = (*Metrics)(nil)
)

// New creates the collectors on a private registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_runs_total",
				Help:      "Pipeline phases finished, by phase and final state.",
			},
			[]string{"phase", "state"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_run_duration_seconds",
				Help:      "Duration of a pipeline phase in seconds.",
				Buckets:   []float64{.001, .01, .1, .5, 1, 5, 15, 60, 300},
			},
			[]string{"phase"},
		),
		StepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_total",
				Help:      "Step invocations, by phase, step type and outcome.",
			},
			[]string{"phase", "type", "outcome"},
		),
		StepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Duration of a single step invocation in seconds.",
				Buckets:   []float64{.0001, .001, .01, .1, .5, 1, 5, 30},
			},
			[]string{"phase", "type"},
		),
		Messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Pipeline messages emitted, by kind.",
			},
			[]string{"kind"},
		),
		LastRunState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_last_state",
				Help:      "1 for the state the last finished phase ended in, 0 otherwise.",
			},
			[]string{"state"},
		),
	}
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) OnMessage(msg step.Message) {
	m.Messages.WithLabelValues(msg.Kind.String()).Inc()
}

func (m *Metrics) OnStepDone(phase step.Phase, s step.Step, res step.Result, elapsed time.Duration) {
	outcome := "ok"
	if !res.Ok() {
		outcome = "error"
	}
	m.StepsTotal.WithLabelValues(phase.String(), s.Type(), outcome).Inc()
	m.StepDuration.WithLabelValues(phase.String(), s.Type()).Observe(elapsed.Seconds())
}

func (m *Metrics) OnRunDone(r pipeline.Result) {
	m.RunsTotal.WithLabelValues(r.Phase.String(), r.State.String()).Inc()
	m.RunDuration.WithLabelValues(r.Phase.String()).Observe(r.Duration.Seconds())
	m.LastRunState.Reset()
	m.LastRunState.WithLabelValues(r.State.String()).Set(1)
}
