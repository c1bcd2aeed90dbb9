package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

const namespace = "deck"

// PipelineMetrics observes stages, runs, purges and the resilience layer around the LLM.
type PipelineMetrics struct {
	service string

	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	runTotal      *prometheus.CounterVec
	runDuration   prometheus.Histogram
	purgeTotal    *prometheus.CounterVec
	retryTotal    *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
}

func NewPipelineMetrics(service string, registerer prometheus.Registerer) *PipelineMetrics {
	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Total executed stages by outcome.",
		},
		[]string{"service", "stage", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Stage duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage"},
	)
	runTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total pipeline runs by status.",
		},
		[]string{"service", "status"},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	purgeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "purges_total",
			Help:      "Total project purges by status.",
		},
		[]string{"service", "status"},
	)
	retryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "retries_total",
			Help:      "Total retried calls by operation.",
		},
		[]string{"service", "operation"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_open",
			Help:      "1 while the circuit breaker of an operation is not closed.",
		},
		[]string{"service", "operation"},
	)

	registerer.MustRegister(stageTotal, stageDuration, runTotal, runDuration, purgeTotal, retryTotal, breakerState)

	return &PipelineMetrics{
		service:       service,
		stageTotal:    stageTotal,
		stageDuration: stageDuration,
		runTotal:      runTotal,
		runDuration:   runDuration,
		purgeTotal:    purgeTotal,
		retryTotal:    retryTotal,
		breakerState:  breakerState,
	}
}

func (m *PipelineMetrics) ObserveStage(result domain.StageResult) {
	m.stageTotal.WithLabelValues(m.service, string(result.Stage), string(result.Status)).Inc()
	m.stageDuration.WithLabelValues(m.service, string(result.Stage)).Observe(result.Duration.Seconds())
}

func (m *PipelineMetrics) ObserveRun(run *domain.PipelineRun) {
	if run == nil {
		return
	}
	m.runTotal.WithLabelValues(m.service, string(run.Status)).Inc()
	if !run.FinishedAt.IsZero() && run.FinishedAt.After(run.StartedAt) {
		m.runDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())
	}
}

func (m *PipelineMetrics) ObservePurge(_ string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.purgeTotal.WithLabelValues(m.service, status).Inc()
}

func (m *PipelineMetrics) ObserveRetry(operation string) {
	m.retryTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *PipelineMetrics) ObserveBreakerState(operation, state string) {
	value := 1.0
	if state == "closed" {
		value = 0
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(value)
}
