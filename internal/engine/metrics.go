package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Traffic: решения по декларациям
	Decisions *prometheus.CounterVec

	// Latency: длительность вызова оракула
	OracleDuration prometheus.Histogram

	// Errors: отказы оракула (создание прервано)
	OracleFailures prometheus.Counter

	// Audit: заполненность буфера журнала решений (backpressure)
	TrailBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - без регистратора метрики копятся в локальный реестр
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		Decisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "aigov_decisions_total",
			Help: "Total number of governance decisions.",
		}, []string{"action", "status", "source"}),

		OracleDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "aigov_oracle_duration_seconds",
			Help:    "Histogram of risk oracle call latencies.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}),

		OracleFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "aigov_oracle_failures_total",
			Help: "Total number of failed risk oracle calls.",
		}),

		TrailBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "aigov_decision_trail_buffer_utilization",
			Help: "Current number of events in decision trail buffer.",
		}),
	}
}
