package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions   prometheus.Gauge
	SessionEvents    *prometheus.CounterVec
	PhaseTransitions *prometheus.CounterVec
	AIRequests       *prometheus.CounterVec
	AIDegraded       prometheus.Gauge
	QuestionSource   *prometheus.CounterVec
	AnalysisLatency  prometheus.Histogram
	WSMessages       *prometheus.CounterVec

	// Window backs the perf endpoint with short-horizon percentiles.
	Window *LatencyWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live interview sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		PhaseTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Session phase transitions by target phase.",
		}, []string{"phase"}),
		AIRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "AI gateway request outcomes by class.",
		}, []string{"outcome"}),
		AIDegraded: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ai_degraded",
			Help:      "1 while the AI path is latched into fallback mode.",
		}),
		QuestionSource: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "question_source_total",
			Help:      "Question set provenance by source.",
		}, []string{"source"}),
		AnalysisLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_latency_ms",
			Help:      "Latency of transcript analysis in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 5000, 10000, 20000},
		}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket event messages by type.",
		}, []string{"type"}),
		Window: NewLatencyWindow(256),
	}
}

func (m *Metrics) ObserveAnalysisLatency(d time.Duration) {
	m.AnalysisLatency.Observe(float64(d.Milliseconds()))
	m.Window.Observe(StageAnalysis, d)
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
