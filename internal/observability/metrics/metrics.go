package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "orch_console"

	// RequestsMetricName is the fully qualified name of the orchestration call counter.
	RequestsMetricName = "orch_console_orch_requests_total"
	// LatencyMetricName is the fully qualified name of the orchestration latency histogram.
	LatencyMetricName = "orch_console_orch_request_latency_seconds"
)

// OrchMetrics exposes counters/histograms for orchestration API calls.
type OrchMetrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	turnsTotal     *prometheus.CounterVec
	uploadFiles    *prometheus.CounterVec
}

func NewOrchMetrics(reg prometheus.Registerer) *OrchMetrics {
	m := &OrchMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orch",
			Name:      "requests_total",
			Help:      "Total orchestration API calls by request kind and outcome",
		}, []string{"kind", "outcome"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "orch",
			Name:      "request_latency_seconds",
			Help:      "Latency of orchestration API calls",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 240},
		}, []string{"kind", "outcome"}),
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "turns_total",
			Help:      "Conversation turns appended by mode and role",
		}, []string{"mode", "role"}),
		uploadFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "upload_files_total",
			Help:      "Files reported by the upload flow by processing result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.turnsTotal, m.uploadFiles)
	return m
}

// ObserveRequest records one orchestration call.
func (m *OrchMetrics) ObserveRequest(kind, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(kind, outcome).Inc()
	m.requestLatency.WithLabelValues(kind, outcome).Observe(seconds)
}

func (m *OrchMetrics) ObserveTurn(mode, role string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(mode, role).Inc()
}

func (m *OrchMetrics) ObserveUpload(total, successful int) {
	if m == nil {
		return
	}
	if successful < 0 {
		successful = 0
	}
	failed := total - successful
	if failed < 0 {
		failed = 0
	}
	m.uploadFiles.WithLabelValues("success").Add(float64(successful))
	m.uploadFiles.WithLabelValues("failed").Add(float64(failed))
}
