package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics records state transitions and attribution activity.
type WorkflowMetrics struct {
	transitions *prometheus.CounterVec
	documents   *prometheus.CounterVec
	clicks      prometheus.Counter
	sales       prometheus.Counter
	commission  prometheus.Counter
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "State transitions applied to workflow threads.",
	}, []string{"workflow", "status"})
	documents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_documents_uploaded_total",
		Help: "Documents accepted by the document gate.",
	}, []string{"thread_type", "doc_type"})
	clicks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attribution_clicks_total",
		Help: "Tracked affiliate clicks.",
	})
	sales := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attribution_sales_total",
		Help: "Attributed sales.",
	})
	commission := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attribution_commission_total",
		Help: "Commission earned across attributed sales.",
	})
	reg.MustRegister(transitions, documents, clicks, sales, commission)
	return &WorkflowMetrics{
		transitions: transitions,
		documents:   documents,
		clicks:      clicks,
		sales:       sales,
		commission:  commission,
	}
}

// IncTransition counts a thread moving into status.
func (m *WorkflowMetrics) IncTransition(workflow, status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(workflow), normalizeLabel(status)).Inc()
}

// IncDocument counts an accepted upload.
func (m *WorkflowMetrics) IncDocument(threadType, docType string) {
	if m == nil || m.documents == nil {
		return
	}
	m.documents.WithLabelValues(normalizeLabel(threadType), normalizeLabel(docType)).Inc()
}

// IncClick counts a recorded click.
func (m *WorkflowMetrics) IncClick() {
	if m == nil || m.clicks == nil {
		return
	}
	m.clicks.Inc()
}

// ObserveSale counts a sale and adds its commission.
func (m *WorkflowMetrics) ObserveSale(commission float64) {
	if m == nil || m.sales == nil {
		return
	}
	m.sales.Inc()
	if commission > 0 {
		m.commission.Add(commission)
	}
}

// HTTPMetrics records request latency per route pattern.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the request histogram on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration)
	return &HTTPMetrics{duration: duration}
}

// Observe records one request.
func (h *HTTPMetrics) Observe(method, route, status string, duration time.Duration) {
	if h == nil || h.duration == nil {
		return
	}
	h.duration.WithLabelValues(method, normalizeLabel(route), status).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
