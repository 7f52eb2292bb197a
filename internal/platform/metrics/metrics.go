// Package metrics defines the Prometheus collectors exported on /metrics and
// small helpers the pipeline uses to record into them.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Generation call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"route", "method"},
	)

	GenerationCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agro_generation_calls_total",
			Help: "Total number of model generation calls by model and outcome",
		},
		[]string{"model", "outcome"},
	)
	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agro_generation_duration_seconds",
			Help:    "Model generation call duration in seconds, retries included",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"model"},
	)
	ReframesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agro_reframes_total",
			Help: "Reframe attempts after a blocked or empty answer, by stage and result",
		},
		[]string{"stage", "result"},
	)
	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agro_recommendations_total",
			Help: "Structured recommendations by source (model or heuristic) and action",
		},
		[]string{"source", "action"},
	)
	DegradedAnswersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agro_degraded_answers_total",
			Help: "Answers served in demo mode without calling the model",
		},
	)
	HistoryWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agro_history_writes_total",
			Help: "History writes by path (queued or inline)",
		},
		[]string{"path"},
	)
)

var registerOnce sync.Once

// InitMetrics registers every collector with the default registry. Safe to
// call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(GenerationCallsTotal)
		prometheus.MustRegister(GenerationDuration)
		prometheus.MustRegister(ReframesTotal)
		prometheus.MustRegister(RecommendationsTotal)
		prometheus.MustRegister(DegradedAnswersTotal)
		prometheus.MustRegister(HistoryWritesTotal)
	})
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()

		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveGeneration records one logical generation call.
func ObserveGeneration(model, outcome string, d time.Duration) {
	GenerationCallsTotal.WithLabelValues(model, outcome).Inc()
	GenerationDuration.WithLabelValues(model).Observe(d.Seconds())
}

// ObserveReframe records one reframe stage and whether it produced text.
func ObserveReframe(stage string, produced bool) {
	result := "empty"
	if produced {
		result = "answered"
	}
	ReframesTotal.WithLabelValues(stage, result).Inc()
}

// ObserveRecommendation records a recommendation by source and action.
func ObserveRecommendation(source, action string) {
	RecommendationsTotal.WithLabelValues(source, action).Inc()
}

// ObserveDegraded records an answer served in demo mode.
func ObserveDegraded() {
	DegradedAnswersTotal.Inc()
}

// ObserveHistoryWrite records a history write handed to path.
func ObserveHistoryWrite(path string) {
	HistoryWritesTotal.WithLabelValues(path).Inc()
}
