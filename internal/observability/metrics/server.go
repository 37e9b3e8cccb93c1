package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerMetrics aggregates the API server's instrumentation behind a
// single private registry: HTTP traffic, model calls, document
// extraction outcomes, and challenge scoring.
type ServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	modelCallsTotal   *prometheus.CounterVec
	modelCallDuration *prometheus.HistogramVec
	modelTokensTotal  *prometheus.CounterVec

	extractionsTotal *prometheus.CounterVec
	documentWords    *prometheus.HistogramVec

	challengeScores *prometheus.HistogramVec
}

func NewServerMetrics(service string) *ServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ra",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ra",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ra",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	modelCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ra",
			Subsystem: "model",
			Name:      "calls_total",
			Help:      "Total chat-completion calls by outcome.",
		},
		[]string{"service", "model", "status"},
	)
	modelCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ra",
			Subsystem: "model",
			Name:      "call_duration_seconds",
			Help:      "Chat-completion call duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"service", "model"},
	)
	modelTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ra",
			Subsystem: "model",
			Name:      "tokens_total",
			Help:      "Reported token usage by direction.",
		},
		[]string{"service", "model", "direction"},
	)
	extractionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ra",
			Subsystem: "extraction",
			Name:      "documents_total",
			Help:      "Total document extraction attempts by format and status.",
		},
		[]string{"service", "format", "status"},
	)
	documentWords := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ra",
			Subsystem: "extraction",
			Name:      "document_words",
			Help:      "Word counts of successfully extracted documents.",
			Buckets:   []float64{50, 200, 500, 1000, 2500, 5000, 10000, 25000},
		},
		[]string{"service"},
	)
	challengeScores := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ra",
			Subsystem: "challenge",
			Name:      "scores",
			Help:      "Distribution of challenge answer scores.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		modelCallsTotal,
		modelCallDuration,
		modelTokensTotal,
		extractionsTotal,
		documentWords,
		challengeScores,
	)

	return &ServerMetrics{
		registry:          registry,
		service:           service,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		modelCallsTotal:   modelCallsTotal,
		modelCallDuration: modelCallDuration,
		modelTokensTotal:  modelTokensTotal,
		extractionsTotal:  extractionsTotal,
		documentWords:     documentWords,
		challengeScores:   challengeScores,
	}
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterSessionGauge exposes the live session count as a gauge. The
// callback runs at scrape time.
func (m *ServerMetrics) RegisterSessionGauge(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "ra",
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of sessions currently held in memory.",
			ConstLabels: prometheus.Labels{
				"service": m.service,
			},
		},
		func() float64 { return float64(count()) },
	))
}

func (m *ServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses session identifiers so the path label stays
// low-cardinality.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/v1/sessions/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/v1/sessions/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) == 1 {
		return "/v1/sessions/{session_id}"
	}
	return "/v1/sessions/{session_id}/" + parts[1]
}

func (m *ServerMetrics) ObserveModelCall(model, status string, duration time.Duration) {
	if model == "" {
		model = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.modelCallsTotal.WithLabelValues(m.service, model, status).Inc()
	m.modelCallDuration.WithLabelValues(m.service, model).Observe(duration.Seconds())
}

func (m *ServerMetrics) AddTokenUsage(model string, promptTokens, completionTokens int) {
	if model == "" {
		model = "unknown"
	}
	if promptTokens > 0 {
		m.modelTokensTotal.WithLabelValues(m.service, model, "in").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.modelTokensTotal.WithLabelValues(m.service, model, "out").Add(float64(completionTokens))
	}
}

func (m *ServerMetrics) RecordExtraction(format string, err error) {
	if format == "" {
		format = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.extractionsTotal.WithLabelValues(m.service, format, status).Inc()
}

func (m *ServerMetrics) ObserveDocumentWords(words int) {
	if words < 0 {
		return
	}
	m.documentWords.WithLabelValues(m.service).Observe(float64(words))
}

func (m *ServerMetrics) ObserveChallengeScore(score int) {
	m.challengeScores.WithLabelValues(m.service).Observe(float64(score))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
