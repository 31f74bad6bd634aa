package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "yaqa",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yaqa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "yaqa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	questionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "yaqa",
			Subsystem: "questions",
			Name:      "created_total",
			Help:      "Total number of questions created.",
		},
	)

	commentsPosted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "yaqa",
			Subsystem: "comments",
			Name:      "posted_total",
			Help:      "Total number of comments posted.",
		},
	)

	likeToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yaqa",
			Subsystem: "likes",
			Name:      "changes_total",
			Help:      "Total number of like state changes by resulting type.",
		},
		[]string{"type"},
	)

	imagesUploaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yaqa",
			Subsystem: "images",
			Name:      "uploaded_total",
			Help:      "Total number of images uploaded by content type.",
		},
		[]string{"content_type"},
	)

	registrations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "yaqa",
			Subsystem: "users",
			Name:      "registrations_total",
			Help:      "Total number of user registrations.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		questionsCreated,
		commentsPosted,
		likeToggles,
		imagesUploaded,
		registrations,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := routeLabel(r)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

func QuestionCreated() {
	questionsCreated.Inc()
}

func CommentPosted() {
	commentsPosted.Inc()
}

// LikeChanged counts a like state change; likeType is LIKE or DISLIKE.
func LikeChanged(likeType string) {
	likeToggles.WithLabelValues(likeType).Inc()
}

func ImageUploaded(contentType string) {
	imagesUploaded.WithLabelValues(contentType).Inc()
}

func UserRegistered() {
	registrations.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// routeLabel prefers the ServeMux pattern that matched, which the mux
// records on the request while routing. Unmatched requests fall back to a
// path with numeric segments collapsed so ids don't explode cardinality.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		_, path, found := strings.Cut(r.Pattern, " ")
		if found {
			return path
		}
		return r.Pattern
	}
	return canonicalPath(r.URL.Path)
}

func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	for i, p := range parts {
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}
