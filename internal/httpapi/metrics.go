package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/remyxai/remyxai-cli/internal/deploy"
	"github.com/remyxai/remyxai-cli/internal/inference"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "remyxai",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "remyxai",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "remyxai",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "In-flight HTTP requests",
		},
	)

	deployEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "remyxai",
			Name:      "deploy_events_total",
			Help:      "Deployment controller events by name",
		},
		[]string{"event"},
	)

	inferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "remyxai",
			Name:      "inference_duration_seconds",
			Help:      "Elapsed time of inference calls by outcome",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, httpInflight, deployEventsTotal, inferenceDuration)
}

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware instruments requests for Prometheus
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInflight.Inc()
		defer httpInflight.Dec()

		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sr, r)
		// The route pattern is complete only after routing.
		path := routePatternOrPath(r)
		status := strconv.Itoa(sr.status)
		httpRequestsTotal.WithLabelValues(path, r.Method, status).Inc()
		httpRequestDuration.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
	})
}

// routePatternOrPath returns the chi route pattern if available, otherwise
// falls back to URL path. This avoids high-cardinality label values.
func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// MetricsPublisher counts controller events. It wraps an optional next
// publisher so events can also be logged or recorded.
type MetricsPublisher struct {
	Next deploy.EventPublisher
}

func (p MetricsPublisher) Publish(e deploy.Event) {
	name := e.Name
	if name == "phase" {
		if to, ok := e.Fields["to"].(deploy.Phase); ok {
			name = "phase_" + string(to)
		}
	}
	deployEventsTotal.WithLabelValues(name).Inc()
	if p.Next != nil {
		p.Next.Publish(e)
	}
}

// ObserveInference records a completed inference call; it fits inference.WithObserver.
func ObserveInference(_ inference.Request, res inference.Result) {
	inferenceDuration.WithLabelValues(string(res.Status)).Observe(res.Elapsed.Seconds())
}
