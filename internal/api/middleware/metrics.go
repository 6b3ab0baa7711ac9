package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names
const (
	MetricHTTPRequestDuration  = "bankrank_http_request_duration_seconds"
	MetricHTTPRequestsTotal    = "bankrank_http_requests_total"
	MetricRankingBatches       = "bankrank_ranking_batches_total"
	MetricRankingBatchSize     = "bankrank_ranking_batch_banks"
	MetricRateLimitBlocked     = "bankrank_rate_limit_blocked_total"
	MetricRateLimitRedisErrors = "bankrank_rate_limit_redis_errors_total"
)

// Metrics contains the Prometheus collectors of the API.
// The collectors are not registered; call Register.
type Metrics struct {
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsTotal    *prometheus.CounterVec
	rankingBatches       *prometheus.CounterVec
	rankingBatchSize     prometheus.Histogram
	rateLimitBlocked     prometheus.Counter
	rateLimitRedisErrors prometheus.Counter
}

// NewMetrics creates all collectors
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"method", "route", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		rankingBatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRankingBatches,
				Help: "Ranking batches processed by result (ok, invalid_request, invalid_input, error)",
			},
			[]string{"result"},
		),
		rankingBatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricRankingBatchSize,
				Help:    "Number of banks in successfully ranked batches",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
			},
		),
		rateLimitBlocked: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricRateLimitBlocked,
				Help: "Requests rejected by the rate limiter",
			},
		),
		rateLimitRedisErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricRateLimitRedisErrors,
				Help: "Redis errors during rate limiting (local limiter used instead)",
			},
		),
	}
}

// Register registers all metrics with the given registry
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.httpRequestDuration,
		m.httpRequestsTotal,
		m.rankingBatches,
		m.rankingBatchSize,
		m.rateLimitBlocked,
		m.rateLimitRedisErrors,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRanking records the outcome of one ranking batch.
// Safe to call on a nil receiver.
func (m *Metrics) ObserveRanking(result string, banks int) {
	if m == nil {
		return
	}
	m.rankingBatches.WithLabelValues(result).Inc()
	if result == "ok" {
		m.rankingBatchSize.Observe(float64(banks))
	}
}

func (m *Metrics) incRateLimitBlocked() {
	if m != nil {
		m.rateLimitBlocked.Inc()
	}
}

func (m *Metrics) incRateLimitRedisErrors() {
	if m != nil {
		m.rateLimitRedisErrors.Inc()
	}
}

// Middleware records duration and count per matched route template
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		route := routeLabel(r)
		status := strconv.Itoa(rec.status)
		m.httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

// routeLabel keeps label cardinality bounded: /api/rankings/2024Q4 -> /api/rankings/{period}
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
