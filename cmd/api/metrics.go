package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nemonet1337/zaiPipeline/pkg/inventory"
)

// apiMetrics holds the Prometheus collectors of the API server
// APIサーバーのPrometheusメトリクス
type apiMetrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	operations *prometheus.CounterVec
	decisions  *prometheus.GaugeVec
}

func newAPIMetrics() *apiMetrics {
	m := &apiMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pipeline",
			Name:      "http_requests_total",
			Help:      "HTTPリクエスト数",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pipeline",
			Name:      "http_request_duration_seconds",
			Help:      "HTTPリクエスト処理時間",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pipeline",
			Name:      "operations_total",
			Help:      "パイプライン操作数",
		}, []string{"operation", "result"}),
		decisions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pipeline",
			Name:      "products_by_decision",
			Help:      "発注判断ごとの商品数",
		}, []string{"decision"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.operations,
		m.decisions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// handler exposes the registry in the Prometheus text format
func (m *apiMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *apiMetrics) operation(name string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(name, result).Inc()
}

// observeDecisions resets the gauge to the latest decision counts
func (m *apiMetrics) observeDecisions(all []inventory.ProductMetrics) {
	counts := map[inventory.Decision]int{
		inventory.DecisionCriticalLow: 0,
		inventory.DecisionWait:        0,
		inventory.DecisionUrgentGap:   0,
		inventory.DecisionOrderNow:    0,
		inventory.DecisionOK:          0,
	}
	for _, mt := range all {
		counts[mt.Decision]++
	}
	for decision, n := range counts {
		m.decisions.WithLabelValues(string(decision)).Set(float64(n))
	}
}

// statusRecorder captures the response code for instrumentation
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request count and latency per route template
// ルートテンプレートごとにリクエスト数と処理時間を記録
func (m *apiMetrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.code)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
