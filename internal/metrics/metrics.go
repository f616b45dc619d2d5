package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 推荐流水线的Prometheus指标。nil值的 *Metrics 可安全调用（不记录）。
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal      *prometheus.CounterVec
	pipelineDuration   prometheus.Histogram
	verdictsTotal      *prometheus.CounterVec
	extractionFailures prometheus.Counter
	dataAccessFailures prometheus.Counter
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	llmUp              prometheus.Gauge
}

// New 创建并注册指标，使用独立的registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workspace_recommendation_requests_total",
			Help: "Recommendation requests by terminal status.",
		}, []string{"status"}),
		pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "workspace_recommendation_duration_seconds",
			Help:    "Duration of the recommendation pipeline including criteria extraction.",
			Buckets: prometheus.DefBuckets,
		}),
		verdictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workspace_desk_verdicts_total",
			Help: "Availability verdicts produced by the evaluation stage.",
		}, []string{"verdict"}),
		extractionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workspace_criteria_extraction_failures_total",
			Help: "Criteria extraction failures that fell back to default criteria.",
		}),
		dataAccessFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workspace_data_access_failures_total",
			Help: "Requests aborted because inventory data could not be loaded.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		llmUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "workspace_llm_up",
			Help: "Whether the criteria extraction service answered the last health check (1 up, 0 down).",
		}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.pipelineDuration,
		m.verdictsTotal,
		m.extractionFailures,
		m.dataAccessFailures,
		m.httpRequestsTotal,
		m.httpDuration,
		m.llmUp,
	)

	return m
}

// Registry 返回底层registry（测试用）
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest 记录一次完成的请求
func (m *Metrics) ObserveRequest(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(status).Inc()
	m.pipelineDuration.Observe(elapsed.Seconds())
}

// ObserveVerdict 记录单个工位的结论
func (m *Metrics) ObserveVerdict(verdict string) {
	if m == nil {
		return
	}
	m.verdictsTotal.WithLabelValues(verdict).Inc()
}

// ExtractionFailed 记录抽取失败
func (m *Metrics) ExtractionFailed() {
	if m == nil {
		return
	}
	m.extractionFailures.Inc()
}

// DataAccessFailed 记录数据加载失败
func (m *Metrics) DataAccessFailed() {
	if m == nil {
		return
	}
	m.dataAccessFailures.Inc()
}

// SetLLMUp 更新LLM可达状态
func (m *Metrics) SetLLMUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.llmUp.Set(1)
	} else {
		m.llmUp.Set(0)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Instrument 包装HTTP handler，按路由记录请求数与耗时
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
