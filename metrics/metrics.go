// Package metrics 定义 Prometheus 指标，并提供 Pipeline 观察者与记录函数。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rushteam/docrank/pipeline"
)

var (
	// Pipeline 节点
	NodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docrank_pipeline_node_duration_seconds",
			Help:    "Duration of pipeline node execution in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pipeline", "node", "kind"},
	)

	NodeItems = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docrank_pipeline_node_items",
			Help:    "Number of items returned by a pipeline node",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 200, 500},
		},
		[]string{"pipeline", "node"},
	)

	NodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docrank_pipeline_node_errors_total",
			Help: "Total number of pipeline node errors",
		},
		[]string{"pipeline", "node"},
	)

	// 推荐
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docrank_recommendations_total",
			Help: "Total number of recommendation requests by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	// Degraded 统计空信号：no_analysis（源文档无关键词）、cold_start（无历史）、no_candidates
	Degraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docrank_degraded_total",
			Help: "Total number of recommendation requests served without a usable signal",
		},
		[]string{"reason"},
	)

	// 搜索
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docrank_search_total",
			Help: "Total number of search requests by outcome",
		},
		[]string{"outcome"},
	)

	// HTTP
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docrank_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docrank_http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	// 熔断器状态：0 closed, 1 half-open, 2 open
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "docrank_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

const (
	DegradedNoAnalysis   = "no_analysis"
	DegradedColdStart    = "cold_start"
	DegradedNoCandidates = "no_candidates"
)

// ObserveNode 实现 pipeline.Observer。
func ObserveNode(name string, node pipeline.Node, took time.Duration, out int, err error) {
	NodeDuration.WithLabelValues(name, node.Name(), string(node.Kind())).Observe(took.Seconds())
	if err != nil {
		NodeErrors.WithLabelValues(name, node.Name()).Inc()
		return
	}
	NodeItems.WithLabelValues(name, node.Name()).Observe(float64(out))
}

var _ pipeline.Observer = ObserveNode

func RecordRecommendation(mode string, err error) {
	Recommendations.WithLabelValues(mode, outcome(err)).Inc()
}

func RecordDegraded(reason string) {
	Degraded.WithLabelValues(reason).Inc()
}

func RecordSearch(err error) {
	SearchRequests.WithLabelValues(outcome(err)).Inc()
}

func RecordAPIRequest(method, route string, status int, took time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(took.Seconds())
}

func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// SetBreakerState 记录熔断器状态，state 取 gobreaker.State 的数值。
func SetBreakerState(name string, state int) {
	BreakerState.WithLabelValues(name).Set(float64(state))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
