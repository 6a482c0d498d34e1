// Package metrics 定义进程内的 Prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHitTotal 按缓存实例统计命中次数。
	CacheHitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsdash",
		Subsystem: "cache",
		Name:      "hit_total",
		Help:      "Number of cache hits per store.",
	}, []string{"store"})

	// CacheMissTotal 按缓存实例统计未命中（触发 loader）次数。
	CacheMissTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsdash",
		Subsystem: "cache",
		Name:      "miss_total",
		Help:      "Number of cache misses that invoked the loader.",
	}, []string{"store"})

	// CacheCoalescedTotal 按缓存实例统计被合并到在途请求的调用次数。
	CacheCoalescedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsdash",
		Subsystem: "cache",
		Name:      "coalesced_total",
		Help:      "Number of callers coalesced onto an in-flight load.",
	}, []string{"store"})

	// UpstreamRequestTotal 按路径与结果统计上游请求。
	UpstreamRequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsdash",
		Subsystem: "upstream",
		Name:      "request_total",
		Help:      "Upstream requests by path and outcome.",
	}, []string{"path", "outcome"})

	// UpstreamRequestDuration 上游请求耗时分布。
	UpstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "opsdash",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Upstream request latency.",
		Buckets:   prometheus.DefBuckets,
	})

	// StreamEventTotal 按事件类型统计收到的看板事件。
	StreamEventTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsdash",
		Subsystem: "stream",
		Name:      "event_total",
		Help:      "Dashboard stream events received by type.",
	}, []string{"type"})

	// StreamDroppedTotal 统计被静默丢弃的畸形事件。
	StreamDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "opsdash",
		Subsystem: "stream",
		Name:      "dropped_total",
		Help:      "Malformed stream payloads silently dropped.",
	})

	// AggregationDuration 一次完整聚合的耗时分布。
	AggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "opsdash",
		Subsystem: "aggregate",
		Name:      "pass_duration_seconds",
		Help:      "Full resource-product aggregation pass latency.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	})
)
