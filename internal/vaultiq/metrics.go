// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instrumentation shared by every Cache and the
// Revocation Engine. Cache hits, misses and errors are labeled by family;
// RevokedTotal is labeled by intent kind. StoreOps and OperationTime are
// registered, but no component in this package records to them.
type Metrics struct {
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	CacheErrors   *prometheus.CounterVec
	StoreOps      *prometheus.CounterVec
	RevokedTotal  *prometheus.CounterVec
	OperationTime *prometheus.HistogramVec
}

// NewMetrics registers and returns the package's Prometheus collectors
// against the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vaultiq",
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of cache hits by family.",
			},
			[]string{"family"},
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vaultiq",
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of cache misses by family.",
			},
			[]string{"family"},
		),
		CacheErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vaultiq",
				Subsystem: "cache",
				Name:      "errors_total",
				Help:      "Total number of cache operation errors swallowed by the Cache Access Layer.",
			},
			[]string{"family", "op"},
		),
		StoreOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vaultiq",
				Subsystem: "store",
				Name:      "operations_total",
				Help:      "Total Session Store / Revocation Engine operations by family and mode.",
			},
			[]string{"family", "mode", "op"},
		),
		RevokedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vaultiq",
				Subsystem: "revocation",
				Name:      "sessions_revoked_total",
				Help:      "Total sessions revoked, labeled by intent kind.",
			},
			[]string{"kind"},
		),
		OperationTime: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "vaultiq",
				Subsystem: "core",
				Name:      "operation_duration_seconds",
				Help:      "Duration of Session Store / Revocation Engine operations.",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"family", "op"},
		),
	}
}

// noopMetrics is used by constructors/tests that don't want to register
// against the global Prometheus registry repeatedly.
func noopMetrics() *Metrics {
	return &Metrics{
		CacheHits:     prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vaultiq_noop_cache_hits"}, []string{"family"}),
		CacheMisses:   prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vaultiq_noop_cache_misses"}, []string{"family"}),
		CacheErrors:   prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vaultiq_noop_cache_errors"}, []string{"family", "op"}),
		StoreOps:      prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vaultiq_noop_store_ops"}, []string{"family", "mode", "op"}),
		RevokedTotal:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vaultiq_noop_revoked_total"}, []string{"kind"}),
		OperationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "vaultiq_noop_operation_duration_seconds"}, []string{"family", "op"}),
	}
}
