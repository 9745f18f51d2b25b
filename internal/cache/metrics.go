package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tunegate",
		Subsystem: "resolution_cache",
		Name:      "hits_total",
		Help:      "Number of resolution cache hits.",
	}, []string{"class"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tunegate",
		Subsystem: "resolution_cache",
		Name:      "misses_total",
		Help:      "Number of resolution cache misses that invoked a resolver.",
	}, []string{"class"})

	resolutionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tunegate",
		Subsystem: "resolution_cache",
		Name:      "resolution_errors_total",
		Help:      "Number of resolver invocations that failed.",
	}, []string{"class"})
)
