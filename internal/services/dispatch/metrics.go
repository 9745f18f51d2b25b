package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	outcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tunegate",
		Subsystem: "dispatch",
		Name:      "outcomes_total",
		Help:      "Number of message turns by outcome kind.",
	}, []string{"kind"})

	rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tunegate",
		Subsystem: "dispatch",
		Name:      "rejections_total",
		Help:      "Number of turns rejected with a user-facing reason.",
	}, []string{"reason"})
)
