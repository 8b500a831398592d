package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	schedulingWriteConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduling",
		Subsystem: "write",
		Name:      "conflicts_total",
		Help:      "Total number of scheduling write conflicts broken down by kind.",
	}, []string{"kind"})

	schedulingSwapDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduling",
		Subsystem: "swaps",
		Name:      "decisions_total",
		Help:      "Total number of swap request decisions broken down by outcome.",
	}, []string{"outcome"})

	schedulingPeriodTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduling",
		Subsystem: "periods",
		Name:      "transitions_total",
		Help:      "Total number of schedule period status transitions.",
	}, []string{"transition"})
)

func recordWriteConflict(kind string) {
	if kind == "" {
		kind = "other"
	}
	schedulingWriteConflicts.WithLabelValues(kind).Inc()
}

func recordSwapDecision(outcome string) {
	schedulingSwapDecisions.WithLabelValues(outcome).Inc()
}

func recordPeriodTransition(transition string) {
	schedulingPeriodTransitions.WithLabelValues(transition).Inc()
}
