package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	workflowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "approvals",
		Subsystem: "workflow",
		Name:      "transitions_total",
		Help:      "Total number of workflow operations broken down by operation and result.",
	}, []string{"operation", "result"})

	sideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "approvals",
		Subsystem: "side_effects",
		Name:      "failures_total",
		Help:      "Total number of post-commit side effects that failed, broken down by effect.",
	}, []string{"effect"})

	notificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "approvals",
		Subsystem: "notifications",
		Name:      "sent_total",
		Help:      "Total number of notification rows written, broken down by category.",
	}, []string{"category"})
)

func recordTransition(operation, result string) {
	if result == "" {
		result = "ok"
	}
	workflowTransitions.WithLabelValues(operation, result).Inc()
}

func recordSideEffectFailure(effect string) {
	sideEffectFailures.WithLabelValues(effect).Inc()
}
