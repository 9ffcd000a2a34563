package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExecutionsTotal counts execution attempts by terminal status and
	// trigger source.
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "budgetpilot",
		Name:      "executions_total",
		Help:      "Autopilot execution attempts by terminal status and trigger source.",
	}, []string{"status", "trigger_source"})

	// GateDenialsTotal counts evaluator denials by the gate that fired.
	GateDenialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "budgetpilot",
		Name:      "gate_denials_total",
		Help:      "Guardrail denials by gate.",
	}, []string{"gate"})

	// RollbacksTotal counts completed rollbacks.
	RollbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "budgetpilot",
		Name:      "rollbacks_total",
		Help:      "Completed rollback executions.",
	})

	// ExecutionDuration tracks the wall time of the execute transaction.
	ExecutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "budgetpilot",
		Name:      "execution_transaction_seconds",
		Help:      "Duration of the budget move transaction.",
		Buckets:   prometheus.DefBuckets,
	})

	// AlertSendFailuresTotal counts best-effort alert deliveries that failed.
	// Alert failures never propagate, so this counter is the only structured
	// signal that the sink is unhealthy.
	AlertSendFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "budgetpilot",
		Name:      "alert_send_failures_total",
		Help:      "Guardrail alerts that could not be delivered to the sink.",
	})
)
