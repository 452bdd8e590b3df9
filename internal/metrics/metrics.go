package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledger"

var (
	// ClampTriggered counts running totals that would have gone negative and were floored at zero.
	ClampTriggered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clamp_triggered_total",
		Help:      "Running totals floored at zero because the unclamped value was negative.",
	}, []string{"field"})

	Payments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_total",
		Help:      "Payment ingestion attempts by outcome.",
	}, []string{"outcome"})

	Reversals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reversals_total",
		Help:      "Transaction reversal attempts by outcome.",
	}, []string{"outcome"})

	ReversalStepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reversal_step_failures_total",
		Help:      "Secondary reversal steps that were attempted but failed.",
	}, []string{"step"})

	ReconciliationDrift = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciliation_drift_total",
		Help:      "Wallets whose balance did not match the sum of completed transactions.",
	})

	MirrorErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mirror_errors_total",
		Help:      "Failures writing to the external ledger mirror.",
	}, []string{"operation"})
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)
