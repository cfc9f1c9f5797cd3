// Package metrics holds the Prometheus collectors for the lookup pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "monsurface"

var (
	// repliesTotal counts pipeline replies by outcome.
	repliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "assistant",
		Name:      "replies_total",
		Help:      "Replies produced by the lookup pipeline, by outcome",
	}, []string{"outcome"})

	// llmCallsTotal counts language model calls by stage (interpret, synthesize) and status.
	llmCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "calls_total",
		Help:      "Language model calls by pipeline stage and status",
	}, []string{"stage", "status"})

	llmLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "latency_seconds",
		Help:      "Language model call latency by pipeline stage",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"stage"})

	// ledgerErrorsTotal counts permission ledger failures by operation.
	ledgerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "access",
		Name:      "ledger_errors_total",
		Help:      "Permission ledger failures by operation",
	}, []string{"operation"})

	// hydrationSkipsTotal counts summary references dropped during hydration.
	hydrationSkipsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "hydration_skips_total",
		Help:      "Summary references skipped during hydration, by reason",
	}, []string{"reason"})

	// deliveryFailuresTotal counts replies the transport could not deliver.
	deliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "transport",
		Name:      "delivery_failures_total",
		Help:      "Replies that failed to reach the chat platform",
	})
)

// RecordReply records one pipeline reply.
func RecordReply(outcome string) {
	repliesTotal.WithLabelValues(outcome).Inc()
}

// RecordLLMCall records a language model call and its latency.
func RecordLLMCall(stage, status string, seconds float64) {
	llmCallsTotal.WithLabelValues(stage, status).Inc()
	llmLatencySeconds.WithLabelValues(stage).Observe(seconds)
}

// RecordLedgerError records a failed ledger operation (lookup, touch, append).
func RecordLedgerError(operation string) {
	ledgerErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordHydrationSkip records a reference dropped during hydration.
func RecordHydrationSkip(reason string) {
	hydrationSkipsTotal.WithLabelValues(reason).Inc()
}

// RecordDeliveryFailure records a reply that could not be delivered.
func RecordDeliveryFailure() {
	deliveryFailuresTotal.Inc()
}
