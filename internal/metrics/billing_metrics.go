package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// BillingMetrics is the interface for payment and subscription metrics
type BillingMetrics interface {
	IncPaymentCreated(plan string)
	IncActivation(plan, kind string)
	IncActivationFailed(reason string)
	IncReconciliation(outcome string)
	ObservePaymentAmount(amount float64, plan string)
}

type billingMetrics struct {
	log             *logger.Logger
	paymentsCreated *prometheus.CounterVec
	activations     *prometheus.CounterVec
	activationFails *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
	paymentsAmount  *prometheus.HistogramVec
}

// NewBillingMetrics creates new billing metrics
func NewBillingMetrics(registry *prometheus.Registry, log *logger.Logger) BillingMetrics {
	paymentsCreated := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_payments_created_total",
			Help: "The total number of gateway payments created",
		},
		[]string{"plan"},
	)

	activations := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_activations_total",
			Help: "The total number of subscription activations by kind",
		},
		[]string{"plan", "kind"},
	)

	activationFails := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_activation_failures_total",
			Help: "The total number of failed activation attempts",
		},
		[]string{"reason"},
	)

	reconciliations := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_reconciliations_total",
			Help: "The total number of reconciliation runs by outcome",
		},
		[]string{"outcome"},
	)

	paymentsAmount := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_payments_amount",
			Help:    "Payment amounts distribution",
			Buckets: prometheus.ExponentialBuckets(100, 2, 8), // 100 .. 12800 rubles
		},
		[]string{"plan"},
	)

	return &billingMetrics{
		log:             log,
		paymentsCreated: paymentsCreated,
		activations:     activations,
		activationFails: activationFails,
		reconciliations: reconciliations,
		paymentsAmount:  paymentsAmount,
	}
}

// IncPaymentCreated increments the created payments counter
func (m *billingMetrics) IncPaymentCreated(plan string) {
	m.paymentsCreated.WithLabelValues(plan).Inc()
}

// IncActivation increments the activations counter
func (m *billingMetrics) IncActivation(plan, kind string) {
	m.activations.WithLabelValues(plan, kind).Inc()
}

// IncActivationFailed increments the failed activations counter
func (m *billingMetrics) IncActivationFailed(reason string) {
	m.activationFails.WithLabelValues(reason).Inc()
}

// IncReconciliation increments the reconciliations counter
func (m *billingMetrics) IncReconciliation(outcome string) {
	m.reconciliations.WithLabelValues(outcome).Inc()
}

// ObservePaymentAmount records a payment amount
func (m *billingMetrics) ObservePaymentAmount(amount float64, plan string) {
	m.paymentsAmount.WithLabelValues(plan).Observe(amount)
}
