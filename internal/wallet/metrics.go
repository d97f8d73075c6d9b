package wallet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics holds the wallet collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	operations   *prometheus.CounterVec
	amounts      *prometheus.CounterVec
	lockRetries  *prometheus.CounterVec
	hookFailures prometheus.Counter
}

// MustNewMetrics registers the wallet collectors with reg and panics on a
// registration conflict.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral_wallet",
			Subsystem: "wallet",
			Name:      "operations_total",
			Help:      "Wallet operations by transaction type and outcome.",
		},
		[]string{"type", "result"},
	)
	amounts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral_wallet",
			Subsystem: "wallet",
			Name:      "amount_total",
			Help:      "Sum of committed amounts by transaction type.",
		},
		[]string{"type"},
	)
	lockRetries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral_wallet",
			Subsystem: "wallet",
			Name:      "optimistic_lock_retries_total",
			Help:      "Balance writes retried after a concurrent update.",
		},
		[]string{"type"},
	)
	hookFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "referral_wallet",
			Subsystem: "wallet",
			Name:      "deposit_hook_failures_total",
			Help:      "Deposits whose referral hook failed and was left for retry.",
		},
	)

	reg.MustRegister(operations, amounts, lockRetries, hookFailures)
	return &Metrics{
		operations:   operations,
		amounts:      amounts,
		lockRetries:  lockRetries,
		hookFailures: hookFailures,
	}
}

func (m *Metrics) observe(txType TransactionType, amount decimal.Decimal, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.operations.WithLabelValues(string(txType), "error").Inc()
		return
	}
	m.operations.WithLabelValues(string(txType), "ok").Inc()
	m.amounts.WithLabelValues(string(txType)).Add(amount.InexactFloat64())
}

func (m *Metrics) retried(txType TransactionType) {
	if m == nil {
		return
	}
	m.lockRetries.WithLabelValues(string(txType)).Inc()
}

func (m *Metrics) hookFailed() {
	if m == nil {
		return
	}
	m.hookFailures.Inc()
}
