package referral

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	referrals prometheus.Counter
	bonuses   *prometheus.CounterVec
	skipped   *prometheus.CounterVec
}

func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	referrals := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "referral_wallet",
			Subsystem: "referral",
			Name:      "referrals_created_total",
			Help:      "Referral records created at registration.",
		},
	)
	bonuses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral_wallet",
			Subsystem: "referral",
			Name:      "bonuses_total",
			Help:      "Referral bonus credits by kind and outcome.",
		},
		[]string{"kind", "result"},
	)
	skipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral_wallet",
			Subsystem: "referral",
			Name:      "deposit_bonus_skipped_total",
			Help:      "Deposits that produced no referral bonus, by reason.",
		},
		[]string{"reason"},
	)

	reg.MustRegister(referrals, bonuses, skipped)
	return &Metrics{referrals: referrals, bonuses: bonuses, skipped: skipped}
}

func (m *Metrics) referralCreated() {
	if m == nil {
		return
	}
	m.referrals.Inc()
}

func (m *Metrics) bonus(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.bonuses.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) skip(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(reason).Inc()
}
