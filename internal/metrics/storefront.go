package metrics

import "github.com/prometheus/client_golang/prometheus"

// Checkout outcomes.
const (
	OutcomePlaced    = "placed"
	OutcomePrepared  = "prepared"
	OutcomeVerified  = "verified"
	OutcomeDismissed = "dismissed"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// StorefrontMetrics counts pricing-level business events.
type StorefrontMetrics struct {
	couponEvaluations *prometheus.CounterVec
	checkouts         *prometheus.CounterVec
}

func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	coupons := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coupon_evaluations_total",
		Help:      "Coupon validations by result.",
	}, []string{"result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_outcomes_total",
		Help:      "Checkout attempts by payment method and outcome.",
	}, []string{"method", "outcome"})
	reg.MustRegister(coupons, checkouts)
	return &StorefrontMetrics{couponEvaluations: coupons, checkouts: checkouts}
}

// ObserveCoupon records a coupon evaluation; result is the rejection reason or
// "accepted".
func (m *StorefrontMetrics) ObserveCoupon(result string) {
	if m == nil || m.couponEvaluations == nil {
		return
	}
	m.couponEvaluations.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *StorefrontMetrics) ObserveCheckout(method, outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(method), normalizeLabel(outcome)).Inc()
}
