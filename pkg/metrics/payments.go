package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records gateway call outcomes and order state transitions.
type PaymentMetrics struct {
	gatewayDuration *prometheus.HistogramVec
	gatewayCalls    *prometheus.CounterVec
	transitions     *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_duration_seconds",
		Help:    "Duration of payment gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"call"})
	gatewayCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_gateway_calls",
		Help: "Payment gateway calls by call type and outcome.",
	}, []string{"call", "outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions",
		Help: "Order status transitions by target status.",
	}, []string{"to"})
	reg.MustRegister(gatewayDuration, gatewayCalls, transitions)
	return &PaymentMetrics{
		gatewayDuration: gatewayDuration,
		gatewayCalls:    gatewayCalls,
		transitions:     transitions,
	}
}

// ObserveGateway records the duration and outcome for the named gateway call.
func (p *PaymentMetrics) ObserveGateway(call, outcome string, duration time.Duration) {
	if p == nil || p.gatewayDuration == nil {
		return
	}
	p.gatewayDuration.WithLabelValues(normalizeLabel(call)).Observe(duration.Seconds())
	p.gatewayCalls.WithLabelValues(normalizeLabel(call), normalizeLabel(outcome)).Inc()
}

// IncTransition counts an order reaching the given status.
func (p *PaymentMetrics) IncTransition(to string) {
	if p == nil || p.transitions == nil {
		return
	}
	p.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
