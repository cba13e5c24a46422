package facilitator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts verify/settle outcomes for the /metrics endpoint.
type Metrics struct {
	VerifyTotal     *prometheus.CounterVec
	SettleTotal     *prometheus.CounterVec
	SettleRetries   prometheus.Counter
	SettleDuplicate prometheus.Counter
}

// NewMetrics registers the facilitator counters on a registry. Passing nil
// uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		VerifyTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "facilitator",
			Name:      "verify_total",
			Help:      "Verification requests by outcome.",
		}, []string{"outcome"}),
		SettleTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "facilitator",
			Name:      "settle_total",
			Help:      "Settlement requests by outcome.",
		}, []string{"outcome"}),
		SettleRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "facilitator",
			Name:      "settle_stale_fee_retries_total",
			Help:      "Settlements retried after a stale fee recipient failure.",
		}),
		SettleDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "facilitator",
			Name:      "settle_duplicates_total",
			Help:      "Settlement requests answered from the idempotency cache.",
		}),
	}
}
