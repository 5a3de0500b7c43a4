// Package metrics holds the Prometheus collectors of the ledger core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation results used as the "result" label.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
	ResultReplayed = "replayed"
)

// Recorder groups the ledger collectors.
type Recorder struct {
	operations *prometheus.CounterVec
	moved      *prometheus.CounterVec
	rewards    prometheus.Counter
}

// New registers the ledger collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)

	return &Recorder{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "boombucks",
			Name:      "operations_total",
			Help:      "Ledger operations by name and result.",
		}, []string{"operation", "result"}),
		moved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "boombucks",
			Name:      "amount_total",
			Help:      "Units moved through the ledger by entry kind (absolute value).",
		}, []string{"kind"}),
		rewards: f.NewCounter(prometheus.CounterOpts{
			Namespace: "boombucks",
			Name:      "referral_rewards_total",
			Help:      "Referral rewards granted.",
		}),
	}
}

// Nop returns a Recorder bound to a throwaway registry.
func Nop() *Recorder {
	return New(prometheus.NewRegistry())
}

// Operation counts one finished operation.
func (r *Recorder) Operation(name, result string) {
	r.operations.WithLabelValues(name, result).Inc()
}

// Moved adds |amount| units to the per-kind counter.
func (r *Recorder) Moved(kind string, amount int64) {
	if amount < 0 {
		amount = -amount
	}

	r.moved.WithLabelValues(kind).Add(float64(amount))
}

// Rewarded counts one granted referral reward.
func (r *Recorder) Rewarded() {
	r.rewards.Inc()
}
