package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// BondMetrics aggregates the counters exposed for the bond incentive engine.
type BondMetrics struct {
	CampaignsCreated prometheus.Counter
	Issuance         *prometheus.CounterVec
	IssuanceSkipped  *prometheus.CounterVec
	ClaimsPaid       prometheus.Counter
	ClaimErrors      *prometheus.CounterVec
}

var (
	bondMetricsOnce sync.Once
	bondRegistry    *BondMetrics
)

// Bond returns the lazily-initialised metrics registry for the bond engine.
func Bond() *BondMetrics {
	bondMetricsOnce.Do(func() {
		bondRegistry = &BondMetrics{
			CampaignsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "bondvest",
				Subsystem: "bond",
				Name:      "campaigns_created_total",
				Help:      "Total bond campaigns created and funded.",
			}),
			Issuance: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "bondvest",
				Subsystem: "bond",
				Name:      "issuance_total",
				Help:      "Total vesting claims issued, segmented by bond type.",
			}, []string{"bond_type"}),
			IssuanceSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "bondvest",
				Subsystem: "bond",
				Name:      "issuance_skipped_total",
				Help:      "Venue events that produced no issuance, segmented by reason.",
			}, []string{"reason"}),
			ClaimsPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "bondvest",
				Subsystem: "bond",
				Name:      "claims_paid_total",
				Help:      "Total successful claim payouts.",
			}),
			ClaimErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "bondvest",
				Subsystem: "bond",
				Name:      "claim_errors_total",
				Help:      "Rejected claim attempts, segmented by error kind.",
			}, []string{"kind"}),
		}
		prometheus.MustRegister(
			bondRegistry.CampaignsCreated,
			bondRegistry.Issuance,
			bondRegistry.IssuanceSkipped,
			bondRegistry.ClaimsPaid,
			bondRegistry.ClaimErrors,
		)
	})
	return bondRegistry
}
