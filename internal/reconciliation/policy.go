package reconciliation

import (
	"time"

	"github.com/supplypulse/supplypulse-backend/pkg/config"
)

// Policies are the engine thresholds for one run. They are captured from
// configuration when the run starts so a config reload mid-run cannot make
// partitions disagree with each other.
type Policies struct {
	// Cost variance bands, in percent of planned cost. All comparisons are
	// strict: a variance sitting exactly on a band boundary stays in the
	// band below it.
	VarianceReportPct      float64
	VarianceCompromisedPct float64
	VarianceHighPct        float64

	// Quantity tolerance as a fraction band of the committed quantity, in
	// percent. Discrepancies beyond it compromise the inventory.
	QuantityTolerancePct float64

	// Days from po_date to received_date beyond which a supply is delayed.
	DelayedAfterDays int

	// Materiality floors for supplier opportunity aggregation, and the
	// fraction of an optimization impact treated as realizable savings.
	RecoveryMateriality         float64
	CostOptimizationMateriality float64
	SavingsRecoverability       float64

	WorkerPoolSize   int
	PartitionTimeout time.Duration
}

// PoliciesFromConfig captures the engine thresholds from loaded config.
func PoliciesFromConfig(cfg config.ReconciliationConfig) Policies {
	return Policies{
		VarianceReportPct:           cfg.VarianceReportPct,
		VarianceCompromisedPct:      cfg.VarianceCompromisedPct,
		VarianceHighPct:             cfg.VarianceHighPct,
		QuantityTolerancePct:        cfg.QuantityTolerancePct,
		DelayedAfterDays:            cfg.DelayedAfterDays,
		RecoveryMateriality:         cfg.RecoveryMateriality,
		CostOptimizationMateriality: cfg.CostOptimizationMateriality,
		SavingsRecoverability:       cfg.SavingsRecoverability,
		WorkerPoolSize:              cfg.WorkerPoolSize,
		PartitionTimeout:            cfg.PartitionTimeout,
	}
}

// DefaultPolicies returns the documented policy figures. Tests and the CLI
// tooling use these; services capture policies from config instead.
func DefaultPolicies() Policies {
	return Policies{
		VarianceReportPct:           5,
		VarianceCompromisedPct:      10,
		VarianceHighPct:             20,
		QuantityTolerancePct:        5,
		DelayedAfterDays:            45,
		RecoveryMateriality:         10000,
		CostOptimizationMateriality: 5000,
		SavingsRecoverability:       0.5,
		WorkerPoolSize:              8,
		PartitionTimeout:            30 * time.Second,
	}
}
