package enums

import "fmt"

// AnomalyReason names a structured anomaly attached to a transaction. The
// same values type the alerts projected from compromised anomalies.
type AnomalyReason string

const (
	AnomalyReasonCostVariance        AnomalyReason = "cost_variance"
	AnomalyReasonQuantityDiscrepancy AnomalyReason = "quantity_discrepancy"
	AnomalyReasonDelayed             AnomalyReason = "delayed"
	AnomalyReasonCurrencyMismatch    AnomalyReason = "currency_mismatch"
	AnomalyReasonMissingPlannedCost  AnomalyReason = "missing_planned_cost"
)

var validAnomalyReasons = []AnomalyReason{
	AnomalyReasonCostVariance,
	AnomalyReasonQuantityDiscrepancy,
	AnomalyReasonDelayed,
	AnomalyReasonCurrencyMismatch,
	AnomalyReasonMissingPlannedCost,
}

// String implements fmt.Stringer.
func (r AnomalyReason) String() string {
	return string(r)
}

// IsValid reports whether the reason is recognized.
func (r AnomalyReason) IsValid() bool {
	for _, candidate := range validAnomalyReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseAnomalyReason converts raw input into an AnomalyReason.
func ParseAnomalyReason(value string) (AnomalyReason, error) {
	for _, candidate := range validAnomalyReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid anomaly reason %q", value)
}
