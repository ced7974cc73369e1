package reconciliation

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
)

// Classification is the write-set derived from one run's linkage results:
// anomaly flags to append, status transitions to apply, and the SKU sets
// the intelligence summaries report on.
type Classification struct {
	FlagRequests  []FlagRequest
	StatusUpdates []StatusUpdate

	CompromisedSKUs []string
	DelayedSKUs     []string

	CompliantCount int
	EvaluatedCount int
}

// classify grades every reported divergence against the policy bands and
// derives the resulting inventory and compliance transitions. Band
// comparisons are strict: a variance of exactly 20% is not high, exactly
// 10% is not compromised, a discrepancy of exactly the tolerance is not
// compromised.
func classify(res *Results, txns []models.UnifiedTransaction, pol Policies, confidenceFloor float64) *Classification {
	cls := &Classification{
		FlagRequests: append([]FlagRequest{}, res.FlagRequests...),
	}
	compromised := map[uuid.UUID]bool{}
	compromisedSKUs := map[string]bool{}
	delayedSKUs := map[string]bool{}

	for _, cv := range res.CostVariances {
		// Severity is high past the high band, medium otherwise — the
		// informational 5-10% band is medium too, just not compromised.
		severity := enums.SeverityMedium
		isCompromised := false
		switch {
		case abs(cv.VariancePct) > pol.VarianceHighPct:
			severity = enums.SeverityHigh
			isCompromised = true
		case abs(cv.VariancePct) > pol.VarianceCompromisedPct:
			isCompromised = true
		}
		flag := models.AnomalyFlag{
			Reason:   enums.AnomalyReasonCostVariance,
			Severity: severity,
			Detail: fmt.Sprintf("invoice %s vs purchase %s: planned %s actual %s (%.2f%%)",
				cv.InvoiceID, cv.PurchaseID, cv.PlannedCost, cv.ActualCost, cv.VariancePct),
			Impact: cv.Variance.Abs(),
		}
		for _, id := range []uuid.UUID{cv.PurchaseID, cv.InvoiceID} {
			cls.FlagRequests = append(cls.FlagRequests, FlagRequest{
				TransactionID: id,
				Flag:          flag,
				Compromised:   isCompromised,
			})
			if isCompromised {
				compromised[id] = true
			}
		}
		if isCompromised {
			compromisedSKUs[cv.SKU] = true
		}
	}

	for _, qd := range res.QuantityDiscrepancies {
		tolerance := abs(qd.CommittedQuantity) * pol.QuantityTolerancePct / 100
		severity := enums.SeverityMedium
		isCompromised := false
		if abs(qd.Discrepancy) > tolerance {
			severity = enums.SeverityHigh
			isCompromised = true
		}
		flag := models.AnomalyFlag{
			Reason:   enums.AnomalyReasonQuantityDiscrepancy,
			Severity: severity,
			Detail: fmt.Sprintf("receipt %s vs purchase %s: committed %g received %g",
				qd.ReceiptID, qd.PurchaseID, qd.CommittedQuantity, qd.ReceivedQuantity),
			Impact: qd.EstimatedImpact,
		}
		for _, id := range []uuid.UUID{qd.PurchaseID, qd.ReceiptID} {
			cls.FlagRequests = append(cls.FlagRequests, FlagRequest{
				TransactionID: id,
				Flag:          flag,
				Compromised:   isCompromised,
			})
			if isCompromised {
				compromised[id] = true
			}
		}
		if isCompromised {
			compromisedSKUs[qd.SKU] = true
		}
	}

	for _, obs := range res.TimelineObservations {
		if obs.POToReceiptDays == nil || *obs.POToReceiptDays <= pol.DelayedAfterDays {
			continue
		}
		cls.FlagRequests = append(cls.FlagRequests, FlagRequest{
			TransactionID: obs.ReceiptID,
			Flag: models.AnomalyFlag{
				Reason:   enums.AnomalyReasonDelayed,
				Severity: enums.SeverityMedium,
				Detail:   fmt.Sprintf("receipt %s arrived %d days after purchase order", obs.ReceiptID, *obs.POToReceiptDays),
				Impact:   decimal.Zero,
			},
		})
		delayedSKUs[obs.SKU] = true
	}

	// Status transitions. Compromise wins over everything; a record below
	// the document confidence floor stays pending; the rest of the
	// evaluated population is compliant.
	for i := range txns {
		t := &txns[i]
		cls.EvaluatedCount++
		switch {
		case compromised[t.ID]:
			update := StatusUpdate{TransactionID: t.ID}
			if t.InventoryStatus != enums.InventoryStatusCompromised {
				status := enums.InventoryStatusCompromised
				update.InventoryStatus = &status
			}
			if t.ComplianceStatus != enums.ComplianceStatusAtRisk {
				compliance := enums.ComplianceStatusAtRisk
				update.ComplianceStatus = &compliance
			}
			if update.InventoryStatus != nil || update.ComplianceStatus != nil {
				cls.StatusUpdates = append(cls.StatusUpdates, update)
			}
		case t.DocumentConfidence != nil && *t.DocumentConfidence < confidenceFloor:
			// Stays pending until a higher-confidence extraction arrives.
		default:
			cls.CompliantCount++
			if t.ComplianceStatus != enums.ComplianceStatusCompliant {
				compliance := enums.ComplianceStatusCompliant
				cls.StatusUpdates = append(cls.StatusUpdates, StatusUpdate{
					TransactionID:    t.ID,
					ComplianceStatus: &compliance,
				})
			}
		}
	}

	cls.CompromisedSKUs = sortedKeys(compromisedSKUs)
	cls.DelayedSKUs = sortedKeys(delayedSKUs)
	return cls
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
