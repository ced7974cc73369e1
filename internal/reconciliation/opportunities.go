package reconciliation

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
)

const unknownSupplier = "unknown"

// aggregateOpportunities rolls divergence impacts up to the supplier level
// and keeps the groupings that cross a materiality floor. Recovery tracks
// the total compromised exposure per supplier; cost optimization tracks
// overpayment against plan across every reported variance, compromised or
// not, discounted by the configured recoverability.
func aggregateOpportunities(res *Results, pol Policies) []Opportunity {
	type bucket struct {
		count  int
		impact decimal.Decimal
	}
	recovery := map[string]*bucket{}
	optimization := map[string]*bucket{}

	add := func(set map[string]*bucket, supplier string, impact decimal.Decimal) {
		if supplier == "" {
			supplier = unknownSupplier
		}
		b, ok := set[supplier]
		if !ok {
			b = &bucket{}
			set[supplier] = b
		}
		b.count++
		b.impact = b.impact.Add(impact)
	}

	for _, cv := range res.CostVariances {
		if abs(cv.VariancePct) > pol.VarianceCompromisedPct {
			add(recovery, cv.SupplierName, cv.Variance.Abs())
		}
		// Paying above plan is addressable through renegotiation; paying
		// below plan is not an optimization target. Informational variances
		// count here too; only recovery is gated on compromise.
		if cv.Variance.Sign() > 0 {
			add(optimization, cv.SupplierName, cv.Variance)
		}
	}
	for _, qd := range res.QuantityDiscrepancies {
		tolerance := abs(qd.CommittedQuantity) * pol.QuantityTolerancePct / 100
		if abs(qd.Discrepancy) <= tolerance {
			continue
		}
		add(recovery, qd.SupplierName, qd.EstimatedImpact)
	}

	var opportunities []Opportunity
	recoverability := decimal.NewFromFloat(pol.SavingsRecoverability)
	for supplier, b := range recovery {
		if !b.impact.GreaterThan(decimal.NewFromFloat(pol.RecoveryMateriality)) {
			continue
		}
		opportunities = append(opportunities, Opportunity{
			Type:              enums.OpportunityTypeRecovery,
			SupplierName:      supplier,
			ItemCount:         b.count,
			TotalImpact:       b.impact,
			PotentialSavings:  b.impact.Mul(recoverability),
			RecommendedAction: "Initiate supplier recovery discussion",
			Priority:          enums.SeverityHigh,
		})
	}
	for supplier, b := range optimization {
		if !b.impact.GreaterThan(decimal.NewFromFloat(pol.CostOptimizationMateriality)) {
			continue
		}
		opportunities = append(opportunities, Opportunity{
			Type:              enums.OpportunityTypeCostOptimization,
			SupplierName:      supplier,
			ItemCount:         b.count,
			TotalImpact:       b.impact,
			PotentialSavings:  b.impact.Mul(recoverability),
			RecommendedAction: "Renegotiate pricing against committed purchase terms",
			Priority:          enums.SeverityMedium,
		})
	}

	sort.Slice(opportunities, func(i, j int) bool {
		if opportunities[i].Type != opportunities[j].Type {
			return opportunities[i].Type < opportunities[j].Type
		}
		return opportunities[i].SupplierName < opportunities[j].SupplierName
	})
	return opportunities
}
