package reconciliation

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
)

// buildAlerts projects the run's compromised anomalies into alerts. Alerts
// are deduplicated on (sku, reason): however many pairs compromised a SKU,
// it raises one alert per reason carrying the summed impact and the worst
// severity. Ordering is severity rank, then SKU, so the output is stable
// across runs.
func buildAlerts(res *Results, pol Policies, at time.Time) []Alert {
	type key struct {
		sku    string
		reason enums.AnomalyReason
	}
	grouped := map[key]*Alert{}

	upsert := func(k key, severity enums.Severity, impact decimal.Decimal) *Alert {
		alert, ok := grouped[k]
		if !ok {
			alert = &Alert{
				Type:      k.reason,
				Severity:  severity,
				SKU:       k.sku,
				Timestamp: at,
			}
			grouped[k] = alert
		}
		if severity.Rank() < alert.Severity.Rank() {
			alert.Severity = severity
		}
		alert.FinancialImpact = alert.FinancialImpact.Add(impact)
		return alert
	}

	for _, cv := range res.CostVariances {
		if abs(cv.VariancePct) <= pol.VarianceCompromisedPct {
			continue
		}
		severity := enums.SeverityMedium
		if abs(cv.VariancePct) > pol.VarianceHighPct {
			severity = enums.SeverityHigh
		}
		upsert(key{cv.SKU, enums.AnomalyReasonCostVariance}, severity, cv.Variance.Abs())
	}
	for _, qd := range res.QuantityDiscrepancies {
		tolerance := abs(qd.CommittedQuantity) * pol.QuantityTolerancePct / 100
		if abs(qd.Discrepancy) <= tolerance {
			continue
		}
		upsert(key{qd.SKU, enums.AnomalyReasonQuantityDiscrepancy}, enums.SeverityHigh, qd.EstimatedImpact)
	}

	alerts := make([]Alert, 0, len(grouped))
	for k, alert := range grouped {
		switch k.reason {
		case enums.AnomalyReasonCostVariance:
			alert.Title = fmt.Sprintf("Cost variance on %s", k.sku)
			alert.Message = fmt.Sprintf("Invoiced costs for %s diverge from purchase commitments by %s", k.sku, alert.FinancialImpact)
			alert.RecommendedAction = "Review supplier invoices against committed purchase costs"
		case enums.AnomalyReasonQuantityDiscrepancy:
			alert.Title = fmt.Sprintf("Quantity discrepancy on %s", k.sku)
			alert.Message = fmt.Sprintf("Received quantities for %s fall outside the committed tolerance", k.sku)
			alert.RecommendedAction = "Verify receipt counts and raise a supplier claim if short-shipped"
		}
		alerts = append(alerts, *alert)
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].Severity.Rank() != alerts[j].Severity.Rank() {
			return alerts[i].Severity.Rank() < alerts[j].Severity.Rank()
		}
		if alerts[i].SKU != alerts[j].SKU {
			return alerts[i].SKU < alerts[j].SKU
		}
		return alerts[i].Type < alerts[j].Type
	})
	return alerts
}
