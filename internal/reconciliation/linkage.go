package reconciliation

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
)

// linkPartition cross-references every transaction of one (org_id, sku)
// partition: purchases against invoices for cost, purchases against
// receipts for quantity and timeline. It is a pure function over its
// inputs, so re-running it over the same partition yields the same result.
func linkPartition(sku string, txns []models.UnifiedTransaction, pol Policies) *PartitionResult {
	res := &PartitionResult{
		SKU:   sku,
		Skips: map[string]int{},
	}

	var purchases, invoices, receipts []*models.UnifiedTransaction
	for i := range txns {
		t := &txns[i]
		switch {
		case t.Type == enums.TransactionTypePurchase:
			purchases = append(purchases, t)
		case t.Type == enums.TransactionTypeInvoice:
			invoices = append(invoices, t)
		case t.IsReceipt():
			receipts = append(receipts, t)
		}
	}
	sortByAnchor(purchases)
	sortByAnchor(invoices)
	sortByAnchor(receipts)

	invoicePairs := pairDocuments(purchases, invoices)
	receiptPairs := pairDocuments(purchases, receipts)

	paired := map[uuid.UUID]bool{}
	for _, p := range invoicePairs {
		paired[p.left.ID] = true
		paired[p.right.ID] = true
		res.compareCost(p.left, p.right, pol)
	}
	for _, p := range receiptPairs {
		paired[p.left.ID] = true
		paired[p.right.ID] = true
		res.compareQuantity(p.left, p.right)
		res.observeTimeline(p.left, p.right)
	}

	// Records that found no counterpart still contribute their own dates.
	for i := range txns {
		t := &txns[i]
		if paired[t.ID] {
			continue
		}
		res.Unmatched++
		res.observeTimeline(t, t)
	}

	res.Link = buildLink(sku, purchases, invoices, receipts)
	return res
}

type docPair struct {
	left  *models.UnifiedTransaction // purchase
	right *models.UnifiedTransaction // invoice or receipt
}

// pairDocuments matches each purchase with the unused counterpart whose
// anchor date is closest to, and not earlier than, the purchase's po_date.
// A purchase with no resolvable date takes the earliest unused counterpart.
func pairDocuments(purchases, candidates []*models.UnifiedTransaction) []docPair {
	used := make([]bool, len(candidates))
	var pairs []docPair
	for _, purchase := range purchases {
		poDate := anchorDate(purchase)
		best := -1
		var bestGap time.Duration
		for i, candidate := range candidates {
			if used[i] {
				continue
			}
			date := anchorDate(candidate)
			if poDate == nil || date == nil {
				if best == -1 {
					best = i
				}
				continue
			}
			gap := date.Sub(*poDate)
			if gap < 0 {
				continue
			}
			if best == -1 || gap < bestGap {
				best = i
				bestGap = gap
			}
		}
		if best == -1 {
			continue
		}
		used[best] = true
		pairs = append(pairs, docPair{left: purchase, right: candidates[best]})
	}
	return pairs
}

func (res *PartitionResult) compareCost(purchase, invoice *models.UnifiedTransaction, pol Policies) {
	if purchase.Currency != invoice.Currency {
		res.Skips[SkipCurrencyMismatch]++
		res.FlagRequests = append(res.FlagRequests, FlagRequest{
			TransactionID: invoice.ID,
			Flag: models.AnomalyFlag{
				Reason:   enums.AnomalyReasonCurrencyMismatch,
				Severity: enums.SeverityLow,
				Detail: fmt.Sprintf("invoice %s in %s vs purchase %s in %s",
					invoice.ID, invoice.Currency, purchase.ID, purchase.Currency),
				Impact: decimal.Zero,
			},
		})
		return
	}

	planned := firstDecimal(purchase.PlannedCost, purchase.TotalCost)
	if planned == nil || planned.IsZero() {
		res.Skips[SkipMissingPlannedCost]++
		res.FlagRequests = append(res.FlagRequests, FlagRequest{
			TransactionID: purchase.ID,
			Flag: models.AnomalyFlag{
				Reason:   enums.AnomalyReasonMissingPlannedCost,
				Severity: enums.SeverityLow,
				Detail:   fmt.Sprintf("purchase %s has no usable planned cost", purchase.ID),
				Impact:   decimal.Zero,
			},
		})
		return
	}
	actual := firstDecimal(invoice.ActualCost, invoice.TotalCost)
	if actual == nil {
		res.Skips[SkipMissingActualCost]++
		return
	}

	variance := actual.Sub(*planned)
	pct, _ := variance.Div(*planned).Mul(decimal.NewFromInt(100)).Float64()
	if abs(pct) <= pol.VarianceReportPct {
		return
	}
	res.CostVariances = append(res.CostVariances, CostVariance{
		SKU:          res.SKU,
		PurchaseID:   purchase.ID,
		InvoiceID:    invoice.ID,
		SupplierName: firstString(invoice.SupplierName, purchase.SupplierName),
		PlannedCost:  *planned,
		ActualCost:   *actual,
		Variance:     variance,
		VariancePct:  pct,
		Currency:     purchase.Currency,
	})
}

func (res *PartitionResult) compareQuantity(purchase, receipt *models.UnifiedTransaction) {
	committed := firstFloat(purchase.CommittedQuantity, purchase.Quantity)
	received := firstFloat(receipt.ReceivedQuantity, receipt.Quantity)
	if committed == nil || received == nil {
		res.Skips[SkipMissingQuantity]++
		return
	}
	discrepancy := *received - *committed
	if discrepancy == 0 {
		return
	}

	impact := decimal.Zero
	if unit := unitCost(purchase); unit != nil {
		impact = unit.Mul(decimal.NewFromFloat(abs(discrepancy)))
	}
	res.QuantityDiscrepancies = append(res.QuantityDiscrepancies, QuantityDiscrepancy{
		SKU:               res.SKU,
		PurchaseID:        purchase.ID,
		ReceiptID:         receipt.ID,
		SupplierName:      firstString(purchase.SupplierName, receipt.SupplierName),
		CommittedQuantity: *committed,
		ReceivedQuantity:  *received,
		Discrepancy:       discrepancy,
		EstimatedImpact:   impact,
	})
}

// observeTimeline records any resolvable supply interval between the two
// records. Calling it with the same record on both sides evaluates a
// standalone transaction that carries its own dates.
func (res *PartitionResult) observeTimeline(purchase, receipt *models.UnifiedTransaction) {
	poDate := firstTime(purchase.PODate, purchase.TransactionDate)
	receivedDate := firstTime(receipt.ReceivedDate, receipt.TransactionDate)
	shipDate := receipt.ShipDate

	obs := TimelineObservation{SKU: res.SKU}
	if purchase != receipt {
		obs.PurchaseID = purchase.ID
		obs.ReceiptID = receipt.ID
	} else {
		obs.ReceiptID = receipt.ID
		// Standalone records only count when they carry a true po_date;
		// a bare transaction_date says nothing about commitment timing.
		poDate = purchase.PODate
		receivedDate = receipt.ReceivedDate
	}

	if poDate != nil && receivedDate != nil && !receivedDate.Before(*poDate) {
		days := daysBetween(*poDate, *receivedDate)
		obs.POToReceiptDays = &days
	}
	if shipDate != nil && receivedDate != nil && !receivedDate.Before(*shipDate) {
		days := daysBetween(*shipDate, *receivedDate)
		obs.ShipToReceiptDays = &days
	}
	if obs.POToReceiptDays == nil && obs.ShipToReceiptDays == nil {
		if purchase != receipt {
			res.Skips[SkipMissingDate]++
		}
		return
	}
	res.TimelineObservations = append(res.TimelineObservations, obs)
}

// buildLink derives the per-SKU document rollup when at least two document
// kinds are present.
func buildLink(sku string, purchases, invoices, receipts []*models.UnifiedTransaction) *models.DocumentInventoryLink {
	kinds := 0
	for _, bucket := range [][]*models.UnifiedTransaction{purchases, invoices, receipts} {
		if len(bucket) > 0 {
			kinds++
		}
	}
	if kinds < 2 {
		return nil
	}

	link := &models.DocumentInventoryLink{SKU: sku}
	if len(purchases) > 0 {
		p := purchases[0]
		link.OrgID = p.OrgID
		link.PurchaseTransactionID = &p.ID
		link.CommittedQuantity = firstFloat(p.CommittedQuantity, p.Quantity)
		link.PlannedUnitCost = unitCost(p)
	}
	if len(invoices) > 0 {
		inv := invoices[0]
		link.OrgID = inv.OrgID
		link.InvoiceTransactionID = &inv.ID
		link.InvoicedQuantity = inv.Quantity
		link.ActualUnitCost = unitCost(inv)
	}
	if len(receipts) > 0 {
		r := receipts[0]
		link.OrgID = r.OrgID
		if r.Type == enums.TransactionTypeShipment {
			link.ShipmentTransactionID = &r.ID
		}
		link.ReceivedQuantity = firstFloat(r.ReceivedQuantity, r.Quantity)

		// Landed cost: actual unit cost plus the shipment's per-unit
		// freight, when both resolve.
		if link.ActualUnitCost != nil && r.Type == enums.TransactionTypeShipment &&
			r.TotalCost != nil && link.ReceivedQuantity != nil && *link.ReceivedQuantity > 0 {
			freight := r.TotalCost.Div(decimal.NewFromFloat(*link.ReceivedQuantity))
			landed := link.ActualUnitCost.Add(freight)
			link.LandedUnitCost = &landed
		}
	}
	return link
}

// unitCost resolves a per-unit cost for a record: the explicit unit cost,
// or a relevant total divided by the relevant quantity.
func unitCost(t *models.UnifiedTransaction) *decimal.Decimal {
	if t.UnitCost != nil {
		return t.UnitCost
	}
	total := firstDecimal(t.ActualCost, t.PlannedCost, t.TotalCost)
	qty := firstFloat(t.CommittedQuantity, t.Quantity, t.ReceivedQuantity)
	if total == nil || qty == nil || *qty == 0 {
		return nil
	}
	unit := total.Div(decimal.NewFromFloat(*qty))
	return &unit
}

func sortByAnchor(bucket []*models.UnifiedTransaction) {
	sort.SliceStable(bucket, func(i, j int) bool {
		di, dj := anchorDate(bucket[i]), anchorDate(bucket[j])
		switch {
		case di == nil && dj == nil:
			return bucket[i].ID.String() < bucket[j].ID.String()
		case di == nil:
			return false
		case dj == nil:
			return true
		case di.Equal(*dj):
			return bucket[i].ID.String() < bucket[j].ID.String()
		default:
			return di.Before(*dj)
		}
	})
}

// anchorDate is the date a record is ordered and paired by: po_date for
// purchases, otherwise the transaction date, otherwise the received date.
func anchorDate(t *models.UnifiedTransaction) *time.Time {
	if t.Type == enums.TransactionTypePurchase && t.PODate != nil {
		return t.PODate
	}
	return firstTime(t.TransactionDate, t.ReceivedDate)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func firstDecimal(values ...*decimal.Decimal) *decimal.Decimal {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstTime(values ...*time.Time) *time.Time {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
