package reconciliation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
)

func variance(sku string, pct float64) CostVariance {
	planned := decimal.NewFromInt(1000)
	varAmount := planned.Mul(decimal.NewFromFloat(pct / 100))
	return CostVariance{
		SKU:          sku,
		PurchaseID:   uuid.New(),
		InvoiceID:    uuid.New(),
		SupplierName: "Acme Corp",
		PlannedCost:  planned,
		ActualCost:   planned.Add(varAmount),
		Variance:     varAmount,
		VariancePct:  pct,
		Currency:     "USD",
	}
}

func classifyOnly(res *Results) *Classification {
	return classify(res, nil, DefaultPolicies(), 0.5)
}

func TestCostVarianceBands(t *testing.T) {
	cases := []struct {
		name        string
		pct         float64
		severity    enums.Severity
		compromised bool
	}{
		{"informational band is medium without compromise", 7, enums.SeverityMedium, false},
		{"exactly ten percent stays informational", 10, enums.SeverityMedium, false},
		{"just past ten percent compromises", 10.01, enums.SeverityMedium, true},
		{"exactly twenty percent stays medium", 20, enums.SeverityMedium, true},
		{"just past twenty percent goes high", 20.01, enums.SeverityHigh, true},
		{"scenario band", 25, enums.SeverityHigh, true},
		{"negative variance uses magnitude", -25, enums.SeverityHigh, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := &Results{CostVariances: []CostVariance{variance("WIDGET-001", tc.pct)}}
			cls := classifyOnly(res)

			require.Len(t, cls.FlagRequests, 2, "both sides of the pair carry the flag")
			for _, req := range cls.FlagRequests {
				assert.Equal(t, enums.AnomalyReasonCostVariance, req.Flag.Reason)
				assert.Equal(t, tc.severity, req.Flag.Severity)
				assert.Equal(t, tc.compromised, req.Compromised)
			}
			if tc.compromised {
				assert.Equal(t, []string{"WIDGET-001"}, cls.CompromisedSKUs)
			} else {
				assert.Empty(t, cls.CompromisedSKUs)
			}
		})
	}
}

func TestQuantityToleranceBand(t *testing.T) {
	discrepancy := func(committed, received float64) QuantityDiscrepancy {
		return QuantityDiscrepancy{
			SKU:               "GADGET-002",
			PurchaseID:        uuid.New(),
			ReceiptID:         uuid.New(),
			CommittedQuantity: committed,
			ReceivedQuantity:  received,
			Discrepancy:       received - committed,
			EstimatedImpact:   decimal.NewFromInt(400),
		}
	}

	t.Run("beyond tolerance compromises at high severity", func(t *testing.T) {
		res := &Results{QuantityDiscrepancies: []QuantityDiscrepancy{discrepancy(100, 92)}}
		cls := classifyOnly(res)
		require.Len(t, cls.FlagRequests, 2)
		assert.Equal(t, enums.SeverityHigh, cls.FlagRequests[0].Flag.Severity)
		assert.True(t, cls.FlagRequests[0].Compromised)
		assert.Equal(t, []string{"GADGET-002"}, cls.CompromisedSKUs)
	})

	t.Run("inside tolerance flags at medium without compromising", func(t *testing.T) {
		res := &Results{QuantityDiscrepancies: []QuantityDiscrepancy{discrepancy(100, 97)}}
		cls := classifyOnly(res)
		require.Len(t, cls.FlagRequests, 2)
		assert.Equal(t, enums.SeverityMedium, cls.FlagRequests[0].Flag.Severity)
		assert.False(t, cls.FlagRequests[0].Compromised)
		assert.Empty(t, cls.CompromisedSKUs)
	})

	t.Run("exactly the tolerance does not compromise", func(t *testing.T) {
		res := &Results{QuantityDiscrepancies: []QuantityDiscrepancy{discrepancy(100, 95)}}
		cls := classifyOnly(res)
		assert.False(t, cls.FlagRequests[0].Compromised)
	})

	t.Run("zero committed quantity treats any shortfall as beyond tolerance", func(t *testing.T) {
		res := &Results{QuantityDiscrepancies: []QuantityDiscrepancy{discrepancy(0, 3)}}
		cls := classifyOnly(res)
		assert.True(t, cls.FlagRequests[0].Compromised)
	})
}

func TestDelayedClassification(t *testing.T) {
	observation := func(days int) TimelineObservation {
		return TimelineObservation{SKU: "CABLE-003", ReceiptID: uuid.New(), POToReceiptDays: &days}
	}

	t.Run("forty five days is on time", func(t *testing.T) {
		res := &Results{TimelineObservations: []TimelineObservation{observation(45)}}
		cls := classifyOnly(res)
		assert.Empty(t, cls.FlagRequests)
		assert.Empty(t, cls.DelayedSKUs)
	})

	t.Run("forty six days is delayed at medium severity", func(t *testing.T) {
		res := &Results{TimelineObservations: []TimelineObservation{observation(46)}}
		cls := classifyOnly(res)
		require.Len(t, cls.FlagRequests, 1)
		assert.Equal(t, enums.AnomalyReasonDelayed, cls.FlagRequests[0].Flag.Reason)
		assert.Equal(t, enums.SeverityMedium, cls.FlagRequests[0].Flag.Severity)
		assert.False(t, cls.FlagRequests[0].Compromised)
		assert.Equal(t, []string{"CABLE-003"}, cls.DelayedSKUs)
	})

	t.Run("scenario interval of fifty nine days is delayed", func(t *testing.T) {
		res := &Results{TimelineObservations: []TimelineObservation{observation(59)}}
		cls := classifyOnly(res)
		require.Len(t, cls.FlagRequests, 1)
	})
}

func TestStatusTransitions(t *testing.T) {
	cv := variance("WIDGET-001", 25)
	clean := models.UnifiedTransaction{ID: uuid.New(), SKU: "CABLE-003"}
	lowConfidence := models.UnifiedTransaction{ID: uuid.New(), SKU: "CABLE-004", DocumentConfidence: qty(0.3)}
	compromisedTxn := models.UnifiedTransaction{ID: cv.PurchaseID, SKU: "WIDGET-001"}

	res := &Results{CostVariances: []CostVariance{cv}}
	cls := classify(res, []models.UnifiedTransaction{clean, lowConfidence, compromisedTxn}, DefaultPolicies(), 0.5)

	assert.Equal(t, 3, cls.EvaluatedCount)
	assert.Equal(t, 1, cls.CompliantCount, "only the clean high-confidence record is compliant")

	var sawCompromise, sawCompliant bool
	for _, update := range cls.StatusUpdates {
		switch update.TransactionID {
		case compromisedTxn.ID:
			require.NotNil(t, update.InventoryStatus)
			assert.Equal(t, enums.InventoryStatusCompromised, *update.InventoryStatus)
			require.NotNil(t, update.ComplianceStatus)
			assert.Equal(t, enums.ComplianceStatusAtRisk, *update.ComplianceStatus)
			sawCompromise = true
		case clean.ID:
			require.NotNil(t, update.ComplianceStatus)
			assert.Equal(t, enums.ComplianceStatusCompliant, *update.ComplianceStatus)
			sawCompliant = true
		case lowConfidence.ID:
			t.Errorf("low-confidence record must stay pending, got update %+v", update)
		}
	}
	assert.True(t, sawCompromise)
	assert.True(t, sawCompliant)
}

func TestClassifyIsIdempotentOverFlaggedState(t *testing.T) {
	cv := variance("WIDGET-001", 25)
	res := &Results{CostVariances: []CostVariance{cv}}

	first := classifyOnly(res)
	second := classifyOnly(res)
	require.Equal(t, first.FlagRequests, second.FlagRequests,
		"flag details must be deterministic so replays deduplicate")
}
