package reconciliation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplypulse/supplypulse-backend/pkg/enums"
)

func TestAlertsDeduplicatePerSKUAndReason(t *testing.T) {
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	res := &Results{
		CostVariances: []CostVariance{
			variance("WIDGET-001", 25),
			variance("WIDGET-001", 12),
		},
	}
	alerts := buildAlerts(res, DefaultPolicies(), at)

	require.Len(t, alerts, 1, "one alert per (sku, reason) however many pairs diverge")
	alert := alerts[0]
	assert.Equal(t, enums.AnomalyReasonCostVariance, alert.Type)
	assert.Equal(t, enums.SeverityHigh, alert.Severity, "worst pair severity wins")
	assert.Equal(t, "WIDGET-001", alert.SKU)
	assert.True(t, alert.FinancialImpact.Equal(decimal.RequireFromString("370")),
		"impacts sum across pairs, got %s", alert.FinancialImpact)
	assert.Equal(t, at, alert.Timestamp)
}

func TestAlertsIgnoreInformationalVariances(t *testing.T) {
	res := &Results{CostVariances: []CostVariance{variance("WIDGET-001", 7)}}
	alerts := buildAlerts(res, DefaultPolicies(), time.Now())
	assert.Empty(t, alerts)
}

func TestAlertsOrderedBySeverityThenSKU(t *testing.T) {
	res := &Results{
		CostVariances: []CostVariance{
			variance("ZULU-009", 12),  // medium
			variance("ALPHA-001", 25), // high
		},
		QuantityDiscrepancies: []QuantityDiscrepancy{{
			SKU:               "MIKE-005",
			PurchaseID:        uuid.New(),
			ReceiptID:         uuid.New(),
			CommittedQuantity: 100,
			ReceivedQuantity:  80,
			Discrepancy:       -20,
			EstimatedImpact:   decimal.NewFromInt(900),
		}},
	}
	alerts := buildAlerts(res, DefaultPolicies(), time.Now())

	require.Len(t, alerts, 3)
	assert.Equal(t, "ALPHA-001", alerts[0].SKU)
	assert.Equal(t, enums.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, "MIKE-005", alerts[1].SKU)
	assert.Equal(t, enums.SeverityHigh, alerts[1].Severity)
	assert.Equal(t, "ZULU-009", alerts[2].SKU)
	assert.Equal(t, enums.SeverityMedium, alerts[2].Severity)
}

func TestAlertsAreStableAcrossRuns(t *testing.T) {
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	res := &Results{
		CostVariances: []CostVariance{
			variance("WIDGET-001", 25),
			variance("GADGET-002", 15),
		},
	}
	first := buildAlerts(res, DefaultPolicies(), at)
	second := buildAlerts(res, DefaultPolicies(), at)
	assert.Equal(t, first, second)
}
