package reconciliation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplypulse/supplypulse-backend/pkg/enums"
)

func supplierVariance(supplier string, amount int64) CostVariance {
	planned := decimal.NewFromInt(amount * 4) // 25% variance, well past the compromise band
	return CostVariance{
		SKU:          "WIDGET-001",
		SupplierName: supplier,
		PlannedCost:  planned,
		ActualCost:   planned.Add(decimal.NewFromInt(amount)),
		Variance:     decimal.NewFromInt(amount),
		VariancePct:  25,
		Currency:     "USD",
	}
}

func TestRecoveryOpportunityMateriality(t *testing.T) {
	res := &Results{
		CostVariances: []CostVariance{
			supplierVariance("Acme Corp", 6000),
			supplierVariance("Acme Corp", 5000),
			supplierVariance("Budget Supplies", 4000),
		},
	}
	opportunities := aggregateOpportunities(res, DefaultPolicies())

	var recovery []Opportunity
	for _, o := range opportunities {
		if o.Type == enums.OpportunityTypeRecovery {
			recovery = append(recovery, o)
		}
	}
	require.Len(t, recovery, 1, "only Acme crosses the 10k floor")
	assert.Equal(t, "Acme Corp", recovery[0].SupplierName)
	assert.Equal(t, 2, recovery[0].ItemCount)
	assert.True(t, recovery[0].TotalImpact.Equal(decimal.NewFromInt(11000)))
	assert.True(t, recovery[0].PotentialSavings.Equal(decimal.NewFromInt(5500)),
		"half the impact is treated as recoverable")
	assert.Equal(t, "Initiate supplier recovery discussion", recovery[0].RecommendedAction)
	assert.Equal(t, enums.SeverityHigh, recovery[0].Priority)
}

func TestCostOptimizationOnlyCountsOverpayment(t *testing.T) {
	under := supplierVariance("Acme Corp", 6000)
	under.Variance = under.Variance.Neg() // paid less than planned
	under.VariancePct = -25

	res := &Results{CostVariances: []CostVariance{under}}
	opportunities := aggregateOpportunities(res, DefaultPolicies())
	for _, o := range opportunities {
		assert.NotEqual(t, enums.OpportunityTypeCostOptimization, o.Type)
	}
}

func TestInformationalVariancesFeedCostOptimization(t *testing.T) {
	informational := supplierVariance("Acme Corp", 20000)
	informational.VariancePct = 7 // reported, not compromised

	res := &Results{CostVariances: []CostVariance{informational}}
	opportunities := aggregateOpportunities(res, DefaultPolicies())

	require.Len(t, opportunities, 1,
		"a large informational variance is an optimization target, never a recovery one")
	opp := opportunities[0]
	assert.Equal(t, enums.OpportunityTypeCostOptimization, opp.Type)
	assert.Equal(t, "Acme Corp", opp.SupplierName)
	assert.True(t, opp.TotalImpact.Equal(decimal.NewFromInt(20000)))
	assert.True(t, opp.PotentialSavings.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, enums.SeverityMedium, opp.Priority)
}

func TestSmallInformationalVariancesStayBelowOptimizationFloor(t *testing.T) {
	informational := supplierVariance("Acme Corp", 4000)
	informational.VariancePct = 7

	res := &Results{CostVariances: []CostVariance{informational}}
	assert.Empty(t, aggregateOpportunities(res, DefaultPolicies()),
		"the 5k materiality floor still applies to informational variances")
}

func TestQuantityImpactsFeedRecovery(t *testing.T) {
	res := &Results{
		QuantityDiscrepancies: []QuantityDiscrepancy{{
			SKU:               "GADGET-002",
			SupplierName:      "Acme Corp",
			CommittedQuantity: 100,
			ReceivedQuantity:  50,
			Discrepancy:       -50,
			EstimatedImpact:   decimal.NewFromInt(10500),
		}},
	}
	opportunities := aggregateOpportunities(res, DefaultPolicies())
	require.Len(t, opportunities, 1)
	assert.Equal(t, enums.OpportunityTypeRecovery, opportunities[0].Type)
}

func TestMissingSupplierGroupsUnderUnknown(t *testing.T) {
	res := &Results{CostVariances: []CostVariance{supplierVariance("", 11000)}}
	opportunities := aggregateOpportunities(res, DefaultPolicies())
	require.NotEmpty(t, opportunities)
	assert.Equal(t, unknownSupplier, opportunities[0].SupplierName)
}
