package reconciliation

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/errors"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
	"github.com/supplypulse/supplypulse-backend/pkg/metrics"
)

func testRunner() *runner {
	log := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	return newRunner(log, metrics.NewReconMetrics(prometheus.NewRegistry()))
}

func TestRunnerProcessesPartitionsInSKUOrder(t *testing.T) {
	partitions := map[string][]models.UnifiedTransaction{
		"ZULU-009": {
			purchase("ZULU-009", "1000", 10, "2025-01-01"),
			invoice("ZULU-009", "1250", "2025-01-10"),
		},
		"ALPHA-001": {
			purchase("ALPHA-001", "1000", 10, "2025-01-01"),
			invoice("ALPHA-001", "1150", "2025-01-10"),
		},
	}
	results, err := testRunner().process(context.Background(), testOrg, partitions, DefaultPolicies())

	require.NoError(t, err)
	require.Len(t, results.Partitions, 2)
	assert.Equal(t, "ALPHA-001", results.Partitions[0].SKU)
	assert.Equal(t, "ZULU-009", results.Partitions[1].SKU)
	require.Len(t, results.CostVariances, 2)
	assert.Equal(t, "ALPHA-001", results.CostVariances[0].SKU, "merge order follows SKU order, not worker order")
}

func TestRunnerRejectsCrossTenantPartition(t *testing.T) {
	foreign := purchase("WIDGET-001", "1000", 10, "2025-01-01")
	foreign.OrgID = uuid.New()
	partitions := map[string][]models.UnifiedTransaction{
		"WIDGET-001": {foreign},
	}
	results, err := testRunner().process(context.Background(), testOrg, partitions, DefaultPolicies())

	assert.Nil(t, results, "no partial results may survive a tenant violation")
	require.Error(t, err)
	assert.True(t, errors.IsInvariant(err))
}

func TestRunnerKeepsCommittedResultsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	partitions := map[string][]models.UnifiedTransaction{
		"WIDGET-001": {purchase("WIDGET-001", "1000", 10, "2025-01-01")},
		"GADGET-002": {purchase("GADGET-002", "1000", 10, "2025-01-01")},
	}
	results, err := testRunner().process(ctx, testOrg, partitions, DefaultPolicies())

	require.NoError(t, err)
	require.NotNil(t, results)
	// A cancelled run keeps whatever finished and reports the rest
	// incomplete; no partition is silently dropped.
	seen := append([]string{}, results.IncompleteSKUs...)
	for _, pr := range results.Partitions {
		seen = append(seen, pr.SKU)
	}
	assert.ElementsMatch(t, []string{"GADGET-002", "WIDGET-001"}, seen)
}

func TestRunnerSinglePartitionPoolOfOne(t *testing.T) {
	pol := DefaultPolicies()
	pol.WorkerPoolSize = 1

	partitions := map[string][]models.UnifiedTransaction{}
	for _, sku := range []string{"A-1", "B-2", "C-3", "D-4", "E-5"} {
		partitions[sku] = []models.UnifiedTransaction{
			purchase(sku, "1000", 10, "2025-01-01"),
			invoice(sku, "1250", "2025-01-10"),
		}
	}
	results, err := testRunner().process(context.Background(), testOrg, partitions, pol)

	require.NoError(t, err)
	assert.Len(t, results.Partitions, 5)
	assert.Len(t, results.CostVariances, 5)
	assert.Empty(t, results.IncompleteSKUs)
}
