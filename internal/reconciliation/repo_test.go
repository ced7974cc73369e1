package reconciliation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
	pkgerrors "github.com/supplypulse/supplypulse-backend/pkg/errors"
)

func setupReconTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	links := `
CREATE TABLE IF NOT EXISTS document_inventory_links (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  purchase_transaction_id TEXT,
  invoice_transaction_id TEXT,
  shipment_transaction_id TEXT,
  committed_quantity REAL,
  invoiced_quantity REAL,
  received_quantity REAL,
  planned_unit_cost NUMERIC,
  actual_unit_cost NUMERIC,
  landed_unit_cost NUMERIC,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (org_id, sku)
);`
	runs := `
CREATE TABLE IF NOT EXISTS reconciliation_runs (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  status TEXT NOT NULL,
  transactions_processed INTEGER,
  partitions_processed INTEGER,
  partitions_incomplete INTEGER,
  service_score REAL,
  cost_score REAL,
  capital_score REAL,
  document_score REAL,
  overall_score REAL,
  balance_index REAL,
  analysis TEXT,
  skipped_stats TEXT,
  started_at DATETIME NOT NULL,
  finished_at DATETIME,
  created_at DATETIME
);`
	alerts := `
CREATE TABLE IF NOT EXISTS alert_records (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  run_id TEXT NOT NULL,
  type TEXT NOT NULL,
  severity TEXT NOT NULL,
  sku TEXT NOT NULL,
  title TEXT,
  message TEXT,
  recommended_action TEXT,
  financial_impact NUMERIC,
  timestamp DATETIME NOT NULL,
  created_at DATETIME,
  UNIQUE (run_id, sku, type)
);`
	for _, ddl := range []string{links, runs, alerts} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func TestRepositoryUpsertLinkRefreshesInPlace(t *testing.T) {
	db := setupReconTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	orgID := uuid.New()

	purchaseID := uuid.New()
	planned := decimal.NewFromInt(10)
	committed := 100.0

	first := &models.DocumentInventoryLink{
		OrgID:                 orgID,
		SKU:                   "WIDGET-1",
		PurchaseTransactionID: &purchaseID,
		CommittedQuantity:     &committed,
		PlannedUnitCost:       &planned,
	}
	require.NoError(t, repo.UpsertLink(ctx, first))

	invoiceID := uuid.New()
	actual := decimal.RequireFromString("12.5")
	second := &models.DocumentInventoryLink{
		OrgID:                 orgID,
		SKU:                   "WIDGET-1",
		PurchaseTransactionID: &purchaseID,
		InvoiceTransactionID:  &invoiceID,
		CommittedQuantity:     &committed,
		PlannedUnitCost:       &planned,
		ActualUnitCost:        &actual,
	}
	require.NoError(t, repo.UpsertLink(ctx, second))

	links, err := repo.ListLinks(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, links, 1, "re-linking the same (org, sku) must not add rows")

	link := links[0]
	require.NotNil(t, link.InvoiceTransactionID)
	assert.Equal(t, invoiceID, *link.InvoiceTransactionID)
	require.NotNil(t, link.ActualUnitCost)
	assert.True(t, link.ActualUnitCost.Equal(actual))
}

func TestRepositorySaveAndGetRun(t *testing.T) {
	db := setupReconTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	orgID := uuid.New()

	analysis, err := json.Marshal(map[string]any{"alerts": []any{}})
	require.NoError(t, err)

	run := &models.ReconciliationRun{
		ID:                    uuid.New(),
		OrgID:                 orgID,
		Status:                enums.RunStatusCompleted,
		TransactionsProcessed: 7,
		PartitionsProcessed:   3,
		OverallScore:          88.5,
		Analysis:              analysis,
		StartedAt:             time.Now().UTC(),
	}
	require.NoError(t, repo.SaveRun(ctx, run))

	loaded, err := repo.GetRun(ctx, orgID, run.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RunStatusCompleted, loaded.Status)
	assert.Equal(t, 7, loaded.TransactionsProcessed)
	assert.InDelta(t, 88.5, loaded.OverallScore, 0.001)
	assert.JSONEq(t, string(analysis), string(loaded.Analysis))

	_, err = repo.GetRun(ctx, orgID, uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRepositoryListRunsNewestFirst(t *testing.T) {
	db := setupReconTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	orgID := uuid.New()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		run := &models.ReconciliationRun{
			ID:        uuid.New(),
			OrgID:     orgID,
			Status:    enums.RunStatusCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.SaveRun(ctx, run))
		ids = append(ids, run.ID)
	}

	runs, err := repo.ListRuns(ctx, orgID, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}

func TestRepositorySaveAlertsReplayIsNoOp(t *testing.T) {
	db := setupReconTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	orgID := uuid.New()
	runID := uuid.New()

	record := models.AlertRecord{
		ID:              uuid.New(),
		OrgID:           orgID,
		RunID:           runID,
		Type:            enums.AnomalyReasonCostVariance,
		Severity:        enums.SeverityHigh,
		SKU:             "WIDGET-1",
		Title:           "Cost variance on WIDGET-1",
		FinancialImpact: decimal.NewFromInt(2500),
		Timestamp:       time.Now().UTC(),
	}
	require.NoError(t, repo.SaveAlerts(ctx, []models.AlertRecord{record}))

	replay := record
	replay.ID = uuid.New()
	require.NoError(t, repo.SaveAlerts(ctx, []models.AlertRecord{replay}))

	alerts, err := repo.ListAlerts(ctx, orgID, &runID)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestRepositoryListAlertsFiltersByRun(t *testing.T) {
	db := setupReconTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	orgID := uuid.New()
	firstRun := uuid.New()
	secondRun := uuid.New()

	for i, runID := range []uuid.UUID{firstRun, secondRun} {
		require.NoError(t, repo.SaveAlerts(ctx, []models.AlertRecord{{
			ID:        uuid.New(),
			OrgID:     orgID,
			RunID:     runID,
			Type:      enums.AnomalyReasonDelayed,
			Severity:  enums.SeverityMedium,
			SKU:       "WIDGET-1",
			Timestamp: time.Now().UTC().Add(time.Duration(i) * time.Minute),
		}}))
	}

	all, err := repo.ListAlerts(ctx, orgID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := repo.ListAlerts(ctx, orgID, &firstRun)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, firstRun, scoped[0].RunID)
}
