package transactions

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplypulse/supplypulse-backend/pkg/config"
	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
	"github.com/supplypulse/supplypulse-backend/pkg/errors"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
)

type fakeRepo struct {
	txns map[uuid.UUID]*models.UnifiedTransaction
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{txns: map[uuid.UUID]*models.UnifiedTransaction{}}
}

func (r *fakeRepo) ListByOrg(_ context.Context, orgID uuid.UUID) ([]models.UnifiedTransaction, error) {
	var out []models.UnifiedTransaction
	for _, t := range r.txns {
		if t.OrgID == orgID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListBySKU(_ context.Context, orgID uuid.UUID, sku string) ([]models.UnifiedTransaction, error) {
	var out []models.UnifiedTransaction
	for _, t := range r.txns {
		if t.OrgID == orgID && t.SKU == sku {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (*models.UnifiedTransaction, error) {
	t, ok := r.txns[id]
	if !ok || t.OrgID != orgID {
		return nil, errors.New(errors.CodeNotFound, "transaction not found")
	}
	copied := *t
	return &copied, nil
}

func (r *fakeRepo) CreateBatch(_ context.Context, txns []models.UnifiedTransaction) error {
	for i := range txns {
		t := txns[i]
		if _, exists := r.txns[t.ID]; exists {
			continue // replays are no-ops
		}
		r.txns[t.ID] = &t
	}
	return nil
}

func (r *fakeRepo) AppendAnomalyFlag(_ context.Context, orgID, id uuid.UUID, flag models.AnomalyFlag) (bool, error) {
	t, ok := r.txns[id]
	if !ok || t.OrgID != orgID {
		return false, errors.New(errors.CodeNotFound, "transaction not found")
	}
	if t.AnomalyFlags.Contains(flag) {
		return false, nil
	}
	t.AnomalyFlags = append(t.AnomalyFlags, flag)
	return true, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, orgID, id uuid.UUID, inventory *enums.InventoryStatus, compliance *enums.ComplianceStatus) error {
	t, ok := r.txns[id]
	if !ok || t.OrgID != orgID {
		return errors.New(errors.CodeNotFound, "transaction not found")
	}
	if inventory != nil {
		t.InventoryStatus = *inventory
	}
	if compliance != nil {
		t.ComplianceStatus = *compliance
	}
	return nil
}

func newTestService(repo Repository) Service {
	log := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	return NewService(repo, log, config.IngestConfig{ConfidenceFloor: 0.5})
}

func confidence(v float64) *float64 { return &v }

func TestIngestBatchDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	org := uuid.New()

	planned := decimal.NewFromInt(1000)
	accepted, err := svc.IngestBatch(context.Background(), org, []models.UnifiedTransaction{
		{Type: enums.TransactionTypePurchase, SKU: "  WIDGET-001  ", PlannedCost: &planned},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, accepted)

	stored, err := svc.ListByOrg(context.Background(), org)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, org, stored[0].OrgID)
	assert.NotEqual(t, uuid.Nil, stored[0].ID)
	assert.Equal(t, "WIDGET-001", stored[0].SKU, "sku is trimmed")
	assert.Equal(t, "USD", stored[0].Currency)
	assert.Equal(t, enums.InventoryStatusCommitted, stored[0].InventoryStatus)
	assert.Equal(t, enums.ComplianceStatusPending, stored[0].ComplianceStatus)
}

func TestIngestBatchOrgImmutability(t *testing.T) {
	svc := newTestService(newFakeRepo())
	org := uuid.New()

	_, err := svc.IngestBatch(context.Background(), org, []models.UnifiedTransaction{
		{Type: enums.TransactionTypePurchase, OrgID: uuid.New()},
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvariant(err), "claiming another org is an invariant violation")
}

func TestIngestBatchLowConfidenceStaysPending(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	org := uuid.New()

	_, err := svc.IngestBatch(context.Background(), org, []models.UnifiedTransaction{
		{
			Type:               enums.TransactionTypeInvoice,
			SKU:                "WIDGET-001",
			DocumentConfidence: confidence(0.3),
			ComplianceStatus:   enums.ComplianceStatusCompliant,
		},
	})
	require.NoError(t, err)

	stored, _ := svc.ListByOrg(context.Background(), org)
	require.Len(t, stored, 1)
	assert.Equal(t, enums.ComplianceStatusPending, stored[0].ComplianceStatus,
		"low-confidence extraction cannot claim compliance")
}

func TestIngestBatchValidation(t *testing.T) {
	svc := newTestService(newFakeRepo())
	org := uuid.New()

	cases := []struct {
		name string
		txn  models.UnifiedTransaction
	}{
		{"invalid type", models.UnifiedTransaction{Type: "REFUND"}},
		{"confidence above one", models.UnifiedTransaction{Type: enums.TransactionTypeSale, DocumentConfidence: confidence(1.2)}},
		{"risk score out of range", models.UnifiedTransaction{Type: enums.TransactionTypeSale, RiskScore: 120}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.IngestBatch(context.Background(), org, []models.UnifiedTransaction{tc.txn})
			require.Error(t, err)
			typed := errors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, errors.CodeValidation, typed.Code())
		})
	}
}

func TestIngestBatchReplayIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	org := uuid.New()
	id := uuid.New()

	batch := []models.UnifiedTransaction{{ID: id, Type: enums.TransactionTypePurchase, SKU: "WIDGET-001"}}
	_, err := svc.IngestBatch(context.Background(), org, batch)
	require.NoError(t, err)
	_, err = svc.IngestBatch(context.Background(), org, batch)
	require.NoError(t, err)

	stored, _ := svc.ListByOrg(context.Background(), org)
	assert.Len(t, stored, 1)
}

func TestAppendAnomalyFlagIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	org := uuid.New()
	id := uuid.New()
	require.NoError(t, repo.CreateBatch(context.Background(), []models.UnifiedTransaction{
		{ID: id, OrgID: org, Type: enums.TransactionTypePurchase},
	}))

	flag := models.AnomalyFlag{
		Reason:   enums.AnomalyReasonCostVariance,
		Severity: enums.SeverityHigh,
		Detail:   "invoice a vs purchase b",
		Impact:   decimal.NewFromInt(250),
	}
	appended, err := svc.AppendAnomalyFlag(context.Background(), org, id, flag)
	require.NoError(t, err)
	assert.True(t, appended)

	appended, err = svc.AppendAnomalyFlag(context.Background(), org, id, flag)
	require.NoError(t, err)
	assert.False(t, appended, "equivalent flag must not append twice")

	stored, _ := svc.GetByID(context.Background(), org, id)
	assert.Len(t, stored.AnomalyFlags, 1)
}

func TestUpdateStatusValidatesEnums(t *testing.T) {
	svc := newTestService(newFakeRepo())
	bad := enums.InventoryStatus("exploded")
	err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), &bad, nil)
	require.Error(t, err)
	typed := errors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, errors.CodeValidation, typed.Code())
}
