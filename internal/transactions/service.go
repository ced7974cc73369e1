package transactions

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/supplypulse/supplypulse-backend/pkg/config"
	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
	"github.com/supplypulse/supplypulse-backend/pkg/errors"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
)

// Service is the transaction store accessor: it owns batch ingestion
// semantics and the narrow mutations the reconciliation engine performs.
type Service interface {
	IngestBatch(ctx context.Context, orgID uuid.UUID, txns []models.UnifiedTransaction) (int, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.UnifiedTransaction, error)
	ListBySKU(ctx context.Context, orgID uuid.UUID, sku string) ([]models.UnifiedTransaction, error)
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.UnifiedTransaction, error)
	AppendAnomalyFlag(ctx context.Context, orgID, id uuid.UUID, flag models.AnomalyFlag) (bool, error)
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, inventory *enums.InventoryStatus, compliance *enums.ComplianceStatus) error
}

type service struct {
	repo            Repository
	log             *logger.Logger
	confidenceFloor float64
}

// NewService wires the store accessor.
func NewService(repo Repository, log *logger.Logger, ingestCfg config.IngestConfig) Service {
	return &service{
		repo:            repo,
		log:             log,
		confidenceFloor: ingestCfg.ConfidenceFloor,
	}
}

// IngestBatch normalizes and persists a batch of unified transactions for
// one org. org_id is immutable: records claiming another org are rejected,
// the batch is atomic-per-record otherwise (replays of already-stored IDs
// are no-ops). Returns the number of records accepted for storage.
func (s *service) IngestBatch(ctx context.Context, orgID uuid.UUID, txns []models.UnifiedTransaction) (int, error) {
	if orgID == uuid.Nil {
		return 0, errors.New(errors.CodeValidation, "org_id is required")
	}

	prepared := make([]models.UnifiedTransaction, 0, len(txns))
	for i := range txns {
		t := txns[i]
		if t.OrgID != uuid.Nil && t.OrgID != orgID {
			return 0, errors.New(errors.CodeInvariant,
				fmt.Sprintf("record %d claims org %s, batch is for org %s", i, t.OrgID, orgID))
		}
		t.OrgID = orgID
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		if !t.Type.IsValid() {
			return 0, errors.New(errors.CodeValidation,
				fmt.Sprintf("record %d has invalid transaction type %q", i, t.Type))
		}
		t.SKU = strings.TrimSpace(t.SKU)
		if t.Currency == "" {
			t.Currency = "USD"
		}
		if t.InventoryStatus == "" {
			t.InventoryStatus = enums.InventoryStatusCommitted
		}
		if t.ComplianceStatus == "" {
			t.ComplianceStatus = enums.ComplianceStatusPending
		}
		if t.DocumentConfidence != nil && (*t.DocumentConfidence < 0 || *t.DocumentConfidence > 1) {
			return 0, errors.New(errors.CodeValidation,
				fmt.Sprintf("record %d has document confidence outside [0,1]", i))
		}
		// Low-confidence extractions stay pending regardless of what the
		// source claimed, until the engine or a re-extraction says otherwise.
		if t.DocumentConfidence != nil && *t.DocumentConfidence < s.confidenceFloor {
			t.ComplianceStatus = enums.ComplianceStatusPending
		}
		if t.RiskScore < 0 || t.RiskScore > 100 {
			return 0, errors.New(errors.CodeValidation,
				fmt.Sprintf("record %d has risk score outside [0,100]", i))
		}
		prepared = append(prepared, t)
	}

	if err := s.repo.CreateBatch(ctx, prepared); err != nil {
		return 0, err
	}
	s.log.Info(s.log.WithOrgID(ctx, orgID.String()),
		fmt.Sprintf("ingested batch of %d transactions", len(prepared)))
	return len(prepared), nil
}

func (s *service) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.UnifiedTransaction, error) {
	return s.repo.ListByOrg(ctx, orgID)
}

func (s *service) ListBySKU(ctx context.Context, orgID uuid.UUID, sku string) ([]models.UnifiedTransaction, error) {
	return s.repo.ListBySKU(ctx, orgID, sku)
}

func (s *service) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.UnifiedTransaction, error) {
	return s.repo.GetByID(ctx, orgID, id)
}

func (s *service) AppendAnomalyFlag(ctx context.Context, orgID, id uuid.UUID, flag models.AnomalyFlag) (bool, error) {
	if !flag.Reason.IsValid() {
		return false, errors.New(errors.CodeValidation, fmt.Sprintf("invalid anomaly reason %q", flag.Reason))
	}
	return s.repo.AppendAnomalyFlag(ctx, orgID, id, flag)
}

func (s *service) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, inventory *enums.InventoryStatus, compliance *enums.ComplianceStatus) error {
	if inventory != nil && !inventory.IsValid() {
		return errors.New(errors.CodeValidation, fmt.Sprintf("invalid inventory status %q", *inventory))
	}
	if compliance != nil && !compliance.IsValid() {
		return errors.New(errors.CodeValidation, fmt.Sprintf("invalid compliance status %q", *compliance))
	}
	return s.repo.UpdateStatus(ctx, orgID, id, inventory, compliance)
}
