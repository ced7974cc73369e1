package transactions

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
	"github.com/supplypulse/supplypulse-backend/pkg/errors"
)

// Repository is the persistence boundary for unified transactions.
type Repository interface {
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.UnifiedTransaction, error)
	ListBySKU(ctx context.Context, orgID uuid.UUID, sku string) ([]models.UnifiedTransaction, error)
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.UnifiedTransaction, error)
	CreateBatch(ctx context.Context, txns []models.UnifiedTransaction) error
	AppendAnomalyFlag(ctx context.Context, orgID, id uuid.UUID, flag models.AnomalyFlag) (bool, error)
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, inventory *enums.InventoryStatus, compliance *enums.ComplianceStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a gorm-backed Repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.UnifiedTransaction, error) {
	var txns []models.UnifiedTransaction
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("transaction_date NULLS LAST, id").
		Find(&txns).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing transactions")
	}
	return txns, nil
}

func (r *repository) ListBySKU(ctx context.Context, orgID uuid.UUID, sku string) ([]models.UnifiedTransaction, error) {
	var txns []models.UnifiedTransaction
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND sku = ?", orgID, sku).
		Order("transaction_date NULLS LAST, id").
		Find(&txns).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing transactions by sku")
	}
	return txns, nil
}

func (r *repository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.UnifiedTransaction, error) {
	var txn models.UnifiedTransaction
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&txn).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "transaction not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading transaction")
	}
	return &txn, nil
}

func (r *repository) CreateBatch(ctx context.Context, txns []models.UnifiedTransaction) error {
	if len(txns) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&txns).Error
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "creating transactions")
	}
	return nil
}

// AppendAnomalyFlag appends one flag under a row lock. The append is
// idempotent: an equivalent (reason, detail) flag already on the record is
// a no-op and reports false.
func (r *repository) AppendAnomalyFlag(ctx context.Context, orgID, id uuid.UUID, flag models.AnomalyFlag) (bool, error) {
	appended := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txn models.UnifiedTransaction
		query := tx.Where("org_id = ? AND id = ?", orgID, id)
		// sqlite (dev fallback) has no row locks; its single writer
		// serializes the read-append anyway.
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		err := query.First(&txn).Error
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.CodeNotFound, "transaction not found")
			}
			return err
		}
		if txn.AnomalyFlags.Contains(flag) {
			return nil
		}
		flags := append(txn.AnomalyFlags, flag)
		if err := tx.Model(&models.UnifiedTransaction{}).
			Where("org_id = ? AND id = ?", orgID, id).
			Update("anomaly_flags", flags).Error; err != nil {
			return err
		}
		appended = true
		return nil
	})
	if err != nil {
		if typed := errors.As(err); typed != nil {
			return false, typed
		}
		return false, errors.Wrap(errors.CodeInternal, err, "appending anomaly flag")
	}
	return appended, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, inventory *enums.InventoryStatus, compliance *enums.ComplianceStatus) error {
	updates := map[string]any{}
	if inventory != nil {
		updates["inventory_status"] = *inventory
	}
	if compliance != nil {
		updates["compliance_status"] = *compliance
	}
	if len(updates) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.UnifiedTransaction{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Updates(updates)
	if result.Error != nil {
		return errors.Wrap(errors.CodeInternal, result.Error, "updating transaction status")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.CodeNotFound, "transaction not found")
	}
	return nil
}
