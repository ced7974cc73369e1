package reconciliation

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/errors"
)

// Repository persists run summaries, alert records and the per-SKU
// document rollups.
type Repository interface {
	UpsertLink(ctx context.Context, link *models.DocumentInventoryLink) error
	ListLinks(ctx context.Context, orgID uuid.UUID) ([]models.DocumentInventoryLink, error)
	SaveRun(ctx context.Context, run *models.ReconciliationRun) error
	GetRun(ctx context.Context, orgID, runID uuid.UUID) (*models.ReconciliationRun, error)
	ListRuns(ctx context.Context, orgID uuid.UUID, limit int) ([]models.ReconciliationRun, error)
	SaveAlerts(ctx context.Context, alerts []models.AlertRecord) error
	ListAlerts(ctx context.Context, orgID uuid.UUID, runID *uuid.UUID) ([]models.AlertRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a gorm-backed Repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// UpsertLink creates or refreshes the rollup keyed by (org_id, sku). Links
// are never deleted; re-runs refresh them in place.
func (r *repository) UpsertLink(ctx context.Context, link *models.DocumentInventoryLink) error {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "org_id"}, {Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"purchase_transaction_id", "invoice_transaction_id", "shipment_transaction_id",
				"committed_quantity", "invoiced_quantity", "received_quantity",
				"planned_unit_cost", "actual_unit_cost", "landed_unit_cost",
				"updated_at",
			}),
		}).
		Create(link).Error
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "upserting document link")
	}
	return nil
}

func (r *repository) ListLinks(ctx context.Context, orgID uuid.UUID) ([]models.DocumentInventoryLink, error) {
	var links []models.DocumentInventoryLink
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("sku").
		Find(&links).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing document links")
	}
	return links, nil
}

func (r *repository) SaveRun(ctx context.Context, run *models.ReconciliationRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return errors.Wrap(errors.CodeInternal, err, "saving reconciliation run")
	}
	return nil
}

func (r *repository) GetRun(ctx context.Context, orgID, runID uuid.UUID) (*models.ReconciliationRun, error) {
	var run models.ReconciliationRun
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, runID).
		First(&run).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "reconciliation run not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading reconciliation run")
	}
	return &run, nil
}

func (r *repository) ListRuns(ctx context.Context, orgID uuid.UUID, limit int) ([]models.ReconciliationRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []models.ReconciliationRun
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing reconciliation runs")
	}
	return runs, nil
}

// SaveAlerts inserts the run's alert records. The unique index on
// (run_id, sku, type) makes replays of the same run a no-op.
func (r *repository) SaveAlerts(ctx context.Context, alerts []models.AlertRecord) error {
	if len(alerts) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}, {Name: "sku"}, {Name: "type"}},
			DoNothing: true,
		}).
		Create(&alerts).Error
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "saving alert records")
	}
	return nil
}

func (r *repository) ListAlerts(ctx context.Context, orgID uuid.UUID, runID *uuid.UUID) ([]models.AlertRecord, error) {
	query := r.db.WithContext(ctx).Where("org_id = ?", orgID)
	if runID != nil {
		query = query.Where("run_id = ?", *runID)
	}
	var alerts []models.AlertRecord
	if err := query.Order("timestamp DESC, sku").Find(&alerts).Error; err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing alert records")
	}
	return alerts, nil
}
