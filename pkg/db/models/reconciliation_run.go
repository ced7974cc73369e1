package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
)

// ReconciliationRun persists the summary and analysis payload of one engine
// run for an organization.
type ReconciliationRun struct {
	ID     uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"run_id"`
	OrgID  uuid.UUID       `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	Status enums.RunStatus `gorm:"column:status;not null" json:"status"`

	TransactionsProcessed int `gorm:"column:transactions_processed" json:"transactions_processed"`
	PartitionsProcessed   int `gorm:"column:partitions_processed" json:"partitions_processed"`
	PartitionsIncomplete  int `gorm:"column:partitions_incomplete" json:"partitions_incomplete"`

	ServiceScore  float64 `gorm:"column:service_score" json:"service_score"`
	CostScore     float64 `gorm:"column:cost_score" json:"cost_score"`
	CapitalScore  float64 `gorm:"column:capital_score" json:"capital_score"`
	DocumentScore float64 `gorm:"column:document_score" json:"document_score"`
	OverallScore  float64 `gorm:"column:overall_score" json:"overall_score"`
	BalanceIndex  float64 `gorm:"column:balance_index" json:"balance_index"`

	// Analysis is the full ComprehensiveAnalysis payload as emitted.
	Analysis json.RawMessage `gorm:"column:analysis;type:jsonb" json:"analysis,omitempty"`
	// SkippedStats counts comparisons skipped per data-gap reason.
	SkippedStats json.RawMessage `gorm:"column:skipped_stats;type:jsonb" json:"skipped_stats,omitempty"`

	StartedAt  time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the default pluralization.
func (ReconciliationRun) TableName() string {
	return "reconciliation_runs"
}
