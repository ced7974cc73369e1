package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
)

// AlertRecord is one severity-ranked alert projected from a compromised
// anomaly. Alerts are regenerated per run and deduplicated by (sku, type).
type AlertRecord struct {
	ID    uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID uuid.UUID `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	RunID uuid.UUID `gorm:"column:run_id;type:uuid;not null;uniqueIndex:uniq_alerts_run_sku_type,priority:1" json:"run_id"`

	Type     enums.AnomalyReason `gorm:"column:type;not null;uniqueIndex:uniq_alerts_run_sku_type,priority:3" json:"type"`
	Severity enums.Severity      `gorm:"column:severity;not null" json:"severity"`
	SKU      string              `gorm:"column:sku;not null;uniqueIndex:uniq_alerts_run_sku_type,priority:2" json:"sku"`

	Title             string          `gorm:"column:title" json:"title"`
	Message           string          `gorm:"column:message" json:"message"`
	RecommendedAction string          `gorm:"column:recommended_action" json:"recommended_action"`
	FinancialImpact   decimal.Decimal `gorm:"column:financial_impact;type:numeric" json:"financial_impact"`

	Timestamp time.Time `gorm:"column:timestamp;not null" json:"timestamp"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the default pluralization.
func (AlertRecord) TableName() string {
	return "alert_records"
}
