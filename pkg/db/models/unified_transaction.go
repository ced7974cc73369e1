package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
)

// UnifiedTransaction is the canonical, source-agnostic record of one
// commercial or logistical event. Optional fields are pointers; an absent
// value excludes the record from the comparison that needs it, it never
// fails a run.
type UnifiedTransaction struct {
	ID    uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"transaction_id"`
	OrgID uuid.UUID             `gorm:"column:org_id;type:uuid;not null;index:idx_transactions_org_sku,priority:1" json:"org_id"`
	Type  enums.TransactionType `gorm:"column:type;not null" json:"transaction_type"`

	SKU         string `gorm:"column:sku;index:idx_transactions_org_sku,priority:2" json:"sku,omitempty"`
	Description string `gorm:"column:description" json:"description,omitempty"`
	Category    string `gorm:"column:category" json:"category,omitempty"`

	Quantity          *float64 `gorm:"column:quantity" json:"quantity,omitempty"`
	CommittedQuantity *float64 `gorm:"column:committed_quantity" json:"committed_quantity,omitempty"`
	ReceivedQuantity  *float64 `gorm:"column:received_quantity" json:"received_quantity,omitempty"`

	UnitCost        *decimal.Decimal `gorm:"column:unit_cost;type:numeric" json:"unit_cost,omitempty"`
	TotalCost       *decimal.Decimal `gorm:"column:total_cost;type:numeric" json:"total_cost,omitempty"`
	PlannedCost     *decimal.Decimal `gorm:"column:planned_cost;type:numeric" json:"planned_cost,omitempty"`
	ActualCost      *decimal.Decimal `gorm:"column:actual_cost;type:numeric" json:"actual_cost,omitempty"`
	CostVariance    *decimal.Decimal `gorm:"column:cost_variance;type:numeric" json:"cost_variance,omitempty"`
	CostVariancePct *float64         `gorm:"column:cost_variance_pct" json:"cost_variance_percentage,omitempty"`

	TransactionDate *time.Time `gorm:"column:transaction_date" json:"transaction_date,omitempty"`
	PODate          *time.Time `gorm:"column:po_date" json:"po_date,omitempty"`
	ShipDate        *time.Time `gorm:"column:ship_date" json:"ship_date,omitempty"`
	ETADate         *time.Time `gorm:"column:eta_date" json:"eta_date,omitempty"`
	ReceivedDate    *time.Time `gorm:"column:received_date" json:"received_date,omitempty"`

	SupplierName string `gorm:"column:supplier_name" json:"supplier_name,omitempty"`
	CustomerName string `gorm:"column:customer_name" json:"customer_name,omitempty"`

	// Weak back-reference to the originating document; no ownership.
	SourceDocumentID   *uuid.UUID `gorm:"column:source_document_id;type:uuid" json:"source_document_id,omitempty"`
	DocumentConfidence *float64   `gorm:"column:document_confidence" json:"document_confidence,omitempty"`

	InventoryStatus  enums.InventoryStatus  `gorm:"column:inventory_status;default:committed" json:"inventory_status"`
	ComplianceStatus enums.ComplianceStatus `gorm:"column:compliance_status;default:pending" json:"compliance_status"`
	RiskScore        float64                `gorm:"column:risk_score;default:0" json:"risk_score"`
	AnomalyFlags     AnomalyFlags           `gorm:"column:anomaly_flags;type:jsonb" json:"anomaly_flags"`

	Currency string `gorm:"column:currency;default:USD" json:"currency"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName overrides the default pluralization.
func (UnifiedTransaction) TableName() string {
	return "unified_transactions"
}

// Linkable reports whether the record can participate in cross-referencing.
func (t UnifiedTransaction) Linkable() bool {
	return t.SKU != ""
}

// IsReceipt reports whether the record evidences goods received: either it
// carries a received quantity or it is a shipment with a received date.
func (t UnifiedTransaction) IsReceipt() bool {
	if t.ReceivedQuantity != nil {
		return true
	}
	return t.Type == enums.TransactionTypeShipment && t.ReceivedDate != nil
}
